// Package lang maps file paths and editor language identifiers onto the
// set of languages the analysis pipeline understands.
package lang

import (
	"path/filepath"
	"strings"
)

// Canonical language names used throughout the pipeline. The remote
// service reports the same names in AnalysisResult.Language.
const (
	Python  = "python"
	Java    = "java"
	C       = "c"
	CPP     = "cpp"
	Unknown = "unknown"
)

// Supported reports whether analysis may be triggered for the language.
func Supported(language string) bool {
	switch normalize(language) {
	case Python, Java, C, CPP:
		return true
	}
	return false
}

// CFamily reports whether the fallback heuristic detector and the
// conceptual-focus mode apply to the language.
func CFamily(language string) bool {
	switch normalize(language) {
	case C, CPP:
		return true
	}
	return false
}

// ForPath guesses the language from a file extension.
func ForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return Python
	case ".java":
		return Java
	case ".c", ".h":
		return C
	case ".cpp", ".cc", ".cxx", ".hpp", ".hh":
		return CPP
	}
	return Unknown
}

// normalize folds editor language identifiers onto canonical names.
func normalize(language string) string {
	switch strings.ToLower(language) {
	case "c++", "cpp":
		return CPP
	case "c":
		return C
	case "python":
		return Python
	case "java":
		return Java
	}
	return strings.ToLower(language)
}
