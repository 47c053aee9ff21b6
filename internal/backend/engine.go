package backend

import (
	"fmt"
	"regexp"
	"strings"

	"smarty/internal/analysis"
	"smarty/internal/heuristic"
	"smarty/internal/lang"
)

var (
	includeRe   = regexp.MustCompile(`(?m)^\s*#\s*include\b`)
	cppMarkerRe = regexp.MustCompile(`std::|\bcout\b|\bcin\b|<iostream>|<vector>|\bclass\s+\w+\s*[:{]`)
	javaRe      = regexp.MustCompile(`\bpublic\s+(?:class|interface)\b|System\.out\.print`)
	pythonRe    = regexp.MustCompile(`(?m)^\s*(?:def\s+\w+\s*\(|import\s+\w+|from\s+\w+\s+import\b|print\()`)
)

// detectLanguage guesses the submitted snippet's language from its
// surface syntax. The full service asks the tool sandbox; the
// development stub only needs to be right often enough to exercise the
// client pipeline.
func detectLanguage(code string) string {
	switch {
	case includeRe.MatchString(code):
		if cppMarkerRe.MatchString(code) {
			return lang.CPP
		}
		return lang.C
	case javaRe.MatchString(code):
		return lang.Java
	case pythonRe.MatchString(code):
		return lang.Python
	}
	return lang.Unknown
}

// evaluate produces the stub's analysis result for a snippet. Only the
// heuristic detector actually runs; linter and runtime slots carry
// sentinels so the client renders them as clean.
func evaluate(code string, focus bool) analysis.Result {
	language := detectLanguage(code)
	res := analysis.Result{
		Language: language,
		Issues:   map[string]string{},
		Runtime:  analysis.SentinelNoOutput,
	}
	switch language {
	case lang.Python:
		res.Issues[analysis.ToolFlake8] = analysis.SentinelNoIssues
		res.Issues[analysis.ToolMypy] = analysis.SentinelNoIssues
	case lang.C, lang.CPP:
		res.Issues[analysis.ToolCppcheck] = analysis.SentinelNoIssues
		res.Issues[analysis.ToolClang] = analysis.SentinelNoIssues
		res.Issues[analysis.ToolConceptual] = conceptualBlob(code, language, focus)
	}
	return res
}

// conceptualBlob renders heuristic findings in the textual form the
// client's normalizer parses, one finding per line with an explicit
// line reference.
func conceptualBlob(code, language string, focus bool) string {
	findings := heuristic.Scan(code, language, focus)
	if len(findings) == 0 {
		return "no issues found"
	}
	var lines []string
	for _, f := range findings {
		lines = append(lines, fmt.Sprintf("%s at line %d", f.Message, f.Range.Start.Line+1))
	}
	return strings.Join(lines, "\n")
}
