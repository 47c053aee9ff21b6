package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"smarty/internal/analysis"
	"smarty/internal/diag"
)

// Source tags for non-tool diagnostics.
const (
	SourceRuntime    = "smarty-runtime"
	SourceSuggestion = "smarty-ai"
)

// maxRuntimePreview bounds the transcript excerpt embedded in the runtime
// diagnostic so a looping program cannot produce an unbounded payload.
const maxRuntimePreview = 500

var (
	suggestionMarkerRe = regexp.MustCompile(`(?i)\b(suggestion|recommendation|conceptual issue)\b`)
	numberedLineRe     = regexp.MustCompile(`^\s*\d+[.)]\s+`)
	issueKeywordRe     = regexp.MustCompile(`(?i)\b(error|issue|bug)\b`)
)

// runtimeDiagnostic emits exactly one whole-document error when the
// transcript describes a failed execution.
func runtimeDiagnostic(transcript string, lines []string) (diag.Diagnostic, bool) {
	if !analysis.RuntimeFailed(transcript) {
		return diag.Diagnostic{}, false
	}
	preview := strings.TrimSpace(transcript)
	if len(preview) > maxRuntimePreview {
		cut := maxRuntimePreview
		// Back off to a rune boundary so the excerpt stays valid UTF-8.
		for cut > 0 && !utf8.RuneStart(preview[cut]) {
			cut--
		}
		preview = preview[:cut] + "..."
	}
	return diag.Diagnostic{
		Range:    diag.DocumentRange(lines),
		Severity: diag.SevError,
		Message:  "Runtime error: " + preview,
		Source:   SourceRuntime,
	}, true
}

// Suggestions promotes selected lines of the free-text AI suggestions to
// informational diagnostics. A line qualifies when it carries an explicit
// suggestion/recommendation marker, or when it is a numbered-list entry
// mentioning an error, issue, or bug. Everything else stays prose.
func Suggestions(text string, lines []string) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !suggestionMarkerRe.MatchString(raw) &&
			!(numberedLineRe.MatchString(raw) && issueKeywordRe.MatchString(raw)) {
			continue
		}
		line := 0
		if m := explicitLineRe.FindStringSubmatch(raw); m != nil {
			line = diag.ClampLine(atoi(m[1])-1, len(lines))
		}
		out = append(out, diag.Diagnostic{
			Range:    diag.LineRange(lines, line),
			Severity: diag.SevInfo,
			Message:  raw,
			Source:   SourceSuggestion,
		})
	}
	return out
}
