package normalize

import (
	"regexp"
	"strings"

	"smarty/internal/analysis"
	"smarty/internal/diag"
	"smarty/internal/heuristic"
)

// SourceConceptual tags diagnostics parsed from the remote conceptual
// report.
const SourceConceptual = "smarty-conceptual"

// conceptualLabel prefixes every conceptual diagnostic message.
const conceptualLabel = "Conceptual Issue: "

var (
	explicitLineRe = regexp.MustCompile(`(?i)\b(?:at\s+)?line\s+(\d+)\b`)
	variableNameRe = regexp.MustCompile(`(?i)variable\s+[\x60'"]?([A-Za-z_]\w*)`)
	allocationRe   = regexp.MustCompile(`\b(?:malloc|calloc|realloc)\s*\(|\bnew\b`)
	nullAssignRe   = regexp.MustCompile(`[A-Za-z_]\w*\s*=\s*(?:NULL|nullptr)\b`)
)

// Conceptual parses the free-text conceptual-error report. Every non-empty
// line becomes one diagnostic; the reported position is resolved by
// content since these lines have no fixed grammar.
func Conceptual(blob string, lines []string, focus bool) []diag.Diagnostic {
	sev := diag.SevWarning
	if focus {
		sev = diag.SevError
	}
	var out []diag.Diagnostic
	for _, raw := range strings.Split(blob, "\n") {
		raw = strings.TrimSpace(raw)
		if analysis.IsSentinelLine(raw) {
			continue
		}
		out = append(out, diag.Diagnostic{
			Range:      diag.LineRange(lines, resolveConceptualLine(raw, lines)),
			Severity:   sev,
			Message:    conceptualLabel + raw,
			Source:     SourceConceptual,
			FixCommand: heuristic.FixCommand,
		})
	}
	return out
}

// resolveConceptualLine attempts each resolution strategy in order; the
// first match wins.
func resolveConceptualLine(issue string, lines []string) int {
	if m := explicitLineRe.FindStringSubmatch(issue); m != nil {
		return diag.ClampLine(atoi(m[1])-1, len(lines))
	}
	lower := strings.ToLower(issue)
	if strings.Contains(lower, "uninitialized variable") {
		if m := variableNameRe.FindStringSubmatch(issue); m != nil {
			if line, ok := declarationLine(m[1], lines); ok {
				return line
			}
		}
	}
	if strings.Contains(lower, "memory leak") {
		if line, ok := firstMatch(allocationRe, lines); ok {
			return line
		}
	}
	if strings.Contains(lower, "null pointer") {
		if line, ok := firstMatch(nullAssignRe, lines); ok {
			return line
		}
	}
	return 0
}

// declarationLine finds the typed declaration of name.
func declarationLine(name string, lines []string) (int, bool) {
	re, err := regexp.Compile(`\b(?:int|long|short|float|double|char|unsigned|signed)\b[^;=]*\b` + regexp.QuoteMeta(name) + `\b`)
	if err != nil {
		return 0, false
	}
	return firstMatch(re, lines)
}

func firstMatch(re *regexp.Regexp, lines []string) (int, bool) {
	for i, line := range lines {
		if re.MatchString(line) {
			return i, true
		}
	}
	return 0, false
}
