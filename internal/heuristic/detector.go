package heuristic

import (
	"strings"

	"smarty/internal/diag"
	"smarty/internal/lang"
)

// Scan runs the pattern table against text and returns provisional
// diagnostics in table priority order. It is a pure function: no I/O, no
// shared state, deterministic for a given (text, language, focus) triple.
// Languages outside the C family yield no diagnostics.
//
// When focus is set (the "fix conceptual errors" command), warnings are
// raised to errors so provisional findings match the severity the remote
// conceptual report would use.
func Scan(text, language string, focus bool) []diag.Diagnostic {
	if !lang.CFamily(language) || text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	var out []diag.Diagnostic
	for _, p := range table {
		if !p.Trigger.MatchString(text) {
			continue
		}
		if p.Requires != nil && !p.Requires.MatchString(text) {
			continue
		}
		if p.Absent != nil && p.Absent.MatchString(text) {
			continue
		}
		sev := p.Severity
		if focus && sev == diag.SevWarning {
			sev = diag.SevError
		}
		out = append(out, diag.Diagnostic{
			Range:      diag.LineRange(lines, triggerLine(lines, &p)),
			Severity:   sev,
			Message:    p.Message,
			Source:     Source,
			FixCommand: FixCommand,
		})
	}
	return out
}

// triggerLine finds the first line matching the trigger pattern. Line 0 is
// the documented fallback when the trigger only matches across line
// boundaries.
func triggerLine(lines []string, p *Pattern) int {
	for i, line := range lines {
		if p.Trigger.MatchString(line) {
			return i
		}
	}
	return 0
}
