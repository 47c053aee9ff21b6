// Package normalize converts the remote service's per-tool raw text blobs
// into the diagnostic value model. One parser exists per known tool-output
// shape; lines that do not match a shape are skipped, never fatal.
package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"smarty/internal/analysis"
	"smarty/internal/diag"
)

// toolShape describes one tool family's line grammar.
type toolShape struct {
	// pattern captures (line, col, message) or (line, message) groups.
	pattern  *regexp.Regexp
	severity diag.Severity
	hasCol   bool
}

// shapes is the process-wide tool registry, immutable after init.
var shapes = map[string]toolShape{
	analysis.ToolFlake8: {
		pattern:  regexp.MustCompile(`^[^:]+:(\d+):(\d+):\s*(.+)$`),
		severity: diag.SevWarning,
		hasCol:   true,
	},
	analysis.ToolMypy: {
		pattern:  regexp.MustCompile(`^[^:]+:(\d+):\s*(.+)$`),
		severity: diag.SevError,
	},
	analysis.ToolCppcheck: {
		pattern:  regexp.MustCompile(`^[^:]+:(\d+):(\d+):\s*(.+)$`),
		severity: diag.SevWarning,
		hasCol:   true,
	},
	analysis.ToolClang: {
		pattern:  regexp.MustCompile(`^[^:]+:(\d+):(\d+):\s*(.+)$`),
		severity: diag.SevError,
		hasCol:   true,
	},
}

// genericShape parses unknown tools that still follow the common
// path:line:col: message convention.
var genericShape = toolShape{
	pattern:  regexp.MustCompile(`^[^:]+:(\d+):(\d+):\s*(.+)$`),
	severity: diag.SevWarning,
	hasCol:   true,
}

// Diagnostics converts an AnalysisResult into diagnostics against text. The
// output is deterministic: tool sections in sorted key order, then the
// runtime transcript, then promoted suggestions. focus controls the
// severity of conceptual findings.
func Diagnostics(res *analysis.Result, text string, focus bool) []diag.Diagnostic {
	if res == nil {
		return nil
	}
	lines := strings.Split(text, "\n")
	var out []diag.Diagnostic

	tools := make([]string, 0, len(res.Issues))
	for name := range res.Issues {
		tools = append(tools, name)
	}
	sort.Strings(tools)
	for _, tool := range tools {
		blob := res.Issues[tool]
		if analysis.IsSentinel(blob) {
			continue
		}
		if tool == analysis.ToolConceptual {
			out = append(out, Conceptual(blob, lines, focus)...)
			continue
		}
		out = append(out, toolDiagnostics(tool, blob, lines)...)
	}
	if d, ok := runtimeDiagnostic(res.Runtime, lines); ok {
		out = append(out, d)
	}
	out = append(out, Suggestions(res.Suggestions, lines)...)
	return out
}

func toolDiagnostics(tool, blob string, lines []string) []diag.Diagnostic {
	shape, ok := shapes[tool]
	if !ok {
		shape = genericShape
	}
	var out []diag.Diagnostic
	for _, raw := range strings.Split(blob, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		m := shape.pattern.FindStringSubmatch(raw)
		if m == nil {
			// Banner and summary lines fall through here.
			continue
		}
		line := clampParsedLine(m[1], lines)
		col := 0
		msg := m[len(m)-1]
		if shape.hasCol {
			col = maxZero(atoi(m[2]) - 1)
		}
		r := diag.LineRange(lines, line)
		if col > 0 && col < r.End.Col {
			r.Start.Col = col
		}
		out = append(out, diag.Diagnostic{
			Range:    r,
			Severity: shape.severity,
			Message:  msg,
			Source:   tool,
		})
	}
	return out
}

// clampParsedLine converts a captured 1-based line number to a 0-based
// index, mapping anything past the document onto line 0.
func clampParsedLine(group string, lines []string) int {
	return diag.ClampLine(atoi(group)-1, len(lines))
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func maxZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
