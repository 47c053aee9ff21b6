package diag

import "fmt"

// Position is a zero-based line/column location in a document.
type Position struct {
	Line int
	Col  int
}

// Before reports whether p precedes other in document order.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Col < other.Col
}

// Range is a half-open [Start, End) region of a document.
type Range struct {
	Start Position
	End   Position
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line, r.Start.Col, r.End.Line, r.End.Col)
}

// Diagnostic is a single reported issue bound to a document range.
// It is a comparable value: construct once, compare with ==.
type Diagnostic struct {
	Range    Range
	Severity Severity
	Message  string
	// Source identifies the tool or detector that produced the diagnostic.
	Source string
	// FixCommand optionally names a command the UI may offer to remediate
	// the issue. Empty when no fix is available.
	FixCommand string
}

// ClampLine maps an out-of-range zero-based line index to 0. Indices are
// never rejected: tool output routinely references lines that no longer
// exist in the edited document.
func ClampLine(line, lineCount int) int {
	if line < 0 || line >= lineCount {
		return 0
	}
	return line
}

// Clamp returns a copy of r constrained to a document with lineCount lines.
// End never precedes Start in the result.
func (r Range) Clamp(lineCount int) Range {
	if lineCount < 1 {
		lineCount = 1
	}
	r.Start = clampPos(r.Start, lineCount)
	r.End = clampPos(r.End, lineCount)
	if r.End.Before(r.Start) {
		r.End = r.Start
	}
	return r
}

func clampPos(p Position, lineCount int) Position {
	if p.Line < 0 {
		p.Line = 0
	}
	if p.Line >= lineCount {
		p.Line = lineCount - 1
	}
	if p.Col < 0 {
		p.Col = 0
	}
	return p
}

// LineRange builds a range spanning the named zero-based line of text.
// The line index is clamped first, so the result is always valid.
func LineRange(lines []string, line int) Range {
	line = ClampLine(line, len(lines))
	width := 0
	if line < len(lines) {
		width = len(lines[line])
	}
	return Range{
		Start: Position{Line: line},
		End:   Position{Line: line, Col: width},
	}
}

// DocumentRange builds a range covering every line of text.
func DocumentRange(lines []string) Range {
	if len(lines) == 0 {
		return Range{}
	}
	last := len(lines) - 1
	return Range{
		Start: Position{},
		End:   Position{Line: last, Col: len(lines[last])},
	}
}
