// Package heuristic provides an offline, regex-driven detector for a fixed
// set of conceptual defect shapes in C-family source. It produces immediate
// provisional diagnostics while a remote analysis is pending.
package heuristic

import (
	"regexp"

	"smarty/internal/diag"
)

// Source tags every diagnostic produced by this detector.
const Source = "smarty-heuristic"

// FixCommand is the remediation command attached to heuristic diagnostics.
const FixCommand = "smarty.fixConceptualErrors"

// Pattern is a single declarative defect detector. Trigger both fires the
// pattern and resolves the reported line; Requires must match somewhere in
// the text for the pattern to fire; Absent suppresses the pattern when it
// matches anywhere.
type Pattern struct {
	Name     string
	Trigger  *regexp.Regexp
	Requires *regexp.Regexp
	Absent   *regexp.Regexp
	Severity diag.Severity
	Message  string
}

// table holds the detectors in fixed priority order. It is immutable after
// init and safe for concurrent use.
var table = []Pattern{
	{
		Name:     "null-dereference",
		Trigger:  regexp.MustCompile(`\*\s*[A-Za-z_]\w*`),
		Requires: regexp.MustCompile(`[A-Za-z_]\w*\s*=\s*(NULL|nullptr)\b`),
		Severity: diag.SevError,
		Message:  "Possible NULL pointer dereference: a pointer assigned NULL/nullptr is dereferenced",
	},
	{
		Name:     "memory-leak",
		Trigger:  regexp.MustCompile(`\b(malloc|calloc|realloc)\s*\(|\bnew\b`),
		Absent:   regexp.MustCompile(`\bfree\s*\(|\bdelete\b`),
		Severity: diag.SevWarning,
		Message:  "Possible memory leak: allocation without a matching free/delete",
	},
	{
		Name:     "uninitialized-variable",
		Trigger:  regexp.MustCompile(`^\s*(?:int|long|short|float|double|char|unsigned|signed)\s+[A-Za-z_]\w*\s*;`),
		Severity: diag.SevWarning,
		Message:  "Variable declared without an initializer",
	},
	{
		Name:     "unbounded-copy",
		Trigger:  regexp.MustCompile(`\b(strcpy|strcat|sprintf|gets)\s*\(`),
		Absent:   regexp.MustCompile(`\b(strncpy|strncat|snprintf|fgets)\s*\(`),
		Severity: diag.SevError,
		Message:  "Unbounded string copy: use the bounded variant (strncpy/strncat/snprintf/fgets)",
	},
	{
		Name:     "unbounded-loop",
		Trigger:  regexp.MustCompile(`\bfor\s*\([^;]*;\s*;`),
		Severity: diag.SevWarning,
		Message:  "Loop header has an empty condition and may never terminate",
	},
}

// Patterns returns the detector table in priority order.
func Patterns() []Pattern {
	return table
}
