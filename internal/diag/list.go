package diag

import "sort"

// HasErrors reports whether any diagnostic has Severity >= SevError.
func HasErrors(diags []Diagnostic) bool {
	for i := range diags {
		if diags[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// Sort orders diagnostics by start position, then severity (descending),
// then source and message for a stable, deterministic output order.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		di, dj := diags[i], diags[j]
		if di.Range.Start != dj.Range.Start {
			return di.Range.Start.Before(dj.Range.Start)
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		if di.Source != dj.Source {
			return di.Source < dj.Source
		}
		return di.Message < dj.Message
	})
}
