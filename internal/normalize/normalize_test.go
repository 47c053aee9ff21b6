package normalize

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"smarty/internal/analysis"
	"smarty/internal/diag"
)

const sampleC = "int x;\nchar *p = malloc(10);\nq = NULL;\n*q = 1;\n"

func TestToolBlobParsing(t *testing.T) {
	lines := strings.Split(sampleC, "\n")
	blob := "main.c:2:11: suspicious allocation\nChecking main.c ...\nmain.c:4:1: null write"
	diags := toolDiagnostics(analysis.ToolCppcheck, blob, lines)
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics (banner line skipped), got %d", len(diags))
	}
	if diags[0].Range.Start.Line != 1 {
		t.Fatalf("expected 0-based line 1, got %d", diags[0].Range.Start.Line)
	}
	if diags[0].Severity != diag.SevWarning {
		t.Fatalf("cppcheck severity must be warning, got %v", diags[0].Severity)
	}
	if diags[0].Source != analysis.ToolCppcheck {
		t.Fatalf("unexpected source %q", diags[0].Source)
	}
}

func TestMypyShapeSpansLine(t *testing.T) {
	text := "x: int = 'a'\n"
	lines := strings.Split(text, "\n")
	diags := toolDiagnostics(analysis.ToolMypy, `main.py:1: error: incompatible types`, lines)
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	d := diags[0]
	if d.Severity != diag.SevError {
		t.Fatalf("mypy severity must be error, got %v", d.Severity)
	}
	if d.Range.Start.Col != 0 || d.Range.End.Col != len(text)-1 {
		t.Fatalf("mypy diagnostic must span the line, got %v", d.Range)
	}
}

func TestOutOfRangeLineClampsToZero(t *testing.T) {
	lines := []string{"only line", ""}
	diags := toolDiagnostics(analysis.ToolFlake8, "f.py:99:1: E501 line too long", lines)
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	if diags[0].Range.Start.Line != 0 {
		t.Fatalf("line 99 of a 2-line doc must clamp to 0, got %d", diags[0].Range.Start.Line)
	}
}

func TestSentinelProducesNothing(t *testing.T) {
	res := &analysis.Result{
		Language: "python",
		Issues: map[string]string{
			analysis.ToolFlake8: "no issues",
			analysis.ToolMypy:   "No issues found.",
		},
		Runtime: "no output",
	}
	if diags := Diagnostics(res, "print('hi')\n", false); len(diags) != 0 {
		t.Fatalf("sentinels must yield zero diagnostics, got %+v", diags)
	}
}

func TestSentinelTrailerDoesNotSwallowFindings(t *testing.T) {
	res := &analysis.Result{
		Language: "c",
		Issues: map[string]string{
			analysis.ToolCppcheck: "main.c:1:1: uninitialized variable x\nChecking done, no issues found in remaining files",
		},
		Runtime: "no output",
	}
	diags := Diagnostics(res, sampleC, false)
	if len(diags) != 1 {
		t.Fatalf("expected the real finding to survive the trailer, got %+v", diags)
	}
	if diags[0].Message != "uninitialized variable x" {
		t.Fatalf("unexpected message: %q", diags[0].Message)
	}
}

func TestConceptualSkipsSentinelLines(t *testing.T) {
	lines := strings.Split(sampleC, "\n")
	blob := "Memory allocated at line 2 is never freed\nNo issues found in the rest of the file"
	diags := Conceptual(blob, lines, false)
	if len(diags) != 1 {
		t.Fatalf("expected 1 conceptual diagnostic, got %+v", diags)
	}
	if !strings.Contains(diags[0].Message, "never freed") {
		t.Fatalf("unexpected diagnostic: %+v", diags[0])
	}
}

func TestConceptualExplicitLine(t *testing.T) {
	lines := strings.Split(sampleC, "\n")
	diags := Conceptual("NULL pointer dereference at line 4", lines, false)
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	d := diags[0]
	if d.Range.Start.Line != 3 {
		t.Fatalf("explicit line 4 must resolve to index 3, got %d", d.Range.Start.Line)
	}
	if !strings.HasPrefix(d.Message, "Conceptual Issue: ") {
		t.Fatalf("missing conceptual label: %q", d.Message)
	}
	if d.FixCommand == "" {
		t.Fatal("conceptual diagnostics must carry a fix command")
	}
	if d.Severity != diag.SevWarning {
		t.Fatalf("non-focus conceptual severity must be warning, got %v", d.Severity)
	}
}

func TestConceptualResolutionChain(t *testing.T) {
	lines := strings.Split(sampleC, "\n")
	cases := []struct {
		issue string
		want  int
	}{
		{"Uninitialized variable 'x' used before assignment", 0},
		{"Potential memory leak: buffer never released", 1},
		{"NULL pointer dereference detected", 2},
		{"Logic error in control flow", 0},
	}
	for _, tc := range cases {
		got := resolveConceptualLine(tc.issue, lines)
		if got != tc.want {
			t.Errorf("resolveConceptualLine(%q) = %d, want %d", tc.issue, got, tc.want)
		}
	}
}

func TestConceptualFocusSeverity(t *testing.T) {
	diags := Conceptual("memory leak somewhere", []string{""}, true)
	if len(diags) != 1 || diags[0].Severity != diag.SevError {
		t.Fatalf("focus mode must produce errors, got %+v", diags)
	}
}

func TestRuntimeDiagnostic(t *testing.T) {
	lines := []string{"a", "b", "c"}
	d, ok := runtimeDiagnostic("Segmentation fault", lines)
	if !ok {
		t.Fatal("expected runtime diagnostic")
	}
	if d.Severity != diag.SevError {
		t.Fatalf("runtime severity must be error, got %v", d.Severity)
	}
	if d.Range.Start.Line != 0 || d.Range.End.Line != 2 {
		t.Fatalf("runtime diagnostic must span the document, got %v", d.Range)
	}
	if _, ok := runtimeDiagnostic("finished with success", lines); ok {
		t.Fatal("success transcript must not produce a diagnostic")
	}
	if _, ok := runtimeDiagnostic("no output", lines); ok {
		t.Fatal("sentinel transcript must not produce a diagnostic")
	}
}

func TestRuntimePreviewBounded(t *testing.T) {
	long := strings.Repeat("x", maxRuntimePreview*3)
	d, ok := runtimeDiagnostic(long, []string{""})
	if !ok {
		t.Fatal("expected runtime diagnostic")
	}
	if len(d.Message) > maxRuntimePreview+len("Runtime error: ")+3 {
		t.Fatalf("preview not bounded: %d bytes", len(d.Message))
	}
	if !strings.HasSuffix(d.Message, "...") {
		t.Fatal("truncated preview must end with ellipsis")
	}
}

func TestRuntimePreviewKeepsValidUTF8(t *testing.T) {
	// A 3-byte rune guarantees the byte limit falls inside a rune.
	long := strings.Repeat("界", maxRuntimePreview)
	d, ok := runtimeDiagnostic(long, []string{""})
	if !ok {
		t.Fatal("expected runtime diagnostic")
	}
	if !utf8.ValidString(d.Message) {
		t.Fatal("truncated preview contains invalid UTF-8")
	}
	if len(d.Message) > maxRuntimePreview+len("Runtime error: ")+3 {
		t.Fatalf("preview not bounded: %d bytes", len(d.Message))
	}
}

func TestSuggestionPromotion(t *testing.T) {
	lines := []string{"def f():", "    pass", ""}
	text := strings.Join([]string{
		"Here is some general prose about the code.",
		"Suggestion: add a docstring at line 1",
		"1. There is an off-by-one bug in the loop",
		"2. The naming could be nicer",
		"More prose.",
	}, "\n")
	diags := Suggestions(text, lines)
	if len(diags) != 2 {
		t.Fatalf("expected 2 promoted lines, got %d: %+v", len(diags), diags)
	}
	if diags[0].Range.Start.Line != 0 {
		t.Fatalf("explicit line 1 must resolve to index 0, got %d", diags[0].Range.Start.Line)
	}
	for _, d := range diags {
		if d.Severity != diag.SevInfo {
			t.Fatalf("suggestions must be informational, got %v", d.Severity)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	res := &analysis.Result{
		Language: "c",
		Issues: map[string]string{
			analysis.ToolCppcheck:   "main.c:2:1: something odd",
			analysis.ToolConceptual: "memory leak at line 2",
		},
		Runtime:     "Segmentation fault",
		Suggestions: "Suggestion: free the buffer",
	}
	a := Diagnostics(res, sampleC, false)
	b := Diagnostics(res, sampleC, false)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("normalizing the same result twice must be structurally identical")
	}
	if len(a) != 4 {
		t.Fatalf("expected 4 diagnostics, got %d: %+v", len(a), a)
	}
}
