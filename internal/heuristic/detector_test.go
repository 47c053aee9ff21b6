package heuristic

import (
	"reflect"
	"strings"
	"testing"

	"smarty/internal/diag"
)

func findByMessage(diags []diag.Diagnostic, fragment string) (diag.Diagnostic, bool) {
	for _, d := range diags {
		if strings.Contains(d.Message, fragment) {
			return d, true
		}
	}
	return diag.Diagnostic{}, false
}

func TestNullDereference(t *testing.T) {
	text := "x = NULL;\n*x = 1;\n"
	diags := Scan(text, "c", false)
	d, ok := findByMessage(diags, "NULL pointer")
	if !ok {
		t.Fatalf("expected null-dereference diagnostic, got %+v", diags)
	}
	if d.Severity != diag.SevError {
		t.Fatalf("expected error severity, got %v", d.Severity)
	}
	if d.Range.Start.Line != 1 {
		t.Fatalf("expected diagnostic on dereference line 1, got line %d", d.Range.Start.Line)
	}
	if d.Source != Source {
		t.Fatalf("unexpected source %q", d.Source)
	}
}

func TestLeakWithoutFree(t *testing.T) {
	text := "char *p = malloc(10);\n"
	diags := Scan(text, "c", false)
	d, ok := findByMessage(diags, "memory leak")
	if !ok {
		t.Fatalf("expected leak diagnostic, got %+v", diags)
	}
	if d.Severity != diag.SevWarning {
		t.Fatalf("expected warning severity, got %v", d.Severity)
	}
	if d.Range.Start.Line != 0 {
		t.Fatalf("expected diagnostic on allocation line, got line %d", d.Range.Start.Line)
	}
}

func TestLeakSuppressedByFree(t *testing.T) {
	text := "char *p = malloc(10);\nfree(p);\n"
	if _, ok := findByMessage(Scan(text, "c", false), "memory leak"); ok {
		t.Fatal("free call must suppress the leak diagnostic")
	}
}

func TestBoundedCopySuppressesUnbounded(t *testing.T) {
	text := "strcpy(dst, src);\nstrncpy(dst, src, n);\n"
	if _, ok := findByMessage(Scan(text, "c", false), "Unbounded string copy"); ok {
		t.Fatal("bounded variant must suppress the unbounded-copy diagnostic")
	}
}

func TestUninitializedVariable(t *testing.T) {
	text := "int x;\nx = 3;\n"
	d, ok := findByMessage(Scan(text, "c", false), "initializer")
	if !ok {
		t.Fatal("expected uninitialized-variable diagnostic")
	}
	if d.Range.Start.Line != 0 {
		t.Fatalf("expected line 0, got %d", d.Range.Start.Line)
	}
}

func TestUnboundedLoop(t *testing.T) {
	text := "for (int i = 0;; i++) {\n}\n"
	if _, ok := findByMessage(Scan(text, "cpp", false), "empty condition"); !ok {
		t.Fatal("expected unbounded-loop diagnostic")
	}
}

func TestLanguageGate(t *testing.T) {
	text := "x = NULL;\n*x = 1;\n"
	if diags := Scan(text, "python", false); diags != nil {
		t.Fatalf("python input must yield no heuristic diagnostics, got %+v", diags)
	}
}

func TestFocusRaisesWarnings(t *testing.T) {
	text := "char *p = malloc(10);\n"
	d, ok := findByMessage(Scan(text, "c", true), "memory leak")
	if !ok {
		t.Fatal("expected leak diagnostic")
	}
	if d.Severity != diag.SevError {
		t.Fatalf("focus mode must raise warnings to errors, got %v", d.Severity)
	}
}

func TestScanDeterministic(t *testing.T) {
	text := "x = NULL;\n*x = 1;\nchar *p = malloc(4);\n"
	a := Scan(text, "c", false)
	b := Scan(text, "c", false)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("repeated scans must be identical")
	}
}
