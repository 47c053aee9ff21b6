package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"smarty/internal/diag"
)

func writeTestFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("int x = 0;\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestCollectTargetsWalksDirectories(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "b.c"))
	writeTestFile(t, filepath.Join(root, "a.py"))
	writeTestFile(t, filepath.Join(root, "sub", "c.java"))
	writeTestFile(t, filepath.Join(root, ".git", "d.c"))
	writeTestFile(t, filepath.Join(root, "readme.md"))

	files, err := collectTargets([]string{root})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d: %v", len(files), files)
	}
	// Lexically sorted, hidden dirs and unsupported extensions skipped.
	if filepath.Base(files[0]) != "a.py" || filepath.Base(files[1]) != "b.c" || filepath.Base(files[2]) != "c.java" {
		t.Fatalf("unexpected order: %v", files)
	}
}

func TestCollectTargetsRejectsUnsupportedFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	writeTestFile(t, path)

	if _, err := collectTargets([]string{path}); err == nil {
		t.Fatalf("expected an error for unsupported file type")
	}
}

func TestCollectTargetsDeduplicates(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.c")
	writeTestFile(t, path)

	files, err := collectTargets([]string{path, path, root})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %v", files)
	}
}

func TestMaxJobs(t *testing.T) {
	if got := maxJobs(0, 10); got != 1 {
		t.Fatalf("expected floor of 1, got %d", got)
	}
	if got := maxJobs(8, 3); got != 3 {
		t.Fatalf("expected cap at file count, got %d", got)
	}
	if got := maxJobs(4, 10); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
}

func TestWriteOutcomesJSON(t *testing.T) {
	outcomes := []fileOutcome{
		{
			Path:     "a.c",
			Language: "c",
			Diags: []diag.Diagnostic{
				{
					Range:    diag.Range{Start: diag.Position{Line: 2, Col: 4}, End: diag.Position{Line: 2, Col: 9}},
					Severity: diag.SevError,
					Source:   "clang",
					Message:  "bad",
				},
			},
		},
		{Path: "b.py", Language: "python"},
	}

	var buf bytes.Buffer
	if err := writeOutcomesJSON(&buf, outcomes); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(decoded))
	}
	diags := decoded[0]["diagnostics"].([]any)
	first := diags[0].(map[string]any)
	if first["severity"] != "ERROR" || first["source"] != "clang" {
		t.Fatalf("unexpected diagnostic: %v", first)
	}
	// Empty diagnostic lists must encode as [], not null.
	if _, ok := decoded[1]["diagnostics"].([]any); !ok {
		t.Fatalf("expected empty array, got %v", decoded[1]["diagnostics"])
	}
}

func TestPrintOutcomesQuietSkipsCleanFiles(t *testing.T) {
	outcomes := []fileOutcome{
		{Path: "clean.c", Language: "c"},
		{
			Path:     "dirty.c",
			Language: "c",
			Diags: []diag.Diagnostic{
				{Severity: diag.SevWarning, Source: "cppcheck", Message: "meh"},
			},
		},
	}

	var buf bytes.Buffer
	printOutcomes(&buf, outcomes, false, true)
	out := buf.String()
	if strings.Contains(out, "clean.c") {
		t.Fatalf("quiet output should skip clean files:\n%s", out)
	}
	if !strings.Contains(out, "dirty.c") || !strings.Contains(out, "meh") {
		t.Fatalf("quiet output should keep files with findings:\n%s", out)
	}
}
