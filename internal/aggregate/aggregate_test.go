package aggregate

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"smarty/internal/analysis"
)

func repoFixture() *analysis.RepoResult {
	return &analysis.RepoResult{Files: []analysis.FileResult{
		{
			Path: "src/main.c",
			Result: analysis.Result{
				Language: "c",
				Issues: map[string]string{
					analysis.ToolCppcheck:   "main.c:3:1: style warning\nmain.c:7:2: redundant condition",
					analysis.ToolConceptual: "memory leak at line 3\nNULL pointer dereference at line 7",
				},
				Runtime: "Segmentation fault",
			},
		},
		{
			Path: "src/app.py",
			Result: analysis.Result{
				Language: "python",
				Issues: map[string]string{
					analysis.ToolFlake8: "app.py:1:1: E302 expected 2 blank lines",
					analysis.ToolMypy:   "no issues",
				},
				Runtime: "no output",
			},
		},
		{
			Path: "src/util.c",
			Result: analysis.Result{
				Language: "c",
				Issues: map[string]string{
					analysis.ToolClang:      "util.c:2:4: unused variable",
					analysis.ToolConceptual: "uninitialized variable 'n'",
				},
				Runtime: "ran with success",
			},
		},
	}}
}

func TestGroupingByLanguageFirstOccurrence(t *testing.T) {
	report := Build(repoFixture())
	if len(report.Groups) != 2 {
		t.Fatalf("expected 2 language groups, got %d", len(report.Groups))
	}
	if report.Groups[0].Language != "c" || report.Groups[1].Language != "python" {
		t.Fatalf("group order must follow first occurrence, got %+v", report.Groups)
	}
	cFiles := report.Groups[0].Files
	if len(cFiles) != 2 || cFiles[0].Path != "src/main.c" || cFiles[1].Path != "src/util.c" {
		t.Fatalf("file order must follow input order, got %+v", cFiles)
	}
}

func TestSummaryCounters(t *testing.T) {
	report := Build(repoFixture())
	byLang := map[string]LanguageSummary{}
	for _, ls := range report.Summary.Languages {
		byLang[ls.Language] = ls
	}
	c := byLang["c"]
	if c.Syntax != 3 {
		t.Errorf("c syntax count = %d, want 3", c.Syntax)
	}
	if c.Conceptual != 3 {
		t.Errorf("c conceptual count = %d, want 3", c.Conceptual)
	}
	if c.Runtime != 1 {
		t.Errorf("c runtime count = %d, want 1 (success transcript excluded)", c.Runtime)
	}
	py := byLang["python"]
	if py.Syntax != 1 || py.Conceptual != 0 || py.Runtime != 0 {
		t.Errorf("unexpected python counters: %+v", py)
	}
}

func TestSentinelTrailerNotCounted(t *testing.T) {
	repo := &analysis.RepoResult{Files: []analysis.FileResult{
		{
			Path: "main.c",
			Result: analysis.Result{
				Language: "c",
				Issues: map[string]string{
					analysis.ToolCppcheck: "main.c:1:1: uninitialized variable x\nChecking done, no issues found in remaining files",
				},
				Runtime: "no output",
			},
		},
	}}
	report := Build(repo)
	if got := report.Summary.Languages[0].Syntax; got != 1 {
		t.Fatalf("syntax count = %d, want 1 (trailer line must not count)", got)
	}
	sections := report.Groups[0].Files[0].Sections
	if len(sections) != 1 || len(sections[0].Lines) != 1 {
		t.Fatalf("expected a single finding line, got %+v", sections)
	}
	if !strings.Contains(sections[0].Lines[0], "uninitialized variable x") {
		t.Fatalf("unexpected section line: %q", sections[0].Lines[0])
	}
}

func TestTopConceptualOrderAndBound(t *testing.T) {
	report := Build(repoFixture())
	top := report.Summary.TopConceptual
	if len(top) != 3 {
		t.Fatalf("expected 3 conceptual refs, got %d", len(top))
	}
	if top[0].File != "src/main.c" || !strings.Contains(top[0].Issue, "memory leak") {
		t.Fatalf("order must be file-then-line, got %+v", top)
	}
	if top[2].File != "src/util.c" {
		t.Fatalf("later file's issues must come last, got %+v", top)
	}

	// Flooding one file with issues must cap the list at 10 in input order.
	var issues []string
	for i := 1; i <= 25; i++ {
		issues = append(issues, fmt.Sprintf("issue number %d", i))
	}
	repo := &analysis.RepoResult{Files: []analysis.FileResult{{
		Path: "big.c",
		Result: analysis.Result{
			Language: "c",
			Issues:   map[string]string{analysis.ToolConceptual: strings.Join(issues, "\n")},
			Runtime:  "no output",
		},
	}}}
	top = Build(repo).Summary.TopConceptual
	if len(top) != 10 {
		t.Fatalf("top list must cap at 10, got %d", len(top))
	}
	if top[0].Issue != "issue number 1" || top[9].Issue != "issue number 10" {
		t.Fatalf("cap must keep input order, got first=%q last=%q", top[0].Issue, top[9].Issue)
	}
}

func TestFileSectionOrdering(t *testing.T) {
	report := Build(repoFixture())
	sections := report.Groups[0].Files[0].Sections
	if len(sections) < 3 {
		t.Fatalf("expected conceptual, tool, runtime sections, got %+v", sections)
	}
	if sections[0].Title != "Conceptual Issues" {
		t.Fatalf("conceptual section must lead, got %q", sections[0].Title)
	}
	if sections[1].Title != analysis.ToolCppcheck {
		t.Fatalf("tool sections follow in key order, got %q", sections[1].Title)
	}
	if sections[len(sections)-1].Title != "Runtime" {
		t.Fatalf("runtime section must trail, got %q", sections[len(sections)-1].Title)
	}
}

func TestRenderPlain(t *testing.T) {
	var buf bytes.Buffer
	Build(repoFixture()).Render(&buf, false)
	out := buf.String()
	for _, want := range []string{"== C ==", "== Python ==", "src/main.c", "Top conceptual issues:", "syntax"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Build(repoFixture()).RenderJSON(&buf); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"syntax_count": 3`) {
		t.Errorf("summary counters missing in JSON:\n%s", out)
	}
	if !strings.Contains(out, `"top_conceptual"`) {
		t.Errorf("top_conceptual missing in JSON:\n%s", out)
	}
}
