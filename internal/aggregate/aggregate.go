// Package aggregate turns a repository-wide analysis result into a
// grouped, human-readable report and a numeric summary. It consumes remote
// results only; no live documents are involved.
package aggregate

import (
	"strings"

	"smarty/internal/analysis"
	"smarty/internal/lang"
)

// topConceptualLimit bounds the summary's conceptual-issue list. Entries
// are kept in file-then-line input order, not ranked.
const topConceptualLimit = 10

// Report is the aggregated view of a RepositoryAnalysisResult.
type Report struct {
	Groups  []Group
	Summary Summary
}

// Group collects the files of one language, in input discovery order.
// Group order follows the first occurrence of each language.
type Group struct {
	Language string
	Files    []FileReport
}

// FileReport is one file's rendered sections in display order.
type FileReport struct {
	Path     string
	Sections []Section
}

// Section is a titled block of report lines.
type Section struct {
	Title string
	Lines []string
}

// Summary carries the per-language counters and the leading conceptual
// issues across the whole repository.
type Summary struct {
	Languages     []LanguageSummary
	TopConceptual []ConceptualRef
}

// LanguageSummary counts issue lines for one language group.
type LanguageSummary struct {
	Language   string
	Syntax     int
	Conceptual int
	Runtime    int
}

// ConceptualRef points at one conceptual-error line of one file.
type ConceptualRef struct {
	File  string
	Issue string
}

// Build partitions the repository result by language and computes the
// summary counters.
func Build(repo *analysis.RepoResult) *Report {
	report := &Report{}
	groupIndex := make(map[string]int)
	summaryIndex := make(map[string]int)

	for _, file := range repo.Files {
		language := file.Result.Language
		gi, ok := groupIndex[language]
		if !ok {
			gi = len(report.Groups)
			groupIndex[language] = gi
			report.Groups = append(report.Groups, Group{Language: language})
			summaryIndex[language] = len(report.Summary.Languages)
			report.Summary.Languages = append(report.Summary.Languages, LanguageSummary{Language: language})
		}
		report.Groups[gi].Files = append(report.Groups[gi].Files, fileReport(&file))

		counters := &report.Summary.Languages[summaryIndex[language]]
		tallyFile(&file.Result, counters)

		for _, issue := range blobLines(file.Result.Issues[analysis.ToolConceptual]) {
			if len(report.Summary.TopConceptual) < topConceptualLimit {
				report.Summary.TopConceptual = append(report.Summary.TopConceptual, ConceptualRef{
					File:  file.Path,
					Issue: issue,
				})
			}
		}
	}
	return report
}

func fileReport(file *analysis.FileResult) FileReport {
	res := &file.Result
	out := FileReport{Path: file.Path}

	// Conceptual findings lead the file's report, C-family only.
	if lang.CFamily(res.Language) {
		if lines := blobLines(res.Issues[analysis.ToolConceptual]); len(lines) > 0 {
			out.Sections = append(out.Sections, Section{Title: "Conceptual Issues", Lines: lines})
		}
	}
	for _, tool := range res.ToolNames() {
		lines := blobLines(res.Issues[tool])
		if len(lines) == 0 {
			continue
		}
		out.Sections = append(out.Sections, Section{Title: tool, Lines: lines})
	}
	if analysis.RuntimeFailed(res.Runtime) {
		out.Sections = append(out.Sections, Section{Title: "Runtime", Lines: blobLines(res.Runtime)})
	}
	if sugg := strings.TrimSpace(res.Suggestions); sugg != "" {
		out.Sections = append(out.Sections, Section{Title: "AI Suggestions", Lines: strings.Split(sugg, "\n")})
	}
	return out
}

func tallyFile(res *analysis.Result, counters *LanguageSummary) {
	for tool, blob := range res.Issues {
		lines := blobLines(blob)
		if tool == analysis.ToolConceptual {
			counters.Conceptual += len(lines)
			continue
		}
		counters.Syntax += len(lines)
	}
	if analysis.RuntimeFailed(res.Runtime) {
		counters.Runtime++
	}
}

// blobLines splits a tool blob into its finding lines. Empty lines and
// sentinel markers are dropped, including "no issues" trailers mixed in
// with real findings.
func blobLines(blob string) []string {
	var out []string
	for _, line := range strings.Split(blob, "\n") {
		line = strings.TrimSpace(line)
		if analysis.IsSentinelLine(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}
