package aggregate

import (
	"encoding/json"
	"fmt"
	"io"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// DisplayLanguage renders a canonical language name for report headers.
func DisplayLanguage(name string) string {
	switch name {
	case "c":
		return "C"
	case "cpp":
		return "C++"
	case "":
		return "Unknown"
	}
	return titleCaser.String(name)
}

// Render writes the grouped report followed by the summary. Colors are
// disabled unless colorize is set.
func (r *Report) Render(w io.Writer, colorize bool) {
	header := color.New(color.FgCyan, color.Bold)
	fileHeader := color.New(color.FgYellow)
	sectionTitle := color.New(color.Bold)
	if !colorize {
		header.DisableColor()
		fileHeader.DisableColor()
		sectionTitle.DisableColor()
	}

	for _, group := range r.Groups {
		header.Fprintf(w, "== %s ==\n", DisplayLanguage(group.Language))
		for _, file := range group.Files {
			fileHeader.Fprintf(w, "%s\n", file.Path)
			if len(file.Sections) == 0 {
				fmt.Fprintln(w, "  no issues")
			}
			for _, section := range file.Sections {
				sectionTitle.Fprintf(w, "  [%s]\n", section.Title)
				for _, line := range section.Lines {
					fmt.Fprintf(w, "    %s\n", line)
				}
			}
			fmt.Fprintln(w)
		}
	}

	header.Fprintln(w, "== Summary ==")
	for _, ls := range r.Summary.Languages {
		fmt.Fprintf(w, "%s: %d syntax, %d conceptual, %d runtime failures\n",
			DisplayLanguage(ls.Language), ls.Syntax, ls.Conceptual, ls.Runtime)
	}
	if len(r.Summary.TopConceptual) > 0 {
		sectionTitle.Fprintln(w, "Top conceptual issues:")
		for _, ref := range r.Summary.TopConceptual {
			fmt.Fprintf(w, "  %s: %s\n", ref.File, ref.Issue)
		}
	}
}

type summaryJSON struct {
	Languages     []languageSummaryJSON `json:"languages"`
	TopConceptual []conceptualRefJSON   `json:"top_conceptual"`
}

type languageSummaryJSON struct {
	Language   string `json:"language"`
	Syntax     uint32 `json:"syntax_count"`
	Conceptual uint32 `json:"conceptual_count"`
	Runtime    uint32 `json:"runtime_count"`
}

type conceptualRefJSON struct {
	File  string `json:"file"`
	Issue string `json:"issue"`
}

type sectionJSON struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

type fileReportJSON struct {
	Path     string        `json:"path"`
	Sections []sectionJSON `json:"sections"`
}

type groupJSON struct {
	Language string           `json:"language"`
	Files    []fileReportJSON `json:"files"`
}

type reportJSON struct {
	Groups  []groupJSON `json:"groups"`
	Summary summaryJSON `json:"summary"`
}

// RenderJSON writes the report as a stable machine-readable document.
func (r *Report) RenderJSON(w io.Writer) error {
	out := reportJSON{Summary: summaryJSON{
		Languages:     []languageSummaryJSON{},
		TopConceptual: []conceptualRefJSON{},
	}}
	for _, group := range r.Groups {
		gj := groupJSON{Language: group.Language}
		for _, file := range group.Files {
			fj := fileReportJSON{Path: file.Path, Sections: []sectionJSON{}}
			for _, section := range file.Sections {
				fj.Sections = append(fj.Sections, sectionJSON(section))
			}
			gj.Files = append(gj.Files, fj)
		}
		out.Groups = append(out.Groups, gj)
	}
	for _, ls := range r.Summary.Languages {
		syntax, err := safecast.Conv[uint32](ls.Syntax)
		if err != nil {
			return err
		}
		conceptual, err := safecast.Conv[uint32](ls.Conceptual)
		if err != nil {
			return err
		}
		runtime, err := safecast.Conv[uint32](ls.Runtime)
		if err != nil {
			return err
		}
		out.Summary.Languages = append(out.Summary.Languages, languageSummaryJSON{
			Language:   ls.Language,
			Syntax:     syntax,
			Conceptual: conceptual,
			Runtime:    runtime,
		})
	}
	for _, ref := range r.Summary.TopConceptual {
		out.Summary.TopConceptual = append(out.Summary.TopConceptual, conceptualRefJSON(ref))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
