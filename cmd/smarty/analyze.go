package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"smarty/internal/analysis"
	"smarty/internal/diag"
	"smarty/internal/lang"
	"smarty/internal/normalize"
	"smarty/internal/ui"
)

var (
	analyzeFocus   bool
	analyzeFormat  string
	analyzeJobs    int
	analyzeNoCache bool
	analyzeUI      string
)

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeFocus, "focus", false, "focus on conceptual errors (raises heuristic warnings to errors)")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "pretty", "output format (pretty|json)")
	analyzeCmd.Flags().IntVar(&analyzeJobs, "jobs", runtime.NumCPU(), "maximum concurrent analysis requests")
	analyzeCmd.Flags().BoolVar(&analyzeNoCache, "no-cache", false, "bypass the on-disk result cache")
	analyzeCmd.Flags().StringVar(&analyzeUI, "ui", "auto", "interactive progress display (auto|on|off)")
}

var analyzeCmd = &cobra.Command{
	Use:          "analyze <path>...",
	Short:        "Analyze source files and print diagnostics",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runAnalyze,
}

// fileOutcome is one file's journey through the fan-out.
type fileOutcome struct {
	Path     string
	Language string
	Diags    []diag.Diagnostic
	Cached   bool
	Err      error
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	switch analyzeFormat {
	case "pretty", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", analyzeFormat)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client := newClient(&cfg)

	files, err := collectTargets(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported source files under %s", strings.Join(args, ", "))
	}

	var cache *analysis.Cache
	if !analyzeNoCache {
		// A broken cache only costs re-analysis.
		cache, _ = analysis.OpenCache("smarty")
	}

	outcomes := make([]fileOutcome, len(files))
	fanout := func(ctx context.Context, events chan<- ui.Event) error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxJobs(analyzeJobs, len(files)))
		for i, path := range files {
			i, path := i, path
			g.Go(func() error {
				emit(events, ui.Event{File: path, Status: ui.StatusAnalyzing})
				outcome := analyzeOne(gctx, client, cache, path)
				outcomes[i] = outcome
				emit(events, doneEvent(path, &outcome))
				return nil
			})
		}
		return g.Wait()
	}

	useTUI := shouldUseTUI(analyzeUI) && analyzeFormat == "pretty"
	if useTUI {
		if err := runWithProgress(cmd.Context(), "analyzing", files, fanout); err != nil {
			return err
		}
	} else if err := fanout(cmd.Context(), nil); err != nil {
		return err
	}

	if analyzeFormat == "json" {
		return writeOutcomesJSON(cmd.OutOrStdout(), outcomes)
	}
	printOutcomes(cmd.OutOrStdout(), outcomes, colorEnabled(cmd), quiet(cmd))

	failed := 0
	for i := range outcomes {
		if outcomes[i].Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to analyze", failed, len(outcomes))
	}
	return nil
}

// analyzeOne reads, analyzes, and normalizes a single file. The result
// cache is keyed by content, so unchanged files skip the network.
func analyzeOne(ctx context.Context, client *analysis.Client, cache *analysis.Cache, path string) fileOutcome {
	outcome := fileOutcome{Path: path, Language: lang.ForPath(path)}
	raw, err := os.ReadFile(path)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	code := string(raw)
	key := analysis.CacheKey(code, analyzeFocus)

	var res *analysis.Result
	if cache != nil {
		if hit, ok := cache.Load(key); ok {
			res = hit
			outcome.Cached = true
		}
	}
	if res == nil {
		res, err = client.Analyze(ctx, code, analyzeFocus)
		if err != nil {
			outcome.Err = err
			return outcome
		}
		if cache != nil {
			// Cache write failures are not analysis failures.
			_ = cache.Store(key, res)
		}
	}

	diags := normalize.Diagnostics(res, code, analyzeFocus)
	diag.Sort(diags)
	outcome.Diags = diags
	if outcome.Language == lang.Unknown {
		outcome.Language = res.Language
	}
	return outcome
}

// collectTargets expands files and directories into an ordered list of
// supported source files.
func collectTargets(args []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if lang.ForPath(arg) == lang.Unknown {
				return nil, fmt.Errorf("%s: unsupported file type", arg)
			}
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if lang.ForPath(path) != lang.Unknown {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

func emit(events chan<- ui.Event, ev ui.Event) {
	if events != nil {
		events <- ev
	}
}

func doneEvent(path string, outcome *fileOutcome) ui.Event {
	if outcome.Err != nil {
		return ui.Event{File: path, Status: ui.StatusError, Detail: outcome.Err.Error()}
	}
	detail := fmt.Sprintf("%d issues", len(outcome.Diags))
	if outcome.Cached {
		detail += " (cached)"
	}
	return ui.Event{File: path, Status: ui.StatusDone, Detail: detail}
}

func printOutcomes(w io.Writer, outcomes []fileOutcome, colorize, quiet bool) {
	fileHeader := color.New(color.FgYellow)
	errColor := color.New(color.FgRed, color.Bold)
	warnColor := color.New(color.FgYellow, color.Bold)
	infoColor := color.New(color.FgCyan)
	if !colorize {
		fileHeader.DisableColor()
		errColor.DisableColor()
		warnColor.DisableColor()
		infoColor.DisableColor()
	}

	for i := range outcomes {
		o := &outcomes[i]
		if quiet && o.Err == nil && len(o.Diags) == 0 {
			continue
		}
		fileHeader.Fprintf(w, "%s\n", o.Path)
		switch {
		case o.Err != nil:
			errColor.Fprintf(w, "  analysis failed: %v\n", o.Err)
		case len(o.Diags) == 0:
			fmt.Fprintln(w, "  no issues")
		default:
			for _, d := range o.Diags {
				sev := infoColor
				switch d.Severity {
				case diag.SevError:
					sev = errColor
				case diag.SevWarning:
					sev = warnColor
				}
				fmt.Fprintf(w, "  %d:%d %s [%s] %s\n",
					d.Range.Start.Line+1, d.Range.Start.Col+1,
					sev.Sprint(d.Severity.String()), d.Source, d.Message)
			}
		}
		fmt.Fprintln(w)
	}
}

type outcomeJSON struct {
	Path        string           `json:"path"`
	Language    string           `json:"language"`
	Error       string           `json:"error,omitempty"`
	Diagnostics []diagnosticJSON `json:"diagnostics"`
}

type diagnosticJSON struct {
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	Severity string `json:"severity"`
	Source   string `json:"source"`
	Message  string `json:"message"`
}

func writeOutcomesJSON(w io.Writer, outcomes []fileOutcome) error {
	out := make([]outcomeJSON, 0, len(outcomes))
	for i := range outcomes {
		o := &outcomes[i]
		oj := outcomeJSON{
			Path:        o.Path,
			Language:    o.Language,
			Diagnostics: []diagnosticJSON{},
		}
		if o.Err != nil {
			oj.Error = o.Err.Error()
		}
		for _, d := range o.Diags {
			oj.Diagnostics = append(oj.Diagnostics, diagnosticJSON{
				Line:     d.Range.Start.Line,
				Col:      d.Range.Start.Col,
				Severity: d.Severity.String(),
				Source:   d.Source,
				Message:  d.Message,
			})
		}
		out = append(out, oj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func maxJobs(jobs, files int) int {
	if jobs < 1 {
		jobs = 1
	}
	if jobs > files {
		jobs = files
	}
	return jobs
}

func quiet(cmd *cobra.Command) bool {
	q, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	return q
}
