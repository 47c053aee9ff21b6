package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"smarty/internal/analysis"
	"smarty/internal/config"
	"smarty/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "smarty",
	Short: "Editor diagnostics backed by a remote code analysis service",
	Long: `smarty turns the output of a remote code analysis service into
editor diagnostics: one-shot from the command line, continuously over LSP,
or aggregated across a whole repository.`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(repoCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to smarty.toml")
	rootCmd.PersistentFlags().String("api", "", "analysis service URL (overrides config)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// loadConfig reads the configuration named by --config and applies the
// --api override.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if api, _ := cmd.Root().PersistentFlags().GetString("api"); api != "" {
		cfg.APIURL = api
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *analysis.Client {
	return analysis.NewClient(cfg.APIURL)
}

func colorEnabled(cmd *cobra.Command) bool {
	mode, _ := cmd.Root().PersistentFlags().GetString("color")
	switch mode {
	case "on":
		return true
	case "off":
		return false
	}
	return isTerminal(os.Stdout)
}
