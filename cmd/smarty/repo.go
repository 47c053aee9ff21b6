package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"smarty/internal/aggregate"
)

var repoFormat string

func init() {
	repoCmd.Flags().StringVar(&repoFormat, "format", "pretty", "output format (pretty|json)")
}

var repoCmd = &cobra.Command{
	Use:          "repo <url-or-path>",
	Short:        "Analyze a whole repository and print a grouped report",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runRepo,
}

func runRepo(cmd *cobra.Command, args []string) error {
	switch repoFormat {
	case "pretty", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", repoFormat)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client := newClient(&cfg)

	res, err := client.AnalyzeRepo(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	report := aggregate.Build(res)
	if repoFormat == "json" {
		return report.RenderJSON(cmd.OutOrStdout())
	}
	report.Render(cmd.OutOrStdout(), colorEnabled(cmd))
	return nil
}
