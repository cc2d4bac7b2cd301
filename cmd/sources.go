package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietdv277/cwtail/internal/aws"
	"github.com/vietdv277/cwtail/internal/config"
	"github.com/vietdv277/cwtail/internal/ui"
)

var sourcesCmd = &cobra.Command{
	Use:     "sources",
	Aliases: []string{"ls"},
	Short:   "List configured log sources",
	Long: `List the log sources cwtail polls, after merging the config file,
the SSM source list and --source flags.

Examples:
  cwtail sources
  cwtail sources --sources-parameter /team/cwtail/sources`,
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	// Only the SSM source list needs credentials
	var params aws.ParameterAPI
	if cfg.SourcesParameter != "" && len(sourceFlags) == 0 {
		client, err := newAWSClient(ctx, cfg)
		if err != nil {
			return err
		}
		params = client.SSM
	}

	sources, err := resolveSources(ctx, cfg, sourceFlags, params)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sources) == 0 {
		fmt.Fprintln(out, "No log sources configured.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Create a starter config with:")
		fmt.Fprintln(out, "  cwtail init")
		return nil
	}
	if err := config.ValidateSources(sources); err != nil {
		return err
	}

	if cfg.ConfigPath != "" {
		fmt.Fprintln(out, ui.MutedStyle.Render("Config: "+cfg.ConfigPath))
	}
	ui.PrintSourceTable(out, sources)
	return nil
}
