package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietdv277/cwtail/internal/config"
	"github.com/vietdv277/cwtail/internal/ui"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Write a config file listing the Lambda functions of the bot stack.

The file is written to --config, or to the default config path. An existing
file is only replaced with --force.

Examples:
  cwtail init
  cwtail init --config ./cwtail.yaml --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.GetConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	cfg := config.DefaultConfig()
	cfg.Profile = profile
	cfg.Region = region

	if err := config.SaveConfig(path, cfg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s Wrote %s\n", ui.OKStyle.Render("✓"), path)
	fmt.Fprintln(out)
	ui.PrintSourceTable(out, cfg.Sources)
	return nil
}
