package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vietdv277/cwtail/internal/ui"
	"github.com/vietdv277/cwtail/pkg/provider"
	"github.com/vietdv277/cwtail/pkg/types"
)

// statusConcurrency bounds the DescribeLogStreams calls in flight
const statusConcurrency = 4

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status and the latest stream of each source",
	Long: `Verify AWS credentials and show, for every configured source, the newest
log stream and when it last received an event.

Examples:
  cwtail status
  cwtail status --profile prod --region eu-west-1`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	client, err := newAWSClient(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Current Status")
	fmt.Fprintln(out, ui.MutedStyle.Render("─────────────────────────────────"))
	fmt.Fprintln(out)

	profileName := client.Profile()
	if profileName == "" {
		profileName = ui.MutedStyle.Render("(default)")
	}
	fmt.Fprintf(out, "Profile:  %s\n", profileName)
	fmt.Fprintf(out, "Region:   %s\n", client.Region())
	if cfg.ConfigPath != "" {
		fmt.Fprintf(out, "Config:   %s\n", ui.MutedStyle.Render(cfg.ConfigPath))
	}
	fmt.Fprintln(out)

	// Try to get caller identity
	fmt.Fprint(out, "Auth:     ")
	identity, err := client.GetCallerIdentity(ctx)
	if err != nil {
		fmt.Fprintln(out, ui.ErrorStyle.Render("✗ Not authenticated"))
		fmt.Fprintf(out, "          %s\n", ui.MutedStyle.Render(err.Error()))
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To authenticate:")
		if client.Profile() != "" {
			fmt.Fprintf(out, "  aws sso login --profile %s\n", client.Profile())
		} else {
			fmt.Fprintln(out, "  aws configure")
		}
		return nil
	}
	fmt.Fprintln(out, ui.OKStyle.Render("✓ Authenticated"))
	fmt.Fprintf(out, "Account:  %s\n", identity.Account)
	fmt.Fprintf(out, "User:     %s\n", identity.UserID)
	if identity.Arn != "" {
		fmt.Fprintf(out, "ARN:      %s\n", ui.MutedStyle.Render(identity.Arn))
	}

	sources, err := resolveSources(ctx, cfg, sourceFlags, client.SSM)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "No log sources configured. Create a starter config with:")
		fmt.Fprintln(out, "  cwtail init")
		return nil
	}

	ui.PrintStreamStatusTable(out, collectStreamStatus(ctx, client.LogsProvider(), sources, cfg.CallTimeout))
	return nil
}

// collectStreamStatus resolves the latest stream of every source. Missing
// groups and empty groups are reported without an error.
func collectStreamStatus(ctx context.Context, logs provider.LogsProvider, sources []types.LogSource, timeout time.Duration) []ui.StreamStatus {
	statuses := make([]ui.StreamStatus, len(sources))

	var g errgroup.Group
	g.SetLimit(statusConcurrency)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			callCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			statuses[i].Source = src
			stream, err := logs.LatestStream(callCtx, src.LogGroup)
			switch {
			case errors.Is(err, provider.ErrNoStreams), errors.Is(err, provider.ErrNotFound):
			case err != nil:
				statuses[i].Err = err
			default:
				statuses[i].Stream = stream.StreamName
				statuses[i].LastEventTime = stream.LastEventTime
			}
			return nil
		})
	}
	_ = g.Wait()

	return statuses
}
