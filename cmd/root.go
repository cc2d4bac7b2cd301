package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vietdv277/cwtail/internal/aws"
	"github.com/vietdv277/cwtail/internal/config"
	"github.com/vietdv277/cwtail/internal/logging"
	"github.com/vietdv277/cwtail/internal/poller"
	"github.com/vietdv277/cwtail/internal/ui"
	"github.com/vietdv277/cwtail/pkg/provider"
	"github.com/vietdv277/cwtail/pkg/types"
)

var (
	// Global flags
	cfgFile string
	profile string
	region  string

	// Poller flags
	sourceFlags   []string
	selectSources bool
	once          bool

	v = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "cwtail",
	Short: "Poll CloudWatch log groups and print the latest records per source",
	Long: `cwtail watches a fixed set of CloudWatch log groups. Every interval it
finds the newest log stream of each group and prints its latest records,
tagged and colored by source, until interrupted.

Examples:
  cwtail                                   # poll the sources in the config file
  cwtail -i 5 -n 10                        # every 5 seconds, 10 records per source
  cwtail -f                                # only print records not seen before
  cwtail --source bot=/aws/lambda/bot@cyan # ad-hoc source, replaces configured ones
  cwtail --select                          # pick sources interactively
  cwtail sources                           # list configured sources
  cwtail status                            # identity and latest stream per source`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPoller,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var fatal *poller.FatalLoopError
		if errors.As(err, &fatal) {
			fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("Log poller stopped: "+fatal.Err.Error()))
		} else {
			fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("Error: "+err.Error()))
		}
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default "+config.GetConfigPath()+")")
	pf.StringVarP(&profile, "profile", "p", "", "AWS profile to use")
	pf.StringVarP(&region, "region", "r", "", "AWS region to use")
	pf.String("log-level", config.DefaultLogLevel, "diagnostic log level (debug, info, warn, error)")
	pf.StringArrayVar(&sourceFlags, "source", nil, "log source as name=log-group[@color] (repeatable, replaces configured sources)")
	pf.String("sources-parameter", "", "SSM parameter holding an additional YAML source list")

	f := rootCmd.Flags()
	f.IntP("interval", "i", config.DefaultInterval, "seconds between polling cycles")
	f.IntP("limit", "n", config.DefaultLimit, "records shown per source per cycle")
	f.String("order", config.DefaultOrder, "which end of the stream to show (newest, oldest)")
	f.BoolP("follow", "f", false, "only print records newer than the previous cycle")
	f.Int("parallel", 0, "poll up to N sources concurrently")
	f.Duration("call-timeout", config.DefaultCallTimeout, "timeout of each CloudWatch call (0 disables)")
	f.BoolVar(&selectSources, "select", false, "pick the sources to poll interactively")
	f.BoolVar(&once, "once", false, "run a single polling cycle and exit")

	// Bind flags to viper
	_ = v.BindPFlag("profile", pf.Lookup("profile"))
	_ = v.BindPFlag("region", pf.Lookup("region"))
	_ = v.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = v.BindPFlag("sources_parameter", pf.Lookup("sources-parameter"))
	_ = v.BindPFlag("interval", f.Lookup("interval"))
	_ = v.BindPFlag("limit", f.Lookup("limit"))
	_ = v.BindPFlag("order", f.Lookup("order"))
	_ = v.BindPFlag("follow", f.Lookup("follow"))
	_ = v.BindPFlag("parallel", f.Lookup("parallel"))
	_ = v.BindPFlag("call_timeout", f.Lookup("call-timeout"))
}

// loadConfig merges defaults, the config file, CWTAIL_* variables and flags
func loadConfig() (*config.Config, error) {
	v.SetEnvPrefix("CWTAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}

	// Priority for profile: --profile flag > CWTAIL_PROFILE > config file > AWS_PROFILE env
	if cfg.Profile == "" {
		cfg.Profile = os.Getenv("AWS_PROFILE")
	}
	if cfg.Region == "" {
		cfg.Region = os.Getenv("AWS_REGION")
		if cfg.Region == "" {
			cfg.Region = os.Getenv("AWS_DEFAULT_REGION")
		}
	}

	return cfg, nil
}

// newAWSClient loads the SDK config for the resolved profile and region
func newAWSClient(ctx context.Context, cfg *config.Config) (*aws.Client, error) {
	var opts []aws.ClientOption
	if cfg.Profile != "" {
		opts = append(opts, aws.WithProfile(cfg.Profile))
	}
	if cfg.Region != "" {
		opts = append(opts, aws.WithRegion(cfg.Region))
	}
	return aws.NewClient(ctx, opts...)
}

// resolveSources returns the sources to poll. --source flags replace the
// configured list; otherwise sources from the SSM parameter are appended to
// the ones in the config file.
func resolveSources(ctx context.Context, cfg *config.Config, flags []string, params aws.ParameterAPI) ([]types.LogSource, error) {
	if len(flags) > 0 {
		var sources []types.LogSource
		for _, f := range flags {
			src, err := config.ParseSourceFlag(f)
			if err != nil {
				return nil, err
			}
			sources = append(sources, src)
		}
		return sources, nil
	}

	sources := append([]types.LogSource(nil), cfg.Sources...)
	if cfg.SourcesParameter == "" {
		return sources, nil
	}

	value, err := aws.GetParameterValue(ctx, params, cfg.SourcesParameter)
	if err != nil {
		return nil, err
	}
	shared, err := config.ParseSources([]byte(value))
	if err != nil {
		return nil, fmt.Errorf("invalid source list in %s: %w", cfg.SourcesParameter, err)
	}
	return append(sources, shared...), nil
}

// pollerOptions converts validated configuration into poller options
func pollerOptions(cfg *config.Config) poller.Options {
	order, _ := provider.ParseOrder(cfg.Order)
	return poller.Options{
		Sources:     cfg.Sources,
		Interval:    cfg.IntervalDuration(),
		Limit:       cfg.Limit,
		Order:       order,
		Follow:      cfg.Follow,
		Parallel:    cfg.Parallel,
		CallTimeout: cfg.CallTimeout,
	}
}

func runPoller(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewStderr(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newAWSClient(ctx, cfg)
	if err != nil {
		return err
	}

	cfg.Sources, err = resolveSources(ctx, cfg, sourceFlags, client.SSM)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if selectSources {
		cfg.Sources, err = ui.SelectSources(cfg.Sources)
		if err != nil {
			return err
		}
	}

	logger.Debug("configuration loaded",
		zap.String("config", cfg.ConfigPath),
		zap.String("profile", client.Profile()),
		zap.String("region", client.Region()),
		zap.Int("sources", len(cfg.Sources)))

	p, err := poller.New(client.LogsProvider(), cmd.OutOrStdout(), pollerOptions(cfg), logger)
	if err != nil {
		return err
	}

	if once {
		err = p.Cycle(ctx)
	} else {
		err = p.Run(ctx)
	}
	if err != nil {
		return err
	}

	if !once {
		return p.Stopped()
	}
	return nil
}
