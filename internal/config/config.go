package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vietdv277/cwtail/pkg/provider"
	"github.com/vietdv277/cwtail/pkg/types"
)

const (
	DefaultInterval    = 10 // seconds
	DefaultLimit       = 5
	DefaultOrder       = string(provider.OrderNewest)
	DefaultCallTimeout = 10 * time.Second
	DefaultLogLevel    = "warn"
	MaxLimit           = 10000
)

// Config represents the application configuration
type Config struct {
	Profile          string            `mapstructure:"profile"`
	Region           string            `mapstructure:"region"`
	Interval         int               `mapstructure:"interval"` // seconds
	Limit            int               `mapstructure:"limit"`
	Order            string            `mapstructure:"order"`
	Follow           bool              `mapstructure:"follow"`
	Parallel         int               `mapstructure:"parallel"`
	CallTimeout      time.Duration     `mapstructure:"call_timeout"`
	LogLevel         string            `mapstructure:"log_level"`
	SourcesParameter string            `mapstructure:"sources_parameter"`
	Sources          []types.LogSource `mapstructure:"sources"`
	ConfigPath       string            `mapstructure:"-"` // not from config file
}

// fileConfig is the on-disk shape written by SaveConfig
type fileConfig struct {
	Profile          string            `yaml:"profile,omitempty"`
	Region           string            `yaml:"region,omitempty"`
	Interval         int               `yaml:"interval"`
	Limit            int               `yaml:"limit"`
	Order            string            `yaml:"order"`
	Follow           bool              `yaml:"follow"`
	Parallel         int               `yaml:"parallel,omitempty"`
	CallTimeout      string            `yaml:"call_timeout"`
	LogLevel         string            `yaml:"log_level,omitempty"`
	SourcesParameter string            `yaml:"sources_parameter,omitempty"`
	Sources          []types.LogSource `yaml:"sources"`
}

// GetConfigDir returns the config directory path ($XDG_CONFIG_HOME/cwtail)
func GetConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cwtail")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cwtail"
	}
	return filepath.Join(home, ".config", "cwtail")
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("limit", DefaultLimit)
	v.SetDefault("order", DefaultOrder)
	v.SetDefault("follow", false)
	v.SetDefault("parallel", 0)
	v.SetDefault("call_timeout", DefaultCallTimeout)
	v.SetDefault("log_level", DefaultLogLevel)
}

// Load reads the config file (if any) into v and decodes the result.
// A missing config file is not an error.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(GetConfigPath())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	normalizeSources(cfg.Sources)
	if _, err := os.Stat(v.ConfigFileUsed()); err == nil {
		cfg.ConfigPath = v.ConfigFileUsed()
	}

	return &cfg, nil
}

// Validate checks the settings the poller depends on
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("invalid interval: %d (must be > 0 seconds)", c.Interval)
	}
	if c.Limit < 1 || c.Limit > MaxLimit {
		return fmt.Errorf("invalid limit: %d (must be 1-%d)", c.Limit, MaxLimit)
	}
	if _, err := provider.ParseOrder(c.Order); err != nil {
		return err
	}
	if c.Parallel < 0 {
		return fmt.Errorf("invalid parallel: %d", c.Parallel)
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("invalid call_timeout: %s", c.CallTimeout)
	}
	return ValidateSources(c.Sources)
}

// ValidateSources checks that the source list is non-empty and names are unique
func ValidateSources(sources []types.LogSource) error {
	if len(sources) == 0 {
		return fmt.Errorf("no log sources configured. Add sources to %s or use --source name=log-group", GetConfigPath())
	}

	seen := make(map[string]bool, len(sources))
	for i, s := range sources {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("source #%d has no name", i+1)
		}
		if strings.TrimSpace(s.LogGroup) == "" {
			return fmt.Errorf("source %q has no log_group", s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// IntervalDuration returns the poll interval as a duration
func (c *Config) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// ParseSourceFlag parses "name=log-group[@color]"
func ParseSourceFlag(s string) (types.LogSource, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(rest) == "" {
		return types.LogSource{}, fmt.Errorf("invalid source %q (expected name=log-group[@color])", s)
	}

	src := types.LogSource{Name: strings.TrimSpace(name)}
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		src.Color = strings.TrimSpace(rest[i+1:])
		rest = rest[:i]
	}
	src.LogGroup = NormalizeLogGroup(rest)
	if src.LogGroup == "" {
		return types.LogSource{}, fmt.Errorf("invalid source %q: empty log group", s)
	}

	return src, nil
}

// ParseSources decodes a YAML source list. Both a bare list and a document
// with a top-level "sources" key are accepted.
func ParseSources(data []byte) ([]types.LogSource, error) {
	var list []types.LogSource
	if err := yaml.Unmarshal(data, &list); err == nil {
		normalizeSources(list)
		return list, nil
	}

	var doc struct {
		Sources *[]types.LogSource `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse source list: %w", err)
	}
	if doc.Sources == nil {
		return nil, errors.New("failed to parse source list: expected a list or a document with a sources key")
	}
	normalizeSources(*doc.Sources)
	return *doc.Sources, nil
}

// NormalizeLogGroup trims whitespace and the ":*" suffix that DescribeLogGroups
// appends to log group ARNs. The log stream APIs reject that form.
func NormalizeLogGroup(group string) string {
	group = strings.TrimSpace(group)
	if strings.HasPrefix(group, "arn:") {
		group = strings.TrimSuffix(group, ":*")
	}
	return group
}

func normalizeSources(sources []types.LogSource) {
	for i := range sources {
		sources[i].LogGroup = NormalizeLogGroup(sources[i].LogGroup)
	}
}

// DefaultConfig returns a starter configuration for the bot's Lambda stack
func DefaultConfig() *Config {
	fns := []struct {
		name  string
		color string
	}{
		{"telegram-bot", "cyan"},
		{"scheduler", "green"},
		{"calendar-fetcher", "yellow"},
		{"notifier", "magenta"},
		{"ai-processor", "blue"},
	}

	cfg := &Config{
		Interval:    DefaultInterval,
		Limit:       DefaultLimit,
		Order:       DefaultOrder,
		CallTimeout: DefaultCallTimeout,
		LogLevel:    DefaultLogLevel,
	}
	for _, fn := range fns {
		cfg.Sources = append(cfg.Sources, types.LogSource{
			Name:     fn.name,
			LogGroup: "/aws/lambda/aihelper-" + fn.name + "-dev",
			Color:    fn.color,
		})
	}
	return cfg
}

// SaveConfig writes cfg to path as YAML
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(&fileConfig{
		Profile:          cfg.Profile,
		Region:           cfg.Region,
		Interval:         cfg.Interval,
		Limit:            cfg.Limit,
		Order:            cfg.Order,
		Follow:           cfg.Follow,
		Parallel:         cfg.Parallel,
		CallTimeout:      cfg.CallTimeout.String(),
		LogLevel:         cfg.LogLevel,
		SourcesParameter: cfg.SourcesParameter,
		Sources:          cfg.Sources,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
