package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdv277/cwtail/pkg/types"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Equal(t, DefaultLimit, cfg.Limit)
	assert.Equal(t, DefaultOrder, cfg.Order)
	assert.Equal(t, DefaultCallTimeout, cfg.CallTimeout)
	assert.Empty(t, cfg.ConfigPath)
	assert.Empty(t, cfg.Sources)
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `region: eu-west-1
interval: 3
limit: 20
order: oldest
follow: true
call_timeout: 2s
sources:
  - name: bot
    log_group: /aws/lambda/bot
    color: cyan
  - name: scheduler
    log_group: /aws/lambda/scheduler
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigPath)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, 3, cfg.Interval)
	assert.Equal(t, 20, cfg.Limit)
	assert.Equal(t, "oldest", cfg.Order)
	assert.True(t, cfg.Follow)
	assert.Equal(t, 2*time.Second, cfg.CallTimeout)
	assert.Equal(t, []types.LogSource{
		{Name: "bot", LogGroup: "/aws/lambda/bot", Color: "cyan"},
		{Name: "scheduler", LogGroup: "/aws/lambda/scheduler"},
	}, cfg.Sources)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval: 3\n"), 0644))
	t.Setenv("CWTAIL_INTERVAL", "7")

	v := viper.New()
	v.SetEnvPrefix("CWTAIL")
	v.AutomaticEnv()

	cfg, err := Load(v, path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Interval)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: [\n"), 0644))

	_, err := Load(viper.New(), path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Interval: 5,
			Limit:    5,
			Order:    "newest",
			Sources:  []types.LogSource{{Name: "a", LogGroup: "/aws/lambda/a"}},
		}
	}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		errSubstr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero interval", func(c *Config) { c.Interval = 0 }, "invalid interval"},
		{"zero limit", func(c *Config) { c.Limit = 0 }, "invalid limit"},
		{"huge limit", func(c *Config) { c.Limit = MaxLimit + 1 }, "invalid limit"},
		{"bad order", func(c *Config) { c.Order = "sideways" }, "invalid order"},
		{"negative parallel", func(c *Config) { c.Parallel = -1 }, "invalid parallel"},
		{"no sources", func(c *Config) { c.Sources = nil }, "no log sources"},
		{"missing name", func(c *Config) { c.Sources[0].Name = " " }, "has no name"},
		{"missing group", func(c *Config) { c.Sources[0].LogGroup = "" }, "has no log_group"},
		{"duplicate", func(c *Config) {
			c.Sources = append(c.Sources, types.LogSource{Name: "a", LogGroup: "/aws/lambda/other"})
		}, "duplicate source name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestParseSourceFlag(t *testing.T) {
	tests := []struct {
		raw     string
		want    types.LogSource
		wantErr bool
	}{
		{raw: "bot=/aws/lambda/bot", want: types.LogSource{Name: "bot", LogGroup: "/aws/lambda/bot"}},
		{raw: "bot=/aws/lambda/bot@cyan", want: types.LogSource{Name: "bot", LogGroup: "/aws/lambda/bot", Color: "cyan"}},
		{
			raw:  "bot=arn:aws:logs:eu-west-1:123456789012:log-group:/aws/lambda/bot@214",
			want: types.LogSource{Name: "bot", LogGroup: "arn:aws:logs:eu-west-1:123456789012:log-group:/aws/lambda/bot", Color: "214"},
		},
		{
			raw:  "bot=arn:aws:logs:eu-west-1:123456789012:log-group:/aws/lambda/bot:*@cyan",
			want: types.LogSource{Name: "bot", LogGroup: "arn:aws:logs:eu-west-1:123456789012:log-group:/aws/lambda/bot", Color: "cyan"},
		},
		{raw: "bot", wantErr: true},
		{raw: "=/aws/lambda/bot", wantErr: true},
		{raw: "bot=@cyan", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseSourceFlag(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSources(t *testing.T) {
	list := "- name: a\n  log_group: /aws/lambda/a\n"
	doc := "sources:\n  - name: b\n    log_group: /aws/lambda/b\n    color: red\n"

	got, err := ParseSources([]byte(list))
	require.NoError(t, err)
	assert.Equal(t, []types.LogSource{{Name: "a", LogGroup: "/aws/lambda/a"}}, got)

	got, err = ParseSources([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []types.LogSource{{Name: "b", LogGroup: "/aws/lambda/b", Color: "red"}}, got)

	_, err = ParseSources([]byte("sources: {"))
	assert.Error(t, err)

	// A mapping without a sources key is a mistake, not an empty list
	_, err = ParseSources([]byte("source:\n  - name: a\n    log_group: /aws/lambda/a\n"))
	assert.ErrorContains(t, err, "sources key")

	got, err = ParseSources([]byte("sources: []\n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNormalizeLogGroup(t *testing.T) {
	arn := "arn:aws:logs:eu-west-1:123456789012:log-group:/aws/lambda/bot"

	assert.Equal(t, arn, NormalizeLogGroup(arn+":*"))
	assert.Equal(t, arn, NormalizeLogGroup(" "+arn+" "))
	assert.Equal(t, "/aws/lambda/bot", NormalizeLogGroup("/aws/lambda/bot"))

	got, err := ParseSources([]byte("- name: bot\n  log_group: " + arn + ":*\n"))
	require.NoError(t, err)
	assert.Equal(t, arn, got[0].LogGroup)
}

func TestLoad_NormalizesFileLogGroups(t *testing.T) {
	arn := "arn:aws:logs:eu-west-1:123456789012:log-group:/aws/lambda/bot"
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "sources:\n  - name: bot\n    log_group: \"" + arn + ":*\"\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, arn, cfg.Sources[0].LogGroup)
}

func TestSaveConfig_RoundTripsThroughLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := DefaultConfig()

	require.NoError(t, SaveConfig(path, want))

	got, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, want.Sources, got.Sources)
	assert.Equal(t, want.CallTimeout, got.CallTimeout)
	assert.Equal(t, want.Interval, got.Interval)
	assert.NoError(t, got.Validate())
}

func TestGetConfigPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "cwtail", "config.yaml"), GetConfigPath())
}
