package cmd_test

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	cmd "github.com/rohmanhakim/wiki-crawler/internal/cli"
	"github.com/rohmanhakim/wiki-crawler/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigNoFlags(t *testing.T) {
	cmd.ResetFlags()

	cfg, err := cmd.InitConfigWithError()
	require.NoError(t, err)

	start := cfg.StartURL()
	assert.Equal(t, config.DefaultStartURL, start.String())
	assert.Equal(t, 5, cfg.MaxDepth())
	assert.Equal(t, time.Second, cfg.RequestDelay())
	assert.Equal(t, 3, cfg.MaxRetries())
	assert.Equal(t, 3, cfg.MaxUserCycles())
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Equal(t, "info", cfg.LogLevel())
	assert.Equal(t, []string{config.StrategyParserOutput}, cfg.ExtractionStrategies())
	assert.False(t, cfg.NonInteractive())
}

func TestInitConfigWithFlags(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()

	dir := t.TempDir()
	cmd.SetStartURLForTest("https://zh.wikipedia.org/wiki/Category:新加坡")
	cmd.SetOutputDirForTest(dir)
	cmd.SetMaxDepthForTest(2)
	cmd.SetDelayForTest(250 * time.Millisecond)
	cmd.SetMaxRetriesForTest(0)
	cmd.SetLogLevelForTest("debug")
	cmd.SetTimeoutForTest(5 * time.Second)
	cmd.SetMaxUserCyclesForTest(1)
	cmd.SetNonInteractiveForTest(true)
	cmd.SetLanguagesForTest([]string{"ZH", "en"})
	cmd.SetMinContentLengthForTest(0)
	cmd.SetExtractionStrategiesForTest([]string{"readability"})
	cmd.SetProbeURLForTest("https://example.org")

	cfg, err := cmd.InitConfigWithError()
	require.NoError(t, err)

	start := cfg.StartURL()
	assert.Equal(t, "zh.wikipedia.org", start.Host)
	assert.Equal(t, dir, cfg.OutputDir())
	assert.Equal(t, filepath.Join(dir, "state"), cfg.StateDir())
	assert.Equal(t, 2, cfg.MaxDepth())
	assert.Equal(t, 250*time.Millisecond, cfg.RequestDelay())
	assert.Equal(t, 0, cfg.MaxRetries())
	assert.Equal(t, "debug", cfg.LogLevel())
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 1, cfg.MaxUserCycles())
	assert.True(t, cfg.NonInteractive())
	assert.Equal(t, []string{"zh", "en"}, cfg.SupportedLanguages())
	assert.Equal(t, 0, cfg.MinContentLength())
	assert.Equal(t, []string{"readability"}, cfg.ExtractionStrategies())
	assert.Equal(t, "https://example.org", cfg.ProbeURL())
}

func TestInitConfigRejectsNonWikipediaStartURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "plain http", url: "http://en.wikipedia.org/wiki/Category:Physics"},
		{name: "other host", url: "https://example.com/wiki/Category:Physics"},
		{name: "not a wiki path", url: "https://en.wikipedia.org/w/index.php?title=Physics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd.ResetFlags()
			defer cmd.ResetFlags()
			cmd.SetStartURLForTest(tt.url)

			_, err := cmd.InitConfigWithError()
			require.Error(t, err)
			assert.True(t, errors.Is(err, config.ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestInitConfigRejectsUnknownStrategy(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()
	cmd.SetExtractionStrategiesForTest([]string{"magic"})

	_, err := cmd.InitConfigWithError()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestInitConfigWithConfigFile(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()

	dir := t.TempDir()
	path := filepath.Join(dir, "wikicrawl.yaml")
	content := `start_url: https://en.wikipedia.org/wiki/Category:Physics
max_depth: 3
request_delay: 2s
non_interactive: true
supported_languages: [en]
output_dir: ` + dir + `
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	cmd.SetConfigFileForTest(path)
	// Flags are ignored when a config file is given.
	cmd.SetMaxDepthForTest(9)

	cfg, err := cmd.InitConfigWithError()
	require.NoError(t, err)

	start := cfg.StartURL()
	assert.Equal(t, "https://en.wikipedia.org/wiki/Category:Physics", start.String())
	assert.Equal(t, 3, cfg.MaxDepth())
	assert.Equal(t, 2*time.Second, cfg.RequestDelay())
	assert.True(t, cfg.NonInteractive())
	assert.Equal(t, []string{"en"}, cfg.SupportedLanguages())
	assert.Equal(t, 3, cfg.MaxRetries())
}

func TestInitConfigWithNonExistentFile(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()
	cmd.SetConfigFileForTest(filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := cmd.InitConfigWithError()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrFileDoesNotExist)
}

func TestResetFlags(t *testing.T) {
	cmd.SetMaxDepthForTest(7)
	cmd.SetMaxRetriesForTest(9)
	cmd.SetOutputDirForTest("/tmp/elsewhere")

	cmd.ResetFlags()

	cfg, err := cmd.InitConfigWithError()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxDepth())
	assert.Equal(t, 3, cfg.MaxRetries())
	assert.Equal(t, "./wiki", cfg.OutputDir())
}

func mustStartURL(t *testing.T) url.URL {
	t.Helper()
	u, err := url.Parse(config.DefaultStartURL)
	require.NoError(t, err)
	return *u
}
