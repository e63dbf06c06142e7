package config_test

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/config"
)

func mustParse(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return *u
}

func TestWithDefault(t *testing.T) {
	cfg := config.WithDefault(mustParse(t, config.DefaultStartURL))
	if cfg == nil {
		t.Fatal("WithDefault() returned nil")
	}

	builtCfg, err := cfg.Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}

	if got := builtCfg.StartURL(); got.String() != config.DefaultStartURL {
		t.Errorf("expected start url %s, got %s", config.DefaultStartURL, got.String())
	}
	if builtCfg.OutputDir() != "./wiki" {
		t.Errorf("expected OutputDir ./wiki, got %s", builtCfg.OutputDir())
	}
	if builtCfg.MaxDepth() != 5 {
		t.Errorf("expected MaxDepth 5, got %d", builtCfg.MaxDepth())
	}
	if builtCfg.MaxRetries() != 3 {
		t.Errorf("expected MaxRetries 3, got %d", builtCfg.MaxRetries())
	}
	if builtCfg.MaxUserCycles() != 3 {
		t.Errorf("expected MaxUserCycles 3, got %d", builtCfg.MaxUserCycles())
	}
	if builtCfg.RequestDelay() != time.Second {
		t.Errorf("expected RequestDelay 1s, got %v", builtCfg.RequestDelay())
	}
	if builtCfg.RequestTimeout() != 30*time.Second {
		t.Errorf("expected RequestTimeout 30s, got %v", builtCfg.RequestTimeout())
	}
	if builtCfg.ProbeURL() != config.DefaultProbeURL {
		t.Errorf("expected ProbeURL %s, got %s", config.DefaultProbeURL, builtCfg.ProbeURL())
	}
	if builtCfg.ProbeTimeout() != 10*time.Second {
		t.Errorf("expected ProbeTimeout 10s, got %v", builtCfg.ProbeTimeout())
	}
	if builtCfg.MinContentLength() != 20 {
		t.Errorf("expected MinContentLength 20, got %d", builtCfg.MinContentLength())
	}
	if builtCfg.MaxFilenameLength() != 200 {
		t.Errorf("expected MaxFilenameLength 200, got %d", builtCfg.MaxFilenameLength())
	}
	langs := builtCfg.SupportedLanguages()
	if len(langs) != 3 || langs[0] != "en" || langs[1] != "zh-cn" || langs[2] != "zh" {
		t.Errorf("unexpected SupportedLanguages %v", langs)
	}
	strategies := builtCfg.ExtractionStrategies()
	if len(strategies) != 1 || strategies[0] != config.StrategyParserOutput {
		t.Errorf("unexpected ExtractionStrategies %v", strategies)
	}
	if builtCfg.NonInteractive() {
		t.Error("expected NonInteractive false by default")
	}
}

func TestStatePaths(t *testing.T) {
	cfg, err := config.WithDefault(mustParse(t, config.DefaultStartURL)).
		WithOutputDir("/tmp/out").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StateDir() != filepath.Join("/tmp/out", "state") {
		t.Errorf("unexpected StateDir %s", cfg.StateDir())
	}
	if cfg.QueueStatePath() != filepath.Join("/tmp/out", "state", "queue_state.json") {
		t.Errorf("unexpected QueueStatePath %s", cfg.QueueStatePath())
	}
	if cfg.DedupStatePath() != filepath.Join("/tmp/out", "state", "deduplication_state.json") {
		t.Errorf("unexpected DedupStatePath %s", cfg.DedupStatePath())
	}
	if cfg.ProgressStatePath() != filepath.Join("/tmp/out", "state", "progress_state.json") {
		t.Errorf("unexpected ProgressStatePath %s", cfg.ProgressStatePath())
	}
}

func TestBuild_CanonicalizesStartURL(t *testing.T) {
	cfg, err := config.WithDefault(mustParse(t, "https://EN.Wikipedia.org/wiki/Category:Singapore#top")).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := cfg.StartURL()
	if got.String() != "https://en.wikipedia.org/wiki/Category:Singapore" {
		t.Errorf("expected canonical start url, got %s", got.String())
	}
}

func TestBuild_NormalizesLanguages(t *testing.T) {
	cfg, err := config.WithDefault(mustParse(t, config.DefaultStartURL)).
		WithSupportedLanguages([]string{" EN ", "zh", "en", ""}).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	langs := cfg.SupportedLanguages()
	if len(langs) != 2 || langs[0] != "en" || langs[1] != "zh" {
		t.Errorf("expected [en zh], got %v", langs)
	}
}

func TestBuild_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"http scheme", func(c *config.Config) {
			c.WithStartURL(url.URL{Scheme: "http", Host: "en.wikipedia.org", Path: "/wiki/Category:Singapore"})
		}},
		{"non wikipedia host", func(c *config.Config) {
			c.WithStartURL(url.URL{Scheme: "https", Host: "example.org", Path: "/wiki/Category:Singapore"})
		}},
		{"non wiki path", func(c *config.Config) {
			c.WithStartURL(url.URL{Scheme: "https", Host: "en.wikipedia.org", Path: "/w/index.php"})
		}},
		{"zero depth", func(c *config.Config) { c.WithMaxDepth(0) }},
		{"negative delay", func(c *config.Config) { c.WithRequestDelay(-time.Second) }},
		{"zero timeout", func(c *config.Config) { c.WithRequestTimeout(0) }},
		{"negative retries", func(c *config.Config) { c.WithMaxRetries(-1) }},
		{"zero user cycles", func(c *config.Config) { c.WithMaxUserCycles(0) }},
		{"jitter too large", func(c *config.Config) { c.WithJitterFraction(1) }},
		{"no languages", func(c *config.Config) { c.WithSupportedLanguages(nil) }},
		{"unknown strategy", func(c *config.Config) { c.WithExtractionStrategies([]string{"guess"}) }},
		{"no strategies", func(c *config.Config) { c.WithExtractionStrategies(nil) }},
		{"short filename limit", func(c *config.Config) { c.WithMaxFilenameLength(5) }},
		{"empty output dir", func(c *config.Config) { c.WithOutputDir("  ") }},
		{"bad probe url", func(c *config.Config) { c.WithProbeURL("not a url") }},
		{"bad log level", func(c *config.Config) { c.WithLogLevel("chatty") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.WithDefault(mustParse(t, config.DefaultStartURL))
			tt.mutate(cfg)
			_, err := cfg.Build()
			if !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestBuild_ZeroRetriesAllowed(t *testing.T) {
	cfg, err := config.WithDefault(mustParse(t, config.DefaultStartURL)).
		WithMaxRetries(0).
		WithRequestDelay(0).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxRetries() != 0 || cfg.RequestDelay() != 0 {
		t.Errorf("expected zero retries and delay, got %d and %v", cfg.MaxRetries(), cfg.RequestDelay())
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestWithConfigFile_YAML(t *testing.T) {
	path := writeFile(t, "crawl.yaml", `
start_url: https://zh.wikipedia.org/wiki/Category:新加坡
output_dir: /data/wiki
max_depth: 2
request_delay: 250ms
request_timeout: 5s
max_retries: 1
supported_languages: [zh, zh-cn]
extraction_strategies: [parser-output, readability]
non_interactive: true
`)

	cfg, err := config.WithConfigFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if u := cfg.StartURL(); u.Host != "zh.wikipedia.org" {
		t.Errorf("expected zh host, got %s", u.Host)
	}
	if cfg.OutputDir() != "/data/wiki" {
		t.Errorf("expected /data/wiki, got %s", cfg.OutputDir())
	}
	if cfg.MaxDepth() != 2 {
		t.Errorf("expected MaxDepth 2, got %d", cfg.MaxDepth())
	}
	if cfg.RequestDelay() != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.RequestDelay())
	}
	if cfg.RequestTimeout() != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.RequestTimeout())
	}
	if cfg.MaxRetries() != 1 {
		t.Errorf("expected MaxRetries 1, got %d", cfg.MaxRetries())
	}
	if len(cfg.ExtractionStrategies()) != 2 {
		t.Errorf("expected two strategies, got %v", cfg.ExtractionStrategies())
	}
	if !cfg.NonInteractive() {
		t.Error("expected NonInteractive true")
	}
	// Untouched keys keep defaults.
	if cfg.MaxUserCycles() != 3 {
		t.Errorf("expected default MaxUserCycles 3, got %d", cfg.MaxUserCycles())
	}
}

func TestWithConfigFile_JSON(t *testing.T) {
	path := writeFile(t, "crawl.json", `{"max_depth": 4, "max_retries": 0}`)

	cfg, err := config.WithConfigFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxDepth() != 4 {
		t.Errorf("expected MaxDepth 4, got %d", cfg.MaxDepth())
	}
	if cfg.MaxRetries() != 0 {
		t.Errorf("expected MaxRetries 0, got %d", cfg.MaxRetries())
	}
	if u := cfg.StartURL(); u.String() != config.DefaultStartURL {
		t.Errorf("expected default start url, got %s", u.String())
	}
}

func TestWithConfigFile_EnvOverride(t *testing.T) {
	t.Setenv("WIKICRAWL_MAX_DEPTH", "7")
	t.Setenv("WIKICRAWL_OUTPUT_DIR", "/env/out")
	path := writeFile(t, "crawl.yaml", "max_depth: 2\n")

	cfg, err := config.WithConfigFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxDepth() != 7 {
		t.Errorf("expected env MaxDepth 7, got %d", cfg.MaxDepth())
	}
	if cfg.OutputDir() != "/env/out" {
		t.Errorf("expected env OutputDir, got %s", cfg.OutputDir())
	}
}

func TestWithConfigFile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := config.WithConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, config.ErrFileDoesNotExist) {
			t.Errorf("expected ErrFileDoesNotExist, got %v", err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		path := writeFile(t, "crawl.json", `{"max_depth": `)
		_, err := config.WithConfigFile(path)
		if !errors.Is(err, config.ErrConfigParsingFail) {
			t.Errorf("expected ErrConfigParsingFail, got %v", err)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeFile(t, "crawl.yaml", "max_depth: 0\n")
		_, err := config.WithConfigFile(path)
		if !errors.Is(err, config.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
