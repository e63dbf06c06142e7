package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/build"
	"github.com/rohmanhakim/wiki-crawler/internal/logging"
	"github.com/rohmanhakim/wiki-crawler/pkg/urlutil"
	"github.com/spf13/viper"
)

const (
	DefaultStartURL = "https://en.wikipedia.org/wiki/Category:Singapore"
	DefaultProbeURL = "https://www.google.com"

	StrategyParserOutput = "parser-output"
	StrategyReadability  = "readability"
)

var knownStrategies = []string{StrategyParserOutput, StrategyReadability}

type Config struct {
	//===============
	//  Crawl scope
	//===============
	// Category page the traversal starts from.
	startURL url.URL
	// Subcategories deeper than this are not enqueued. The start category is depth 0.
	maxDepth int

	//===============
	// Politeness & retry
	//===============
	// Minimum wait between two requests to the same host, and the base of
	// the retry backoff (delay * 2^attempt).
	requestDelay time.Duration
	// Symmetric jitter applied to backoff waits, as a fraction of the wait.
	jitterFraction float64
	// Upper bound of a single backoff wait.
	backoffMaxDuration time.Duration
	// Controls the random number generator
	randomSeed int64
	// Retries after the first attempt within one fetch cycle.
	maxRetries int
	// Continue-or-skip cycles offered when connectivity is lost, before the
	// circuit breaker forces a skip.
	maxUserCycles int

	//===============
	// Fetch
	//===============
	// Hard timeout of a single HTTP request.
	requestTimeout time.Duration
	userAgent      string
	// URL fetched to tell "site is broken" apart from "network is down".
	probeURL     string
	probeTimeout time.Duration

	//===============
	// Content
	//===============
	supportedLanguages []string
	// Articles whose cleaned markdown is shorter than this are failed.
	minContentLength int
	// Ordered article extraction strategies; later ones are tried when
	// earlier ones produce too little content.
	extractionStrategies []string

	//===============
	// Output
	//===============
	outputDir         string
	maxFilenameLength int
	// Optional SQLite index of written records. Empty disables it.
	catalogPath string

	//===============
	// Operations
	//===============
	logLevel       string
	logFile        string
	nonInteractive bool
	metricsAddr    string
}

type configDTO struct {
	StartURL             string        `mapstructure:"start_url"`
	MaxDepth             int           `mapstructure:"max_depth"`
	RequestDelay         time.Duration `mapstructure:"request_delay"`
	JitterFraction       float64       `mapstructure:"jitter_fraction"`
	BackoffMaxDuration   time.Duration `mapstructure:"backoff_max_duration"`
	RandomSeed           int64         `mapstructure:"random_seed"`
	MaxRetries           int           `mapstructure:"max_retries"`
	MaxUserCycles        int           `mapstructure:"max_user_cycles"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"`
	UserAgent            string        `mapstructure:"user_agent"`
	ProbeURL             string        `mapstructure:"probe_url"`
	ProbeTimeout         time.Duration `mapstructure:"probe_timeout"`
	SupportedLanguages   []string      `mapstructure:"supported_languages"`
	MinContentLength     int           `mapstructure:"min_content_length"`
	ExtractionStrategies []string      `mapstructure:"extraction_strategies"`
	OutputDir            string        `mapstructure:"output_dir"`
	MaxFilenameLength    int           `mapstructure:"max_filename_length"`
	CatalogPath          string        `mapstructure:"catalog_path"`
	LogLevel             string        `mapstructure:"log_level"`
	LogFile              string        `mapstructure:"log_file"`
	NonInteractive       bool          `mapstructure:"non_interactive"`
	MetricsAddr          string        `mapstructure:"metrics_addr"`
}

// setDefaults registers every key so environment overrides
// (WIKICRAWL_MAX_DEPTH, ...) apply even when the file omits them.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("start_url", d.startURL.String())
	v.SetDefault("max_depth", d.maxDepth)
	v.SetDefault("request_delay", d.requestDelay)
	v.SetDefault("jitter_fraction", d.jitterFraction)
	v.SetDefault("backoff_max_duration", d.backoffMaxDuration)
	v.SetDefault("random_seed", d.randomSeed)
	v.SetDefault("max_retries", d.maxRetries)
	v.SetDefault("max_user_cycles", d.maxUserCycles)
	v.SetDefault("request_timeout", d.requestTimeout)
	v.SetDefault("user_agent", d.userAgent)
	v.SetDefault("probe_url", d.probeURL)
	v.SetDefault("probe_timeout", d.probeTimeout)
	v.SetDefault("supported_languages", d.supportedLanguages)
	v.SetDefault("min_content_length", d.minContentLength)
	v.SetDefault("extraction_strategies", d.extractionStrategies)
	v.SetDefault("output_dir", d.outputDir)
	v.SetDefault("max_filename_length", d.maxFilenameLength)
	v.SetDefault("catalog_path", d.catalogPath)
	v.SetDefault("log_level", d.logLevel)
	v.SetDefault("log_file", d.logFile)
	v.SetDefault("non_interactive", d.nonInteractive)
	v.SetDefault("metrics_addr", d.metricsAddr)
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	startURL, err := url.Parse(strings.TrimSpace(dto.StartURL))
	if err != nil {
		return Config{}, fmt.Errorf("%w: start_url: %s", ErrInvalidConfig, err.Error())
	}

	return WithDefault(*startURL).
		WithMaxDepth(dto.MaxDepth).
		WithRequestDelay(dto.RequestDelay).
		WithJitterFraction(dto.JitterFraction).
		WithBackoffMaxDuration(dto.BackoffMaxDuration).
		WithRandomSeed(dto.RandomSeed).
		WithMaxRetries(dto.MaxRetries).
		WithMaxUserCycles(dto.MaxUserCycles).
		WithRequestTimeout(dto.RequestTimeout).
		WithUserAgent(dto.UserAgent).
		WithProbeURL(dto.ProbeURL).
		WithProbeTimeout(dto.ProbeTimeout).
		WithSupportedLanguages(dto.SupportedLanguages).
		WithMinContentLength(dto.MinContentLength).
		WithExtractionStrategies(dto.ExtractionStrategies).
		WithOutputDir(dto.OutputDir).
		WithMaxFilenameLength(dto.MaxFilenameLength).
		WithCatalogPath(dto.CatalogPath).
		WithLogLevel(dto.LogLevel).
		WithLogFile(dto.LogFile).
		WithNonInteractive(dto.NonInteractive).
		WithMetricsAddr(dto.MetricsAddr).
		Build()
}

// WithConfigFile reads a JSON, YAML or TOML file (by extension). Keys the
// file omits keep their defaults; WIKICRAWL_* environment variables win
// over both.
func WithConfigFile(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}

	v := viper.New()
	v.SetEnvPrefix("WIKICRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, *WithDefault(defaultStartURL()))

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var parseErr viper.ConfigParseError
		if errors.As(err, &parseErr) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
		}
		if errors.Is(err, fs.ErrPermission) {
			return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
		}
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	var dto configDTO
	if err := v.Unmarshal(&dto); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}
	return newConfigFromDTO(dto)
}

func defaultStartURL() url.URL {
	u, _ := url.Parse(DefaultStartURL)
	return *u
}

// WithDefault creates a new Config with the provided start URL and default
// values for all other fields.
func WithDefault(startURL url.URL) *Config {
	defaultConfig := Config{
		startURL:             startURL,
		maxDepth:             5,
		requestDelay:         time.Second,
		jitterFraction:       0.1,
		backoffMaxDuration:   60 * time.Second,
		randomSeed:           time.Now().UnixNano(),
		maxRetries:           3,
		maxUserCycles:        3,
		requestTimeout:       30 * time.Second,
		userAgent:            build.UserAgent(),
		probeURL:             DefaultProbeURL,
		probeTimeout:         10 * time.Second,
		supportedLanguages:   []string{"en", "zh-cn", "zh"},
		minContentLength:     20,
		extractionStrategies: []string{StrategyParserOutput},
		outputDir:            "./wiki",
		maxFilenameLength:    200,
		logLevel:             "info",
	}
	return &defaultConfig
}

func (c *Config) WithStartURL(u url.URL) *Config {
	c.startURL = u
	return c
}

func (c *Config) WithMaxDepth(depth int) *Config {
	c.maxDepth = depth
	return c
}

func (c *Config) WithRequestDelay(delay time.Duration) *Config {
	c.requestDelay = delay
	return c
}

func (c *Config) WithJitterFraction(fraction float64) *Config {
	c.jitterFraction = fraction
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxRetries(retries int) *Config {
	c.maxRetries = retries
	return c
}

func (c *Config) WithMaxUserCycles(cycles int) *Config {
	c.maxUserCycles = cycles
	return c
}

func (c *Config) WithRequestTimeout(timeout time.Duration) *Config {
	c.requestTimeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithProbeURL(probeURL string) *Config {
	c.probeURL = probeURL
	return c
}

func (c *Config) WithProbeTimeout(timeout time.Duration) *Config {
	c.probeTimeout = timeout
	return c
}

func (c *Config) WithSupportedLanguages(languages []string) *Config {
	c.supportedLanguages = languages
	return c
}

func (c *Config) WithMinContentLength(length int) *Config {
	c.minContentLength = length
	return c
}

func (c *Config) WithExtractionStrategies(strategies []string) *Config {
	c.extractionStrategies = strategies
	return c
}

func (c *Config) WithOutputDir(outputDir string) *Config {
	c.outputDir = outputDir
	return c
}

func (c *Config) WithMaxFilenameLength(length int) *Config {
	c.maxFilenameLength = length
	return c
}

func (c *Config) WithCatalogPath(path string) *Config {
	c.catalogPath = path
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) WithLogFile(path string) *Config {
	c.logFile = path
	return c
}

func (c *Config) WithNonInteractive(nonInteractive bool) *Config {
	c.nonInteractive = nonInteractive
	return c
}

func (c *Config) WithMetricsAddr(addr string) *Config {
	c.metricsAddr = addr
	return c
}

// Build validates and normalizes the configuration.
func (c *Config) Build() (Config, error) {
	if err := c.validateStartURL(); err != nil {
		return Config{}, err
	}
	c.startURL = urlutil.Canonicalize(c.startURL)

	switch {
	case c.maxDepth < 1:
		return Config{}, fmt.Errorf("%w: max depth must be at least 1, got %d", ErrInvalidConfig, c.maxDepth)
	case c.requestDelay < 0:
		return Config{}, fmt.Errorf("%w: request delay cannot be negative", ErrInvalidConfig)
	case c.requestTimeout <= 0:
		return Config{}, fmt.Errorf("%w: request timeout must be positive", ErrInvalidConfig)
	case c.maxRetries < 0:
		return Config{}, fmt.Errorf("%w: max retries cannot be negative", ErrInvalidConfig)
	case c.maxUserCycles < 1:
		return Config{}, fmt.Errorf("%w: max user cycles must be at least 1", ErrInvalidConfig)
	case c.jitterFraction < 0 || c.jitterFraction >= 1:
		return Config{}, fmt.Errorf("%w: jitter fraction must be in [0, 1)", ErrInvalidConfig)
	case c.backoffMaxDuration < 0:
		return Config{}, fmt.Errorf("%w: backoff max duration cannot be negative", ErrInvalidConfig)
	case c.probeTimeout <= 0:
		return Config{}, fmt.Errorf("%w: probe timeout must be positive", ErrInvalidConfig)
	case c.minContentLength < 0:
		return Config{}, fmt.Errorf("%w: min content length cannot be negative", ErrInvalidConfig)
	case c.maxFilenameLength < 20:
		return Config{}, fmt.Errorf("%w: max filename length must be at least 20", ErrInvalidConfig)
	case strings.TrimSpace(c.outputDir) == "":
		return Config{}, fmt.Errorf("%w: output dir cannot be empty", ErrInvalidConfig)
	}

	if probe, err := url.Parse(c.probeURL); err != nil || probe.Scheme == "" || probe.Host == "" {
		return Config{}, fmt.Errorf("%w: invalid probe url %q", ErrInvalidConfig, c.probeURL)
	}

	languages := make([]string, 0, len(c.supportedLanguages))
	for _, lang := range c.supportedLanguages {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang != "" && !slices.Contains(languages, lang) {
			languages = append(languages, lang)
		}
	}
	if len(languages) == 0 {
		return Config{}, fmt.Errorf("%w: at least one supported language is required", ErrInvalidConfig)
	}
	c.supportedLanguages = languages

	if len(c.extractionStrategies) == 0 {
		return Config{}, fmt.Errorf("%w: at least one extraction strategy is required", ErrInvalidConfig)
	}
	for _, s := range c.extractionStrategies {
		if !slices.Contains(knownStrategies, s) {
			return Config{}, fmt.Errorf("%w: unknown extraction strategy %q", ErrInvalidConfig, s)
		}
	}

	if _, err := logging.ParseLevel(c.logLevel); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	return *c, nil
}

func (c *Config) validateStartURL() error {
	switch {
	case c.startURL.Scheme != "https":
		return fmt.Errorf("%w: start url must use https: %q", ErrInvalidConfig, c.startURL.String())
	case !urlutil.IsWikipediaHost(c.startURL.Hostname()):
		return fmt.Errorf("%w: start url must be a wikipedia.org page: %q", ErrInvalidConfig, c.startURL.String())
	case !strings.HasPrefix(c.startURL.Path, "/wiki/"):
		return fmt.Errorf("%w: start url must be a /wiki/ page: %q", ErrInvalidConfig, c.startURL.String())
	}
	return nil
}

func (c Config) StartURL() url.URL {
	return c.startURL
}

func (c Config) MaxDepth() int {
	return c.maxDepth
}

func (c Config) RequestDelay() time.Duration {
	return c.requestDelay
}

func (c Config) JitterFraction() float64 {
	return c.jitterFraction
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) MaxRetries() int {
	return c.maxRetries
}

func (c Config) MaxUserCycles() int {
	return c.maxUserCycles
}

func (c Config) RequestTimeout() time.Duration {
	return c.requestTimeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) ProbeURL() string {
	return c.probeURL
}

func (c Config) ProbeTimeout() time.Duration {
	return c.probeTimeout
}

func (c Config) SupportedLanguages() []string {
	return slices.Clone(c.supportedLanguages)
}

func (c Config) MinContentLength() int {
	return c.minContentLength
}

func (c Config) ExtractionStrategies() []string {
	return slices.Clone(c.extractionStrategies)
}

func (c Config) OutputDir() string {
	return c.outputDir
}

func (c Config) MaxFilenameLength() int {
	return c.maxFilenameLength
}

func (c Config) CatalogPath() string {
	return c.catalogPath
}

func (c Config) LogLevel() string {
	return c.logLevel
}

func (c Config) LogFile() string {
	return c.logFile
}

func (c Config) NonInteractive() bool {
	return c.nonInteractive
}

func (c Config) MetricsAddr() string {
	return c.metricsAddr
}

// StateDir holds the frontier, dedup and progress files.
func (c Config) StateDir() string {
	return filepath.Join(c.outputDir, "state")
}

func (c Config) QueueStatePath() string {
	return filepath.Join(c.StateDir(), "queue_state.json")
}

func (c Config) DedupStatePath() string {
	return filepath.Join(c.StateDir(), "deduplication_state.json")
}

func (c Config) ProgressStatePath() string {
	return filepath.Join(c.StateDir(), "progress_state.json")
}
