package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/config"
	"github.com/rohmanhakim/wiki-crawler/internal/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile              string
	startURL             string
	outputDir            string
	maxDepth             int
	delay                time.Duration
	maxRetries           int
	logLevel             string
	logFile              string
	timeout              time.Duration
	userAgent            string
	maxUserCycles        int
	probeURL             string
	nonInteractive       bool
	languages            []string
	minContentLength     int
	extractionStrategies []string
	metricsAddr          string
	catalogPath          string
	randomSeed           int64
)

// rootCmd crawls a Wikipedia category tree when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "wikicrawl",
	Short: "A resumable Wikipedia category-tree crawler.",
	Long: `wikicrawl walks a Wikipedia category tree breadth-first, starting from a
category page, and saves every category listing and article it reaches as
JSON, with article bodies converted to clean Markdown.

The crawl is polite (one request at a time with a delay), survives network
outages through retries and an operator prompt, and can be interrupted and
resumed at any point: all state lives under <output-dir>/state.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runCrawl(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config-file", "", "config file path (JSON, YAML or TOML)")
	flags.StringVar(&startURL, "start-url", "", "category page to start from (default "+config.DefaultStartURL+")")
	flags.StringVar(&outputDir, "output-dir", "", "root output directory for pages and crawl state (default ./wiki)")
	flags.IntVar(&maxDepth, "max-depth", 0, "maximum subcategory depth below the start category (default 5)")
	flags.DurationVar(&delay, "delay", 0, "minimum delay between requests, also the retry backoff base (default 1s)")
	flags.IntVar(&maxRetries, "max-retries", -1, "retries after the first attempt of a fetch cycle (default 3)")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default info)")
	flags.StringVar(&logFile, "log-file", "", "also write logs to this file")
	flags.DurationVar(&timeout, "timeout", 0, "timeout of a single HTTP request (default 30s)")
	flags.StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	flags.IntVar(&maxUserCycles, "max-user-cycles", 0, "continue-or-skip prompts per URL before the circuit breaker trips (default 3)")
	flags.StringVar(&probeURL, "probe-url", "", "URL probed to tell a dead site from a dead network")
	flags.BoolVar(&nonInteractive, "non-interactive", false, "skip URLs on connectivity loss instead of prompting")
	flags.StringSliceVar(&languages, "languages", nil, "supported article languages (default en,zh-cn,zh)")
	flags.IntVar(&minContentLength, "min-content-length", -1, "minimum meaningful characters of an article (default 20)")
	flags.StringSliceVar(&extractionStrategies, "extraction-strategy", nil, "ordered article extraction strategies: parser-output, readability")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	flags.StringVar(&catalogPath, "catalog", "", "index saved records in this SQLite database")
	flags.Int64Var(&randomSeed, "random-seed", 0, "seed for backoff jitter (0 for current time)")
}

// InitConfigWithError builds the crawl configuration. A config file, when
// given, is authoritative; otherwise flags override the defaults.
func InitConfigWithError() (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	start, err := parseStartURL(startURL)
	if err != nil {
		return config.Config{}, err
	}

	configBuilder := config.WithDefault(start)

	if maxDepth > 0 {
		configBuilder = configBuilder.WithMaxDepth(maxDepth)
	}
	if outputDir != "" {
		configBuilder = configBuilder.WithOutputDir(outputDir)
	}
	if delay > 0 {
		configBuilder = configBuilder.WithRequestDelay(delay)
	}
	if maxRetries >= 0 {
		configBuilder = configBuilder.WithMaxRetries(maxRetries)
	}
	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}
	if logFile != "" {
		configBuilder = configBuilder.WithLogFile(logFile)
	}
	if timeout > 0 {
		configBuilder = configBuilder.WithRequestTimeout(timeout)
	}
	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}
	if maxUserCycles > 0 {
		configBuilder = configBuilder.WithMaxUserCycles(maxUserCycles)
	}
	if probeURL != "" {
		configBuilder = configBuilder.WithProbeURL(probeURL)
	}
	if nonInteractive {
		configBuilder = configBuilder.WithNonInteractive(true)
	}
	if len(languages) > 0 {
		configBuilder = configBuilder.WithSupportedLanguages(languages)
	}
	if minContentLength >= 0 {
		configBuilder = configBuilder.WithMinContentLength(minContentLength)
	}
	if len(extractionStrategies) > 0 {
		configBuilder = configBuilder.WithExtractionStrategies(extractionStrategies)
	}
	if metricsAddr != "" {
		configBuilder = configBuilder.WithMetricsAddr(metricsAddr)
	}
	if catalogPath != "" {
		configBuilder = configBuilder.WithCatalogPath(catalogPath)
	}
	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}

	return configBuilder.Build()
}

func parseStartURL(raw string) (url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = config.DefaultStartURL
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return url.URL{}, fmt.Errorf("%w: error parsing start URL %s: %s", config.ErrInvalidConfig, raw, err.Error())
	}
	return *parsed, nil
}

func runCrawl(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	rt, err := newRuntime(cfg, in, out)
	if err != nil {
		return err
	}
	defer rt.close()

	s, schedErr := scheduler.NewScheduler(cfg, rt.recorder, rt.decider)
	if schedErr != nil {
		return schedErr
	}
	defer s.Close()

	info := s.Resume()
	if info.Resumed() {
		rt.logger.Info("resuming crawl",
			zap.Int("pending", info.Pending),
			zap.Int("done", info.Done),
		)
	}

	start := cfg.StartURL()
	s.Seed(start)
	rt.logger.Info("crawl started",
		zap.String("start_url", start.String()),
		zap.Int("max_depth", cfg.MaxDepth()),
		zap.String("output_dir", cfg.OutputDir()),
	)

	exec := s.ExecuteCrawling(ctx, start.String())

	if exec.Interrupted {
		fmt.Fprintf(out, "Crawl interrupted; %d URLs pending. Run again to resume.\n", exec.Counters.Pending)
	} else {
		fmt.Fprintln(out, "Crawl complete.")
	}
	fmt.Fprintln(out, s.Progress().Summary())
	return nil
}

func ResetFlags() {
	cfgFile = ""
	startURL = ""
	outputDir = ""
	maxDepth = 0
	delay = 0
	maxRetries = -1
	logLevel = ""
	logFile = ""
	timeout = 0
	userAgent = ""
	maxUserCycles = 0
	probeURL = ""
	nonInteractive = false
	languages = nil
	minContentLength = -1
	extractionStrategies = nil
	metricsAddr = ""
	catalogPath = ""
	randomSeed = 0
	includeSkipped = false
	urlsFile = ""
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetStartURLForTest(u string) {
	startURL = u
}

func SetOutputDirForTest(dir string) {
	outputDir = dir
}

func SetMaxDepthForTest(depth int) {
	maxDepth = depth
}

func SetDelayForTest(d time.Duration) {
	delay = d
}

func SetMaxRetriesForTest(n int) {
	maxRetries = n
}

func SetLogLevelForTest(level string) {
	logLevel = level
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetMaxUserCyclesForTest(n int) {
	maxUserCycles = n
}

func SetNonInteractiveForTest(v bool) {
	nonInteractive = v
}

func SetLanguagesForTest(langs []string) {
	languages = langs
}

func SetMinContentLengthForTest(n int) {
	minContentLength = n
}

func SetExtractionStrategiesForTest(strategies []string) {
	extractionStrategies = strategies
}

func SetProbeURLForTest(u string) {
	probeURL = u
}

func SetIncludeSkippedForTest(v bool) {
	includeSkipped = v
}

func SetURLsFileForTest(path string) {
	urlsFile = path
}
