package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/config"
	"github.com/rohmanhakim/wiki-crawler/internal/frontier"
	"github.com/rohmanhakim/wiki-crawler/internal/progress"
	"github.com/rohmanhakim/wiki-crawler/internal/scheduler"
	"github.com/rohmanhakim/wiki-crawler/pkg/fileutil"
	"github.com/rohmanhakim/wiki-crawler/pkg/urlutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	retryQueueFile  = "retry_queue_state.json"
	retryReportFile = "retry_report.yaml"
)

var (
	includeSkipped bool
	urlsFile       string
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Retry URLs that failed (and optionally were skipped) in earlier crawls.",
	Long: `retry reads the crawl state in the output directory, requeues every URL
whose last outcome was failed (plus skipped ones with --include-skipped and
any listed in --urls-file) and processes them again with the crawl's own
scheduler. Unless --extraction-strategy is given, articles are retried with
the lenient readability strategy as a fallback.

A YAML summary is written to <output-dir>/state/retry_report.yaml.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		if len(extractionStrategies) == 0 && cfgFile == "" {
			cfg, err = cfg.WithExtractionStrategies([]string{
				config.StrategyParserOutput,
				config.StrategyReadability,
			}).Build()
			if err != nil {
				return err
			}
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runRetry(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	retryCmd.Flags().BoolVar(&includeSkipped, "include-skipped", false, "also retry URLs that were skipped")
	retryCmd.Flags().StringVar(&urlsFile, "urls-file", "", "file with additional URLs to retry, one per line")
	rootCmd.AddCommand(retryCmd)
}

// RetryReport is the summary written after a retry run.
type RetryReport struct {
	GeneratedAt time.Time         `yaml:"generated_at"`
	Requested   int               `yaml:"requested"`
	Recovered   []string          `yaml:"recovered"`
	StillFailed []RetryFailure    `yaml:"still_failed"`
	Filtered    []string          `yaml:"filtered"`
	Skipped     []string          `yaml:"skipped"`
	Pending     []string          `yaml:"pending"`
	Counters    progress.Counters `yaml:"counters"`
}

type RetryFailure struct {
	URL    string `yaml:"url"`
	Reason string `yaml:"reason"`
}

func runRetry(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	rt, err := newRuntime(cfg, in, out)
	if err != nil {
		return err
	}
	defer rt.close()

	s, schedErr := scheduler.NewScheduler(
		cfg,
		rt.recorder,
		rt.decider,
		scheduler.WithQueueStatePath(filepath.Join(cfg.StateDir(), retryQueueFile)),
	)
	if schedErr != nil {
		return schedErr
	}
	defer s.Close()

	s.Resume()

	targets, err := collectRetryTargets(s.Progress(), includeSkipped, urlsFile)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		fmt.Fprintln(out, "Nothing to retry.")
		return nil
	}

	for _, target := range targets {
		var kind frontier.Kind
		depth := 0
		if rec, ok := s.Progress().URLStatus(target); ok {
			kind, depth = rec.Kind, rec.Depth
		}
		s.Requeue(target, kind, depth)
	}
	rt.logger.Info("retry started", zap.Int("urls", len(targets)))

	started := time.Now()
	start := cfg.StartURL()
	exec := s.ExecuteCrawling(ctx, start.String())

	report := buildRetryReport(s.Progress(), targets, started, exec.Counters)
	reportPath := filepath.Join(cfg.StateDir(), retryReportFile)
	if err := writeRetryReport(reportPath, report); err != nil {
		return err
	}

	fmt.Fprintf(out, "Retried %d URLs: %d recovered, %d still failed, %d filtered, %d skipped, %d pending.\n",
		report.Requested, len(report.Recovered), len(report.StillFailed),
		len(report.Filtered), len(report.Skipped), len(report.Pending))
	fmt.Fprintf(out, "Report written to %s\n", reportPath)
	return nil
}

// collectRetryTargets lists failed URLs, then skipped ones when asked, then
// the URLs file, without duplicates.
func collectRetryTargets(ledger *progress.Ledger, withSkipped bool, path string) ([]string, error) {
	outcomes := []progress.Outcome{progress.OutcomeFailed}
	if withSkipped {
		outcomes = append(outcomes, progress.OutcomeSkipped)
	}
	targets := ledger.URLsWithStatus(outcomes...)

	if path != "" {
		extra, err := readURLsFile(path)
		if err != nil {
			return nil, err
		}
		for _, u := range extra {
			if !slices.Contains(targets, u) {
				targets = append(targets, u)
			}
		}
	}
	return targets, nil
}

// readURLsFile reads one URL per line in canonical form. Blank lines,
// # comments and entries that are not absolute URLs are ignored.
func readURLsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open urls file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		canonical, err := urlutil.CanonicalString(line)
		if err != nil {
			continue
		}
		urls = append(urls, canonical)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read urls file: %w", err)
	}
	return urls, nil
}

// buildRetryReport groups targets by their outcome. A target whose status
// predates the run was not reached and is reported as pending.
func buildRetryReport(
	ledger *progress.Ledger,
	targets []string,
	since time.Time,
	counters progress.Counters,
) RetryReport {
	report := RetryReport{
		GeneratedAt: time.Now().UTC(),
		Requested:   len(targets),
		Recovered:   []string{},
		StillFailed: []RetryFailure{},
		Filtered:    []string{},
		Skipped:     []string{},
		Pending:     []string{},
		Counters:    counters,
	}
	for _, target := range targets {
		rec, ok := ledger.URLStatus(target)
		switch {
		case !ok || rec.UpdatedAt.Before(since):
			report.Pending = append(report.Pending, target)
		case rec.Status == progress.OutcomeSucceeded:
			report.Recovered = append(report.Recovered, target)
		case rec.Status == progress.OutcomeFiltered:
			report.Filtered = append(report.Filtered, target)
		case rec.Status == progress.OutcomeSkipped:
			report.Skipped = append(report.Skipped, target)
		default:
			report.StillFailed = append(report.StillFailed, RetryFailure{URL: target, Reason: rec.Reason})
		}
	}
	return report
}

func writeRetryReport(path string, report RetryReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode retry report: %w", err)
	}
	if writeErr := fileutil.WriteFileAtomic(path, data); writeErr != nil {
		return writeErr
	}
	return nil
}
