package cmd

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/catalog"
	"github.com/rohmanhakim/wiki-crawler/internal/config"
	"github.com/rohmanhakim/wiki-crawler/internal/progress"
	"github.com/rohmanhakim/wiki-crawler/internal/storage"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the progress of the crawl stored in the output directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		return printStatus(cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func printStatus(cfg config.Config, out io.Writer) error {
	ledger := progress.NewLedger(cfg.ProgressStatePath(), nil)
	if !ledger.Load() {
		fmt.Fprintf(out, "No crawl state found in %s\n", cfg.StateDir())
		return nil
	}

	report := ledger.Report()
	state := "stopped"
	if report.Running {
		state = "running"
	}

	fmt.Fprintf(out, "Session:       %s (%s)\n", report.SessionID, state)
	fmt.Fprintf(out, "Start URL:     %s\n", report.StartURL)
	fmt.Fprintf(out, "Started:       %s\n", formatTime(report.StartedAt))
	fmt.Fprintf(out, "Last activity: %s\n", formatTime(report.LastActivity))
	fmt.Fprintln(out, ledger.Summary())

	if len(report.LanguageStats) > 0 {
		fmt.Fprintln(out, "Languages:")
		for _, lang := range slices.Sorted(maps.Keys(report.LanguageStats)) {
			fmt.Fprintf(out, "  %-8s %d\n", lang, report.LanguageStats[lang])
		}
	}
	if len(report.ErrorSummary) > 0 {
		fmt.Fprintln(out, "Errors:")
		for _, category := range slices.Sorted(maps.Keys(report.ErrorSummary)) {
			fmt.Fprintf(out, "  %-20s %d\n", category, report.ErrorSummary[category])
		}
	}
	if cfg.CatalogPath() != "" {
		if err := printCatalog(cfg.CatalogPath(), out); err != nil {
			return err
		}
	}
	if len(report.RecentURLs) > 0 {
		fmt.Fprintln(out, "Recent:")
		for _, line := range report.RecentURLs {
			fmt.Fprintf(out, "  %s\n", line)
		}
	}
	return nil
}

func printCatalog(path string, out io.Writer) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	cat, openErr := catalog.Open(path)
	if openErr != nil {
		return openErr
	}
	defer cat.Close()

	counts, err := cat.CountByKind()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Catalog:       %d categories, %d articles (%s)\n",
		counts[string(storage.TypeCategory)], counts[string(storage.TypeArticle)], path)
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
