package scheduler

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/catalog"
	"github.com/rohmanhakim/wiki-crawler/internal/config"
	"github.com/rohmanhakim/wiki-crawler/internal/content"
	"github.com/rohmanhakim/wiki-crawler/internal/decision"
	"github.com/rohmanhakim/wiki-crawler/internal/extractor"
	"github.com/rohmanhakim/wiki-crawler/internal/fetcher"
	"github.com/rohmanhakim/wiki-crawler/internal/frontier"
	"github.com/rohmanhakim/wiki-crawler/internal/language"
	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/internal/progress"
	"github.com/rohmanhakim/wiki-crawler/internal/storage"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
	"github.com/rohmanhakim/wiki-crawler/pkg/fileutil"
	"github.com/rohmanhakim/wiki-crawler/pkg/limiter"
	"github.com/rohmanhakim/wiki-crawler/pkg/retry"
	"github.com/rohmanhakim/wiki-crawler/pkg/timeutil"
)

/*
 Scheduler is the sole control-plane authority of the crawl.

 Item lifecycle:

	Queued -> Fetching -> Classifying -> ExpandingCategory | ProcessingArticle
	       -> Finalizing -> Done

 Terminal outcomes are Succeeded, Failed, Filtered and Skipped. Every item
 that leaves Fetching reaches exactly one of them, except when shutdown
 interrupts a fetch; that item stays in flight and is persisted as pending.

 Admission guarantees:
 - Only the scheduler enqueues URLs; collaborators only report links.
 - Subcategories are admitted at depth+1 and dropped beyond MaxDepth.
   Articles are admitted at the depth of their category.
 - The deduplication ledger is the cycle breaker of the category graph.

 Connectivity protocol:
 - The fetcher exhausts one retry cycle and reports ConnectivityLost.
 - The scheduler asks the decision provider up to MaxUserCycles times.
   Skip ends the item as Skipped.
 - A final cycle that still ends in ConnectivityLost is a forced skip and
   trips the circuit breaker counter.

 Persistence:
 - Finalizing marks the ledger, records progress, releases the frontier
   claim, then saves all three stores, so a crash between items loses
   nothing.

 Collaborator failures never abort the loop; they end that item as Failed.
 Metadata emission is observational only and MUST NOT influence
 scheduling, retries, or crawl termination.
*/

type Scheduler struct {
	metadataSink   metadata.MetadataSink
	crawlFinalizer metadata.CrawlFinalizer
	frontier       *frontier.Frontier
	ledger         *frontier.Ledger
	progress       *progress.Ledger
	fetcher        fetcher.Fetcher
	processor      content.Processor
	storageSink    storage.Sink
	decider        decision.Provider
	param          Param
	now            func() time.Time
	closers        []func() error
}

// Dependencies are the collaborators a Scheduler drives.
type Dependencies struct {
	MetadataSink   metadata.MetadataSink
	CrawlFinalizer metadata.CrawlFinalizer
	Frontier       *frontier.Frontier
	Ledger         *frontier.Ledger
	Progress       *progress.Ledger
	Fetcher        fetcher.Fetcher
	Processor      content.Processor
	Storage        storage.Sink
	Decider        decision.Provider
}

// NewScheduler wires the production collaborators from cfg.
func NewScheduler(
	cfg config.Config,
	recorder *metadata.Recorder,
	decider decision.Provider,
	opts ...Option,
) (*Scheduler, failure.ClassifiedError) {
	o := options{queueStatePath: cfg.QueueStatePath()}
	for _, opt := range opts {
		opt(&o)
	}

	ledger := frontier.NewLedger(cfg.DedupStatePath(), recorder)
	urlFrontier := frontier.NewFrontier(ledger, o.queueStatePath, recorder)
	progressLedger := progress.NewLedger(cfg.ProgressStatePath(), recorder)

	rateLimiter := limiter.NewConcurrentRateLimiter()
	rateLimiter.SetBaseDelay(cfg.RequestDelay())
	rateLimiter.SetJitter(time.Duration(float64(cfg.RequestDelay()) * cfg.JitterFraction()))
	rateLimiter.SetRandomSeed(cfg.RandomSeed())
	rateLimiter.SetBackoffParam(timeutil.NewBackoffParam(cfg.RequestDelay(), 2.0, cfg.BackoffMaxDuration()))

	prober := fetcher.NewHTTPProber(recorder, cfg.ProbeURL(), cfg.ProbeTimeout(), cfg.UserAgent())
	engine := fetcher.NewEngine(recorder, rateLimiter, prober, fetcher.EngineParam{
		UserAgent: cfg.UserAgent(),
		Timeout:   cfg.RequestTimeout(),
		RetryParam: retry.NewRetryParam(
			cfg.MaxRetries(),
			cfg.JitterFraction(),
			cfg.RandomSeed(),
			timeutil.NewBackoffParam(cfg.RequestDelay(), 2.0, cfg.BackoffMaxDuration()),
		),
	})

	strategies := make([]extractor.Strategy, 0, len(cfg.ExtractionStrategies()))
	for _, name := range cfg.ExtractionStrategies() {
		strategy, err := extractor.ParseStrategy(name)
		if err != nil {
			return nil, &SchedulerError{Message: err.Error(), Cause: ErrCauseInvalidSetup}
		}
		strategies = append(strategies, strategy)
	}
	processor := content.NewProcessor(
		recorder,
		language.NewDetector(cfg.SupportedLanguages()),
		content.Param{
			Strategies:       strategies,
			MinContentLength: cfg.MinContentLength(),
		},
	)

	localSink := storage.NewLocalSink(recorder, cfg.OutputDir(), cfg.MaxFilenameLength())
	var closers []func() error
	if cfg.CatalogPath() != "" {
		if err := fileutil.EnsureDir(filepath.Dir(cfg.CatalogPath())); err != nil {
			return nil, err
		}
		cat, err := catalog.Open(cfg.CatalogPath())
		if err != nil {
			return nil, &SchedulerError{Message: err.Error(), Cause: ErrCauseInvalidSetup}
		}
		localSink.WithIndexer(cat)
		closers = append(closers, cat.Close)
	}

	s := NewSchedulerWithDeps(
		Param{MaxDepth: cfg.MaxDepth(), MaxUserCycles: cfg.MaxUserCycles()},
		Dependencies{
			MetadataSink:   recorder,
			CrawlFinalizer: recorder,
			Frontier:       urlFrontier,
			Ledger:         ledger,
			Progress:       progressLedger,
			Fetcher:        engine,
			Processor:      processor,
			Storage:        localSink,
			Decider:        decider,
		},
	)
	s.closers = closers
	return s, nil
}

// NewSchedulerWithDeps creates a Scheduler with injected collaborators.
func NewSchedulerWithDeps(param Param, deps Dependencies) *Scheduler {
	sink := deps.MetadataSink
	if sink == nil {
		sink = &metadata.NoopSink{}
	}
	finalizer := deps.CrawlFinalizer
	if finalizer == nil {
		finalizer = &metadata.NoopSink{}
	}
	decider := deps.Decider
	if decider == nil {
		decider = decision.Fixed{Answer: decision.Skip}
	}
	if param.MaxUserCycles < 1 {
		param.MaxUserCycles = 1
	}
	return &Scheduler{
		metadataSink:   sink,
		crawlFinalizer: finalizer,
		frontier:       deps.Frontier,
		ledger:         deps.Ledger,
		progress:       deps.Progress,
		fetcher:        deps.Fetcher,
		processor:      deps.Processor,
		storageSink:    deps.Storage,
		decider:        decider,
		param:          param,
		now:            time.Now,
	}
}

// Resume loads the ledger, then the frontier (which drops done URLs), then
// progress. Missing or malformed files start empty.
func (s *Scheduler) Resume() ResumeInfo {
	info := ResumeInfo{
		LedgerLoaded:   s.ledger.Load(),
		FrontierLoaded: s.frontier.Load(),
		ProgressLoaded: s.progress.Load(),
	}
	info.Pending = s.frontier.Pending()
	info.Done = s.ledger.Count()
	s.setPending(info.Pending)
	return info
}

// Seed admits the start URL at depth 0. It is a no-op when the URL is
// already done or queued, so seeding a resumed crawl is safe.
func (s *Scheduler) Seed(startURL url.URL) bool {
	return s.frontier.Add(startURL.String(), kindHint(startURL), 0)
}

// Requeue admits pageURL for recovery even if the ledger marks it done.
func (s *Scheduler) Requeue(pageURL string, kind frontier.Kind, depth int) bool {
	if kind == "" {
		if u, err := url.Parse(pageURL); err == nil {
			kind = kindHint(*u)
		} else {
			kind = frontier.KindArticle
		}
	}
	return s.frontier.Requeue(pageURL, kind, depth)
}

// Progress exposes the progress ledger for reporting.
func (s *Scheduler) Progress() *progress.Ledger {
	return s.progress
}

// Close releases optional resources such as the catalog database.
func (s *Scheduler) Close() error {
	var firstErr error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// ExecuteCrawling drains the frontier until it is empty or ctx is
// cancelled. The in-flight item always reaches a terminal state (or stays
// pending if its fetch was interrupted) before state is saved.
func (s *Scheduler) ExecuteCrawling(ctx context.Context, startURL string) CrawlingExecution {
	started := s.now()
	s.progress.Start(startURL)

	processed := 0
	for ctx.Err() == nil {
		item, ok := s.frontier.Next()
		if !ok {
			break
		}
		if s.processItem(ctx, item) {
			processed++
		}
	}

	s.setPending(s.frontier.Pending() + s.frontier.InFlight())
	s.progress.Stop()
	s.saveState()

	counters := s.progress.Snapshot()
	duration := s.now().Sub(started)
	s.crawlFinalizer.RecordFinalCrawlStats(metadata.CrawlStats{
		Processed:                 counters.Processed,
		Succeeded:                 counters.Succeeded,
		Failed:                    counters.Failed,
		Filtered:                  counters.Filtered,
		Skipped:                   counters.Skipped,
		CircuitBreakerActivations: counters.CircuitBreakerActivations,
		RetryAttempts:             counters.RetryAttempts,
		Pending:                   counters.Pending,
		Duration:                  duration,
	})

	return CrawlingExecution{
		Counters:    counters,
		Processed:   processed,
		Interrupted: ctx.Err() != nil,
		Duration:    duration,
	}
}

// pendingGauge is implemented by sinks that export the frontier size.
type pendingGauge interface {
	SetPending(n int)
}

func (s *Scheduler) setPending(n int) {
	s.progress.SetPending(n)
	if gauge, ok := s.metadataSink.(pendingGauge); ok {
		gauge.SetPending(n)
	}
}

func (s *Scheduler) saveState() {
	// Each store reports its own write failure; a failed save is retried
	// implicitly at the next finalize.
	_ = s.frontier.Save()
	_ = s.ledger.Save()
	_ = s.progress.Save()
}

// kindHint guesses the item kind from the URL. Classification after the
// fetch has the final say.
func kindHint(u url.URL) frontier.Kind {
	if strings.Contains(u.Path, "/Category:") || strings.Contains(u.Path, "/分类:") || strings.Contains(u.Path, "/分類:") {
		return frontier.KindCategory
	}
	return frontier.KindArticle
}
