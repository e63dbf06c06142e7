package scheduler_test

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/wiki-crawler/internal/content"
	"github.com/rohmanhakim/wiki-crawler/internal/decision"
	"github.com/rohmanhakim/wiki-crawler/internal/extractor"
	"github.com/rohmanhakim/wiki-crawler/internal/fetcher"
	"github.com/rohmanhakim/wiki-crawler/internal/frontier"
	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/internal/progress"
	"github.com/rohmanhakim/wiki-crawler/internal/scheduler"
	"github.com/rohmanhakim/wiki-crawler/internal/storage"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
	"github.com/stretchr/testify/mock"
)

const (
	rootCategory = "https://en.wikipedia.org/wiki/Category:Physics"
	subCategory  = "https://en.wikipedia.org/wiki/Category:Mechanics"
	deepCategory = "https://en.wikipedia.org/wiki/Category:Kinematics"
	articleA     = "https://en.wikipedia.org/wiki/Force"
	articleB     = "https://en.wikipedia.org/wiki/Mass"
)

var pageBody = []byte("<html><body><p>page</p></body></html>")

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return *u
}

// fetcherMock matches calls on the URL string so expectations stay readable.
type fetcherMock struct {
	mock.Mock
}

func (f *fetcherMock) Fetch(ctx context.Context, fetchUrl url.URL, crawlDepth int) fetcher.FetchOutcome {
	args := f.Called(ctx, fetchUrl.String(), crawlDepth)
	return args.Get(0).(fetcher.FetchOutcome)
}

func (f *fetcherMock) onSuccess(pageURL string) *mock.Call {
	return f.On("Fetch", mock.Anything, pageURL, mock.Anything).
		Return(fetcher.NewSuccess(pageBody, 200, "text/html; charset=UTF-8").WithAttempts(1))
}

type processorMock struct {
	mock.Mock
}

func (p *processorMock) ClassifyPage(pageURL url.URL, _ []byte) extractor.PageKind {
	args := p.Called(pageURL.String())
	return args.Get(0).(extractor.PageKind)
}

func (p *processorMock) ExtractCategory(pageURL url.URL, _ []byte) (content.CategoryContent, failure.ClassifiedError) {
	args := p.Called(pageURL.String())
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return args.Get(0).(content.CategoryContent), err
}

func (p *processorMock) ExtractArticle(pageURL url.URL, _ []byte) (content.ArticleContent, failure.ClassifiedError) {
	args := p.Called(pageURL.String())
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return args.Get(0).(content.ArticleContent), err
}

func (p *processorMock) onCategory(pageURL, title string, subcategories, articles []string) {
	p.On("ClassifyPage", pageURL).Return(extractor.PageCategory)
	p.On("ExtractCategory", pageURL).Return(content.CategoryContent{
		Title:         title,
		Subcategories: subcategories,
		Articles:      articles,
	}, nil)
}

func (p *processorMock) onArticle(pageURL, title, lang string, supported bool) {
	p.On("ClassifyPage", pageURL).Return(extractor.PageArticle)
	p.On("ExtractArticle", pageURL).Return(content.ArticleContent{
		Title:     title,
		Markdown:  "# " + title + "\n\nBody.\n",
		Language:  lang,
		Supported: supported,
	}, nil)
}

type storageMock struct {
	mock.Mock
}

func (s *storageMock) SaveCategory(record storage.CategoryRecord) (storage.WriteResult, failure.ClassifiedError) {
	args := s.Called(record)
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return args.Get(0).(storage.WriteResult), err
}

func (s *storageMock) SaveArticle(record storage.ArticleRecord) (storage.WriteResult, failure.ClassifiedError) {
	args := s.Called(record)
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return args.Get(0).(storage.WriteResult), err
}

// finalizerMock captures the final crawl statistics.
type finalizerMock struct {
	stats *metadata.CrawlStats
}

func (f *finalizerMock) RecordFinalCrawlStats(stats metadata.CrawlStats) {
	f.stats = &stats
}

type fixture struct {
	dir       string
	fetcher   *fetcherMock
	processor *processorMock
	storage   storage.Sink
	decider   decision.Provider
	finalizer *finalizerMock
	param     scheduler.Param
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	return &fixture{
		dir:       dir,
		fetcher:   new(fetcherMock),
		processor: new(processorMock),
		storage:   storage.NewLocalSink(&metadata.NoopSink{}, filepath.Join(dir, "output"), 200),
		decider:   decision.Fixed{Answer: decision.Skip},
		finalizer: &finalizerMock{},
		param:     scheduler.Param{MaxDepth: 2, MaxUserCycles: 3},
	}
}

func (f *fixture) queuePath() string    { return filepath.Join(f.dir, "state", "queue_state.json") }
func (f *fixture) ledgerPath() string   { return filepath.Join(f.dir, "state", "processed_urls.json") }
func (f *fixture) progressPath() string { return filepath.Join(f.dir, "state", "progress.json") }
func (f *fixture) outputDir() string    { return filepath.Join(f.dir, "output") }

// build creates a scheduler over fresh in-memory stores bound to the
// fixture's state files. Building twice simulates a restart.
func (f *fixture) build() (*scheduler.Scheduler, *frontier.Frontier, *frontier.Ledger, *progress.Ledger) {
	sink := &metadata.NoopSink{}
	ledger := frontier.NewLedger(f.ledgerPath(), sink)
	urlFrontier := frontier.NewFrontier(ledger, f.queuePath(), sink)
	progressLedger := progress.NewLedger(f.progressPath(), sink)
	s := scheduler.NewSchedulerWithDeps(f.param, scheduler.Dependencies{
		MetadataSink:   sink,
		CrawlFinalizer: f.finalizer,
		Frontier:       urlFrontier,
		Ledger:         ledger,
		Progress:       progressLedger,
		Fetcher:        f.fetcher,
		Processor:      f.processor,
		Storage:        f.storage,
		Decider:        f.decider,
	})
	return s, urlFrontier, ledger, progressLedger
}
