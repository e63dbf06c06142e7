package frontier_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/frontier"
	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
)

// errorSink keeps RecordError calls and ignores everything else.
type errorSink struct {
	metadata.NoopSink
	mu     sync.Mutex
	errors []recordedError
}

type recordedError struct {
	action string
	cause  metadata.ErrorCause
}

func (s *errorSink) RecordError(_ time.Time, _ string, action string, cause metadata.ErrorCause, _ string, _ []metadata.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, recordedError{action: action, cause: cause})
}

func (s *errorSink) Errors() []recordedError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedError(nil), s.errors...)
}

type fixture struct {
	dir      string
	ledger   *frontier.Ledger
	frontier *frontier.Frontier
	sink     *errorSink
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	sink := &errorSink{}
	ledger := frontier.NewLedger(filepath.Join(dir, "state", "deduplication_state.json"), sink)
	f := frontier.NewFrontier(ledger, filepath.Join(dir, "state", "queue_state.json"), sink)
	return fixture{dir: dir, ledger: ledger, frontier: f, sink: sink}
}

// reopen builds fresh instances over the same state files, as a restart would.
func (fx fixture) reopen() fixture {
	sink := &errorSink{}
	ledger := frontier.NewLedger(filepath.Join(fx.dir, "state", "deduplication_state.json"), sink)
	f := frontier.NewFrontier(ledger, filepath.Join(fx.dir, "state", "queue_state.json"), sink)
	return fixture{dir: fx.dir, ledger: ledger, frontier: f, sink: sink}
}

func wiki(title string) string {
	return "https://en.wikipedia.org/wiki/" + title
}

func drain(f *frontier.Frontier) []string {
	var urls []string
	for {
		item, ok := f.Next()
		if !ok {
			return urls
		}
		urls = append(urls, item.URL)
		f.MarkDone(item.URL)
	}
}
