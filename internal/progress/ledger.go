package progress

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
	"github.com/rohmanhakim/wiki-crawler/pkg/fileutil"
)

const maxRecentURLs = 100

// Ledger keeps the crawl counters and per-URL status. It is persisted next
// to the frontier so a resumed crawl continues its numbers.
type Ledger struct {
	mu            sync.Mutex
	statePath     string
	sink          metadata.MetadataSink
	now           func() time.Time
	sessionID     string
	startURL      string
	running       bool
	startedAt     time.Time
	lastActivity  time.Time
	counters      Counters
	languageStats map[string]int
	errorSummary  map[string]int
	recent        []string
	urlStatus     map[string]URLRecord
}

func NewLedger(statePath string, sink metadata.MetadataSink) *Ledger {
	if sink == nil {
		sink = &metadata.NoopSink{}
	}
	return &Ledger{
		statePath:     statePath,
		sink:          sink,
		now:           time.Now,
		languageStats: make(map[string]int),
		errorSummary:  make(map[string]int),
		urlStatus:     make(map[string]URLRecord),
	}
}

// Start opens a crawl session. A resumed ledger keeps its counters and
// original start time but gets a new session id.
func (l *Ledger) Start(startURL string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sessionID = uuid.NewString()
	l.running = true
	if l.startURL == "" {
		l.startURL = startURL
	}
	if l.startedAt.IsZero() {
		l.startedAt = now
	}
	l.lastActivity = now
	l.appendRecentLocked(fmt.Sprintf("%s session %s started from %s", now.Format(time.TimeOnly), l.sessionID, startURL))
	return l.sessionID
}

func (l *Ledger) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.running = false
	l.lastActivity = now
	l.appendRecentLocked(fmt.Sprintf("%s session %s stopped", now.Format(time.TimeOnly), l.sessionID))
}

// Record applies a terminal outcome. Recording the same URL again moves it
// between buckets instead of counting it twice.
func (l *Ledger) Record(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if prev, seen := l.urlStatus[ev.URL]; seen {
		*l.bucketLocked(prev.Status)--
		l.forgetOutcomeLocked(prev)
	} else {
		l.counters.Processed++
	}
	*l.bucketLocked(ev.Outcome)++

	if ev.CircuitBreaker {
		l.counters.CircuitBreakerActivations++
	}
	if ev.Language != "" && (ev.Outcome == OutcomeSucceeded || ev.Outcome == OutcomeFiltered) {
		l.languageStats[ev.Language]++
	}
	if ev.Outcome == OutcomeFailed || ev.Outcome == OutcomeSkipped {
		l.errorSummary[categorizeReason(ev.Reason)]++
	}

	l.urlStatus[ev.URL] = URLRecord{
		Status:    ev.Outcome,
		Kind:      ev.Kind,
		Depth:     ev.Depth,
		Reason:    ev.Reason,
		Language:  ev.Language,
		UpdatedAt: now,
	}
	l.lastActivity = now

	line := fmt.Sprintf("%s %s", now.Format(time.TimeOnly), strings.ToUpper(string(ev.Outcome)))
	if ev.Language != "" {
		line += fmt.Sprintf(" (%s)", ev.Language)
	}
	if ev.Reason != "" {
		line += " - " + truncate(ev.Reason, 50)
	}
	l.appendRecentLocked(line + ": " + ev.URL)
}

// RecordRetries adds n fetch retries to the counters.
func (l *Ledger) RecordRetries(n int) {
	if n <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counters.RetryAttempts += n
}

func (l *Ledger) SetPending(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counters.Pending = n
}

func (l *Ledger) Snapshot() Counters {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counters
}

func (l *Ledger) SessionID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionID
}

func (l *Ledger) Report() Report {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Report{
		SessionID:     l.sessionID,
		StartURL:      l.startURL,
		Running:       l.running,
		StartedAt:     l.startedAt,
		LastActivity:  l.lastActivity,
		Counters:      l.counters,
		LanguageStats: maps.Clone(l.languageStats),
		ErrorSummary:  maps.Clone(l.errorSummary),
		RecentURLs:    slices.Clone(l.recent),
	}
}

func (l *Ledger) URLStatus(url string) (URLRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.urlStatus[url]
	return rec, ok
}

// URLsWithStatus lists URLs whose last outcome is one of outcomes, sorted.
func (l *Ledger) URLsWithStatus(outcomes ...Outcome) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var urls []string
	for url, rec := range l.urlStatus {
		if slices.Contains(outcomes, rec.Status) {
			urls = append(urls, url)
		}
	}
	slices.Sort(urls)
	return urls
}

func (l *Ledger) Save() failure.ClassifiedError {
	l.mu.Lock()
	state := ledgerState{
		Version:       stateVersion,
		SessionID:     l.sessionID,
		StartURL:      l.startURL,
		Running:       l.running,
		StartedAt:     l.startedAt,
		LastActivity:  l.lastActivity,
		Counters:      l.counters,
		LanguageStats: maps.Clone(l.languageStats),
		ErrorSummary:  maps.Clone(l.errorSummary),
		RecentURLs:    slices.Clone(l.recent),
		URLStatus:     maps.Clone(l.urlStatus),
		SavedAt:       l.now(),
	}
	l.mu.Unlock()

	if err := fileutil.WriteJSONAtomic(l.statePath, state); err != nil {
		progressErr := &ProgressError{Message: err.Error(), Retryable: true, Cause: ErrCauseStateWrite}
		l.sink.RecordError(
			l.now(),
			"progress",
			"Ledger.Save",
			metadata.CauseStorageFailure,
			progressErr.Error(),
			[]metadata.Attribute{metadata.NewAttr(metadata.AttrStateFile, l.statePath)},
		)
		return progressErr
	}
	return nil
}

// Load restores persisted progress. A missing file is a fresh start; an
// unreadable one is reported and leaves the ledger empty.
func (l *Ledger) Load() bool {
	var state ledgerState
	err := fileutil.ReadJSON(l.statePath, &state)
	if err != nil {
		if !fileutil.IsNotExist(err) {
			l.sink.RecordError(
				l.now(),
				"progress",
				"Ledger.Load",
				metadata.CauseInvariantViolation,
				err.Error(),
				[]metadata.Attribute{metadata.NewAttr(metadata.AttrStateFile, l.statePath)},
			)
		}
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sessionID = state.SessionID
	l.startURL = state.StartURL
	l.running = false
	l.startedAt = state.StartedAt
	l.lastActivity = state.LastActivity
	l.counters = state.Counters
	l.languageStats = nonNilMap(state.LanguageStats)
	l.errorSummary = nonNilMap(state.ErrorSummary)
	l.recent = state.RecentURLs
	l.urlStatus = make(map[string]URLRecord, len(state.URLStatus))
	maps.Copy(l.urlStatus, state.URLStatus)
	return true
}

// Summary is a one-line human readable progress report.
func (l *Ledger) Summary() string {
	c := l.Snapshot()
	return fmt.Sprintf(
		"processed=%d succeeded=%d failed=%d filtered=%d skipped=%d pending=%d retries=%d circuit_breaker=%d success_rate=%.1f%%",
		c.Processed, c.Succeeded, c.Failed, c.Filtered, c.Skipped, c.Pending,
		c.RetryAttempts, c.CircuitBreakerActivations, c.SuccessRate(),
	)
}

func (l *Ledger) bucketLocked(outcome Outcome) *int {
	switch outcome {
	case OutcomeSucceeded:
		return &l.counters.Succeeded
	case OutcomeFiltered:
		return &l.counters.Filtered
	case OutcomeSkipped:
		return &l.counters.Skipped
	default:
		return &l.counters.Failed
	}
}

func (l *Ledger) appendRecentLocked(line string) {
	l.recent = append(l.recent, line)
	if len(l.recent) > maxRecentURLs {
		l.recent = slices.Clone(l.recent[len(l.recent)-maxRecentURLs:])
	}
}

// forgetOutcomeLocked withdraws the language and error summary entries a
// previous outcome contributed, so the summaries track the buckets.
func (l *Ledger) forgetOutcomeLocked(prev URLRecord) {
	switch prev.Status {
	case OutcomeSucceeded, OutcomeFiltered:
		if prev.Language != "" {
			decrementKey(l.languageStats, prev.Language)
		}
	case OutcomeFailed, OutcomeSkipped:
		decrementKey(l.errorSummary, categorizeReason(prev.Reason))
	}
}

func decrementKey(m map[string]int, key string) {
	if m[key] <= 1 {
		delete(m, key)
		return
	}
	m[key]--
}

// categorizeReason groups failure reasons for the error summary.
func categorizeReason(reason string) string {
	r := strings.ToLower(reason)
	switch {
	case strings.Contains(r, "user skipped"):
		return "user_skipped"
	case strings.Contains(r, "connectivity") || strings.Contains(r, "circuit breaker"):
		return "connectivity_lost"
	case strings.Contains(r, "timeout") || strings.Contains(r, "connection"):
		return "network_error"
	case strings.Contains(r, "not found") || strings.Contains(r, "404") || strings.Contains(r, "410"):
		return "page_not_found"
	case strings.Contains(r, "forbidden") || strings.Contains(r, "403") || strings.Contains(r, "451"):
		return "access_denied"
	case strings.Contains(r, "content") || strings.Contains(r, "unknown page"):
		return "content_processing_error"
	case strings.Contains(r, "storage") || strings.Contains(r, "save"):
		return "storage_error"
	default:
		return "other_error"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func nonNilMap(m map[string]int) map[string]int {
	if m == nil {
		return make(map[string]int)
	}
	return m
}
