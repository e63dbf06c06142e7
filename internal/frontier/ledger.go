package frontier

import (
	"sync"
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
	"github.com/rohmanhakim/wiki-crawler/pkg/fileutil"
)

/*
Ledger is the deduplication record of every URL that reached a terminal
outcome. It is what breaks cycles in the category graph: a URL marked done
is never admitted to the frontier again.

Membership only grows during a crawl. Forget exists for the recovery tool,
which deliberately re-opens failed URLs.
*/
type Ledger struct {
	mu        sync.RWMutex
	done      Set[string]
	statePath string
	sink      metadata.MetadataSink
}

func NewLedger(statePath string, sink metadata.MetadataSink) *Ledger {
	if sink == nil {
		sink = &metadata.NoopSink{}
	}
	return &Ledger{
		done:      NewSet[string](),
		statePath: statePath,
		sink:      sink,
	}
}

func (l *Ledger) IsDone(url string) bool {
	key := canonicalKey(url)
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.done.Contains(key)
}

// MarkDone records url and reports whether it was new.
func (l *Ledger) MarkDone(url string) bool {
	key := canonicalKey(url)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done.Contains(key) {
		return false
	}
	l.done.Add(key)
	return true
}

// Forget removes url so it can be crawled again. Recovery only.
func (l *Ledger) Forget(url string) {
	key := canonicalKey(url)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.done.Remove(key)
}

func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.done.Size()
}

// URLs returns the done set in sorted order.
func (l *Ledger) URLs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.done.Sorted()
}

func (l *Ledger) Save() failure.ClassifiedError {
	state := ledgerState{
		ProcessedURLs: l.URLs(),
		SavedAt:       time.Now(),
	}
	if err := fileutil.WriteJSONAtomic(l.statePath, state); err != nil {
		stateErr := &StateError{Message: err.Error(), Retryable: true, Cause: ErrCauseStateWrite}
		l.sink.RecordError(
			time.Now(),
			"frontier",
			"Ledger.Save",
			mapStateErrorToMetadataCause(stateErr),
			stateErr.Error(),
			[]metadata.Attribute{metadata.NewAttr(metadata.AttrStateFile, l.statePath)},
		)
		return stateErr
	}
	return nil
}

// Load replaces the in-memory set with the persisted one. A missing file is
// a fresh start; an unreadable or malformed one is reported to the sink and
// treated as empty. It reports whether prior state was restored.
func (l *Ledger) Load() bool {
	var state ledgerState
	err := fileutil.ReadJSON(l.statePath, &state)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.done.Clear()

	if err != nil {
		if !fileutil.IsNotExist(err) {
			l.sink.RecordError(
				time.Now(),
				"frontier",
				"Ledger.Load",
				metadata.CauseInvariantViolation,
				err.Error(),
				[]metadata.Attribute{metadata.NewAttr(metadata.AttrStateFile, l.statePath)},
			)
		}
		return false
	}

	for _, u := range state.ProcessedURLs {
		l.done.Add(canonicalKey(u))
	}
	return true
}
