package frontier

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
	"github.com/rohmanhakim/wiki-crawler/pkg/fileutil"
	"github.com/rohmanhakim/wiki-crawler/pkg/urlutil"
)

/*
Frontier Responsibilities
- Hold URLs waiting to be processed, keyed by canonical URL
- Pop in a deterministic order: lower priority value first, FIFO within
- Never hold a URL twice, and never hold one the ledger marks done
- Track the single in-flight claim so a crash re-queues it on resume
- Knows nothing about:
	- fetching
	- extraction
	- storage

It is a data structure + policy module, not a pipeline executor.
*/
type Frontier struct {
	mu        sync.Mutex
	queues    map[int]*FIFOQueue[WorkItem]
	queued    Set[string]
	inFlight  map[string]WorkItem
	ledger    *Ledger
	statePath string
	sink      metadata.MetadataSink
	now       func() time.Time
}

func NewFrontier(ledger *Ledger, statePath string, sink metadata.MetadataSink) *Frontier {
	if sink == nil {
		sink = &metadata.NoopSink{}
	}
	return &Frontier{
		queues:    make(map[int]*FIFOQueue[WorkItem]),
		queued:    NewSet[string](),
		inFlight:  make(map[string]WorkItem),
		ledger:    ledger,
		statePath: statePath,
		sink:      sink,
		now:       time.Now,
	}
}

// Add admits url unless it is already done, queued, or in flight.
// It reports whether the URL was admitted.
func (f *Frontier) Add(url string, kind Kind, depth int) bool {
	key := canonicalKey(url)
	if key == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ledger.IsDone(key) || f.queued.Contains(key) {
		return false
	}
	if _, claimed := f.inFlight[key]; claimed {
		return false
	}

	f.enqueueLocked(WorkItem{
		URL:          key,
		Kind:         kind,
		Priority:     PriorityFor(kind),
		Depth:        depth,
		DiscoveredAt: f.now(),
	})
	return true
}

// Requeue seeds url even if the ledger already marks it done, by first
// removing it from the ledger. Used by the recovery tool.
func (f *Frontier) Requeue(url string, kind Kind, depth int) bool {
	key := canonicalKey(url)
	if key == "" {
		return false
	}
	f.ledger.Forget(key)
	return f.Add(key, kind, depth)
}

// Next claims the next item. The claim and the pop happen under one lock,
// so a URL can never be handed out twice.
func (f *Frontier) Next() (WorkItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, priority := range f.prioritiesLocked() {
		item, ok := f.queues[priority].Dequeue()
		if !ok {
			continue
		}
		f.queued.Remove(item.URL)
		f.inFlight[item.URL] = item
		return item, true
	}
	return WorkItem{}, false
}

// MarkDone records url in the ledger and drops its in-flight claim.
func (f *Frontier) MarkDone(url string) {
	key := canonicalKey(url)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.ledger.MarkDone(key)
	delete(f.inFlight, key)
}

// Pending counts queued items, excluding the in-flight one.
func (f *Frontier) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queued.Size()
}

func (f *Frontier) InFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inFlight)
}

func (f *Frontier) IsEmpty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queued.Size() == 0 && len(f.inFlight) == 0
}

// Snapshot lists in-flight items followed by queued items in pop order.
func (f *Frontier) Snapshot() []WorkItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Frontier) Save() failure.ClassifiedError {
	state := frontierState{
		Items:   f.Snapshot(),
		SavedAt: f.now(),
	}
	if err := fileutil.WriteJSONAtomic(f.statePath, state); err != nil {
		stateErr := &StateError{Message: err.Error(), Retryable: true, Cause: ErrCauseStateWrite}
		f.sink.RecordError(
			f.now(),
			"frontier",
			"Frontier.Save",
			mapStateErrorToMetadataCause(stateErr),
			stateErr.Error(),
			[]metadata.Attribute{metadata.NewAttr(metadata.AttrStateFile, f.statePath)},
		)
		return stateErr
	}
	return nil
}

// Load restores the persisted queue, dropping entries the ledger already
// marks done. Load the ledger first. A missing file is a fresh start; a
// malformed one is reported and degrades to an empty frontier.
func (f *Frontier) Load() bool {
	var state frontierState
	err := fileutil.ReadJSON(f.statePath, &state)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.queues = make(map[int]*FIFOQueue[WorkItem])
	f.queued.Clear()
	clear(f.inFlight)

	if err != nil {
		if !fileutil.IsNotExist(err) {
			f.sink.RecordError(
				f.now(),
				"frontier",
				"Frontier.Load",
				metadata.CauseInvariantViolation,
				err.Error(),
				[]metadata.Attribute{metadata.NewAttr(metadata.AttrStateFile, f.statePath)},
			)
		}
		return false
	}

	for _, item := range state.Items {
		key := canonicalKey(item.URL)
		if key == "" || f.ledger.IsDone(key) || f.queued.Contains(key) {
			continue
		}
		item.URL = key
		if item.Kind != KindCategory && item.Kind != KindArticle {
			item.Kind = KindArticle
		}
		item.Priority = PriorityFor(item.Kind)
		f.enqueueLocked(item)
	}
	return true
}

func (f *Frontier) enqueueLocked(item WorkItem) {
	q, ok := f.queues[item.Priority]
	if !ok {
		q = NewFIFOQueue[WorkItem]()
		f.queues[item.Priority] = q
	}
	q.Enqueue(item)
	f.queued.Add(item.URL)
}

func (f *Frontier) prioritiesLocked() []int {
	priorities := make([]int, 0, len(f.queues))
	for p := range f.queues {
		priorities = append(priorities, p)
	}
	slices.Sort(priorities)
	return priorities
}

func (f *Frontier) snapshotLocked() []WorkItem {
	items := make([]WorkItem, 0, len(f.inFlight)+f.queued.Size())

	claimed := make([]WorkItem, 0, len(f.inFlight))
	for _, item := range f.inFlight {
		claimed = append(claimed, item)
	}
	slices.SortFunc(claimed, func(a, b WorkItem) int {
		return strings.Compare(a.URL, b.URL)
	})
	items = append(items, claimed...)

	for _, priority := range f.prioritiesLocked() {
		items = append(items, f.queues[priority].Items()...)
	}
	return items
}

// canonicalKey is the identity used by the frontier and the ledger.
// Unparseable input is kept verbatim so it can still be deduplicated.
func canonicalKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	canonical, err := urlutil.CanonicalString(raw)
	if err != nil {
		return raw
	}
	return canonical
}
