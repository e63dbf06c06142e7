package frontier_test

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/rohmanhakim/wiki-crawler/internal/frontier"
	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontier_CategoriesBeforeArticles_FIFOWithin(t *testing.T) {
	fx := newFixture(t)
	f := fx.frontier

	require.True(t, f.Add(wiki("Article_1"), frontier.KindArticle, 0))
	require.True(t, f.Add(wiki("Category:B"), frontier.KindCategory, 1))
	require.True(t, f.Add(wiki("Article_2"), frontier.KindArticle, 0))
	require.True(t, f.Add(wiki("Category:A"), frontier.KindCategory, 1))

	assert.Equal(t, []string{
		wiki("Category:B"),
		wiki("Category:A"),
		wiki("Article_1"),
		wiki("Article_2"),
	}, drain(f))
}

func TestFrontier_NextCarriesItemFields(t *testing.T) {
	fx := newFixture(t)
	fx.frontier.Add(wiki("Category:Singapore"), frontier.KindCategory, 2)

	item, ok := fx.frontier.Next()
	require.True(t, ok)
	assert.Equal(t, wiki("Category:Singapore"), item.URL)
	assert.Equal(t, frontier.KindCategory, item.Kind)
	assert.Equal(t, frontier.PriorityCategory, item.Priority)
	assert.Equal(t, 2, item.Depth)
	assert.False(t, item.DiscoveredAt.IsZero())
}

func TestFrontier_AddIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	f := fx.frontier

	assert.True(t, f.Add(wiki("Singapore"), frontier.KindArticle, 0))
	assert.False(t, f.Add(wiki("Singapore"), frontier.KindArticle, 0), "already queued")
	assert.False(t, f.Add("HTTPS://EN.WIKIPEDIA.ORG/wiki/Singapore#History", frontier.KindArticle, 0), "same canonical url")
	assert.Equal(t, 1, f.Pending())

	item, ok := f.Next()
	require.True(t, ok)
	assert.False(t, f.Add(item.URL, frontier.KindArticle, 0), "in flight")

	f.MarkDone(item.URL)
	assert.False(t, f.Add(item.URL, frontier.KindArticle, 0), "done in ledger")
	assert.True(t, fx.ledger.IsDone(item.URL))
	assert.True(t, f.IsEmpty())
}

func TestFrontier_AddRejectsEmpty(t *testing.T) {
	fx := newFixture(t)
	assert.False(t, fx.frontier.Add("   ", frontier.KindArticle, 0))
	assert.Equal(t, 0, fx.frontier.Pending())
}

func TestFrontier_NextOnEmpty(t *testing.T) {
	fx := newFixture(t)
	_, ok := fx.frontier.Next()
	assert.False(t, ok)
}

func TestFrontier_InFlightTracking(t *testing.T) {
	fx := newFixture(t)
	f := fx.frontier
	f.Add(wiki("A"), frontier.KindArticle, 0)
	f.Add(wiki("B"), frontier.KindArticle, 0)

	item, _ := f.Next()
	assert.Equal(t, 1, f.InFlight())
	assert.Equal(t, 1, f.Pending())
	assert.False(t, f.IsEmpty())

	f.MarkDone(item.URL)
	assert.Equal(t, 0, f.InFlight())
}

func TestFrontier_SaveLoad_RoundTrip(t *testing.T) {
	fx := newFixture(t)
	f := fx.frontier
	f.Add(wiki("Category:Singapore"), frontier.KindCategory, 0)
	f.Add(wiki("Article_1"), frontier.KindArticle, 0)
	f.Add(wiki("Category:Culture"), frontier.KindCategory, 1)

	first, _ := f.Next()
	require.Nil(t, f.Save())
	require.Nil(t, fx.ledger.Save())

	restarted := fx.reopen()
	require.True(t, restarted.ledger.Load())
	require.True(t, restarted.frontier.Load())

	assert.Equal(t, 3, restarted.frontier.Pending(), "in-flight item comes back as pending")
	assert.Equal(t, []string{first.URL, wiki("Category:Culture"), wiki("Article_1")}, drain(restarted.frontier))
	assert.Empty(t, restarted.sink.Errors())
}

func TestFrontier_LoadSkipsDoneURLs(t *testing.T) {
	fx := newFixture(t)
	fx.frontier.Add(wiki("A"), frontier.KindArticle, 0)
	fx.frontier.Add(wiki("B"), frontier.KindArticle, 0)
	require.Nil(t, fx.frontier.Save())

	fx.ledger.MarkDone(wiki("A"))
	require.Nil(t, fx.ledger.Save())

	restarted := fx.reopen()
	restarted.ledger.Load()
	restarted.frontier.Load()

	assert.Equal(t, []string{wiki("B")}, drain(restarted.frontier))
}

func TestFrontier_LoadMissingFileIsFreshStart(t *testing.T) {
	fx := newFixture(t)

	assert.False(t, fx.frontier.Load())
	assert.Equal(t, 0, fx.frontier.Pending())
	assert.Empty(t, fx.sink.Errors())
}

func TestFrontier_LoadMalformedDegradesToEmpty(t *testing.T) {
	fx := newFixture(t)
	path := filepath.Join(fx.dir, "state", "queue_state.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{"queue_items": [`), 0644))

	assert.NotPanics(t, func() {
		assert.False(t, fx.frontier.Load())
	})
	assert.Equal(t, 0, fx.frontier.Pending())

	errs := fx.sink.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "Frontier.Load", errs[0].action)
	assert.Equal(t, metadata.CauseInvariantViolation, errs[0].cause)

	assert.True(t, fx.frontier.Add(wiki("A"), frontier.KindArticle, 0), "usable after degraded load")
}

func TestFrontier_SaveFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "state")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0644))

	sink := &errorSink{}
	ledger := frontier.NewLedger(filepath.Join(blocker, "dedup.json"), sink)
	f := frontier.NewFrontier(ledger, filepath.Join(blocker, "queue.json"), sink)
	f.Add(wiki("A"), frontier.KindArticle, 0)

	err := f.Save()
	require.NotNil(t, err)
	var stateErr *frontier.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, frontier.ErrCauseStateWrite, stateErr.Cause)
	require.Len(t, sink.Errors(), 1)
	assert.Equal(t, metadata.CauseStorageFailure, sink.Errors()[0].cause)
}

func TestFrontier_Requeue(t *testing.T) {
	fx := newFixture(t)
	f := fx.frontier
	fx.ledger.MarkDone(wiki("Failed_page"))

	assert.False(t, f.Add(wiki("Failed_page"), frontier.KindArticle, 0))
	assert.True(t, f.Requeue(wiki("Failed_page"), frontier.KindArticle, 0))
	assert.False(t, fx.ledger.IsDone(wiki("Failed_page")))
	assert.False(t, f.Requeue(wiki("Failed_page"), frontier.KindArticle, 0), "already queued")

	assert.Equal(t, []string{wiki("Failed_page")}, drain(f))
}

func TestFrontier_ConcurrentNextNeverDuplicates(t *testing.T) {
	fx := newFixture(t)
	f := fx.frontier
	const n = 200
	for i := 0; i < n; i++ {
		f.Add(wiki("Page_"+strconv.Itoa(i)), frontier.KindArticle, 0)
	}

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				item, ok := f.Next()
				if !ok {
					return
				}
				mu.Lock()
				seen[item.URL]++
				mu.Unlock()
				f.MarkDone(item.URL)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	for url, count := range seen {
		assert.Equal(t, 1, count, url)
	}
}
