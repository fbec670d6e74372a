package search

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readshelfapp/readshelf-server/internal/domain"
	"github.com/readshelfapp/readshelf-server/internal/errors"
	"github.com/readshelfapp/readshelf-server/internal/normalize"
)

type searcherFunc func(ctx context.Context, query string) ([]domain.SearchCandidate, error)

func (f searcherFunc) Search(ctx context.Context, query string) ([]domain.SearchCandidate, error) {
	return f(ctx, query)
}

type keysFunc func(ctx context.Context) ([]normalize.Key, error)

func (f keysFunc) CanonicalKeys(ctx context.Context) ([]normalize.Key, error) {
	return f(ctx)
}

func noKeys() keysFunc {
	return func(context.Context) ([]normalize.Key, error) { return nil, nil }
}

func candidates(titles ...string) []domain.SearchCandidate {
	out := make([]domain.SearchCandidate, len(titles))
	for i, title := range titles {
		out[i] = domain.SearchCandidate{Title: title, Authors: []string{"Frank Herbert"}}
	}
	return out
}

// updates collects published snapshots and lets tests wait for the one that
// satisfies a predicate.
type updates struct {
	mu    sync.Mutex
	snaps []Snapshot
	ch    chan Snapshot
}

func newUpdates() *updates {
	return &updates{ch: make(chan Snapshot, 32)}
}

func (u *updates) record(s Snapshot) {
	u.mu.Lock()
	u.snaps = append(u.snaps, s)
	u.mu.Unlock()
	u.ch <- s
}

func (u *updates) waitFor(t *testing.T, pred func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-u.ch:
			if pred(s) {
				return s
			}
		case <-deadline:
			t.Fatal("no matching snapshot published in time")
		}
	}
}

func settled(s Snapshot) bool { return !s.Fetching }

func TestSetQuery_DebounceCoalescesKeystrokes(t *testing.T) {
	var fetches atomic.Int64
	var lastQuery atomic.Value

	searcher := searcherFunc(func(_ context.Context, query string) ([]domain.SearchCandidate, error) {
		fetches.Add(1)
		lastQuery.Store(query)
		return candidates("Dune"), nil
	})

	u := newUpdates()
	c := NewController(searcher, noKeys(), nil,
		WithDebounce(30*time.Millisecond),
		WithOnUpdate(u.record),
	)
	defer c.Close()

	ctx := context.Background()
	c.SetQuery(ctx, "du")
	c.SetQuery(ctx, "dun")
	c.SetQuery(ctx, "dune")

	snap := u.waitFor(t, settled)

	assert.Equal(t, int64(1), fetches.Load(), "rapid keystrokes must coalesce into one fetch")
	assert.Equal(t, "dune", lastQuery.Load())
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "Dune", snap.Results[0].Title)
	assert.NoError(t, snap.Err)
}

func TestSetQuery_ShortQueryClearsAndCancels(t *testing.T) {
	var fetches atomic.Int64
	searcher := searcherFunc(func(context.Context, string) ([]domain.SearchCandidate, error) {
		fetches.Add(1)
		return candidates("Dune"), nil
	})

	u := newUpdates()
	c := NewController(searcher, noKeys(), nil,
		WithDebounce(20*time.Millisecond),
		WithOnUpdate(u.record),
	)
	defer c.Close()

	ctx := context.Background()
	c.SetQuery(ctx, "dune")
	u.waitFor(t, settled)
	require.Equal(t, int64(1), fetches.Load())

	// Backspacing below the threshold clears results without a fetch.
	c.SetQuery(ctx, "d")
	snap := u.waitFor(t, func(s Snapshot) bool { return s.Query == "d" })
	assert.Empty(t, snap.Results)
	assert.False(t, snap.Fetching)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int64(1), fetches.Load(), "short query must not schedule a fetch")
}

func TestSetQuery_StaleCompletionDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	searcher := searcherFunc(func(_ context.Context, query string) ([]domain.SearchCandidate, error) {
		if query == "old query" {
			once.Do(func() { close(started) })
			<-release
			return candidates("Stale Book"), nil
		}
		return candidates("Fresh Book"), nil
	})

	u := newUpdates()
	c := NewController(searcher, noKeys(), nil,
		WithDebounce(time.Millisecond),
		WithOnUpdate(u.record),
	)
	defer c.Close()

	ctx := context.Background()
	c.SetQuery(ctx, "old query")
	<-started

	// The second query completes while the first is still hanging.
	c.SetQuery(ctx, "fresh")
	fresh := u.waitFor(t, func(s Snapshot) bool {
		return !s.Fetching && len(s.Results) == 1
	})
	assert.Equal(t, "Fresh Book", fresh.Results[0].Title)

	// Let the slow fetch finish; its results must not surface.
	close(release)
	time.Sleep(50 * time.Millisecond)

	snap := c.Snapshot()
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "Fresh Book", snap.Results[0].Title)
}

func TestSetQuery_FetchErrorRetainsResults(t *testing.T) {
	var fail atomic.Bool
	searcher := searcherFunc(func(context.Context, string) ([]domain.SearchCandidate, error) {
		if fail.Load() {
			return nil, stderrors.New("upstream 503")
		}
		return candidates("Dune"), nil
	})

	u := newUpdates()
	c := NewController(searcher, noKeys(), nil,
		WithDebounce(time.Millisecond),
		WithOnUpdate(u.record),
	)
	defer c.Close()

	ctx := context.Background()
	c.SetQuery(ctx, "dune")
	u.waitFor(t, func(s Snapshot) bool { return !s.Fetching && len(s.Results) == 1 })

	fail.Store(true)
	c.SetQuery(ctx, "dune messiah")
	snap := u.waitFor(t, func(s Snapshot) bool { return s.Err != nil })

	assert.True(t, errors.Is(snap.Err, errors.ErrRemoteFetch))
	require.Len(t, snap.Results, 1, "previous results survive a failed fetch")
	assert.Equal(t, "Dune", snap.Results[0].Title)
}

func TestFetch_AnnotatesLibraryMembership(t *testing.T) {
	searcher := searcherFunc(func(context.Context, string) ([]domain.SearchCandidate, error) {
		return candidates("Dune", "Dune Messiah"), nil
	})
	keys := keysFunc(func(context.Context) ([]normalize.Key, error) {
		return []normalize.Key{normalize.NewKey("Dune", "Frank Herbert")}, nil
	})

	u := newUpdates()
	c := NewController(searcher, keys, nil,
		WithDebounce(time.Millisecond),
		WithOnUpdate(u.record),
	)
	defer c.Close()

	c.SetQuery(context.Background(), "dune")
	snap := u.waitFor(t, settled)

	require.Len(t, snap.Results, 2)
	assert.True(t, snap.Results[0].InLibrary)
	assert.False(t, snap.Results[1].InLibrary)
}

func TestMarkAdded_FlipsMembershipWithoutRefetch(t *testing.T) {
	var fetches atomic.Int64
	searcher := searcherFunc(func(context.Context, string) ([]domain.SearchCandidate, error) {
		fetches.Add(1)
		return candidates("Dune", "Dune Messiah"), nil
	})

	u := newUpdates()
	c := NewController(searcher, noKeys(), nil,
		WithDebounce(time.Millisecond),
		WithOnUpdate(u.record),
	)
	defer c.Close()

	c.SetQuery(context.Background(), "dune")
	u.waitFor(t, settled)

	c.MarkAdded(normalize.NewKey("Dune Messiah", "Frank Herbert"))

	snap := c.Snapshot()
	require.Len(t, snap.Results, 2)
	assert.False(t, snap.Results[0].InLibrary)
	assert.True(t, snap.Results[1].InLibrary)
	assert.Equal(t, int64(1), fetches.Load())
}
