// Package search drives the interactive catalog search flow: debounced
// queries against the external book API, annotated with library membership
// so already-owned books render as such.
package search

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/readshelfapp/readshelf-server/internal/dedup"
	"github.com/readshelfapp/readshelf-server/internal/domain"
	"github.com/readshelfapp/readshelf-server/internal/errors"
	"github.com/readshelfapp/readshelf-server/internal/normalize"
)

const (
	// minQueryLength is the shortest query that triggers a fetch. Anything
	// shorter clears the result list and cancels in-flight work.
	minQueryLength = 2

	// defaultDebounce is the pause after the last keystroke before a fetch
	// fires.
	defaultDebounce = 300 * time.Millisecond
)

// Searcher fetches ranked book candidates for a free-text query.
// *googlebooks.Client satisfies this.
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.SearchCandidate, error)
}

// KeySource lists the canonical keys of every book currently in the catalog.
type KeySource interface {
	CanonicalKeys(ctx context.Context) ([]normalize.Key, error)
}

// Result is one search candidate annotated with its canonical key and
// whether the catalog already holds a matching book.
type Result struct {
	domain.SearchCandidate

	Key       normalize.Key
	InLibrary bool
}

// Snapshot is the renderable search state at a point in time.
type Snapshot struct {
	Query    string
	Results  []Result
	Fetching bool
	Err      error
}

// Controller owns the search lifecycle. Each accepted query gets a
// monotonically increasing token; a completed fetch publishes its results
// only if its token is still current, so a slow response for an old query
// can never clobber a newer one.
type Controller struct {
	searcher Searcher
	keys     KeySource
	logger   *slog.Logger
	debounce time.Duration
	onUpdate func(Snapshot)

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
	state Snapshot
	index *dedup.Index
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce overrides the keystroke settle delay. Tests shrink it.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithOnUpdate registers a callback invoked after every published state
// change. The callback runs outside the controller's lock.
func WithOnUpdate(f func(Snapshot)) Option {
	return func(c *Controller) { c.onUpdate = f }
}

// NewController creates a search controller.
func NewController(searcher Searcher, keys KeySource, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Controller{
		searcher: searcher,
		keys:     keys,
		logger:   logger,
		debounce: defaultDebounce,
		index:    dedup.New(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetQuery records a keystroke. Queries shorter than two runes clear the
// results immediately and invalidate any pending or in-flight fetch. Longer
// queries restart the debounce timer; only the query as it stands when the
// timer fires is fetched.
func (c *Controller) SetQuery(ctx context.Context, query string) {
	c.mu.Lock()

	// Every keystroke advances the token, retiring whatever was pending.
	c.seq++
	token := c.seq
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	if utf8.RuneCountInString(query) < minQueryLength {
		c.state = Snapshot{Query: query}
		c.publishLocked()
		return
	}

	c.state.Query = query
	c.state.Fetching = true
	c.state.Err = nil
	c.timer = time.AfterFunc(c.debounce, func() {
		c.fetch(ctx, query, token)
	})
	c.publishLocked()
}

// Snapshot returns a copy of the current search state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.state
	snap.Results = append([]Result(nil), c.state.Results...)
	return snap
}

// MarkAdded flips the membership flag for matching results and records the
// key in the dedup index, so an add during an active search session is
// visible without a re-fetch.
func (c *Controller) MarkAdded(key normalize.Key) {
	c.mu.Lock()
	c.index.Add(key)
	for i := range c.state.Results {
		if c.state.Results[i].Key == key {
			c.state.Results[i].InLibrary = true
		}
	}
	c.publishLocked()
}

// Close cancels any pending debounce timer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// fetch runs the two-source pipeline for one accepted query: candidates
// from the external API, membership keys from the catalog, then a single
// published snapshot. Staleness is checked once at publish time.
func (c *Controller) fetch(ctx context.Context, query string, token uint64) {
	candidates, searchErr := c.searcher.Search(ctx, query)

	var index *dedup.Index
	if searchErr == nil {
		keys, err := c.keys.CanonicalKeys(ctx)
		if err != nil {
			searchErr = err
		} else {
			index = dedup.New(keys)
		}
	}

	c.mu.Lock()
	if token != c.seq {
		c.mu.Unlock()
		c.logger.Debug("discarding stale search completion",
			"query", query,
		)
		return
	}

	if searchErr != nil {
		// Keep whatever was on screen; only the error state changes.
		c.state.Fetching = false
		c.state.Err = errors.RemoteFetch("search failed", searchErr)
		c.logger.Warn("search fetch failed",
			"query", query,
			"error", searchErr,
		)
		c.publishLocked()
		return
	}

	results := make([]Result, 0, len(candidates))
	for _, cand := range candidates {
		key := normalize.NewKey(cand.Title, cand.PrimaryAuthor())
		results = append(results, Result{
			SearchCandidate: cand,
			Key:             key,
			InLibrary:       index.Contains(key),
		})
	}

	c.index = index
	c.state.Results = results
	c.state.Fetching = false
	c.state.Err = nil
	c.publishLocked()
}

// publishLocked releases the lock and notifies the update callback with a
// copy of the state. Callers must hold c.mu; it is released on return.
func (c *Controller) publishLocked() {
	snap := c.state
	snap.Results = append([]Result(nil), c.state.Results...)
	onUpdate := c.onUpdate
	c.mu.Unlock()

	if onUpdate != nil {
		onUpdate(snap)
	}
}
