// Package optimistic coordinates two-phase local/remote mutations.
//
// Every user-triggered mutation follows the same contract: the local view
// state changes synchronously and renders immediately, then the remote write
// commits in the background. A failed commit rolls the local view back to
// its pre-mutation snapshot and surfaces the error; the revert and the error
// are atomic from the caller's perspective.
//
// Mutations enqueued under the same key are serialized: local applies happen
// in enqueue order, and commits run on a per-key FIFO worker. A mutation
// enqueued while an earlier one is still committing waits only for the
// earlier local apply, never for its remote commit. No ordering is provided
// across different keys.
package optimistic

import (
	"context"
	"log/slog"
	"sync"

	"github.com/readshelfapp/readshelf-server/internal/errors"
)

// Rollback restores local state to its pre-mutation snapshot.
// A nil Rollback means the mutation has nothing to revert.
type Rollback func()

// Mutation is a single two-phase state change.
type Mutation struct {
	// Name identifies the operation in logs and error messages.
	Name string

	// Apply computes the new local view state synchronously and returns the
	// closure that restores the pre-mutation snapshot. It runs in the
	// caller's goroutine, under the coordinator's ordering lock, and must
	// not block or re-enter the coordinator.
	Apply func() Rollback

	// Commit issues the remote write. Insert operations splice the
	// server-assigned record into the local view from inside Commit, so a
	// success needs no further coordination. Commits are not cancellable
	// once issued.
	Commit func(ctx context.Context) error
}

type job struct {
	ctx      context.Context
	mutation Mutation
	rollback Rollback
	done     chan error
}

type queue struct {
	jobs    []job
	running bool
}

// Coordinator serializes optimistic mutations per key.
type Coordinator struct {
	logger *slog.Logger

	mu     sync.Mutex
	queues map[string]*queue
}

// NewCoordinator creates a coordinator.
func NewCoordinator(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		logger: logger,
		queues: make(map[string]*queue),
	}
}

// Enqueue applies the mutation locally and schedules its remote commit on
// the key's FIFO queue. It returns a channel that yields the commit outcome
// exactly once: nil on success, or the surfaced error after the local state
// has been rolled back.
func (c *Coordinator) Enqueue(ctx context.Context, key string, m Mutation) <-chan error {
	done := make(chan error, 1)

	c.mu.Lock()
	// Phase 1 under the ordering lock: applies observe each other in
	// enqueue order even when callers race.
	rollback := m.Apply()

	q, ok := c.queues[key]
	if !ok {
		q = &queue{}
		c.queues[key] = q
	}
	q.jobs = append(q.jobs, job{ctx: ctx, mutation: m, rollback: rollback, done: done})
	if !q.running {
		q.running = true
		go c.drain(key, q)
	}
	c.mu.Unlock()

	return done
}

// Run is a convenience wrapper that blocks until the commit resolves.
func (c *Coordinator) Run(ctx context.Context, key string, m Mutation) error {
	return <-c.Enqueue(ctx, key, m)
}

// drain commits queued mutations for one key in FIFO order, then retires
// the queue.
func (c *Coordinator) drain(key string, q *queue) {
	for {
		c.mu.Lock()
		if len(q.jobs) == 0 {
			q.running = false
			delete(c.queues, key)
			c.mu.Unlock()
			return
		}
		j := q.jobs[0]
		q.jobs = q.jobs[1:]
		c.mu.Unlock()

		err := j.mutation.Commit(j.ctx)
		if err != nil {
			// Revert before surfacing so the caller never observes the
			// failed state without the rollback.
			if j.rollback != nil {
				j.rollback()
			}

			c.logger.Warn("mutation commit failed, local state reverted",
				"mutation", j.mutation.Name,
				"key", key,
				"error", err,
			)

			if !isDomainError(err) {
				err = errors.RemoteWrite(j.mutation.Name+" failed", err)
			}
		}

		j.done <- err
		close(j.done)
	}
}

func isDomainError(err error) bool {
	var domainErr *errors.Error
	return errors.As(err, &domainErr)
}
