// Package feed renders the community feed of shared notes and owns its
// optimistic mutations: like toggling, commenting, and unsharing.
package feed

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/readshelfapp/readshelf-server/internal/domain"
	"github.com/readshelfapp/readshelf-server/internal/optimistic"
	"github.com/readshelfapp/readshelf-server/internal/store"
	"github.com/readshelfapp/readshelf-server/internal/validation"
)

// commentInput is the validated shape of a new comment.
type commentInput struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// View is the feed state: shared notes joined with their books, newest
// share first, plus the set of notes the actor has liked. Mutations on one
// note serialize through the coordinator under the note's ID, so a rapid
// double-toggle commits as like then unlike rather than racing.
type View struct {
	store    *store.Store
	coord    *optimistic.Coordinator
	confirm  optimistic.Confirmer
	actor    *domain.Actor
	validate *validation.Validator
	logger   *slog.Logger

	mu      sync.Mutex
	entries []domain.NoteWithBook
	liked   map[string]bool
}

// NewView creates an unloaded feed view.
func NewView(st *store.Store, coord *optimistic.Coordinator, confirm optimistic.Confirmer, actor *domain.Actor, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &View{
		store:    st,
		coord:    coord,
		confirm:  confirm,
		actor:    actor,
		validate: validation.New(),
		logger:   logger,
		liked:    make(map[string]bool),
	}
}

// Load reads the shared notes and the actor's like set.
func (v *View) Load(ctx context.Context) error {
	shared, err := v.store.ListSharedNotes(ctx)
	if err != nil {
		return err
	}
	liked, err := v.store.LikedNoteIDs(ctx)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = v.entries[:0]
	for _, entry := range shared {
		v.entries = append(v.entries, *entry)
	}
	v.liked = liked
	return nil
}

// Entries returns the feed, newest share first.
func (v *View) Entries() []domain.NoteWithBook {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.NoteWithBook(nil), v.entries...)
}

// Liked reports whether the actor has liked the note.
func (v *View) Liked(noteID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.liked[noteID]
}

// ToggleLike flips the like state of a note. The heart and the count move
// immediately; a failed store write puts both back. Toggles on the same
// note are serialized, so each commit sees the state the previous one left.
func (v *View) ToggleLike(ctx context.Context, noteID string) error {
	return v.coord.Run(ctx, noteID, v.toggleLikeMutation(noteID))
}

// ToggleLikeAsync is ToggleLike without waiting for the commit. The local
// flip is visible when this returns; the channel yields the commit outcome.
func (v *View) ToggleLikeAsync(ctx context.Context, noteID string) <-chan error {
	return v.coord.Enqueue(ctx, noteID, v.toggleLikeMutation(noteID))
}

func (v *View) toggleLikeMutation(noteID string) optimistic.Mutation {
	var liking bool
	return optimistic.Mutation{
		Name: "toggle like",
		Apply: func() optimistic.Rollback {
			v.mu.Lock()
			defer v.mu.Unlock()
			prevLiked := v.liked[noteID]
			prevCount := 0
			if entry := v.findEntryLocked(noteID); entry != nil {
				prevCount = entry.LikesCount
			}
			liking = !prevLiked
			v.applyLikeLocked(noteID, liking)
			return func() {
				v.mu.Lock()
				defer v.mu.Unlock()
				v.liked[noteID] = prevLiked
				if entry := v.findEntryLocked(noteID); entry != nil {
					entry.LikesCount = prevCount
				}
			}
		},
		Commit: func(ctx context.Context) error {
			if liking {
				return v.store.LikeNote(ctx, noteID)
			}
			return v.store.UnlikeNote(ctx, noteID)
		},
	}
}

// Unshare pulls a note out of the feed after confirmation. The note itself
// survives; only its shared flag is cleared.
func (v *View) Unshare(ctx context.Context, noteID string) error {
	if !v.confirm.Confirm(ctx, "Remove this note from the feed?") {
		return nil
	}

	return v.coord.Run(ctx, noteID, optimistic.Mutation{
		Name: "unshare note",
		Apply: func() optimistic.Rollback {
			v.mu.Lock()
			defer v.mu.Unlock()
			idx, removed := v.removeEntryLocked(noteID)
			if removed == nil {
				return nil
			}
			return func() {
				v.mu.Lock()
				defer v.mu.Unlock()
				v.insertEntryLocked(idx, *removed)
			}
		},
		Commit: func(ctx context.Context) error {
			note, err := v.store.GetNote(ctx, noteID)
			if err != nil {
				return err
			}
			note.Unshare()
			return v.store.UpdateNote(ctx, note)
		},
	})
}

// AddComment appends a comment under the actor's display name. The cached
// count on the feed entry bumps immediately.
func (v *View) AddComment(ctx context.Context, noteID, content string) error {
	content = strings.TrimSpace(content)
	if err := v.validate.Validate(commentInput{Content: content}); err != nil {
		return err
	}

	return v.coord.Run(ctx, noteID, optimistic.Mutation{
		Name: "add comment",
		Apply: func() optimistic.Rollback {
			v.mu.Lock()
			defer v.mu.Unlock()
			if entry := v.findEntryLocked(noteID); entry != nil {
				entry.CommentsCount++
			}
			return func() {
				v.mu.Lock()
				defer v.mu.Unlock()
				if entry := v.findEntryLocked(noteID); entry != nil && entry.CommentsCount > 0 {
					entry.CommentsCount--
				}
			}
		},
		Commit: func(ctx context.Context) error {
			return v.store.CreateComment(ctx, &domain.Comment{
				NoteID:     noteID,
				Content:    content,
				AuthorName: v.actor.DisplayName,
			})
		},
	})
}

// Comments returns a note's comments in chronological order.
func (v *View) Comments(ctx context.Context, noteID string) ([]*domain.Comment, error) {
	return v.store.ListCommentsByNote(ctx, noteID)
}

// applyLikeLocked sets the like flag and moves the cached count, flooring
// at zero.
func (v *View) applyLikeLocked(noteID string, liked bool) {
	v.liked[noteID] = liked
	entry := v.findEntryLocked(noteID)
	if entry == nil {
		return
	}
	if liked {
		entry.LikesCount++
	} else if entry.LikesCount > 0 {
		entry.LikesCount--
	}
}

func (v *View) findEntryLocked(noteID string) *domain.NoteWithBook {
	for i := range v.entries {
		if v.entries[i].ID == noteID {
			return &v.entries[i]
		}
	}
	return nil
}

func (v *View) removeEntryLocked(noteID string) (int, *domain.NoteWithBook) {
	for i := range v.entries {
		if v.entries[i].ID == noteID {
			removed := v.entries[i]
			v.entries = append(v.entries[:i], v.entries[i+1:]...)
			return i, &removed
		}
	}
	return -1, nil
}

func (v *View) insertEntryLocked(idx int, entry domain.NoteWithBook) {
	if idx < 0 || idx > len(v.entries) {
		idx = len(v.entries)
	}
	v.entries = append(v.entries[:idx], append([]domain.NoteWithBook{entry}, v.entries[idx:]...)...)
}
