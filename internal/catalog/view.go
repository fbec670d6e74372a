package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/readshelfapp/readshelf-server/internal/domain"
	"github.com/readshelfapp/readshelf-server/internal/errors"
	"github.com/readshelfapp/readshelf-server/internal/optimistic"
	"github.com/readshelfapp/readshelf-server/internal/store"
	"github.com/readshelfapp/readshelf-server/internal/store/sqlite"
	"github.com/readshelfapp/readshelf-server/internal/timeline"
	"github.com/readshelfapp/readshelf-server/internal/validation"
)

// noteInput is the validated shape of a new note.
type noteInput struct {
	Content string `json:"content" validate:"required,max=10000"`
}

// sessionInput is the validated shape of a logged reading sitting.
type sessionInput struct {
	Duration  int `json:"duration" validate:"gte=1,lte=1440"`
	PagesRead int `json:"pages_read" validate:"gte=0,lte=5000"`
}

// View is the interactive detail state of one book: the book record plus
// its notes, newest first. Mutations apply to the view synchronously and
// commit to the store through the optimistic coordinator; a failed commit
// rolls the view back.
type View struct {
	store    *store.Store
	sessions *sqlite.Store
	coord    *optimistic.Coordinator
	confirm  optimistic.Confirmer
	validate *validation.Validator
	logger   *slog.Logger

	bookID string

	mu         sync.Mutex
	book       domain.Book
	notes      []domain.Note
	pendingSeq int
}

// NewView creates an unloaded book view.
func NewView(st *store.Store, sessions *sqlite.Store, coord *optimistic.Coordinator, confirm optimistic.Confirmer, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &View{
		store:    st,
		sessions: sessions,
		coord:    coord,
		confirm:  confirm,
		validate: validation.New(),
		logger:   logger,
	}
}

// Load reads the book and its notes into the view.
func (v *View) Load(ctx context.Context, bookID string) error {
	book, err := v.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	notes, err := v.store.ListNotesByBook(ctx, bookID)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.bookID = bookID
	v.book = *book
	v.notes = v.notes[:0]
	for _, n := range notes {
		v.notes = append(v.notes, *n)
	}
	return nil
}

// Book returns the current book state.
func (v *View) Book() domain.Book {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.book
}

// Notes returns the current notes, newest first.
func (v *View) Notes() []domain.Note {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.Note(nil), v.notes...)
}

// SetRating records a star selection. Selecting the current rating clears
// it to zero. The view updates immediately; a failed store write reverts it.
func (v *View) SetRating(ctx context.Context, selected int) error {
	if selected < 1 || selected > domain.MaxRating {
		return errors.Validationf("rating must be between 1 and %d", domain.MaxRating)
	}

	var next int
	return v.coord.Run(ctx, v.bookID, optimistic.Mutation{
		Name: "set rating",
		Apply: func() optimistic.Rollback {
			v.mu.Lock()
			defer v.mu.Unlock()
			prev := v.book.Rating
			v.book.Rating = v.book.NextRating(selected)
			next = v.book.Rating
			return func() {
				v.mu.Lock()
				defer v.mu.Unlock()
				v.book.Rating = prev
			}
		},
		Commit: func(ctx context.Context) error {
			book, err := v.store.GetBook(ctx, v.bookID)
			if err != nil {
				return err
			}
			book.Rating = next
			return v.store.UpdateBook(ctx, book)
		},
	})
}

// SetStatus moves the book along the reading lifecycle.
func (v *View) SetStatus(ctx context.Context, status domain.BookStatus) error {
	if !status.Valid() {
		return errors.Validationf("unknown status %q", status)
	}

	return v.coord.Run(ctx, v.bookID, optimistic.Mutation{
		Name: "set status",
		Apply: func() optimistic.Rollback {
			v.mu.Lock()
			defer v.mu.Unlock()
			prev := v.book.Status
			v.book.Status = status
			return func() {
				v.mu.Lock()
				defer v.mu.Unlock()
				v.book.Status = prev
			}
		},
		Commit: func(ctx context.Context) error {
			book, err := v.store.GetBook(ctx, v.bookID)
			if err != nil {
				return err
			}
			book.Status = status
			return v.store.UpdateBook(ctx, book)
		},
	})
}

// AddNote appends a note. A provisional entry with a pending ID renders
// immediately; the committed store row, with its real ID and timestamps,
// replaces it on success. The ideas count moves with the note in both
// directions.
func (v *View) AddNote(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if err := v.validate.Validate(noteInput{Content: content}); err != nil {
		return err
	}

	var pendingID string
	return v.coord.Run(ctx, v.bookID, optimistic.Mutation{
		Name: "add note",
		Apply: func() optimistic.Rollback {
			v.mu.Lock()
			defer v.mu.Unlock()
			v.pendingSeq++
			pendingID = fmt.Sprintf("pending-%d", v.pendingSeq)
			provisional := domain.Note{
				ID:        pendingID,
				BookID:    v.bookID,
				Content:   content,
				CreatedAt: time.Now(),
			}
			v.notes = append([]domain.Note{provisional}, v.notes...)
			v.book.IncrementIdeas()
			return func() {
				v.mu.Lock()
				defer v.mu.Unlock()
				v.removeNoteLocked(pendingID)
				v.book.DecrementIdeas()
			}
		},
		Commit: func(ctx context.Context) error {
			note := &domain.Note{BookID: v.bookID, Content: content}
			if err := v.store.CreateNote(ctx, note); err != nil {
				return err
			}

			// Swap the provisional entry for the server-assigned row.
			v.mu.Lock()
			defer v.mu.Unlock()
			for i := range v.notes {
				if v.notes[i].ID == pendingID {
					v.notes[i] = *note
					break
				}
			}
			v.book.UpdatedAt = time.Now()
			return nil
		},
	})
}

// DeleteNote removes a note after confirmation. Declining leaves everything
// untouched.
func (v *View) DeleteNote(ctx context.Context, noteID string) error {
	if !v.confirm.Confirm(ctx, "Delete this note?") {
		return nil
	}

	return v.coord.Run(ctx, noteID, optimistic.Mutation{
		Name: "delete note",
		Apply: func() optimistic.Rollback {
			v.mu.Lock()
			defer v.mu.Unlock()
			idx, removed := v.removeNoteLocked(noteID)
			if removed == nil {
				return nil
			}
			v.book.DecrementIdeas()
			return func() {
				v.mu.Lock()
				defer v.mu.Unlock()
				v.insertNoteLocked(idx, *removed)
				v.book.IncrementIdeas()
			}
		},
		Commit: func(ctx context.Context) error {
			return v.store.DeleteNote(ctx, noteID)
		},
	})
}

// ShareNote publishes a note to the community feed. A non-blank content
// argument rewrites the note text in the same write, so the feed shows the
// edited version; blank keeps the text as it stands.
func (v *View) ShareNote(ctx context.Context, noteID, content string) error {
	content = strings.TrimSpace(content)
	if content != "" {
		if err := v.validate.Validate(noteInput{Content: content}); err != nil {
			return err
		}
	}

	sharedAt := time.Now()
	return v.coord.Run(ctx, noteID, optimistic.Mutation{
		Name: "share note",
		Apply: func() optimistic.Rollback {
			v.mu.Lock()
			defer v.mu.Unlock()
			note := v.findNoteLocked(noteID)
			if note == nil {
				return nil
			}
			prevShared := note.SharedAt
			prevContent := note.Content
			if content != "" {
				note.Content = content
			}
			note.Share(sharedAt)
			return func() {
				v.mu.Lock()
				defer v.mu.Unlock()
				if note := v.findNoteLocked(noteID); note != nil {
					note.SharedAt = prevShared
					note.Content = prevContent
				}
			}
		},
		Commit: func(ctx context.Context) error {
			note, err := v.store.GetNote(ctx, noteID)
			if err != nil {
				return err
			}
			if content != "" {
				note.Content = content
			}
			note.Share(sharedAt)
			return v.store.UpdateNote(ctx, note)
		},
	})
}

// DeleteBook removes the book, its notes, and its reading sessions after
// confirmation. This is a hard delete with no optimistic phase; the caller
// navigates away on success.
func (v *View) DeleteBook(ctx context.Context) error {
	if !v.confirm.Confirm(ctx, "Remove this book and all its notes?") {
		return nil
	}

	if err := v.store.DeleteBook(ctx, v.bookID); err != nil {
		return err
	}
	if err := v.sessions.DeleteSessionsByBook(ctx, v.bookID); err != nil {
		// The book is already gone; the session rows are now orphaned.
		v.logger.Error("book removed but its reading sessions remain",
			"book_id", v.bookID,
			"error", err,
		)
		return errors.ConsistencyGap("book removed but its reading sessions remain", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.notes = nil
	v.book = domain.Book{}
	return nil
}

// NotesGrouped returns the notes matching query, bucketed for display.
// An empty query matches everything; matching is a case-insensitive
// substring check on the content.
func (v *View) NotesGrouped(query string, now time.Time) []timeline.Bucket[domain.Note] {
	query = strings.ToLower(strings.TrimSpace(query))

	v.mu.Lock()
	var matched []domain.Note
	for _, note := range v.notes {
		if query == "" || strings.Contains(strings.ToLower(note.Content), query) {
			matched = append(matched, note)
		}
	}
	v.mu.Unlock()

	return timeline.Group(matched, func(n domain.Note) time.Time {
		return n.CreatedAt
	}, now)
}

// LogSession records a reading sitting against the book.
func (v *View) LogSession(ctx context.Context, minutes, pagesRead int) (*domain.ReadingSession, error) {
	if err := v.validate.Validate(sessionInput{Duration: minutes, PagesRead: pagesRead}); err != nil {
		return nil, err
	}

	session := &domain.ReadingSession{
		BookID:    v.bookID,
		Duration:  minutes,
		PagesRead: pagesRead,
	}
	if err := v.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	v.logger.Debug("reading session logged",
		"book_id", v.bookID,
		"minutes", minutes,
		"pages", pagesRead,
	)
	return session, nil
}

// ReadingTotals aggregates the book's logged sessions.
func (v *View) ReadingTotals(ctx context.Context) (*domain.ReadingTotals, error) {
	return v.sessions.Totals(ctx, v.bookID)
}

// findNoteLocked returns a pointer into the notes slice, or nil.
func (v *View) findNoteLocked(noteID string) *domain.Note {
	for i := range v.notes {
		if v.notes[i].ID == noteID {
			return &v.notes[i]
		}
	}
	return nil
}

// removeNoteLocked removes a note by ID, returning its index and a copy.
func (v *View) removeNoteLocked(noteID string) (int, *domain.Note) {
	for i := range v.notes {
		if v.notes[i].ID == noteID {
			removed := v.notes[i]
			v.notes = append(v.notes[:i], v.notes[i+1:]...)
			return i, &removed
		}
	}
	return -1, nil
}

// insertNoteLocked restores a note at its previous position.
func (v *View) insertNoteLocked(idx int, note domain.Note) {
	if idx < 0 || idx > len(v.notes) {
		idx = len(v.notes)
	}
	v.notes = append(v.notes[:idx], append([]domain.Note{note}, v.notes[idx:]...)...)
}
