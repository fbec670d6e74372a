package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readshelfapp/readshelf-server/internal/domain"
	"github.com/readshelfapp/readshelf-server/internal/errors"
	"github.com/readshelfapp/readshelf-server/internal/optimistic"
	"github.com/readshelfapp/readshelf-server/internal/store"
	"github.com/readshelfapp/readshelf-server/internal/store/sqlite"
	"github.com/readshelfapp/readshelf-server/internal/timeline"
)

// setupView seeds a book and returns its loaded view.
func setupView(t *testing.T, confirm optimistic.Confirmer) (*View, *store.Store, *sqlite.Store) {
	t.Helper()

	st, sessions := setupStores(t)
	ctx := context.Background()

	book := &domain.Book{
		Title:  "Dune",
		Author: "Frank Herbert",
		Status: domain.StatusToRead,
		Source: domain.DefaultSource,
	}
	require.NoError(t, st.CreateBook(ctx, book))

	v := NewView(st, sessions, optimistic.NewCoordinator(nil), confirm, nil)
	require.NoError(t, v.Load(ctx, book.ID))
	return v, st, sessions
}

func TestSetRating_ToggleToZero(t *testing.T) {
	v, st, _ := setupView(t, optimistic.AlwaysConfirm())
	ctx := context.Background()

	require.NoError(t, v.SetRating(ctx, 4))
	assert.Equal(t, 4, v.Book().Rating)

	// A different star is a plain overwrite.
	require.NoError(t, v.SetRating(ctx, 2))
	assert.Equal(t, 2, v.Book().Rating)

	// Selecting the current rating clears it.
	require.NoError(t, v.SetRating(ctx, 2))
	assert.Equal(t, 0, v.Book().Rating)

	got, err := st.GetBook(ctx, v.bookID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Rating)
}

func TestSetRating_OutOfRange(t *testing.T) {
	v, _, _ := setupView(t, optimistic.AlwaysConfirm())
	ctx := context.Background()

	assert.True(t, errors.Is(v.SetRating(ctx, 0), errors.ErrValidation))
	assert.True(t, errors.Is(v.SetRating(ctx, 6), errors.ErrValidation))
}

func TestSetStatus(t *testing.T) {
	v, st, _ := setupView(t, optimistic.AlwaysConfirm())
	ctx := context.Background()

	require.NoError(t, v.SetStatus(ctx, domain.StatusInProgress))
	assert.Equal(t, domain.StatusInProgress, v.Book().Status)

	got, err := st.GetBook(ctx, v.bookID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, got.Status)

	assert.True(t, errors.Is(v.SetStatus(ctx, "Reading Hard"), errors.ErrValidation))
}

func TestSetStatus_RollbackOnStoreFailure(t *testing.T) {
	v, st, _ := setupView(t, optimistic.AlwaysConfirm())
	ctx := context.Background()

	// Deleting the row underneath the view makes the commit fail.
	require.NoError(t, st.DeleteBook(ctx, v.bookID))

	err := v.SetStatus(ctx, domain.StatusCompleted)
	require.Error(t, err)
	assert.Equal(t, domain.StatusToRead, v.Book().Status, "view reverts on failed commit")
}

func TestAddNote(t *testing.T) {
	v, st, _ := setupView(t, optimistic.AlwaysConfirm())
	ctx := context.Background()

	require.NoError(t, v.AddNote(ctx, "  fear is the mind-killer  "))

	notes := v.Notes()
	require.Len(t, notes, 1)
	// The committed row replaced the provisional one.
	assert.True(t, strings.HasPrefix(notes[0].ID, "note-"))
	assert.Equal(t, "fear is the mind-killer", notes[0].Content)
	assert.Equal(t, 1, v.Book().IdeasCount)

	got, err := st.GetBook(ctx, v.bookID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.IdeasCount)
}

func TestAddNote_Blank(t *testing.T) {
	v, _, _ := setupView(t, optimistic.AlwaysConfirm())

	err := v.AddNote(context.Background(), "   ")
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Empty(t, v.Notes())
	assert.Equal(t, 0, v.Book().IdeasCount)
}

func TestAddNote_RollbackOnStoreFailure(t *testing.T) {
	v, st, _ := setupView(t, optimistic.AlwaysConfirm())
	ctx := context.Background()

	require.NoError(t, st.DeleteBook(ctx, v.bookID))

	err := v.AddNote(ctx, "orphan thought")
	require.Error(t, err)
	assert.Empty(t, v.Notes(), "provisional note removed on failed commit")
	assert.Equal(t, 0, v.Book().IdeasCount)
}

func TestDeleteNote(t *testing.T) {
	v, st, _ := setupView(t, optimistic.AlwaysConfirm())
	ctx := context.Background()

	require.NoError(t, v.AddNote(ctx, "first"))
	require.NoError(t, v.AddNote(ctx, "second"))
	noteID := v.Notes()[0].ID

	require.NoError(t, v.DeleteNote(ctx, noteID))
	require.Len(t, v.Notes(), 1)
	assert.Equal(t, 1, v.Book().IdeasCount)

	got, err := st.GetBook(ctx, v.bookID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.IdeasCount)
}

func TestDeleteNote_Declined(t *testing.T) {
	v, _, _ := setupView(t, optimistic.NeverConfirm())
	ctx := context.Background()

	require.NoError(t, v.AddNote(ctx, "keep me"))
	noteID := v.Notes()[0].ID

	require.NoError(t, v.DeleteNote(ctx, noteID))
	assert.Len(t, v.Notes(), 1, "declined confirmation leaves the note")
	assert.Equal(t, 1, v.Book().IdeasCount)
}

func TestShareNote(t *testing.T) {
	v, st, _ := setupView(t, optimistic.AlwaysConfirm())
	ctx := context.Background()

	require.NoError(t, v.AddNote(ctx, "worth sharing"))
	noteID := v.Notes()[0].ID

	require.NoError(t, v.ShareNote(ctx, noteID, ""))
	assert.True(t, v.Notes()[0].IsShared())
	assert.Equal(t, "worth sharing", v.Notes()[0].Content)

	shared, err := st.ListSharedNotes(ctx)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, noteID, shared[0].ID)
}

func TestShareNote_RewritesContent(t *testing.T) {
	v, st, _ := setupView(t, optimistic.AlwaysConfirm())
	ctx := context.Background()

	require.NoError(t, v.AddNote(ctx, "rough draft"))
	noteID := v.Notes()[0].ID

	require.NoError(t, v.ShareNote(ctx, noteID, "  polished for the feed  "))
	assert.Equal(t, "polished for the feed", v.Notes()[0].Content)

	// Content and shared-at land in one write.
	got, err := st.GetNote(ctx, noteID)
	require.NoError(t, err)
	assert.True(t, got.IsShared())
	assert.Equal(t, "polished for the feed", got.Content)
}

func TestShareNote_RewriteTooLong(t *testing.T) {
	v, _, _ := setupView(t, optimistic.AlwaysConfirm())
	ctx := context.Background()

	require.NoError(t, v.AddNote(ctx, "short"))
	noteID := v.Notes()[0].ID

	err := v.ShareNote(ctx, noteID, strings.Repeat("x", 10001))
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Equal(t, "short", v.Notes()[0].Content)
	assert.False(t, v.Notes()[0].IsShared())
}

func TestDeleteBook_CascadesAndClears(t *testing.T) {
	v, st, sessions := setupView(t, optimistic.AlwaysConfirm())
	ctx := context.Background()

	bookID := v.bookID
	require.NoError(t, v.AddNote(ctx, "to be removed"))
	_, err := v.LogSession(ctx, 30, 20)
	require.NoError(t, err)

	require.NoError(t, v.DeleteBook(ctx))

	_, err = st.GetBook(ctx, bookID)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	remaining, err := sessions.ListSessionsByBook(ctx, bookID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	assert.Empty(t, v.Notes())
}

func TestDeleteBook_Declined(t *testing.T) {
	v, st, _ := setupView(t, optimistic.NeverConfirm())
	ctx := context.Background()

	require.NoError(t, v.DeleteBook(ctx))
	_, err := st.GetBook(ctx, v.bookID)
	assert.NoError(t, err, "declined confirmation keeps the book")
}

func TestDeleteBook_SessionCleanupFailureIsConsistencyGap(t *testing.T) {
	v, st, sessions := setupView(t, optimistic.AlwaysConfirm())
	ctx := context.Background()

	_, err := v.LogSession(ctx, 25, 10)
	require.NoError(t, err)

	// Closing the session store makes the second half of the cascade fail
	// after the book row is already gone.
	require.NoError(t, sessions.Close())

	err = v.DeleteBook(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConsistencyGap))

	_, err = st.GetBook(ctx, v.bookID)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestNotesGrouped(t *testing.T) {
	v, _, _ := setupView(t, optimistic.AlwaysConfirm())
	ctx := context.Background()

	require.NoError(t, v.AddNote(ctx, "the spice must flow"))
	require.NoError(t, v.AddNote(ctx, "desert power"))

	buckets := v.NotesGrouped("", time.Now())
	require.Len(t, buckets, 1)
	assert.Equal(t, timeline.LabelToday, buckets[0].Label)
	assert.Len(t, buckets[0].Items, 2)

	// Case-insensitive substring filter.
	buckets = v.NotesGrouped("SPICE", time.Now())
	require.Len(t, buckets, 1)
	require.Len(t, buckets[0].Items, 1)
	assert.Equal(t, "the spice must flow", buckets[0].Items[0].Content)

	assert.Empty(t, v.NotesGrouped("sandworm", time.Now()))
}

func TestLogSessionAndTotals(t *testing.T) {
	v, _, _ := setupView(t, optimistic.AlwaysConfirm())
	ctx := context.Background()

	session, err := v.LogSession(ctx, 45, 30)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)

	_, err = v.LogSession(ctx, 15, 0)
	require.NoError(t, err)

	totals, err := v.ReadingTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Sessions)
	assert.Equal(t, 60, totals.TotalMinutes)
	assert.Equal(t, 30, totals.TotalPages)

	_, err = v.LogSession(ctx, 0, 10)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}
