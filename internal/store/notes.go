package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/readshelfapp/readshelf-server/internal/domain"
	"github.com/readshelfapp/readshelf-server/internal/id"
)

// CreateNote inserts a note and bumps the owning book's ideas count in the
// same transaction. The ID and creation time are assigned here; the note is
// returned with them set. Returns ErrNotFound if the book does not exist.
func (s *Store) CreateNote(ctx context.Context, note *domain.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	noteID, err := id.Generate(id.PrefixNote)
	if err != nil {
		return fmt.Errorf("generating note id: %w", err)
	}
	note.ID = noteID
	note.CreatedAt = time.Now()

	err = s.db.Update(func(txn *badger.Txn) error {
		book, err := s.Books.getTxn(txn, note.BookID)
		if err != nil {
			return err
		}

		if err := s.Notes.createTxn(txn, note.ID, note); err != nil {
			return err
		}

		book.IncrementIdeas()
		book.Touch()
		return s.Books.updateTxn(txn, book.ID, book)
	})
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return fmt.Errorf("book %s: %w", note.BookID, ErrNotFound)
		}
		return fmt.Errorf("creating note for book %s: %w", note.BookID, err)
	}

	s.logger.Debug("note created",
		"note_id", note.ID,
		"book_id", note.BookID,
	)
	return nil
}

// GetNote retrieves a note by ID.
func (s *Store) GetNote(ctx context.Context, noteID string) (*domain.Note, error) {
	note, err := s.Notes.Get(ctx, noteID)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("note %s: %w", noteID, ErrNotFound)
		}
		return nil, fmt.Errorf("getting note %s: %w", noteID, err)
	}
	return note, nil
}

// UpdateNote persists changes to an existing note, including share state and
// cached counters.
func (s *Store) UpdateNote(ctx context.Context, note *domain.Note) error {
	if err := s.Notes.Update(ctx, note.ID, note); err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return fmt.Errorf("note %s: %w", note.ID, ErrNotFound)
		}
		return fmt.Errorf("updating note %s: %w", note.ID, err)
	}
	return nil
}

// DeleteNote removes a note, its like, and its comments, and lowers the
// owning book's ideas count, all in one transaction. The counter never goes
// below zero even if it was already out of step with the note rows.
func (s *Store) DeleteNote(ctx context.Context, noteID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		note, err := s.Notes.getTxn(txn, noteID)
		if stderrors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := s.deleteNoteCascadeTxn(txn, noteID); err != nil {
			return err
		}

		book, err := s.Books.getTxn(txn, note.BookID)
		if stderrors.Is(err, ErrNotFound) {
			// Orphaned note; nothing to decrement.
			return nil
		}
		if err != nil {
			return err
		}
		book.DecrementIdeas()
		book.Touch()
		return s.Books.updateTxn(txn, book.ID, book)
	})
	if err != nil {
		return fmt.Errorf("deleting note %s: %w", noteID, err)
	}

	s.logger.Debug("note deleted", "note_id", noteID)
	return nil
}

// ListNotesByBook returns a book's notes sorted by creation time, newest
// first.
func (s *Store) ListNotesByBook(ctx context.Context, bookID string) ([]*domain.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var notes []*domain.Note
	err := s.db.View(func(txn *badger.Txn) error {
		noteIDs, err := s.noteIDsForBookTxn(txn, bookID)
		if err != nil {
			return err
		}
		for _, noteID := range noteIDs {
			note, err := s.Notes.getTxn(txn, noteID)
			if stderrors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			notes = append(notes, note)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing notes for book %s: %w", bookID, err)
	}

	slices.SortFunc(notes, func(a, b *domain.Note) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return notes, nil
}

// ListSharedNotes returns every shared note joined with its book's title and
// author, sorted by share time, newest first. This is the community feed
// query.
func (s *Store) ListSharedNotes(ctx context.Context) ([]*domain.NoteWithBook, error) {
	var shared []*domain.NoteWithBook
	for note, err := range s.Notes.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("listing shared notes: %w", err)
		}
		if !note.IsShared() {
			continue
		}

		entry := &domain.NoteWithBook{Note: *note}
		book, err := s.Books.Get(ctx, note.BookID)
		if err == nil {
			entry.BookTitle = book.Title
			entry.BookAuthor = book.Author
		} else if !stderrors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("joining book for note %s: %w", note.ID, err)
		}
		shared = append(shared, entry)
	}

	slices.SortFunc(shared, func(a, b *domain.NoteWithBook) int {
		return b.SharedAt.Compare(*a.SharedAt)
	})
	return shared, nil
}

// ReconcileIdeasCount recounts a book's notes and rewrites the cached
// counter if it drifted. Returns the true count.
func (s *Store) ReconcileIdeasCount(ctx context.Context, bookID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int
	err := s.db.Update(func(txn *badger.Txn) error {
		book, err := s.Books.getTxn(txn, bookID)
		if err != nil {
			return err
		}

		noteIDs, err := s.noteIDsForBookTxn(txn, bookID)
		if err != nil {
			return err
		}
		count = len(noteIDs)

		if book.IdeasCount == count {
			return nil
		}

		s.logger.Warn("ideas count drift repaired",
			"book_id", bookID,
			"stored", book.IdeasCount,
			"actual", count,
		)
		book.IdeasCount = count
		book.Touch()
		return s.Books.updateTxn(txn, book.ID, book)
	})
	if err != nil {
		return 0, fmt.Errorf("reconciling ideas count for book %s: %w", bookID, err)
	}
	return count, nil
}

// noteIDsForBookTxn scans the book index for a book's note IDs.
func (s *Store) noteIDsForBookTxn(txn *badger.Txn, bookID string) ([]string, error) {
	prefix := []byte(s.Notes.Prefix() + "idx:book:" + bookID + ":")

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			ids = append(ids, string(val))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// deleteNoteCascadeTxn removes a note with its like and comments. The book
// counter is the caller's concern.
func (s *Store) deleteNoteCascadeTxn(txn *badger.Txn, noteID string) error {
	if err := s.deleteLikeForNoteTxn(txn, noteID); err != nil {
		return err
	}

	commentIDs, err := s.commentIDsForNoteTxn(txn, noteID)
	if err != nil {
		return err
	}
	for _, commentID := range commentIDs {
		if err := s.Comments.deleteTxn(txn, commentID); err != nil {
			return err
		}
	}

	return s.Notes.deleteTxn(txn, noteID)
}
