package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/readshelfapp/readshelf-server/internal/domain"
	"github.com/readshelfapp/readshelf-server/internal/id"
)

// LikeNote records a like for a note and bumps its cached likes count in
// the same transaction. Returns ErrAlreadyExists if the note is already
// liked; the count is untouched in that case.
func (s *Store) LikeNote(ctx context.Context, noteID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	likeID, err := id.Generate(id.PrefixLike)
	if err != nil {
		return fmt.Errorf("generating like id: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		note, err := s.Notes.getTxn(txn, noteID)
		if err != nil {
			return err
		}

		like := &domain.Like{ID: likeID, NoteID: noteID, CreatedAt: time.Now()}
		if err := s.Likes.createTxn(txn, like.ID, like); err != nil {
			return err
		}

		note.LikesCount++
		return s.Notes.updateTxn(txn, note.ID, note)
	})
	if err != nil {
		if stderrors.Is(err, ErrAlreadyExists) {
			return fmt.Errorf("note %s already liked: %w", noteID, ErrAlreadyExists)
		}
		if stderrors.Is(err, ErrNotFound) {
			return fmt.Errorf("note %s: %w", noteID, ErrNotFound)
		}
		return fmt.Errorf("liking note %s: %w", noteID, err)
	}
	return nil
}

// UnlikeNote removes a note's like and lowers its cached likes count,
// flooring at zero. Idempotent: unliking an unliked note is a no-op.
func (s *Store) UnlikeNote(ctx context.Context, noteID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		removed, err := s.deleteLikeForNoteTxnReport(txn, noteID)
		if err != nil || !removed {
			return err
		}

		note, err := s.Notes.getTxn(txn, noteID)
		if stderrors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if note.LikesCount > 0 {
			note.LikesCount--
		}
		return s.Notes.updateTxn(txn, note.ID, note)
	})
	if err != nil {
		return fmt.Errorf("unliking note %s: %w", noteID, err)
	}
	return nil
}

// LikedNoteIDs returns the set of note IDs with a like row. The feed uses
// this to render like state without loading the rows themselves.
func (s *Store) LikedNoteIDs(ctx context.Context) (map[string]bool, error) {
	liked := make(map[string]bool)
	for like, err := range s.Likes.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("listing likes: %w", err)
		}
		liked[like.NoteID] = true
	}
	return liked, nil
}

// deleteLikeForNoteTxn removes a note's like row if present.
func (s *Store) deleteLikeForNoteTxn(txn *badger.Txn, noteID string) error {
	_, err := s.deleteLikeForNoteTxnReport(txn, noteID)
	return err
}

// deleteLikeForNoteTxnReport removes a note's like row and reports whether
// one existed.
func (s *Store) deleteLikeForNoteTxnReport(txn *badger.Txn, noteID string) (bool, error) {
	item, err := txn.Get(s.Likes.indexKey("note", noteID))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read like index for note %s: %w", noteID, err)
	}

	var likeID string
	if err := item.Value(func(val []byte) error {
		likeID = string(val)
		return nil
	}); err != nil {
		return false, err
	}

	if err := s.Likes.deleteTxn(txn, likeID); err != nil {
		return false, err
	}
	return true, nil
}
