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

// CreateComment appends a comment to a note and bumps its cached comments
// count in the same transaction. The ID and creation time are assigned
// here. Returns ErrNotFound if the note does not exist.
func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	commentID, err := id.Generate(id.PrefixComment)
	if err != nil {
		return fmt.Errorf("generating comment id: %w", err)
	}
	comment.ID = commentID
	comment.CreatedAt = time.Now()

	err = s.db.Update(func(txn *badger.Txn) error {
		note, err := s.Notes.getTxn(txn, comment.NoteID)
		if err != nil {
			return err
		}

		if err := s.Comments.createTxn(txn, comment.ID, comment); err != nil {
			return err
		}

		note.CommentsCount++
		return s.Notes.updateTxn(txn, note.ID, note)
	})
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return fmt.Errorf("note %s: %w", comment.NoteID, ErrNotFound)
		}
		return fmt.Errorf("creating comment on note %s: %w", comment.NoteID, err)
	}

	s.logger.Debug("comment created",
		"comment_id", comment.ID,
		"note_id", comment.NoteID,
	)
	return nil
}

// ListCommentsByNote returns a note's comments in chronological order,
// oldest first.
func (s *Store) ListCommentsByNote(ctx context.Context, noteID string) ([]*domain.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var comments []*domain.Comment
	err := s.db.View(func(txn *badger.Txn) error {
		commentIDs, err := s.commentIDsForNoteTxn(txn, noteID)
		if err != nil {
			return err
		}
		for _, commentID := range commentIDs {
			comment, err := s.Comments.getTxn(txn, commentID)
			if stderrors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			comments = append(comments, comment)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing comments for note %s: %w", noteID, err)
	}

	slices.SortFunc(comments, func(a, b *domain.Comment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return comments, nil
}

// commentIDsForNoteTxn scans the note index for a note's comment IDs.
func (s *Store) commentIDsForNoteTxn(txn *badger.Txn, noteID string) ([]string, error) {
	prefix := []byte(s.Comments.Prefix() + "idx:note:" + noteID + ":")

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
