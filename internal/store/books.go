package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/readshelfapp/readshelf-server/internal/domain"
	"github.com/readshelfapp/readshelf-server/internal/id"
	"github.com/readshelfapp/readshelf-server/internal/normalize"
)

// CreateBook inserts a new book. The ID and timestamps are assigned here.
// Returns ErrAlreadyExists if a book with the same canonical key is already
// cataloged.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return fmt.Errorf("generating book id: %w", err)
	}
	book.ID = bookID
	book.InitTimestamps()

	if err := s.Books.Create(ctx, book.ID, book); err != nil {
		if stderrors.Is(err, ErrAlreadyExists) {
			return fmt.Errorf("book %q by %q: %w", book.Title, book.Author, ErrAlreadyExists)
		}
		return fmt.Errorf("creating book: %w", err)
	}

	s.logger.Info("book cataloged",
		"book_id", book.ID,
		"title", book.Title,
	)
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.Books.Get(ctx, bookID)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("book %s: %w", bookID, ErrNotFound)
		}
		return nil, fmt.Errorf("getting book %s: %w", bookID, err)
	}
	return book, nil
}

// GetBookByKey retrieves a book by its canonical (title, author) key.
func (s *Store) GetBookByKey(ctx context.Context, key normalize.Key) (*domain.Book, error) {
	return s.Books.GetByIndex(ctx, "canonical", key.String())
}

// UpdateBook persists changes to an existing book and refreshes UpdatedAt.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	book.Touch()
	if err := s.Books.Update(ctx, book.ID, book); err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return fmt.Errorf("book %s: %w", book.ID, ErrNotFound)
		}
		return fmt.Errorf("updating book %s: %w", book.ID, err)
	}
	return nil
}

// DeleteBook removes a book together with its notes and their likes and
// comments, all in one transaction. Idempotent on the book itself.
func (s *Store) DeleteBook(ctx context.Context, bookID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		noteIDs, err := s.noteIDsForBookTxn(txn, bookID)
		if err != nil {
			return err
		}
		for _, noteID := range noteIDs {
			if err := s.deleteNoteCascadeTxn(txn, noteID); err != nil {
				return err
			}
		}
		return s.Books.deleteTxn(txn, bookID)
	})
	if err != nil {
		return fmt.Errorf("deleting book %s: %w", bookID, err)
	}

	s.logger.Info("book deleted", "book_id", bookID)
	return nil
}

// ListBooks returns the catalog sorted by creation time, newest first.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	var books []*domain.Book
	for book, err := range s.Books.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("listing books: %w", err)
		}
		books = append(books, book)
	}

	slices.SortFunc(books, func(a, b *domain.Book) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return books, nil
}

// CanonicalKeys returns the canonical key of every cataloged book. The
// search flow rebuilds its dedup index from this after each completed fetch.
func (s *Store) CanonicalKeys(ctx context.Context) ([]normalize.Key, error) {
	var keys []normalize.Key
	for book, err := range s.Books.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("listing canonical keys: %w", err)
		}
		keys = append(keys, normalize.NewKey(book.Title, book.Author))
	}
	return keys, nil
}
