// Package catalog owns the user's book collection: adding books from search
// results and the interactive book detail view with its optimistic
// mutations.
package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/readshelfapp/readshelf-server/internal/domain"
	"github.com/readshelfapp/readshelf-server/internal/errors"
	"github.com/readshelfapp/readshelf-server/internal/normalize"
	"github.com/readshelfapp/readshelf-server/internal/store"
)

// Service adds books to the catalog.
type Service struct {
	store  *store.Store
	logger *slog.Logger
}

// NewService creates a catalog service.
func NewService(st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: st, logger: logger}
}

// AddFromCandidate catalogs a search result. New books start as "To Read"
// from the default source. Returns the created book and its canonical key so
// the caller can mark the active search session without a re-fetch.
// Returns ErrAlreadyExists if a book with the same canonical key is cataloged.
func (s *Service) AddFromCandidate(ctx context.Context, cand domain.SearchCandidate) (*domain.Book, normalize.Key, error) {
	if strings.TrimSpace(cand.Title) == "" {
		return nil, normalize.Key{}, errors.Validation("candidate title must not be blank")
	}

	book := &domain.Book{
		Title:    cand.Title,
		Author:   cand.PrimaryAuthor(),
		CoverURL: cand.CoverURL,
		Status:   domain.StatusToRead,
		Source:   domain.DefaultSource,
	}
	key := normalize.NewKey(book.Title, book.Author)

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, key, err
	}

	s.logger.Info("book added from search",
		"book_id", book.ID,
		"title", book.Title,
		"author", book.Author,
	)
	return book, key, nil
}
