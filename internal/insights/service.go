package insights

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/readshelfapp/readshelf-server/internal/domain"
	"github.com/readshelfapp/readshelf-server/internal/store"
)

// Service keeps the note index in step with the store and answers grouped
// queries.
type Service struct {
	store  *store.Store
	index  *NoteIndex
	logger *slog.Logger
}

// NewService creates an insights service.
func NewService(st *store.Store, index *NoteIndex, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: st, index: index, logger: logger}
}

// Rebuild reindexes every note from the store. Run at startup; afterwards
// NoteCreated and NoteDeleted keep the index current.
func (s *Service) Rebuild(ctx context.Context) error {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("rebuild insights: %w", err)
	}

	var docs []*NoteDocument
	for _, book := range books {
		notes, err := s.store.ListNotesByBook(ctx, book.ID)
		if err != nil {
			return fmt.Errorf("rebuild insights for book %s: %w", book.ID, err)
		}
		for _, note := range notes {
			docs = append(docs, &NoteDocument{
				ID:         note.ID,
				BookID:     book.ID,
				BookTitle:  book.Title,
				BookAuthor: book.Author,
				Content:    note.Content,
				CreatedAt:  note.CreatedAt,
			})
		}
	}

	if err := s.index.IndexBatch(docs); err != nil {
		return fmt.Errorf("rebuild insights: %w", err)
	}

	s.logger.Info("note index rebuilt", "notes", len(docs))
	return nil
}

// NoteCreated indexes a freshly committed note.
func (s *Service) NoteCreated(ctx context.Context, note *domain.Note) error {
	book, err := s.store.GetBook(ctx, note.BookID)
	if err != nil {
		return err
	}
	return s.index.Index(&NoteDocument{
		ID:         note.ID,
		BookID:     book.ID,
		BookTitle:  book.Title,
		BookAuthor: book.Author,
		Content:    note.Content,
		CreatedAt:  note.CreatedAt,
	})
}

// NoteDeleted drops a note from the index.
func (s *Service) NoteDeleted(noteID string) error {
	return s.index.Delete(noteID)
}

// BookInsights is the matched notes of one book.
type BookInsights struct {
	BookID     string `json:"book_id"`
	BookTitle  string `json:"book_title"`
	BookAuthor string `json:"book_author"`
	Notes      []Hit  `json:"notes"`
}

// Search matches query across all notes and groups the hits by book,
// ordered by each book's best-scoring note.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]BookInsights, error) {
	hits, err := s.index.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	var grouped []BookInsights
	byBook := make(map[string]int)
	for _, hit := range hits {
		idx, ok := byBook[hit.BookID]
		if !ok {
			idx = len(grouped)
			byBook[hit.BookID] = idx
			grouped = append(grouped, BookInsights{
				BookID:     hit.BookID,
				BookTitle:  hit.BookTitle,
				BookAuthor: hit.BookAuthor,
			})
		}
		grouped[idx].Notes = append(grouped[idx].Notes, hit)
	}
	return grouped, nil
}
