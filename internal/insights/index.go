// Package insights makes the note collection searchable. Notes are indexed
// with their book's title and author, so "what did I think about Herbert"
// finds notes whose books match as well as notes whose text does.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
)

// NoteIndex wraps a Bleve index over note documents.
// All public methods are safe for concurrent use.
type NoteIndex struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the note index.
type Options struct {
	// DataPath is the directory for index storage. Ignored when InMemory.
	DataPath string
	// InMemory keeps the index in memory only. Used in tests.
	InMemory bool
	Logger   *slog.Logger
}

// NewNoteIndex creates or opens a note index.
func NewNoteIndex(opts Options) (*NoteIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.InMemory {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &NoteIndex{index: index, logger: logger}, nil
	}

	indexPath := filepath.Join(opts.DataPath, "insights.bleve")
	index, err := bleve.Open(indexPath)
	if err != nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		logger.Info("created note index", "path", indexPath)
	} else {
		logger.Info("opened note index", "path", indexPath)
	}

	return &NoteIndex{index: index, logger: logger}, nil
}

// Close closes the index and releases resources.
func (n *NoteIndex) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index.Close()
}

// Index adds or replaces one note document.
func (n *NoteIndex) Index(doc *NoteDocument) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.index.Index(doc.ID, doc.ToMap())
}

// Delete removes a note from the index. Deleting an unindexed ID is a no-op.
func (n *NoteIndex) Delete(noteID string) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.index.Delete(noteID)
}

// IndexBatch replaces the documents in one batch commit.
func (n *NoteIndex) IndexBatch(docs []*NoteDocument) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	batch := n.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
			return fmt.Errorf("batch index %s: %w", doc.ID, err)
		}
	}
	return n.index.Batch(batch)
}

// Hit is a single matched note.
type Hit struct {
	NoteID     string  `json:"note_id"`
	BookID     string  `json:"book_id"`
	BookTitle  string  `json:"book_title"`
	BookAuthor string  `json:"book_author"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	CreatedAt  time.Time
}

// Search matches query against note content and book display fields,
// best match first.
func (n *NoteIndex) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	contentQuery := bleve.NewMatchQuery(query)
	contentQuery.SetField("content")
	contentQuery.SetBoost(2.0)

	titleQuery := bleve.NewMatchQuery(query)
	titleQuery.SetField("book_title")

	authorQuery := bleve.NewMatchQuery(query)
	authorQuery.SetField("book_author")

	searchQuery := bleve.NewDisjunctionQuery(contentQuery, titleQuery, authorQuery)
	request := bleve.NewSearchRequestOptions(searchQuery, limit, 0, false)
	request.Fields = []string{"book_id", "book_title", "book_author", "content", "created_at"}

	result, err := n.index.SearchInContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, match := range result.Hits {
		hit := Hit{NoteID: match.ID, Score: match.Score}
		if v, ok := match.Fields["book_id"].(string); ok {
			hit.BookID = v
		}
		if v, ok := match.Fields["book_title"].(string); ok {
			hit.BookTitle = v
		}
		if v, ok := match.Fields["book_author"].(string); ok {
			hit.BookAuthor = v
		}
		if v, ok := match.Fields["content"].(string); ok {
			hit.Content = v
		}
		if v, ok := match.Fields["created_at"].(float64); ok {
			hit.CreatedAt = time.UnixMilli(int64(v))
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
