// Package store persists the catalog in an embedded Badger database.
//
// It is the engine's remote-store collaborator: views mutate their in-memory
// state optimistically and commit through here. Writes that touch a record
// and a dependent counter (note inserts and the book's ideas count) run in
// one transaction, so the two can never drift apart under normal operation.
// ReconcileIdeasCount exists to repair drift introduced from outside.
package store

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/readshelfapp/readshelf-server/internal/domain"
	"github.com/readshelfapp/readshelf-server/internal/normalize"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	Books    *Entity[domain.Book]
	Notes    *Entity[domain.Note]
	Comments *Entity[domain.Comment]
	Likes    *Entity[domain.Like]
}

// New opens the database at path and wires up the entities.
func New(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Badger's internal logging is too chatty
	opts.SyncWrites = true       // survive crashes without losing committed writes
	opts.CompactL0OnClose = true // faster startup next open

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	s := &Store{db: db, logger: logger}
	s.initBooks()
	s.initNotes()
	s.initComments()
	s.initLikes()

	logger.Info("database opened", "path", path)
	return s, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	s.logger.Info("closing database")
	return s.db.Close()
}

// initBooks sets up the Books entity. The canonical index enforces one
// catalog entry per normalized (title, author) pair.
func (s *Store) initBooks() {
	s.Books = NewEntity[domain.Book](s, "book:").
		WithIndex("canonical", func(b *domain.Book) []string {
			return []string{normalize.NewKey(b.Title, b.Author).String()}
		})
}

// initNotes sets up the Notes entity, indexed by owning book. The note ID is
// part of the index key so a book can hold many notes.
func (s *Store) initNotes() {
	s.Notes = NewEntity[domain.Note](s, "note:").
		WithIndex("book", func(n *domain.Note) []string {
			return []string{n.BookID + ":" + n.ID}
		})
}

// initComments sets up the Comments entity, indexed by note.
func (s *Store) initComments() {
	s.Comments = NewEntity[domain.Comment](s, "comment:").
		WithIndex("note", func(c *domain.Comment) []string {
			return []string{c.NoteID + ":" + c.ID}
		})
}

// initLikes sets up the Likes entity. The note index holds the bare note ID,
// which makes a second like for the same note an index conflict.
func (s *Store) initLikes() {
	s.Likes = NewEntity[domain.Like](s, "like:").
		WithIndex("note", func(l *domain.Like) []string {
			return []string{l.NoteID}
		})
}
