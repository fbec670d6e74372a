package domain

import "time"

// Note is a reading note attached to a book. A note with SharedAt set is
// published to the community feed; clearing SharedAt hides it from the feed
// without destroying the record.
type Note struct {
	ID            string     `json:"id"`
	BookID        string     `json:"book_id"`
	Content       string     `json:"content"`
	CreatedAt     time.Time  `json:"created_at"`
	SharedAt      *time.Time `json:"shared_at,omitempty"`
	LikesCount    int        `json:"likes_count"`
	CommentsCount int        `json:"comments_count"`
}

// IsShared reports whether the note is visible in the shared feed.
func (n *Note) IsShared() bool {
	return n.SharedAt != nil
}

// Share publishes the note at the given time.
func (n *Note) Share(at time.Time) {
	n.SharedAt = &at
}

// Unshare hides the note from the feed. The record is retained.
func (n *Note) Unshare() {
	n.SharedAt = nil
}

// NoteWithBook is a note joined with the title and author of its book,
// the shape the feed and insights views render.
type NoteWithBook struct {
	Note
	BookTitle  string `json:"book_title"`
	BookAuthor string `json:"book_author"`
}
