package domain

import "time"

// Comment is a reply on a shared note. Comments are append-only; there is
// no edit operation.
type Comment struct {
	ID         string    `json:"id"`
	NoteID     string    `json:"note_id"`
	Content    string    `json:"content"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}
