package domain

import "time"

// Like marks a note as liked. In the single-user model there is at most one
// like per note; presence of the row means "liked", absence means "not liked".
type Like struct {
	ID        string    `json:"id"`
	NoteID    string    `json:"note_id"`
	CreatedAt time.Time `json:"created_at"`
}
