package insights

import "time"

// NoteDocument is the indexed shape of a note: its content plus the
// display fields of its book, so a query can match either.
type NoteDocument struct {
	ID         string
	BookID     string
	BookTitle  string
	BookAuthor string
	Content    string
	CreatedAt  time.Time
}

// ToMap converts the document to the lowercase field names the index
// mapping declares.
func (d *NoteDocument) ToMap() map[string]any {
	return map[string]any{
		"id":          d.ID,
		"book_id":     d.BookID,
		"book_title":  d.BookTitle,
		"book_author": d.BookAuthor,
		"content":     d.Content,
		"created_at":  float64(d.CreatedAt.UnixMilli()),
	}
}
