// Package domain contains the core business entities and domain logic for the ReadShelf reading tracker.
package domain

// BookStatus tracks where a book sits in the reading lifecycle.
type BookStatus string

// Reading statuses.
const (
	StatusToRead     BookStatus = "To Read"
	StatusInProgress BookStatus = "In Progress"
	StatusCompleted  BookStatus = "Completed"
	StatusOnHold     BookStatus = "On Hold"
)

// Valid checks if the status is one of the known values.
func (s BookStatus) Valid() bool {
	switch s {
	case StatusToRead, StatusInProgress, StatusCompleted, StatusOnHold:
		return true
	default:
		return false
	}
}

// MaxRating is the highest star rating a book can carry.
const MaxRating = 5

// DefaultSource is the acquisition source stamped on books added from search.
const DefaultSource = "Physical Book"

// Book represents a cataloged book.
type Book struct {
	Record
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	CoverURL   string     `json:"cover_url,omitempty"`
	Status     BookStatus `json:"status"`
	Source     string     `json:"source,omitempty"`
	Rating     int        `json:"rating"`
	IdeasCount int        `json:"ideas_count"`
}

// NextRating returns the rating that results from selecting a star.
// Selecting the currently set value resets the rating to 0; any other
// value is a full overwrite.
func (b *Book) NextRating(selected int) int {
	if selected == b.Rating {
		return 0
	}
	return selected
}

// IncrementIdeas bumps the notes counter.
func (b *Book) IncrementIdeas() {
	b.IdeasCount++
}

// DecrementIdeas lowers the notes counter, flooring at 0.
func (b *Book) DecrementIdeas() {
	if b.IdeasCount > 0 {
		b.IdeasCount--
	}
}
