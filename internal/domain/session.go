package domain

import "time"

// ReadingSession records a single sitting with a book.
type ReadingSession struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	Duration  int       `json:"duration"` // minutes
	PagesRead int       `json:"pages_read"`
	CreatedAt time.Time `json:"created_at"`
}

// ReadingTotals aggregates sessions for a book.
type ReadingTotals struct {
	BookID       string `json:"book_id"`
	Sessions     int    `json:"sessions"`
	TotalMinutes int    `json:"total_minutes"`
	TotalPages   int    `json:"total_pages"`
}
