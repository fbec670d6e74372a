package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/readshelfapp/readshelf-server/internal/domain"
	"github.com/readshelfapp/readshelf-server/internal/id"
	"github.com/readshelfapp/readshelf-server/internal/store"
)

// sessionColumns is the ordered list of columns selected in session queries.
const sessionColumns = `id, book_id, duration, pages_read, created_at`

// scanSession scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.ReadingSession.
func scanSession(scanner interface{ Scan(dest ...any) error }) (*domain.ReadingSession, error) {
	var (
		session   domain.ReadingSession
		createdAt string
	)

	err := scanner.Scan(
		&session.ID,
		&session.BookID,
		&session.Duration,
		&session.PagesRead,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	session.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateSession logs a reading sitting. The ID and creation time are
// assigned here when unset.
func (s *Store) CreateSession(ctx context.Context, session *domain.ReadingSession) error {
	if session.ID == "" {
		sessionID, err := id.Generate(id.PrefixSession)
		if err != nil {
			return fmt.Errorf("generating session id: %w", err)
		}
		session.ID = sessionID
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reading_sessions (id, book_id, duration, pages_read, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		session.BookID,
		session.Duration,
		session.PagesRead,
		formatTime(session.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID. Returns store.ErrNotFound if the
// session does not exist.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*domain.ReadingSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM reading_sessions WHERE id = ?`, sessionID)

	session, err := scanSession(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", sessionID, err)
	}
	return session, nil
}

// ListSessionsByBook returns a book's sessions ordered by creation time,
// newest first.
func (s *Store) ListSessionsByBook(ctx context.Context, bookID string) ([]*domain.ReadingSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM reading_sessions
		WHERE book_id = ? ORDER BY created_at DESC`, bookID)
	if err != nil {
		return nil, fmt.Errorf("listing sessions for book %s: %w", bookID, err)
	}
	defer rows.Close()

	var sessions []*domain.ReadingSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteSession removes a session. Returns store.ErrNotFound if the session
// does not exist.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM reading_sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", sessionID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteSessionsByBook removes every session for a book. Called when the
// book itself is deleted. Idempotent.
func (s *Store) DeleteSessionsByBook(ctx context.Context, bookID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM reading_sessions WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("deleting sessions for book %s: %w", bookID, err)
	}
	return nil
}

// Totals aggregates a book's sessions into reading totals.
func (s *Store) Totals(ctx context.Context, bookID string) (*domain.ReadingTotals, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(duration), 0), COALESCE(SUM(pages_read), 0)
		FROM reading_sessions WHERE book_id = ?`, bookID)

	totals := &domain.ReadingTotals{BookID: bookID}
	if err := row.Scan(&totals.Sessions, &totals.TotalMinutes, &totals.TotalPages); err != nil {
		return nil, fmt.Errorf("aggregating sessions for book %s: %w", bookID, err)
	}
	return totals, nil
}
