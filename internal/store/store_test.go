package store

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestStore creates a store backed by a temp directory. The directory
// is cleaned up by the test framework; callers close the store.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(t.TempDir(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}
