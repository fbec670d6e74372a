package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/readshelfapp/readshelf-server/internal/normalize"
)

func TestIndex_Contains(t *testing.T) {
	idx := New([]normalize.Key{
		normalize.NewKey("Dune", "Frank Herbert"),
		normalize.NewKey("Emma", "Jane Austen"),
	})

	assert.True(t, idx.Contains(normalize.NewKey("dune", "frank herbert")))
	assert.True(t, idx.Contains(normalize.NewKey("  EMMA ", "Jane AUSTEN")))
	assert.False(t, idx.Contains(normalize.NewKey("Dune Messiah", "Frank Herbert")))
}

func TestIndex_AddReflectsImmediately(t *testing.T) {
	idx := New(nil)
	key := normalize.NewKey("Piranesi", "Susanna Clarke")

	assert.False(t, idx.Contains(key))

	idx.Add(key)
	assert.True(t, idx.Contains(key))
	assert.Equal(t, 1, idx.Len())

	// Adding again is a no-op.
	idx.Add(key)
	assert.Equal(t, 1, idx.Len())
}

func TestNew_DeduplicatesSnapshot(t *testing.T) {
	idx := New([]normalize.Key{
		normalize.NewKey("Dune", "Frank Herbert"),
		normalize.NewKey("DUNE ", " frank herbert"),
	})

	assert.Equal(t, 1, idx.Len())
}
