// Package dedup tracks which canonical keys already exist in the catalog.
//
// The index is rebuilt from a full catalog snapshot once per completed
// search burst rather than maintained incrementally; the fetch is cheap and
// infrequent, which keeps staleness logic out of the picture. After a local
// add succeeds the new key is inserted directly so the same search session
// reflects the addition without waiting for a re-fetch.
package dedup

import (
	"sync"

	"github.com/readshelfapp/readshelf-server/internal/normalize"
)

// Index is a set-membership structure over canonical keys.
// Safe for concurrent use.
type Index struct {
	mu   sync.RWMutex
	keys map[normalize.Key]struct{}
}

// New builds an index from a snapshot of existing keys.
func New(keys []normalize.Key) *Index {
	idx := &Index{
		keys: make(map[normalize.Key]struct{}, len(keys)),
	}
	for _, k := range keys {
		idx.keys[k] = struct{}{}
	}
	return idx
}

// Contains reports whether the key is already in the catalog.
func (i *Index) Contains(key normalize.Key) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.keys[key]
	return ok
}

// Add inserts a key, typically right after a local add succeeds.
func (i *Index) Add(key normalize.Key) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.keys[key] = struct{}{}
}

// Len returns the number of distinct keys.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.keys)
}
