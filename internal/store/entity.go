package store

import (
	"context"
	"encoding/json/v2"
	stderrors "errors"
	"fmt"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Entity provides generic CRUD operations for one persisted domain type.
//
// Every method has a txn-scoped variant so composite operations (a note
// insert plus its book's counter bump, for example) can run inside a single
// Badger transaction and commit or fail together.
type Entity[T any] struct {
	store   *Store
	prefix  string
	indexes []index[T]
}

// index is a secondary index. Each key the generator returns maps back to
// the entity's primary ID; unique constraints fall out of key collisions.
type index[T any] struct {
	name string
	keys func(*T) []string
}

// NewEntity creates an Entity for type T under the given key prefix.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{store: s, prefix: prefix}
}

// WithIndex adds a secondary index. Creating or updating an entity whose
// index key collides with another entity's fails with ErrAlreadyExists.
func (e *Entity[T]) WithIndex(name string, keys func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, keys: keys})
	return e
}

// Prefix returns the entity's primary key prefix.
func (e *Entity[T]) Prefix() string {
	return e.prefix
}

func (e *Entity[T]) key(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *Entity[T]) indexKey(name, value string) []byte {
	return []byte(e.prefix + "idx:" + name + ":" + value)
}

// Create inserts a new entity. Returns ErrAlreadyExists if the ID or any
// unique index key is taken.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.store.db.Update(func(txn *badger.Txn) error {
		return e.createTxn(txn, id, entity)
	})
}

// Get retrieves an entity by ID. Returns ErrNotFound if it does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entity *T
	err := e.store.db.View(func(txn *badger.Txn) error {
		var err error
		entity, err = e.getTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// GetByIndex retrieves an entity through a secondary index.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entity *T
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(e.indexKey(indexName, value))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read index %s: %w", indexName, err)
		}

		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}

		entity, err = e.getTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// Update replaces an existing entity and migrates its index keys.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Update(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.store.db.Update(func(txn *badger.Txn) error {
		return e.updateTxn(txn, id, entity)
	})
}

// Delete removes an entity and its index keys. Idempotent.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.store.db.Update(func(txn *badger.Txn) error {
		return e.deleteTxn(txn, id)
	})
}

// List iterates all entities under the prefix in key order.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		_ = e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(e.prefix)
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			idxMarker := e.prefix + "idx:"
			for it.Seek([]byte(e.prefix)); it.ValidForPrefix([]byte(e.prefix)); it.Next() {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return err
				}
				if strings.HasPrefix(string(it.Item().Key()), idxMarker) {
					continue
				}

				var entity T
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &entity)
				})
				if err != nil {
					yield(nil, err)
					return err
				}
				if !yield(&entity, nil) {
					return nil
				}
			}
			return nil
		})
	}
}

// Transaction-scoped operations. These run inside a caller-owned txn so
// multi-entity writes stay atomic.

func (e *Entity[T]) getTxn(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get(e.key(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s%s: %w", e.prefix, id, err)
	}

	var entity T
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entity)
	}); err != nil {
		return nil, fmt.Errorf("decode %s%s: %w", e.prefix, id, err)
	}
	return &entity, nil
}

func (e *Entity[T]) createTxn(txn *badger.Txn, id string, entity *T) error {
	if _, err := txn.Get(e.key(id)); err == nil {
		return ErrAlreadyExists
	} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("check %s%s: %w", e.prefix, id, err)
	}

	for _, idx := range e.indexes {
		for _, v := range idx.keys(entity) {
			if _, err := txn.Get(e.indexKey(idx.name, v)); err == nil {
				return fmt.Errorf("index %s conflict on %q: %w", idx.name, v, ErrAlreadyExists)
			} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check index %s: %w", idx.name, err)
			}
		}
	}

	return e.writeTxn(txn, id, entity)
}

func (e *Entity[T]) updateTxn(txn *badger.Txn, id string, entity *T) error {
	old, err := e.getTxn(txn, id)
	if err != nil {
		return err
	}

	oldKeys := make(map[string]map[string]bool, len(e.indexes))
	for _, idx := range e.indexes {
		seen := make(map[string]bool)
		for _, v := range idx.keys(old) {
			seen[v] = true
			if err := txn.Delete(e.indexKey(idx.name, v)); err != nil {
				return fmt.Errorf("drop index %s: %w", idx.name, err)
			}
		}
		oldKeys[idx.name] = seen
	}

	for _, idx := range e.indexes {
		for _, v := range idx.keys(entity) {
			if oldKeys[idx.name][v] {
				continue
			}
			if _, err := txn.Get(e.indexKey(idx.name, v)); err == nil {
				return fmt.Errorf("index %s conflict on %q: %w", idx.name, v, ErrAlreadyExists)
			} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check index %s: %w", idx.name, err)
			}
		}
	}

	return e.writeTxn(txn, id, entity)
}

func (e *Entity[T]) deleteTxn(txn *badger.Txn, id string) error {
	entity, err := e.getTxn(txn, id)
	if stderrors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, idx := range e.indexes {
		for _, v := range idx.keys(entity) {
			if err := txn.Delete(e.indexKey(idx.name, v)); err != nil {
				return fmt.Errorf("drop index %s: %w", idx.name, err)
			}
		}
	}

	if err := txn.Delete(e.key(id)); err != nil {
		return fmt.Errorf("delete %s%s: %w", e.prefix, id, err)
	}
	return nil
}

// writeTxn marshals the entity and sets its primary and index keys without
// conflict checks. Callers are responsible for those.
func (e *Entity[T]) writeTxn(txn *badger.Txn, id string, entity *T) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("encode %s%s: %w", e.prefix, id, err)
	}
	if err := txn.Set(e.key(id), data); err != nil {
		return fmt.Errorf("write %s%s: %w", e.prefix, id, err)
	}
	for _, idx := range e.indexes {
		for _, v := range idx.keys(entity) {
			if err := txn.Set(e.indexKey(idx.name, v), []byte(id)); err != nil {
				return fmt.Errorf("write index %s: %w", idx.name, err)
			}
		}
	}
	return nil
}
