package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cellar/internal/models"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes separating the two tables inside one badger database.
const (
	beveragePrefix = "cellar:"
	picklistPrefix = "picklist:"
)

// BadgerRepository stores JSON-encoded items in badger under prefix+encodeKey(key).
type BadgerRepository[K any, T any] struct {
	db        *badger.DB
	prefix    string
	keyOf     func(*T) K
	encodeKey func(K) string
}

// NewBadgerRepository creates a repository over one key prefix of db.
func NewBadgerRepository[K any, T any](db *badger.DB, prefix string, keyOf func(*T) K, encodeKey func(K) string) *BadgerRepository[K, T] {
	return &BadgerRepository[K, T]{
		db:        db,
		prefix:    prefix,
		keyOf:     keyOf,
		encodeKey: encodeKey,
	}
}

// NewBadgerBeverageRepository stores cellar records under "cellar:<id>\x1f<location>".
func NewBadgerBeverageRepository(db *badger.DB) *BadgerRepository[models.RecordKey, models.BeverageRecord] {
	return NewBadgerRepository(db, beveragePrefix, BeverageKey, models.RecordKey.String)
}

// NewBadgerPicklistRepository stores picklists under "picklist:<listName>".
func NewBadgerPicklistRepository(db *badger.DB) *BadgerRepository[string, models.Picklist] {
	return NewBadgerRepository(db, picklistPrefix, PicklistKey, func(name string) string { return name })
}

// OpenBadger opens a badger database at path. An empty path keeps
// everything in memory.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	} else {
		opts.SyncWrites = true
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return db, nil
}

func (r *BadgerRepository[K, T]) key(k K) []byte {
	return []byte(r.prefix + r.encodeKey(k))
}

// Get retrieves a value by key.
func (r *BadgerRepository[K, T]) Get(_ context.Context, key K) (*T, error) {
	var item T
	err := r.db.View(func(txn *badger.Txn) error {
		it, err := txn.Get(r.key(key))
		if err != nil {
			return err
		}
		return it.Value(func(val []byte) error {
			return json.Unmarshal(val, &item)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get", err)
	}
	return &item, nil
}

// Scan walks every key under the repository prefix.
func (r *BadgerRepository[K, T]) Scan(ctx context.Context) ([]T, error) {
	prefix := []byte(r.prefix)
	var items []T

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var item T
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("scan", err)
	}
	return items, nil
}

// Put stores item under its key.
func (r *BadgerRepository[K, T]) Put(_ context.Context, item *T) error {
	data, err := json.Marshal(item)
	if err != nil {
		return storeErr("put", fmt.Errorf("failed to marshal value: %w", err))
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(r.key(r.keyOf(item)), data)
	})
	if err != nil {
		return storeErr("put", err)
	}
	return nil
}

// Delete removes the key. Badger deletes are blind, so existence is
// checked in the same transaction.
func (r *BadgerRepository[K, T]) Delete(_ context.Context, key K) error {
	k := r.key(key)
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(k); err != nil {
			return err
		}
		return txn.Delete(k)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storeErr("delete", err)
	}
	return nil
}
