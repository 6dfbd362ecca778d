package repositories

import (
	"context"
	"sync"

	"cellar/internal/models"
)

// MemoryRepository is an in-memory implementation of Repository. Items
// are cloned on the way in and out, so callers never share memory with
// the stored copy.
type MemoryRepository[K comparable, T any] struct {
	items map[K]T
	keyOf func(*T) K
	clone func(*T) T
	mu    sync.RWMutex
}

// NewMemoryRepository creates an empty MemoryRepository keyed by keyOf.
// clone must return a deep copy of its argument.
func NewMemoryRepository[K comparable, T any](keyOf func(*T) K, clone func(*T) T) *MemoryRepository[K, T] {
	return &MemoryRepository[K, T]{
		items: make(map[K]T),
		keyOf: keyOf,
		clone: clone,
	}
}

// NewMemoryBeverageRepository creates an in-memory store for cellar records.
func NewMemoryBeverageRepository() *MemoryRepository[models.RecordKey, models.BeverageRecord] {
	return NewMemoryRepository(BeverageKey, (*models.BeverageRecord).Clone)
}

// NewMemoryPicklistRepository creates an in-memory store for picklists.
func NewMemoryPicklistRepository() *MemoryRepository[string, models.Picklist] {
	return NewMemoryRepository(PicklistKey, (*models.Picklist).Clone)
}

// Get returns the item stored under key.
func (r *MemoryRepository[K, T]) Get(_ context.Context, key K) (*T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	c := r.clone(&item)
	return &c, nil
}

// Scan returns all items in no particular order.
func (r *MemoryRepository[K, T]) Scan(_ context.Context) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]T, 0, len(r.items))
	for _, item := range r.items {
		list = append(list, r.clone(&item))
	}
	return list, nil
}

// Put stores item, replacing whatever was under its key.
func (r *MemoryRepository[K, T]) Put(_ context.Context, item *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.keyOf(item)] = r.clone(item)
	return nil
}

// Delete removes the item stored under key.
func (r *MemoryRepository[K, T]) Delete(_ context.Context, key K) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[key]; !ok {
		return ErrNotFound
	}
	delete(r.items, key)
	return nil
}
