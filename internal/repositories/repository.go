package repositories

import (
	"context"
	"errors"
	"fmt"

	"cellar/internal/models"
)

// Repository is the key-value contract every store backend satisfies.
// Put is an upsert: the last writer for a key wins.
type Repository[K any, T any] interface {
	Get(ctx context.Context, key K) (*T, error)
	Scan(ctx context.Context) ([]T, error)
	Put(ctx context.Context, item *T) error
	Delete(ctx context.Context, key K) error
}

// BeverageRepository stores cellar records under their (id, location) key.
type BeverageRepository = Repository[models.RecordKey, models.BeverageRecord]

// PicklistRepository stores picklists under their list name.
type PicklistRepository = Repository[string, models.Picklist]

// BeverageKey and PicklistKey extract store keys from items.
func BeverageKey(r *models.BeverageRecord) models.RecordKey { return r.Key() }

func PicklistKey(p *models.Picklist) string { return p.ListName }

// ErrNotFound is returned when no item is stored under a key.
var ErrNotFound = errors.New("record not found")

// StoreError wraps a backend failure. The core never retries or
// reinterprets it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
