package repositories

import (
	"context"
	"errors"
	"time"
)

// Observer receives the outcome of every store call.
type Observer interface {
	ObserveStore(op string, err error, notFound bool, d time.Duration)
}

type instrumented[K any, T any] struct {
	next     Repository[K, T]
	observer Observer
}

// Instrument reports every call made through repo to observer. A nil
// observer returns repo unchanged.
func Instrument[K any, T any](repo Repository[K, T], observer Observer) Repository[K, T] {
	if observer == nil {
		return repo
	}
	return &instrumented[K, T]{next: repo, observer: observer}
}

func (r *instrumented[K, T]) observe(op string, start time.Time, err error) {
	r.observer.ObserveStore(op, err, errors.Is(err, ErrNotFound), time.Since(start))
}

func (r *instrumented[K, T]) Get(ctx context.Context, key K) (*T, error) {
	start := time.Now()
	item, err := r.next.Get(ctx, key)
	r.observe("get", start, err)
	return item, err
}

func (r *instrumented[K, T]) Scan(ctx context.Context) ([]T, error) {
	start := time.Now()
	items, err := r.next.Scan(ctx)
	r.observe("scan", start, err)
	return items, err
}

func (r *instrumented[K, T]) Put(ctx context.Context, item *T) error {
	start := time.Now()
	err := r.next.Put(ctx, item)
	r.observe("put", start, err)
	return err
}

func (r *instrumented[K, T]) Delete(ctx context.Context, key K) error {
	start := time.Now()
	err := r.next.Delete(ctx, key)
	r.observe("delete", start, err)
	return err
}
