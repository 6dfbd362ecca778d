package repositories

import (
	"context"
	"errors"
	"fmt"
)

// CopyStats counts what Copy moved.
type CopyStats struct {
	Purged int
	Copied int
}

// Copy replaces the contents of dst with the contents of src. src is read
// in full before anything in dst is deleted, so two handles on the same
// store end up with the data they started with.
func Copy[K any, T any](ctx context.Context, src, dst Repository[K, T], keyOf func(*T) K) (CopyStats, error) {
	var stats CopyStats

	items, err := src.Scan(ctx)
	if err != nil {
		return stats, fmt.Errorf("scan source: %w", err)
	}

	existing, err := dst.Scan(ctx)
	if err != nil {
		return stats, fmt.Errorf("scan destination: %w", err)
	}
	for i := range existing {
		if err := dst.Delete(ctx, keyOf(&existing[i])); err != nil && !errors.Is(err, ErrNotFound) {
			return stats, fmt.Errorf("purge destination: %w", err)
		}
		stats.Purged++
	}

	for i := range items {
		if err := dst.Put(ctx, &items[i]); err != nil {
			return stats, fmt.Errorf("copy item %d: %w", i, err)
		}
		stats.Copied++
	}
	return stats, nil
}

// CopyAll copies both tables from src to dst.
func CopyAll(ctx context.Context, src, dst *Repositories) (beverages, picklists CopyStats, err error) {
	beverages, err = Copy(ctx, src.Beverages, dst.Beverages, BeverageKey)
	if err != nil {
		return beverages, picklists, fmt.Errorf("copy cellar: %w", err)
	}
	picklists, err = Copy(ctx, src.Picklists, dst.Picklists, PicklistKey)
	if err != nil {
		return beverages, picklists, fmt.Errorf("copy picklists: %w", err)
	}
	return beverages, picklists, nil
}
