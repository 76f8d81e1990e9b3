// Package repository holds the loaded results dataset.
package repository

import (
	"context"

	"github.com/okian/podium/internal/domain/model"
)

// Store provides read access to the immutable row set and wholesale replacement.
type Store interface {
	// All returns every row in id order. Callers must not modify the slice.
	All(ctx context.Context) []model.Row

	// Get returns the row with id.
	// Returns ErrNotFound if no such row is loaded.
	Get(ctx context.Context, id model.ID) (model.Row, error)

	// Count returns the number of loaded rows.
	Count(ctx context.Context) int

	// Replace swaps the whole dataset. Readers holding the previous slice
	// keep seeing it unchanged.
	Replace(ctx context.Context, rows []model.Row) error

	// Version increases by one on every successful Replace.
	Version(ctx context.Context) uint64
}
