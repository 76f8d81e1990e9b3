package repository

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/metrics"
)

// dataset is one published generation of rows. It is never mutated after
// publication.
type dataset struct {
	rows    []model.Row
	index   map[model.ID]int
	version uint64
}

// MemoryStore is an in-memory Store. Reads load the current generation
// through an atomic pointer and never block on Replace.
type MemoryStore struct {
	current atomic.Pointer[dataset]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding rows.
func NewMemoryStore(ctx context.Context, rows []model.Row) (*MemoryStore, error) {
	s := &MemoryStore{}
	s.current.Store(&dataset{index: map[model.ID]int{}})
	if err := s.Replace(ctx, rows); err != nil {
		return nil, err
	}
	return s, nil
}

// All implements Store.
func (s *MemoryStore) All(_ context.Context) []model.Row {
	return s.current.Load().rows
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id model.ID) (model.Row, error) {
	ds := s.current.Load()
	i, ok := ds.index[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Row{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return ds.rows[i], nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	return len(s.current.Load().rows)
}

// Version implements Store.
func (s *MemoryStore) Version(_ context.Context) uint64 {
	return s.current.Load().version
}

// Replace implements Store. Rows are copied and sorted by id.
func (s *MemoryStore) Replace(_ context.Context, rows []model.Row) error {
	next := &dataset{
		rows:  slices.Clone(rows),
		index: make(map[model.ID]int, len(rows)),
	}
	slices.SortFunc(next.rows, func(a, b model.Row) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	for i, r := range next.rows {
		if _, dup := next.index[r.ID]; dup {
			metrics.RecordErrorByComponent("repository", "duplicate_id")
			return fmt.Errorf("%w: %d", ErrDuplicateID, r.ID)
		}
		next.index[r.ID] = i
	}

	for {
		prev := s.current.Load()
		next.version = prev.version + 1
		if s.current.CompareAndSwap(prev, next) {
			break
		}
	}

	metrics.UpdateRowsLoaded(len(next.rows))
	return nil
}
