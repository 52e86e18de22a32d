package mirror

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// MemoryStore is a Store backed by maps. It's useful for tests and dry runs.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]ProductRow
	prices   map[string]PriceRow
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]ProductRow),
		prices:   make(map[string]PriceRow),
	}
}

// Products returns all product rows ordered by id.
func (s *MemoryStore) Products(_ context.Context) ([]ProductRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedRows(s.products, func(r ProductRow) string { return r.ID }), nil
}

// Prices returns all price rows ordered by id.
func (s *MemoryStore) Prices(_ context.Context) ([]PriceRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedRows(s.prices, func(r PriceRow) string { return r.ID }), nil
}

// ApplyProducts rejects duplicate inserts before mutating anything.
func (s *MemoryStore) ApplyProducts(ctx context.Context, cs ChangeSet[ProductRow]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range cs.Insert {
		if _, ok := s.products[r.ID]; ok {
			return fmt.Errorf("insert product %s: already exists", r.ID)
		}
	}
	for _, r := range cs.Insert {
		s.products[r.ID] = r
	}
	for _, r := range cs.Update {
		s.products[r.ID] = r
	}
	for _, id := range cs.Delete {
		for pid, pr := range s.prices {
			if pr.ProductID == id {
				delete(s.prices, pid)
			}
		}
		delete(s.products, id)
	}
	return nil
}

func (s *MemoryStore) ApplyPrices(ctx context.Context, cs ChangeSet[PriceRow]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range cs.Insert {
		if _, ok := s.prices[r.ID]; ok {
			return fmt.Errorf("insert price %s: already exists", r.ID)
		}
		if _, ok := s.products[r.ProductID]; !ok {
			return fmt.Errorf("insert price %s: product %s does not exist", r.ID, r.ProductID)
		}
	}
	for _, r := range cs.Insert {
		s.prices[r.ID] = r
	}
	for _, r := range cs.Update {
		s.prices[r.ID] = r
	}
	for _, id := range cs.Delete {
		delete(s.prices, id)
	}
	return nil
}

// ClearProducts drops every product and price.
func (s *MemoryStore) ClearProducts(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.prices)
	clear(s.products)
	return nil
}

func (s *MemoryStore) ClearPrices(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.prices)
	return nil
}

func sortedRows[T any](m map[string]T, id func(T) string) []T {
	out := slices.Collect(maps.Values(m))
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(id(a), id(b)) })
	return out
}
