// Package memory provides an in-process product.Store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xenking/coffee-catalog/internal/domain/product"
)

var _ product.Store = (*Store)(nil)

// Store is a thread-safe map-backed product.Store. Scan returns items in
// insertion order.
type Store struct {
	mu    sync.RWMutex
	items map[string]product.Product
	order []string
}

// New constructs an empty Store.
func New() *Store {
	return &Store{items: make(map[string]product.Product)}
}

// Put creates or replaces the item with p.ID.
func (s *Store) Put(ctx context.Context, p product.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[p.ID]; !exists {
		s.order = append(s.order, p.ID)
	}
	s.items[p.ID] = p
	return nil
}

// Get returns the item with the given id.
func (s *Store) Get(ctx context.Context, id string) (product.Product, bool, error) {
	if err := ctx.Err(); err != nil {
		return product.Product{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.items[id]
	return p, ok, nil
}

// Scan returns a snapshot of all items.
func (s *Store) Scan(ctx context.Context) ([]product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]product.Product, 0, len(s.items))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out, nil
}

// Update applies changes to an existing item under the write lock.
func (s *Store) Update(ctx context.Context, id string, changes []product.Change, updatedAt time.Time) (product.Product, bool, error) {
	if err := ctx.Err(); err != nil {
		return product.Product{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.items[id]
	if !ok {
		return product.Product{}, false, nil
	}
	p = product.Apply(p, changes, updatedAt)
	s.items[id] = p
	return p, true, nil
}

// Delete removes an existing item.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
