package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Service maps validated requests onto Store operations. It owns identifier
// generation and timestamps and holds no other state, so a single instance
// can serve concurrent invocations.
type Service struct {
	store Store
	now   func() time.Time
	newID func(time.Time) string
}

// NewService creates a Service backed by the given Store.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		newID: NewID,
	}
}

// timestamp returns the current instant in UTC at millisecond precision, the
// resolution timestamps keep once they are stored as ISO-8601 text.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// Create persists a new product with a fresh identifier and equal creation
// and update timestamps. Availability defaults to true.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Product, error) {
	now := s.timestamp()

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	p := Product{
		ID:          s.newID(now),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Available:   available,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Put(ctx, p); err != nil {
		return Product{}, errors.Wrap(err, "put product")
	}
	return p, nil
}

// GetByID looks a product up by identifier. The boolean is false when no
// such product exists.
func (s *Service) GetByID(ctx context.Context, id string) (Product, bool, error) {
	p, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return Product{}, false, errors.Wrapf(err, "get product %q", id)
	}
	return p, ok, nil
}

// GetAll returns every stored product in store order. An empty store yields
// an empty, non-nil slice.
func (s *Service) GetAll(ctx context.Context) ([]Product, error) {
	products, err := s.store.Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "scan products")
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// Update applies the supplied fields of req to an existing product, refreshes
// UpdatedAt and returns the full stored item. The boolean is false when the
// product does not exist; in that case nothing is written.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Product, bool, error) {
	if _, ok, err := s.GetByID(ctx, id); err != nil || !ok {
		return Product{}, false, err
	}

	p, ok, err := s.store.Update(ctx, id, req.Changes(), s.timestamp())
	if err != nil {
		return Product{}, false, errors.Wrapf(err, "update product %q", id)
	}
	return p, ok, nil
}

// Delete removes an existing product. It returns false without issuing a
// delete when the product does not exist.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok, err := s.GetByID(ctx, id); err != nil || !ok {
		return false, err
	}

	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, errors.Wrapf(err, "delete product %q", id)
	}
	return ok, nil
}
