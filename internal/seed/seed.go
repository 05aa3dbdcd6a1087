// Package seed loads a product catalog file and writes it through the
// product service, so seeded items pass the same validation and get the same
// ids and timestamps as items created over the API.
package seed

import (
	"context"
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/coffee-catalog/internal/domain/product"
)

// Creator is the subset of product.Service used for seeding.
type Creator interface {
	Create(ctx context.Context, req product.CreateRequest) (product.Product, error)
	GetAll(ctx context.Context) ([]product.Product, error)
}

var _ Creator = (*product.Service)(nil)

// Open wraps r in a parallel gzip reader when name ends in ".gz".
func Open(r io.Reader, name string) (io.ReadCloser, error) {
	if !strings.HasSuffix(name, ".gz") {
		return io.NopCloser(r), nil
	}
	gz, err := pgzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrapf(err, "create gzip reader for %s", name)
	}
	return gz, nil
}

// Parse decodes a JSON array of product objects and validates each element as
// a create request. The error of the first invalid element names its index.
func Parse(data []byte) ([]product.CreateRequest, error) {
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Array {
		return nil, errors.New("catalog must be a JSON array")
	}

	var (
		reqs []product.CreateRequest
		idx  int
	)
	if err := d.Arr(func(d *jx.Decoder) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		in, err := product.ParseInput(raw)
		if err != nil {
			return errors.Wrapf(err, "item %d", idx)
		}
		req, err := product.ValidateCreate(in)
		if err != nil {
			return errors.Wrapf(err, "item %d", idx)
		}
		reqs = append(reqs, req)
		idx++
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	return reqs, nil
}

// Options control a seeding run.
type Options struct {
	// Concurrency bounds in-flight creates. Values below 1 mean 1.
	Concurrency int
	// Force seeds even when the store already holds products.
	Force bool
}

// Seed creates every request through c and returns how many were written.
// A non-empty store is left untouched unless opts.Force is set.
func Seed(ctx context.Context, lg *zap.Logger, c Creator, reqs []product.CreateRequest, opts Options) (int, error) {
	if !opts.Force {
		existing, err := c.GetAll(ctx)
		if err != nil {
			return 0, errors.Wrap(err, "list existing products")
		}
		if len(existing) > 0 {
			lg.Info("Store already seeded, skipping", zap.Int("existing", len(existing)))
			return 0, nil
		}
	}

	created := make([]product.Product, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))
	for i, req := range reqs {
		g.Go(func() error {
			p, err := c.Create(ctx, req)
			if err != nil {
				return errors.Wrapf(err, "create %q", req.Name)
			}
			created[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	for _, p := range created {
		lg.Info("Created product",
			zap.String("id", p.ID),
			zap.String("name", p.Name),
			zap.String("category", string(p.Category)),
		)
	}
	return len(created), nil
}
