// Package handler maps product operations onto the JSON response envelope and
// exposes them over AWS Lambda (API Gateway proxy events) and plain HTTP.
package handler

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/coffee-catalog/internal/domain/product"
)

// Products is the catalog service consumed by the handlers.
type Products interface {
	Create(ctx context.Context, req product.CreateRequest) (product.Product, error)
	GetByID(ctx context.Context, id string) (product.Product, bool, error)
	GetAll(ctx context.Context) ([]product.Product, error)
	Update(ctx context.Context, id string, req product.UpdateRequest) (product.Product, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

var _ Products = (*product.Service)(nil)

// Operation names used in logs and metrics.
const (
	OpCreate = "create"
	OpGet    = "get"
	OpList   = "list"
	OpUpdate = "update"
	OpDelete = "delete"
	OpRoute  = "route"
)

// Handler serves the five product operations. It holds no per-request state
// and is safe for concurrent use.
type Handler struct {
	products Products
	requests metric.Int64Counter
}

// Option configures a Handler.
type Option func(*options)

type options struct {
	meterProvider metric.MeterProvider
}

// WithMeterProvider sets the meter provider for request counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// New creates a Handler over the given service.
func New(products Products, opts ...Option) (*Handler, error) {
	o := options{meterProvider: otel.GetMeterProvider()}
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.meterProvider.Meter("github.com/xenking/coffee-catalog/internal/handler")
	requests, err := meter.Int64Counter("products.requests",
		metric.WithDescription("Product API requests by operation and status code"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create requests counter")
	}

	return &Handler{
		products: products,
		requests: requests,
	}, nil
}

func (h *Handler) record(ctx context.Context, op string, resp Response) Response {
	h.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.Int("status", resp.StatusCode),
	))
	return resp
}
