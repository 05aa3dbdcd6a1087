package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/coffee-catalog/internal/domain/product"
	"github.com/xenking/coffee-catalog/internal/storage/dynamo"
	"github.com/xenking/coffee-catalog/internal/storage/memory"
	"github.com/xenking/coffee-catalog/internal/storage/postgres"
	"github.com/xenking/coffee-catalog/pkg/health"
)

// Store is a product.Store that can report its own reachability.
type Store interface {
	product.Store
	health.Pinger
}

type memoryStore struct {
	*memory.Store
}

func (memoryStore) Ping(context.Context) error { return nil }

// OpenStore connects the backend selected by cfg.Backend. The returned close
// function releases its resources and is never nil.
func OpenStore(ctx context.Context, lg *zap.Logger, cfg *Config, tp trace.TracerProvider) (Store, func(), error) {
	switch cfg.Backend {
	case BackendDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg.Region, cfg.Endpoint)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create dynamodb client")
		}
		lg.Info("Using DynamoDB store",
			zap.String("table", cfg.Table),
			zap.String("region", cfg.Region),
			zap.String("endpoint", cfg.Endpoint),
		)
		return dynamo.New(client, cfg.Table, dynamo.WithTracerProvider(tp)), func() {}, nil

	case BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		lg.Info("Using PostgreSQL store")
		return postgres.NewProductStore(pool), pool.Close, nil

	case BackendMemory:
		lg.Warn("Using in-memory store, data is lost on restart")
		return memoryStore{memory.New()}, func() {}, nil

	default:
		return nil, nil, errors.Errorf("unknown backend %q", cfg.Backend)
	}
}
