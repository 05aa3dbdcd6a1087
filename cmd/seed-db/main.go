package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/xenking/coffee-catalog/db"
	"github.com/xenking/coffee-catalog/internal/app"
	"github.com/xenking/coffee-catalog/internal/domain/product"
	"github.com/xenking/coffee-catalog/internal/seed"
	"github.com/xenking/coffee-catalog/internal/storage/dynamo"
)

func main() {
	var (
		productsFile string
		concurrency  int
		createTable  bool
		force        bool
	)

	flag.StringVar(&productsFile, "products-file", "", "catalog JSON file, optionally .gz (default: embedded catalog)")
	flag.IntVar(&concurrency, "concurrency", 8, "maximum concurrent writes")
	flag.BoolVar(&createTable, "create-table", true, "create the DynamoDB table when missing")
	flag.BoolVar(&force, "force", false, "seed even when the store already holds products")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, productsFile, concurrency, createTable, force); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed successfully")
}

func run(ctx context.Context, lg *zap.Logger, productsFile string, concurrency int, createTable, force bool) error {
	cfg, err := app.LoadEnvConfig()
	if err != nil {
		return err
	}

	data := db.SeedProducts
	if productsFile != "" {
		if data, err = readCatalog(productsFile); err != nil {
			return err
		}
	}
	reqs, err := seed.Parse(data)
	if err != nil {
		return errors.Wrap(err, "parse catalog")
	}
	lg.Info("Loaded catalog", zap.Int("count", len(reqs)), zap.String("backend", cfg.Backend))

	// OpenStore runs the PostgreSQL DDL; DynamoDB needs the table created
	// explicitly.
	if cfg.Backend == app.BackendDynamoDB && createTable {
		client, err := dynamo.NewClient(ctx, cfg.Region, cfg.Endpoint)
		if err != nil {
			return errors.Wrap(err, "create dynamodb client")
		}
		lg.Info("Ensuring table exists", zap.String("table", cfg.Table))
		if err := dynamo.New(client, cfg.Table).CreateTable(ctx, 2*time.Minute); err != nil {
			return err
		}
	}

	store, closeStore, err := app.OpenStore(ctx, lg, cfg, otel.GetTracerProvider())
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer closeStore()

	n, err := seed.Seed(ctx, lg, product.NewService(store), reqs, seed.Options{
		Concurrency: concurrency,
		Force:       force,
	})
	if err != nil {
		return errors.Wrap(err, "seed products")
	}
	lg.Info("Seeded products", zap.Int("created", n))
	return nil
}

func readCatalog(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	r, err := seed.Open(f, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return data, nil
}
