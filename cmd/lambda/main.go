// Command lambda serves the product API as a single AWS Lambda function behind
// an API Gateway proxy integration.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/xenking/coffee-catalog/internal/app"
	"github.com/xenking/coffee-catalog/internal/domain/product"
	"github.com/xenking/coffee-catalog/internal/handler"
)

func main() {
	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	// Clients are built once per execution environment and reused across
	// invocations.
	ctx := zctx.Base(context.Background(), lg)

	cfg, err := app.LoadEnvConfig()
	if err != nil {
		lg.Fatal("Load config", zap.Error(err))
	}
	store, closeStore, err := app.OpenStore(ctx, lg, cfg, otel.GetTracerProvider())
	if err != nil {
		lg.Fatal("Open store", zap.Error(err))
	}
	defer closeStore()

	h, err := handler.New(product.NewService(store),
		handler.WithMeterProvider(otel.GetMeterProvider()),
	)
	if err != nil {
		lg.Fatal("Create handler", zap.Error(err))
	}

	lambda.StartWithOptions(h.Lambda, lambda.WithContext(ctx))
}
