package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter/cartstorage"
	"github.com/niksmo/storefront/internal/adapter/catalogapi"
	"github.com/niksmo/storefront/internal/adapter/terminal"
	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/storefront"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/niksmo/storefront/pkg/sigctx"
	"github.com/niksmo/storefront/pkg/telemetry"
)

const closeTimeout = 5 * time.Second

func main() {
	sigCtx, stop := sigctx.NotifyContext()
	defer stop()

	cfg := config.Load()
	initLogger(cfg.LogLevel)

	if err := cfg.ValidateStorefront(); err != nil {
		die("main.validateConfig", err)
	}

	shutdownTracing, err := telemetry.Setup(sigCtx, telemetry.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Insecure:     cfg.Telemetry.Insecure,
		SampleRatio:  cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		die("main.initTelemetry", err)
	}

	httpClient := &http.Client{Timeout: cfg.Catalog.FetchTimeout}
	normalizer := catalog.NewNormalizer(
		cfg.Catalog.FetchTimeout,
		catalogapi.NewFakeStoreFetcher(httpClient, cfg.Catalog.FakeStoreURL),
		catalogapi.NewDummyJSONFetcher(httpClient, cfg.Catalog.DummyJSONURL),
	)
	state := catalog.NewState()

	cartStorage, closeStorage := createCartStorage(sigCtx, cfg)
	defer closeStorage()

	shoppingCart := cart.Open(sigCtx, state, cartStorage, cfg.Cart.Key)

	view := terminal.NewView(os.Stdout)
	coordinator := storefront.NewCoordinator(normalizer, state, shoppingCart, view)
	defer coordinator.Close()

	err = coordinator.LoadCatalogWithRetry(sigCtx, retry.RetryConfig{
		MaxAttempts: cfg.Catalog.RetryAttempts,
		Backoff:     retry.LinearBackoff(cfg.Catalog.RetryDelay),
	})
	if err != nil {
		slog.Warn("catalog is not loaded", "err", err)
	}

	repl := terminal.NewREPL(coordinator, view, os.Stdin)
	if err := repl.Run(sigCtx); err != nil {
		slog.Error("terminal session failed", "err", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		slog.Error("failed to shutdown tracing", "err", err)
	}
}

func initLogger(level slog.Leveler) {
	opts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func createCartStorage(
	ctx context.Context, cfg config.Config,
) (port.CartStorage, func()) {
	const op = "main.createCartStorage"

	switch cfg.Cart.Backend {
	case config.CartBackendRedis:
		rc := cfg.Cart.Redis
		client, err := cartstorage.NewRedisClient(ctx, rc.Addr, rc.Password, rc.DB)
		if err != nil {
			die(op, err)
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				slog.Error("failed to close redis client", "op", op, "err", err)
			}
		}
		return cartstorage.NewRedisStorage(client, rc.Prefix, rc.TTL), closeFn
	default:
		s, err := cartstorage.NewFileStorage(cfg.Cart.Dir)
		if err != nil {
			die(op, err)
		}
		return s, func() {}
	}
}

func die(op string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", op, err)
	os.Exit(2)
}
