package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/niksmo/storefront/internal/core/catalog"

var ErrNoSources = errors.New("no catalog sources configured")

var _ port.CatalogLoader = (*Normalizer)(nil)

// A Normalizer loads every configured source and merges them into one
// catalog.
//
// The result preserves fetcher order regardless of which fetch completes
// first. A failure of any source fails the whole load.
type Normalizer struct {
	fetchers []port.SourceFetcher
	timeout  time.Duration
}

// NewNormalizer returns a normalizer over fetchers.
//
// A zero timeout disables the load deadline.
func NewNormalizer(timeout time.Duration, fetchers ...port.SourceFetcher) *Normalizer {
	return &Normalizer{fetchers: fetchers, timeout: timeout}
}

func (n *Normalizer) LoadCatalog(ctx context.Context) ([]domain.Product, error) {
	const op = "Normalizer.LoadCatalog"
	log := slog.With("op", op)

	if len(n.fetchers) == 0 {
		return nil, fmt.Errorf("%s: %w", op, &domain.CatalogLoadError{Err: ErrNoSources})
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, op)
	defer span.End()

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	results := make([][]domain.Product, len(n.fetchers))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range n.fetchers {
		g.Go(func() error {
			ps, err := f.Fetch(gctx)
			if err != nil {
				return &domain.CatalogLoadError{Source: f.Source(), Err: err}
			}
			results[i] = ps
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		// a fetcher ignoring cancellation must not hang the load
		err = &domain.CatalogLoadError{Err: ctx.Err()}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("failed to load catalog", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var total int
	for _, ps := range results {
		total += len(ps)
	}
	products := make([]domain.Product, 0, total)
	for _, ps := range results {
		products = append(products, ps...)
	}

	span.SetAttributes(attribute.Int("catalog.products", total))
	log.Info("catalog loaded", "nProducts", total)
	return products, nil
}
