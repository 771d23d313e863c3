package catalogapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/niksmo/storefront/internal/adapter/catalogapi"

	// upstream error bodies are cut to this size in error messages
	maxErrBody = 512
)

var (
	_ port.SourceFetcher = (*FakeStoreFetcher)(nil)
	_ port.SourceFetcher = (*DummyJSONFetcher)(nil)
)

type FakeStoreFetcher struct {
	client *http.Client
	url    string
}

func NewFakeStoreFetcher(client *http.Client, url string) *FakeStoreFetcher {
	return &FakeStoreFetcher{client: client, url: url}
}

func (f *FakeStoreFetcher) Source() domain.Source {
	return domain.SourceFakeStore
}

func (f *FakeStoreFetcher) Fetch(ctx context.Context) ([]domain.Product, error) {
	const op = "FakeStoreFetcher.Fetch"

	var raw []catalog.FakeStoreProduct
	if err := getJSON(ctx, f.client, f.url, op, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return catalog.FromFakeStore(raw), nil
}

type DummyJSONFetcher struct {
	client *http.Client
	url    string
}

func NewDummyJSONFetcher(client *http.Client, url string) *DummyJSONFetcher {
	return &DummyJSONFetcher{client: client, url: url}
}

func (f *DummyJSONFetcher) Source() domain.Source {
	return domain.SourceDummyJSON
}

func (f *DummyJSONFetcher) Fetch(ctx context.Context) ([]domain.Product, error) {
	const op = "DummyJSONFetcher.Fetch"

	var raw catalog.DummyJSONResponse
	if err := getJSON(ctx, f.client, f.url, op, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return catalog.FromDummyJSON(raw), nil
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

func getJSON(ctx context.Context, client *http.Client, url, spanName string, v any) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", url)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrBody))
		return &StatusError{StatusCode: res.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
