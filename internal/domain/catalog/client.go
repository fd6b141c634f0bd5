package catalog

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/traceshop/backend/internal/infrastructure/config"
	"github.com/traceshop/backend/internal/infrastructure/resilience"
	"github.com/traceshop/backend/internal/shared/types"
)

// Client fetches catalog data from the upstream mock API. Requests go through
// a retrying transport, an OTel-instrumented round tripper, a rate limiter,
// and a circuit breaker, in that order.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// NewClient creates a catalog API client for the given base URL.
func NewClient(cfg config.CatalogConfig) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	// Trace outbound calls so catalog fetches show up as client spans
	// under whatever span is in the request context.
	transport := otelhttp.NewTransport(retryClient.HTTPClient.Transport)

	restyClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("User-Agent", "traceshop-backend/0.3").
		SetTransport(transport)

	breaker := resilience.New("catalog-upstream", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		resty:   restyClient,
		limiter: rate.NewLimiter(rate.Limit(50), 100),
		breaker: breaker,
	}
}

// ListProducts fetches the full product list.
func (c *Client) ListProducts(ctx context.Context) ([]types.Product, error) {
	var products []types.Product
	err := c.do(ctx, func() error {
		resp, err := c.resty.R().
			SetContext(ctx).
			SetResult(&products).
			Get("/products")
		if err != nil {
			return fmt.Errorf("catalog request failed: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return fmt.Errorf("catalog returned status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, id string) (*types.Product, error) {
	var product types.Product
	err := c.do(ctx, func() error {
		resp, err := c.resty.R().
			SetContext(ctx).
			SetResult(&product).
			SetPathParam("id", id).
			Get("/products/{id}")
		if err != nil {
			return fmt.Errorf("catalog request failed: %w", err)
		}
		if resp.StatusCode() == http.StatusNotFound {
			return ErrProductNotFound
		}
		if resp.StatusCode() != http.StatusOK {
			return fmt.Errorf("catalog returned status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// do applies the rate limit and circuit breaker around one upstream call.
func (c *Client) do(ctx context.Context, fn func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}
