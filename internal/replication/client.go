package replication

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/skyharbor-io/opsdeck/internal/infrastructure/resilience"
)

// ErrDuplicate indicates an insert hit an existing primary key.
var ErrDuplicate = errors.New("duplicate key")

// Row is one record in wire form.
type Row = map[string]any

// Client is the row-oriented interface to the remote store. Filters are
// equality matches on the named fields.
type Client interface {
	Select(ctx context.Context, collection string, filter map[string]string) ([]Row, error)
	Insert(ctx context.Context, collection string, row Row) error
	// Update returns the number of rows matched by the filter.
	Update(ctx context.Context, collection string, filter map[string]string, row Row) (int, error)
	Delete(ctx context.Context, collection string, filter map[string]string) error
}

// RESTClient talks to the remote store over its REST row interface.
// Calls are routed through a circuit breaker so a dead backend fails
// fast instead of stacking up timeouts.
type RESTClient struct {
	http    *resty.Client
	breaker *resilience.Breaker
}

// RESTOption customizes a RESTClient.
type RESTOption func(*RESTClient)

// WithRetries swaps the underlying transport for a retrying one. Only the
// read-only polling client uses this; push traffic is deliberately
// single-shot.
func WithRetries(max int) RESTOption {
	return func(c *RESTClient) {
		rc := retryablehttp.NewClient()
		rc.RetryMax = max
		rc.Logger = nil
		base := c.http.BaseURL
		headers := c.http.Header
		timeout := c.http.GetClient().Timeout
		c.http = resty.NewWithClient(rc.StandardClient()).SetBaseURL(base)
		c.http.Header = headers
		c.http.SetTimeout(timeout)
	}
}

// NewRESTClient creates a client for the given base URL. The API key is
// sent on every request when non-empty.
func NewRESTClient(baseURL, apiKey string, timeout time.Duration, opts ...RESTOption) *RESTClient {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		httpClient.SetHeader("Authorization", "Bearer "+apiKey)
	}

	c := &RESTClient{
		http: httpClient,
		breaker: resilience.New("remote-store", resilience.Settings{
			Threshold: 5,
			Cooldown:  15 * time.Second,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Select fetches rows matching the filter.
func (c *RESTClient) Select(ctx context.Context, collection string, filter map[string]string) ([]Row, error) {
	var rows []Row
	err := c.breaker.Do(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(filter).
			Get("/" + collection)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("select %s: remote returned %s", collection, resp.Status())
		}
		return sonic.Unmarshal(resp.Body(), &rows)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Insert creates a row. A duplicate-key response maps to ErrDuplicate.
func (c *RESTClient) Insert(ctx context.Context, collection string, row Row) error {
	return c.breaker.Do(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(row).
			Post("/" + collection)
		if err != nil {
			return err
		}
		if resp.StatusCode() == http.StatusConflict {
			return fmt.Errorf("insert %s: %w", collection, ErrDuplicate)
		}
		if resp.IsError() {
			return fmt.Errorf("insert %s: remote returned %s", collection, resp.Status())
		}
		return nil
	})
}

// Update patches rows matching the filter and reports how many matched.
func (c *RESTClient) Update(ctx context.Context, collection string, filter map[string]string, row Row) (int, error) {
	var matched int
	err := c.breaker.Do(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(filter).
			SetBody(row).
			Patch("/" + collection)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("update %s: remote returned %s", collection, resp.Status())
		}

		// The store echoes the patched rows back as a JSON array.
		var updated []Row
		if err := sonic.Unmarshal(resp.Body(), &updated); err != nil {
			return fmt.Errorf("update %s: malformed response: %w", collection, err)
		}
		matched = len(updated)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return matched, nil
}

// Delete removes rows matching the filter.
func (c *RESTClient) Delete(ctx context.Context, collection string, filter map[string]string) error {
	return c.breaker.Do(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(filter).
			Delete("/" + collection)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("delete %s: remote returned %s", collection, resp.Status())
		}
		return nil
	})
}
