// Package downstream calls other services with the trace context propagated.
package downstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	client *http.Client
}

type Option func(*options)

type options struct {
	timeout time.Duration
	otel    []otelhttp.Option
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

func WithOTelOptions(opts ...otelhttp.Option) Option {
	return func(o *options) {
		o.otel = append(o.otel, opts...)
	}
}

func New(opts ...Option) *Client {
	o := &options{
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Client{
		client: &http.Client{
			Timeout:   o.timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport, o.otel...),
		},
	}
}

// Get requests url and returns the status code. The body is discarded.
// A non-2xx status is returned together with an error.
func (c *Client) Get(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("downstream: new request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("downstream: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return resp.StatusCode, fmt.Errorf("downstream: read %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("downstream: get %s: unexpected status %d", url, resp.StatusCode)
	}

	return resp.StatusCode, nil
}
