package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rendis/routeview/internal/model"
)

const (
	defaultAttempts = 3
	baseBackoff     = 500 * time.Millisecond
	maxBackoff      = 10 * time.Second
	jitterFactor    = 0.5

	// maxErrorBody caps how much of a failed response is kept for the message.
	maxErrorBody = 512
)

// StatusError is a non-2xx response from the backend.
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

// Temporary reports whether retrying the request could succeed.
func (e *StatusError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Client talks to the routing backend.
type Client struct {
	base     *url.URL
	http     *http.Client
	attempts int
	backoff  time.Duration
	retries  atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the fingerprinting transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry sets the attempt count and the first backoff delay.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

// NewClient returns a client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing API url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("API url %q must be http or https", baseURL)
	}

	c := &Client{
		base:     base,
		http:     NewHTTPClient(timeout),
		attempts: defaultAttempts,
		backoff:  baseBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// HTTPClient exposes the underlying client so other downloads share the
// transport.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Retries returns how many requests have been retried since creation.
func (c *Client) Retries() int64 {
	return c.retries.Load()
}

// Cities fetches the city catalog.
func (c *Client) Cities(ctx context.Context) ([]model.City, error) {
	body, err := c.Get(ctx, c.endpoint("cities", nil))
	if err != nil {
		return nil, fmt.Errorf("fetching cities: %w", err)
	}
	var resp model.CatalogResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding cities: %w", err)
	}
	return resp.Cities, nil
}

// Route asks the backend for a route. A well-formed answer with ok:false is
// returned without error; the caller decides how to present it.
func (c *Client) Route(ctx context.Context, q model.RouteQuery) (*model.RouteResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	alg, err := model.NormalizeAlgorithm(q.Alg)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("src", strings.TrimSpace(q.Src))
	params.Set("dst", strings.TrimSpace(q.Dst))
	params.Set("alg", alg)

	body, err := c.Get(ctx, c.endpoint("route", params))
	if err != nil {
		return nil, fmt.Errorf("fetching route: %w", err)
	}
	var res model.RouteResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decoding route: %w", err)
	}
	return &res, nil
}

// URL resolves path against the API root.
func (c *Client) URL(path string) string {
	return c.endpoint(path, nil)
}

func (c *Client) endpoint(path string, params url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + path
	if params != nil {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

// Get fetches reqURL, retrying temporary failures with exponential backoff
// and jitter.
func (c *Client) Get(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error
	for attempt := range c.attempts {
		body, err := c.doRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var se *StatusError
		if !errors.As(err, &se) || !se.Temporary() || attempt == c.attempts-1 {
			return nil, err
		}
		c.retries.Add(1)

		backoff := c.backoff * time.Duration(1<<uint(attempt))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		jitter := time.Duration(float64(backoff) * jitterFactor * rand.Float64())

		timer := time.NewTimer(backoff + jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "routeview/0.1")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}
