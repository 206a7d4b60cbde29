package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"openproject-mcp-server/internal/domain"
)

// OpenProjectClient talks to the OpenProject API v3. It holds no state
// beyond the HTTP client and the rate limiter and is safe for concurrent use.
type OpenProjectClient struct {
	baseURL    string
	apiURL     string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *ClientMetrics
	logger     *slog.Logger
}

// ClientOption customises an OpenProjectClient.
type ClientOption func(*OpenProjectClient)

// WithRateLimit caps outbound requests per second. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *OpenProjectClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLimiter shares an existing limiter; nil disables rate limiting.
func WithLimiter(l *rate.Limiter) ClientOption {
	return func(c *OpenProjectClient) {
		c.limiter = l
	}
}

// WithMetrics records every request in m.
func WithMetrics(m *ClientMetrics) ClientOption {
	return func(c *OpenProjectClient) {
		c.metrics = m
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *OpenProjectClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewOpenProjectClient creates a client for the instance at baseURL
// (e.g. "https://openproject.example.com"). httpClient should carry the
// credentials; see domain.AuthenticationManager.
func NewOpenProjectClient(baseURL string, httpClient *http.Client, opts ...ClientOption) *OpenProjectClient {
	trimmed := strings.TrimRight(baseURL, "/")
	c := &OpenProjectClient{
		baseURL:    trimmed,
		apiURL:     trimmed + domain.APIBasePath,
		httpClient: httpClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured instance URL.
func (c *OpenProjectClient) BaseURL() string {
	return c.baseURL
}

// Do executes a prepared request with the JSON headers set.
func (c *OpenProjectClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/hal+json, application/json")
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// call sends one request and returns the body of a success response.
// Non-2xx responses become *domain.APIError with the body preserved.
func (c *OpenProjectClient) call(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	endpoint := c.apiURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resource := resourceLabel(path)
	start := time.Now()
	resp, err := c.Do(req)
	if err != nil {
		c.metrics.observe(method, resource, 0, time.Since(start))
		return nil, &domain.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.metrics.observe(method, resource, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &domain.TransportError{Op: method + " " + path, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("openproject request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.NewAPIError(resp.StatusCode, data)
	}

	return data, nil
}

// list fetches one window of a collection. The filters parameter is only
// sent when the filter has predicates.
func (c *OpenProjectClient) list(ctx context.Context, path string, filter *domain.Filter, page domain.Page, extra url.Values) (*domain.Envelope, error) {
	query := url.Values{}
	for k, vs := range extra {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	if encoded, ok := filter.Encode(); ok {
		query.Set("filters", encoded)
	}
	page.Apply(query)

	data, err := c.call(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	return domain.DecodeEnvelope(data)
}

// listInto fetches a collection and decodes its elements as T.
func listInto[T domain.Identified](ctx context.Context, c *OpenProjectClient, path, resource string, filter *domain.Filter, page domain.Page) (*domain.Collection[T], error) {
	env, err := c.list(ctx, path, filter, page, nil)
	if err != nil {
		return nil, err
	}
	return domain.DecodeCollection[T](env, resource)
}

// getInto fetches a single resource and decodes it as T.
func getInto[T domain.Identified](ctx context.Context, c *OpenProjectClient, path, resource string) (*T, error) {
	data, err := c.call(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return domain.DecodeResource[T](data, resource)
}

// sendInto issues a write request and decodes the returned resource as T.
func sendInto[T domain.Identified](ctx context.Context, c *OpenProjectClient, method, path, resource string, body any) (*T, error) {
	data, err := c.call(ctx, method, path, nil, body)
	if err != nil {
		return nil, err
	}
	return domain.DecodeResource[T](data, resource)
}

// remove issues a DELETE. A missing id surfaces as the service's 404.
func (c *OpenProjectClient) remove(ctx context.Context, path string) error {
	_, err := c.call(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// Root returns the API root, used as a connectivity check.
func (c *OpenProjectClient) Root(ctx context.Context) (*domain.Root, error) {
	data, err := c.call(ctx, http.MethodGet, "", nil, nil)
	if err != nil {
		return nil, err
	}
	var root domain.Root
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to decode API root: %w", err)
	}
	return &root, nil
}

// resourceLabel is the first path segment, used as a metrics label.
func resourceLabel(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return "root"
	}
	if idx := strings.Index(trimmed, "/"); idx != -1 {
		return trimmed[:idx]
	}
	return trimmed
}

// idPath joins a collection path and an id.
func idPath(collection string, id int) string {
	return fmt.Sprintf("/%s/%d", collection, id)
}
