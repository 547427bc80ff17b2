// Package client is the shared HTTP pipeline to the admin REST API.
// Every request is authorized from the credential store and any 401 response
// ends the session for the whole process.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/llmadmin-dev/llmadmin/internal/cli/credentials"
	"github.com/llmadmin-dev/llmadmin/internal/cli/nav"
)

// Header names
const (
	HeaderAuthorization = "Authorization"
	HeaderAPIKey        = "X-API-Key"
	HeaderRequestID     = "X-Request-ID"

	bearerPrefix = "Bearer "
)

// Client represents an HTTP client for the admin API
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *credentials.Store
	navigator  nav.Navigator
	logger     zerolog.Logger
	metrics    *Metrics

	mu      sync.RWMutex
	headers http.Header
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithNavigator sets where a 401 sends the user
func WithNavigator(n nav.Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

// WithLogger sets the client logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l.With().Str("component", "api-client").Logger() }
}

// WithMetrics records request metrics
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates the API client. It is meant to be built once per process and
// passed to everything that talks to the API. Construction hydrates the
// default headers from the credential store.
func New(baseURL string, store *credentials.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		store:     store,
		navigator: nav.Discard,
		logger:    zerolog.Nop(),
		headers:   http.Header{},
	}
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("Accept", "application/json")

	for _, opt := range opts {
		opt(c)
	}

	c.initializeFromStore()
	return c
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) initializeFromStore() {
	creds := c.store.Credentials()

	c.mu.Lock()
	defer c.mu.Unlock()
	if creds.Token != "" {
		c.headers.Set(HeaderAuthorization, bearerPrefix+creds.Token)
	}
	if creds.APIKey != "" {
		c.headers.Set(HeaderAPIKey, creds.APIKey)
	}

	c.logger.Debug().
		Bool("has_token", creds.Token != "").
		Bool("has_api_key", creds.APIKey != "").
		Msg("Hydrated credentials from store")
}

// SetToken persists the session token and uses it for subsequent requests
func (c *Client) SetToken(token string) error {
	if err := c.store.Set(credentials.KeyToken, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	c.mu.Lock()
	c.headers.Set(HeaderAuthorization, bearerPrefix+token)
	c.mu.Unlock()
	return nil
}

// SetAPIKey persists the API key and uses it for subsequent requests
func (c *Client) SetAPIKey(apiKey string) error {
	if err := c.store.Set(credentials.KeyAPIKey, apiKey); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	c.mu.Lock()
	c.headers.Set(HeaderAPIKey, apiKey)
	c.mu.Unlock()
	return nil
}

// ClearAuth removes both persisted credentials and both default headers
func (c *Client) ClearAuth() error {
	c.mu.Lock()
	c.headers.Del(HeaderAuthorization)
	c.headers.Del(HeaderAPIKey)
	c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

// authorize is the request interceptor. Defaults go on first, then whatever
// the store holds right now wins. Missing credentials just omit the header.
func (c *Client) authorize(req *http.Request) {
	c.mu.RLock()
	for k, vs := range c.headers {
		req.Header[k] = append([]string(nil), vs...)
	}
	c.mu.RUnlock()

	creds := c.store.Credentials()
	if creds.Token != "" {
		req.Header.Set(HeaderAuthorization, bearerPrefix+creds.Token)
	}
	if creds.APIKey != "" {
		req.Header.Set(HeaderAPIKey, creds.APIKey)
	}

	req.Header.Set(HeaderRequestID, ulid.Make().String())
}

// handleUnauthorized is the response interceptor for 401. It does not care
// which endpoint answered and is safe to run once per failing request.
func (c *Client) handleUnauthorized(req *http.Request) {
	c.logger.Warn().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Msg("Received 401, clearing credentials")

	if err := c.ClearAuth(); err != nil {
		c.logger.Error().Err(err).Msg("Failed to clear credentials after 401")
	}
	c.metrics.observeForcedLogout()
	c.navigator.Navigate(nav.RouteLogin)
}

// do performs an HTTP request and decodes the response.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observeRequest(method, 0)
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.metrics.observeRequest(method, resp.StatusCode)
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("request_id", req.Header.Get(HeaderRequestID)).
		Msg("API request")

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(req)
	}

	if resp.StatusCode >= 400 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// get performs a GET request.
func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// post performs a POST request.
func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// put performs a PUT request.
func (c *Client) put(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// patch performs a PATCH request.
func (c *Client) patch(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPatch, path, body, result)
}

// delete performs a DELETE request.
func (c *Client) delete(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodDelete, path, nil, result)
}
