// Package analyticsapi wraps the remote analytics API. Every call checks the
// {success, <key>, meta?} envelope and fails hard on a malformed shape.
// There are no retries: failures propagate to the caller unchanged.
package analyticsapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"holder-analytics/internal/domain"
	"holder-analytics/internal/normalization"
	"holder-analytics/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "holder-analytics/1.0"
	APIPrefix        = "/v3"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 32 << 20
)

// Client calls the analytics API over HTTP.
type Client struct {
	baseURL   string
	client    *http.Client
	token     string
	apiKey    string
	userAgent string
	logger    *zap.Logger
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithBearerToken sends Authorization: Bearer <token>.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithAPIKey sends X-API-Key: <key>.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is a decoded response body. Numbers are json.Number.
type envelope map[string]any

// meta returns the optional meta block.
func (e envelope) meta() map[string]any {
	m, _ := e["meta"].(map[string]any)
	return m
}

// do performs one request and validates the envelope. key is the domain key
// that must be present and non-null.
func (c *Client) do(ctx context.Context, section domain.Section, method, path string, query url.Values, body any, key string) (env envelope, err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = outcomeOf(err)
		}
		observability.RecordAPIRequest(string(section), key, outcome, time.Since(start).Seconds())
		c.logger.Debug("analytics api call",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("outcome", outcome),
		)
	}()

	fail := func(status int, msg string, cause error) error {
		return &APIError{Method: method, Path: path, StatusCode: status, Message: msg, Err: cause}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fail(0, "", fmt.Errorf("%w: %w", ErrTransport, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fail(resp.StatusCode, "", fmt.Errorf("%w: read response: %w", ErrTransport, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fail(resp.StatusCode, snippet(respBody), ErrUnexpectedStatus)
	}

	raw, err := normalization.DecodeAny(respBody)
	if err != nil {
		return nil, fail(resp.StatusCode, "invalid json", fmt.Errorf("%w: %w", ErrMalformedResponse, err))
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fail(resp.StatusCode, "body is not an object", ErrMalformedResponse)
	}
	env = envelope(obj)

	success, ok := env["success"].(bool)
	if !ok {
		return nil, fail(resp.StatusCode, "missing success flag", ErrMalformedResponse)
	}
	if !success {
		return nil, fail(resp.StatusCode, upstreamMessage(env), ErrUnsuccessful)
	}
	if v, ok := env[key]; !ok || v == nil {
		return nil, fail(resp.StatusCode, fmt.Sprintf("missing %q", key), ErrMalformedResponse)
	}

	return env, nil
}

// get issues GET /v3/<section>/<resource>.
func (c *Client) get(ctx context.Context, section domain.Section, resource domain.Resource, query url.Values) (envelope, error) {
	path := fmt.Sprintf("%s/%s/%s", APIPrefix, section, resource)
	return c.do(ctx, section, http.MethodGet, path, query, nil, string(resource))
}

// upstreamMessage extracts an error message from a failed envelope.
func upstreamMessage(env envelope) string {
	for _, k := range []string{"message", "error"} {
		switch v := env[k].(type) {
		case string:
			return v
		case map[string]any:
			if msg, ok := v["message"].(string); ok {
				return msg
			}
		}
	}
	return ""
}

func snippet(body []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrUnexpectedStatus):
		return "status"
	case errors.Is(err, ErrUnsuccessful):
		return "unsuccessful"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "error"
	}
}
