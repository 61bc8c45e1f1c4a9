package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/timi-go/internal/core/domain"
	"github.com/yndnr/timi-go/internal/infra/buildinfo"
	"github.com/yndnr/timi-go/internal/telemetry/logger"
	"github.com/yndnr/timi-go/internal/telemetry/metric"
)

// DefaultTimeout applies when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// HeaderClientID carries the client instance ID.
const HeaderClientID = "X-Client-ID"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// HTTPClient provides HTTP communication with the backend.
type HTTPClient struct {
	baseURL  string
	client   *http.Client
	clientID string
	metrics  *metric.Registry
	logger   logger.Logger
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithClientID sets the X-Client-ID header value.
func WithClientID(id string) ClientOption {
	return func(c *HTTPClient) {
		c.clientID = id
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metric.Registry) ClientOption {
	return func(c *HTTPClient) {
		c.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) ClientOption {
	return func(c *HTTPClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *HTTPClient) {
		c.client.Transport = rt
	}
}

// NewHTTPClient creates a new HTTP client.
func NewHTTPClient(server string, opts ...ClientOption) *HTTPClient {
	baseURL := strings.TrimRight(strings.TrimSpace(server), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	c := &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path, token string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, path, token, nil)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, path, token string, body any) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, path, token, body)
}

// Do sends one request. A non-empty token is sent as a bearer credential.
// The caller closes the response body.
func (c *HTTPClient) Do(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.addHeaders(req, token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)

	endpoint := method + " " + path
	if err != nil {
		c.metrics.ObserveBackend(endpoint, 0, elapsed)
		c.logger.Debug("backend request failed", "endpoint", endpoint, "error", err)
		return nil, domain.ErrBackend.WithDetails(endpoint).WithCause(err)
	}

	c.metrics.ObserveBackend(endpoint, resp.StatusCode, elapsed)
	c.logger.Debug("backend request",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"elapsed", elapsed,
	)
	return resp, nil
}

func (c *HTTPClient) addHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if c.clientID != "" {
		req.Header.Set(HeaderClientID, c.clientID)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// APIError is a non-2xx backend response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Detail)
}

// ParseResponse decodes a 2xx JSON body into target, or returns *APIError.
// The body is always closed.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Status: resp.StatusCode, Detail: parseDetail(raw)}
	}

	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return domain.ErrBackend.WithDetails("parse response").WithCause(err)
	}
	return nil
}

// parseDetail reads FastAPI's {"detail": ...}, where detail is a string or a
// list of {"msg": ...} validation items.
func parseDetail(raw []byte) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if len(it.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
			} else {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return body.Message
}

// statusOf returns the HTTP status of an *APIError, or 0.
func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// detailOf returns the detail of an *APIError, or "".
func detailOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// backendError maps anything unexpected to ErrBackend.
func backendError(endpoint string, err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return domain.ErrBackend.WithDetails(endpoint).WithCause(err)
}
