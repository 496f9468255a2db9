package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/jamesprial/opus-actions/internal/config"
)

const (
	defaultTimeout = 30 * time.Second
	// maxErrorBody bounds how much of a non-2xx body is kept for diagnosis.
	maxErrorBody = 4 << 10
)

// ErrUnauthorized is wrapped by the TransportError returned for HTTP 401.
var ErrUnauthorized = errors.New("authentication failed")

var defaultHeaders = map[string]string{
	"Accept":     "application/json",
	"User-Agent": "opus-actions/1.0",
}

// HTTPClient is a concrete implementation of the Client interface that sends
// GraphQL requests over HTTP. Its configuration is fixed at construction, so
// a single instance may be shared between goroutines.
type HTTPClient struct {
	httpClient *http.Client
	graphqlURL string
	headers    map[string]string
	// headerNames is logged instead of headers, whose values are credentials.
	headerNames []string
	timeout     time.Duration
	logger      *zap.Logger
}

// Option customises an HTTPClient at construction.
type Option func(*HTTPClient)

// WithHTTPClient replaces the pooled transport built from the config. The
// caller's client timeout is used as-is.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *HTTPClient) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger used for request tracing at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewHTTPClient constructs an HTTPClient from the provided GraphQLConfig.
// It returns an error if cfg.URL is empty or not an http(s) URL. When
// cfg.Timeout is zero or negative, a default timeout of 30 seconds is used.
// The header set is copied; later changes to cfg do not affect the client.
func NewHTTPClient(cfg config.GraphQLConfig, opts ...Option) (*HTTPClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("graphql: URL is required")
	}

	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("graphql: parse URL %q: %w", cfg.URL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("graphql: URL must use http or https scheme, got %q", parsed.Scheme)
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &HTTPClient{
		graphqlURL: strings.TrimSuffix(cfg.URL, "/"),
		headers:    lo.Assign(defaultHeaders, cfg.RequestHeaders()),
		timeout:    timeout,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.headerNames = lo.Keys(c.headers)
	slices.Sort(c.headerNames)

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: cleanhttp.DefaultPooledTransport(),
			Timeout:   timeout,
		}
	} else if c.httpClient.Timeout > 0 {
		c.timeout = c.httpClient.Timeout
	}

	return c, nil
}

// URL returns the endpoint the client posts to: the configured URL less at
// most one trailing slash.
func (c *HTTPClient) URL() string {
	return c.graphqlURL
}

// graphqlRequest is the JSON body shape for a GraphQL HTTP request.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Execute sends a GraphQL operation to the configured endpoint and returns
// the decoded envelope. Variables may be nil, in which case the "variables"
// key is omitted from the request body.
//
// GraphQL-level errors are not treated as failures here; they are returned
// in Response.Errors for the caller to interpret. Execute returns:
//   - *TimeoutError if no response arrives before the client timeout or the
//     context deadline
//   - *TransportError if the request cannot be sent, the server responds
//     with a non-2xx status, or the body is not a JSON envelope
func (c *HTTPClient) Execute(ctx context.Context, query string, variables map[string]any) (*Response, error) {
	bodyBytes, err := json.Marshal(graphqlRequest{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return nil, fmt.Errorf("graphql: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("graphql: create request: %w", err)
	}
	for name, value := range c.headers {
		if strings.EqualFold(name, "Content-Type") {
			continue
		}
		// Assigned directly so names such as companyId keep their casing.
		req.Header[name] = []string{value}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	c.logger.Debug("sending graphql request",
		zap.String("url", c.graphqlURL),
		zap.Strings("headers", c.headerNames),
		zap.Int("body_bytes", len(bodyBytes)),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("received graphql response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		terr := &TransportError{StatusCode: resp.StatusCode, Body: string(body)}
		if resp.StatusCode == http.StatusUnauthorized {
			terr.Err = ErrUnauthorized
		}
		return nil, terr
	}

	var gqlResp Response
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{Timeout: c.timeout, Err: err}
		}
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}

	if len(gqlResp.Errors) > 0 {
		c.logger.Debug("graphql response carries errors", zap.String("errors", gqlResp.ErrorMessages()))
	}

	return &gqlResp, nil
}

func (c *HTTPClient) classify(err error) error {
	if isTimeout(err) {
		return &TimeoutError{Timeout: c.timeout, Err: err}
	}
	return &TransportError{Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
