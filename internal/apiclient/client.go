package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxFailures = 5
	defaultOpenTimeout = 30 * time.Second
	retryBackoff       = 200 * time.Millisecond
	maxResponseBytes   = 32 << 20
)

// TokenProvider returns the bearer token to send, or "" for none. It is
// called once per attempt, so a login takes effect on the very next request.
type TokenProvider func() string

// UnauthorizedHandler is invoked for every 401 with the token the failing
// request carried ("" when it carried none).
type UnauthorizedHandler func(ctx context.Context, token string)

type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

type Options struct {
	BaseURL        string
	Timeout        time.Duration
	Token          TokenProvider
	OnUnauthorized UnauthorizedHandler
	// Retries is the number of extra attempts for GET requests that fail
	// at the transport level or with a 5xx.
	Retries   int
	Breaker   BreakerSettings
	Transport http.RoundTripper
	Logger    *zap.Logger
}

// Client is the single egress point to the storefront backend
type Client struct {
	baseURL        string
	http           *http.Client
	token          TokenProvider
	onUnauthorized UnauthorizedHandler
	retries        int
	breaker        *gobreaker.CircuitBreaker[*response]
	logger         *zap.Logger
}

type response struct {
	status int
	header http.Header
	body   []byte
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Token == nil {
		opts.Token = func() string { return "" }
	}
	if opts.OnUnauthorized == nil {
		opts.OnUnauthorized = func(context.Context, string) {}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Breaker.MaxFailures == 0 {
		opts.Breaker.MaxFailures = defaultMaxFailures
	}
	if opts.Breaker.OpenTimeout <= 0 {
		opts.Breaker.OpenTimeout = defaultOpenTimeout
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	logger := opts.Logger.With(zap.String("component", "apiclient"))
	maxFailures := opts.Breaker.MaxFailures
	breaker := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:    "storefront-api",
		Timeout: opts.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		token:          opts.Token,
		onUnauthorized: opts.OnUnauthorized,
		retries:        opts.Retries,
		breaker:        breaker,
		logger:         logger,
	}
}

// BaseURL returns the resolved backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: path, query: query})
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}
	resp, err := c.do(ctx, request{method: method, path: path, body: body, contentType: "application/json"})
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// do sends req, retrying idempotent requests, and turns every non-2xx
// status into an *APIError. A 401 is reported to the unauthorized handler
// before do returns.
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	attempts := 1
	if req.method == http.MethodGet {
		attempts += c.retries
	}

	var (
		resp  *response
		token string
		err   error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff * time.Duration(attempt-1)):
			}
		}
		token = c.token()
		resp, err = c.breaker.Execute(func() (*response, error) {
			return c.roundTrip(ctx, req, token)
		})
		if err == nil || !retryable(err) {
			break
		}
		c.logger.Debug("retrying request",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
		c.logger.Warn("request failed",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Error(err))
		return nil, err
	}

	if resp.status >= 200 && resp.status < 300 {
		return resp, nil
	}

	apiErr := newAPIError(req.method, req.path, resp.status, resp.body)
	c.logger.Warn("request rejected",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.status),
		zap.String("message", apiErr.Message))
	if resp.status == http.StatusUnauthorized {
		c.onUnauthorized(ctx, token)
	}
	return nil, apiErr
}

// roundTrip performs one attempt. Only transport failures and 5xx count
// against the breaker; other statuses come back as a response.
func (c *Client) roundTrip(ctx context.Context, req request, token string) (*response, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if req.contentType != "" && req.body != nil {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	httpReq.Header.Set("Accept", "application/json, */*")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read response: %w", req.method, req.path, err)
	}

	resp := &response{status: httpResp.StatusCode, header: httpResp.Header, body: data}
	if apiErr := newAPIError(req.method, req.path, httpResp.StatusCode, data); apiErr.ServerError() {
		return resp, apiErr
	}
	return resp, nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	return true
}
