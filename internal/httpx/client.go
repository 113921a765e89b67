// Package httpx provides a resilient HTTP client used by the registry and
// publisher layers. The client applies a request timeout, optional outbound
// rate limiting and header injection, and converts every transport or HTTP
// failure into a classified taxonomy error; callers never inspect raw status
// codes or transport errors directly. Retries are a separate composable
// concern provided by SendRetry.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/lawgram/lawgram/internal/errors"
	"github.com/lawgram/lawgram/internal/retry"
)

// DefaultTimeout is the per-request timeout applied when none is configured.
const DefaultTimeout = 30 * time.Second

// HeaderFunc supplies headers for each outbound request, typically a bearer
// token. It runs before every request so credentials stay fresh.
type HeaderFunc func(ctx context.Context) (http.Header, error)

// Client is a resilient HTTP client bound to one upstream API.
type Client struct {
	httpClient *http.Client
	apiName    string
	timeout    time.Duration
	limiter    *rate.Limiter
	retrier    *retry.Retrier
	headerFn   HeaderFunc
	logger     *slog.Logger
}

// Option customizes a Client at construction time.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLimiter applies an outbound rate limiter; requests wait for a slot
// before being sent.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithRetrier attaches the retry executor used by SendRetry.
func WithRetrier(r *retry.Retrier) Option {
	return func(c *Client) { c.retrier = r }
}

// WithHeaderFunc installs a per-request header supplier.
func WithHeaderFunc(fn HeaderFunc) Option {
	return func(c *Client) { c.headerFn = fn }
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the named upstream API. The apiName is used
// in error messages and log lines so failures identify their origin.
func NewClient(apiName string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		apiName:    apiName,
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retrier == nil {
		c.retrier = retry.New(retry.DefaultPolicy(), c.logger)
	}
	return c
}

// Response is a fully read HTTP response.
type Response struct {
	Status  int
	Header  http.Header
	Body    []byte
	apiName string
}

// Text returns the raw response body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// DecodeJSON decodes the response body into v. A body that is not valid JSON
// raises a data-parsing error carrying the raw text as a diagnostic; callers
// that accept plain text must explicitly fall back to Text.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return apperrors.New(apperrors.KindDataParsing,
			fmt.Sprintf("failed to parse %s response as JSON", r.apiName),
			apperrors.WithCause(err),
			apperrors.WithDetail("response_text", r.Text()),
		)
	}
	return nil
}

// requestSpec accumulates per-request options.
type requestSpec struct {
	body    io.Reader
	headers http.Header
	query   url.Values
}

// RequestOption customizes one request.
type RequestOption func(*requestSpec) error

// WithJSONBody marshals v as the JSON request body.
func WithJSONBody(v any) RequestOption {
	return func(s *requestSpec) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		s.body = bytes.NewReader(data)
		s.headers.Set("Content-Type", "application/json")
		return nil
	}
}

// WithFormBody encodes values as an x-www-form-urlencoded request body.
func WithFormBody(values url.Values) RequestOption {
	return func(s *requestSpec) error {
		s.body = strings.NewReader(values.Encode())
		s.headers.Set("Content-Type", "application/x-www-form-urlencoded")
		return nil
	}
}

// WithQuery adds a query parameter.
func WithQuery(key, value string) RequestOption {
	return func(s *requestSpec) error {
		s.query.Set(key, value)
		return nil
	}
}

// WithRequestHeader sets a header on this request only.
func WithRequestHeader(key, value string) RequestOption {
	return func(s *requestSpec) error {
		s.headers.Set(key, value)
		return nil
	}
}

// Send performs a single HTTP request. Transport failures surface as network
// or timeout errors, non-2xx statuses as classified taxonomy errors. No
// retries happen at this layer.
func (c *Client) Send(ctx context.Context, method, rawURL string, opts ...RequestOption) (*Response, error) {
	spec := &requestSpec{
		headers: make(http.Header),
		query:   make(url.Values),
	}
	spec.headers.Set("Accept", "application/json")
	for _, opt := range opts {
		if err := opt(spec); err != nil {
			return nil, err
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, spec.body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", c.apiName, err)
	}
	for key, values := range spec.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if c.headerFn != nil {
		extra, err := c.headerFn(ctx)
		if err != nil {
			return nil, err
		}
		for key, values := range extra {
			for _, v := range values {
				req.Header.Set(key, v)
			}
		}
	}
	if len(spec.query) > 0 {
		q := req.URL.Query()
		for key, values := range spec.query {
			for _, v := range values {
				q.Set(key, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.New(apperrors.KindNetwork,
			fmt.Sprintf("failed to read %s response body", c.apiName),
			apperrors.WithCause(err),
			apperrors.WithDetail("url", rawURL),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.FromStatus(
			resp.StatusCode,
			c.apiName,
			rawURL,
			resp.Header.Get("Retry-After"),
			string(body),
		)
	}

	return &Response{
		Status:  resp.StatusCode,
		Header:  resp.Header,
		Body:    body,
		apiName: c.apiName,
	}, nil
}

// SendRetry performs the request under the client's retry policy.
func (c *Client) SendRetry(ctx context.Context, method, rawURL string, opts ...RequestOption) (*Response, error) {
	return retry.DoValue(ctx, c.retrier, func(ctx context.Context) (*Response, error) {
		return c.Send(ctx, method, rawURL, opts...)
	})
}

// Retrier exposes the client's retry executor so callers can wrap higher-level
// operations with the same policy.
func (c *Client) Retrier() *retry.Retrier {
	return c.retrier
}

// classifyTransportError maps transport-level failures onto the taxonomy.
// Timeouts (net timeouts and context deadlines) become timeout errors,
// everything else connection-level becomes a network error.
func (c *Client) classifyTransportError(rawURL string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return apperrors.New(apperrors.KindTimeout,
			fmt.Sprintf("timeout while connecting to %s", c.apiName),
			apperrors.WithCause(err),
			apperrors.WithDetail("url", rawURL),
		)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return apperrors.New(apperrors.KindNetwork,
			fmt.Sprintf("connection error while connecting to %s", c.apiName),
			apperrors.WithCause(err),
			apperrors.WithDetail("url", rawURL),
		)
	}
}
