package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultRequestsPerSecond = 10
	defaultMaxRetries        = 3
	defaultRetryAfter        = time.Second
	maxRetryAfter            = time.Minute
)

// client is the HTTP plumbing shared by the adapters: rate limiting, JSON or form bodies,
// Retry-After handling on 429 and classification of failures into the shared sentinels.
type client struct {
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	header     http.Header
	logger     *log.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures an adapter's HTTP client.
type Option func(*client)

// WithBaseURL points the adapter at another API root, used by tests and proxies.
func WithBaseURL(u string) Option {
	return func(c *client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying [http.Client].
func WithHTTPClient(h *http.Client) Option {
	return func(c *client) { c.http = h }
}

// WithRateLimit sets the steady request rate. A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithMaxRetries sets how many times a 429 response is retried.
func WithMaxRetries(n int) Option {
	return func(c *client) { c.maxRetries = max(n, 0) }
}

// WithLogger sets the logger used for retry and request diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *client) {
		if l != nil {
			c.logger = l
		}
	}
}

func newClient(baseURL string, opts ...Option) *client {
	c := &client{
		baseURL:    baseURL,
		http:       http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultRequestsPerSecond),
		maxRetries: defaultMaxRetries,
		header:     make(http.Header),
		logger:     log.New(io.Discard),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request describes one API call. At most one of JSON and Form is set.
type request struct {
	Method string
	Path   string
	Query  url.Values
	JSON   any
	Form   url.Values
	Header http.Header
}

func (r request) body() (func() io.Reader, string, error) {
	switch {
	case r.JSON != nil:
		data, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		return func() io.Reader { return bytes.NewReader(data) }, "application/json", nil
	case r.Form != nil:
		data := r.Form.Encode()
		return func() io.Reader { return strings.NewReader(data) }, "application/x-www-form-urlencoded", nil
	default:
		return func() io.Reader { return nil }, "", nil
	}
}

func (c *client) url(r request) string {
	target := r.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + target
	}
	if len(r.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + r.Query.Encode()
	}
	return target
}

// send performs r, decoding a JSON response into out when out is non-nil, and returns the response headers.
func (c *client) send(ctx context.Context, r request, out any) (http.Header, error) {
	body, contentType, err := r.body()
	if err != nil {
		return nil, err
	}
	target := c.url(r)

	for attempt := 0; ; attempt++ {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, r.Method, target, body())
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrInvalidInput, err)
		}
		for k, vs := range c.header {
			req.Header[k] = vs
		}
		for k, vs := range r.Header {
			req.Header[k] = vs
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, transportError(ctx, err)
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, transportError(ctx, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			delay := retryAfter(resp.Header.Get("Retry-After"), time.Now())
			c.logger.Warn("rate limited", "method", r.Method, "path", r.Path, "retry_in", delay, "attempt", attempt+1)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		if err := classify(resp.StatusCode, data); err != nil {
			return resp.Header, fmt.Errorf("%s %s: %w", r.Method, r.Path, err)
		}

		if out != nil && len(bytes.TrimSpace(data)) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return resp.Header, fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
			}
		}
		return resp.Header, nil
	}
}

func (c *client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}
	return nil
}

// classify maps an HTTP status to a shared sentinel. 2xx is success.
func classify(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	detail := errorDetail(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d%s", shared.ErrAuthFailed, status, detail)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: status %d%s", shared.ErrServiceUnavailable, status, detail)
	default:
		return fmt.Errorf("%w: status %d%s", shared.ErrRequestRejected, status, detail)
	}
}

// errorDetail extracts a message from the common error payload shapes of the supported APIs.
func errorDetail(body []byte) string {
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
		UserMessage string `json:"userMessage"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, msg := range []string{payload.Error.Message, payload.Detail, payload.Message, payload.UserMessage} {
		if msg != "" {
			return ": " + msg
		}
	}
	return ""
}

func transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		return fmt.Errorf("%w: token refresh failed: %v", shared.ErrAuthFailed, err)
	}
	return fmt.Errorf("%w: %v", shared.ErrTransport, err)
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
func retryAfter(header string, now time.Time) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return defaultRetryAfter
	}

	var d time.Duration
	if secs, err := strconv.Atoi(header); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(header); err == nil {
		d = at.Sub(now)
	} else {
		return defaultRetryAfter
	}

	return min(max(d, 0), maxRetryAfter)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
