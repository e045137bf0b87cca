package irisfast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var errBadResponse = errors.New("malformed response")

// HeaderProvider supplies per-request headers (X-User-*, X-Session-Id).
type HeaderProvider func() map[string]string

// APIError is a non-2xx answer from the chat host.
type APIError struct {
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("iris api error: path=%s status=%d body=%s", e.Path, e.Status, e.Body)
}

// Temporary reports whether the request may succeed when repeated.
func (e *APIError) Temporary() bool {
	switch e.Status {
	case fasthttp.StatusInternalServerError, fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable, fasthttp.StatusGatewayTimeout:
		return true
	}
	return false
}

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	timeout  time.Duration
	attempts int
	logger   *zap.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

// WithRetry sets how many times idempotent calls are attempted.
func WithRetry(attempts int) Option {
	return func(c *Client) { c.attempts = attempts }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		timeout:  10 * time.Second,
		attempts: 3,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.attempts < 1 {
		c.attempts = 1
	}
	return c
}

// call is one JSON request. Only idempotent calls are retried.
type call struct {
	method     string
	path       string
	in, out    any
	idempotent bool
}

// GetConfig reads the host configuration; it retries on transport errors and 5xx.
func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	err := c.do(ctx, call{method: fasthttp.MethodGet, path: "/config", out: &cfg, idempotent: true})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SendMessage posts one text reply. A repeated /reply would post twice, so
// it is attempted once.
func (c *Client) SendMessage(ctx context.Context, room, message string) error {
	return c.do(ctx, call{
		method: fasthttp.MethodPost,
		path:   "/reply",
		in:     ReplyRequest{Type: "text", Room: room, Data: message},
	})
}

func (c *Client) do(ctx context.Context, cl call) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(cl.method)
	req.SetRequestURI(c.baseURL + cl.path)
	req.Header.SetContentType("application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if cl.in != nil {
		payload, err := json.Marshal(cl.in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", cl.path, err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if cl.idempotent {
		attempts = c.attempts
	}
	for attempt := 1; ; attempt++ {
		err := c.roundTrip(ctx, cl, req, resp)
		if err == nil || attempt >= attempts || !retryable(err) {
			return err
		}
		c.logger.Debug("iris_request_retry", zap.String("path", cl.path), zap.Int("attempt", attempt), zap.Error(err))
		if werr := wait(ctx, backoffDuration(attempt)); werr != nil {
			return err
		}
		resp.Reset()
	}
}

func (c *Client) roundTrip(ctx context.Context, cl call, req *fasthttp.Request, resp *fasthttp.Response) error {
	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		return fmt.Errorf("%s request failed: %w", cl.path, err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return &APIError{Path: cl.path, Status: status, Body: truncate(string(resp.Body()), 512)}
	}
	if cl.out != nil {
		if err := json.Unmarshal(resp.Body(), cl.out); err != nil {
			return fmt.Errorf("decode %s response: %w: %w", cl.path, errBadResponse, err)
		}
	}
	return nil
}

// deadline is the earlier of the context deadline and the client timeout.
func (c *Client) deadline(ctx context.Context) time.Time {
	dl := time.Now().Add(c.timeout)
	if ctxDL, ok := ctx.Deadline(); ok && ctxDL.Before(dl) {
		return ctxDL
	}
	return dl
}

// retryable treats transport failures and temporary API errors as retryable.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return !errors.Is(err, errBadResponse)
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoffDuration doubles from 100ms and caps at 3.2s.
func backoffDuration(attempt int) time.Duration {
	attempt = max(1, min(attempt, 6))
	return (100 * time.Millisecond) << (attempt - 1)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
