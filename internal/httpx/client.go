// Package httpx is the outbound HTTP client shared by the identity provider
// clients, the verse lookup and the GeoJSON fetcher. Each Client owns a
// circuit breaker so a failing upstream is cut off instead of piling up
// requests.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/metrics"
)

// maxBody caps how much of a response is read into memory.
const maxBody = 16 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// Response is a fully read response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Options configures a Client.
type Options struct {
	// Name labels the breaker in logs and metrics.
	Name      string
	Timeout   time.Duration
	UserAgent string
	// Transport overrides http.DefaultTransport (tests).
	Transport http.RoundTripper
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker. Defaults to 5.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open. Defaults to 30s.
	OpenTimeout time.Duration
	Logger      *zap.Logger
}

// Client performs GET requests through a circuit breaker.
type Client struct {
	name      string
	http      *http.Client
	userAgent string
	cb        *gobreaker.CircuitBreaker[*Response]
	logger    *zap.Logger
}

// New builds a Client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("httpx").With(zap.String("client", opts.Name))

	threshold := opts.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.SetBreakerState(name, int(to))
		},
		// Client errors mean the upstream is healthy.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			return err == nil || (errors.As(err, &se) && se.Code < http.StatusInternalServerError)
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
	})

	return &Client{
		name:      opts.Name,
		http:      &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		userAgent: opts.UserAgent,
		cb:        cb,
		logger:    logger,
	}
}

// Get fetches url with the extra headers.
func (c *Client) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	resp, err := c.cb.Execute(func() (*Response, error) {
		return c.do(ctx, url, header)
	})
	switch {
	case err == nil:
		metrics.ObserveOutbound(c.name, "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.ObserveOutbound(c.name, "rejected")
		c.logger.Debug("request rejected by breaker", zap.String("url", url))
	default:
		metrics.ObserveOutbound(c.name, "failure")
	}
	return resp, err
}

// GetJSON fetches url and decodes the body into dst.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, dst any) error {
	resp, err := c.Get(ctx, url, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, dst); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, url string, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{URL: url, Code: res.StatusCode}
	}
	return &Response{StatusCode: res.StatusCode, Header: res.Header, Body: body}, nil
}

// State reports the breaker state.
func (c *Client) State() gobreaker.State {
	return c.cb.State()
}
