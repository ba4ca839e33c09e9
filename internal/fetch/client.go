// Package fetch retrieves raw episode pages over HTTP with rate limiting,
// retries with exponential backoff, a circuit breaker and an in-memory cache.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is requests per second across all goroutines.
	DefaultRateLimit = 2.0

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	// DefaultBackoff is the delay before the first retry; it doubles per retry.
	DefaultBackoff = 500 * time.Millisecond

	// MaxBackoff caps the computed delay between attempts.
	MaxBackoff = 30 * time.Second

	// DefaultCacheSize is the number of page bodies kept in memory.
	DefaultCacheSize = 256

	// MaxBodyBytes caps the size of a page body.
	MaxBodyBytes = 10 * 1024 * 1024

	// DefaultUserAgent identifies the crawler.
	DefaultUserAgent = "episodegraph/0.1 (+https://github.com/matsen/episodegraph)"
)

// Fetcher retrieves the raw content of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Client is a rate-limited, retrying HTTP page fetcher. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	cache      *lru.Cache[string, []byte]
	logger     *zap.Logger

	userAgent  string
	maxRetries int
	backoff    time.Duration
	rateLimit  float64
	cacheSize  int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets requests per second. Zero or negative disables limiting.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		c.rateLimit = rps
	}
}

// WithRetries sets the retry count and the initial backoff delay.
func WithRetries(maxRetries int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// WithCacheSize sets the number of cached bodies. Zero disables caching.
func WithCacheSize(n int) ClientOption {
	return func(c *Client) {
		c.cacheSize = n
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger used for retry and breaker events.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new page fetcher.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
		userAgent:  DefaultUserAgent,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		rateLimit:  DefaultRateLimit,
		cacheSize:  DefaultCacheSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.rateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(c.rateLimit), 1)
	} else {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	}

	if c.cacheSize > 0 {
		// lru.New only fails for non-positive sizes.
		c.cache, _ = lru.New[string, []byte](c.cacheSize)
	}

	logger := c.logger
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "page-fetch",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			return !countsAsFailure(err)
		},
	})

	return c
}

// Fetch returns the body of url. Network errors, 429 and 5xx responses are
// retried with exponential backoff; other 4xx responses fail immediately.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(url); ok {
			return body, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay(attempt, lastErr)
			c.logger.Warn("retrying fetch",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.get(ctx, url)
		})
		if err == nil {
			body := result.([]byte)
			if c.cache != nil {
				c.cache.Add(url, body)
			}
			return body, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", c.maxRetries+1, lastErr)
}

// retryDelay honours Retry-After when present, otherwise doubles the base backoff.
func (c *Client) retryDelay(attempt int, lastErr error) time.Duration {
	var se *StatusError
	if errors.As(lastErr, &se) && se.RetryAfter > 0 {
		return min(se.RetryAfter, MaxBackoff)
	}
	delay := c.backoff << (attempt - 1)
	if delay <= 0 || delay > MaxBackoff {
		return MaxBackoff
	}
	return delay
}

// get performs a single GET request.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{
			URL:        url,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetwork, err)
	}
	if len(body) > MaxBodyBytes {
		return nil, fmt.Errorf("%w: %s", ErrBodyTooLarge, url)
	}
	return body, nil
}

// parseRetryAfter reads the delay-seconds form of Retry-After.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
