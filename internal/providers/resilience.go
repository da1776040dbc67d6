package providers

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryConfig defines transport-level retry behavior for backend requests.
// It never retries individual account creations the backend already reported.
type RetryConfig struct {
	MaxRetries      int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableErrors []int // HTTP status codes that should be retried
}

// DefaultRetryConfig returns sensible retry defaults
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialDelay:    1 * time.Second,
		MaxDelay:        30 * time.Second,
		BackoffFactor:   2.0,
		RetryableErrors: []int{429, 502, 503, 504},
	}
}

// RateLimiter enforces a minimum interval between capability calls.
type RateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

// NewRateLimiter creates a rate limiter with minimum interval between calls
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	interval := time.Duration(float64(time.Second) / requestsPerSecond)
	return &RateLimiter{
		interval: interval,
	}
}

// Wait blocks until it's safe to make the next call or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.lastCall.IsZero() {
		rl.lastCall = time.Now()
		return nil
	}

	elapsed := time.Since(rl.lastCall)
	if elapsed < rl.interval {
		sleepTime := rl.interval - elapsed
		log.Debug().Dur("sleep", sleepTime).Msg("Rate limiting capability call")
		timer := time.NewTimer(sleepTime)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	rl.lastCall = time.Now()
	return nil
}

type throttled struct {
	next    Capability
	limiter *RateLimiter
}

// Throttle wraps c so that CreateMany is called at most requestsPerSecond
// times per second. A non-positive rate returns c unchanged.
func Throttle(c Capability, requestsPerSecond float64) Capability {
	if requestsPerSecond <= 0 {
		return c
	}
	return &throttled{next: c, limiter: NewRateLimiter(requestsPerSecond)}
}

func (t *throttled) CreateMany(ctx context.Context, count int) (ChunkResult, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return ChunkResult{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return t.next.CreateMany(ctx, count)
}

// RetryableHTTPClient wraps HTTP client with retries
type RetryableHTTPClient struct {
	client      *http.Client
	retryConfig RetryConfig
}

// NewRetryableHTTPClient creates a new HTTP client with retry logic. A
// negative retries value disables retrying.
func NewRetryableHTTPClient(timeout time.Duration, retries int) *RetryableHTTPClient {
	rc := DefaultRetryConfig()
	if retries < 0 {
		retries = 0
	}
	rc.MaxRetries = retries
	return &RetryableHTTPClient{
		client:      &http.Client{Timeout: timeout},
		retryConfig: rc,
	}
}

// Do executes HTTP request with retry logic. Requests with a body must have
// GetBody set (http.NewRequestWithContext does this for bytes readers).
func (c *RetryableHTTPClient) Do(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		reqClone := req.Clone(req.Context())
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewind body: %w", err)
			}
			reqClone.Body = body
		}

		resp, err := c.client.Do(reqClone)
		if err != nil {
			lastErr = err
			if attempt < c.retryConfig.MaxRetries {
				delay := c.calculateDelay(attempt)
				log.Warn().
					Err(err).
					Int("attempt", attempt+1).
					Int("max_retries", c.retryConfig.MaxRetries).
					Dur("delay", delay).
					Str("url", req.URL.String()).
					Msg("HTTP request failed, retrying")
				if werr := sleepCtx(req.Context(), delay); werr != nil {
					return nil, werr
				}
				continue
			}
			return nil, lastErr
		}

		if c.shouldRetry(resp.StatusCode) && attempt < c.retryConfig.MaxRetries {
			resp.Body.Close()
			delay := c.calculateDelay(attempt)
			log.Warn().
				Int("status", resp.StatusCode).
				Int("attempt", attempt+1).
				Int("max_retries", c.retryConfig.MaxRetries).
				Dur("delay", delay).
				Str("url", req.URL.String()).
				Msg("HTTP request returned retryable error, retrying")
			if werr := sleepCtx(req.Context(), delay); werr != nil {
				return nil, werr
			}
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// shouldRetry determines if a status code should trigger a retry
func (c *RetryableHTTPClient) shouldRetry(statusCode int) bool {
	for _, code := range c.retryConfig.RetryableErrors {
		if statusCode == code {
			return true
		}
	}
	return false
}

// calculateDelay calculates exponential backoff delay with jitter
func (c *RetryableHTTPClient) calculateDelay(attempt int) time.Duration {
	delay := float64(c.retryConfig.InitialDelay) * math.Pow(c.retryConfig.BackoffFactor, float64(attempt))

	// +/-25% jitter
	jitter := delay * 0.25 * (2*rand.Float64() - 1)
	delay += jitter

	if delay > float64(c.retryConfig.MaxDelay) {
		delay = float64(c.retryConfig.MaxDelay)
	}

	return time.Duration(delay)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ValidationError represents a validation error for backend requests
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s=%s: %s", e.Field, e.Value, e.Message)
}

// NewRetryableHTTPClientWithConfig is NewRetryableHTTPClient with an explicit retry policy.
func NewRetryableHTTPClientWithConfig(timeout time.Duration, rc RetryConfig) *RetryableHTTPClient {
	return &RetryableHTTPClient{
		client:      &http.Client{Timeout: timeout},
		retryConfig: rc,
	}
}
