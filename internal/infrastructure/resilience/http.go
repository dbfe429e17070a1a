// Package resilience wraps outbound HTTP calls with rate limiting, retries
// and a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"golang.org/x/time/rate"
)

// Config tunes one outbound client.
type Config struct {
	Name string

	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// BreakerFailures out of BreakerWindow recent calls open the breaker
	// for BreakerDelay. Zero BreakerWindow disables the breaker.
	BreakerFailures uint
	BreakerWindow   uint
	BreakerDelay    time.Duration

	// RatePerSecond of zero disables client-side rate limiting.
	RatePerSecond float64
	Burst         int
}

// DefaultConfig returns the settings used for inference and lookup services.
func DefaultConfig(name string) Config {
	return Config{
		Name:            name,
		MaxRetries:      2,
		BaseDelay:       100 * time.Millisecond,
		MaxDelay:        2 * time.Second,
		BreakerFailures: 5,
		BreakerWindow:   10,
		BreakerDelay:    15 * time.Second,
	}
}

// StatusError is returned for any non-2xx response. The body is already closed.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return "unexpected status " + e.Status
	}
	return fmt.Sprintf("unexpected status %s: %s", e.Status, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	switch e.Code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = circuitbreaker.ErrOpen

// Client executes requests through the policies. Only 2xx responses are
// handed back to the caller.
type Client struct {
	http     *http.Client
	executor failsafe.Executor[*http.Response]
	limiter  *rate.Limiter
}

// NewClient builds the policy chain around an *http.Client.
func NewClient(httpClient *http.Client, cfg Config, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}

	retry := retrypolicy.NewBuilder[*http.Response]().
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(func(_ *http.Response, err error) bool { return ShouldRetry(err) }).
		ReturnLastFailure().
		Build()

	policies := []failsafe.Policy[*http.Response]{retry}
	if cfg.BreakerWindow > 0 {
		if cfg.BreakerFailures == 0 || cfg.BreakerFailures > cfg.BreakerWindow {
			cfg.BreakerFailures = cfg.BreakerWindow
		}
		if cfg.BreakerDelay <= 0 {
			cfg.BreakerDelay = 15 * time.Second
		}
		builder := circuitbreaker.NewBuilder[*http.Response]().
			WithFailureThresholdRatio(cfg.BreakerFailures, cfg.BreakerWindow).
			WithDelay(cfg.BreakerDelay).
			WithSuccessThreshold(1).
			HandleIf(func(_ *http.Response, err error) bool { return ShouldRetry(err) })
		if logger != nil {
			name := cfg.Name
			builder = builder.OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
				logger.Warn("circuit breaker state change",
					"client", name,
					"from", stateName(event.OldState),
					"to", stateName(event.NewState))
			})
		}
		policies = append(policies, builder.Build())
	}

	c := &Client{http: httpClient, executor: failsafe.With[*http.Response](policies...)}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return c
}

// Do builds a fresh request per attempt and returns the first 2xx response.
// The caller owns the response body.
func (c *Client) Do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	return c.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
		}

		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("do request: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			_ = resp.Body.Close()
			return nil, &StatusError{
				Code:   resp.StatusCode,
				Status: resp.Status,
				Body:   strings.TrimSpace(string(snippet)),
			}
		}
		return resp, nil
	})
}

// ShouldRetry retries transport errors and retryable statuses, never a
// cancelled or expired context.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

func stateName(state circuitbreaker.State) string {
	switch state {
	case circuitbreaker.ClosedState:
		return "closed"
	case circuitbreaker.HalfOpenState:
		return "half-open"
	case circuitbreaker.OpenState:
		return "open"
	default:
		return "unknown"
	}
}
