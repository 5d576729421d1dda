// Package retry provides a bounded exponential-backoff executor for outbound
// HTTP requests.
//
// The [Executor] distinguishes transient failures — transport errors and
// HTTP 429 rate limiting — from everything else. Transient failures are
// retried on a deterministic schedule (BaseDelay, 2×BaseDelay, 4×BaseDelay, …
// with no jitter) until the attempt budget is spent; any other non-success
// status fails immediately and is never retried, since repeating a malformed
// or rejected request will not fix it.
//
// The executor holds no state across calls: every [Executor.Do] invocation is
// independent and concurrent invocations share nothing. Callers are
// responsible for ensuring the wrapped request is safe to repeat.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Default retry parameters applied when [Config] fields are zero.
const (
	DefaultMaxRetries = 5
	DefaultBaseDelay  = 1 * time.Second
)

// StatusError reports a non-success HTTP status that is not worth retrying.
type StatusError struct {
	// Status is the HTTP status code returned by the server.
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("retry: request failed with status %d", e.Status)
}

// ExhaustedError reports that every allowed attempt failed transiently.
// It wraps the most recent underlying failure.
type ExhaustedError struct {
	// Attempts is the number of attempts that were made.
	Attempts int

	// Err is the failure observed on the final attempt.
	Err error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: %d attempts exhausted: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Config holds the retry budget for an [Executor].
type Config struct {
	// MaxRetries is the total number of attempts (not additional retries).
	// Defaults to [DefaultMaxRetries] if zero or negative.
	MaxRetries int

	// BaseDelay is the wait before the second attempt; it doubles for each
	// subsequent attempt. Defaults to [DefaultBaseDelay] if zero or negative.
	BaseDelay time.Duration
}

// Option is a functional option for configuring an [Executor].
type Option func(*Executor)

// WithHTTPClient sets the HTTP client used for requests. Defaults to a plain
// &http.Client{}.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) { e.client = c }
}

// WithNotify registers a callback invoked before each backoff wait with the
// 0-based attempt index, the delay about to be slept, and the transient
// failure that triggered it. Used for metrics and progress reporting.
func WithNotify(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(e *Executor) { e.notify = fn }
}

// withSleep overrides the backoff sleep. Tests use it to assert the schedule
// without waiting in real time.
func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) { e.sleep = fn }
}

// Executor issues HTTP requests with bounded exponential-backoff retries.
// It is immutable after construction and safe for concurrent use.
type Executor struct {
	maxRetries int
	baseDelay  time.Duration
	client     *http.Client
	notify     func(attempt int, delay time.Duration, err error)
	sleep      func(ctx context.Context, d time.Duration) error
}

// New creates an [Executor] with the supplied configuration. Zero-value
// config fields are replaced with the package defaults.
func New(cfg Config, opts ...Option) *Executor {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	e := &Executor{
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		client:     &http.Client{},
		sleep:      sleepContext,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Do executes the request produced by build, retrying transient failures.
//
// build is called once per attempt so that request bodies are fresh; a
// *http.Request cannot be replayed after its body has been consumed. The
// request is bound to ctx.
//
// Success (2xx) returns the response immediately — the caller owns the body.
// A non-2xx status other than 429 returns a [*StatusError] without retrying.
// Transport errors and 429 responses are retried after the backoff wait; when
// the attempt budget is spent the most recent failure is returned wrapped in
// a [*ExhaustedError].
func (e *Executor) Do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	requestID := uuid.NewString()

	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("retry: build request: %w", err)
		}

		resp, err := e.client.Do(req.WithContext(ctx))
		switch {
		case err != nil:
			lastErr = err

		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			lastErr = &StatusError{Status: resp.StatusCode}

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			resp.Body.Close()
			slog.Warn("request failed with non-transient status",
				"request_id", requestID,
				"url", req.URL.String(),
				"status", resp.StatusCode,
			)
			return nil, &StatusError{Status: resp.StatusCode}

		default:
			return resp, nil
		}

		if attempt == e.maxRetries-1 {
			break
		}

		delay := e.baseDelay << attempt
		slog.Debug("transient failure, backing off",
			"request_id", requestID,
			"attempt", attempt,
			"max_retries", e.maxRetries,
			"delay", delay,
			"error", lastErr,
		)
		if e.notify != nil {
			e.notify(attempt, delay, lastErr)
		}
		if err := e.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	slog.Warn("retry budget exhausted",
		"request_id", requestID,
		"attempts", e.maxRetries,
		"error", lastErr,
	)
	return nil, &ExhaustedError{Attempts: e.maxRetries, Err: lastErr}
}

// sleepContext waits for d or until ctx is cancelled, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
