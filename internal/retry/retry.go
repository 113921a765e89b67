// Package retry implements a generic retry executor with exponential backoff.
// The executor is an explicit wrapper composed at call sites: construct a
// Retrier with a Policy and pass operations to Do. Server-supplied Retry-After
// hints override the computed backoff delay.
package retry

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/lawgram/lawgram/internal/errors"
)

// Default policy parameters.
const (
	DefaultMaxAttempts   = 3
	DefaultInitialDelay  = 1 * time.Second
	DefaultBackoffFactor = 2.0
	DefaultMaxDelay      = 60 * time.Second
)

// Policy describes the retry behavior for a decorated operation.
// A Policy is an immutable value; attach one per call site.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialDelay is the delay before the second attempt.
	InitialDelay time.Duration
	// BackoffFactor multiplies the delay after each attempt.
	BackoffFactor float64
	// MaxDelay caps the computed delay.
	MaxDelay time.Duration
	// RetryableKinds lists error kinds that trigger a retry.
	RetryableKinds []apperrors.Kind
	// RetryableStatuses lists HTTP status codes that trigger a retry even when
	// the error kind alone would not.
	RetryableStatuses []int
}

// DefaultPolicy returns the standard policy: 3 attempts, 1s initial delay
// doubling up to 60s, retrying network, timeout, server and rate-limit errors
// plus statuses 408, 429, 500, 502, 503 and 504.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   DefaultMaxAttempts,
		InitialDelay:  DefaultInitialDelay,
		BackoffFactor: DefaultBackoffFactor,
		MaxDelay:      DefaultMaxDelay,
		RetryableKinds: []apperrors.Kind{
			apperrors.KindNetwork,
			apperrors.KindTimeout,
			apperrors.KindServer,
			apperrors.KindRateLimit,
		},
		RetryableStatuses: []int{408, 429, 500, 502, 503, 504},
	}
}

// WithMaxAttempts returns a copy of the policy with a different attempt budget.
func (p Policy) WithMaxAttempts(attempts int) Policy {
	p.MaxAttempts = attempts
	return p
}

// Retryable reports whether an error should trigger another attempt under this
// policy. The error kind is checked first; an error outside the retryable
// kinds is still retried when it carries a status code from the retryable set.
func (p Policy) Retryable(err error) bool {
	for _, kind := range p.RetryableKinds {
		if apperrors.IsKind(err, kind) {
			return true
		}
	}
	if status := apperrors.StatusOf(err); status != 0 {
		for _, s := range p.RetryableStatuses {
			if status == s {
				return true
			}
		}
	}
	return false
}

// Retrier executes operations under a Policy. It is stateless between
// invocations: each Do call gets its own delay counter, so a single Retrier
// is safe for concurrent use.
type Retrier struct {
	policy Policy
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a Retrier with the given policy and logger.
func New(policy Policy, logger *slog.Logger) *Retrier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{
		policy: policy,
		logger: logger,
		sleep:  sleepCtx,
	}
}

// Policy returns the policy attached to this Retrier.
func (r *Retrier) Policy() Policy {
	return r.policy
}

// Do runs op until it succeeds, a non-retryable error occurs, the attempt
// budget is exhausted, or the context is canceled. The caller always receives
// either a nil error or the error from the last attempt; never a silent zero.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	delay := r.policy.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if !r.policy.Retryable(lastErr) {
			return lastErr
		}
		if attempt == r.policy.MaxAttempts {
			r.logger.Error("all attempts failed",
				slog.Int("attempts", r.policy.MaxAttempts),
				slog.Any("error", lastErr),
			)
			return lastErr
		}

		// A server-supplied Retry-After hint overrides the computed backoff.
		if hint := retryAfter(lastErr); hint != nil {
			delay = *hint
		}

		r.logger.Warn("attempt failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", r.policy.MaxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", lastErr),
		)

		if err := r.sleep(ctx, delay); err != nil {
			return err
		}

		delay = time.Duration(float64(delay) * r.policy.BackoffFactor)
		if delay > r.policy.MaxDelay {
			delay = r.policy.MaxDelay
		}
	}

	return lastErr
}

// DoValue runs op under the Retrier's policy and returns its result.
func DoValue[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// retryAfter extracts a server-supplied retry hint from the error chain.
func retryAfter(err error) *time.Duration {
	var e *apperrors.Error
	if apperrors.As(err, &e) {
		return e.RetryAfter
	}
	return nil
}

// sleepCtx blocks for d or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
