package errors

import (
	"context"
	"math/rand"
	"slices"
	"time"
)

// RetryConfig configures download retries.
type RetryConfig struct {
	MaxRetries     int           // 0 disables retries
	InitialDelay   time.Duration // Delay before the first retry
	MaxDelay       time.Duration // Upper bound for any delay
	Multiplier     float64       // Backoff growth factor
	Jitter         float64       // Random jitter factor (0-1)
	RetryableTypes []ErrorType
}

// DefaultRetryConfig returns a config that never retries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       10 * time.Second,
		Multiplier:     2.0,
		Jitter:         0.2,
		RetryableTypes: []ErrorType{Network, Timeout},
	}
}

// Retrier runs an operation with exponential backoff.
type Retrier struct {
	config RetryConfig
	rng    *rand.Rand
}

// NewRetrier creates a new retrier.
func NewRetrier(config RetryConfig) *Retrier {
	return &Retrier{
		config: config,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RetryFunc is one attempt of a retried operation.
type RetryFunc func(ctx context.Context) error

// RetryResult describes how a retried operation ended.
type RetryResult struct {
	Attempts  int
	LastError error
	Duration  time.Duration
	Success   bool
}

// Do calls fn until it succeeds, fails with an error that is not retryable,
// or MaxRetries retries have been spent. Cancelling ctx ends the loop with a
// Cancelled error.
func (r *Retrier) Do(ctx context.Context, operation string, url string, fn RetryFunc) *RetryResult {
	result := &RetryResult{}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	delay := r.config.InitialDelay
	for attempt := range r.config.MaxRetries + 1 {
		result.Attempts++
		err := fn(ctx)
		if err == nil {
			result.Success = true
			return result
		}
		result.LastError = err

		if attempt == r.config.MaxRetries || !r.shouldRetry(err) {
			return result
		}
		if !r.sleep(ctx, r.withJitter(delay)) {
			result.LastError = NewCancelledError(url, operation)
			return result
		}
		delay = min(time.Duration(float64(delay)*r.config.Multiplier), r.config.MaxDelay)
	}
	return result
}

// sleep waits for d and reports false if ctx ended first.
func (r *Retrier) sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (r *Retrier) shouldRetry(err error) bool {
	return slices.Contains(r.config.RetryableTypes, GetErrorType(err)) || IsRetryable(err)
}

func (r *Retrier) withJitter(base time.Duration) time.Duration {
	if r.config.Jitter <= 0 {
		return base
	}
	spread := r.config.Jitter * float64(base)
	return time.Duration(float64(base) + (r.rng.Float64()*2-1)*spread)
}

// DoWithResult is Do for operations that produce a value. The value of the
// last attempt is returned even when it failed.
func DoWithResult[T any](ctx context.Context, r *Retrier, operation, url string, fn func(ctx context.Context) (T, error)) (T, *RetryResult) {
	var value T
	result := r.Do(ctx, operation, url, func(ctx context.Context) error {
		var err error
		value, err = fn(ctx)
		return err
	})
	return value, result
}
