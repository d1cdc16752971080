// Package retry runs an operation under a bounded attempt policy.
package retry

import (
	"context"
	"math"
	"time"
)

// RetryableFunc is a function that can be retried.
type RetryableFunc func() error

// ErrorClassifier determines if an error is retryable.
type ErrorClassifier func(error) bool

// RetryHook runs before the next attempt. attempt is the number of the
// attempt that just failed. A non-nil return stops the loop and Do returns
// the attempt's error.
type RetryHook func(attempt int, err error) error

// RetryOptions defines the configuration for retries. A zero InitialInterval
// retries immediately.
type RetryOptions struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	Classifier      ErrorClassifier
	OnRetry         RetryHook
}

// DefaultOptions returns exponential backoff options that retry every error.
func DefaultOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:     5,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		Classifier: func(err error) bool {
			return true
		},
	}
}

// Immediate returns options for maxAttempts tries with no wait in between,
// retrying only errors accepted by classifier.
func Immediate(maxAttempts int, classifier ErrorClassifier) RetryOptions {
	return RetryOptions{
		MaxAttempts: maxAttempts,
		Multiplier:  1.0,
		Classifier:  classifier,
	}
}

// Do executes fn until it succeeds, returns a non-retryable error, or the
// attempt budget is spent.
func Do(ctx context.Context, fn RetryableFunc, opts RetryOptions) error {
	var lastErr error
	interval := opts.InitialInterval
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if opts.Classifier != nil && !opts.Classifier(err) {
			return err
		}

		if attempt == maxAttempts {
			break
		}

		if opts.OnRetry != nil {
			if hookErr := opts.OnRetry(attempt, err); hookErr != nil {
				return err
			}
		}

		if interval <= 0 {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
			next := float64(interval) * opts.Multiplier
			if opts.MaxInterval > 0 && next > float64(opts.MaxInterval) {
				interval = opts.MaxInterval
			} else {
				interval = time.Duration(next)
			}
		}
	}

	return lastErr
}

// CalculateBackoff returns the interval for a specific attempt number.
func CalculateBackoff(attempt int, opts RetryOptions) time.Duration {
	if attempt <= 1 {
		return opts.InitialInterval
	}

	interval := float64(opts.InitialInterval) * math.Pow(opts.Multiplier, float64(attempt-1))
	if interval > float64(opts.MaxInterval) {
		return opts.MaxInterval
	}
	return time.Duration(interval)
}
