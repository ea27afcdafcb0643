package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound marks a registry lookup for a package or release that
	// does not exist. Not-found results are not cached.
	ErrNotFound = errors.New("not found")

	// ErrNetwork marks transport failures and unexpected registry statuses.
	ErrNetwork = errors.New("network error")
)

const retryAttempts = 3

// retryBaseDelay doubles after every failed attempt.
var retryBaseDelay = time.Second

// RetryableError marks a failure worth another attempt, such as a refused
// connection or a 5xx from a registry.
type RetryableError struct{ Err error }

// Retryable marks err for [RetryWithBackoff]. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err or anything it wraps is a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff calls fn until it succeeds, returns an error not marked
// [Retryable], or runs out of attempts. It stops early when ctx is done.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := retryBaseDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) || attempt == retryAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}
