package core

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the requested track does not exist in the provider catalog
	ErrNotFound = errors.New("track not found")
	// ErrAuthRequired indicates the provider session is missing or expired
	ErrAuthRequired = errors.New("authentication required")
)

// IsTransient reports whether an error is worth retrying. Anything that is
// not a definitive catalog answer (ErrNotFound), an auth failure
// (ErrAuthRequired) or caller cancellation counts as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAuthRequired) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
