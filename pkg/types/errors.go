// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"context"
	"errors"
	"fmt"
)

// classifiedError tags a generator failure as transient or permanent so the
// batch coordinator can decide whether to retry.
type classifiedError struct {
	err       error
	transient bool
}

func (e *classifiedError) Error() string {
	if e.transient {
		return fmt.Sprintf("transient: %v", e.err)
	}
	return fmt.Sprintf("permanent: %v", e.err)
}

func (e *classifiedError) Unwrap() error { return e.err }

// Transient wraps err as a retryable failure (timeout, rate limit).
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, transient: true}
}

// Permanent wraps err as a non-retryable failure (malformed input).
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, transient: false}
}

// IsTransient reports whether err should be retried. Context deadline
// expiry counts as transient; unclassified errors do not.
func IsTransient(err error) bool {
	var ce *classifiedError
	if errors.As(err, &ce) {
		return ce.transient
	}
	return errors.Is(err, context.DeadlineExceeded)
}
