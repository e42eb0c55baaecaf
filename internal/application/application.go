package application

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// UseCase is one business operation taking a command C and producing R.
type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

var (
	ErrValidation = errors.New("validation failed")
	ErrRepository = errors.New("repository failure")
)

// Validation wraps msg so callers can match it with ErrValidation.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Clock returns the current time. Use cases take one so tests can pin it.
type Clock func() time.Time

// SystemClock reports the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

// Now calls c, falling back to the system clock when c is nil.
func (c Clock) Now() time.Time {
	if c == nil {
		return SystemClock()
	}
	return c()
}
