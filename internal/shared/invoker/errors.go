package invoker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"
)

var (
	ErrExhaustedRetries = errors.New("retries exhausted")
	ErrFatal            = errors.New("remote call failed")
)

// Error is returned by Exec and Do when a call gives up.
// It matches ErrExhaustedRetries or ErrFatal with errors.Is and unwraps to the last cause.
type Error struct {
	Op        string
	Attempts  int
	Exhausted bool
	Err       error
}

func (e *Error) Error() string {
	if e.Exhausted {
		return fmt.Sprintf("%s: %v after %d attempts: %v", e.Op, ErrExhaustedRetries, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrExhaustedRetries:
		return e.Exhausted
	case ErrFatal:
		return !e.Exhausted
	}
	return false
}

// Transient marks err as a temporary network failure worth retrying.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: err}
}

type transientError struct{ err error }

func (e transientError) Error() string { return fmt.Sprintf("transient: %v", e.err) }
func (e transientError) Unwrap() error { return e.err }

// RateLimited marks err as a server-side throttle that asks for a wait of after.
func RateLimited(err error, after time.Duration) error {
	if err == nil {
		return nil
	}
	if after < 0 {
		after = 0
	}
	return retryAfterError{err: err, after: after}
}

// RetryAfterError is implemented by errors that carry a server-requested wait.
type RetryAfterError interface {
	error
	RetryAfter() time.Duration
}

type retryAfterError struct {
	err   error
	after time.Duration
}

func (e retryAfterError) Error() string             { return fmt.Sprintf("retry-after(%s): %v", e.after, e.err) }
func (e retryAfterError) Unwrap() error             { return e.err }
func (e retryAfterError) RetryAfter() time.Duration { return e.after }

type class int

const (
	classFatal class = iota
	classTransient
	classRateLimited
)

func (c class) String() string {
	switch c {
	case classTransient:
		return "transient"
	case classRateLimited:
		return "rate_limited"
	default:
		return "fatal"
	}
}

// classify decides how a failed call is handled. ctx is the caller's context:
// a deadline that belongs to the caller is not retried.
func classify(ctx context.Context, err error) (class, time.Duration) {
	var ra RetryAfterError
	if errors.As(err, &ra) {
		return classRateLimited, ra.RetryAfter()
	}

	var te transientError
	if errors.As(err, &te) {
		return classTransient, 0
	}

	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return classTransient, 0
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return classTransient, 0
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return classTransient, 0
	}

	switch {
	case errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ENETUNREACH):
		return classTransient, 0
	}

	return classFatal, 0
}
