// Package invoker runs remote calls with bounded retries on network failures
// and server-directed waits on rate limiting.
package invoker

import (
	"context"
	"log/slog"
	"time"
)

// Policy bounds retries of transient failures. BaseDelay is a fixed pause, not a backoff base.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy is used for every call that does not ask for something else.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Invoker holds the retry policy and the sleeper shared by all call sites.
type Invoker struct {
	policy Policy
	sleep  SleepFunc
	logger *slog.Logger
}

type Option func(*Invoker)

func WithPolicy(p Policy) Option {
	return func(inv *Invoker) { inv.policy = p }
}

func WithSleep(fn SleepFunc) Option {
	return func(inv *Invoker) { inv.sleep = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(inv *Invoker) { inv.logger = l }
}

// New creates an Invoker with DefaultPolicy and a real sleeper.
func New(opts ...Option) *Invoker {
	inv := &Invoker{
		policy: DefaultPolicy(),
		sleep:  Sleep,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Policy returns the default policy.
func (inv *Invoker) Policy() Policy {
	return inv.policy
}

// Pause waits d using the invoker's sleeper. Pacing pauses go through here so
// tests can observe them.
func (inv *Invoker) Pause(ctx context.Context, d time.Duration) error {
	return inv.sleep(ctx, d)
}

// Exec runs fn with the given policy.
func (inv *Invoker) Exec(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, inv, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Do runs fn until it succeeds, the transient budget is spent, or a fatal error occurs.
// Rate-limited failures wait the server-provided duration and never consume the budget cap.
func Do[T any](ctx context.Context, inv *Invoker, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	attempts := 0
	for {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		attempts++

		if ctx.Err() != nil {
			return zero, &Error{Op: op, Attempts: attempts, Err: err}
		}

		c, wait := classify(ctx, err)
		switch c {
		case classTransient:
			if attempts >= p.MaxAttempts {
				inv.logger.Warn("Remote call failed, giving up", "op", op, "attempts", attempts, "error", err)
				return zero, &Error{Op: op, Attempts: attempts, Exhausted: true, Err: err}
			}
			inv.logger.Warn("Remote call timed out, retrying",
				"op", op, "attempt", attempts, "max_attempts", p.MaxAttempts, "delay", p.BaseDelay, "error", err)
			if serr := inv.sleep(ctx, p.BaseDelay); serr != nil {
				return zero, &Error{Op: op, Attempts: attempts, Err: serr}
			}
		case classRateLimited:
			inv.logger.Warn("Rate limited, waiting", "op", op, "retry_after", wait, "attempt", attempts)
			if serr := inv.sleep(ctx, wait); serr != nil {
				return zero, &Error{Op: op, Attempts: attempts, Err: serr}
			}
		default:
			return zero, &Error{Op: op, Attempts: attempts, Err: err}
		}
	}
}
