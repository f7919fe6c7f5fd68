// Package retry runs fallible operations under an exponential backoff
// policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var ErrExhausted = errors.New("retry attempts exhausted")

// Policy bounds a retry loop. The first attempt runs immediately; each
// later attempt waits InitialDelay*Multiplier^(n-1).
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		Multiplier:   2,
	}
}

// Delays returns the waits between consecutive attempts.
func (p Policy) Delays() []time.Duration {
	if p.MaxAttempts <= 1 {
		return nil
	}
	delays := make([]time.Duration, p.MaxAttempts-1)
	for i := range delays {
		delays[i] = time.Duration(float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(i)))
	}
	return delays
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialDelay
	exp.Multiplier = p.Multiplier
	exp.RandomizationFactor = 0
	exp.MaxInterval = time.Duration(math.MaxInt64)
	exp.MaxElapsedTime = 0

	retries := 0
	if p.MaxAttempts > 1 {
		retries = p.MaxAttempts - 1
	}
	return backoff.WithMaxRetries(backoff.WithContext(exp, ctx), uint64(retries))
}

type options struct {
	retryIf func(error) bool
	timer   backoff.Timer
	notify  func(err error, attempt int, next time.Duration)
}

type Option func(*options)

// WithRetryIf limits retries to errors for which fn reports true. Other
// errors end the loop after the attempt that produced them.
func WithRetryIf(fn func(error) bool) Option {
	return func(o *options) { o.retryIf = fn }
}

// WithTimer replaces the wall-clock timer used between attempts.
func WithTimer(t backoff.Timer) Option {
	return func(o *options) { o.timer = t }
}

// WithNotify registers a callback invoked before each wait with the failed
// attempt number (1-based) and the delay that follows.
func WithNotify(fn func(err error, attempt int, next time.Duration)) Option {
	return func(o *options) { o.notify = fn }
}

// Do runs op until it succeeds, returns a non-retryable error, the policy
// runs out of attempts or ctx is done. Exhaustion yields an error matching
// ErrExhausted that also wraps the last failure.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error), opts ...Option) (T, error) {
	o := options{retryIf: func(error) bool { return true }}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		attempts  int
		permanent bool
	)

	operation := func() (T, error) {
		attempts++
		res, err := op(ctx)
		if err != nil && !o.retryIf(err) {
			permanent = true
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	var notify backoff.Notify
	if o.notify != nil {
		notify = func(err error, next time.Duration) {
			o.notify(err, attempts, next)
		}
	}

	res, err := backoff.RetryNotifyWithTimerAndData(operation, p.backOff(ctx), notify, o.timer)
	switch {
	case err == nil:
		return res, nil
	case permanent:
		return res, err
	case ctx.Err() != nil:
		return res, ctx.Err()
	default:
		return res, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, err)
	}
}
