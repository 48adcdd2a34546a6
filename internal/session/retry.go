package session

import (
	"context"
	"math/rand"
	"time"
)

// Default backoff configuration shared by connect and chunk-write retries.
const (
	DefaultBackoffInitial = 500 * time.Millisecond
	DefaultBackoffMax     = 10 * time.Second
)

// backoff implements exponential backoff with jitter.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

// newBackoff creates a new backoff with the given initial and max durations.
func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{
		initial: initial,
		max:     max,
		current: initial,
	}
}

// Next returns the delay to sleep before the next attempt and advances the
// schedule. The returned delay carries ±20% jitter; the undamped value
// doubles each call up to max.
func (b *backoff) Next() time.Duration {
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	d := time.Duration(float64(b.current) + jitter)

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

// Reset resets the backoff to the initial duration.
func (b *backoff) Reset() {
	b.current = b.initial
}

// sleepFunc pauses for d or returns early with the context's error.
// Tests substitute an instant recording implementation.
type sleepFunc func(ctx context.Context, d time.Duration) error

// realSleep is the production sleepFunc.
func realSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retry runs op up to attempts times, sleeping a growing backoff between
// failures. It returns the number of attempts actually made and the last
// error, nil once an attempt succeeds. Context cancellation stops the
// cycle immediately.
func retry(ctx context.Context, attempts int, b *backoff, sleep sleepFunc, op func(ctx context.Context) error) (int, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return i, lastErr
		}
		if err := op(ctx); err == nil {
			return i + 1, nil
		} else {
			lastErr = err
		}
		if i < attempts-1 {
			if err := sleep(ctx, b.Next()); err != nil {
				return i + 1, lastErr
			}
		}
	}
	return attempts, lastErr
}
