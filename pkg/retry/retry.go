// Package retry provides the shared retry primitive used by handlers and the
// batch executor: bounded attempts with exponential backoff and no jitter.
package retry

import (
	"context"
	"time"
)

// Policy parameterizes the retry primitive. The delay before attempt n+1 is
// BaseDelay * Factor^(n-1); Factor values < 1 fall back to 2.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      int
}

// Do invokes fn up to MaxAttempts times, sleeping between attempts per the
// policy. After the final failed attempt it returns the last error unchanged.
// The inter-attempt sleep respects ctx cancellation.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	factor := p.Factor
	if factor < 1 {
		factor = 2
	}

	var err error
	delay := p.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= time.Duration(factor)
	}
	return err
}

// Do invokes fn up to maxAttempts times with the default doubling backoff.
func Do(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	return Policy{MaxAttempts: maxAttempts, BaseDelay: baseDelay}.Do(ctx, fn)
}
