// Package retry is the single home of the bounded-retry-with-backoff
// primitive. All callers share the same backoff math; only the failure
// classifier differs per call site. It has no awareness of HTTP semantics.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Decision tells Do what to make of a failed attempt.
type Decision int

const (
	// RetryAttempt: wait out the backoff and try again (bounded by MaxAttempts).
	RetryAttempt Decision = iota
	// StopPermanent: the failure is terminal; return immediately.
	StopPermanent
	// SkipConflict: the same logical operation is already in flight elsewhere;
	// not an error, not retried.
	SkipConflict
)

// Classifier maps an attempt's error to a Decision.
type Classifier func(error) Decision

// AlwaysRetry is the classifier used by generic background jobs: every
// failure is retried until the attempt budget runs out.
func AlwaysRetry(error) Decision { return RetryAttempt }

// Policy configures the backoff schedule. Delay before attempt n (n >= 2) is
// min(MaxDelay, BaseDelay * Multiplier^(n-2)), optionally randomized by
// jitter.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	Jitter      bool

	// Sleep overrides the inter-attempt wait; nil means a context-aware timer.
	// Tests inject it to record the delay schedule without sleeping.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Delay returns the backoff before attempt n (1-based). Attempt 1 has no
// delay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-2)))
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && d > 0 {
		// Spread attempts out: anywhere between half and full delay.
		d = d/2 + time.Duration(rand.Int63n(int64(d/2)+1))
	}
	return d
}

// Do runs op until it succeeds, the classifier stops it, or MaxAttempts is
// exhausted. It returns the number of attempts made and the last error; a
// non-nil error is a terminal failure signal — exhaustion never panics or
// loops further. ctx cancellation during a backoff wait aborts with the
// context's error.
func Do(ctx context.Context, p Policy, classify Classifier, op func(ctx context.Context) error) (int, error) {
	if classify == nil {
		classify = AlwaysRetry
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = wait
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return attempt, nil
		}

		switch classify(lastErr) {
		case StopPermanent, SkipConflict:
			return attempt, lastErr
		}

		// The backoff is waited out after every retryable failure, the final
		// one included, so back-to-back invocations of the executor stay paced.
		if d := p.Delay(attempt + 1); d > 0 {
			if err := sleep(ctx, d); err != nil {
				return attempt, err
			}
		}
	}
	return p.MaxAttempts, lastErr
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
