package resolve

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryPolicy retries an operation a fixed number of times with a constant
// delay between attempts, plus optional jitter.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	Jitter   time.Duration
}

// ProfileRetry is the policy applied to profile lookups: three attempts
// five seconds apart, no jitter.
var ProfileRetry = RetryPolicy{Attempts: 3, Delay: 5 * time.Second}

// Do runs fn until it returns nil or the attempts are exhausted, returning
// the last error. The wait between attempts respects ctx cancellation.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		wait := p.Delay
		if p.Jitter > 0 {
			wait += rand.N(p.Jitter)
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}
