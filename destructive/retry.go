package destructive

import (
	"context"
	"time"

	"github.com/schemadrift/schemadrift/internal/debug"
)

// RetryPolicy retries count queries that fail with a transient error, such
// as CockroachDB's asynchronous schema changes leaving an object briefly
// invisible. The delay starts at BaseDelay and doubles on every attempt.
type RetryPolicy struct {
	BaseDelay   time.Duration
	MaxAttempts int

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// DefaultRetryPolicy returns the policy used by the checker: six attempts
// starting at 400ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay:   400 * time.Millisecond,
		MaxAttempts: 6,
		sleep:       time.Sleep,
	}
}

// do runs op, retrying while isTransient accepts the error. Permanent
// errors and exhausted attempts return the last error.
func (p RetryPolicy) do(ctx context.Context, isTransient func(error) bool, op func() error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	delay := p.BaseDelay

	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		debug.Debug("transient error during inspection, retrying", "attempt", attempt+1, "delay", delay, "error", err)
		sleep(delay)
		delay *= 2
	}
	return err
}
