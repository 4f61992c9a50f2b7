package tasks

import (
	"context"
	"log"
	"time"
)

// RetryPolicy wraps task execution with bounded, exponentially backed-off
// retries. The delay doubles per attempt: with three attempts and a one
// second base the waits are 1s then 2s, after which the task is given up.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy is applied to queued ingestion jobs.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   time.Second,
}

// Run executes fn until it succeeds, the attempt budget is exhausted, or the
// context is cancelled. The terminal error is returned after the budget is
// spent; callers decide whether to drop or surface it.
func (p RetryPolicy) Run(ctx context.Context, name string, fn func(context.Context) error) error {
	delay := p.BaseDelay
	var err error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == p.MaxAttempts {
			break
		}

		log.Printf("Task %s attempt %d/%d failed: %v (retrying in %s)", name, attempt, p.MaxAttempts, err, delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}

	return err
}
