package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"
)

// ErrRetriesExhausted is returned when a ledger call kept failing for longer
// than the retry timeout.
var ErrRetriesExhausted = errors.New("retries exhausted")

// retry runs action until it succeeds, ctx ends or it has been failing for
// longer than the retry timeout. Waits grow along the Fibonacci sequence.
func (d *Daemon) retry(ctx context.Context, operation string, block uint64, action func(context.Context) error) error {
	var lastErr error
	err := retry.Retry(func(uint) error {
		lastErr = action(ctx)
		return lastErr
	}, d.untilTimeout(ctx, operation, block, &lastErr))
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %s: %w", ErrRetriesExhausted, operation, err)
}

func (d *Daemon) untilTimeout(ctx context.Context, operation string, block uint64, lastErr *error) strategy.Strategy {
	algorithm := backoff.Fibonacci(retryBackoffFactor)
	var firstFailure time.Time

	return func(attempt uint) bool {
		if attempt == 0 {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		now := d.clock.Now()
		if attempt == 1 {
			firstFailure = now
		}
		if now.Sub(firstFailure) >= d.opts.RetryTimeout {
			return false
		}

		wait := min(algorithm(attempt), retryMaxBackoff)
		d.metrics.ObserveRetry(operation)
		d.observer.OnEvent(*lastErr, Event{Type: RetryScheduled, Block: block, Operation: operation})
		return d.clock.Sleep(ctx, wait) == nil
	}
}
