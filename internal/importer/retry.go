package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/ansuz/internal/roamerr"
)

// Backoff schedules.
const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// RetryConfig controls how transient (rate-limited) failures are retried.
// The first hit waits InitialDelay, since the backend needs tens of seconds
// to wake a cold graph. Later hits wait RetryInterval, growing
// exponentially up to MaxDelay when Backoff is "exponential".
type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	Backoff       string        `yaml:"backoff"`
}

// DefaultRetryConfig mirrors the constants the service has historically
// tolerated well.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   10,
		InitialDelay:  30 * time.Second,
		RetryInterval: 5 * time.Second,
		MaxDelay:      2 * time.Minute,
		Backoff:       BackoffFixed,
	}
}

// delay returns the wait before the next attempt after the hit-th
// transient failure (1-based).
func (c RetryConfig) delay(hit int) time.Duration {
	if hit <= 1 {
		return c.InitialDelay
	}
	d := c.RetryInterval
	if c.Backoff == BackoffExponential {
		for i := 2; i < hit; i++ {
			d *= 2
			if d >= c.MaxDelay {
				return c.MaxDelay
			}
		}
	}
	if c.MaxDelay > 0 && d > c.MaxDelay {
		return c.MaxDelay
	}
	return d
}

// sleepFunc blocks for d or until ctx is done. Injected in tests.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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

// Do runs op under cfg's retry policy. It is the same loop Upload runs
// per block, exported for callers whose lookups and writes happen
// outside an upload (anchor blocks, page creation). sleep may be nil to
// use real sleeps.
func Do(ctx context.Context, cfg RetryConfig, sleep func(context.Context, time.Duration) error, opName string, op func(context.Context) error) error {
	if sleep == nil {
		sleep = sleepCtx
	}
	return withRetry(ctx, cfg, sleep, opName, op)
}

// withRetry runs op, retrying only transient errors per cfg. Any other
// error kind surfaces after exactly one attempt. Exhausting the budget
// yields a KindExhausted error: the operation's actual effect on the
// graph is unknown, which is not the same as a definitive rejection.
func withRetry(ctx context.Context, cfg RetryConfig, sleep sleepFunc, opName string, op func(context.Context) error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !roamerr.IsTransient(err) {
			return err
		}
		last = err
		if attempt == attempts {
			break
		}
		if serr := sleep(ctx, cfg.delay(attempt)); serr != nil {
			return serr
		}
	}
	return roamerr.New(roamerr.KindExhausted, opName,
		fmt.Errorf("gave up after %d attempts: %w", attempts, last))
}
