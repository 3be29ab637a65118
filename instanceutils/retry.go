package instanceutils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ruteri/holo-auth-client/interfaces"
)

// RetryConfig controls the backoff schedule. The zero values of MaxInterval,
// MaxAttempts and MaxElapsedTime mean unbounded.
type RetryConfig struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	RandomizationFactor float64
	MaxAttempts         uint64
	MaxElapsedTime      time.Duration
}

// DefaultRetryConfig doubles from one second with no jitter and no limits.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{InitialInterval: time.Second}
}

// Validate rejects a non-positive initial interval, negative limits and
// jitter outside [0, 1).
func (c RetryConfig) Validate() error {
	if c.InitialInterval <= 0 {
		return errors.New("retry initial interval must be positive")
	}
	if c.MaxInterval < 0 || c.MaxElapsedTime < 0 {
		return errors.New("retry limits must not be negative")
	}
	if c.RandomizationFactor < 0 || c.RandomizationFactor >= 1 {
		return fmt.Errorf("retry jitter must be in [0, 1), got %v", c.RandomizationFactor)
	}
	return nil
}

func (c RetryConfig) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	b.RandomizationFactor = c.RandomizationFactor
	b.Multiplier = 2
	b.MaxInterval = c.MaxInterval
	if b.MaxInterval == 0 {
		b.MaxInterval = time.Duration(math.MaxInt64)
	}
	b.MaxElapsedTime = c.MaxElapsedTime
	b.Reset()
	return b
}

// RetryController runs an operation until it succeeds, sleeping between
// failed attempts according to Config.
type RetryController struct {
	Config RetryConfig

	// Permanent reports errors that must not be retried. Optional.
	Permanent func(error) bool

	// Timer overrides the wall clock timer, for tests.
	Timer backoff.Timer

	Log *slog.Logger
}

// NewRetryController returns a controller running on the wall clock that
// treats ErrConfigVersion as permanent.
func NewRetryController(config RetryConfig, log *slog.Logger) *RetryController {
	return &RetryController{
		Config:    config,
		Permanent: func(err error) bool { return errors.Is(err, interfaces.ErrConfigVersion) },
		Log:       log,
	}
}

// RunUntilSuccess returns nil once op succeeds. Otherwise it returns
// ErrCancelled when ctx is done, the error itself when it is permanent, or
// ErrRetriesExhausted wrapping the last error when a configured limit is hit.
func (r *RetryController) RunUntilSuccess(ctx context.Context, name string, op func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", interfaces.ErrCancelled, name, err)
	}

	var b backoff.BackOff = r.Config.newBackOff()
	if r.Config.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, r.Config.MaxAttempts-1)
	}
	b = backoff.WithContext(b, ctx)

	attempt := 0
	permanent := false
	operation := func() error {
		attempt++
		err := op(ctx)
		if err != nil && r.Permanent != nil && r.Permanent(err) {
			permanent = true
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		r.Log.Warn("Attempt failed, retrying",
			slog.String("operation", name),
			slog.Int("attempt", attempt),
			slog.Duration("next", next),
			"err", err)
	}

	err := backoff.RetryNotifyWithTimer(operation, b, notify, r.Timer)
	switch {
	case err == nil:
		r.Log.Info("Operation succeeded", slog.String("operation", name), slog.Int("attempts", attempt))
		return nil
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %s after %d attempts: %w", interfaces.ErrCancelled, name, attempt, ctx.Err())
	case permanent:
		return err
	default:
		return fmt.Errorf("%w: %s failed %d times: %w", interfaces.ErrRetriesExhausted, name, attempt, err)
	}
}
