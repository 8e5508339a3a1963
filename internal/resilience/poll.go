package resilience

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// ErrPollExhausted is returned when the polled condition never became true
// within the attempt bound.
var ErrPollExhausted = eris.New("resilience: poll attempts exhausted")

// PollConfig controls a fixed-count, fixed-interval polling loop. Unlike
// RetryConfig it does not back off: a poll waits for an external system to
// converge, and the bound is the contract.
type PollConfig struct {
	// MaxAttempts is the number of condition checks. Default: 10.
	MaxAttempts int

	// Interval is the delay between checks. Default: 2s.
	Interval time.Duration

	// Sleep overrides the inter-attempt wait. Tests inject a no-op sleeper.
	// If nil, a timer honoring ctx cancellation is used.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPollConfig matches the remote copy completion bound (10 × 2s).
func DefaultPollConfig() PollConfig {
	return PollConfig{MaxAttempts: 10, Interval: 2 * time.Second}
}

func (cfg PollConfig) withDefaults() PollConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepCtx
	}
	return cfg
}

// Poll invokes check up to cfg.MaxAttempts times, sleeping cfg.Interval
// between attempts. check returns (value, done, err): done stops polling
// with success, a non-nil err stops polling immediately, and (false, nil)
// schedules another attempt. Exhausting the bound returns ErrPollExhausted.
func Poll[T any](ctx context.Context, cfg PollConfig, check func(ctx context.Context) (T, bool, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := cfg.Sleep(ctx, cfg.Interval); err != nil {
				return zero, err
			}
		}

		val, done, err := check(ctx)
		if err != nil {
			return zero, err
		}
		if done {
			return val, nil
		}
	}

	return zero, ErrPollExhausted
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
