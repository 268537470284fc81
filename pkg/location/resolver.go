package location

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper backed by a real timer.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RetryPolicy bounds how hard the resolver pushes a single provider.
type RetryPolicy struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

// DefaultRetryPolicy makes three attempts one second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, RetryDelay: time.Second}
}

// Resolver walks an ordered provider list until one returns a result.
type Resolver[Q any, R any] struct {
	policy RetryPolicy
	sleep  Sleeper
	logger zerolog.Logger
}

// NewResolver builds a resolver. A nil sleeper means SleepContext.
func NewResolver[Q any, R any](policy RetryPolicy, sleep Sleeper, logger zerolog.Logger) *Resolver[Q, R] {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if sleep == nil {
		sleep = SleepContext
	}
	return &Resolver[Q, R]{
		policy: policy,
		sleep:  sleep,
		logger: logger,
	}
}

// Resolve returns the first normalized result, in provider order.
// Transient failures are retried up to MaxAttempts with RetryDelay between them;
// definitive failures move straight to the next provider. ok is false when
// every provider is exhausted or ctx ends.
func (r *Resolver[Q, R]) Resolve(ctx context.Context, query Q, providers []Provider[Q, R]) (R, bool) {
	var zero R

	for _, provider := range providers {
		attempt := newProviderAttempt(provider.Name(), r.policy.MaxAttempts)

		for !attempt.done() {
			if attempt.state == StateRetrying {
				if err := r.sleep(ctx, r.policy.RetryDelay); err != nil {
					r.logger.Warn().Err(err).Str("provider", attempt.provider).Msg("Resolution cancelled during retry delay")
					return zero, false
				}
			}

			result, err := provider.Call(ctx, query)
			if err == nil {
				if terr := attempt.succeed(); terr != nil {
					r.logger.Error().Err(terr).Msg("Attempt state machine rejected success")
				}
				r.logger.Debug().
					Str("provider", attempt.provider).
					Int("attempt", attempt.attempts).
					Msg("Provider returned a result")
				return result, true
			}

			perr := classify(provider.Name(), err)
			if terr := attempt.fail(perr); terr != nil {
				r.logger.Error().Err(terr).Msg("Attempt state machine rejected failure")
				break
			}
			r.logger.Warn().
				Err(perr).
				Str("provider", attempt.provider).
				Str("kind", perr.Kind.String()).
				Int("attempt", attempt.attempts).
				Str("state", string(attempt.state)).
				Msg("Provider call failed")

			if ctx.Err() != nil {
				return zero, false
			}
		}
	}

	r.logger.Warn().Int("providers", len(providers)).Msg("All providers exhausted")
	return zero, false
}
