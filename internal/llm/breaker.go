package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// ErrBreakerOpen is returned while the circuit breaker rejects requests
var ErrBreakerOpen = gobreaker.ErrOpenState

type breakerProvider struct {
	next Provider
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker wraps p in a circuit breaker that opens after threshold
// consecutive failed requests. Transient failures (5xx, timeouts) are
// retried by the translator, so a service that keeps failing trips the
// breaker and further requests fail fast with ErrBreakerOpen until cooldown
// has passed. Rate limits do not count as failures, the caller backs off on
// those. A threshold of zero or less returns p unchanged.
func WithBreaker(p Provider, threshold int, cooldown time.Duration) Provider {
	if threshold <= 0 {
		return p
	}

	settings := gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsRateLimited(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return &breakerProvider{next: p, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *breakerProvider) Name() string {
	return b.next.Name()
}

func (b *breakerProvider) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Generate(ctx, prompt)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}
