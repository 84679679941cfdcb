package imaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// BreakerConfig configures the circuit breaker behavior.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before transitioning to half-open.
	Timeout time.Duration
	// Interval is the cyclic period of the closed state for clearing failure counts.
	Interval time.Duration
}

// BreakerGenerator wraps a Generator with circuit breaker protection. While
// the circuit is open calls fail fast without reaching the provider.
type BreakerGenerator struct {
	inner   Generator
	breaker *gobreaker.CircuitBreaker[Image]
}

var _ Generator = (*BreakerGenerator)(nil)

// NewBreakerGenerator wraps inner. Zero config fields take defaults.
func NewBreakerGenerator(inner Generator, cfg BreakerConfig, log zerolog.Logger) *BreakerGenerator {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}
	cb := gobreaker.NewCircuitBreaker[Image](gobreaker.Settings{
		Name:        "image-generator",
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
		IsSuccessful: func(err error) bool {
			// A canceled request says nothing about provider health.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerGenerator{inner: inner, breaker: cb}
}

func (g *BreakerGenerator) Generate(ctx context.Context, prompt string, size string) (Image, error) {
	img, err := g.breaker.Execute(func() (Image, error) {
		return g.inner.Generate(ctx, prompt, size)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Image{}, fmt.Errorf("image generation unavailable: circuit open: %w", err)
	}
	return img, err
}

// State returns the current breaker state for monitoring.
func (g *BreakerGenerator) State() gobreaker.State { return g.breaker.State() }
