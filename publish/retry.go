package publish

import (
	"context"
	"math"
	"time"
)

// RetryConfig controls retry behavior for feed backends.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// OnRetry is called before each retry sleep.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns sane defaults for feed retries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Retrier performs bounded exponential backoff retries for a function.
type Retrier struct {
	cfg RetryConfig
}

// NewRetrier creates a new Retrier with the given config (or defaults if zero values).
func NewRetrier(cfg RetryConfig) *Retrier {
	def := DefaultRetryConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = def.BackoffFactor
	}
	return &Retrier{cfg: cfg}
}

// Do runs fn and retries on error up to MaxRetries with exponential backoff.
func (r *Retrier) Do(ctx context.Context, fn func() error) error {
	attempt := 0
	delay := r.cfg.InitialDelay
	for {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= r.cfg.MaxRetries {
			return err
		}
		attempt++
		if r.cfg.OnRetry != nil {
			r.cfg.OnRetry(attempt, err)
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		next := time.Duration(float64(delay) * r.cfg.BackoffFactor)
		// Guard against overflow
		if next > r.cfg.MaxDelay || next < 0 || next > time.Duration(math.MaxInt64) {
			next = r.cfg.MaxDelay
		}
		delay = next
	}
}
