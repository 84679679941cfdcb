// Package observability provides optional callbacks for logging and metrics
// without tying the core packages to a logging or metrics library.
package observability

import (
	"context"
	"time"
)

// Log levels passed to Hooks.Logf.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Hooks provides optional callbacks for logging, metrics, and tracing. All
// functions are optional.
type Hooks struct {
	// Logf logs a structured message with a severity level and key-value fields.
	Logf func(ctx context.Context, level string, msg string, fields map[string]any)

	// OnLLMRequest is called before a provider stream is opened.
	OnLLMRequest func(ctx context.Context, provider string, model string, meta map[string]any)
	// OnLLMResponse is called when a provider stream ends, successfully or not.
	OnLLMResponse func(ctx context.Context, provider string, model string, latency time.Duration, meta map[string]any)

	// OnRunStart is called when a processing run begins.
	OnRunStart func(ctx context.Context, runID string)
	// OnRunFinish is called once per run with the kind of terminal event sent.
	OnRunFinish func(ctx context.Context, runID string, outcome string, tokens int, latency time.Duration)
	// OnImage is called when an image side effect finishes with "done" or "error".
	OnImage func(ctx context.Context, status string, latency time.Duration)
	// OnRetry is called when an adapter retries a failed call.
	OnRetry func(ctx context.Context, component string, attempt int, err error)
}

// SafeLog logs if Logf is configured.
func (h *Hooks) SafeLog(ctx context.Context, level string, msg string, fields map[string]any) {
	if h != nil && h.Logf != nil {
		h.Logf(ctx, level, msg, fields)
	}
}

// SafeLLMRequest invokes OnLLMRequest if configured.
func (h *Hooks) SafeLLMRequest(ctx context.Context, provider string, model string, meta map[string]any) {
	if h != nil && h.OnLLMRequest != nil {
		h.OnLLMRequest(ctx, provider, model, meta)
	}
}

// SafeLLMResponse invokes OnLLMResponse if configured.
func (h *Hooks) SafeLLMResponse(ctx context.Context, provider string, model string, latency time.Duration, meta map[string]any) {
	if h != nil && h.OnLLMResponse != nil {
		h.OnLLMResponse(ctx, provider, model, latency, meta)
	}
}

// SafeRunStart invokes OnRunStart if configured.
func (h *Hooks) SafeRunStart(ctx context.Context, runID string) {
	if h != nil && h.OnRunStart != nil {
		h.OnRunStart(ctx, runID)
	}
}

// SafeRunFinish invokes OnRunFinish if configured.
func (h *Hooks) SafeRunFinish(ctx context.Context, runID string, outcome string, tokens int, latency time.Duration) {
	if h != nil && h.OnRunFinish != nil {
		h.OnRunFinish(ctx, runID, outcome, tokens, latency)
	}
}

// SafeImage invokes OnImage if configured.
func (h *Hooks) SafeImage(ctx context.Context, status string, latency time.Duration) {
	if h != nil && h.OnImage != nil {
		h.OnImage(ctx, status, latency)
	}
}

// SafeRetry invokes OnRetry if configured.
func (h *Hooks) SafeRetry(ctx context.Context, component string, attempt int, err error) {
	if h != nil && h.OnRetry != nil {
		h.OnRetry(ctx, component, attempt, err)
	}
}

// Merge returns Hooks that call every non-nil callback of hs in order.
func Merge(hs ...*Hooks) *Hooks {
	out := &Hooks{}
	out.Logf = func(ctx context.Context, level string, msg string, fields map[string]any) {
		for _, h := range hs {
			h.SafeLog(ctx, level, msg, fields)
		}
	}
	out.OnLLMRequest = func(ctx context.Context, provider string, model string, meta map[string]any) {
		for _, h := range hs {
			h.SafeLLMRequest(ctx, provider, model, meta)
		}
	}
	out.OnLLMResponse = func(ctx context.Context, provider string, model string, latency time.Duration, meta map[string]any) {
		for _, h := range hs {
			h.SafeLLMResponse(ctx, provider, model, latency, meta)
		}
	}
	out.OnRunStart = func(ctx context.Context, runID string) {
		for _, h := range hs {
			h.SafeRunStart(ctx, runID)
		}
	}
	out.OnRunFinish = func(ctx context.Context, runID string, outcome string, tokens int, latency time.Duration) {
		for _, h := range hs {
			h.SafeRunFinish(ctx, runID, outcome, tokens, latency)
		}
	}
	out.OnImage = func(ctx context.Context, status string, latency time.Duration) {
		for _, h := range hs {
			h.SafeImage(ctx, status, latency)
		}
	}
	out.OnRetry = func(ctx context.Context, component string, attempt int, err error) {
		for _, h := range hs {
			h.SafeRetry(ctx, component, attempt, err)
		}
	}
	return out
}
