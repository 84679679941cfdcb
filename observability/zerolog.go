package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. Development gets a console writer,
// everything else JSON on stdout.
func NewLogger(development bool, level string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if development {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// ZerologHooks routes Hooks callbacks to a zerolog logger.
func ZerologHooks(log zerolog.Logger) *Hooks {
	return &Hooks{
		Logf: func(ctx context.Context, level string, msg string, fields map[string]any) {
			ev := eventFor(log, level)
			if len(fields) > 0 {
				ev = ev.Fields(fields)
			}
			ev.Msg(msg)
		},
		OnLLMRequest: func(ctx context.Context, provider string, model string, meta map[string]any) {
			log.Debug().Str("provider", provider).Str("model", model).Fields(meta).Msg("llm stream opened")
		},
		OnLLMResponse: func(ctx context.Context, provider string, model string, latency time.Duration, meta map[string]any) {
			log.Debug().Str("provider", provider).Str("model", model).Dur("latency", latency).Fields(meta).Msg("llm stream finished")
		},
		OnRunFinish: func(ctx context.Context, runID string, outcome string, tokens int, latency time.Duration) {
			log.Info().Str("run_id", runID).Str("outcome", outcome).Int("tokens", tokens).Dur("latency", latency).Msg("run finished")
		},
		OnImage: func(ctx context.Context, status string, latency time.Duration) {
			log.Info().Str("image_status", status).Dur("latency", latency).Msg("image side effect finished")
		},
		OnRetry: func(ctx context.Context, component string, attempt int, err error) {
			log.Warn().Str("component", component).Int("attempt", attempt).Err(err).Msg("retrying")
		},
	}
}

func eventFor(log zerolog.Logger, level string) *zerolog.Event {
	switch level {
	case LevelDebug:
		return log.Debug()
	case LevelWarn:
		return log.Warn()
	case LevelError:
		return log.Error()
	default:
		return log.Info()
	}
}
