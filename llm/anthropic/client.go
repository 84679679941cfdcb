package anthropic

import (
	"context"
	"net/http"
	"time"

	base "github.com/KamdynS/designrelay/llm"
	"github.com/KamdynS/designrelay/observability"
	anth "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

// Client implements llm.Client for the Anthropic Messages API.
type Client struct {
	client anth.Client
	cfg    Config
}

// Config configures the Anthropic client.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Hooks       *observability.Hooks
}

// NewClient creates an Anthropic client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	c := anth.NewClient(opts...)
	return &Client{client: c, cfg: cfg}, nil
}

func (c *Client) Model() string { return c.cfg.Model }

// ChatStream opens an SDK event stream and maps text deltas.
func (c *Client) ChatStream(ctx context.Context, req *base.ChatRequest) (base.Stream, error) {
	params := toAnthParams(req, c.cfg)
	c.cfg.Hooks.SafeLLMRequest(ctx, "anthropic", string(params.Model), map[string]any{"operation": "chat_stream"})
	s := c.client.Messages.NewStreaming(ctx, params)
	return &anthStreamWrapper{inner: s, model: string(params.Model), hooks: c.cfg.Hooks, started: time.Now()}, nil
}

// anthStreamCore matches the subset of the SDK stream we use.
type anthStreamCore interface {
	Next() bool
	Current() anth.MessageStreamEventUnion
	Err() error
	Close() error
}

var _ anthStreamCore = (*ssestream.Stream[anth.MessageStreamEventUnion])(nil)

type anthStreamWrapper struct {
	inner    anthStreamCore
	model    string
	closed   bool
	released bool
	hooks    *observability.Hooks
	started  time.Time
	reported bool
}

func (w *anthStreamWrapper) Recv(ctx context.Context) (base.Delta, error) {
	if w.closed {
		return base.Delta{}, base.ErrStreamClosed
	}
	if !w.inner.Next() {
		if err := w.inner.Err(); err != nil {
			w.report(ctx, err)
			return base.Delta{}, err
		}
		w.closed = true
		w.report(ctx, nil)
		return base.Delta{Type: base.DeltaTypeDone, Provider: "anthropic", Model: w.model}, nil
	}
	switch ev := w.inner.Current().AsAny().(type) {
	case anth.ContentBlockDeltaEvent:
		if d, ok := ev.Delta.AsAny().(anth.TextDelta); ok && d.Text != "" {
			return base.Delta{Type: base.DeltaTypeText, Text: d.Text, Provider: "anthropic", Model: w.model}, nil
		}
	case anth.MessageStopEvent:
		w.closed = true
		w.report(ctx, nil)
		return base.Delta{Type: base.DeltaTypeDone, Provider: "anthropic", Model: w.model}, nil
	}
	return base.Delta{}, nil
}

func (w *anthStreamWrapper) Close() error {
	w.report(context.Background(), nil)
	w.closed = true
	if w.released {
		return nil
	}
	w.released = true
	return w.inner.Close()
}

func (w *anthStreamWrapper) report(ctx context.Context, err error) {
	if w.reported {
		return
	}
	w.reported = true
	w.hooks.SafeLLMResponse(ctx, "anthropic", w.model, time.Since(w.started), map[string]any{"operation": "chat_stream", "error": err != nil})
}

func toAnthParams(req *base.ChatRequest, cfg Config) anth.MessageNewParams {
	msgs := make([]anth.MessageParam, 0, len(req.Messages))
	var system []anth.TextBlockParam
	if req.SystemPrompt != "" {
		system = append(system, anth.TextBlockParam{Text: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		switch m.Role {
		case base.RoleSystem:
			system = append(system, anth.TextBlockParam{Text: m.Content})
			continue
		case base.RoleAssistant:
			msgs = append(msgs, anth.NewAssistantMessage(anth.NewTextBlock(m.Content)))
		default:
			msgs = append(msgs, anth.NewUserMessage(anth.NewTextBlock(m.Content)))
		}
	}
	params := anth.MessageNewParams{
		Messages:  msgs,
		MaxTokens: int64(cfg.MaxTokens),
		Model:     anth.Model(base.PickModel(req, cfg.Model)),
		System:    system,
	}
	if cfg.Temperature > 0 {
		params.Temperature = anth.Float(cfg.Temperature)
	}
	return params
}
