package openai

import (
	"context"
	"net/http"
	"time"

	base "github.com/KamdynS/designrelay/llm"
	"github.com/KamdynS/designrelay/observability"
	oa "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// Client implements llm.Client over any OpenAI-compatible chat endpoint
// (Upstage Solar by default).
type Client struct {
	client oa.Client
	cfg    Config
}

// Config configures the OpenAI client.
type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	Organization string
	Hooks        *observability.Hooks
}

// NewClient creates an OpenAI client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = "solar-pro2"
	}
	opts := []option.RequestOption{}
	if cfg.Timeout > 0 {
		// Streams stay open for the whole answer so this bounds the full response.
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Organization != "" {
		opts = append(opts, option.WithOrganization(cfg.Organization))
	}
	c := oa.NewClient(opts...)
	return &Client{client: c, cfg: cfg}, nil
}

func (c *Client) Model() string { return c.cfg.Model }

// ChatStream implements provider-neutral delta streaming for OpenAI.
func (c *Client) ChatStream(ctx context.Context, req *base.ChatRequest) (base.Stream, error) {
	params := c.params(req)
	c.cfg.Hooks.SafeLLMRequest(ctx, "openai", string(params.Model), map[string]any{"operation": "chat_stream"})
	s := c.client.Chat.Completions.NewStreaming(ctx, params)
	return &oaStreamWrapper{
		inner:    s,
		provider: "openai",
		model:    string(params.Model),
		hooks:    c.cfg.Hooks,
		started:  time.Now(),
	}, nil
}

func (c *Client) params(req *base.ChatRequest) oa.ChatCompletionNewParams {
	params := oa.ChatCompletionNewParams{Messages: toOAMessages(req)}
	if m := base.PickModel(req, c.cfg.Model); m != "" {
		params.Model = shared.ChatModel(m)
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxTokens = oa.Int(int64(c.cfg.MaxTokens))
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = oa.Float(c.cfg.Temperature)
	}
	return params
}

type oaStreamWrapper struct {
	inner    oaStreamCore
	provider string
	model    string
	closed   bool
	released bool
	hooks    *observability.Hooks
	started  time.Time
	reported bool
}

// oaStreamCore matches the subset of the OpenAI stream API we use.
type oaStreamCore interface {
	Next() bool
	Current() oa.ChatCompletionChunk
	Err() error
	Close() error
}

func (w *oaStreamWrapper) Recv(ctx context.Context) (base.Delta, error) {
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
		return base.Delta{Type: base.DeltaTypeDone, Provider: w.provider, Model: w.model}, nil
	}
	ev := w.inner.Current()
	for _, ch := range ev.Choices {
		if ch.Delta.Content != "" {
			return base.Delta{Type: base.DeltaTypeText, Text: ch.Delta.Content, Provider: w.provider, Model: w.model}, nil
		}
	}
	// Role-only and usage chunks carry no text.
	return base.Delta{}, nil
}

// Close releases the SDK stream once, including after the stream ended.
func (w *oaStreamWrapper) Close() error {
	w.report(context.Background(), nil)
	w.closed = true
	if w.released {
		return nil
	}
	w.released = true
	return w.inner.Close()
}

func (w *oaStreamWrapper) report(ctx context.Context, err error) {
	if w.reported {
		return
	}
	w.reported = true
	w.hooks.SafeLLMResponse(ctx, w.provider, w.model, time.Since(w.started), map[string]any{"operation": "chat_stream", "error": err != nil})
}

func toOAMessages(req *base.ChatRequest) []oa.ChatCompletionMessageParamUnion {
	msgs := make([]oa.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, oa.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case base.RoleAssistant:
			msgs = append(msgs, oa.AssistantMessage(m.Content))
		case base.RoleSystem:
			msgs = append(msgs, oa.SystemMessage(m.Content))
		default:
			msgs = append(msgs, oa.UserMessage(m.Content))
		}
	}
	return msgs
}
