// Package brief turns a streamed model answer into a design brief: it
// surfaces the content field while it streams, detects the completed
// document, fires the image side effect once, and degrades gracefully when
// the model never produces valid JSON.
package brief

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KamdynS/designrelay/imaging"
	"github.com/KamdynS/designrelay/llm"
	"github.com/KamdynS/designrelay/observability"
	"github.com/KamdynS/designrelay/publish"
)

// DefaultImageSize is the fixed output resolution for generated images.
const DefaultImageSize = "1024x1024"

// DefaultPublishTimeout bounds the generation feed publish of one run.
const DefaultPublishTimeout = 5 * time.Second

// Request is the inbound conversation.
type Request struct {
	Context  RequestContext `json:"context"`
	Messages []llm.Message  `json:"messages"`
}

// RequestContext carries the design page's seed prompt.
type RequestContext struct {
	Prompt string `json:"prompt"`
}

// Config holds the dependencies of a Processor. Clients are built once at
// startup and shared by every run.
type Config struct {
	Source    llm.Client
	Generator imaging.Generator
	Store     imaging.Store
	// Publisher is optional.
	Publisher publish.Publisher
	Hooks     *observability.Hooks

	SystemPrompt string
	Model        string
	ImageSize    string
	Folder       string
	// PublishTimeout bounds the feed publish, which runs after the last
	// event of a run. Zero means DefaultPublishTimeout.
	PublishTimeout time.Duration
}

// Processor runs one brief per request.
type Processor struct {
	cfg Config
}

var errSourceRequired = errors.New("brief: token source is required")

// NewProcessor validates cfg and applies defaults.
func NewProcessor(cfg Config) (*Processor, error) {
	if cfg.Source == nil {
		return nil, errSourceRequired
	}
	if cfg.ImageSize == "" {
		cfg.ImageSize = DefaultImageSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultPublishTimeout
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DesignerPrompt("gpt-image-1")
	}
	return &Processor{cfg: cfg}, nil
}

// Process returns the lazy event sequence for req. Nothing happens until the
// sequence is iterated; stopping the iteration early ends the run and closes
// the upstream stream. The sequence always ends with a KindDone event unless
// the consumer stops first. A generation record is published to the feed
// only after the last event has been handed to the consumer.
func (p *Processor) Process(ctx context.Context, req Request) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		r := p.newRun()
		r.execute(ctx, req, yield)
	}
}

// ChatRequest builds the model request: system instruction, the seed prompt as
// the first user turn, then the prior conversation.
func (p *Processor) ChatRequest(req Request) *llm.ChatRequest {
	msgs := make([]llm.Message, 0, len(req.Messages)+1)
	if strings.TrimSpace(req.Context.Prompt) != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: req.Context.Prompt})
	}
	msgs = append(msgs, req.Messages...)
	return &llm.ChatRequest{SystemPrompt: p.cfg.SystemPrompt, Messages: msgs, Model: p.cfg.Model}
}

type runState int

const (
	stateStreaming runState = iota
	stateTerminalSent
	stateClosed
)

func (s runState) String() string {
	switch s {
	case stateStreaming:
		return "STREAMING"
	case stateTerminalSent:
		return "TERMINAL_SENT"
	default:
		return "CLOSED"
	}
}

// run is the state of a single request. It is never shared.
type run struct {
	id      string
	p       *Processor
	buf     strings.Builder
	sent    int
	tokens  int
	state   runState
	outcome string
	effects *dispatcher
}

func (p *Processor) newRun() *run {
	id := uuid.NewString()
	return &run{
		id: id,
		p:  p,
		effects: &dispatcher{
			generator: p.cfg.Generator,
			store:     p.cfg.Store,
			publisher: p.cfg.Publisher,
			hooks:     p.cfg.Hooks,
			size:      p.cfg.ImageSize,
			folder:    p.cfg.Folder,
			runID:     id,

			publishTimeout: p.cfg.PublishTimeout,
		},
		outcome: OutcomeAborted,
	}
}

func (r *run) execute(ctx context.Context, req Request, yield func(Event) bool) {
	hooks := r.p.cfg.Hooks
	start := time.Now()
	hooks.SafeRunStart(ctx, r.id)
	defer func() {
		r.effects.Flush(ctx)
		r.state = stateClosed
		hooks.SafeRunFinish(ctx, r.id, r.outcome, r.tokens, time.Since(start))
	}()

	if !r.stream(ctx, req, yield) {
		return
	}
	yield(Event{Kind: KindDone})
}

// stream consumes tokens until the document parses or the source ends. It
// returns false if the consumer stopped.
func (r *run) stream(ctx context.Context, req Request, yield func(Event) bool) bool {
	s, err := r.p.cfg.Source.ChatStream(ctx, r.p.ChatRequest(req))
	if err != nil {
		return r.fail(ctx, err, yield)
	}
	defer func() { _ = s.Close() }()

	for {
		d, err := s.Recv(ctx)
		if err != nil {
			if errors.Is(err, llm.ErrStreamClosed) {
				break
			}
			return r.fail(ctx, err, yield)
		}
		if d.Type == llm.DeltaTypeDone {
			break
		}
		if d.Text == "" {
			continue
		}
		r.buf.WriteString(d.Text)
		r.tokens++

		if res, ok := Detect(r.buf.String()); ok {
			return r.complete(ctx, res, yield)
		}
		if !r.partial(yield) {
			return false
		}
	}
	return r.recover(ctx, yield)
}

// partial emits the part of content not yet sent.
func (r *run) partial(yield func(Event) bool) bool {
	f, ok := ExtractField(r.buf.String(), FieldContent)
	if !ok || len(f.Value) <= r.sent {
		return true
	}
	delta := f.Value[r.sent:]
	r.sent = len(f.Value)
	return yield(Event{Kind: KindPartial, Content: delta})
}

// complete handles the first successful parse. Later calls are no-ops.
func (r *run) complete(ctx context.Context, res StructuredResult, yield func(Event) bool) bool {
	if r.state != stateStreaming {
		return true
	}
	if !r.effects.Dispatch(ctx, res, yield) {
		return false
	}
	r.state = stateTerminalSent
	r.outcome = OutcomeParsed
	return yield(Event{Kind: KindTerminal, Content: res.Content, Reasoning: res.Reasoning})
}

func (r *run) recover(ctx context.Context, yield func(Event) bool) bool {
	if r.state != stateStreaming {
		return true
	}
	ev := Recover(r.buf.String())
	r.state = stateTerminalSent
	r.outcome = ev.Outcome()
	r.p.cfg.Hooks.SafeLog(ctx, observability.LevelWarn, "model output did not parse; sending fallback", map[string]any{
		"run_id":  r.id,
		"outcome": r.outcome,
		"bytes":   r.buf.Len(),
	})
	return yield(ev)
}

func (r *run) fail(ctx context.Context, err error, yield func(Event) bool) bool {
	r.outcome = OutcomeError
	r.p.cfg.Hooks.SafeLog(ctx, observability.LevelError, "token source failed", map[string]any{"run_id": r.id, "error": err.Error()})
	return yield(Event{Kind: KindError, Error: err.Error()})
}
