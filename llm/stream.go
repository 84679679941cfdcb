package llm

import (
	"context"
	"errors"
)

// DeltaType identifies the kind of streaming event emitted by a provider.
type DeltaType string

const (
	DeltaTypeText DeltaType = "text"
	DeltaTypeDone DeltaType = "done"
)

// Delta is a provider-neutral streaming event. A zero Delta carries no text
// and should be skipped.
type Delta struct {
	Type DeltaType `json:"type"`
	Text string    `json:"text,omitempty"`
	// Provider/model are optional hints for observability
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// Stream provides a pull-based API over provider event streams.
// Implementations return (Delta{Type: DeltaTypeDone}, nil) when complete.
type Stream interface {
	Recv(ctx context.Context) (Delta, error)
	Close() error
}

// ErrStreamClosed indicates Recv was called after Close or terminal event.
var ErrStreamClosed = errors.New("stream closed")

// StaticStream replays a fixed token sequence.
type StaticStream struct {
	Tokens   []string
	Provider string
	Model    string
	// Err, when set, is returned after all tokens were delivered instead of done.
	Err error

	idx    int
	closed bool
}

func (s *StaticStream) Recv(ctx context.Context) (Delta, error) {
	if s.closed {
		return Delta{}, ErrStreamClosed
	}
	if err := ctx.Err(); err != nil {
		return Delta{}, err
	}
	if s.idx >= len(s.Tokens) {
		if s.Err != nil {
			return Delta{}, s.Err
		}
		s.closed = true
		return Delta{Type: DeltaTypeDone, Provider: s.Provider, Model: s.Model}, nil
	}
	t := s.Tokens[s.idx]
	s.idx++
	return Delta{Type: DeltaTypeText, Text: t, Provider: s.Provider, Model: s.Model}, nil
}

func (s *StaticStream) Close() error { s.closed = true; return nil }

// Closed reports whether Close was called or the stream reached done.
func (s *StaticStream) Closed() bool { return s.closed }

// Delivered returns how many tokens have been handed out.
func (s *StaticStream) Delivered() int { return s.idx }
