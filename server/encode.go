package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/KamdynS/designrelay/brief"
)

// Response formats selectable with ?format=.
const (
	FormatSSE    = "sse"
	FormatNDJSON = "ndjson"
	FormatJSON   = "json"
)

// encoder renders the event sequence onto a response. Headers are written
// lazily on the first Encode or Close.
type encoder interface {
	Encode(ev brief.Event) error
	Close() error
	Format() string
}

func newEncoder(format string, w http.ResponseWriter) (encoder, error) {
	switch format {
	case "", FormatSSE:
		return newStreamEncoder(w, FormatSSE)
	case FormatNDJSON:
		return newStreamEncoder(w, FormatNDJSON)
	case FormatJSON:
		return &bufferedEncoder{w: w}, nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// streamEncoder writes one frame per event and flushes it immediately.
type streamEncoder struct {
	rw      http.ResponseWriter
	w       *bufio.Writer
	fl      http.Flusher
	format  string
	started bool
}

func newStreamEncoder(w http.ResponseWriter, format string) (*streamEncoder, error) {
	fl, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}
	return &streamEncoder{rw: w, w: bufio.NewWriter(w), fl: fl, format: format}, nil
}

func (e *streamEncoder) Format() string { return e.format }

func (e *streamEncoder) start() {
	if e.started {
		return
	}
	e.started = true
	h := e.rw.Header()
	if e.format == FormatSSE {
		h.Set("Content-Type", "text/event-stream")
	} else {
		h.Set("Content-Type", "application/x-ndjson")
	}
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	e.rw.WriteHeader(http.StatusOK)
}

func (e *streamEncoder) Encode(ev brief.Event) error {
	e.start()
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if e.format == FormatSSE {
		_, err = fmt.Fprintf(e.w, "data: %s\n\n", b)
	} else {
		_, err = fmt.Fprintf(e.w, "%s\n", b)
	}
	if err != nil {
		return err
	}
	if err := e.w.Flush(); err != nil {
		return err
	}
	e.fl.Flush()
	return nil
}

func (e *streamEncoder) Close() error {
	e.start()
	if err := e.w.Flush(); err != nil {
		return err
	}
	e.fl.Flush()
	return nil
}

// bufferedEncoder collects every event and writes a single JSON array.
type bufferedEncoder struct {
	w      http.ResponseWriter
	events []brief.Event
}

func (e *bufferedEncoder) Format() string { return FormatJSON }

func (e *bufferedEncoder) Encode(ev brief.Event) error {
	e.events = append(e.events, ev)
	return nil
}

func (e *bufferedEncoder) Close() error {
	if e.events == nil {
		e.events = []brief.Event{}
	}
	b, err := json.Marshal(e.events)
	if err != nil {
		return err
	}
	e.w.Header().Set("Content-Type", "application/json")
	e.w.WriteHeader(http.StatusOK)
	_, err = e.w.Write(append(b, '\n'))
	return err
}
