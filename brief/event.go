package brief

import (
	"encoding/json"
	"fmt"
)

// EventKind identifies the shape of an Event on the wire.
type EventKind string

const (
	KindPartial      EventKind = "partial"
	KindTerminal     EventKind = "terminal"
	KindImageStarted EventKind = "image_gen"
	KindImageDone    EventKind = "image_done"
	KindImageError   EventKind = "image_error"
	KindError        EventKind = "error"
	KindDone         EventKind = "done"
)

// Image status values carried by image lifecycle events.
const (
	ImageStatusGen   = "gen"
	ImageStatusDone  = "done"
	ImageStatusError = "error"
)

// Outcome labels reported once per run.
const (
	OutcomeParsed    = "parsed"
	OutcomeRecovered = "recovered"
	OutcomeRaw       = "raw"
	OutcomeError     = "error"
	OutcomeAborted   = "aborted"
)

// Event is one item of a run's output sequence. Which fields are meaningful
// depends on Kind; MarshalJSON renders the matching wire shape.
type Event struct {
	Kind EventKind

	Content   string
	Reasoning string
	// Recovered and Raw flag degraded terminal events.
	Recovered bool
	Raw       bool

	ImagePrompt string
	ImageData   string
	ImageURL    string
	ImageError  string

	Error string
}

// Outcome classifies a terminal or error event.
func (e Event) Outcome() string {
	switch {
	case e.Kind == KindError:
		return OutcomeError
	case e.Kind != KindTerminal:
		return ""
	case e.Recovered:
		return OutcomeRecovered
	case e.Raw:
		return OutcomeRaw
	default:
		return OutcomeParsed
	}
}

type partialWire struct {
	Content   string `json:"content"`
	Streaming bool   `json:"streaming"`
}

type terminalWire struct {
	Content   string `json:"content"`
	Reasoning string `json:"reasoning"`
	Complete  bool   `json:"complete"`
	Recovered bool   `json:"recovered,omitempty"`
	Raw       bool   `json:"raw,omitempty"`
}

type imageStartedWire struct {
	ImageStatus string `json:"image_status"`
	ImagePrompt string `json:"image_prompt"`
}

type imageDoneWire struct {
	ImageStatus string `json:"image_status"`
	ImageData   string `json:"image_data"`
	ImagePrompt string `json:"image_prompt"`
	ImageURL    string `json:"image_url"`
}

type imageErrorWire struct {
	ImageStatus string `json:"image_status"`
	ImageError  string `json:"image_error"`
}

type errorWire struct {
	Error    string `json:"error"`
	Complete bool   `json:"complete"`
}

type doneWire struct {
	Done bool `json:"done"`
}

// MarshalJSON renders the wire shape for e.Kind.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindPartial:
		return json.Marshal(partialWire{Content: e.Content, Streaming: true})
	case KindTerminal:
		return json.Marshal(terminalWire{Content: e.Content, Reasoning: e.Reasoning, Complete: true, Recovered: e.Recovered, Raw: e.Raw})
	case KindImageStarted:
		return json.Marshal(imageStartedWire{ImageStatus: ImageStatusGen, ImagePrompt: e.ImagePrompt})
	case KindImageDone:
		return json.Marshal(imageDoneWire{ImageStatus: ImageStatusDone, ImageData: e.ImageData, ImagePrompt: e.ImagePrompt, ImageURL: e.ImageURL})
	case KindImageError:
		return json.Marshal(imageErrorWire{ImageStatus: ImageStatusError, ImageError: e.ImageError})
	case KindError:
		return json.Marshal(errorWire{Error: e.Error, Complete: true})
	case KindDone:
		return json.Marshal(doneWire{Done: true})
	}
	return nil, fmt.Errorf("brief: unknown event kind %q", e.Kind)
}
