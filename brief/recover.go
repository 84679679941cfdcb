package brief

import (
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"
)

// Placeholder reasoning values for degraded terminal events.
const (
	ReasoningIncomplete = "Incomplete response"
	ReasoningUnparsed   = "Failed to parse structured response"
)

// Recover builds the terminal event for a run whose buffer never parsed.
// content and reasoning are extracted independently; when neither key is
// present the buffer is run through jsonrepair for a second look. If that
// fails too the whole buffer is returned as raw content.
func Recover(buf string) Event {
	content, cok := ExtractField(buf, FieldContent)
	reasoning, rok := ExtractField(buf, FieldReasoning)
	if !cok && !rok {
		content, cok, reasoning, rok = repairFields(buf)
	}
	if cok || rok {
		ev := Event{Kind: KindTerminal, Recovered: true, Reasoning: ReasoningIncomplete}
		if cok {
			ev.Content = content.Value
		}
		if rok {
			ev.Reasoning = reasoning.Value
		}
		return ev
	}
	return Event{Kind: KindTerminal, Raw: true, Content: buf, Reasoning: ReasoningUnparsed}
}

func repairFields(buf string) (PartialField, bool, PartialField, bool) {
	if strings.TrimSpace(buf) == "" {
		return PartialField{}, false, PartialField{}, false
	}
	fixed, err := jsonrepair.JSONRepair(buf)
	if err != nil || !gjson.Valid(fixed) {
		return PartialField{}, false, PartialField{}, false
	}
	root := gjson.Parse(fixed)
	if !root.IsObject() {
		return PartialField{}, false, PartialField{}, false
	}
	c := root.Get(FieldContent)
	r := root.Get(FieldReasoning)
	content := PartialField{Name: FieldContent, Value: c.Str, Closed: true}
	reasoning := PartialField{Name: FieldReasoning, Value: r.Str, Closed: true}
	return content, c.Type == gjson.String, reasoning, r.Type == gjson.String
}
