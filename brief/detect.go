package brief

import (
	"strings"

	"github.com/tidwall/gjson"
)

// StructuredResult is the terminal, fully parsed design brief.
type StructuredResult struct {
	Content        string `json:"content"`
	Reasoning      string `json:"reasoning"`
	ImageGenPrompt string `json:"image_gen_prompt,omitempty"`
}

// Detect attempts a full parse of buf against the brief schema: content and
// reasoning are required strings, image_gen_prompt is an optional string.
// A document inside a markdown code fence is unwrapped first. Failure is the
// normal state while the document is still arriving.
func Detect(buf string) (StructuredResult, bool) {
	doc := strings.TrimSpace(buf)
	if res, ok := parseDocument(doc); ok {
		return res, true
	}
	if inner, ok := unfence(doc); ok {
		return parseDocument(inner)
	}
	return StructuredResult{}, false
}

func parseDocument(doc string) (StructuredResult, bool) {
	if doc == "" || doc[0] != '{' || !gjson.Valid(doc) {
		return StructuredResult{}, false
	}
	var (
		fields [3]gjson.Result
		dup    bool
	)
	gjson.Parse(doc).ForEach(func(key, value gjson.Result) bool {
		i := schemaIndex(key.Str)
		if i < 0 {
			return true
		}
		if fields[i].Exists() {
			dup = true
			return false
		}
		fields[i] = value
		return true
	})
	// A repeated schema key is ambiguous between the streamed value and the
	// final one.
	if dup {
		return StructuredResult{}, false
	}
	if fields[0].Type != gjson.String || fields[1].Type != gjson.String {
		return StructuredResult{}, false
	}
	res := StructuredResult{Content: fields[0].Str, Reasoning: fields[1].Str}
	switch fields[2].Type {
	case gjson.String:
		res.ImageGenPrompt = fields[2].Str
	case gjson.Null:
		// absent or explicit null
	default:
		return StructuredResult{}, false
	}
	return res, true
}

func schemaIndex(key string) int {
	switch key {
	case FieldContent:
		return 0
	case FieldReasoning:
		return 1
	case FieldImageGenPrompt:
		return 2
	}
	return -1
}

// unfence strips a leading ``` line and an optional trailing ```.
func unfence(doc string) (string, bool) {
	if !strings.HasPrefix(doc, "```") {
		return "", false
	}
	nl := strings.IndexByte(doc, '\n')
	if nl < 0 {
		return "", false
	}
	inner := strings.TrimSpace(doc[nl+1:])
	inner = strings.TrimSpace(strings.TrimSuffix(inner, "```"))
	return inner, true
}
