package brief

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractField_NoValueVersusEmpty(t *testing.T) {
	cases := []struct {
		buf    string
		found  bool
		value  string
		closed bool
	}{
		{``, false, "", false},
		{`{"cont`, false, "", false},
		{`{"content"`, false, "", false},
		{`{"content": `, false, "", false},
		{`{"content": "`, true, "", false},
		{`{"content": ""`, true, "", true},
		{`{"content":"Hi`, true, "Hi", false},
		{`{"content" : "Hi there", "x"`, true, "Hi there", true},
	}
	for _, tc := range cases {
		f, ok := ExtractField(tc.buf, FieldContent)
		assert.Equal(t, tc.found, ok, "buf %q", tc.buf)
		assert.Equal(t, tc.value, f.Value, "buf %q", tc.buf)
		assert.Equal(t, tc.closed, f.Closed, "buf %q", tc.buf)
	}
}

func TestExtractField_Escapes(t *testing.T) {
	cases := []struct{ buf, want string }{
		{`{"content":"a\nb\tc\"d\\e\/f"`, "a\nb\tc\"d\\e/f"},
		{`{"content":"café"`, "café"},
		{`{"content":"ok 😀!"`, "ok 😀!"},
		{`{"content":"\u00e9\ud83d\ude00"`, "é😀"},
		{`{"content":"a\`, "a"},
		{`{"content":"a\u00`, "a"},
		{`{"content":"a\ud83d`, "a"},
		{`{"content":"a\ud83d\`, "a"},
		{`{"content":"a\ud83d\ude`, "a"},
		{`{"content":"a\ud83dx"`, "a\uFFFDx"},
		{`{"content":"a\ude00b"`, "a\uFFFDb"},
		{`{"content":"a\qb"`, "a"},
	}
	for _, tc := range cases {
		f, ok := ExtractField(tc.buf, FieldContent)
		require.True(t, ok, tc.buf)
		assert.Equal(t, tc.want, f.Value, tc.buf)
	}
}

func TestExtractField_HoldsBackTruncatedUTF8(t *testing.T) {
	full := `{"content":"né"}`
	cut := full[:strings.Index(full, "é")+1]
	f, ok := ExtractField(cut, FieldContent)
	require.True(t, ok)
	assert.Equal(t, "n", f.Value)
}

func TestExtractField_SkipsEscapedAndNonStringKeys(t *testing.T) {
	buf := `{"reasoning":"say \"content\": \"x\"", "content": 5, "content": "real"`
	f, ok := ExtractField(buf, FieldContent)
	require.True(t, ok)
	assert.Equal(t, "real", f.Value)

	r, ok := ExtractField(buf, FieldReasoning)
	require.True(t, ok)
	assert.Equal(t, `say "content": "x"`, r.Value)
}

func TestExtractField_TopLevelOnly(t *testing.T) {
	cases := []struct {
		buf   string
		found bool
		value string
	}{
		{`{"meta":{"content":"x"`, false, ""},
		{`{"meta":{"content":"x"},"content":"re`, true, "re"},
		{`{"items":[{"content":"x"}],"content":"real"}`, true, "real"},
		{`{"meta":{"note":"}{"},"content":"ok"`, true, "ok"},
		{"```json\n{\"content\":\"fenced", true, "fenced"},
	}
	for _, tc := range cases {
		f, ok := ExtractField(tc.buf, FieldContent)
		assert.Equal(t, tc.found, ok, "buf %q", tc.buf)
		assert.Equal(t, tc.value, f.Value, "buf %q", tc.buf)
	}
}

// A nested key must never leak into the partial stream and then be replaced
// by the top-level value at parse time.
func TestExtractField_NestedKeyPrefixes(t *testing.T) {
	doc := `{"meta":{"content":"x"},"content":"real","reasoning":"r"}`
	res, ok := Detect(doc)
	require.True(t, ok)
	for i := 0; i <= len(doc); i++ {
		f, ok := ExtractField(doc[:i], FieldContent)
		if ok {
			assert.True(t, strings.HasPrefix(res.Content, f.Value), "prefix %q gave %q", doc[:i], f.Value)
		}
	}
}

// Every prefix of a document must yield a prefix of the next and of the final
// value, and the final value must match a real JSON decode.
func TestExtractField_MonotonicPrefix(t *testing.T) {
	doc := `{"content": "Line one\nTab\there \"quoted\" café é 😀 🚀 back\\slash", "reasoning": "r"}`
	var want struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &want))

	prev := ""
	for i := 0; i <= len(doc); i++ {
		f, ok := ExtractField(doc[:i], FieldContent)
		if !ok {
			require.Empty(t, prev, "value vanished at %d", i)
			continue
		}
		require.True(t, strings.HasPrefix(f.Value, prev), "prefix %d: %q does not extend %q", i, f.Value, prev)
		require.True(t, strings.HasPrefix(want.Content, f.Value), "prefix %d: %q is not a prefix of the final value", i, f.Value)
		prev = f.Value
	}
	assert.Equal(t, want.Content, prev)
}
