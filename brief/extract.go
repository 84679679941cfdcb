package brief

import (
	"strings"
	"unicode/utf8"
)

// Schema field names.
const (
	FieldContent        = "content"
	FieldReasoning      = "reasoning"
	FieldImageGenPrompt = "image_gen_prompt"
)

// PartialField is a string field value reconstructed from a document that
// may still be incomplete.
type PartialField struct {
	Name  string
	Value string
	// Closed reports that the value's closing quote was seen.
	Closed bool
}

// ExtractField returns the confidently decoded prefix of the string value
// of the top-level key name in buf. Keys inside nested objects or arrays and
// text inside other strings are skipped. ok is false until the key and the
// opening quote of its value have appeared. The result only ever grows as buf
// grows: bytes that could still change meaning (a trailing backslash, a
// partial \u escape, half a surrogate pair, a truncated UTF-8 sequence) are
// held back.
func ExtractField(buf, name string) (PartialField, bool) {
	depth := 0
	for i := 0; i < len(buf); i++ {
		switch buf[i] {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		case '"':
			end := stringEnd(buf, i+1)
			if end < 0 {
				return PartialField{}, false
			}
			if depth == 1 && buf[i+1:end] == name {
				j := skipSpace(buf, end+1)
				if j >= len(buf) {
					return PartialField{}, false
				}
				if buf[j] == ':' {
					j = skipSpace(buf, j+1)
					if j >= len(buf) {
						return PartialField{}, false
					}
					if buf[j] == '"' {
						value, closed := scanString(buf[j+1:])
						return PartialField{Name: name, Value: value, Closed: closed}, true
					}
					// Not a string value; a later occurrence may still be.
				}
			}
			i = end
		}
	}
	return PartialField{}, false
}

// stringEnd returns the index of the quote closing the string body starting
// at buf[from], or -1 if it has not arrived yet.
func stringEnd(buf string, from int) int {
	for k := from; k < len(buf); k++ {
		switch buf[k] {
		case '\\':
			k++
		case '"':
			return k
		}
	}
	return -1
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return i
		}
	}
	return i
}

// scanString decodes a JSON string body up to its closing quote or up to the
// last unambiguous byte.
func scanString(s string) (string, bool) {
	var b strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '"':
			return b.String(), true
		case c == '\\':
			if i+1 >= len(s) {
				return b.String(), false
			}
			switch e := s[i+1]; e {
			case '"', '\\', '/':
				b.WriteByte(e)
				i += 2
			case 'b':
				b.WriteByte('\b')
				i += 2
			case 'f':
				b.WriteByte('\f')
				i += 2
			case 'n':
				b.WriteByte('\n')
				i += 2
			case 'r':
				b.WriteByte('\r')
				i += 2
			case 't':
				b.WriteByte('\t')
				i += 2
			case 'u':
				r, n, st := decodeUnicodeEscape(s[i:])
				if st != escapeOK {
					return b.String(), false
				}
				b.WriteRune(r)
				i += n
			default:
				// Invalid escape; nothing after it can be trusted.
				return b.String(), false
			}
		case c < utf8.RuneSelf:
			b.WriteByte(c)
			i++
		default:
			if !utf8.FullRuneInString(s[i:]) {
				return b.String(), false
			}
			r, size := utf8.DecodeRuneInString(s[i:])
			b.WriteRune(r)
			i += size
		}
	}
	return b.String(), false
}

type escapeStatus int

const (
	escapeOK escapeStatus = iota
	escapeIncomplete
	escapeInvalid
)

// decodeUnicodeEscape decodes a \uXXXX escape at the start of s, joining a
// following low surrogate when s starts with a high one. A surrogate that
// cannot be paired decodes to U+FFFD.
func decodeUnicodeEscape(s string) (rune, int, escapeStatus) {
	r, st := hex4(s)
	if st != escapeOK {
		return 0, 0, st
	}
	switch {
	case r >= 0xDC00 && r <= 0xDFFF:
		return utf8.RuneError, 6, escapeOK
	case r >= 0xD800 && r <= 0xDBFF:
		rest := s[6:]
		if len(rest) == 0 {
			return 0, 0, escapeIncomplete
		}
		if rest[0] != '\\' {
			return utf8.RuneError, 6, escapeOK
		}
		if len(rest) < 2 {
			return 0, 0, escapeIncomplete
		}
		if rest[1] != 'u' {
			return utf8.RuneError, 6, escapeOK
		}
		lo, st := hex4(rest)
		switch {
		case st == escapeIncomplete:
			return 0, 0, escapeIncomplete
		case st == escapeInvalid || lo < 0xDC00 || lo > 0xDFFF:
			return utf8.RuneError, 6, escapeOK
		}
		return 0x10000 + (r-0xD800)<<10 + (lo - 0xDC00), 12, escapeOK
	}
	return r, 6, escapeOK
}

// hex4 parses the four hex digits of a \u escape starting at s[0] == '\\'.
func hex4(s string) (rune, escapeStatus) {
	var r rune
	for k := 2; k < 6; k++ {
		if k >= len(s) {
			return 0, escapeIncomplete
		}
		c := s[k]
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = c - '0'
		case c >= 'a' && c <= 'f':
			v = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			v = c - 'A' + 10
		default:
			return 0, escapeInvalid
		}
		r = r<<4 | rune(v)
	}
	return r, escapeOK
}
