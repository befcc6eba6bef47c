// Package decode locates fixed command prefixes in machine log lines and decodes the bytes
// that follow them into field values.
//
// A LineDecoder never fails loudly: a line that carries its prefix but whose payload is too
// short or malformed simply produces no hits, which callers surface as "Not Found".
package decode

import (
	"strings"

	"github.com/gregLibert/simcheck/pkg/normalize"
)

// Terminator marks the end of the data part of a traced command.
const Terminator = "SW9000"

// Policy decides which occurrence of a field wins when several lines decode it.
type Policy int

const (
	// FirstMatch keeps the first decoded value.
	FirstMatch Policy = iota
	// LastMatch lets later lines replace earlier values.
	LastMatch
)

// Hit is one decoded field value.
type Hit struct {
	Field string
	Value string
}

// extractFunc turns a cleaned payload into one value per declared field.
type extractFunc func(payload string) ([]string, bool)

// LineDecoder binds a command prefix to the field(s) it carries.
type LineDecoder struct {
	Prefix string
	Fields []string
	Policy Policy

	extract extractFunc
}

// Payload returns the hex characters that follow prefix in line, cut at the SW9000 terminator.
// The boolean reports whether the prefix occurs at all.
func Payload(line, prefix string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(line))
	idx := strings.Index(upper, prefix)
	if idx < 0 {
		return "", false
	}
	tail := upper[idx+len(prefix):]
	if cut := strings.Index(tail, Terminator); cut >= 0 {
		tail = tail[:cut]
	}
	return normalize.StripNonHex(tail), true
}

// Matches reports whether line carries the decoder prefix.
func (d LineDecoder) Matches(line string) bool {
	return strings.Contains(strings.ToUpper(line), d.Prefix)
}

// Decode extracts the decoder fields from line. matched is true whenever the prefix is
// present, even if the payload could not be decoded.
func (d LineDecoder) Decode(line string) (hits []Hit, matched bool) {
	payload, ok := Payload(line, d.Prefix)
	if !ok {
		return nil, false
	}
	values, ok := d.extract(payload)
	if !ok || len(values) != len(d.Fields) {
		return nil, true
	}
	for i, f := range d.Fields {
		hits = append(hits, Hit{Field: f, Value: values[i]})
	}
	return hits, true
}

// WithPolicy returns a copy of d using p.
func (d LineDecoder) WithPolicy(p Policy) LineDecoder {
	d.Policy = p
	return d
}

// DecodeFirst applies decoders in order and returns the hits of the first one whose prefix
// occurs in line. A line encodes at most one decoder's fields.
func DecodeFirst(line string, decoders []LineDecoder) ([]Hit, *LineDecoder) {
	for i := range decoders {
		if hits, matched := decoders[i].Decode(line); matched {
			return hits, &decoders[i]
		}
	}
	return nil, nil
}

func fixed(n int, pad bool) func(string) (string, bool) {
	return func(s string) (string, bool) {
		switch {
		case len(s) >= n:
			return s[:n], true
		case pad && s != "":
			return s + strings.Repeat("0", n-len(s)), true
		default:
			return "", false
		}
	}
}

func single(f func(string) (string, bool)) extractFunc {
	return func(payload string) ([]string, bool) {
		v, ok := f(payload)
		if !ok {
			return nil, false
		}
		return []string{v}, true
	}
}

// Hex decodes the first n hex characters of the payload.
func Hex(field, prefix string, n int) LineDecoder {
	return LineDecoder{Prefix: prefix, Fields: []string{field}, extract: single(fixed(n, false))}
}

// BCD decodes the payload as BCD digits and keeps the first n.
func BCD(field, prefix string, n int) LineDecoder {
	take := fixed(n, false)
	return LineDecoder{
		Prefix: prefix,
		Fields: []string{field},
		extract: single(func(payload string) (string, bool) {
			return take(normalize.BCDToDigits(payload))
		}),
	}
}

// Alnum pads the payload with '0' up to n characters and decodes every nibble,
// keeping the A-F filler nibbles that BCD would drop.
func Alnum(field, prefix string, n int) LineDecoder {
	take := fixed(n, true)
	return LineDecoder{
		Prefix: prefix,
		Fields: []string{field},
		extract: single(func(payload string) (string, bool) {
			v, ok := take(payload)
			if !ok || len(v)%2 != 0 {
				return "", false
			}
			out := normalize.NibblesToAlnum(v)
			return out, out != ""
		}),
	}
}

// AfterFiller takes n characters following filler when the payload contains it,
// otherwise the first n characters of the payload.
func AfterFiller(field, prefix, filler string, n int) LineDecoder {
	take := fixed(n, false)
	return LineDecoder{
		Prefix: prefix,
		Fields: []string{field},
		extract: single(func(payload string) (string, bool) {
			if _, after, found := strings.Cut(payload, filler); found {
				return take(after)
			}
			return take(payload)
		}),
	}
}

// WithoutFiller removes every occurrence of filler before taking n characters.
func WithoutFiller(field, prefix, filler string, n int) LineDecoder {
	take := fixed(n, false)
	return LineDecoder{
		Prefix: prefix,
		Fields: []string{field},
		extract: single(func(payload string) (string, bool) {
			return take(strings.ReplaceAll(payload, filler, ""))
		}),
	}
}

// Split decodes two fields from one line: n characters before marker go to first,
// n characters after it go to second.
func Split(prefix, marker string, n int, first, second string) LineDecoder {
	take := fixed(n, false)
	return LineDecoder{
		Prefix: prefix,
		Fields: []string{first, second},
		extract: func(payload string) ([]string, bool) {
			before, after, found := strings.Cut(payload, marker)
			if !found {
				return nil, false
			}
			a, okA := take(before)
			b, okB := take(after)
			if !okA || !okB {
				return nil, false
			}
			return []string{a, b}, true
		},
	}
}

// Segment is a fixed slice of a payload.
type Segment struct {
	Field  string
	Offset int
	Length int
}

// Segments cuts fixed slices out of the payload. Every segment must be present.
func Segments(prefix string, segs ...Segment) LineDecoder {
	names := make([]string, len(segs))
	for i, s := range segs {
		names[i] = s.Field
	}
	return LineDecoder{
		Prefix: prefix,
		Fields: names,
		extract: func(payload string) ([]string, bool) {
			out := make([]string, len(segs))
			for i, s := range segs {
				if len(payload) < s.Offset+s.Length {
					return nil, false
				}
				out[i] = payload[s.Offset : s.Offset+s.Length]
			}
			return out, true
		},
	}
}
