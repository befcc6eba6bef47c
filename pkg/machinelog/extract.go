package machinelog

import (
	"github.com/rs/zerolog"

	"github.com/gregLibert/simcheck/pkg/decode"
	"github.com/gregLibert/simcheck/pkg/fields"
	"github.com/gregLibert/simcheck/pkg/sources"
)

// Extraction is the field map decoded from a machine log, with the 1-based line each value
// was taken from.
type Extraction struct {
	Values  fields.Values
	Origins map[string]int
}

func newExtraction() Extraction {
	return Extraction{Values: fields.Values{}, Origins: map[string]int{}}
}

// record applies the decoder policy: a FirstMatch field keeps its first value.
func (x Extraction) record(h decode.Hit, line int, p decode.Policy, log zerolog.Logger) {
	if prev, ok := x.Values[h.Field]; ok {
		if p == decode.FirstMatch {
			if prev != h.Value {
				log.Debug().Str("field", h.Field).Int("line", line).Str("kept", prev).Str("ignored", h.Value).Msg("later value ignored")
			}
			return
		}
	}
	x.Values[h.Field] = h.Value
	x.Origins[h.Field] = line
	log.Debug().Str("field", h.Field).Int("line", line).Str("value", h.Value).Msg("field decoded")
}

// ExtractDirect decodes every line against the prefix table. A line feeds at most one decoder,
// the first whose prefix it carries.
func ExtractDirect(content string, decoders []decode.LineDecoder, log zerolog.Logger) Extraction {
	x := newExtraction()
	for i, l := range sources.Lines(content) {
		if Ignored(l) {
			continue
		}
		hits, d := decode.DecodeFirst(l, decoders)
		if d == nil {
			continue
		}
		if len(hits) == 0 {
			log.Warn().Int("line", i+1).Str("prefix", d.Prefix).Msg("prefix found but payload could not be decoded")
			continue
		}
		for _, h := range hits {
			x.record(h, i+1, d.Policy, log)
		}
	}
	return x
}

// ExtractLookahead finds, for every SELECT of a known file, the data line within the rule's
// window. A line selects at most one file, the first rule that claims it.
func ExtractLookahead(content string, rules []decode.SelectRule, log zerolog.Logger) Extraction {
	x := newExtraction()
	lines := sources.Lines(content)
	for i, l := range lines {
		for _, r := range rules {
			if !r.Selects(l) {
				continue
			}
			hits := r.Scan(lines, i)
			if len(hits) == 0 {
				log.Debug().Int("line", i+1).Str("file", r.FileID).Msg("no data line within window")
			}
			for _, h := range hits {
				x.record(h.Hit, h.Line, h.Policy, log)
			}
			break
		}
	}
	return x
}
