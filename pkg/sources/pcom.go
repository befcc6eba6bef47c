package sources

import (
	"regexp"

	"github.com/rs/zerolog"

	"github.com/gregLibert/simcheck/pkg/fields"
)

// Pattern lists the expressions tried, in order, for one PCOM field. Each expression has one
// capture group holding the value.
type Pattern struct {
	Field string
	Exprs []*regexp.Regexp
}

// Define builds the usual PCOM expressions for a field: `.DEFINE %NAME value` for every name,
// then `KEY = value`. value is the capture body, for example `[0-9]+`.
func Define(field, value string, names []string, key string) Pattern {
	p := Pattern{Field: field}
	for _, n := range names {
		p.Exprs = append(p.Exprs, regexp.MustCompile(`(?i)\.DEFINE\s+%`+n+`\s+"?(`+value+`)"?`))
	}
	if key != "" {
		p.Exprs = append(p.Exprs, regexp.MustCompile(`(?i)`+key+`\s*=\s*"?(`+value+`)"?`))
	}
	return p
}

// ParsePCOM searches the whole content for every pattern; the first expression that matches
// wins.
func ParsePCOM(content string, patterns []Pattern, log zerolog.Logger) fields.Values {
	out := fields.Values{}
	for _, p := range patterns {
		if _, done := out[p.Field]; done {
			continue
		}
		for _, re := range p.Exprs {
			if m := re.FindStringSubmatch(content); m != nil {
				out[p.Field] = m[1]
				log.Debug().Str("source", "PCOM").Str("field", p.Field).Str("value", m[1]).Msg("field extracted")
				break
			}
		}
		if _, ok := out[p.Field]; !ok {
			log.Debug().Str("source", "PCOM").Str("field", p.Field).Msg("no pattern matched")
		}
	}
	return out
}
