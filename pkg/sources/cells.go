package sources

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/gregLibert/simcheck/pkg/fields"
)

// Cell addresses one tab-separated value by 1-based line and 0-based column.
type Cell struct {
	Field  string
	Line   int
	Column int
	// FirstToken keeps only the first whitespace-separated token of the cell.
	FirstToken bool
}

// ReadCells reads fixed cells out of a tab-separated file (CNUM batch body, SCM).
func ReadCells(source, content string, cells []Cell, log zerolog.Logger) fields.Values {
	lines := Lines(content)
	out := fields.Values{}
	for _, c := range cells {
		if c.Line < 1 || c.Line > len(lines) {
			log.Warn().Str("source", source).Str("field", c.Field).Int("line", c.Line).Msg("line out of range")
			continue
		}
		cols := strings.Split(lines[c.Line-1], "\t")
		if c.Column >= len(cols) {
			log.Warn().Str("source", source).Str("field", c.Field).Int("line", c.Line).Int("column", c.Column).Msg("column out of range")
			continue
		}
		v := strings.TrimSpace(cols[c.Column])
		if c.FirstToken {
			tokens := strings.Fields(v)
			if len(tokens) == 0 {
				continue
			}
			v = tokens[0]
		}
		if v != "" {
			out[c.Field] = v
		}
	}
	return out
}
