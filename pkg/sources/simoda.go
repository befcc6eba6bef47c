package sources

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gregLibert/simcheck/pkg/fields"
)

// DefaultAnchorRadius is how many lines around an anchor line are searched first.
const DefaultAnchorRadius = 2

// Anchor locates a SIM-ODA value near an expected (1-based) line.
type Anchor struct {
	Field string
	Line  int
	Expr  *regexp.Regexp
}

// Ordered picks the Index-th (0-based) match of Expr across the whole file, for keys that
// appear as a sequence of identical statements.
type Ordered struct {
	Field string
	Expr  *regexp.Regexp
	Index int
}

// ParseSIMODA extracts anchored values within radius lines of their anchor, falling back to a
// full scan, then the ordered values.
func ParseSIMODA(content string, anchors []Anchor, ordered []Ordered, radius int, log zerolog.Logger) fields.Values {
	lines := trimAll(Lines(content))
	out := fields.Values{}

	for _, a := range anchors {
		if v, ok := searchAround(lines, a, radius); ok {
			out[a.Field] = v
			continue
		}
		if v, ok := searchLines(lines, a.Expr, 0, len(lines)); ok {
			log.Debug().Str("source", "SIM_ODA").Str("field", a.Field).Int("anchor", a.Line).Msg("found outside anchor window")
			out[a.Field] = v
			continue
		}
		log.Debug().Str("source", "SIM_ODA").Str("field", a.Field).Msg("not found")
	}

	matches := map[*regexp.Regexp][]string{}
	for _, o := range ordered {
		all, seen := matches[o.Expr]
		if !seen {
			for _, l := range lines {
				if m := o.Expr.FindStringSubmatch(l); m != nil {
					all = append(all, m[1])
				}
			}
			matches[o.Expr] = all
		}
		if o.Index < len(all) {
			out[o.Field] = all[o.Index]
		}
	}
	return out
}

func searchAround(lines []string, a Anchor, radius int) (string, bool) {
	start := a.Line - radius - 1
	if start < 0 {
		start = 0
	}
	end := a.Line + radius
	if end > len(lines) {
		end = len(lines)
	}
	return searchLines(lines, a.Expr, start, end)
}

func searchLines(lines []string, re *regexp.Regexp, start, end int) (string, bool) {
	for i := start; i < end; i++ {
		if m := re.FindStringSubmatch(lines[i]); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}
