package sources

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gregLibert/simcheck/pkg/fields"
	"github.com/gregLibert/simcheck/pkg/normalize"
	"github.com/gregLibert/simcheck/pkg/similarity"
)

// minCPSValueLength skips values too short to be located reliably.
const minCPSValueLength = 4

var (
	iccidCandidates = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b([0-9A-F]{18,20})\b`),
		regexp.MustCompile(`(?i)ICCID[:\s]+([0-9A-F]{18,20})`),
		regexp.MustCompile(`(?i)"([0-9A-F]{18,20})"`),
	}
	imsiCandidates = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d{15})\b`),
		regexp.MustCompile(`\b(\d{18})\b`),
		regexp.MustCompile(`IMSI[:\s]+(\d{15,18})`),
		regexp.MustCompile(`"(\d{15,18})"`),
	}
	keyCandidates = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b([0-9A-F]{32})\b`),
	}
)

// CPSMatch describes how a cps value was located.
type CPSMatch struct {
	Field string
	Value string
	Score float64
	Exact bool
}

// ExtractCPS looks up every machine log value required against cps. An exact (case-insensitive)
// occurrence wins; otherwise the candidates matching the field kind are scored and the best is
// kept only when it reaches threshold. Rejected candidates are returned for diagnostics.
func ExtractCPS(content string, ml fields.Values, specs []fields.Spec, threshold float64, log zerolog.Logger) (fields.Values, []CPSMatch) {
	out := fields.Values{}
	var trail []CPSMatch
	upper := strings.ToUpper(content)

	for _, spec := range specs {
		if !spec.Requires(fields.CPS) {
			continue
		}
		want, ok := ml.Lookup(spec.Name)
		if !ok {
			continue
		}
		want = strings.TrimSpace(want)
		if len(want) < minCPSValueLength {
			continue
		}

		if pos := strings.Index(upper, strings.ToUpper(want)); pos >= 0 {
			out[spec.Name] = content[pos : pos+len(want)]
			trail = append(trail, CPSMatch{Field: spec.Name, Value: out[spec.Name], Score: 100, Exact: true})
			continue
		}

		exprs, score := candidatesFor(spec.Kind)
		if exprs == nil {
			continue
		}
		var found []string
		for _, re := range exprs {
			for _, m := range re.FindAllStringSubmatch(content, -1) {
				found = append(found, m[1])
			}
		}
		best, ok := similarity.Best(want, found, score)
		if !ok {
			log.Debug().Str("source", "cps").Str("field", spec.Name).Msg("no candidate")
			continue
		}
		trail = append(trail, CPSMatch{Field: spec.Name, Value: best.Value, Score: best.Score})
		if best.Score >= threshold {
			out[spec.Name] = best.Value
			log.Debug().Str("source", "cps").Str("field", spec.Name).Str("value", best.Value).Float64("score", best.Score).Msg("fuzzy match accepted")
		} else {
			log.Info().Str("source", "cps").Str("field", spec.Name).Str("candidate", best.Value).Float64("score", best.Score).Msg("best candidate below threshold")
		}
	}
	return out, trail
}

func candidatesFor(kind fields.Kind) ([]*regexp.Regexp, func(a, b string) float64) {
	switch kind {
	case fields.ICCID:
		return iccidCandidates, similarity.Ratio
	case fields.IMSI:
		return imsiCandidates, func(a, b string) float64 {
			return similarity.Ratio(normalize.StripNonDigits(a), normalize.StripNonDigits(b))
		}
	case fields.Generic:
		return keyCandidates, similarity.Ratio
	}
	return nil, nil
}
