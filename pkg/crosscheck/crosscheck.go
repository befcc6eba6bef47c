// Package crosscheck runs a cross-file check: it decodes the personalized values from the
// machine log, extracts the same fields from every supplied batch file and compares them
// through the profile's rule matrix.
package crosscheck

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gregLibert/simcheck/pkg/compare"
	"github.com/gregLibert/simcheck/pkg/fields"
	"github.com/gregLibert/simcheck/pkg/machinelog"
	"github.com/gregLibert/simcheck/pkg/profile"
	"github.com/gregLibert/simcheck/pkg/similarity"
	"github.com/gregLibert/simcheck/pkg/sources"
)

// ErrMachineLogRequired is returned by Load before any parsing when no machine log path was
// given.
var ErrMachineLogRequired = errors.New("machine log is required")

// Files are the paths of one check. Empty paths are not supplied.
type Files struct {
	MachineLog string
	PCOM       string
	CNUM       string
	SCM        string
	SIMODA     string
	CPS        string
}

func (f Files) path(t fields.Target) string {
	switch t {
	case fields.PCOM:
		return f.PCOM
	case fields.CNUM:
		return f.CNUM
	case fields.SCM:
		return f.SCM
	case fields.SIMODA:
		return f.SIMODA
	case fields.CPS:
		return f.CPS
	}
	return ""
}

// Contents are the texts of one check. A target present in Sources was supplied.
type Contents struct {
	MachineLog string
	Sources    map[fields.Target]string
}

// Options configures a check.
type Options struct {
	Logger zerolog.Logger
	// Threshold is the cps similarity gate in percent. Zero means similarity.DefaultThreshold.
	Threshold float64
}

// Outcome is the complete result of a check.
type Outcome struct {
	Profile string
	ML      fields.Values
	// Origins maps each machine log field to the 1-based line it was decoded from.
	Origins    map[string]int
	Sources    map[fields.Target]fields.Values
	CPSMatches []sources.CPSMatch
	Rows       []compare.Row
	Status     fields.Status
}

// Failed reports whether the check failed.
func (o *Outcome) Failed() bool {
	return o.Status == fields.Fail
}

// Load reads the supplied files. A source that cannot be read is logged and kept as supplied
// but empty, so its fields are reported missing instead of aborting the check.
func Load(files Files, p profile.Profile, log zerolog.Logger) (Contents, error) {
	if files.MachineLog == "" {
		return Contents{}, ErrMachineLogRequired
	}
	ml, err := os.ReadFile(files.MachineLog)
	if err != nil {
		return Contents{}, fmt.Errorf("read machine log: %w", err)
	}

	c := Contents{MachineLog: string(ml), Sources: map[fields.Target]string{}}
	for _, t := range []fields.Target{fields.PCOM, fields.CNUM, fields.SCM, fields.SIMODA, fields.CPS} {
		path := files.path(t)
		if path == "" {
			continue
		}
		if !p.HasTarget(t) {
			log.Warn().Stringer("source", t).Str("profile", p.Name).Msg("source not used by profile, ignored")
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Stringer("source", t).Str("path", path).Msg("source unreadable, fields reported missing")
		}
		c.Sources[t] = string(data)
	}
	return c, nil
}

// Check decodes and compares the contents under profile p. An empty machine log is not an
// error: every field it should hold is reported missing.
func Check(p profile.Profile, c Contents, opts Options) (*Outcome, error) {
	log := opts.Logger.With().Str("profile", p.Name).Logger()
	if strings.TrimSpace(c.MachineLog) == "" {
		log.Warn().Msg("machine log is empty, every field will be reported missing")
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = similarity.DefaultThreshold
	}

	var x machinelog.Extraction
	switch p.Strategy {
	case profile.Lookahead:
		x = machinelog.ExtractLookahead(c.MachineLog, p.Select, log)
	default:
		x = machinelog.ExtractDirect(c.MachineLog, p.Direct, log)
	}
	log.Info().Int("fields", len(x.Values)).Stringer("strategy", p.Strategy).Msg("machine log decoded")

	out := &Outcome{
		Profile: p.Name,
		ML:      x.Values,
		Origins: x.Origins,
		Sources: map[fields.Target]fields.Values{},
	}

	for _, t := range p.Targets {
		content, ok := c.Sources[t]
		if !ok {
			continue
		}
		var v fields.Values
		switch t {
		case fields.PCOM:
			v = sources.ParsePCOM(content, p.PCOM, log)
		case fields.CNUM:
			if p.CNUMCells == nil {
				v = sources.ParseCNUM(content, log)
			} else {
				v = sources.ReadCells(t.String(), content, p.CNUMCells, log)
			}
		case fields.SCM:
			v = sources.ReadCells(t.String(), content, p.SCMCells, log)
		case fields.SIMODA:
			v = sources.ParseSIMODA(content, p.SIMODAAnchors, p.SIMODAOrdered, sources.DefaultAnchorRadius, log)
		case fields.CPS:
			v, out.CPSMatches = sources.ExtractCPS(content, x.Values, p.Specs, threshold, log)
		}
		log.Info().Stringer("source", t).Int("fields", len(v)).Msg("source extracted")
		out.Sources[t] = v
	}

	out.Rows = compare.Matrix(p.Specs, p.Targets, compare.Inputs{ML: x.Values, Sources: out.Sources},
		compare.Options{Threshold: threshold, StrictLength: p.StrictLength}, log)

	out.Status = fields.Pass
	if compare.Failed(out.Rows) {
		out.Status = fields.Fail
	}
	log.Info().Stringer("status", out.Status).Int("errors", len(compare.Errors(out.Rows))).Msg("cross-check complete")
	return out, nil
}
