// Package validate checks that a machine log really executed a variable script: every script
// command is aligned to a traced entry and its status, result and placeholder values checked.
//
// A Run owns all the mutable state of one validation (cursor, field store, counters). Build a
// fresh one per invocation with NewRun; runs never share state.
package validate

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gregLibert/simcheck/pkg/align"
	"github.com/gregLibert/simcheck/pkg/fields"
	"github.com/gregLibert/simcheck/pkg/machinelog"
	"github.com/gregLibert/simcheck/pkg/normalize"
	"github.com/gregLibert/simcheck/pkg/script"
)

var (
	ErrNoScriptCommands = errors.New("no script commands to validate")
	ErrNoLogEntries     = errors.New("no machine log entries")
)

// ACCField is the access control class derived from the IMSI when the script binds none.
const ACCField = "ACC"

// Options configures a Run.
type Options struct {
	// Logger receives progress and diagnostics. The zero value discards everything.
	Logger zerolog.Logger
}

// Stats are the aggregate counters of a run. NotFound commands are also counted as Failed.
type Stats struct {
	Total    int
	Passed   int
	Failed   int
	Skipped  int
	NotFound int
}

// SuccessRate is the share of passed commands among the validated (non skipped) ones, in percent.
func (s Stats) SuccessRate() float64 {
	checked := s.Total - s.Skipped
	if checked <= 0 {
		return 0
	}
	return float64(s.Passed) / float64(checked) * 100
}

// Result is the complete outcome of a run.
type Result struct {
	Outcomes  []Outcome
	Stats     Stats
	Fields    fields.Values
	Conflicts []fields.Conflict
	Keys      []fields.KeyState
	// KeysNormalized is false when KI or OPC ended with a length other than 32.
	KeysNormalized bool
}

// Failed reports whether any command failed.
func (r *Result) Failed() bool {
	return r.Stats.Failed > 0
}

// Run is the per-invocation validation context.
type Run struct {
	log   zerolog.Logger
	store *fields.Store
	stats Stats

	// imsiField is the first IMSI-like field bound by the script.
	imsiField string
}

// NewRun returns a fresh validation context.
func NewRun(opts Options) *Run {
	return &Run{
		log:   opts.Logger,
		store: fields.NewStore(opts.Logger),
	}
}

// Validate aligns the script commands with the log entries and checks every pair.
// Individual command failures are reported in the Result, never as an error.
func (r *Run) Validate(commands []script.Command, entries []machinelog.Entry) (*Result, error) {
	if len(commands) == 0 {
		return nil, ErrNoScriptCommands
	}
	if len(entries) == 0 {
		return nil, ErrNoLogEntries
	}

	r.log.Info().Int("commands", len(commands)).Int("entries", len(entries)).Msg("starting validation")

	aligner := align.New(entries, r.log)
	outcomes := make([]Outcome, 0, len(commands))

	for _, cmd := range commands {
		r.stats.Total++

		if cmd.Kind == script.Skip {
			outcomes = append(outcomes, Outcome{Command: cmd, Status: Skipped, Message: msgSkipped})
			r.stats.Skipped++
			continue
		}

		m, ok := aligner.Find(cmd.APDU)
		if !ok {
			outcomes = append(outcomes, Outcome{Command: cmd, Status: Fail, Message: msgNotFound, NotFound: true})
			r.stats.NotFound++
			r.stats.Failed++
			continue
		}

		out := r.check(cmd, m.Entry)
		out.Rule = m.Rule
		out.EntryIndex = m.Index
		outcomes = append(outcomes, out)

		if out.Status == Pass {
			r.stats.Passed++
		} else {
			r.stats.Failed++
		}
	}

	r.deriveACC()
	keys := r.store.Keys()
	if !keys.Normalized() && (keys.KI != "" || keys.OPC != "") {
		r.log.Warn().Int("ki_len", len(keys.KI)).Int("opc_len", len(keys.OPC)).Msg("key material not normalized")
	}

	r.log.Info().
		Int("passed", r.stats.Passed).
		Int("failed", r.stats.Failed).
		Int("skipped", r.stats.Skipped).
		Int("not_found", r.stats.NotFound).
		Msg("validation complete")

	return &Result{
		Outcomes:       outcomes,
		Stats:          r.stats,
		Fields:         r.store.Values(),
		Conflicts:      r.store.Conflicts(),
		Keys:           keys.History(),
		KeysNormalized: keys.Normalized(),
	}, nil
}

// put stores a bound value and remembers the IMSI for the ACC derivation.
func (r *Run) put(name, value string) {
	upper := strings.ToUpper(name)
	if r.imsiField == "" && strings.Contains(upper, "IMSI") && !strings.Contains(upper, "ASCII") {
		r.imsiField = name
	}
	r.store.Put(name, value)
}

func (r *Run) deriveACC() {
	if r.imsiField == "" {
		return
	}
	values := r.store.Values()
	if _, ok := values.Lookup(ACCField); ok {
		return
	}
	imsi, ok := values.Lookup(r.imsiField)
	if !ok {
		return
	}
	acc := normalize.ACCFromIMSI(imsi)
	r.log.Debug().Str("imsi_field", r.imsiField).Str("acc", acc).Msg("ACC derived from IMSI")
	r.store.Put(ACCField, acc)
}
