// Package align pairs script commands with the machine-log entries that traced them.
//
// LOGIC:
// The log is read once, front to back. For each script command the aligner scans forward from
// its cursor and, at each entry, tries the rules from the strictest to the loosest:
//
//  1. Exact: both APDUs are equal.
//  2. Read: same CLA/INS and the instruction is READ BINARY or READ RECORD, whose P1-P2 and Le
//     may legitimately differ.
//  3. Containment: one APDU contains the other (placeholders resolved, tracer truncation).
//  4. Prefix: the first min(len, len, 10) characters agree, with at least 6 of them.
//
// The first (entry, rule) hit wins and the cursor moves past that entry. A miss leaves the cursor
// where it was, so matched indices are strictly increasing and no entry is used twice.
package align

import (
	"encoding/hex"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gregLibert/simcheck/pkg/iso7816"
	"github.com/gregLibert/simcheck/pkg/machinelog"
)

// Rule names the matching rule that paired a command with an entry.
type Rule int

const (
	Exact Rule = iota + 1
	Read
	Containment
	Prefix
)

func (r Rule) String() string {
	switch r {
	case Exact:
		return "exact"
	case Read:
		return "read command"
	case Containment:
		return "containment"
	case Prefix:
		return "prefix"
	default:
		return "none"
	}
}

const (
	commandPrefixLen = 4
	prefixWindow     = 10
	minPrefix        = 6
)

// Match is a successful pairing.
type Match struct {
	Index int
	Rule  Rule
	Entry machinelog.Entry
}

// Aligner walks a machine log with a non-backtracking cursor.
type Aligner struct {
	entries []machinelog.Entry
	cursor  int
	log     zerolog.Logger
}

// New returns an aligner positioned on the first entry.
func New(entries []machinelog.Entry, log zerolog.Logger) *Aligner {
	return &Aligner{entries: entries, log: log}
}

// Cursor returns the index the next search starts from.
func (a *Aligner) Cursor() int { return a.cursor }

// Find searches for apdu from the cursor onwards and advances past the hit.
func (a *Aligner) Find(apdu string) (Match, bool) {
	if apdu == "" {
		return Match{}, false
	}
	for i := a.cursor; i < len(a.entries); i++ {
		e := a.entries[i]
		if e.APDU == "" {
			continue
		}
		if rule := Classify(apdu, e.APDU); rule != 0 {
			a.cursor = i + 1
			a.log.Debug().Str("apdu", apdu).Int("entry", i).Int("line", e.Line).Stringer("rule", rule).Msg("command aligned")
			return Match{Index: i, Rule: rule, Entry: e}, true
		}
	}
	a.log.Info().Str("apdu", apdu).Int("cursor", a.cursor).Msg("command not found in machine log")
	return Match{}, false
}

// Classify returns the strictest rule pairing a script APDU with a machine APDU, or 0.
func Classify(script, machine string) Rule {
	switch {
	case script == machine:
		return Exact
	case sameReadCommand(script, machine):
		return Read
	case strings.Contains(machine, script) || strings.Contains(script, machine):
		return Containment
	case samePrefix(script, machine):
		return Prefix
	}
	return 0
}

func sameReadCommand(script, machine string) bool {
	if len(script) < commandPrefixLen || len(machine) < commandPrefixLen {
		return false
	}
	if script[:commandPrefixLen] != machine[:commandPrefixLen] {
		return false
	}
	b, err := hex.DecodeString(script[:commandPrefixLen])
	if err != nil {
		return false
	}
	return b[0] == 0x00 && iso7816.InsCode(b[1]).IsRead()
}

func samePrefix(script, machine string) bool {
	n := min(len(script), len(machine), prefixWindow)
	return n >= minPrefix && script[:n] == machine[:n]
}
