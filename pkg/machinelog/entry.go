// Package machinelog reads the APDU traces written by the personalization machine: one Entry per
// traced command for the script validator, and field values for the cross-file check.
package machinelog

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gregLibert/simcheck/pkg/sources"
)

// Entry is one traced command. The status fields are kept exactly as the tracer printed them;
// several formats may occur on one line and they can disagree.
type Entry struct {
	Line int
	Raw  string
	APDU string

	SW      string
	EXP     string
	OUT     string
	Expect  string
	Receive string

	Result    string
	ExpResult string

	// HasPlaceholder is set when the RESULT still holds an unresolved <NAME> or %NAME% token.
	HasPlaceholder bool
	Placeholder    string
}

// StatusField is one status variant present on an entry.
type StatusField struct {
	Name  string
	Value string
}

// StatusFields returns the status variants present on e, highest priority first:
// RECEIVE, OUT, SW, EXP, then EXPECT.
func (e Entry) StatusFields() []StatusField {
	all := []StatusField{
		{"RECEIVE", e.Receive},
		{"OUT", e.OUT},
		{"SW", e.SW},
		{"EXP", e.EXP},
		{"EXPECT", e.Expect},
	}
	out := all[:0]
	for _, f := range all {
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}

var (
	bracketExpr  = regexp.MustCompile(`\[([A-F0-9]+)\]`)
	apduEqExpr   = regexp.MustCompile(`(?i)APDU\s*=\s*([A-F0-9]+)`)
	leadingExpr  = regexp.MustCompile(`^([A-F0-9]{4,})`)
	hexRunExpr   = regexp.MustCompile(`\b([A-F0-9]{10,})\b`)
	expRecvExpr  = regexp.MustCompile(`(?i)EXPECT\s*:\s*([0-9A-F]{3,4})\s+RECEIVE\s*:\s*([0-9A-F]{3,4})`)
	outExpr      = regexp.MustCompile(`OUT\[([0-9A-F]{3,4})\]`)
	swExpr       = regexp.MustCompile(`(?i)\bSW\s*=\s*([0-9A-F]{3,4})`)
	expExpr      = regexp.MustCompile(`(?i)\bEXP\s*=\s*([0-9A-F]{3,4})`)
	expectExpr   = regexp.MustCompile(`(?i)EXPECT\s*:\s*([0-9A-F]{3,4})`)
	receiveExpr  = regexp.MustCompile(`(?i)RECEIVE\s*:\s*([0-9A-F]{3,4})`)
	resultExpr   = regexp.MustCompile(`(?i)\bRESULT\s*=\s*([0-9A-F]+)`)
	expResExpr   = regexp.MustCompile(`(?i)EXPResult\s*=\s*([0-9A-F]+)`)
	resultPHExpr = regexp.MustCompile(`(?i)RESULT\s*=\s*(<[^>]+>|%[^%]+%)`)
)

// Ignored reports whether a traced line is left out of the entries: the secure channel
// C02C010022 command echoed with its IN[...] data.
func Ignored(line string) bool {
	return strings.Contains(line, "C02C010022") && strings.Contains(line, "SW9000") && strings.Contains(line, "IN[")
}

// ParseLine parses one trace line. ok is false for blank, ignored and APDU-less lines.
func ParseLine(line string, num int) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || Ignored(line) {
		return Entry{}, false
	}
	apdu := findAPDU(line)
	if apdu == "" {
		return Entry{}, false
	}

	e := Entry{Line: num, Raw: line, APDU: apdu}

	if m := expRecvExpr.FindStringSubmatch(line); m != nil {
		e.Expect, e.Receive = strings.ToUpper(m[1]), strings.ToUpper(m[2])
	} else {
		e.Expect = firstGroup(expectExpr, line)
		e.Receive = firstGroup(receiveExpr, line)
	}
	e.OUT = firstGroup(outExpr, line)
	e.SW = firstGroup(swExpr, line)
	e.EXP = firstGroup(expExpr, line)

	e.Result = firstGroup(resultExpr, line)
	e.ExpResult = firstGroup(expResExpr, line)
	if m := resultPHExpr.FindStringSubmatch(line); m != nil {
		e.HasPlaceholder = true
		e.Placeholder = m[1]
	}
	return e, true
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

// findAPDU tries, in order: the first bracketed hex group that is not an OUT[..] status,
// `APDU = hex`, a leading hex run, and any standalone hex run of ten or more digits.
func findAPDU(line string) string {
	for _, loc := range bracketExpr.FindAllStringSubmatchIndex(line, -1) {
		if strings.HasSuffix(line[:loc[0]], "OUT") {
			continue
		}
		return line[loc[2]:loc[3]]
	}
	if m := apduEqExpr.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := leadingExpr.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := hexRunExpr.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

// Parse returns the entries of a machine log in file order.
func Parse(content string, log zerolog.Logger) []Entry {
	var entries []Entry
	for i, l := range sources.Lines(content) {
		if e, ok := ParseLine(l, i+1); ok {
			entries = append(entries, e)
		} else if strings.TrimSpace(l) != "" {
			log.Debug().Int("line", i+1).Msg("no APDU on machine log line")
		}
	}
	log.Info().Int("entries", len(entries)).Msg("machine log parsed")
	return entries
}
