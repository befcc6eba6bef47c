// Package script parses variable script files: one personalization command per line, with the
// expected status word, an optional RESULT and optional %NAME% or <NAME> placeholders.
package script

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gregLibert/simcheck/pkg/sources"
)

// Kind classifies a script line.
type Kind int

const (
	Skip Kind = iota
	SWResultField
	SWResult
	WithFieldsSW
	SW
	WithFields
)

func (k Kind) String() string {
	switch k {
	case Skip:
		return "skip"
	case SWResultField:
		return "command_sw_result_field"
	case SWResult:
		return "command_sw_result"
	case WithFieldsSW:
		return "command_with_fields_sw"
	case SW:
		return "command_sw"
	case WithFields:
		return "command_with_fields"
	default:
		return "unknown"
	}
}

// Command is one parsed script line.
type Command struct {
	Line int
	Raw  string
	Kind Kind

	APDU           string
	ExpectedStatus string
	ResultField    string
	ExpectedResult string
	// FieldNames lists the APDU placeholders in order of appearance.
	FieldNames []string
}

// HasPlaceholders reports whether the APDU binds fields.
func (c Command) HasPlaceholders() bool {
	return len(c.FieldNames) > 0
}

var irrelevantPrefixes = []string{"0012000000SW9000", "PPS:", "AES_"}

var (
	resultFieldExpr = regexp.MustCompile(`^([A-F0-9]+)SW([0-9A-F]{4})RESULT([<%])([^>%]+)[>%]$`)
	resultHexExpr   = regexp.MustCompile(`^([A-F0-9]+)SW([0-9A-F]{4})RESULT([0-9A-F]+)$`)
	trailingSWExpr  = regexp.MustCompile(`^(.+)SW([0-9A-F]{4})$`)
	placeholderExpr = regexp.MustCompile(`%([^%]+)%|<([^>]+)>`)
)

// File is a parsed script.
type File struct {
	Commands []Command
	// Irrelevant counts lines dropped before classification (card reset, PPS, AES setup).
	Irrelevant int
	// Unrecognized lists the 1-based lines that matched no command layout.
	Unrecognized []int
}

// Irrelevant reports whether a whitespace-free script line carries no command.
func Irrelevant(line string) bool {
	for _, p := range irrelevantPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// Parse classifies every non-empty line of a variable script, in file order.
func Parse(content string, log zerolog.Logger) File {
	var f File
	for i, raw := range sources.Lines(content) {
		line := strings.Join(strings.Fields(raw), "")
		if line == "" {
			continue
		}
		if Irrelevant(line) {
			f.Irrelevant++
			continue
		}
		cmd, ok := ParseLine(line, i+1)
		if !ok {
			log.Warn().Int("line", i+1).Str("text", truncate(line, 50)).Msg("unrecognized script line")
			f.Unrecognized = append(f.Unrecognized, i+1)
			continue
		}
		f.Commands = append(f.Commands, cmd)
	}
	log.Info().Int("commands", len(f.Commands)).Int("irrelevant", f.Irrelevant).Msg("script parsed")
	return f
}

// ParseLine classifies one whitespace-free script line.
func ParseLine(line string, num int) (Command, bool) {
	c := Command{Line: num, Raw: line}

	if strings.Contains(line, "PPS:96SWFFFF") || (strings.Contains(line, "C02C010022") && strings.Contains(line, "SW9000")) {
		c.Kind = Skip
		return c, true
	}

	if m := resultFieldExpr.FindStringSubmatch(line); m != nil {
		c.Kind = SWResultField
		c.APDU, c.ExpectedStatus, c.ResultField = m[1], m[2], m[4]
		return c, true
	}
	if m := resultHexExpr.FindStringSubmatch(line); m != nil {
		c.Kind = SWResult
		c.APDU, c.ExpectedStatus, c.ExpectedResult = m[1], m[2], m[3]
		return c, true
	}
	if m := trailingSWExpr.FindStringSubmatch(line); m != nil {
		c.APDU, c.ExpectedStatus = m[1], m[2]
		c.FieldNames = placeholders(c.APDU)
		if c.HasPlaceholders() {
			c.Kind = WithFieldsSW
		} else {
			c.Kind = SW
		}
		return c, true
	}
	if strings.ContainsAny(line, "%<") {
		c.Kind = WithFields
		c.APDU = line
		c.FieldNames = placeholders(line)
		return c, true
	}
	return Command{}, false
}

func placeholders(apdu string) []string {
	var names []string
	for _, m := range placeholderExpr.FindAllStringSubmatch(apdu, -1) {
		if m[1] != "" {
			names = append(names, m[1])
		} else {
			names = append(names, m[2])
		}
	}
	return names
}

// Pattern compiles the APDU into an expression anchored at the start, with one hex capture
// group per placeholder in order of appearance.
func (c Command) Pattern() *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`(?i)^`)
	last := 0
	for _, loc := range placeholderExpr.FindAllStringIndex(c.APDU, -1) {
		b.WriteString(regexp.QuoteMeta(c.APDU[last:loc[0]]))
		b.WriteString(`([A-F0-9]+)`)
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(c.APDU[last:]))
	return regexp.MustCompile(b.String())
}

// Bind matches a machine APDU against the command pattern and returns the placeholder values.
func (c Command) Bind(apdu string) (map[string]string, bool) {
	m := c.Pattern().FindStringSubmatch(apdu)
	if m == nil {
		return nil, false
	}
	out := make(map[string]string, len(c.FieldNames))
	for i, name := range c.FieldNames {
		if i+1 < len(m) {
			out[name] = strings.ToUpper(m[i+1])
		}
	}
	return out, true
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
