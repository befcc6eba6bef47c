package validate

import (
	"fmt"
	"strings"

	"github.com/gregLibert/simcheck/pkg/align"
	"github.com/gregLibert/simcheck/pkg/iso7816"
	"github.com/gregLibert/simcheck/pkg/machinelog"
	"github.com/gregLibert/simcheck/pkg/script"
)

// Status is the verdict on one script command.
type Status int

const (
	Pass Status = iota
	Fail
	Skipped
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case Skipped:
		return "SKIPPED"
	default:
		return "UNKNOWN"
	}
}

const (
	msgPassed      = "Command validation passed"
	msgSkipped     = "Command skipped (PPS or complex)"
	msgNotFound    = "Script command not found in machine logs"
	msgNoStatus    = "No status values found in machine log"
	msgAPDU        = "APDU data mismatch"
	msgPlaceholder = "Machine log contains placeholder"
	msgTruncated   = "APDU data truncated"
	msgSeparator   = " | "
	previewResult  = 20
	previewField   = 10
)

// Outcome is the verdict on one script command.
type Outcome struct {
	Command script.Command
	// Entry is the aligned log entry; zero when the command was skipped or not found.
	Entry      machinelog.Entry
	EntryIndex int
	Rule       align.Rule

	Status   Status
	Message  string
	NotFound bool
	// Details is the step by step trace of the checks, for the detailed report.
	Details []string
}

// outcomeBuilder collects the messages of the independent checks on one pair.
type outcomeBuilder struct {
	errors   []string
	warnings []string
	passes   []string
	details  []string
}

func (b *outcomeBuilder) fail(format string, args ...any) {
	b.errors = append(b.errors, fmt.Sprintf(format, args...))
}

func (b *outcomeBuilder) detail(format string, args ...any) {
	b.details = append(b.details, fmt.Sprintf(format, args...))
}

func (r *Run) check(cmd script.Command, e machinelog.Entry) Outcome {
	var b outcomeBuilder

	if cmd.ExpectedStatus != "" {
		checkStatus(&b, cmd.ExpectedStatus, e)
	}

	switch cmd.Kind {
	case script.SWResultField:
		b.detail("Checking RESULT field: %s", cmd.ResultField)
		if e.Result == "" {
			b.fail("RESULT missing for field '%s'", cmd.ResultField)
			break
		}
		r.put(cmd.ResultField, e.Result)
		b.detail("Found RESULT: %s", e.Result)
		if e.ExpResult != "" && e.ExpResult != e.Result {
			b.fail("RESULT and EXPResult mismatch: %s != %s", e.Result, e.ExpResult)
		} else {
			b.passes = append(b.passes, fmt.Sprintf("%s=%s", cmd.ResultField, preview(e.Result, previewResult)))
		}

	case script.SWResult:
		b.detail("Checking fixed RESULT: %s", cmd.ExpectedResult)
		switch {
		case cmd.ExpectedResult == "":
		case e.Result == "":
			b.fail("RESULT missing in machine log")
		case e.Result != cmd.ExpectedResult:
			b.fail("RESULT mismatch: expected %s, got %s", cmd.ExpectedResult, e.Result)
		default:
			b.passes = append(b.passes, "RESULT matched")
		}

	case script.WithFieldsSW, script.WithFields:
		b.detail("Extracting fields from APDU: %s", strings.Join(cmd.FieldNames, ", "))
		bound, ok := cmd.Bind(e.APDU)
		if !ok {
			b.fail("Could not extract fields [%s] from APDU", strings.Join(cmd.FieldNames, ", "))
			break
		}
		var stored []string
		for _, name := range cmd.FieldNames {
			v, ok := bound[name]
			if !ok {
				continue
			}
			r.put(name, v)
			b.detail("Extracted %s = %s", name, v)
			stored = append(stored, name)
		}
		// Key halves are shown after every write: a later OPC can repair the KI before it.
		var extracted []string
		for _, name := range stored {
			v := bound[name]
			if k, ok := r.store.Key(name); ok && k != "" {
				v = k
			}
			extracted = append(extracted, fmt.Sprintf("%s=%s", name, preview(v, previewField)))
		}
		if len(extracted) > 0 {
			b.passes = append(b.passes, "Fields: "+strings.Join(extracted, ", "))
		}

	case script.SW:
		b.detail("Checking simple command")
		if cmd.APDU == "" || e.APDU == "" {
			break
		}
		if cmd.APDU != e.APDU {
			b.fail(msgAPDU)
		} else {
			b.passes = append(b.passes, "APDU matched")
		}
	}

	if e.HasPlaceholder {
		b.fail(msgPlaceholder)
	}
	if truncated(cmd, e) {
		b.fail(msgTruncated)
	}

	out := Outcome{Command: cmd, Entry: e, Details: b.details}
	if len(b.errors) > 0 {
		out.Status = Fail
		out.Message = strings.Join(append(b.errors, b.warnings...), msgSeparator)
		r.log.Debug().Int("line", cmd.Line).Str("message", out.Message).Msg("command failed")
		return out
	}
	out.Status = Pass
	out.Message = strings.Join(append(append([]string{msgPassed}, b.passes...), b.warnings...), msgSeparator)
	return out
}

// checkStatus applies the status decision: the highest priority field present among
// RECEIVE, OUT, SW and EXP decides alone; with none of them, any matching EXPECT passes.
// Disagreeing lower priority fields are reported as warnings.
func checkStatus(b *outcomeBuilder, expected string, e machinelog.Entry) {
	b.detail("Expected status: %s", expected)

	found := e.StatusFields()
	if len(found) == 0 {
		b.fail(msgNoStatus)
		return
	}

	var shown []string
	for _, f := range found {
		shown = append(shown, display(f))
	}
	b.detail("Found in machine log: %s", strings.Join(shown, ", "))

	decider := -1
	for i, f := range found {
		if f.Name != "EXPECT" {
			decider = i
			break
		}
	}

	if decider < 0 {
		for _, f := range found {
			if strings.EqualFold(f.Value, expected) {
				b.passes = append(b.passes, "Status: "+display(f))
				return
			}
		}
		b.fail("%s mismatch: expected %s, got %s", found[0].Name, expected, display(found[0]))
		b.detail("%s means %s", found[0].Name, verbose(found[0].Value))
		return
	}

	d := found[decider]
	if strings.EqualFold(d.Value, expected) {
		b.passes = append(b.passes, "Status: "+display(d))
		b.detail("%s MATCH: %s == %s", d.Name, display(d), expected)
	} else {
		b.fail("%s mismatch: expected %s, got %s", d.Name, expected, display(d))
		b.detail("%s means %s", d.Name, verbose(d.Value))
	}

	for i, f := range found {
		if i == decider || strings.EqualFold(f.Value, expected) {
			continue
		}
		b.warnings = append(b.warnings, fmt.Sprintf("Warning: %s mismatch: expected %s, got %s", f.Name, expected, display(f)))
	}
}

func display(f machinelog.StatusField) string {
	if f.Name == "OUT" {
		return "OUT[" + f.Value + "]"
	}
	return f.Name + "=" + f.Value
}

func verbose(value string) string {
	sw, err := iso7816.ParseStatusWord(value)
	if err != nil {
		return value
	}
	return sw.Verbose()
}

// truncated reports an UPDATE BINARY without placeholders whose trace is shorter than the script.
func truncated(cmd script.Command, e machinelog.Entry) bool {
	if cmd.HasPlaceholders() || e.APDU == "" || len(e.APDU) >= len(cmd.APDU) {
		return false
	}
	h, err := iso7816.ParseHeader(cmd.APDU)
	if err != nil {
		return false
	}
	return h.CLA == 0x00 && h.INS.IsUpdate()
}

func preview(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
