// Package report renders validation outcomes as plain text reports and names the report files.
package report

import (
	"fmt"
	"strings"

	"github.com/gregLibert/simcheck/pkg/fields"
	"github.com/gregLibert/simcheck/pkg/validate"
)

const width = 80

var (
	banner  = strings.Repeat("=", width)
	divider = strings.Repeat("-", width)
)

var rulesApplied = []string{
	"Command matching by APDU command bytes",
	"EXACT SW (Status Word) match required",
	"Checks all status formats: SW=, EXP=, OUT[], EXPECT:, RECEIVE:",
	"RESULT field extraction and validation",
	"Machine log must contain actual values (no placeholders)",
	"APDU data integrity checks for write commands",
	"KI/OPC field splitting (64 chars -> 32 KI + 32 OPC)",
}

// ScriptOptions tunes the script report.
type ScriptOptions struct {
	// MaxResults caps the detailed results. Zero lists them all.
	MaxResults int
	// Verbose adds the check trace of every command and the key material history.
	Verbose bool
}

// Failures counts failed commands by cause.
type Failures struct {
	Status      int
	Result      int
	Missing     int
	Placeholder int
	NotFound    int
	Other       int
}

// Categorize sorts the failed outcomes by the first check that failed: not found, status,
// result mismatch, missing result, placeholder, other.
func Categorize(outcomes []validate.Outcome) Failures {
	var f Failures
	for _, o := range outcomes {
		if o.Status != validate.Fail {
			continue
		}
		first, _, _ := strings.Cut(o.Message, " | ")
		lower := strings.ToLower(first)
		switch {
		case o.NotFound:
			f.NotFound++
		case isStatusFailure(first):
			f.Status++
		case strings.Contains(lower, "result") && strings.Contains(lower, "mismatch"):
			f.Result++
		case strings.Contains(lower, "missing"):
			f.Missing++
		case strings.Contains(lower, "placeholder"):
			f.Placeholder++
		default:
			f.Other++
		}
	}
	return f
}

var statusNames = []string{"RECEIVE", "OUT", "SW", "EXP", "EXPECT"}

func isStatusFailure(msg string) bool {
	if msg == "No status values found in machine log" {
		return true
	}
	for _, n := range statusNames {
		if strings.HasPrefix(msg, n+" mismatch") {
			return true
		}
	}
	return false
}

func (f Failures) lines() []string {
	counts := []struct {
		label string
		n     int
	}{
		{"SW/Status Mismatches", f.Status},
		{"Result Mismatches", f.Result},
		{"Missing Results", f.Missing},
		{"Placeholder Errors", f.Placeholder},
		{"Not Found Errors", f.NotFound},
		{"Other Errors", f.Other},
	}
	var out []string
	for _, c := range counts {
		if c.n > 0 {
			out = append(out, fmt.Sprintf("%s: %d", c.label, c.n))
		}
	}
	return out
}

// Grade rates a run. A run without failures is PERFECT; otherwise the success rate decides.
func Grade(s validate.Stats) string {
	rate := s.SuccessRate()
	switch {
	case s.Failed == 0:
		return "PERFECT VALIDATION: All commands passed!"
	case rate >= 90:
		return fmt.Sprintf("EXCELLENT: %.1f%% success rate", rate)
	case rate >= 70:
		return fmt.Sprintf("GOOD: %.1f%% success rate", rate)
	case rate >= 50:
		return fmt.Sprintf("FAIR: %.1f%% success rate", rate)
	default:
		return fmt.Sprintf("POOR: %.1f%% success rate", rate)
	}
}

// Script renders the complete report of a script validation run.
func Script(res *validate.Result, opts ScriptOptions) string {
	var sb strings.Builder
	s := res.Stats

	sb.WriteString(banner + "\n")
	sb.WriteString("COMPLETE MACHINE LOG VALIDATION REPORT\n")
	sb.WriteString(banner + "\n")

	section(&sb, "VALIDATION SUMMARY")
	fmt.Fprintf(&sb, "Total Commands Processed: %d\n", s.Total)
	fmt.Fprintf(&sb, "Passed: %d\n", s.Passed)
	fmt.Fprintf(&sb, "Failed: %d\n", s.Failed)
	fmt.Fprintf(&sb, "Skipped: %d\n", s.Skipped)
	fmt.Fprintf(&sb, "Not Found: %d\n", s.NotFound)
	fmt.Fprintf(&sb, "Success Rate: %.1f%%\n", s.SuccessRate())

	failures := Categorize(res.Outcomes)
	if s.Failed > 0 {
		section(&sb, "FAILURE ANALYSIS")
		for _, l := range failures.lines() {
			sb.WriteString(l + "\n")
		}
	}

	section(&sb, "VALIDATION RULES APPLIED")
	for i, r := range rulesApplied {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, r)
	}

	section(&sb, "DETAILED RESULTS")
	shown := res.Outcomes
	if opts.MaxResults > 0 && len(shown) > opts.MaxResults {
		shown = shown[:opts.MaxResults]
	}
	for i, o := range shown {
		fmt.Fprintf(&sb, "%3d. %s: %s\n", i+1, o.Status, o.Message)
		if o.Status == validate.Fail {
			if o.Command.Raw != "" {
				fmt.Fprintf(&sb, "     Script: %s\n", truncate(o.Command.Raw, 100))
			}
			if o.Entry.Raw != "" {
				fmt.Fprintf(&sb, "     Machine: %s\n", truncate(o.Entry.Raw, 100))
			}
		}
		if opts.Verbose {
			for _, d := range o.Details {
				fmt.Fprintf(&sb, "     - %s\n", d)
			}
		}
		sb.WriteString("\n")
	}
	if len(shown) < len(res.Outcomes) {
		fmt.Fprintf(&sb, "... and %d more results (total: %d) ...\n", len(res.Outcomes)-len(shown), len(res.Outcomes))
	}

	writeFields(&sb, res, opts.Verbose)

	if len(res.Conflicts) > 0 {
		section(&sb, "FIELD CONFLICTS")
		for _, c := range res.Conflicts {
			fmt.Fprintf(&sb, "  %s: kept %s, rejected %s\n", c.Field, c.Kept, c.Rejected)
		}
	}

	section(&sb, "VALIDATION ANALYSIS")
	if s.NotFound > 0 {
		fmt.Fprintf(&sb, "%d commands not found in machine logs\n", s.NotFound)
		sb.WriteString("   Possible reasons:\n")
		sb.WriteString("   1. Script and machine log from different test runs\n")
		sb.WriteString("   2. APDU parsing issues in machine log\n")
		sb.WriteString("   3. Command synchronization mismatch\n")
	}
	if failures.Status > 0 {
		fmt.Fprintf(&sb, "%d SW/status mismatches detected\n", failures.Status)
		sb.WriteString("   Check for:\n")
		sb.WriteString("   1. Different SW in script vs machine log\n")
		sb.WriteString("   2. SW, EXP, OUT, EXPECT, or RECEIVE value mismatches\n")
		sb.WriteString("   3. Machine log showing different status formats\n")
	}
	sb.WriteString(Grade(s) + "\n")

	sb.WriteString("\n" + banner + "\n")
	sb.WriteString("END OF REPORT\n")
	sb.WriteString(banner + "\n")
	return sb.String()
}

type fieldGroup int

const (
	groupIMSI fieldGroup = iota
	groupICCID
	groupKI
	groupOPC
	groupPSK
	groupDEK
	groupPIN
	groupOther
	groupCount
)

var groupTitles = [groupCount]string{
	"IMSI Fields:",
	"ICCID Fields:",
	"KI (Key Identifier) Fields:",
	"OPC (Operator Code) Fields:",
	"PSK (Pre-Shared Key) Fields:",
	"DEK (Data Encryption Key) Fields:",
	"PIN Fields:",
	"Other Fields:",
}

// derivedSuffixes mark values the store computed from another field.
var derivedSuffixes = []string{"_SWAPPED", "_CLEAN"}

func groupOf(name string) fieldGroup {
	upper := strings.ToUpper(name)
	switch {
	case strings.Contains(upper, "IMSI"):
		return groupIMSI
	case strings.Contains(upper, "ICCID"):
		return groupICCID
	case strings.Contains(upper, "PIN"):
		return groupPIN
	case strings.Contains(upper, "PSK"):
		return groupPSK
	case strings.Contains(upper, "DEK"):
		return groupDEK
	case upper == "KI":
		return groupKI
	case upper == "OPC":
		return groupOPC
	default:
		return groupOther
	}
}

func writeFields(sb *strings.Builder, res *validate.Result, verbose bool) {
	if len(res.Fields) == 0 {
		return
	}
	section(sb, "EXTRACTED FIELD VALUES")

	var groups [groupCount][]string
	for _, name := range res.Fields.Names() {
		if hasAnySuffix(name, derivedSuffixes) {
			continue
		}
		g := groupOf(name)
		groups[g] = append(groups[g], name)
	}

	for g, names := range groups {
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(sb, "\n%s\n", groupTitles[g])
		for _, name := range names {
			v := res.Fields[name]
			switch fieldGroup(g) {
			case groupKI, groupOPC:
				fmt.Fprintf(sb, "  %s: %s\n", name, truncate(v, 64))
				fmt.Fprintf(sb, "    Length: %d chars\n", len(v))
			case groupPSK, groupDEK:
				fmt.Fprintf(sb, "  %s: %s\n", name, truncate(v, 32))
				fmt.Fprintf(sb, "    Length: %d chars\n", len(v))
			case groupPIN:
				fmt.Fprintf(sb, "  %s: %s\n", name, v)
				if clean, ok := res.Fields[name+"_CLEAN"]; ok {
					fmt.Fprintf(sb, "    Clean: %s\n", clean)
				}
			case groupOther:
				fmt.Fprintf(sb, "  %s: %s\n", name, truncate(v, 50))
			default:
				fmt.Fprintf(sb, "  %s: %s\n", name, v)
			}
		}
	}

	ki, hasKI := res.Fields["KI"]
	opc, hasOPC := res.Fields["OPC"]
	if (hasKI || hasOPC) && !res.KeysNormalized {
		fmt.Fprintf(sb, "\nWarning: KI/OPC not normalized (KI %d chars, OPC %d chars, want %d)\n",
			len(ki), len(opc), fields.KeyLength)
	}
	if verbose && len(res.Keys) > 0 {
		sb.WriteString("\nKey material history:\n")
		for _, k := range res.Keys {
			fmt.Fprintf(sb, "  %s: KI=%s OPC=%s\n", k.Event, orNone(k.KI), orNone(k.OPC))
		}
	}
}

func section(sb *strings.Builder, title string) {
	fmt.Fprintf(sb, "\n%s\n%s\n", title, divider)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
