package report

import (
	"fmt"
	"strings"

	"github.com/gregLibert/simcheck/pkg/compare"
	"github.com/gregLibert/simcheck/pkg/crosscheck"
	"github.com/gregLibert/simcheck/pkg/fields"
)

// Overall returns PASS or FAIL: any failed comparison fails the whole check.
func Overall(out *crosscheck.Outcome) string {
	if out.Failed() {
		return "FAIL"
	}
	return "PASS"
}

// CrossCheck renders a cross-file check: one block per field with the machine log value and the
// value and status of every target, then the mismatches and the overall verdict.
func CrossCheck(out *crosscheck.Outcome) string {
	var sb strings.Builder

	sb.WriteString(banner + "\n")
	fmt.Fprintf(&sb, "CROSS-FILE VALIDATION REPORT (%s)\n", out.Profile)
	sb.WriteString(banner + "\n")

	section(&sb, "FIELD COMPARISON")
	for i, row := range out.Rows {
		fmt.Fprintf(&sb, "[%d] %s: %s\n", i+1, row.Field, row.Status)
		ml := row.ML
		if line, ok := out.Origins[row.Field]; ok && line > 0 {
			ml = fmt.Sprintf("%s (line %d)", ml, line)
		}
		fmt.Fprintf(&sb, "    + %-12s %s\n", "Machine Log:", ml)
		for _, res := range row.Results {
			fmt.Fprintf(&sb, "    + %-12s %s [%s]\n", res.Target.String()+":", row.Values[res.Target], res.Status)
		}
	}

	if len(out.CPSMatches) > 0 {
		section(&sb, "CPS CANDIDATES")
		for _, m := range out.CPSMatches {
			kind := "fuzzy"
			if m.Exact {
				kind = "exact"
			}
			fmt.Fprintf(&sb, "  %s: %s (%.1f%%, %s)\n", m.Field, m.Value, m.Score, kind)
		}
	}

	section(&sb, "MISMATCHES")
	errs := compare.Errors(out.Rows)
	if len(errs) == 0 {
		sb.WriteString("None\n")
	}
	for _, e := range errs {
		fmt.Fprintf(&sb, "- %s\n", e)
	}

	passed, failed := countRows(out.Rows)
	section(&sb, "SUMMARY")
	fmt.Fprintf(&sb, "Fields Checked: %d\n", len(out.Rows))
	fmt.Fprintf(&sb, "Passed: %d\n", passed)
	fmt.Fprintf(&sb, "Failed: %d\n", failed)
	fmt.Fprintf(&sb, "OVERALL STATUS: %s\n", Overall(out))

	sb.WriteString("\n" + banner + "\n")
	sb.WriteString("END OF REPORT\n")
	sb.WriteString(banner + "\n")
	return sb.String()
}

func countRows(rows []compare.Row) (passed, failed int) {
	for _, r := range rows {
		if r.Status == fields.Fail {
			failed++
		} else {
			passed++
		}
	}
	return passed, failed
}
