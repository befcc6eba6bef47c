package compare

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gregLibert/simcheck/pkg/fields"
)

// Inputs are the decoded values of one cross-file check. A target present in Sources was
// supplied, even when its map is empty.
type Inputs struct {
	ML      fields.Values
	Sources map[fields.Target]fields.Values
}

// Supplied reports whether the source file for t was given.
func (in Inputs) Supplied(t fields.Target) bool {
	_, ok := in.Sources[t]
	return ok
}

// Row is the comparison of one field against every target of the profile.
type Row struct {
	Field string
	ML    string
	// Values holds the displayed value per target: the decoded value, NR, N/A or Not Found.
	Values  map[fields.Target]string
	Results []fields.Result
	// Errors lists every failure message of the row, machine log first.
	Errors []string
	Status fields.Status
}

// Matrix applies the rule matrix: for every field and every target it yields exactly one
// result, NR when the rule never compares them, N/A when the source was not supplied,
// otherwise Pass or Fail.
func Matrix(specs []fields.Spec, targets []fields.Target, in Inputs, opts Options, log zerolog.Logger) []Row {
	rows := make([]Row, 0, len(specs))

	for _, spec := range specs {
		ml, mlOK := in.ML.Lookup(spec.Name)
		row := Row{
			Field:  spec.Name,
			ML:     in.ML.Display(spec.Name),
			Values: make(map[fields.Target]string, len(targets)),
			Status: fields.Pass,
		}

		mlChecked := false
		for _, t := range targets {
			res := fields.Result{Field: spec.Name, Target: t}

			switch {
			case !spec.Requires(t):
				res.Status = fields.NR
				row.Values[t] = fields.NR.String()

			case !in.Supplied(t):
				res.Status = fields.NA
				row.Values[t] = fields.NotApplicable

			default:
				row.Values[t] = in.Sources[t].Display(spec.Name)
				target, targetOK := in.Sources[t].Lookup(spec.Name)
				switch {
				case !mlOK:
					res.Status = fields.Fail
					res.Message = fmt.Sprintf("%s: Missing in Machine Log", spec.Name)
					if !mlChecked {
						row.Errors = append(row.Errors, res.Message)
						mlChecked = true
					}
				case !targetOK:
					res.Status = fields.Fail
					res.Message = missingIn(spec.Name, t, opts)
					row.Errors = append(row.Errors, res.Message)
				default:
					ok, msg := Compare(spec, t, ml, target, opts)
					if ok {
						res.Status = fields.Pass
					} else {
						res.Status = fields.Fail
						res.Message = msg
						row.Errors = append(row.Errors, msg)
					}
				}
			}

			if res.Status == fields.Fail {
				row.Status = fields.Fail
				log.Debug().Str("field", spec.Name).Stringer("target", t).Str("message", res.Message).Msg("comparison failed")
			}
			row.Results = append(row.Results, res)
		}

		if !mlOK && row.Status != fields.Fail {
			row.Status = fields.Fail
			row.Errors = append(row.Errors, fmt.Sprintf("%s: Missing in Machine Log", spec.Name))
		}
		rows = append(rows, row)
	}
	return rows
}

func missingIn(name string, t fields.Target, opts Options) string {
	if t == fields.CPS {
		return fmt.Sprintf("%s: Not found in %s (or below %.0f%% similarity)", name, t, opts.threshold())
	}
	return fmt.Sprintf("%s: Missing in %s", name, t)
}

// Failed reports whether any row failed.
func Failed(rows []Row) bool {
	for _, r := range rows {
		if r.Status == fields.Fail {
			return true
		}
	}
	return false
}

// Results flattens the per-target results of every row.
func Results(rows []Row) []fields.Result {
	var out []fields.Result
	for _, r := range rows {
		out = append(out, r.Results...)
	}
	return out
}

// Errors lists every failure message in row order.
func Errors(rows []Row) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.Errors...)
	}
	return out
}
