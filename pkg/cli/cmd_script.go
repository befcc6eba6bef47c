package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gregLibert/simcheck/pkg/machinelog"
	"github.com/gregLibert/simcheck/pkg/report"
	"github.com/gregLibert/simcheck/pkg/script"
	"github.com/gregLibert/simcheck/pkg/validate"
)

func newScriptCmd(a *app) *cobra.Command {
	var (
		scriptPath string
		logPath    string
		outPath    string
		maxResults int
		verbose    bool
		printOut   bool
	)

	cmd := &cobra.Command{
		Use:   "script",
		Short: "Check that a machine log executed a variable script",
		Long: `Align every command of a variable script with the machine log entries and check
status words, RESULT values and placeholder data.

The report is written next to the machine log (or to --report-dir) under a name derived
from the machine log file name, unless --out is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scriptText, err := readFile("script", scriptPath)
			if err != nil {
				return err
			}
			logText, err := readFile("machine log", logPath)
			if err != nil {
				return err
			}

			log := a.log.With().Str("script", scriptPath).Logger()
			sf := script.Parse(scriptText, log)
			entries := machinelog.Parse(logText, log)

			res, err := validate.NewRun(validate.Options{Logger: log}).Validate(sf.Commands, entries)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("max-results") {
				maxResults = a.cfg.MaxReportResults
			}
			text := report.Script(res, report.ScriptOptions{MaxResults: maxResults, Verbose: verbose})

			if outPath == "" {
				outPath = report.Path(a.cfg.ReportDir, logPath)
			}
			if err := a.writeReport(outPath, text); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if printOut {
				fmt.Fprint(out, text)
			}
			s := res.Stats
			fmt.Fprintf(out, "%d commands: %d passed, %d failed, %d skipped, %d not found (%.1f%%)\n",
				s.Total, s.Passed, s.Failed, s.Skipped, s.NotFound, s.SuccessRate())
			fmt.Fprintf(out, "%s\nReport: %s\n", report.Grade(s), outPath)

			if res.Failed() {
				return ErrValidationFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "variable script file")
	cmd.Flags().StringVarP(&logPath, "log", "l", "", "machine log file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "report file")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "cap the detailed results (0 lists all)")
	cmd.Flags().BoolVar(&verbose, "verbose-report", false, "include the check trace of every command")
	cmd.Flags().BoolVar(&printOut, "print", false, "also print the report on stdout")
	_ = cmd.MarkFlagRequired("script")
	_ = cmd.MarkFlagRequired("log")

	return cmd
}
