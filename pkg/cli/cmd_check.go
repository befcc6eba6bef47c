package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gregLibert/simcheck/pkg/compare"
	"github.com/gregLibert/simcheck/pkg/crosscheck"
	"github.com/gregLibert/simcheck/pkg/profile"
	"github.com/gregLibert/simcheck/pkg/report"
)

// checkFlags are the flags shared by the cross-file commands.
type checkFlags struct {
	files    crosscheck.Files
	outPath  string
	printOut bool
}

func (f *checkFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.files.MachineLog, "ml", "m", "", "machine log file")
	cmd.Flags().StringVarP(&f.outPath, "out", "o", "", "report file")
	cmd.Flags().BoolVar(&f.printOut, "print", false, "also print the report on stdout")
	_ = cmd.MarkFlagRequired("ml")
}

func newFirstCardCmd(a *app) *cobra.Command {
	var (
		f    checkFlags
		name string
	)

	cmd := &cobra.Command{
		Use:   "firstcard",
		Short: "Cross-check a first card against its PCOM, CNUM, SCM and SIM-ODA files",
		Long: `Decode the personalized values from a first card machine log (SELECT then UPDATE
layout) and compare them with every supplied batch file, following the rule matrix of the
product profile (MOB, WBIOT or NBIOT).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" && a.cfg.Profile == "" {
				name = "MOB"
			}
			p, err := a.cfg.ResolveProfile(name)
			if err != nil {
				return err
			}
			if p.Strategy != profile.Lookahead {
				return fmt.Errorf("profile %s is not a first card profile, use the airtel command", p.Name)
			}
			return a.crossCheck(cmd, p, f)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&name, "profile", "p", "", "product profile: MOB, WBIOT or NBIOT (default from config, else MOB)")
	cmd.Flags().StringVar(&f.files.PCOM, "pcom", "", "PCOM file")
	cmd.Flags().StringVar(&f.files.CNUM, "cnum", "", "CNUM file")
	cmd.Flags().StringVar(&f.files.SCM, "scm", "", "SCM file")
	cmd.Flags().StringVar(&f.files.SIMODA, "simoda", "", "SIM-ODA file")
	return cmd
}

func newAirtelCmd(a *app) *cobra.Command {
	var f checkFlags

	cmd := &cobra.Command{
		Use:   "airtel",
		Short: "Cross-check an Airtel machine log against its PCOM, CNUM and cps files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.cfg.ResolveProfile("AIRTEL")
			if err != nil {
				return err
			}
			return a.crossCheck(cmd, p, f)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&f.files.PCOM, "pcom", "", "PCOM file")
	cmd.Flags().StringVar(&f.files.CNUM, "cnum", "", "CNUM file")
	cmd.Flags().StringVar(&f.files.CPS, "cps", "", "cps file")
	return cmd
}

func (a *app) crossCheck(cmd *cobra.Command, p profile.Profile, f checkFlags) error {
	log := a.log.With().Str("profile", p.Name).Logger()

	contents, err := crosscheck.Load(f.files, p, log)
	if err != nil {
		return err
	}
	out, err := crosscheck.Check(p, contents, crosscheck.Options{Logger: log, Threshold: a.cfg.SimilarityThreshold})
	if err != nil {
		return err
	}

	text := report.CrossCheck(out)
	path := f.outPath
	if path == "" {
		path = report.Path(a.cfg.ReportDir, f.files.MachineLog)
	}
	if err := a.writeReport(path, text); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if f.printOut {
		fmt.Fprint(w, text)
	}
	errs := compare.Errors(out.Rows)
	fmt.Fprintf(w, "%s: %s (%d fields, %d mismatches)\n", p.Name, report.Overall(out), len(out.Rows), len(errs))
	for _, e := range errs {
		fmt.Fprintf(w, "  - %s\n", e)
	}
	fmt.Fprintf(w, "Report: %s\n", path)

	if out.Failed() {
		return ErrValidationFailed
	}
	return nil
}
