package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gregLibert/simcheck/pkg/profile"
)

func newProfilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the product profiles and the files they compare",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, name := range profile.Names() {
				p, err := a.cfg.ResolveProfile(name)
				if err != nil {
					return err
				}
				targets := make([]string, len(p.Targets))
				for i, t := range p.Targets {
					targets[i] = t.String()
				}
				fmt.Fprintf(w, "%-7s %-9s %2d fields  %s\n", p.Name, p.Strategy, len(p.Specs), strings.Join(targets, ", "))
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print simcheck version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "simcheck %s\n", Version)
		},
	}
}
