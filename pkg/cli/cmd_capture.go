package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gregLibert/simcheck/pkg/capture"
	"github.com/gregLibert/simcheck/pkg/iso7816"
	"github.com/gregLibert/simcheck/pkg/script"
)

func newCaptureCmd(a *app) *cobra.Command {
	var (
		scriptPath  string
		outPath     string
		reader      string
		stopOnError bool
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Replay a script against a card and write the machine log",
		Long: `Send every script command without placeholders to the card in a PC/SC reader and
write one machine log line per command, so a reference card can be checked with the script
command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.env.OpenCard == nil {
				return errors.New("card access is not available in this build")
			}
			scriptText, err := readFile("script", scriptPath)
			if err != nil {
				return err
			}
			sf := script.Parse(scriptText, a.log)

			card, release, err := a.env.OpenCard(reader, a.log)
			if err != nil {
				return err
			}
			defer release()

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create capture: %w", err)
			}
			sum, runErr := capture.Run(cmd.Context(), iso7816.NewClient(card), sf.Commands, f,
				capture.Options{Logger: a.log, StopOnError: stopOnError})
			if err := f.Close(); err != nil && runErr == nil {
				runErr = fmt.Errorf("write capture: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d sent, %d skipped, %d unexpected status, %d failed\nCapture: %s\n",
				sum.Sent, sum.Skipped, sum.Unexpected, sum.Failed, outPath)
			return runErr
		},
	}

	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "variable script file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "machine log file to write")
	cmd.Flags().StringVarP(&reader, "reader", "r", "", "PC/SC reader name or part of it (default: first reader)")
	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "stop at the first transmission error")
	_ = cmd.MarkFlagRequired("script")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
