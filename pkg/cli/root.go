// Package cli provides the cobra command tree of simcheck.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gregLibert/simcheck/pkg/config"
	"github.com/gregLibert/simcheck/pkg/iso7816"
)

// Version is set at build time with -ldflags "-X github.com/gregLibert/simcheck/pkg/cli.Version=...".
var Version = "dev"

// ErrValidationFailed is returned when a run completed but found failures.
var ErrValidationFailed = errors.New("validation failed")

// Exit codes.
const (
	ExitOK     = 0
	ExitError  = 1
	ExitFailed = 2
)

// ExitCode maps the result of Execute to a process exit code: 2 for a completed run with
// failures, 1 for any other error.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrValidationFailed):
		return ExitFailed
	default:
		return ExitError
	}
}

// CardOpener connects to the named PC/SC reader (the first one when reader is empty). The
// returned release function disconnects the card.
type CardOpener func(reader string, log zerolog.Logger) (iso7816.Transmitter, func(), error)

// Env is what the command tree needs from the process.
type Env struct {
	Stdout   io.Writer
	Stderr   io.Writer
	OpenCard CardOpener
}

// app is the state shared by the commands of one invocation.
type app struct {
	env Env

	configPath string
	envFile    string
	logLevel   string
	reportDir  string

	cfg config.Config
	log zerolog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd(env Env) *cobra.Command {
	a := &app{env: env}

	root := &cobra.Command{
		Use:   "simcheck",
		Short: "Validate SIM personalization outputs",
		Long: `simcheck validates the data written during SIM card personalization.

It checks that a machine log really executed a variable script, and cross-checks the
values personalized on the card against the PCOM, CNUM, SCM, SIM-ODA and cps batch files.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultFile+" when present)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded before reading SIMCHECK_* variables")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.reportDir, "report-dir", "", "directory receiving the reports (default: next to the machine log)")

	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newScriptCmd(a),
		newFirstCardCmd(a),
		newAirtelCmd(a),
		newCaptureCmd(a),
		newProfilesCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree with os.Args.
func Execute(ctx context.Context, env Env) error {
	root := NewRootCmd(env)
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)
	return root.ExecuteContext(ctx)
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.reportDir != "" {
		cfg.ReportDir = a.reportDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	stderr := a.env.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	a.log = zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: "15:04:05"}).
		Level(cfg.Level()).
		With().Timestamp().Logger()
	return nil
}

// writeReport stores a report and returns its path.
func (a *app) writeReport(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	a.log.Info().Str("path", path).Msg("report saved")
	return nil
}

func readFile(kind, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", kind, err)
	}
	return string(data), nil
}
