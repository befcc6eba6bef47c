package cli

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gregLibert/simcheck/pkg/iso7816"
)

type okCard struct{ sent []string }

func (c *okCard) Transmit(cmd []byte) ([]byte, error) {
	c.sent = append(c.sent, strings.ToUpper(hex.EncodeToString(cmd)))
	return []byte{0x90, 0x00}, nil
}

func run(t *testing.T, env Env, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	env.Stdout, env.Stderr = &stdout, &stderr

	root := NewRootCmd(env)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--env-file", ""))
	err := root.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestScriptCommand(t *testing.T) {
	tests := []struct {
		name     string
		log      string
		wantErr  error
		wantLine string
	}{
		{
			name:     "Passing run",
			log:      "[00A4000C023F00] SW=9000\n",
			wantLine: "1 commands: 1 passed, 0 failed, 0 skipped, 0 not found (100.0%)",
		},
		{
			name:     "Failing run",
			log:      "[00A4000C023F00] SW=6A82\n",
			wantErr:  ErrValidationFailed,
			wantLine: "1 commands: 0 passed, 1 failed, 0 skipped, 0 not found (0.0%)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			scriptPath := writeFile(t, dir, "script.txt", "00A4000C023F00SW9000\n")
			logPath := writeFile(t, dir, "Log_1234.txt", tt.log)

			out, err := run(t, Env{}, "script", "-s", scriptPath, "-l", logPath)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("script err = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(out, tt.wantLine) {
				t.Errorf("stdout = %q, want line %q", out, tt.wantLine)
			}

			data, err := os.ReadFile(filepath.Join(dir, "2143_Validation_Report.txt"))
			require.NoError(t, err, "report must be written next to the machine log")
			require.Contains(t, string(data), "COMPLETE MACHINE LOG VALIDATION REPORT")
		})
	}
}

func TestScriptCommand_ReportDirFlag(t *testing.T) {
	dir := t.TempDir()
	reports := filepath.Join(dir, "reports")
	scriptPath := writeFile(t, dir, "script.txt", "00A4000C023F00SW9000\n")
	logPath := writeFile(t, dir, "Log_1234.txt", "[00A4000C023F00] SW=9000\n")

	_, err := run(t, Env{}, "script", "-s", scriptPath, "-l", logPath, "--report-dir", reports)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(reports, "2143_Validation_Report.txt"))
	require.NoError(t, err)
}

func TestScriptCommand_MissingFlag(t *testing.T) {
	_, err := run(t, Env{}, "script", "-s", "script.txt")
	if err == nil {
		t.Fatal("script without --log should fail")
	}
	if got := ExitCode(err); got != ExitError {
		t.Errorf("ExitCode = %d, want %d", got, ExitError)
	}
}

func TestAirtelCommand_MachineLogOnly(t *testing.T) {
	dir := t.TempDir()
	logPath := writeFile(t, dir, "Log_1234.txt", "00D6000009080910101032540600\n")

	out, err := run(t, Env{}, "airtel", "--ml", logPath)
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("airtel err = %v, want ErrValidationFailed for missing fields", err)
	}
	require.Contains(t, out, "AIRTEL: FAIL")
	require.FileExists(t, filepath.Join(dir, "2143_Validation_Report.txt"))
}

func TestFirstCardCommand_RejectsDirectProfile(t *testing.T) {
	dir := t.TempDir()
	logPath := writeFile(t, dir, "Log_1234.txt", "")

	_, err := run(t, Env{}, "firstcard", "--ml", logPath, "--profile", "AIRTEL")
	if err == nil || !strings.Contains(err.Error(), "not a first card profile") {
		t.Errorf("firstcard err = %v, want a profile error", err)
	}
}

func TestCaptureCommand(t *testing.T) {
	dir := t.TempDir()
	scriptPath := writeFile(t, dir, "script.txt", "00A4000C023F00SW9000\n00D6000002%PIN%SW9000\n")
	outPath := filepath.Join(dir, "capture.txt")

	card := &okCard{}
	released := false
	env := Env{OpenCard: func(reader string, log zerolog.Logger) (iso7816.Transmitter, func(), error) {
		if reader != "omnikey" {
			return nil, nil, fmt.Errorf("unexpected reader %q", reader)
		}
		return card, func() { released = true }, nil
	}}

	out, err := run(t, env, "capture", "-s", scriptPath, "-o", outPath, "-r", "omnikey")
	require.NoError(t, err)
	require.True(t, released, "card must be released")
	require.Contains(t, out, "1 sent, 1 skipped, 0 unexpected status, 0 failed")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, "[00A4000C023F00] SW=9000 EXP=9000\n", string(data))
}

func TestCaptureCommand_NoCardAccess(t *testing.T) {
	dir := t.TempDir()
	scriptPath := writeFile(t, dir, "script.txt", "00A4000C023F00SW9000\n")

	_, err := run(t, Env{}, "capture", "-s", scriptPath, "-o", filepath.Join(dir, "out.txt"))
	if err == nil {
		t.Error("capture without a card opener should fail")
	}
}

func TestInfoCommands(t *testing.T) {
	out, err := run(t, Env{}, "version")
	require.NoError(t, err)
	require.Equal(t, "simcheck dev\n", out)

	out, err = run(t, Env{}, "profiles")
	require.NoError(t, err)
	for _, name := range []string{"AIRTEL", "MOB", "NBIOT", "WBIOT"} {
		require.Contains(t, out, name)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Success", nil, ExitOK},
		{"Validation failures", fmt.Errorf("run: %w", ErrValidationFailed), ExitFailed},
		{"Other error", errors.New("boom"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
