// Package capture replays a variable script against a real card and writes what the card
// answered as a machine log, in the `[APDU] SW=.... EXP=.... RESULT=....` layout the machine
// log parser reads back.
package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gregLibert/simcheck/pkg/iso7816"
	"github.com/gregLibert/simcheck/pkg/script"
	"github.com/gregLibert/simcheck/pkg/tlv"
)

// ErrNoReader is returned when no PC/SC reader is connected or the requested one is absent.
var ErrNoReader = errors.New("no smart card reader found")

// Options configures a capture.
type Options struct {
	Logger zerolog.Logger
	// StopOnError ends the capture at the first transmission error instead of moving on.
	StopOnError bool
}

// Summary counts what happened to the script commands.
type Summary struct {
	Sent int
	// Skipped commands were not sent: skip lines and commands with placeholders.
	Skipped int
	// Unexpected commands got a status word other than the script's.
	Unexpected int
	Failed     int
}

// Run sends every replayable command through client and writes one log line per answered
// command to w. Transmission errors are counted and logged; the capture goes on unless
// opts.StopOnError is set.
func Run(ctx context.Context, client *iso7816.Client, commands []script.Command, w io.Writer, opts Options) (Summary, error) {
	log := opts.Logger
	bw := bufio.NewWriter(w)
	var sum Summary

	for _, sc := range commands {
		if err := ctx.Err(); err != nil {
			return sum, errors.Join(err, bw.Flush())
		}

		if sc.Kind == script.Skip || sc.HasPlaceholders() {
			sum.Skipped++
			log.Debug().Int("line", sc.Line).Str("apdu", sc.APDU).Msg("command not replayable, skipped")
			continue
		}

		cmd, err := iso7816.ParseCommand(sc.APDU)
		if err != nil {
			sum.Failed++
			log.Warn().Err(err).Int("line", sc.Line).Msg("invalid script APDU")
			continue
		}

		trace, err := client.Send(cmd)
		if err != nil {
			// A broken GET RESPONSE chain leaves only interim statuses: no line is written.
			sum.Failed++
			ev := log.Warn().Err(err).Int("line", sc.Line).Str("apdu", sc.APDU).Int("exchanges", len(trace))
			if len(trace) > 0 {
				ev = ev.Str("last_status", trace.Last().Response.Status.String())
			}
			ev.Msg("transmission failed")
			if opts.StopOnError {
				return sum, errors.Join(fmt.Errorf("line %d: %w", sc.Line, err), bw.Flush())
			}
			continue
		}
		sum.Sent++

		if cmd.INS == iso7816.INS_SELECT {
			describeSelect(log, trace)
		}

		status := trace.Status()
		if sc.ExpectedStatus != "" && !strings.EqualFold(status.String(), sc.ExpectedStatus) {
			sum.Unexpected++
			log.Info().
				Int("line", sc.Line).
				Str("apdu", sc.APDU).
				Str("expected", sc.ExpectedStatus).
				Str("status", status.Verbose()).
				Msg("unexpected status word")
		}

		if _, err := bw.WriteString(Line(sc, trace) + "\n"); err != nil {
			return sum, fmt.Errorf("write capture: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return sum, fmt.Errorf("write capture: %w", err)
	}
	log.Info().
		Int("sent", sum.Sent).
		Int("skipped", sum.Skipped).
		Int("unexpected", sum.Unexpected).
		Int("failed", sum.Failed).
		Msg("capture complete")
	return sum, nil
}

// Line formats one answered command. SW is the status of the original command and RESULT the
// data of the last response, so a GET RESPONSE chain reads like a single exchange.
func Line(sc script.Command, trace iso7816.Trace) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] SW=%s", strings.ToUpper(sc.APDU), trace.Status())
	if sc.ExpectedStatus != "" {
		fmt.Fprintf(&sb, " EXP=%s", strings.ToUpper(sc.ExpectedStatus))
	}
	if data := trace.Data(); len(data) > 0 {
		fmt.Fprintf(&sb, " RESULT=%X", data)
	}
	return sb.String()
}

func describeSelect(log zerolog.Logger, trace iso7816.Trace) {
	fcp, err := tlv.ParseFCP(trace.Data())
	if err != nil {
		if !errors.Is(err, tlv.ErrNotFCP) {
			log.Debug().Err(err).Msg("select response not decoded")
		}
		return
	}
	log.Debug().Stringer("fcp", fcp).Msg("file selected")
}

// ChooseReader picks want among the connected readers, or the first reader when want is
// empty. A partial, case-insensitive name is enough.
func ChooseReader(readers []string, want string) (string, error) {
	if len(readers) == 0 {
		return "", ErrNoReader
	}
	if want == "" {
		return readers[0], nil
	}
	for _, r := range readers {
		if strings.Contains(strings.ToLower(r), strings.ToLower(want)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q not in %s", ErrNoReader, want, strings.Join(readers, ", "))
}
