package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/ebfe/scard"
	"github.com/rs/zerolog"

	"github.com/gregLibert/simcheck/pkg/capture"
	"github.com/gregLibert/simcheck/pkg/cli"
	"github.com/gregLibert/simcheck/pkg/iso7816"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := cli.Execute(ctx, cli.Env{
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		OpenCard: connectToCard,
	})
	stop()

	if err != nil && !errors.Is(err, cli.ErrValidationFailed) {
		fmt.Fprintf(os.Stderr, "simcheck: %v\n", err)
	}
	os.Exit(cli.ExitCode(err))
}

// connectToCard handles the PC/SC context establishment and reader connection.
func connectToCard(reader string, log zerolog.Logger) (iso7816.Transmitter, func(), error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, nil, fmt.Errorf("establish PC/SC context: %w", err)
	}
	release := func() {
		if err := ctx.Release(); err != nil {
			log.Warn().Err(err).Msg("failed to release PC/SC context")
		}
	}

	readers, err := ctx.ListReaders()
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("%w: %w", capture.ErrNoReader, err)
	}
	name, err := capture.ChooseReader(readers, reader)
	if err != nil {
		release()
		return nil, nil, err
	}
	log.Info().Str("reader", name).Msg("using reader")

	// Force T=0 or T=1 to avoid "Parameter Incorrect" errors (Error 57)
	card, err := ctx.Connect(name, scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("connect to card in %q: %w", name, err)
	}

	return card, func() {
		if err := card.Disconnect(scard.LeaveCard); err != nil {
			log.Warn().Err(err).Msg("failed to disconnect card")
		}
		release()
	}, nil
}
