package iso7816

import (
	"errors"
	"fmt"
)

// The Client follows the transport level status words itself:
//
//  1. "61 XX" / "9F XX" (Response Available): a GET RESPONSE of XX bytes is sent in the class
//     of the original command.
//  2. "6C XX" (Wrong Length): the original command is re-sent with Le = XX.
//
// Send returns every atomic transaction as a Trace.

// maxFollowUps bounds the GET RESPONSE / re-send chain of one command.
const maxFollowUps = 8

// ErrTooManyFollowUps is returned when a card keeps answering 61XX or 6CXX.
var ErrTooManyFollowUps = errors.New("too many follow-up commands")

// Transmitter abstracts the physical card connection.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client manages the high-level communication with the card.
type Client struct {
	Card Transmitter
}

// NewClient creates a new Client instance.
func NewClient(card Transmitter) *Client {
	return &Client{Card: card}
}

// Send transmits a command and handles protocol logic (61XX, 9FXX, 6CXX).
func (c *Client) Send(cmd Command) (Trace, error) {
	return c.send(cmd, 0)
}

func (c *Client) send(cmd Command, depth int) (Trace, error) {
	if depth > maxFollowUps {
		return nil, fmt.Errorf("%s: %w", cmd, ErrTooManyFollowUps)
	}

	rawResp, err := c.Card.Transmit(cmd.Raw)
	if err != nil {
		return nil, fmt.Errorf("transmission error: %w", err)
	}

	resp, err := ParseResponseAPDU(rawResp)
	if err != nil {
		return nil, err
	}

	trace := Trace{{Command: cmd, Response: resp}}

	var next Command
	switch {
	case resp.Status.HasMoreData():
		next = GetResponse(cmd.CLA, resp.Status.SW2())
	case resp.Status.IsWrongLength():
		next = cmd.WithLe(resp.Status.SW2())
	default:
		return trace, nil
	}

	sub, err := c.send(next, depth+1)
	if err != nil {
		return trace, err
	}
	return append(trace, sub...), nil
}
