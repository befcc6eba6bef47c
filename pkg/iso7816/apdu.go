package iso7816

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// COMMAND APDU (C-APDU) as written in personalization scripts:
//
//	CLA INS P1 P2 [Lc Data] [Le]
//
// Only short length encoding occurs: Lc and Le are one byte each.
//
//   - Case 1: Header only.
//   - Case 2: Header + Le.
//   - Case 3: Header + Lc + Data.
//   - Case 4: Header + Lc + Data + Le.
//
// RESPONSE APDU (R-APDU): optional data followed by the SW1-SW2 trailer.

// HeaderLen is the size of the command header in bytes.
const HeaderLen = 4

// Header is the mandatory part of a command.
type Header struct {
	CLA byte
	INS InsCode
	P1  byte
	P2  byte
}

// String returns the header as hex text.
func (h Header) String() string {
	return fmt.Sprintf("%02X%02X%02X%02X", h.CLA, byte(h.INS), h.P1, h.P2)
}

// Command is a raw command APDU.
type Command struct {
	Header
	Raw []byte
}

// ParseHeader reads the four header bytes at the start of an APDU written as hex text.
// Trailing characters are ignored, so a script APDU with placeholders is accepted.
func ParseHeader(apdu string) (Header, error) {
	s := strings.ReplaceAll(apdu, " ", "")
	if len(s) < 2*HeaderLen {
		return Header{}, fmt.Errorf("apdu %q: header needs %d bytes", apdu, HeaderLen)
	}
	raw, err := hex.DecodeString(s[:2*HeaderLen])
	if err != nil {
		return Header{}, fmt.Errorf("apdu %q: %w", apdu, err)
	}
	return Header{CLA: raw[0], INS: InsCode(raw[1]), P1: raw[2], P2: raw[3]}, nil
}

// ParseCommand decodes a complete APDU written as hex text.
func ParseCommand(apdu string) (Command, error) {
	raw, err := hex.DecodeString(strings.ReplaceAll(apdu, " ", ""))
	if err != nil {
		return Command{}, fmt.Errorf("apdu %q: %w", apdu, err)
	}
	if len(raw) < HeaderLen {
		return Command{}, fmt.Errorf("apdu %q: header needs %d bytes", apdu, HeaderLen)
	}
	if err := InsCode(raw[1]).Validate(); err != nil {
		return Command{}, err
	}
	return Command{
		Header: Header{CLA: raw[0], INS: InsCode(raw[1]), P1: raw[2], P2: raw[3]},
		Raw:    raw,
	}, nil
}

// Data returns the command data field (empty for case 1 and 2).
func (c Command) Data() []byte {
	if len(c.Raw) <= HeaderLen+1 {
		return nil
	}
	lc := int(c.Raw[HeaderLen])
	end := HeaderLen + 1 + lc
	if end > len(c.Raw) {
		end = len(c.Raw)
	}
	return c.Raw[HeaderLen+1 : end]
}

// hasLe reports whether the last byte of the command is Le (case 2 and 4).
func (c Command) hasLe() bool {
	n := len(c.Raw)
	switch {
	case n == HeaderLen+1:
		return true
	case n > HeaderLen+1:
		return n == HeaderLen+2+int(c.Raw[HeaderLen])
	}
	return false
}

// WithLe returns a copy of c expecting le response bytes.
func (c Command) WithLe(le byte) Command {
	raw := make([]byte, len(c.Raw), len(c.Raw)+1)
	copy(raw, c.Raw)
	if c.hasLe() {
		raw[len(raw)-1] = le
	} else {
		raw = append(raw, le)
	}
	c.Raw = raw
	return c
}

// String returns the command as hex text.
func (c Command) String() string {
	return strings.ToUpper(hex.EncodeToString(c.Raw))
}

// GetResponse builds the GET RESPONSE retrieving n bytes, in the class of the original command.
func GetResponse(cla, n byte) Command {
	raw := []byte{cla, byte(INS_GET_RESPONSE), 0x00, 0x00, n}
	return Command{
		Header: Header{CLA: cla, INS: INS_GET_RESPONSE},
		Raw:    raw,
	}
}

// ResponseAPDU represents the reply from the card (R-APDU).
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU parses raw bytes received from the card into a ResponseAPDU.
// The input must contain at least 2 bytes (SW1, SW2).
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("response too short: length %d", len(raw))
	}

	indexSW1 := len(raw) - 2
	return &ResponseAPDU{
		Data:   raw[:indexSW1],
		Status: NewStatusWord(raw[indexSW1], raw[indexSW1+1]),
	}, nil
}

// String returns a readable representation of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
