package iso7816

import (
	"fmt"

	"github.com/gregLibert/simcheck/pkg/bits"
)

// Instruction Byte (INS) according to ISO/IEC 7816-4 and GSM 11.11.
//
// Bit 1 of an interindustry INS selects BER-TLV data (READ BINARY 0xB0 vs 0xB1).
// INS values whose upper nibble is '6' or '9' are invalid: they collide with SW1 values.

// InsCode is a typed representation of the instruction byte.
type InsCode byte

// Instruction codes met in SIM personalization scripts.
const (
	INS_DEACTIVATE_FILE       InsCode = 0x04
	INS_ERASE_BINARY          InsCode = 0x0E
	INS_TERMINAL_PROFILE      InsCode = 0x10
	INS_FETCH                 InsCode = 0x12
	INS_TERMINAL_RESPONSE     InsCode = 0x14
	INS_VERIFY                InsCode = 0x20
	INS_CHANGE_REFERENCE_DATA InsCode = 0x24
	INS_DISABLE_VERIF_REQ     InsCode = 0x26
	INS_ENABLE_VERIF_REQ      InsCode = 0x28
	INS_RESET_RETRY_COUNTER   InsCode = 0x2C
	INS_ACTIVATE_FILE         InsCode = 0x44
	INS_MANAGE_CHANNEL        InsCode = 0x70
	INS_EXTERNAL_AUTHENTICATE InsCode = 0x82
	INS_GET_CHALLENGE         InsCode = 0x84
	INS_INTERNAL_AUTHENTICATE InsCode = 0x88
	INS_SEARCH_RECORD         InsCode = 0xA2
	INS_SELECT                InsCode = 0xA4
	INS_READ_BINARY           InsCode = 0xB0
	INS_READ_BINARY_BER       InsCode = 0xB1
	INS_READ_RECORD           InsCode = 0xB2
	INS_READ_RECORD_BER       InsCode = 0xB3
	INS_GET_RESPONSE          InsCode = 0xC0
	INS_ENVELOPE              InsCode = 0xC2
	INS_GET_DATA              InsCode = 0xCA
	INS_UPDATE_BINARY         InsCode = 0xD6
	INS_UPDATE_BINARY_BER     InsCode = 0xD7
	INS_PUT_DATA              InsCode = 0xDA
	INS_UPDATE_RECORD         InsCode = 0xDC
	INS_UPDATE_RECORD_BER     InsCode = 0xDD
	INS_CREATE_FILE           InsCode = 0xE0
	INS_APPEND_RECORD         InsCode = 0xE2
	INS_DELETE_FILE           InsCode = 0xE4
	INS_TERMINATE_CARD_USAGE  InsCode = 0xFE
)

var insNames = map[InsCode]string{
	INS_DEACTIVATE_FILE:       "DEACTIVATE FILE",
	INS_ERASE_BINARY:          "ERASE BINARY",
	INS_TERMINAL_PROFILE:      "TERMINAL PROFILE",
	INS_FETCH:                 "FETCH",
	INS_TERMINAL_RESPONSE:     "TERMINAL RESPONSE",
	INS_VERIFY:                "VERIFY",
	INS_CHANGE_REFERENCE_DATA: "CHANGE REFERENCE DATA",
	INS_DISABLE_VERIF_REQ:     "DISABLE VERIFICATION REQUIREMENT",
	INS_ENABLE_VERIF_REQ:      "ENABLE VERIFICATION REQUIREMENT",
	INS_RESET_RETRY_COUNTER:   "RESET RETRY COUNTER",
	INS_ACTIVATE_FILE:         "ACTIVATE FILE",
	INS_MANAGE_CHANNEL:        "MANAGE CHANNEL",
	INS_EXTERNAL_AUTHENTICATE: "EXTERNAL AUTHENTICATE",
	INS_GET_CHALLENGE:         "GET CHALLENGE",
	INS_INTERNAL_AUTHENTICATE: "INTERNAL AUTHENTICATE",
	INS_SEARCH_RECORD:         "SEARCH RECORD",
	INS_SELECT:                "SELECT",
	INS_READ_BINARY:           "READ BINARY",
	INS_READ_BINARY_BER:       "READ BINARY (BER-TLV)",
	INS_READ_RECORD:           "READ RECORD",
	INS_READ_RECORD_BER:       "READ RECORD (BER-TLV)",
	INS_GET_RESPONSE:          "GET RESPONSE",
	INS_ENVELOPE:              "ENVELOPE",
	INS_GET_DATA:              "GET DATA",
	INS_UPDATE_BINARY:         "UPDATE BINARY",
	INS_UPDATE_BINARY_BER:     "UPDATE BINARY (BER-TLV)",
	INS_PUT_DATA:              "PUT DATA",
	INS_UPDATE_RECORD:         "UPDATE RECORD",
	INS_UPDATE_RECORD_BER:     "UPDATE RECORD (BER-TLV)",
	INS_CREATE_FILE:           "CREATE FILE",
	INS_APPEND_RECORD:         "APPEND RECORD",
	INS_DELETE_FILE:           "DELETE FILE",
	INS_TERMINATE_CARD_USAGE:  "TERMINATE CARD USAGE",
}

// String returns the command name, or the hex code for an unlisted instruction.
func (i InsCode) String() string {
	if name, ok := insNames[i]; ok {
		return name
	}
	return fmt.Sprintf("INS(%02X)", byte(i))
}

// Validate rejects '6X' and '9X' values, which are reserved for status bytes.
func (i InsCode) Validate() error {
	high := bits.HighNibble(byte(i))
	if high == 0x6 || high == 0x9 {
		return fmt.Errorf("invalid INS 0x%02X: 6X and 9X are reserved", byte(i))
	}
	return nil
}

// IsBERTLV reports whether bit 1 asks for BER-TLV encoded data.
func (i InsCode) IsBERTLV() bool {
	return bits.IsSet(byte(i), 1)
}

// IsRead reports the READ BINARY / READ RECORD family, whose P1-P2 and Le vary between a
// script and the trace of its execution.
func (i InsCode) IsRead() bool {
	switch i {
	case INS_READ_BINARY, INS_READ_BINARY_BER, INS_READ_RECORD:
		return true
	}
	return false
}

// IsUpdate reports the UPDATE BINARY family, whose data must be traced in full.
func (i InsCode) IsUpdate() bool {
	return i == INS_UPDATE_BINARY || i == INS_UPDATE_BINARY_BER
}
