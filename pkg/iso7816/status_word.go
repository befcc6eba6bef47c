package iso7816

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gregLibert/simcheck/pkg/bits"
)

// StatusWord represents the two-byte status response (SW1-SW2) returned by the card.
type StatusWord uint16

// NewStatusWord creates a StatusWord instance from two separate bytes.
func NewStatusWord(sw1, sw2 byte) StatusWord {
	return StatusWord(uint16(sw1)<<8 | uint16(sw2))
}

// ParseStatusWord reads a status word written as hex text, as traced by the personalization
// machine ("9000", "6a82", "SW9000").
func ParseStatusWord(s string) (StatusWord, error) {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "SW")
	if len(s) < 3 || len(s) > 4 {
		return 0, fmt.Errorf("status word %q: want 3 or 4 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("status word %q: %w", s, err)
	}
	return StatusWord(v), nil
}

// SW1 returns the first byte (high byte) of the status word.
func (sw StatusWord) SW1() byte {
	return byte(sw >> 8)
}

// SW2 returns the second byte (low byte) of the status word.
func (sw StatusWord) SW2() byte {
	return byte(sw)
}

// String returns the four hex digits of the status word.
func (sw StatusWord) String() string {
	return fmt.Sprintf("%04X", uint16(sw))
}

// HasMoreData reports a 61XX or GSM 9FXX status: XX bytes wait for a GET RESPONSE.
func (sw StatusWord) HasMoreData() bool {
	return sw.SW1() == 0x61 || sw.SW1() == 0x9F
}

// IsWrongLength reports a 6CXX status: the command must be re-sent with Le = XX.
func (sw StatusWord) IsWrongLength() bool {
	return sw.SW1() == 0x6C
}

// IsCounter reports a 63CX status, where X is the number of remaining verification tries.
func (sw StatusWord) IsCounter() bool {
	if sw.SW1() != 0x63 {
		return false
	}
	return bits.GetRange(sw.SW2(), 8, 5) == 0x0C
}

// IsSuccess returns true for 9000, for data waiting (61XX, 9FXX) and for a pending
// proactive command (91XX).
func (sw StatusWord) IsSuccess() bool {
	return sw == SW_NO_ERROR || sw.HasMoreData() || sw.SW1() == 0x91
}

// IsWarning returns true if the status indicates a warning (62XX or 63XX).
func (sw StatusWord) IsWarning() bool {
	sw1 := sw.SW1()
	return sw1 == 0x62 || sw1 == 0x63
}

// IsError returns true if the status indicates an execution or checking error (64XX to 6FXX).
func (sw StatusWord) IsError() bool {
	sw1 := sw.SW1()
	return sw1 >= 0x64 && sw1 <= 0x6F
}

// Verbose returns the status word followed by a human-readable description.
func (sw StatusWord) Verbose() string {
	sw2 := sw.SW2()
	switch {
	case sw.HasMoreData():
		return fmt.Sprintf("[%s] Process completed, %d bytes available", sw, sw2)
	case sw.IsWrongLength():
		return fmt.Sprintf("[%s] Wrong length, correct Le is %d", sw, sw2)
	case sw.IsCounter():
		return fmt.Sprintf("[%s] Verification failed, %d tries left", sw, bits.GetRange(sw2, 4, 1))
	case sw.SW1() == 0x91:
		return fmt.Sprintf("[%s] Proactive command pending, %d bytes", sw, sw2)
	}
	if desc, ok := statusDescriptions[sw]; ok {
		return fmt.Sprintf("[%s] %s", sw, desc)
	}
	return fmt.Sprintf("[%s] %s", sw, sw.category())
}

func (sw StatusWord) category() string {
	switch sw.SW1() {
	case 0x62:
		return "Warning: NV memory unchanged"
	case 0x63:
		return "Warning: NV memory changed"
	case 0x64:
		return "Execution Error: NV memory unchanged"
	case 0x65:
		return "Execution Error: NV memory changed"
	case 0x66:
		return "Execution Error: Security issue"
	case 0x68:
		return "Checking Error: Function not supported"
	case 0x69:
		return "Checking Error: Command not allowed"
	case 0x6A:
		return "Checking Error: Wrong parameters"
	default:
		return "Unknown Status"
	}
}

// Status Word codes met in personalization traces.
const (
	SW_NO_ERROR StatusWord = 0x9000

	SW_WARN_EOF_REACHED StatusWord = 0x6282

	SW_ERR_MEMORY_FAILURE          StatusWord = 0x6581
	SW_ERR_WRONG_LENGTH            StatusWord = 0x6700
	SW_ERR_CMD_INCOMPATIBLE_FILE   StatusWord = 0x6981
	SW_ERR_SECURITY_STATUS_NOT_SAT StatusWord = 0x6982
	SW_ERR_AUTH_METHOD_BLOCKED     StatusWord = 0x6983
	SW_ERR_COND_OF_USE_NOT_SAT     StatusWord = 0x6985
	SW_ERR_CMD_NOT_ALLOWED_NO_EF   StatusWord = 0x6986
	SW_ERR_INCORRECT_PARAMS_DATA   StatusWord = 0x6A80
	SW_ERR_FUNC_NOT_SUPPORTED      StatusWord = 0x6A81
	SW_ERR_FILE_NOT_FOUND          StatusWord = 0x6A82
	SW_ERR_RECORD_NOT_FOUND        StatusWord = 0x6A83
	SW_ERR_NOT_ENOUGH_MEMORY       StatusWord = 0x6A84
	SW_ERR_INCORRECT_PARAMS_P1P2   StatusWord = 0x6A86
	SW_ERR_REF_DATA_NOT_FOUND      StatusWord = 0x6A88
	SW_ERR_FILE_ALREADY_EXISTS     StatusWord = 0x6A89
	SW_ERR_WRONG_P1P2              StatusWord = 0x6B00
	SW_ERR_INS_INVALID             StatusWord = 0x6D00
	SW_ERR_CLA_NOT_SUPPORTED       StatusWord = 0x6E00
	SW_ERR_UNKNOWN                 StatusWord = 0x6F00

	// GSM 11.11 codes returned to class A0 commands.
	SW_GSM_NO_EF_SELECTED  StatusWord = 0x9400
	SW_GSM_FILE_NOT_FOUND  StatusWord = 0x9404
	SW_GSM_ACCESS_DENIED   StatusWord = 0x9804
	SW_GSM_INVALIDATED_EF  StatusWord = 0x9810
	SW_GSM_CHV_BLOCKED     StatusWord = 0x9840
	SW_GSM_MAX_VALUE_REACH StatusWord = 0x9850
)

var statusDescriptions = map[StatusWord]string{
	SW_NO_ERROR:                    "Success",
	SW_WARN_EOF_REACHED:            "Warning: End of file reached",
	SW_ERR_MEMORY_FAILURE:          "Execution Error: Memory failure",
	SW_ERR_WRONG_LENGTH:            "Checking Error: Wrong length",
	SW_ERR_CMD_INCOMPATIBLE_FILE:   "Checking Error: Command incompatible with file structure",
	SW_ERR_SECURITY_STATUS_NOT_SAT: "Checking Error: Security status not satisfied",
	SW_ERR_AUTH_METHOD_BLOCKED:     "Checking Error: Authentication method blocked",
	SW_ERR_COND_OF_USE_NOT_SAT:     "Checking Error: Conditions of use not satisfied",
	SW_ERR_CMD_NOT_ALLOWED_NO_EF:   "Checking Error: No current EF",
	SW_ERR_INCORRECT_PARAMS_DATA:   "Checking Error: Incorrect parameters in data field",
	SW_ERR_FUNC_NOT_SUPPORTED:      "Checking Error: Function not supported",
	SW_ERR_FILE_NOT_FOUND:          "Checking Error: File not found",
	SW_ERR_RECORD_NOT_FOUND:        "Checking Error: Record not found",
	SW_ERR_NOT_ENOUGH_MEMORY:       "Checking Error: Not enough memory in file",
	SW_ERR_INCORRECT_PARAMS_P1P2:   "Checking Error: Incorrect P1-P2",
	SW_ERR_REF_DATA_NOT_FOUND:      "Checking Error: Referenced data not found",
	SW_ERR_FILE_ALREADY_EXISTS:     "Checking Error: File already exists",
	SW_ERR_WRONG_P1P2:              "Checking Error: Wrong parameters P1-P2",
	SW_ERR_INS_INVALID:             "Checking Error: Instruction not supported",
	SW_ERR_CLA_NOT_SUPPORTED:       "Checking Error: Class not supported",
	SW_ERR_UNKNOWN:                 "Checking Error: No precise diagnosis",
	SW_GSM_NO_EF_SELECTED:          "GSM: No EF selected",
	SW_GSM_FILE_NOT_FOUND:          "GSM: File ID not found",
	SW_GSM_ACCESS_DENIED:           "GSM: Access condition not fulfilled",
	SW_GSM_INVALIDATED_EF:          "GSM: Contradiction with invalidation status",
	SW_GSM_CHV_BLOCKED:             "GSM: CHV blocked",
	SW_GSM_MAX_VALUE_REACH:         "GSM: Increase cannot be performed, max value reached",
}
