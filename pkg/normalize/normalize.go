// Package normalize converts between the textual encodings used by SIM personalization files:
// hex and ASCII, nibble-swapped BCD and filtered alphabets.
//
// All functions are pure. Conversions that cannot be completed return an empty string rather
// than a partial result, because callers treat empty as "no data".
package normalize

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/gregLibert/simcheck/pkg/bits"
)

const hexAlphabet = "0123456789ABCDEF"

// HexToASCII decodes each 2-digit hex byte to its ASCII character.
// Odd-length input, invalid hex or non-ASCII bytes yield "".
func HexToASCII(s string) string {
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	for _, b := range raw {
		if b > 0x7F {
			return ""
		}
	}
	return string(raw)
}

// ASCIIToHex encodes every character of s as two upper-case hex digits.
func ASCIIToHex(s string) string {
	return strings.ToUpper(hex.EncodeToString([]byte(s)))
}

// SwapPairs swaps every adjacent pair of characters. A trailing odd character is kept in place.
//
//	SwapPairs("8991") == "9819"
//	SwapPairs("123")  == "213"
func SwapPairs(s string) string {
	b := []byte(s)
	for i := 0; i+1 < len(b); i += 2 {
		b[i], b[i+1] = b[i+1], b[i]
	}
	return string(b)
}

// StripNonHex upper-cases s and keeps only [0-9A-F].
func StripNonHex(s string) string {
	return keep(strings.ToUpper(s), hexAlphabet)
}

// StripNonDigits keeps only [0-9].
func StripNonDigits(s string) string {
	return keep(s, "0123456789")
}

// Keep filters s down to the characters of alphabet.
func Keep(s, alphabet string) string {
	return keep(s, alphabet)
}

func keep(s, alphabet string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(alphabet, s[i]) >= 0 {
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// IsHex reports whether s is non-empty and made only of hex digits (either case).
func IsHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(hexAlphabet, upper(s[i])) < 0 {
			return false
		}
	}
	return true
}

// IsDigits reports whether s is non-empty and made only of decimal digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// BCDToDigits reads hexPairs as bytes and emits the high then low nibble of each byte,
// keeping only nibbles in 0-9. Filler and parity nibbles (A-F) are dropped silently.
// A trailing unpaired character is ignored.
func BCDToDigits(hexPairs string) string {
	var sb strings.Builder
	for i := 0; i+2 <= len(hexPairs); i += 2 {
		v, err := strconv.ParseUint(hexPairs[i:i+2], 16, 8)
		if err != nil {
			continue
		}
		for _, n := range []byte{bits.HighNibble(byte(v)), bits.LowNibble(byte(v))} {
			if bits.IsDecimal(n) {
				sb.WriteByte('0' + n)
			}
		}
	}
	return sb.String()
}

// NibblesToAlnum decodes hexPairs nibble by nibble into '0'-'9','A'-'F'.
// Unlike BCDToDigits nothing is dropped, so alphanumeric ICCIDs survive.
func NibblesToAlnum(hexPairs string) string {
	raw, err := hex.DecodeString(hexPairs)
	if err != nil {
		return ""
	}
	out := make([]byte, 0, len(raw)*2)
	for _, b := range raw {
		out = append(out, hexAlphabet[bits.HighNibble(b)], hexAlphabet[bits.LowNibble(b)])
	}
	return string(out)
}

// DecimalPairsToHex reads s as consecutive 2-digit decimal numbers and writes each one as a
// 2-digit hex byte. "4865" becomes "3041". A trailing single digit is dropped.
func DecimalPairsToHex(s string) string {
	var sb strings.Builder
	for i := 0; i+2 <= len(s); i += 2 {
		v, err := strconv.Atoi(s[i : i+2])
		if err != nil {
			return ""
		}
		fmt.Fprintf(&sb, "%02X", v)
	}
	return sb.String()
}

// ACCFromIMSI derives the access control class from a raw EF_IMSI hex string:
// 2^(last hex digit of the swapped IMSI), as 4 hex digits. Returns "0001" when the
// IMSI is empty.
func ACCFromIMSI(imsiHex string) string {
	swapped := SwapPairs(StripNonHex(imsiHex))
	if swapped == "" {
		return "0001"
	}
	last := strings.IndexByte(hexAlphabet, swapped[len(swapped)-1])
	return fmt.Sprintf("%04X", 1<<last)
}
