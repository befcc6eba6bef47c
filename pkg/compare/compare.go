// Package compare checks machine log values against the values decoded from the batch files
// (PCOM, CNUM, SCM, SIM-ODA, cps), one comparison function per field kind.
package compare

import (
	"fmt"
	"strings"

	"github.com/gregLibert/simcheck/pkg/fields"
	"github.com/gregLibert/simcheck/pkg/normalize"
	"github.com/gregLibert/simcheck/pkg/similarity"
)

const (
	imsiStoredLen = 18
	imsiLen       = 15
	imsiPrefixLen = 3
	iccidAlphabet = "0123456789ABCDEFU"
)

// Options tunes the comparison functions.
type Options struct {
	// Threshold is the minimum cps similarity percentage. Zero means similarity.DefaultThreshold.
	Threshold float64
	// StrictLength fails PCOM comparisons whose raw values differ in length.
	StrictLength bool
}

func (o Options) threshold() float64 {
	if o.Threshold <= 0 {
		return similarity.DefaultThreshold
	}
	return o.Threshold
}

// Compare checks one present machine log value against one present target value.
// It returns false with a message naming both values when they disagree.
func Compare(spec fields.Spec, t fields.Target, ml, target string, opts Options) (bool, string) {
	ml, target = strings.TrimSpace(ml), strings.TrimSpace(target)

	if t == fields.PCOM && opts.StrictLength && len(ml) != len(target) {
		return false, fmt.Sprintf("%s: Length mismatch in %s - ML length=%d, %s length=%d", spec.Name, t, len(ml), t, len(target))
	}

	switch spec.Kind {
	case fields.ICCID:
		return compareICCID(spec.Name, t, ml, target, opts)
	case fields.IMSI:
		return compareIMSI(spec.Name, t, ml, target)
	case fields.ASCIIIMSI:
		return compareASCIIIMSI(spec.Name, t, ml, target)
	case fields.PUK:
		return comparePUK(spec.Name, t, ml, target)
	default:
		return compareGeneric(spec.Name, t, ml, target)
	}
}

func mismatch(name string, t fields.Target, want, got string) string {
	return fmt.Sprintf("%s: Mismatch in %s - Expected: %s, Got: %s", name, t, want, got)
}

func mismatchProcessed(name string, t fields.Target, want, got string) string {
	return fmt.Sprintf("%s: Mismatch in %s - Expected (ML processed): %s, Got: %s", name, t, want, got)
}

// compareICCID accepts the encodings each target uses: PCOM keeps the card order, CNUM the
// swapped order with F written as U, and SCM, SIM-ODA and cps either order.
func compareICCID(name string, t fields.Target, ml, target string, opts Options) (bool, string) {
	m := normalize.StripNonHex(ml)
	x := normalize.Keep(strings.ToUpper(target), iccidAlphabet)
	swapped := normalize.SwapPairs(m)

	switch t {
	case fields.PCOM:
		if m == x {
			return true, ""
		}
		return false, mismatch(name, t, m, x)

	case fields.CNUM:
		want := strings.ReplaceAll(swapped, "F", "U")
		if want == x {
			return true, ""
		}
		return false, mismatchProcessed(name, t, want, x)

	case fields.CPS:
		if score := similarity.Ratio(m, x); score < opts.threshold() {
			return false, fmt.Sprintf("%s: Low similarity in %s (%.1f%% < %.0f%%) - Expected: %s, Got: %s", name, t, score, opts.threshold(), m, x)
		}
		if swapped == x || m == x || m == normalize.SwapPairs(x) {
			return true, ""
		}
		return false, mismatch(name, t, m, x)

	default:
		if swapped == x || m == x {
			return true, ""
		}
		return false, mismatchProcessed(name, t, swapped, x)
	}
}

// cardIMSI converts the 18 digit EF IMSI content (length byte, parity nibble, swapped digits)
// to the 15 digit IMSI.
func cardIMSI(digits string) string {
	if len(digits) != imsiStoredLen {
		return digits
	}
	return first(normalize.SwapPairs(digits)[imsiPrefixLen:], imsiLen)
}

func first(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func compareIMSI(name string, t fields.Target, ml, target string) (bool, string) {
	md := normalize.StripNonDigits(ml)
	xd := normalize.StripNonDigits(target)

	switch t {
	case fields.PCOM:
		if md == xd {
			return true, ""
		}
		return false, mismatch(name, t, md, xd)

	case fields.CPS:
		if md == xd {
			return true, ""
		}
		switch {
		case len(md) == imsiStoredLen && len(xd) == imsiLen:
			if strings.Contains(md, xd) || cardIMSI(md) == xd {
				return true, ""
			}
		case len(md) == imsiStoredLen && len(xd) == imsiStoredLen:
			diff := 0
			for i := range md {
				if md[i] != xd[i] {
					diff++
				}
			}
			return false, fmt.Sprintf("%s: Incorrect data in %s - Expected: %s, Got: %s (%d digit(s) different)", name, t, md, xd, diff)
		case len(md) == imsiLen && len(xd) == imsiStoredLen:
			if strings.Contains(xd, md) {
				return true, ""
			}
		}
		return false, fmt.Sprintf("%s: Incorrect data in %s - Expected: %s, Got: %s", name, t, md, xd)

	default:
		got := first(xd, imsiLen)
		if len(md) == imsiStoredLen {
			want := cardIMSI(md)
			if want == got {
				return true, ""
			}
			return false, mismatchProcessed(name, t, want, got)
		}
		want := first(md, imsiLen)
		if want == got {
			return true, ""
		}
		return false, mismatch(name, t, want, got)
	}
}

// asciiIMSI decodes an IMSI written as ASCII hex and drops the leading '3' length digit.
func asciiIMSI(v string) string {
	if normalize.IsHex(v) {
		if s := normalize.HexToASCII(v); s != "" {
			v = s
		}
	}
	return strings.TrimPrefix(v, "3")
}

func compareASCIIIMSI(name string, t fields.Target, ml, target string) (bool, string) {
	m := asciiIMSI(ml)
	x := target
	if t == fields.PCOM {
		x = asciiIMSI(target)
	}
	if m == x {
		return true, ""
	}
	return false, mismatchProcessed(name, t, m, x)
}

// comparePUK handles PUKs stored on the card as ASCII hex: PCOM carries the same hex, CNUM the
// plain digits.
func comparePUK(name string, t fields.Target, ml, target string) (bool, string) {
	switch t {
	case fields.PCOM:
		if strings.EqualFold(ml, target) || ml == normalize.StripNonDigits(target) {
			return true, ""
		}
		return false, mismatch(name, t, ml, target)
	case fields.CNUM:
		decoded := normalize.HexToASCII(ml)
		if decoded != "" && (decoded == target || decoded == normalize.StripNonDigits(target)) {
			return true, ""
		}
		return false, mismatchProcessed(name, t, decoded, target)
	default:
		return compareGeneric(name, t, ml, target)
	}
}

func compareGeneric(name string, t fields.Target, ml, target string) (bool, string) {
	if strings.EqualFold(ml, target) {
		return true, ""
	}
	return false, mismatch(name, t, strings.ToUpper(ml), strings.ToUpper(target))
}
