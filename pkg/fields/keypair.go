package fields

import (
	"strings"

	"github.com/gregLibert/simcheck/pkg/normalize"
)

// KeyLength is the hex length of both KI and OPC.
const KeyLength = 32

// KeyState is a snapshot of the pair after one transition.
type KeyState struct {
	Event   string
	KI      string
	OPC     string
	Pending string
}

// KeyPair tracks KI and OPC while they are written piecemeal by script fields.
// Every assignment runs normalize, so the pair never needs a final clean-up pass.
type KeyPair struct {
	KI  string
	OPC string

	// pending is a KI overflow waiting for the next OPC write.
	pending string
	// freshOPC is set between an OPC write and the normalize that follows it.
	freshOPC bool

	history []KeyState
}

// SetKI stores a KI candidate.
func (k *KeyPair) SetKI(v string) {
	k.KI = strings.ToUpper(v)
	k.normalize("KI")
}

// SetOPC stores an OPC candidate.
func (k *KeyPair) SetOPC(v string) {
	k.OPC = strings.ToUpper(v)
	k.freshOPC = true
	k.normalize("OPC")
}

// SetCombined stores both halves of a combined KI||OPC blob, dropping any pending fragment.
func (k *KeyPair) SetCombined(ki, opc string) {
	k.KI = strings.ToUpper(ki)
	k.OPC = strings.ToUpper(opc)
	k.pending = ""
	k.normalize("KI+OPC")
}

// Pending returns the KI overflow not yet merged into OPC.
func (k *KeyPair) Pending() string { return k.pending }

// History returns every state the pair went through, including malformed intermediates.
func (k *KeyPair) History() []KeyState {
	return append([]KeyState(nil), k.history...)
}

// Normalized reports whether both halves have their final length.
func (k *KeyPair) Normalized() bool {
	return len(k.KI) == KeyLength && len(k.OPC) == KeyLength
}

func (k *KeyPair) normalize(event string) {
	defer func() {
		k.freshOPC = false
		k.history = append(k.history, KeyState{Event: event, KI: k.KI, OPC: k.OPC, Pending: k.pending})
	}()

	// A 63/1 split is a one-character shift in the tracer output: the tail of KI is OPC.
	if len(k.KI) == 2*KeyLength-1 && len(k.OPC) == 1 {
		k.OPC = k.KI[KeyLength:] + k.OPC
		k.KI = k.KI[:KeyLength]
		k.pending = ""
		return
	}

	if k.freshOPC && normalize.IsDigits(k.OPC) && (len(k.OPC) == KeyLength-1 || len(k.OPC) == KeyLength) {
		if h := normalize.DecimalPairsToHex(k.OPC); h != "" {
			k.OPC = h
		}
	}

	if k.OPC != "" && len(k.OPC) != KeyLength && k.pending != "" {
		combined := k.pending + k.OPC
		if len(combined) >= KeyLength {
			combined = combined[:KeyLength]
		}
		k.OPC = combined
		k.pending = ""
	}

	if len(k.KI) > KeyLength {
		k.pending = k.KI[KeyLength:]
		k.KI = k.KI[:KeyLength]
	}
}
