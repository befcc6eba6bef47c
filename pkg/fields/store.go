package fields

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/gregLibert/simcheck/pkg/normalize"
)

// Combined key material layouts.
const (
	// CombinedKeyLength is KI||OPC written as one value.
	CombinedKeyLength = 2 * KeyLength
	// KeyUpdateHeader prefixes a raw UPDATE BINARY of the key file.
	KeyUpdateHeader = "00D600002114"
	// OPCPartialField holds a KI overflow that no OPC write has consumed yet.
	OPCPartialField = "OPC_PARTIAL"
	pinFiller       = "FFFFFFFF"
)

// Conflict records a later value that was refused because the field was already set.
type Conflict struct {
	Field    string
	Kept     string
	Rejected string
}

// Store accumulates values extracted during one run. A field keeps its first value; the only
// fields that may be rewritten are KI and OPC, through their KeyPair.
type Store struct {
	values    Values
	keys      KeyPair
	conflicts []Conflict
	log       zerolog.Logger
}

// NewStore returns an empty store logging to log.
func NewStore(log zerolog.Logger) *Store {
	return &Store{values: Values{}, log: log}
}

// Put routes a named value through the key material rules, or stores it with its derived
// variants.
func (s *Store) Put(name, value string) {
	if value == "" {
		return
	}
	upper := strings.ToUpper(name)

	switch {
	case isOPC(upper):
		s.keys.SetOPC(value)
		s.logKeys(name)
	case isKI(upper):
		s.keys.SetKI(value)
		s.logKeys(name)
	case len(value) == CombinedKeyLength && normalize.IsHex(value):
		s.keys.SetCombined(value[:KeyLength], value[KeyLength:])
		s.logKeys(name)
	case len(value) >= len(KeyUpdateHeader)+CombinedKeyLength && strings.HasPrefix(value, KeyUpdateHeader):
		body := value[len(KeyUpdateHeader) : len(KeyUpdateHeader)+CombinedKeyLength]
		s.keys.SetCombined(body[:KeyLength], body[KeyLength:])
		s.logKeys(name)
	default:
		s.set(name, value)
		switch {
		case (strings.Contains(upper, "IMSI") || strings.Contains(upper, "ICCID")) && !strings.Contains(upper, "ASCII"):
			s.set(name+"_SWAPPED", normalize.SwapPairs(value))
		case strings.Contains(upper, "PIN") && strings.HasSuffix(value, pinFiller):
			s.set(name+"_CLEAN", strings.TrimSuffix(value, pinFiller))
		}
	}
}

// Key returns the current KI or OPC when name is routed to the key pair. Values written
// through a key name may have been repaired since, so callers show this rather than the raw
// write.
func (s *Store) Key(name string) (string, bool) {
	upper := strings.ToUpper(name)
	switch {
	case isOPC(upper):
		return s.keys.OPC, true
	case isKI(upper):
		return s.keys.KI, true
	}
	return "", false
}

func isOPC(upper string) bool { return upper == "OPC" || strings.HasSuffix(upper, "_OPC") }

func isKI(upper string) bool { return upper == "KI" || strings.HasSuffix(upper, "_KI") }

func (s *Store) set(name, value string) {
	if prev, ok := s.values[name]; ok {
		if prev != value {
			s.conflicts = append(s.conflicts, Conflict{Field: name, Kept: prev, Rejected: value})
			s.log.Warn().Str("field", name).Str("kept", prev).Str("rejected", value).Msg("conflicting value ignored")
		}
		return
	}
	s.values[name] = value
	s.log.Debug().Str("field", name).Str("value", value).Msg("field stored")
}

func (s *Store) logKeys(source string) {
	s.log.Debug().
		Str("source", source).
		Int("ki_len", len(s.keys.KI)).
		Int("opc_len", len(s.keys.OPC)).
		Int("pending_len", len(s.keys.pending)).
		Msg("key material normalized")
}

// Keys exposes the key pair state.
func (s *Store) Keys() *KeyPair { return &s.keys }

// Conflicts returns the values refused so far.
func (s *Store) Conflicts() []Conflict {
	return append([]Conflict(nil), s.conflicts...)
}

// Values returns a snapshot including KI and OPC when set, and the unmerged KI overflow as
// OPC_PARTIAL.
func (s *Store) Values() Values {
	out := s.values.Clone()
	if s.keys.KI != "" {
		out["KI"] = s.keys.KI
	}
	if s.keys.OPC != "" {
		out["OPC"] = s.keys.OPC
	}
	if s.keys.pending != "" {
		out[OPCPartialField] = s.keys.pending
	}
	return out
}
