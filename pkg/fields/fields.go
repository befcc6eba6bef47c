// Package fields holds the field value maps produced by every parser, the comparison record
// types, and the store that applies the key material rules while a run is extracting values.
package fields

import (
	"sort"
	"strings"
)

// Absent markers. All three mean "no value" to every comparison.
const (
	NotFound      = "Not Found"
	NotApplicable = "N/A"
	Missing       = "Missing"
)

// IsAbsent reports whether v is empty or one of the absent markers.
func IsAbsent(v string) bool {
	switch strings.TrimSpace(v) {
	case "", NotFound, NotApplicable, Missing:
		return true
	}
	return false
}

// Values maps a field name ("ICCID", "KI", "PSK (6F2B)") to its decoded value.
type Values map[string]string

// Lookup returns the value of name, treating absent markers as missing.
func (v Values) Lookup(name string) (string, bool) {
	val, ok := v[name]
	if !ok || IsAbsent(val) {
		return "", false
	}
	return val, true
}

// Display returns the value of name or NotFound.
func (v Values) Display(name string) string {
	if val, ok := v.Lookup(name); ok {
		return val
	}
	return NotFound
}

// Names returns the field names in lexical order.
func (v Values) Names() []string {
	names := make([]string, 0, len(v))
	for k := range v {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
