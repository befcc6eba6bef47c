// Package profile is the static registry of validation profiles. A profile binds, for one card
// family, the machine log decode table, the rule matrix and comparator kind of every field, and
// the layout used to extract each source file.
package profile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gregLibert/simcheck/pkg/decode"
	"github.com/gregLibert/simcheck/pkg/fields"
	"github.com/gregLibert/simcheck/pkg/sources"
)

// ErrUnknown is returned by Get for a name that is not registered.
var ErrUnknown = errors.New("unknown profile")

// Strategy selects how the machine log is decoded.
type Strategy int

const (
	// Direct decodes every line against a single prefix table.
	Direct Strategy = iota
	// Lookahead decodes the data line found within a window after a SELECT.
	Lookahead
)

func (s Strategy) String() string {
	if s == Lookahead {
		return "lookahead"
	}
	return "direct"
}

// KeyFileID is the file whose SELECT is followed by several key updates and therefore gets the
// wider key window.
const KeyFileID = "6F22"

// Default lookahead windows, in lines after the SELECT.
const (
	DefaultWindow    = 5
	DefaultKeyWindow = 10
)

// Profile is one registered validation profile. Profiles are values: callers may adjust a copy
// returned by Get without affecting the registry.
type Profile struct {
	Name     string
	Strategy Strategy
	Targets  []fields.Target
	Specs    []fields.Spec

	Direct []decode.LineDecoder
	Select []decode.SelectRule

	PCOM []sources.Pattern
	// CNUMCells addresses tab-separated CNUM cells; nil means the VAR_OUT header layout.
	CNUMCells []sources.Cell
	SCMCells  []sources.Cell

	SIMODAAnchors []sources.Anchor
	SIMODAOrdered []sources.Ordered

	// StrictLength fails PCOM comparisons of generic fields whose raw lengths differ.
	StrictLength bool
}

// Spec returns the field spec registered under name.
func (p Profile) Spec(name string) (fields.Spec, bool) {
	for _, s := range p.Specs {
		if s.Name == name {
			return s, true
		}
	}
	return fields.Spec{}, false
}

// HasTarget reports whether t is one of the profile's comparison targets.
func (p Profile) HasTarget(t fields.Target) bool {
	for _, x := range p.Targets {
		if x == t {
			return true
		}
	}
	return false
}

// WithWindows returns a copy of p whose lookahead rules use window, and keyWindow for KeyFileID.
// Non-positive values keep the registered windows.
func (p Profile) WithWindows(window, keyWindow int) Profile {
	rules := make([]decode.SelectRule, len(p.Select))
	copy(rules, p.Select)
	for i := range rules {
		switch {
		case rules[i].FileID == KeyFileID && keyWindow > 0:
			rules[i].Window = keyWindow
		case rules[i].FileID != KeyFileID && window > 0:
			rules[i].Window = window
		}
	}
	p.Select = rules
	return p
}

// without drops the named fields from the specs and every table that only feeds them.
func (p Profile) without(skip ...string) Profile {
	if len(skip) == 0 {
		return p
	}
	drop := make(map[string]bool, len(skip))
	for _, s := range skip {
		drop[s] = true
	}

	var specs []fields.Spec
	for _, s := range p.Specs {
		if !drop[s.Name] {
			specs = append(specs, s)
		}
	}
	p.Specs = specs

	var rules []decode.SelectRule
	for _, r := range p.Select {
		var data []decode.LineDecoder
		for _, d := range r.Data {
			if !allDropped(d.Fields, drop) {
				data = append(data, d)
			}
		}
		if len(data) > 0 {
			r.Data = data
			rules = append(rules, r)
		}
	}
	p.Select = rules

	var pcom []sources.Pattern
	for _, pat := range p.PCOM {
		if !drop[pat.Field] {
			pcom = append(pcom, pat)
		}
	}
	p.PCOM = pcom
	p.CNUMCells = keepCells(p.CNUMCells, drop)
	p.SCMCells = keepCells(p.SCMCells, drop)

	var anchors []sources.Anchor
	for _, a := range p.SIMODAAnchors {
		if !drop[a.Field] {
			anchors = append(anchors, a)
		}
	}
	p.SIMODAAnchors = anchors
	return p
}

func allDropped(names []string, drop map[string]bool) bool {
	for _, n := range names {
		if !drop[n] {
			return false
		}
	}
	return true
}

func keepCells(cells []sources.Cell, drop map[string]bool) []sources.Cell {
	var out []sources.Cell
	for _, c := range cells {
		if !drop[c.Field] {
			out = append(out, c)
		}
	}
	return out
}

var registry = map[string]func() Profile{
	"AIRTEL": airtel,
	"MOB":    mob,
	"WBIOT":  wbiot,
	"NBIOT":  nbiot,
}

// Get returns a fresh copy of the named profile.
func Get(name string) (Profile, error) {
	build, ok := registry[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return build(), nil
}

// Names lists the registered profiles in lexical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// rules builds a rule matrix row from the targets that require the field.
func rules(required ...fields.Target) map[fields.Target]fields.Requirement {
	m := map[fields.Target]fields.Requirement{}
	for _, t := range required {
		m[t] = fields.FromValue
	}
	return m
}
