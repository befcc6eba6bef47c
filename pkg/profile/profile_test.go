package profile

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gregLibert/simcheck/pkg/decode"
	"github.com/gregLibert/simcheck/pkg/fields"
)

func TestGet(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			p, err := Get(name)
			if err != nil {
				t.Fatalf("Get(%q) error = %v", name, err)
			}
			if p.Name != name {
				t.Errorf("Name = %q, want %q", p.Name, name)
			}
			if len(p.Specs) == 0 {
				t.Error("profile has no field specs")
			}
		})
	}

	if _, err := Get("GSM"); !errors.Is(err, ErrUnknown) {
		t.Errorf("Get(GSM) error = %v, want ErrUnknown", err)
	}
}

func TestNames(t *testing.T) {
	want := []string{"AIRTEL", "MOB", "NBIOT", "WBIOT"}
	if diff := cmp.Diff(want, Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func specNames(p Profile) []string {
	var out []string
	for _, s := range p.Specs {
		out = append(out, s.Name)
	}
	return out
}

func TestSkipLists(t *testing.T) {
	mob, _ := Get("MOB")
	wbiot, _ := Get("WBIOT")
	nbiot, _ := Get("NBIOT")

	if got, want := len(mob.Specs)-len(wbiot.Specs), 3; got != want {
		t.Errorf("WBIOT drops %d fields, want %d", got, want)
	}
	if got, want := len(mob.Specs)-len(nbiot.Specs), 5; got != want {
		t.Errorf("NBIOT drops %d fields, want %d", got, want)
	}

	for _, name := range specNames(nbiot) {
		switch name {
		case GlobalIMSI, GlobalACC, HomeACC37, ASCIIIMSI2, ASCIIIMSI4:
			t.Errorf("NBIOT still validates %s", name)
		}
	}

	for _, r := range nbiot.Select {
		switch r.FileID {
		case "3031", "3037", "6F02", "6F04":
			t.Errorf("NBIOT still decodes file %s", r.FileID)
		}
	}
	for _, c := range wbiot.CNUMCells {
		if c.Field == GlobalIMSI {
			t.Errorf("WBIOT still reads %s from CNUM", c.Field)
		}
	}

	// The registry hands out copies.
	again, _ := Get("MOB")
	if len(again.Specs) != len(mob.Specs) {
		t.Errorf("MOB specs changed after building WBIOT/NBIOT")
	}
}

func TestRuleMatrix(t *testing.T) {
	tests := []struct {
		profile string
		field   string
		want    map[fields.Target]bool
	}{
		{"AIRTEL", "PSK (6F2B)", map[fields.Target]bool{fields.PCOM: false, fields.CNUM: false, fields.CPS: true}},
		{"AIRTEL", "PUK1", map[fields.Target]bool{fields.PCOM: true, fields.CNUM: true, fields.CPS: false}},
		{"AIRTEL", "KID1 (6F22)", map[fields.Target]bool{fields.PCOM: false, fields.CNUM: true, fields.CPS: true}},
		{"AIRTEL", "ACC", map[fields.Target]bool{fields.PCOM: true, fields.CNUM: false, fields.CPS: false}},
		{"MOB", ICCIDCard, map[fields.Target]bool{fields.PCOM: true, fields.CNUM: true, fields.SCM: true, fields.SIMODA: true}},
		{"MOB", DPUK2, map[fields.Target]bool{fields.PCOM: true, fields.CNUM: true, fields.SCM: false, fields.SIMODA: false}},
		{"NBIOT", KIC2, map[fields.Target]bool{fields.PCOM: false, fields.CNUM: false, fields.SCM: false, fields.SIMODA: true}},
	}

	for _, tt := range tests {
		t.Run(tt.profile+"/"+tt.field, func(t *testing.T) {
			p, err := Get(tt.profile)
			if err != nil {
				t.Fatal(err)
			}
			spec, ok := p.Spec(tt.field)
			if !ok {
				t.Fatalf("Spec(%q) not found", tt.field)
			}
			got := map[fields.Target]bool{}
			for target := range tt.want {
				got[target] = spec.Requires(target)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Requires mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWithWindows(t *testing.T) {
	mob, _ := Get("MOB")
	p := mob.WithWindows(3, 0)

	for _, r := range p.Select {
		want := 3
		if r.FileID == KeyFileID {
			want = DefaultKeyWindow
		}
		if r.Window != want {
			t.Errorf("rule %s Window = %d, want %d", r.FileID, r.Window, want)
		}
	}
	for _, r := range mob.Select {
		if r.FileID != KeyFileID && r.Window != DefaultWindow {
			t.Errorf("base rule %s Window = %d, want %d", r.FileID, r.Window, DefaultWindow)
		}
	}
}

func TestAirtelDirectTable(t *testing.T) {
	p, _ := Get("AIRTEL")

	tests := []struct {
		line string
		want []decode.Hit
	}{
		{
			line: "00D6000009084940451234567890F0SW9000",
			want: []decode.Hit{{Field: "IMSI", Value: "084940451234567890"}},
		},
		{
			line: "00D600000B800A0A3132333435363738FFFF SW9000",
			want: []decode.Hit{{Field: "ADM", Value: "3132333435363738"}},
		},
		{
			line: "00D60000020200SW9000",
			want: []decode.Hit{{Field: "ACC", Value: "0200"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			hits, d := decode.DecodeFirst(tt.line, p.Direct)
			if d == nil {
				t.Fatal("no decoder matched")
			}
			if diff := cmp.Diff(tt.want, hits); diff != "" {
				t.Errorf("DecodeFirst() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
