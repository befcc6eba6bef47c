package script

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line   string
		want   Command
		wantOK bool
	}{
		{
			line:   "00B0000003SW9000RESULT<MCCMNC>",
			want:   Command{Kind: SWResultField, APDU: "00B0000003", ExpectedStatus: "9000", ResultField: "MCCMNC"},
			wantOK: true,
		},
		{
			line:   "00B0000009SW9000RESULT%HOME_IMSI%",
			want:   Command{Kind: SWResultField, APDU: "00B0000009", ExpectedStatus: "9000", ResultField: "HOME_IMSI"},
			wantOK: true,
		},
		{
			line:   "0026000102SW9000RESULTAF99",
			want:   Command{Kind: SWResult, APDU: "0026000102", ExpectedStatus: "9000", ExpectedResult: "AF99"},
			wantOK: true,
		},
		{
			line: "00D600002AFE85410110<PSK>FE80410210%DEK1%SW9000",
			want: Command{
				Kind:           WithFieldsSW,
				APDU:           "00D600002AFE85410110<PSK>FE80410210%DEK1%",
				ExpectedStatus: "9000",
				FieldNames:     []string{"PSK", "DEK1"},
			},
			wantOK: true,
		},
		{
			line:   "00A40000023F00SW9000",
			want:   Command{Kind: SW, APDU: "00A40000023F00", ExpectedStatus: "9000"},
			wantOK: true,
		},
		{
			line:   "00D6000009<IMSI>",
			want:   Command{Kind: WithFields, APDU: "00D6000009<IMSI>", FieldNames: []string{"IMSI"}},
			wantOK: true,
		},
		{
			line:   "PPS:96SWFFFF",
			want:   Command{Kind: Skip},
			wantOK: true,
		},
		{
			line:   "80C02C0100220011SW9000",
			want:   Command{Kind: Skip},
			wantOK: true,
		},
		{
			line: "WAIT1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseLine(tt.line, 3)
			if ok != tt.wantOK {
				t.Fatalf("ParseLine() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			tt.want.Line = 3
			tt.want.Raw = tt.line
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseLine() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse(t *testing.T) {
	content := "0012000000SW9000\n" +
		"PPS:9611\n" +
		"\n" +
		"00A4 0000 02 3F00 SW9000\n" +
		"AES_KEY\n" +
		"WAIT 1000\n" +
		"00B0000003SW9000RESULT<MCCMNC>\n"

	f := Parse(content, zerolog.Nop())

	if f.Irrelevant != 3 {
		t.Errorf("Irrelevant = %d, want 3", f.Irrelevant)
	}
	if diff := cmp.Diff([]int{6}, f.Unrecognized); diff != "" {
		t.Errorf("Unrecognized mismatch (-want +got):\n%s", diff)
	}
	if len(f.Commands) != 2 {
		t.Fatalf("Commands = %d, want 2", len(f.Commands))
	}
	if got, want := f.Commands[0].APDU, "00A40000023F00"; got != want {
		t.Errorf("Commands[0].APDU = %q, want %q", got, want)
	}
	if got, want := f.Commands[1].Line, 7; got != want {
		t.Errorf("Commands[1].Line = %d, want %d", got, want)
	}
}

func TestBind(t *testing.T) {
	c, _ := ParseLine("00D600002AFE85410110<PSK>FE80410210%DEK1%SW9000", 1)

	tests := []struct {
		name   string
		apdu   string
		want   map[string]string
		wantOK bool
	}{
		{
			name:   "Both fields",
			apdu:   "00D600002AFE85410110AABBFE80410210ccdd",
			want:   map[string]string{"PSK": "AABB", "DEK1": "CCDD"},
			wantOK: true,
		},
		{
			name: "Marker missing",
			apdu: "00D600002AFE85410110AABB",
		},
		{
			name: "Different header",
			apdu: "00D600002BFE85410110AABBFE80410210CCDD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Bind(tt.apdu)
			if ok != tt.wantOK {
				t.Fatalf("Bind() ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Bind() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if got, want := WithFieldsSW.String(), "command_with_fields_sw"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
