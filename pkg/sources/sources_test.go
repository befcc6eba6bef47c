package sources

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/gregLibert/simcheck/pkg/fields"
)

func TestParsePCOM(t *testing.T) {
	content := strings.Join([]string{
		`; personalization constants`,
		`.define %IMSI "404451234567890"`,
		`.DEFINE %ISC1 3132333435363738`,
		`ACC = 0200`,
		`.DEFINE %ACC 0400`,
	}, "\n")

	patterns := []Pattern{
		Define("IMSI", `[0-9]+`, []string{"IMSI"}, "IMSI"),
		Define("ADM", `[0-9A-F]{16}`, []string{"ISC1"}, "ADM"),
		Define("ACC", `[0-9]{4}`, []string{"ACC"}, "ACC"),
		Define("ICCID", `[0-9A-F]{18,20}`, []string{"ICCID"}, "ICCID"),
	}

	got := ParsePCOM(content, patterns, zerolog.Nop())
	want := fields.Values{
		"IMSI": "404451234567890",
		"ADM":  "3132333435363738",
		"ACC":  "0400", // .DEFINE is tried before KEY =
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParsePCOM() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCells(t *testing.T) {
	content := "header\tline\n" +
		"x\ty\t8991101200003204510\t404451234567890 404451234567891\n"

	cells := []Cell{
		{Field: "ICCID", Line: 2, Column: 2},
		{Field: "IMSI", Line: 2, Column: 3, FirstToken: true},
		{Field: "PUK", Line: 2, Column: 9},
		{Field: "KI", Line: 7, Column: 0},
	}

	got := ReadCells("SCM", content, cells, zerolog.Nop())
	want := fields.Values{"ICCID": "8991101200003204510", "IMSI": "404451234567890"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadCells() mismatch (-want +got):\n%s", diff)
	}
}

func cnumFile(header, data string) string {
	lines := make([]string, 0, 26)
	for i := 1; i <= 23; i++ {
		lines = append(lines, fmt.Sprintf("* comment %d", i))
	}
	lines = append(lines, header, data, "")
	return strings.Join(lines, "\r\n")
}

func TestParseCNUM_Header(t *testing.T) {
	kic := strings.Repeat("1A", 16)
	kid := strings.Repeat("2B", 16)
	content := cnumFile(
		"var_out: ICCID/IMSI/PUK1/PUK2/CIPHERKEY_RFM/MACKEY_RFM/A4IND",
		"8919100121000023401U 404451234567890 12345678 87654321 "+kic+" "+kid+" 0200",
	)

	got := ParseCNUM(content, zerolog.Nop())
	want := fields.Values{
		"ICCID":       "8919100121000023401U",
		"IMSI":        "404451234567890",
		"PUK1":        "12345678",
		"PUK2":        "87654321",
		"KIC1 (6F22)": kic,
		"KID1 (6F22)": kid,
		"ACC":         "0200",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseCNUM() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCNUM_Fallback(t *testing.T) {
	content := "batch 404451234567890\n" +
		"card 8919100121000023401U pins 12345678 87654321\n"

	got := ParseCNUM(content, zerolog.Nop())
	want := fields.Values{
		"IMSI":  "404451234567890",
		"ICCID": "8919100121000023401U",
		"PUK1":  "12345678",
		"PUK2":  "87654321",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseCNUM() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSIMODA(t *testing.T) {
	lines := []string{
		"Card(",
		"Iccid(8991101200003204510, Luhn)",
		"SecurityKey(1, 1, Encryption, AAAA)",
		"SecurityKey(1, 2, Authentication, BBBB)",
		"SecurityKey(2, 1, Encryption, CCCC)",
		"SecurityKey(2, 2, Authentication, DDDD)",
		"SecurityKey(3, 1, PskTls, EEEE, x)",
		"",
		"",
		"",
		"Imsi(404451234567890)",
	}

	anchors := []Anchor{
		{Field: "ICCID", Line: 2, Expr: regexp.MustCompile(`Iccid\(([^,]+),.*\)`)},
		{Field: "PSK", Line: 7, Expr: regexp.MustCompile(`SecurityKey\([^,]+, [^,]+, PskTls, ([^,]+),`)},
		// Anchored far from its real line: found by the full scan.
		{Field: "IMSI", Line: 2, Expr: regexp.MustCompile(`Imsi\((\w+)\)`)},
	}
	enc := regexp.MustCompile(`SecurityKey\(.*, Encryption, (\w+)\)`)
	auth := regexp.MustCompile(`SecurityKey\(.*, Authentication, (\w+)\)`)
	ordered := []Ordered{
		{Field: "KIC1", Expr: enc, Index: 0},
		{Field: "KIC2", Expr: enc, Index: 1},
		{Field: "KID1", Expr: auth, Index: 0},
		{Field: "KID2", Expr: auth, Index: 1},
		{Field: "KIC3", Expr: enc, Index: 2},
	}

	got := ParseSIMODA(strings.Join(lines, "\n"), anchors, ordered, DefaultAnchorRadius, zerolog.Nop())
	want := fields.Values{
		"ICCID": "8991101200003204510",
		"PSK":   "EEEE",
		"IMSI":  "404451234567890",
		"KIC1":  "AAAA",
		"KIC2":  "CCCC",
		"KID1":  "BBBB",
		"KID2":  "DDDD",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseSIMODA() mismatch (-want +got):\n%s", diff)
	}
}

func cpsSpecs() []fields.Spec {
	cps := map[fields.Target]fields.Requirement{fields.CPS: fields.FromValue}
	return []fields.Spec{
		{Name: "ICCID", Kind: fields.ICCID, Rules: cps},
		{Name: "IMSI", Kind: fields.IMSI, Rules: cps},
		{Name: "PSK (6F2B)", Kind: fields.Generic, Rules: cps},
		{Name: "PUK1", Kind: fields.PUK, Rules: map[fields.Target]fields.Requirement{fields.CPS: fields.NotRequired}},
	}
}

func TestExtractCPS(t *testing.T) {
	psk := strings.Repeat("AB", 16)

	tests := []struct {
		name    string
		content string
		ml      fields.Values
		want    fields.Values
	}{
		{
			name:    "Exact occurrence keeps cps casing",
			content: "psk=" + strings.ToLower(psk) + "\n",
			ml:      fields.Values{"PSK (6F2B)": psk},
			want:    fields.Values{"PSK (6F2B)": strings.ToLower(psk)},
		},
		{
			name:    "Fuzzy ICCID above threshold",
			content: "ICCID: 89911012000032045109\n",
			ml:      fields.Values{"ICCID": "89911012000032045100"},
			want:    fields.Values{"ICCID": "89911012000032045109"},
		},
		{
			name:    "Fuzzy ICCID below threshold is absent",
			content: "ICCID: 899110120000320ABCDE\n",
			ml:      fields.Values{"ICCID": "89911012000032045100"},
			want:    fields.Values{},
		},
		{
			name:    "IMSI scored on digits",
			content: `"imsi": "404451234567891"`,
			ml:      fields.Values{"IMSI": "404451234567890"},
			want:    fields.Values{"IMSI": "404451234567891"},
		},
		{
			name:    "Not required and absent values skipped",
			content: "3132333435363738 404451234567890",
			ml:      fields.Values{"PUK1": "3132333435363738", "IMSI": fields.NotFound, "ICCID": "89"},
			want:    fields.Values{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := ExtractCPS(tt.content, tt.ml, cpsSpecs(), 80, zerolog.Nop())
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractCPS() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractCPS_TrailRecordsRejectedScore(t *testing.T) {
	_, trail := ExtractCPS("ICCID: 899110120000320ABCDE", fields.Values{"ICCID": "89911012000032045100"}, cpsSpecs(), 80, zerolog.Nop())
	if len(trail) != 1 {
		t.Fatalf("trail = %+v, want one entry", trail)
	}
	if trail[0].Score >= 80 || trail[0].Exact {
		t.Errorf("trail[0] = %+v, want a rejected fuzzy score", trail[0])
	}
}
