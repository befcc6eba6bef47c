package decode

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPayload(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		prefix  string
		want    string
		matched bool
	}{
		{"Cut at terminator", "00d600000a98911012000032045f10SW9000", "00D600000A", "98911012000032045F10", true},
		{"Non hex noise dropped", "IN[00D6000002 0080] ok", "00D6000002", "0080", true},
		{"Absent prefix", "00B0000009", "00D6000009", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, matched := Payload(tt.line, tt.prefix)
			if got != tt.want || matched != tt.matched {
				t.Errorf("Payload() = %q, %v; want %q, %v", got, matched, tt.want, tt.matched)
			}
		})
	}
}

func TestLineDecoders(t *testing.T) {
	key := strings.Repeat("1A", 16)
	key2 := strings.Repeat("2B", 16)

	tests := []struct {
		name    string
		decoder LineDecoder
		line    string
		want    []Hit
		matched bool
	}{
		{
			name:    "BCD IMSI",
			decoder: BCD("IMSI", "00D6000009", 18),
			line:    "00D6000009084940451234567890SW9000",
			want:    []Hit{{"IMSI", "084940451234567890"}},
			matched: true,
		},
		{
			name:    "BCD IMSI too short",
			decoder: BCD("IMSI", "00D6000009", 18),
			line:    "00D600000908494045F",
			want:    nil,
			matched: true,
		},
		{
			name:    "Alnum ICCID padded",
			decoder: Alnum("ICCID", "00D600000A", 20),
			line:    "00D600000A98911012000032045FSW9000",
			want:    []Hit{{"ICCID", "98911012000032045F00"}},
			matched: true,
		},
		{
			name:    "PUK after filler",
			decoder: AfterFiller("PUK1", "00D6000015F00303", "FFFFFFFF0A0A", 16),
			line:    "00D6000015F003033132333435363738FFFFFFFF0A0A3837363534333231SW9000",
			want:    []Hit{{"PUK1", "3837363534333231"}},
			matched: true,
		},
		{
			name:    "PUK without filler",
			decoder: AfterFiller("PUK1", "00D6000015F00303", "FFFFFFFF0A0A", 16),
			line:    "00D6000015F003033132333435363738SW9000",
			want:    []Hit{{"PUK1", "3132333435363738"}},
			matched: true,
		},
		{
			name:    "Key without filler",
			decoder: WithoutFiller("KIC1 (6F22)", "00DC01041BFE0110", "FFFFFFFFFFFFFFFF", 32),
			line:    "00DC01041BFE0110FFFFFFFFFFFFFFFF" + key + "SW9000",
			want:    []Hit{{"KIC1 (6F22)", key}},
			matched: true,
		},
		{
			name:    "PSK and DEK1 on one line",
			decoder: Split("00D600002AFE85400310", "FE80400210", 32, "PSK (6F2B)", "DEK1 (6F2B)"),
			line:    "00D600002AFE85400310" + key + "FE80400210" + key2 + "SW9000",
			want:    []Hit{{"PSK (6F2B)", key}, {"DEK1 (6F2B)", key2}},
			matched: true,
		},
		{
			name:    "Split marker missing",
			decoder: Split("00D600002AFE85400310", "FE80400210", 32, "PSK (6F2B)", "DEK1 (6F2B)"),
			line:    "00D600002AFE85400310" + key + key2,
			want:    nil,
			matched: true,
		},
		{
			name: "Segments",
			decoder: Segments("00D60000120000000300000002FFFFFFFF",
				Segment{"GLOBAL_ACC (3037)", 0, 4}, Segment{"HOME_ACC (3037)", 4, 4}),
			line:    "00D60000120000000300000002FFFFFFFF00400080SW9000",
			want:    []Hit{{"GLOBAL_ACC (3037)", "0040"}, {"HOME_ACC (3037)", "0080"}},
			matched: true,
		},
		{
			name:    "Other command",
			decoder: Hex("ACC", "00D6000002", 4),
			line:    "00B0000002",
			want:    nil,
			matched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, matched := tt.decoder.Decode(tt.line)
			if matched != tt.matched {
				t.Errorf("matched = %v, want %v", matched, tt.matched)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeFirst(t *testing.T) {
	decoders := []LineDecoder{
		BCD("IMSI", "00D6000009", 18),
		Hex("ACC", "00D6000002", 4),
	}

	hits, d := DecodeFirst("00D60000020200SW9000", decoders)
	if d == nil || d.Fields[0] != "ACC" {
		t.Fatalf("DecodeFirst() picked %v, want ACC decoder", d)
	}
	if diff := cmp.Diff([]Hit{{"ACC", "0200"}}, hits); diff != "" {
		t.Errorf("hits mismatch (-want +got):\n%s", diff)
	}

	if _, d := DecodeFirst("00A4000002 6F07", decoders); d != nil {
		t.Errorf("DecodeFirst() on SELECT line = %v, want nil", d)
	}
}

func TestSelectRule_Scan(t *testing.T) {
	rule := SelectRule{
		FileID: "6F07",
		Window: 2,
		Data:   []LineDecoder{BCD("HOME_IMSI (6F07)", "00D6000009", 18)},
	}

	lines := []string{
		"00A40000026F07",
		"00C0000015",
		"00D6000009084940451234567890SW9000",
		"00D6000009084940459999999999SW9000",
	}

	if !rule.Selects(lines[0]) {
		t.Fatal("Selects() = false for SELECT line")
	}
	if !rule.Selects("select 6f07") {
		t.Error("Selects() = false for annotated SELECT")
	}
	if rule.Selects("00B0000009 6F07") {
		t.Error("Selects() = true for a non SELECT line")
	}

	got := rule.Scan(lines, 0)
	want := []LookaheadHit{{Hit: Hit{"HOME_IMSI (6F07)", "084940451234567890"}, Line: 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
	}

	// The data line falls outside a window of 1.
	rule.Window = 1
	if got := rule.Scan(lines, 0); len(got) != 0 {
		t.Errorf("Scan() with short window = %v, want none", got)
	}
}
