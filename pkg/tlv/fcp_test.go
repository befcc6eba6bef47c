package tlv

import (
	"errors"
	"strings"
	"testing"
)

func TestParseFCP(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantID    string
		wantType  string
		wantSize  int
		wantState string
		wantLine  string
	}{
		{
			name:   "Transparent EF IMSI",
			data:   "62 1C 8202 4121 8302 6F07 A503 800171 8A01 05 8B03 6F0602 8002 0009 8801 38",
			wantID: "6F07", wantType: "transparent", wantSize: 9, wantState: "operational (activated)",
			wantLine: "id=6F07 type=transparent size=9 state=operational (activated)",
		},
		{
			name:   "Linear fixed EF",
			data:   "62 0F 8205 4221002601 8302 6F42 8002 0026",
			wantID: "6F42", wantType: "linear fixed", wantSize: 38, wantState: "unknown",
			wantLine: "id=6F42 type=linear fixed size=38 records=1x38",
		},
		{
			name:   "DF uses total size",
			data:   "62 0F 8202 7821 8302 3F00 8102 1234 8A01 04",
			wantID: "3F00", wantType: "DF", wantSize: 0x1234, wantState: "operational (deactivated)",
			wantLine: "id=3F00 type=DF size=4660 state=operational (deactivated)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fcp, err := ParseFCP(mustHex(t, tt.data))
			if err != nil {
				t.Fatalf("ParseFCP failed: %v", err)
			}
			if got := fcp.ID(); got != tt.wantID {
				t.Errorf("ID() = %s, want %s", got, tt.wantID)
			}
			if got := fcp.Structure(); got != tt.wantType {
				t.Errorf("Structure() = %s, want %s", got, tt.wantType)
			}
			if got, ok := fcp.Size(); !ok || got != tt.wantSize {
				t.Errorf("Size() = %d, %v, want %d", got, ok, tt.wantSize)
			}
			if got := fcp.State(); got != tt.wantState {
				t.Errorf("State() = %s, want %s", got, tt.wantState)
			}
			if got := fcp.String(); got != tt.wantLine {
				t.Errorf("String() = %q, want %q", got, tt.wantLine)
			}
		})
	}
}

func TestParseFCP_UnknownTagsKept(t *testing.T) {
	fcp, err := ParseFCP(mustHex(t, "62 1C 8202 4121 8302 6F07 A503 800171 8A01 05 8B03 6F0602 8002 0009 8801 38"))
	if err != nil {
		t.Fatalf("ParseFCP failed: %v", err)
	}
	if len(fcp.Unknown) != 1 || !strings.EqualFold(fcp.Unknown[0].Tag, "8B") {
		t.Errorf("Unknown = %+v, want the 8B security attributes", fcp.Unknown)
	}
	if len(fcp.SFI) != 1 || fcp.SFI[0] != 0x38 {
		t.Errorf("SFI = %X, want 38", fcp.SFI)
	}
}

func TestParseFCP_NotFCP(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", nil},
		{"GSM response", mustHex(t, "0000 2FE2 0400 0A00 0001")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseFCP(tt.data); !errors.Is(err, ErrNotFCP) {
				t.Errorf("ParseFCP err = %v, want ErrNotFCP", err)
			}
		})
	}
}
