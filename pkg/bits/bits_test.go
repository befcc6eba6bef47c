package bits

import "testing"

func TestBit(t *testing.T) {
	tests := []struct {
		n        uint
		expected byte
	}{
		{1, 0x01}, {5, 0x10}, {8, 0x80}, {0, 0x00},
		{9, 0x00}, // out of range is ignored
	}

	for _, tt := range tests {
		if res := Bit(tt.n); res != tt.expected {
			t.Errorf("Bit(%d) = 0x%02X; want 0x%02X", tt.n, res, tt.expected)
		}
	}
}

func TestIsSet(t *testing.T) {
	val := byte(0b10100101)
	if !IsSet(val, 8) {
		t.Error("Bit 8 should be set")
	}
	if IsSet(val, 7) {
		t.Error("Bit 7 should NOT be set")
	}
}

func TestNibbles(t *testing.T) {
	tests := []struct {
		name      string
		input     byte
		high, low byte
	}{
		{"IMSI length byte", 0x08, 0x0, 0x8},
		{"Parity nibble", 0x49, 0x4, 0x9},
		{"Padding", 0xF5, 0xF, 0x5},
		{"Counter status", 0xC3, 0xC, 0x3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HighNibble(tt.input); got != tt.high {
				t.Errorf("HighNibble(0x%02X) = %X, want %X", tt.input, got, tt.high)
			}
			if got := LowNibble(tt.input); got != tt.low {
				t.Errorf("LowNibble(0x%02X) = %X, want %X", tt.input, got, tt.low)
			}
		})
	}
}

func TestGetRange(t *testing.T) {
	if got := GetRange(0b00001100, 4, 3); got != 3 {
		t.Errorf("GetRange = %d, want 3", got)
	}
	if got := GetRange(0xFF, 3, 4); got != 0 {
		t.Errorf("GetRange with inverted bounds = %d, want 0", got)
	}
}

func TestIsDecimal(t *testing.T) {
	for n := byte(0); n <= 0x0F; n++ {
		if got, want := IsDecimal(n), n < 10; got != want {
			t.Errorf("IsDecimal(%X) = %v, want %v", n, got, want)
		}
	}
}
