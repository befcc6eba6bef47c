package tlv

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/moov-io/bertlv"
)

type customType struct {
	Val string
}

func (c *customType) UnmarshalTLV(data []byte) error {
	c.Val = "custom:" + hex.EncodeToString(data)
	return nil
}

type nestedStruct struct {
	Version []byte `tlv:"82"`
}

type testStruct struct {
	AID     []byte         `tlv:"84"`
	Label   string         `tlv:"50"`
	Details nestedStruct   `tlv:"A5"`
	Records []nestedStruct `tlv:"70"`
	Custom  customType     `tlv:"9F02"`
	Other   []bertlv.TLV   `tlv:",unknown"`
}

func mustHex(t *testing.T, parts ...string) []byte {
	t.Helper()
	data, err := hex.DecodeString(strings.ReplaceAll(strings.Join(parts, ""), " ", ""))
	if err != nil {
		t.Fatalf("invalid hex in test data: %v", err)
	}
	return data
}

func TestUnmarshal(t *testing.T) {
	raw := mustHex(t,
		"84", "02", "1122", // AID
		"50", "03", "41424A", // label
		"A5", "03", "8201FF", // nested template
		"70", "03", "820101", // first record
		"70", "03", "820102", // second record
		"9F02", "01", "AA", // custom type
		"DF01", "01", "BB", // unknown tag
	)

	var got testStruct
	if err := Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if hex.EncodeToString(got.AID) != "1122" {
		t.Errorf("AID = %X, want 1122", got.AID)
	}
	if got.Label != "41424A" {
		t.Errorf("Label = %s, want upper-case hex 41424A", got.Label)
	}
	if hex.EncodeToString(got.Details.Version) != "ff" {
		t.Errorf("nested Version = %X, want FF", got.Details.Version)
	}
	if len(got.Records) != 2 || got.Records[1].Version[0] != 0x02 {
		t.Errorf("Records = %+v, want two records ending with version 02", got.Records)
	}
	if got.Custom.Val != "custom:aa" {
		t.Errorf("Custom = %s, want custom:aa", got.Custom.Val)
	}
	if len(got.Other) != 1 || !strings.EqualFold(got.Other[0].Tag, "DF01") {
		t.Errorf("unknown tag DF01 not collected: %+v", got.Other)
	}
}

func TestFind(t *testing.T) {
	raw := mustHex(t, "84 02 1122", "50 03 414243")

	t.Run("Existing tag", func(t *testing.T) {
		val, err := Find(raw, 0x84)
		if err != nil {
			t.Fatalf("Find failed: %v", err)
		}
		if hex.EncodeToString(val) != "1122" {
			t.Errorf("Find = %X, want 1122", val)
		}
	})

	t.Run("Missing tag", func(t *testing.T) {
		_, err := Find(raw, 0x99)
		if !errors.Is(err, ErrTagNotFound) {
			t.Errorf("Find err = %v, want ErrTagNotFound", err)
		}
	})
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name   string
		target any
		want   string
	}{
		{"Non-pointer target", testStruct{}, "pointer"},
		{"Pointer to non-struct", new(int), "struct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Unmarshal([]byte{0x84, 0x00}, tt.target)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Unmarshal err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
