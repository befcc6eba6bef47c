// Package tlv maps BER-TLV data, such as the FCP template of a SELECT response, onto Go structs
// through `tlv:"<tag>"` struct tags.
package tlv

import (
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// ErrTagNotFound is returned by Find when no top-level packet carries the tag.
var ErrTagNotFound = errors.New("tag not found")

// Unmarshaler lets a field type decode its own value bytes.
type Unmarshaler interface {
	UnmarshalTLV(data []byte) error
}

// Unmarshal decodes data and maps the top-level packets onto target, a pointer to struct.
//
// Supported field types are []byte (raw value), string (upper-case hex), nested structs for
// constructed tags, slices of those for repeated tags, and Unmarshaler implementations.
// Packets no field claims are collected in a []bertlv.TLV field tagged `tlv:",unknown"`.
func Unmarshal(data []byte, target any) error {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return fmt.Errorf("bertlv decode: %w", err)
	}
	return UnmarshalPackets(packets, target)
}

// UnmarshalPackets maps already decoded packets onto target.
func UnmarshalPackets(packets []bertlv.TLV, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("tlv target must be a non-nil pointer, got %T", target)
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("tlv target must point to a struct, got %T", target)
	}
	t := v.Type()

	claimed := make([]bool, len(packets))
	unknown := -1

	for i := 0; i < t.NumField(); i++ {
		raw := t.Field(i).Tag.Get("tlv")
		if raw == ",unknown" {
			unknown = i
			continue
		}
		tag, _, _ := strings.Cut(raw, ",")
		if tag == "" {
			continue
		}
		for j, p := range packets {
			if !strings.EqualFold(p.Tag, tag) {
				continue
			}
			if err := assign(p, v.Field(i)); err != nil {
				return fmt.Errorf("tag %s: %w", strings.ToUpper(tag), err)
			}
			claimed[j] = true
		}
	}

	if unknown < 0 {
		return nil
	}
	var rest []bertlv.TLV
	for j, p := range packets {
		if !claimed[j] {
			rest = append(rest, p)
		}
	}
	if len(rest) > 0 {
		v.Field(unknown).Set(reflect.ValueOf(rest))
	}
	return nil
}

// assign stores one packet in field, appending when the field is a slice of structs.
func assign(p bertlv.TLV, field reflect.Value) error {
	if field.Kind() == reflect.Slice && !isBytes(field) {
		elem := reflect.New(field.Type().Elem()).Elem()
		if err := decodeInto(p, elem); err != nil {
			return err
		}
		field.Set(reflect.Append(field, elem))
		return nil
	}
	return decodeInto(p, field)
}

func decodeInto(p bertlv.TLV, field reflect.Value) error {
	if field.CanAddr() {
		if u, ok := field.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalTLV(rawValue(p))
		}
	}

	switch {
	case isBytes(field):
		field.SetBytes(rawValue(p))
	case field.Kind() == reflect.String:
		field.SetString(strings.ToUpper(hex.EncodeToString(rawValue(p))))
	case field.Kind() == reflect.Struct:
		return decodeStruct(p, field.Addr())
	case field.Kind() == reflect.Pointer && field.Type().Elem().Kind() == reflect.Struct:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return decodeStruct(p, field)
	}
	return nil
}

func decodeStruct(p bertlv.TLV, ptr reflect.Value) error {
	if len(p.TLVs) > 0 {
		return UnmarshalPackets(p.TLVs, ptr.Interface())
	}
	return Unmarshal(p.Value, ptr.Interface())
}

// rawValue returns the value bytes of p, re-encoding the children of a constructed packet.
func rawValue(p bertlv.TLV) []byte {
	if len(p.TLVs) > 0 {
		if enc, err := bertlv.Encode(p.TLVs); err == nil {
			return enc
		}
	}
	return p.Value
}

// Find returns the value of the first top-level packet tagged tag.
func Find(data []byte, tag uint) ([]byte, error) {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("bertlv decode: %w", err)
	}
	want := fmt.Sprintf("%X", tag)
	for _, p := range packets {
		if strings.EqualFold(p.Tag, want) {
			return rawValue(p), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTagNotFound, want)
}

func isBytes(v reflect.Value) bool {
	return v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8
}
