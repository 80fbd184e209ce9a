// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package transcode

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/tsn-tools/tsnctl/lib/codec"
	"github.com/tsn-tools/tsnctl/lib/schema"
)

func testValueCodec() *valueCodec {
	return &valueCodec{
		tables: testTables(),
		logger: slog.New(slog.DiscardHandler),
	}
}

func TestEncodeEnumeration(t *testing.T) {
	values := testValueCodec()
	info := testTables().Types.Types["interfaces/interface/state"]

	encoded, err := values.encode("interfaces/interface/state", info, "open")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if encoded != int64(0) {
		t.Errorf("encode(open) = %v, want 0", encoded)
	}

	_, err = values.encode("interfaces/interface/state", info, "ajar")
	var enumError *EnumError
	if !errors.As(err, &enumError) {
		t.Fatalf("encode(ajar) = %v, want *EnumError", err)
	}
}

func TestDecodeEnumeration(t *testing.T) {
	values := testValueCodec()
	info := testTables().Types.Types["interfaces/interface/state"]

	decoded, err := values.decode("interfaces/interface/state", info, uint64(1))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != "closed" {
		t.Errorf("decode(1) = %v, want closed", decoded)
	}

	_, err = values.decode("interfaces/interface/state", info, uint64(7))
	var enumError *EnumError
	if !errors.As(err, &enumError) {
		t.Fatalf("decode(7) = %v, want *EnumError", err)
	}
}

func TestEncodeIdentityref(t *testing.T) {
	values := testValueCodec()
	info := &schema.TypeInfo{Kind: schema.KindIdentityref}

	// Both the bare and module-qualified forms resolve.
	for _, name := range []string{"ethernetCsmacd", "iana-if-type:ethernetCsmacd"} {
		encoded, err := values.encode("interfaces/interface/type", info, name)
		if err != nil {
			t.Fatalf("encode(%q): %v", name, err)
		}
		if encoded != uint64(1880) {
			t.Errorf("encode(%q) = %v, want 1880", name, encoded)
		}
	}

	_, err := values.encode("interfaces/interface/type", info, "noSuchIdentity")
	var identityError *IdentityError
	if !errors.As(err, &identityError) {
		t.Fatalf("encode unknown identity = %v, want *IdentityError", err)
	}
}

func TestDecodeIdentityref(t *testing.T) {
	values := testValueCodec()
	info := &schema.TypeInfo{Kind: schema.KindIdentityref}

	decoded, err := values.decode("interfaces/interface/type", info, uint64(1880))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != "iana-if-type:ethernetCsmacd" {
		t.Errorf("decode(1880) = %v", decoded)
	}
}

func TestEncodeDecimal64(t *testing.T) {
	values := testValueCodec()
	info := &schema.TypeInfo{Kind: schema.KindDecimal64, FractionDigits: 2}

	encoded, err := values.encode("interfaces/interface/bandwidth", info, 3.14)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	data, err := codec.Marshal(encoded)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// tag(4, [-2, 314])
	want := []byte{0xc4, 0x82, 0x21, 0x19, 0x01, 0x3a}
	if !bytes.Equal(data, want) {
		t.Errorf("encode(3.14) = %x, want %x", data, want)
	}
}

func TestEncodeDecimal64ZeroFractionDigits(t *testing.T) {
	values := testValueCodec()
	info := &schema.TypeInfo{Kind: schema.KindDecimal64, FractionDigits: 0}

	encoded, err := values.encode("p", info, int64(7))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	tag, ok := encoded.(codec.Tag)
	if !ok {
		t.Fatalf("encoded to %T, want Tag", encoded)
	}
	content := tag.Content.([]any)
	if content[0] != int64(0) {
		t.Errorf("exponent = %v, want 0", content[0])
	}
	if content[1] != int64(7) {
		t.Errorf("mantissa = %v, want 7", content[1])
	}
}

func TestDecodeDecimal64(t *testing.T) {
	values := testValueCodec()
	info := &schema.TypeInfo{Kind: schema.KindDecimal64, FractionDigits: 2}

	decoded, err := values.decode("p", info, codec.Tag{Number: 4, Content: []any{int64(-2), int64(314)}})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != decimalString("3.14") {
		t.Errorf("decode = %v, want 3.14", decoded)
	}

	decoded, err = values.decode("p", info, codec.Tag{Number: 4, Content: []any{int64(-3), int64(-5)}})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != decimalString("-0.005") {
		t.Errorf("decode = %v, want -0.005", decoded)
	}
}

func TestUnionTags(t *testing.T) {
	values := testValueCodec()
	info := &schema.TypeInfo{
		Kind: schema.KindUnion,
		Members: []*schema.TypeInfo{
			{Kind: schema.KindUint16},
			{
				Kind:            schema.KindEnumeration,
				EnumNameToValue: map[string]int64{"disabled": 0},
				EnumValueToName: map[int64]string{0: "disabled"},
			},
			{Kind: schema.KindIdentityref},
		},
	}

	// Plain member: no tag.
	encoded, err := values.encode("p", info, uint64(42))
	if err != nil {
		t.Fatalf("encode(42): %v", err)
	}
	if encoded != uint64(42) {
		t.Errorf("encode(42) = %v", encoded)
	}

	// Enum member: tag 45.
	encoded, err = values.encode("p", info, "disabled")
	if err != nil {
		t.Fatalf("encode(disabled): %v", err)
	}
	tag, ok := encoded.(codec.Tag)
	if !ok || tag.Number != 45 {
		t.Fatalf("encode(disabled) = %#v, want tag 45", encoded)
	}

	// Identity member: tag 44.
	encoded, err = values.encode("p", info, "ethernetCsmacd")
	if err != nil {
		t.Fatalf("encode(identity): %v", err)
	}
	tag, ok = encoded.(codec.Tag)
	if !ok || tag.Number != 44 {
		t.Fatalf("encode(identity) = %#v, want tag 44", encoded)
	}

	// Decode dispatches on the tag.
	decoded, err := values.decode("p", info, codec.Tag{Number: 45, Content: uint64(0)})
	if err != nil {
		t.Fatalf("decode tag 45: %v", err)
	}
	if decoded != "disabled" {
		t.Errorf("decode tag 45 = %v", decoded)
	}
	decoded, err = values.decode("p", info, codec.Tag{Number: 44, Content: uint64(1880)})
	if err != nil {
		t.Fatalf("decode tag 44: %v", err)
	}
	if decoded != "iana-if-type:ethernetCsmacd" {
		t.Errorf("decode tag 44 = %v", decoded)
	}
	decoded, err = values.decode("p", info, uint64(17))
	if err != nil {
		t.Fatalf("decode untagged: %v", err)
	}
	if decoded != uint64(17) {
		t.Errorf("decode untagged = %v", decoded)
	}
}

func TestBitsRoundTrip(t *testing.T) {
	values := testValueCodec()
	info := &schema.TypeInfo{
		Kind:              schema.KindBits,
		BitNameToPosition: map[string]uint64{"promiscuous": 0, "multicast": 5},
	}

	encoded, err := values.encode("p", info, "multicast promiscuous")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	positions, ok := encoded.([]uint64)
	if !ok || len(positions) != 2 || positions[0] != 0 || positions[1] != 5 {
		t.Fatalf("encode = %#v, want [0 5]", encoded)
	}

	decoded, err := values.decode("p", info, []any{uint64(0), uint64(5)})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != "promiscuous multicast" {
		t.Errorf("decode = %q", decoded)
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	values := testValueCodec()
	info := &schema.TypeInfo{Kind: schema.KindBinary}

	encoded, err := values.encode("p", info, "aGVsbG8=")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(encoded.([]byte), []byte("hello")) {
		t.Errorf("encode = %v", encoded)
	}

	decoded, err := values.decode("p", info, []byte("hello"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != "aGVsbG8=" {
		t.Errorf("decode = %v", decoded)
	}
}

func TestUnknownTypeFallsBackToString(t *testing.T) {
	values := testValueCodec()
	info := &schema.TypeInfo{Kind: schema.KindUnknown}

	encoded, err := values.encode("p", info, int64(42))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if encoded != "42" {
		t.Errorf("encode = %v, want the string fallback", encoded)
	}
}
