// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with preferred serialization
// (RFC 8949 §4.1): smallest integer encoding, no indefinite-length
// items. Map ordering is left to the caller; the Delta-SID encoder
// writes map headers and members itself so that member order follows
// its own sort mode, which a sorting encoder mode would override.
var encMode cbor.EncMode

// decMode is the CBOR decoder configured to accept standard CBOR,
// including the indefinite-length maps some device firmware emits.
// The default map type (map[any]any) is kept deliberately: YANG-CBOR
// map keys are integers, and forcing map[string]any would fail on
// every payload.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.PreferredUnsortedEncOptions()
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using preferred serialization.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encoder is a CBOR stream encoder. Type alias so consumers import
// only lib/codec, not fxamacker/cbor directly.
type Encoder = cbor.Encoder

// Decoder is a CBOR stream decoder. Type alias so consumers import
// only lib/codec, not fxamacker/cbor directly.
type Decoder = cbor.Decoder

// RawMessage is a raw encoded CBOR value. The Delta-SID encoder builds
// map bodies out of RawMessage pairs so that member order survives.
type RawMessage = cbor.RawMessage

// Tag is a tagged CBOR value. The value codec uses tags 4 (decimal
// fraction), 44 (identityref SID in a union), and 45 (enum in a
// union).
type Tag = cbor.Tag

// NewEncoder returns a CBOR encoder that writes to w using the
// standard encoding configuration.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a CBOR decoder that reads from r using the
// standard decoding configuration.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for the
// entire contents of data.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}

// DiagnoseFirst returns the CBOR diagnostic notation for the first
// data item in data, along with the remaining unconsumed bytes. Use
// this to process CBOR sequences one item at a time.
func DiagnoseFirst(data []byte) (string, []byte, error) {
	return cbor.DiagnoseFirst(data)
}
