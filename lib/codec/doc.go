// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides tsnctl's standard CBOR encoding configuration.
//
// The toolchain speaks two serialization formats with a clear boundary:
//
//   - YAML for the operator: instance-identifier documents going to the
//     device, hierarchical documents coming back, and the tool's own
//     configuration file.
//   - CBOR for the device: RFC 9254 YANG-CBOR payloads whose map keys
//     are SIDs (unsigned integers) or Delta-SIDs (possibly negative).
//
// This package provides the shared CBOR encoding and decoding modes so
// that every package encodes identically without duplicating
// configuration. The encoder uses preferred serialization (RFC 8949
// §4.1): smallest integer encoding, definite-length items. Map member
// order is controlled by the caller (the Delta-SID encoder writes each
// map header and its members itself), so the mode itself does not
// sort.
//
// The decoder keeps CBOR's native key types: a YANG-CBOR map decoded
// into any has uint64 or int64 keys, never strings. Tagged values
// (decimal fractions, union discriminators) surface as cbor.Tag so the
// value codec can dispatch on the tag number.
package codec
