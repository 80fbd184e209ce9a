// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

// Package transcode converts between operator-facing YAML and the
// RFC 9254 Delta-SID CBOR payloads the device accepts.
//
// Encoding accepts two YAML shapes: a sequence of instance-identifier
// entries (the authoring form) and a hierarchical document (the form
// decoding produces), and emits one nested CBOR map whose keys are
// Delta-SIDs where the schema's parent relation holds and absolute
// SIDs where it does not (augmentation). Decoding reverses the
// pipeline, expanding keys against the same tables and reconstructing
// a prefixed hierarchical document.
//
// Both directions are pure given the schema tables: no state is
// shared between calls, output is deterministic, and any failure
// surfaces as a tagged error carrying the offending path, SID, or
// value. The only internal recovery is the unknown-type fallback,
// which encodes the value as a string and logs a warning.
package transcode
