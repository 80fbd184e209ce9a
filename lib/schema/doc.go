// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema builds and serves the two cross-referenced tables
// that drive the YANG-CBOR codec: the SID tree (path ↔ SID bijections,
// parent relations, Delta-SID precomputation) and the type table
// (per-leaf YANG type information, identities, typedefs, choice/case
// names, child ordering).
//
// The tables are built once per run from a catalog directory holding
// .yang modules and their .sid companion files:
//
//	tables, err := schema.Build(ctx, catalogDir, schema.Options{})
//
// SID files and YANG modules are parsed in parallel (per-file outputs
// are disjoint), then merged sequentially. The merged result is
// persisted to a versioned cache file; a subsequent Build loads the
// cache when it is newer than every source file, carries the current
// format version, and its recorded BLAKE3 source digests still match.
//
// Once built, a Tables value is immutable and safe for any number of
// concurrent readers. Every encode and decode operation reads the
// tables; nothing ever writes them back.
package schema
