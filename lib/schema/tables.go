// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"strings"
)

// SID is a Schema Item Identifier (RFC 9254): a compact unsigned
// integer uniquely identifying a schema node, identity, feature, or
// module within a deployment. Values fit in 32 bits in practice; the
// type is 64-bit so Delta-SID arithmetic never overflows.
type SID uint64

// NodeInfo is the per-data-node record computed during the merge. The
// parent of a path is the longest proper prefix of that path that is
// itself a known data path — augmentation means the parent may come
// from a different module and a different SID file.
type NodeInfo struct {
	// SID is the node's absolute SID.
	SID SID `json:"sid"`

	// Parent is the parent node's SID. Only meaningful when
	// HasParent is true; top-of-tree nodes have none.
	Parent SID `json:"parent,omitempty"`

	// HasParent reports whether the node has a parent data node.
	HasParent bool `json:"hasParent,omitempty"`

	// DeltaSID is sid − parent when a parent exists, else the SID
	// itself. Signed: augmented children can have a lower SID than
	// their parent.
	DeltaSID int64 `json:"deltaSid"`

	// Depth is the number of path segments.
	Depth int `json:"depth"`

	// PrefixedPath is the node's path with module prefixes as they
	// appear in the SID file identifier.
	PrefixedPath string `json:"prefixedPath"`
}

// SidTree is the global path ↔ SID cross-reference. All maps are
// populated during Build and read-only afterwards.
//
// Identity and feature items live in synthetic "identity:" and
// "feature:" path namespaces so that one tree serves all four SID
// namespaces without key collisions.
type SidTree struct {
	// PathToSid maps stripped data paths (no module prefixes) to
	// SIDs. Bijective with SidToPath on canonical data nodes;
	// choice/case alias paths map here too but have no reverse
	// entry.
	PathToSid map[string]SID `json:"pathToSid"`

	// SidToPath maps SIDs back to their canonical stripped path.
	SidToPath map[SID]string `json:"sidToPath"`

	// PrefixedPathToSid maps prefixed paths (module prefixes kept as
	// written in the SID file) to SIDs.
	PrefixedPathToSid map[string]SID `json:"prefixedPathToSid"`

	// SidToPrefixedPath maps SIDs to their canonical prefixed path.
	SidToPrefixedPath map[SID]string `json:"sidToPrefixedPath"`

	// PathToPrefixed maps stripped paths to their prefixed form.
	PathToPrefixed map[string]string `json:"pathToPrefixed"`

	// IdentityToSid maps identity names to SIDs, keyed by both the
	// bare name and the module-qualified "module:name" form.
	IdentityToSid map[string]SID `json:"identityToSid"`

	// SidToIdentity maps identity SIDs to the module-qualified name
	// when the SID file carried a module, else the bare name.
	SidToIdentity map[SID]string `json:"sidToIdentity"`

	// NodeInfo holds the per-node record, keyed by canonical
	// stripped path.
	NodeInfo map[string]*NodeInfo `json:"nodeInfo"`

	// LeafToPaths indexes every data path by its final segment. Used
	// for fuzzy resolution when an instance-identifier omits
	// intermediate choice/case segments.
	LeafToPaths map[string][]string `json:"leafToPaths"`

	// Modules maps module names to their module SID.
	Modules map[string]SID `json:"modules"`

	// AliasesApplied is the sentinel preventing alias augmentation
	// from running twice over the same tree.
	AliasesApplied bool `json:"aliasesApplied"`
}

// NewSidTree returns an empty tree with all maps allocated.
func NewSidTree() *SidTree {
	return &SidTree{
		PathToSid:         map[string]SID{},
		SidToPath:         map[SID]string{},
		PrefixedPathToSid: map[string]SID{},
		SidToPrefixedPath: map[SID]string{},
		PathToPrefixed:    map[string]string{},
		IdentityToSid:     map[string]SID{},
		SidToIdentity:     map[SID]string{},
		NodeInfo:          map[string]*NodeInfo{},
		LeafToPaths:       map[string][]string{},
		Modules:           map[string]SID{},
	}
}

// addDataPath records one data node under both path forms and indexes
// its final segment for fuzzy lookup. Later entries win on collision;
// the caller logs collisions when verbose.
func (t *SidTree) addDataPath(stripped, prefixed string, sid SID) {
	t.PathToSid[stripped] = sid
	t.SidToPath[sid] = stripped
	t.PrefixedPathToSid[prefixed] = sid
	t.SidToPrefixedPath[sid] = prefixed
	t.PathToPrefixed[stripped] = prefixed

	leaf := stripped[strings.LastIndexByte(stripped, '/')+1:]
	for _, existing := range t.LeafToPaths[leaf] {
		if existing == stripped {
			return
		}
	}
	t.LeafToPaths[leaf] = append(t.LeafToPaths[leaf], stripped)
}

// Identity describes one YANG identity and the bases it derives from.
type Identity struct {
	// Bases holds the fully qualified "module:identity" names this
	// identity derives from. Empty for root identities.
	Bases []string `json:"bases,omitempty"`
}

// TypeKind discriminates the TypeInfo variant.
type TypeKind string

// TypeInfo variants, following the YANG built-in type system plus the
// derived shapes the codec has to distinguish.
const (
	KindBoolean     TypeKind = "boolean"
	KindString      TypeKind = "string"
	KindInt8        TypeKind = "int8"
	KindInt16       TypeKind = "int16"
	KindInt32       TypeKind = "int32"
	KindInt64       TypeKind = "int64"
	KindUint8       TypeKind = "uint8"
	KindUint16      TypeKind = "uint16"
	KindUint32      TypeKind = "uint32"
	KindUint64      TypeKind = "uint64"
	KindEnumeration TypeKind = "enumeration"
	KindIdentityref TypeKind = "identityref"
	KindDecimal64   TypeKind = "decimal64"
	KindUnion       TypeKind = "union"
	KindBits        TypeKind = "bits"
	KindBinary      TypeKind = "binary"
	KindEmpty       TypeKind = "empty"
	KindLeafref     TypeKind = "leafref"
	KindUnknown     TypeKind = "unknown"
)

// TypeInfo is the tagged variant describing one YANG type after
// typedef resolution. Only the fields for the active Kind are set.
type TypeInfo struct {
	Kind TypeKind `json:"kind"`

	// Original is the typedef name this type was resolved through,
	// when the leaf's type statement named a typedef. Used by the
	// vendor-prefix merge to rewrite affected leaves.
	Original string `json:"original,omitempty"`

	// EnumNameToValue and EnumValueToName are the enumeration
	// bijection. Both directions are stored explicitly: encode and
	// list-key handling need them simultaneously.
	EnumNameToValue map[string]int64 `json:"enumNameToValue,omitempty"`
	EnumValueToName map[int64]string `json:"enumValueToName,omitempty"`

	// Base is the fully qualified base identity for identityref.
	Base string `json:"base,omitempty"`

	// FractionDigits is the decimal64 scale (1..18; 0 after an
	// explicit fraction-digits 0 is preserved as written).
	FractionDigits int `json:"fractionDigits,omitempty"`

	// Members are the union member types, in declared order.
	Members []*TypeInfo `json:"members,omitempty"`

	// BitNameToPosition maps bit names to their positions for bits.
	BitNameToPosition map[string]uint64 `json:"bitNameToPosition,omitempty"`

	// LeafrefTarget is the leafref path statement, verbatim.
	LeafrefTarget string `json:"leafrefTarget,omitempty"`
}

// TypeTable is the global type catalog. Populated during Build,
// read-only afterwards.
type TypeTable struct {
	// Types maps stripped data paths to the leaf's resolved type.
	Types map[string]*TypeInfo `json:"types"`

	// Identities maps identity names (both bare and "module:name")
	// to their base sets.
	Identities map[string]*Identity `json:"identities"`

	// Typedefs maps typedef names to their resolved type.
	Typedefs map[string]*TypeInfo `json:"typedefs"`

	// ChoiceNames and CaseNames are the schema-node names declared
	// via choice/case statements. Alias augmentation drops these
	// segments from paths.
	ChoiceNames map[string]bool `json:"choiceNames"`
	CaseNames   map[string]bool `json:"caseNames"`

	// NodeOrders maps node names to their declared position among
	// their siblings. Drives deterministic map emission.
	NodeOrders map[string]int `json:"nodeOrders"`

	// ListPaths marks stripped paths declared as list nodes.
	ListPaths map[string]bool `json:"listPaths"`

	// LeafListPaths marks stripped paths declared as leaf-list.
	LeafListPaths map[string]bool `json:"leafListPaths"`

	// ListKeys maps a list's stripped path to its key leaf names in
	// declared order.
	ListKeys map[string][]string `json:"listKeys"`

	// MergedTypedefs records typedef names rewritten by the
	// vendor-prefix merge (both the vendor name and the base name).
	MergedTypedefs map[string]bool `json:"mergedTypedefs"`
}

// NewTypeTable returns an empty table with all maps allocated.
func NewTypeTable() *TypeTable {
	return &TypeTable{
		Types:          map[string]*TypeInfo{},
		Identities:     map[string]*Identity{},
		Typedefs:       map[string]*TypeInfo{},
		ChoiceNames:    map[string]bool{},
		CaseNames:      map[string]bool{},
		NodeOrders:     map[string]int{},
		ListPaths:      map[string]bool{},
		LeafListPaths:  map[string]bool{},
		ListKeys:       map[string][]string{},
		MergedTypedefs: map[string]bool{},
	}
}

// Tables bundles the SID tree and type table for the codec. A Tables
// value is immutable once Build returns it.
type Tables struct {
	Tree  *SidTree   `json:"tree"`
	Types *TypeTable `json:"types"`
}

// TypeForSID returns the type info for the data node with the given
// SID, or nil when the node is unknown or has no recorded type.
func (t *Tables) TypeForSID(sid SID) *TypeInfo {
	path, ok := t.Tree.SidToPath[sid]
	if !ok {
		return nil
	}
	return t.Types.Types[path]
}

// IsList reports whether the data node with the given SID is a YANG
// list.
func (t *Tables) IsList(sid SID) bool {
	path, ok := t.Tree.SidToPath[sid]
	return ok && t.Types.ListPaths[path]
}

// IsLeafList reports whether the data node with the given SID is a
// YANG leaf-list.
func (t *Tables) IsLeafList(sid SID) bool {
	path, ok := t.Tree.SidToPath[sid]
	return ok && t.Types.LeafListPaths[path]
}

// StripPrefixes removes every "module:" segment prefix from a
// slash-separated path. "/a:b/c:d/e" becomes "b/d/e".
func StripPrefixes(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, segment := range segments {
		if colon := strings.IndexByte(segment, ':'); colon >= 0 {
			segments[i] = segment[colon+1:]
		}
	}
	return strings.Join(segments, "/")
}
