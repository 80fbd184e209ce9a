// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package transcode

import (
	"github.com/tsn-tools/tsnctl/lib/schema"
)

// testTables builds a small schema by hand:
//
//	ietf-interfaces:interfaces          2033  container
//	  interface                         2034  list, key "name"
//	    name                            2035  string
//	    enabled                         2036  boolean
//	    state                           2037  enumeration {open:0, closed:1}
//	    type                            2038  identityref
//	    bandwidth                       2039  decimal64 fd=2
//	m:a                                 100   container
//	  m:a/m:b                           103   empty leaf
//	m2:x                                99    boolean leaf, no parent
//
// plus identity iana-if-type:ethernetCsmacd = 1880. SID 99 existing as
// an independent root exercises the delta/absolute disambiguation.
func testTables() *schema.Tables {
	tree := schema.NewSidTree()
	types := schema.NewTypeTable()

	add := func(sid schema.SID, stripped, prefixed string, parent schema.SID, hasParent bool) {
		tree.PathToSid[stripped] = sid
		tree.SidToPath[sid] = stripped
		tree.PrefixedPathToSid[prefixed] = sid
		tree.SidToPrefixedPath[sid] = prefixed
		tree.PathToPrefixed[stripped] = prefixed
		segments := 1
		for _, c := range stripped {
			if c == '/' {
				segments++
			}
		}
		info := &schema.NodeInfo{
			SID:          sid,
			Depth:        segments,
			DeltaSID:     int64(sid),
			PrefixedPath: prefixed,
		}
		if hasParent {
			info.Parent = parent
			info.HasParent = true
			info.DeltaSID = int64(sid) - int64(parent)
		}
		tree.NodeInfo[stripped] = info
		leaf := stripped
		for i := len(stripped) - 1; i >= 0; i-- {
			if stripped[i] == '/' {
				leaf = stripped[i+1:]
				break
			}
		}
		tree.LeafToPaths[leaf] = append(tree.LeafToPaths[leaf], stripped)
	}

	add(2033, "interfaces", "ietf-interfaces:interfaces", 0, false)
	add(2034, "interfaces/interface", "ietf-interfaces:interfaces/interface", 2033, true)
	add(2035, "interfaces/interface/name", "ietf-interfaces:interfaces/interface/name", 2034, true)
	add(2036, "interfaces/interface/enabled", "ietf-interfaces:interfaces/interface/enabled", 2034, true)
	add(2037, "interfaces/interface/state", "ietf-interfaces:interfaces/interface/state", 2034, true)
	add(2038, "interfaces/interface/type", "ietf-interfaces:interfaces/interface/type", 2034, true)
	add(2039, "interfaces/interface/bandwidth", "ietf-interfaces:interfaces/interface/bandwidth", 2034, true)
	add(100, "a", "m:a", 0, false)
	add(103, "a/b", "m:a/m:b", 100, true)
	add(99, "x", "m2:x", 0, false)

	tree.IdentityToSid["ethernetCsmacd"] = 1880
	tree.IdentityToSid["iana-if-type:ethernetCsmacd"] = 1880
	tree.SidToIdentity[1880] = "iana-if-type:ethernetCsmacd"

	types.ListPaths["interfaces/interface"] = true
	types.ListKeys["interfaces/interface"] = []string{"name"}
	types.Types["interfaces/interface/name"] = &schema.TypeInfo{Kind: schema.KindString}
	types.Types["interfaces/interface/enabled"] = &schema.TypeInfo{Kind: schema.KindBoolean}
	types.Types["interfaces/interface/state"] = &schema.TypeInfo{
		Kind:            schema.KindEnumeration,
		EnumNameToValue: map[string]int64{"open": 0, "closed": 1},
		EnumValueToName: map[int64]string{0: "open", 1: "closed"},
	}
	types.Types["interfaces/interface/type"] = &schema.TypeInfo{
		Kind: schema.KindIdentityref,
		Base: "iana-if-type:iana-interface-type",
	}
	types.Types["interfaces/interface/bandwidth"] = &schema.TypeInfo{
		Kind:           schema.KindDecimal64,
		FractionDigits: 2,
	}
	types.Types["a/b"] = &schema.TypeInfo{Kind: schema.KindEmpty}
	types.Types["x"] = &schema.TypeInfo{Kind: schema.KindBoolean}

	for index, name := range []string{"name", "enabled", "state", "type", "bandwidth"} {
		types.NodeOrders[name] = index
	}

	return &schema.Tables{Tree: tree, Types: types}
}
