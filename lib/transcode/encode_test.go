// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package transcode

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/tsn-tools/tsnctl/lib/codec"
	"github.com/tsn-tools/tsnctl/lib/schema"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	data, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex fixture %q: %v", s, err)
	}
	return data
}

func TestEncodeListEntryWithDeltas(t *testing.T) {
	input := `- /ietf-interfaces:interfaces/interface[name='1']/enabled: true`

	payload, err := EncodeYAML([]byte(input), testTables(), EncodeOptions{})
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}

	// {2033: {1: [{1: "1", 2: true}]}} — interface is delta 1 from
	// interfaces, the list key and enabled are deltas 1 and 2 from
	// the list node.
	want := mustHex(t, "a11907f1a10181a201613102f5")
	if !bytes.Equal(payload, want) {
		t.Errorf("payload = %x, want %x", payload, want)
	}
}

func TestEncodeNullLeafDelta(t *testing.T) {
	input := `- /m:a/m:b: null`

	payload, err := EncodeYAML([]byte(input), testTables(), EncodeOptions{})
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}

	// {100: {3: null}}
	want := mustHex(t, "a11864a103f6")
	if !bytes.Equal(payload, want) {
		t.Errorf("payload = %x, want %x", payload, want)
	}
}

func TestEncodeEmptyListNotOmitted(t *testing.T) {
	input := `- /ietf-interfaces:interfaces/interface:`

	payload, err := EncodeYAML([]byte(input), testTables(), EncodeOptions{})
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}

	// {2033: {1: []}}
	want := mustHex(t, "a11907f1a10180")
	if !bytes.Equal(payload, want) {
		t.Errorf("payload = %x, want %x", payload, want)
	}
}

func TestEncodeHierarchicalInput(t *testing.T) {
	instanceForm := `- /ietf-interfaces:interfaces/interface[name='1']/enabled: true`
	hierarchicalForm := `
ietf-interfaces:interfaces:
  interface:
    - name: "1"
      enabled: true
`
	tables := testTables()
	fromInstance, err := EncodeYAML([]byte(instanceForm), tables, EncodeOptions{})
	if err != nil {
		t.Fatalf("EncodeYAML(instance): %v", err)
	}
	fromHierarchical, err := EncodeYAML([]byte(hierarchicalForm), tables, EncodeOptions{})
	if err != nil {
		t.Fatalf("EncodeYAML(hierarchical): %v", err)
	}
	if !bytes.Equal(fromInstance, fromHierarchical) {
		t.Errorf("forms diverge: %x vs %x", fromInstance, fromHierarchical)
	}
}

func TestEncodeMultipleEntriesShareListEntry(t *testing.T) {
	input := `
- /ietf-interfaces:interfaces/interface[name='1']/enabled: true
- /ietf-interfaces:interfaces/interface[name='1']/state: open
- /ietf-interfaces:interfaces/interface[name='2']/enabled: false
`
	payload, err := EncodeYAML([]byte(input), testTables(), EncodeOptions{})
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}

	// {2033: {1: [{1:"1", 2:true, 3:0}, {1:"2", 2:false}]}}: entries
	// with the same predicate merge, the enum encodes to its value,
	// and entries keep first-seen order.
	want := mustHex(t, "a11907f1a10182a301613102f50300a201613202f4")
	if !bytes.Equal(payload, want) {
		t.Errorf("payload = %x, want %x", payload, want)
	}
}

func TestEncodeSchemaOrder(t *testing.T) {
	// Input order is state-before-enabled; output order must follow the
	// schema's declared order (name, enabled, state).
	input := `
- /ietf-interfaces:interfaces/interface[name='1']/state: open
- /ietf-interfaces:interfaces/interface[name='1']/enabled: true
`
	payload, err := EncodeYAML([]byte(input), testTables(), EncodeOptions{})
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	want := mustHex(t, "a11907f1a10181a3016131"+"02f5"+"0300")
	if !bytes.Equal(payload, want) {
		t.Errorf("payload = %x, want %x", payload, want)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	input := `
- /ietf-interfaces:interfaces/interface[name='1']/enabled: true
- /ietf-interfaces:interfaces/interface[name='1']/state: closed
`
	tables := testTables()
	first, err := EncodeYAML([]byte(input), tables, EncodeOptions{})
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	for range 5 {
		again, err := EncodeYAML([]byte(input), tables, EncodeOptions{})
		if err != nil {
			t.Fatalf("EncodeYAML: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("non-deterministic output: %x vs %x", first, again)
		}
	}
}

func TestEncodeSortModeRFC8949(t *testing.T) {
	input := `
- /m:a/m:b: null
- /m2:x: true
`
	payload, err := EncodeYAML([]byte(input), testTables(), EncodeOptions{SortMode: SortRFC8949})
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	// Keys 100 (0x1864) and 99 (0x1863) sort bytewise: 99 first.
	want := mustHex(t, "a21863f51864a103f6")
	if !bytes.Equal(payload, want) {
		t.Errorf("payload = %x, want %x", payload, want)
	}
}

func TestEncodeDeltaInvariant(t *testing.T) {
	input := `- /ietf-interfaces:interfaces/interface[name='1']/enabled: true`
	tables := testTables()
	payload, err := EncodeYAML([]byte(input), tables, EncodeOptions{})
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}

	// Walk the emitted tree: every non-root key must either be a
	// delta whose sum with the parent SID is a node whose parent is
	// that SID, or an absolute SID unrelated to the parent.
	var decoded any
	if err := codec.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	var check func(value any, parent schema.SID, atRoot bool)
	check = func(value any, parent schema.SID, atRoot bool) {
		switch typed := value.(type) {
		case map[any]any:
			for key, child := range typed {
				var keyInt int64
				switch k := key.(type) {
				case uint64:
					keyInt = int64(k)
				case int64:
					keyInt = k
				default:
					t.Fatalf("non-integer key %v", key)
				}
				var sid schema.SID
				if atRoot {
					sid = schema.SID(keyInt)
					if _, ok := tables.Tree.SidToPath[sid]; !ok {
						t.Fatalf("root key %d is not an absolute SID", keyInt)
					}
				} else {
					candidate := schema.SID(int64(parent) + keyInt)
					path, ok := tables.Tree.SidToPath[candidate]
					if ok && tables.Tree.NodeInfo[path].HasParent && tables.Tree.NodeInfo[path].Parent == parent {
						sid = candidate
					} else if _, ok := tables.Tree.SidToPath[schema.SID(keyInt)]; ok {
						sid = schema.SID(keyInt)
					} else {
						t.Fatalf("key %d under %d is neither delta nor absolute", keyInt, parent)
					}
				}
				check(child, sid, false)
			}
		case []any:
			for _, entry := range typed {
				check(entry, parent, false)
			}
		}
	}
	check(decoded, 0, true)
}

func TestEncodeUnresolvedPath(t *testing.T) {
	input := `- /no-such:thing/here: 1`
	_, err := EncodeYAML([]byte(input), testTables(), EncodeOptions{})
	if err == nil {
		t.Fatal("EncodeYAML succeeded on an unresolvable path")
	}
}
