// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package transcode

import (
	"bytes"
	"reflect"
	"testing"
)

func TestExtractQueries(t *testing.T) {
	input := `
- /ietf-interfaces:interfaces/interface[name='1']
- /ietf-interfaces:interfaces/interface[name='1']/enabled
- /m:a/m:b
`
	queries, err := ExtractQueries([]byte(input), testTables())
	if err != nil {
		t.Fatalf("ExtractQueries: %v", err)
	}

	want := []Query{
		{SID: 2034, Keys: []any{"1"}},
		{SID: 2036, Keys: []any{"1"}},
		{SID: 103},
	}
	if !reflect.DeepEqual(queries, want) {
		t.Errorf("queries = %+v, want %+v", queries, want)
	}
}

func TestEncodeQueriesLeaf(t *testing.T) {
	payload, err := EncodeQueries([]Query{{SID: 103}})
	if err != nil {
		t.Fatalf("EncodeQueries: %v", err)
	}
	if !bytes.Equal(payload, mustHex(t, "1867")) {
		t.Errorf("payload = %x, want 1867", payload)
	}
}

func TestEncodeQueriesListEntry(t *testing.T) {
	payload, err := EncodeQueries([]Query{{SID: 2034, Keys: []any{"1"}}})
	if err != nil {
		t.Fatalf("EncodeQueries: %v", err)
	}
	// [2034, "1"]
	if !bytes.Equal(payload, mustHex(t, "821907f26131")) {
		t.Errorf("payload = %x", payload)
	}
}

func TestEncodeQueriesSequence(t *testing.T) {
	payload, err := EncodeQueries([]Query{
		{SID: 2034, Keys: []any{"1"}},
		{SID: 103},
	})
	if err != nil {
		t.Fatalf("EncodeQueries: %v", err)
	}
	want := append(mustHex(t, "821907f26131"), mustHex(t, "1867")...)
	if !bytes.Equal(payload, want) {
		t.Errorf("payload = %x, want %x", payload, want)
	}
}

func TestExtractQueriesRejectsMapping(t *testing.T) {
	if _, err := ExtractQueries([]byte("a: b"), testTables()); err == nil {
		t.Fatal("ExtractQueries accepted a mapping")
	}
}
