// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"errors"
	"testing"
)

const wrappedSIDFile = `{
  "ietf-sid-file:sid-file": {
    "module-name": "test-interfaces",
    "items": [
      {"sid": 1500, "namespace": "module", "identifier": "test-interfaces"},
      {"sid": 2033, "namespace": "data", "identifier": "/test-interfaces:interfaces"},
      {"sid": 2034, "namespace": "data", "identifier": "/test-interfaces:interfaces/interface"},
      {"sid": 2035, "namespace": "data", "identifier": "/test-interfaces:interfaces/interface/name"},
      {"sid": 1880, "namespace": "identity", "identifier": "iana-if-type:ethernetCsmacd"},
      {"sid": 1700, "namespace": "feature", "identifier": "test-interfaces:arbitrary-names"}
    ]
  }
}`

func TestParseSIDFileWrapped(t *testing.T) {
	tree, err := ParseSIDFile("test.sid", []byte(wrappedSIDFile))
	if err != nil {
		t.Fatalf("ParseSIDFile: %v", err)
	}

	if got := tree.PathToSid["interfaces/interface/name"]; got != 2035 {
		t.Errorf("stripped path SID = %d, want 2035", got)
	}
	if got := tree.PrefixedPathToSid["test-interfaces:interfaces/interface"]; got != 2034 {
		t.Errorf("prefixed path SID = %d, want 2034", got)
	}
	if got := tree.SidToPath[2033]; got != "interfaces" {
		t.Errorf("SidToPath[2033] = %q, want interfaces", got)
	}
	if got := tree.PathToPrefixed["interfaces"]; got != "test-interfaces:interfaces" {
		t.Errorf("PathToPrefixed = %q", got)
	}
	if got := tree.Modules["test-interfaces"]; got != 1500 {
		t.Errorf("module SID = %d, want 1500", got)
	}
}

func TestParseSIDFileIdentities(t *testing.T) {
	tree, err := ParseSIDFile("test.sid", []byte(wrappedSIDFile))
	if err != nil {
		t.Fatalf("ParseSIDFile: %v", err)
	}

	// Identities resolve by both bare and module-qualified name.
	if got := tree.IdentityToSid["ethernetCsmacd"]; got != 1880 {
		t.Errorf("bare identity SID = %d, want 1880", got)
	}
	if got := tree.IdentityToSid["iana-if-type:ethernetCsmacd"]; got != 1880 {
		t.Errorf("qualified identity SID = %d, want 1880", got)
	}
	if got := tree.SidToIdentity[1880]; got != "iana-if-type:ethernetCsmacd" {
		t.Errorf("SidToIdentity = %q", got)
	}
	if got := tree.PathToSid["identity:ethernetCsmacd"]; got != 1880 {
		t.Errorf("synthetic identity path SID = %d, want 1880", got)
	}
	if got := tree.PrefixedPathToSid["feature:test-interfaces:arbitrary-names"]; got != 1700 {
		t.Errorf("synthetic feature path SID = %d, want 1700", got)
	}
}

func TestParseSIDFilePlainForm(t *testing.T) {
	plain := `{
  "items": [
    {"sid": 100, "namespace": "data", "identifier": "/m:a"},
    {"sid": 103, "namespace": "data", "identifier": "/m:a/m:b"}
  ]
}`
	tree, err := ParseSIDFile("plain.sid", []byte(plain))
	if err != nil {
		t.Fatalf("ParseSIDFile: %v", err)
	}
	if got := tree.PathToSid["a/b"]; got != 103 {
		t.Errorf("a/b = %d, want 103", got)
	}
}

func TestParseSIDFileJSONC(t *testing.T) {
	annotated := `{
  // assigned by the vendor's registry
  "items": [
    {"sid": 100, "namespace": "data", "identifier": "/m:a"}, // root container
  ]
}`
	tree, err := ParseSIDFile("annotated.sid", []byte(annotated))
	if err != nil {
		t.Fatalf("ParseSIDFile with comments: %v", err)
	}
	if got := tree.PathToSid["a"]; got != 100 {
		t.Errorf("a = %d, want 100", got)
	}
}

func TestParseSIDFileLeafIndex(t *testing.T) {
	tree, err := ParseSIDFile("test.sid", []byte(wrappedSIDFile))
	if err != nil {
		t.Fatalf("ParseSIDFile: %v", err)
	}
	paths := tree.LeafToPaths["name"]
	if len(paths) != 1 || paths[0] != "interfaces/interface/name" {
		t.Errorf("LeafToPaths[name] = %v", paths)
	}
}

func TestParseSIDFileNoParents(t *testing.T) {
	// Parent relations are a merge-time concern: augmentation can
	// cross files, so per-file trees must not precompute them.
	tree, err := ParseSIDFile("test.sid", []byte(wrappedSIDFile))
	if err != nil {
		t.Fatalf("ParseSIDFile: %v", err)
	}
	if len(tree.NodeInfo) != 0 {
		t.Errorf("per-file tree has %d NodeInfo entries, want 0", len(tree.NodeInfo))
	}
}

func TestParseSIDFileErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "items: [}"},
		{"no items", `{"module-name": "x"}`},
		{"empty identifier", `{"items": [{"sid": 1, "namespace": "data", "identifier": ""}]}`},
		{"unknown namespace", `{"items": [{"sid": 1, "namespace": "rpc", "identifier": "x"}]}`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseSIDFile("bad.sid", []byte(test.input))
			if err == nil {
				t.Fatal("parse succeeded, want error")
			}
			var parseError *ParseError
			if !errors.As(err, &parseError) {
				t.Errorf("error is %T, want *ParseError", err)
			}
		})
	}
}
