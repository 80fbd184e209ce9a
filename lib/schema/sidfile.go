// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// sidItem is one entry of a SID file's item list.
type sidItem struct {
	SID        SID    `json:"sid"`
	Namespace  string `json:"namespace"`
	Identifier string `json:"identifier"`
}

// sidFileBody is the payload shared by both accepted SID file shapes:
// the RFC 9254 "ietf-sid-file:sid-file" wrapper and the plain object.
type sidFileBody struct {
	ModuleName string    `json:"module-name"`
	Items      []sidItem `json:"items"`
}

// sidFileDocument covers the wrapper form.
type sidFileDocument struct {
	SidFile *sidFileBody `json:"ietf-sid-file:sid-file"`
}

// ParseSIDFile parses one SID file into a local SidTree holding only
// that file's items. Vendor catalogs ship SID files annotated with //
// comments and trailing commas, so the input is treated as JSONC.
//
// Parent relations are deliberately not computed here: augmentation
// means a node's parent may be declared in a different SID file, so
// parents are resolved only after the global merge.
func ParseSIDFile(path string, data []byte) (*SidTree, error) {
	stripped := jsonc.ToJSON(data)

	var document sidFileDocument
	if err := json.Unmarshal(stripped, &document); err != nil {
		return nil, &ParseError{File: path, Err: fmt.Errorf("parsing SID file: %w", err)}
	}

	body := document.SidFile
	if body == nil {
		body = &sidFileBody{}
		if err := json.Unmarshal(stripped, body); err != nil {
			return nil, &ParseError{File: path, Err: fmt.Errorf("parsing SID file: %w", err)}
		}
	}
	if body.Items == nil {
		return nil, &ParseError{File: path, Err: fmt.Errorf("no item list (expected ietf-sid-file:sid-file.items or items)")}
	}

	tree := NewSidTree()
	for index, item := range body.Items {
		if item.Identifier == "" {
			return nil, &ParseError{File: path, Err: fmt.Errorf("item %d: empty identifier", index)}
		}
		switch item.Namespace {
		case "data":
			prefixed := strings.TrimPrefix(item.Identifier, "/")
			tree.addDataPath(StripPrefixes(prefixed), prefixed, item.SID)
		case "identity":
			addNamedItem(tree, "identity", item)
			qualified := strings.TrimPrefix(item.Identifier, "/")
			bare := qualified
			if colon := strings.IndexByte(qualified, ':'); colon >= 0 {
				bare = qualified[colon+1:]
			}
			tree.IdentityToSid[bare] = item.SID
			tree.IdentityToSid[qualified] = item.SID
			tree.SidToIdentity[item.SID] = qualified
		case "feature":
			addNamedItem(tree, "feature", item)
		case "module":
			tree.Modules[item.Identifier] = item.SID
		default:
			return nil, &ParseError{File: path, Err: fmt.Errorf("item %d: unknown namespace %q", index, item.Namespace)}
		}
	}
	return tree, nil
}

// addNamedItem records an identity or feature item under synthetic
// "<namespace>:" paths: a stripped form keyed by the bare name and a
// prefixed form keyed by the module-qualified name.
func addNamedItem(tree *SidTree, namespace string, item sidItem) {
	qualified := strings.TrimPrefix(item.Identifier, "/")
	bare := qualified
	if colon := strings.IndexByte(qualified, ':'); colon >= 0 {
		bare = qualified[colon+1:]
	}
	tree.PathToSid[namespace+":"+bare] = item.SID
	tree.PrefixedPathToSid[namespace+":"+qualified] = item.SID
}

// LoadSIDFile reads and parses the SID file at path.
func LoadSIDFile(path string) (*SidTree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseSIDFile(path, data)
}
