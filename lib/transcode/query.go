// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package transcode

import (
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/tsn-tools/tsnctl/lib/codec"
	"github.com/tsn-tools/tsnctl/lib/instanceid"
	"github.com/tsn-tools/tsnctl/lib/schema"
)

// Query is one fetch-verb query: a target SID plus the list-key
// values collected along the instance-identifier's predicates, in
// path order. A query without keys addresses a leaf or whole subtree;
// with keys it addresses a list entry.
type Query struct {
	SID  schema.SID
	Keys []any
}

// ExtractQueries parses a YAML sequence of instance-identifiers into
// fetch queries. Values attached to the entries are ignored; only the
// paths matter to the fetch verb.
func ExtractQueries(yamlText []byte, tables *schema.Tables) ([]Query, error) {
	var document yaml.Node
	if err := yaml.Unmarshal(yamlText, &document); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if document.Kind != yaml.DocumentNode || len(document.Content) == 0 {
		return nil, nil
	}
	top := document.Content[0]
	if top.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("fetch input must be a sequence of instance-identifiers")
	}

	encoder := newEncoder(tables, EncodeOptions{Logger: slog.New(slog.DiscardHandler)})
	var queries []Query
	for _, item := range top.Content {
		var paths []string
		switch item.Kind {
		case yaml.ScalarNode:
			paths = []string{item.Value}
		case yaml.MappingNode:
			for i := 0; i < len(item.Content); i += 2 {
				paths = append(paths, item.Content[i].Value)
			}
		default:
			return nil, fmt.Errorf("fetch entries must be paths, got %s", item.Tag)
		}
		for _, path := range paths {
			query, err := extractQuery(encoder, path)
			if err != nil {
				return nil, err
			}
			queries = append(queries, query)
		}
	}
	return queries, nil
}

// extractQuery resolves one instance-identifier to its query form,
// encoding predicate values with the key leaf's own type so the
// device compares like against like.
func extractQuery(e *encoder, path string) (Query, error) {
	segments, err := instanceid.Parse(path)
	if err != nil {
		return Query{}, err
	}

	contextPath := ""
	var sid schema.SID
	var keys []any
	for _, segment := range segments {
		stepSid, canonical, err := e.resolveStep(contextPath, segment.Prefix, segment.Name)
		if err != nil {
			return Query{}, err
		}
		sid = stepSid
		for _, keyName := range segment.PredicateKeys {
			_, keyPath, err := e.resolveStep(canonical, "", keyName)
			if err != nil {
				return Query{}, err
			}
			encoded, err := e.values.encode(keyPath, e.tables.Types.Types[keyPath], segment.Predicates[keyName])
			if err != nil {
				return Query{}, err
			}
			keys = append(keys, encoded)
		}
		contextPath = canonical
	}
	return Query{SID: sid, Keys: keys}, nil
}

// EncodeQueries serializes queries for the device's fetch verb: a
// keyless query is its bare SID, a keyed query is the array
// [sid, key1, key2, …]. Multiple queries form a CBOR sequence of
// consecutive items.
func EncodeQueries(queries []Query) ([]byte, error) {
	var payload []byte
	for _, query := range queries {
		var item any = uint64(query.SID)
		if len(query.Keys) > 0 {
			array := make([]any, 0, len(query.Keys)+1)
			array = append(array, uint64(query.SID))
			array = append(array, query.Keys...)
			item = array
		}
		raw, err := codec.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encoding query for SID %d: %w", query.SID, err)
		}
		payload = append(payload, raw...)
	}
	return payload, nil
}
