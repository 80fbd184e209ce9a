// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package transcode

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tsn-tools/tsnctl/lib/codec"
	"github.com/tsn-tools/tsnctl/lib/schema"
)

// OutputFormat selects how module prefixes appear in decoded YAML.
type OutputFormat string

const (
	// FormatRFC7951 prefixes a node only where its module differs
	// from its parent's (RFC 7951 hierarchical style).
	FormatRFC7951 OutputFormat = "rfc7951"

	// FormatFullyPrefixed prefixes every node.
	FormatFullyPrefixed OutputFormat = "fully-prefixed"
)

// DecodeOptions configures DecodeCBOR.
type DecodeOptions struct {
	// OutputFormat governs prefix placement. Default FormatRFC7951.
	OutputFormat OutputFormat

	// Logger receives unknown-type warnings. Nil discards.
	Logger *slog.Logger
}

// DecodeCBOR expands a Delta-SID CBOR payload into hierarchical YAML.
// Root-level keys must be absolute SIDs; nested keys resolve first as
// Delta-SIDs against their parent (accepted when the schema confirms
// the parent relation) and otherwise as absolute SIDs — the
// augmentation case, where a node's true parent lives in another
// module. The decoder holds no state across calls and is total for
// well-formed input.
func DecodeCBOR(data []byte, tables *schema.Tables, options DecodeOptions) (string, error) {
	var payload any
	if err := codec.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("parsing CBOR: %w", err)
	}
	document, ok := payload.(map[any]any)
	if !ok {
		return "", fmt.Errorf("payload is not a CBOR map (got %T)", payload)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	format := options.OutputFormat
	if format == "" {
		format = FormatRFC7951
	}
	decoder := &decoder{
		tables: tables,
		values: &valueCodec{tables: tables, logger: logger},
		format: format,
	}

	root, err := decoder.decodeContainer(document, 0, false, "")
	if err != nil {
		return "", err
	}

	var buffer bytes.Buffer
	yamlEncoder := yaml.NewEncoder(&buffer)
	yamlEncoder.SetIndent(2)
	if err := yamlEncoder.Encode(root); err != nil {
		return "", fmt.Errorf("emitting YAML: %w", err)
	}
	if err := yamlEncoder.Close(); err != nil {
		return "", fmt.Errorf("emitting YAML: %w", err)
	}
	return buffer.String(), nil
}

type decoder struct {
	tables *schema.Tables
	values *valueCodec
	format OutputFormat
}

// resolveKey maps one CBOR map key to an absolute SID. Inside a
// container with parent SID P, the delta interpretation (key + P) is
// tried first and wins whenever the schema's parent relation
// confirms it; a key that is also a legitimate absolute SID elsewhere
// is deliberately tie-broken toward delta. At the root there is no
// parent, so only absolute keys are accepted.
func (d *decoder) resolveKey(key any, parent schema.SID, hasParent bool) (schema.SID, error) {
	delta, ok := toInt64(key)
	if !ok {
		return 0, fmt.Errorf("map key %v is not an integer", key)
	}

	if hasParent {
		candidate := int64(parent) + delta
		if candidate >= 0 {
			if path, ok := d.tables.Tree.SidToPath[schema.SID(candidate)]; ok {
				if info := d.tables.Tree.NodeInfo[path]; info != nil && info.HasParent && info.Parent == parent {
					return schema.SID(candidate), nil
				}
			}
		}
	}
	if delta >= 0 {
		if _, ok := d.tables.Tree.SidToPath[schema.SID(delta)]; ok {
			return schema.SID(delta), nil
		}
	}
	return 0, &DeltaError{Key: delta, Parent: parent}
}

// decodeContainer reconstructs one CBOR map as a YAML mapping, with
// children in schema order so output is deterministic regardless of
// the device's map order.
func (d *decoder) decodeContainer(payload map[any]any, parent schema.SID, hasParent bool, parentModule string) (*yaml.Node, error) {
	type member struct {
		sid   schema.SID
		value any
	}
	members := make([]member, 0, len(payload))
	for key, value := range payload {
		sid, err := d.resolveKey(key, parent, hasParent)
		if err != nil {
			return nil, err
		}
		members = append(members, member{sid: sid, value: value})
	}
	sort.SliceStable(members, func(i, j int) bool {
		left, right := d.schemaOrder(members[i].sid), d.schemaOrder(members[j].sid)
		if left != right {
			return left < right
		}
		return members[i].sid < members[j].sid
	})

	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, member := range members {
		valueNode, err := d.decodeValue(member.sid, member.value)
		if err != nil {
			return nil, err
		}
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: d.nodeName(member.sid, parentModule),
		}
		mapping.Content = append(mapping.Content, keyNode, valueNode)
	}
	return mapping, nil
}

// decodeValue reconstructs the value under one resolved SID.
func (d *decoder) decodeValue(sid schema.SID, value any) (*yaml.Node, error) {
	path := d.tables.Tree.SidToPath[sid]
	module := d.moduleOf(sid)

	switch typed := value.(type) {
	case map[any]any:
		return d.decodeContainer(typed, sid, true, module)
	case []any:
		sequence := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		if len(typed) > 0 {
			sequence.Style = 0
		}
		if d.tables.IsList(sid) {
			for _, element := range typed {
				entry, ok := element.(map[any]any)
				if !ok {
					return nil, fmt.Errorf("%s: list entry is not a map (got %T)", path, element)
				}
				entryNode, err := d.decodeContainer(entry, sid, true, module)
				if err != nil {
					return nil, err
				}
				sequence.Content = append(sequence.Content, entryNode)
			}
			return sequence, nil
		}
		// Leaf-list (or an unknown array, decoded element-wise).
		info := d.tables.Types.Types[path]
		if info != nil && info.Kind == schema.KindBits {
			decoded, err := d.values.decode(path, info, value)
			if err != nil {
				return nil, err
			}
			return yamlScalarNode(decoded), nil
		}
		for _, element := range typed {
			decoded, err := d.values.decode(path, info, element)
			if err != nil {
				return nil, err
			}
			sequence.Content = append(sequence.Content, yamlScalarNode(decoded))
		}
		return sequence, nil
	default:
		decoded, err := d.values.decode(path, d.tables.Types.Types[path], value)
		if err != nil {
			return nil, err
		}
		return yamlScalarNode(decoded), nil
	}
}

// schemaOrder mirrors the encoder's ordering rule: declared sibling
// index first, ascending SID among undeclared nodes.
func (d *decoder) schemaOrder(sid schema.SID) int {
	path, ok := d.tables.Tree.SidToPath[sid]
	if !ok {
		return math.MaxInt
	}
	name := path[strings.LastIndexByte(path, '/')+1:]
	if order, ok := d.tables.Types.NodeOrders[name]; ok {
		return order
	}
	return math.MaxInt
}

// moduleOf returns the module owning a node, read from the prefixed
// path: a segment's module is its own prefix when present, else the
// nearest prefixed ancestor's.
func (d *decoder) moduleOf(sid schema.SID) string {
	prefixed, ok := d.tables.Tree.SidToPrefixedPath[sid]
	if !ok {
		return ""
	}
	module := ""
	for segment := range strings.SplitSeq(prefixed, "/") {
		if colon := strings.IndexByte(segment, ':'); colon >= 0 {
			module = segment[:colon]
		}
	}
	return module
}

// nodeName renders a node's YAML key: bare name, prefixed at module
// boundaries (RFC 7951 mode) or always (fully-prefixed mode).
func (d *decoder) nodeName(sid schema.SID, parentModule string) string {
	path, ok := d.tables.Tree.SidToPath[sid]
	if !ok {
		return strconv.FormatUint(uint64(sid), 10)
	}
	name := path[strings.LastIndexByte(path, '/')+1:]
	module := d.moduleOf(sid)
	if module == "" {
		return name
	}
	switch d.format {
	case FormatFullyPrefixed:
		return module + ":" + name
	default:
		if module != parentModule {
			return module + ":" + name
		}
		return name
	}
}

// yamlScalarNode renders a decoded scalar as a YAML node with an
// explicit tag, so numeric and decimal values never pick up quotes.
func yamlScalarNode(value any) *yaml.Node {
	node := &yaml.Node{Kind: yaml.ScalarNode}
	switch typed := value.(type) {
	case nil:
		node.Tag = "!!null"
		node.Value = "null"
	case bool:
		node.Tag = "!!bool"
		node.Value = strconv.FormatBool(typed)
	case int64:
		node.Tag = "!!int"
		node.Value = strconv.FormatInt(typed, 10)
	case uint64:
		node.Tag = "!!int"
		node.Value = strconv.FormatUint(typed, 10)
	case float64:
		node.Tag = "!!float"
		node.Value = strconv.FormatFloat(typed, 'g', -1, 64)
	case decimalString:
		node.Tag = "!!float"
		node.Value = string(typed)
	case string:
		node.Tag = "!!str"
		node.Value = typed
	default:
		node.Tag = "!!str"
		node.Value = fmt.Sprint(typed)
	}
	return node
}
