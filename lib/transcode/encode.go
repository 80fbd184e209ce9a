// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package transcode

import (
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tsn-tools/tsnctl/lib/codec"
	"github.com/tsn-tools/tsnctl/lib/instanceid"
	"github.com/tsn-tools/tsnctl/lib/schema"
)

// SortMode selects the map key order of encoded payloads.
type SortMode string

const (
	// SortVelocity orders map members by the schema's declared child
	// order, falling back to ascending SID. This is the order the
	// device firmware emits and expects.
	SortVelocity SortMode = "velocity"

	// SortRFC8949 orders map members by the bytewise-lexicographic
	// order of their encoded keys (RFC 8949 §4.2.1).
	SortRFC8949 SortMode = "rfc8949"
)

// EncodeOptions configures EncodeYAML.
type EncodeOptions struct {
	// SortMode governs map key order. Default SortVelocity.
	SortMode SortMode

	// Logger receives unknown-type warnings. Nil discards.
	Logger *slog.Logger
}

// EncodeYAML translates an operator YAML document into a Delta-SID
// CBOR payload. Both input shapes are accepted: a sequence of
// instance-identifier entries, and the hierarchical form that
// DecodeCBOR produces. Identical input always yields identical bytes.
func EncodeYAML(yamlText []byte, tables *schema.Tables, options EncodeOptions) ([]byte, error) {
	encoder := newEncoder(tables, options)
	root, err := encoder.buildTree(yamlText)
	if err != nil {
		return nil, err
	}
	raw, err := encoder.emitContainer(root, 0, true)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

type encoder struct {
	tables   *schema.Tables
	values   *valueCodec
	sortMode SortMode
}

func newEncoder(tables *schema.Tables, options EncodeOptions) *encoder {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sortMode := options.SortMode
	if sortMode == "" {
		sortMode = SortVelocity
	}
	return &encoder{
		tables:   tables,
		values:   &valueCodec{tables: tables, logger: logger},
		sortMode: sortMode,
	}
}

// treeNode is one node of the growing encode tree. Interior nodes are
// containers (children keyed by SID, insertion order preserved) or
// lists (ordered entries, each a container keyed against the list's
// SID). Leaves hold the already-encoded scalar.
type treeNode struct {
	sid        schema.SID
	path       string // canonical stripped path; "" at the root
	isList     bool
	isLeafList bool

	children map[schema.SID]*treeNode
	order    []schema.SID

	entries []*treeNode

	leafSet        bool
	value          any
	leafListValues []any
	leafListSet    bool
}

func newTreeNode(sid schema.SID, path string) *treeNode {
	return &treeNode{sid: sid, path: path, children: map[schema.SID]*treeNode{}}
}

func (n *treeNode) child(sid schema.SID, path string) *treeNode {
	if existing, ok := n.children[sid]; ok {
		return existing
	}
	child := newTreeNode(sid, path)
	n.children[sid] = child
	n.order = append(n.order, sid)
	return child
}

// buildTree parses the YAML document and inserts every entry.
func (e *encoder) buildTree(yamlText []byte) (*treeNode, error) {
	var document yaml.Node
	if err := yaml.Unmarshal(yamlText, &document); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	root := newTreeNode(0, "")
	if document.Kind != yaml.DocumentNode || len(document.Content) == 0 {
		return root, nil
	}
	top := document.Content[0]

	switch top.Kind {
	case yaml.SequenceNode:
		for _, item := range top.Content {
			if err := e.insertEntry(root, item); err != nil {
				return nil, err
			}
		}
	case yaml.MappingNode:
		if err := e.insertMapping(root, top); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("top-level YAML must be a sequence of instance-identifiers or a mapping, got %s", top.Tag)
	}
	return root, nil
}

// insertEntry inserts one instance-identifier entry: either a mapping
// item ("- /path: value", possibly several pairs) or a bare scalar
// path ("- /path").
func (e *encoder) insertEntry(root *treeNode, item *yaml.Node) error {
	switch item.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(item.Content); i += 2 {
			path := item.Content[i].Value
			if err := e.insertInstancePath(root, path, item.Content[i+1]); err != nil {
				return err
			}
		}
		return nil
	case yaml.ScalarNode:
		return e.insertInstancePath(root, item.Value, nil)
	default:
		return fmt.Errorf("instance-identifier entries must be mappings or paths, got %s", item.Tag)
	}
}

// insertInstancePath walks one parsed instance-identifier down the
// tree, resolving each segment against the accumulated context and
// materializing list entries from predicates, then applies the value
// at the final node.
func (e *encoder) insertInstancePath(root *treeNode, path string, value *yaml.Node) error {
	segments, err := instanceid.Parse(path)
	if err != nil {
		return err
	}

	current := root
	for i, segment := range segments {
		sid, canonical, err := e.resolveStep(current.path, segment.Prefix, segment.Name)
		if err != nil {
			return err
		}
		next := current.child(sid, canonical)
		next.isList = e.tables.IsList(sid)
		next.isLeafList = e.tables.IsLeafList(sid)
		isLast := i == len(segments)-1
		if next.isList && (len(segment.PredicateKeys) > 0 || !isLast) {
			entry, err := e.listEntryFor(next, segment)
			if err != nil {
				return err
			}
			current = entry
			continue
		}
		current = next
	}
	return e.applyValue(current, value)
}

// resolveStep resolves one child segment against a context path,
// applying the direct-prefixed, direct-stripped, fuzzy cascade over
// the full path from the root.
func (e *encoder) resolveStep(contextPath, prefix, name string) (schema.SID, string, error) {
	var names, prefixes []string
	if contextPath != "" {
		names = strings.Split(contextPath, "/")
		prefixes = make([]string, len(names))
	}
	names = append(names, name)
	prefixes = append(prefixes, prefix)

	// The prefixed form of the context is more precise than bare
	// segment names when available.
	if contextPath != "" {
		if prefixed, ok := e.tables.Tree.PathToPrefixed[contextPath]; ok {
			if candidate := prefixedJoin(prefixed, prefix, name); candidate != "" {
				if sid, ok := e.tables.Tree.PrefixedPathToSid[candidate]; ok {
					return sid, e.canonicalFor(sid, candidate), nil
				}
			}
		}
	}
	return e.tables.Resolve(names, prefixes, contextPath)
}

func (e *encoder) canonicalFor(sid schema.SID, lookup string) string {
	if path, ok := e.tables.Tree.SidToPath[sid]; ok {
		return path
	}
	return schema.StripPrefixes(lookup)
}

func prefixedJoin(contextPrefixed, prefix, name string) string {
	if prefix != "" {
		return contextPrefixed + "/" + prefix + ":" + name
	}
	return contextPrefixed + "/" + name
}

// listEntryFor selects or creates the list entry matching a segment's
// predicates. Key leaves are encoded with their own types so entry
// identity agrees with the wire representation.
func (e *encoder) listEntryFor(list *treeNode, segment instanceid.Segment) (*treeNode, error) {
	type keyValue struct {
		sid     schema.SID
		path    string
		encoded any
	}
	keys := make([]keyValue, 0, len(segment.PredicateKeys))
	for _, keyName := range segment.PredicateKeys {
		keySid, keyPath, err := e.resolveStep(list.path, "", keyName)
		if err != nil {
			return nil, err
		}
		encoded, err := e.values.encode(keyPath, e.tables.Types.Types[keyPath], segment.Predicates[keyName])
		if err != nil {
			return nil, err
		}
		keys = append(keys, keyValue{sid: keySid, path: keyPath, encoded: encoded})
	}

next:
	for _, entry := range list.entries {
		for _, key := range keys {
			leaf, ok := entry.children[key.sid]
			if !ok || !leaf.leafSet || !reflect.DeepEqual(leaf.value, key.encoded) {
				continue next
			}
		}
		return entry, nil
	}

	entry := newTreeNode(list.sid, list.path)
	for _, key := range keys {
		leaf := entry.child(key.sid, key.path)
		leaf.leafSet = true
		leaf.value = key.encoded
	}
	list.entries = append(list.entries, entry)
	return entry, nil
}

// insertMapping inserts a hierarchical YAML mapping under a node.
func (e *encoder) insertMapping(node *treeNode, mapping *yaml.Node) error {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		valueNode := mapping.Content[i+1]

		prefix, name := "", key
		if colon := strings.IndexByte(key, ':'); colon >= 0 {
			prefix, name = key[:colon], key[colon+1:]
		}
		sid, canonical, err := e.resolveStep(node.path, prefix, name)
		if err != nil {
			return err
		}
		child := node.child(sid, canonical)
		child.isList = e.tables.IsList(sid)
		child.isLeafList = e.tables.IsLeafList(sid)
		if err := e.applyValue(child, valueNode); err != nil {
			return err
		}
	}
	return nil
}

// applyValue attaches a YAML value to a resolved node: list entries
// for sequences under lists, nested mappings for containers, encoded
// scalars for leaves. A null value on a list means an empty sequence
// (emitted, not omitted); on a container an empty map; on a leaf the
// null marker.
func (e *encoder) applyValue(node *treeNode, value *yaml.Node) error {
	if node.isList {
		if value == nil || value.Tag == "!!null" {
			return nil
		}
		if value.Kind != yaml.SequenceNode {
			return &ValueError{Path: node.path, Value: value.Value, Reason: "list values must be sequences"}
		}
		for _, element := range value.Content {
			if element.Kind != yaml.MappingNode {
				return &ValueError{Path: node.path, Value: element.Value, Reason: "list entries must be mappings"}
			}
			entry := newTreeNode(node.sid, node.path)
			node.entries = append(node.entries, entry)
			if err := e.insertMapping(entry, element); err != nil {
				return err
			}
		}
		return nil
	}

	if node.isLeafList {
		node.leafListSet = true
		if value == nil || value.Tag == "!!null" {
			return nil
		}
		elements := []*yaml.Node{value}
		if value.Kind == yaml.SequenceNode {
			elements = value.Content
		}
		info := e.tables.Types.Types[node.path]
		for _, element := range elements {
			encoded, err := e.values.encode(node.path, info, yamlScalarValue(element))
			if err != nil {
				return err
			}
			node.leafListValues = append(node.leafListValues, encoded)
		}
		return nil
	}

	info := e.tables.Types.Types[node.path]
	if info != nil {
		// Leaf node.
		if value == nil || value.Tag == "!!null" {
			node.leafSet = true
			node.value = nil
			return nil
		}
		if value.Kind != yaml.ScalarNode && value.Kind != yaml.SequenceNode {
			return &ValueError{Path: node.path, Value: value.Tag, Reason: "leaf values must be scalars"}
		}
		encoded, err := e.values.encode(node.path, info, yamlScalarValue(value))
		if err != nil {
			return err
		}
		node.leafSet = true
		node.value = encoded
		return nil
	}

	// Container (or an untyped leaf, which only a mapping or scalar
	// disambiguates).
	if value == nil || value.Tag == "!!null" {
		return nil
	}
	switch value.Kind {
	case yaml.MappingNode:
		return e.insertMapping(node, value)
	case yaml.ScalarNode:
		encoded, err := e.values.encode(node.path, nil, yamlScalarValue(value))
		if err != nil {
			return err
		}
		node.leafSet = true
		node.value = encoded
		return nil
	default:
		return &ValueError{Path: node.path, Value: value.Tag, Reason: "unsupported value shape"}
	}
}

// yamlScalarValue converts a YAML scalar (or sequence, for bits) node
// to its Go value.
func yamlScalarValue(node *yaml.Node) any {
	switch node.Kind {
	case yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))
		for _, element := range node.Content {
			items = append(items, yamlScalarValue(element))
		}
		return items
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!null":
			return nil
		case "!!bool":
			value, _ := strconv.ParseBool(node.Value)
			return value
		case "!!int":
			if unsigned, err := strconv.ParseUint(node.Value, 0, 64); err == nil {
				return unsigned
			}
			signed, _ := strconv.ParseInt(node.Value, 0, 64)
			return signed
		case "!!float":
			value, _ := strconv.ParseFloat(node.Value, 64)
			return value
		default:
			return node.Value
		}
	}
	return nil
}

// emit serializes one tree node to raw CBOR.
func (e *encoder) emit(node *treeNode) (codec.RawMessage, error) {
	switch {
	case node.isList:
		entries := make([]codec.RawMessage, 0, len(node.entries))
		for _, entry := range node.entries {
			raw, err := e.emitContainer(entry, node.sid, false)
			if err != nil {
				return nil, err
			}
			entries = append(entries, raw)
		}
		return codec.Marshal(entries)
	case node.isLeafList:
		values := node.leafListValues
		if values == nil {
			values = []any{}
		}
		return codec.Marshal(values)
	case node.leafSet:
		return codec.Marshal(node.value)
	default:
		return e.emitContainer(node, node.sid, false)
	}
}

// emitContainer serializes a container's children as a CBOR map. Each
// child key is the Delta-SID against parentSID when the schema's
// parent relation confirms it, else the absolute SID — which keeps
// augmented children (whose true parent lives in another module)
// round-trippable. Root-level keys are always absolute.
func (e *encoder) emitContainer(node *treeNode, parentSID schema.SID, atRoot bool) (codec.RawMessage, error) {
	type pair struct {
		sid   schema.SID
		key   []byte
		value []byte
	}
	pairs := make([]pair, 0, len(node.order))
	for _, sid := range node.order {
		child := node.children[sid]
		key, err := e.encodeKey(child, parentSID, atRoot)
		if err != nil {
			return nil, err
		}
		value, err := e.emit(child)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair{sid: sid, key: key, value: value})
	}

	switch e.sortMode {
	case SortRFC8949:
		sort.Slice(pairs, func(i, j int) bool {
			return string(pairs[i].key) < string(pairs[j].key)
		})
	default:
		sort.SliceStable(pairs, func(i, j int) bool {
			left, right := e.schemaOrder(pairs[i].sid), e.schemaOrder(pairs[j].sid)
			if left != right {
				return left < right
			}
			return pairs[i].sid < pairs[j].sid
		})
	}

	raw := appendMapHeader(nil, len(pairs))
	for _, pair := range pairs {
		raw = append(raw, pair.key...)
		raw = append(raw, pair.value...)
	}
	return raw, nil
}

// schemaOrder returns the declared sibling index of a node, or a
// sentinel pushing undeclared nodes after declared ones.
func (e *encoder) schemaOrder(sid schema.SID) int {
	path, ok := e.tables.Tree.SidToPath[sid]
	if !ok {
		return math.MaxInt
	}
	name := path[strings.LastIndexByte(path, '/')+1:]
	if order, ok := e.tables.Types.NodeOrders[name]; ok {
		return order
	}
	return math.MaxInt
}

func (e *encoder) encodeKey(child *treeNode, parentSID schema.SID, atRoot bool) ([]byte, error) {
	if !atRoot {
		if info, ok := e.tables.Tree.NodeInfo[child.path]; ok && info.HasParent && info.Parent == parentSID {
			return codec.Marshal(info.DeltaSID)
		}
	}
	return codec.Marshal(uint64(child.sid))
}

// appendMapHeader appends a definite-length CBOR map header (major
// type 5).
func appendMapHeader(buffer []byte, length int) []byte {
	const majorMap = 5 << 5
	switch {
	case length < 24:
		return append(buffer, majorMap|byte(length))
	case length <= math.MaxUint8:
		return append(buffer, majorMap|24, byte(length))
	case length <= math.MaxUint16:
		return append(buffer, majorMap|25, byte(length>>8), byte(length))
	default:
		return append(buffer, majorMap|26, byte(length>>24), byte(length>>16), byte(length>>8), byte(length))
	}
}
