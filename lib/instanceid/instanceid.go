// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

// Package instanceid parses RFC 7951 §6.11 instance-identifier paths
// (the subset the device management plane uses):
//
//	instance-id := '/' segment ( '/' segment )*
//	segment     := (prefix ':')? name ( '[' predicate ']' )*
//	predicate   := key '=' quoted-value      // quote is ' or "
//
// A parsed path is an ordered segment list; list-key predicates stay
// attached to the segment that carried them.
package instanceid

import (
	"fmt"
	"strings"
)

// Segment is one step of an instance-identifier.
type Segment struct {
	// Prefix is the module prefix, empty when the segment had none.
	Prefix string

	// Name is the node name.
	Name string

	// Predicates maps each list-key predicate's key to its value.
	// Empty (not nil) for predicate-less segments.
	Predicates map[string]string

	// PredicateKeys preserves the written order of predicate keys,
	// since map iteration order would destroy it.
	PredicateKeys []string
}

// ParseError reports a malformed instance-identifier. Position is the
// byte offset of the offending character within the input.
type ParseError struct {
	Input    string
	Position int
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("instance-identifier %q: %s at offset %d", e.Input, e.Reason, e.Position)
}

// Parse tokenizes one instance-identifier into its segment list.
func Parse(input string) ([]Segment, error) {
	if !strings.HasPrefix(input, "/") {
		return nil, &ParseError{Input: input, Position: 0, Reason: "must start with '/'"}
	}

	var segments []Segment
	pos := 1
	for pos < len(input) {
		segment, next, err := parseSegment(input, pos)
		if err != nil {
			return nil, err
		}
		segments = append(segments, segment)
		pos = next
		if pos < len(input) {
			if input[pos] != '/' {
				return nil, &ParseError{Input: input, Position: pos, Reason: fmt.Sprintf("unexpected %q", input[pos])}
			}
			pos++
		}
	}
	if len(segments) == 0 {
		return nil, &ParseError{Input: input, Position: 0, Reason: "empty path"}
	}
	return segments, nil
}

func parseSegment(input string, start int) (Segment, int, error) {
	pos := start
	for pos < len(input) && input[pos] != '/' && input[pos] != '[' {
		pos++
	}
	name := input[start:pos]
	if name == "" {
		return Segment{}, 0, &ParseError{Input: input, Position: start, Reason: "empty segment name"}
	}

	segment := Segment{Name: name, Predicates: map[string]string{}}
	if colon := strings.IndexByte(name, ':'); colon >= 0 {
		segment.Prefix = name[:colon]
		segment.Name = name[colon+1:]
		if segment.Name == "" {
			return Segment{}, 0, &ParseError{Input: input, Position: start, Reason: "empty segment name"}
		}
	}

	for pos < len(input) && input[pos] == '[' {
		key, value, next, err := parsePredicate(input, pos)
		if err != nil {
			return Segment{}, 0, err
		}
		if _, exists := segment.Predicates[key]; !exists {
			segment.PredicateKeys = append(segment.PredicateKeys, key)
		}
		segment.Predicates[key] = value
		pos = next
	}
	return segment, pos, nil
}

func parsePredicate(input string, start int) (key, value string, next int, err error) {
	pos := start + 1 // past '['
	equals := strings.IndexByte(input[pos:], '=')
	closing := strings.IndexByte(input[pos:], ']')
	if closing < 0 {
		return "", "", 0, &ParseError{Input: input, Position: start, Reason: "unmatched '['"}
	}
	if equals < 0 || equals > closing {
		return "", "", 0, &ParseError{Input: input, Position: start, Reason: "predicate is missing '='"}
	}
	key = strings.TrimSpace(input[pos : pos+equals])
	if key == "" {
		return "", "", 0, &ParseError{Input: input, Position: pos, Reason: "empty predicate key"}
	}
	pos += equals + 1

	for pos < len(input) && (input[pos] == ' ' || input[pos] == '\t') {
		pos++
	}
	if pos >= len(input) || (input[pos] != '\'' && input[pos] != '"') {
		return "", "", 0, &ParseError{Input: input, Position: pos, Reason: "predicate value must be quoted"}
	}
	quote := input[pos]
	pos++
	end := strings.IndexByte(input[pos:], quote)
	if end < 0 {
		return "", "", 0, &ParseError{Input: input, Position: pos - 1, Reason: "unterminated quoted value"}
	}
	value = input[pos : pos+end]
	pos += end + 1

	for pos < len(input) && (input[pos] == ' ' || input[pos] == '\t') {
		pos++
	}
	if pos >= len(input) || input[pos] != ']' {
		return "", "", 0, &ParseError{Input: input, Position: start, Reason: "unmatched '['"}
	}
	return key, value, pos + 1, nil
}

// String reassembles a segment list into instance-identifier text.
func String(segments []Segment) string {
	var builder strings.Builder
	for _, segment := range segments {
		builder.WriteByte('/')
		if segment.Prefix != "" {
			builder.WriteString(segment.Prefix)
			builder.WriteByte(':')
		}
		builder.WriteString(segment.Name)
		for _, key := range segment.PredicateKeys {
			fmt.Fprintf(&builder, "[%s='%s']", key, segment.Predicates[key])
		}
	}
	return builder.String()
}
