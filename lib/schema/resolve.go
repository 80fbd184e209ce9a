// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"strings"
)

// Resolve maps an instance-identifier's segments to an absolute SID
// and the node's canonical stripped path. Segments carry optional
// module prefixes; predicates are ignored here (they select list
// entries, not schema nodes).
//
// The cascade, in order:
//
//  1. Direct prefixed lookup of the joined path.
//  2. Direct stripped lookup after prefix removal.
//  3. Fuzzy lookup by the final segment name, for paths that omit
//     choice/case (or other intermediate) nodes: a single candidate
//     wins outright; multiple candidates are scored by the number of
//     leading segments shared with contextPath, ties broken by
//     candidate order.
//
// contextPath is the stripped path of the node the walk descended
// from; empty at the root. Resolution is deterministic: identical
// inputs always yield the same SID.
func (t *Tables) Resolve(segmentNames []string, prefixes []string, contextPath string) (SID, string, error) {
	prefixed := make([]string, len(segmentNames))
	for i, name := range segmentNames {
		if i < len(prefixes) && prefixes[i] != "" {
			prefixed[i] = prefixes[i] + ":" + name
		} else {
			prefixed[i] = name
		}
	}
	prefixedPath := strings.Join(prefixed, "/")

	if sid, ok := t.Tree.PrefixedPathToSid[prefixedPath]; ok {
		return sid, t.canonicalPath(sid, prefixedPath), nil
	}

	strippedPath := strings.Join(segmentNames, "/")
	if sid, ok := t.Tree.PathToSid[strippedPath]; ok {
		return sid, t.canonicalPath(sid, strippedPath), nil
	}

	last := segmentNames[len(segmentNames)-1]
	candidates := t.Tree.LeafToPaths[last]
	switch len(candidates) {
	case 0:
		return 0, "", &UnresolvedPathError{Path: prefixedPath}
	case 1:
		return t.Tree.PathToSid[candidates[0]], candidates[0], nil
	}
	if contextPath == "" {
		return t.Tree.PathToSid[candidates[0]], candidates[0], nil
	}

	contextSegments := strings.Split(contextPath, "/")
	best := candidates[0]
	bestScore := -1
	for _, candidate := range candidates {
		score := leadingMatch(strings.Split(candidate, "/"), contextSegments)
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	return t.Tree.PathToSid[best], best, nil
}

// canonicalPath returns the canonical stripped path for a SID,
// falling back to the stripped form of the lookup path for synthetic
// entries that have no reverse mapping.
func (t *Tables) canonicalPath(sid SID, lookupPath string) string {
	if path, ok := t.Tree.SidToPath[sid]; ok {
		return path
	}
	return StripPrefixes(lookupPath)
}

func leadingMatch(a, b []string) int {
	count := 0
	for count < len(a) && count < len(b) && a[count] == b[count] {
		count++
	}
	return count
}
