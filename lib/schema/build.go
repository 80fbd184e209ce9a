// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DefaultVendorPrefixes are the typedef prefixes merged into their
// unprefixed base typedefs when a catalog carries vendor refinements.
var DefaultVendorPrefixes = []string{"velocitysp-", "mchp-"}

// Options configures Build.
type Options struct {
	// NoCache skips both cache load and cache save.
	NoCache bool

	// ForceRebuild skips the cache load but still writes a fresh
	// cache after the build.
	ForceRebuild bool

	// CachePath overrides the cache file location. Default:
	// <catalogDir>/.schema-cache.json.
	CachePath string

	// VendorPrefixes overrides DefaultVendorPrefixes.
	VendorPrefixes []string

	// Logger receives collision and cache warnings. Nil discards.
	Logger *slog.Logger

	// Verbose enables per-collision logging during the merge.
	Verbose bool
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Build loads every .sid and .yang file under catalogDir and merges
// them into the global tables. A valid cache short-circuits the whole
// load; an unreadable or stale cache silently falls back to a rebuild.
// Files are parsed in parallel; the merge runs sequentially once all
// parses finish. ctx cancellation is honored between file reads and
// before the merge.
func Build(ctx context.Context, catalogDir string, options Options) (*Tables, error) {
	logger := options.logger()

	sidFiles, yangFiles, err := catalogFiles(catalogDir)
	if err != nil {
		return nil, err
	}
	if len(sidFiles) == 0 {
		return nil, fmt.Errorf("no .sid files in %s", catalogDir)
	}

	cachePath := options.CachePath
	if cachePath == "" {
		cachePath = filepath.Join(catalogDir, ".schema-cache.json")
	}
	sources := append(append([]string{}, sidFiles...), yangFiles...)

	if !options.NoCache && !options.ForceRebuild {
		tables, err := loadCache(cachePath, sources)
		if err == nil {
			return tables, nil
		}
		logger.Debug("schema cache unusable, rebuilding", "cache", cachePath, "reason", err)
	}

	trees, tableParts, err := loadParallel(ctx, sidFiles, yangFiles)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tables := merge(trees, tableParts, options, logger)

	if !options.NoCache {
		if err := saveCache(cachePath, sources, tables); err != nil {
			logger.Warn("schema cache save failed", "cache", cachePath, "error", err)
		}
	}
	return tables, nil
}

// catalogFiles lists the .sid and .yang files directly under dir, each
// sorted by name so the later-entry-wins merge rule is deterministic.
func catalogFiles(dir string) (sidFiles, yangFiles []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading catalog %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		switch filepath.Ext(entry.Name()) {
		case ".sid":
			sidFiles = append(sidFiles, path)
		case ".yang":
			yangFiles = append(yangFiles, path)
		}
	}
	sort.Strings(sidFiles)
	sort.Strings(yangFiles)
	return sidFiles, yangFiles, nil
}

// loadParallel parses every file on its own goroutine and joins the
// results in input order. Per-file outputs are disjoint, so no locks
// are needed; the merge is the only write site.
func loadParallel(ctx context.Context, sidFiles, yangFiles []string) ([]*SidTree, []*TypeTable, error) {
	trees := make([]*SidTree, len(sidFiles))
	tables := make([]*TypeTable, len(yangFiles))
	errors := make([]error, len(sidFiles)+len(yangFiles))

	var group sync.WaitGroup
	for i, path := range sidFiles {
		group.Add(1)
		go func() {
			defer group.Done()
			if ctx.Err() != nil {
				errors[i] = ctx.Err()
				return
			}
			trees[i], errors[i] = LoadSIDFile(path)
		}()
	}
	for i, path := range yangFiles {
		group.Add(1)
		go func() {
			defer group.Done()
			if ctx.Err() != nil {
				errors[len(sidFiles)+i] = ctx.Err()
				return
			}
			tables[i], errors[len(sidFiles)+i] = LoadYANGModule(path)
		}()
	}
	group.Wait()

	for _, err := range errors {
		if err != nil {
			return nil, nil, err
		}
	}
	return trees, tables, nil
}

// merge reduces the per-file outputs into the global tables, then
// derives everything that needs the whole corpus: parent relations,
// cross-module typedef resolution, vendor typedef merging, and
// choice/case alias paths.
func merge(trees []*SidTree, parts []*TypeTable, options Options, logger *slog.Logger) *Tables {
	tree := NewSidTree()
	for _, part := range trees {
		mergeTree(tree, part, options.Verbose, logger)
	}
	computeNodeInfo(tree)

	types := NewTypeTable()
	for _, part := range parts {
		mergeTypes(types, part)
	}
	resolveForeignTypedefs(types)

	prefixes := options.VendorPrefixes
	if prefixes == nil {
		prefixes = DefaultVendorPrefixes
	}
	mergeVendorTypedefs(types, prefixes)
	augmentAliases(tree, types)

	return &Tables{Tree: tree, Types: types}
}

func mergeTree(into, from *SidTree, verbose bool, logger *slog.Logger) {
	for path, sid := range from.PathToSid {
		if existing, ok := into.PathToSid[path]; ok && existing != sid && verbose {
			logger.Debug("SID collision", "path", path, "kept", sid, "replaced", existing)
		}
		into.PathToSid[path] = sid
	}
	for sid, path := range from.SidToPath {
		into.SidToPath[sid] = path
	}
	for path, sid := range from.PrefixedPathToSid {
		into.PrefixedPathToSid[path] = sid
	}
	for sid, path := range from.SidToPrefixedPath {
		into.SidToPrefixedPath[sid] = path
	}
	for stripped, prefixed := range from.PathToPrefixed {
		into.PathToPrefixed[stripped] = prefixed
	}
	for name, sid := range from.IdentityToSid {
		into.IdentityToSid[name] = sid
	}
	for sid, name := range from.SidToIdentity {
		into.SidToIdentity[sid] = name
	}
	for leaf, paths := range from.LeafToPaths {
	next:
		for _, path := range paths {
			for _, existing := range into.LeafToPaths[leaf] {
				if existing == path {
					continue next
				}
			}
			into.LeafToPaths[leaf] = append(into.LeafToPaths[leaf], path)
		}
	}
	for name, sid := range from.Modules {
		into.Modules[name] = sid
	}
}

// computeNodeInfo walks every canonical data path and records its
// parent (the longest proper prefix that is also a data path) and
// Delta-SID. Augmentation means the parent may live in another module;
// only prefix existence decides.
func computeNodeInfo(tree *SidTree) {
	for sid, path := range tree.SidToPath {
		segments := strings.Split(path, "/")
		info := &NodeInfo{
			SID:          sid,
			DeltaSID:     int64(sid),
			Depth:        len(segments),
			PrefixedPath: tree.SidToPrefixedPath[sid],
		}
		for length := len(segments) - 1; length > 0; length-- {
			prefix := strings.Join(segments[:length], "/")
			parent, ok := tree.PathToSid[prefix]
			if !ok {
				continue
			}
			info.Parent = parent
			info.HasParent = true
			info.DeltaSID = int64(sid) - int64(parent)
			break
		}
		tree.NodeInfo[path] = info
	}
}

func mergeTypes(into, from *TypeTable) {
	for path, info := range from.Types {
		into.Types[path] = info
	}
	for name, identity := range from.Identities {
		into.Identities[name] = identity
	}
	for name, info := range from.Typedefs {
		into.Typedefs[name] = info
	}
	for name := range from.ChoiceNames {
		into.ChoiceNames[name] = true
	}
	for name := range from.CaseNames {
		into.CaseNames[name] = true
	}
	for name, order := range from.NodeOrders {
		into.NodeOrders[name] = order
	}
	for path := range from.ListPaths {
		into.ListPaths[path] = true
	}
	for path := range from.LeafListPaths {
		into.LeafListPaths[path] = true
	}
	for path, keys := range from.ListKeys {
		into.ListKeys[path] = keys
	}
}

// resolveForeignTypedefs rewrites leaf types that referenced a typedef
// from another module (unknown at per-file extraction time) once the
// global typedef table exists.
func resolveForeignTypedefs(types *TypeTable) {
	for path, info := range types.Types {
		if info.Kind != KindUnknown || info.Original == "" {
			continue
		}
		if resolved, ok := types.Typedefs[info.Original]; ok {
			copied := *resolved
			copied.Original = info.Original
			types.Types[path] = &copied
		}
	}
}

// mergeVendorTypedefs unions vendor-refined enum typedefs into their
// base typedef. A typedef "velocitysp-speed" refines "speed": when
// both carry enum bijections, the base typedef gains the union, and
// every leaf typed through either name is rewritten to the merged
// info.
func mergeVendorTypedefs(types *TypeTable, vendorPrefixes []string) {
	for name, vendor := range types.Typedefs {
		var base *TypeInfo
		var baseName string
		for _, prefix := range vendorPrefixes {
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			baseName = strings.TrimPrefix(name, prefix)
			if candidate, ok := types.Typedefs[baseName]; ok {
				base = candidate
			}
			break
		}
		if base == nil || vendor.EnumNameToValue == nil || base.EnumNameToValue == nil {
			continue
		}

		merged := *base
		merged.EnumNameToValue = make(map[string]int64, len(base.EnumNameToValue)+len(vendor.EnumNameToValue))
		for enumName, value := range base.EnumNameToValue {
			merged.EnumNameToValue[enumName] = value
		}
		for enumName, value := range vendor.EnumNameToValue {
			merged.EnumNameToValue[enumName] = value
		}
		merged.EnumValueToName = reverseEnum(merged.EnumNameToValue)

		types.Typedefs[baseName] = &merged
		types.MergedTypedefs[baseName] = true
		types.MergedTypedefs[name] = true
	}

	for path, info := range types.Types {
		if info.Original == "" || !types.MergedTypedefs[info.Original] {
			continue
		}
		mergedName := info.Original
		for _, prefix := range vendorPrefixes {
			if strings.HasPrefix(mergedName, prefix) {
				mergedName = strings.TrimPrefix(mergedName, prefix)
				break
			}
		}
		if merged, ok := types.Typedefs[mergedName]; ok {
			copied := *merged
			copied.Original = info.Original
			types.Types[path] = &copied
		}
	}
}

// augmentAliases adds choice/case-free alias paths: for every prefixed
// path, segments whose bare name is a known choice or case name are
// dropped and consecutive duplicate segments collapsed. The alias maps
// to the same SID under both path forms, letting instance-identifiers
// omit choice and case nodes entirely. Idempotent via the tree
// sentinel.
func augmentAliases(tree *SidTree, types *TypeTable) {
	if tree.AliasesApplied {
		return
	}
	tree.AliasesApplied = true

	prefixedPaths := make([]string, 0, len(tree.PrefixedPathToSid))
	for path := range tree.PrefixedPathToSid {
		prefixedPaths = append(prefixedPaths, path)
	}
	sort.Strings(prefixedPaths)

	for _, prefixed := range prefixedPaths {
		if strings.HasPrefix(prefixed, "identity:") || strings.HasPrefix(prefixed, "feature:") {
			continue
		}
		sid := tree.PrefixedPathToSid[prefixed]
		segments := strings.Split(prefixed, "/")
		var kept []string
		for _, segment := range segments {
			bare := segment
			if colon := strings.IndexByte(segment, ':'); colon >= 0 {
				bare = segment[colon+1:]
			}
			if types.ChoiceNames[bare] || types.CaseNames[bare] {
				continue
			}
			if len(kept) > 0 && bareName(kept[len(kept)-1]) == bare {
				continue
			}
			kept = append(kept, segment)
		}
		if len(kept) == 0 || len(kept) == len(segments) {
			continue
		}
		alias := strings.Join(kept, "/")
		if _, exists := tree.PrefixedPathToSid[alias]; !exists {
			tree.PrefixedPathToSid[alias] = sid
		}
		strippedAlias := StripPrefixes(alias)
		if _, exists := tree.PathToSid[strippedAlias]; !exists {
			tree.PathToSid[strippedAlias] = sid
			tree.PathToPrefixed[strippedAlias] = alias
		}
	}
}

func bareName(segment string) string {
	if colon := strings.IndexByte(segment, ':'); colon >= 0 {
		return segment[colon+1:]
	}
	return segment
}
