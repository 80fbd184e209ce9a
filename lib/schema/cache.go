// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/zeebo/blake3"
)

// CacheVersion is the schema cache format version. The loader refuses
// any other value; Build then rebuilds from source.
const CacheVersion = 1

// cacheSource records one source file's identity at cache-write time.
type cacheSource struct {
	Path   string `json:"path"`
	Digest string `json:"digest"`
}

// cacheFile is the on-disk cache layout. Version is the first field:
// the loader checks it before trusting anything else in the document.
type cacheFile struct {
	Version int           `json:"version"`
	Sources []cacheSource `json:"sources"`
	Tree    *SidTree      `json:"tree"`
	Types   *TypeTable    `json:"types"`
}

// CheckCache reports whether the schema cache for catalogDir is
// usable as-is. A nil return means a Build would load it without
// touching any .yang or .sid file; the error otherwise names the
// first reason it would rebuild.
func CheckCache(catalogDir string, options Options) error {
	sidFiles, yangFiles, err := catalogFiles(catalogDir)
	if err != nil {
		return err
	}
	cachePath := options.CachePath
	if cachePath == "" {
		cachePath = filepath.Join(catalogDir, ".schema-cache.json")
	}
	sources := append(append([]string{}, sidFiles...), yangFiles...)
	_, err = loadCache(cachePath, sources)
	return err
}

// hashFile computes the BLAKE3 digest of the file at path, streamed so
// memory stays constant regardless of catalog size.
func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// loadCache returns the cached tables when the cache is usable: the
// format version matches, the cache file is newer than every source,
// the source set is unchanged, and every recorded BLAKE3 digest still
// matches. Any other condition is an error; Build treats every error
// here as a rebuild trigger, not a failure.
func loadCache(path string, sources []string) (*Tables, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var versionProbe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &versionProbe); err != nil {
		return nil, fmt.Errorf("parsing cache: %w", err)
	}
	if versionProbe.Version != CacheVersion {
		return nil, &CacheVersionError{Path: path, Got: versionProbe.Version, Want: CacheVersion}
	}

	var cache cacheFile
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("parsing cache: %w", err)
	}
	if cache.Tree == nil || cache.Types == nil {
		return nil, fmt.Errorf("cache is missing tables")
	}

	recorded := make(map[string]string, len(cache.Sources))
	for _, source := range cache.Sources {
		recorded[source.Path] = source.Digest
	}
	if len(recorded) != len(sources) {
		return nil, fmt.Errorf("source set changed: cache has %d files, catalog has %d", len(recorded), len(sources))
	}
	for _, source := range sources {
		sourceInfo, err := os.Stat(source)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", source, err)
		}
		if !sourceInfo.ModTime().Before(info.ModTime()) {
			return nil, fmt.Errorf("%s is newer than the cache", source)
		}
		digest, ok := recorded[source]
		if !ok {
			return nil, fmt.Errorf("%s is not in the cache", source)
		}
		actual, err := hashFile(source)
		if err != nil {
			return nil, err
		}
		if actual != digest {
			return nil, fmt.Errorf("%s changed since the cache was written", source)
		}
	}
	return &Tables{Tree: cache.Tree, Types: cache.Types}, nil
}

// saveCache persists the merged tables atomically: the JSON document
// is written to a temp file in the destination directory, then
// renamed, so a concurrent reader never observes a half-written cache.
func saveCache(path string, sources []string, tables *Tables) error {
	cache := cacheFile{
		Version: CacheVersion,
		Tree:    tables.Tree,
		Types:   tables.Types,
	}
	for _, source := range sources {
		digest, err := hashFile(source)
		if err != nil {
			return err
		}
		cache.Sources = append(cache.Sources, cacheSource{Path: source, Digest: digest})
	}
	sort.Slice(cache.Sources, func(i, j int) bool {
		return cache.Sources[i].Path < cache.Sources[j].Path
	})

	data, err := json.Marshal(&cache)
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}

	temporary, err := os.CreateTemp(filepath.Dir(path), ".schema-cache-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	temporaryPath := temporary.Name()
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing cache temp file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming cache into place: %w", err)
	}
	return nil
}
