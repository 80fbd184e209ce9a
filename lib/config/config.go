// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for tsnctl.
//
// Configuration is loaded from a single file specified by:
//   - TSNCTL_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
// catalog_dir, no_cache, sort_mode and output_format can also be given
// on the command line (--catalog, --no-cache, --sort, --format);
// cache_path and vendor_prefixes are set only in the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tsn-tools/tsnctl/lib/schema"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "TSNCTL_CONFIG"

// Config is the tool configuration.
type Config struct {
	// CatalogDir is the directory holding the .yang modules and
	// .sid files for the target device.
	CatalogDir string `yaml:"catalog_dir"`

	// CachePath overrides the schema cache location.
	// Default: <catalog_dir>/.schema-cache.json.
	CachePath string `yaml:"cache_path"`

	// NoCache disables the schema cache entirely.
	NoCache bool `yaml:"no_cache"`

	// VendorPrefixes are the typedef prefixes merged into their
	// unprefixed base typedefs. Default: velocitysp-, mchp-.
	VendorPrefixes []string `yaml:"vendor_prefixes"`

	// SortMode is the default CBOR map key order for encoding:
	// "velocity" (schema order) or "rfc8949".
	SortMode string `yaml:"sort_mode"`

	// OutputFormat is the default decode output style: "rfc7951"
	// or "fully-prefixed".
	OutputFormat string `yaml:"output_format"`
}

// Default returns the default configuration. These defaults exist so
// every field has a sensible zero-value; encode/decode work without
// any config file when --catalog is given on the command line.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		CatalogDir:     filepath.Join(homeDir, ".cache", "tsnctl", "catalog"),
		VendorPrefixes: schema.DefaultVendorPrefixes,
		SortMode:       "velocity",
		OutputFormat:   "rfc7951",
	}
}

// Load reads the configuration file at path. An empty path consults
// TSNCTL_CONFIG; if that is also unset, the defaults are returned
// unchanged.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	configuration := Default()
	if path == "" {
		return configuration, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, configuration); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := configuration.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return configuration, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.SortMode {
	case "", "velocity", "rfc8949":
	default:
		return fmt.Errorf("sort_mode must be \"velocity\" or \"rfc8949\", got %q", c.SortMode)
	}
	switch c.OutputFormat {
	case "", "rfc7951", "fully-prefixed":
	default:
		return fmt.Errorf("output_format must be \"rfc7951\" or \"fully-prefixed\", got %q", c.OutputFormat)
	}
	return nil
}
