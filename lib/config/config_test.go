// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvVar, "")
	configuration, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if configuration.SortMode != "velocity" {
		t.Errorf("SortMode = %q, want velocity", configuration.SortMode)
	}
	if configuration.OutputFormat != "rfc7951" {
		t.Errorf("OutputFormat = %q, want rfc7951", configuration.OutputFormat)
	}
	if len(configuration.VendorPrefixes) == 0 {
		t.Error("default vendor prefixes missing")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsnctl.yaml")
	content := `
catalog_dir: /srv/yang
sort_mode: rfc8949
vendor_prefixes:
  - custom-
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	configuration, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if configuration.CatalogDir != "/srv/yang" {
		t.Errorf("CatalogDir = %q", configuration.CatalogDir)
	}
	if configuration.SortMode != "rfc8949" {
		t.Errorf("SortMode = %q", configuration.SortMode)
	}
	if len(configuration.VendorPrefixes) != 1 || configuration.VendorPrefixes[0] != "custom-" {
		t.Errorf("VendorPrefixes = %v", configuration.VendorPrefixes)
	}
	// Untouched fields keep their defaults.
	if configuration.OutputFormat != "rfc7951" {
		t.Errorf("OutputFormat = %q, want default", configuration.OutputFormat)
	}
}

func TestLoadEnvVar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsnctl.yaml")
	if err := os.WriteFile(path, []byte("catalog_dir: /from/env\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv(EnvVar, path)

	configuration, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if configuration.CatalogDir != "/from/env" {
		t.Errorf("CatalogDir = %q, want /from/env", configuration.CatalogDir)
	}
}

func TestLoadValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsnctl.yaml")
	if err := os.WriteFile(path, []byte("sort_mode: alphabetical\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted an invalid sort_mode")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load succeeded on a missing file")
	}
}
