// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands wires the tsnctl command tree: schema-driven
// YAML↔CBOR translation plus cache and payload inspection helpers.
package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/tsn-tools/tsnctl/cmd/tsnctl/cli"
	"github.com/tsn-tools/tsnctl/lib/config"
	"github.com/tsn-tools/tsnctl/lib/schema"
	"github.com/tsn-tools/tsnctl/lib/transcode"
)

// Root returns the top-level tsnctl command.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "tsnctl",
		Summary: "YANG/SID configuration toolchain for TSN switches",
		Description: `tsnctl translates between operator YAML and the RFC 9254 YANG-CBOR
payloads a TSN switch's CoAP management plane accepts. The translation
is driven by the device's YANG modules and SID files, loaded from a
local catalog directory.`,
		Subcommands: []*cli.Command{
			encodeCommand(),
			decodeCommand(),
			fetchQueryCommand(),
			cacheCommand(),
			cborCommand(),
		},
	}
}

// session carries the flag values shared by every schema-consuming
// command and materializes the tables on demand.
type session struct {
	configPath string
	catalogDir string
	noCache    bool
	verbose    bool

	logger *slog.Logger
}

// registerFlags adds the shared flags to a command's flag set.
func (s *session) registerFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&s.configPath, "config", "", "config file (default $"+config.EnvVar+")")
	flagSet.StringVar(&s.catalogDir, "catalog", "", "YANG/SID catalog directory (overrides config)")
	flagSet.BoolVar(&s.noCache, "no-cache", false, "ignore and do not write the schema cache")
	flagSet.BoolVarP(&s.verbose, "verbose", "v", false, "enable debug logging")
}

// load reads the config file and builds (or cache-loads) the schema
// tables.
func (s *session) load() (*schema.Tables, *config.Config, error) {
	configuration, err := config.Load(s.configPath)
	if err != nil {
		return nil, nil, err
	}
	if s.catalogDir != "" {
		configuration.CatalogDir = s.catalogDir
	}
	if s.noCache {
		configuration.NoCache = true
	}
	s.logger = cli.NewLogger(s.verbose)

	tables, err := schema.Build(context.Background(), configuration.CatalogDir, schema.Options{
		NoCache:        configuration.NoCache,
		CachePath:      configuration.CachePath,
		VendorPrefixes: configuration.VendorPrefixes,
		Logger:         s.logger,
		Verbose:        s.verbose,
	})
	if err != nil {
		return nil, nil, err
	}
	return tables, configuration, nil
}

// sortMode maps the config/flag spelling to the transcode constant.
func sortMode(name string) transcode.SortMode {
	if name == "rfc8949" {
		return transcode.SortRFC8949
	}
	return transcode.SortVelocity
}

// outputFormat maps the config/flag spelling to the transcode
// constant.
func outputFormat(name string) transcode.OutputFormat {
	if name == "fully-prefixed" {
		return transcode.FormatFullyPrefixed
	}
	return transcode.FormatRFC7951
}
