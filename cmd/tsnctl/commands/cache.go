// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/tsn-tools/tsnctl/cmd/tsnctl/cli"
	"github.com/tsn-tools/tsnctl/lib/config"
	"github.com/tsn-tools/tsnctl/lib/schema"
)

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:    "cache",
		Summary: "Manage the schema table cache",
		Subcommands: []*cli.Command{
			cacheBuildCommand(),
			cacheCheckCommand(),
		},
	}
}

// cacheConfig resolves the catalog and cache settings shared by the
// cache subcommands.
func cacheConfig(shared *session) (*config.Config, error) {
	configuration, err := config.Load(shared.configPath)
	if err != nil {
		return nil, err
	}
	if shared.catalogDir != "" {
		configuration.CatalogDir = shared.catalogDir
	}
	shared.logger = cli.NewLogger(shared.verbose)
	return configuration, nil
}

func cacheBuildCommand() *cli.Command {
	var shared session
	return &cli.Command{
		Name:    "build",
		Summary: "Rebuild the schema cache from the catalog",
		Description: `Parse every .yang and .sid file in the catalog and write a fresh
schema cache, ignoring any existing one.`,
		Usage: "tsnctl cache build [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("cache build", pflag.ContinueOnError)
			shared.registerFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			configuration, err := cacheConfig(&shared)
			if err != nil {
				return err
			}
			tables, err := schema.Build(context.Background(), configuration.CatalogDir, schema.Options{
				ForceRebuild:   true,
				CachePath:      configuration.CachePath,
				VendorPrefixes: configuration.VendorPrefixes,
				Logger:         shared.logger,
				Verbose:        shared.verbose,
			})
			if err != nil {
				return err
			}
			shared.logger.Info("schema cache rebuilt",
				"catalog", configuration.CatalogDir,
				"dataNodes", len(tables.Tree.SidToPath),
				"identities", len(tables.Tree.SidToIdentity),
				"typedLeaves", len(tables.Types.Types))
			return nil
		},
	}
}

func cacheCheckCommand() *cli.Command {
	var shared session
	return &cli.Command{
		Name:    "check",
		Summary: "Report whether the schema cache is current",
		Description: `Check the schema cache against the catalog: format version, cache
freshness relative to every source file, and source digests. Exits
non-zero when a rebuild would be triggered.`,
		Usage: "tsnctl cache check [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("cache check", pflag.ContinueOnError)
			shared.registerFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			configuration, err := cacheConfig(&shared)
			if err != nil {
				return err
			}
			if err := schema.CheckCache(configuration.CatalogDir, schema.Options{
				CachePath: configuration.CachePath,
			}); err != nil {
				return fmt.Errorf("cache is stale: %w", err)
			}
			fmt.Println("cache is current")
			return nil
		},
	}
}
