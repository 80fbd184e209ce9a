// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/tsn-tools/tsnctl/cmd/tsnctl/cli"
	"github.com/tsn-tools/tsnctl/lib/transcode"
)

func fetchQueryCommand() *cli.Command {
	var (
		shared session
		file   string
		all    bool
	)
	return &cli.Command{
		Name:    "fetch-query",
		Summary: "Convert instance-identifiers to the fetch verb's SID form",
		Description: `Read a YAML sequence of instance-identifiers and write the device
fetch query to stdout: a bare SID for a leaf or subtree, or the array
[listSid, key1, key2, ...] for a list entry.

The device accepts one query per fetch, so only the first
instance-identifier is emitted when several are given (with a
warning). --all emits every query as a CBOR sequence instead, for
devices that accept one.`,
		Usage: "tsnctl fetch-query [-f file] [--all] [flags]",
		Examples: []cli.Example{
			{
				Description: "Query one list entry",
				Command:     `echo "- /ietf-interfaces:interfaces/interface[name='1']" | tsnctl fetch-query`,
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("fetch-query", pflag.ContinueOnError)
			flagSet.StringVarP(&file, "file", "f", "", "input YAML file (default stdin)")
			flagSet.BoolVar(&all, "all", false, "emit every query as a CBOR sequence")
			shared.registerFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("fetch-query takes no positional arguments, got %q", args[0])
			}
			tables, _, err := shared.load()
			if err != nil {
				return err
			}
			input, err := readInput(file)
			if err != nil {
				return err
			}
			queries, err := transcode.ExtractQueries(input, tables)
			if err != nil {
				return err
			}
			if len(queries) == 0 {
				return fmt.Errorf("no instance-identifiers in input")
			}
			if len(queries) > 1 && !all {
				shared.logger.Warn("multiple instance-identifiers given; the device accepts one query per fetch, sending the first",
					"given", len(queries))
				queries = queries[:1]
			}
			payload, err := transcode.EncodeQueries(queries)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(payload)
			return err
		},
	}
}
