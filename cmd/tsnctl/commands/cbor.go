// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/tsn-tools/tsnctl/cmd/tsnctl/cli"
	"github.com/tsn-tools/tsnctl/lib/codec"
)

func cborCommand() *cli.Command {
	return &cli.Command{
		Name:    "cbor",
		Summary: "Inspect raw CBOR payloads",
		Subcommands: []*cli.Command{
			cborDiagCommand(),
		},
	}
}

func cborDiagCommand() *cli.Command {
	var file string
	return &cli.Command{
		Name:    "diag",
		Summary: "Convert CBOR to diagnostic notation",
		Description: `Read CBOR and write RFC 8949 Extended Diagnostic Notation to stdout,
one line per data item. Unlike decode, this needs no schema catalog
and preserves the exact wire structure: integer map keys, tags, and
byte strings stay visible. Useful for comparing tsnctl's output with
a device capture byte by byte.`,
		Usage: "tsnctl cbor diag [-f file]",
		Examples: []cli.Example{
			{
				Description: "Show the structure of an encoded payload",
				Command:     "tsnctl encode -f cfg.yaml | tsnctl cbor diag",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("cbor diag", pflag.ContinueOnError)
			flagSet.StringVarP(&file, "file", "f", "", "input CBOR file (default stdin)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("diag takes no positional arguments, got %q", args[0])
			}
			data, err := readInput(file)
			if err != nil {
				return err
			}
			if len(data) == 0 {
				return fmt.Errorf("empty input: expected CBOR data")
			}
			for len(data) > 0 {
				notation, rest, err := codec.DiagnoseFirst(data)
				if err != nil {
					return fmt.Errorf("diagnosing CBOR: %w", err)
				}
				fmt.Println(notation)
				data = rest
			}
			return nil
		},
	}
}
