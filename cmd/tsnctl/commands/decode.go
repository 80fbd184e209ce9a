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

func decodeCommand() *cli.Command {
	var (
		shared session
		file   string
		format string
	)
	return &cli.Command{
		Name:    "decode",
		Summary: "Convert a YANG-CBOR payload to hierarchical YAML",
		Description: `Read a Delta-SID CBOR payload (a device response) and write the
equivalent hierarchical YAML to stdout. By default module prefixes
appear only where the module changes (RFC 7951 style); use
--format fully-prefixed to prefix every node.`,
		Usage: "tsnctl decode [-f file] [--format rfc7951|fully-prefixed] [flags]",
		Examples: []cli.Example{
			{
				Description: "Decode a device response",
				Command:     "tsnctl decode -f response.cbor",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
			flagSet.StringVarP(&file, "file", "f", "", "input CBOR file (default stdin)")
			flagSet.StringVar(&format, "format", "", "output style: rfc7951 or fully-prefixed (default from config)")
			shared.registerFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("decode takes no positional arguments, got %q", args[0])
			}
			tables, configuration, err := shared.load()
			if err != nil {
				return err
			}
			if format == "" {
				format = configuration.OutputFormat
			}
			input, err := readInput(file)
			if err != nil {
				return err
			}
			document, err := transcode.DecodeCBOR(input, tables, transcode.DecodeOptions{
				OutputFormat: outputFormat(format),
				Logger:       shared.logger,
			})
			if err != nil {
				return err
			}
			_, err = os.Stdout.WriteString(document)
			return err
		},
	}
}
