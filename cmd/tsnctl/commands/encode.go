// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/tsn-tools/tsnctl/cmd/tsnctl/cli"
	"github.com/tsn-tools/tsnctl/lib/transcode"
)

// readInput reads the named file, or stdin when path is empty.
func readInput(path string) ([]byte, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func encodeCommand() *cli.Command {
	var (
		shared session
		file   string
		sort   string
	)
	return &cli.Command{
		Name:    "encode",
		Summary: "Convert operator YAML to a YANG-CBOR payload",
		Description: `Read a YAML document (a sequence of instance-identifier entries, or a
hierarchical document as produced by decode) and write the Delta-SID
CBOR payload to stdout.`,
		Usage: "tsnctl encode [-f file] [--sort velocity|rfc8949] [flags]",
		Examples: []cli.Example{
			{
				Description: "Encode an instance-identifier document",
				Command:     "tsnctl encode -f enable-port.yaml > payload.cbor",
			},
			{
				Description: "Inspect the encoding without a device",
				Command:     "tsnctl encode -f cfg.yaml | tsnctl cbor diag",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("encode", pflag.ContinueOnError)
			flagSet.StringVarP(&file, "file", "f", "", "input YAML file (default stdin)")
			flagSet.StringVar(&sort, "sort", "", "map key order: velocity or rfc8949 (default from config)")
			shared.registerFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("encode takes no positional arguments, got %q", args[0])
			}
			tables, configuration, err := shared.load()
			if err != nil {
				return err
			}
			if sort == "" {
				sort = configuration.SortMode
			}
			input, err := readInput(file)
			if err != nil {
				return err
			}
			payload, err := transcode.EncodeYAML(input, tables, transcode.EncodeOptions{
				SortMode: sortMode(sort),
				Logger:   shared.logger,
			})
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(payload)
			return err
		},
	}
}
