// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatchesSubcommand(t *testing.T) {
	var ran []string
	root := &Command{
		Name: "tool",
		Subcommands: []*Command{
			{
				Name: "outer",
				Subcommands: []*Command{
					{
						Name: "inner",
						Run: func(args []string) error {
							ran = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute([]string{"outer", "inner", "positional"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(ran) != 1 || ran[0] != "positional" {
		t.Errorf("inner received %v", ran)
	}
}

func TestExecuteUnknownSubcommand(t *testing.T) {
	root := &Command{
		Name:        "tool",
		Subcommands: []*Command{{Name: "known"}},
	}
	err := root.Execute([]string{"unknown"})
	if err == nil || !strings.Contains(err.Error(), `unknown command "unknown"`) {
		t.Errorf("Execute = %v", err)
	}
}

func TestExecuteParsesFlags(t *testing.T) {
	var value string
	command := &Command{
		Name: "tool",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("tool", pflag.ContinueOnError)
			flagSet.StringVar(&value, "mode", "", "")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}
	if err := command.Execute([]string{"--mode", "fast"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if value != "fast" {
		t.Errorf("mode = %q, want fast", value)
	}
}

func TestPrintHelpListsSubcommands(t *testing.T) {
	root := &Command{
		Name:    "tool",
		Summary: "does things",
		Subcommands: []*Command{
			{Name: "encode", Summary: "encode things"},
			{Name: "decode", Summary: "decode things"},
		},
	}
	var output strings.Builder
	root.PrintHelp(&output)
	for _, want := range []string{"encode", "decode", "Commands:"} {
		if !strings.Contains(output.String(), want) {
			t.Errorf("help output missing %q:\n%s", want, output.String())
		}
	}
}
