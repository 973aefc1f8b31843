// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

// Package diff is a subcommand of the root command. It folds two profiles
// into the two-count differential format consumed by the render command.
package diff

import (
	"fmt"
	"os"
	"strings"

	"inferno/internal/app"
	"inferno/internal/difffolded"
	"inferno/internal/util"

	"github.com/spf13/cobra"
)

const cmdName = "diff"

var examples = []string{
	fmt.Sprintf("  Fold two profiles:             $ %s %s before.folded after.folded > diff.folded", app.Name, cmdName),
	fmt.Sprintf("  Fold and render in one go:     $ %s %s before.folded after.folded | %s render > diff.svg", app.Name, cmdName, app.Name),
	fmt.Sprintf("  Profiles of unequal duration:  $ %s %s --normalize before.folded after.folded > diff.folded", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName + " [flags] <before> <after>",
	Short:         "Fold two profiles into differential folded stacks",
	Long:          "",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.ExactArgs(2),
	SilenceErrors: true,
}

var (
	flagOutput    string
	flagNormalize bool
	flagStripHex  bool
)

const (
	flagNormalizeName = "normalize"
	flagStripHexName  = "strip-hex"
)

func init() {
	Cmd.Flags().StringVarP(&flagOutput, app.FlagOutputName, "o", "", "write the folded output to the given file instead of stdout")
	Cmd.Flags().BoolVar(&flagNormalize, flagNormalizeName, false, "scale the first profile's counts so both totals match")
	Cmd.Flags().BoolVar(&flagStripHex, flagStripHexName, false, "replace hexadecimal addresses in frame names with 0x...")
}

func validateFlags(cmd *cobra.Command, args []string) error {
	for _, path := range args {
		exists, err := util.FileExists(util.ExpandUser(path))
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("input file %s does not exist", path)
		}
	}
	return nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	before, err := os.Open(util.ExpandUser(args[0]))
	if err != nil {
		return err
	}
	defer before.Close()
	after, err := os.Open(util.ExpandUser(args[1]))
	if err != nil {
		return err
	}
	defer after.Close()

	out := os.Stdout
	if flagOutput != "" {
		path, err := util.AbsPath(flagOutput)
		if err != nil {
			return err
		}
		out, err = os.Create(path)
		if err != nil {
			return err
		}
		defer out.Close()
	}
	opt := difffolded.Options{Normalize: flagNormalize, StripHex: flagStripHex}
	return difffolded.Fold(&opt, before, after, out)
}
