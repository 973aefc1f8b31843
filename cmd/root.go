// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

// Package cmd provides the command line interface for the application.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"inferno/cmd/diff"
	"inferno/cmd/render"
	"inferno/internal/app"

	"github.com/spf13/cobra"
)

var gLogFile *os.File
var gVersion = "9.9.9" // overwritten by ldflags at build time

var examples = []string{
	fmt.Sprintf("  Render a flame graph:                  $ perf script | stackcollapse-perf > out.folded; %s render out.folded > out.svg", app.Name),
	fmt.Sprintf("  Render from stdin:                     $ %s render < out.folded > out.svg", app.Name),
	fmt.Sprintf("  Fold two profiles into a differential: $ %s diff before.folded after.folded | %s render > diff.svg", app.Name, app.Name),
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:               app.Name,
	Short:             app.Name,
	Long:              fmt.Sprintf(`%s (%s) renders folded stack samples as interactive SVG flame graphs.`, app.LongName, app.Name),
	Example:           strings.Join(examples, "\n"),
	PersistentPreRunE: initializeApplication, // will only be run if command has a 'Run' function
	PersistentPostRun: terminateApplication,
	Version:           gVersion,
}

var (
	// logging
	flagDebug     bool
	flagLogStdOut bool
	flagLogFile   string
)

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{}) // block the help command
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.AddGroup([]*cobra.Group{{ID: "primary", Title: "Commands:"}}...)
	rootCmd.AddCommand(render.Cmd)
	rootCmd.AddCommand(diff.Cmd)
	// Global (persistent) flags
	rootCmd.PersistentFlags().BoolVar(&flagDebug, app.FlagDebugName, false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagLogStdOut, app.FlagLogStdOutName, false, "write logs to stdout as JSON instead of stderr")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, app.FlagLogFileName, "", "write logs to the given file")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.EnableCommandSorting = false
	cobra.EnableCaseInsensitive = true
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		terminateApplication(rootCmd, os.Args)
		os.Exit(1)
	}
}

func initializeApplication(cmd *cobra.Command, args []string) error {
	// configure logging
	var logOpts slog.HandlerOptions
	if flagDebug {
		logOpts.Level = slog.LevelDebug
		logOpts.AddSource = true
	} else {
		logOpts.Level = slog.LevelInfo
		logOpts.AddSource = false
	}
	if flagLogStdOut && flagLogFile != "" {
		fmt.Println("Error: both stdout logging and a log file specified. Please pick one only.")
		os.Exit(1)
	} else if flagLogStdOut {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &logOpts)))
	} else if flagLogFile != "" {
		var err error
		gLogFile, err = os.OpenFile(flagLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644) // #nosec G302
		if err != nil {
			fmt.Printf("Error: failed to open log file: %v\n", err)
			os.Exit(1)
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(gLogFile, &logOpts)))
	} else {
		// the SVG goes to stdout, so logs default to stderr
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &logOpts)))
	}
	slog.Debug("Starting up", slog.String("app", app.Name), slog.String("version", gVersion), slog.Int("PID", os.Getpid()), slog.String("arguments", strings.Join(os.Args, " ")))
	return nil
}

// terminateApplication closes the log file, if one was opened
func terminateApplication(cmd *cobra.Command, args []string) {
	if gLogFile != nil {
		gLogFile.Close()
		gLogFile = nil
	}
}
