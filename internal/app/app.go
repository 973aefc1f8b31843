// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

// Package app defines application-wide constants and the flag help model
// shared by the subcommands.
package app

// Name is the name of the application
const Name = "inferno"

// LongName is the full name of the application
const LongName = "Inferno Flame Graph Renderer"

// global flag names
const (
	FlagDebugName     = "debug"
	FlagLogStdOutName = "log-stdout"
	FlagLogFileName   = "log-file"
	FlagOutputName    = "output"
)

// Flag represents a command line flag for help formatting purposes
type Flag struct {
	Name string
	Help string
}

// FlagGroup represents a group of related command line flags
type FlagGroup struct {
	GroupName string
	Flags     []Flag
}
