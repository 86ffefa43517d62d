// Package ui provides terminal UI components for the g2link-ctl CLI.
//
// This package uses Bubble Tea and Lipgloss to render polished terminal
// output for session commands. Unlike the interactive TUI wizard, these
// components follow a "run once and exit" pattern - they render output
// compellingly but don't require user interaction.
//
// # Architecture
//
// The UI package provides four main component types:
//
//   - Header: Command banner showing operation name and parameters
//   - Progress: Progress bar with step list showing real-time status
//   - Result: Success/failure boxes with styled information
//   - FrameLog: Raw frame traffic box for verbose mode
//
// These components are orchestrated by the Runner, which manages the
// header, progress and result flow for multi-step session operations
// such as the pairing handshake or a teleprompter upload.
//
// # Usage Pattern
//
// Session commands use this package by:
//
//  1. Creating a Runner with command metadata
//  2. Calling Run() with their operation function
//  3. The operation reports progress via a step callback
//  4. Runner handles all UI rendering automatically
//
// Example:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:     "Glasses Connect",
//	    Command:   "g2link-ctl connect",
//	    Params:    map[string]string{"Scan timeout": "10s"},
//	    StepNames: []string{"Scanning", "Attaching", "Handshake", "Settling"},
//	    Verbose:   verbose,
//	})
//
//	err := runner.RunSteps(ctx, func(onStep ui.StepCallback) error {
//	    onStep(1, "Scanning", ui.StepRunning, "")
//	    // ... do work ...
//	    onStep(1, "Scanning", ui.StepComplete, "2 devices")
//	    return nil
//	})
//
// # Logging Integration
//
// This package expects logging to be controlled via the G2LINK_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent,
// allowing the curated UI output to be displayed cleanly. Set
// G2LINK_LOG_LEVEL to "debug", "info", "warn", or "error" to enable
// logging output.
//
// # Verbose Mode
//
// When --verbose is passed to session commands, the FrameLog component
// displays the raw frames exchanged with the glasses in a styled box
// after the result. This is the quickest way to collect new material for
// protocol analysis.
package ui
