// Package ui provides terminal output components for the rev4ctl CLI.
//
// This package uses Lipgloss to render styled, run-once output: command
// headers, success and failure boxes, and the pulse train view used by the
// encode, decode and listen commands. The interactive remote lives in the
// remote package.
//
// # Components
//
//   - Header: Command banner showing operation name and parameters
//   - Result: Success/failure/warning boxes with styled information
//   - Pulses: Bit frame and per-group pulse train rendering
//   - Confirm: Typed confirmation before destructive config changes
//
// Example:
//
//	p := ui.NewPrinter()
//	p.PrintHeader("Encode", "rev4ctl encode --id 5 --unit 2 --on", params)
//	p.Println(ui.RenderEncoding(enc, p.Width()))
//
// # Logging Integration
//
// This package expects logging to be controlled via the REV4_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent, allowing
// the curated UI output to be displayed cleanly.
package ui
