// Rev4ctl drives Rev v4 433 MHz remote switches.
//
// It encodes and decodes rev4_switch pulse trains, keeps a registry of
// paired switches, runs the WebSocket bridge that radio hosts and
// controllers meet on, and offers an interactive remote for the paired
// switches.
//
// Usage:
//
//	rev4ctl [command] [flags]
//
// See 'rev4ctl --help' for available commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/rev4switch/internal/config"
	"github.com/muurk/rev4switch/internal/logging"
	"github.com/muurk/rev4switch/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	logLevel     string
	configPath   string
	pulseLength  int
	outputFormat string
)

// Output formats
const (
	formatPretty = "pretty"
	formatJSON   = "json"
	formatRaw    = "raw"
)

var rootCmd = &cobra.Command{
	Use:   "rev4ctl",
	Short: "Rev v4 433 MHz switch remote",
	Long: `A command line remote for Rev v4 433 MHz switches.

Encodes switch commands into rev4_switch pulse trains, decodes captured
trains back into commands, and talks to a rev4_switch bridge over
WebSocket. Paired switches are kept in a small YAML registry so they can
be addressed by name.`,
	Version: version.Version,
	Example: `  # Show the pulse train that turns unit 2 of remote 5 on
  rev4ctl encode --id 5 --unit 2 --on

  # Decode a captured train
  rev4ctl decode 264 792 792 264 ...

  # Run the bridge and announce it on the LAN
  rev4ctl serve --advertise

  # Switch a paired switch through the nearest bridge
  rev4ctl send lamp --on`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Initialize(logLevel); err != nil {
			return err
		}
		switch outputFormat {
		case formatPretty, formatJSON, formatRaw:
		default:
			return fmt.Errorf("unknown output format %q (expected pretty, json or raw)", outputFormat)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to $"+logging.LogLevelEnvVar)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Registry file (defaults to $"+config.ConfigPathEnvVar+" or the user config dir)")
	rootCmd.PersistentFlags().IntVar(&pulseLength, "pulse-length", 0, "Pulse length, 264 or 258 (defaults to the registry preference)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", formatPretty, "Output format (pretty, json, raw)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat == formatJSON {
			return printJSON(cmd, version.Get())
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		return nil
	},
}

// loadRegistry reads the registry from --config or the default location.
func loadRegistry() (*config.Registry, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.LoadRegistry()
}

// saveRegistry writes reg back to where loadRegistry found it.
func saveRegistry(reg *config.Registry) error {
	if configPath != "" {
		return reg.SaveTo(configPath)
	}
	return reg.Save()
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
