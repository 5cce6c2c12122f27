// Package main is the entry point for the toastboard CLI.
//
// Toastboard can be embedded as a library (SDK) or run as a standalone binary
// with YAML configuration. This CLI provides the standalone binary and a
// small producer command for posting toasts to a running server.
//
// Usage:
//
//	toastboard serve -c config.yaml                # Start the server
//	toastboard validate -c config.yaml             # Validate configuration
//	toastboard notify --title "Deployed" -k success # Post a toast
//	toastboard version                             # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "toastboard",
	Short: "A lightweight toast notification server",
	Long: `Toastboard keeps an ordered stack of toast notifications and shows
them live in a web page, with Server-Sent Events and WebSocket streams.

Quick start:
  1. Create a config file (toastboard.yaml)
  2. Run: toastboard serve -c toastboard.yaml
  3. Open http://localhost:8080 in your browser
  4. Run: toastboard notify --title "Hello" --kind success

Example config:
  port: 8080
  dismiss:
    default: 5s
    error: 0s
  toasts:
    - title: Welcome
      kind: info`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this toastboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "toastboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
