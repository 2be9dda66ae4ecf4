// Package cli implements the operator-facing command surface: starting
// the tunnel server and inspecting its authorization store.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "vlesstund",
	Short: "VLESS-style WebSocket tunnel proxy server",
	Long: `vlesstund terminates WebSocket-carried tunnels speaking a VLESS-style
binary wire format, authenticates them against a dynamically refreshed
set of authorized UUIDs, and proxies tunneled payload as outbound TCP,
DNS-over-HTTPS, or Mux.Cool multiplexed sub-streams.

Configuration is environment-sourced. Typical use:

  vlesstund serve                 Start the tunnel server
  vlesstund uuids                 Show the current authorized UUID set`,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("vlesstund %s (%s)\n", Version, GitCommit)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
