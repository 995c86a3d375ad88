// Command tracedemo drives an eventtrace System end to end: it loads
// settings, registers consumers, emits a burst of demo events and reports
// what was delivered and what was lost.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tracedemo",
	Short: "Exercise the eventtrace dispatch engine",
	Long: `tracedemo emits demo trace events through an eventtrace System,
delivers them to a counting listener and prints the resulting counts.

Settings can be loaded from a YAML, JSON or TOML file with --config.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tracedemo version %s\nCommit: %s\nBuilt: %s\n",
			Version, Commit, BuildTime)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}
