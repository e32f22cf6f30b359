// Package main provides the discoverymesh command line interface: a
// long-running HTTP server (serve) and a one-shot request runner (ask).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "discoverymesh",
	Short: "DiscoveryMesh - multi-agent product discovery orchestration",
	Long: `DiscoveryMesh routes free-text product requests through a set of
cooperating agents (search, recommend, alternatives, explain) coordinated
by typed workflows over a priority message bus.

Configuration is read from discoverymesh.yaml, the DISCOVERYMESH_*
environment variables, or the file given with --config.`,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
