package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "httpx",
	Short: "HTTP/1.1 and HTTP/2 client with redirect resolution",
	Long: `httpx is a command-line HTTP client built on a connection-pooling
engine that speaks HTTP/1.1 and HTTP/2, follows redirect chains with
RFC-compliant method and header rewriting, and reconnects dropped
connections transparently.`,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(versionCmd)
}
