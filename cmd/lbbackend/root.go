package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lbbackend",
	Short: "PROXY protocol aware HTTP test backend",
	Long: `Lbbackend is an HTTP test backend for load balancer acceptance tests.

Every accepted connection is checked for a leading PROXY protocol header
(version 1 text or version 2 binary); when one is present it is consumed
and the relayed client address replaces the socket's peer address in all
logging. Connections without a header work normally.

Endpoints:
  /endless/<anything>  endless stream of random bytes, never completes
  /hostname            the server's hostname with exact Content-Length
  anything else        static files from the document root`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
