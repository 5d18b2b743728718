package main

import (
	"github.com/spf13/cobra"
)

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "Manage TLS certificates",
	Long: `Manage the combined TLS certificate file used by the --ssl listener.

The server expects certificate and private key in a single PEM file,
the same layout a one-shot openssl invocation with matching -keyout and
-out arguments produces.

Subcommands:
  generate - Generate a self-signed combined PEM for testing
  info     - Display certificate details

Examples:
  # Generate a combined PEM for localhost
  lbbackend certs generate --host localhost

  # Display certificate information
  lbbackend certs info server.pem`,
}

func init() {
	rootCmd.AddCommand(certsCmd)
}
