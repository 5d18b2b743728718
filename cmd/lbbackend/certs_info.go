package main

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var certsInfoCmd = &cobra.Command{
	Use:   "info [pem-file]",
	Short: "Display certificate details",
	Long: `Display information about the certificate in a PEM file.

The file may be a combined cert+key PEM as used by the --ssl listener;
only the certificate block is read.

Examples:
  # Display certificate info
  lbbackend certs info server.pem`,
	Args: cobra.ExactArgs(1),
	RunE: displayCertInfo,
}

func init() {
	certsCmd.AddCommand(certsInfoCmd)
}

func displayCertInfo(cmd *cobra.Command, args []string) error {
	certFile := args[0]

	data, err := os.ReadFile(certFile)
	if err != nil {
		return fmt.Errorf("failed to read certificate: %w", err)
	}

	// Skip key blocks; a combined PEM may carry them in either order.
	var cert *x509.Certificate
	for block, rest := pem.Decode(data); block != nil; block, rest = pem.Decode(rest) {
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err = x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("failed to parse certificate: %w", err)
		}
		break
	}
	if cert == nil {
		return fmt.Errorf("no certificate block found in %s", certFile)
	}

	fmt.Printf("Certificate: %s\n\n", certFile)
	fmt.Printf("Subject: %s\n", cert.Subject)
	fmt.Printf("Issuer: %s\n", cert.Issuer)
	fmt.Printf("Serial Number: %s\n", cert.SerialNumber)
	fmt.Println()
	fmt.Println("Validity:")
	fmt.Printf("  Not Before: %s\n", cert.NotBefore.Format(time.RFC3339))
	fmt.Printf("  Not After: %s\n", cert.NotAfter.Format(time.RFC3339))
	if time.Now().After(cert.NotAfter) {
		fmt.Println("  Status: EXPIRED")
	} else {
		fmt.Printf("  Status: valid for %s\n", time.Until(cert.NotAfter).Round(time.Hour))
	}
	fmt.Println()
	if len(cert.DNSNames) > 0 {
		fmt.Printf("DNS Names: %s\n", strings.Join(cert.DNSNames, ", "))
	}
	if len(cert.IPAddresses) > 0 {
		ips := make([]string, len(cert.IPAddresses))
		for i, ip := range cert.IPAddresses {
			ips[i] = ip.String()
		}
		fmt.Printf("IP Addresses: %s\n", strings.Join(ips, ", "))
	}
	fmt.Printf("Signature Algorithm: %s\n", cert.SignatureAlgorithm)
	fmt.Printf("Public Key Algorithm: %s\n", cert.PublicKeyAlgorithm)

	return nil
}
