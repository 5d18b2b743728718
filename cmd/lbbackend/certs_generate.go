package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var generateFlags struct {
	hosts    string
	org      string
	validity int
	keySize  int
	output   string
}

var certsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a self-signed combined PEM",
	Long: `Generate a self-signed TLS certificate for testing.

Certificate and private key are written into a single combined PEM
file, which is the format the --ssl listener expects. The generated
certificate should NOT be used in production.

Examples:
  # Generate server.pem for localhost
  lbbackend certs generate --host localhost

  # Generate with multiple hosts
  lbbackend certs generate --host "localhost,127.0.0.1,backend.local"

  # Generate with custom parameters
  lbbackend certs generate \
    --host "localhost,127.0.0.1" \
    --org "Acceptance Tests" \
    --validity 365 \
    --output server.pem`,
	RunE: generateCertificate,
}

func init() {
	certsCmd.AddCommand(certsGenerateCmd)

	certsGenerateCmd.Flags().StringVar(&generateFlags.hosts, "host", "localhost", "comma-separated hostnames and IPs")
	certsGenerateCmd.Flags().StringVar(&generateFlags.org, "org", "lbbackend", "organization name")
	certsGenerateCmd.Flags().IntVar(&generateFlags.validity, "validity", 365, "validity in days")
	certsGenerateCmd.Flags().IntVar(&generateFlags.keySize, "key-size", 2048, "RSA key size (2048, 3072, 4096)")
	certsGenerateCmd.Flags().StringVarP(&generateFlags.output, "output", "o", "server.pem", "output file for the combined PEM")
}

func generateCertificate(cmd *cobra.Command, args []string) error {
	// Validate key size
	if generateFlags.keySize != 2048 && generateFlags.keySize != 3072 && generateFlags.keySize != 4096 {
		return fmt.Errorf("invalid key size: %d (must be 2048, 3072, or 4096)", generateFlags.keySize)
	}

	// Parse hosts
	hosts := strings.Split(generateFlags.hosts, ",")
	var dnsNames []string
	var ipAddresses []net.IP

	for _, host := range hosts {
		host = strings.TrimSpace(host)
		if ip := net.ParseIP(host); ip != nil {
			ipAddresses = append(ipAddresses, ip)
		} else {
			dnsNames = append(dnsNames, host)
		}
	}

	fmt.Printf("Generating %d-bit RSA private key...\n", generateFlags.keySize)
	privateKey, err := rsa.GenerateKey(rand.Reader, generateFlags.keySize)
	if err != nil {
		return fmt.Errorf("failed to generate private key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("failed to generate serial number: %w", err)
	}

	notBefore := time.Now()
	notAfter := notBefore.AddDate(0, 0, generateFlags.validity)

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{generateFlags.org},
			CommonName:   strings.TrimSpace(hosts[0]),
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              dnsNames,
		IPAddresses:           ipAddresses,
	}

	fmt.Println("Creating self-signed certificate...")
	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	// Both blocks go into one file, key included, so 0600 throughout.
	out, err := os.OpenFile(generateFlags.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if err := pem.Encode(out, &pem.Block{Type: "CERTIFICATE", Bytes: derBytes}); err != nil {
		return fmt.Errorf("failed to write certificate: %w", err)
	}
	privateKeyBytes := x509.MarshalPKCS1PrivateKey(privateKey)
	if err := pem.Encode(out, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: privateKeyBytes}); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	fmt.Println()
	fmt.Printf("Hosts: %s\n", generateFlags.hosts)
	if len(dnsNames) > 0 {
		fmt.Printf("  DNS Names: %v\n", dnsNames)
	}
	if len(ipAddresses) > 0 {
		fmt.Printf("  IP Addresses: %v\n", ipAddresses)
	}
	fmt.Printf("Validity: %d days (until %s)\n", generateFlags.validity, notAfter.Format("2006-01-02"))
	fmt.Println()
	fmt.Printf("✓ Combined PEM generated: %s\n", generateFlags.output)
	fmt.Println()
	fmt.Println("⚠️  Self-signed certificates are for TESTING ONLY")
	fmt.Println()
	fmt.Println("Start the server with:")
	fmt.Printf("  lbbackend run --ssl --cert %s\n", generateFlags.output)

	return nil
}
