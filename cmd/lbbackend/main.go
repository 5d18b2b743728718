// Lbbackend is an HTTP test backend for load balancer acceptance tests.
//
// It transparently unwraps PROXY protocol headers (version 1 and 2) from
// incoming connections and serves a small set of synthetic endpoints:
//   - /endless/<anything>  an endless stream of random bytes
//   - /hostname            the server's hostname with exact Content-Length
//   - anything else        static files from the document root
//
// Usage:
//
//	# Start on the default port 8000
//	lbbackend run
//
//	# Start with TLS using a combined cert+key PEM
//	lbbackend run --ssl --cert server.pem
//
//	# Generate a combined self-signed PEM for testing
//	lbbackend certs generate --host localhost
//
//	# Show version information
//	lbbackend version
package main

func main() {
	Execute()
}
