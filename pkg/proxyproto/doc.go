// Package proxyproto transparently unwraps the PROXY protocol (versions 1
// and 2) from the front of an accepted connection's byte stream.
//
// Load balancers prepend a PROXY header to the TCP stream to convey the
// original client's address to the backend. This package detects whether
// such a header is present without consuming bytes that belong to ordinary
// HTTP traffic, parses it when found, and rewrites the connection's
// perceived peer address so that access logs and handlers see the real
// client instead of the load balancer.
//
// # Detection
//
// Detection peeks at the first bytes of the stream:
//
//   - "PROXY " (6 ASCII bytes) starts a version 1 text header, a single
//     CRLF-terminated line of at most 107 bytes.
//   - A fixed 12-byte binary signature starts a version 2 header, followed
//     by a 4-byte prologue and a length-prefixed address block.
//
// When neither signature matches, zero bytes are consumed and the stream
// is handed to the HTTP layer untouched.
//
// # Usage
//
//	ln, _ := net.Listen("tcp", ":8000")
//	pln := proxyproto.NewListener(ln, slog.Default())
//	_ = http.Serve(pln, handler)
//
// Each accepted connection parses its header lazily on first I/O, so a
// peer that is slow to send the header never blocks the accept loop. A
// connection carries at most one header, consumed once before any HTTP
// request bytes are read.
package proxyproto
