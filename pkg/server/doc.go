// Package server assembles the HTTP test backend: a TCP listener,
// optionally wrapped in TLS, always wrapped in transparent PROXY header
// unwrapping, serving the synthetic load balancer test endpoints.
//
// The listener stack, from the wire up:
//
//	tcp -> tls (optional) -> proxyproto -> net/http
//
// The PROXY header travels inside the TLS stream, so decryption happens
// before header detection.
package server
