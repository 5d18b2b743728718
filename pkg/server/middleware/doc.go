// Package middleware provides HTTP middleware for the test server:
// request IDs, structured access logging and panic recovery.
//
// The middlewares are composed with Chain; handlers reach per-request
// values (request ID, connection) through the context helpers.
package middleware
