package middleware

import (
	"context"
	"net/http"

	"cloudscale-ch/lbbackend/pkg/proxyproto"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// Context keys for storing values in request context.
const (
	// RequestIDKey stores the unique request ID.
	RequestIDKey contextKey = "request_id"

	// StartTimeKey stores the request start time for latency calculation.
	StartTimeKey contextKey = "start_time"

	// ConnKey stores the wrapped connection a request arrived on.
	ConnKey contextKey = "conn"
)

// WithConn stores the wrapped connection in ctx. It is installed as the
// http.Server ConnContext hook so handlers and middleware can reach the
// connection a request arrived on.
func WithConn(ctx context.Context, conn *proxyproto.Conn) context.Context {
	return context.WithValue(ctx, ConnKey, conn)
}

// GetConn extracts the wrapped connection from the context.
// Returns nil if the request did not arrive over a wrapped listener.
func GetConn(ctx context.Context) *proxyproto.Conn {
	if conn, ok := ctx.Value(ConnKey).(*proxyproto.Conn); ok {
		return conn
	}
	return nil
}

// GetConnID extracts the connection ID from the context.
// Returns empty string if not found.
func GetConnID(ctx context.Context) string {
	if conn := GetConn(ctx); conn != nil {
		return conn.ID()
	}
	return ""
}

// GetRequestID extracts the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// Chain applies middlewares to handler in reverse order, so the first
// middleware in the list is the outermost one.
func Chain(handler http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
