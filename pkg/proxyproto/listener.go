package proxyproto

import (
	"log/slog"
	"net"
)

// Listener wraps a net.Listener so that every accepted connection
// transparently unwraps a leading PROXY header. The wrapping is
// unconditional: every connection is checked, and connections without a
// header pass through untouched.
type Listener struct {
	net.Listener

	logger *slog.Logger

	// OnConnOpen, OnConnClose, and OnHeader are optional hooks used for
	// metrics. OnHeader fires once per connection after detection, with
	// a nil header when the stream carried none.
	OnConnOpen  func()
	OnConnClose func()
	OnHeader    func(hdr *Header, err error)
}

// NewListener wraps ln. The logger receives one line per connection that
// carried a PROXY header, and a warning for each connection rejected due
// to a parse failure.
func NewListener(ln net.Listener, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{Listener: ln, logger: logger}
}

// Accept waits for the next connection and wraps it in a *Conn. The PROXY
// header is not read here: parsing happens lazily on the connection's own
// goroutine so a slow peer never stalls the accept loop.
func (l *Listener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	if l.OnConnOpen != nil {
		l.OnConnOpen()
	}
	return newConn(c, l), nil
}
