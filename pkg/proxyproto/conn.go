package proxyproto

import (
	"bufio"
	"net"
	"sync"

	"github.com/google/uuid"
)

// Conn wraps an accepted connection, consuming a leading PROXY header on
// first I/O and rewriting the peer address it advertises.
//
// The rewrite is purely observational: RemoteAddr reports the address
// relayed by the header, but the transport layer keeps talking to the
// proxy. Once parsed, the relayed address is the connection's effective
// peer identity for the rest of its life.
type Conn struct {
	net.Conn

	listener *Listener
	id       string

	br        *bufio.Reader
	once      sync.Once
	closeOnce sync.Once
	hdr       *Header
	err       error
	remote    net.Addr
}

func newConn(c net.Conn, l *Listener) *Conn {
	return &Conn{
		Conn:     c,
		listener: l,
		id:       uuid.NewString(),
		br:       bufio.NewReader(c),
	}
}

// ID returns the connection's unique identifier, used to correlate the
// PROXY header log line with access log lines.
func (c *Conn) ID() string { return c.id }

// ProxyHeader returns the header parsed from this connection, blocking
// until detection has run. The header is nil when the stream carried
// none.
func (c *Conn) ProxyHeader() (*Header, error) {
	c.once.Do(c.detect)
	return c.hdr, c.err
}

// Read reads data from the connection, after consuming the PROXY header
// if one is present. A header parse failure is returned from every Read,
// which makes the HTTP server close the connection without ever seeing
// the consumed bytes.
func (c *Conn) Read(p []byte) (int, error) {
	c.once.Do(c.detect)
	if c.err != nil {
		return 0, c.err
	}
	return c.br.Read(p)
}

// RemoteAddr returns the peer address relayed by the PROXY header, or the
// transport-level address when the connection carried no header. The
// first call blocks until the header has been read; net/http makes that
// call on the connection's own serve goroutine.
func (c *Conn) RemoteAddr() net.Addr {
	c.once.Do(c.detect)
	if c.remote != nil {
		return c.remote
	}
	return c.Conn.RemoteAddr()
}

// Close closes the connection and fires the listener's close hook once.
func (c *Conn) Close() error {
	err := c.Conn.Close()
	c.closeOnce.Do(func() {
		if c.listener.OnConnClose != nil {
			c.listener.OnConnClose()
		}
	})
	return err
}

func (c *Conn) detect() {
	log := c.listener.logger
	c.hdr, c.err = Detect(c.br)
	if c.listener.OnHeader != nil {
		c.listener.OnHeader(c.hdr, c.err)
	}
	if c.err != nil {
		log.Warn("rejecting connection with invalid PROXY header",
			"conn_id", c.id,
			"remote_addr", c.Conn.RemoteAddr().String(),
			"error", c.err,
		)
		return
	}
	if c.hdr == nil {
		return
	}

	// LOCAL connections keep the transport-level peer identity; only a
	// PROXY command with a decodable source address rewrites it.
	if c.hdr.Command == CommandProxy {
		if src := c.hdr.SourceAddr(); src != nil {
			c.remote = src
		}
	}

	attrs := []any{
		"conn_id", c.id,
		"proxy_version", int(c.hdr.Version),
		"command", c.hdr.Command.String(),
		"transport", c.hdr.Transport.String(),
	}
	if c.hdr.Transport == TransportUnrecognized {
		attrs = append(attrs, "fam_proto_byte", c.hdr.FamProto)
	}
	if c.hdr.SourceIP != nil {
		attrs = append(attrs,
			"src_ip", c.hdr.SourceIP.String(),
			"src_port", c.hdr.SourcePort,
			"dst_ip", c.hdr.DestIP.String(),
			"dst_port", c.hdr.DestPort,
		)
	}
	log.Info("PROXY header received", attrs...)
}
