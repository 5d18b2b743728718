package proxyproto

import "net"

// Version identifies the PROXY protocol encoding that carried a header.
type Version int

const (
	// Version1 is the human-readable text encoding.
	Version1 Version = 1
	// Version2 is the binary encoding.
	Version2 Version = 2
)

// Command is the connection command carried by a version 2 header.
// Version 1 headers always imply CommandProxy.
type Command byte

const (
	// CommandLocal marks a connection originated by the proxy itself,
	// for example a health check. The address block carries no usable
	// client identity.
	CommandLocal Command = 0x0
	// CommandProxy marks a relayed connection whose original client
	// address is carried in the header.
	CommandProxy Command = 0x1
)

// String returns the command name as used in log output.
func (c Command) String() string {
	switch c {
	case CommandLocal:
		return "LOCAL"
	case CommandProxy:
		return "PROXY"
	}
	return "UNKNOWN"
}

// Transport is the address family and socket type conveyed by a header.
//
// For version 2 it is decoded from the combined family/protocol byte; for
// version 1 it is inferred from whether the address fields parse as IPv4
// or IPv6. Combinations the wire format allows but this server cannot
// decode addresses for are kept as TransportUnrecognized rather than
// rejected: the header is still consumed so HTTP parsing resumes cleanly,
// but no address rewrite occurs.
type Transport int

const (
	TransportUnspec Transport = iota
	TransportTCP4
	TransportUDP4
	TransportTCP6
	TransportUDP6
	TransportUnixStream
	TransportUnixDgram
	TransportUnrecognized
)

// String returns the transport name as used in log output.
func (t Transport) String() string {
	switch t {
	case TransportUnspec:
		return "UNSPEC"
	case TransportTCP4:
		return "TCP4"
	case TransportUDP4:
		return "UDP4"
	case TransportTCP6:
		return "TCP6"
	case TransportUDP6:
		return "UDP6"
	case TransportUnixStream:
		return "UNIX"
	case TransportUnixDgram:
		return "UNIXGRAM"
	}
	return "UNRECOGNIZED"
}

// transportFromByte decodes the version 2 family/protocol byte. The high
// nibble is the address family, the low nibble the socket type.
func transportFromByte(b byte) Transport {
	switch b {
	case 0x00:
		return TransportUnspec
	case 0x11:
		return TransportTCP4
	case 0x12:
		return TransportUDP4
	case 0x21:
		return TransportTCP6
	case 0x22:
		return TransportUDP6
	case 0x31:
		return TransportUnixStream
	case 0x32:
		return TransportUnixDgram
	}
	return TransportUnrecognized
}

// Header is the decoded form of a PROXY protocol header. A connection
// carries at most one, parsed once at connection start.
type Header struct {
	Version   Version
	Command   Command
	Transport Transport

	// FamProto is the raw family/protocol byte of a version 2 header,
	// retained for logging unrecognized combinations. Zero for version 1.
	FamProto byte

	// SourceIP and DestIP are nil when the address family carries no
	// decodable addresses (UNSPEC, unix sockets, or an unrecognized
	// family).
	SourceIP   net.IP
	DestIP     net.IP
	SourcePort uint16
	DestPort   uint16
}

// SourceAddr returns the advertised client address, or nil when the
// header carries no decodable source address.
func (h *Header) SourceAddr() net.Addr {
	if h.SourceIP == nil {
		return nil
	}
	return h.addr(h.SourceIP, h.SourcePort)
}

// DestAddr returns the advertised destination address, or nil when the
// header carries no decodable destination address.
func (h *Header) DestAddr() net.Addr {
	if h.DestIP == nil {
		return nil
	}
	return h.addr(h.DestIP, h.DestPort)
}

func (h *Header) addr(ip net.IP, port uint16) net.Addr {
	switch h.Transport {
	case TransportUDP4, TransportUDP6:
		return &net.UDPAddr{IP: ip, Port: int(port)}
	}
	return &net.TCPAddr{IP: ip, Port: int(port)}
}
