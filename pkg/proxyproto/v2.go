package proxyproto

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

const (
	// v2PrologueLen covers the 12-byte signature, the version/command
	// byte, the family/protocol byte, and the 16-bit address block length.
	v2PrologueLen = 16

	v2AddrLenIPv4 = 12 // 4+4 addresses, 2+2 ports
	v2AddrLenIPv6 = 36 // 16+16 addresses, 2+2 ports
)

// parseV2 consumes and parses a version 2 binary header. The caller has
// already verified the 12-byte signature.
func parseV2(br *bufio.Reader) (*Header, error) {
	prologue := make([]byte, v2PrologueLen)
	if _, err := io.ReadFull(br, prologue); err != nil {
		return nil, fmt.Errorf("%w: v2 prologue: %v", ErrTruncatedHeader, err)
	}

	verCmd := prologue[12]
	if ver := verCmd >> 4; ver != 2 {
		return nil, fmt.Errorf("%w: version nibble %d", ErrUnsupportedVersion, ver)
	}
	var cmd Command
	switch verCmd & 0x0f {
	case 0x0:
		cmd = CommandLocal
	case 0x1:
		cmd = CommandProxy
	default:
		return nil, fmt.Errorf("%w: unknown v2 command 0x%x", ErrMalformedHeader, verCmd&0x0f)
	}

	famProto := prologue[13]
	blockLen := binary.BigEndian.Uint16(prologue[14:16])

	// The address block is length-prefixed, so it can be consumed in full
	// even for families this server does not decode. That keeps the
	// stream positioned exactly at the first HTTP byte.
	block := make([]byte, int(blockLen))
	if _, err := io.ReadFull(br, block); err != nil {
		return nil, fmt.Errorf("%w: v2 address block: declared %d bytes: %v", ErrTruncatedHeader, blockLen, err)
	}

	h := &Header{
		Version:   Version2,
		Command:   cmd,
		Transport: transportFromByte(famProto),
		FamProto:  famProto,
	}

	switch famProto >> 4 {
	case 0x1: // AF_INET
		if len(block) < v2AddrLenIPv4 {
			return nil, fmt.Errorf("%w: IPv4 address block has %d bytes, need %d", ErrMalformedHeader, len(block), v2AddrLenIPv4)
		}
		h.SourceIP = net.IP(block[0:4])
		h.DestIP = net.IP(block[4:8])
		h.SourcePort = binary.BigEndian.Uint16(block[8:10])
		h.DestPort = binary.BigEndian.Uint16(block[10:12])
	case 0x2: // AF_INET6
		if len(block) < v2AddrLenIPv6 {
			return nil, fmt.Errorf("%w: IPv6 address block has %d bytes, need %d", ErrMalformedHeader, len(block), v2AddrLenIPv6)
		}
		h.SourceIP = net.IP(block[0:16])
		h.DestIP = net.IP(block[16:32])
		h.SourcePort = binary.BigEndian.Uint16(block[32:34])
		h.DestPort = binary.BigEndian.Uint16(block[34:36])
	default:
		// Unsupported family: the header was consumed above, no
		// addresses to surface.
	}
	return h, nil
}
