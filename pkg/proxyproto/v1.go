package proxyproto

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// v1MaxLen is the maximum length of a version 1 header line including the
// CRLF terminator.
const v1MaxLen = 107

// parseV1 consumes and parses a version 1 text header. The caller has
// already verified the "PROXY " signature.
func parseV1(br *bufio.Reader) (*Header, error) {
	line := make([]byte, 0, v1MaxLen)
	for {
		b, err := br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: v1 line: %v", ErrMalformedHeader, err)
		}
		line = append(line, b)
		if b == '\n' {
			break
		}
		if len(line) == v1MaxLen {
			return nil, fmt.Errorf("%w: v1 line exceeds %d bytes without terminator", ErrMalformedHeader, v1MaxLen)
		}
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, fmt.Errorf("%w: v1 line not CRLF terminated", ErrMalformedHeader)
	}

	fields := strings.Split(string(line[:len(line)-2]), " ")
	if len(fields) != 6 {
		return nil, fmt.Errorf("%w: v1 line has %d fields, want 6", ErrMalformedHeader, len(fields))
	}

	srcIP := net.ParseIP(fields[2])
	if srcIP == nil {
		return nil, fmt.Errorf("%w: invalid v1 source address %q", ErrMalformedHeader, fields[2])
	}
	dstIP := net.ParseIP(fields[3])
	if dstIP == nil {
		return nil, fmt.Errorf("%w: invalid v1 destination address %q", ErrMalformedHeader, fields[3])
	}
	srcPort, err := parsePort(fields[4])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid v1 source port %q", ErrMalformedHeader, fields[4])
	}
	dstPort, err := parsePort(fields[5])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid v1 destination port %q", ErrMalformedHeader, fields[5])
	}

	h := &Header{
		Version:    Version1,
		Command:    CommandProxy,
		SourceIP:   srcIP,
		DestIP:     dstIP,
		SourcePort: srcPort,
		DestPort:   dstPort,
	}
	// The transport family follows the address form, not the protocol
	// token in field 2.
	if srcIP.To4() != nil {
		h.Transport = TransportTCP4
	} else {
		h.Transport = TransportTCP6
	}
	return h, nil
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}
