package proxyproto

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
)

// v2Fixture builds a binary v2 header from its raw parts.
func v2Fixture(verCmd, famProto byte, block []byte) []byte {
	buf := make([]byte, 0, v2PrologueLen+len(block))
	buf = append(buf, sigV2...)
	buf = append(buf, verCmd, famProto)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(block)))
	return append(buf, block...)
}

func ipv4Block(src, dst net.IP, srcPort, dstPort uint16) []byte {
	block := make([]byte, 0, v2AddrLenIPv4)
	block = append(block, src.To4()...)
	block = append(block, dst.To4()...)
	block = binary.BigEndian.AppendUint16(block, srcPort)
	return binary.BigEndian.AppendUint16(block, dstPort)
}

func ipv6Block(src, dst net.IP, srcPort, dstPort uint16) []byte {
	block := make([]byte, 0, v2AddrLenIPv6)
	block = append(block, src.To16()...)
	block = append(block, dst.To16()...)
	block = binary.BigEndian.AppendUint16(block, srcPort)
	return binary.BigEndian.AppendUint16(block, dstPort)
}

func TestParseV2(t *testing.T) {
	t.Run("IPv4 PROXY round trip", func(t *testing.T) {
		src := net.ParseIP("203.0.113.7")
		dst := net.ParseIP("192.0.2.1")
		raw := v2Fixture(0x21, 0x11, ipv4Block(src, dst, 51000, 8000))

		br := bufio.NewReader(bytes.NewReader(append(raw, "GET / HTTP/1.1\r\n"...)))
		hdr, err := Detect(br)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hdr.Version != Version2 || hdr.Command != CommandProxy {
			t.Errorf("got version %d command %s", hdr.Version, hdr.Command)
		}
		if hdr.Transport != TransportTCP4 {
			t.Errorf("Transport = %s, want TCP4", hdr.Transport)
		}
		if !hdr.SourceIP.Equal(src) || hdr.SourcePort != 51000 {
			t.Errorf("source = %s:%d, want %s:51000", hdr.SourceIP, hdr.SourcePort, src)
		}
		if !hdr.DestIP.Equal(dst) || hdr.DestPort != 8000 {
			t.Errorf("dest = %s:%d, want %s:8000", hdr.DestIP, hdr.DestPort, dst)
		}

		rest, _ := io.ReadAll(br)
		if string(rest) != "GET / HTTP/1.1\r\n" {
			t.Errorf("rest = %q, want the HTTP request line", rest)
		}
	})

	t.Run("IPv6 PROXY round trip", func(t *testing.T) {
		src := net.ParseIP("2001:db8::1")
		dst := net.ParseIP("2001:db8::2")
		raw := v2Fixture(0x21, 0x21, ipv6Block(src, dst, 4242, 443))

		hdr, err := Detect(bufio.NewReader(bytes.NewReader(raw)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hdr.Transport != TransportTCP6 {
			t.Errorf("Transport = %s, want TCP6", hdr.Transport)
		}
		if !hdr.SourceIP.Equal(src) || hdr.SourcePort != 4242 {
			t.Errorf("source = %s:%d, want %s:4242", hdr.SourceIP, hdr.SourcePort, src)
		}
		if !hdr.DestIP.Equal(dst) || hdr.DestPort != 443 {
			t.Errorf("dest = %s:%d, want %s:443", hdr.DestIP, hdr.DestPort, dst)
		}
	})

	t.Run("UDP over IPv4 decodes as UDP transport", func(t *testing.T) {
		raw := v2Fixture(0x21, 0x12, ipv4Block(net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.2"), 53, 5353))
		hdr, err := Detect(bufio.NewReader(bytes.NewReader(raw)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hdr.Transport != TransportUDP4 {
			t.Errorf("Transport = %s, want UDP4", hdr.Transport)
		}
		if _, ok := hdr.SourceAddr().(*net.UDPAddr); !ok {
			t.Errorf("SourceAddr = %T, want *net.UDPAddr", hdr.SourceAddr())
		}
	})

	t.Run("LOCAL command with unspec family", func(t *testing.T) {
		raw := v2Fixture(0x20, 0x00, nil)
		hdr, err := Detect(bufio.NewReader(bytes.NewReader(append(raw, "payload"...))))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hdr.Command != CommandLocal {
			t.Errorf("Command = %s, want LOCAL", hdr.Command)
		}
		if hdr.SourceAddr() != nil {
			t.Errorf("SourceAddr = %v, want nil", hdr.SourceAddr())
		}
	})

	t.Run("unsupported version nibble", func(t *testing.T) {
		raw := v2Fixture(0x31, 0x11, ipv4Block(net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.2"), 1, 2))
		_, err := Detect(bufio.NewReader(bytes.NewReader(raw)))
		if !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("err = %v, want ErrUnsupportedVersion", err)
		}
	})

	t.Run("unknown command nibble", func(t *testing.T) {
		raw := v2Fixture(0x2f, 0x11, ipv4Block(net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.2"), 1, 2))
		_, err := Detect(bufio.NewReader(bytes.NewReader(raw)))
		if !errors.Is(err, ErrMalformedHeader) {
			t.Errorf("err = %v, want ErrMalformedHeader", err)
		}
	})

	t.Run("address block shorter than declared", func(t *testing.T) {
		raw := v2Fixture(0x21, 0x11, ipv4Block(net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.2"), 1, 2))
		_, err := Detect(bufio.NewReader(bytes.NewReader(raw[:len(raw)-4])))
		if !errors.Is(err, ErrTruncatedHeader) {
			t.Errorf("err = %v, want ErrTruncatedHeader", err)
		}
	})

	t.Run("declared IPv4 block too small for addresses", func(t *testing.T) {
		raw := v2Fixture(0x21, 0x11, []byte{10, 0, 0, 1})
		_, err := Detect(bufio.NewReader(bytes.NewReader(raw)))
		if !errors.Is(err, ErrMalformedHeader) {
			t.Errorf("err = %v, want ErrMalformedHeader", err)
		}
	})

	t.Run("unrecognized family is consumed without addresses", func(t *testing.T) {
		// Family nibble 0x4 does not exist; the block must still be
		// skipped so the HTTP bytes line up.
		raw := v2Fixture(0x21, 0x41, []byte{1, 2, 3, 4, 5, 6})
		br := bufio.NewReader(bytes.NewReader(append(raw, "GET /hostname HTTP/1.1\r\n"...)))
		hdr, err := Detect(br)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hdr.Transport != TransportUnrecognized {
			t.Errorf("Transport = %s, want UNRECOGNIZED", hdr.Transport)
		}
		if hdr.FamProto != 0x41 {
			t.Errorf("FamProto = 0x%x, want 0x41", hdr.FamProto)
		}
		if hdr.SourceAddr() != nil {
			t.Errorf("SourceAddr = %v, want nil", hdr.SourceAddr())
		}
		rest, _ := io.ReadAll(br)
		if string(rest) != "GET /hostname HTTP/1.1\r\n" {
			t.Errorf("rest = %q, want the HTTP request line", rest)
		}
	})

	t.Run("unix stream family is consumed without addresses", func(t *testing.T) {
		raw := v2Fixture(0x21, 0x31, make([]byte, 216))
		hdr, err := Detect(bufio.NewReader(bytes.NewReader(raw)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hdr.Transport != TransportUnixStream {
			t.Errorf("Transport = %s, want UNIX", hdr.Transport)
		}
		if hdr.SourceAddr() != nil {
			t.Errorf("SourceAddr = %v, want nil", hdr.SourceAddr())
		}
	})
}
