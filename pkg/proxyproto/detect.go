package proxyproto

import (
	"bufio"
	"bytes"
	"io"
)

var (
	sigV1 = []byte("PROXY ")
	sigV2 = []byte("\x0D\x0A\x0D\x0A\x00\x0D\x0A\x51\x55\x49\x54\x0A")
)

// Detect peeks at the start of br and determines whether a PROXY protocol
// header is present. When one is, it is consumed and returned. When
// neither signature matches, Detect returns (nil, nil) and the stream is
// left byte-for-byte intact for HTTP parsing.
//
// Detect blocks until enough bytes arrive to decide, and must be called
// exactly once per connection, before any HTTP bytes are read.
func Detect(br *bufio.Reader) (*Header, error) {
	peek, err := br.Peek(len(sigV2))
	if len(peek) >= len(sigV1) && bytes.Equal(peek[:len(sigV1)], sigV1) {
		return parseV1(br)
	}
	if len(peek) == len(sigV2) && bytes.Equal(peek, sigV2) {
		return parseV2(br)
	}
	if err != nil && err != io.EOF {
		return nil, err
	}
	// Too short for either signature, or no match: plain traffic.
	return nil, nil
}
