package proxyproto

import "errors"

// Parse failures are fatal to the connection that produced them: once a
// signature matched, the offending bytes have already been consumed and
// can never be replayed as HTTP data. Callers match these with errors.Is.
var (
	// ErrMalformedHeader reports a stream whose signature matched but
	// whose fields failed to parse: wrong field count, unparsable IP or
	// port, an unknown command nibble, or a missing line terminator.
	ErrMalformedHeader = errors.New("proxyproto: malformed header")

	// ErrUnsupportedVersion reports a version 2 signature whose version
	// nibble is not 2.
	ErrUnsupportedVersion = errors.New("proxyproto: unsupported protocol version")

	// ErrTruncatedHeader reports a version 2 header whose address block
	// ended before the declared length because the peer closed early.
	ErrTruncatedHeader = errors.New("proxyproto: truncated header")
)
