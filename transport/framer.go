// Package transport turns a raw byte stream from a venue socket into a
// sequence of complete FIX messages, and provides the single-writer send
// path used by the session engine.
package transport

import (
	"bufio"
	"io"
	"strings"

	"github.com/tradeflow/fixvenue/wire"
)

const trailerMarker = wire.SOH + "10="

// Framer accumulates bytes read from a connection and yields complete
// messages as they become available. A single read can contain zero,
// one, or several complete messages, and a message can also arrive
// split across reads; Framer handles both by scanning its buffer for
// the "\x0110=CCC\x01" trailer after every read instead of assuming one
// message per read.
type Framer struct {
	r   *bufio.Reader
	buf []byte
}

// NewFramer wraps r for message-boundary scanning. The caller is
// responsible for the underlying connection's lifetime.
func NewFramer(r io.Reader) *Framer {
	return &Framer{r: bufio.NewReaderSize(r, 4096)}
}

// Next blocks until a complete message is available, the underlying
// reader returns an error, or the connection is closed (io.EOF). The
// returned slice is only valid until the next call to Next.
func (f *Framer) Next() ([]byte, error) {
	for {
		if msg, ok := f.extractOne(); ok {
			return msg, nil
		}
		chunk := make([]byte, 4096)
		n, err := f.r.Read(chunk)
		if n > 0 {
			f.buf = append(f.buf, chunk[:n]...)
		}
		if err != nil {
			if n > 0 {
				// Give the caller a chance to drain a final complete
				// message that arrived alongside the error before
				// propagating it.
				if msg, ok := f.extractOne(); ok {
					return msg, nil
				}
			}
			return nil, err
		}
	}
}

// extractOne pulls the first complete message off the front of buf, if
// one is present, and shifts the remainder down for the next read.
func (f *Framer) extractOne() ([]byte, bool) {
	s := string(f.buf)
	markerIdx := strings.Index(s, trailerMarker)
	if markerIdx < 0 {
		return nil, false
	}
	// trailerMarker ends right before the 3-digit checksum; the message
	// ends at the SOH that follows those 3 digits.
	checksumStart := markerIdx + len(trailerMarker)
	if len(s) < checksumStart+4 {
		return nil, false // checksum digits + trailing SOH not yet read
	}
	end := checksumStart + 3
	if s[end] != wire.SOH[0] {
		// Not a valid 3-digit checksum at this position; keep reading in
		// case the marker matched inside a field value rather than the
		// true trailer (SOH-delimited values never contain the marker
		// bytes in practice, but this guards malformed input).
		return nil, false
	}
	msgEnd := end + 1
	msg := make([]byte, msgEnd)
	copy(msg, f.buf[:msgEnd])
	f.buf = append([]byte(nil), f.buf[msgEnd:]...)
	return msg, true
}
