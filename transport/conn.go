package transport

import (
	"context"
	"net"
	"sync"

	"golang.org/x/time/rate"
)

// Conn wraps a dialed net.Conn with a Framer for reads and a mutex plus
// an optional rate limiter for writes, so concurrent senders (the
// application path and the heartbeat/resend path) never interleave
// bytes on the wire and never exceed the configured outbound rate.
type Conn struct {
	nc      net.Conn
	framer  *Framer
	limiter *rate.Limiter

	writeMu sync.Mutex
}

// Dial connects to addr ("host:port") and wraps the resulting
// connection. limiter may be nil to disable outbound pacing.
func Dial(ctx context.Context, addr string, limiter *rate.Limiter) (*Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return Wrap(nc, limiter), nil
}

// Wrap adapts an already-established net.Conn, primarily for tests that
// use net.Pipe instead of a real socket.
func Wrap(nc net.Conn, limiter *rate.Limiter) *Conn {
	return &Conn{nc: nc, framer: NewFramer(nc), limiter: limiter}
}

// Next reads the next complete message, blocking until one is available
// or the connection errors/closes.
func (c *Conn) Next() ([]byte, error) {
	return c.framer.Next()
}

// Send writes a single complete message to the socket. It serializes
// concurrent callers so a message is never split by an interleaved
// write, and blocks on the outbound limiter (if configured) before
// acquiring the write lock, so a paced sender cannot starve other
// writers indefinitely while waiting for a token.
func (c *Conn) Send(ctx context.Context, msg []byte) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.nc.Write(msg)
	return err
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}
