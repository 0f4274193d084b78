package session

import "time"

// Config is the immutable connection configuration for one session
// engine. SenderCompID is the bare component id; the wire-level
// SenderCompID field is "{SenderCompID}.{Username}" per the venue's
// convention.
type Config struct {
	Host         string
	Username     string
	Password     string
	SenderCompID string

	// HeartBtInt is the heartbeat interval in seconds, sent as tag 108
	// and used to pace the heartbeat ticker. Defaults to 30 if zero.
	HeartBtInt int

	// ResendBufferSize bounds the outbound resend FIFO. Defaults to 10
	// if zero — this client is a resend consumer, not a venue, so a
	// deep buffer buys little.
	ResendBufferSize int

	// LogonTimeout bounds how long Logon waits for the peer's "35=A"
	// reply. Defaults to 5s if zero.
	LogonTimeout time.Duration

	// LogoutTimeout bounds how long Logout waits for the peer's
	// "35=5" reply before tearing down unilaterally. Defaults to 5s.
	LogoutTimeout time.Duration
}

func (c Config) heartBtInt() int {
	if c.HeartBtInt <= 0 {
		return 30
	}
	return c.HeartBtInt
}

func (c Config) resendBufferSize() int {
	if c.ResendBufferSize <= 0 {
		return 10
	}
	return c.ResendBufferSize
}

func (c Config) logonTimeout() time.Duration {
	if c.LogonTimeout <= 0 {
		return 5 * time.Second
	}
	return c.LogonTimeout
}

func (c Config) logoutTimeout() time.Duration {
	if c.LogoutTimeout <= 0 {
		return 5 * time.Second
	}
	return c.LogoutTimeout
}

// senderCompID is the wire-level tag 49 value.
func (c Config) senderCompID() string {
	return c.SenderCompID + "." + c.Username
}

const targetCompID = "cServer"
