package session

// Role distinguishes the two concurrent FIX sessions this venue exposes:
// market data (QUOTE) and order entry (TRADE). The role determines both
// the TCP port dialed and the SenderSubID/TargetSubID header fields
// stamped on every outbound message.
type Role int

const (
	RoleQuote Role = iota
	RoleTrade
)

// Port returns the venue's fixed listening port for this role.
func (r Role) Port() int {
	switch r {
	case RoleQuote:
		return 5201
	case RoleTrade:
		return 5202
	default:
		return 0
	}
}

// SubID returns the SenderSubID/TargetSubID value for this role.
func (r Role) SubID() string {
	switch r {
	case RoleQuote:
		return "QUOTE"
	case RoleTrade:
		return "TRADE"
	default:
		return ""
	}
}

func (r Role) String() string { return r.SubID() }
