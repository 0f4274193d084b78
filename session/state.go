package session

// State is the session engine's connection lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateLoggedOn
	StateLoggingOut
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateLoggedOn:
		return "LoggedOn"
	case StateLoggingOut:
		return "LoggingOut"
	default:
		return "Unknown"
	}
}
