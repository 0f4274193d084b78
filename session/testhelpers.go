package session

import (
	"net"

	"github.com/tradeflow/fixvenue/transport"
)

// WireForTest wires an already-established connection (typically one
// end of a net.Pipe) onto e and forces it straight into the LoggedOn
// state, starting the dispatch loop. It exists so quote/trade client
// tests can drive the venue side of a conversation without going
// through a real Connect/Logon handshake, which the session package's
// own tests already cover directly.
func WireForTest(e *Engine, conn net.Conn) {
	e.conn = transport.Wrap(conn, nil)
	e.setState(StateLoggedOn)
	e.dispatchDone = make(chan struct{})
	go e.dispatchLoop()
}
