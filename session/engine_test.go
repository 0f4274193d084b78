package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradeflow/fixvenue/constants"
	"github.com/tradeflow/fixvenue/transport"
	"github.com/tradeflow/fixvenue/venueerr"
	"github.com/tradeflow/fixvenue/wire"
)

// newPipedEngine builds an Engine whose transport is an in-memory
// net.Pipe instead of a real socket, and returns the peer end so the
// test can play the venue side of the conversation.
func newPipedEngine(t *testing.T, handlers ConnHandlers) (*Engine, net.Conn) {
	t.Helper()
	client, peer := net.Pipe()

	e := New(RoleQuote, Config{
		Host:         "unused",
		Username:     "u",
		Password:     "p",
		SenderCompID: "c",
		HeartBtInt:   30,
		LogonTimeout: time.Second,
	}, zerolog.Nop(), handlers)

	e.conn = transport.Wrap(client, nil)
	e.setState(StateConnected)
	e.dispatchDone = make(chan struct{})
	go e.dispatchLoop()

	return e, peer
}

func readFrame(t *testing.T, peer net.Conn) *wire.Message {
	t.Helper()
	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	f := transport.NewFramer(peer)
	raw, err := f.Next()
	if err != nil {
		t.Fatalf("failed to read frame from client: %v", err)
	}
	return wire.Decode(raw)
}

func writeFrame(t *testing.T, peer net.Conn, b *wire.Builder, seq int) {
	t.Helper()
	raw := b.Encode("cServer", "c.u", "QUOTE", "QUOTE", seq, time.Now().UTC().Format(constants.FixTimeFormat))
	if _, err := peer.Write(raw); err != nil {
		t.Fatalf("failed to write frame to client: %v", err)
	}
}

// TestLogon_Success verifies a successful Logon resets the seqnum
// counter to 1, sends the expected fields, and fires OnLogon once.
func TestLogon_Success(t *testing.T) {
	t.Helper()
	logonFired := make(chan struct{}, 1)
	e, peer := newPipedEngine(t, ConnHandlers{
		OnLogon: func() { logonFired <- struct{}{} },
	})
	defer e.Disconnect()

	done := make(chan error, 1)
	go func() { done <- e.Logon(context.Background()) }()

	msg := readFrame(t, peer)
	if msg.MsgType() != constants.MsgTypeLogon {
		t.Fatalf("expected Logon, got MsgType %q", msg.MsgType())
	}
	if v, _ := msg.Field(constants.TagResetSeqNumFlag); v != "Y" {
		t.Fatalf("expected ResetSeqNumFlag=Y, got %q", v)
	}
	if msg.SeqNum() != 1 {
		t.Fatalf("expected seqnum 1, got %d", msg.SeqNum())
	}

	writeFrame(t, peer, wire.NewBuilder(constants.MsgTypeLogon), 1)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Logon returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Logon did not return in time")
	}

	select {
	case <-logonFired:
	case <-time.After(time.Second):
		t.Fatal("OnLogon was not fired")
	}

	if !e.IsConnected() {
		t.Fatal("expected IsConnected true after logon")
	}
}

// TestLogon_PeerLogoutBeforeReplyTearsDown verifies a 35=5 received
// while Logon is still awaiting the peer's 35=A surfaces ErrLoggedOut
// from Logon and tears the session down to Disconnected, rather than
// just returning the error with the connection left dangling.
func TestLogon_PeerLogoutBeforeReplyTearsDown(t *testing.T) {
	disconnectFired := make(chan struct{}, 1)
	e, peer := newPipedEngine(t, ConnHandlers{
		OnDisconnect: func() { disconnectFired <- struct{}{} },
	})
	defer e.Disconnect()

	done := make(chan error, 1)
	go func() { done <- e.Logon(context.Background()) }()

	_ = readFrame(t, peer) // the outbound Logon

	writeFrame(t, peer, wire.NewBuilder(constants.MsgTypeLogout), 1)

	select {
	case err := <-done:
		if err != venueerr.ErrLoggedOut {
			t.Fatalf("expected ErrLoggedOut, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Logon did not return in time")
	}

	select {
	case <-disconnectFired:
	case <-time.After(time.Second):
		t.Fatal("OnDisconnect was not fired")
	}

	if e.State() != StateDisconnected {
		t.Fatalf("expected state Disconnected, got %v", e.State())
	}
}

// TestTestRequest_EchoesID verifies an inbound TestRequest produces an
// outbound Heartbeat carrying the same TestReqID.
func TestTestRequest_EchoesID(t *testing.T) {
	e, peer := newPipedEngine(t, ConnHandlers{})
	defer e.Disconnect()
	e.setState(StateLoggedOn)

	writeFrame(t, peer, wire.NewBuilder(constants.MsgTypeTestRequest).Set(constants.TagTestReqID, "abc"), 1)

	msg := readFrame(t, peer)
	if msg.MsgType() != constants.MsgTypeHeartbeat {
		t.Fatalf("expected Heartbeat reply, got %q", msg.MsgType())
	}
	if v, _ := msg.Field(constants.TagTestReqID); v != "abc" {
		t.Fatalf("expected echoed TestReqID=abc, got %q", v)
	}
}

// TestResendRequest_ReplaysFullRange verifies every buffered message in
// the requested range is replayed, not just the first — the bug fix
// over re-emitting a single message and breaking.
func TestResendRequest_ReplaysFullRange(t *testing.T) {
	e, peer := newPipedEngine(t, ConnHandlers{})
	defer e.Disconnect()
	e.setState(StateLoggedOn)

	for i := 0; i < 3; i++ {
		if err := e.Send(context.Background(), wire.NewBuilder(constants.MsgTypeHeartbeat)); err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
		_ = readFrame(t, peer) // drain each heartbeat as it's sent
	}

	writeFrame(t, peer, wire.NewBuilder(constants.MsgTypeResendRequest).
		SetInt(constants.TagBeginSeqNo, 1).SetInt(constants.TagEndSeqNo, 0), 1)

	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		msg := readFrame(t, peer)
		seen[msg.SeqNum()] = true
	}
	for seq := 1; seq <= 3; seq++ {
		if !seen[seq] {
			t.Fatalf("expected seqnum %d to be replayed, got %v", seq, seen)
		}
	}
}

// TestResendBuffer_SinglePushPerSend verifies a single Send pushes
// exactly one entry into the resend buffer.
func TestResendBuffer_SinglePushPerSend(t *testing.T) {
	e, peer := newPipedEngine(t, ConnHandlers{})
	defer e.Disconnect()
	e.setState(StateLoggedOn)

	if err := e.Send(context.Background(), wire.NewBuilder(constants.MsgTypeHeartbeat)); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	_ = readFrame(t, peer)

	entries := e.resend.inRange(1, 0)
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 buffered entry, got %d", len(entries))
	}
}
