package trade

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradeflow/fixvenue/constants"
	"github.com/tradeflow/fixvenue/session"
	"github.com/tradeflow/fixvenue/transport"
	"github.com/tradeflow/fixvenue/venueerr"
	"github.com/tradeflow/fixvenue/wire"
)

func newTestClient(t *testing.T, handlers Handlers) (*Client, net.Conn) {
	t.Helper()
	clientConn, peer := net.Pipe()
	c := New(session.Config{Host: "unused", Username: "u", Password: "p", SenderCompID: "c"},
		zerolog.Nop(), nil, handlers, session.ConnHandlers{})
	session.WireForTest(c.eng, clientConn)
	return c, peer
}

func readFrame(t *testing.T, peer net.Conn) *wire.Message {
	t.Helper()
	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	f := transport.NewFramer(peer)
	raw, err := f.Next()
	if err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	return wire.Decode(raw)
}

func writeFrame(t *testing.T, peer net.Conn, b *wire.Builder, seq int) {
	t.Helper()
	raw := b.Encode("cServer", "c.u", "TRADE", "TRADE", seq, time.Now().UTC().Format(constants.FixTimeFormat))
	if _, err := peer.Write(raw); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}
}

// TestFetchSecurityList_RoundTrip grounds on the 35=x/35=y exchange
// described for security list requests: the request carries a fresh
// SecurityReqID and the reply's NoRelatedSym group is parsed into
// SecurityInfo entries.
func TestFetchSecurityList_RoundTrip(t *testing.T) {
	c, peer := newTestClient(t, Handlers{})
	defer c.Disconnect()

	result := make(chan []SecurityInfo, 1)
	errCh := make(chan error, 1)
	go func() {
		list, err := c.FetchSecurityList(context.Background())
		result <- list
		errCh <- err
	}()

	req := readFrame(t, peer)
	if req.MsgType() != constants.MsgTypeSecurityListRequest {
		t.Fatalf("expected SecurityListRequest, got %q", req.MsgType())
	}
	reqID, _ := req.Field(constants.TagSecurityReqID)

	writeFrame(t, peer, wire.NewBuilder(constants.MsgTypeSecurityList).
		Set(constants.TagSecurityResponseID, reqID).
		SetInt(constants.TagNoRelatedSym, 2).
		Set(constants.TagSymbol, "1").
		Set(constants.TagSymbolName, "EURUSD").
		SetInt(constants.TagSymbolDigits, 5).
		Set(constants.TagSymbol, "2").
		Set(constants.TagSymbolName, "GBPUSD").
		SetInt(constants.TagSymbolDigits, 5), 1)

	if err := <-errCh; err != nil {
		t.Fatalf("FetchSecurityList failed: %v", err)
	}
	list := <-result
	if len(list) != 2 || list[0].Name != "EURUSD" || list[1].Name != "GBPUSD" {
		t.Fatalf("unexpected security list: %+v", list)
	}
}

// TestFetchPositions_AccumulatesUntilTotalReached grounds on the
// multi-part PositionReport exchange: responses accumulate until
// TotalNumPosReports is reached, then are filtered to reports that
// actually carry a position.
func TestFetchPositions_AccumulatesUntilTotalReached(t *testing.T) {
	c, peer := newTestClient(t, Handlers{})
	defer c.Disconnect()

	result := make(chan []Position, 1)
	errCh := make(chan error, 1)
	go func() {
		positions, err := c.FetchPositions(context.Background())
		result <- positions
		errCh <- err
	}()

	req := readFrame(t, peer)
	reqID, _ := req.Field(constants.TagPosReqID)

	writeFrame(t, peer, wire.NewBuilder(constants.MsgTypePositionReport).
		Set(constants.TagPosReqID, reqID).
		SetInt(constants.TagTotalNumPosReports, 2).
		Set(constants.TagPosReqResult, "0").
		SetInt(constants.TagNoPositions, 1).
		Set(constants.TagSymbol, "1").
		Set(constants.TagPosMaintRptID, "p1").
		Set(constants.TagLongQty, "10"), 1)

	writeFrame(t, peer, wire.NewBuilder(constants.MsgTypePositionReport).
		Set(constants.TagPosReqID, reqID).
		SetInt(constants.TagTotalNumPosReports, 2).
		Set(constants.TagPosReqResult, "0").
		SetInt(constants.TagNoPositions, 0), 2)

	if err := <-errCh; err != nil {
		t.Fatalf("FetchPositions failed: %v", err)
	}
	positions := <-result
	if len(positions) != 1 || positions[0].Symbol != "1" || positions[0].LongQty != 10 {
		t.Fatalf("unexpected positions: %+v", positions)
	}
}

// TestNewMarketOrder_RejectedReturnsOrderFailed drives end-to-end
// scenario 5: a BusinessReject correlated by ClOrdID yields OrderFailed
// carrying the reject text.
func TestNewMarketOrder_RejectedReturnsOrderFailed(t *testing.T) {
	c, peer := newTestClient(t, Handlers{})
	defer c.Disconnect()

	result := make(chan error, 1)
	go func() {
		_, err := c.NewMarketOrder(context.Background(), NewOrderParams{Symbol: "999999", Side: constants.SideBuy, OrderQty: 0.01})
		result <- err
	}()

	req := readFrame(t, peer)
	clOrdID, _ := req.Field(constants.TagClOrdID)

	writeFrame(t, peer, wire.NewBuilder(constants.MsgTypeBusinessReject).
		Set(constants.TagBusinessRejectRefID, clOrdID).
		Set(constants.TagText, "Invalid symbol"), 1)

	err := <-result
	if !errors.Is(err, venueerr.ErrOrderFailed) {
		t.Fatalf("expected ErrOrderFailed, got %v", err)
	}
}

// TestCancelOrder_MissingArgumentNoIO verifies cancel_order(None, None)
// returns MissingArgumentError without sending anything.
func TestCancelOrder_MissingArgumentNoIO(t *testing.T) {
	c, peer := newTestClient(t, Handlers{})
	defer c.Disconnect()

	_, err := c.CancelOrder(context.Background(), CancelOrderParams{})
	if !errors.Is(err, venueerr.ErrMissingArgument) {
		t.Fatalf("expected ErrMissingArgument, got %v", err)
	}

	peer.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	buf := make([]byte, 1)
	if _, err := peer.Read(buf); err == nil {
		t.Fatal("expected no bytes written for a missing-argument cancel")
	}
}

// TestHandleTradeMessage_OrderStatusExecTypeSuppressed verifies that an
// inbound ExecutionReport with ExecType=I (OrderStatus) is still pushed
// onto the shared response queue — so FetchAllOrderStatus can still see
// it — but is never fanned out to the registered OnExecutionReport
// handler.
func TestHandleTradeMessage_OrderStatusExecTypeSuppressed(t *testing.T) {
	fired := make(chan ExecutionReport, 1)
	c, peer := newTestClient(t, Handlers{
		OnExecutionReport: func(r ExecutionReport) { fired <- r },
	})
	defer c.Disconnect()

	writeFrame(t, peer, wire.NewBuilder(constants.MsgTypeExecutionReport).
		Set(constants.TagClOrdID, "cl1").
		Set(constants.TagExecType, constants.ExecTypeOrderStatus).
		Set(constants.TagOrdStatus, constants.ExecTypeNew), 1)

	matched, err := c.queue.awaitOne(context.Background(), time.Second, func(m *wire.Message) bool {
		id, _ := m.Field(constants.TagClOrdID)
		return id == "cl1"
	})
	if err != nil {
		t.Fatalf("expected the OrderStatus report to still be queued: %v", err)
	}
	if v, _ := matched.Field(constants.TagExecType); v != constants.ExecTypeOrderStatus {
		t.Fatalf("expected queued message to carry ExecType=I, got %q", v)
	}

	select {
	case r := <-fired:
		t.Fatalf("expected OnExecutionReport not to fire for ExecType=I, got %+v", r)
	case <-time.After(100 * time.Millisecond):
	}
}

// TestFetchSecurityList_TimeoutThenSuccess drives end-to-end scenario 6:
// a first call with no reply times out, and a later call succeeds once
// the peer does reply.
func TestFetchSecurityList_TimeoutThenSuccess(t *testing.T) {
	c, peer := newTestClient(t, Handlers{})
	defer c.Disconnect()
	c.opTimeout = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.FetchSecurityList(ctx)
		firstErr <- err
	}()
	_ = readFrame(t, peer) // drain the first request; a net.Pipe write blocks until read
	if err := <-firstErr; !errors.Is(err, venueerr.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	result := make(chan []SecurityInfo, 1)
	errCh := make(chan error, 1)
	go func() {
		list, err := c.FetchSecurityList(context.Background())
		result <- list
		errCh <- err
	}()

	req := readFrame(t, peer)
	reqID, _ := req.Field(constants.TagSecurityReqID)
	writeFrame(t, peer, wire.NewBuilder(constants.MsgTypeSecurityList).
		Set(constants.TagSecurityResponseID, reqID).
		SetInt(constants.TagNoRelatedSym, 1).
		Set(constants.TagSymbol, "1").
		Set(constants.TagSymbolName, "EURUSD").
		SetInt(constants.TagSymbolDigits, 5), 1)

	if err := <-errCh; err != nil {
		t.Fatalf("second FetchSecurityList failed: %v", err)
	}
	if list := <-result; len(list) != 1 {
		t.Fatalf("expected 1 security, got %+v", list)
	}
}
