package trade

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tradeflow/fixvenue/constants"
	"github.com/tradeflow/fixvenue/metrics"
	"github.com/tradeflow/fixvenue/session"
	persist "github.com/tradeflow/fixvenue/store"
	"github.com/tradeflow/fixvenue/venueerr"
	"github.com/tradeflow/fixvenue/wire"
)

// responseTTL is how long an unclaimed inbound message is kept in the
// correlation queue before it is evicted as stale.
const responseTTL = 5000 * time.Millisecond

// defaultOpTimeout bounds how long an operation waits for its
// correlated response before returning ErrTimeout.
const defaultOpTimeout = 5000 * time.Millisecond

// Client is the order-entry facade: it owns one session.Engine in the
// Trade role, correlates asynchronous execution reports and list/report
// messages back to the request that triggered them, and maintains no
// local order book beyond what a caller chooses to track from the
// ExecutionReport callback.
type Client struct {
	eng       *session.Engine
	log       zerolog.Logger
	handlers  Handlers
	queue     *responseQueue
	limiter   *rate.Limiter
	opTimeout time.Duration
	persist   *persist.Store
}

// SetStore attaches an optional SQLite sink; once set, execution
// reports and fetched positions are persisted as they are observed.
// Must be called before Connect.
func (c *Client) SetStore(s *persist.Store) { c.persist = s }

// New constructs a trade client. limiter may be nil to disable outbound
// pacing.
func New(cfg session.Config, logger zerolog.Logger, limiter *rate.Limiter, handlers Handlers, connHandlers session.ConnHandlers) *Client {
	c := &Client{
		log:       logger.With().Str("client", "trade").Logger(),
		handlers:  handlers,
		queue:     newResponseQueue(responseTTL),
		limiter:   limiter,
		opTimeout: defaultOpTimeout,
	}
	c.eng = session.New(session.RoleTrade, cfg, logger, connHandlers)
	c.eng.SetTradeHandler(c.handleTradeMessage)
	return c
}

// Connect dials the venue and logs on.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.eng.Connect(ctx, c.limiter); err != nil {
		return err
	}
	return c.eng.Logon(ctx)
}

// Disconnect tears down the session. Idempotent.
func (c *Client) Disconnect() { c.eng.Disconnect() }

// IsConnected reports whether the session is logged on.
func (c *Client) IsConnected() bool { return c.eng.IsConnected() }

func (c *Client) handleTradeMessage(msg *wire.Message) {
	c.queue.push(msg)
	if msg.MsgType() == constants.MsgTypeExecutionReport {
		r := decodeExecutionReport(msg)
		if c.persist != nil {
			if err := c.persist.RecordExecutionReport(r.ClOrdID, r.OrderID, r.OrigClOrdID, r.Symbol, r.Side, r.OrdStatus, r.ExecType, r.OrderQty, r.CumQty, r.LeavesQty, r.AvgPx, r.LastShares, r.Price, r.Text, r.TransactTime); err != nil {
				c.log.Warn().Err(err).Str("clOrdID", r.ClOrdID).Msg("failed to persist execution report")
			}
		}
		if r.ExecType != constants.ExecTypeOrderStatus {
			c.handlers.fireExecutionReport(r)
		}
	}
}

// FetchSecurityList requests the instrument universe and waits for the
// matching SecurityList response.
func (c *Client) FetchSecurityList(ctx context.Context) ([]SecurityInfo, error) {
	reqID := newReqID()
	if err := c.eng.Send(ctx, buildSecurityListRequest(reqID)); err != nil {
		return nil, err
	}

	msg, err := c.queue.awaitOne(ctx, c.opTimeout, func(m *wire.Message) bool {
		if m.MsgType() != constants.MsgTypeSecurityList {
			return false
		}
		id, _ := m.Field(constants.TagSecurityResponseID)
		return id == reqID
	})
	if err != nil {
		return nil, err
	}

	var out []SecurityInfo
	for _, g := range msg.RepeatingGroup(constants.TagNoRelatedSym, constants.TagSymbol, constants.TagSymbolDigits) {
		id, ok1 := g.Field(constants.TagSymbol)
		name, ok2 := g.Field(constants.TagSymbolName)
		digitsStr, ok3 := g.Field(constants.TagSymbolDigits)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		digits, _ := strconv.Atoi(digitsStr)
		out = append(out, SecurityInfo{ID: id, Name: name, Digits: digits})
	}
	return out, nil
}

// FetchPositions requests open positions and accumulates PositionReport
// messages until TotalNumPosReports have arrived, then filters to
// reports that actually carry a position.
func (c *Client) FetchPositions(ctx context.Context) ([]Position, error) {
	reqID := newReqID()
	if err := c.eng.Send(ctx, buildPositionsRequest(reqID)); err != nil {
		return nil, err
	}

	matchFn := func(m *wire.Message) bool {
		if m.MsgType() != constants.MsgTypePositionReport {
			return false
		}
		id, _ := m.Field(constants.TagPosReqID)
		return id == reqID
	}
	total := 0
	msgs, err := c.queue.awaitMany(ctx, c.opTimeout, matchFn, func(collected []*wire.Message) int {
		if total == 0 && len(collected) > 0 {
			if n, ok := collected[0].FieldInt(constants.TagTotalNumPosReports); ok {
				total = n
			}
		}
		return total
	})
	if err != nil {
		return nil, err
	}

	var out []Position
	for _, m := range msgs {
		result, _ := m.Field(constants.TagPosReqResult)
		noPositions, _ := m.FieldInt(constants.TagNoPositions)
		if result != "0" || noPositions != 1 {
			continue
		}
		p := decodePosition(m)
		out = append(out, p)
		if c.persist != nil {
			if err := c.persist.RecordPosition(p.Symbol, p.PosMaintRptID, p.LongQty, p.ShortQty, p.SettlPrice); err != nil {
				c.log.Warn().Err(err).Str("symbol", p.Symbol).Msg("failed to persist position")
			}
		}
	}
	return out, nil
}

// FetchAllOrderStatus requests a mass status of every open order.
func (c *Client) FetchAllOrderStatus(ctx context.Context) ([]ExecutionReport, error) {
	reqID := newReqID()
	if err := c.eng.Send(ctx, buildMassStatusRequest(reqID)); err != nil {
		return nil, err
	}

	first, err := c.queue.awaitOne(ctx, c.opTimeout, func(m *wire.Message) bool {
		switch m.MsgType() {
		case constants.MsgTypeBusinessReject:
			id, _ := m.Field(constants.TagBusinessRejectRefID)
			return id == reqID
		case constants.MsgTypeExecutionReport:
			id, _ := m.Field(constants.TagMassStatusReqID)
			return id == reqID
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if first.MsgType() == constants.MsgTypeBusinessReject {
		return nil, nil
	}

	total, _ := first.FieldInt(constants.TagTotNumReports)
	reports := []*wire.Message{first}
	if total > 1 {
		rest, err := c.queue.awaitMany(ctx, c.opTimeout, func(m *wire.Message) bool {
			if m.MsgType() != constants.MsgTypeExecutionReport {
				return false
			}
			id, _ := m.Field(constants.TagMassStatusReqID)
			return id == reqID
		}, func(collected []*wire.Message) int { return total - 1 })
		if err != nil && len(reports) == 1 {
			return nil, err
		}
		reports = append(reports, rest...)
	}

	out := make([]ExecutionReport, 0, len(reports))
	for _, m := range reports {
		out = append(out, decodeExecutionReport(m))
	}
	return out, nil
}

// NewMarketOrder submits a market order.
func (c *Client) NewMarketOrder(ctx context.Context, p NewOrderParams) (ExecutionReport, error) {
	p.OrdType = constants.OrdTypeMarket
	return c.newOrder(ctx, p)
}

// NewLimitOrder submits a limit order.
func (c *Client) NewLimitOrder(ctx context.Context, p NewOrderParams) (ExecutionReport, error) {
	p.OrdType = constants.OrdTypeLimit
	return c.newOrder(ctx, p)
}

// NewStopOrder submits a stop order.
func (c *Client) NewStopOrder(ctx context.Context, p NewOrderParams) (ExecutionReport, error) {
	p.OrdType = constants.OrdTypeStop
	return c.newOrder(ctx, p)
}

func (c *Client) newOrder(ctx context.Context, p NewOrderParams) (ExecutionReport, error) {
	if p.ClOrdID == "" {
		p.ClOrdID = newReqID()
	}
	if err := c.eng.Send(ctx, buildNewOrderSingle(p)); err != nil {
		return ExecutionReport{}, err
	}

	msg, err := c.queue.awaitOne(ctx, c.opTimeout, func(m *wire.Message) bool {
		switch m.MsgType() {
		case constants.MsgTypeExecutionReport:
			id, _ := m.Field(constants.TagClOrdID)
			return id == p.ClOrdID
		case constants.MsgTypeBusinessReject:
			id, _ := m.Field(constants.TagBusinessRejectRefID)
			return id == p.ClOrdID
		}
		return false
	})
	if err != nil {
		return ExecutionReport{}, err
	}
	if msg.MsgType() == constants.MsgTypeBusinessReject {
		text, _ := msg.Field(constants.TagText)
		metrics.RecordOrderOutcome("new_order", "rejected")
		return ExecutionReport{}, fmt.Errorf("%w: %s", venueerr.ErrOrderFailed, text)
	}
	metrics.RecordOrderOutcome("new_order", "accepted")
	return decodeExecutionReport(msg), nil
}

// CancelOrder cancels a live order, identified by OrigClOrdID or
// OrderID. At least one of those must be set.
func (c *Client) CancelOrder(ctx context.Context, p CancelOrderParams) (ExecutionReport, error) {
	if p.OrigClOrdID == "" && p.OrderID == "" {
		return ExecutionReport{}, venueerr.ErrMissingArgument
	}
	if p.ClOrdID == "" {
		p.ClOrdID = newReqID()
	}
	if err := c.eng.Send(ctx, buildOrderCancelRequest(p)); err != nil {
		return ExecutionReport{}, err
	}
	return c.awaitCancelOutcome(ctx, p.ClOrdID)
}

// ReplaceOrder amends a live order's quantity and/or price, identified
// by OrigClOrdID or OrderID.
func (c *Client) ReplaceOrder(ctx context.Context, p ReplaceOrderParams) (ExecutionReport, error) {
	if p.OrigClOrdID == "" && p.OrderID == "" {
		return ExecutionReport{}, venueerr.ErrMissingArgument
	}
	if p.ClOrdID == "" {
		p.ClOrdID = newReqID()
	}
	if err := c.eng.Send(ctx, buildOrderCancelReplaceRequest(p)); err != nil {
		return ExecutionReport{}, err
	}
	return c.awaitCancelOutcome(ctx, p.ClOrdID)
}

func (c *Client) awaitCancelOutcome(ctx context.Context, clOrdID string) (ExecutionReport, error) {
	msg, err := c.queue.awaitOne(ctx, c.opTimeout, func(m *wire.Message) bool {
		switch m.MsgType() {
		case constants.MsgTypeExecutionReport:
			id, _ := m.Field(constants.TagClOrdID)
			return id == clOrdID
		case constants.MsgTypeBusinessReject:
			id, _ := m.Field(constants.TagBusinessRejectRefID)
			return id == clOrdID
		case constants.MsgTypeOrderCancelReject:
			id, _ := m.Field(constants.TagClOrdID)
			return id == clOrdID
		}
		return false
	})
	if err != nil {
		return ExecutionReport{}, err
	}
	switch msg.MsgType() {
	case constants.MsgTypeBusinessReject:
		text, _ := msg.Field(constants.TagText)
		metrics.RecordOrderOutcome("cancel_replace", "rejected")
		return ExecutionReport{}, fmt.Errorf("%w: %s", venueerr.ErrOrderFailed, text)
	case constants.MsgTypeOrderCancelReject:
		metrics.RecordOrderOutcome("cancel_replace", "cancel_rejected")
		return ExecutionReport{}, venueerr.ErrOrderCancelRejected
	}
	metrics.RecordOrderOutcome("cancel_replace", "accepted")
	return decodeExecutionReport(msg), nil
}

// ClosePosition submits an opposite-side market order for the full size
// of pos against the same PosMaintRptID: a sell of LongQty, or a buy of
// ShortQty when LongQty is zero.
func (c *Client) ClosePosition(ctx context.Context, pos Position) (ExecutionReport, error) {
	side := constants.SideSell
	qty := pos.LongQty
	if pos.LongQty == 0 && pos.ShortQty > 0 {
		side = constants.SideBuy
		qty = pos.ShortQty
	}
	return c.NewMarketOrder(ctx, NewOrderParams{
		Symbol:        pos.Symbol,
		Side:          side,
		OrderQty:      qty,
		PosMaintRptID: pos.PosMaintRptID,
	})
}

// AdjustPositionSize submits a market order for the delta between
// desiredQty and the position's signed net size (LongQty - ShortQty):
// a positive delta is bought, a negative delta is sold. A zero delta
// sends nothing and returns an empty ExecutionReport.
func (c *Client) AdjustPositionSize(ctx context.Context, pos Position, desiredQty float64) (ExecutionReport, error) {
	currentQty := pos.LongQty - pos.ShortQty
	delta := desiredQty - currentQty
	if delta == 0 {
		return ExecutionReport{}, nil
	}
	side := constants.SideBuy
	if delta < 0 {
		side = constants.SideSell
		delta = -delta
	}
	return c.NewMarketOrder(ctx, NewOrderParams{
		Symbol:        pos.Symbol,
		Side:          side,
		OrderQty:      delta,
		PosMaintRptID: pos.PosMaintRptID,
	})
}

func decodeExecutionReport(m *wire.Message) ExecutionReport {
	var r ExecutionReport
	r.ClOrdID, _ = m.Field(constants.TagClOrdID)
	r.OrderID, _ = m.Field(constants.TagOrderID)
	r.OrigClOrdID, _ = m.Field(constants.TagOrigClOrdID)
	r.Symbol, _ = m.Field(constants.TagSymbol)
	r.Side, _ = m.Field(constants.TagSide)
	r.OrdStatus, _ = m.Field(constants.TagOrdStatus)
	r.ExecType, _ = m.Field(constants.TagExecType)
	r.Text, _ = m.Field(constants.TagText)
	r.OrdRejReason, _ = m.Field(constants.TagOrdRejReason)
	r.TransactTime, _ = m.Field(constants.TagTransactTime)
	r.OrderQty = parseFloatField(m, constants.TagOrderQty)
	r.CumQty = parseFloatField(m, constants.TagCumQty)
	r.LeavesQty = parseFloatField(m, constants.TagLeavesQty)
	r.AvgPx = parseFloatField(m, constants.TagAvgPx)
	r.LastShares = parseFloatField(m, constants.TagLastShares)
	r.Price = parseFloatField(m, constants.TagPrice)
	return r
}

func decodePosition(m *wire.Message) Position {
	var p Position
	p.Symbol, _ = m.Field(constants.TagSymbol)
	p.PosMaintRptID, _ = m.Field(constants.TagPosMaintRptID)
	p.LongQty = parseFloatField(m, constants.TagLongQty)
	p.ShortQty = parseFloatField(m, constants.TagShortQty)
	p.SettlPrice = parseFloatField(m, constants.TagSettlPrice)
	p.AbsoluteTP = parseFloatField(m, constants.TagAbsoluteTP)
	p.RelativeTP = parseFloatField(m, constants.TagRelativeTP)
	p.AbsoluteSL = parseFloatField(m, constants.TagAbsoluteSL)
	p.RelativeSL = parseFloatField(m, constants.TagRelativeSL)
	p.TrailingSL = parseFloatField(m, constants.TagTrailingSL)
	return p
}

func parseFloatField(m *wire.Message, tag constants.Tag) float64 {
	v, ok := m.Field(tag)
	if !ok {
		return 0
	}
	f, _ := strconv.ParseFloat(v, 64)
	return f
}
