package quote

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tradeflow/fixvenue/constants"
	"github.com/tradeflow/fixvenue/metrics"
	"github.com/tradeflow/fixvenue/session"
	persist "github.com/tradeflow/fixvenue/store"
	"github.com/tradeflow/fixvenue/venueerr"
	"github.com/tradeflow/fixvenue/wire"
)

// Client is the market-data facade: it owns one session.Engine in the
// Quote role and turns its inbound W/X/Y messages into subscription
// state transitions, spot prices and a reconstructed depth book.
type Client struct {
	eng      *session.Engine
	log      zerolog.Logger
	handlers Handlers
	store    *store
	limiter  *rate.Limiter
	persist  *persist.Store
}

// SetStore attaches an optional SQLite sink; once set, spot prices and
// depth book changes are persisted as they are applied. Must be called
// before Connect.
func (c *Client) SetStore(s *persist.Store) { c.persist = s }

// New constructs a quote client. limiter may be nil to disable
// outbound pacing.
func New(cfg session.Config, logger zerolog.Logger, limiter *rate.Limiter, handlers Handlers, connHandlers session.ConnHandlers) *Client {
	c := &Client{
		log:      logger.With().Str("client", "quote").Logger(),
		handlers: handlers,
		store:    newStore(),
		limiter:  limiter,
	}
	c.eng = session.New(session.RoleQuote, cfg, logger, connHandlers)
	c.eng.SetMarketDataHandler(c.handleMarketData)
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

// SubscribeSpot sends a full-book-depth-1 MarketDataRequest for the
// symbol's bid/ask and records the subscription as Requested before
// sending. The call returns once the request is written; acceptance or
// rejection arrives asynchronously via the registered handlers.
func (c *Client) SubscribeSpot(ctx context.Context, symbol string) error {
	if sub, ok := c.store.spotSubscription(symbol); ok && sub.state != SubRejected {
		return &venueerr.AlreadySubscribedError{Symbol: symbol}
	}
	reqID := uuid.NewString()
	c.store.setSpotRequested(symbol, reqID)
	return c.sendSubscribe(ctx, reqID, symbol, "1") // MarketDepth=1 (top of book)
}

// SubscribeDepth sends a full-depth (MarketDepth=0) MarketDataRequest.
func (c *Client) SubscribeDepth(ctx context.Context, symbol string) error {
	if sub, ok := c.store.depthSubscription(symbol); ok && sub.state != SubRejected {
		return &venueerr.AlreadySubscribedError{Symbol: symbol}
	}
	reqID := uuid.NewString()
	c.store.setDepthRequested(symbol, reqID)
	return c.sendSubscribe(ctx, reqID, symbol, "0")
}

func (c *Client) sendSubscribe(ctx context.Context, reqID, symbol, marketDepth string) error {
	b := wire.NewBuilder(constants.MsgTypeMarketDataRequest).
		Set(constants.TagMDReqID, reqID).
		Set(constants.TagSubscriptionRequestType, constants.SubscriptionRequestTypeSubscribe).
		Set(constants.TagMarketDepth, marketDepth).
		SetInt(constants.TagNoMDEntryTypes, 2).
		Set(constants.TagMDEntryType, constants.MdEntryTypeBid).
		Set(constants.TagMDEntryType, constants.MdEntryTypeOffer).
		SetInt(constants.TagNoRelatedSym, 1).
		Set(constants.TagSymbol, symbol)
	return c.eng.Send(ctx, b)
}

// UnsubscribeSpot removes the subscription and cached price, then sends
// an unsubscribe MarketDataRequest. No wait for acknowledgment.
func (c *Client) UnsubscribeSpot(ctx context.Context, symbol string) error {
	sub, ok := c.store.spotSubscription(symbol)
	if !ok || sub.state == SubRejected {
		return &venueerr.NotSubscribedError{Symbol: symbol}
	}
	if sub.state == SubRequested {
		return &venueerr.SubscriptionPendingError{Symbol: symbol}
	}
	c.store.removeSpot(symbol)
	if sub.state == SubAccepted {
		metrics.DecSubscriptionsActive("spot")
	}
	return c.sendUnsubscribe(ctx, uuid.NewString(), symbol, "1")
}

// UnsubscribeDepth is UnsubscribeSpot for the depth book.
func (c *Client) UnsubscribeDepth(ctx context.Context, symbol string) error {
	sub, ok := c.store.depthSubscription(symbol)
	if !ok || sub.state == SubRejected {
		return &venueerr.NotSubscribedError{Symbol: symbol}
	}
	if sub.state == SubRequested {
		return &venueerr.SubscriptionPendingError{Symbol: symbol}
	}
	c.store.removeDepth(symbol)
	if sub.state == SubAccepted {
		metrics.DecSubscriptionsActive("depth")
	}
	return c.sendUnsubscribe(ctx, uuid.NewString(), symbol, "0")
}

func (c *Client) sendUnsubscribe(ctx context.Context, reqID, symbol, marketDepth string) error {
	b := wire.NewBuilder(constants.MsgTypeMarketDataRequest).
		Set(constants.TagMDReqID, reqID).
		Set(constants.TagSubscriptionRequestType, constants.SubscriptionRequestTypeUnsubscribe).
		Set(constants.TagMarketDepth, marketDepth).
		SetInt(constants.TagNoRelatedSym, 1).
		Set(constants.TagSymbol, symbol)
	return c.eng.Send(ctx, b)
}

// PriceOf returns the last known spot price for symbol.
func (c *Client) PriceOf(symbol string) (SpotPrice, bool) { return c.store.spotPrice(symbol) }

// DepthData returns a snapshot copy of the depth book for symbol.
func (c *Client) DepthData(symbol string) map[string]DepthEntry { return c.store.depthBook(symbol) }

// SpotSubscriptionList returns the symbols with a spot subscription
// entry: pending, accepted, or rejected by the venue.
func (c *Client) SpotSubscriptionList() []string { return c.store.spotSymbols() }

// DepthSubscriptionList is SpotSubscriptionList for depth subscriptions.
func (c *Client) DepthSubscriptionList() []string { return c.store.depthSymbols() }

func (c *Client) handleMarketData(msg *wire.Message) {
	switch msg.MsgType() {
	case constants.MsgTypeMarketDataSnapshot:
		c.handleSnapshot(msg)
	case constants.MsgTypeMarketDataIncremental:
		c.handleIncremental(msg)
	case constants.MsgTypeMarketDataRequestReject:
		c.handleReject(msg)
	}
}

func (c *Client) handleSnapshot(msg *wire.Message) {
	symbol, _ := msg.Field(constants.TagSymbol)
	entries := msg.RepeatingGroupByStart(constants.TagNoMDEntries, constants.TagMDEntryType)
	if len(entries) == 0 {
		return
	}

	isDepth := false
	for _, e := range entries {
		if _, ok := e.Field(constants.TagMDEntryID); ok {
			isDepth = true
			break
		}
	}

	if !isDepth {
		c.handleSpotSnapshot(symbol, entries)
		return
	}
	c.handleDepthSnapshot(symbol, entries)
}

func (c *Client) handleSpotSnapshot(symbol string, entries []wire.Group) {
	var price SpotPrice
	for _, e := range entries {
		entryType, _ := e.Field(constants.TagMDEntryType)
		px, _ := e.Field(constants.TagMDEntryPx)
		v, err := strconv.ParseFloat(px, 64)
		if err != nil {
			continue
		}
		switch entryType {
		case constants.MdEntryTypeBid:
			price.Bid = v
		case constants.MdEntryTypeOffer:
			price.Ask = v
		}
	}

	if c.store.acceptSpotBySymbol(symbol) {
		metrics.IncSubscriptionsActive("spot")
		c.handlers.fireAcceptedSpot(symbol)
	}
	c.store.setSpotPrice(symbol, price)
	if c.persist != nil {
		if err := c.persist.RecordSpotPrice(symbol, price.Bid, price.Ask); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("failed to persist spot price")
		}
	}
	c.handlers.firePriceOf(symbol, price)
}

func (c *Client) handleDepthSnapshot(symbol string, entries []wire.Group) {
	book := make(map[string]DepthEntry, len(entries))
	for _, e := range entries {
		entryID, ok := e.Field(constants.TagMDEntryID)
		if !ok {
			continue
		}
		entryType, _ := e.Field(constants.TagMDEntryType)
		px, _ := e.Field(constants.TagMDEntryPx)
		sz, _ := e.Field(constants.TagMDEntrySize)
		price, _ := strconv.ParseFloat(px, 64)
		size, _ := strconv.ParseFloat(sz, 64)
		book[entryID] = DepthEntry{Side: entryType, Price: price, Size: size}
	}

	if c.store.acceptDepthBySymbol(symbol) {
		metrics.IncSubscriptionsActive("depth")
		c.handlers.fireAcceptedDepth(symbol)
	}
	c.store.setDepthBook(symbol, book)
	if c.persist != nil {
		for entryID, e := range book {
			if err := c.persist.RecordDepthEntry(symbol, entryID, e.Side, e.Price, e.Size); err != nil {
				c.log.Warn().Err(err).Str("symbol", symbol).Msg("failed to persist depth entry")
			}
		}
	}
	c.handlers.fireFullRefresh(symbol, book)
}

func (c *Client) handleIncremental(msg *wire.Message) {
	entries := msg.RepeatingGroupByStart(constants.TagNoMDEntries, constants.TagMDUpdateAction)
	var updates []DepthUpdate
	for _, e := range entries {
		action, _ := e.Field(constants.TagMDUpdateAction)
		symbol, _ := e.Field(constants.TagSymbol)
		entryID, _ := e.Field(constants.TagMDEntryID)

		if !c.store.isDepthAccepted(symbol) {
			continue
		}

		u := DepthUpdate{Action: action, Symbol: symbol, EntryID: entryID}
		if action == constants.MdUpdateActionNew {
			entryType, _ := e.Field(constants.TagMDEntryType)
			px, _ := e.Field(constants.TagMDEntryPx)
			sz, _ := e.Field(constants.TagMDEntrySize)
			price, _ := strconv.ParseFloat(px, 64)
			size, _ := strconv.ParseFloat(sz, 64)
			u.Entry = DepthEntry{Side: entryType, Price: price, Size: size}
		}
		updates = append(updates, u)
	}
	if len(updates) == 0 {
		return
	}

	c.handlers.fireIncremental(updates)
	for _, u := range updates {
		c.store.applyDepthUpdate(u)
		if c.persist == nil {
			continue
		}
		var err error
		switch u.Action {
		case constants.MdUpdateActionNew:
			err = c.persist.RecordDepthEntry(u.Symbol, u.EntryID, u.Entry.Side, u.Entry.Price, u.Entry.Size)
		case constants.MdUpdateActionDelete:
			err = c.persist.RemoveDepthEntry(u.Symbol, u.EntryID)
		}
		if err != nil {
			c.log.Warn().Err(err).Str("symbol", u.Symbol).Msg("failed to persist depth update")
		}
	}
}

func (c *Client) handleReject(msg *wire.Message) {
	reqID, _ := msg.Field(constants.TagMDReqID)
	reason, _ := msg.Field(constants.TagText)
	symbol, isSpot, found := c.store.rejectByReqID(reqID, reason)
	if !found {
		return
	}
	if isSpot {
		metrics.RecordSubscriptionReject("spot")
		c.handlers.fireRejectedSpot(symbol, reason)
	} else {
		metrics.RecordSubscriptionReject("depth")
		c.handlers.fireRejectedDepth(symbol, reason)
	}
}
