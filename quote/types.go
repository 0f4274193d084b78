// Package quote implements the market-data client: spot and depth
// subscription lifecycle, last-known spot price, and depth book
// reconstruction from snapshot and incremental FIX messages.
package quote

// SpotPrice is the last known bid/ask pair for a symbol.
type SpotPrice struct {
	Bid float64
	Ask float64
}

// DepthEntry is one price level in a symbol's depth book.
type DepthEntry struct {
	Side  string // constants.MdEntryTypeBid or MdEntryTypeOffer
	Price float64
	Size  float64
}

// DepthUpdate is one parsed incremental-refresh action, batched and
// delivered to OnMarketDepthIncremental before being applied to
// the book.
type DepthUpdate struct {
	Action  string // constants.MdUpdateActionNew or MdUpdateActionDelete
	Symbol  string
	EntryID string
	Entry   DepthEntry // zero value for Delete actions
}

// SubState is a subscription's lifecycle state.
type SubState int

const (
	SubRequested SubState = iota
	SubAccepted
	SubRejected
)

type subscription struct {
	state  SubState
	reqID  string
	reason string
}

// Handlers is the capability object for quote-client events. Every
// field defaults to a no-op.
type Handlers struct {
	OnPriceOf                   func(symbol string, price SpotPrice)
	OnMarketDepthFullRefresh    func(symbol string, book map[string]DepthEntry)
	OnMarketDepthIncremental    func(updates []DepthUpdate)
	OnAcceptedSpotSubscription  func(symbol string)
	OnRejectedSpotSubscription  func(symbol, reason string)
	OnAcceptedDepthSubscription func(symbol string)
	OnRejectedDepthSubscription func(symbol, reason string)
}

func (h Handlers) firePriceOf(symbol string, p SpotPrice) {
	if h.OnPriceOf != nil {
		go h.OnPriceOf(symbol, p)
	}
}

func (h Handlers) fireFullRefresh(symbol string, book map[string]DepthEntry) {
	if h.OnMarketDepthFullRefresh != nil {
		go h.OnMarketDepthFullRefresh(symbol, book)
	}
}

func (h Handlers) fireIncremental(updates []DepthUpdate) {
	if h.OnMarketDepthIncremental != nil {
		go h.OnMarketDepthIncremental(updates)
	}
}

func (h Handlers) fireAcceptedSpot(symbol string) {
	if h.OnAcceptedSpotSubscription != nil {
		go h.OnAcceptedSpotSubscription(symbol)
	}
}

func (h Handlers) fireRejectedSpot(symbol, reason string) {
	if h.OnRejectedSpotSubscription != nil {
		go h.OnRejectedSpotSubscription(symbol, reason)
	}
}

func (h Handlers) fireAcceptedDepth(symbol string) {
	if h.OnAcceptedDepthSubscription != nil {
		go h.OnAcceptedDepthSubscription(symbol)
	}
}

func (h Handlers) fireRejectedDepth(symbol, reason string) {
	if h.OnRejectedDepthSubscription != nil {
		go h.OnRejectedDepthSubscription(symbol, reason)
	}
}
