package quote

import "sync"

// store holds the subscription state machines, the last-known spot
// price per symbol, and the reconstructed depth book per symbol.
// Generalized from the teacher's ring-buffer trade store: here the
// data isn't a bounded history but a point-in-time map, so a
// sync.RWMutex-guarded map replaces the ring buffer, but the single-
// writer/many-reader concurrency model carries over unchanged.
type store struct {
	mu sync.RWMutex

	spotSubs  map[string]*subscription
	depthSubs map[string]*subscription

	spotPrices map[string]SpotPrice
	depthBooks map[string]map[string]DepthEntry // symbol -> entryID -> entry
}

func newStore() *store {
	return &store{
		spotSubs:   make(map[string]*subscription),
		depthSubs:  make(map[string]*subscription),
		spotPrices: make(map[string]SpotPrice),
		depthBooks: make(map[string]map[string]DepthEntry),
	}
}

func (s *store) setSpotRequested(symbol, reqID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spotSubs[symbol] = &subscription{state: SubRequested, reqID: reqID}
}

func (s *store) setDepthRequested(symbol, reqID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depthSubs[symbol] = &subscription{state: SubRequested, reqID: reqID}
}

func (s *store) spotSubscription(symbol string) (*subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.spotSubs[symbol]
	return sub, ok
}

func (s *store) depthSubscription(symbol string) (*subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.depthSubs[symbol]
	return sub, ok
}

func (s *store) acceptSpotBySymbol(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.spotSubs[symbol]
	if !ok || sub.state != SubRequested {
		return false
	}
	sub.state = SubAccepted
	return true
}

func (s *store) acceptDepthBySymbol(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.depthSubs[symbol]
	if !ok || sub.state != SubRequested {
		return false
	}
	sub.state = SubAccepted
	return true
}

// rejectByReqID scans both subscription maps for a matching pending
// reqID (MDReqID is opaque at the transport layer, so rejects are
// correlated by id rather than by symbol) and marks it Rejected.
// Returns the symbol and which book (spot/depth) it belonged to.
func (s *store) rejectByReqID(reqID, reason string) (symbol string, isSpot bool, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sym, sub := range s.spotSubs {
		if sub.reqID == reqID && sub.state == SubRequested {
			sub.state = SubRejected
			sub.reason = reason
			return sym, true, true
		}
	}
	for sym, sub := range s.depthSubs {
		if sub.reqID == reqID && sub.state == SubRequested {
			sub.state = SubRejected
			sub.reason = reason
			return sym, false, true
		}
	}
	return "", false, false
}

func (s *store) removeSpot(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.spotSubs, symbol)
	delete(s.spotPrices, symbol)
}

func (s *store) removeDepth(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.depthSubs, symbol)
	delete(s.depthBooks, symbol)
}

func (s *store) setSpotPrice(symbol string, p SpotPrice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spotPrices[symbol] = p
}

func (s *store) spotPrice(symbol string) (SpotPrice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.spotPrices[symbol]
	return p, ok
}

func (s *store) setDepthBook(symbol string, book map[string]DepthEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depthBooks[symbol] = book
}

func (s *store) depthBook(symbol string) map[string]DepthEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book := s.depthBooks[symbol]
	out := make(map[string]DepthEntry, len(book))
	for k, v := range book {
		out[k] = v
	}
	return out
}

// applyDepthUpdate mutates the book for symbol after the caller has
// already fired the incremental-refresh callback, per the documented
// callback-before-mutation ordering.
func (s *store) applyDepthUpdate(u DepthUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.depthBooks[u.Symbol]
	if !ok {
		book = make(map[string]DepthEntry)
		s.depthBooks[u.Symbol] = book
	}
	switch u.Action {
	case "0": // New
		book[u.EntryID] = u.Entry
	case "2": // Delete
		delete(book, u.EntryID)
	}
}

func (s *store) isDepthAccepted(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.depthSubs[symbol]
	return ok && sub.state == SubAccepted
}

func (s *store) spotSymbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.spotSubs))
	for sym := range s.spotSubs {
		out = append(out, sym)
	}
	return out
}

func (s *store) depthSymbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.depthSubs))
	for sym := range s.depthSubs {
		out = append(out, sym)
	}
	return out
}
