// Package alert implements in-memory price alerts keyed off the bid side
// of a symbol's spot price: a High alert fires once the bid rises to or
// through its threshold, a Low alert once it falls to or through its
// threshold. Triggered alerts are one-shot and removed automatically.
package alert

import (
	"sync"

	"github.com/google/uuid"
)

// Kind distinguishes a High from a Low alert.
type Kind int

const (
	High Kind = iota
	Low
)

// Set is one alert's kind and threshold price.
type Set struct {
	Kind      Kind
	Threshold float64
}

// Book tracks pending alerts across symbols and the last known price per
// symbol, so a newly set alert can be checked against the current price
// immediately by the caller if desired.
type Book struct {
	mu sync.Mutex

	// alerts is symbol -> alertID -> Set, mirroring the teacher's
	// per-symbol map-of-maps so removal by id stays O(1) once the
	// owning symbol is known.
	alerts map[string]map[string]Set
	// id2symbol lets Modify/Remove locate an alert's symbol without a
	// linear scan.
	id2symbol map[string]string
	// price is the last bid/ask observed per symbol.
	price map[string][2]float64
}

// New returns an empty Book.
func New() *Book {
	return &Book{
		alerts:    make(map[string]map[string]Set),
		id2symbol: make(map[string]string),
		price:     make(map[string][2]float64),
	}
}

// Price returns the last known bid for symbol.
func (b *Book) Price(symbol string) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.price[symbol]
	if !ok {
		return 0, false
	}
	return p[0], true
}

// SetAlert registers a new alert for symbol and returns its id. If id is
// empty, one is generated.
func (b *Book) SetAlert(symbol string, set Set, id string) string {
	if id == "" {
		id = uuid.NewString()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.id2symbol[id] = symbol
	if b.alerts[symbol] == nil {
		b.alerts[symbol] = make(map[string]Set)
	}
	b.alerts[symbol][id] = set
	return id
}

// ModifyAlert changes an existing alert's threshold, keeping its kind.
// Returns the updated Set, or false if id is unknown.
func (b *Book) ModifyAlert(id string, threshold float64) (Set, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	symbol, ok := b.id2symbol[id]
	if !ok {
		return Set{}, false
	}
	set, ok := b.alerts[symbol][id]
	if !ok {
		return Set{}, false
	}
	set.Threshold = threshold
	b.alerts[symbol][id] = set
	return set, true
}

// RemoveAlert cancels an alert before it fires. Returns the removed Set,
// or false if id is unknown.
func (b *Book) RemoveAlert(id string) (Set, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	symbol, ok := b.id2symbol[id]
	if !ok {
		return Set{}, false
	}
	delete(b.id2symbol, id)
	set, ok := b.alerts[symbol][id]
	delete(b.alerts[symbol], id)
	return set, ok
}

// OnPrice records the new bid/ask for symbol and returns the ids of any
// alerts whose threshold the previous or the new bid has reached (High:
// bid at or above it; Low: bid at or below it), removing them. Returns
// nil if no alert fired.
func (b *Book) OnPrice(symbol string, bid, ask float64) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.alerts[symbol]
	if len(list) == 0 {
		b.price[symbol] = [2]float64{bid, ask}
		return nil
	}
	old, hadOld := b.price[symbol]
	b.price[symbol] = [2]float64{bid, ask}

	var fired []string
	for id, set := range list {
		var crossed bool
		switch set.Kind {
		case High:
			crossed = (hadOld && set.Threshold <= old[0]) || set.Threshold <= bid
		case Low:
			crossed = (hadOld && set.Threshold >= old[0]) || set.Threshold >= bid
		}
		if crossed {
			fired = append(fired, id)
		}
	}
	for _, id := range fired {
		delete(list, id)
		delete(b.id2symbol, id)
	}
	return fired
}
