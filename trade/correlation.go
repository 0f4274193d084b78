package trade

import (
	"context"
	"sync"
	"time"

	"github.com/tradeflow/fixvenue/venueerr"
	"github.com/tradeflow/fixvenue/wire"
)

// responseQueue buffers inbound trade-session messages that have not yet
// been claimed by a waiting operation. Entries expire after ttl so a
// request that nobody ever awaits does not leak memory. Waiters are
// notified through a single channel that is closed and replaced on every
// push, the standard Go broadcast idiom.
type responseQueue struct {
	mu      sync.Mutex
	entries []pendingEntry
	waitCh  chan struct{}
	ttl     time.Duration
}

type pendingEntry struct {
	msg    *wire.Message
	expiry time.Time
	read   bool
}

func newResponseQueue(ttl time.Duration) *responseQueue {
	return &responseQueue{waitCh: make(chan struct{}), ttl: ttl}
}

// push appends msg and evicts any entries past their expiry, then
// broadcasts to current waiters.
func (q *responseQueue) push(msg *wire.Message) {
	q.mu.Lock()
	now := time.Now()
	kept := q.entries[:0]
	for _, e := range q.entries {
		if e.expiry.After(now) {
			kept = append(kept, e)
		}
	}
	q.entries = append(kept, pendingEntry{msg: msg, expiry: now.Add(q.ttl)})
	old := q.waitCh
	q.waitCh = make(chan struct{})
	q.mu.Unlock()
	close(old)
}

func (q *responseQueue) signal() chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waitCh
}

// match scans unread entries newest-first and returns the first one
// matchFn accepts, marking it read.
func (q *responseQueue) match(matchFn func(*wire.Message) bool) (*wire.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := len(q.entries) - 1; i >= 0; i-- {
		e := &q.entries[i]
		if e.read || !matchFn(e.msg) {
			continue
		}
		e.read = true
		return e.msg, true
	}
	return nil, false
}

// matchAll returns every unread entry matchFn accepts, oldest first, and
// marks them all read. Used for multi-part responses (positions, mass
// status) where arrival order matters.
func (q *responseQueue) matchAll(matchFn func(*wire.Message) bool) []*wire.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*wire.Message
	for i := range q.entries {
		e := &q.entries[i]
		if e.read || !matchFn(e.msg) {
			continue
		}
		e.read = true
		out = append(out, e.msg)
	}
	return out
}

// awaitOne blocks until matchFn accepts a message, ctx is done, or
// timeout elapses.
func (q *responseQueue) awaitOne(ctx context.Context, timeout time.Duration, matchFn func(*wire.Message) bool) (*wire.Message, error) {
	deadline := time.Now().Add(timeout)
	for {
		if msg, ok := q.match(matchFn); ok {
			return msg, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, venueerr.ErrTimeout
		}
		select {
		case <-q.signal():
		case <-time.After(remaining):
			return nil, venueerr.ErrTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// awaitMany accumulates matching messages until total have been
// collected, ctx is done, or timeout elapses. total may grow as callers
// learn it from the first response; pass a non-positive value to signal
// "not yet known" via totalFn.
func (q *responseQueue) awaitMany(ctx context.Context, timeout time.Duration, matchFn func(*wire.Message) bool, totalFn func([]*wire.Message) int) ([]*wire.Message, error) {
	deadline := time.Now().Add(timeout)
	var collected []*wire.Message
	for {
		collected = append(collected, q.matchAll(matchFn)...)
		if want := totalFn(collected); want > 0 && len(collected) >= want {
			return collected, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			if len(collected) > 0 {
				return collected, nil
			}
			return nil, venueerr.ErrTimeout
		}
		select {
		case <-q.signal():
		case <-time.After(remaining):
			if len(collected) > 0 {
				return collected, nil
			}
			return nil, venueerr.ErrTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
