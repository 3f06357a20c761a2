// Package book implements the per-side order book: a best-first price
// ladder over distinct price points, and the FIFO levels of resting
// orders that live at each point.
package book

import "github.com/tidwall/btree"

// PriceLadder is a best-first structure over distinct prices. The
// ordering comparator is fixed at construction — min-first for asks,
// max-first for bids — and never changes afterwards. It holds bare
// prices; the order queues themselves live in Side's level map.
type PriceLadder struct {
	prices *btree.BTreeG[float64]
}

// AskLess orders a ladder so PeekBest returns the lowest price.
func AskLess(a, b float64) bool { return a < b }

// BidLess orders a ladder so PeekBest returns the highest price.
func BidLess(a, b float64) bool { return a > b }

func NewPriceLadder(less func(a, b float64) bool) *PriceLadder {
	return &PriceLadder{prices: btree.NewBTreeG(less)}
}

// Insert adds a price. The caller guarantees p is not already present.
func (l *PriceLadder) Insert(p float64) {
	l.prices.Set(p)
}

// PeekBest returns the current best price without removing it.
func (l *PriceLadder) PeekBest() (float64, bool) {
	return l.prices.Min()
}

// PopBest removes the current best price. No-op if the ladder is empty.
func (l *PriceLadder) PopBest() {
	if p, ok := l.prices.Min(); ok {
		l.prices.Delete(p)
	}
}

// Remove deletes an arbitrary price known to be present.
func (l *PriceLadder) Remove(p float64) {
	l.prices.Delete(p)
}

func (l *PriceLadder) Size() int {
	return l.prices.Len()
}

// Ascend walks every price best-first (i.e. in the ladder's own
// ordering, not necessarily numeric ascending order) without mutating
// the ladder. Stops early if iter returns false.
func (l *PriceLadder) Ascend(iter func(price float64) bool) {
	l.prices.Scan(iter)
}
