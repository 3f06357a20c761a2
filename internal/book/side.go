package book

import "lobex/internal/common"

// Side is one half of an instrument's order book: a PriceLadder of live
// prices, and the level (FIFO) resting at each one. Ladder membership
// and the level map agree exactly on key set by construction — every
// mutation that creates/destroys a level also inserts/removes its price
// in the same call.
type Side struct {
	ladder *PriceLadder
	levels map[float64]*Level
}

func NewSide(less func(a, b float64) bool) *Side {
	return &Side{
		ladder: NewPriceLadder(less),
		levels: make(map[float64]*Level),
	}
}

// Insert appends order to the level at order.WorkingPrice, creating
// that level (and its ladder entry) if this is the first order there.
func (s *Side) Insert(order *common.Order) {
	lvl, ok := s.levels[order.WorkingPrice]
	if !ok {
		lvl = newLevel(order.WorkingPrice)
		s.levels[order.WorkingPrice] = lvl
		s.ladder.Insert(order.WorkingPrice)
	}
	lvl.PushBack(order)
}

// Head returns the head order of the best level, or false if the side
// is empty.
func (s *Side) Head() (*common.Order, bool) {
	p, ok := s.ladder.PeekBest()
	if !ok {
		return nil, false
	}
	return s.levels[p].Head(), true
}

// BestPrice returns the current best price, or false if the side is
// empty.
func (s *Side) BestPrice() (float64, bool) {
	return s.ladder.PeekBest()
}

// AdvanceHead drops the head of the best level. If that empties the
// level, the level and its ladder entry are removed.
func (s *Side) AdvanceHead() {
	p, ok := s.ladder.PeekBest()
	if !ok {
		return
	}
	lvl := s.levels[p]
	lvl.PopFront()
	if lvl.Empty() {
		delete(s.levels, p)
		s.ladder.PopBest()
	}
}

// RemoveByID removes a specific resting order (a cancel), locating its
// level by the order's own working price. Removes the level too if it
// empties. Returns whether the order was found.
func (s *Side) RemoveByID(order *common.Order) bool {
	lvl, ok := s.levels[order.WorkingPrice]
	if !ok {
		return false
	}
	if !lvl.RemoveID(order.ID) {
		return false
	}
	if lvl.Empty() {
		delete(s.levels, order.WorkingPrice)
		s.ladder.Remove(order.WorkingPrice)
	}
	return true
}

// Size returns the number of distinct price levels.
func (s *Side) Size() int {
	return s.ladder.Size()
}

// Levels returns a read-only snapshot of the resting levels, best
// price first — used by introspection queries and tests.
func (s *Side) Levels() []*Level {
	out := make([]*Level, 0, s.ladder.Size())
	s.ladder.Ascend(func(price float64) bool {
		out = append(out, s.levels[price])
		return true
	})
	return out
}
