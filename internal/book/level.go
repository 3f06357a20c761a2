package book

import "lobex/internal/common"

// Level is the FIFO queue of resting orders sharing one price on one
// side. Orders are appended at the tail and consumed from the head,
// preserving time priority.
type Level struct {
	Price  float64
	orders []*common.Order
}

func newLevel(price float64) *Level {
	return &Level{Price: price}
}

// Head returns the next order to trade at this price, or nil if the
// level is empty.
func (l *Level) Head() *common.Order {
	if len(l.orders) == 0 {
		return nil
	}
	return l.orders[0]
}

// PushBack appends an order to the tail of the FIFO.
func (l *Level) PushBack(o *common.Order) {
	l.orders = append(l.orders, o)
}

// PopFront drops the head order. No-op if empty.
func (l *Level) PopFront() {
	if len(l.orders) == 0 {
		return
	}
	l.orders = l.orders[1:]
}

// RemoveID filters a specific order out of the FIFO by id. Returns
// whether it was found.
func (l *Level) RemoveID(id uint64) bool {
	for i, o := range l.orders {
		if o.ID == id {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
			return true
		}
	}
	return false
}

func (l *Level) Empty() bool {
	return len(l.orders) == 0
}

// Orders returns a read-only snapshot of the resting orders, head first.
func (l *Level) Orders() []*common.Order {
	out := make([]*common.Order, len(l.orders))
	copy(out, l.orders)
	return out
}
