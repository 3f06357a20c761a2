// Package engine implements the single-instrument matching core: the
// order book sides, the registry, the place/cancel/edit protocol and
// the dedicated matching worker that drains crosses under a
// condition-variable handoff.
package engine

import (
	"sync"
	"time"

	"lobex/internal/book"
	"lobex/internal/common"
	"lobex/internal/registry"
)

// Core is one instrument's matching engine. It owns both sides, the
// registry, the id allocator (via the registry) and the event emitter.
// A Core is created already running: a dedicated worker goroutine is
// launched by New and must be stopped with Shutdown.
type Core struct {
	mu   sync.Mutex
	cond *sync.Cond

	bid *book.Side
	ask *book.Side
	reg *registry.Registry
	sink EventSink

	aggressorID uint64
	pending     bool
	running     bool
	wg          sync.WaitGroup

	seedPrice float64
}

// New constructs a Core and starts its worker goroutine. seedPrice is
// the value GetPrice returns while the book is empty (see exchange.List
// for how it's seeded from an instrument's IPO price).
func New(sink EventSink, seedPrice float64) *Core {
	if sink == nil {
		sink = LogSink{}
	}
	c := &Core{
		bid:       book.NewSide(book.BidLess),
		ask:       book.NewSide(book.AskLess),
		reg:       registry.New(),
		sink:      sink,
		running:   true,
		seedPrice: seedPrice,
	}
	c.cond = sync.NewCond(&c.mu)
	c.wg.Add(1)
	go c.workerLoop()
	return c
}

// Shutdown stops the worker goroutine and waits for it to exit. A call
// to Place/Cancel/Edit already in flight when Shutdown runs returns its
// pre-computed result; the worker will not run a further match pass for
// it.
func (c *Core) Shutdown() {
	c.mu.Lock()
	c.running = false
	c.pending = true
	c.cond.Broadcast()
	c.mu.Unlock()
	c.wg.Wait()
}

// workerLoop is the dedicated matching worker. It holds the lock for
// its entire lifetime except while parked in cond.Wait.
func (c *Core) workerLoop() {
	defer c.wg.Done()

	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		for !c.pending && c.running {
			c.cond.Wait()
		}
		if !c.running {
			c.pending = false
			c.cond.Broadcast()
			return
		}
		c.match()
		c.pending = false
		c.cond.Broadcast()
	}
}

// wakeAndWait raises the work-pending flag for aggressorID, wakes the
// worker, and blocks until it reports completion. Must be called with
// c.mu held.
func (c *Core) wakeAndWait(aggressorID uint64) {
	c.aggressorID = aggressorID
	c.pending = true
	c.cond.Broadcast()
	for c.pending {
		c.cond.Wait()
	}
}

// Place admits a new order on behalf of owner. Returns the assigned id,
// or 0 if the order is rejected (non-positive qty, or a MARKET order
// with no liquidity on the opposite side).
func (c *Core) Place(side common.Side, typ common.OrderType, qty, price float64, owner string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.placeLocked(side, typ, qty, price, owner)
	if id == 0 {
		return 0
	}
	c.wakeAndWait(id)
	return id
}

// Cancel removes a resting LIMIT order. Returns false if the id is
// unknown, the order is not OPEN, or it is a MARKET order.
func (c *Core) Cancel(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cancelLocked(id) {
		return false
	}
	c.wakeAndWait(c.aggressorID) // book changed; let the worker re-check quiescence
	return true
}

// Edit replaces order id with a fresh order at the given side/qty/price,
// as a single cancel-then-place critical section. The replacement keeps
// the original order's owner. Returns the new id, or 0 if the cancel
// preconditions are not met.
func (c *Core) Edit(id uint64, side common.Side, qty, price float64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.reg.Get(id)
	if !ok {
		return 0
	}
	typ := existing.Type
	owner := existing.Owner
	if !c.cancelLocked(id) {
		return 0
	}
	newID := c.placeLocked(side, typ, qty, price, owner)
	if newID == 0 {
		return 0
	}
	c.wakeAndWait(newID)
	return newID
}

// GetOrder returns the current record for id, if it exists.
func (c *Core) GetOrder(id uint64) (common.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.reg.Get(id)
	if !ok {
		return common.Order{}, false
	}
	return *o, true
}

// GetOrdersByStatus returns a snapshot of every order currently in the
// given status.
func (c *Core) GetOrdersByStatus(status common.Status) []common.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	orders := c.reg.ByStatus(status)
	out := make([]common.Order, len(orders))
	for i, o := range orders {
		out[i] = *o
	}
	return out
}

// BestPriceSentinel is returned by GetBestBid/GetBestAsk when that side
// is empty.
const BestPriceSentinel = -1

// GetBestBid returns the current best bid price, or BestPriceSentinel.
func (c *Core) GetBestBid() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.bid.BestPrice(); ok {
		return p
	}
	return BestPriceSentinel
}

// GetBestAsk returns the current best ask price, or BestPriceSentinel.
func (c *Core) GetBestAsk() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.ask.BestPrice(); ok {
		return p
	}
	return BestPriceSentinel
}

// GetPrice returns the mid of best bid/ask, or the seeded starting
// price if the book is entirely empty.
func (c *Core) GetPrice() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	bid, bidOk := c.bid.BestPrice()
	ask, askOk := c.ask.BestPrice()
	switch {
	case bidOk && askOk:
		return (bid + ask) / 2
	case bidOk:
		return bid
	case askOk:
		return ask
	default:
		return c.seedPrice
	}
}

// placeLocked is the non-locking half of Place, shared with Edit. It
// validates, allocates, derives the working price, installs the order
// into the registry and its side, and emits OPEN/REJECT. Must be called
// with c.mu held.
func (c *Core) placeLocked(side common.Side, typ common.OrderType, qty, price float64, owner string) uint64 {
	now := time.Now()
	if qty <= 0 {
		c.sink.Emit(Event{Kind: EventReject, Side: side, Type: typ, Qty: qty, Price: price, Timestamp: now})
		return 0
	}
	if typ == common.Market {
		empty := (side == common.Bid && c.ask.Size() == 0) || (side == common.Ask && c.bid.Size() == 0)
		if empty {
			c.sink.Emit(Event{Kind: EventReject, Side: side, Type: typ, Qty: qty, Price: price, Timestamp: now})
			return 0
		}
	}

	workingPrice := c.derivePrice(side, typ, price)

	id := c.reg.Allocate()
	order := &common.Order{
		ID:           id,
		Side:         side,
		Type:         typ,
		Owner:        owner,
		ArrivalTime:  now,
		OriginalQty:  qty,
		RemainingQty: qty,
		WorkingPrice: workingPrice,
		Status:       common.Open,
	}
	c.reg.Install(order)
	c.sideFor(side).Insert(order)

	c.sink.Emit(Event{
		Kind: EventOpen, OrderID: id, Side: side, Type: typ,
		Qty: qty, Price: workingPrice, Timestamp: now,
	})
	return id
}

// derivePrice implements §4.4 step 2: limit-clamping against a
// marketable opposite top, or pegging a market order to it.
func (c *Core) derivePrice(side common.Side, typ common.OrderType, price float64) float64 {
	switch {
	case typ == common.Limit && side == common.Bid:
		if bestAsk, ok := c.ask.BestPrice(); ok && price > bestAsk {
			return bestAsk
		}
		return price
	case typ == common.Limit && side == common.Ask:
		if bestBid, ok := c.bid.BestPrice(); ok && price < bestBid {
			return bestBid
		}
		return price
	case typ == common.Market && side == common.Bid:
		best, _ := c.ask.BestPrice() // guaranteed present, checked in placeLocked
		return best
	default: // Market Ask
		best, _ := c.bid.BestPrice()
		return best
	}
}

// cancelLocked is the non-locking half of Cancel, shared with Edit.
// Must be called with c.mu held.
func (c *Core) cancelLocked(id uint64) bool {
	o, ok := c.reg.Get(id)
	if !ok || o.Status != common.Open || o.Type == common.Market {
		return false
	}
	if !c.sideFor(o.Side).RemoveByID(o) {
		return false
	}
	o.Status = common.Cancelled
	c.sink.Emit(Event{
		Kind: EventCancel, OrderID: id, Side: o.Side, Type: o.Type,
		Qty: o.RemainingQty, Price: o.WorkingPrice, Timestamp: time.Now(),
	})
	return true
}

func (c *Core) sideFor(side common.Side) *book.Side {
	if side == common.Bid {
		return c.bid
	}
	return c.ask
}
