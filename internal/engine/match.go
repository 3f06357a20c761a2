package engine

import (
	"math"
	"time"

	"lobex/internal/common"
)

// match runs the match loop (§4.7) to completion for the current
// aggressor-of-record. It must be called with c.mu held, exclusively
// from workerLoop.
func (c *Core) match() {
	for {
		aggressor, ok := c.reg.Get(c.aggressorID)
		if !ok {
			return
		}
		if aggressor.Status != common.Open || aggressor.RemainingQty <= 0 {
			return
		}

		askHead, askOk := c.ask.Head()
		bidHead, bidOk := c.bid.Head()
		if !askOk || !bidOk {
			return
		}

		if bidHead.WorkingPrice < askHead.WorkingPrice {
			return // no cross
		}

		c.fillOne(askHead, bidHead)
	}
}

// fillOne executes a single fill between the two current heads,
// emitting one event per side and advancing any side whose head is now
// fully consumed.
func (c *Core) fillOne(askHead, bidHead *common.Order) {
	now := time.Now()
	fillQty := math.Min(askHead.RemainingQty, bidHead.RemainingQty)

	askHead.RemainingQty -= fillQty
	bidHead.RemainingQty -= fillQty

	c.emitFill(askHead, fillQty, now)
	c.emitFill(bidHead, fillQty, now)

	if askHead.RemainingQty == 0 {
		c.ask.AdvanceHead()
		askHead.Status = common.Filled
	}
	if bidHead.RemainingQty == 0 {
		c.bid.AdvanceHead()
		bidHead.Status = common.Filled
	}
}

func (c *Core) emitFill(o *common.Order, qty float64, at time.Time) {
	kind := EventFill
	if o.RemainingQty > 0 {
		kind = EventPartialFill
	}
	c.sink.Emit(Event{
		Kind: kind, OrderID: o.ID, Side: o.Side, Type: o.Type,
		Qty: qty, Price: o.WorkingPrice, Timestamp: at,
	})
}
