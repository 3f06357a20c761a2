// Package harness drives synthetic order flow against a matching core
// or a live exchange for fuzz and load testing, in the spirit of the
// teacher's own random-order generation pattern.
package harness

import (
	"math/rand"

	"lobex/internal/common"
)

// Generator produces pseudo-random orders clustered around a moving
// reference price, loosely modeled on a single-symbol random walk.
type Generator struct {
	rng     *rand.Rand
	traders []string
	mid     float64
	spread  float64
}

var defaultTraders = []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi", "ivan"}

// NewGenerator seeds a deterministic Generator around basePrice.
func NewGenerator(seed int64, basePrice float64) *Generator {
	return &Generator{
		rng:     rand.New(rand.NewSource(seed)),
		traders: defaultTraders,
		mid:     basePrice,
		spread:  basePrice * 0.02,
	}
}

// GeneratedOrder is one synthetic order intent, ready to be submitted
// through exchange.Exchange.Place or over the wire.
type GeneratedOrder struct {
	Side  common.Side
	Type  common.OrderType
	Qty   float64
	Price float64
	Owner string
}

// Next produces one order. Roughly one in five orders is a MARKET
// order; the rest are LIMIT orders priced within Generator's spread of
// its tracked mid, which itself drifts by a small random step every
// call so a long-running stream explores a realistic price range
// instead of orbiting a single level forever.
func (g *Generator) Next() GeneratedOrder {
	side := common.Bid
	if g.rng.Intn(2) == 1 {
		side = common.Ask
	}

	typ := common.Limit
	if g.rng.Intn(5) == 0 {
		typ = common.Market
	}

	qty := float64(1 + g.rng.Intn(50))

	offset := (g.rng.Float64()*2 - 1) * g.spread
	price := g.mid + offset
	if price <= 0 {
		price = g.mid
	}

	g.mid += (g.rng.Float64()*2 - 1) * (g.spread / 10)
	if g.mid <= 0 {
		g.mid = g.spread
	}

	return GeneratedOrder{
		Side:  side,
		Type:  typ,
		Qty:   qty,
		Price: price,
		Owner: g.traders[g.rng.Intn(len(g.traders))],
	}
}

// NextCancelTarget decides, given a pool of currently-live order ids,
// whether this tick should cancel one of them instead of placing a new
// order — roughly one in four ticks once orders exist.
func (g *Generator) NextCancelTarget(live []uint64) (uint64, bool) {
	if len(live) == 0 || g.rng.Intn(4) != 0 {
		return 0, false
	}
	return live[g.rng.Intn(len(live))], true
}
