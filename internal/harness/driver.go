package harness

import (
	"time"

	"github.com/rs/zerolog/log"

	"lobex/internal/common"
)

// CoreLike is the subset of *engine.Core (or *exchange.Exchange bound
// to a single ticker) a Driver needs. Kept minimal and interface-typed
// so the harness can drive either a bare core in-process or a whole
// exchange through a thin adapter.
type CoreLike interface {
	Place(side common.Side, typ common.OrderType, qty, price float64, owner string) uint64
	Cancel(id uint64) bool
}

// Driver repeatedly pulls orders from a Generator and applies them to
// a CoreLike target, tracking which ids are still live so it can issue
// realistic cancels.
type Driver struct {
	gen    *Generator
	target CoreLike
	live   []uint64

	Placed   int
	Rejected int
	Cancels  int
}

func NewDriver(gen *Generator, target CoreLike) *Driver {
	return &Driver{gen: gen, target: target}
}

// Step applies exactly one generated action and returns whether it was
// a cancel (true) or a placement (false).
func (d *Driver) Step() bool {
	if id, ok := d.gen.NextCancelTarget(d.live); ok {
		d.target.Cancel(id)
		d.removeLive(id)
		d.Cancels++
		return true
	}

	o := d.gen.Next()
	id := d.target.Place(o.Side, o.Type, o.Qty, o.Price, o.Owner)
	if id == 0 {
		d.Rejected++
		return false
	}
	d.Placed++
	d.live = append(d.live, id)
	return false
}

func (d *Driver) removeLive(id uint64) {
	for i, v := range d.live {
		if v == id {
			d.live = append(d.live[:i], d.live[i+1:]...)
			return
		}
	}
}

// Run drives the target for count steps, pausing interval between each
// — used by cmd/simulator to produce a readable, rate-limited stream
// instead of saturating the core instantly.
func (d *Driver) Run(count int, interval time.Duration) {
	for i := 0; i < count; i++ {
		d.Step()
		if interval > 0 {
			time.Sleep(interval)
		}
	}
	log.Info().
		Int("placed", d.Placed).
		Int("rejected", d.Rejected).
		Int("cancels", d.Cancels).
		Msg("simulation run complete")
}
