package harness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lobex/internal/common"
	"lobex/internal/engine"
)

func TestDriverAgainstRealCoreNeverPanics(t *testing.T) {
	core := engine.New(nil, 100)
	defer core.Shutdown()

	d := NewDriver(NewGenerator(3, 100), core)
	d.Run(300, 0)

	assert.Equal(t, d.Placed+d.Rejected, 300-d.Cancels)

	bestBid := core.GetBestBid()
	bestAsk := core.GetBestAsk()
	if bestBid != engine.BestPriceSentinel && bestAsk != engine.BestPriceSentinel {
		assert.Less(t, bestBid, bestAsk)
	}
}

type fakeCore struct {
	nextID   uint64
	canceled []uint64
}

func (f *fakeCore) Place(side common.Side, typ common.OrderType, qty, price float64, owner string) uint64 {
	f.nextID++
	return f.nextID
}

func (f *fakeCore) Cancel(id uint64) bool {
	f.canceled = append(f.canceled, id)
	return true
}

func TestDriverTracksLiveIDsAcrossCancels(t *testing.T) {
	f := &fakeCore{}
	d := NewDriver(NewGenerator(4, 100), f)

	d.Run(50, 0)
	assert.Equal(t, d.Placed, len(f.canceled)+len(d.live))
}

func TestRunRespectsInterval(t *testing.T) {
	f := &fakeCore{}
	d := NewDriver(NewGenerator(5, 100), f)

	start := time.Now()
	d.Run(5, 2*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 8*time.Millisecond)
}
