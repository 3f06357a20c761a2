package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratorProducesPositiveQtyAndPrice(t *testing.T) {
	g := NewGenerator(1, 100)
	for i := 0; i < 200; i++ {
		o := g.Next()
		assert.Greater(t, o.Qty, 0.0)
		assert.Greater(t, o.Price, 0.0)
		assert.NotEmpty(t, o.Owner)
	}
}

func TestGeneratorIsDeterministicForASeed(t *testing.T) {
	a := NewGenerator(42, 100)
	b := NewGenerator(42, 100)

	for i := 0; i < 50; i++ {
		oa := a.Next()
		ob := b.Next()
		assert.Equal(t, oa, ob)
	}
}

func TestNextCancelTargetReturnsFalseWithNoLiveOrders(t *testing.T) {
	g := NewGenerator(1, 100)
	_, ok := g.NextCancelTarget(nil)
	assert.False(t, ok)
}

func TestNextCancelTargetPicksFromLivePool(t *testing.T) {
	g := NewGenerator(2, 100)
	live := []uint64{7, 8, 9}

	var sawCancel bool
	for i := 0; i < 100; i++ {
		if id, ok := g.NextCancelTarget(live); ok {
			assert.Contains(t, live, id)
			sawCancel = true
		}
	}
	assert.True(t, sawCancel, "expected at least one cancel over 100 draws")
}
