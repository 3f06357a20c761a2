package exchange

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobex/internal/common"
	"lobex/internal/engine"
)

type captureSink struct {
	mu     sync.Mutex
	events []engine.Event
}

func (s *captureSink) Emit(e engine.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *captureSink) snapshot() []engine.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]engine.Event, len(s.events))
	copy(out, s.events)
	return out
}

func TestListCreatesCoreOnceAndIsIdempotent(t *testing.T) {
	ex := New(nil)
	defer ex.Shutdown()

	c1 := ex.List("AAPL", 100, 1000)
	c2 := ex.List("AAPL", 999, 999) // second call must return the same core, args ignored
	assert.Same(t, c1, c2)
}

func TestUnknownTickerReturnsError(t *testing.T) {
	ex := New(nil)
	defer ex.Shutdown()

	_, err := ex.Place("GOOG", common.Bid, common.Limit, 1, 100, "")
	assert.ErrorIs(t, err, ErrUnknownTicker)

	_, _, err = ex.GetOrder("GOOG", 1)
	assert.ErrorIs(t, err, ErrUnknownTicker)
}

func TestPlaceForwardsToCorrectCore(t *testing.T) {
	ex := New(nil)
	defer ex.Shutdown()

	ex.List("AAPL", 100, 0)
	ex.List("MSFT", 200, 0)

	id, err := ex.Place("AAPL", common.Bid, common.Limit, 5, 100, "")
	require.NoError(t, err)
	require.NotZero(t, id)

	price, err := ex.GetBestBid("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 100.0, price)

	price, err = ex.GetBestBid("MSFT")
	require.NoError(t, err)
	assert.Equal(t, float64(engine.BestPriceSentinel), price, "MSFT's book must be untouched by an AAPL order")
}

func TestEventsAreTaggedWithTicker(t *testing.T) {
	sink := &captureSink{}
	ex := New(func(ticker string) engine.EventSink { return sink })
	defer ex.Shutdown()

	ex.List("AAPL", 100, 0)
	ex.List("MSFT", 200, 0)

	_, err := ex.Place("AAPL", common.Bid, common.Limit, 5, 100, "")
	require.NoError(t, err)
	_, err = ex.Place("MSFT", common.Ask, common.Limit, 5, 200, "")
	require.NoError(t, err)

	var tickers []string
	for _, e := range sink.snapshot() {
		tickers = append(tickers, e.Ticker)
	}
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)
}

func TestGetPriceUsesSeedWhenBookEmpty(t *testing.T) {
	ex := New(nil)
	defer ex.Shutdown()

	ex.List("AAPL", 150, 0)
	price, err := ex.GetPrice("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 150.0, price)
}
