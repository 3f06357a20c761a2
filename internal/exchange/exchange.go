// Package exchange multiplexes one engine.Core per ticker symbol and
// forwards client operations to the correct core. It is the only
// component in this repository that spans multiple instruments; each
// core it holds stays fully independent of every other.
package exchange

import (
	"errors"
	"sync"

	"lobex/internal/common"
	"lobex/internal/engine"
)

// ErrUnknownTicker is returned when an operation names a symbol that
// was never registered via List.
var ErrUnknownTicker = errors.New("exchange: unknown ticker")

// SinkFactory builds the EventSink a newly-listed instrument's core
// should use. Exchange wraps whatever it returns with a ticker tag so
// downstream consumers can tell cores apart.
type SinkFactory func(ticker string) engine.EventSink

// Exchange owns a registry of independent matching cores, keyed by
// ticker. A sync.RWMutex guards only the map itself — never a core's
// internal state, which each core protects on its own.
type Exchange struct {
	mu          sync.RWMutex
	cores       map[string]*engine.Core
	sinkFactory SinkFactory
}

// New constructs an empty Exchange. If sinkFactory is nil, every core
// is created with the default engine.LogSink, tagged by ticker.
func New(sinkFactory SinkFactory) *Exchange {
	if sinkFactory == nil {
		sinkFactory = func(string) engine.EventSink { return engine.LogSink{} }
	}
	return &Exchange{
		cores:       make(map[string]*engine.Core),
		sinkFactory: sinkFactory,
	}
}

// List creates a core for ticker if one doesn't already exist. ipoPrice
// seeds the value GetPrice reports while the book is empty; ipoQty is
// ignored (it is not stored anywhere) and never synthesizes resting
// interest on the book. Returns the (possibly pre-existing) core.
func (e *Exchange) List(ticker string, ipoPrice, ipoQty float64) *engine.Core {
	e.mu.Lock()
	defer e.mu.Unlock()

	if core, ok := e.cores[ticker]; ok {
		return core
	}
	_ = ipoQty // kept in the signature only; neither stored nor used by any admission path
	core := engine.New(tickerSink{ticker: ticker, inner: e.sinkFactory(ticker)}, ipoPrice)
	e.cores[ticker] = core
	return core
}

func (e *Exchange) core(ticker string) (*engine.Core, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.cores[ticker]
	return c, ok
}

// Shutdown stops every listed core's worker goroutine.
func (e *Exchange) Shutdown() {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, c := range e.cores {
		c.Shutdown()
	}
}

func (e *Exchange) Place(ticker string, side common.Side, typ common.OrderType, qty, price float64, owner string) (uint64, error) {
	c, ok := e.core(ticker)
	if !ok {
		return 0, ErrUnknownTicker
	}
	return c.Place(side, typ, qty, price, owner), nil
}

func (e *Exchange) Cancel(ticker string, id uint64) (bool, error) {
	c, ok := e.core(ticker)
	if !ok {
		return false, ErrUnknownTicker
	}
	return c.Cancel(id), nil
}

func (e *Exchange) Edit(ticker string, id uint64, side common.Side, qty, price float64) (uint64, error) {
	c, ok := e.core(ticker)
	if !ok {
		return 0, ErrUnknownTicker
	}
	return c.Edit(id, side, qty, price), nil
}

func (e *Exchange) GetOrder(ticker string, id uint64) (common.Order, bool, error) {
	c, ok := e.core(ticker)
	if !ok {
		return common.Order{}, false, ErrUnknownTicker
	}
	o, found := c.GetOrder(id)
	return o, found, nil
}

func (e *Exchange) GetOrdersByStatus(ticker string, status common.Status) ([]common.Order, error) {
	c, ok := e.core(ticker)
	if !ok {
		return nil, ErrUnknownTicker
	}
	return c.GetOrdersByStatus(status), nil
}

func (e *Exchange) GetBestBid(ticker string) (float64, error) {
	c, ok := e.core(ticker)
	if !ok {
		return engine.BestPriceSentinel, ErrUnknownTicker
	}
	return c.GetBestBid(), nil
}

func (e *Exchange) GetBestAsk(ticker string) (float64, error) {
	c, ok := e.core(ticker)
	if !ok {
		return engine.BestPriceSentinel, ErrUnknownTicker
	}
	return c.GetBestAsk(), nil
}

func (e *Exchange) GetPrice(ticker string) (float64, error) {
	c, ok := e.core(ticker)
	if !ok {
		return 0, ErrUnknownTicker
	}
	return c.GetPrice(), nil
}

// tickerSink decorates an inner EventSink by tagging every record with
// the ticker of the core that produced it, so a single process-wide
// sink can tell independent instruments' events apart without the core
// itself needing to know its own symbol.
type tickerSink struct {
	ticker string
	inner  engine.EventSink
}

func (s tickerSink) Emit(e engine.Event) {
	e.Ticker = s.ticker
	s.inner.Emit(e)
}

// Ticker returns the symbol this sink tags events with.
func (s tickerSink) Ticker() string { return s.ticker }
