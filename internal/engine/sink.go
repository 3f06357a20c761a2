package engine

import (
	"time"

	"github.com/rs/zerolog/log"

	"lobex/internal/common"
)

// EventKind tags what happened to an order.
type EventKind int

const (
	EventOpen EventKind = iota
	EventPartialFill
	EventFill
	EventCancel
	EventReject
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "OPEN"
	case EventPartialFill:
		return "PARTIAL_FILL"
	case EventFill:
		return "FILL"
	case EventCancel:
		return "CANCEL"
	case EventReject:
		return "REJECT"
	default:
		return "UNKNOWN"
	}
}

// Event is one record of the core's execution stream. It carries the
// order's own perspective: Price is the order's working price (the
// maker's resting price, or the taker's possibly-clamped intake
// price), never some third "trade price".
type Event struct {
	Kind      EventKind
	OrderID   uint64
	Side      common.Side
	Type      common.OrderType
	Qty       float64
	Price     float64
	Timestamp time.Time

	// Ticker is left blank by Core — it has no notion of its own
	// symbol — and is filled in by exchange.Exchange's decorating
	// sink before the event reaches an outer consumer.
	Ticker string
}

// EventSink consumes the core's execution stream, delivered in
// production order while the core's lock is held. Implementations must
// not block and must never call back into the core that is emitting to
// them.
type EventSink interface {
	Emit(Event)
}

// LogSink is the default sink: a structured, non-blocking zerolog write
// per event, in the style of the teacher's own server/engine logging.
type LogSink struct{}

func (LogSink) Emit(e Event) {
	log.Info().
		Str("kind", e.Kind.String()).
		Str("ticker", e.Ticker).
		Uint64("orderID", e.OrderID).
		Str("side", e.Side.String()).
		Str("type", e.Type.String()).
		Float64("qty", e.Qty).
		Float64("price", e.Price).
		Time("timestamp", e.Timestamp).
		Msg("engine event")
}
