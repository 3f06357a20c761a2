package net

import (
	"encoding/binary"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"lobex/internal/common"
	"lobex/internal/engine"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short for specified body")
)

type MessageType int

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	EditOrder
	Query
	LogBook
)

type ReportMessageType int

const (
	ExecutionReport ReportMessageType = iota
	ErrorReport
)

type Message interface {
	GetType() MessageType
}

// Message format constants. Every message starts with a 2-byte type
// tag (stripped before the parse* helpers run), then a client-chosen
// correlation token, then a 4-byte ticker, then a type-specific body.
const (
	BaseMessageHeaderLen = 2
	clientRefLen         = 16
	tickerLen            = 4
	NewOrderHeaderLen    = clientRefLen + tickerLen + 1 + 1 + 8 + 8 + 1
	CancelOrderHeaderLen = clientRefLen + tickerLen + 8
	EditOrderHeaderLen   = clientRefLen + tickerLen + 8 + 1 + 8 + 8
	QueryHeaderLen       = clientRefLen + tickerLen + 8
	LogBookHeaderLen     = clientRefLen + tickerLen
)

// BaseMessage is embedded by every concrete message so GetType can be
// implemented once.
type BaseMessage struct {
	TypeOf MessageType
}

func (m BaseMessage) GetType() MessageType {
	return m.TypeOf
}

func parseMessage(msg []byte) (Message, error) {
	if len(msg) < BaseMessageHeaderLen {
		return BaseMessage{}, ErrMessageTooShort
	}

	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	msg = msg[2:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(msg)
	case CancelOrder:
		return parseCancelOrder(msg)
	case EditOrder:
		return parseEditOrder(msg)
	case Query:
		return parseQuery(msg)
	case LogBook:
		return parseLogBook(msg)
	default:
		return BaseMessage{}, ErrInvalidMessageType
	}
}

func readClientRef(msg []byte) uuid.UUID {
	var ref uuid.UUID
	copy(ref[:], msg[0:clientRefLen])
	return ref
}

// NewOrderMessage requests a new resting or marketable order on Ticker.
type NewOrderMessage struct {
	BaseMessage
	ClientRef   uuid.UUID
	Ticker      string
	Side        common.Side
	OrderType   common.OrderType
	Price       float64
	Qty         float64
	UsernameLen uint8
	Username    string
}

func parseNewOrder(msg []byte) (NewOrderMessage, error) {
	if len(msg) < NewOrderHeaderLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}

	m := NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}
	m.ClientRef = readClientRef(msg)
	off := clientRefLen
	m.Ticker = string(msg[off : off+tickerLen])
	off += tickerLen
	m.Side = common.Side(msg[off])
	off++
	m.OrderType = common.OrderType(msg[off])
	off++
	m.Price = math.Float64frombits(binary.BigEndian.Uint64(msg[off : off+8]))
	off += 8
	m.Qty = math.Float64frombits(binary.BigEndian.Uint64(msg[off : off+8]))
	off += 8
	m.UsernameLen = msg[off]
	off++

	if len(msg) < off+int(m.UsernameLen) {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	m.Username = string(msg[off : off+int(m.UsernameLen)])

	return m, nil
}

// CancelOrderMessage requests that OrderID on Ticker stop resting.
type CancelOrderMessage struct {
	BaseMessage
	ClientRef uuid.UUID
	Ticker    string
	OrderID   uint64
}

func parseCancelOrder(msg []byte) (CancelOrderMessage, error) {
	if len(msg) < CancelOrderHeaderLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}

	m := CancelOrderMessage{BaseMessage: BaseMessage{TypeOf: CancelOrder}}
	m.ClientRef = readClientRef(msg)
	off := clientRefLen
	m.Ticker = string(msg[off : off+tickerLen])
	off += tickerLen
	m.OrderID = binary.BigEndian.Uint64(msg[off : off+8])

	return m, nil
}

// EditOrderMessage requests OrderID be replaced with a new side/qty/price,
// per the cancel-then-place semantics of engine.Core.Edit.
type EditOrderMessage struct {
	BaseMessage
	ClientRef uuid.UUID
	Ticker    string
	OrderID   uint64
	Side      common.Side
	Price     float64
	Qty       float64
}

func parseEditOrder(msg []byte) (EditOrderMessage, error) {
	if len(msg) < EditOrderHeaderLen {
		return EditOrderMessage{}, ErrMessageTooShort
	}

	m := EditOrderMessage{BaseMessage: BaseMessage{TypeOf: EditOrder}}
	m.ClientRef = readClientRef(msg)
	off := clientRefLen
	m.Ticker = string(msg[off : off+tickerLen])
	off += tickerLen
	m.OrderID = binary.BigEndian.Uint64(msg[off : off+8])
	off += 8
	m.Side = common.Side(msg[off])
	off++
	m.Price = math.Float64frombits(binary.BigEndian.Uint64(msg[off : off+8]))
	off += 8
	m.Qty = math.Float64frombits(binary.BigEndian.Uint64(msg[off : off+8]))

	return m, nil
}

// QueryMessage asks for the current state of a single order.
type QueryMessage struct {
	BaseMessage
	ClientRef uuid.UUID
	Ticker    string
	OrderID   uint64
}

func parseQuery(msg []byte) (QueryMessage, error) {
	if len(msg) < QueryHeaderLen {
		return QueryMessage{}, ErrMessageTooShort
	}

	m := QueryMessage{BaseMessage: BaseMessage{TypeOf: Query}}
	m.ClientRef = readClientRef(msg)
	off := clientRefLen
	m.Ticker = string(msg[off : off+tickerLen])
	off += tickerLen
	m.OrderID = binary.BigEndian.Uint64(msg[off : off+8])

	return m, nil
}

// LogBookMessage is a log-book request for Ticker. The server only logs
// that the request arrived, with its ticker; the book's contents are not
// dumped and nothing is sent back to the client.
type LogBookMessage struct {
	BaseMessage
	ClientRef uuid.UUID
	Ticker    string
}

func parseLogBook(msg []byte) (LogBookMessage, error) {
	if len(msg) < LogBookHeaderLen {
		return LogBookMessage{}, ErrMessageTooShort
	}

	m := LogBookMessage{BaseMessage: BaseMessage{TypeOf: LogBook}}
	m.ClientRef = readClientRef(msg)
	off := clientRefLen
	m.Ticker = string(msg[off : off+tickerLen])

	return m, nil
}

// Report is sent back to the connection that originated a request. Kind
// mirrors engine.EventKind for execution reports; ErrorReport carries a
// rejection or transport-level failure instead.
type Report struct {
	MessageType ReportMessageType
	Kind        engine.EventKind
	ClientRef   uuid.UUID
	Ticker      string
	OrderID     uint64
	Side        common.Side
	Type        common.OrderType
	Qty         float64
	Price       float64
	Timestamp   time.Time
	Err         string
}

const reportFixedLen = 1 + 1 + clientRefLen + tickerLen + 8 + 1 + 1 + 8 + 8 + 8 + 2

// Serialize converts the report to wire bytes: fixed header followed by
// the variable-length error string, if any.
func (r *Report) Serialize() ([]byte, error) {
	errBytes := []byte(r.Err)
	buf := make([]byte, reportFixedLen+len(errBytes))

	buf[0] = byte(r.MessageType)
	buf[1] = byte(r.Kind)
	copy(buf[2:2+clientRefLen], r.ClientRef[:])
	off := 2 + clientRefLen

	var ticker [tickerLen]byte
	copy(ticker[:], r.Ticker)
	copy(buf[off:off+tickerLen], ticker[:])
	off += tickerLen

	binary.BigEndian.PutUint64(buf[off:off+8], r.OrderID)
	off += 8
	buf[off] = byte(r.Side)
	off++
	buf[off] = byte(r.Type)
	off++
	binary.BigEndian.PutUint64(buf[off:off+8], math.Float64bits(r.Qty))
	off += 8
	binary.BigEndian.PutUint64(buf[off:off+8], math.Float64bits(r.Price))
	off += 8
	binary.BigEndian.PutUint64(buf[off:off+8], uint64(r.Timestamp.UnixNano()))
	off += 8
	binary.BigEndian.PutUint16(buf[off:off+2], uint16(len(errBytes)))
	off += 2

	copy(buf[off:], errBytes)
	return buf, nil
}

// reportFromEvent builds the execution report for a single engine.Event,
// tagged with the ClientRef of the request that produced it.
func reportFromEvent(ref uuid.UUID, e engine.Event) Report {
	return Report{
		MessageType: ExecutionReport,
		Kind:        e.Kind,
		ClientRef:   ref,
		Ticker:      e.Ticker,
		OrderID:     e.OrderID,
		Side:        e.Side,
		Type:        e.Type,
		Qty:         e.Qty,
		Price:       e.Price,
		Timestamp:   e.Timestamp,
	}
}

func errorReport(ref uuid.UUID, ticker string, err error) Report {
	return Report{
		MessageType: ErrorReport,
		ClientRef:   ref,
		Ticker:      ticker,
		Timestamp:   time.Now(),
		Err:         err.Error(),
	}
}
