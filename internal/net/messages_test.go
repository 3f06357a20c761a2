package net

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobex/internal/common"
)

func encodeNewOrder(ref uuid.UUID, ticker string, side common.Side, typ common.OrderType, price, qty float64, username string) []byte {
	buf := make([]byte, BaseMessageHeaderLen+NewOrderHeaderLen+len(username))
	binary.BigEndian.PutUint16(buf[0:2], uint16(NewOrder))
	off := 2
	copy(buf[off:off+clientRefLen], ref[:])
	off += clientRefLen
	copy(buf[off:off+tickerLen], ticker)
	off += tickerLen
	buf[off] = byte(side)
	off++
	buf[off] = byte(typ)
	off++
	binary.BigEndian.PutUint64(buf[off:off+8], math.Float64bits(price))
	off += 8
	binary.BigEndian.PutUint64(buf[off:off+8], math.Float64bits(qty))
	off += 8
	buf[off] = uint8(len(username))
	off++
	copy(buf[off:], username)
	return buf
}

func TestParseNewOrderRoundTrips(t *testing.T) {
	ref := uuid.New()
	wire := encodeNewOrder(ref, "AAPL", common.Bid, common.Limit, 101.5, 10, "alice")

	msg, err := parseMessage(wire)
	require.NoError(t, err)

	order, ok := msg.(NewOrderMessage)
	require.True(t, ok)
	assert.Equal(t, ref, order.ClientRef)
	assert.Equal(t, "AAPL", order.Ticker)
	assert.Equal(t, common.Bid, order.Side)
	assert.Equal(t, common.Limit, order.OrderType)
	assert.Equal(t, 101.5, order.Price)
	assert.Equal(t, 10.0, order.Qty)
	assert.Equal(t, "alice", order.Username)
}

func TestParseNewOrderRejectsTruncatedUsername(t *testing.T) {
	ref := uuid.New()
	wire := encodeNewOrder(ref, "AAPL", common.Bid, common.Limit, 100, 1, "alice")
	truncated := wire[:len(wire)-2]

	_, err := parseMessage(truncated)
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestParseCancelOrderRoundTrips(t *testing.T) {
	ref := uuid.New()
	buf := make([]byte, BaseMessageHeaderLen+CancelOrderHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(CancelOrder))
	copy(buf[2:2+clientRefLen], ref[:])
	copy(buf[2+clientRefLen:2+clientRefLen+tickerLen], "MSFT")
	binary.BigEndian.PutUint64(buf[2+clientRefLen+tickerLen:], 42)

	msg, err := parseMessage(buf)
	require.NoError(t, err)

	cancel, ok := msg.(CancelOrderMessage)
	require.True(t, ok)
	assert.Equal(t, ref, cancel.ClientRef)
	assert.Equal(t, "MSFT", cancel.Ticker)
	assert.Equal(t, uint64(42), cancel.OrderID)
}

func TestParseMessageRejectsUnknownType(t *testing.T) {
	buf := make([]byte, BaseMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], 999)

	_, err := parseMessage(buf)
	assert.ErrorIs(t, err, ErrInvalidMessageType)
}

func TestReportSerializeRoundTripsFixedFields(t *testing.T) {
	ref := uuid.New()
	r := Report{
		MessageType: ExecutionReport,
		ClientRef:   ref,
		Ticker:      "AAPL",
		OrderID:     7,
		Side:        common.Ask,
		Qty:         5,
		Price:       101,
		Err:         "",
	}
	wire, err := r.Serialize()
	require.NoError(t, err)
	assert.Equal(t, reportFixedLen, len(wire))
	assert.Equal(t, byte(ExecutionReport), wire[0])
	assert.Equal(t, ref[:], wire[2:2+clientRefLen])
	assert.Equal(t, "AAPL", string(wire[2+clientRefLen:2+clientRefLen+tickerLen]))
	off := 2 + clientRefLen + tickerLen
	assert.Equal(t, uint64(7), binary.BigEndian.Uint64(wire[off:off+8]))
	assert.Equal(t, byte(common.Ask), wire[off+8])
	assert.Equal(t, 5.0, math.Float64frombits(binary.BigEndian.Uint64(wire[off+10:off+18])))
	assert.Equal(t, 101.0, math.Float64frombits(binary.BigEndian.Uint64(wire[off+18:off+26])))
}

func TestReportSerializeAppendsErrorText(t *testing.T) {
	r := errorReport(uuid.New(), "AAPL", assertNewErr("rejected"))
	wire, err := r.Serialize()
	require.NoError(t, err)
	assert.Equal(t, reportFixedLen+len("rejected"), len(wire))
}

type stringErr string

func (e stringErr) Error() string { return string(e) }

func assertNewErr(s string) error { return stringErr(s) }
