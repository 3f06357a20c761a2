package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"lobex/internal/common"
	wireproto "lobex/internal/net"
)

// reportFixedLen matches internal/net.reportFixedLen.
const reportFixedLen = 1 + 1 + 16 + 4 + 8 + 1 + 1 + 8 + 8 + 8 + 2

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "address of the exchange server")
	owner := flag.String("owner", "", "owner username (required for -action place)")
	action := flag.String("action", "place", "action to perform: ['place', 'cancel', 'edit', 'query', 'log']")

	ticker := flag.String("ticker", "AAPL", "ticker symbol (max 4 chars)")
	sideStr := flag.String("side", "buy", "order side: 'buy' or 'sell'")
	typeStr := flag.String("type", "limit", "order type: 'limit' or 'market'")
	price := flag.Float64("price", 100.0, "limit price")
	qtyStr := flag.String("qty", "10", "quantity or comma-separated list (e.g. 10,20,50)")

	orderID := flag.Uint64("id", 0, "order id for cancel/edit/query")

	flag.Parse()

	if *owner == "" && *action == "place" {
		fmt.Println("Error: -owner is required to place an order.")
		flag.Usage()
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("connected to %s as %q\n", *serverAddr, *owner)

	go readReports(conn)

	side := common.Bid
	if strings.ToLower(*sideStr) == "sell" {
		side = common.Ask
	}

	orderType := common.Limit
	if strings.ToLower(*typeStr) == "market" {
		orderType = common.Market
	}

	switch strings.ToLower(*action) {
	case "place":
		for _, q := range parseQuantities(*qtyStr) {
			ref := uuid.New()
			if err := sendNewOrder(conn, ref, *ticker, side, orderType, *price, q, *owner); err != nil {
				log.Printf("failed to place order (qty %.2f): %v", q, err)
				continue
			}
			fmt.Printf("-> sent %s %s %.2f @ %.2f (ref %s)\n", strings.ToUpper(*sideStr), *ticker, q, *price, ref)
			time.Sleep(5 * time.Millisecond)
		}

	case "cancel":
		if *orderID == 0 {
			log.Fatal("Error: -id is required for cancel")
		}
		if err := sendCancelOrder(conn, uuid.New(), *ticker, *orderID); err != nil {
			log.Printf("failed to send cancel request: %v", err)
		} else {
			fmt.Printf("-> sent cancel for order %d\n", *orderID)
		}

	case "edit":
		if *orderID == 0 {
			log.Fatal("Error: -id is required for edit")
		}
		if err := sendEditOrder(conn, uuid.New(), *ticker, *orderID, side, *price, parseQuantities(*qtyStr)[0]); err != nil {
			log.Printf("failed to send edit request: %v", err)
		} else {
			fmt.Printf("-> sent edit for order %d\n", *orderID)
		}

	case "query":
		if *orderID == 0 {
			log.Fatal("Error: -id is required for query")
		}
		if err := sendQuery(conn, uuid.New(), *ticker, *orderID); err != nil {
			log.Printf("failed to send query: %v", err)
		}

	case "log":
		if err := sendLogBook(conn, uuid.New(), *ticker); err != nil {
			log.Printf("failed to send log request: %v", err)
		} else {
			fmt.Println("-> sent log-book request")
		}

	default:
		log.Fatalf("unknown action: %s", *action)
	}

	fmt.Println("\nlistening for reports... (ctrl+c to exit)")
	select {}
}

func parseQuantities(input string) []float64 {
	parts := strings.Split(input, ",")
	var result []float64
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if val, err := strconv.ParseFloat(p, 64); err == nil {
			result = append(result, val)
		} else {
			log.Printf("warning: invalid quantity %q, skipping", p)
		}
	}
	return result
}

func putTicker(buf []byte, ticker string) {
	copy(buf, ticker)
}

func sendNewOrder(conn net.Conn, ref uuid.UUID, ticker string, side common.Side, typ common.OrderType, price float64, qty float64, owner string) error {
	totalLen := wireproto.BaseMessageHeaderLen + wireproto.NewOrderHeaderLen + len(owner)
	buf := make([]byte, totalLen)

	binary.BigEndian.PutUint16(buf[0:2], uint16(wireproto.NewOrder))
	off := 2
	copy(buf[off:off+16], ref[:])
	off += 16
	putTicker(buf[off:off+4], ticker)
	off += 4
	buf[off] = byte(side)
	off++
	buf[off] = byte(typ)
	off++
	binary.BigEndian.PutUint64(buf[off:off+8], math.Float64bits(price))
	off += 8
	binary.BigEndian.PutUint64(buf[off:off+8], math.Float64bits(qty))
	off += 8
	buf[off] = uint8(len(owner))
	off++
	copy(buf[off:], owner)

	_, err := conn.Write(buf)
	return err
}

func sendCancelOrder(conn net.Conn, ref uuid.UUID, ticker string, id uint64) error {
	buf := make([]byte, wireproto.BaseMessageHeaderLen+wireproto.CancelOrderHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(wireproto.CancelOrder))
	off := 2
	copy(buf[off:off+16], ref[:])
	off += 16
	putTicker(buf[off:off+4], ticker)
	off += 4
	binary.BigEndian.PutUint64(buf[off:off+8], id)

	_, err := conn.Write(buf)
	return err
}

func sendEditOrder(conn net.Conn, ref uuid.UUID, ticker string, id uint64, side common.Side, price, qty float64) error {
	buf := make([]byte, wireproto.BaseMessageHeaderLen+wireproto.EditOrderHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(wireproto.EditOrder))
	off := 2
	copy(buf[off:off+16], ref[:])
	off += 16
	putTicker(buf[off:off+4], ticker)
	off += 4
	binary.BigEndian.PutUint64(buf[off:off+8], id)
	off += 8
	buf[off] = byte(side)
	off++
	binary.BigEndian.PutUint64(buf[off:off+8], math.Float64bits(price))
	off += 8
	binary.BigEndian.PutUint64(buf[off:off+8], math.Float64bits(qty))

	_, err := conn.Write(buf)
	return err
}

func sendQuery(conn net.Conn, ref uuid.UUID, ticker string, id uint64) error {
	buf := make([]byte, wireproto.BaseMessageHeaderLen+wireproto.QueryHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(wireproto.Query))
	off := 2
	copy(buf[off:off+16], ref[:])
	off += 16
	putTicker(buf[off:off+4], ticker)
	off += 4
	binary.BigEndian.PutUint64(buf[off:off+8], id)

	_, err := conn.Write(buf)
	return err
}

func sendLogBook(conn net.Conn, ref uuid.UUID, ticker string) error {
	buf := make([]byte, wireproto.BaseMessageHeaderLen+wireproto.LogBookHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(wireproto.LogBook))
	off := 2
	copy(buf[off:off+16], ref[:])
	off += 16
	putTicker(buf[off:off+4], ticker)

	_, err := conn.Write(buf)
	return err
}

// readReports continuously reads and prints Report messages from the
// server until the connection closes.
func readReports(conn net.Conn) {
	for {
		headerBuf := make([]byte, reportFixedLen)
		if _, err := io.ReadFull(conn, headerBuf); err != nil {
			if err != io.EOF {
				log.Printf("connection lost: %v", err)
			}
			os.Exit(0)
		}

		msgType := wireproto.ReportMessageType(headerBuf[0])
		kind := headerBuf[1]
		off := 2 + 16
		ticker := strings.TrimRight(string(headerBuf[off:off+4]), "\x00")
		off += 4
		orderID := binary.BigEndian.Uint64(headerBuf[off : off+8])
		off += 8
		side := common.Side(headerBuf[off])
		off++
		off++ // order type, unused for display
		qty := math.Float64frombits(binary.BigEndian.Uint64(headerBuf[off : off+8]))
		off += 8
		price := math.Float64frombits(binary.BigEndian.Uint64(headerBuf[off : off+8]))
		off += 8
		off += 8 // timestamp, unused for display
		errStrLen := binary.BigEndian.Uint16(headerBuf[off : off+2])

		var errStr string
		if errStrLen > 0 {
			errBuf := make([]byte, errStrLen)
			if _, err := io.ReadFull(conn, errBuf); err != nil {
				log.Printf("error reading report body: %v", err)
				return
			}
			errStr = string(errBuf)
		}

		if msgType == wireproto.ErrorReport {
			fmt.Printf("\n[ERROR] %s: %s\n", ticker, errStr)
			continue
		}

		sideStr := "BID"
		if side == common.Ask {
			sideStr = "ASK"
		}
		fmt.Printf("\n[REPORT] %s order=%d %s qty=%.2f price=%.2f kind=%d\n",
			ticker, orderID, sideStr, qty, price, kind)
	}
}
