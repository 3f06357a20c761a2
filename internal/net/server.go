package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"lobex/internal/common"
	"lobex/internal/engine"
	"lobex/internal/utils"
)

const (
	MaxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = time.Second
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// ClientSession is a connected TCP session, keyed in clientSessions by
// the connection's remote address.
type ClientSession struct {
	conn net.Conn
}

// ClientMessage links a parsed message to the session address it
// arrived on.
type ClientMessage struct {
	clientAddress string
	message       Message
}

// orderOwner records which client session owns an order, so the sink
// attached to each core's ticker can route an execution report back to
// the connection that placed it.
type orderOwner struct {
	clientAddress string
	ref           uuid.UUID
}

// Engine is the subset of *exchange.Exchange the server depends on.
// Declared as an interface so the transport layer can be tested against
// a fake without spinning up real matching cores.
type Engine interface {
	Place(ticker string, side common.Side, typ common.OrderType, qty, price float64, owner string) (uint64, error)
	Cancel(ticker string, id uint64) (bool, error)
	Edit(ticker string, id uint64, side common.Side, qty, price float64) (uint64, error)
	GetOrder(ticker string, id uint64) (common.Order, bool, error)
}

type Server struct {
	address string
	port    int
	engine  Engine
	pool    utils.WorkerPool

	cancel context.CancelFunc

	clientSessions     map[string]ClientSession
	clientSessionsLock sync.Mutex

	orderOwners     map[string]orderOwner
	orderOwnersLock sync.Mutex

	clientMessages chan ClientMessage
}

func New(address string, port int, eng Engine) *Server {
	return &Server{
		address:        address,
		port:           port,
		engine:         eng,
		pool:           utils.NewWorkerPool(defaultNWorkers),
		clientSessions: make(map[string]ClientSession),
		orderOwners:    make(map[string]orderOwner),
		clientMessages: make(chan ClientMessage, 1),
	}
}

// Sink returns an engine.EventSink that routes execution reports for
// ticker back to whichever connection owns the originating order.
func (s *Server) Sink(ticker string) engine.EventSink {
	return serverSink{server: s, ticker: ticker}
}

type serverSink struct {
	server *Server
	ticker string
}

func (sk serverSink) Emit(e engine.Event) {
	sk.server.routeReport(sk.ticker, e)
}

func ownerKey(ticker string, orderID uint64) string {
	return fmt.Sprintf("%s:%d", ticker, orderID)
}

func (s *Server) trackOwner(ticker string, orderID uint64, clientAddress string, ref uuid.UUID) {
	s.orderOwnersLock.Lock()
	defer s.orderOwnersLock.Unlock()
	s.orderOwners[ownerKey(ticker, orderID)] = orderOwner{clientAddress: clientAddress, ref: ref}
}

func (s *Server) routeReport(ticker string, e engine.Event) {
	s.orderOwnersLock.Lock()
	owner, ok := s.orderOwners[ownerKey(ticker, e.OrderID)]
	s.orderOwnersLock.Unlock()
	if !ok {
		return
	}

	report := reportFromEvent(owner.ref, e)
	if err := s.writeReport(owner.clientAddress, &report); err != nil {
		log.Error().Err(err).Str("clientAddress", owner.clientAddress).Msg("unable to deliver execution report")
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	s.cancel()
}

func (s *Server) Run(ctx context.Context) {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})

	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Msg("server running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("error accepting client")
				continue
			}

			log.Info().Str("address", conn.RemoteAddr().String()).Msg("new client connected")
			s.addClientSession(conn)
			s.pool.AddTask(conn)
		}
	}
}

func (s *Server) writeReport(clientAddress string, report *Report) error {
	s.clientSessionsLock.Lock()
	client, ok := s.clientSessions[clientAddress]
	s.clientSessionsLock.Unlock()
	if !ok {
		return ErrClientDoesNotExist
	}

	wire, err := report.Serialize()
	if err != nil {
		return err
	}
	if _, err := client.conn.Write(wire); err != nil {
		s.deleteClientSession(clientAddress)
		return fmt.Errorf("unable to send report: %w", err)
	}
	return nil
}

func (s *Server) reportError(clientAddress, ticker string, ref uuid.UUID, err error) {
	report := errorReport(ref, ticker, err)
	if werr := s.writeReport(clientAddress, &report); werr != nil {
		log.Error().Err(werr).Str("clientAddress", clientAddress).Msg("unable to deliver error report")
	}
}

// sessionHandler drains parsed messages handed off by the worker pool
// and applies them to the engine. Kept single-threaded so ordering of
// a given connection's requests is preserved.
func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case message := <-s.clientMessages:
			if err := s.handleMessage(message); err != nil {
				log.Error().Err(err).Str("clientAddress", message.clientAddress).Msg("error handling message")
			}
		}
	}
}

func (s *Server) handleMessage(message ClientMessage) error {
	switch m := message.message.(type) {
	case NewOrderMessage:
		id, err := s.engine.Place(m.Ticker, m.Side, m.OrderType, m.Qty, m.Price, m.Username)
		if err != nil {
			s.reportError(message.clientAddress, m.Ticker, m.ClientRef, err)
			return err
		}
		if id == 0 {
			s.reportError(message.clientAddress, m.Ticker, m.ClientRef, errors.New("order rejected"))
			return nil
		}
		s.trackOwner(m.Ticker, id, message.clientAddress, m.ClientRef)
	case CancelOrderMessage:
		ok, err := s.engine.Cancel(m.Ticker, m.OrderID)
		if err != nil {
			s.reportError(message.clientAddress, m.Ticker, m.ClientRef, err)
			return err
		}
		if !ok {
			s.reportError(message.clientAddress, m.Ticker, m.ClientRef, errors.New("cancel rejected"))
		}
	case EditOrderMessage:
		newID, err := s.engine.Edit(m.Ticker, m.OrderID, m.Side, m.Qty, m.Price)
		if err != nil {
			s.reportError(message.clientAddress, m.Ticker, m.ClientRef, err)
			return err
		}
		if newID == 0 {
			s.reportError(message.clientAddress, m.Ticker, m.ClientRef, errors.New("edit rejected"))
			return nil
		}
		s.trackOwner(m.Ticker, newID, message.clientAddress, m.ClientRef)
	case QueryMessage:
		order, found, err := s.engine.GetOrder(m.Ticker, m.OrderID)
		if err != nil {
			s.reportError(message.clientAddress, m.Ticker, m.ClientRef, err)
			return err
		}
		if !found {
			s.reportError(message.clientAddress, m.Ticker, m.ClientRef, errors.New("unknown order"))
			return nil
		}
		report := Report{
			MessageType: ExecutionReport,
			ClientRef:   m.ClientRef,
			Ticker:      m.Ticker,
			OrderID:     order.ID,
			Side:        order.Side,
			Type:        order.Type,
			Qty:         order.RemainingQty,
			Price:       order.WorkingPrice,
			Timestamp:   order.ArrivalTime,
		}
		if werr := s.writeReport(message.clientAddress, &report); werr != nil {
			log.Error().Err(werr).Msg("unable to deliver query report")
		}
	case LogBookMessage:
		log.Info().Str("ticker", m.Ticker).Msg("log book requested")
	case BaseMessage:
		if m.TypeOf != Heartbeat {
			return ErrInvalidMessageType
		}
	default:
		return ErrInvalidMessageType
	}
	return nil
}

// handleConnection reads the next message off conn, parses it, and
// hands it to sessionHandler. It re-queues itself so the pool keeps
// servicing the same long-lived connection.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("failed setting deadline")
		conn.Close()
		s.deleteClientSession(conn.RemoteAddr().String())
		return nil
	}

	select {
	case <-t.Dying():
		return nil
	default:
		buffer := make([]byte, MaxRecvSize)
		n, err := conn.Read(buffer)
		if err != nil {
			log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("connection closed")
			conn.Close()
			s.deleteClientSession(conn.RemoteAddr().String())
			return nil
		}

		message, err := parseMessage(buffer[:n])
		if err != nil {
			log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("error parsing message")
			s.pool.AddTask(conn)
			return nil
		}

		s.clientMessages <- ClientMessage{
			message:       message,
			clientAddress: conn.RemoteAddr().String(),
		}

		s.pool.AddTask(conn)
	}
	return nil
}

func (s *Server) addClientSession(conn net.Conn) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()
	s.clientSessions[conn.RemoteAddr().String()] = ClientSession{conn: conn}
}

func (s *Server) deleteClientSession(address string) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()
	delete(s.clientSessions, address)
}
