package main

import (
	"context"
	"flag"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"lobex/internal/engine"
	"lobex/internal/exchange"
	"lobex/internal/net"
)

func main() {
	addr := flag.String("addr", "0.0.0.0", "listen address")
	port := flag.Int("port", 9001, "listen port")
	tickers := flag.String("tickers", "AAPL:150", "comma-separated ticker:ipoPrice pairs to list at startup")
	flag.Parse()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	// srv is wired into the exchange's sink factory before it exists so
	// every core's events route back to the connection that placed the
	// order; it is assigned before any order can flow.
	var srv *net.Server
	ex := exchange.New(func(ticker string) engine.EventSink {
		return srv.Sink(ticker)
	})
	srv = net.New(*addr, *port, ex)

	for _, spec := range strings.Split(*tickers, ",") {
		parts := strings.SplitN(spec, ":", 2)
		if len(parts) != 2 {
			log.Error().Str("spec", spec).Msg("skipping malformed ticker spec")
			continue
		}
		ipoPrice, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			log.Error().Str("spec", spec).Err(err).Msg("skipping malformed ipo price")
			continue
		}
		ex.List(parts[0], ipoPrice, 0)
		log.Info().Str("ticker", parts[0]).Float64("ipoPrice", ipoPrice).Msg("listed instrument")
	}

	go srv.Run(ctx)
	<-ctx.Done()
	ex.Shutdown()
}
