package main

import (
	"flag"
	"time"

	"github.com/rs/zerolog/log"

	"lobex/internal/engine"
	"lobex/internal/harness"
)

func main() {
	seed := flag.Int64("seed", 1, "rng seed")
	basePrice := flag.Float64("price", 100, "starting reference price")
	steps := flag.Int("steps", 5000, "number of generated actions to apply")
	rate := flag.Duration("interval", 0, "pause between actions, e.g. 1ms (0 runs flat out)")
	flag.Parse()

	core := engine.New(nil, *basePrice)
	defer core.Shutdown()

	gen := harness.NewGenerator(*seed, *basePrice)
	driver := harness.NewDriver(gen, core)

	log.Info().
		Int64("seed", *seed).
		Float64("basePrice", *basePrice).
		Int("steps", *steps).
		Dur("interval", *rate).
		Msg("starting simulation")

	start := time.Now()
	driver.Run(*steps, *rate)

	log.Info().
		Dur("elapsed", time.Since(start)).
		Float64("bestBid", core.GetBestBid()).
		Float64("bestAsk", core.GetBestAsk()).
		Float64("midPrice", core.GetPrice()).
		Msg("simulation finished")
}
