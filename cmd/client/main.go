/*
Package main runs the exchange client core as a console application.

It wires the composition root: the store dispatcher (the single consumer
applying events in order), the REST client for snapshot fetches, and the
push-session manager feeding decoded frames into the store. The watched
market's ticker, trades, and the portfolio's estimated KRW value are logged
as the state evolves.

Usage:

	go run main.go -api=https://exchange.test/api -ws=ws://exchange.test:8517/subscribe/ -pair=BTC/KRW

The client keeps the push session alive, reconnecting on abnormal closures,
until interrupted.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hanc1208/iu-exchange-frontend/internal/api"
	"github.com/hanc1208/iu-exchange-frontend/internal/model"
	"github.com/hanc1208/iu-exchange-frontend/internal/numeric"
	"github.com/hanc1208/iu-exchange-frontend/internal/store"
	"github.com/hanc1208/iu-exchange-frontend/internal/transport"
	"github.com/hanc1208/iu-exchange-frontend/internal/valuation"
)

// Command-line flags for configuring the client
var (
	// apiURL is the base URL of the exchange's REST API
	apiURL = flag.String("api", "http://localhost:8080/api", "Base URL of the exchange REST API")
	// wsURL is the push channel endpoint
	wsURL = flag.String("ws", "ws://localhost:8517/subscribe/", "URL of the push websocket")
	// pair is the market to watch
	pair = flag.String("pair", "BTC/KRW", "Market pair to subscribe to")
	// unit is the candle bucket width in minutes
	unit = flag.Int("unit", 1, "Candle bucket width in minutes")
)

func main() {
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := validateConfig(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	dispatcher := store.NewDispatcher()
	if err := dispatcher.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start store dispatcher")
	}

	session := transport.NewManager(*wsURL, dispatcher.Dispatch)
	defer session.Close()

	commands := store.NewCommands(api.NewClient(*apiURL), dispatcher, session)

	if err := commands.FetchCurrencies(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to fetch currencies")
	}
	if err := commands.FetchMe(ctx); err != nil {
		// Not being logged in is the normal anonymous case.
		log.Info().Err(err).Msg("no authenticated session")
	}
	// The candle unit must be in place before the first subscription so the
	// initial candle fetch uses the requested bucket width.
	dispatcher.Dispatch(store.SetCandleUnit{UnitType: model.MinutesUnit, Unit: *unit})

	// Record the watched pair before the session opens; the update watcher
	// issues the actual subscribe frame on every nil-to-non-nil session
	// transition, which covers both the initial connect and reconnects.
	if err := commands.SubscribeMarket(ctx, *pair); err != nil {
		log.Warn().Err(err).Msg("initial market subscription incomplete")
	}

	go watchUpdates(ctx, dispatcher, commands)

	if err := session.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to open push session")
	}

	<-ctx.Done()
}

// watchUpdates consumes the store's update feed: it re-subscribes whenever
// the session reference transitions from nil to non-nil and logs the
// evolving market view.
func watchUpdates(ctx context.Context, dispatcher *store.Dispatcher, commands *store.Commands) {
	var lastSession store.Session
	var lastPrice decimal.Decimal

	for {
		select {
		case <-ctx.Done():
			return
		case state := <-dispatcher.Updates():
			if lastSession == nil && state.Session != nil {
				if err := commands.Resubscribe(ctx); err != nil {
					log.Warn().Err(err).Msg("re-subscription failed")
				}
			}
			lastSession = state.Session

			logMarketView(state, &lastPrice)
		}
	}
}

// logMarketView logs the ticker and portfolio value when the watched
// market's price moves.
func logMarketView(state store.State, lastPrice *decimal.Decimal) {
	market, ok := state.Markets[state.MarketPair]
	if !ok || market.CurrentPrice.Equal(*lastPrice) {
		return
	}
	*lastPrice = market.CurrentPrice

	price, err := numeric.FormatPrice(market, market.CurrentPrice)
	if err != nil {
		log.Error().Err(err).Str("pair", state.MarketPair).Msg("market has no valid quotation")
		return
	}

	total := decimal.Zero
	for _, balance := range state.Balances {
		total = total.Add(valuation.Estimate(balance, state.Markets, "KRW"))
	}

	log.Info().
		Str("pair", state.MarketPair).
		Str("price", price).
		Str("portfolioKRW", numeric.FormatNumber(total, 0, numeric.FormatOptions{Currency: "KRW"})).
		Int("trades", len(state.Trades)).
		Int("candles", len(state.Candles)).
		Msg("market update")
}

// validateConfig checks the command-line configuration before startup.
func validateConfig() error {
	if *apiURL == "" {
		return fmt.Errorf("api URL cannot be empty")
	}
	if *wsURL == "" {
		return fmt.Errorf("websocket URL cannot be empty")
	}
	if _, _, err := model.SplitPair(*pair); err != nil {
		return err
	}
	if *unit <= 0 {
		return fmt.Errorf("unit must be greater than 0")
	}
	return nil
}
