// Package store holds the canonical client-side view of the exchange:
// currencies, markets, balances, the visible order book, recent trades, and
// candles.
//
// All mutation flows through a single pure transition function, Apply, driven
// by a tagged-union event type with one variant per transition. The
// Dispatcher owns the state and applies events strictly in arrival order on
// one goroutine (the actor pattern), so no two applications ever interleave.
// Network side effects live exclusively in the Commands layer, which fetches
// asynchronously and resolves by dispatching an event.
package store

import "github.com/hanc1208/iu-exchange-frontend/internal/model"

// tradeRingSize bounds the trade list kept for display. Oldest entries are
// evicted first; the ring is not the source of truth for historical charting.
const tradeRingSize = 14

// Session is the live push-session handle kept in state. The transport's
// session manager implements it; the store only ever stores and exposes the
// reference, it never invokes it inside Apply.
type Session interface {
	// SubscribeMarket sends a market subscription frame over the session.
	SubscribeMarket(pair string) error
}

// State is the canonical snapshot of everything the client knows.
//
// Currencies, Markets, and Balances are populated once at startup and kept
// warm for the process lifetime. Orders, Trades, and Candles are scoped to
// the watched market pair and reset whenever the pair changes.
type State struct {
	Currencies model.CurrencyMap      // All listed currencies, replaced wholesale
	Markets    model.MarketMap        // All markets keyed by pair
	Balances   model.BalanceMap       // The user's balances keyed by currency
	Orders     []model.OrderBookLevel // Current full order-book snapshot
	Trades     []model.Trade          // Most recent trades, bounded ring
	UnitType   model.CandleUnitType   // Active candle bucket unit type
	Unit       int                    // Active candle bucket width in units
	Candles    []model.Candle         // Candles for the watched pair, newest-first
	Me         *model.User            // Authenticated user, nil when logged out
	MarketPair string                 // Currently watched market pair
	Generation uint64                 // Bumped on every pair switch; stale fetches are discarded
	Session    Session                // Live push session, nil while disconnected
}

// DefaultState returns the initial state: empty collections and one-minute
// candle buckets.
func DefaultState() State {
	return State{
		Currencies: model.CurrencyMap{},
		Markets:    model.MarketMap{},
		Balances:   model.BalanceMap{},
		UnitType:   model.MinutesUnit,
		Unit:       1,
	}
}
