package store

import (
	"github.com/shopspring/decimal"

	"github.com/hanc1208/iu-exchange-frontend/internal/model"
)

// Event is the tagged union of all state transitions. Exactly one variant
// exists per transition rule; the transport decodes push frames into these
// variants at its boundary and the command layer synthesizes the snapshot
// variants after fetches.
type Event interface {
	isEvent()
}

// SetCurrencies replaces the currency map wholesale after a snapshot fetch.
type SetCurrencies struct {
	Currencies model.CurrencyMap
}

// SetBalances replaces the balance map wholesale.
type SetBalances struct {
	Balances model.BalanceMap
}

// UpdateBalances shallow-merges per-currency entries into the existing
// balance map. Produced by push frames; untouched currencies keep their
// previous balance.
type UpdateBalances struct {
	Balances model.BalanceMap
}

// SetMarkets replaces the market map wholesale after a snapshot fetch.
type SetMarkets struct {
	Markets model.MarketMap
}

// MergeMarkets replaces individual market entries that arrived with full
// economics (fees, minimums, volume) on the push channel.
type MergeMarkets struct {
	Markets model.MarketMap
}

// UpdateMarketPrices overwrites only CurrentPrice of existing markets.
// Produced by lightweight ticker pushes that share the market channel with
// full payloads; prices for unknown pairs are ignored.
type UpdateMarketPrices struct {
	Prices map[string]decimal.Decimal
}

// SetOrderBook replaces the full order-book level list for both sides.
// Each push is authoritative for the level set it carries; no diffing.
type SetOrderBook struct {
	Levels []model.OrderBookLevel
}

// SetTrades replaces the trade ring wholesale.
type SetTrades struct {
	Trades []model.Trade
}

// PushTrades appends incoming trades, folds each into the active candle
// list, and truncates the trade ring to its bound.
type PushTrades struct {
	Trades []model.Trade
}

// SetCandleUnit changes the active candle bucket (unitType, unit) pair.
type SetCandleUnit struct {
	UnitType model.CandleUnitType
	Unit     int
}

// SetCandles installs a fetched candle snapshot. With Merge set (pagination
// fetches), the snapshot is merged into the existing list and re-sorted
// descending by bucket start instead of replacing it. Generation carries the
// store generation observed when the fetch was issued; a snapshot from a
// previous generation is discarded.
type SetCandles struct {
	Candles    []model.Candle
	Merge      bool
	Generation uint64
}

// SetMarketPair switches the watched market pair, resetting all pair-scoped
// collections and bumping the generation counter.
type SetMarketPair struct {
	Pair string
}

// SessionOpened records the freshly opened push session.
type SessionOpened struct {
	Session Session
}

// SessionClosed clears the live-session reference.
type SessionClosed struct{}

// SetMe records the authenticated user, or nil on logout.
type SetMe struct {
	Me *model.User
}

func (SetCurrencies) isEvent()      {}
func (SetBalances) isEvent()        {}
func (UpdateBalances) isEvent()     {}
func (SetMarkets) isEvent()         {}
func (MergeMarkets) isEvent()       {}
func (UpdateMarketPrices) isEvent() {}
func (SetOrderBook) isEvent()       {}
func (SetTrades) isEvent()          {}
func (PushTrades) isEvent()         {}
func (SetCandleUnit) isEvent()      {}
func (SetCandles) isEvent()         {}
func (SetMarketPair) isEvent()      {}
func (SessionOpened) isEvent()      {}
func (SessionClosed) isEvent()      {}
func (SetMe) isEvent()              {}
