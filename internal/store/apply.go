package store

import (
	"maps"
	"sort"

	"github.com/hanc1208/iu-exchange-frontend/internal/candles"
	"github.com/hanc1208/iu-exchange-frontend/internal/model"
)

// Apply is the single pure transition function of the store.
//
// It reads nothing but the state value and the event, performs no I/O, and
// never mutates its inputs: maps and slices are cloned before modification,
// so a previously returned State is never changed by a later application.
// All fetch and transport side effects live in the Commands layer.
func Apply(s State, event Event) State {
	switch ev := event.(type) {
	case SetCurrencies:
		s.Currencies = ev.Currencies

	case SetBalances:
		s.Balances = ev.Balances

	case UpdateBalances:
		merged := maps.Clone(s.Balances)
		if merged == nil {
			merged = model.BalanceMap{}
		}
		maps.Copy(merged, ev.Balances)
		s.Balances = merged

	case SetMarkets:
		s.Markets = ev.Markets

	case MergeMarkets:
		merged := maps.Clone(s.Markets)
		if merged == nil {
			merged = model.MarketMap{}
		}
		maps.Copy(merged, ev.Markets)
		s.Markets = merged

	case UpdateMarketPrices:
		merged := maps.Clone(s.Markets)
		for pair, price := range ev.Prices {
			market, ok := merged[pair]
			if !ok {
				// A ticker for a market the client has never seen carries
				// no economics to clone; the next full payload restores it.
				continue
			}
			merged[pair] = market.WithPrice(price)
		}
		s.Markets = merged

	case SetOrderBook:
		s.Orders = ev.Levels

	case SetTrades:
		s.Trades = ev.Trades

	case PushTrades:
		s.Candles = candles.FoldTrades(s.Candles, ev.Trades, s.UnitType, s.Unit)

		trades := make([]model.Trade, 0, len(s.Trades)+len(ev.Trades))
		trades = append(trades, s.Trades...)
		trades = append(trades, ev.Trades...)
		if len(trades) > tradeRingSize {
			trades = trades[len(trades)-tradeRingSize:]
		}
		s.Trades = trades

	case SetCandleUnit:
		s.UnitType = ev.UnitType
		s.Unit = ev.Unit

	case SetCandles:
		if ev.Generation != s.Generation {
			// Response to a fetch issued before a market-pair switch;
			// applying it would populate the new pair with the old pair's
			// history.
			break
		}
		if !ev.Merge {
			s.Candles = ev.Candles
			break
		}
		s.Candles = mergeCandles(ev.Candles, s.Candles)

	case SetMarketPair:
		s.MarketPair = ev.Pair
		s.Orders = nil
		s.Trades = nil
		s.Candles = nil
		s.Generation++

	case SessionOpened:
		s.Session = ev.Session

	case SessionClosed:
		s.Session = nil

	case SetMe:
		s.Me = ev.Me
	}

	return s
}

// mergeCandles combines a paginated snapshot with the existing candle list,
// sorted descending by bucket start. Fetched entries win over existing ones
// when buckets collide at a page boundary.
func mergeCandles(fetched, existing []model.Candle) []model.Candle {
	merged := make([]model.Candle, 0, len(fetched)+len(existing))
	merged = append(merged, fetched...)
	merged = append(merged, existing...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp > merged[j].Timestamp
	})

	deduped := make([]model.Candle, 0, len(merged))
	for i, candle := range merged {
		if i > 0 && candle.Timestamp == deduped[len(deduped)-1].Timestamp {
			continue
		}
		deduped = append(deduped, candle)
	}
	return deduped
}
