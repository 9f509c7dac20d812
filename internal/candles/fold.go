// Package candles builds OHLCV candlesticks incrementally from a stream of
// trade ticks.
//
// Candle lists are ordered newest-first and bucketed into fixed-width time
// windows aligned to the unit width. Folding is a pure transformation: the
// input list is never mutated, so the result can replace the previous list
// atomically inside the store's event application.
//
// All accumulation uses decimal.Decimal, the same arithmetic as the rest of
// the client, so aggregated candles never drift from server-side values.
package candles

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hanc1208/iu-exchange-frontend/internal/model"
)

// FoldTrades applies trades, in arrival order, to a newest-first candle list
// and returns the resulting list.
//
// For each trade:
//   - If the list is empty or the trade's timestamp reaches past the newest
//     bucket's end, a new candle is opened at the trade's bucket start
//     (timestamp floored to a multiple of the bucket width) with
//     open=high=low=close=price and prepended to the front.
//   - If the trade falls inside the newest bucket, the candle is updated in
//     place: close takes the trade price, high/low extend, volume and quote
//     volume accumulate.
//   - Trades strictly older than the newest bucket are dropped. Out-of-order
//     arrival is not retroactively reconciled; the historical chart is
//     re-derivable from a candle snapshot fetch.
func FoldTrades(candleList []model.Candle, trades []model.Trade, unitType model.CandleUnitType, unit int) []model.Candle {
	width := model.BucketWidthMillis(unitType, unit)

	// Copy-on-write so the caller's list stays untouched.
	folded := make([]model.Candle, len(candleList))
	copy(folded, candleList)

	for _, trade := range trades {
		timestamp := trade.CreatedAt.UnixMilli()
		quoteVolume := trade.Price.Mul(trade.Volume)

		switch {
		case len(folded) == 0 || timestamp >= folded[0].Timestamp+width:
			opened := model.Candle{
				Timestamp:   timestamp - timestamp%width,
				Open:        trade.Price,
				High:        trade.Price,
				Low:         trade.Price,
				Close:       trade.Price,
				Volume:      trade.Volume,
				QuoteVolume: quoteVolume,
				UnitType:    unitType,
				Unit:        unit,
			}
			folded = append([]model.Candle{opened}, folded...)

		case timestamp >= folded[0].Timestamp:
			current := folded[0]
			current.Close = trade.Price
			current.High = decimal.Max(current.High, trade.Price)
			current.Low = decimal.Min(current.Low, trade.Price)
			current.Volume = current.Volume.Add(trade.Volume)
			current.QuoteVolume = current.QuoteVolume.Add(quoteVolume)
			folded[0] = current

		default:
			log.Debug().
				Str("trade", trade.ID).
				Int64("timestamp", timestamp).
				Int64("bucket", folded[0].Timestamp).
				Msg("dropping trade older than active candle bucket")
		}
	}

	return folded
}
