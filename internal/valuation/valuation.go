// Package valuation estimates the value of a balance in a target quote
// currency by chaining at most two market prices through a common KRW
// quotation.
//
// The estimate feeds portfolio displays only; it is best-effort by design
// and never blocks or fails the caller. Missing market data yields zero.
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/hanc1208/iu-exchange-frontend/internal/model"
)

// intermediateQuotes is the fixed priority order of intermediate quote
// currencies scanned when no direct market to KRW exists.
var intermediateQuotes = []string{"KRW", "BTC", "ETH"}

// Estimate converts a balance into an estimated value in targetQuoteCurrency.
//
// Resolution order:
//  1. The balance's own currency equals the target: price is 1.
//  2. A market "X/KRW" exists: its price is used directly when the
//     intermediate is KRW.
//  3. A market "X/I" exists for an intermediate I: both "I/KRW" and
//     "target/KRW" must also exist, and the price triangulates as
//     X/I price * I/KRW price / target/KRW price.
//
// If no path resolves, the estimated value is zero.
func Estimate(balance model.Balance, markets model.MarketMap, targetQuoteCurrency string) decimal.Decimal {
	price := decimal.Zero

	if balance.Currency == targetQuoteCurrency {
		price = decimal.NewFromInt(1)
	} else {
		for _, quote := range intermediateQuotes {
			market, ok := markets[balance.Currency+"/"+quote]
			if !ok {
				continue
			}

			if quote == "KRW" {
				price = market.CurrentPrice
				break
			}

			quoteMarket, ok := markets[quote+"/KRW"]
			if !ok {
				continue
			}
			targetMarket, ok := markets[targetQuoteCurrency+"/KRW"]
			if !ok {
				continue
			}

			price = market.CurrentPrice.
				Mul(quoteMarket.CurrentPrice).
				Div(targetMarket.CurrentPrice)
			break
		}
	}

	return balance.Amount.Mul(price)
}
