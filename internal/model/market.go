package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Market represents a tradable currency pair and its current economics.
//
// A market is keyed by its pair string ("BASE/QUOTE"). CurrentPrice is the
// only field updated by lightweight ticker pushes; every other field changes
// only when a full market payload arrives.
//
// Invariants: CurrentPrice and DayVolume are non-negative; MakerFee and
// TakerFee lie in [0, 1).
type Market struct {
	BaseCurrency       string          // Base asset identifier (e.g. "BTC")
	QuoteCurrency      string          // Quote asset identifier (e.g. "KRW")
	CurrentPrice       decimal.Decimal // Last traded price
	MakerFee           decimal.Decimal // Maker fee rate, [0, 1)
	TakerFee           decimal.Decimal // Taker fee rate, [0, 1)
	MinimumOrderAmount decimal.Decimal // Minimum order amount in quote currency
	DayVolume          decimal.Decimal // Rolling 24h traded volume
}

// MarketMap indexes markets by their pair string.
type MarketMap map[string]Market

// Pair returns the market key in "BASE/QUOTE" form.
func (m Market) Pair() string {
	return m.BaseCurrency + "/" + m.QuoteCurrency
}

// WithPrice returns a copy of the market with only CurrentPrice replaced.
// Used when a ticker push carries a price but no economics.
func (m Market) WithPrice(price decimal.Decimal) Market {
	m.CurrentPrice = price
	return m
}

// SplitPair splits a "BASE/QUOTE" pair key into its two currencies.
func SplitPair(pair string) (base, quote string, err error) {
	parts := strings.Split(pair, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid pair format: expected BASE/QUOTE, got %q", pair)
	}
	return parts[0], parts[1], nil
}
