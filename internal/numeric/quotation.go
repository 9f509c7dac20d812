// Package numeric implements the price-quotation (tick-size) engine and the
// numeric formatting rules of the exchange client.
//
// Every computation runs on decimal.Decimal. Rounding is always truncation
// toward zero, matching the exchange's server-side display accounting; no
// banker's or away-from-zero rounding is used anywhere.
package numeric

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hanc1208/iu-exchange-frontend/internal/model"
)

// ErrNoQuotation indicates that a price matched no threshold band of its
// market's quotation table. Every table ends in a zero-threshold catch-all
// row, so hitting this error means the market configuration is invalid. It
// is a programming error, not a runtime condition to recover from.
var ErrNoQuotation = errors.New("price matches no quotation band")

// quotationBand is one (threshold, tick) row of a quotation table. A price
// quoted at or above Threshold moves in increments of Tick.
type quotationBand struct {
	Threshold decimal.Decimal
	Tick      decimal.Decimal
}

// Quotation tables per quote currency, ordered highest threshold first.
// TickSize scans each table top-down and returns the first band whose
// threshold the price meets or exceeds.
var (
	// ethQuotations applies to ETH-quoted markets: one flat micro tick.
	ethQuotations = []quotationBand{
		{decimal.Zero, decimal.RequireFromString("0.000001")},
	}

	// defaultQuotations is the KRW ladder used by every other quote currency.
	defaultQuotations = []quotationBand{
		{decimal.NewFromInt(2_000_000), decimal.NewFromInt(1000)},
		{decimal.NewFromInt(1_000_000), decimal.NewFromInt(500)},
		{decimal.NewFromInt(500_000), decimal.NewFromInt(100)},
		{decimal.NewFromInt(100_000), decimal.NewFromInt(50)},
		{decimal.NewFromInt(10_000), decimal.NewFromInt(10)},
		{decimal.NewFromInt(1_000), decimal.NewFromInt(5)},
		{decimal.NewFromInt(100), decimal.NewFromInt(1)},
		{decimal.NewFromInt(10), decimal.RequireFromString("0.1")},
		{decimal.Zero, decimal.RequireFromString("0.01")},
	}
)

// TickSize returns the minimum legal price increment for the market at the
// given price level.
//
// The table is selected by the market's quote currency and scanned from the
// highest threshold down; the first band the price meets or exceeds wins.
// ErrNoQuotation is returned when no band matches, which is unreachable for
// a well-formed table and must be treated as a fatal configuration error.
func TickSize(market model.Market, price decimal.Decimal) (decimal.Decimal, error) {
	bands := defaultQuotations
	if market.QuoteCurrency == "ETH" {
		bands = ethQuotations
	}

	for _, band := range bands {
		if price.GreaterThanOrEqual(band.Threshold) {
			return band.Tick, nil
		}
	}

	return decimal.Decimal{}, fmt.Errorf("%w: market %s, price %s",
		ErrNoQuotation, market.Pair(), price)
}

// ValidateOrderPrice reports whether price is legal for the market, i.e. an
// exact integer multiple of the tick size at that price level. Orders must
// pass this check before they ever reach the transport boundary.
func ValidateOrderPrice(market model.Market, price decimal.Decimal) error {
	tick, err := TickSize(market, price)
	if err != nil {
		return err
	}

	if !price.Mod(tick).IsZero() {
		return fmt.Errorf("price %s is not a multiple of tick size %s for %s",
			price, tick, market.Pair())
	}

	return nil
}

// tickDecimalPlaces returns the number of decimal places of a tick value,
// which is the display precision for prices quoted at that level.
func tickDecimalPlaces(tick decimal.Decimal) int32 {
	if exp := tick.Exponent(); exp < 0 {
		return -exp
	}
	return 0
}
