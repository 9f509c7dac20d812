// Package model defines the core entities of the exchange client.
//
// All monetary values use decimal.Decimal so that client-side arithmetic
// matches the exchange's server-side accounting exactly; no field that
// carries money is ever represented as a float.
package model

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// Address formats for the chains with deposit support.
var (
	ethAddressPattern = regexp.MustCompile(`^0x[a-fA-F\d]{40}$`)
	btcAddressPattern = regexp.MustCompile(`^[13][a-km-zA-HJ-NP-Z1-9]{25,34}$`)
)

// Currency describes an asset listed on the exchange.
//
// Currencies are immutable once loaded; the whole map is replaced on refresh.
type Currency struct {
	ID                      string          // Unique identifier (e.g. "BTC")
	Name                    string          // Display name
	Decimals                int32           // Display precision in decimal places
	Confirmations           int             // Required confirmations for deposits
	MinimumDepositAmount    decimal.Decimal // Smallest accepted deposit
	MinimumWithdrawalAmount decimal.Decimal // Smallest accepted withdrawal
	WithdrawalFee           decimal.Decimal // Flat fee charged on withdrawal
}

// CurrencyMap indexes currencies by their identifier.
type CurrencyMap map[string]Currency

// DepositEnabled reports whether deposits are open for this currency.
func (c Currency) DepositEnabled() bool {
	return c.ID == "BTC" || c.ID == "ETH"
}

// VerifyAddress reports whether address is a plausible deposit address for
// this currency. Currencies without a known address format always fail.
func (c Currency) VerifyAddress(address string) bool {
	switch c.ID {
	case "ETH":
		return ethAddressPattern.MatchString(address)
	case "BTC":
		return btcAddressPattern.MatchString(address)
	}
	return false
}
