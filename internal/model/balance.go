package model

import "github.com/shopspring/decimal"

// Balance holds a user's position in a single currency.
//
// Invariant: Amount >= LockedAmount >= 0.
type Balance struct {
	Currency       string          // Currency identifier this balance belongs to
	Amount         decimal.Decimal // Total amount held
	LockedAmount   decimal.Decimal // Amount reserved by open orders
	DepositAddress string          // Deposit address, empty when not issued
}

// BalanceMap indexes balances by currency identifier.
type BalanceMap map[string]Balance

// DefaultBalance returns a zero balance for the given currency.
func DefaultBalance(currency string) Balance {
	return Balance{
		Currency:     currency,
		Amount:       decimal.Zero,
		LockedAmount: decimal.Zero,
	}
}

// UsableAmount returns the amount not reserved by open orders.
func (b Balance) UsableAmount() decimal.Decimal {
	return b.Amount.Sub(b.LockedAmount)
}
