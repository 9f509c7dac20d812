package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide distinguishes the two sides of the book.
type OrderSide string

const (
	// Buy marks bids.
	Buy OrderSide = "buy"
	// Sell marks asks.
	Sell OrderSide = "sell"
)

// Trade is a single executed trade received from the feed.
type Trade struct {
	ID        string          // Exchange-assigned trade identifier
	CreatedAt time.Time       // Execution time reported by the exchange
	Side      OrderSide       // Taker side
	Price     decimal.Decimal // Execution price
	Volume    decimal.Decimal // Executed volume in base currency
}
