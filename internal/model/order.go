package model

import "github.com/shopspring/decimal"

// OrderBookLevel is one aggregated price level of the visible order book.
//
// The store keeps the current full snapshot of visible levels only; each
// order-book push is authoritative for the level set it carries.
type OrderBookLevel struct {
	Side   OrderSide       // Book side this level belongs to
	Price  decimal.Decimal // Level price
	Volume decimal.Decimal // Aggregate volume resting at this price
}

// Order is an order submission as sent to the exchange.
type Order struct {
	Pair   string          // Market pair the order targets
	Side   OrderSide       // Buy or sell
	Price  decimal.Decimal // Limit price
	Volume decimal.Decimal // Order volume in base currency
}
