package model

import "github.com/shopspring/decimal"

// CandleUnitType names the width unit of a candle bucket.
type CandleUnitType string

// MinutesUnit is the only unit type the exchange currently serves.
const MinutesUnit CandleUnitType = "minutes"

// Candle is one fixed-width OHLCV time bucket.
//
// Candle lists are ordered newest-first. Timestamp is the bucket start in
// Unix milliseconds and is always an exact multiple of Unit*60000.
// Invariant: Low <= {Open, Close} <= High.
type Candle struct {
	Timestamp   int64           // Bucket start, Unix milliseconds
	Open        decimal.Decimal // First trade price in the bucket
	High        decimal.Decimal // Highest trade price in the bucket
	Low         decimal.Decimal // Lowest trade price in the bucket
	Close       decimal.Decimal // Latest trade price in the bucket
	Volume      decimal.Decimal // Total base-currency volume
	QuoteVolume decimal.Decimal // Sum of price*volume over the bucket
	UnitType    CandleUnitType  // Bucket width unit
	Unit        int             // Bucket width in units (e.g. 1, 5, 30)
}

// BucketWidthMillis returns the bucket width of a (unitType, unit) pair in
// milliseconds. Only the minutes unit type is defined.
func BucketWidthMillis(unitType CandleUnitType, unit int) int64 {
	return int64(unit) * 60_000
}
