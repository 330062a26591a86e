package model

import "time"

// Instrument selects between the two products tracking the same underlying.
type Instrument string

const (
	Conservative Instrument = "CONSERVATIVE" // 1x
	Leveraged    Instrument = "LEVERAGED"    // 2x
)

// Position is a snapshot of an open holding as reported by the broker.
// The core only reads it; position truth lives with the broker.
type Position struct {
	Instrument Instrument
	Symbol     string
	EntryPrice float64
	EntryTime  time.Time
	Quantity   int64
}

// PnL returns the unrealized profit at the given price.
func (p Position) PnL(price float64) float64 {
	return (price - p.EntryPrice) * float64(p.Quantity)
}

// PnLPct returns the unrealized gain fraction from entry (negative for a loss).
func (p Position) PnLPct(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice
}
