package model

import (
	"math"
	"time"
)

// SignalType enumerates the discrete recommendations the engine can emit.
type SignalType string

const (
	SignalNone       SignalType = "NO_SIGNAL"
	SignalBuy        SignalType = "BUY"
	SignalSellTarget SignalType = "SELL_TARGET"
	SignalSellStop   SignalType = "SELL_STOP"
	SignalSellTime   SignalType = "SELL_TIME"
	SignalFiltersOff SignalType = "FILTERS_OFF"
)

// FilterStatus is the per-cycle state of the two trend filters. It is derived
// fresh every evaluation and never persisted.
type FilterStatus struct {
	PriceGreen bool    // price SAR trending up on the latest bar
	RSIGreen   bool    // SAR over the RSI series trending up on the latest bar
	PriceSAR   float64 // latest trailing stop level on price
	RSISAR     float64 // latest trailing stop level on the RSI series
	RSI        float64 // latest RSI value, NaN during warm-up
}

// Active reports whether trading is permitted: both filters must be green.
func (f FilterStatus) Active() bool {
	return f.PriceGreen && f.RSIGreen
}

// HasRSI reports whether the momentum oscillator has left its warm-up period.
func (f FilterStatus) HasRSI() bool {
	return !math.IsNaN(f.RSI)
}

// Signal is the single recommendation produced by one evaluation cycle.
// It is a value: constructed once, never mutated.
type Signal struct {
	Time           time.Time
	Type           SignalType
	Instrument     Instrument // instrument the signal applies to, if any
	Symbol         string
	Price          float64
	ReferenceClose float64
	DropPct        float64 // drop fraction from the reference close, >= 0
	Filters        FilterStatus
	Reason         string
}

// Actionable reports whether the signal calls for an order.
func (s *Signal) Actionable() bool {
	switch s.Type {
	case SignalBuy, SignalSellTarget, SignalSellStop, SignalSellTime:
		return true
	}
	return false
}
