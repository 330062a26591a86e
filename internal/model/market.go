package model

import (
	"fmt"
	"time"
)

// Bar is a single OHLCV candlestick.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is a chronologically ordered sequence of bars for one symbol.
type Series struct {
	Symbol string
	Bars   []Bar
}

// Validate checks that bar timestamps are strictly increasing. Duplicate or
// out-of-order timestamps are reported, never reordered silently.
func (s Series) Validate() error {
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Time.After(s.Bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d (%s) not after bar %d (%s)",
				ErrMalformedSeries, i, s.Bars[i].Time.Format(time.RFC3339),
				i-1, s.Bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// Closes returns the close of every bar, oldest first.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high of every bar, oldest first.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows returns the low of every bar, oldest first.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Quote is a current price snapshot together with the regular-session
// reference prices the entry logic anchors on.
type Quote struct {
	Symbol        string
	Last          float64
	RegularClose  float64 // prior regular-session close
	SessionOpen   float64 // today's regular-session open, 0 if unknown
	SessionLow    float64 // lowest print since the regular close, 0 if unknown
	ExtendedHours bool
	Time          time.Time
}

// MarketSnapshot bundles everything one evaluation cycle reads from the
// market-data provider.
type MarketSnapshot struct {
	Reference         Series // daily bars for the reference (1x) symbol
	ReferenceQuote    Quote
	ConservativePrice float64
	LeveragedPrice    float64
	FetchedAt         time.Time
}
