package calculator

import (
	"fmt"
	"math"

	"SilverSnap/internal/model"
)

// Filters evaluates both trend filters on the latest bar of a daily series:
// the stop-and-reverse indicator over raw price and over the RSI of the
// closes. It validates the series and requires enough history to cover the
// oscillator warm-up plus indicator settling (2x the RSI period).
func Filters(s model.Series, rsiPeriod int, p SARParams) (model.FilterStatus, error) {
	var fs model.FilterStatus
	fs.RSI = math.NaN()

	if err := s.Validate(); err != nil {
		return fs, err
	}
	if min := 2 * rsiPeriod; len(s.Bars) < min {
		return fs, fmt.Errorf("%w: have %d bars of %s, need at least %d",
			model.ErrInsufficientData, len(s.Bars), s.Symbol, min)
	}

	closes := s.Closes()

	priceSAR, err := SARSeries(s.Highs(), s.Lows(), closes, p)
	if err != nil {
		return fs, err
	}
	if len(priceSAR) > 0 {
		last := priceSAR[len(priceSAR)-1]
		fs.PriceGreen = last.Uptrend
		fs.PriceSAR = last.SAR
	}

	rsiSAR, err := SAROnRSI(closes, rsiPeriod, p)
	if err != nil {
		return fs, err
	}
	// An undefined oscillator reads red, never a guessed direction.
	if len(rsiSAR) > 0 {
		last := rsiSAR[len(rsiSAR)-1]
		fs.RSIGreen = last.Uptrend
		fs.RSISAR = last.SAR
	}

	rsi, err := RSI(closes, rsiPeriod)
	if err != nil {
		return fs, err
	}
	if len(rsi) > 0 {
		fs.RSI = rsi[len(rsi)-1]
	}

	return fs, nil
}
