package calculator

import (
	"fmt"
	"math"

	"SilverSnap/internal/model"
)

// SARParams configures the parabolic stop-and-reverse recurrence. Step is
// both the initial acceleration factor and its increment on a new extreme.
type SARParams struct {
	Step float64
	Max  float64
}

// Validate rejects parameters the recurrence cannot run with.
func (p SARParams) Validate() error {
	if p.Step <= 0 {
		return fmt.Errorf("%w: sar step must be positive, got %v", model.ErrInvalidConfiguration, p.Step)
	}
	if p.Max < p.Step {
		return fmt.Errorf("%w: sar max %v below step %v", model.ErrInvalidConfiguration, p.Max, p.Step)
	}
	return nil
}

// SARState is the recurrence state after one bar: the trailing stop level,
// trend direction, extreme point since the last flip, and the acceleration
// factor. The transition from one state to the next is a pure function of
// (state, bar), so a series can be recomputed from scratch or updated
// incrementally with identical results.
type SARState struct {
	SAR     float64
	Uptrend bool
	EP      float64
	AF      float64
}

// advance applies one bar to the state. prevLow1/prevLow2 (and the high
// mirrors) are the prior one and two bars' extremes used to clamp the stop;
// pass NaN when not available.
func (s SARState) advance(high, low float64, prevHigh1, prevHigh2, prevLow1, prevLow2 float64, p SARParams) SARState {
	next := s
	if s.Uptrend {
		sar := s.SAR + s.AF*(s.EP-s.SAR)
		// The stop may never rise above the prior two lows.
		if !math.IsNaN(prevLow1) && sar > prevLow1 {
			sar = prevLow1
		}
		if !math.IsNaN(prevLow2) && sar > prevLow2 {
			sar = prevLow2
		}
		if low < sar {
			// Price crossed the stop: reverse down.
			next.Uptrend = false
			next.SAR = s.EP
			next.EP = low
			next.AF = p.Step
			return next
		}
		next.SAR = sar
		if high > s.EP {
			next.EP = high
			next.AF = math.Min(s.AF+p.Step, p.Max)
		}
		return next
	}

	sar := s.SAR - s.AF*(s.SAR-s.EP)
	// The stop may never fall below the prior two highs.
	if !math.IsNaN(prevHigh1) && sar < prevHigh1 {
		sar = prevHigh1
	}
	if !math.IsNaN(prevHigh2) && sar < prevHigh2 {
		sar = prevHigh2
	}
	if high > sar {
		// Price crossed the stop: reverse up.
		next.Uptrend = true
		next.SAR = s.EP
		next.EP = high
		next.AF = p.Step
		return next
	}
	next.SAR = sar
	if low < s.EP {
		next.EP = low
		next.AF = math.Min(s.AF+p.Step, p.Max)
	}
	return next
}

// SARSeries runs the parabolic stop-and-reverse indicator over aligned
// high/low/close slices and returns one state per bar starting from the
// second. The initial direction comes from comparing the first two closes
// (non-decreasing means up). Fewer than two observations yield no states.
func SARSeries(highs, lows, closes []float64, p SARParams) ([]SARState, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := len(closes)
	if len(highs) != n || len(lows) != n {
		return nil, fmt.Errorf("%w: sar input lengths differ (%d highs, %d lows, %d closes)",
			model.ErrMalformedSeries, len(highs), len(lows), n)
	}
	if n < 2 {
		return nil, nil
	}

	st := SARState{AF: p.Step}
	if closes[1] >= closes[0] {
		st.Uptrend = true
		st.SAR = lows[0]
		st.EP = highs[0]
	} else {
		st.Uptrend = false
		st.SAR = highs[0]
		st.EP = lows[0]
	}

	out := make([]SARState, 0, n-1)
	for i := 1; i < n; i++ {
		ph1, pl1 := highs[i-1], lows[i-1]
		ph2, pl2 := math.NaN(), math.NaN()
		if i >= 2 {
			ph2, pl2 = highs[i-2], lows[i-2]
		}
		st = st.advance(highs[i], lows[i], ph1, ph2, pl1, pl2, p)
		out = append(out, st)
	}
	return out, nil
}

// SAROnRSI applies the stop-and-reverse indicator to the momentum oscillator
// of a close series, treating each defined RSI value as a bar with a
// half-point band around it. Warm-up values are skipped; if fewer than two
// defined values remain, the result is empty and the filter must read red.
func SAROnRSI(closes []float64, rsiPeriod int, p SARParams) ([]SARState, error) {
	rsi, err := RSI(closes, rsiPeriod)
	if err != nil {
		return nil, err
	}

	valid := make([]float64, 0, len(rsi))
	for _, v := range rsi {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) < 2 {
		return nil, nil
	}

	highs := make([]float64, len(valid))
	lows := make([]float64, len(valid))
	for i, v := range valid {
		highs[i] = v + 0.5
		lows[i] = v - 0.5
	}
	return SARSeries(highs, lows, valid, p)
}
