package calculator

import (
	"errors"
	"testing"

	"SilverSnap/internal/model"
)

var testSAR = SARParams{Step: 0.02, Max: 0.20}

func trendBars(n int, start, step float64) (highs, lows, closes []float64) {
	highs = make([]float64, n)
	lows = make([]float64, n)
	closes = make([]float64, n)
	for i := 0; i < n; i++ {
		c := start + step*float64(i)
		closes[i] = c
		highs[i] = c + 0.3
		lows[i] = c - 0.3
	}
	return
}

func TestSARSeries_UptrendStaysGreen(t *testing.T) {
	highs, lows, closes := trendBars(30, 100, 0.5)
	states, err := SARSeries(highs, lows, closes, testSAR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(states) != len(closes)-1 {
		t.Fatalf("expected %d states, got %d", len(closes)-1, len(states))
	}
	for i, st := range states {
		if !st.Uptrend {
			t.Fatalf("state %d flipped down in a monotonic uptrend", i)
		}
		if st.SAR >= lows[i+1] {
			t.Errorf("state %d: stop %.3f not below the bar low %.3f", i, st.SAR, lows[i+1])
		}
	}
}

func TestSARSeries_DowntrendStaysRed(t *testing.T) {
	highs, lows, closes := trendBars(30, 120, -0.5)
	states, err := SARSeries(highs, lows, closes, testSAR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, st := range states {
		if st.Uptrend {
			t.Fatalf("state %d flipped up in a monotonic downtrend", i)
		}
		if st.SAR <= highs[i+1] {
			t.Errorf("state %d: stop %.3f not above the bar high %.3f", i, st.SAR, highs[i+1])
		}
	}
}

func TestSARSeries_ReversalFlips(t *testing.T) {
	highs, lows, closes := trendBars(15, 100, 0.5)
	for _, c := range []float64{95, 90, 85} {
		highs = append(highs, c+0.3)
		lows = append(lows, c-0.3)
		closes = append(closes, c)
	}
	states, err := SARSeries(highs, lows, closes, testSAR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := states[len(states)-1]
	if last.Uptrend {
		t.Error("expected downtrend after the price crashed through the stop")
	}
}

func TestSARSeries_AccelerationCaps(t *testing.T) {
	highs, lows, closes := trendBars(40, 100, 0.5)
	states, err := SARSeries(highs, lows, closes, testSAR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := states[len(states)-1]
	if last.AF != testSAR.Max {
		t.Errorf("acceleration factor = %v after 40 new highs, want cap %v", last.AF, testSAR.Max)
	}
}

func TestSARSeries_LengthMismatch(t *testing.T) {
	_, err := SARSeries([]float64{1, 2}, []float64{1, 2, 3}, []float64{1, 2, 3}, testSAR)
	if !errors.Is(err, model.ErrMalformedSeries) {
		t.Errorf("expected ErrMalformedSeries, got %v", err)
	}
}

func TestSARSeries_TooShort(t *testing.T) {
	states, err := SARSeries([]float64{1}, []float64{1}, []float64{1}, testSAR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(states) != 0 {
		t.Errorf("expected no states for a single bar, got %d", len(states))
	}
}

func TestSARSeries_BadParams(t *testing.T) {
	_, _, closes := trendBars(10, 100, 0.5)
	highs, lows, _ := trendBars(10, 100, 0.5)
	if _, err := SARSeries(highs, lows, closes, SARParams{Step: 0, Max: 0.2}); !errors.Is(err, model.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for zero step, got %v", err)
	}
	if _, err := SARSeries(highs, lows, closes, SARParams{Step: 0.3, Max: 0.2}); !errors.Is(err, model.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for max below step, got %v", err)
	}
}

func TestSAROnRSI_RisingSeriesIsGreen(t *testing.T) {
	_, _, closes := trendBars(40, 100, 0.5)
	states, err := SAROnRSI(closes, 14, testSAR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(states) == 0 {
		t.Fatal("expected states for a 40-bar series")
	}
	if !states[len(states)-1].Uptrend {
		t.Error("expected the momentum filter green on a rising series")
	}
}

func TestSAROnRSI_WarmupTooShort(t *testing.T) {
	_, _, closes := trendBars(10, 100, 0.5)
	states, err := SAROnRSI(closes, 14, testSAR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(states) != 0 {
		t.Errorf("expected no states while the oscillator is undefined, got %d", len(states))
	}
}
