package strategy

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"SilverSnap/internal/calculator"
	"SilverSnap/internal/model"
)

func testParams() Params {
	return Params{
		ConservativeSymbol:      "SLV",
		LeveragedSymbol:         "AGQ",
		EntryThresholdMin:       0.02,
		EntryThresholdLeveraged: 0.04,
		TargetGain:              0.05,
		StopLossConservative:    0.05,
		StopLossLeveraged:       0.07,
		MaxHold:                 48 * time.Hour,
		RSIPeriod:               14,
		SAR:                     calculator.SARParams{Step: 0.02, Max: 0.20},
		ExitWindowStart:         "11:30",
		ExitWindowEnd:           "12:30",
		Timezone:                "America/New_York",
	}
}

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(testParams())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func eastern(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

// testSeries builds n daily bars with closes start + step*i and a 0.3 band.
func testSeries(n int, start, step float64) model.Series {
	bars := make([]model.Bar, n)
	day := time.Date(2026, 1, 5, 16, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := start + step*float64(i)
		bars[i] = model.Bar{
			Time:  day.AddDate(0, 0, i),
			Open:  c - 0.1,
			High:  c + 0.3,
			Low:   c - 0.3,
			Close: c,
		}
	}
	return model.Series{Symbol: "SLV", Bars: bars}
}

// risingSeries keeps both trend filters green; fallingSeries turns them red.
func risingSeries() model.Series  { return testSeries(40, 100, 0.5) }
func fallingSeries() model.Series { return testSeries(40, 120, -0.5) }

func entryCycle(series model.Series, refClose, sessionLow float64, now time.Time) Cycle {
	return Cycle{
		Reference:         series,
		ReferenceClose:    refClose,
		SessionLow:        sessionLow,
		ConservativePrice: sessionLow,
		LeveragedPrice:    sessionLow / 2,
		Now:               now,
	}
}

func TestNewEngine_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero min threshold", func(p *Params) { p.EntryThresholdMin = 0 }},
		{"leveraged below min", func(p *Params) { p.EntryThresholdLeveraged = 0.01 }},
		{"zero target", func(p *Params) { p.TargetGain = 0 }},
		{"negative stop", func(p *Params) { p.StopLossConservative = -0.05 }},
		{"zero max hold", func(p *Params) { p.MaxHold = 0 }},
		{"rsi period one", func(p *Params) { p.RSIPeriod = 1 }},
		{"sar step zero", func(p *Params) { p.SAR.Step = 0 }},
		{"bad timezone", func(p *Params) { p.Timezone = "Mars/Olympus" }},
		{"bad window", func(p *Params) { p.ExitWindowStart = "25:99" }},
		{"window reversed", func(p *Params) { p.ExitWindowStart = "13:00"; p.ExitWindowEnd = "12:00" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			if _, err := NewEngine(p); !errors.Is(err, model.ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestEvaluate_EntryTiers(t *testing.T) {
	e := mustEngine(t)
	now := time.Date(2026, 3, 2, 16, 30, 0, 0, eastern(t))

	tests := []struct {
		name       string
		sessionLow float64 // reference close is 100
		wantType   model.SignalType
		wantSymbol string
		wantIns    model.Instrument
	}{
		{"five percent drop", 95.0, model.SignalBuy, "AGQ", model.Leveraged},
		{"four percent exactly", 96.0, model.SignalBuy, "AGQ", model.Leveraged},
		{"three percent drop", 97.0, model.SignalBuy, "SLV", model.Conservative},
		{"two percent exactly", 98.0, model.SignalBuy, "SLV", model.Conservative},
		{"one percent drop", 99.0, model.SignalNone, "", ""},
		{"no drop", 100.5, model.SignalNone, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := e.Evaluate(entryCycle(risingSeries(), 100, tt.sessionLow, now))
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if sig.Type != tt.wantType {
				t.Fatalf("signal type = %s, want %s (reason: %s)", sig.Type, tt.wantType, sig.Reason)
			}
			if sig.Symbol != tt.wantSymbol {
				t.Errorf("symbol = %q, want %q", sig.Symbol, tt.wantSymbol)
			}
			if sig.Instrument != tt.wantIns {
				t.Errorf("instrument = %q, want %q", sig.Instrument, tt.wantIns)
			}
		})
	}
}

func TestEvaluate_FiltersOffBlocksEntry(t *testing.T) {
	e := mustEngine(t)
	now := time.Date(2026, 3, 2, 16, 30, 0, 0, eastern(t))

	// A six percent drop would normally be a leveraged entry.
	sig, err := e.Evaluate(entryCycle(fallingSeries(), 100, 94.0, now))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if sig.Type != model.SignalFiltersOff {
		t.Fatalf("signal type = %s, want %s", sig.Type, model.SignalFiltersOff)
	}
	if sig.Actionable() {
		t.Error("filters-off must not be actionable")
	}
}

func exitCycle(t *testing.T, series model.Series, price float64, now time.Time, held time.Duration) Cycle {
	t.Helper()
	return Cycle{
		Reference:         series,
		ReferenceClose:    100,
		SessionLow:        100,
		ConservativePrice: price,
		LeveragedPrice:    price,
		Position: &model.Position{
			Instrument: model.Conservative,
			Symbol:     "SLV",
			EntryPrice: 100,
			EntryTime:  now.Add(-held),
			Quantity:   10,
		},
		Now: now,
	}
}

func TestEvaluate_ExitLadder(t *testing.T) {
	e := mustEngine(t)
	loc := eastern(t)
	afternoon := time.Date(2026, 3, 2, 16, 30, 0, 0, loc) // outside the review window
	midday := time.Date(2026, 3, 2, 12, 0, 0, 0, loc)     // inside the review window

	tests := []struct {
		name     string
		series   model.Series
		price    float64
		now      time.Time
		held     time.Duration
		wantType model.SignalType
	}{
		{"target reached", risingSeries(), 105.0, afternoon, 12 * time.Hour, model.SignalSellTarget},
		{"target beats time stop", risingSeries(), 106.0, midday, 72 * time.Hour, model.SignalSellTarget},
		{"stop loss at boundary", risingSeries(), 95.0, afternoon, 12 * time.Hour, model.SignalSellStop},
		{"just above the stop", risingSeries(), 95.1, afternoon, 12 * time.Hour, model.SignalNone},
		{"time stop in window", risingSeries(), 99.0, midday, 72 * time.Hour, model.SignalSellTime},
		{"overdue outside window", risingSeries(), 99.0, afternoon, 72 * time.Hour, model.SignalNone},
		{"held under the limit", risingSeries(), 99.0, midday, 24 * time.Hour, model.SignalNone},
		{"filters off while holding", fallingSeries(), 99.0, afternoon, 12 * time.Hour, model.SignalFiltersOff},
		{"stop beats filters off", fallingSeries(), 94.0, afternoon, 12 * time.Hour, model.SignalSellStop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := e.Evaluate(exitCycle(t, tt.series, tt.price, tt.now, tt.held))
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if sig.Type != tt.wantType {
				t.Errorf("signal type = %s, want %s (reason: %s)", sig.Type, tt.wantType, sig.Reason)
			}
		})
	}
}

func TestEvaluate_TimeStopNeedsEntryTime(t *testing.T) {
	e := mustEngine(t)
	midday := time.Date(2026, 3, 2, 12, 0, 0, 0, eastern(t))

	cycle := exitCycle(t, risingSeries(), 99.0, midday, 72*time.Hour)
	cycle.Position.EntryTime = time.Time{} // broker did not report one

	sig, err := e.Evaluate(cycle)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if sig.Type != model.SignalNone {
		t.Errorf("signal type = %s without an entry time, want %s", sig.Type, model.SignalNone)
	}
}

func TestEvaluate_LeveragedStopIsWider(t *testing.T) {
	e := mustEngine(t)
	now := time.Date(2026, 3, 2, 16, 30, 0, 0, eastern(t))
	cycle := Cycle{
		Reference:         risingSeries(),
		ReferenceClose:    100,
		SessionLow:        100,
		ConservativePrice: 94.0,
		LeveragedPrice:    94.0,
		Position: &model.Position{
			Instrument: model.Leveraged,
			Symbol:     "AGQ",
			EntryPrice: 100,
			EntryTime:  now.Add(-12 * time.Hour),
			Quantity:   10,
		},
		Now: now,
	}

	// Six percent down: inside the 7% leveraged stop, outside the 5% one.
	sig, err := e.Evaluate(cycle)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if sig.Type != model.SignalNone {
		t.Fatalf("signal type = %s at -6%% on the leveraged leg, want %s", sig.Type, model.SignalNone)
	}

	cycle.LeveragedPrice = 93.0
	sig, err = e.Evaluate(cycle)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if sig.Type != model.SignalSellStop {
		t.Errorf("signal type = %s at -7%%, want %s", sig.Type, model.SignalSellStop)
	}
}

func TestEvaluate_InsufficientData(t *testing.T) {
	e := mustEngine(t)
	now := time.Date(2026, 3, 2, 16, 30, 0, 0, eastern(t))

	_, err := e.Evaluate(entryCycle(testSeries(10, 100, 0.5), 100, 95, now))
	if !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestEvaluate_MalformedSeries(t *testing.T) {
	e := mustEngine(t)
	now := time.Date(2026, 3, 2, 16, 30, 0, 0, eastern(t))

	series := risingSeries()
	series.Bars[20].Time = series.Bars[19].Time // duplicate timestamp

	_, err := e.Evaluate(entryCycle(series, 100, 95, now))
	if !errors.Is(err, model.ErrMalformedSeries) {
		t.Errorf("expected ErrMalformedSeries, got %v", err)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	e := mustEngine(t)
	now := time.Date(2026, 3, 2, 16, 30, 0, 0, eastern(t))
	cycle := entryCycle(risingSeries(), 100, 96.5, now)

	first, err := e.Evaluate(cycle)
	if err != nil {
		t.Fatalf("first Evaluate: %v", err)
	}
	second, err := e.Evaluate(cycle)
	if err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical cycles produced different signals:\n%+v\n%+v", first, second)
	}
}

func TestDropFraction(t *testing.T) {
	tests := []struct {
		refClose, low, want float64
	}{
		{100, 96, 0.04},
		{100, 100, 0},
		{100, 101, 0}, // never traded below the close
		{0, 95, 0},    // unusable reference
	}
	for _, tt := range tests {
		if got := dropFraction(tt.refClose, tt.low); got != tt.want {
			t.Errorf("dropFraction(%v, %v) = %v, want %v", tt.refClose, tt.low, got, tt.want)
		}
	}
}
