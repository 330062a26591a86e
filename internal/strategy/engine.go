package strategy

import (
	"fmt"
	"time"

	"SilverSnap/internal/calculator"
	"SilverSnap/internal/model"
)

// Params holds every threshold the decision engine evaluates against.
// Immutable once handed to NewEngine, so concurrent evaluations of separate
// assets can share nothing but their own Params copy.
type Params struct {
	ConservativeSymbol string
	LeveragedSymbol    string

	EntryThresholdMin       float64 // drop fraction for a conservative entry
	EntryThresholdLeveraged float64 // drop fraction for a leveraged entry

	TargetGain           float64
	StopLossConservative float64
	StopLossLeveraged    float64
	MaxHold              time.Duration

	RSIPeriod int
	SAR       calculator.SARParams

	ExitWindowStart string // "15:04" wall clock
	ExitWindowEnd   string
	Timezone        string // IANA name, defaults to America/New_York
}

// Cycle is the full input of one evaluation: recent history, the reference
// prices, current instrument prices, and the broker's position snapshot
// (nil means flat). The engine keeps no state between cycles.
type Cycle struct {
	Reference      model.Series
	ReferenceClose float64 // anchor close; caller chooses the source
	SessionLow     float64 // lowest print since that close

	ConservativePrice float64
	LeveragedPrice    float64

	Position *model.Position
	Now      time.Time
}

// Engine turns one Cycle into exactly one Signal.
type Engine struct {
	p          Params
	exitWindow ClockWindow
	entryRules []entryRule
	exitRules  []exitRule
}

// NewEngine validates Params and builds the ordered decision tables. All
// configuration mistakes surface here, not mid-computation.
func NewEngine(p Params) (*Engine, error) {
	if p.EntryThresholdMin <= 0 || p.EntryThresholdLeveraged <= 0 {
		return nil, fmt.Errorf("%w: entry thresholds must be positive (min=%v leveraged=%v)",
			model.ErrInvalidConfiguration, p.EntryThresholdMin, p.EntryThresholdLeveraged)
	}
	if p.EntryThresholdLeveraged < p.EntryThresholdMin {
		return nil, fmt.Errorf("%w: leveraged threshold %v below minimum threshold %v",
			model.ErrInvalidConfiguration, p.EntryThresholdLeveraged, p.EntryThresholdMin)
	}
	if p.TargetGain <= 0 {
		return nil, fmt.Errorf("%w: target gain must be positive, got %v", model.ErrInvalidConfiguration, p.TargetGain)
	}
	if p.StopLossConservative <= 0 || p.StopLossLeveraged <= 0 {
		return nil, fmt.Errorf("%w: stop losses must be positive (conservative=%v leveraged=%v)",
			model.ErrInvalidConfiguration, p.StopLossConservative, p.StopLossLeveraged)
	}
	if p.MaxHold <= 0 {
		return nil, fmt.Errorf("%w: max hold duration must be positive, got %v", model.ErrInvalidConfiguration, p.MaxHold)
	}
	if p.RSIPeriod <= 1 {
		return nil, fmt.Errorf("%w: rsi period must be at least 2, got %d", model.ErrInvalidConfiguration, p.RSIPeriod)
	}
	if err := p.SAR.Validate(); err != nil {
		return nil, err
	}

	tz := p.Timezone
	if tz == "" {
		tz = "America/New_York"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", model.ErrInvalidConfiguration, tz, err)
	}
	window, err := NewClockWindow(p.ExitWindowStart, p.ExitWindowEnd, loc)
	if err != nil {
		return nil, err
	}

	e := &Engine{p: p, exitWindow: window}
	e.entryRules = e.buildEntryRules()
	e.exitRules = e.buildExitRules()
	return e, nil
}

// Evaluate produces exactly one signal for the cycle, or an error when the
// input is unusable. It never returns both nil and no error.
func (e *Engine) Evaluate(c Cycle) (*model.Signal, error) {
	fs, err := calculator.Filters(c.Reference, e.p.RSIPeriod, e.p.SAR)
	if err != nil {
		return nil, err
	}
	if c.Position != nil {
		return e.evalExit(c, fs), nil
	}
	return e.evalEntry(c, fs), nil
}

// dropFraction is (close - low) / close, clamped to zero when the session
// never traded below the reference close.
func dropFraction(refClose, low float64) float64 {
	if refClose <= 0 {
		return 0
	}
	d := (refClose - low) / refClose
	if d < 0 {
		return 0
	}
	return d
}

func (e *Engine) symbolFor(ins model.Instrument) string {
	if ins == model.Leveraged {
		return e.p.LeveragedSymbol
	}
	return e.p.ConservativeSymbol
}

func (e *Engine) stopLossFor(ins model.Instrument) float64 {
	if ins == model.Leveraged {
		return e.p.StopLossLeveraged
	}
	return e.p.StopLossConservative
}
