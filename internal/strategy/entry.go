package strategy

import (
	"fmt"

	"SilverSnap/internal/model"
)

// entryContext is the evaluated state one entry rule set sees.
type entryContext struct {
	cycle Cycle
	fs    model.FilterStatus
	drop  float64
}

// entryRule is one guarded step of the entry decision. Rules are evaluated in
// order and the first match wins, which keeps the tie-break policy auditable.
type entryRule struct {
	name  string
	match func(entryContext) bool
	build func(entryContext) *model.Signal
}

func (e *Engine) buildEntryRules() []entryRule {
	return []entryRule{
		{
			name:  "filters-off",
			match: func(ctx entryContext) bool { return !ctx.fs.Active() },
			build: func(ctx entryContext) *model.Signal {
				return e.newSignal(ctx.cycle, ctx, model.SignalFiltersOff, "", 0,
					fmt.Sprintf("filters off (price %s, momentum %s), no trading",
						colorWord(ctx.fs.PriceGreen), colorWord(ctx.fs.RSIGreen)))
			},
		},
		{
			name:  "leveraged-entry",
			match: func(ctx entryContext) bool { return ctx.drop >= e.p.EntryThresholdLeveraged },
			build: func(ctx entryContext) *model.Signal {
				return e.newSignal(ctx.cycle, ctx, model.SignalBuy, model.Leveraged, ctx.cycle.LeveragedPrice,
					fmt.Sprintf("reference down %.2f%% (>= %.1f%%), buy %s (2x) at %.2f",
						ctx.drop*100, e.p.EntryThresholdLeveraged*100, e.p.LeveragedSymbol, ctx.cycle.LeveragedPrice))
			},
		},
		{
			name:  "conservative-entry",
			match: func(ctx entryContext) bool { return ctx.drop >= e.p.EntryThresholdMin },
			build: func(ctx entryContext) *model.Signal {
				return e.newSignal(ctx.cycle, ctx, model.SignalBuy, model.Conservative, ctx.cycle.ConservativePrice,
					fmt.Sprintf("reference down %.2f%% (>= %.1f%%), buy %s (1x) at %.2f",
						ctx.drop*100, e.p.EntryThresholdMin*100, e.p.ConservativeSymbol, ctx.cycle.ConservativePrice))
			},
		},
		{
			name:  "no-entry",
			match: func(entryContext) bool { return true },
			build: func(ctx entryContext) *model.Signal {
				return e.newSignal(ctx.cycle, ctx, model.SignalNone, "", 0,
					fmt.Sprintf("drop %.2f%% below the %.1f%% minimum, stand aside",
						ctx.drop*100, e.p.EntryThresholdMin*100))
			},
		},
	}
}

func (e *Engine) evalEntry(c Cycle, fs model.FilterStatus) *model.Signal {
	ctx := entryContext{
		cycle: c,
		fs:    fs,
		drop:  dropFraction(c.ReferenceClose, c.SessionLow),
	}
	for _, r := range e.entryRules {
		if r.match(ctx) {
			return r.build(ctx)
		}
	}
	// The final rule always matches.
	panic("strategy: entry rule table did not terminate")
}

func (e *Engine) newSignal(c Cycle, ctx entryContext, kind model.SignalType, ins model.Instrument, price float64, reason string) *model.Signal {
	sig := &model.Signal{
		Time:           c.Now,
		Type:           kind,
		Instrument:     ins,
		Price:          price,
		ReferenceClose: c.ReferenceClose,
		DropPct:        ctx.drop,
		Filters:        ctx.fs,
		Reason:         reason,
	}
	if ins != "" {
		sig.Symbol = e.symbolFor(ins)
	}
	return sig
}

func colorWord(green bool) string {
	if green {
		return "GREEN"
	}
	return "RED"
}
