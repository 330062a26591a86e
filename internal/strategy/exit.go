package strategy

import (
	"fmt"
	"time"

	"SilverSnap/internal/model"
)

// exitContext is the evaluated state one exit rule set sees.
type exitContext struct {
	cycle Cycle
	fs    model.FilterStatus
	pos   model.Position
	price float64
	gain  float64 // fraction from entry, negative when under water
	stop  float64 // stop-loss fraction for the held instrument
	held  time.Duration
}

type exitRule struct {
	name  string
	match func(exitContext) bool
	build func(exitContext) *model.Signal
}

// buildExitRules fixes the exit precedence: profit target, then stop, then
// time stop, then the filters-off advisory. A cycle that satisfies the target
// resolves to profit-taking even if other rules would also fire.
func (e *Engine) buildExitRules() []exitRule {
	return []exitRule{
		{
			name:  "target",
			match: func(ctx exitContext) bool { return ctx.gain >= e.p.TargetGain },
			build: func(ctx exitContext) *model.Signal {
				return e.newExitSignal(ctx, model.SignalSellTarget,
					fmt.Sprintf("target hit: %s up %.2f%% from %.2f, sell at %.2f",
						ctx.pos.Symbol, ctx.gain*100, ctx.pos.EntryPrice, ctx.price))
			},
		},
		{
			name:  "stop",
			match: func(ctx exitContext) bool { return -ctx.gain >= ctx.stop },
			build: func(ctx exitContext) *model.Signal {
				return e.newExitSignal(ctx, model.SignalSellStop,
					fmt.Sprintf("stop loss (%.0f%%): %s down %.2f%% from %.2f, sell at %.2f",
						ctx.stop*100, ctx.pos.Symbol, -ctx.gain*100, ctx.pos.EntryPrice, ctx.price))
			},
		},
		{
			name: "time",
			match: func(ctx exitContext) bool {
				// A broker that reports no entry time cannot age out.
				if ctx.pos.EntryTime.IsZero() {
					return false
				}
				return e.exitWindow.Contains(ctx.cycle.Now) && ctx.held > e.p.MaxHold
			},
			build: func(ctx exitContext) *model.Signal {
				return e.newExitSignal(ctx, model.SignalSellTime,
					fmt.Sprintf("time stop: %s held %s (max %s), P&L %.2f%%",
						ctx.pos.Symbol, ctx.held.Round(time.Minute), e.p.MaxHold, ctx.gain*100))
			},
		},
		{
			name:  "filters-off",
			match: func(ctx exitContext) bool { return !ctx.fs.Active() },
			build: func(ctx exitContext) *model.Signal {
				return e.newExitSignal(ctx, model.SignalFiltersOff,
					fmt.Sprintf("filters turned off while holding %s, P&L %.2f%%, consider exiting",
						ctx.pos.Symbol, ctx.gain*100))
			},
		},
		{
			name:  "hold",
			match: func(exitContext) bool { return true },
			build: func(ctx exitContext) *model.Signal {
				return e.newExitSignal(ctx, model.SignalNone,
					fmt.Sprintf("holding %s, P&L %.2f%% (target +%.0f%%, stop -%.0f%%)",
						ctx.pos.Symbol, ctx.gain*100, e.p.TargetGain*100, ctx.stop*100))
			},
		},
	}
}

func (e *Engine) evalExit(c Cycle, fs model.FilterStatus) *model.Signal {
	pos := *c.Position
	price := c.ConservativePrice
	if pos.Instrument == model.Leveraged {
		price = c.LeveragedPrice
	}
	ctx := exitContext{
		cycle: c,
		fs:    fs,
		pos:   pos,
		price: price,
		gain:  pos.PnLPct(price),
		stop:  e.stopLossFor(pos.Instrument),
		held:  c.Now.Sub(pos.EntryTime),
	}
	for _, r := range e.exitRules {
		if r.match(ctx) {
			return r.build(ctx)
		}
	}
	panic("strategy: exit rule table did not terminate")
}

func (e *Engine) newExitSignal(ctx exitContext, kind model.SignalType, reason string) *model.Signal {
	return &model.Signal{
		Time:           ctx.cycle.Now,
		Type:           kind,
		Instrument:     ctx.pos.Instrument,
		Symbol:         ctx.pos.Symbol,
		Price:          ctx.price,
		ReferenceClose: ctx.cycle.ReferenceClose,
		DropPct:        dropFraction(ctx.cycle.ReferenceClose, ctx.cycle.SessionLow),
		Filters:        ctx.fs,
		Reason:         reason,
	}
}
