package recorder

import "SilverSnap/internal/model"

// TradeRecord captures an executed (or simulated) order tied to a signal.
type TradeRecord struct {
	Symbol     string
	Side       string
	Quantity   int64
	Price      float64
	SignalType model.SignalType
	PnL        float64
	PnLPct     float64
	Note       string
}

// FilterSnapshot is the daily filter state kept for later review.
type FilterSnapshot struct {
	Symbol     string
	Price      float64
	PriceGreen bool
	RSIGreen   bool
	PriceSAR   float64
	RSISAR     float64
	RSI        float64
}

// Recorder persists signal history for analysis. It is observability only;
// position truth stays with the broker.
type Recorder interface {
	RecordSignal(sig *model.Signal) error
	RecordTrade(t *TradeRecord) error
	RecordFilters(fs *FilterSnapshot) error
	Close() error
}
