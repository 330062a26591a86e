package recorder

import "SilverSnap/internal/model"

// NoopRecorder is used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(_ *model.Signal) error    { return nil }
func (n *NoopRecorder) RecordTrade(_ *TradeRecord) error      { return nil }
func (n *NoopRecorder) RecordFilters(_ *FilterSnapshot) error { return nil }
func (n *NoopRecorder) Close() error                          { return nil }
