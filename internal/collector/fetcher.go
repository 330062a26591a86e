package collector

import "SilverSnap/internal/model"

// Fetcher defines the interface for retrieving market data.
type Fetcher interface {
	FetchDailyBars(symbol string, days int) ([]model.Bar, error)
	FetchQuote(symbol string) (model.Quote, error)
	Name() string
}
