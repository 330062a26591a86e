package collector

import (
	"fmt"
	"time"

	"SilverSnap/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars   map[string][]model.Bar
	Quotes map[string]model.Quote
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(symbol string, days int) ([]model.Bar, error) {
	bars, ok := m.Bars[symbol]
	if !ok {
		return nil, fmt.Errorf("mock: no bars for %s", symbol)
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

func (m *MockFetcher) FetchQuote(symbol string) (model.Quote, error) {
	q, ok := m.Quotes[symbol]
	if !ok {
		return model.Quote{}, fmt.Errorf("mock: no quote for %s", symbol)
	}
	return q, nil
}

// Collector gathers the market snapshot one evaluation cycle consumes:
// reference history for the filters plus live prices for both instruments.
type Collector struct {
	Fetcher      Fetcher
	Reference    string
	Conservative string
	Leveraged    string
	LookbackDays int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, reference, conservative, leveraged string, lookbackDays int) *Collector {
	return &Collector{
		Fetcher:      fetcher,
		Reference:    reference,
		Conservative: conservative,
		Leveraged:    leveraged,
		LookbackDays: lookbackDays,
	}
}

// Collect fetches reference bars and quotes for all three symbols. The
// reference quote doubles as the conservative quote when the symbols match,
// which they do in the default SLV configuration.
func (c *Collector) Collect() (*model.MarketSnapshot, error) {
	bars, err := c.Fetcher.FetchDailyBars(c.Reference, c.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("fetch reference bars: %w", err)
	}

	refQuote, err := c.Fetcher.FetchQuote(c.Reference)
	if err != nil {
		return nil, fmt.Errorf("fetch reference quote: %w", err)
	}

	consPrice := refQuote.Last
	if c.Conservative != c.Reference {
		q, err := c.Fetcher.FetchQuote(c.Conservative)
		if err != nil {
			return nil, fmt.Errorf("fetch conservative quote: %w", err)
		}
		consPrice = q.Last
	}

	levQuote, err := c.Fetcher.FetchQuote(c.Leveraged)
	if err != nil {
		return nil, fmt.Errorf("fetch leveraged quote: %w", err)
	}

	return &model.MarketSnapshot{
		Reference:         model.Series{Symbol: c.Reference, Bars: bars},
		ReferenceQuote:    refQuote,
		ConservativePrice: consPrice,
		LeveragedPrice:    levQuote.Last,
		FetchedAt:         time.Now(),
	}, nil
}
