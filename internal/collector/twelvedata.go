package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"SilverSnap/internal/model"
)

const twelveDataDefaultURL = "https://api.twelvedata.com"

// TwelveDataFetcher implements Fetcher using the Twelve Data REST API.
// Bars and quotes are cached briefly since the scheduler may evaluate the
// same symbols several times inside one window.
type TwelveDataFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	mu         sync.Mutex
	barCache   map[string]cachedBars
	quoteCache map[string]cachedQuote
}

type cachedBars struct {
	bars []model.Bar
	at   time.Time
}

type cachedQuote struct {
	quote model.Quote
	at    time.Time
}

// NewTwelveDataFetcher creates a fetcher with optional proxy support.
func NewTwelveDataFetcher(baseURL, apiKey, proxyURL string) *TwelveDataFetcher {
	if baseURL == "" {
		baseURL = twelveDataDefaultURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TwelveDataFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		barCache:   make(map[string]cachedBars),
		quoteCache: make(map[string]cachedQuote),
	}
}

func (f *TwelveDataFetcher) Name() string { return "twelvedata" }

// tdBar is the Twelve Data time_series value shape; all numbers arrive as
// strings.
type tdBar struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

type tdSeriesResponse struct {
	Values  []tdBar `json:"values"`
	Status  string  `json:"status"`
	Message string  `json:"message"`
}

func (f *TwelveDataFetcher) FetchDailyBars(symbol string, days int) ([]model.Bar, error) {
	cacheKey := fmt.Sprintf("%s/%d", symbol, days)
	f.mu.Lock()
	if c, ok := f.barCache[cacheKey]; ok && time.Since(c.at) < time.Minute {
		f.mu.Unlock()
		return c.bars, nil
	}
	f.mu.Unlock()

	endpoint := fmt.Sprintf("%s/time_series?symbol=%s&interval=1day&outputsize=%d&timezone=America/New_York&apikey=%s",
		f.BaseURL, url.QueryEscape(symbol), days, url.QueryEscape(f.APIKey))

	body, err := f.get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("twelvedata bars: %w", err)
	}

	var result tdSeriesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("twelvedata decode bars: %w", err)
	}
	if len(result.Values) == 0 {
		return nil, fmt.Errorf("twelvedata: no bars for %s: %s", symbol, result.Message)
	}

	bars := make([]model.Bar, 0, len(result.Values))
	for _, v := range result.Values {
		ts, err := parseTDTime(v.Datetime)
		if err != nil {
			return nil, fmt.Errorf("twelvedata parse time %q: %w", v.Datetime, err)
		}
		bars = append(bars, model.Bar{
			Time:   ts,
			Open:   parseFloat(v.Open),
			High:   parseFloat(v.High),
			Low:    parseFloat(v.Low),
			Close:  parseFloat(v.Close),
			Volume: parseFloat(v.Volume),
		})
	}
	// The API returns newest first.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	f.mu.Lock()
	f.barCache[cacheKey] = cachedBars{bars: bars, at: time.Now()}
	f.mu.Unlock()
	return bars, nil
}

// tdQuote is the Twelve Data quote shape.
type tdQuote struct {
	Symbol        string `json:"symbol"`
	Open          string `json:"open"`
	Low           string `json:"low"`
	Close         string `json:"close"`
	PreviousClose string `json:"previous_close"`
	IsMarketOpen  bool   `json:"is_market_open"`
	Code          int    `json:"code"`
	Message       string `json:"message"`
}

func (f *TwelveDataFetcher) FetchQuote(symbol string) (model.Quote, error) {
	f.mu.Lock()
	if c, ok := f.quoteCache[symbol]; ok && time.Since(c.at) < 30*time.Second {
		f.mu.Unlock()
		return c.quote, nil
	}
	f.mu.Unlock()

	endpoint := fmt.Sprintf("%s/quote?symbol=%s&apikey=%s",
		f.BaseURL, url.QueryEscape(symbol), url.QueryEscape(f.APIKey))

	body, err := f.get(endpoint)
	if err != nil {
		return model.Quote{}, fmt.Errorf("twelvedata quote: %w", err)
	}

	var result tdQuote
	if err := json.Unmarshal(body, &result); err != nil {
		return model.Quote{}, fmt.Errorf("twelvedata decode quote: %w", err)
	}
	if result.Code != 0 {
		return model.Quote{}, fmt.Errorf("twelvedata quote %s: %s", symbol, result.Message)
	}

	last := parseFloat(result.Close)
	quote := model.Quote{
		Symbol:        symbol,
		Last:          last,
		RegularClose:  parseFloat(result.PreviousClose),
		SessionOpen:   parseFloat(result.Open),
		SessionLow:    parseFloat(result.Low),
		ExtendedHours: !result.IsMarketOpen,
		Time:          time.Now(),
	}
	if quote.RegularClose == 0 {
		quote.RegularClose = last
	}
	if quote.SessionLow == 0 || quote.SessionLow > last {
		quote.SessionLow = last
	}

	f.mu.Lock()
	f.quoteCache[symbol] = cachedQuote{quote: quote, at: time.Now()}
	f.mu.Unlock()
	return quote, nil
}

func (f *TwelveDataFetcher) get(endpoint string) ([]byte, error) {
	resp, err := f.Client.Get(endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseTDTime(s string) (time.Time, error) {
	if len(s) > len("2006-01-02") {
		return time.Parse("2006-01-02 15:04:05", s)
	}
	return time.Parse("2006-01-02", s)
}
