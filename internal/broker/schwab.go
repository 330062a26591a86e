package broker

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"SilverSnap/internal/model"
)

const (
	schwabTraderURL = "https://api.schwabapi.com/trader/v1"
	schwabOAuthURL  = "https://api.schwabapi.com/v1/oauth/token"
)

// Credentials are the Schwab API secrets. The refresh token comes from the
// one-time interactive OAuth grant and is exchanged for short-lived access
// tokens here.
type Credentials struct {
	AppKey       string
	AppSecret    string
	RefreshToken string
	AccountHash  string
}

// Complete reports whether every field needed for live access is present.
func (c Credentials) Complete() bool {
	return c.AppKey != "" && c.AppSecret != "" && c.RefreshToken != "" && c.AccountHash != ""
}

// SchwabBroker implements Broker against the Schwab Trader API.
type SchwabBroker struct {
	creds  Credentials
	client *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewSchwabBroker creates a broker with optional proxy support.
func NewSchwabBroker(creds Credentials, proxyURL string) (*SchwabBroker, error) {
	if !creds.Complete() {
		return nil, fmt.Errorf("%w: schwab credentials incomplete", model.ErrInvalidConfiguration)
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &SchwabBroker{
		creds: creds,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}, nil
}

func (b *SchwabBroker) Name() string { return "schwab" }

// token returns a valid access token, refreshing it via the OAuth
// refresh-token grant when the cached one is near expiry.
func (b *SchwabBroker) token() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.accessToken != "" && time.Now().Before(b.tokenExpiry) {
		return b.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", b.creds.RefreshToken)

	req, err := http.NewRequest("POST", schwabOAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(b.creds.AppKey + ":" + b.creds.AppSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("schwab token refresh: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("schwab read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("schwab token refresh: status %d, body: %s", resp.StatusCode, string(body))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("schwab decode token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("schwab: empty access token")
	}

	b.accessToken = tok.AccessToken
	// Refresh a minute early rather than racing the expiry.
	b.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	log.Printf("[INFO] schwab access token refreshed, valid until %s", b.tokenExpiry.Format(time.RFC3339))
	return b.accessToken, nil
}

func (b *SchwabBroker) get(path string, out interface{}) error {
	token, err := b.token()
	if err != nil {
		return err
	}
	req, err := http.NewRequest("GET", schwabTraderURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("schwab GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("schwab read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("schwab GET %s: status %d, body: %s", path, resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

// schwabAccount mirrors the fields we need from the account endpoint.
type schwabAccount struct {
	SecuritiesAccount struct {
		Positions []struct {
			Instrument struct {
				Symbol string `json:"symbol"`
			} `json:"instrument"`
			LongQuantity float64 `json:"longQuantity"`
			AveragePrice float64 `json:"averagePrice"`
		} `json:"positions"`
		CurrentBalances struct {
			BuyingPower float64 `json:"buyingPower"`
			CashBalance float64 `json:"cashBalance"`
		} `json:"currentBalances"`
	} `json:"securitiesAccount"`
}

// Positions returns the account's long positions keyed by symbol. Entry time
// is not reported by the API; callers that need it keep their own record.
func (b *SchwabBroker) Positions() (map[string]model.Position, error) {
	var acct schwabAccount
	if err := b.get(fmt.Sprintf("/accounts/%s?fields=positions", b.creds.AccountHash), &acct); err != nil {
		return nil, err
	}

	out := make(map[string]model.Position)
	for _, p := range acct.SecuritiesAccount.Positions {
		if p.LongQuantity <= 0 {
			continue
		}
		out[p.Instrument.Symbol] = model.Position{
			Symbol:     p.Instrument.Symbol,
			EntryPrice: p.AveragePrice,
			Quantity:   int64(p.LongQuantity),
		}
	}
	return out, nil
}

func (b *SchwabBroker) BuyingPower() (float64, error) {
	var acct schwabAccount
	if err := b.get(fmt.Sprintf("/accounts/%s", b.creds.AccountHash), &acct); err != nil {
		return 0, err
	}
	bal := acct.SecuritiesAccount.CurrentBalances
	if bal.BuyingPower > 0 {
		return bal.BuyingPower, nil
	}
	return bal.CashBalance, nil
}

// Place submits a single-leg equity order. The order id comes back in the
// Location header of the 201 response.
func (b *SchwabBroker) Place(o Order) (*OrderResult, error) {
	token, err := b.token()
	if err != nil {
		return nil, err
	}

	session := o.Session
	if session == "" {
		session = "NORMAL"
	}
	payload := map[string]interface{}{
		"session":           session,
		"duration":          "DAY",
		"orderStrategyType": "SINGLE",
		"orderLegCollection": []map[string]interface{}{{
			"instruction": string(o.Side),
			"quantity":    o.Quantity,
			"instrument": map[string]string{
				"symbol":    o.Symbol,
				"assetType": "EQUITY",
			},
		}},
	}
	if o.Limit > 0 {
		payload["orderType"] = "LIMIT"
		payload["price"] = fmt.Sprintf("%.2f", o.Limit)
	} else {
		payload["orderType"] = "MARKET"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequest("POST",
		fmt.Sprintf("%s/accounts/%s/orders", schwabTraderURL, b.creds.AccountHash),
		bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schwab place order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("schwab place order: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	orderID := ""
	if loc := resp.Header.Get("Location"); loc != "" {
		parts := strings.Split(loc, "/")
		orderID = parts[len(parts)-1]
	}
	log.Printf("[INFO] schwab order accepted: %s %d %s (id=%s)", o.Side, o.Quantity, o.Symbol, orderID)

	return &OrderResult{
		OrderID:  orderID,
		Status:   "ACCEPTED",
		Symbol:   o.Symbol,
		Quantity: o.Quantity,
		Price:    o.Limit,
	}, nil
}
