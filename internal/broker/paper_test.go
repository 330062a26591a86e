package broker

import (
	"path/filepath"
	"testing"
)

func newTestPaperBroker(t *testing.T, capital float64) (*PaperBroker, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	b, err := NewPaperBroker(path, capital)
	if err != nil {
		t.Fatalf("NewPaperBroker: %v", err)
	}
	return b, path
}

func TestPaperBroker_BuySellRoundTrip(t *testing.T) {
	b, _ := newTestPaperBroker(t, 1000)

	res, err := b.Place(Order{Symbol: "SLV", Quantity: 10, Side: Buy, Limit: 50})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if res.Status != "FILLED" || res.Price != 50 {
		t.Errorf("unexpected fill: %+v", res)
	}

	bp, err := b.BuyingPower()
	if err != nil {
		t.Fatalf("buying power: %v", err)
	}
	if bp != 500 {
		t.Errorf("cash after buy = %v, want 500", bp)
	}

	positions, err := b.Positions()
	if err != nil {
		t.Fatalf("positions: %v", err)
	}
	pos, ok := positions["SLV"]
	if !ok {
		t.Fatal("expected an SLV position after the buy")
	}
	if pos.Quantity != 10 || pos.EntryPrice != 50 {
		t.Errorf("position = %+v, want 10 @ 50", pos)
	}

	if _, err := b.Place(Order{Symbol: "SLV", Quantity: 10, Side: Sell, Limit: 55}); err != nil {
		t.Fatalf("sell: %v", err)
	}
	positions, _ = b.Positions()
	if _, ok := positions["SLV"]; ok {
		t.Error("position should be gone after a full sell")
	}
	bp, _ = b.BuyingPower()
	if bp != 1050 {
		t.Errorf("cash after round trip = %v, want 1050", bp)
	}
}

func TestPaperBroker_RejectsBadOrders(t *testing.T) {
	b, _ := newTestPaperBroker(t, 100)

	if _, err := b.Place(Order{Symbol: "SLV", Quantity: 10, Side: Buy, Limit: 0}); err == nil {
		t.Error("expected an error for a market order")
	}
	if _, err := b.Place(Order{Symbol: "SLV", Quantity: 0, Side: Buy, Limit: 50}); err == nil {
		t.Error("expected an error for zero quantity")
	}
	if _, err := b.Place(Order{Symbol: "SLV", Quantity: 10, Side: Buy, Limit: 50}); err == nil {
		t.Error("expected an error when cash cannot cover the order")
	}
	if _, err := b.Place(Order{Symbol: "SLV", Quantity: 1, Side: Sell, Limit: 50}); err == nil {
		t.Error("expected an error selling a position that does not exist")
	}
}

func TestPaperBroker_StateSurvivesRestart(t *testing.T) {
	b, path := newTestPaperBroker(t, 1000)
	if _, err := b.Place(Order{Symbol: "AGQ", Quantity: 4, Side: Buy, Limit: 25}); err != nil {
		t.Fatalf("buy: %v", err)
	}

	reopened, err := NewPaperBroker(path, 9999) // capital ignored when state exists
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	bp, _ := reopened.BuyingPower()
	if bp != 900 {
		t.Errorf("cash after restart = %v, want 900", bp)
	}
	positions, _ := reopened.Positions()
	if pos := positions["AGQ"]; pos.Quantity != 4 {
		t.Errorf("position after restart = %+v, want 4 shares", pos)
	}
}
