package broker

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"SilverSnap/internal/model"
)

// paperState is the persisted paper-trading ledger.
type paperState struct {
	Cash      float64                   `json:"cash"`
	Positions map[string]model.Position `json:"positions"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// PaperBroker simulates the brokerage against a JSON state file so dry runs
// survive restarts. Fills happen instantly at the order's limit price.
type PaperBroker struct {
	mu       sync.Mutex
	state    paperState
	filePath string
}

// NewPaperBroker loads or initializes the paper ledger with the given
// starting capital.
func NewPaperBroker(filePath string, capital float64) (*PaperBroker, error) {
	b := &PaperBroker{filePath: filePath}

	data, err := os.ReadFile(filePath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &b.state); err != nil {
			return nil, fmt.Errorf("parse paper state: %w", err)
		}
	case os.IsNotExist(err):
		b.state = paperState{Cash: capital}
	default:
		return nil, fmt.Errorf("read paper state: %w", err)
	}

	if b.state.Positions == nil {
		b.state.Positions = make(map[string]model.Position)
	}
	if err := b.save(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *PaperBroker) Name() string { return "paper" }

// Positions returns a copy of the simulated holdings.
func (b *PaperBroker) Positions() (map[string]model.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]model.Position, len(b.state.Positions))
	for sym, pos := range b.state.Positions {
		out[sym] = pos
	}
	return out, nil
}

func (b *PaperBroker) BuyingPower() (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Cash, nil
}

// Place fills the order immediately at its limit price. Market orders need a
// limit here too since the paper broker has no tape of its own.
func (b *PaperBroker) Place(o Order) (*OrderResult, error) {
	if o.Limit <= 0 {
		return nil, fmt.Errorf("paper: order for %s needs a limit price", o.Symbol)
	}
	if o.Quantity <= 0 {
		return nil, fmt.Errorf("paper: order for %s needs a positive quantity", o.Symbol)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cost := o.Limit * float64(o.Quantity)
	switch o.Side {
	case Buy:
		if cost > b.state.Cash {
			return nil, fmt.Errorf("paper: insufficient cash %.2f for %.2f %s", b.state.Cash, cost, o.Symbol)
		}
		b.state.Cash -= cost
		b.state.Positions[o.Symbol] = model.Position{
			Symbol:     o.Symbol,
			EntryPrice: o.Limit,
			EntryTime:  time.Now(),
			Quantity:   o.Quantity,
		}
	case Sell:
		pos, ok := b.state.Positions[o.Symbol]
		if !ok || pos.Quantity < o.Quantity {
			return nil, fmt.Errorf("paper: no %s position to sell", o.Symbol)
		}
		b.state.Cash += cost
		if pos.Quantity == o.Quantity {
			delete(b.state.Positions, o.Symbol)
		} else {
			pos.Quantity -= o.Quantity
			b.state.Positions[o.Symbol] = pos
		}
	default:
		return nil, fmt.Errorf("paper: unknown side %q", o.Side)
	}

	if err := b.save(); err != nil {
		log.Printf("[ERROR] save paper state: %v", err)
	}

	return &OrderResult{
		OrderID:  fmt.Sprintf("paper-%d", time.Now().UnixNano()),
		Status:   "FILLED",
		Symbol:   o.Symbol,
		Quantity: o.Quantity,
		Price:    o.Limit,
	}, nil
}

func (b *PaperBroker) save() error {
	b.state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(&b.state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(b.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(b.filePath, data, 0644)
}
