package broker

import "SilverSnap/internal/model"

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Order is a pass-through instruction for the brokerage. Limit of zero means
// a market order. Session selects regular vs. extended-hours eligibility.
type Order struct {
	Symbol   string
	Quantity int64
	Side     Side
	Limit    float64
	Session  string // "NORMAL" or "SEAMLESS"
}

// OrderResult reports what the brokerage accepted.
type OrderResult struct {
	OrderID  string
	Status   string
	Symbol   string
	Quantity int64
	Price    float64
}

// Broker exposes the account state the engine reads and the order placement
// the executor writes. The core never talks to a Broker directly; the
// scheduler snapshots positions per cycle and hands them in.
type Broker interface {
	Positions() (map[string]model.Position, error)
	BuyingPower() (float64, error)
	Place(o Order) (*OrderResult, error)
	Name() string
}
