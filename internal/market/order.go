// Package market holds the per-market state spec §3 names the Market Table:
// order, trade, and order-book types, the matching loop of spec §4.3, and
// the ring-buffered price/volume history. It generalizes the teacher's
// internal/domain (Order, Trade) and internal/engine (PriceTimeOrderMatcher,
// TradingEngine.GetOrderBook) from a single shared float64 order repository
// to Decimal-valued, per-market-owned state.
package market

import (
	"errors"
	"time"

	"living-economy-arena/econsim/internal/money"
)

// Side is the tagged sum spec §3 calls Order.side.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// OrderKind is the tagged sum spec §3 calls Order.kind.
type OrderKind string

const (
	KindLimit       OrderKind = "limit"
	KindMarket      OrderKind = "market"
	KindSyntheticMM OrderKind = "synthetic_mm"
)

// Order is the spec §3 Order type. Price is nil for a market order. Orders
// are created by agent-action conversion, inserted into a Book, partially or
// fully consumed by matches, or cancelled explicitly; they are never mutated
// by anyone but the Market (via Book) that owns them.
type Order struct {
	ID        string
	AgentID   string
	MarketID  string
	Side      Side
	Price     *money.Money
	Quantity  money.Money
	Timestamp time.Time
	Kind      OrderKind
}

// NewLimitOrder constructs and validates a resting limit order.
func NewLimitOrder(id, agentID, marketID string, side Side, price, quantity money.Money, ts time.Time) (*Order, error) {
	o := &Order{
		ID:        id,
		AgentID:   agentID,
		MarketID:  marketID,
		Side:      side,
		Price:     &price,
		Quantity:  quantity,
		Timestamp: ts,
		Kind:      KindLimit,
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// NewMarketOrder constructs and validates an immediate-execution order with
// no limit price.
func NewMarketOrder(id, agentID, marketID string, side Side, quantity money.Money, ts time.Time) (*Order, error) {
	o := &Order{
		ID:        id,
		AgentID:   agentID,
		MarketID:  marketID,
		Side:      side,
		Quantity:  quantity,
		Timestamp: ts,
		Kind:      KindMarket,
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// NewSyntheticMMOrder constructs a kernel-inserted liquidity order (spec
// §4.5). Identical in matching behavior to a limit order once in the book;
// tagged so it can be identified and later removed by the kernel.
func NewSyntheticMMOrder(id, marketID string, side Side, price, quantity money.Money, ts time.Time) *Order {
	return &Order{
		ID:        id,
		AgentID:   "",
		MarketID:  marketID,
		Side:      side,
		Price:     &price,
		Quantity:  quantity,
		Timestamp: ts,
		Kind:      KindSyntheticMM,
	}
}

func (o *Order) validate() error {
	if o.ID == "" {
		return errors.New("order: id cannot be empty")
	}
	if o.MarketID == "" {
		return errors.New("order: market id cannot be empty")
	}
	if o.Side != Buy && o.Side != Sell {
		return errors.New("order: invalid side")
	}
	if !o.Quantity.IsPositive() {
		return errors.New("order: quantity must be positive")
	}
	if o.Kind == KindLimit {
		if o.Price == nil || !o.Price.IsPositive() {
			return errors.New("order: limit orders must have a price greater than zero")
		}
	}
	return nil
}

// IsMarketPriced reports whether o has no limit price (market or, in theory,
// a misconfigured synthetic order).
func (o *Order) IsMarketPriced() bool {
	return o.Price == nil
}

// effectivePrice returns the price used for sort/cross comparisons, treating
// a missing price as +inf for a buy and 0 for a sell (spec §4.3).
func (o *Order) effectivePrice() money.Money {
	if o.Price != nil {
		return *o.Price
	}
	if o.Side == Buy {
		return effectiveInfinity
	}
	return money.Zero
}

// effectiveInfinity stands in for +∞ when comparing a market buy order's
// price; it is never displayed or arithmetic'd against money values other
// than in a Cmp, so an implausibly large finite value is sufficient.
var effectiveInfinity = money.NewFromInt(1_000_000_000_000)
