package agent

import "living-economy-arena/econsim/internal/money"

// ActionType is the tagged sum spec §9's Design Notes call for: "Action =
// Buy{..} | Sell{..} | Cancel{..} | Hold", replacing ad-hoc object payloads.
type ActionType string

const (
	Buy    ActionType = "buy"
	Sell   ActionType = "sell"
	Cancel ActionType = "cancel"
	Hold   ActionType = "hold"
)

// Action is the spec §3 Action type submitted by an agent.
type Action struct {
	Type       ActionType
	MarketID   string
	Quantity   money.Money
	PriceLimit *money.Money // nil = market order; ignored for Cancel/Hold
	OrderTag   string       // identifies the resting order a Cancel targets
	Metadata   map[string]string
}

// NewBuy builds a Buy action. A nil priceLimit is a market order.
func NewBuy(marketID string, quantity money.Money, priceLimit *money.Money) Action {
	return Action{Type: Buy, MarketID: marketID, Quantity: quantity, PriceLimit: priceLimit}
}

// NewSell builds a Sell action. A nil priceLimit is a market order.
func NewSell(marketID string, quantity money.Money, priceLimit *money.Money) Action {
	return Action{Type: Sell, MarketID: marketID, Quantity: quantity, PriceLimit: priceLimit}
}

// NewCancel builds a Cancel action targeting a resting order tag.
func NewCancel(marketID, orderTag string) Action {
	return Action{Type: Cancel, MarketID: marketID, OrderTag: orderTag}
}

// NewHold builds a no-op Hold action.
func NewHold() Action {
	return Action{Type: Hold}
}
