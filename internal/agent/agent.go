// Package agent implements the Agent, Action, and pending-action queue of
// spec §3, plus the capacity-limited registry the Kernel drives each tick.
// Behavior profiles are grounded on the teacher's order-flow-simulator's
// UserBehavior catalog (services/order-flow-simulator/internal/domain/
// user_simulator.go), generalized from order-frequency/trend-following
// trading tendencies to the spec's wealth/sentiment economic model.
package agent

import (
	"living-economy-arena/econsim/internal/money"
)

// BehaviorProfile is spec §3's behaviorProfile tag.
type BehaviorProfile string

const (
	Conservative BehaviorProfile = "conservative"
	Balanced     BehaviorProfile = "balanced"
	Aggressive   BehaviorProfile = "aggressive"
)

// EconomicBehavior is spec §3's economicBehavior record, the per-tick
// aggregate the Monetary Engine (internal/monetary) consumes.
type EconomicBehavior struct {
	Spending   money.Money
	Saving     money.Money
	Investment money.Money
	Borrowing  money.Money
}

// DefaultDrainPerTick is the default N in spec §4.1 step 1: "pop up to N
// (default 16) pending actions" per active agent per tick.
const DefaultDrainPerTick = 16

// Agent is the spec §3 Agent type. Wealth, portfolio, and the pending
// action queue are exclusively owned by the agent (spec §3 Ownership); the
// Kernel only ever reads a snapshot or drains the queue.
type Agent struct {
	ID               string
	Wealth           money.Money
	Portfolio        map[string]money.Money // marketId -> quantity held
	Sentiment        float64
	Fear             float64
	Greed            float64
	Confidence       float64
	BehaviorProfile  BehaviorProfile
	IsActive         bool
	EconomicBehavior EconomicBehavior

	pending []Action
}

// New constructs an Agent with neutral psychology and an empty portfolio.
func New(id string, wealth money.Money, profile BehaviorProfile) *Agent {
	return &Agent{
		ID:              id,
		Wealth:          wealth,
		Portfolio:       make(map[string]money.Money),
		Sentiment:       0.5,
		Fear:            0.5,
		Greed:           0.5,
		Confidence:      0.5,
		BehaviorProfile: profile,
		IsActive:        true,
	}
}

// Enqueue appends a pending action; unbounded by design (spec names no
// per-agent queue cap, only the per-tick drain limit).
func (a *Agent) Enqueue(action Action) {
	a.pending = append(a.pending, action)
}

// PendingCount reports how many actions are queued.
func (a *Agent) PendingCount() int {
	return len(a.pending)
}

// Drain pops up to n pending actions in FIFO order (spec §4.1 step 1).
func (a *Agent) Drain(n int) []Action {
	if n <= 0 || len(a.pending) == 0 {
		return nil
	}
	if n > len(a.pending) {
		n = len(a.pending)
	}
	drained := a.pending[:n]
	a.pending = a.pending[n:]
	return drained
}

// DiscardPending empties the queue without processing it (spec §3:
// "destroyed on unregister_agent: pending actions discarded").
func (a *Agent) DiscardPending() {
	a.pending = nil
}

// QuantityIn returns the agent's held quantity in a market, zero if none.
func (a *Agent) QuantityIn(marketID string) money.Money {
	q, ok := a.Portfolio[marketID]
	if !ok {
		return money.Zero
	}
	return q
}

// CanAfford reports whether the agent's wealth covers cost without going
// negative (spec §4.1 step 2's buyer-side settlement floor).
func (a *Agent) CanAfford(cost money.Money) bool {
	return a.Wealth.GreaterThanOrEqual(cost)
}

// CanDeliver reports whether the agent holds at least quantity in marketID
// (spec §4.1 step 2's seller-side settlement floor).
func (a *Agent) CanDeliver(marketID string, quantity money.Money) bool {
	return a.QuantityIn(marketID).GreaterThanOrEqual(quantity)
}

// AdjustPosition mutates the agent's held quantity and wealth after a
// settled trade. signedQuantity is positive for a buy fill, negative for a
// sell fill; cost is the signed cash flow (positive cash spent on a buy,
// negative i.e. cash received on a sell). Callers must check CanAfford /
// CanDeliver first; AdjustPosition itself applies unconditionally and will
// drive wealth or portfolio negative if asked to.
func (a *Agent) AdjustPosition(marketID string, signedQuantity, cost money.Money) {
	a.Portfolio[marketID] = a.QuantityIn(marketID).Add(signedQuantity)
	a.Wealth = a.Wealth.Sub(cost)
}
