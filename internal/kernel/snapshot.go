package kernel

import (
	"living-economy-arena/econsim/internal/agent"
	"living-economy-arena/econsim/internal/events"
	"living-economy-arena/econsim/internal/market"
	"living-economy-arena/econsim/internal/monetary"
	"living-economy-arena/econsim/internal/money"
	"living-economy-arena/econsim/internal/psychology"
	"living-economy-arena/econsim/internal/scarcity"
)

// MarketSnapshot is the read-side, decimal-as-string projection of a Market
// spec §6 describes for the snapshot query surface.
type MarketSnapshot struct {
	ID           string
	Name         string
	CurrentPrice string
	Supply       string
	Demand       string
	Volatility   float64
	Scarcity     float64
	BestBid      string
	BestAsk      string
	BidDepth     string
	AskDepth     string
}

// CommoditySnapshot is the read-side projection of a tracked Commodity.
type CommoditySnapshot struct {
	ID              string
	ScarcityLevel   float64
	PriceMultiplier float64
	CurrentReserves string
	InitialReserves string
}

// Snapshot is the full point-in-time view spec §6 exposes to a host
// surface, value-copied so a caller can hold it without racing the kernel.
type Snapshot struct {
	Tick        uint64
	Markets     []MarketSnapshot
	Psychology  psychology.State
	Monetary    monetary.State
	Commodities []CommoditySnapshot
	AgentCount  int
	RejectCount uint64
}

// Snapshot renders a consistent point-in-time read of the whole kernel.
func (k *Kernel) Snapshot() Snapshot {
	k.mu.Lock()
	defer k.mu.Unlock()

	markets := make([]MarketSnapshot, 0, len(k.marketOrder))
	for _, id := range k.marketOrder {
		markets = append(markets, marketSnapshotOf(k.markets[id]))
	}

	commodities := make([]CommoditySnapshot, 0)
	for _, c := range k.scarcity.All() {
		commodities = append(commodities, CommoditySnapshot{
			ID:              c.ID,
			ScarcityLevel:   c.ScarcityLevel,
			PriceMultiplier: c.PriceMultiplier,
			CurrentReserves: c.CurrentReserves.String(),
			InitialReserves: c.InitialReserves.String(),
		})
	}

	return Snapshot{
		Tick:        k.tick,
		Markets:     markets,
		Psychology:  k.psych.State(),
		Monetary:    k.monetary.State(),
		Commodities: commodities,
		AgentCount:  k.agents.Count(),
		RejectCount: k.rejectCount,
	}
}

func marketSnapshotOf(m *market.Market) MarketSnapshot {
	bestBid, bestAsk := "", ""
	if b := m.Book.BestBid(); b != nil && !b.IsMarketPriced() {
		bestBid = b.Price.String()
	}
	if a := m.Book.BestAsk(); a != nil && !a.IsMarketPriced() {
		bestAsk = a.Price.String()
	}

	return MarketSnapshot{
		ID:           m.ID,
		Name:         m.Name,
		CurrentPrice: m.CurrentPrice.String(),
		Supply:       m.Supply.String(),
		Demand:       m.Demand.String(),
		Volatility:   m.Volatility,
		Scarcity:     m.Scarcity,
		BestBid:      bestBid,
		BestAsk:      bestAsk,
		BidDepth:     m.Book.BidDepth().String(),
		AskDepth:     m.Book.AskDepth().String(),
	}
}

// MarketByID returns one market's snapshot, for host handlers that want a
// single market without paying for the full Snapshot.
func (k *Kernel) MarketByID(id string) (MarketSnapshot, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	m, ok := k.markets[id]
	if !ok {
		return MarketSnapshot{}, false
	}
	return marketSnapshotOf(m), true
}

// Commodity exposes a single commodity's live state for an external caller
// deciding whether to trigger a discovery event.
func (k *Kernel) Commodity(id string) (*scarcity.Commodity, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.scarcity.Get(id)
}

// AgentSnapshot is the read-side, decimal-as-string projection of an Agent's
// portfolio and psychology state spec §6 exposes for a single-agent query.
type AgentSnapshot struct {
	ID              string
	Wealth          string
	Portfolio       map[string]string // marketId -> quantity held
	Sentiment       float64
	Fear            float64
	Greed           float64
	Confidence      float64
	BehaviorProfile agent.BehaviorProfile
	IsActive        bool
	PendingActions  int
}

func agentSnapshotOf(a *agent.Agent) AgentSnapshot {
	portfolio := make(map[string]string, len(a.Portfolio))
	for marketID, qty := range a.Portfolio {
		portfolio[marketID] = qty.String()
	}
	return AgentSnapshot{
		ID:              a.ID,
		Wealth:          a.Wealth.String(),
		Portfolio:       portfolio,
		Sentiment:       a.Sentiment,
		Fear:            a.Fear,
		Greed:           a.Greed,
		Confidence:      a.Confidence,
		BehaviorProfile: a.BehaviorProfile,
		IsActive:        a.IsActive,
		PendingActions:  a.PendingCount(),
	}
}

// AgentByID returns one agent's portfolio snapshot, for host handlers
// serving spec §6's per-agent portfolio query.
func (k *Kernel) AgentByID(id string) (AgentSnapshot, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	a, ok := k.agents.Get(id)
	if !ok {
		return AgentSnapshot{}, false
	}
	return agentSnapshotOf(a), true
}

// TriggerDiscovery forwards to the scarcity engine under the kernel lock
// (spec §6) and publishes a DiscoveryEvent on success. A nil amount draws
// the engine's default 20-40%-of-initial random amount.
func (k *Kernel) TriggerDiscovery(commodityID string, amount *money.Money) (money.Money, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	added, err := k.scarcity.TriggerDiscovery(commodityID, amount)
	if err != nil {
		return added, err
	}
	c, _ := k.scarcity.Get(commodityID)
	k.bus.Publish(events.KindDiscovery, k.tick, events.DiscoveryEvent{
		CommodityID: commodityID,
		AmountAdded: added.String(),
		NewReserves: c.CurrentReserves.String(),
	})
	return added, nil
}
