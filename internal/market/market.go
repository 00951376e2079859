package market

import (
	"errors"
	"time"

	"living-economy-arena/econsim/internal/money"
)

// Config configures one Market at registration (spec §6 markets: [MarketInit]).
type Config struct {
	ID               string
	Name             string
	BasePrice        money.Money
	InitialSupply    money.Money
	InitialDemand    money.Money
	Elasticity       float64
	SupplyElasticity float64
	DemandElasticity float64
	HistoryCapacity  int
}

// Market is the spec §3 Market Table: per-market state exclusively owned by
// the kernel, generalizing the teacher's shared float64 order/trade
// repository (internal/repository/memory_order_repo.go) into one Decimal
// struct per symbol that owns its own Book and History.
type Market struct {
	ID               string
	Name             string
	BasePrice        money.Money // immutable after creation
	CurrentPrice     money.Money
	FundamentalValue money.Money
	Supply           money.Money
	Demand           money.Money
	Volatility       float64 // [0,1]
	Scarcity         float64 // [0,1]
	Elasticity       float64
	SupplyElasticity float64
	DemandElasticity float64

	Book    *Book
	History *History
}

// New constructs a Market from a Config, validating the invariants spec §3
// lists for a fresh market.
func New(cfg Config) (*Market, error) {
	if cfg.ID == "" {
		return nil, errors.New("market: id cannot be empty")
	}
	if !cfg.BasePrice.IsPositive() {
		return nil, errors.New("market: base price must be positive")
	}
	if cfg.InitialSupply.IsNegative() {
		return nil, errors.New("market: initial supply cannot be negative")
	}
	if cfg.InitialDemand.IsNegative() {
		return nil, errors.New("market: initial demand cannot be negative")
	}

	return &Market{
		ID:               cfg.ID,
		Name:             cfg.Name,
		BasePrice:        cfg.BasePrice,
		CurrentPrice:     cfg.BasePrice,
		FundamentalValue: cfg.BasePrice,
		Supply:           cfg.InitialSupply,
		Demand:           cfg.InitialDemand,
		Elasticity:       cfg.Elasticity,
		SupplyElasticity: cfg.SupplyElasticity,
		DemandElasticity: cfg.DemandElasticity,
		Book:             NewBook(),
		History:          NewHistory(cfg.HistoryCapacity),
	}, nil
}

// CheckInvariants verifies the spec §3 universal invariants (property 1):
// supply >= 0, demand >= 0, currentPrice > 0, and no crossed book.
func (m *Market) CheckInvariants() error {
	if m.Supply.IsNegative() {
		return errors.New("market: supply went negative")
	}
	if m.Demand.IsNegative() {
		return errors.New("market: demand went negative")
	}
	if !m.CurrentPrice.IsPositive() {
		return errors.New("market: current price is not positive")
	}
	if bid, ask := m.Book.BestBid(), m.Book.BestAsk(); bid != nil && ask != nil {
		if !bid.IsMarketPriced() && !ask.IsMarketPriced() && bid.Price.GreaterThanOrEqual(*ask.Price) {
			return errors.New("market: book left in a crossed state")
		}
	}
	return nil
}

// RecordTick pushes a (timestamp, price, volume) sample onto the history
// ring and updates CurrentPrice.
func (m *Market) RecordTick(newPrice, tickVolume money.Money, ts time.Time) {
	m.CurrentPrice = newPrice
	m.History.Push(HistoryPoint{Timestamp: ts, Price: newPrice, Volume: tickVolume})
}

// snapshotState is the subset of Market mutated during a tick, used by the
// kernel to roll back a market isolated by a panicking matcher or a failed
// invariant check. The kernel takes the checkpoint after draining the tick's
// actions into the book, so a rollback restores the pre-match state, not the
// pre-tick state.
type snapshotState struct {
	currentPrice money.Money
	supply       money.Money
	demand       money.Money
	volatility   float64
	scarcity     float64
	book         *Book
}

// Checkpoint captures the mutable state needed to roll back a failed tick.
func (m *Market) Checkpoint() snapshotState {
	return snapshotState{
		currentPrice: m.CurrentPrice,
		supply:       m.Supply,
		demand:       m.Demand,
		volatility:   m.Volatility,
		scarcity:     m.Scarcity,
		book:         m.Book.Clone(),
	}
}

// Restore rolls the market back to a prior Checkpoint.
func (m *Market) Restore(s snapshotState) {
	m.CurrentPrice = s.currentPrice
	m.Supply = s.supply
	m.Demand = s.demand
	m.Volatility = s.volatility
	m.Scarcity = s.scarcity
	m.Book = s.book
}
