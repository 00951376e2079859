// Package demoscenarios holds builders for the canned agent/market scripts
// spec §8 names S1-S7: each builder returns a ready kernel that this
// package's own tests drive. Grounded on the teacher's internal/demo package, which
// exposes named, repeatable load/chaos scripts driven against the same
// TradingEngineIntegration surface a real caller uses; here the target is
// kernel.Kernel and the scripts are economic rather than load/chaos.
package demoscenarios

import (
	"living-economy-arena/econsim/internal/agent"
	"living-economy-arena/econsim/internal/kernel"
	"living-economy-arena/econsim/internal/market"
	"living-economy-arena/econsim/internal/money"
	"living-economy-arena/econsim/internal/scarcity"
)

// Name identifies one of spec §8's seven canned scenarios.
type Name string

const (
	S1Equilibrium Name = "S1_equilibrium"
	S2Pressure    Name = "S2_pressure"
	S3Matching    Name = "S3_matching"
	S4Crossing    Name = "S4_crossing"
	S5Panic       Name = "S5_panic"
	S6Discovery   Name = "S6_discovery"
	S7Inflation   Name = "S7_inflation_spiral"
)

// All lists every scenario name, in spec order.
func All() []Name {
	return []Name{S1Equilibrium, S2Pressure, S3Matching, S4Crossing, S5Panic, S6Discovery, S7Inflation}
}

// Scenario is a ready-to-run kernel plus the number of ticks spec §8 drives
// it for. S3/S4 (pure order-book matching, no tick pipeline) and
// S6/S7 (single-subsystem updates, no full market) are better exercised as
// internal/market, internal/scarcity, and internal/monetary unit tests
// directly; this package provides the full-kernel scenarios (S1, S2, S5)
// that need the whole tick pipeline wired together, plus kernel-level
// builders for S6 and S7. S3 and S4 have no builder here.
type Scenario struct {
	Name  Name
	Ticks int
	*kernel.Kernel
}

// BuildS1Equilibrium constructs spec §8's S1: one market, food, basePrice
// 100, supply=demand=1,000,000, no agent actions. Run for 10 ticks; the
// caller asserts currentPrice stays within 0.01 of 100 throughout.
func BuildS1Equilibrium() (*Scenario, error) {
	cfg := baseConfig()
	cfg.Markets = []market.Config{foodMarket()}

	k, err := kernel.New(cfg, nil)
	if err != nil {
		return nil, err
	}
	return &Scenario{Name: S1Equilibrium, Ticks: 10, Kernel: k}, nil
}

// BuildS2Pressure constructs spec §8's S2: the same food market, with 50
// agents each submitting buy food qty=100 every tick for 5 ticks. The
// caller drives ticks and interleaves SubmitAction calls for each of the
// returned agents.
func BuildS2Pressure() (*Scenario, []*agent.Agent, error) {
	cfg := baseConfig()
	cfg.Markets = []market.Config{foodMarket()}

	k, err := kernel.New(cfg, nil)
	if err != nil {
		return nil, nil, err
	}

	agents := make([]*agent.Agent, 50)
	for i := range agents {
		a := agent.New(pressureAgentID(i), money.NewFromInt(1_000_000), agent.Aggressive)
		if err := k.RegisterAgent(a); err != nil {
			return nil, nil, err
		}
		agents[i] = a
	}

	return &Scenario{Name: S2Pressure, Ticks: 5, Kernel: k}, agents, nil
}

// BuildS5Panic constructs spec §8's S5: 50 agents set to sentiment=0.1,
// fear=0.9 before a single tick's psychology aggregation. The caller reads
// Snapshot().Psychology after one tick and asserts fearIndex>=0.8 and
// volatilityMultiplier>=1.5.
func BuildS5Panic() (*Scenario, error) {
	cfg := baseConfig()
	cfg.Markets = []market.Config{foodMarket()}

	k, err := kernel.New(cfg, nil)
	if err != nil {
		return nil, err
	}

	for i := 0; i < 50; i++ {
		a := agent.New(pressureAgentID(i), money.NewFromInt(1_000), agent.Balanced)
		a.Sentiment = 0.1
		a.Fear = 0.9
		if err := k.RegisterAgent(a); err != nil {
			return nil, err
		}
	}

	return &Scenario{Name: S5Panic, Ticks: 1, Kernel: k}, nil
}

// BuildS6Discovery constructs spec §8's S6: an oil commodity already
// consumed down to 40% of its initial reserves (scarcityLevel=0.6,
// priceMultiplier=3.4 per the default k=4), ready for the caller to invoke
// TriggerDiscovery("oil", nil) and assert both figures strictly drop.
func BuildS6Discovery() (*Scenario, error) {
	cfg := baseConfig()
	cfg.Commodities = []scarcity.Init{{
		ID:                "oil",
		Kind:              scarcity.Finite,
		InitialReserves:   money.NewFromInt(1000),
		ConsumptionRate:   money.NewFromInt(600),
		CriticalThreshold: money.NewFromInt(200),
	}}

	k, err := kernel.New(cfg, nil)
	if err != nil {
		return nil, err
	}
	// One tick of consumption takes reserves from 1,000 to 400; consumption
	// then stops so the caller's discovery is the only change.
	k.TickOnce()
	oil, _ := k.Commodity("oil")
	oil.ConsumptionRate = money.Zero

	return &Scenario{Name: S6Discovery, Ticks: 0, Kernel: k}, nil
}

// BuildS7InflationSpiral constructs spec §8's S7: a single market (unused
// by the scenario) plus one agent whose economicBehavior is spending=5,000,
// saving=100, borrowing=1,000. One priming tick (spending and borrowing
// 4,500) first seeds the money supply at 4,500 with velocity 1, so the
// caller's tick grows the supply 20% to 5,400. The caller drives one tick
// and asserts currentInflationRate > 0.02.
func BuildS7InflationSpiral() (*Scenario, error) {
	cfg := baseConfig()
	cfg.Markets = []market.Config{foodMarket()}
	cfg.BaseInflationRate = 0

	k, err := kernel.New(cfg, nil)
	if err != nil {
		return nil, err
	}

	a := agent.New("s7-agent", money.NewFromInt(10_000), agent.Balanced)
	a.EconomicBehavior.Spending = money.NewFromInt(4500)
	a.EconomicBehavior.Borrowing = money.NewFromInt(4500)
	if err := k.RegisterAgent(a); err != nil {
		return nil, err
	}
	k.TickOnce()

	a.EconomicBehavior.Spending = money.NewFromInt(5000)
	a.EconomicBehavior.Saving = money.NewFromInt(100)
	a.EconomicBehavior.Borrowing = money.NewFromInt(1000)

	return &Scenario{Name: S7Inflation, Ticks: 1, Kernel: k}, nil
}

func baseConfig() kernel.Config {
	cfg := kernel.DefaultConfig()
	cfg.LiquidityFloorDepth = 0 // scenarios assert on price/psychology/monetary, not synthetic MM noise
	cfg.LiquidityFloorSpread = 0
	return cfg
}

func foodMarket() market.Config {
	return market.Config{
		ID:               "food",
		Name:             "Food",
		BasePrice:        money.NewFromInt(100),
		InitialSupply:    money.NewFromInt(1_000_000),
		InitialDemand:    money.NewFromInt(1_000_000),
		Elasticity:       1.0,
		SupplyElasticity: 0.5,
		DemandElasticity: 0.5,
		HistoryCapacity:  16,
	}
}

func pressureAgentID(i int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	return "pressure-" + string(alphabet[i%len(alphabet)]) + string(rune('0'+i/len(alphabet)))
}

func moneyPtr(m money.Money) *money.Money { return &m }
