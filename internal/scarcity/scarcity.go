// Package scarcity implements the Scarcity Engine of spec §4.4: commodity
// reserves, consumption, depletion, discovery events, and the scarcity
// level to price-multiplier mapping.
package scarcity

import (
	"errors"
	"fmt"
	"math/rand"

	"living-economy-arena/econsim/internal/money"
)

// Kind is the tagged sum spec §3 calls Commodity.type.
type Kind string

const (
	Finite    Kind = "finite"
	Renewable Kind = "renewable"
)

// DefaultK is the default scarcity-to-multiplier coefficient: 100% scarcity
// yields a 5x multiplier (spec §4.4: "1 + scarcityLevel*k, k default 4").
const DefaultK = 4.0

// Init configures one tracked Commodity at registration (spec §6
// commodities: [CommodityInit]).
type Init struct {
	ID                string
	Kind              Kind
	InitialReserves   money.Money
	ConsumptionRate   money.Money // applied once per tick
	CriticalThreshold money.Money
	K                 float64 // 0 means DefaultK
}

// Commodity is the spec §3 Commodity type. Reserves only decrease via
// consumption and only increase via discovery events.
type Commodity struct {
	ID                string
	Kind              Kind
	InitialReserves   money.Money
	CurrentReserves   money.Money
	ConsumptionRate   money.Money
	CriticalThreshold money.Money
	K                 float64
	ScarcityLevel     float64
	PriceMultiplier   float64

	armed bool // true once reserves have crossed back above threshold
}

// Engine owns every tracked Commodity and the seeded RNG default-discovery
// amounts are drawn from. The teacher's internal/simulation/order_generator.go
// holds its own rand.Rand instance (rand.New(rand.NewSource(seed))) rather
// than touching the global source so order generation is reproducible per
// seed; the scarcity engine's discovery amounts follow the same pattern so
// TriggerDiscovery("oil", nil) is reproducible given the same seed and call
// sequence (spec §4.4).
type Engine struct {
	commodities map[string]*Commodity
	rng         *rand.Rand
}

// NewEngine constructs a scarcity Engine with a seeded RNG.
func NewEngine(seed int64) *Engine {
	return &Engine{
		commodities: make(map[string]*Commodity),
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Register adds a tracked commodity.
func (e *Engine) Register(init Init) (*Commodity, error) {
	if init.ID == "" {
		return nil, errors.New("scarcity: commodity id cannot be empty")
	}
	if _, exists := e.commodities[init.ID]; exists {
		return nil, fmt.Errorf("scarcity: commodity %q already registered", init.ID)
	}
	if init.InitialReserves.IsNegative() || init.InitialReserves.IsZero() {
		return nil, errors.New("scarcity: initial reserves must be positive")
	}
	k := init.K
	if k == 0 {
		k = DefaultK
	}

	c := &Commodity{
		ID:                init.ID,
		Kind:              init.Kind,
		InitialReserves:   init.InitialReserves,
		CurrentReserves:   init.InitialReserves,
		ConsumptionRate:   init.ConsumptionRate,
		CriticalThreshold: init.CriticalThreshold,
		K:                 k,
		armed:             true,
	}
	recompute(c)
	e.commodities[init.ID] = c
	return c, nil
}

// Get returns a registered commodity by id.
func (e *Engine) Get(id string) (*Commodity, bool) {
	c, ok := e.commodities[id]
	return c, ok
}

// All returns every tracked commodity, for the Snapshot/Query API.
func (e *Engine) All() []*Commodity {
	out := make([]*Commodity, 0, len(e.commodities))
	for _, c := range e.commodities {
		out = append(out, c)
	}
	return out
}

// TickResult reports what happened to one commodity during a Tick call, so
// the kernel can decide which bus events to publish without the scarcity
// package importing events (keeping it dependency-free like market).
type TickResult struct {
	Commodity            *Commodity
	CrossedCritical      bool // fired critical_scarcity this tick
	ScarcityLevelChanged bool
}

// Tick applies one tick of consumption to every tracked commodity: reserves
// decrease by ConsumptionRate (never below zero), scarcityLevel and
// priceMultiplier are recomputed, and a downward crossing of
// CriticalThreshold is detected and reported exactly once per crossing
// (property 8) — rearmed only once reserves rise back above threshold,
// which happens via TriggerDiscovery.
func (e *Engine) Tick() []TickResult {
	results := make([]TickResult, 0, len(e.commodities))
	for _, c := range e.commodities {
		before := c.ScarcityLevel
		c.CurrentReserves = c.CurrentReserves.Sub(c.ConsumptionRate).Max(money.Zero)

		crossed := false
		if c.armed && !c.CriticalThreshold.IsZero() && c.CurrentReserves.LessThan(c.CriticalThreshold) {
			crossed = true
			c.armed = false
		}

		recompute(c)

		results = append(results, TickResult{
			Commodity:           c,
			CrossedCritical:      crossed,
			ScarcityLevelChanged: c.ScarcityLevel != before,
		})
	}
	return results
}

// TriggerDiscovery adds reserves to a commodity: amount if provided,
// otherwise a deterministic 20-40% of InitialReserves drawn from the
// engine's seeded RNG (spec §4.4). Reserves rising back above
// CriticalThreshold rearms the critical-scarcity trigger.
func (e *Engine) TriggerDiscovery(commodityID string, amount *money.Money) (money.Money, error) {
	c, ok := e.commodities[commodityID]
	if !ok {
		return money.Zero, fmt.Errorf("scarcity: unknown commodity %q", commodityID)
	}

	added := money.Zero
	if amount != nil {
		added = *amount
	} else {
		pct := 0.20 + e.rng.Float64()*0.20 // 20%-40%
		added = c.InitialReserves.MulFloat(pct)
	}

	c.CurrentReserves = c.CurrentReserves.Add(added)
	if !c.CriticalThreshold.IsZero() && c.CurrentReserves.GreaterThanOrEqual(c.CriticalThreshold) {
		c.armed = true
	}
	recompute(c)

	return added, nil
}

// recompute derives ScarcityLevel and PriceMultiplier from CurrentReserves.
func recompute(c *Commodity) {
	ratio := money.Ratio(c.CurrentReserves, c.InitialReserves, 1)
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	c.ScarcityLevel = 1 - ratio
	c.PriceMultiplier = 1 + c.ScarcityLevel*c.K
}
