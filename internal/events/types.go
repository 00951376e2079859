// Package events holds the typed event sum the kernel publishes, the error
// taxonomy of spec §7, and the in-process event bus of spec §4.7.
//
// This replaces the teacher's runtime-dispatch emitters (map[string]any
// payloads published over Redis channels named by a raw string) with a
// compile-time-known sum type per Design Notes §9: every payload is a
// concrete struct, and Kind is a closed enum.
package events

import "time"

// Kind identifies which event channel a payload belongs to.
type Kind string

const (
	KindTick             Kind = "tick"
	KindTrade            Kind = "trade"
	KindPriceUpdate      Kind = "price_update"
	KindPsychology       Kind = "psychology"
	KindMonetaryPolicy   Kind = "monetary_policy"
	KindScarcity         Kind = "scarcity"
	KindDiscovery        Kind = "discovery"
	KindCriticalScarcity Kind = "critical_scarcity"
	KindTickOverrun      Kind = "tick_overrun"
	KindMarketFault      Kind = "market_fault"
)

// Envelope wraps every published payload with the metadata spec §6 requires
// of observer callbacks: tick index, timestamp, and a monotonically
// increasing sequence number (unique per bus, not per channel).
type Envelope struct {
	Kind      Kind
	Seq       uint64
	Tick      uint64
	Timestamp time.Time
	Payload   any
}

// TickEvent is published once per tick after the pipeline completes.
type TickEvent struct {
	Tick           uint64
	ProcessingTime time.Duration
	OrdersDrained  int
	TradesExecuted int
	RejectedCount  int
	MarketFaults   int
}

// TradeEvent mirrors a settled market.Trade without importing the market
// package (kept dependency-free so events has no cycle back into market).
type TradeEvent struct {
	MarketID string
	BuyerID  string
	SellerID string
	Price    string // exact decimal string, per spec §6 snapshot format
	Quantity string
	Tick     uint64
}

// PriceUpdateEvent is published whenever the pricer moves a market's price.
type PriceUpdateEvent struct {
	MarketID     string
	OldPrice     string
	NewPrice     string
	Ratio        float64
	DampedAdjust float64
}

// PsychologyEvent carries the aggregate psychology state each tick.
type PsychologyEvent struct {
	GlobalSentiment     float64
	FearIndex           float64
	GreedIndex          float64
	ConfidenceIndex     float64
	HerdingFactor       float64
	VolatilityMultiplier float64
	Triggered           bool
	TriggerLabel        string
}

// MonetaryPolicyEvent is published when the monetary engine detects a policy
// trigger (spec §4.6). Mutation is the event's business: it never touches
// market prices directly.
type MonetaryPolicyEvent struct {
	Trigger         string // rate_hike | rate_cut | quantitative_easing | quantitative_tightening
	InflationRate   float64
	MoneySupply     string
	Velocity        string
}

// ScarcityEvent is published every tick a tracked commodity's scarcity level
// changes.
type ScarcityEvent struct {
	CommodityID     string
	ScarcityLevel   float64
	PriceMultiplier float64
	CurrentReserves string
}

// DiscoveryEvent is published by Kernel.TriggerDiscovery.
type DiscoveryEvent struct {
	CommodityID string
	AmountAdded string
	NewReserves string
}

// CriticalScarcityEvent fires exactly once per downward crossing of a
// commodity's critical threshold (spec §4.4, property 8).
type CriticalScarcityEvent struct {
	CommodityID string
	Reserves    string
	Threshold   string
}

// TickOverrunEvent fires when a tick exceeds its wall-clock budget (spec §5).
type TickOverrunEvent struct {
	Tick        uint64
	BudgetMs    int
	ElapsedMs   float64
	SkippedFrom string // which pipeline step was skipped
}

// MarketFaultEvent fires when a panic inside a market's matcher, or a
// failed CheckInvariants after matching, isolates that market for the tick
// (spec §4.1 failure policy).
type MarketFaultEvent struct {
	MarketID string
	Tick     uint64
	Reason   string
}
