// Package monetary implements the Monetary Engine of spec §4.6: aggregate
// money-supply and velocity tracking, a smoothed quantity-equation
// inflation update, and policy-trigger detection (rate hikes/cuts, QE/QT).
package monetary

import (
	"living-economy-arena/econsim/internal/money"
)

// Alpha is the smoothing coefficient in the inflation quantity equation
// (spec §4.6: "π_new = clamp(α·π_old + (1−α)·(...)), α ≈ 0.8").
const Alpha = 0.8

const (
	minInflation = -0.10
	maxInflation = 0.15

	rateHikeThreshold = 0.10
	rateCutThreshold  = -0.02
	qeThreshold       = -0.05
	qtThreshold       = 0.08

	// SustainedTicks is how many consecutive ticks a QE/QT-triggering
	// inflation reading must persist before the sustained trigger fires
	// (spec §4.6). "Sustained" means N consecutive qualifying ticks, not a
	// rolling average.
	SustainedTicks = 10

	// HistoryCapacity is the ring-buffer size for monetary readings.
	HistoryCapacity = 1024
)

// Trigger is a policy-trigger event kind (spec §4.6).
type Trigger string

const (
	RateHike             Trigger = "rate_hike"
	RateCut              Trigger = "rate_cut"
	QuantitativeEasing   Trigger = "quantitative_easing"
	QuantitativeTightening Trigger = "quantitative_tightening"
)

// Reading is one history-ring entry (spec §3 Monetary State's history ring).
type Reading struct {
	Tick          uint64
	MoneySupply   money.Money
	Velocity      money.Money
	InflationRate float64
}

// AgentAggregate is the per-tick sum of active-agent economicBehavior
// fields the Kernel hands to Update (spec §4.6).
type AgentAggregate struct {
	Spending   money.Money
	Saving     money.Money
	Investment money.Money
	Borrowing  money.Money
}

// State is the spec §3 Monetary State tuple.
type State struct {
	MoneySupply          money.Money
	Velocity             money.Money
	CurrentInflationRate float64
	BaseRate             money.Money
}

// Engine owns the running monetary State, its reading history, and the
// consecutive-tick counters that drive the "sustained" QE/QT triggers.
type Engine struct {
	state   State
	history []Reading
	head    int
	count   int

	qeStreak int
	qtStreak int
}

// New constructs a monetary Engine seeded with an initial money supply,
// velocity, and inflation rate (spec §6 baseInflationRate).
func New(initialSupply, initialVelocity, baseRate money.Money, initialInflation float64) *Engine {
	return &Engine{
		state: State{
			MoneySupply:          initialSupply,
			Velocity:             initialVelocity,
			CurrentInflationRate: initialInflation,
			BaseRate:             baseRate,
		},
		history: make([]Reading, HistoryCapacity),
	}
}

// State returns the current monetary state.
func (e *Engine) State() State {
	return e.state
}

// Update applies one tick's aggregate agent behavior (spec §4.6):
// moneySupply := moneySupply + borrowing - savingDelta + qeDelta, velocity
// := spending/moneySupply, and the smoothed quantity-equation inflation
// update. qeDelta is the amount of money the Kernel injected this tick via
// an active quantitative-easing policy (zero absent one); savingDelta is
// net new saving withdrawn from circulation. Returns any policy triggers
// fired this tick.
func (e *Engine) Update(tick uint64, agg AgentAggregate, qeDelta money.Money) []Trigger {
	prevSupply := e.state.MoneySupply
	prevVelocity := e.state.Velocity

	newSupply := prevSupply.Add(agg.Borrowing).Sub(agg.Saving).Add(qeDelta)
	newVelocity := money.Zero
	if newSupply.IsPositive() {
		newVelocity = agg.Spending.Div(newSupply)
	}

	deltaSupplyRatio := money.Ratio(newSupply.Sub(prevSupply), prevSupply, 0)
	deltaVelocityRatio := 0.0
	if !prevVelocity.IsZero() {
		deltaVelocityRatio = money.Ratio(newVelocity.Sub(prevVelocity), prevVelocity, 0)
	}

	rawInflation := Alpha*e.state.CurrentInflationRate + (1-Alpha)*(deltaSupplyRatio+deltaVelocityRatio)
	newInflation := clamp(rawInflation, minInflation, maxInflation)

	e.state.MoneySupply = newSupply
	e.state.Velocity = newVelocity
	e.state.CurrentInflationRate = newInflation

	e.pushHistory(Reading{Tick: tick, MoneySupply: newSupply, Velocity: newVelocity, InflationRate: newInflation})

	return e.evaluateTriggers(newInflation)
}

// evaluateTriggers implements spec §4.6's threshold table, including the
// 10-consecutive-tick "sustained" rule for QE/QT.
func (e *Engine) evaluateTriggers(inflation float64) []Trigger {
	var triggers []Trigger

	if inflation > rateHikeThreshold {
		triggers = append(triggers, RateHike)
	}
	if inflation < rateCutThreshold {
		triggers = append(triggers, RateCut)
	}

	if inflation < qeThreshold {
		e.qeStreak++
	} else {
		e.qeStreak = 0
	}
	if e.qeStreak >= SustainedTicks {
		triggers = append(triggers, QuantitativeEasing)
	}

	if inflation > qtThreshold {
		e.qtStreak++
	} else {
		e.qtStreak = 0
	}
	if e.qtStreak >= SustainedTicks {
		triggers = append(triggers, QuantitativeTightening)
	}

	return triggers
}

// History returns the stored readings oldest-first (spec §6 snapshot
// format: "ring buffers rendered oldest-first").
func (e *Engine) History() []Reading {
	out := make([]Reading, e.count)
	for i := 0; i < e.count; i++ {
		idx := (e.head - e.count + i + len(e.history)) % len(e.history)
		out[i] = e.history[idx]
	}
	return out
}

func (e *Engine) pushHistory(r Reading) {
	e.history[e.head] = r
	e.head = (e.head + 1) % len(e.history)
	if e.count < len(e.history) {
		e.count++
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
