// Package pricer implements the Supply-Demand Pricer of spec §4.2: an
// equilibrium price update from (supply, demand, currentPrice) with
// elasticity, damping, memory, and a max-change clamp.
package pricer

import (
	"living-economy-arena/econsim/internal/money"
)

// Params bundles the kernel-wide pricer constants of spec §4.2.
type Params struct {
	DampingFactor  float64 // default 0.95
	PriceMemory    float64 // default 0.1
	MaxPriceChange float64 // default 0.5
}

// DefaultParams returns the spec-documented defaults.
func DefaultParams() Params {
	return Params{DampingFactor: 0.95, PriceMemory: 0.1, MaxPriceChange: 0.5}
}

// Result is the tuple spec §4.2 says the pricer returns.
type Result struct {
	NewPrice         money.Money
	Ratio            float64
	DampedAdjustment float64
	Elasticity       float64
}

// Update computes the new equilibrium price. It is idempotent at
// equilibrium (ratio=1 => newPrice=currentPrice, property 4), monotone in
// demand and inversely monotone in supply (property 5), and respects the
// max-change clamp (property 6).
func Update(supply, demand, currentPrice money.Money, elasticity float64, p Params) Result {
	if supply.IsZero() {
		// "treat as +∞ capped -> multiply current price by (1+maxPriceChange)"
		newPrice := currentPrice.MulFloat(1 + p.MaxPriceChange)
		return Result{
			NewPrice:         newPrice,
			Ratio:            demandOverZeroSentinel,
			DampedAdjustment: p.MaxPriceChange,
			Elasticity:       elasticity,
		}
	}

	ratio := money.Ratio(demand, supply, demandOverZeroSentinel)
	rawAdjustment := (ratio - 1) * elasticity
	dampedAdjustment := rawAdjustment * p.DampingFactor

	targetPrice := currentPrice.MulFloat(1 + dampedAdjustment)
	delta := targetPrice.Sub(currentPrice)

	maxDelta := currentPrice.MulFloat(p.MaxPriceChange)
	delta = clampSignPreserving(delta, maxDelta)

	newPrice := currentPrice.MulFloat(p.PriceMemory).Add(
		currentPrice.Add(delta).MulFloat(1 - p.PriceMemory),
	)

	return Result{
		NewPrice:         newPrice,
		Ratio:            ratio,
		DampedAdjustment: dampedAdjustment,
		Elasticity:       elasticity,
	}
}

// demandOverZeroSentinel stands in for the "+∞ capped" ratio spec §4.2
// describes for a zero-supply market; callers only ever see it echoed back
// in Result.Ratio for diagnostics, never used in further arithmetic beyond
// the already-applied capped price above.
const demandOverZeroSentinel = 1e12

func clampSignPreserving(delta, bound money.Money) money.Money {
	absBound := bound.Abs()
	if delta.Abs().GreaterThan(absBound) {
		if delta.IsNegative() {
			return absBound.Neg()
		}
		return absBound
	}
	return delta
}

// SupplyAt evaluates the supply-at-price curve of spec §4.2's tail:
// supply_at(p) = baseSupply * (p/basePrice)^supplyElasticity.
func SupplyAt(baseSupply, basePrice, price money.Money, supplyElasticity float64) money.Money {
	ratio := money.Ratio(price, basePrice, demandOverZeroSentinel)
	factor := powFloat(ratio, supplyElasticity)
	return baseSupply.MulFloat(factor)
}

// DemandAt evaluates the demand-at-price curve: demand_at(p) = baseDemand *
// (basePrice/p)^demandElasticity.
func DemandAt(baseDemand, basePrice, price money.Money, demandElasticity float64) money.Money {
	ratio := money.Ratio(basePrice, price, demandOverZeroSentinel)
	factor := powFloat(ratio, demandElasticity)
	return baseDemand.MulFloat(factor)
}

// ClearingQuantity is the min of the supply-at-price and demand-at-price
// curves, per spec §4.2.
func ClearingQuantity(supplyAtPrice, demandAtPrice money.Money) money.Money {
	return supplyAtPrice.Min(demandAtPrice)
}
