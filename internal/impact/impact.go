// Package impact implements the Kyle-lambda style Price-Impact Model of
// spec §4.3's tail: an estimate of how much a prospective order of a given
// size would move the price, given current volatility and market depth.
// This is a pure statistical estimate (spec §3's float carve-out) — callers
// may use it to decide whether to split an order; the matcher itself never
// consults it or splits anything.
package impact

import "math"

// Estimate computes impact = volatility / sqrt(marketDepth) * orderSize.
// A zero or negative depth is treated as vanishingly thin liquidity (impact
// saturates rather than producing +Inf/NaN).
func Estimate(volatility, marketDepth, orderSize float64) float64 {
	if marketDepth <= 0 {
		marketDepth = minDepth
	}
	return volatility / math.Sqrt(marketDepth) * orderSize
}

// minDepth is the floor substituted for a zero/negative depth so Estimate
// never divides by zero.
const minDepth = 1e-6
