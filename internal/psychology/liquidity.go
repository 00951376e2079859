package psychology

// LiquidityMeasures is the combined depth/spread/market-maker-count reading
// the Kernel takes from a single market before deciding whether to inject
// synthetic liquidity (spec §4.5).
type LiquidityMeasures struct {
	Depth         float64 // combined bid+ask resting quantity
	Spread        float64 // best ask - best bid, as a float
	MarketMakers  int     // number of distinct synthetic_mm-tagged orders resting
}

// Thresholds configures the liquidity-injection policy; below-floor values
// are supplied by kernel.Config's liquidityFloorDepth/liquidityFloorSpread
// (spec §6).
type Thresholds struct {
	FloorDepth  float64
	FloorSpread float64
}

// NeedsLiquidityInjection reports whether the Kernel should insert synthetic
// MM orders straddling the mid (spec §4.5): depth below floor, or spread
// above floor with no synthetic market-makers already resting.
func NeedsLiquidityInjection(m LiquidityMeasures, t Thresholds) bool {
	if m.Depth < t.FloorDepth {
		return true
	}
	if m.Spread > t.FloorSpread && m.MarketMakers == 0 {
		return true
	}
	return false
}
