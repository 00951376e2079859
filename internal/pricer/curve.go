package pricer

import "math"

// powFloat wraps math.Pow for the elasticity-exponent curve evaluations in
// SupplyAt/DemandAt, which spec §3 explicitly permits as a statistical/
// curve-fitting float computation.
func powFloat(base, exponent float64) float64 {
	return math.Pow(base, exponent)
}
