package pricer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"living-economy-arena/econsim/internal/money"
)

func TestEquilibriumIsFixedPoint(t *testing.T) {
	current := money.NewFromInt(100)
	result := Update(money.NewFromInt(1_000_000), money.NewFromInt(1_000_000), current, 0.5, DefaultParams())
	assert.True(t, result.NewPrice.Equal(current), "expected %s == %s", result.NewPrice, current)
}

func TestMonotoneInDemand(t *testing.T) {
	current := money.NewFromInt(100)
	params := DefaultParams()

	low := Update(money.NewFromInt(1000), money.NewFromInt(900), current, 0.5, params)
	high := Update(money.NewFromInt(1000), money.NewFromInt(1200), current, 0.5, params)

	assert.True(t, high.NewPrice.GreaterThanOrEqual(low.NewPrice))
}

func TestInverselyMonotoneInSupply(t *testing.T) {
	current := money.NewFromInt(100)
	params := DefaultParams()

	lowSupply := Update(money.NewFromInt(800), money.NewFromInt(1000), current, 0.5, params)
	highSupply := Update(money.NewFromInt(1200), money.NewFromInt(1000), current, 0.5, params)

	assert.True(t, lowSupply.NewPrice.GreaterThanOrEqual(highSupply.NewPrice))
}

func TestMaxChangeClamp(t *testing.T) {
	current := money.NewFromInt(100)
	params := DefaultParams()

	result := Update(money.NewFromInt(1), money.NewFromInt(1_000_000), current, 5.0, params)

	maxDelta := current.MulFloat(params.MaxPriceChange)
	actualDelta := result.NewPrice.Sub(current).Abs()
	assert.True(t, actualDelta.LessThanOrEqual(maxDelta))
}

func TestZeroSupplyCapsAtMaxChange(t *testing.T) {
	current := money.NewFromInt(100)
	params := DefaultParams()

	result := Update(money.Zero, money.NewFromInt(500), current, 1.0, params)
	expected := current.MulFloat(1 + params.MaxPriceChange)
	assert.True(t, result.NewPrice.Equal(expected))
}

func TestClearingQuantityIsMinOfCurves(t *testing.T) {
	basePrice := money.NewFromInt(100)
	baseSupply := money.NewFromInt(1000)
	baseDemand := money.NewFromInt(1000)

	supplyAt := SupplyAt(baseSupply, basePrice, money.NewFromInt(120), 1.2)
	demandAt := DemandAt(baseDemand, basePrice, money.NewFromInt(120), 0.8)

	clearing := ClearingQuantity(supplyAt, demandAt)
	assert.True(t, clearing.Equal(supplyAt.Min(demandAt)))
}
