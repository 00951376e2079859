package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"living-economy-arena/econsim/internal/money"
)

func TestNewAgentHasNeutralPsychology(t *testing.T) {
	a := New("a1", money.NewFromInt(1000), Balanced)

	assert.Equal(t, 0.5, a.Sentiment)
	assert.True(t, a.IsActive)
	assert.Equal(t, 0, a.PendingCount())
}

func TestDrainRespectsLimitAndFIFOOrder(t *testing.T) {
	a := New("a1", money.NewFromInt(1000), Balanced)
	for i := 0; i < 20; i++ {
		a.Enqueue(NewHold())
	}

	first := a.Drain(DefaultDrainPerTick)
	assert.Len(t, first, DefaultDrainPerTick)
	assert.Equal(t, 4, a.PendingCount())

	second := a.Drain(DefaultDrainPerTick)
	assert.Len(t, second, 4)
	assert.Equal(t, 0, a.PendingCount())
}

func TestDrainOnEmptyQueueReturnsNil(t *testing.T) {
	a := New("a1", money.NewFromInt(1000), Balanced)
	assert.Nil(t, a.Drain(16))
}

func TestDiscardPendingEmptiesQueue(t *testing.T) {
	a := New("a1", money.NewFromInt(1000), Balanced)
	a.Enqueue(NewHold())
	a.Enqueue(NewHold())

	a.DiscardPending()

	assert.Equal(t, 0, a.PendingCount())
}

func TestAdjustPositionUpdatesPortfolioAndWealth(t *testing.T) {
	a := New("a1", money.NewFromInt(1000), Balanced)

	a.AdjustPosition("oil", money.NewFromInt(10), money.NewFromInt(500))

	assert.True(t, a.QuantityIn("oil").Equal(money.NewFromInt(10)))
	assert.True(t, a.Wealth.Equal(money.NewFromInt(500)))
}

func TestRegistryEnforcesCapacity(t *testing.T) {
	r := NewRegistry(2)

	require.NoError(t, r.Register(New("a1", money.Zero, Balanced)))
	require.NoError(t, r.Register(New("a2", money.Zero, Balanced)))

	err := r.Register(New("a3", money.Zero, Balanced))
	require.Error(t, err)
	assert.Equal(t, 2, r.Count())
}

func TestRegistryRejectsDuplicateID(t *testing.T) {
	r := NewRegistry(10)
	require.NoError(t, r.Register(New("a1", money.Zero, Balanced)))

	err := r.Register(New("a1", money.Zero, Balanced))
	assert.Error(t, err)
}

func TestUnregisterDiscardsPendingAndRemovesFromOrder(t *testing.T) {
	r := NewRegistry(10)
	a := New("a1", money.Zero, Balanced)
	a.Enqueue(NewHold())
	require.NoError(t, r.Register(a))

	ok := r.Unregister("a1")

	assert.True(t, ok)
	_, found := r.Get("a1")
	assert.False(t, found)
	assert.Equal(t, 0, a.PendingCount())
}

func TestUnregisterUnknownIDReturnsFalse(t *testing.T) {
	r := NewRegistry(10)
	assert.False(t, r.Unregister("missing"))
}

func TestActiveExcludesInactiveAgents(t *testing.T) {
	r := NewRegistry(10)
	active := New("a1", money.Zero, Balanced)
	inactive := New("a2", money.Zero, Balanced)
	inactive.IsActive = false

	require.NoError(t, r.Register(active))
	require.NoError(t, r.Register(inactive))

	got := r.Active()
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)
}
