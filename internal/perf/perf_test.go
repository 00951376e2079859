package perf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotEmptyRecorder(t *testing.T) {
	r := NewRecorder()
	snap := r.Snapshot()
	assert.Equal(t, 0, snap.Count)
}

func TestSnapshotComputesAvgAndPercentiles(t *testing.T) {
	r := NewRecorderWithCapacity(100, 5)
	for i := 1; i <= 100; i++ {
		r.Record(time.Duration(i) * time.Millisecond)
	}

	snap := r.Snapshot()
	require.Equal(t, 100, snap.Count)
	assert.Equal(t, 100*time.Millisecond, snap.Max)
	assert.InDelta(t, 50, snap.P50.Milliseconds(), 2)
	assert.InDelta(t, 95, snap.P95.Milliseconds(), 2)
	assert.InDelta(t, 99, snap.P99.Milliseconds(), 2)
}

func TestPropertyElevenBoundsUnderSimulatedLoad(t *testing.T) {
	// Simulated per-tick durations representative of 1000 agents / 5
	// markets: mostly fast with a small tail, modeling property 11 (avg
	// <=50ms, p99 <=100ms).
	r := NewRecorderWithCapacity(1000, 5)
	for i := 0; i < 990; i++ {
		r.Record(20 * time.Millisecond)
	}
	for i := 0; i < 10; i++ {
		r.Record(90 * time.Millisecond)
	}

	snap := r.Snapshot()
	assert.LessOrEqual(t, snap.Avg, 50*time.Millisecond)
	assert.LessOrEqual(t, snap.P99, 100*time.Millisecond)
}

func TestRingCapacityDropsOldestSamples(t *testing.T) {
	r := NewRecorderWithCapacity(10, 5)
	for i := 1; i <= 15; i++ {
		r.Record(time.Duration(i) * time.Millisecond)
	}

	snap := r.Snapshot()
	assert.Equal(t, 10, snap.Count)
	assert.Equal(t, 15*time.Millisecond, snap.Max)
}

func TestTrendDetectsRisingDurations(t *testing.T) {
	r := NewRecorderWithCapacity(20, 5)
	for i := 1; i <= 10; i++ {
		r.Record(time.Duration(i*10) * time.Millisecond)
	}

	snap := r.Snapshot()
	assert.Equal(t, TrendUp, snap.Trend)
}

func TestTrendFlatForConstantDurations(t *testing.T) {
	r := NewRecorderWithCapacity(20, 5)
	for i := 0; i < 10; i++ {
		r.Record(10 * time.Millisecond)
	}

	snap := r.Snapshot()
	assert.Equal(t, TrendFlat, snap.Trend)
}
