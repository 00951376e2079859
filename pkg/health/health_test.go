package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthyChecker(name string) Checker {
	return func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Name: name, Status: StatusHealthy, LastChecked: time.Now()}
	}
}

func unhealthyChecker(name string) Checker {
	return func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Name: name, Status: StatusUnhealthy, LastChecked: time.Now()}
	}
}

func TestAggregatorStartRunsInitialCheckSynchronously(t *testing.T) {
	a := New(map[string]Checker{"kernel": healthyChecker("kernel")}, time.Hour, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.Start(ctx)
	defer a.Stop()

	snap := a.Snapshot()
	assert.Equal(t, StatusHealthy, snap.Status)
	assert.Equal(t, 1, snap.Summary.Total)
	assert.Equal(t, 1, snap.Summary.Healthy)
}

func TestAggregatorIsUnhealthyWhenAnyComponentIs(t *testing.T) {
	a := New(map[string]Checker{
		"kernel": healthyChecker("kernel"),
		"bus":    unhealthyChecker("bus"),
	}, time.Hour, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.Start(ctx)
	defer a.Stop()

	snap := a.Snapshot()
	assert.Equal(t, StatusUnhealthy, snap.Status)
	assert.Equal(t, 1, snap.Summary.Unhealthy)
}

func TestTickCadenceCheckerFlagsStaleTicks(t *testing.T) {
	checker := TickCadenceChecker("kernel", func() (uint64, time.Time) {
		return 5, time.Now().Add(-time.Hour)
	}, time.Second)

	result := checker(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
}

func TestSubscriberLagCheckerDegradesOverLimit(t *testing.T) {
	checker := SubscriberLagChecker("telemetry", func() uint64 { return 100 }, 10)

	result := checker(context.Background())
	assert.Equal(t, StatusDegraded, result.Status)
}

func TestHandlerServesOKForHealthyAggregator(t *testing.T) {
	a := New(map[string]Checker{"kernel": healthyChecker("kernel")}, time.Hour, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)
	defer a.Stop()

	handler := NewHandler(a)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerServesServiceUnavailableForUnhealthyAggregator(t *testing.T) {
	a := New(map[string]Checker{"kernel": unhealthyChecker("kernel")}, time.Hour, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)
	defer a.Stop()

	handler := NewHandler(a)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
