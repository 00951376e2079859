package health

import (
	"context"
	"fmt"
	"time"
)

// TickCadenceChecker returns a Checker that reports unhealthy once more
// than staleAfter has elapsed since lastTick() last advanced, catching a
// wedged tick loop the way a liveness probe would.
func TickCadenceChecker(name string, lastTick func() (tick uint64, at time.Time), staleAfter time.Duration) Checker {
	return func(ctx context.Context) ComponentHealth {
		start := time.Now()
		tick, at := lastTick()
		age := time.Since(at)

		status := StatusHealthy
		detail := fmt.Sprintf("tick=%d age=%s", tick, age.Round(time.Millisecond))
		if age > staleAfter {
			status = StatusUnhealthy
			detail = fmt.Sprintf("tick=%d stale for %s (limit %s)", tick, age.Round(time.Millisecond), staleAfter)
		}

		return ComponentHealth{
			Name:        name,
			Status:      status,
			LastChecked: start,
			Latency:     time.Since(start),
			Detail:      detail,
		}
	}
}

// SubscriberLagChecker reports degraded once any subscriber's lag count
// exceeds maxLag, a symptom of a reader falling behind the bus (spec §7
// ObserverLagError).
func SubscriberLagChecker(name string, lagCount func() uint64, maxLag uint64) Checker {
	return func(ctx context.Context) ComponentHealth {
		start := time.Now()
		lag := lagCount()

		status := StatusHealthy
		if lag > maxLag {
			status = StatusDegraded
		}

		return ComponentHealth{
			Name:        name,
			Status:      status,
			LastChecked: start,
			Latency:     time.Since(start),
			Detail:      fmt.Sprintf("lag=%d limit=%d", lag, maxLag),
		}
	}
}
