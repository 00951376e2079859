package events

import "fmt"

// The five non-fatal error kinds of spec §7. Validation and Capacity are
// returned to the caller that triggered them. Arithmetic, ObserverLag and
// Budget are defined here but no kernel or bus path constructs them: a
// matcher panic is reported as a MarketFaultEvent, a full subscriber queue
// only raises that subscriber's lag counter, and a budget overrun is reported
// only as a TickOverrunEvent (TickOnce and Start do not return it). Fatal
// refuses to start the kernel.

// ValidationError is returned synchronously by Kernel.SubmitAction for an
// unknown or inactive agent, and by the agent registry for a duplicate id.
// A malformed action dropped during drain produces no error value; the
// kernel only increments its cumulative reject counter.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("validation: %s", e.Reason) }

// CapacityError is returned when a capacity limit (agent registry, per-market
// order book cap) is exceeded. No state changes.
type CapacityError struct {
	Resource string
	Limit    int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity: %s exceeded limit %d", e.Resource, e.Limit)
}

// ArithmeticError describes a decimal overflow or division-by-zero condition
// inside a market's pricer/matcher step. The kernel does not construct it; a
// panicking matcher is rolled back and reported as a MarketFaultEvent.
type ArithmeticError struct {
	MarketID string
	Reason   string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic fault in market %s: %s", e.MarketID, e.Reason)
}

// ObserverLagError describes a subscriber whose bounded queue is full. The
// Bus does not construct it: it drops the event for that subscriber only and
// increments the subscriber's lag counter.
type ObserverLagError struct {
	SubscriberID string
	Kind         Kind
}

func (e *ObserverLagError) Error() string {
	return fmt.Sprintf("observer %s lagged on channel %s", e.SubscriberID, e.Kind)
}

// BudgetError describes a tick that exceeded its wall-clock budget. The
// kernel does not return it; an overrun is published as a TickOverrunEvent.
type BudgetError struct {
	Tick      uint64
	BudgetMs  int
	ElapsedMs float64
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("tick %d exceeded budget: %.2fms > %dms", e.Tick, e.ElapsedMs, e.BudgetMs)
}

// FatalError marks configuration invalid at start(); the kernel refuses to
// start and surfaces this as the returned error.
type FatalError struct {
	Reason string
}

func (e *FatalError) Error() string { return fmt.Sprintf("fatal: %s", e.Reason) }
