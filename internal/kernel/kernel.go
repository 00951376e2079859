// Package kernel implements the Simulation Kernel of spec §4.1: the
// orchestrator that owns every Market and Agent, drains queued actions,
// matches and reprices each market, folds psychology and monetary state,
// applies scarcity consumption, and publishes the tick's events. Its
// lifecycle and dependency-wiring style is grounded on the teacher's
// internal/app.Application (Start/Stop with a context, waitgroup, and
// mutex-guarded running flag) and internal/engine.TradingEngine (a single
// mutex-guarded orchestrator composing narrower collaborators).
package kernel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"living-economy-arena/econsim/internal/agent"
	"living-economy-arena/econsim/internal/events"
	"living-economy-arena/econsim/internal/market"
	"living-economy-arena/econsim/internal/monetary"
	"living-economy-arena/econsim/internal/money"
	"living-economy-arena/econsim/internal/perf"
	"living-economy-arena/econsim/internal/pricer"
	"living-economy-arena/econsim/internal/psychology"
	"living-economy-arena/econsim/internal/scarcity"
)

// Kernel is the Simulation Kernel. It exclusively owns every Market and the
// Agent registry (spec §3 Ownership); external callers only ever submit
// actions, subscribe to the event bus, or read a Snapshot.
type Kernel struct {
	cfg    Config
	logger *slog.Logger

	bus *events.Bus

	agents      *agent.Registry
	markets     map[string]*market.Market
	marketOrder []string

	psych    *psychology.Aggregator
	monetary *monetary.Engine
	scarcity *scarcity.Engine
	perf     *perf.Recorder

	pricerParams pricer.Params

	mu          sync.Mutex
	tick        uint64
	rejectCount uint64
	orderSeq    uint64

	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
}

// New constructs a Kernel from cfg. It validates every registered Market
// and Commodity config and returns a FatalError if any is invalid (spec §7:
// "Fatal: ... refuses to start").
func New(cfg Config, logger *slog.Logger) (*Kernel, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAgents == 0 {
		return nil, &events.FatalError{Reason: "maxAgents must be positive"}
	}

	k := &Kernel{
		cfg:          cfg,
		logger:       logger,
		bus:          events.NewBus(),
		agents:       agent.NewRegistry(cfg.MaxAgents),
		markets:      make(map[string]*market.Market),
		psych:        psychology.New(),
		monetary:     monetary.New(money.Zero, money.Zero, money.Zero, cfg.BaseInflationRate),
		scarcity:     scarcity.NewEngine(cfg.ScarcitySeed),
		perf:         perf.NewRecorder(),
		pricerParams: pricer.Params{DampingFactor: cfg.DampingFactor, PriceMemory: cfg.PriceMemory, MaxPriceChange: cfg.MaxPriceChange},
	}

	for _, mc := range cfg.Markets {
		if mc.HistoryCapacity == 0 {
			mc.HistoryCapacity = cfg.HistoryCapacity
		}
		if err := k.RegisterMarket(mc); err != nil {
			return nil, &events.FatalError{Reason: fmt.Sprintf("invalid market %q: %v", mc.ID, err)}
		}
	}
	for _, cc := range cfg.Commodities {
		if _, err := k.scarcity.Register(cc); err != nil {
			return nil, &events.FatalError{Reason: fmt.Sprintf("invalid commodity %q: %v", cc.ID, err)}
		}
	}

	return k, nil
}

// RegisterMarket adds a new Market, usable both at construction time and
// while the kernel is running (a market added mid-run starts trading on the
// next tick).
func (k *Kernel) RegisterMarket(cfg market.Config) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.markets[cfg.ID]; exists {
		return fmt.Errorf("kernel: market %q already registered", cfg.ID)
	}
	m, err := market.New(cfg)
	if err != nil {
		return err
	}
	k.markets[cfg.ID] = m
	k.marketOrder = append(k.marketOrder, cfg.ID)
	return nil
}

// RegisterAgent adds a new Agent to the registry (spec §3). Returns a
// *events.CapacityError if the registry is full.
func (k *Kernel) RegisterAgent(a *agent.Agent) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.agents.Register(a)
}

// UnregisterAgent removes an agent: its pending actions are discarded and
// any resting orders it owns are cancelled from every market's book (spec
// §3: "destroyed on unregister_agent: pending actions discarded, open
// orders cancelled").
func (k *Kernel) UnregisterAgent(id string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	ok := k.agents.Unregister(id)
	if !ok {
		return false
	}
	for _, m := range k.markets {
		cancelOrdersByAgent(m.Book, id)
	}
	return true
}

func cancelOrdersByAgent(b *market.Book, agentID string) {
	keep := func(orders []*market.Order) []*market.Order {
		out := orders[:0]
		for _, o := range orders {
			if o.AgentID != agentID {
				out = append(out, o)
			}
		}
		return out
	}
	b.Bids = keep(b.Bids)
	b.Asks = keep(b.Asks)
}

// SubmitAction enqueues an action on behalf of agentID (spec §6: "Agents
// call submit_action(id, action)"). Unknown or inactive agents are a
// ValidationError returned synchronously; a malformed action (bad market,
// non-positive quantity) is instead dropped silently during drain and only
// counted (spec §7), since validating it here would require the kernel to
// already know about markets the agent references by id, which is exactly
// what drain-time validation checks. A buy or sell naming a market already
// at its order-book cap is rejected here with a CapacityError (spec §7:
// "order-book per-market cap exceeded. Returned to caller; no state
// change"), since the cap is knowable without draining.
func (k *Kernel) SubmitAction(agentID string, a agent.Action) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	ag, ok := k.agents.Get(agentID)
	if !ok || !ag.IsActive {
		return &events.ValidationError{Reason: fmt.Sprintf("unknown or inactive agent %q", agentID)}
	}

	if a.Type == agent.Buy || a.Type == agent.Sell {
		if m, ok := k.markets[a.MarketID]; ok {
			if cap := k.cfg.MaxOrdersPerMarket; cap > 0 && len(m.Book.Bids)+len(m.Book.Asks) >= cap {
				return &events.CapacityError{Resource: fmt.Sprintf("order_book:%s", a.MarketID), Limit: cap}
			}
		}
	}

	ag.Enqueue(a)
	return nil
}

// Subscribe registers an event-bus subscriber for the given kind (spec
// §4.7/§6).
func (k *Kernel) Subscribe(kind events.Kind) *events.Subscription {
	return k.bus.Subscribe(kind)
}

// Unsubscribe removes a subscription.
func (k *Kernel) Unsubscribe(sub *events.Subscription) {
	k.bus.Unsubscribe(sub)
}

// TickCount returns the number of ticks processed so far.
func (k *Kernel) TickCount() uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.tick
}

// RejectCount returns the cumulative count of actions dropped as invalid.
func (k *Kernel) RejectCount() uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.rejectCount
}

// PerfSnapshot reports tick-processing-time statistics (internal/perf).
func (k *Kernel) PerfSnapshot() perf.Snapshot {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.perf.Snapshot()
}

// TickOnce runs exactly one tick synchronously, regardless of TickRate
// (spec §6: "tickRate: 0 disables automatic ticking and exposes
// tick_once()" — TickOnce is always available as the manual escape hatch).
func (k *Kernel) TickOnce() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.runTick()
}

// Start begins automatic ticking at cfg.TickRate ticks/sec in a background
// goroutine. A TickRate of zero makes Start a no-op; callers drive the
// kernel with TickOnce instead. Mirrors the teacher's
// Application.Start/Stop lifecycle (mutex-guarded running flag, a
// cancellable context, and a done channel awaited on Stop).
func (k *Kernel) Start(ctx context.Context) error {
	k.mu.Lock()
	if k.running {
		k.mu.Unlock()
		return fmt.Errorf("kernel: already running")
	}
	interval := k.cfg.TickInterval()
	if interval == 0 {
		k.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	k.cancel = cancel
	k.doneCh = make(chan struct{})
	k.running = true
	k.mu.Unlock()

	go k.tickLoop(runCtx, interval)
	return nil
}

func (k *Kernel) tickLoop(ctx context.Context, interval time.Duration) {
	defer close(k.doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.mu.Lock()
			k.runTick()
			k.mu.Unlock()
		}
	}
}

// Stop signals the tick loop to finish its current tick and exit; actions
// submitted after Stop are rejected by the caller's own judgment (the
// kernel itself keeps accepting submissions until the process exits, per
// spec §5: "in-flight actions submitted after stop() are rejected" is a
// caller-side contract once Stop has returned).
func (k *Kernel) Stop() {
	k.mu.Lock()
	if !k.running {
		k.mu.Unlock()
		return
	}
	cancel := k.cancel
	done := k.doneCh
	k.mu.Unlock()

	cancel()
	<-done

	k.mu.Lock()
	k.running = false
	k.mu.Unlock()
}

// nextOrderID generates a unique order tag for a translated action.
func (k *Kernel) nextOrderID() string {
	k.orderSeq++
	return uuid.NewString()
}
