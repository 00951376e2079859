package archive

import (
	"context"
	"log/slog"

	"living-economy-arena/econsim/internal/events"
)

// kernelBus is the slice of *events.Bus a Listener needs.
type kernelBus interface {
	Subscribe(kind events.Kind) *events.Subscription
	Unsubscribe(sub *events.Subscription)
}

// Listener drains tick and trade events off the bus and persists them via
// Store, the archival counterpart of telemetry.Listener.
type Listener struct {
	store  *Store
	logger *slog.Logger
	bus    kernelBus

	tickSub  *events.Subscription
	tradeSub *events.Subscription
	cancel   context.CancelFunc
}

// NewListener constructs a Listener bound to bus and store.
func NewListener(bus kernelBus, store *Store, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{store: store, logger: logger, bus: bus}
}

// Start subscribes to tick and trade events and begins archiving until ctx
// is cancelled or Stop is called.
func (l *Listener) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	l.tickSub = l.bus.Subscribe(events.KindTick)
	l.tradeSub = l.bus.Subscribe(events.KindTrade)

	go l.drainTicks(ctx)
	go l.drainTrades(ctx)
}

// Stop unsubscribes both channels.
func (l *Listener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	l.bus.Unsubscribe(l.tickSub)
	l.bus.Unsubscribe(l.tradeSub)
}

func (l *Listener) drainTicks(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-l.tickSub.C:
			if !ok {
				return
			}
			tick, ok := env.Payload.(events.TickEvent)
			if !ok {
				continue
			}
			if err := l.store.InsertTick(ctx, tick, env.Timestamp); err != nil {
				l.logger.Error("archive: failed to persist tick", "tick", tick.Tick, "error", err)
			}
		}
	}
}

func (l *Listener) drainTrades(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-l.tradeSub.C:
			if !ok {
				return
			}
			trade, ok := env.Payload.(events.TradeEvent)
			if !ok {
				continue
			}
			if err := l.store.InsertTrade(ctx, env.Seq, trade, env.Timestamp); err != nil {
				l.logger.Error("archive: failed to persist trade", "market", trade.MarketID, "error", err)
			}
		}
	}
}
