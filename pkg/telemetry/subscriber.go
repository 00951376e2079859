package telemetry

import (
	"context"
	"log/slog"

	"living-economy-arena/econsim/internal/events"
	"living-economy-arena/econsim/internal/money"
)

// kernelBus is the slice of *events.Bus a Listener needs: Subscribe and
// Unsubscribe. Kept narrow so this package never imports internal/kernel.
type kernelBus interface {
	Subscribe(kind events.Kind) *events.Subscription
	Unsubscribe(sub *events.Subscription)
}

// Listener drains every event kind the kernel publishes and feeds Collector,
// the metrics equivalent of the teacher's RedisEventBus subscriber loop
// (pkg/messaging/redis_eventbus.go's per-channel goroutine), except the sink
// here is in-process Prometheus state rather than a re-published channel.
type Listener struct {
	collector *Collector
	logger    *slog.Logger
	bus       kernelBus
	subs      []*events.Subscription
	cancel    context.CancelFunc
}

// NewListener constructs a Listener bound to bus and collector.
func NewListener(bus kernelBus, collector *Collector, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{collector: collector, logger: logger, bus: bus}
}

var allKinds = []events.Kind{
	events.KindTick, events.KindTrade, events.KindPriceUpdate, events.KindPsychology,
	events.KindMonetaryPolicy, events.KindScarcity, events.KindDiscovery,
	events.KindCriticalScarcity, events.KindTickOverrun, events.KindMarketFault,
}

// Start subscribes to every event kind and drains each in its own goroutine
// until ctx is cancelled or Stop is called.
func (l *Listener) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	for _, kind := range allKinds {
		sub := l.bus.Subscribe(kind)
		l.subs = append(l.subs, sub)
		go l.drain(ctx, sub)
	}
}

// Stop cancels the drain goroutines' context and unsubscribes every channel.
// It does not wait for the goroutines; each exits on channel close or
// context cancellation, whichever comes first.
func (l *Listener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	for _, sub := range l.subs {
		l.bus.Unsubscribe(sub)
	}
}

func (l *Listener) drain(ctx context.Context, sub *events.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-sub.C:
			if !ok {
				return
			}
			l.collector.RecordEventPublished(string(env.Kind))
			l.collector.SetSubscriberLag(string(env.Kind), float64(sub.LagCount()))
			l.apply(env)
		}
	}
}

func (l *Listener) apply(env events.Envelope) {
	switch p := env.Payload.(type) {
	case events.TickEvent:
		l.collector.RecordTick(p.ProcessingTime)
		l.collector.RecordOrdersDrained(p.OrdersDrained)
		l.collector.RecordActionsRejected(p.RejectedCount)
	case events.TradeEvent:
		l.collector.RecordTrade(p.MarketID)
	case events.PriceUpdateEvent:
		price, err := money.Parse(p.NewPrice)
		if err != nil {
			l.logger.Warn("telemetry: could not parse price update", "market", p.MarketID, "error", err)
			return
		}
		l.collector.SetMarketPrice(p.MarketID, price.Float64())
	case events.PsychologyEvent:
		l.collector.SetPsychology(p.GlobalSentiment, p.FearIndex, p.VolatilityMultiplier)
	case events.MonetaryPolicyEvent:
		l.collector.RecordMonetaryTrigger(p.Trigger)
		supply, err := money.Parse(p.MoneySupply)
		if err != nil {
			l.logger.Warn("telemetry: could not parse money supply", "error", err)
			return
		}
		l.collector.SetMonetary(p.InflationRate, supply.Float64())
	case events.ScarcityEvent:
		l.collector.SetScarcity(p.CommodityID, p.ScarcityLevel, p.PriceMultiplier)
	case events.DiscoveryEvent:
		l.collector.RecordDiscovery(p.CommodityID)
	case events.TickOverrunEvent:
		l.collector.RecordTickOverrun()
	case events.MarketFaultEvent:
		l.collector.RecordMarketFault(p.MarketID)
	}
}
