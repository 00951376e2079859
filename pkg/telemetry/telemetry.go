// Package telemetry exposes the kernel's tick, market, and subsystem state
// as Prometheus metrics, grounded on the teacher's pkg/monitoring
// MetricsCollector (one prometheus.Registry, grouped CounterVec/
// HistogramVec/GaugeVec fields by concern, a Set/Record method per metric).
// Here the concerns are ticks, markets, scarcity, psychology, and monetary
// policy instead of HTTP requests and trading-API orders.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric the arena exports.
type Collector struct {
	registry *prometheus.Registry

	ticksTotal          prometheus.Counter
	tickDuration        prometheus.Histogram
	tickOverrunsTotal   prometheus.Counter
	actionsRejectedTotal prometheus.Counter

	ordersDrained  prometheus.Counter
	tradesExecuted *prometheus.CounterVec
	marketFaults   *prometheus.CounterVec

	currentPrice *prometheus.GaugeVec
	marketDepth  *prometheus.GaugeVec
	marketSpread *prometheus.GaugeVec

	scarcityLevel   *prometheus.GaugeVec
	priceMultiplier *prometheus.GaugeVec
	discoveryEvents *prometheus.CounterVec

	globalSentiment      prometheus.Gauge
	fearIndex            prometheus.Gauge
	volatilityMultiplier prometheus.Gauge

	inflationRate     prometheus.Gauge
	moneySupply       prometheus.Gauge
	monetaryTriggers  *prometheus.CounterVec

	agentsActive prometheus.Gauge

	eventsPublished *prometheus.CounterVec
	subscriberLag   *prometheus.GaugeVec
}

// New constructs a Collector and registers every metric with a fresh
// registry, mirroring NewMetricsCollector's initialize-then-register split.
func New() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}
	c.initialize()
	c.register()
	return c
}

func (c *Collector) initialize() {
	c.ticksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arena_ticks_total",
		Help: "Total number of simulation ticks processed",
	})
	c.tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_tick_duration_seconds",
		Help:    "Wall-clock duration of a single tick",
		Buckets: prometheus.DefBuckets,
	})
	c.tickOverrunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arena_tick_overruns_total",
		Help: "Total number of ticks that exceeded their budget",
	})
	c.actionsRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arena_actions_rejected_total",
		Help: "Total number of agent actions dropped during drain",
	})

	c.ordersDrained = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arena_orders_drained_total",
		Help: "Total number of pending actions drained into orders",
	})
	c.tradesExecuted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_trades_executed_total",
		Help: "Total number of trades executed, by market",
	}, []string{"market"})
	c.marketFaults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_market_faults_total",
		Help: "Total number of market faults (matcher panics or invariant violations), by market",
	}, []string{"market"})

	c.currentPrice = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_market_price",
		Help: "Current equilibrium price, by market",
	}, []string{"market"})
	c.marketDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_market_depth",
		Help: "Current order-book depth, by market and side",
	}, []string{"market", "side"})
	c.marketSpread = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_market_spread",
		Help: "Current best-bid/best-ask spread, by market",
	}, []string{"market"})

	c.scarcityLevel = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_scarcity_level",
		Help: "Current scarcity level [0,1], by commodity",
	}, []string{"commodity"})
	c.priceMultiplier = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_scarcity_price_multiplier",
		Help: "Current scarcity-driven price multiplier, by commodity",
	}, []string{"commodity"})
	c.discoveryEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_discovery_events_total",
		Help: "Total number of reserve discovery events, by commodity",
	}, []string{"commodity"})

	c.globalSentiment = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arena_global_sentiment",
		Help: "Mean agent sentiment across active agents",
	})
	c.fearIndex = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arena_fear_index",
		Help: "Mean agent fear across active agents",
	})
	c.volatilityMultiplier = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arena_volatility_multiplier",
		Help: "Psychology-derived volatility multiplier [0.5,3.0]",
	})

	c.inflationRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arena_inflation_rate",
		Help: "Current smoothed inflation rate",
	})
	c.moneySupply = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arena_money_supply",
		Help: "Current aggregate money supply",
	})
	c.monetaryTriggers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_monetary_triggers_total",
		Help: "Total number of monetary policy triggers fired, by trigger",
	}, []string{"trigger"})

	c.agentsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arena_agents_active",
		Help: "Current number of active registered agents",
	})

	c.eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_events_published_total",
		Help: "Total number of bus events published, by kind",
	}, []string{"kind"})
	c.subscriberLag = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_subscriber_lag",
		Help: "Current dropped-event count for a subscriber, by kind",
	}, []string{"kind"})
}

func (c *Collector) register() {
	c.registry.MustRegister(
		c.ticksTotal, c.tickDuration, c.tickOverrunsTotal, c.actionsRejectedTotal,
		c.ordersDrained, c.tradesExecuted, c.marketFaults,
		c.currentPrice, c.marketDepth, c.marketSpread,
		c.scarcityLevel, c.priceMultiplier, c.discoveryEvents,
		c.globalSentiment, c.fearIndex, c.volatilityMultiplier,
		c.inflationRate, c.moneySupply, c.monetaryTriggers,
		c.agentsActive,
		c.eventsPublished, c.subscriberLag,
	)
}

// Handler returns the Prometheus HTTP handler for /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// RecordTick records a tick's processing time.
func (c *Collector) RecordTick(d time.Duration) {
	c.ticksTotal.Inc()
	c.tickDuration.Observe(d.Seconds())
}

// RecordTickOverrun records a tick that exceeded its wall-clock budget.
func (c *Collector) RecordTickOverrun() {
	c.tickOverrunsTotal.Inc()
}

func (c *Collector) RecordActionsRejected(n int) {
	if n > 0 {
		c.actionsRejectedTotal.Add(float64(n))
	}
}

func (c *Collector) RecordOrdersDrained(n int) {
	if n > 0 {
		c.ordersDrained.Add(float64(n))
	}
}

func (c *Collector) RecordTrade(market string) { c.tradesExecuted.WithLabelValues(market).Inc() }

func (c *Collector) RecordMarketFault(market string) { c.marketFaults.WithLabelValues(market).Inc() }

func (c *Collector) SetMarketPrice(market string, price float64) {
	c.currentPrice.WithLabelValues(market).Set(price)
}

func (c *Collector) SetMarketDepth(market, side string, depth float64) {
	c.marketDepth.WithLabelValues(market, side).Set(depth)
}

func (c *Collector) SetMarketSpread(market string, spread float64) {
	c.marketSpread.WithLabelValues(market).Set(spread)
}

func (c *Collector) SetScarcity(commodity string, level, multiplier float64) {
	c.scarcityLevel.WithLabelValues(commodity).Set(level)
	c.priceMultiplier.WithLabelValues(commodity).Set(multiplier)
}

func (c *Collector) RecordDiscovery(commodity string) {
	c.discoveryEvents.WithLabelValues(commodity).Inc()
}

func (c *Collector) SetPsychology(sentiment, fear, volatility float64) {
	c.globalSentiment.Set(sentiment)
	c.fearIndex.Set(fear)
	c.volatilityMultiplier.Set(volatility)
}

func (c *Collector) SetMonetary(inflation, supply float64) {
	c.inflationRate.Set(inflation)
	c.moneySupply.Set(supply)
}

func (c *Collector) RecordMonetaryTrigger(trigger string) {
	c.monetaryTriggers.WithLabelValues(trigger).Inc()
}

func (c *Collector) SetAgentsActive(n int) { c.agentsActive.Set(float64(n)) }

func (c *Collector) RecordEventPublished(kind string) { c.eventsPublished.WithLabelValues(kind).Inc() }

func (c *Collector) SetSubscriberLag(kind string, dropped float64) {
	c.subscriberLag.WithLabelValues(kind).Set(dropped)
}
