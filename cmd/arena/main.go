// Command arena is the host binary: it constructs a kernel.Kernel from
// environment configuration, wires in Prometheus telemetry, a health
// aggregator and the Gin HTTP surface, plus a Redis event fanout and a
// Postgres archiver when their environment variables are set, and runs until SIGINT/SIGTERM, grounded on the teacher's cmd/.../main.go
// signal-handling shape and internal/app.Application's dependency-ordered
// start/stop lifecycle.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"living-economy-arena/econsim/internal/events"
	"living-economy-arena/econsim/internal/httpapi"
	"living-economy-arena/econsim/internal/kernel"
	"living-economy-arena/econsim/internal/market"
	"living-economy-arena/econsim/internal/money"
	"living-economy-arena/econsim/internal/scarcity"
	"living-economy-arena/econsim/pkg/archive"
	"living-economy-arena/econsim/pkg/health"
	"living-economy-arena/econsim/pkg/streaming"
	"living-economy-arena/econsim/pkg/telemetry"

	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := kernel.LoadConfigFromEnv()
	cfg.Markets = defaultMarkets()
	cfg.Commodities = defaultCommodities()

	k, err := kernel.New(cfg, logger)
	if err != nil {
		logger.Error("arena: failed to construct kernel", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	collector := telemetry.New()
	telemetryListener := telemetry.NewListener(k, collector, logger)
	telemetryListener.Start(ctx)
	defer telemetryListener.Stop()

	lastTickTracker := newTickTracker(k)
	healthSub := k.Subscribe(events.KindTick)
	defer k.Unsubscribe(healthSub)

	aggregator := health.New(map[string]health.Checker{
		"kernel":   health.TickCadenceChecker("kernel", lastTickTracker.observe, 30*time.Second),
		"eventbus": health.SubscriberLagChecker("eventbus", func() uint64 { return healthSub.LagCount() }, 1000),
	}, 15*time.Second, 2*time.Second)
	aggregator.Start(ctx)
	defer aggregator.Stop()

	if addr := os.Getenv("ARENA_REDIS_ADDR"); addr != "" {
		client := redis.NewClient(streaming.NewRedisOptions(streaming.Options{
			Addr:     addr,
			Password: os.Getenv("ARENA_REDIS_PASSWORD"),
		}))
		fanout := streaming.NewRedisFanout(client, k, logger)
		fanout.Start(ctx)
		defer fanout.Stop()
		defer client.Close()
	}

	if dsn := os.Getenv("ARENA_POSTGRES_DSN"); dsn != "" {
		store, err := archive.Open(dsn)
		if err != nil {
			logger.Error("arena: failed to open archive store", "error", err)
		} else {
			if err := store.Migrate(ctx); err != nil {
				logger.Error("arena: failed to migrate archive schema", "error", err)
			}
			archiveListener := archive.NewListener(k, store, logger)
			archiveListener.Start(ctx)
			defer archiveListener.Stop()
			defer store.Close()
		}
	}

	if err := k.Start(ctx); err != nil {
		logger.Error("arena: failed to start kernel", "error", err)
		os.Exit(1)
	}
	defer k.Stop()

	httpCfg := httpapi.DefaultConfig()
	if addr := os.Getenv("ARENA_HTTP_ADDR"); addr != "" {
		httpCfg.Addr = addr
	}
	httpCfg.Environment = os.Getenv("ARENA_ENVIRONMENT")

	server := httpapi.New(k, httpCfg, logger, collector.Handler(), health.NewHandler(aggregator))

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.StartWithContext(ctx); err != nil {
			logger.Error("arena: http server exited", "error", err)
		}
	}()

	logger.Info("arena: running", "httpAddr", httpCfg.Addr, "tickRate", cfg.TickRate)
	<-ctx.Done()
	logger.Info("arena: shutdown signal received")
	wg.Wait()
}

// tickTracker adapts kernel.Kernel.TickCount into the (tick, lastAdvancedAt)
// shape health.TickCadenceChecker expects, since the kernel itself tracks
// only the counter, not when it last moved.
type tickTracker struct {
	k *kernel.Kernel

	mu   sync.Mutex
	last uint64
	at   time.Time
}

func newTickTracker(k *kernel.Kernel) *tickTracker {
	return &tickTracker{k: k, at: time.Now()}
}

func (t *tickTracker) observe() (uint64, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := t.k.TickCount()
	if current != t.last {
		t.last = current
		t.at = time.Now()
	}
	return current, t.at
}

func defaultMarkets() []market.Config {
	return []market.Config{
		{
			ID:               "food",
			Name:             "Food",
			BasePrice:        money.NewFromInt(100),
			InitialSupply:    money.NewFromInt(1_000_000),
			InitialDemand:    money.NewFromInt(1_000_000),
			Elasticity:       1.0,
			SupplyElasticity: 1.0,
			DemandElasticity: 1.0,
		},
		{
			ID:               "oil",
			Name:             "Oil",
			BasePrice:        money.NewFromInt(60),
			InitialSupply:    money.NewFromInt(500_000),
			InitialDemand:    money.NewFromInt(500_000),
			Elasticity:       1.2,
			SupplyElasticity: 1.2,
			DemandElasticity: 1.2,
		},
	}
}

func defaultCommodities() []scarcity.Init {
	return []scarcity.Init{
		{
			ID:                "oil",
			Kind:              scarcity.Finite,
			InitialReserves:   money.NewFromInt(10_000_000),
			ConsumptionRate:   money.NewFromInt(1_000),
			CriticalThreshold: money.NewFromInt(1_000_000),
		},
	}
}
