// Package streaming fans bus events out to Redis Pub/Sub for external
// dashboards/processes, grounded on the teacher's pkg/messaging
// RedisEventBus (channel-per-event-type Publish over go-redis/v9, JSON
// marshaling, structured logging) and pkg/cache's RedisClient connection
// options. Unlike RedisEventBus, RedisFanout only publishes: it subscribes
// to the in-process events.Bus as an ordinary reader (never the source of
// truth) and republishes outward, per spec §4.7's "never for other
// in-process core modules" boundary.
package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"living-economy-arena/econsim/internal/events"
)

// Options configures the Redis connection, mirroring cache.NewRedisClient's
// constructor arguments.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisOptions returns go-redis client options tuned the way the
// teacher's pkg/cache.NewRedisClient does.
func NewRedisOptions(opts Options) *redis.Options {
	return &redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		PoolTimeout:  30 * time.Second,
	}
}

// kernelBus is the slice of *events.Bus RedisFanout needs.
type kernelBus interface {
	Subscribe(kind events.Kind) *events.Subscription
	Unsubscribe(sub *events.Subscription)
}

// publisher is the slice of *redis.Client RedisFanout needs, narrowed so
// tests can fake it without a live Redis instance.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisFanout subscribes to every event kind on the bus and republishes each
// envelope, JSON-encoded, to a Redis channel named "arena.<kind>".
type RedisFanout struct {
	client publisher
	bus    kernelBus
	logger *slog.Logger

	subs   []*events.Subscription
	cancel context.CancelFunc
}

// NewRedisFanout constructs a fanout over an already-dialed *redis.Client.
func NewRedisFanout(client *redis.Client, bus kernelBus, logger *slog.Logger) *RedisFanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisFanout{client: client, bus: bus, logger: logger}
}

func channelFor(kind events.Kind) string {
	return fmt.Sprintf("arena.%s", kind)
}

var fanoutKinds = []events.Kind{
	events.KindTick, events.KindTrade, events.KindPriceUpdate, events.KindPsychology,
	events.KindMonetaryPolicy, events.KindScarcity, events.KindDiscovery,
	events.KindCriticalScarcity, events.KindTickOverrun, events.KindMarketFault,
}

// Start subscribes to every event kind and begins republishing to Redis
// until ctx is cancelled or Stop is called.
func (f *RedisFanout) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel

	for _, kind := range fanoutKinds {
		sub := f.bus.Subscribe(kind)
		f.subs = append(f.subs, sub)
		go f.drain(ctx, sub)
	}
}

// Stop unsubscribes every channel; the drain goroutines exit on channel
// close or context cancellation.
func (f *RedisFanout) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	for _, sub := range f.subs {
		f.bus.Unsubscribe(sub)
	}
}

func (f *RedisFanout) drain(ctx context.Context, sub *events.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-sub.C:
			if !ok {
				return
			}
			f.publish(ctx, env)
		}
	}
}

func (f *RedisFanout) publish(ctx context.Context, env events.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		f.logger.Error("streaming: failed to marshal envelope", "kind", env.Kind, "error", err)
		return
	}

	channel := channelFor(env.Kind)
	if err := f.client.Publish(ctx, channel, data).Err(); err != nil {
		f.logger.Error("streaming: failed to publish envelope", "channel", channel, "error", err)
	}
}
