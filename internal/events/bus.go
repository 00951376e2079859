package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQueueCapacity is the default bounded per-subscriber queue depth
// (spec §4.7).
const DefaultQueueCapacity = 1024

// Subscription is a handle returned by Bus.Subscribe. Callers drain C in
// their own goroutine; the bus never blocks on a slow reader.
type Subscription struct {
	ID   string
	Kind Kind
	C    <-chan Envelope

	lagCount *uint64
}

// LagCount returns how many events have been dropped for this subscriber
// because its queue was full (spec §4.7, §7 ObserverLagError).
func (s *Subscription) LagCount() uint64 {
	return atomic.LoadUint64(s.lagCount)
}

type subscriber struct {
	id       string
	kind     Kind
	ch       chan Envelope
	lagCount uint64
}

// Bus is the in-process typed publish/subscribe surface of spec §4.7. It is
// the ONLY shared surface between kernel subsystems (Design Notes §9): it
// owns no domain state, only routing and sequencing.
//
// The teacher's pkg/messaging/redis_eventbus.go wires the same Publish/
// Subscribe/Unsubscribe/Close shape over Redis Pub/Sub for cross-process
// delivery; this Bus keeps that shape but is itself purely in-memory, which
// is what spec §1's "no wire protocol" non-goal requires of the core. An
// external fanout adapter (pkg/streaming) can subscribe to this Bus exactly
// like any other subscriber and re-publish to Redis for processes outside
// this one.
type Bus struct {
	mu            sync.RWMutex
	subscribers   map[Kind][]*subscriber
	seq           uint64
	queueCapacity int
	nextSubID     uint64
}

// NewBus constructs a Bus with the default bounded queue capacity.
func NewBus() *Bus {
	return NewBusWithCapacity(DefaultQueueCapacity)
}

// NewBusWithCapacity constructs a Bus with an explicit per-subscriber queue
// capacity, mainly for tests that want to force lag quickly.
func NewBusWithCapacity(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Bus{
		subscribers:   make(map[Kind][]*subscriber),
		queueCapacity: capacity,
	}
}

// Subscribe registers a new subscriber for Kind and returns a handle whose
// channel the caller must drain. Subscriptions are independent: a slow
// subscriber on one channel never affects another subscriber, on the same
// or a different channel.
func (b *Bus) Subscribe(kind Kind) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSubID++
	sub := &subscriber{
		id:   subscriberID(b.nextSubID),
		kind: kind,
		ch:   make(chan Envelope, b.queueCapacity),
	}
	b.subscribers[kind] = append(b.subscribers[kind], sub)

	return &Subscription{
		ID:       sub.id,
		Kind:     kind,
		C:        sub.ch,
		lagCount: &sub.lagCount,
	}
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// more than once.
func (b *Bus) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[s.Kind]
	for i, sub := range subs {
		if sub.id == s.ID {
			close(sub.ch)
			b.subscribers[s.Kind] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers payload to every subscriber of kind, tagging it with the
// next global sequence number (strictly monotonic across all channels, per
// property 10) and the given tick index. It never blocks: a full subscriber
// queue increments that subscriber's lag counter and the event is dropped
// for it alone (spec §7 ObserverLagError).
func (b *Bus) Publish(kind Kind, tick uint64, payload any) Envelope {
	env := Envelope{
		Kind:      kind,
		Seq:       atomic.AddUint64(&b.seq, 1),
		Tick:      tick,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	b.mu.RLock()
	subs := append([]*subscriber(nil), b.subscribers[kind]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.ch <- env:
		default:
			atomic.AddUint64(&sub.lagCount, 1)
		}
	}

	return env
}

// SubscriberCount reports how many live subscribers a channel has, for
// diagnostics only. The kernel's liquidity-injection decision (spec §4.5)
// uses its own order-book-derived market-maker count, never this.
func (b *Bus) SubscriberCount(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[kind])
}

func subscriberID(n uint64) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	if n == 0 {
		return "sub-0"
	}
	buf := make([]byte, 0, 12)
	for n > 0 {
		buf = append(buf, alphabet[n%uint64(len(alphabet))])
		n /= uint64(len(alphabet))
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return "sub-" + string(buf)
}
