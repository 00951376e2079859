package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribeOrdering(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(KindTick)

	for i := uint64(1); i <= 5; i++ {
		bus.Publish(KindTick, i, TickEvent{Tick: i})
	}

	var lastSeq uint64
	for i := 0; i < 5; i++ {
		env := <-sub.C
		if i > 0 {
			assert.Greater(t, env.Seq, lastSeq)
		}
		lastSeq = env.Seq
	}
}

func TestSlowSubscriberLagsWithoutBlocking(t *testing.T) {
	bus := NewBusWithCapacity(2)
	sub := bus.Subscribe(KindTrade)

	for i := uint64(1); i <= 5; i++ {
		bus.Publish(KindTrade, i, TradeEvent{Tick: i})
	}

	assert.Equal(t, uint64(3), sub.LagCount())
	assert.Len(t, sub.C, 2)
}

func TestUnaffectedSubscriberOnOtherChannel(t *testing.T) {
	bus := NewBusWithCapacity(1)
	slow := bus.Subscribe(KindTrade)
	other := bus.Subscribe(KindPsychology)

	bus.Publish(KindTrade, 1, TradeEvent{})
	bus.Publish(KindTrade, 2, TradeEvent{})
	bus.Publish(KindPsychology, 1, PsychologyEvent{})

	assert.Equal(t, uint64(1), slow.LagCount())
	require.Len(t, other.C, 1)
	assert.Equal(t, uint64(0), other.LagCount())
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(KindScarcity)
	bus.Unsubscribe(sub)

	_, open := <-sub.C
	assert.False(t, open)
	assert.Equal(t, 0, bus.SubscriberCount(KindScarcity))
}

func TestSeqMonotonicAcrossChannels(t *testing.T) {
	bus := NewBus()
	tickSub := bus.Subscribe(KindTick)
	tradeSub := bus.Subscribe(KindTrade)

	e1 := bus.Publish(KindTick, 1, TickEvent{})
	e2 := bus.Publish(KindTrade, 1, TradeEvent{})
	assert.Less(t, e1.Seq, e2.Seq)

	<-tickSub.C
	<-tradeSub.C
}
