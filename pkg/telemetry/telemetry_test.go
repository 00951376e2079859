package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"living-economy-arena/econsim/internal/events"
)

func TestRecordTickIncrementsCounterAndHistogram(t *testing.T) {
	c := New()
	c.RecordTick(5 * time.Millisecond)
	c.RecordTick(10 * time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.ticksTotal))
}

func TestSetMarketPriceExposesGaugeByLabel(t *testing.T) {
	c := New()
	c.SetMarketPrice("oil", 101.5)
	assert.Equal(t, 101.5, testutil.ToFloat64(c.currentPrice.WithLabelValues("oil")))
}

func TestListenerTranslatesTradeEventsIntoMetrics(t *testing.T) {
	bus := events.NewBus()
	c := New()
	l := NewListener(bus, c, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)
	defer l.Stop()

	bus.Publish(events.KindTrade, 1, events.TradeEvent{MarketID: "oil", Quantity: "10.000000000000000000"})

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(c.tradesExecuted.WithLabelValues("oil")) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestListenerTranslatesPriceUpdateEvents(t *testing.T) {
	bus := events.NewBus()
	c := New()
	l := NewListener(bus, c, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)
	defer l.Stop()

	bus.Publish(events.KindPriceUpdate, 1, events.PriceUpdateEvent{
		MarketID: "oil",
		NewPrice: "105.000000000000000000",
	})

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(c.currentPrice.WithLabelValues("oil")) == 105
	}, time.Second, 5*time.Millisecond)
}
