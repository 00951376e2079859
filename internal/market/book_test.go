package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"living-economy-arena/econsim/internal/money"
)

func mustLimit(t *testing.T, id string, side Side, price, qty float64, ts time.Time) *Order {
	t.Helper()
	o, err := NewLimitOrder(id, "agent-"+id, "food", side, money.NewFromFloat(price), money.NewFromFloat(qty), ts)
	require.NoError(t, err)
	return o
}

// S3 Matching (non-crossing): bids [105x100, 104x150, 103x200],
// asks [106x120, 107x180, 108x250] => zero trades, spread=1, depths 450/550.
func TestS3NonCrossingBook(t *testing.T) {
	base := time.Now()
	book := NewBook()
	book.Insert(mustLimit(t, "b1", Buy, 105, 100, base))
	book.Insert(mustLimit(t, "b2", Buy, 104, 150, base.Add(time.Millisecond)))
	book.Insert(mustLimit(t, "b3", Buy, 103, 200, base.Add(2*time.Millisecond)))
	book.Insert(mustLimit(t, "a1", Sell, 106, 120, base))
	book.Insert(mustLimit(t, "a2", Sell, 107, 180, base.Add(time.Millisecond)))
	book.Insert(mustLimit(t, "a3", Sell, 108, 250, base.Add(2*time.Millisecond)))

	trades := book.Match("food", 1, money.NewFromInt(100), time.Now)
	assert.Empty(t, trades)

	spread, ok := book.Spread()
	require.True(t, ok)
	assert.True(t, spread.Equal(money.NewFromInt(1)))

	assert.True(t, book.BidDepth().Equal(money.NewFromInt(450)))
	assert.True(t, book.AskDepth().Equal(money.NewFromInt(550)))
}

// S4 Crossing: bids [108x100], asks [106x60, 107x80] => two trades:
// (107x60) then (107.5x40); book ends with bids empty, asks [107x40].
func TestS4CrossingBook(t *testing.T) {
	base := time.Now()
	book := NewBook()
	book.Insert(mustLimit(t, "b1", Buy, 108, 100, base))
	book.Insert(mustLimit(t, "a1", Sell, 106, 60, base))
	book.Insert(mustLimit(t, "a2", Sell, 107, 80, base.Add(time.Millisecond)))

	trades := book.Match("food", 1, money.NewFromInt(107), time.Now)
	require.Len(t, trades, 2)

	assert.True(t, trades[0].Price.Equal(money.NewFromInt(107)))
	assert.True(t, trades[0].Quantity.Equal(money.NewFromInt(60)))

	assert.True(t, trades[1].Price.Equal(money.MustParse("107.5")))
	assert.True(t, trades[1].Quantity.Equal(money.NewFromInt(40)))

	assert.Empty(t, book.Bids)
	require.Len(t, book.Asks, 1)
	assert.Equal(t, "a2", book.Asks[0].ID)
	assert.True(t, book.Asks[0].Quantity.Equal(money.NewFromInt(40)))
}

func TestExecPriceWithinBidAskAtTimeOfMatch(t *testing.T) {
	base := time.Now()
	book := NewBook()
	book.Insert(mustLimit(t, "b1", Buy, 110, 50, base))
	book.Insert(mustLimit(t, "a1", Sell, 100, 50, base))

	trades := book.Match("food", 1, money.NewFromInt(100), time.Now)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.GreaterThanOrEqual(money.NewFromInt(100)))
	assert.True(t, trades[0].Price.LessThanOrEqual(money.NewFromInt(110)))
}

func TestMarketOrderSweepsBook(t *testing.T) {
	base := time.Now()
	book := NewBook()
	book.Insert(mustLimit(t, "a1", Sell, 100, 10, base))
	book.Insert(mustLimit(t, "a2", Sell, 101, 10, base.Add(time.Millisecond)))

	marketBuy, err := NewMarketOrder("mb1", "agent-x", "food", Buy, money.NewFromInt(15), base.Add(2*time.Millisecond))
	require.NoError(t, err)
	book.Insert(marketBuy)

	trades := book.Match("food", 1, money.NewFromInt(100), time.Now)
	require.Len(t, trades, 2)
	assert.True(t, trades[0].Price.Equal(money.NewFromInt(100)))
	assert.True(t, trades[1].Price.Equal(money.NewFromInt(101)))

	require.Len(t, book.Asks, 1)
	assert.True(t, book.Asks[0].Quantity.Equal(money.NewFromInt(5)))
}

func TestCancelRemovesRestingOrder(t *testing.T) {
	book := NewBook()
	book.Insert(mustLimit(t, "b1", Buy, 100, 10, time.Now()))
	assert.True(t, book.Cancel("b1"))
	assert.Empty(t, book.Bids)
	assert.False(t, book.Cancel("b1"))
}

func TestCloneIsIndependent(t *testing.T) {
	book := NewBook()
	book.Insert(mustLimit(t, "b1", Buy, 100, 10, time.Now()))
	clone := book.Clone()
	clone.Bids[0].Quantity = money.NewFromInt(999)
	assert.True(t, book.Bids[0].Quantity.Equal(money.NewFromInt(10)))
}
