package market

import (
	"sort"
	"time"

	"living-economy-arena/econsim/internal/money"
)

// Book is the pair of sorted order ladders spec §3 calls a Market's
// orderBook. Bids are sorted price-descending, asks price-ascending, ties
// broken by timestamp ascending — generalizing the teacher's
// PriceTimeOrderMatcher.sortByPriceTimePriority (internal/engine/order_matcher.go)
// from a one-shot sort-then-match over a shared repository to a ladder a
// Market keeps sorted across its whole lifetime.
type Book struct {
	Bids []*Order
	Asks []*Order
}

// NewBook returns an empty order book.
func NewBook() *Book {
	return &Book{}
}

// Insert adds o to the appropriate ladder and re-sorts it. The order book is
// small enough per market (capacity-capped by the kernel) that a full
// re-sort on every insert is simpler and fast enough; see
// internal/kernel.Config.MaxOrdersPerMarket for the cap.
func (b *Book) Insert(o *Order) {
	if o.Side == Buy {
		b.Bids = append(b.Bids, o)
		sort.SliceStable(b.Bids, func(i, j int) bool {
			return lessForBids(b.Bids[i], b.Bids[j])
		})
		return
	}
	b.Asks = append(b.Asks, o)
	sort.SliceStable(b.Asks, func(i, j int) bool {
		return lessForAsks(b.Asks[i], b.Asks[j])
	})
}

func lessForBids(a, b *Order) bool {
	pa, pb := a.effectivePrice(), b.effectivePrice()
	if !pa.Equal(pb) {
		return pa.GreaterThan(pb) // descending
	}
	return a.Timestamp.Before(b.Timestamp)
}

func lessForAsks(a, b *Order) bool {
	pa, pb := a.effectivePrice(), b.effectivePrice()
	if !pa.Equal(pb) {
		return pa.LessThan(pb) // ascending
	}
	return a.Timestamp.Before(b.Timestamp)
}

// Cancel removes an order by id from either ladder. Reports whether an
// order was found and removed.
func (b *Book) Cancel(orderID string) bool {
	for i, o := range b.Bids {
		if o.ID == orderID {
			b.Bids = append(b.Bids[:i], b.Bids[i+1:]...)
			return true
		}
	}
	for i, o := range b.Asks {
		if o.ID == orderID {
			b.Asks = append(b.Asks[:i], b.Asks[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveTag drops every resting order of the given kind (used by the kernel
// to sweep stale synthetic_mm orders, spec §4.5).
func (b *Book) RemoveTag(kind OrderKind) {
	b.Bids = filterOut(b.Bids, kind)
	b.Asks = filterOut(b.Asks, kind)
}

func filterOut(orders []*Order, kind OrderKind) []*Order {
	kept := orders[:0]
	for _, o := range orders {
		if o.Kind != kind {
			kept = append(kept, o)
		}
	}
	return kept
}

// BestBid returns the highest-priced resting bid, or nil.
func (b *Book) BestBid() *Order {
	if len(b.Bids) == 0 {
		return nil
	}
	return b.Bids[0]
}

// BestAsk returns the lowest-priced resting ask, or nil.
func (b *Book) BestAsk() *Order {
	if len(b.Asks) == 0 {
		return nil
	}
	return b.Asks[0]
}

// BidDepth sums resting bid quantity (spec glossary: Depth).
func (b *Book) BidDepth() money.Money {
	return sumQuantity(b.Bids)
}

// AskDepth sums resting ask quantity.
func (b *Book) AskDepth() money.Money {
	return sumQuantity(b.Asks)
}

func sumQuantity(orders []*Order) money.Money {
	total := money.Zero
	for _, o := range orders {
		total = total.Add(o.Quantity)
	}
	return total
}

// Spread returns best_ask - best_bid (spec glossary), and false if either
// side is empty.
func (b *Book) Spread() (money.Money, bool) {
	bid, ask := b.BestBid(), b.BestAsk()
	if bid == nil || ask == nil || bid.IsMarketPriced() || ask.IsMarketPriced() {
		return money.Zero, false
	}
	return ask.Price.Sub(*bid.Price), true
}

// Clone deep-copies the book for the kernel's per-tick rollback-on-panic
// path (spec §4.1 failure policy): a panicking matcher can be isolated by
// restoring this snapshot.
func (b *Book) Clone() *Book {
	clone := &Book{
		Bids: make([]*Order, len(b.Bids)),
		Asks: make([]*Order, len(b.Asks)),
	}
	for i, o := range b.Bids {
		cp := *o
		clone.Bids[i] = &cp
	}
	for i, o := range b.Asks {
		cp := *o
		clone.Asks[i] = &cp
	}
	return clone
}

// Match runs the crossing loop of spec §4.3 to exhaustion: while a best bid
// and best ask exist and cross, it executes the minimum of their quantities
// at the midpoint price, decrementing both orders and removing any that
// reach zero quantity. referencePrice is used only for the degenerate case
// of two crossing market orders, where no resting limit price exists to
// anchor the execution price.
func (b *Book) Match(marketID string, tick uint64, referencePrice money.Money, now func() time.Time) []Trade {
	var trades []Trade

	for {
		bid, ask := b.BestBid(), b.BestAsk()
		if bid == nil || ask == nil {
			break
		}
		if !crosses(bid, ask) {
			break
		}

		qty := bid.Quantity.Min(ask.Quantity)
		price := executionPrice(bid, ask, referencePrice)

		trades = append(trades, Trade{
			MarketID:  marketID,
			BuyerID:   bid.AgentID,
			SellerID:  ask.AgentID,
			BuyOrder:  bid.ID,
			SellOrder: ask.ID,
			Price:     price,
			Quantity:  qty,
			Timestamp: now(),
		})

		bid.Quantity = bid.Quantity.Sub(qty)
		ask.Quantity = ask.Quantity.Sub(qty)

		if bid.Quantity.IsZero() {
			b.Bids = b.Bids[1:]
		}
		if ask.Quantity.IsZero() {
			b.Asks = b.Asks[1:]
		}
	}

	return trades
}

func crosses(bid, ask *Order) bool {
	if bid.IsMarketPriced() || ask.IsMarketPriced() {
		return true
	}
	return bid.Price.GreaterThanOrEqual(*ask.Price)
}

func executionPrice(bid, ask *Order, referencePrice money.Money) money.Money {
	switch {
	case !bid.IsMarketPriced() && !ask.IsMarketPriced():
		return bid.Price.Add(*ask.Price).Div(money.NewFromInt(2))
	case !bid.IsMarketPriced():
		return *bid.Price
	case !ask.IsMarketPriced():
		return *ask.Price
	default:
		return referencePrice
	}
}
