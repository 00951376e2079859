package market

import (
	"time"

	"living-economy-arena/econsim/internal/money"
)

// Trade is the spec §3 Trade type: immutable once recorded.
type Trade struct {
	MarketID  string
	BuyerID   string
	SellerID  string
	BuyOrder  string
	SellOrder string
	Price     money.Money
	Quantity  money.Money
	Timestamp time.Time
}
