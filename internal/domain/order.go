package domain

import "time"

// Order is a purchase by a buyer. ProductIDs keeps the order in which products were added
// and may contain the same product more than once.
type Order struct {
	ID         int64
	BuyerEmail string
	PlacedAt   time.Time
	ProductIDs []int64
}

// NewOrder builds an order placed at now with no products yet.
func NewOrder(buyerEmail string, now time.Time) Order {
	return Order{
		BuyerEmail: buyerEmail,
		PlacedAt:   now.UTC(),
		ProductIDs: []int64{},
	}
}

// PlacedBetween reports whether the order was placed within [start, end], both bounds included.
func (o Order) PlacedBetween(start, end time.Time) bool {
	return !o.PlacedAt.Before(start) && !o.PlacedAt.After(end)
}
