package domain

import "slices"

// Associations links orders and products by id in both directions.
// Associate is the only mutator so both sides always agree. Not safe for concurrent use.
type Associations struct {
	orderProducts map[int64][]int64
	productOrders map[int64]map[int64]struct{}
}

func NewAssociations() *Associations {
	return &Associations{
		orderProducts: make(map[int64][]int64),
		productOrders: make(map[int64]map[int64]struct{}),
	}
}

// Associate appends productID to the order's sequence and records orderID in the product's back-references.
func (a *Associations) Associate(orderID, productID int64) {
	a.orderProducts[orderID] = append(a.orderProducts[orderID], productID)
	orders, ok := a.productOrders[productID]
	if !ok {
		orders = make(map[int64]struct{})
		a.productOrders[productID] = orders
	}
	orders[orderID] = struct{}{}
}

// ProductsOf returns a copy of the order's product sequence in insertion order.
func (a *Associations) ProductsOf(orderID int64) []int64 {
	return slices.Clone(a.orderProducts[orderID])
}

// OrdersOf returns the ids of orders that reference productID, ascending.
func (a *Associations) OrdersOf(productID int64) []int64 {
	orders := a.productOrders[productID]
	ids := make([]int64, 0, len(orders))
	for id := range orders {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
