package service

import (
	"github.com/abgdnv/ordermanagement/internal/domain"
	"github.com/shopspring/decimal"
)

// ProductDto carries the replaceable attributes of a product, for both create and replace.
type ProductDto struct {
	Name  string           `json:"name" validate:"required"`
	Price *decimal.Decimal `json:"price" validate:"required"`
}

// ProductRef identifies a product inside an order placement request.
type ProductRef struct {
	StockKeepingUnitID int64 `json:"stockKeepingUnitID"`
}

// OrderCreateDto is the order placement request. Products are associated in the given order.
type OrderCreateDto struct {
	BuyerEmail string       `json:"buyerEmail" validate:"required,email"`
	Products   []ProductRef `json:"products" validate:"dive"`
}

// OrderUpdateDto replaces the buyer email of an order. Other attributes are ignored.
type OrderUpdateDto struct {
	BuyerEmail string `json:"buyerEmail" validate:"required,email"`
}

// OrderDetails is an order together with its products resolved in sequence order.
type OrderDetails struct {
	Order    domain.Order
	Products []domain.Product
}

// Total returns the exact sum of the order's product prices.
func (d OrderDetails) Total() decimal.Decimal {
	return domain.Total(d.Products)
}

func (d OrderCreateDto) productIDs() []int64 {
	ids := make([]int64, 0, len(d.Products))
	for _, ref := range d.Products {
		ids = append(ids, ref.StockKeepingUnitID)
	}
	return ids
}
