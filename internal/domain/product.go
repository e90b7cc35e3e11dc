// Package domain holds the Product and Order entities and the association between them.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalogue entry. Products are never removed, only flagged as deleted.
type Product struct {
	ID           int64
	Name         string
	Price        decimal.Decimal
	CreationDate time.Time
	DeletionFlag bool
}

// NewProduct builds a product that is not yet persisted. The id is assigned by the store.
func NewProduct(name string, price decimal.Decimal, now time.Time) Product {
	return Product{
		Name:         name,
		Price:        price,
		CreationDate: now.UTC(),
	}
}

// Replace overwrites the mutable attributes. The deletion flag is left untouched.
func (p *Product) Replace(name string, price decimal.Decimal) {
	p.Name = name
	p.Price = price
}

// SoftDelete marks the product as deleted. There is no way back.
func (p *Product) SoftDelete() {
	p.DeletionFlag = true
}

// Visible reports whether the product shows up in listings and lookups.
func (p Product) Visible() bool {
	return !p.DeletionFlag
}

// Total sums the prices of products exactly.
func Total(products []Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price)
	}
	return total
}
