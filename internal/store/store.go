// Package store provides persistence for products and orders.
package store

import (
	"context"
	"time"

	"github.com/abgdnv/ordermanagement/internal/domain"
	"github.com/shopspring/decimal"
)

// ProductStore abstracts product persistence. Lookups by id ignore the deletion flag;
// filtering soft-deleted products is the caller's concern, except for FindAllActive.
type ProductStore interface {
	// Create assigns an id and persists the product.
	Create(ctx context.Context, p domain.Product) (domain.Product, error)

	// FindByID returns ErrProductNotFound if no product has the id.
	FindByID(ctx context.Context, id int64) (domain.Product, error)

	// FindByIDs resolves ids in the given order, duplicates included.
	// The first absent id yields an errors.MissingProductError.
	FindByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)

	// FindAllActive returns products whose deletion flag is false, ordered by id.
	FindAllActive(ctx context.Context) ([]domain.Product, error)

	// Update overwrites name and price. Returns ErrProductNotFound if absent.
	Update(ctx context.Context, id int64, name string, price decimal.Decimal) (domain.Product, error)

	// SoftDelete sets the deletion flag. Returns ErrProductNotFound if absent.
	SoftDelete(ctx context.Context, id int64) error
}

// OrderStore abstracts order persistence. Orders come back with ProductIDs populated in insertion order.
type OrderStore interface {
	// Create persists the order and its product associations in one unit.
	// A product id that does not exist yields an errors.MissingProductError and nothing is stored.
	Create(ctx context.Context, o domain.Order) (domain.Order, error)

	// FindByID returns ErrOrderNotFound if no order has the id.
	FindByID(ctx context.Context, id int64) (domain.Order, error)

	// FindAll returns every order ordered by id.
	FindAll(ctx context.Context) ([]domain.Order, error)

	// FindPlacedBetween returns orders with start <= placed time <= end, ordered by id.
	FindPlacedBetween(ctx context.Context, start, end time.Time) ([]domain.Order, error)

	// FindByProductID returns the orders that reference the product, ordered by id.
	FindByProductID(ctx context.Context, productID int64) ([]domain.Order, error)

	// UpdateBuyerEmail overwrites the buyer email. Returns ErrOrderNotFound if absent.
	UpdateBuyerEmail(ctx context.Context, id int64, buyerEmail string) (domain.Order, error)
}
