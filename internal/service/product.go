package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/ordermanagement/internal/domain"
	apperrors "github.com/abgdnv/ordermanagement/internal/errors"
	"github.com/abgdnv/ordermanagement/internal/metrics"
	"github.com/abgdnv/ordermanagement/internal/store"
)

// ProductService manages the product catalogue.
type ProductService interface {
	// Create assigns an id and creation date to a new, non-deleted product.
	Create(ctx context.Context, dto ProductDto) (domain.Product, error)

	// FindAll returns the products that are not soft-deleted, ordered by id.
	FindAll(ctx context.Context) ([]domain.Product, error)

	// FindByID returns ErrProductNotFound if the product is absent or soft-deleted.
	FindByID(ctx context.Context, id int64) (domain.Product, error)

	// Replace overwrites name and price, even for soft-deleted products.
	// Returns ErrProductNotFound if the product is absent.
	Replace(ctx context.Context, id int64, dto ProductDto) (domain.Product, error)

	// SoftDelete flags the product as deleted. Absent products are ignored.
	SoftDelete(ctx context.Context, id int64) error

	// FindOrders returns the orders referencing the product, deleted or not.
	// Returns ErrProductNotFound only if the product never existed.
	FindOrders(ctx context.Context, id int64) ([]OrderDetails, error)
}

type ProductServiceImpl struct {
	products store.ProductStore
	orders   store.OrderStore
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewProductService creates a ProductService. m may be nil.
func NewProductService(products store.ProductStore, orders store.OrderStore, m *metrics.Metrics, logger *slog.Logger) *ProductServiceImpl {
	return &ProductServiceImpl{
		products: products,
		orders:   orders,
		metrics:  m,
		logger:   logger.With("component", "product_service"),
		now:      time.Now,
	}
}

func (s *ProductServiceImpl) Create(ctx context.Context, dto ProductDto) (domain.Product, error) {
	created, err := s.products.Create(ctx, domain.NewProduct(dto.Name, *dto.Price, s.now()))
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	s.metrics.ProductCreated()
	return created, nil
}

func (s *ProductServiceImpl) FindAll(ctx context.Context) ([]domain.Product, error) {
	list, err := s.products.FindAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return list, nil
}

func (s *ProductServiceImpl) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if !p.Visible() {
		return domain.Product{}, apperrors.ErrProductNotFound
	}
	return p, nil
}

func (s *ProductServiceImpl) Replace(ctx context.Context, id int64, dto ProductDto) (domain.Product, error) {
	return s.products.Update(ctx, id, dto.Name, *dto.Price)
}

func (s *ProductServiceImpl) SoftDelete(ctx context.Context, id int64) error {
	err := s.products.SoftDelete(ctx, id)
	if errors.Is(err, apperrors.ErrProductNotFound) {
		s.logger.DebugContext(ctx, "Soft delete of absent product ignored", "ID", id)
		return nil
	}
	return err
}

func (s *ProductServiceImpl) FindOrders(ctx context.Context, id int64) ([]OrderDetails, error) {
	if _, err := s.products.FindByID(ctx, id); err != nil {
		return nil, err
	}
	orders, err := s.orders.FindByProductID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list orders of product %d: %w", id, err)
	}
	return resolveProducts(ctx, s.products, orders)
}

// resolveProducts loads each order's products in sequence order with one store call.
func resolveProducts(ctx context.Context, products store.ProductStore, orders []domain.Order) ([]OrderDetails, error) {
	var ids []int64
	seen := make(map[int64]bool)
	for _, o := range orders {
		for _, pid := range o.ProductIDs {
			if !seen[pid] {
				seen[pid] = true
				ids = append(ids, pid)
			}
		}
	}
	resolved, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve order products: %w", err)
	}
	byID := make(map[int64]domain.Product, len(resolved))
	for _, p := range resolved {
		byID[p.ID] = p
	}

	details := make([]OrderDetails, 0, len(orders))
	for _, o := range orders {
		d := OrderDetails{Order: o, Products: make([]domain.Product, 0, len(o.ProductIDs))}
		for _, pid := range o.ProductIDs {
			d.Products = append(d.Products, byID[pid])
		}
		details = append(details, d)
	}
	return details, nil
}
