package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/abgdnv/ordermanagement/internal/domain"
	apperrors "github.com/abgdnv/ordermanagement/internal/errors"
	"github.com/shopspring/decimal"
)

// InMemory keeps products, orders and their associations in maps guarded by one RWMutex.
// Products and Orders expose the two store views over the shared state.
type InMemory struct {
	mu            sync.RWMutex
	products      map[int64]domain.Product
	orders        map[int64]domain.Order
	associations  *domain.Associations
	nextProductID int64
	nextOrderID   int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemory {
	return &InMemory{
		products:      make(map[int64]domain.Product),
		orders:        make(map[int64]domain.Order),
		associations:  domain.NewAssociations(),
		nextProductID: 1,
		nextOrderID:   1,
	}
}

// Products returns the ProductStore view.
func (s *InMemory) Products() ProductStore { return (*inMemoryProducts)(s) }

// Orders returns the OrderStore view.
func (s *InMemory) Orders() OrderStore { return (*inMemoryOrders)(s) }

type inMemoryProducts InMemory

func (s *inMemoryProducts) Create(_ context.Context, p domain.Product) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextProductID
	s.nextProductID++
	s.products[p.ID] = p
	return p, nil
}

func (s *inMemoryProducts) FindByID(_ context.Context, id int64) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, apperrors.ErrProductNotFound
	}
	return p, nil
}

func (s *inMemoryProducts) FindByIDs(_ context.Context, ids []int64) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := s.products[id]
		if !ok {
			return nil, &apperrors.MissingProductError{ProductID: id}
		}
		list = append(list, p)
	}
	return list, nil
}

func (s *inMemoryProducts) FindAllActive(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Visible() {
			list = append(list, p)
		}
	}
	slices.SortFunc(list, func(a, b domain.Product) int { return cmp.Compare(a.ID, b.ID) })
	return list, nil
}

func (s *inMemoryProducts) Update(_ context.Context, id int64, name string, price decimal.Decimal) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, apperrors.ErrProductNotFound
	}
	p.Replace(name, price)
	s.products[id] = p
	return p, nil
}

func (s *inMemoryProducts) SoftDelete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return apperrors.ErrProductNotFound
	}
	p.SoftDelete()
	s.products[id] = p
	return nil
}

type inMemoryOrders InMemory

func (s *inMemoryOrders) Create(_ context.Context, o domain.Order) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// validate every reference before touching state
	for _, pid := range o.ProductIDs {
		if _, ok := s.products[pid]; !ok {
			return domain.Order{}, &apperrors.MissingProductError{ProductID: pid}
		}
	}
	productIDs := o.ProductIDs
	o.ID = s.nextOrderID
	s.nextOrderID++
	for _, pid := range productIDs {
		s.associations.Associate(o.ID, pid)
	}
	o.ProductIDs = nil
	s.orders[o.ID] = o
	return s.withProducts(o), nil
}

func (s *inMemoryOrders) FindByID(_ context.Context, id int64) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, apperrors.ErrOrderNotFound
	}
	return s.withProducts(o), nil
}

func (s *inMemoryOrders) FindAll(_ context.Context) ([]domain.Order, error) {
	return s.filter(func(domain.Order) bool { return true }), nil
}

func (s *inMemoryOrders) FindPlacedBetween(_ context.Context, start, end time.Time) ([]domain.Order, error) {
	return s.filter(func(o domain.Order) bool { return o.PlacedBetween(start, end) }), nil
}

func (s *inMemoryOrders) FindByProductID(_ context.Context, productID int64) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.associations.OrdersOf(productID)
	list := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		list = append(list, s.withProducts(s.orders[id]))
	}
	return list, nil
}

func (s *inMemoryOrders) UpdateBuyerEmail(_ context.Context, id int64, buyerEmail string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, apperrors.ErrOrderNotFound
	}
	o.BuyerEmail = buyerEmail
	s.orders[id] = o
	return s.withProducts(o), nil
}

func (s *inMemoryOrders) filter(keep func(domain.Order) bool) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if keep(o) {
			list = append(list, s.withProducts(o))
		}
	}
	slices.SortFunc(list, func(a, b domain.Order) int { return cmp.Compare(a.ID, b.ID) })
	return list
}

// withProducts fills ProductIDs from the association index. Callers hold the lock.
func (s *inMemoryOrders) withProducts(o domain.Order) domain.Order {
	o.ProductIDs = s.associations.ProductsOf(o.ID)
	if o.ProductIDs == nil {
		o.ProductIDs = []int64{}
	}
	return o
}
