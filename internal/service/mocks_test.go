package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/abgdnv/ordermanagement/internal/domain"
	"github.com/abgdnv/ordermanagement/internal/platform/messaging"
	"github.com/abgdnv/ordermanagement/internal/store"
	"github.com/shopspring/decimal"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var fixedNow = time.Date(2021, 6, 15, 9, 30, 0, 0, time.UTC)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// failingProductStore returns err from every method.
type failingProductStore struct {
	store.ProductStore
	err error
}

func (m *failingProductStore) Create(context.Context, domain.Product) (domain.Product, error) {
	return domain.Product{}, m.err
}

func (m *failingProductStore) FindAllActive(context.Context) ([]domain.Product, error) {
	return nil, m.err
}

func (m *failingProductStore) FindByID(context.Context, int64) (domain.Product, error) {
	return domain.Product{}, m.err
}

func (m *failingProductStore) SoftDelete(context.Context, int64) error {
	return m.err
}

// failingOrderStore returns err from every method.
type failingOrderStore struct {
	store.OrderStore
	err error
}

func (m *failingOrderStore) Create(context.Context, domain.Order) (domain.Order, error) {
	return domain.Order{}, m.err
}

func (m *failingOrderStore) FindAll(context.Context) ([]domain.Order, error) {
	return nil, m.err
}

// mockPublisher records published events.
type mockPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, event messaging.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func newServices(pub messaging.Publisher) (*ProductServiceImpl, *OrderServiceImpl) {
	mem := store.NewInMemoryStore()
	ps := NewProductService(mem.Products(), mem.Orders(), nil, discardLogger)
	ps.now = func() time.Time { return fixedNow }
	orderSvc := NewOrderService(mem.Orders(), mem.Products(), pub, nil, discardLogger)
	orderSvc.now = func() time.Time { return fixedNow }
	return ps, orderSvc
}
