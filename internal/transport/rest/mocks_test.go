package rest

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/abgdnv/ordermanagement/internal/domain"
	"github.com/abgdnv/ordermanagement/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var created = time.Date(2021, 6, 15, 9, 30, 0, 0, time.UTC)

type mockProductService struct {
	product    domain.Product
	products   []domain.Product
	orders     []service.OrderDetails
	err        error
	deletedIDs []int64
}

func (m *mockProductService) Create(_ context.Context, dto service.ProductDto) (domain.Product, error) {
	if m.err != nil {
		return domain.Product{}, m.err
	}
	return domain.Product{ID: 1, Name: dto.Name, Price: *dto.Price, CreationDate: created}, nil
}

func (m *mockProductService) FindAll(context.Context) ([]domain.Product, error) {
	return m.products, m.err
}

func (m *mockProductService) FindByID(context.Context, int64) (domain.Product, error) {
	return m.product, m.err
}

func (m *mockProductService) Replace(_ context.Context, id int64, dto service.ProductDto) (domain.Product, error) {
	if m.err != nil {
		return domain.Product{}, m.err
	}
	return domain.Product{ID: id, Name: dto.Name, Price: *dto.Price, CreationDate: created}, nil
}

func (m *mockProductService) SoftDelete(_ context.Context, id int64) error {
	m.deletedIDs = append(m.deletedIDs, id)
	return m.err
}

func (m *mockProductService) FindOrders(context.Context, int64) ([]service.OrderDetails, error) {
	return m.orders, m.err
}

type mockOrderService struct {
	details  service.OrderDetails
	list     []service.OrderDetails
	total    decimal.Decimal
	products []domain.Product
	err      error

	placed      service.OrderCreateDto
	windowStart time.Time
	windowEnd   time.Time
}

func (m *mockOrderService) Place(_ context.Context, dto service.OrderCreateDto) (service.OrderDetails, error) {
	m.placed = dto
	return m.details, m.err
}

func (m *mockOrderService) FindByID(context.Context, int64) (service.OrderDetails, error) {
	return m.details, m.err
}

func (m *mockOrderService) FindAll(context.Context) ([]service.OrderDetails, error) {
	return m.list, m.err
}

func (m *mockOrderService) FindPlacedBetween(_ context.Context, start, end time.Time) ([]service.OrderDetails, error) {
	m.windowStart, m.windowEnd = start, end
	return m.list, m.err
}

func (m *mockOrderService) Replace(context.Context, int64, service.OrderUpdateDto) (service.OrderDetails, error) {
	return m.details, m.err
}

func (m *mockOrderService) CalculateTotalAmount(context.Context, int64) (decimal.Decimal, error) {
	return m.total, m.err
}

func (m *mockOrderService) FindProducts(context.Context, int64) ([]domain.Product, error) {
	return m.products, m.err
}

func newRouter(ps service.ProductService, orders service.OrderService) *chi.Mux {
	r := chi.NewRouter()
	NewHandler(ps, orders, discardLogger).RegisterRoutes(r)
	return r
}

func product(id int64, name, price string, deleted bool) domain.Product {
	return domain.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), CreationDate: created, DeletionFlag: deleted}
}
