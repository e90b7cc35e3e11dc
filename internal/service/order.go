package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/ordermanagement/internal/domain"
	"github.com/abgdnv/ordermanagement/internal/metrics"
	"github.com/abgdnv/ordermanagement/internal/platform/messaging"
	"github.com/abgdnv/ordermanagement/internal/platform/messaging/events"
	"github.com/abgdnv/ordermanagement/internal/store"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// OrderService manages orders and their product associations.
type OrderService interface {
	// Place resolves every referenced product by id, deleted or not, and persists the order
	// with its associations. Returns ErrProductReferenceNotFound if any id is absent.
	Place(ctx context.Context, dto OrderCreateDto) (OrderDetails, error)

	// FindByID returns ErrOrderNotFound if no order has the id.
	FindByID(ctx context.Context, id int64) (OrderDetails, error)

	// FindAll returns every order ordered by id.
	FindAll(ctx context.Context) ([]OrderDetails, error)

	// FindPlacedBetween returns orders placed within [start, end].
	FindPlacedBetween(ctx context.Context, start, end time.Time) ([]OrderDetails, error)

	// Replace overwrites the buyer email only. Returns ErrOrderNotFound if absent.
	Replace(ctx context.Context, id int64, dto OrderUpdateDto) (OrderDetails, error)

	// CalculateTotalAmount sums the prices of the order's products exactly.
	CalculateTotalAmount(ctx context.Context, id int64) (decimal.Decimal, error)

	// FindProducts returns the order's products in sequence order, soft-deleted ones included.
	FindProducts(ctx context.Context, id int64) ([]domain.Product, error)
}

type OrderServiceImpl struct {
	orders    store.OrderStore
	products  store.ProductStore
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewOrderService creates an OrderService. m may be nil; publisher must not be.
func NewOrderService(orders store.OrderStore, products store.ProductStore, publisher messaging.Publisher, m *metrics.Metrics, logger *slog.Logger) *OrderServiceImpl {
	return &OrderServiceImpl{
		orders:    orders,
		products:  products,
		publisher: publisher,
		metrics:   m,
		logger:    logger.With("component", "order_service"),
		now:       time.Now,
	}
}

func (s *OrderServiceImpl) Place(ctx context.Context, dto OrderCreateDto) (OrderDetails, error) {
	ids := dto.productIDs()
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return OrderDetails{}, fmt.Errorf("place order: %w", err)
	}

	order := domain.NewOrder(dto.BuyerEmail, s.now())
	order.ProductIDs = ids
	created, err := s.orders.Create(ctx, order)
	if err != nil {
		return OrderDetails{}, fmt.Errorf("place order: %w", err)
	}

	details := OrderDetails{Order: created, Products: products}
	total := details.Total()
	s.metrics.OrderPlaced(total)
	s.publishPlaced(ctx, details, total)
	return details, nil
}

// publishPlaced emits OrderPlaced. Failures are logged and counted, never returned.
func (s *OrderServiceImpl) publishPlaced(ctx context.Context, details OrderDetails, total decimal.Decimal) {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.OrderPlaced{
		Carrier:     carrier,
		OrderID:     details.Order.ID,
		BuyerEmail:  details.Order.BuyerEmail,
		ProductIDs:  details.Order.ProductIDs,
		TotalAmount: total,
		PlacedAt:    details.Order.PlacedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.PublishFailed()
		s.logger.ErrorContext(ctx, "Failed to publish OrderPlaced event", "orderID", details.Order.ID, "error", err)
	}
}

func (s *OrderServiceImpl) FindByID(ctx context.Context, id int64) (OrderDetails, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return OrderDetails{}, err
	}
	return s.details(ctx, o)
}

func (s *OrderServiceImpl) FindAll(ctx context.Context) ([]OrderDetails, error) {
	orders, err := s.orders.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return resolveProducts(ctx, s.products, orders)
}

func (s *OrderServiceImpl) FindPlacedBetween(ctx context.Context, start, end time.Time) ([]OrderDetails, error) {
	orders, err := s.orders.FindPlacedBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list orders between %s and %s: %w", start, end, err)
	}
	return resolveProducts(ctx, s.products, orders)
}

func (s *OrderServiceImpl) Replace(ctx context.Context, id int64, dto OrderUpdateDto) (OrderDetails, error) {
	o, err := s.orders.UpdateBuyerEmail(ctx, id, dto.BuyerEmail)
	if err != nil {
		return OrderDetails{}, err
	}
	return s.details(ctx, o)
}

func (s *OrderServiceImpl) CalculateTotalAmount(ctx context.Context, id int64) (decimal.Decimal, error) {
	d, err := s.FindByID(ctx, id)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return d.Total(), nil
}

func (s *OrderServiceImpl) FindProducts(ctx context.Context, id int64) ([]domain.Product, error) {
	d, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.Products, nil
}

func (s *OrderServiceImpl) details(ctx context.Context, o domain.Order) (OrderDetails, error) {
	products, err := s.products.FindByIDs(ctx, o.ProductIDs)
	if err != nil {
		return OrderDetails{}, fmt.Errorf("resolve products of order %d: %w", o.ID, err)
	}
	return OrderDetails{Order: o, Products: products}, nil
}
