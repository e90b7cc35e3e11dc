// Package grpc exposes read-only product and order queries over gRPC using well-known protobuf types.
package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/abgdnv/ordermanagement/internal/domain"
	apperrors "github.com/abgdnv/ordermanagement/internal/errors"
	"github.com/shopspring/decimal"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName                = "ordermanagement.v1.OrderQuery"
	GetProductMethod           = "/" + ServiceName + "/GetProduct"
	CalculateTotalAmountMethod = "/" + ServiceName + "/CalculateTotalAmount"
)

// ProductFinder looks up a single product.
type ProductFinder interface {
	FindByID(ctx context.Context, id int64) (domain.Product, error)
}

// TotalCalculator sums the prices of an order's products.
type TotalCalculator interface {
	CalculateTotalAmount(ctx context.Context, id int64) (decimal.Decimal, error)
}

// OrderQueryServer is the server API of the OrderQuery service.
type OrderQueryServer interface {
	GetProduct(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	CalculateTotalAmount(context.Context, *wrapperspb.Int64Value) (*wrapperspb.DoubleValue, error)
}

type Server struct {
	products ProductFinder
	orders   TotalCalculator
	logger   *slog.Logger
}

func NewServer(products ProductFinder, orders TotalCalculator, logger *slog.Logger) *Server {
	return &Server{products: products, orders: orders, logger: logger.With("component", "grpc")}
}

// Register adds the OrderQuery service to s.
func (s *Server) Register(gs *grpclib.Server) {
	gs.RegisterService(&OrderQueryServiceDesc, s)
}

func (s *Server) GetProduct(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id := req.GetValue()
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrProductNotFound) {
			return nil, status.Errorf(codes.NotFound, "product with id %d not found", id)
		}
		s.logger.ErrorContext(ctx, "products.FindByID failed", "product_id", id, "error", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return structpb.NewStruct(map[string]any{
		"stockKeepingUnitID": product.ID,
		"name":               product.Name,
		"price":              product.Price.String(),
		"creationDate":       product.CreationDate.UTC().Format(time.RFC3339),
		"deletionFlag":       product.DeletionFlag,
	})
}

func (s *Server) CalculateTotalAmount(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.DoubleValue, error) {
	id := req.GetValue()
	total, err := s.orders.CalculateTotalAmount(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrOrderNotFound) {
			return nil, status.Errorf(codes.NotFound, "order with id %d not found", id)
		}
		s.logger.ErrorContext(ctx, "orders.CalculateTotalAmount failed", "order_id", id, "error", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return wrapperspb.Double(total.InexactFloat64()), nil
}

func getProductHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderQueryServer).GetProduct(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: GetProductMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderQueryServer).GetProduct(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func calculateTotalAmountHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderQueryServer).CalculateTotalAmount(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: CalculateTotalAmountMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderQueryServer).CalculateTotalAmount(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

// OrderQueryServiceDesc describes the OrderQuery service. Messages are protobuf well-known types.
var OrderQueryServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderQueryServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "GetProduct", Handler: getProductHandler},
		{MethodName: "CalculateTotalAmount", Handler: calculateTotalAmountHandler},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "ordermanagement/v1/order_query.proto",
}

// Client calls the OrderQuery service.
type Client struct {
	cc grpclib.ClientConnInterface
}

func NewClient(cc grpclib.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) GetProduct(ctx context.Context, id int64, opts ...grpclib.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetProductMethod, wrapperspb.Int64(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CalculateTotalAmount(ctx context.Context, id int64, opts ...grpclib.CallOption) (float64, error) {
	out := new(wrapperspb.DoubleValue)
	if err := c.cc.Invoke(ctx, CalculateTotalAmountMethod, wrapperspb.Int64(id), out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}
