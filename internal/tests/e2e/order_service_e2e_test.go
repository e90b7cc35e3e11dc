// Package e2e provides end-to-end tests for the order management service.
// The suite starts PostgreSQL with testcontainers-go, applies the embedded migrations and runs the
// real HTTP handler in an httptest.Server and the gRPC server on a loopback listener.
// Each test starts from empty tables.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/ordermanagement/internal/app"
	"github.com/abgdnv/ordermanagement/internal/platform/messaging"
	"github.com/abgdnv/ordermanagement/internal/store"
	grpcImpl "github.com/abgdnv/ordermanagement/internal/transport/grpc"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// skipE2ETests is the environment variable that can be set to skip E2E tests.
const skipE2ETests = "ORDER_SVC_SKIP_E2E_TESTS"

type OrderServiceE2ESuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	server      *httptest.Server
	grpcServer  *grpc.Server
	grpcConn    *grpc.ClientConn
	queries     *grpcImpl.Client
	httpClient  *http.Client
	logger      *slog.Logger
	ctx         context.Context
}

func (s *OrderServiceE2ESuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// 1. Start a PostgreSQL container and wait until it accepts connections
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("orders"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	// 2. Connect, retrying while the server finishes starting
	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgx pool")
	for i := range 10 {
		s.logger.Info("Pinging E2E PostgreSQL database", "attempt", i+1)
		if err = s.dbPool.Ping(s.ctx); err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	// 3. Apply the embedded migrations
	require.NoError(s.T(), store.Migrate(connStr), "Failed to apply migrations")
	s.logger.Info("Migrations applied for E2E tests")

	// 4. Wire the application the same way main does, without NATS
	deps := app.SetupDependencies(app.NewPgStores(s.dbPool), messaging.NoopPublisher{}, s.logger)
	s.server = httptest.NewServer(app.SetupHttpHandler(deps))
	s.httpClient = s.server.Client()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(s.T(), err)
	s.grpcServer = app.SetupGrpcServer(deps, false)
	go func() { _ = s.grpcServer.Serve(lis) }()
	s.grpcConn, err = grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(s.T(), err)
	s.queries = grpcImpl.NewClient(s.grpcConn)
	s.logger.Info("E2E servers started", "http", s.server.URL, "grpc", lis.Addr().String())
}

func (s *OrderServiceE2ESuite) TearDownSuite() {
	if s.grpcConn != nil {
		_ = s.grpcConn.Close()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.server != nil {
		s.server.Close()
	}
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("Failed to terminate E2E PostgreSQL container", "error", err)
		}
	}
}

// SetupTest empties all tables and resets the id sequences.
func (s *OrderServiceE2ESuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE order_products, orders, products RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err, "Failed to truncate tables")
}

func TestOrderServiceE2E(t *testing.T) {
	if os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping E2E tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, new(OrderServiceE2ESuite))
}

// --------------------------------------------------------------------------
// ---------- Payload structures and Helper methods for E2E tests -----------
// --------------------------------------------------------------------------

type link struct {
	Href string `json:"href"`
}

type productResource struct {
	ID           int64           `json:"stockKeepingUnitID"`
	Name         string          `json:"name"`
	Price        json.Number     `json:"price"`
	CreationDate time.Time       `json:"creationDate"`
	DeletionFlag bool            `json:"deletionFlag"`
	Links        map[string]link `json:"_links"`
}

type orderResource struct {
	ID         int64             `json:"orderID"`
	BuyerEmail string            `json:"buyerEmail"`
	PlacedAt   time.Time         `json:"orderPlacedTime"`
	Products   []productResource `json:"products"`
	Links      map[string]link   `json:"_links"`
}

type collection struct {
	Embedded struct {
		Products []productResource `json:"productList"`
		Orders   []orderResource   `json:"orderList"`
	} `json:"_embedded"`
	Links map[string]link `json:"_links"`
}

type productRef struct {
	ID int64 `json:"stockKeepingUnitID"`
}

func (s *OrderServiceE2ESuite) createProduct(name string, price float64) productResource {
	s.T().Helper()
	var p productResource
	code := s.doJSON(http.MethodPost, "/products", map[string]any{"name": name, "price": price}, &p)
	s.Require().Equal(http.StatusCreated, code)
	return p
}

func (s *OrderServiceE2ESuite) placeOrder(email string, ids ...int64) (orderResource, int) {
	s.T().Helper()
	refs := make([]productRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, productRef{ID: id})
	}
	var o orderResource
	code := s.doJSON(http.MethodPost, "/orders", map[string]any{"buyerEmail": email, "products": refs}, &o)
	return o, code
}

// doJSON sends payload as JSON and decodes a 200 or 201 body into out. Returns the status code.
func (s *OrderServiceE2ESuite) doJSON(method, path string, payload, out any) int {
	s.T().Helper()
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		s.Require().NoError(err)
		body = bytes.NewBuffer(payloadBytes)
	}
	req, err := http.NewRequestWithContext(s.ctx, method, s.server.URL+path, body)
	s.Require().NoError(err, "Failed to create HTTP request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err, "HTTP request failed")
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	s.Require().NoError(err, "Failed to read response body")
	if out != nil && (resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated) {
		s.Require().NoError(json.Unmarshal(bodyBytes, out), string(bodyBytes))
	}
	return resp.StatusCode
}

// --------------------------------------------------------------------------
// ------------------------------- Tests ------------------------------------
// --------------------------------------------------------------------------

func (s *OrderServiceE2ESuite) TestProductLifecycle() {
	created := s.createProduct("Paracetamol", 5.12)
	s.Equal(int64(1), created.ID)
	s.Equal("5.12", created.Price.String())
	s.Equal(s.server.URL+"/products/1", created.Links["self"].Href)
	s.Equal(s.server.URL+"/products", created.Links["products"].Href)

	var replaced productResource
	code := s.doJSON(http.MethodPut, "/products/1", map[string]any{"name": "Paracetamol 500", "price": "6.00"}, &replaced)
	s.Equal(http.StatusCreated, code)
	s.Equal("Paracetamol 500", replaced.Name)
	s.Equal(created.CreationDate, replaced.CreationDate)

	code = s.doJSON(http.MethodPut, "/products/99", map[string]any{"name": "Ghost", "price": 1}, nil)
	s.Equal(http.StatusNoContent, code)

	s.Equal(http.StatusNoContent, s.doJSON(http.MethodDelete, "/products/1", nil, nil))
	s.Equal(http.StatusNoContent, s.doJSON(http.MethodDelete, "/products/1", nil, nil))
	s.Equal(http.StatusNotFound, s.doJSON(http.MethodGet, "/products/1", nil, nil))

	var list collection
	s.Equal(http.StatusOK, s.doJSON(http.MethodGet, "/products", nil, &list))
	s.Empty(list.Embedded.Products)
	s.Equal(s.server.URL+"/products", list.Links["self"].Href)
}

func (s *OrderServiceE2ESuite) TestPlaceOrderAndTotal() {
	paracetamol := s.createProduct("Paracetamol", 5.12)
	panadol := s.createProduct("Panadol", 8.79)

	order, code := s.placeOrder("buyer@example.com", panadol.ID, paracetamol.ID, panadol.ID)
	s.Require().Equal(http.StatusCreated, code)
	s.Require().Len(order.Products, 3)
	s.Equal([]int64{panadol.ID, paracetamol.ID, panadol.ID},
		[]int64{order.Products[0].ID, order.Products[1].ID, order.Products[2].ID})

	var total map[string]json.Number
	s.Equal(http.StatusOK, s.doJSON(http.MethodGet, fmt.Sprintf("/orders/%d/calculatetotalamount", order.ID), nil, &total))
	s.Equal("22.7", total["totalAmount"].String())

	grpcTotal, err := s.queries.CalculateTotalAmount(s.ctx, order.ID)
	s.Require().NoError(err)
	s.InDelta(22.70, grpcTotal, 1e-9)

	var orders collection
	s.Equal(http.StatusOK, s.doJSON(http.MethodGet, fmt.Sprintf("/products/%d/orders", panadol.ID), nil, &orders))
	s.Len(orders.Embedded.Orders, 1)
}

func (s *OrderServiceE2ESuite) TestPlaceOrder_UnknownProductStoresNothing() {
	paracetamol := s.createProduct("Paracetamol", 5.12)

	_, code := s.placeOrder("buyer@example.com", paracetamol.ID, 42)
	s.Equal(http.StatusNotFound, code)

	var orders collection
	s.Equal(http.StatusOK, s.doJSON(http.MethodGet, "/orders", nil, &orders))
	s.Empty(orders.Embedded.Orders)
}

func (s *OrderServiceE2ESuite) TestDeletedProductStaysOnOrder() {
	paracetamol := s.createProduct("Paracetamol", 5.12)
	order, code := s.placeOrder("buyer@example.com", paracetamol.ID)
	s.Require().Equal(http.StatusCreated, code)

	s.Equal(http.StatusNoContent, s.doJSON(http.MethodDelete, fmt.Sprintf("/products/%d", paracetamol.ID), nil, nil))

	var products collection
	s.Equal(http.StatusOK, s.doJSON(http.MethodGet, fmt.Sprintf("/orders/%d/products", order.ID), nil, &products))
	s.Require().Len(products.Embedded.Products, 1)
	s.True(products.Embedded.Products[0].DeletionFlag)

	_, err := s.queries.GetProduct(s.ctx, paracetamol.ID)
	s.Equal(codes.NotFound, status.Code(err))
}

func (s *OrderServiceE2ESuite) TestOrdersBetween() {
	paracetamol := s.createProduct("Paracetamol", 5.12)
	order, code := s.placeOrder("buyer@example.com", paracetamol.ID)
	s.Require().Equal(http.StatusCreated, code)

	start := order.PlacedAt.Add(-time.Hour).UTC().Format("2006-01-02T15A04")
	end := order.PlacedAt.Add(time.Hour).UTC().Format("2006-01-02T15A04")

	var inside collection
	s.Equal(http.StatusOK, s.doJSON(http.MethodGet, "/orders/"+start+"/"+end, nil, &inside))
	s.Len(inside.Embedded.Orders, 1)

	var outside collection
	s.Equal(http.StatusOK, s.doJSON(http.MethodGet, "/orders/2000-01-01T00A00/2000-01-02T00A00", nil, &outside))
	s.Empty(outside.Embedded.Orders)

	s.Equal(http.StatusBadRequest, s.doJSON(http.MethodGet, "/orders/yesterday/"+end, nil, nil))
}

func (s *OrderServiceE2ESuite) TestReplaceOrderEmail() {
	paracetamol := s.createProduct("Paracetamol", 5.12)
	order, code := s.placeOrder("buyer@example.com", paracetamol.ID)
	s.Require().Equal(http.StatusCreated, code)

	var replaced orderResource
	s.Equal(http.StatusCreated, s.doJSON(http.MethodPut, fmt.Sprintf("/orders/%d", order.ID),
		map[string]any{"buyerEmail": "other@example.com"}, &replaced))
	s.Equal("other@example.com", replaced.BuyerEmail)
	s.True(order.PlacedAt.Equal(replaced.PlacedAt))
	s.Len(replaced.Products, 1)

	s.Equal(http.StatusNoContent, s.doJSON(http.MethodPut, "/orders/99", map[string]any{"buyerEmail": "x@example.com"}, nil))
}
