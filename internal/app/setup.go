// Package app contains the application setup for the order management service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/ordermanagement/internal/config"
	"github.com/abgdnv/ordermanagement/internal/metrics"
	"github.com/abgdnv/ordermanagement/internal/platform/bootstrap"
	pconfig "github.com/abgdnv/ordermanagement/internal/platform/config"
	"github.com/abgdnv/ordermanagement/internal/platform/messaging"
	"github.com/abgdnv/ordermanagement/internal/platform/nats"
	"github.com/abgdnv/ordermanagement/internal/platform/server"
	"github.com/abgdnv/ordermanagement/internal/service"
	"github.com/abgdnv/ordermanagement/internal/store"
	grpcImpl "github.com/abgdnv/ordermanagement/internal/transport/grpc"
	"github.com/abgdnv/ordermanagement/internal/transport/rest"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
)

const serviceName = "ordermanagement"

type Dependencies struct {
	ProductService service.ProductService
	OrderService   service.OrderService
	Registry       *prometheus.Registry
	Logger         *slog.Logger
}

// Stores bundles the product and order stores of one backend.
type Stores struct {
	Products store.ProductStore
	Orders   store.OrderStore
}

// NewMemoryStores returns stores backed by a single in-memory store.
func NewMemoryStores() Stores {
	s := store.NewInMemoryStore()
	return Stores{Products: s.Products(), Orders: s.Orders()}
}

// NewPgStores returns stores backed by dbPool.
func NewPgStores(dbPool *pgxpool.Pool) Stores {
	return Stores{Products: store.NewPgProductStore(dbPool), Orders: store.NewPgOrderStore(dbPool)}
}

// SetupStores opens the storage backend selected by cfg. For postgres it connects, optionally
// applies migrations, and returns a close func releasing the pool.
func SetupStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Stores, func(), error) {
	if cfg.Storage.Kind == pconfig.StorageMemory {
		logger.Info("Using in-memory storage")
		return NewMemoryStores(), func() {}, nil
	}
	if cfg.Database.Migrate {
		if err := store.Migrate(cfg.Database.URL); err != nil {
			return Stores{}, nil, err
		}
		logger.Info("Database migrations applied")
	}
	dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
	if err != nil {
		return Stores{}, nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	logger.Info("Successfully connected to the database!")
	return NewPgStores(dbPool), dbPool.Close, nil
}

// SetupPublisher returns the OrderPlaced publisher. With NATS disabled events are dropped.
func SetupPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.Nats.Enabled {
		logger.Info("NATS is disabled, order events will not be published")
		return messaging.NoopPublisher{}, func() {}, nil
	}
	nc, err := nats.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := nats.NewJetStream(ctx, nc, cfg.Nats.Stream, messaging.OrdersPlacedSubject)
	if err != nil {
		nc.Close()
		return nil, nil, err
	}
	logger.Info("Connected to NATS", slog.String("url", cfg.Nats.Url), slog.String("stream", cfg.Nats.Stream))
	publisher := messaging.NewBreakerPublisher(nats.NewNatsPublisher(js), cfg.Resilience.CircuitBreaker)
	return publisher, func() {
		if err := nc.Drain(); err != nil {
			logger.Error("Failed to drain NATS connection", slog.String("error", err.Error()))
		}
	}, nil
}

func SetupDependencies(stores Stores, publisher messaging.Publisher, logger *slog.Logger) *Dependencies {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	return &Dependencies{
		ProductService: service.NewProductService(stores.Products, stores.Orders, m, logger),
		OrderService:   service.NewOrderService(stores.Orders, stores.Products, publisher, m, logger),
		Registry:       registry,
		Logger:         logger,
	}
}

// SetupHttpHandler initializes the routes, /metrics and tracing for the service.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return otelhttp.NewHandler(mux, serviceName)
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	rest.NewHandler(deps.ProductService, deps.OrderService, deps.Logger).RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

// SetupHttpServer creates and configures the public HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}

// SetupGrpcServer initializes the gRPC server with the OrderQuery service.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	queries := grpcImpl.NewServer(deps.ProductService, deps.OrderService, deps.Logger)
	return server.NewGRPCServer(deps.Logger, reflectionEnabled, queries.Register)
}
