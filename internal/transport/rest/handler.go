// Package rest exposes products and orders over HTTP as HAL resources.
package rest

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/ordermanagement/internal/platform/web"
	"github.com/abgdnv/ordermanagement/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	products service.ProductService
	orders   service.OrderService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new Handler for the product and order resources.
func NewHandler(products service.ProductService, orders service.OrderService, logger *slog.Logger) *Handler {
	return &Handler{
		products: products,
		orders:   orders,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the product and order routes plus the health check.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetProduct)
			r.Put("/", h.ReplaceProduct)
			r.Delete("/", h.DeleteProduct)
			r.Get("/orders", h.ListProductOrders)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Post("/", h.PlaceOrder)

		// {id} doubles as the window start for /orders/{start}/{end}
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetOrder)
			r.Put("/", h.ReplaceOrder)
			r.Get("/products", h.ListOrderProducts)
			r.Get("/calculatetotalamount", h.CalculateTotalAmount)
			r.Get("/{end}", h.ListOrdersBetween)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, message string, err error, args ...any) {
	h.logger.ErrorContext(r.Context(), message, append(args, "error", err)...)
	web.RespondError(w, h.logger, http.StatusInternalServerError, message)
}
