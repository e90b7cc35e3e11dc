package rest

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/abgdnv/ordermanagement/internal/errors"
	"github.com/abgdnv/ordermanagement/internal/platform/web"
	"github.com/abgdnv/ordermanagement/internal/service"
)

// ListOrders returns every order.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.FindAll(r.Context())
	if err != nil {
		h.internalError(w, r, "Failed to fetch orders", err)
		return
	}
	web.RespondHAL(w, h.logger, http.StatusOK, newLinkBuilder(r).orderCollection(list, "/orders"))
}

// ListOrdersBetween returns orders placed within the window given by two yyyy-MM-ddTHHAmm path segments.
// Like every order collection, its self link is /orders.
func (h *Handler) ListOrdersBetween(w http.ResponseWriter, r *http.Request) {
	startSegment, endSegment := r.PathValue("id"), r.PathValue("end")
	start, err := parseWindowBound(startSegment)
	if err != nil {
		web.RespondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseWindowBound(endSegment)
	if err != nil {
		web.RespondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	list, err := h.orders.FindPlacedBetween(r.Context(), start, end)
	if err != nil {
		h.internalError(w, r, "Failed to fetch orders", err, "start", start, "end", end)
		return
	}
	web.RespondHAL(w, h.logger, http.StatusOK, newLinkBuilder(r).orderCollection(list, "/orders"))
}

// PlaceOrder creates an order from a buyer email and product references.
// Unknown product ids yield 404 and nothing is stored.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var dto service.OrderCreateDto
	if !web.DecodeValid(w, r, h.logger, h.validate, &dto) {
		return
	}
	placed, err := h.orders.Place(r.Context(), dto)
	if err != nil {
		var missing *apperrors.MissingProductError
		if errors.As(err, &missing) {
			h.logger.WarnContext(r.Context(), "Order references unknown product", "productID", missing.ProductID)
			web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", missing.ProductID))
			return
		}
		if errors.Is(err, apperrors.ErrProductReferenceNotFound) {
			web.RespondError(w, h.logger, http.StatusNotFound, "Referenced product not found")
			return
		}
		h.internalError(w, r, "Failed to place order", err)
		return
	}
	h.logger.InfoContext(r.Context(), "Order placed successfully", "ID", placed.Order.ID, "products", len(placed.Products))
	model := newLinkBuilder(r).order(placed)
	w.Header().Set("Location", model.Links["self"].Href)
	web.RespondHAL(w, h.logger, http.StatusCreated, model)
}

// GetOrder returns a single order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	found, err := h.orders.FindByID(r.Context(), id)
	if err != nil {
		h.orderLookupError(w, r, id, err)
		return
	}
	web.RespondHAL(w, h.logger, http.StatusOK, newLinkBuilder(r).order(found))
}

// ReplaceOrder overwrites the buyer email. A missing order yields 204 with no body.
func (h *Handler) ReplaceOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var dto service.OrderUpdateDto
	if !web.DecodeValid(w, r, h.logger, h.validate, &dto) {
		return
	}
	updated, err := h.orders.Replace(r.Context(), id, dto)
	if err != nil {
		if errors.Is(err, apperrors.ErrOrderNotFound) {
			h.logger.WarnContext(r.Context(), "Order not found for replacement", "ID", id)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.internalError(w, r, fmt.Sprintf("Failed to replace order with ID %d", id), err)
		return
	}
	h.logger.InfoContext(r.Context(), "Order replaced successfully", "ID", id)
	model := newLinkBuilder(r).order(updated)
	w.Header().Set("Location", model.Links["self"].Href)
	web.RespondHAL(w, h.logger, http.StatusCreated, model)
}

// CalculateTotalAmount answers {"totalAmount": n} with the exact sum of the order's product prices.
func (h *Handler) CalculateTotalAmount(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	total, err := h.orders.CalculateTotalAmount(r.Context(), id)
	if err != nil {
		h.orderLookupError(w, r, id, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, totalAmountModel{TotalAmount: decimalNumber(total)})
}

// ListOrderProducts returns the order's products in the order they were added, deleted ones included.
func (h *Handler) ListOrderProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	products, err := h.orders.FindProducts(r.Context(), id)
	if err != nil {
		h.orderLookupError(w, r, id, err)
		return
	}
	web.RespondHAL(w, h.logger, http.StatusOK, newLinkBuilder(r).productCollection(products, "/orders"))
}

func (h *Handler) orderLookupError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if errors.Is(err, apperrors.ErrOrderNotFound) {
		h.logger.WarnContext(r.Context(), "Order not found", "ID", id)
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Order with ID %d not found", id))
		return
	}
	h.internalError(w, r, fmt.Sprintf("Failed to retrieve order with ID %d", id), err)
}
