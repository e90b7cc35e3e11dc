package rest

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/abgdnv/ordermanagement/internal/errors"
	"github.com/abgdnv/ordermanagement/internal/platform/web"
	"github.com/abgdnv/ordermanagement/internal/service"
)

// ListProducts returns every product that is not soft-deleted.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.products.FindAll(r.Context())
	if err != nil {
		h.internalError(w, r, "Failed to fetch products", err)
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondHAL(w, h.logger, http.StatusOK, newLinkBuilder(r).productCollection(list, "/products"))
}

// CreateProduct adds a product and answers 201 with its location.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var dto service.ProductDto
	if !web.DecodeValid(w, r, h.logger, h.validate, &dto) {
		return
	}
	created, err := h.products.Create(r.Context(), dto)
	if err != nil {
		h.internalError(w, r, "Failed to create product", err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	model := newLinkBuilder(r).product(created)
	w.Header().Set("Location", model.Links["self"].Href)
	web.RespondHAL(w, h.logger, http.StatusCreated, model)
}

// GetProduct returns a product unless it is absent or soft-deleted.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	found, err := h.products.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrProductNotFound) {
			h.logger.WarnContext(r.Context(), "Product not found", "ID", id)
			web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
			return
		}
		h.internalError(w, r, fmt.Sprintf("Failed to retrieve product with ID %d", id), err)
		return
	}
	web.RespondHAL(w, h.logger, http.StatusOK, newLinkBuilder(r).product(found))
}

// ReplaceProduct overwrites name and price. A missing product yields 204 with no body.
func (h *Handler) ReplaceProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var dto service.ProductDto
	if !web.DecodeValid(w, r, h.logger, h.validate, &dto) {
		return
	}
	updated, err := h.products.Replace(r.Context(), id, dto)
	if err != nil {
		if errors.Is(err, apperrors.ErrProductNotFound) {
			h.logger.WarnContext(r.Context(), "Product not found for replacement", "ID", id)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.internalError(w, r, fmt.Sprintf("Failed to replace product with ID %d", id), err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product replaced successfully", "ID", updated.ID)
	model := newLinkBuilder(r).product(updated)
	w.Header().Set("Location", model.Links["self"].Href)
	web.RespondHAL(w, h.logger, http.StatusCreated, model)
}

// DeleteProduct soft-deletes a product. It answers 204 whether or not the product exists.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.products.SoftDelete(r.Context(), id); err != nil {
		h.internalError(w, r, fmt.Sprintf("Failed to delete product with ID %d", id), err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// ListProductOrders returns the orders that reference a product.
func (h *Handler) ListProductOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	orders, err := h.products.FindOrders(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrProductNotFound) {
			web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
			return
		}
		h.internalError(w, r, fmt.Sprintf("Failed to fetch orders of product with ID %d", id), err)
		return
	}
	web.RespondHAL(w, h.logger, http.StatusOK, newLinkBuilder(r).orderCollection(orders, fmt.Sprintf("/products/%d/orders", id)))
}
