package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medsupply/supply-backend/internal/supply/service"
	"github.com/medsupply/supply-backend/pkg/httputil"
	"github.com/medsupply/supply-backend/pkg/logger"
)

// DeliveryHandler handles hospital delivery endpoints
type DeliveryHandler struct {
	service *service.DeliveryService
	logger  *logger.Logger
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(svc *service.DeliveryService, log *logger.Logger) *DeliveryHandler {
	return &DeliveryHandler{
		service: svc,
		logger:  log,
	}
}

// List lists deliveries, optionally filtered by hospital
func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	hospitalID := r.URL.Query().Get("hospital_id")

	deliveries, total, err := h.service.ListDeliveries(r.Context(), hospitalID, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, deliveries, paginationMeta(page, perPage, total))
}

// Get gets a delivery with its line items
func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	delivery, err := h.service.GetDelivery(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, delivery)
}

// Create creates a delivery with line items, debiting warehouse stock
func (h *DeliveryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.DeliveryInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	delivery, err := h.service.CreateDelivery(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, delivery)
}

// Delete deletes a delivery, crediting its items back to stock
func (h *DeliveryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteDelivery(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// AddItem adds a line item to a delivery
func (h *DeliveryHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	deliveryID := chi.URLParam(r, "id")

	var input service.ItemInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.service.AddItem(r.Context(), deliveryID, input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, item)
}

// UpdateItem updates a line item, re-balancing warehouse stock
func (h *DeliveryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	var input service.ItemInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.service.UpdateItem(r.Context(), itemID, input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// DeleteItem deletes a line item, crediting its quantity back to stock
func (h *DeliveryHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	if err := h.service.DeleteItem(r.Context(), itemID); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
