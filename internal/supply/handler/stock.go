package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medsupply/supply-backend/internal/supply/service"
	"github.com/medsupply/supply-backend/pkg/httputil"
	"github.com/medsupply/supply-backend/pkg/logger"
)

// StockHandler handles warehouse balance and stock movement endpoints
type StockHandler struct {
	service *service.LedgerService
	logger  *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(svc *service.LedgerService, log *logger.Logger) *StockHandler {
	return &StockHandler{
		service: svc,
		logger:  log,
	}
}

// ListBalances lists all warehouse balances
func (h *StockHandler) ListBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.service.ListBalances(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, balances)
}

// GetBalance gets the balance for one reagent
func (h *StockHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	reagentID := chi.URLParam(r, "id")

	balance, err := h.service.GetBalance(r.Context(), reagentID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, balance)
}

// ListMovementsByReagent lists movement history for one reagent
func (h *StockHandler) ListMovementsByReagent(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	reagentID := chi.URLParam(r, "id")

	movements, total, err := h.service.ListMovements(r.Context(), reagentID, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, movements, paginationMeta(page, perPage, total))
}

// RecordMovement records an IN or OUT stock movement
func (h *StockHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	var input service.MovementInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	movement, err := h.service.RecordMovement(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, movement)
}

// ListMovements lists stock movements, optionally filtered by reagent
func (h *StockHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	reagentID := r.URL.Query().Get("reagent_id")

	movements, total, err := h.service.ListMovements(r.Context(), reagentID, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, movements, paginationMeta(page, perPage, total))
}
