package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/medsupply/supply-backend/internal/supply/repository"
	"github.com/medsupply/supply-backend/internal/supply/service"
	"github.com/medsupply/supply-backend/pkg/httputil"
	"github.com/medsupply/supply-backend/pkg/logger"
)

// ReagentHandler handles reagent catalog endpoints
type ReagentHandler struct {
	service *service.RegistryService
	logger  *logger.Logger
}

// NewReagentHandler creates a new reagent handler
func NewReagentHandler(svc *service.RegistryService, log *logger.Logger) *ReagentHandler {
	return &ReagentHandler{
		service: svc,
		logger:  log,
	}
}

// List lists reagents
func (h *ReagentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)

	reagents, total, err := h.service.ListReagents(r.Context(), page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, reagents, paginationMeta(page, perPage, total))
}

// Get gets a reagent by ID
func (h *ReagentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	reagent, err := h.service.GetReagent(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, reagent)
}

// Create creates a new reagent
func (h *ReagentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var reagent repository.Reagent
	if err := httputil.DecodeJSON(r, &reagent); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.CreateReagent(r.Context(), &reagent); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, reagent)
}

// Update updates a reagent
func (h *ReagentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var reagent repository.Reagent
	if err := httputil.DecodeJSON(r, &reagent); err != nil {
		httputil.Error(w, err)
		return
	}

	reagent.ID = id
	if err := h.service.UpdateReagent(r.Context(), &reagent); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, reagent)
}

// Delete deletes a reagent
func (h *ReagentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteReagent(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

func pagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

func paginationMeta(page, perPage int, total int64) *httputil.Meta {
	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}
	return &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}
