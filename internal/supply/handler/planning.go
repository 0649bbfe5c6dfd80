package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/medsupply/supply-backend/internal/supply/service"
	"github.com/medsupply/supply-backend/pkg/httputil"
	"github.com/medsupply/supply-backend/pkg/logger"
)

// PlanningHandler handles consumption rule and workload profile endpoints
type PlanningHandler struct {
	service *service.PlanningService
	logger  *logger.Logger
}

// NewPlanningHandler creates a new planning handler
func NewPlanningHandler(svc *service.PlanningService, log *logger.Logger) *PlanningHandler {
	return &PlanningHandler{
		service: svc,
		logger:  log,
	}
}

// UpsertRule creates or replaces the consumption rule for a reagent
func (h *PlanningHandler) UpsertRule(w http.ResponseWriter, r *http.Request) {
	var input service.RuleInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}

	input.ReagentID = chi.URLParam(r, "id")
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	rule, err := h.service.UpsertRule(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rule)
}

// GetRule gets the consumption rule for a reagent
func (h *PlanningHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	reagentID := chi.URLParam(r, "id")

	rule, err := h.service.GetRule(r.Context(), reagentID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rule)
}

// ProjectDemand projects monthly consumption for a reagent
func (h *PlanningHandler) ProjectDemand(w http.ResponseWriter, r *http.Request) {
	reagentID := chi.URLParam(r, "id")
	testsPerDay, _ := strconv.ParseFloat(r.URL.Query().Get("tests_per_day"), 64)

	projection, err := h.service.ProjectDemand(r.Context(), reagentID, testsPerDay)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, projection)
}

// CreateProfile creates a workload profile
func (h *PlanningHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var input service.ProfileInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	profile, err := h.service.CreateProfile(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, profile)
}

// ListProfiles lists the workload profiles for a hospital
func (h *PlanningHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	hospitalID := r.URL.Query().Get("hospital_id")

	profiles, err := h.service.ListProfiles(r.Context(), hospitalID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, profiles)
}

// GetProfile gets a workload profile by ID
func (h *PlanningHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	profile, err := h.service.GetProfile(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, profile)
}

// UpdateProfile updates a workload profile
func (h *PlanningHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var input service.ProfileInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), id, input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, profile)
}

// DeleteProfile removes a workload profile
func (h *PlanningHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteProfile(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
