package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medsupply/supply-backend/internal/supply/repository"
	"github.com/medsupply/supply-backend/internal/supply/service"
	"github.com/medsupply/supply-backend/pkg/httputil"
	"github.com/medsupply/supply-backend/pkg/logger"
)

// HospitalHandler handles hospital and analyzer endpoints
type HospitalHandler struct {
	service *service.RegistryService
	logger  *logger.Logger
}

// NewHospitalHandler creates a new hospital handler
func NewHospitalHandler(svc *service.RegistryService, log *logger.Logger) *HospitalHandler {
	return &HospitalHandler{
		service: svc,
		logger:  log,
	}
}

// List lists hospitals
func (h *HospitalHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)

	hospitals, total, err := h.service.ListHospitals(r.Context(), page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, hospitals, paginationMeta(page, perPage, total))
}

// Get gets a hospital by ID
func (h *HospitalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	hospital, err := h.service.GetHospital(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, hospital)
}

// Create creates a new hospital
func (h *HospitalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var hospital repository.Hospital
	if err := httputil.DecodeJSON(r, &hospital); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.CreateHospital(r.Context(), &hospital); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, hospital)
}

// Update updates a hospital
func (h *HospitalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var hospital repository.Hospital
	if err := httputil.DecodeJSON(r, &hospital); err != nil {
		httputil.Error(w, err)
		return
	}

	hospital.ID = id
	if err := h.service.UpdateHospital(r.Context(), &hospital); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, hospital)
}

// Delete deletes a hospital
func (h *HospitalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteHospital(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ListAnalyzers lists all analyzer models
func (h *HospitalHandler) ListAnalyzers(w http.ResponseWriter, r *http.Request) {
	analyzers, err := h.service.ListAnalyzers(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, analyzers)
}

// GetAnalyzer gets an analyzer model by ID
func (h *HospitalHandler) GetAnalyzer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	analyzer, err := h.service.GetAnalyzer(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, analyzer)
}

// CreateAnalyzer creates a new analyzer model
func (h *HospitalHandler) CreateAnalyzer(w http.ResponseWriter, r *http.Request) {
	var analyzer repository.Analyzer
	if err := httputil.DecodeJSON(r, &analyzer); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.CreateAnalyzer(r.Context(), &analyzer); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, analyzer)
}

// UpdateAnalyzer updates an analyzer model
func (h *HospitalHandler) UpdateAnalyzer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var analyzer repository.Analyzer
	if err := httputil.DecodeJSON(r, &analyzer); err != nil {
		httputil.Error(w, err)
		return
	}

	analyzer.ID = id
	if err := h.service.UpdateAnalyzer(r.Context(), &analyzer); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, analyzer)
}

// DeleteAnalyzer deletes an analyzer model
func (h *HospitalHandler) DeleteAnalyzer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteAnalyzer(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ListInstalled lists the analyzers installed at a hospital
func (h *HospitalHandler) ListInstalled(w http.ResponseWriter, r *http.Request) {
	hospitalID := chi.URLParam(r, "id")

	installed, err := h.service.ListInstalledAnalyzers(r.Context(), hospitalID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, installed)
}

// InstallAnalyzer records an analyzer installed at a hospital
func (h *HospitalHandler) InstallAnalyzer(w http.ResponseWriter, r *http.Request) {
	hospitalID := chi.URLParam(r, "id")

	var ha repository.HospitalAnalyzer
	if err := httputil.DecodeJSON(r, &ha); err != nil {
		httputil.Error(w, err)
		return
	}

	ha.HospitalID = hospitalID
	if err := h.service.InstallAnalyzer(r.Context(), &ha); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, ha)
}

// RemoveInstalled removes an installed analyzer record
func (h *HospitalHandler) RemoveInstalled(w http.ResponseWriter, r *http.Request) {
	hospitalID := chi.URLParam(r, "id")
	installID := chi.URLParam(r, "installID")

	if err := h.service.RemoveInstalledAnalyzer(r.Context(), hospitalID, installID); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
