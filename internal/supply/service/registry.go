package service

import (
	"context"

	"github.com/medsupply/supply-backend/internal/supply/repository"
	"github.com/medsupply/supply-backend/pkg/logger"
)

// RegistryService manages the reference data the ledger runs against:
// reagents, hospitals, analyzers and which analyzers sit at which hospital.
type RegistryService struct {
	reagentRepo  *repository.ReagentRepository
	hospitalRepo *repository.HospitalRepository
	logger       *logger.Logger
}

// NewRegistryService creates a new registry service
func NewRegistryService(reagentRepo *repository.ReagentRepository, hospitalRepo *repository.HospitalRepository, log *logger.Logger) *RegistryService {
	return &RegistryService{
		reagentRepo:  reagentRepo,
		hospitalRepo: hospitalRepo,
		logger:       log,
	}
}

// CreateReagent creates a new reagent
func (s *RegistryService) CreateReagent(ctx context.Context, reagent *repository.Reagent) error {
	if err := s.reagentRepo.Create(ctx, reagent); err != nil {
		return err
	}
	s.logger.Info().Str("reagent_id", reagent.ID).Str("name", reagent.Name).Msg("reagent created")
	return nil
}

// GetReagent gets a reagent by ID
func (s *RegistryService) GetReagent(ctx context.Context, id string) (*repository.Reagent, error) {
	return s.reagentRepo.GetByID(ctx, id)
}

// ListReagents lists reagents with pagination
func (s *RegistryService) ListReagents(ctx context.Context, page, perPage int) ([]*repository.Reagent, int64, error) {
	return s.reagentRepo.List(ctx, page, perPage)
}

// UpdateReagent updates a reagent
func (s *RegistryService) UpdateReagent(ctx context.Context, reagent *repository.Reagent) error {
	return s.reagentRepo.Update(ctx, reagent)
}

// DeleteReagent deletes a reagent
func (s *RegistryService) DeleteReagent(ctx context.Context, id string) error {
	return s.reagentRepo.Delete(ctx, id)
}

// CreateHospital creates a new hospital
func (s *RegistryService) CreateHospital(ctx context.Context, h *repository.Hospital) error {
	return s.hospitalRepo.Create(ctx, h)
}

// GetHospital gets a hospital by ID
func (s *RegistryService) GetHospital(ctx context.Context, id string) (*repository.Hospital, error) {
	return s.hospitalRepo.GetByID(ctx, id)
}

// ListHospitals lists hospitals with pagination
func (s *RegistryService) ListHospitals(ctx context.Context, page, perPage int) ([]*repository.Hospital, int64, error) {
	return s.hospitalRepo.List(ctx, page, perPage)
}

// UpdateHospital updates a hospital
func (s *RegistryService) UpdateHospital(ctx context.Context, h *repository.Hospital) error {
	return s.hospitalRepo.Update(ctx, h)
}

// DeleteHospital deletes a hospital
func (s *RegistryService) DeleteHospital(ctx context.Context, id string) error {
	return s.hospitalRepo.Delete(ctx, id)
}

// CreateAnalyzer creates a new analyzer model
func (s *RegistryService) CreateAnalyzer(ctx context.Context, a *repository.Analyzer) error {
	return s.hospitalRepo.CreateAnalyzer(ctx, a)
}

// GetAnalyzer gets an analyzer by ID
func (s *RegistryService) GetAnalyzer(ctx context.Context, id string) (*repository.Analyzer, error) {
	return s.hospitalRepo.GetAnalyzer(ctx, id)
}

// ListAnalyzers lists all analyzer models
func (s *RegistryService) ListAnalyzers(ctx context.Context) ([]*repository.Analyzer, error) {
	return s.hospitalRepo.ListAnalyzers(ctx)
}

// UpdateAnalyzer updates an analyzer model
func (s *RegistryService) UpdateAnalyzer(ctx context.Context, a *repository.Analyzer) error {
	return s.hospitalRepo.UpdateAnalyzer(ctx, a)
}

// DeleteAnalyzer deletes an analyzer model
func (s *RegistryService) DeleteAnalyzer(ctx context.Context, id string) error {
	return s.hospitalRepo.DeleteAnalyzer(ctx, id)
}

// InstallAnalyzer records an analyzer installed at a hospital
func (s *RegistryService) InstallAnalyzer(ctx context.Context, ha *repository.HospitalAnalyzer) error {
	if _, err := s.hospitalRepo.GetByID(ctx, ha.HospitalID); err != nil {
		return err
	}
	if _, err := s.hospitalRepo.GetAnalyzer(ctx, ha.AnalyzerID); err != nil {
		return err
	}
	return s.hospitalRepo.InstallAnalyzer(ctx, ha)
}

// ListInstalledAnalyzers lists the analyzers installed at a hospital
func (s *RegistryService) ListInstalledAnalyzers(ctx context.Context, hospitalID string) ([]*repository.HospitalAnalyzer, error) {
	return s.hospitalRepo.ListInstalledAnalyzers(ctx, hospitalID)
}

// RemoveInstalledAnalyzer removes an installed analyzer record
func (s *RegistryService) RemoveInstalledAnalyzer(ctx context.Context, hospitalID, id string) error {
	return s.hospitalRepo.RemoveInstalledAnalyzer(ctx, hospitalID, id)
}
