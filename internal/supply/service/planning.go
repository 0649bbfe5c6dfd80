package service

import (
	"context"

	"github.com/medsupply/supply-backend/internal/supply/repository"
	"github.com/medsupply/supply-backend/pkg/errors"
	"github.com/medsupply/supply-backend/pkg/logger"
)

// MonthlyConsumptionML computes the monthly reagent draw in milliliters for
// a given workload: per-test usage over a 30 day month plus per-wash usage
// over four weeks.
func MonthlyConsumptionML(rule *repository.ConsumptionRule, testsPerDay float64) float64 {
	return rule.MLPerTest*testsPerDay*30 + rule.MLPerWash*float64(rule.WashesPerWeek)*4
}

// MonthlyConsumptionPacks converts a monthly milliliter draw into packs
// given the reagent's pack volume. Returns 0 when the pack volume is unknown
// or non-positive.
func MonthlyConsumptionPacks(totalML, packVolumeML float64) float64 {
	if packVolumeML <= 0 {
		return 0
	}
	return totalML / packVolumeML
}

// PlanningService manages consumption rules and workload profiles and
// projects monthly reagent demand from them.
type PlanningService struct {
	consumptionRepo *repository.ConsumptionRepository
	reagentRepo     *repository.ReagentRepository
	logger          *logger.Logger
}

// NewPlanningService creates a new planning service
func NewPlanningService(consumptionRepo *repository.ConsumptionRepository, reagentRepo *repository.ReagentRepository, log *logger.Logger) *PlanningService {
	return &PlanningService{
		consumptionRepo: consumptionRepo,
		reagentRepo:     reagentRepo,
		logger:          log,
	}
}

// RuleInput is the request to create or update a consumption rule
type RuleInput struct {
	ReagentID     string  `json:"reagent_id" validate:"required,uuid"`
	MLPerTest     float64 `json:"ml_per_test" validate:"min=0"`
	MLPerWash     float64 `json:"ml_per_wash" validate:"min=0"`
	WashesPerWeek int     `json:"washes_per_week" validate:"min=0"`
}

// ProfileInput is the request to create or update a workload profile
type ProfileInput struct {
	HospitalID  string  `json:"hospital_id" validate:"required,uuid"`
	Name        string  `json:"name" validate:"required,max=255"`
	TestsPerDay float64 `json:"tests_per_day" validate:"gt=0"`
}

// UpsertRule creates or replaces the consumption rule for a reagent
func (s *PlanningService) UpsertRule(ctx context.Context, input RuleInput) (*repository.ConsumptionRule, error) {
	if _, err := s.reagentRepo.GetByID(ctx, input.ReagentID); err != nil {
		return nil, err
	}

	rule := &repository.ConsumptionRule{
		ReagentID:     input.ReagentID,
		MLPerTest:     input.MLPerTest,
		MLPerWash:     input.MLPerWash,
		WashesPerWeek: input.WashesPerWeek,
	}
	if err := s.consumptionRepo.UpsertRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// GetRule returns the consumption rule for a reagent
func (s *PlanningService) GetRule(ctx context.Context, reagentID string) (*repository.ConsumptionRule, error) {
	return s.consumptionRepo.GetRuleByReagent(ctx, reagentID)
}

// CreateProfile creates a workload profile for a hospital
func (s *PlanningService) CreateProfile(ctx context.Context, input ProfileInput) (*repository.ConsumptionProfile, error) {
	profile := &repository.ConsumptionProfile{
		HospitalID:  input.HospitalID,
		Name:        input.Name,
		TestsPerDay: input.TestsPerDay,
	}
	if err := s.consumptionRepo.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetProfile returns a workload profile by ID
func (s *PlanningService) GetProfile(ctx context.Context, id string) (*repository.ConsumptionProfile, error) {
	return s.consumptionRepo.GetProfile(ctx, id)
}

// ListProfiles lists the workload profiles for a hospital
func (s *PlanningService) ListProfiles(ctx context.Context, hospitalID string) ([]*repository.ConsumptionProfile, error) {
	return s.consumptionRepo.ListProfiles(ctx, hospitalID)
}

// UpdateProfile updates a workload profile's name and daily test volume
func (s *PlanningService) UpdateProfile(ctx context.Context, id string, input ProfileInput) (*repository.ConsumptionProfile, error) {
	profile, err := s.consumptionRepo.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	profile.Name = input.Name
	profile.TestsPerDay = input.TestsPerDay
	if err := s.consumptionRepo.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// DeleteProfile removes a workload profile
func (s *PlanningService) DeleteProfile(ctx context.Context, id string) error {
	return s.consumptionRepo.DeleteProfile(ctx, id)
}

// DemandProjection is the projected monthly demand for one reagent under a
// given workload
type DemandProjection struct {
	ReagentID    string   `json:"reagent_id"`
	ReagentName  string   `json:"reagent_name"`
	TestsPerDay  float64  `json:"tests_per_day"`
	MonthlyML    float64  `json:"monthly_ml"`
	MonthlyPacks *float64 `json:"monthly_packs,omitempty"`
}

// ProjectDemand projects monthly consumption for a reagent at the given
// daily test volume. The pack figure is omitted when the reagent has no
// recorded pack volume.
func (s *PlanningService) ProjectDemand(ctx context.Context, reagentID string, testsPerDay float64) (*DemandProjection, error) {
	if testsPerDay <= 0 {
		return nil, errors.Validation(map[string]string{"tests_per_day": "must be positive"})
	}

	reagent, err := s.reagentRepo.GetByID(ctx, reagentID)
	if err != nil {
		return nil, err
	}

	rule, err := s.consumptionRepo.GetRuleByReagent(ctx, reagentID)
	if err != nil {
		return nil, err
	}

	projection := &DemandProjection{
		ReagentID:   reagent.ID,
		ReagentName: reagent.Name,
		TestsPerDay: testsPerDay,
		MonthlyML:   MonthlyConsumptionML(rule, testsPerDay),
	}
	if reagent.PackVolumeML != nil && *reagent.PackVolumeML > 0 {
		packs := MonthlyConsumptionPacks(projection.MonthlyML, *reagent.PackVolumeML)
		projection.MonthlyPacks = &packs
	}
	return projection, nil
}
