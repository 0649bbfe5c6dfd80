package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/medsupply/supply-backend/pkg/database"
	"github.com/medsupply/supply-backend/pkg/errors"
)

// ConsumptionRule holds per-reagent consumption parameters for the planning
// calculators. One rule per reagent.
type ConsumptionRule struct {
	ID            string  `db:"id" json:"id"`
	ReagentID     string  `db:"reagent_id" json:"reagent_id"`
	MLPerTest     float64 `db:"ml_per_test" json:"ml_per_test"`
	MLPerWash     float64 `db:"ml_per_wash" json:"ml_per_wash"`
	WashesPerWeek int     `db:"washes_per_week" json:"washes_per_week"`
}

// ConsumptionProfile records a hospital's workload profile for planning
type ConsumptionProfile struct {
	ID          string    `db:"id" json:"id"`
	HospitalID  string    `db:"hospital_id" json:"hospital_id"`
	Name        string    `db:"name" json:"name"`
	TestsPerDay float64   `db:"tests_per_day" json:"tests_per_day"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ConsumptionRepository handles consumption rules and profiles
type ConsumptionRepository struct {
	db *database.DB
}

// NewConsumptionRepository creates a new consumption repository
func NewConsumptionRepository(db *database.DB) *ConsumptionRepository {
	return &ConsumptionRepository{db: db}
}

// UpsertRule creates or replaces the consumption rule for a reagent
func (r *ConsumptionRepository) UpsertRule(ctx context.Context, rule *ConsumptionRule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	query := `
		INSERT INTO consumption_rules (id, reagent_id, ml_per_test, ml_per_wash, washes_per_week)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (reagent_id) DO UPDATE SET
			ml_per_test = EXCLUDED.ml_per_test,
			ml_per_wash = EXCLUDED.ml_per_wash,
			washes_per_week = EXCLUDED.washes_per_week
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query,
		rule.ID, rule.ReagentID, rule.MLPerTest, rule.MLPerWash, rule.WashesPerWeek,
	).Scan(&rule.ID)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetRuleByReagent gets the consumption rule for a reagent
func (r *ConsumptionRepository) GetRuleByReagent(ctx context.Context, reagentID string) (*ConsumptionRule, error) {
	var rule ConsumptionRule
	query := `
		SELECT id, reagent_id, ml_per_test, ml_per_wash, washes_per_week
		FROM consumption_rules
		WHERE reagent_id = $1
	`
	if err := r.db.GetContext(ctx, &rule, query, reagentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("consumption rule")
		}
		return nil, err
	}
	return &rule, nil
}

// Profile operations

// CreateProfile creates a hospital consumption profile
func (r *ConsumptionRepository) CreateProfile(ctx context.Context, p *ConsumptionProfile) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `
		INSERT INTO consumption_profiles (id, hospital_id, name, tests_per_day)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.HospitalID, p.Name, p.TestsPerDay,
	).Scan(&p.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetProfile gets a consumption profile by ID
func (r *ConsumptionRepository) GetProfile(ctx context.Context, id string) (*ConsumptionProfile, error) {
	var p ConsumptionProfile
	query := `
		SELECT id, hospital_id, name, tests_per_day, created_at
		FROM consumption_profiles
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("consumption profile")
		}
		return nil, err
	}
	return &p, nil
}

// ListProfiles lists consumption profiles, optionally filtered by hospital
func (r *ConsumptionRepository) ListProfiles(ctx context.Context, hospitalID string) ([]*ConsumptionProfile, error) {
	var profiles []*ConsumptionProfile

	if hospitalID != "" {
		query := `
			SELECT id, hospital_id, name, tests_per_day, created_at
			FROM consumption_profiles
			WHERE hospital_id = $1
			ORDER BY created_at DESC
		`
		if err := r.db.SelectContext(ctx, &profiles, query, hospitalID); err != nil {
			return nil, err
		}
		return profiles, nil
	}

	query := `
		SELECT id, hospital_id, name, tests_per_day, created_at
		FROM consumption_profiles
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, err
	}
	return profiles, nil
}

// UpdateProfile updates a consumption profile
func (r *ConsumptionRepository) UpdateProfile(ctx context.Context, p *ConsumptionProfile) error {
	query := `
		UPDATE consumption_profiles SET
			name = $2, tests_per_day = $3
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.TestsPerDay,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("consumption profile")
	}
	return nil
}

// DeleteProfile deletes a consumption profile
func (r *ConsumptionRepository) DeleteProfile(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM consumption_profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("consumption profile")
	}
	return nil
}
