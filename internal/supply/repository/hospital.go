package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/medsupply/supply-backend/pkg/database"
	"github.com/medsupply/supply-backend/pkg/errors"
)

// Hospital represents a hospital served by the warehouse
type Hospital struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	ContactPerson string    `db:"contact_person" json:"contact_person,omitempty"`
	Phone         string    `db:"phone" json:"phone,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Analyzer represents a diagnostic analyzer model, e.g. "Yumizen H500"
type Analyzer struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	ModelCode *string   `db:"model_code" json:"model_code,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HospitalAnalyzer records an analyzer installed at a hospital
type HospitalAnalyzer struct {
	ID               string     `db:"id" json:"id"`
	HospitalID       string     `db:"hospital_id" json:"hospital_id"`
	AnalyzerID       string     `db:"analyzer_id" json:"analyzer_id"`
	AnalyzerName     string     `db:"analyzer_name" json:"analyzer_name,omitempty"`
	SerialNumber     *string    `db:"serial_number" json:"serial_number,omitempty"`
	InstallationDate *time.Time `db:"installation_date" json:"installation_date,omitempty"`
}

// HospitalRepository handles hospital and analyzer reference data
type HospitalRepository struct {
	db *database.DB
}

// NewHospitalRepository creates a new hospital repository
func NewHospitalRepository(db *database.DB) *HospitalRepository {
	return &HospitalRepository{db: db}
}

// Create creates a new hospital
func (r *HospitalRepository) Create(ctx context.Context, h *Hospital) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}

	query := `
		INSERT INTO hospitals (id, name, contact_person, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	return r.db.QueryRowxContext(ctx, query, h.ID, h.Name, h.ContactPerson, h.Phone).Scan(&h.CreatedAt)
}

// GetByID gets a hospital by ID
func (r *HospitalRepository) GetByID(ctx context.Context, id string) (*Hospital, error) {
	var h Hospital
	query := `SELECT id, name, contact_person, phone, created_at FROM hospitals WHERE id = $1`
	if err := r.db.GetContext(ctx, &h, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("hospital")
		}
		return nil, err
	}
	return &h, nil
}

// List lists hospitals with pagination
func (r *HospitalRepository) List(ctx context.Context, page, perPage int) ([]*Hospital, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM hospitals`); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	var hospitals []*Hospital
	query := `
		SELECT id, name, contact_person, phone, created_at
		FROM hospitals
		ORDER BY name
		LIMIT $1 OFFSET $2
	`
	if err := r.db.SelectContext(ctx, &hospitals, query, perPage, offset); err != nil {
		return nil, 0, err
	}
	return hospitals, total, nil
}

// Update updates a hospital
func (r *HospitalRepository) Update(ctx context.Context, h *Hospital) error {
	query := `UPDATE hospitals SET name = $2, contact_person = $3, phone = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, h.ID, h.Name, h.ContactPerson, h.Phone)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("hospital")
	}
	return nil
}

// Delete deletes a hospital
func (r *HospitalRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM hospitals WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("hospital")
	}
	return nil
}

// Analyzer operations

// CreateAnalyzer creates a new analyzer model
func (r *HospitalRepository) CreateAnalyzer(ctx context.Context, a *Analyzer) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	query := `INSERT INTO analyzers (id, name, model_code) VALUES ($1, $2, $3) RETURNING created_at`
	return r.db.QueryRowxContext(ctx, query, a.ID, a.Name, a.ModelCode).Scan(&a.CreatedAt)
}

// GetAnalyzer gets an analyzer by ID
func (r *HospitalRepository) GetAnalyzer(ctx context.Context, id string) (*Analyzer, error) {
	var a Analyzer
	query := `SELECT id, name, model_code, created_at FROM analyzers WHERE id = $1`
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("analyzer")
		}
		return nil, err
	}
	return &a, nil
}

// ListAnalyzers lists all analyzer models
func (r *HospitalRepository) ListAnalyzers(ctx context.Context) ([]*Analyzer, error) {
	var analyzers []*Analyzer
	query := `SELECT id, name, model_code, created_at FROM analyzers ORDER BY name`
	if err := r.db.SelectContext(ctx, &analyzers, query); err != nil {
		return nil, err
	}
	return analyzers, nil
}

// UpdateAnalyzer updates an analyzer model
func (r *HospitalRepository) UpdateAnalyzer(ctx context.Context, a *Analyzer) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE analyzers SET name = $2, model_code = $3 WHERE id = $1`,
		a.ID, a.Name, a.ModelCode,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("analyzer")
	}
	return nil
}

// DeleteAnalyzer deletes an analyzer model
func (r *HospitalRepository) DeleteAnalyzer(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM analyzers WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("analyzer")
	}
	return nil
}

// InstallAnalyzer records an analyzer installation at a hospital.
// Serial numbers are unique per hospital.
func (r *HospitalRepository) InstallAnalyzer(ctx context.Context, ha *HospitalAnalyzer) error {
	if ha.ID == "" {
		ha.ID = uuid.New().String()
	}

	query := `
		INSERT INTO hospital_analyzers (id, hospital_id, analyzer_id, serial_number, installation_date)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		ha.ID, ha.HospitalID, ha.AnalyzerID, ha.SerialNumber, ha.InstallationDate,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// ListInstalledAnalyzers lists analyzers installed at a hospital
func (r *HospitalRepository) ListInstalledAnalyzers(ctx context.Context, hospitalID string) ([]*HospitalAnalyzer, error) {
	var installed []*HospitalAnalyzer
	query := `
		SELECT ha.id, ha.hospital_id, ha.analyzer_id, a.name AS analyzer_name,
		       ha.serial_number, ha.installation_date
		FROM hospital_analyzers ha
		JOIN analyzers a ON a.id = ha.analyzer_id
		WHERE ha.hospital_id = $1
		ORDER BY ha.installation_date NULLS LAST
	`
	if err := r.db.SelectContext(ctx, &installed, query, hospitalID); err != nil {
		return nil, err
	}
	return installed, nil
}

// RemoveInstalledAnalyzer removes an analyzer installation record
func (r *HospitalRepository) RemoveInstalledAnalyzer(ctx context.Context, hospitalID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM hospital_analyzers WHERE id = $1 AND hospital_id = $2`,
		id, hospitalID,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("installed analyzer")
	}
	return nil
}
