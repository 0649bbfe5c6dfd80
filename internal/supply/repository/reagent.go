package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/medsupply/supply-backend/pkg/database"
	"github.com/medsupply/supply-backend/pkg/errors"
)

// Reagent represents a reagent reference entity. Reagents are reference data:
// operators create and edit them, the ledger never does.
type Reagent struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Unit         string    `db:"unit" json:"unit"` // bottle | ml
	PackVolumeML *float64  `db:"pack_volume_ml" json:"pack_volume_ml,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ReagentRepository handles reagent persistence
type ReagentRepository struct {
	db *database.DB
}

// NewReagentRepository creates a new reagent repository
func NewReagentRepository(db *database.DB) *ReagentRepository {
	return &ReagentRepository{db: db}
}

// Create creates a new reagent
func (r *ReagentRepository) Create(ctx context.Context, reagent *Reagent) error {
	if reagent.ID == "" {
		reagent.ID = uuid.New().String()
	}
	if reagent.Unit == "" {
		reagent.Unit = "bottle"
	}

	query := `
		INSERT INTO reagents (id, name, unit, pack_volume_ml)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		reagent.ID, reagent.Name, reagent.Unit, reagent.PackVolumeML,
	).Scan(&reagent.CreatedAt, &reagent.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a reagent by ID
func (r *ReagentRepository) GetByID(ctx context.Context, id string) (*Reagent, error) {
	var reagent Reagent
	query := `SELECT id, name, unit, pack_volume_ml, created_at, updated_at FROM reagents WHERE id = $1`
	if err := r.db.GetContext(ctx, &reagent, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("reagent")
		}
		return nil, err
	}
	return &reagent, nil
}

// List lists reagents with pagination
func (r *ReagentRepository) List(ctx context.Context, page, perPage int) ([]*Reagent, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reagents`); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	var reagents []*Reagent
	query := `
		SELECT id, name, unit, pack_volume_ml, created_at, updated_at
		FROM reagents
		ORDER BY name
		LIMIT $1 OFFSET $2
	`
	if err := r.db.SelectContext(ctx, &reagents, query, perPage, offset); err != nil {
		return nil, 0, err
	}
	return reagents, total, nil
}

// Update updates a reagent
func (r *ReagentRepository) Update(ctx context.Context, reagent *Reagent) error {
	query := `
		UPDATE reagents SET name = $2, unit = $3, pack_volume_ml = $4, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		reagent.ID, reagent.Name, reagent.Unit, reagent.PackVolumeML,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("reagent")
	}
	return nil
}

// Delete deletes a reagent
func (r *ReagentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reagents WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("reagent")
	}
	return nil
}
