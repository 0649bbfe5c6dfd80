package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/medsupply/supply-backend/pkg/database"
)

// Movement types
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// StockMovement is an immutable stock-in or stock-out ledger event. Once
// written it is never edited or deleted; corrections are new compensating
// movements.
type StockMovement struct {
	ID           string    `db:"id" json:"id"`
	ReagentID    string    `db:"reagent_id" json:"reagent_id"`
	ReagentName  string    `db:"reagent_name" json:"reagent_name,omitempty"`
	MovementType string    `db:"movement_type" json:"movement_type"`
	Quantity     int       `db:"quantity" json:"quantity"`
	Note         string    `db:"note" json:"note,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// MovementRepository handles stock movement persistence
type MovementRepository struct {
	db *database.DB
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *database.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// Insert appends a movement record. Runs inside the same transaction as the
// balance mutation so a movement row never exists without its stock effect.
func (r *MovementRepository) Insert(ctx context.Context, tx *sqlx.Tx, m *StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	query := `
		INSERT INTO stock_movements (id, reagent_id, movement_type, quantity, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := tx.QueryRowxContext(ctx, query,
		m.ID, m.ReagentID, m.MovementType, m.Quantity, m.Note,
	).Scan(&m.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// List lists movements, newest first, optionally filtered by reagent
func (r *MovementRepository) List(ctx context.Context, reagentID string, page, perPage int) ([]*StockMovement, int64, error) {
	var total int64
	var movements []*StockMovement
	offset := (page - 1) * perPage

	if reagentID != "" {
		countQuery := `SELECT COUNT(*) FROM stock_movements WHERE reagent_id = $1`
		if err := r.db.GetContext(ctx, &total, countQuery, reagentID); err != nil {
			return nil, 0, err
		}

		query := `
			SELECT sm.id, sm.reagent_id, r.name AS reagent_name, sm.movement_type,
			       sm.quantity, sm.note, sm.created_at
			FROM stock_movements sm
			JOIN reagents r ON r.id = sm.reagent_id
			WHERE sm.reagent_id = $1
			ORDER BY sm.created_at DESC
			LIMIT $2 OFFSET $3
		`
		if err := r.db.SelectContext(ctx, &movements, query, reagentID, perPage, offset); err != nil {
			return nil, 0, err
		}
		return movements, total, nil
	}

	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM stock_movements`); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT sm.id, sm.reagent_id, r.name AS reagent_name, sm.movement_type,
		       sm.quantity, sm.note, sm.created_at
		FROM stock_movements sm
		JOIN reagents r ON r.id = sm.reagent_id
		ORDER BY sm.created_at DESC
		LIMIT $1 OFFSET $2
	`
	if err := r.db.SelectContext(ctx, &movements, query, perPage, offset); err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}
