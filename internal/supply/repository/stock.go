package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/medsupply/supply-backend/pkg/database"
	"github.com/medsupply/supply-backend/pkg/errors"
)

// WarehouseStock is the authoritative balance for a reagent. Exactly one row
// per reagent; every mutation refreshes last_updated. The row itself is the
// concurrency gate: writers take it with SELECT ... FOR UPDATE and hold the
// lock until their transaction commits or rolls back.
type WarehouseStock struct {
	ReagentID     string    `db:"reagent_id" json:"reagent_id"`
	ReagentName   string    `db:"reagent_name" json:"reagent_name"`
	QuantityPacks int       `db:"quantity_packs" json:"quantity_packs"`
	LastUpdated   time.Time `db:"last_updated" json:"last_updated"`
}

// StockRepository handles warehouse stock balance persistence
type StockRepository struct {
	db *database.DB
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *database.DB) *StockRepository {
	return &StockRepository{db: db}
}

const stockForUpdateQuery = `
	SELECT ws.reagent_id, r.name AS reagent_name, ws.quantity_packs, ws.last_updated
	FROM warehouse_stock ws
	JOIN reagents r ON r.id = ws.reagent_id
	WHERE ws.reagent_id = $1
	FOR UPDATE OF ws
`

// GetOrCreateForUpdate acquires the balance row lock for a reagent, creating
// the row with a zero balance if it does not exist yet. This is the only
// place a balance row is lazily created; compensation paths use GetForUpdate
// instead. Must run inside a ledger transaction.
func (r *StockRepository) GetOrCreateForUpdate(ctx context.Context, tx *sqlx.Tx, reagentID string) (*WarehouseStock, error) {
	insert := `
		INSERT INTO warehouse_stock (reagent_id, quantity_packs)
		VALUES ($1, 0)
		ON CONFLICT (reagent_id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, insert, reagentID); err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	var stock WarehouseStock
	if err := tx.GetContext(ctx, &stock, stockForUpdateQuery, reagentID); err != nil {
		if err == sql.ErrNoRows {
			// Row insert succeeded or conflicted, so a missing row here means
			// the reagent itself does not exist.
			return nil, errors.NotFound("reagent")
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}
	return &stock, nil
}

// GetForUpdate acquires the balance row lock for a reagent that must already
// have a balance row. A missing row on a compensation path means the ledger
// is corrupt, so it surfaces as an integrity error rather than being created
// on the fly. Must run inside a ledger transaction.
func (r *StockRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, reagentID string) (*WarehouseStock, error) {
	var stock WarehouseStock
	if err := tx.GetContext(ctx, &stock, stockForUpdateQuery, reagentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.LedgerIntegrity("reagent " + reagentID)
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}
	return &stock, nil
}

// ApplyDelta mutates a locked balance. The caller must hold the row lock via
// GetOrCreateForUpdate or GetForUpdate within the same transaction. A delta
// that would drive the balance negative fails with an insufficient stock
// error naming the reagent and the packs currently available; nothing is
// persisted in that case.
func (r *StockRepository) ApplyDelta(ctx context.Context, tx *sqlx.Tx, stock *WarehouseStock, delta int) error {
	newBalance := stock.QuantityPacks + delta
	if newBalance < 0 {
		return errors.InsufficientStock(stock.ReagentName, stock.QuantityPacks, -delta)
	}

	query := `
		UPDATE warehouse_stock SET quantity_packs = $2, last_updated = NOW()
		WHERE reagent_id = $1
		RETURNING last_updated
	`
	if err := tx.QueryRowxContext(ctx, query, stock.ReagentID, newBalance).Scan(&stock.LastUpdated); err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	stock.QuantityPacks = newBalance
	return nil
}

// GetBalance reads the current balance for a reagent without locking
func (r *StockRepository) GetBalance(ctx context.Context, reagentID string) (*WarehouseStock, error) {
	var stock WarehouseStock
	query := `
		SELECT ws.reagent_id, r.name AS reagent_name, ws.quantity_packs, ws.last_updated
		FROM warehouse_stock ws
		JOIN reagents r ON r.id = ws.reagent_id
		WHERE ws.reagent_id = $1
	`
	if err := r.db.GetContext(ctx, &stock, query, reagentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("warehouse stock")
		}
		return nil, err
	}
	return &stock, nil
}

// ListBalances lists all current balances
func (r *StockRepository) ListBalances(ctx context.Context) ([]*WarehouseStock, error) {
	var stocks []*WarehouseStock
	query := `
		SELECT ws.reagent_id, r.name AS reagent_name, ws.quantity_packs, ws.last_updated
		FROM warehouse_stock ws
		JOIN reagents r ON r.id = ws.reagent_id
		ORDER BY r.name
	`
	if err := r.db.SelectContext(ctx, &stocks, query); err != nil {
		return nil, err
	}
	return stocks, nil
}
