package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/medsupply/supply-backend/pkg/database"
	"github.com/medsupply/supply-backend/pkg/errors"
)

// HospitalDelivery is a delivery header owning a set of line items
type HospitalDelivery struct {
	ID           string    `db:"id" json:"id"`
	HospitalID   string    `db:"hospital_id" json:"hospital_id"`
	HospitalName string    `db:"hospital_name" json:"hospital_name,omitempty"`
	DeliveredAt  time.Time `db:"delivered_at" json:"delivered_at"`
	Note         string    `db:"note" json:"note,omitempty"`
}

// HospitalDeliveryItem allocates reagent packs to a delivery. Unlike
// movements, items are mutable and deletable; every change carries a
// compensating stock adjustment in the same transaction.
type HospitalDeliveryItem struct {
	ID            string `db:"id" json:"id"`
	DeliveryID    string `db:"delivery_id" json:"delivery_id"`
	ReagentID     string `db:"reagent_id" json:"reagent_id"`
	ReagentName   string `db:"reagent_name" json:"reagent_name,omitempty"`
	QuantityPacks int    `db:"quantity_packs" json:"quantity_packs"`
}

// DeliveredAggregate is a delivered-packs rollup used by the usage report
type DeliveredAggregate struct {
	HospitalID     string `db:"hospital_id" json:"hospital_id,omitempty"`
	HospitalName   string `db:"hospital_name" json:"hospital_name,omitempty"`
	ReagentID      string `db:"reagent_id" json:"reagent_id"`
	ReagentName    string `db:"reagent_name" json:"reagent_name"`
	DeliveredPacks int    `db:"delivered_packs" json:"delivered_packs"`
}

// DeliveryRepository handles delivery and line item persistence
type DeliveryRepository struct {
	db *database.DB
}

// NewDeliveryRepository creates a new delivery repository
func NewDeliveryRepository(db *database.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// InsertDelivery inserts a delivery header inside a transaction
func (r *DeliveryRepository) InsertDelivery(ctx context.Context, tx *sqlx.Tx, d *HospitalDelivery) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}

	query := `
		INSERT INTO hospital_deliveries (id, hospital_id, note)
		VALUES ($1, $2, $3)
		RETURNING delivered_at
	`
	err := tx.QueryRowxContext(ctx, query, d.ID, d.HospitalID, d.Note).Scan(&d.DeliveredAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetDelivery gets a delivery header by ID
func (r *DeliveryRepository) GetDelivery(ctx context.Context, id string) (*HospitalDelivery, error) {
	var d HospitalDelivery
	query := `
		SELECT d.id, d.hospital_id, h.name AS hospital_name, d.delivered_at, d.note
		FROM hospital_deliveries d
		JOIN hospitals h ON h.id = d.hospital_id
		WHERE d.id = $1
	`
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("delivery")
		}
		return nil, err
	}
	return &d, nil
}

// ListDeliveries lists deliveries, newest first, optionally filtered by hospital
func (r *DeliveryRepository) ListDeliveries(ctx context.Context, hospitalID string, page, perPage int) ([]*HospitalDelivery, int64, error) {
	var total int64
	var deliveries []*HospitalDelivery
	offset := (page - 1) * perPage

	if hospitalID != "" {
		if err := r.db.GetContext(ctx, &total,
			`SELECT COUNT(*) FROM hospital_deliveries WHERE hospital_id = $1`, hospitalID); err != nil {
			return nil, 0, err
		}

		query := `
			SELECT d.id, d.hospital_id, h.name AS hospital_name, d.delivered_at, d.note
			FROM hospital_deliveries d
			JOIN hospitals h ON h.id = d.hospital_id
			WHERE d.hospital_id = $1
			ORDER BY d.delivered_at DESC
			LIMIT $2 OFFSET $3
		`
		if err := r.db.SelectContext(ctx, &deliveries, query, hospitalID, perPage, offset); err != nil {
			return nil, 0, err
		}
		return deliveries, total, nil
	}

	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM hospital_deliveries`); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT d.id, d.hospital_id, h.name AS hospital_name, d.delivered_at, d.note
		FROM hospital_deliveries d
		JOIN hospitals h ON h.id = d.hospital_id
		ORDER BY d.delivered_at DESC
		LIMIT $1 OFFSET $2
	`
	if err := r.db.SelectContext(ctx, &deliveries, query, perPage, offset); err != nil {
		return nil, 0, err
	}
	return deliveries, total, nil
}

// DeleteDelivery deletes a delivery header inside a transaction. Items must
// already have been compensated and removed.
func (r *DeliveryRepository) DeleteDelivery(ctx context.Context, tx *sqlx.Tx, id string) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM hospital_deliveries WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("delivery")
	}
	return nil
}

// Item operations

// InsertItem inserts a line item inside a transaction, after its debit succeeded
func (r *DeliveryRepository) InsertItem(ctx context.Context, tx *sqlx.Tx, item *HospitalDeliveryItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	query := `
		INSERT INTO hospital_delivery_items (id, delivery_id, reagent_id, quantity_packs)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.ExecContext(ctx, query, item.ID, item.DeliveryID, item.ReagentID, item.QuantityPacks); err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetItem gets a line item by ID
func (r *DeliveryRepository) GetItem(ctx context.Context, id string) (*HospitalDeliveryItem, error) {
	var item HospitalDeliveryItem
	query := `
		SELECT i.id, i.delivery_id, i.reagent_id, r.name AS reagent_name, i.quantity_packs
		FROM hospital_delivery_items i
		JOIN reagents r ON r.id = i.reagent_id
		WHERE i.id = $1
	`
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("delivery item")
		}
		return nil, err
	}
	return &item, nil
}

// GetItemForUpdate locks a line item row for the duration of the transaction.
// Concurrent updates to the same item serialize here, before any balance row
// is touched.
func (r *DeliveryRepository) GetItemForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*HospitalDeliveryItem, error) {
	var item HospitalDeliveryItem
	query := `
		SELECT i.id, i.delivery_id, i.reagent_id, r.name AS reagent_name, i.quantity_packs
		FROM hospital_delivery_items i
		JOIN reagents r ON r.id = i.reagent_id
		WHERE i.id = $1
		FOR UPDATE OF i
	`
	if err := tx.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("delivery item")
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}
	return &item, nil
}

// UpdateItem persists a line item's new field values inside a transaction,
// after both balance steps succeeded
func (r *DeliveryRepository) UpdateItem(ctx context.Context, tx *sqlx.Tx, item *HospitalDeliveryItem) error {
	query := `
		UPDATE hospital_delivery_items SET reagent_id = $2, quantity_packs = $3
		WHERE id = $1
	`
	result, err := tx.ExecContext(ctx, query, item.ID, item.ReagentID, item.QuantityPacks)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("delivery item")
	}
	return nil
}

// DeleteItem removes a line item inside a transaction, together with its
// compensating credit
func (r *DeliveryRepository) DeleteItem(ctx context.Context, tx *sqlx.Tx, id string) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM hospital_delivery_items WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("delivery item")
	}
	return nil
}

// ListItemsByDelivery lists line items for a delivery
func (r *DeliveryRepository) ListItemsByDelivery(ctx context.Context, deliveryID string) ([]*HospitalDeliveryItem, error) {
	var items []*HospitalDeliveryItem
	query := `
		SELECT i.id, i.delivery_id, i.reagent_id, r.name AS reagent_name, i.quantity_packs
		FROM hospital_delivery_items i
		JOIN reagents r ON r.id = i.reagent_id
		WHERE i.delivery_id = $1
		ORDER BY r.name
	`
	if err := r.db.SelectContext(ctx, &items, query, deliveryID); err != nil {
		return nil, err
	}
	return items, nil
}

// ListItemsByDeliveryForUpdate locks and returns a delivery's line items
// inside a transaction, for whole-delivery deletion
func (r *DeliveryRepository) ListItemsByDeliveryForUpdate(ctx context.Context, tx *sqlx.Tx, deliveryID string) ([]*HospitalDeliveryItem, error) {
	var items []*HospitalDeliveryItem
	query := `
		SELECT i.id, i.delivery_id, i.reagent_id, r.name AS reagent_name, i.quantity_packs
		FROM hospital_delivery_items i
		JOIN reagents r ON r.id = i.reagent_id
		WHERE i.delivery_id = $1
		ORDER BY i.reagent_id
		FOR UPDATE OF i
	`
	if err := tx.SelectContext(ctx, &items, query, deliveryID); err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}
	return items, nil
}

// Reporting queries (read-only)

// AggregateDeliveredByHospital sums delivered packs per hospital and reagent
// since the given time
func (r *DeliveryRepository) AggregateDeliveredByHospital(ctx context.Context, since time.Time) ([]*DeliveredAggregate, error) {
	var aggs []*DeliveredAggregate
	query := `
		SELECT d.hospital_id, h.name AS hospital_name, i.reagent_id, r.name AS reagent_name,
		       COALESCE(SUM(i.quantity_packs), 0) AS delivered_packs
		FROM hospital_delivery_items i
		JOIN hospital_deliveries d ON d.id = i.delivery_id
		JOIN hospitals h ON h.id = d.hospital_id
		JOIN reagents r ON r.id = i.reagent_id
		WHERE d.delivered_at >= $1
		GROUP BY d.hospital_id, h.name, i.reagent_id, r.name
		ORDER BY h.name, r.name
	`
	if err := r.db.SelectContext(ctx, &aggs, query, since); err != nil {
		return nil, err
	}
	return aggs, nil
}

// AggregateDeliveredByReagent sums delivered packs per reagent since the
// given time
func (r *DeliveryRepository) AggregateDeliveredByReagent(ctx context.Context, since time.Time) ([]*DeliveredAggregate, error) {
	var aggs []*DeliveredAggregate
	query := `
		SELECT i.reagent_id, r.name AS reagent_name,
		       COALESCE(SUM(i.quantity_packs), 0) AS delivered_packs
		FROM hospital_delivery_items i
		JOIN hospital_deliveries d ON d.id = i.delivery_id
		JOIN reagents r ON r.id = i.reagent_id
		WHERE d.delivered_at >= $1
		GROUP BY i.reagent_id, r.name
		ORDER BY r.name
	`
	if err := r.db.SelectContext(ctx, &aggs, query, since); err != nil {
		return nil, err
	}
	return aggs, nil
}
