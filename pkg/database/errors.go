package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/medsupply/supply-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Lock wait exceeded (55P03) - the per-reagent gate could not be acquired
	case "55P03":
		return errors.ConcurrencyTimeout("warehouse stock")

	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	// The warehouse_stock non-negative constraint is the database-level
	// backstop for the ledger invariant; the service normally rejects the
	// debit before this can fire.
	case strings.Contains(constraint, "quantity_packs_non_negative"):
		return errors.Conflict("stock balance may not go negative")

	case strings.Contains(constraint, "quantity_positive"):
		return errors.Validation(map[string]string{
			"quantity": "must be a positive integer",
		})

	case strings.Contains(constraint, "movement_type_valid"):
		return errors.Validation(map[string]string{
			"movement_type": "must be one of: IN, OUT",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "warehouse_stock_reagent"):
		return "a stock balance for this reagent already exists"
	case strings.Contains(constraint, "hospital_analyzers_hospital_serial"):
		return "an analyzer with this serial number is already installed at this hospital"
	case strings.Contains(constraint, "consumption_rules_reagent"):
		return "a consumption rule for this reagent already exists"
	default:
		return "a record with these values already exists"
	}
}
