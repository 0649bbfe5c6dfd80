package database_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/medsupply/supply-backend/pkg/database"
	"github.com/medsupply/supply-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPQError_LockTimeout(t *testing.T) {
	err := &pq.Error{Code: "55P03", Message: "canceling statement due to lock timeout"}

	appErr := database.MapPQError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "CONCURRENCY_TIMEOUT", appErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.StatusCode)
	assert.True(t, errors.Is(appErr, errors.ErrConcurrencyTimeout))
}

func TestMapPQError_UnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("ledger transaction: %w", &pq.Error{Code: "55P03"})

	appErr := database.MapPQError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, "CONCURRENCY_TIMEOUT", appErr.Code)
}

func TestMapPQError_CheckConstraints(t *testing.T) {
	tests := []struct {
		constraint string
		wantCode   string
		wantStatus int
	}{
		{"warehouse_stock_quantity_packs_non_negative", "CONFLICT", http.StatusConflict},
		{"stock_movements_quantity_positive", "VALIDATION_ERROR", http.StatusBadRequest},
		{"stock_movements_movement_type_valid", "VALIDATION_ERROR", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			err := &pq.Error{Code: "23514", Constraint: tt.constraint}

			appErr := database.MapPQError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantStatus, appErr.StatusCode)
		})
	}
}

func TestMapPQError_UniqueConstraints(t *testing.T) {
	err := &pq.Error{Code: "23505", Constraint: "consumption_rules_reagent"}

	appErr := database.MapPQError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
	assert.Contains(t, appErr.Message, "consumption rule")
}

func TestMapPQError_IgnoresNonPQErrors(t *testing.T) {
	assert.Nil(t, database.MapPQError(fmt.Errorf("plain error")))
	assert.Nil(t, database.MapPQError(nil))
}
