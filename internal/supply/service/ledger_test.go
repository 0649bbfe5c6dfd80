package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/medsupply/supply-backend/internal/supply/repository"
	"github.com/medsupply/supply-backend/internal/supply/service"
	"github.com/medsupply/supply-backend/pkg/database"
	apperrors "github.com/medsupply/supply-backend/pkg/errors"
	"github.com/medsupply/supply-backend/pkg/logger"
	"github.com/medsupply/supply-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerService(t *testing.T) (*service.LedgerService, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("test", "test")
	db := database.NewFromSqlx(mockDB.DB, log)

	stockRepo := repository.NewStockRepository(db)
	movementRepo := repository.NewMovementRepository(db)

	svc := service.NewLedgerService(db, stockRepo, movementRepo, nil, log)
	return svc, mockDB
}

func TestRecordMovement_In(t *testing.T) {
	svc, mockDB := newLedgerService(t)
	defer mockDB.Close()

	reagentID := uuid.New().String()

	mockDB.ExpectBegin()
	mockDB.ExpectLockTimeout()
	mockDB.ExpectExec("INSERT INTO warehouse_stock").
		WithArgs(reagentID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectQuery("FOR UPDATE OF ws").
		WithArgs(reagentID).
		WillReturnRows(testutil.StockRows().AddRow(reagentID, "DiluentX", 100, time.Now()))
	mockDB.ExpectQuery("UPDATE warehouse_stock SET quantity_packs").
		WithArgs(reagentID, 120).
		WillReturnRows(testutil.MockRows("last_updated").AddRow(time.Now()))
	mockDB.ExpectQuery("INSERT INTO stock_movements").
		WithArgs(testutil.AnyUUID{}, reagentID, "IN", 20, "restock").
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
	mockDB.ExpectCommit()

	movement, err := svc.RecordMovement(context.Background(), service.MovementInput{
		ReagentID:    reagentID,
		MovementType: "IN",
		Quantity:     20,
		Note:         "restock",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, movement.ID)
	assert.Equal(t, "IN", movement.MovementType)
	assert.Equal(t, 20, movement.Quantity)

	mockDB.ExpectationsWereMet(t)
}

func TestRecordMovement_OutInsufficientStock(t *testing.T) {
	svc, mockDB := newLedgerService(t)
	defer mockDB.Close()

	reagentID := uuid.New().String()

	mockDB.ExpectBegin()
	mockDB.ExpectLockTimeout()
	mockDB.ExpectExec("INSERT INTO warehouse_stock").
		WithArgs(reagentID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectQuery("FOR UPDATE OF ws").
		WithArgs(reagentID).
		WillReturnRows(testutil.StockRows().AddRow(reagentID, "DiluentX", 20, time.Now()))
	mockDB.ExpectRollback()

	_, err := svc.RecordMovement(context.Background(), service.MovementInput{
		ReagentID:    reagentID,
		MovementType: "OUT",
		Quantity:     25,
	})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientStock))
	assert.Contains(t, appErr.Message, "DiluentX")
	assert.Contains(t, appErr.Message, "Available: 20")
	assert.Contains(t, appErr.Message, "requested: 25")

	mockDB.ExpectationsWereMet(t)
}

func TestRecordMovement_RejectsBadInput(t *testing.T) {
	svc, mockDB := newLedgerService(t)
	defer mockDB.Close()

	reagentID := uuid.New().String()

	// No database expectations: validation fails before any lock is taken.
	for _, quantity := range []int{0, -5} {
		_, err := svc.RecordMovement(context.Background(), service.MovementInput{
			ReagentID:    reagentID,
			MovementType: "IN",
			Quantity:     quantity,
		})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidQuantity))
	}

	_, err := svc.RecordMovement(context.Background(), service.MovementInput{
		ReagentID:    reagentID,
		MovementType: "TRANSFER",
		Quantity:     5,
	})
	require.Error(t, err)

	mockDB.ExpectationsWereMet(t)
}

func TestRecordMovement_OutDrainsToZero(t *testing.T) {
	svc, mockDB := newLedgerService(t)
	defer mockDB.Close()

	reagentID := uuid.New().String()

	mockDB.ExpectBegin()
	mockDB.ExpectLockTimeout()
	mockDB.ExpectExec("INSERT INTO warehouse_stock").
		WithArgs(reagentID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectQuery("FOR UPDATE OF ws").
		WithArgs(reagentID).
		WillReturnRows(testutil.StockRows().AddRow(reagentID, "DiluentX", 30, time.Now()))
	mockDB.ExpectQuery("UPDATE warehouse_stock SET quantity_packs").
		WithArgs(reagentID, 0).
		WillReturnRows(testutil.MockRows("last_updated").AddRow(time.Now()))
	mockDB.ExpectQuery("INSERT INTO stock_movements").
		WithArgs(testutil.AnyUUID{}, reagentID, "OUT", 30, "").
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
	mockDB.ExpectCommit()

	movement, err := svc.RecordMovement(context.Background(), service.MovementInput{
		ReagentID:    reagentID,
		MovementType: "OUT",
		Quantity:     30,
	})
	require.NoError(t, err)
	assert.Equal(t, "OUT", movement.MovementType)

	mockDB.ExpectationsWereMet(t)
}
