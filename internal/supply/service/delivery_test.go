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

func newDeliveryService(t *testing.T) (*service.DeliveryService, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("test", "test")
	db := database.NewFromSqlx(mockDB.DB, log)

	stockRepo := repository.NewStockRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	hospitalRepo := repository.NewHospitalRepository(db)

	svc := service.NewDeliveryService(db, stockRepo, deliveryRepo, hospitalRepo, nil, log)
	return svc, mockDB
}

func itemRows() *sqlmock.Rows {
	return testutil.MockRows("id", "delivery_id", "reagent_id", "reagent_name", "quantity_packs")
}

func TestUpdateItem_SameReagent(t *testing.T) {
	svc, mockDB := newDeliveryService(t)
	defer mockDB.Close()

	itemID := uuid.New().String()
	deliveryID := uuid.New().String()
	reagentID := uuid.New().String()

	mockDB.ExpectBegin()
	mockDB.ExpectLockTimeout()
	mockDB.ExpectQuery("FOR UPDATE OF i").
		WithArgs(itemID).
		WillReturnRows(itemRows().AddRow(itemID, deliveryID, reagentID, "DiluentX", 50))
	mockDB.ExpectQuery("FOR UPDATE OF ws").
		WithArgs(reagentID).
		WillReturnRows(testutil.StockRows().AddRow(reagentID, "DiluentX", 20, time.Now()))
	// Credit the old quantity back, then debit the new one on the same row.
	mockDB.ExpectQuery("UPDATE warehouse_stock SET quantity_packs").
		WithArgs(reagentID, 70).
		WillReturnRows(testutil.MockRows("last_updated").AddRow(time.Now()))
	mockDB.ExpectQuery("UPDATE warehouse_stock SET quantity_packs").
		WithArgs(reagentID, 30).
		WillReturnRows(testutil.MockRows("last_updated").AddRow(time.Now()))
	mockDB.ExpectExec("UPDATE hospital_delivery_items").
		WithArgs(itemID, reagentID, 40).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	item, err := svc.UpdateItem(context.Background(), itemID, service.ItemInput{
		ReagentID:     reagentID,
		QuantityPacks: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, 40, item.QuantityPacks)

	mockDB.ExpectationsWereMet(t)
}

func TestUpdateItem_FailedDebitRollsBackCredit(t *testing.T) {
	svc, mockDB := newDeliveryService(t)
	defer mockDB.Close()

	itemID := uuid.New().String()
	deliveryID := uuid.New().String()
	reagentID := uuid.New().String()

	mockDB.ExpectBegin()
	mockDB.ExpectLockTimeout()
	mockDB.ExpectQuery("FOR UPDATE OF i").
		WithArgs(itemID).
		WillReturnRows(itemRows().AddRow(itemID, deliveryID, reagentID, "DiluentX", 50))
	mockDB.ExpectQuery("FOR UPDATE OF ws").
		WithArgs(reagentID).
		WillReturnRows(testutil.StockRows().AddRow(reagentID, "DiluentX", 20, time.Now()))
	// The credit lands, then the oversized debit fails and the whole
	// transaction rolls back, credit included.
	mockDB.ExpectQuery("UPDATE warehouse_stock SET quantity_packs").
		WithArgs(reagentID, 70).
		WillReturnRows(testutil.MockRows("last_updated").AddRow(time.Now()))
	mockDB.ExpectRollback()

	_, err := svc.UpdateItem(context.Background(), itemID, service.ItemInput{
		ReagentID:     reagentID,
		QuantityPacks: 95,
	})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientStock))
	assert.Contains(t, appErr.Message, "Available: 70")
	assert.Contains(t, appErr.Message, "requested: 95")

	mockDB.ExpectationsWereMet(t)
}

func TestUpdateItem_RejectsNonPositiveQuantity(t *testing.T) {
	svc, mockDB := newDeliveryService(t)
	defer mockDB.Close()

	_, err := svc.UpdateItem(context.Background(), uuid.New().String(), service.ItemInput{
		QuantityPacks: 0,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidQuantity))

	mockDB.ExpectationsWereMet(t)
}

func TestDeleteItem_CreditsStockBack(t *testing.T) {
	svc, mockDB := newDeliveryService(t)
	defer mockDB.Close()

	itemID := uuid.New().String()
	deliveryID := uuid.New().String()
	reagentID := uuid.New().String()

	mockDB.ExpectBegin()
	mockDB.ExpectLockTimeout()
	mockDB.ExpectQuery("FOR UPDATE OF i").
		WithArgs(itemID).
		WillReturnRows(itemRows().AddRow(itemID, deliveryID, reagentID, "DiluentX", 40))
	mockDB.ExpectQuery("FOR UPDATE OF ws").
		WithArgs(reagentID).
		WillReturnRows(testutil.StockRows().AddRow(reagentID, "DiluentX", 0, time.Now()))
	mockDB.ExpectQuery("UPDATE warehouse_stock SET quantity_packs").
		WithArgs(reagentID, 40).
		WillReturnRows(testutil.MockRows("last_updated").AddRow(time.Now()))
	mockDB.ExpectExec("DELETE FROM hospital_delivery_items").
		WithArgs(itemID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	err := svc.DeleteItem(context.Background(), itemID)
	require.NoError(t, err)

	mockDB.ExpectationsWereMet(t)
}

func TestDeleteItem_MissingBalanceRowIsIntegrityError(t *testing.T) {
	svc, mockDB := newDeliveryService(t)
	defer mockDB.Close()

	itemID := uuid.New().String()
	deliveryID := uuid.New().String()
	reagentID := uuid.New().String()

	mockDB.ExpectBegin()
	mockDB.ExpectLockTimeout()
	mockDB.ExpectQuery("FOR UPDATE OF i").
		WithArgs(itemID).
		WillReturnRows(itemRows().AddRow(itemID, deliveryID, reagentID, "DiluentX", 40))
	// No balance row for a reagent with live delivery items: the compensation
	// path refuses to lazily create one.
	mockDB.ExpectQuery("FOR UPDATE OF ws").
		WithArgs(reagentID).
		WillReturnRows(testutil.StockRows())
	mockDB.ExpectRollback()

	err := svc.DeleteItem(context.Background(), itemID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrLedgerIntegrity))

	mockDB.ExpectationsWereMet(t)
}
