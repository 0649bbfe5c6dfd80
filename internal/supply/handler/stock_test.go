package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medsupply/supply-backend/internal/supply/handler"
	"github.com/medsupply/supply-backend/internal/supply/repository"
	"github.com/medsupply/supply-backend/internal/supply/service"
	"github.com/medsupply/supply-backend/pkg/database"
	"github.com/medsupply/supply-backend/pkg/httputil"
	"github.com/medsupply/supply-backend/pkg/logger"
	"github.com/medsupply/supply-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
)

func newStockRouter(t *testing.T) (chi.Router, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("test", "test")
	db := database.NewFromSqlx(mockDB.DB, log)

	stockRepo := repository.NewStockRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	svc := service.NewLedgerService(db, stockRepo, movementRepo, nil, log)
	h := handler.NewStockHandler(svc, log)

	r := chi.NewRouter()
	r.Get("/stock", h.ListBalances)
	r.Get("/stock/{id}", h.GetBalance)
	r.Post("/movements", h.RecordMovement)
	return r, mockDB
}

func TestRecordMovementEndpoint_InsufficientStock(t *testing.T) {
	router, mockDB := newStockRouter(t)
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

	req := testutil.NewHTTPRequest(http.MethodPost, "/movements", map[string]interface{}{
		"reagent_id":    reagentID,
		"movement_type": "OUT",
		"quantity":      25,
	})
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusConflict)

	var resp httputil.Response
	testutil.ParseJSONBody(t, rr, &resp)
	assert.False(t, resp.Success)
	assert.Equal(t, "INSUFFICIENT_STOCK", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "DiluentX")

	mockDB.ExpectationsWereMet(t)
}

func TestRecordMovementEndpoint_RejectsZeroQuantity(t *testing.T) {
	router, mockDB := newStockRouter(t)
	defer mockDB.Close()

	req := testutil.NewHTTPRequest(http.MethodPost, "/movements", map[string]interface{}{
		"reagent_id":    uuid.New().String(),
		"movement_type": "OUT",
		"quantity":      0,
	})
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertBodyContains(t, rr, "INVALID_QUANTITY")

	mockDB.ExpectationsWereMet(t)
}

func TestGetBalanceEndpoint(t *testing.T) {
	router, mockDB := newStockRouter(t)
	defer mockDB.Close()

	reagentID := uuid.New().String()

	mockDB.ExpectQuery("FROM warehouse_stock").
		WithArgs(reagentID).
		WillReturnRows(testutil.StockRows().AddRow(reagentID, "DiluentX", 70, time.Now()))

	req := testutil.NewHTTPRequest(http.MethodGet, "/stock/"+reagentID, nil)
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertBodyContains(t, rr, `"quantity_packs":70`)

	mockDB.ExpectationsWereMet(t)
}
