package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medsupply/supply-backend/internal/supply/repository"
	"github.com/medsupply/supply-backend/internal/supply/service"
	"github.com/medsupply/supply-backend/pkg/database"
	"github.com/medsupply/supply-backend/pkg/logger"
	"github.com/medsupply/supply-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportService(t *testing.T) (*service.ReportService, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("test", "test")
	db := database.NewFromSqlx(mockDB.DB, log)

	deliveryRepo := repository.NewDeliveryRepository(db)
	stockRepo := repository.NewStockRepository(db)

	svc := service.NewReportService(deliveryRepo, stockRepo, log)
	return svc, mockDB
}

func TestBuildReport_MonthlyAverageAndRunway(t *testing.T) {
	svc, mockDB := newReportService(t)
	defer mockDB.Close()

	hospitalID := uuid.New().String()
	reagentID := uuid.New().String()

	hospitalRows := testutil.MockRows("hospital_id", "hospital_name", "reagent_id", "reagent_name", "delivered_packs").
		AddRow(hospitalID, "Charite", reagentID, "DiluentX", 90)
	reagentRows := testutil.MockRows("reagent_id", "reagent_name", "delivered_packs").
		AddRow(reagentID, "DiluentX", 90)
	balanceRows := testutil.StockRows().
		AddRow(reagentID, "DiluentX", 60, time.Now())

	mockDB.ExpectQuery("GROUP BY d.hospital_id").WillReturnRows(hospitalRows)
	mockDB.ExpectQuery("GROUP BY i.reagent_id").WillReturnRows(reagentRows)
	mockDB.ExpectQuery("ORDER BY r.name").WillReturnRows(balanceRows)

	report, err := svc.BuildReport(context.Background(), 90)
	require.NoError(t, err)

	require.Len(t, report.ByHospital, 1)
	assert.Equal(t, "Charite", report.ByHospital[0].HospitalName)
	assert.Equal(t, 90, report.ByHospital[0].DeliveredPacks)

	require.Len(t, report.ByReagent, 1)
	runway := report.ByReagent[0]
	// 90 packs over 90 days is 30 packs a month; 60 on hand covers 2 months.
	assert.InDelta(t, 30.0, runway.MonthlyAvg, 0.001)
	require.NotNil(t, runway.MonthsLeft)
	assert.InDelta(t, 2.0, *runway.MonthsLeft, 0.001)

	mockDB.ExpectationsWereMet(t)
}

func TestBuildReport_NoDeliveriesMeansNoRunway(t *testing.T) {
	svc, mockDB := newReportService(t)
	defer mockDB.Close()

	reagentID := uuid.New().String()

	mockDB.ExpectQuery("GROUP BY d.hospital_id").
		WillReturnRows(testutil.MockRows("hospital_id", "hospital_name", "reagent_id", "reagent_name", "delivered_packs"))
	mockDB.ExpectQuery("GROUP BY i.reagent_id").
		WillReturnRows(testutil.MockRows("reagent_id", "reagent_name", "delivered_packs"))
	mockDB.ExpectQuery("ORDER BY r.name").
		WillReturnRows(testutil.StockRows().AddRow(reagentID, "LyseQuick", 15, time.Now()))

	report, err := svc.BuildReport(context.Background(), 90)
	require.NoError(t, err)

	require.Len(t, report.ByReagent, 1)
	assert.Equal(t, 0, report.ByReagent[0].DeliveredPacks)
	assert.Nil(t, report.ByReagent[0].MonthsLeft)

	// A reagent with no consumption renders an N/A runway instead of a number.
	rendered := report.Render()
	assert.Contains(t, rendered, "LyseQuick")
	assert.Contains(t, rendered, "N/A")

	mockDB.ExpectationsWereMet(t)
}

func TestUsageReportRender(t *testing.T) {
	left := 2.5
	report := &service.UsageReport{
		Since: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Days:  90,
		ByHospital: []service.HospitalUsage{
			{HospitalName: "Charite", ReagentName: "DiluentX", DeliveredPacks: 90},
		},
		ByReagent: []service.ReagentRunway{
			{ReagentName: "DiluentX", DeliveredPacks: 90, MonthlyAvg: 30, BalancePacks: 75, MonthsLeft: &left},
		},
	}

	rendered := report.Render()
	assert.Contains(t, rendered, "last 90 days")
	assert.Contains(t, rendered, "Charite / DiluentX: 90 packs")
	assert.Contains(t, rendered, "runway 2.5 months")
}
