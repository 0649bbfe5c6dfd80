package service_test

import (
	"testing"

	"github.com/medsupply/supply-backend/internal/supply/repository"
	"github.com/medsupply/supply-backend/internal/supply/service"
	"github.com/stretchr/testify/assert"
)

func TestMonthlyConsumptionML(t *testing.T) {
	rule := &repository.ConsumptionRule{
		MLPerTest:     2.5,
		MLPerWash:     50,
		WashesPerWeek: 3,
	}

	// 2.5ml * 40 tests * 30 days + 50ml * 3 washes * 4 weeks
	got := service.MonthlyConsumptionML(rule, 40)
	assert.InDelta(t, 3600.0, got, 0.001)
}

func TestMonthlyConsumptionML_NoWashes(t *testing.T) {
	rule := &repository.ConsumptionRule{MLPerTest: 1.2}

	got := service.MonthlyConsumptionML(rule, 100)
	assert.InDelta(t, 3600.0, got, 0.001)
}

func TestMonthlyConsumptionPacks(t *testing.T) {
	assert.InDelta(t, 7.2, service.MonthlyConsumptionPacks(3600, 500), 0.001)

	// Unknown or nonsensical pack volumes yield zero rather than dividing by it.
	assert.Zero(t, service.MonthlyConsumptionPacks(3600, 0))
	assert.Zero(t, service.MonthlyConsumptionPacks(3600, -10))
}
