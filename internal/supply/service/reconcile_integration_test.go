package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/medsupply/supply-backend/internal/supply/repository"
	"github.com/medsupply/supply-backend/internal/supply/service"
	apperrors "github.com/medsupply/supply-backend/pkg/errors"
	"github.com/medsupply/supply-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	suiteOnce sync.Once
	suite     *testutil.IntegrationSuite
	suiteErr  error
)

// setupSuite starts the shared Postgres container on first use. Tests run
// with -short never touch it.
func setupSuite(t *testing.T) *testutil.IntegrationSuite {
	t.Helper()
	testutil.SkipIfShort(t)

	suiteOnce.Do(func() {
		suite, suiteErr = testutil.NewIntegrationSuite(context.Background())
	})
	if suiteErr != nil {
		t.Fatalf("failed to create integration suite: %v", suiteErr)
	}

	suite.Reset(t, context.Background())
	return suite
}

type testServices struct {
	ledger   *service.LedgerService
	delivery *service.DeliveryService
}

func newServices(s *testutil.IntegrationSuite) testServices {
	stockRepo := repository.NewStockRepository(s.DB)
	movementRepo := repository.NewMovementRepository(s.DB)
	deliveryRepo := repository.NewDeliveryRepository(s.DB)
	hospitalRepo := repository.NewHospitalRepository(s.DB)

	return testServices{
		ledger:   service.NewLedgerService(s.DB, stockRepo, movementRepo, nil, s.Logger),
		delivery: service.NewDeliveryService(s.DB, stockRepo, deliveryRepo, hospitalRepo, nil, s.Logger),
	}
}

// TestStockReconciliation walks a reagent through the full lifecycle:
// stock in, stock out, a delivery debit, a refused over-debit, an item
// edit that re-balances, and an item deletion that credits back.
func TestStockReconciliation(t *testing.T) {
	s := setupSuite(t)
	ctx := context.Background()
	svcs := newServices(s)

	reagent := s.Fixtures.Reagent(testutil.WithReagentName("DiluentX"))
	testutil.SeedReagent(t, ctx, s.RawDB, reagent)

	hospital := s.Fixtures.Hospital()
	testutil.SeedHospital(t, ctx, s.RawDB, hospital)

	// Receive 100 packs. The balance row is created lazily on first movement.
	_, err := svcs.ledger.RecordMovement(ctx, service.MovementInput{
		ReagentID:    reagent.ID,
		MovementType: "IN",
		Quantity:     100,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, testutil.QueryBalance(t, ctx, s.RawDB, reagent.ID))

	// Issue 30 packs out.
	_, err = svcs.ledger.RecordMovement(ctx, service.MovementInput{
		ReagentID:    reagent.ID,
		MovementType: "OUT",
		Quantity:     30,
	})
	require.NoError(t, err)
	assert.Equal(t, 70, testutil.QueryBalance(t, ctx, s.RawDB, reagent.ID))

	// Deliver 50 packs to a hospital.
	delivery, err := svcs.delivery.CreateDelivery(ctx, service.DeliveryInput{
		HospitalID: hospital.ID,
		Items: []service.ItemInput{
			{ReagentID: reagent.ID, QuantityPacks: 50},
		},
	})
	require.NoError(t, err)
	require.Len(t, delivery.Items, 1)
	assert.Equal(t, 20, testutil.QueryBalance(t, ctx, s.RawDB, reagent.ID))

	// An additional 25-pack item exceeds the 20 on hand and changes nothing.
	_, err = svcs.delivery.AddItem(ctx, delivery.ID, service.ItemInput{
		ReagentID:     reagent.ID,
		QuantityPacks: 25,
	})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientStock))
	assert.Contains(t, appErr.Message, "DiluentX")
	assert.Contains(t, appErr.Message, "Available: 20")
	assert.Equal(t, 20, testutil.QueryBalance(t, ctx, s.RawDB, reagent.ID))

	// Editing the item from 50 down to 40 credits the difference back.
	item := delivery.Items[0]
	updated, err := svcs.delivery.UpdateItem(ctx, item.ID, service.ItemInput{
		ReagentID:     reagent.ID,
		QuantityPacks: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, 40, updated.QuantityPacks)
	assert.Equal(t, 30, testutil.QueryBalance(t, ctx, s.RawDB, reagent.ID))

	// Deleting the item credits its full 40 packs back.
	err = svcs.delivery.DeleteItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, testutil.QueryBalance(t, ctx, s.RawDB, reagent.ID))
}

// TestConcurrentDebitsSerialize runs two simultaneous OUT movements against
// a balance that can only cover one of them. The row lock serializes them;
// whichever lands second sees the drained balance and is refused.
func TestConcurrentDebitsSerialize(t *testing.T) {
	s := setupSuite(t)
	ctx := context.Background()
	svcs := newServices(s)

	reagent := s.Fixtures.Reagent()
	testutil.SeedReagent(t, ctx, s.RawDB, reagent)
	testutil.SeedStock(t, ctx, s.RawDB, reagent.ID, 15)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svcs.ledger.RecordMovement(ctx, service.MovementInput{
				ReagentID:    reagent.ID,
				MovementType: "OUT",
				Quantity:     10,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var failures int
	for err := range results {
		if err != nil {
			assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientStock))
			failures++
		}
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, 5, testutil.QueryBalance(t, ctx, s.RawDB, reagent.ID))
}

// TestDeleteDeliveryCreditsAllItems deletes a two-item delivery and expects
// both balances restored in one transaction.
func TestDeleteDeliveryCreditsAllItems(t *testing.T) {
	s := setupSuite(t)
	ctx := context.Background()
	svcs := newServices(s)

	diluent := s.Fixtures.Reagent(testutil.WithReagentName("DiluentX"))
	lyse := s.Fixtures.Reagent(testutil.WithReagentName("LyseQuick"))
	testutil.SeedReagent(t, ctx, s.RawDB, diluent)
	testutil.SeedReagent(t, ctx, s.RawDB, lyse)
	testutil.SeedStock(t, ctx, s.RawDB, diluent.ID, 50)
	testutil.SeedStock(t, ctx, s.RawDB, lyse.ID, 30)

	hospital := s.Fixtures.Hospital()
	testutil.SeedHospital(t, ctx, s.RawDB, hospital)

	delivery, err := svcs.delivery.CreateDelivery(ctx, service.DeliveryInput{
		HospitalID: hospital.ID,
		Items: []service.ItemInput{
			{ReagentID: diluent.ID, QuantityPacks: 20},
			{ReagentID: lyse.ID, QuantityPacks: 10},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 30, testutil.QueryBalance(t, ctx, s.RawDB, diluent.ID))
	assert.Equal(t, 20, testutil.QueryBalance(t, ctx, s.RawDB, lyse.ID))

	err = svcs.delivery.DeleteDelivery(ctx, delivery.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, testutil.QueryBalance(t, ctx, s.RawDB, diluent.ID))
	assert.Equal(t, 30, testutil.QueryBalance(t, ctx, s.RawDB, lyse.ID))
}

// TestCrossReagentItemUpdate moves an item to a different reagent: the old
// reagent is credited and the new one debited atomically.
func TestCrossReagentItemUpdate(t *testing.T) {
	s := setupSuite(t)
	ctx := context.Background()
	svcs := newServices(s)

	diluent := s.Fixtures.Reagent(testutil.WithReagentName("DiluentX"))
	lyse := s.Fixtures.Reagent(testutil.WithReagentName("LyseQuick"))
	testutil.SeedReagent(t, ctx, s.RawDB, diluent)
	testutil.SeedReagent(t, ctx, s.RawDB, lyse)
	testutil.SeedStock(t, ctx, s.RawDB, diluent.ID, 50)
	testutil.SeedStock(t, ctx, s.RawDB, lyse.ID, 30)

	hospital := s.Fixtures.Hospital()
	testutil.SeedHospital(t, ctx, s.RawDB, hospital)

	delivery, err := svcs.delivery.CreateDelivery(ctx, service.DeliveryInput{
		HospitalID: hospital.ID,
		Items: []service.ItemInput{
			{ReagentID: diluent.ID, QuantityPacks: 20},
		},
	})
	require.NoError(t, err)

	updated, err := svcs.delivery.UpdateItem(ctx, delivery.Items[0].ID, service.ItemInput{
		ReagentID:     lyse.ID,
		QuantityPacks: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, lyse.ID, updated.ReagentID)
	assert.Equal(t, 50, testutil.QueryBalance(t, ctx, s.RawDB, diluent.ID))
	assert.Equal(t, 5, testutil.QueryBalance(t, ctx, s.RawDB, lyse.ID))
}
