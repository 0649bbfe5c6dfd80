package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/medsupply/supply-backend/internal/supply/events"
	"github.com/medsupply/supply-backend/internal/supply/repository"
	"github.com/medsupply/supply-backend/pkg/database"
	"github.com/medsupply/supply-backend/pkg/errors"
	"github.com/medsupply/supply-backend/pkg/logger"
)

// LedgerService records stock movements and answers balance queries. It is
// one of exactly two write paths into warehouse_stock; the other is the
// delivery reconciler. Both route every mutation through the balance row
// lock inside a ledger transaction.
type LedgerService struct {
	db           *database.DB
	stockRepo    *repository.StockRepository
	movementRepo *repository.MovementRepository
	publisher    *events.SupplyEventPublisher
	logger       *logger.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	db *database.DB,
	stockRepo *repository.StockRepository,
	movementRepo *repository.MovementRepository,
	publisher *events.SupplyEventPublisher,
	log *logger.Logger,
) *LedgerService {
	return &LedgerService{
		db:           db,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		publisher:    publisher,
		logger:       log,
	}
}

// MovementInput is the request to record a stock movement
type MovementInput struct {
	ReagentID    string `json:"reagent_id" validate:"required,uuid"`
	MovementType string `json:"movement_type" validate:"required,oneof=IN OUT"`
	Quantity     int    `json:"quantity"`
	Note         string `json:"note" validate:"max=255"`
}

// RecordMovement appends an immutable movement and applies its effect to the
// warehouse balance in a single transaction. An OUT that would drive the
// balance negative aborts the whole operation: the ledger never contains a
// movement whose effect was not applied.
func (s *LedgerService) RecordMovement(ctx context.Context, input MovementInput) (*repository.StockMovement, error) {
	// Reject bad quantities before any lock is taken.
	if input.Quantity <= 0 {
		return nil, errors.InvalidQuantity("quantity")
	}
	if input.MovementType != repository.MovementIn && input.MovementType != repository.MovementOut {
		return nil, errors.Validation(map[string]string{
			"movement_type": "must be one of: IN, OUT",
		})
	}

	movement := &repository.StockMovement{
		ReagentID:    input.ReagentID,
		MovementType: input.MovementType,
		Quantity:     input.Quantity,
		Note:         input.Note,
	}

	delta := input.Quantity
	if input.MovementType == repository.MovementOut {
		delta = -input.Quantity
	}

	var newBalance int
	err := s.db.LedgerTransaction(ctx, func(tx *sqlx.Tx) error {
		stock, err := s.stockRepo.GetOrCreateForUpdate(ctx, tx, input.ReagentID)
		if err != nil {
			return err
		}
		if err := s.stockRepo.ApplyDelta(ctx, tx, stock, delta); err != nil {
			return err
		}
		newBalance = stock.QuantityPacks
		return s.movementRepo.Insert(ctx, tx, movement)
	})
	if err != nil {
		return nil, mapLedgerErr(err)
	}

	s.logger.Info().
		Str("reagent_id", movement.ReagentID).
		Str("movement_type", movement.MovementType).
		Int("quantity", movement.Quantity).
		Int("new_balance", newBalance).
		Msg("stock movement recorded")

	s.publisher.PublishMovementRecorded(ctx, movement, newBalance)
	return movement, nil
}

// GetBalance returns the current balance for a reagent
func (s *LedgerService) GetBalance(ctx context.Context, reagentID string) (*repository.WarehouseStock, error) {
	return s.stockRepo.GetBalance(ctx, reagentID)
}

// ListBalances returns all current balances
func (s *LedgerService) ListBalances(ctx context.Context) ([]*repository.WarehouseStock, error) {
	return s.stockRepo.ListBalances(ctx)
}

// ListMovements lists movement history, optionally filtered by reagent
func (s *LedgerService) ListMovements(ctx context.Context, reagentID string, page, perPage int) ([]*repository.StockMovement, int64, error) {
	return s.movementRepo.List(ctx, reagentID, page, perPage)
}

// mapLedgerErr normalizes errors escaping a ledger transaction. AppErrors
// pass through; raw pq errors (lock timeout, constraint backstops) are mapped
// to their domain equivalents.
func mapLedgerErr(err error) error {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if mapped := database.MapPQError(err); mapped != nil {
		return mapped
	}
	return err
}
