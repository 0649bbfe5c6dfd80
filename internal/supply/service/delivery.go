package service

import (
	"context"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/medsupply/supply-backend/internal/supply/events"
	"github.com/medsupply/supply-backend/internal/supply/repository"
	"github.com/medsupply/supply-backend/pkg/database"
	"github.com/medsupply/supply-backend/pkg/errors"
	"github.com/medsupply/supply-backend/pkg/logger"
	"github.com/medsupply/supply-backend/pkg/messaging"
)

// DeliveryService keeps hospital delivery line items reconciled with the
// warehouse balance. Creating an item debits stock, editing re-balances
// (credit the old quantity, debit the new) and deleting credits stock back.
// Each runs in a single transaction with the line item write, so the balance
// stays consistent with the current set of deliveries.
type DeliveryService struct {
	db           *database.DB
	stockRepo    *repository.StockRepository
	deliveryRepo *repository.DeliveryRepository
	hospitalRepo *repository.HospitalRepository
	publisher    *events.SupplyEventPublisher
	logger       *logger.Logger
}

// NewDeliveryService creates a new delivery service
func NewDeliveryService(
	db *database.DB,
	stockRepo *repository.StockRepository,
	deliveryRepo *repository.DeliveryRepository,
	hospitalRepo *repository.HospitalRepository,
	publisher *events.SupplyEventPublisher,
	log *logger.Logger,
) *DeliveryService {
	return &DeliveryService{
		db:           db,
		stockRepo:    stockRepo,
		deliveryRepo: deliveryRepo,
		hospitalRepo: hospitalRepo,
		publisher:    publisher,
		logger:       log,
	}
}

// ItemInput is the request to create or update a delivery line item
type ItemInput struct {
	ReagentID     string `json:"reagent_id" validate:"required,uuid"`
	QuantityPacks int    `json:"quantity_packs"`
}

// DeliveryInput is the request to create a delivery with its line items
type DeliveryInput struct {
	HospitalID string      `json:"hospital_id" validate:"required,uuid"`
	Note       string      `json:"note"`
	Items      []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// DeliveryWithItems bundles a delivery header with its line items
type DeliveryWithItems struct {
	*repository.HospitalDelivery
	Items []*repository.HospitalDeliveryItem `json:"items"`
}

// CreateDelivery creates a delivery header and its line items, debiting the
// warehouse balance for each item. The whole delivery commits or none of it
// does. Items are processed in ascending reagent ID order so concurrent
// deliveries cannot deadlock on each other's balance rows.
func (s *DeliveryService) CreateDelivery(ctx context.Context, input DeliveryInput) (*DeliveryWithItems, error) {
	for _, item := range input.Items {
		if item.QuantityPacks <= 0 {
			return nil, errors.InvalidQuantity("quantity_packs")
		}
	}

	if _, err := s.hospitalRepo.GetByID(ctx, input.HospitalID); err != nil {
		return nil, err
	}

	delivery := &repository.HospitalDelivery{
		HospitalID: input.HospitalID,
		Note:       input.Note,
	}

	sorted := make([]ItemInput, len(input.Items))
	copy(sorted, input.Items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ReagentID < sorted[j].ReagentID })

	items := make([]*repository.HospitalDeliveryItem, 0, len(sorted))
	err := s.db.LedgerTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.deliveryRepo.InsertDelivery(ctx, tx, delivery); err != nil {
			return err
		}

		for _, in := range sorted {
			stock, err := s.stockRepo.GetOrCreateForUpdate(ctx, tx, in.ReagentID)
			if err != nil {
				return err
			}
			if err := s.stockRepo.ApplyDelta(ctx, tx, stock, -in.QuantityPacks); err != nil {
				return err
			}

			item := &repository.HospitalDeliveryItem{
				DeliveryID:    delivery.ID,
				ReagentID:     in.ReagentID,
				ReagentName:   stock.ReagentName,
				QuantityPacks: in.QuantityPacks,
			}
			if err := s.deliveryRepo.InsertItem(ctx, tx, item); err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, mapLedgerErr(err)
	}

	s.logger.Info().
		Str("delivery_id", delivery.ID).
		Str("hospital_id", delivery.HospitalID).
		Int("items", len(items)).
		Msg("delivery created")

	s.publisher.PublishDeliveryCreated(ctx, delivery, len(items))
	return &DeliveryWithItems{HospitalDelivery: delivery, Items: items}, nil
}

// AddItem adds a line item to an existing delivery, debiting stock
func (s *DeliveryService) AddItem(ctx context.Context, deliveryID string, input ItemInput) (*repository.HospitalDeliveryItem, error) {
	if input.QuantityPacks <= 0 {
		return nil, errors.InvalidQuantity("quantity_packs")
	}

	if _, err := s.deliveryRepo.GetDelivery(ctx, deliveryID); err != nil {
		return nil, err
	}

	item := &repository.HospitalDeliveryItem{
		DeliveryID:    deliveryID,
		ReagentID:     input.ReagentID,
		QuantityPacks: input.QuantityPacks,
	}

	var newBalance int
	err := s.db.LedgerTransaction(ctx, func(tx *sqlx.Tx) error {
		stock, err := s.stockRepo.GetOrCreateForUpdate(ctx, tx, input.ReagentID)
		if err != nil {
			return err
		}
		if err := s.stockRepo.ApplyDelta(ctx, tx, stock, -input.QuantityPacks); err != nil {
			return err
		}
		item.ReagentName = stock.ReagentName
		newBalance = stock.QuantityPacks
		return s.deliveryRepo.InsertItem(ctx, tx, item)
	})
	if err != nil {
		return nil, mapLedgerErr(err)
	}

	s.publisher.PublishItemEvent(ctx, messaging.EventDeliveryItemCreated, item, newBalance)
	return item, nil
}

// UpdateItem changes a line item's reagent and/or quantity. Logically it
// undoes the old stock effect and applies the new one as one atomic unit:
// credit the old reagent, debit the new. A failed debit rolls the credit
// back with it, leaving stock and the item exactly as they were.
func (s *DeliveryService) UpdateItem(ctx context.Context, itemID string, input ItemInput) (*repository.HospitalDeliveryItem, error) {
	if input.QuantityPacks <= 0 {
		return nil, errors.InvalidQuantity("quantity_packs")
	}

	var updated *repository.HospitalDeliveryItem
	var newBalance int
	err := s.db.LedgerTransaction(ctx, func(tx *sqlx.Tx) error {
		// Lock the item row first: concurrent updates to the same item
		// serialize here and each sees the previous committed quantities.
		old, err := s.deliveryRepo.GetItemForUpdate(ctx, tx, itemID)
		if err != nil {
			return err
		}

		newReagentID := input.ReagentID
		if newReagentID == "" {
			newReagentID = old.ReagentID
		}

		if newReagentID == old.ReagentID {
			// Same reagent: one lock, credit then debit on the same row.
			stock, err := s.stockRepo.GetForUpdate(ctx, tx, old.ReagentID)
			if err != nil {
				return err
			}
			if err := s.stockRepo.ApplyDelta(ctx, tx, stock, old.QuantityPacks); err != nil {
				return err
			}
			if err := s.stockRepo.ApplyDelta(ctx, tx, stock, -input.QuantityPacks); err != nil {
				return err
			}
			newBalance = stock.QuantityPacks
			old.ReagentName = stock.ReagentName
		} else {
			// Cross-reagent: acquire both balance rows in ascending reagent
			// ID order so two updates touching the same pair in opposite
			// directions cannot deadlock.
			locked := make(map[string]*repository.WarehouseStock, 2)
			ids := []string{old.ReagentID, newReagentID}
			sort.Strings(ids)
			for _, id := range ids {
				stock, err := s.stockRepo.GetForUpdate(ctx, tx, id)
				if err != nil {
					return err
				}
				locked[id] = stock
			}

			if err := s.stockRepo.ApplyDelta(ctx, tx, locked[old.ReagentID], old.QuantityPacks); err != nil {
				return err
			}
			if err := s.stockRepo.ApplyDelta(ctx, tx, locked[newReagentID], -input.QuantityPacks); err != nil {
				return err
			}
			newBalance = locked[newReagentID].QuantityPacks
			old.ReagentName = locked[newReagentID].ReagentName
		}

		old.ReagentID = newReagentID
		old.QuantityPacks = input.QuantityPacks
		if err := s.deliveryRepo.UpdateItem(ctx, tx, old); err != nil {
			return err
		}
		updated = old
		return nil
	})
	if err != nil {
		return nil, mapLedgerErr(err)
	}

	s.publisher.PublishItemEvent(ctx, messaging.EventDeliveryItemUpdated, updated, newBalance)
	return updated, nil
}

// DeleteItem removes a line item and credits its quantity back to the
// warehouse. This is the explicit compensation path for item removal: the
// credit and the row deletion commit together or not at all. The balance row
// must already exist - a reagent with live deliveries but no stock row means
// the ledger is corrupt, and the operation fails rather than papering over it.
func (s *DeliveryService) DeleteItem(ctx context.Context, itemID string) error {
	var item *repository.HospitalDeliveryItem
	var newBalance int
	err := s.db.LedgerTransaction(ctx, func(tx *sqlx.Tx) error {
		old, err := s.deliveryRepo.GetItemForUpdate(ctx, tx, itemID)
		if err != nil {
			return err
		}

		stock, err := s.stockRepo.GetForUpdate(ctx, tx, old.ReagentID)
		if err != nil {
			return err
		}
		if err := s.stockRepo.ApplyDelta(ctx, tx, stock, old.QuantityPacks); err != nil {
			return err
		}

		if err := s.deliveryRepo.DeleteItem(ctx, tx, old.ID); err != nil {
			return err
		}

		item = old
		newBalance = stock.QuantityPacks
		return nil
	})
	if err != nil {
		return mapLedgerErr(err)
	}

	s.logger.Info().
		Str("item_id", item.ID).
		Str("reagent_id", item.ReagentID).
		Int("credited_packs", item.QuantityPacks).
		Msg("delivery item deleted, stock credited")

	s.publisher.PublishItemEvent(ctx, messaging.EventDeliveryItemDeleted, item, newBalance)
	return nil
}

// DeleteDelivery removes a delivery and all of its line items, crediting
// each item's quantity back. Items are compensated in ascending reagent ID
// order within one transaction.
func (s *DeliveryService) DeleteDelivery(ctx context.Context, deliveryID string) error {
	delivery, err := s.deliveryRepo.GetDelivery(ctx, deliveryID)
	if err != nil {
		return err
	}

	var itemCount int
	err = s.db.LedgerTransaction(ctx, func(tx *sqlx.Tx) error {
		items, err := s.deliveryRepo.ListItemsByDeliveryForUpdate(ctx, tx, deliveryID)
		if err != nil {
			return err
		}
		itemCount = len(items)

		for _, item := range items {
			stock, err := s.stockRepo.GetForUpdate(ctx, tx, item.ReagentID)
			if err != nil {
				return err
			}
			if err := s.stockRepo.ApplyDelta(ctx, tx, stock, item.QuantityPacks); err != nil {
				return err
			}
			if err := s.deliveryRepo.DeleteItem(ctx, tx, item.ID); err != nil {
				return err
			}
		}

		return s.deliveryRepo.DeleteDelivery(ctx, tx, deliveryID)
	})
	if err != nil {
		return mapLedgerErr(err)
	}

	s.publisher.PublishDeliveryDeleted(ctx, deliveryID, delivery.HospitalID, itemCount)
	return nil
}

// GetDelivery returns a delivery with its line items
func (s *DeliveryService) GetDelivery(ctx context.Context, id string) (*DeliveryWithItems, error) {
	delivery, err := s.deliveryRepo.GetDelivery(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := s.deliveryRepo.ListItemsByDelivery(ctx, id)
	if err != nil {
		return nil, err
	}

	return &DeliveryWithItems{HospitalDelivery: delivery, Items: items}, nil
}

// ListDeliveries lists deliveries with their items
func (s *DeliveryService) ListDeliveries(ctx context.Context, hospitalID string, page, perPage int) ([]*DeliveryWithItems, int64, error) {
	deliveries, total, err := s.deliveryRepo.ListDeliveries(ctx, hospitalID, page, perPage)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*DeliveryWithItems, len(deliveries))
	for i, d := range deliveries {
		items, err := s.deliveryRepo.ListItemsByDelivery(ctx, d.ID)
		if err != nil {
			return nil, 0, err
		}
		result[i] = &DeliveryWithItems{HospitalDelivery: d, Items: items}
	}
	return result, total, nil
}
