package events

import (
	"context"

	"github.com/medsupply/supply-backend/internal/supply/repository"
	"github.com/medsupply/supply-backend/pkg/logger"
	"github.com/medsupply/supply-backend/pkg/messaging"
)

// SupplyEventPublisher publishes supply ledger events. All methods are
// nil-safe and best-effort: a publish failure is logged, never propagated,
// because the ledger transaction has already committed.
type SupplyEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewSupplyEventPublisher creates a new supply event publisher
func NewSupplyEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*SupplyEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeSupplyEvents, "supply-service", log)
	if err != nil {
		return nil, err
	}

	return &SupplyEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishMovementRecorded publishes a movement recorded event
func (p *SupplyEventPublisher) PublishMovementRecorded(ctx context.Context, m *repository.StockMovement, newBalance int) {
	if p == nil {
		return
	}

	data := messaging.MovementRecordedEvent{
		MovementID:   m.ID,
		ReagentID:    m.ReagentID,
		MovementType: m.MovementType,
		Quantity:     m.Quantity,
		NewBalance:   newBalance,
		Note:         m.Note,
	}

	if err := p.publisher.Publish(ctx, messaging.EventMovementRecorded, data); err != nil {
		p.logger.Error().Err(err).Str("movement_id", m.ID).Msg("failed to publish movement recorded event")
	}
}

// PublishDeliveryCreated publishes a delivery created event
func (p *SupplyEventPublisher) PublishDeliveryCreated(ctx context.Context, d *repository.HospitalDelivery, itemCount int) {
	if p == nil {
		return
	}

	data := messaging.DeliveryEvent{
		DeliveryID: d.ID,
		HospitalID: d.HospitalID,
		ItemCount:  itemCount,
	}

	if err := p.publisher.Publish(ctx, messaging.EventDeliveryCreated, data); err != nil {
		p.logger.Error().Err(err).Str("delivery_id", d.ID).Msg("failed to publish delivery created event")
	}
}

// PublishDeliveryDeleted publishes a delivery deleted event
func (p *SupplyEventPublisher) PublishDeliveryDeleted(ctx context.Context, deliveryID, hospitalID string, itemCount int) {
	if p == nil {
		return
	}

	data := messaging.DeliveryEvent{
		DeliveryID: deliveryID,
		HospitalID: hospitalID,
		ItemCount:  itemCount,
	}

	if err := p.publisher.Publish(ctx, messaging.EventDeliveryDeleted, data); err != nil {
		p.logger.Error().Err(err).Str("delivery_id", deliveryID).Msg("failed to publish delivery deleted event")
	}
}

// PublishItemEvent publishes a line item lifecycle event
func (p *SupplyEventPublisher) PublishItemEvent(ctx context.Context, eventType string, item *repository.HospitalDeliveryItem, newBalance int) {
	if p == nil {
		return
	}

	data := messaging.DeliveryItemEvent{
		ItemID:     item.ID,
		DeliveryID: item.DeliveryID,
		ReagentID:  item.ReagentID,
		Quantity:   item.QuantityPacks,
		NewBalance: newBalance,
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", item.ID).Msg("failed to publish delivery item event")
	}
}
