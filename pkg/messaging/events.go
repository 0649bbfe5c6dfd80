package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Ledger events
	EventMovementRecorded = "supply.movement.recorded"

	// Delivery events
	EventDeliveryCreated     = "supply.delivery.created"
	EventDeliveryDeleted     = "supply.delivery.deleted"
	EventDeliveryItemCreated = "supply.delivery.item.created"
	EventDeliveryItemUpdated = "supply.delivery.item.updated"
	EventDeliveryItemDeleted = "supply.delivery.item.deleted"
)

// Exchange names
const (
	ExchangeSupplyEvents = "supply.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// GenerateEventID generates a unique event identifier
func GenerateEventID() string {
	return uuid.New().String()
}

// MovementRecordedEvent is published after a stock movement commits
type MovementRecordedEvent struct {
	MovementID   string `json:"movement_id"`
	ReagentID    string `json:"reagent_id"`
	MovementType string `json:"movement_type"`
	Quantity     int    `json:"quantity"`
	NewBalance   int    `json:"new_balance"`
	Note         string `json:"note,omitempty"`
}

// DeliveryItemEvent is published after a delivery line item mutation commits
type DeliveryItemEvent struct {
	ItemID     string `json:"item_id"`
	DeliveryID string `json:"delivery_id"`
	HospitalID string `json:"hospital_id,omitempty"`
	ReagentID  string `json:"reagent_id"`
	Quantity   int    `json:"quantity_packs"`
	NewBalance int    `json:"new_balance"`
}

// DeliveryEvent is published after a delivery header mutation commits
type DeliveryEvent struct {
	DeliveryID string `json:"delivery_id"`
	HospitalID string `json:"hospital_id"`
	ItemCount  int    `json:"item_count"`
}
