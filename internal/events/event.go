package events

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/marketplace-core/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const envelopeVersion = 1

// Event is a domain event ready to publish.
type Event struct {
	ID         string
	Type       enums.EventType
	OccurredAt time.Time
	Key        string
	Data       any
}

// Envelope is the JSON body written to the wire.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  enums.EventType `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// OrderPlaced is the payload of an order.placed event.
type OrderPlaced struct {
	OrderID     string            `json:"orderId"`
	Owner       string            `json:"owner"`
	Total       decimal.Decimal   `json:"total"`
	Currency    enums.Currency    `json:"currency"`
	ItemCount   int               `json:"itemCount"`
	ProviderRef string            `json:"providerRef"`
	Vendors     []VendorLineTotal `json:"vendors"`
}

type VendorLineTotal struct {
	VendorID string          `json:"vendorId"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Count    int             `json:"count"`
}

// NewOrderPlaced builds the event keyed by owner, so one owner's orders are
// delivered in placement order.
func NewOrderPlaced(payload OrderPlaced, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       enums.EventOrderPlaced,
		OccurredAt: at.UTC(),
		Key:        payload.Owner,
		Data:       payload,
	}
}

// Marshal encodes the event into its envelope.
func (e Event) Marshal() ([]byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Version:    envelopeVersion,
		EventID:    e.ID,
		EventType:  e.Type,
		OccurredAt: e.OccurredAt,
		Data:       data,
	})
}
