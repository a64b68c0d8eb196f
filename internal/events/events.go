package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventProductCreated   = "ProductCreated"
	EventProductUpdated   = "ProductUpdated"
	EventProductDeleted   = "ProductDeleted"
	EventProductsCleaned  = "ProductsCleaned"
	EventCheckoutComposed = "CheckoutComposed"
)

const (
	TopicProductChanged    = "storefront.product.changed"
	TopicCheckoutComposed  = "storefront.checkout.composed"
	HeaderEventType        = "x-event-type"
	HeaderEventVersion     = "x-event-version"
	currentEnvelopeVersion = 1
)

// Partition key = product id (or checkout id), so events for one entity stay ordered.
func PartitionKey(id string) []byte { return []byte(id) }

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload in a v1 envelope with a fresh event id.
func NewEnvelope(eventType, producer, traceID, correlationID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  currentEnvelopeVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: correlationID,
		Payload:       b,
	}, nil
}

type ProductChangedPayload struct {
	ProductID string `json:"product_id,omitempty"` // empty for ProductsCleaned
	Category  string `json:"category,omitempty"`
}

type CheckoutLine struct {
	ProductID string          `json:"product_id"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
}

// CheckoutComposedPayload carries no address data.
type CheckoutComposedPayload struct {
	CheckoutID string          `json:"checkout_id"`
	SessionID  string          `json:"session_id"`
	Lines      []CheckoutLine  `json:"lines"`
	Total      decimal.Decimal `json:"total"`
}
