package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderPaid            = "OrderPaid"
	EventOrderStatusChanged   = "OrderStatusChanged"
	EventOrderDeleted         = "OrderDeleted"
	EventSessionStarted       = "SessionStarted"
	EventSessionSettled       = "SessionSettled"
	EventPaymentStatusChanged = "PaymentStatusChanged"
)

const envelopeVersion = 1

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order, session or payment id
	ActorID       string          `json:"actor_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(producer string, e Event) (*Envelope, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		EventID:       uuid.NewString(),
		EventType:     e.Type,
		EventVersion:  envelopeVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: e.Key,
		ActorID:       e.ActorID,
		Payload:       payload,
	}, nil
}

// Event is what services hand to a Publisher after a successful commit.
type Event struct {
	Type    string
	Key     string
	ActorID string
	Payload any
}

type OrderPaidPayload struct {
	OrderID     string          `json:"order_id"`
	PaymentID   string          `json:"payment_id"`
	PaymentCode string          `json:"payment_code"`
	TableID     string          `json:"table_id,omitempty"`
	SessionID   string          `json:"session_id,omitempty"`
	Total       decimal.Decimal `json:"total"`
	Method      string          `json:"method"`
}

type StatusChangedPayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type SessionStartedPayload struct {
	SessionID  string          `json:"session_id"`
	UnitID     string          `json:"unit_id"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
	StartTime  time.Time       `json:"start_time"`
}

type SessionSettledPayload struct {
	SessionID       string          `json:"session_id"`
	UnitID          string          `json:"unit_id"`
	PaymentID       string          `json:"payment_id"`
	PaymentCode     string          `json:"payment_code"`
	DurationMinutes decimal.Decimal `json:"duration_minutes"`
	Total           decimal.Decimal `json:"total"`
}
