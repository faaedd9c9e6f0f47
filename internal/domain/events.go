package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventPurchaseCompleted EventType = "shop.purchase.completed"
	EventTopupCredited     EventType = "shop.topup.credited"
	EventTopupFailed       EventType = "shop.topup.failed"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregatePurchase AggregateType = "purchase"
	AggregateTopup    AggregateType = "topup"
)

// OutboxDraft is the payload written to the event_outbox table. Events are
// inserted in the same transaction as the money movement they describe and
// published to Kafka by the outbox poller.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewPurchaseCompletedEvent builds the outbox draft for a settled purchase.
func NewPurchaseCompletedEvent(p *Purchase) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"purchase_id": p.ID,
		"user_id":     p.UserID,
		"slot_id":     p.SlotID,
		"quantity":    p.Quantity,
		"total_price": p.TotalPrice,
		"order_no":    p.OrderNo,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregatePurchase,
		AggregateID:   p.ID.String(),
		EventType:     EventPurchaseCompleted,
		Payload:       payload,
		OccurredAt:    time.Now().UTC(),
	}
}

// NewTopupEvent builds the outbox draft for a topup reaching a terminal
// state. Credited topups use EventTopupCredited, failed ones EventTopupFailed.
func NewTopupEvent(t *Topup) OutboxDraft {
	eventType := EventTopupFailed
	if t.Status == TopupSuccess {
		eventType = EventTopupCredited
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"topup_id":   t.ID,
		"user_id":    t.UserID,
		"order_id":   t.OrderID,
		"amount":     t.Amount,
		"status":     t.Status,
		"pay_method": t.PayMethod,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateTopup,
		AggregateID:   t.OrderID,
		EventType:     eventType,
		Payload:       payload,
		OccurredAt:    time.Now().UTC(),
	}
}
