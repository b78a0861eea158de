package payment

import (
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypePayment is the aggregate type for payment events
const AggregateTypePayment = "Payment"

// Event type constants
const (
	EventTypePaymentCreated   = "PaymentCreated"
	EventTypePaymentCompleted = "PaymentCompleted"
	EventTypePaymentFailed    = "PaymentFailed"
	EventTypePaymentCancelled = "PaymentCancelled"
)

// PaymentEvent carries the payment snapshot shared by all payment events
type PaymentEvent struct {
	shared.BaseDomainEvent
	PaymentID      uuid.UUID            `json:"payment_id"`
	Method         Method               `json:"method"`
	Status         Status               `json:"status"`
	Amount         decimal.Decimal      `json:"amount"`
	Currency       valueobject.Currency `json:"currency"`
	OrderID        *uuid.UUID           `json:"order_id,omitempty"`
	WishlistItemID *uuid.UUID           `json:"wishlist_item_id,omitempty"`
	ExternalID     string               `json:"external_id,omitempty"`
	FailureReason  string               `json:"failure_reason,omitempty"`
}

func newPaymentEvent(eventType string, p *Payment) PaymentEvent {
	return PaymentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypePayment, p.ID, p.SiteID),
		PaymentID:       p.ID,
		Method:          p.Method,
		Status:          p.Status,
		Amount:          p.Amount,
		Currency:        p.Currency,
		OrderID:         p.OrderID,
		WishlistItemID:  p.WishlistItemID,
		ExternalID:      p.ExternalID,
		FailureReason:   p.FailureReason,
	}
}

// PaymentCreatedEvent is published when a payment row is opened
type PaymentCreatedEvent struct{ PaymentEvent }

// NewPaymentCreatedEvent creates a new PaymentCreatedEvent
func NewPaymentCreatedEvent(p *Payment) *PaymentCreatedEvent {
	return &PaymentCreatedEvent{newPaymentEvent(EventTypePaymentCreated, p)}
}

// PaymentCompletedEvent is published when the money arrived
type PaymentCompletedEvent struct{ PaymentEvent }

// NewPaymentCompletedEvent creates a new PaymentCompletedEvent
func NewPaymentCompletedEvent(p *Payment) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{newPaymentEvent(EventTypePaymentCompleted, p)}
}

// PaymentFailedEvent is published when the processor declined
type PaymentFailedEvent struct{ PaymentEvent }

// NewPaymentFailedEvent creates a new PaymentFailedEvent
func NewPaymentFailedEvent(p *Payment) *PaymentFailedEvent {
	return &PaymentFailedEvent{newPaymentEvent(EventTypePaymentFailed, p)}
}

// PaymentCancelledEvent is published when a payment is abandoned or expires
type PaymentCancelledEvent struct{ PaymentEvent }

// NewPaymentCancelledEvent creates a new PaymentCancelledEvent
func NewPaymentCancelledEvent(p *Payment) *PaymentCancelledEvent {
	return &PaymentCancelledEvent{newPaymentEvent(EventTypePaymentCancelled, p)}
}
