package trade

import (
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeOrder is the aggregate type for order events
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated         = "OrderCreated"
	EventTypeOrderPaid            = "OrderPaid"
	EventTypeOrderShipped         = "OrderShipped"
	EventTypeOrderCancelled       = "OrderCancelled"
	EventTypeOrderRefundRequested = "OrderRefundRequested"
	EventTypeOrderRefunded        = "OrderRefunded"
)

// ItemQuantity is a goods/quantity pair carried by events for stock handling
type ItemQuantity struct {
	GoodsID  uuid.UUID `json:"goods_id"`
	Quantity int       `json:"quantity"`
}

func itemQuantities(o *Order) []ItemQuantity {
	out := make([]ItemQuantity, len(o.Items))
	for i, item := range o.Items {
		out[i] = ItemQuantity{GoodsID: item.GoodsID, Quantity: item.Quantity}
	}
	return out
}

// OrderCreatedEvent is published at checkout
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID            `json:"order_id"`
	OrderNumber string               `json:"order_number"`
	UserID      uuid.UUID            `json:"user_id"`
	Total       decimal.Decimal      `json:"total"`
	Currency    valueobject.Currency `json:"currency"`
	ItemCount   int                  `json:"item_count"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID, o.SiteID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Total:           o.Total,
		Currency:        o.Currency,
		ItemCount:       o.ItemCount(),
	}
}

// OrderPaidEvent is published when payment completes
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID            `json:"order_id"`
	OrderNumber   string               `json:"order_number"`
	PaymentID     uuid.UUID            `json:"payment_id"`
	PaymentMethod string               `json:"payment_method"`
	Total         decimal.Decimal      `json:"total"`
	Currency      valueobject.Currency `json:"currency"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	e := &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, o.ID, o.SiteID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		PaymentMethod:   o.PaymentMethod,
		Total:           o.Total,
		Currency:        o.Currency,
	}
	if o.PaymentID != nil {
		e.PaymentID = *o.PaymentID
	}
	return e
}

// OrderShippedEvent is published when the parcel leaves
type OrderShippedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	Carrier        string    `json:"carrier"`
	TrackingNumber string    `json:"tracking_number"`
}

// NewOrderShippedEvent creates a new OrderShippedEvent
func NewOrderShippedEvent(o *Order) *OrderShippedEvent {
	return &OrderShippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderShipped, AggregateTypeOrder, o.ID, o.SiteID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		Carrier:         o.Carrier,
		TrackingNumber:  o.TrackingNumber,
	}
}

// OrderCancelledEvent is published on cancellation. Items let stock be restored.
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID      `json:"order_id"`
	OrderNumber    string         `json:"order_number"`
	PreviousStatus OrderStatus    `json:"previous_status"`
	Reason         string         `json:"reason"`
	Items          []ItemQuantity `json:"items"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order, previous OrderStatus) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID, o.SiteID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		PreviousStatus:  previous,
		Reason:          o.CancelReason,
		Items:           itemQuantities(o),
	}
}

// OrderRefundRequestedEvent is published when a refund is opened
type OrderRefundRequestedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID            `json:"order_id"`
	OrderNumber string               `json:"order_number"`
	RefundID    uuid.UUID            `json:"refund_id"`
	Amount      decimal.Decimal      `json:"amount"`
	Currency    valueobject.Currency `json:"currency"`
	Reason      string               `json:"reason"`
}

// NewOrderRefundRequestedEvent creates a new OrderRefundRequestedEvent
func NewOrderRefundRequestedEvent(o *Order, r *RefundDetail) *OrderRefundRequestedEvent {
	return &OrderRefundRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderRefundRequested, AggregateTypeOrder, o.ID, o.SiteID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		RefundID:        r.ID,
		Amount:          r.Amount,
		Currency:        r.Currency,
		Reason:          r.Reason,
	}
}

// OrderRefundedEvent is published when money went back to the customer
type OrderRefundedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID            `json:"order_id"`
	OrderNumber string               `json:"order_number"`
	RefundID    uuid.UUID            `json:"refund_id"`
	Amount      decimal.Decimal      `json:"amount"`
	Currency    valueobject.Currency `json:"currency"`
}

// NewOrderRefundedEvent creates a new OrderRefundedEvent
func NewOrderRefundedEvent(o *Order, r *RefundDetail) *OrderRefundedEvent {
	return &OrderRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderRefunded, AggregateTypeOrder, o.ID, o.SiteID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		RefundID:        r.ID,
		Amount:          r.Amount,
		Currency:        r.Currency,
	}
}
