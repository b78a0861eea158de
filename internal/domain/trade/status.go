package trade

import "slices"

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunding  OrderStatus = "refunding"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// transitions lists every allowed move. Leaving refunding towards
// paid/processing/delivered is a rejected refund returning to where it came from.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:       {OrderStatusProcessing, OrderStatusCancelled, OrderStatusRefunding},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunding},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusCompleted, OrderStatusRefunding},
	OrderStatusRefunding:  {OrderStatusRefunded, OrderStatusPaid, OrderStatusProcessing, OrderStatusDelivered},
}

// IsValid checks if the status is a known value
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled,
		OrderStatusRefunding, OrderStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can move to target
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	return slices.Contains(transitions[s], target)
}

// CanCancel reports whether an order in this state may be cancelled.
// Only pending, paid and processing orders can be cancelled.
func (s OrderStatus) CanCancel() bool {
	return s == OrderStatusPending || s == OrderStatusPaid || s == OrderStatusProcessing
}

// IsTerminal reports whether no further transition exists
func (s OrderStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsPaidState reports whether money has been received for the order
func (s OrderStatus) IsPaidState() bool {
	switch s {
	case OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusRefunding:
		return true
	}
	return false
}
