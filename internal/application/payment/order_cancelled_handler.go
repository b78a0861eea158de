package payment

import (
	"context"
	"fmt"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OpenPaymentCanceller closes whatever payment is still open for an order
type OpenPaymentCanceller interface {
	CancelOpenForOrder(ctx context.Context, orderID uuid.UUID) error
}

// OrderCancelledHandler stops the payment of an order once the order is cancelled
type OrderCancelledHandler struct {
	payments OpenPaymentCanceller
	logger   *zap.Logger
}

// NewOrderCancelledHandler creates a new handler for order cancelled events
func NewOrderCancelledHandler(payments OpenPaymentCanceller, logger *zap.Logger) *OrderCancelledHandler {
	return &OrderCancelledHandler{payments: payments, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderCancelledHandler) EventTypes() []string {
	return []string{trade.EventTypeOrderCancelled}
}

// Handle cancels the open payment of an order that was still pending.
// Paid orders have no open payment; their money goes back through a refund.
func (h *OrderCancelledHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	cancelled, ok := event.(*trade.OrderCancelledEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", trade.EventTypeOrderCancelled),
			zap.String("actual", event.EventType()))
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			trade.EventTypeOrderCancelled, event.EventType())
	}
	if cancelled.PreviousStatus != trade.OrderStatusPending {
		return nil
	}
	if err := h.payments.CancelOpenForOrder(ctx, cancelled.OrderID); err != nil {
		return fmt.Errorf("cancel payment of order %s: %w", cancelled.OrderNumber, err)
	}
	h.logger.Info("order payment closed", zap.String("order_number", cancelled.OrderNumber))
	return nil
}

var (
	_ shared.EventHandler  = (*OrderCancelledHandler)(nil)
	_ OpenPaymentCanceller = (*PaymentService)(nil)
)
