package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/trade"
	"go.uber.org/zap"
)

// StockRestoreHandler gives reserved stock back when an order is cancelled
type StockRestoreHandler struct {
	stock  StockKeeper
	logger *zap.Logger
}

// NewStockRestoreHandler creates a new handler for order cancelled events
func NewStockRestoreHandler(stock StockKeeper, logger *zap.Logger) *StockRestoreHandler {
	return &StockRestoreHandler{stock: stock, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *StockRestoreHandler) EventTypes() []string {
	return []string{trade.EventTypeOrderCancelled}
}

// Handle restores every line of the cancelled order and reports the lines that failed
func (h *StockRestoreHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	cancelled, ok := event.(*trade.OrderCancelledEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", trade.EventTypeOrderCancelled),
			zap.String("actual", event.EventType()))
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			trade.EventTypeOrderCancelled, event.EventType())
	}

	var errs []error
	restored := 0
	for _, item := range cancelled.Items {
		if err := h.stock.RestoreStock(ctx, item.GoodsID, item.Quantity); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				// goods deleted since the order was placed
				h.logger.Warn("skipping stock restore for deleted goods",
					zap.String("order_number", cancelled.OrderNumber),
					zap.String("goods_id", item.GoodsID.String()))
				continue
			}
			errs = append(errs, fmt.Errorf("restore %s: %w", item.GoodsID, err))
			continue
		}
		restored++
	}

	h.logger.Info("order stock restored",
		zap.String("order_number", cancelled.OrderNumber),
		zap.String("previous_status", string(cancelled.PreviousStatus)),
		zap.Int("lines", len(cancelled.Items)),
		zap.Int("restored", restored))
	return errors.Join(errs...)
}

var _ shared.EventHandler = (*StockRestoreHandler)(nil)
