package telemetry

import (
	"context"
	"fmt"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/trade"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StockCounter reports how many on-sale goods are at or below a threshold
type StockCounter interface {
	CountLowStock(ctx context.Context, threshold int) (int64, error)
}

// StoreMetrics turns domain events into business counters. It subscribes
// to the event bus like any other handler.
type StoreMetrics struct {
	ordersCreated   *Counter
	orderAmount     *Histogram
	ordersCancelled *Counter
	payments        *Counter
	refunds         *Counter
	registration    metric.Registration
	logger          *zap.Logger
}

var _ shared.EventHandler = (*StoreMetrics)(nil)

// NewStoreMetrics registers the instruments on meter. When stock is non-nil
// a low stock gauge is observed on every collection.
func NewStoreMetrics(meter metric.Meter, stock StockCounter, lowStockThreshold int, logger *zap.Logger) (*StoreMetrics, error) {
	m := &StoreMetrics{logger: logger}
	var err error
	if m.ordersCreated, err = NewCounter(meter, "mall_orders_created_total", "Orders placed at checkout", "{order}"); err != nil {
		return nil, err
	}
	if m.orderAmount, err = NewHistogram(meter, "mall_order_amount", "Order totals", "1",
		[]float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000}); err != nil {
		return nil, err
	}
	if m.ordersCancelled, err = NewCounter(meter, "mall_orders_cancelled_total", "Cancelled orders", "{order}"); err != nil {
		return nil, err
	}
	if m.payments, err = NewCounter(meter, "mall_payments_total", "Payments by method and outcome", "{payment}"); err != nil {
		return nil, err
	}
	if m.refunds, err = NewCounter(meter, "mall_refunds_requested_total", "Refund requests", "{refund}"); err != nil {
		return nil, err
	}

	if stock != nil {
		gauge, err := meter.Int64ObservableGauge("mall_low_stock_goods",
			metric.WithDescription("On-sale goods at or below the low stock threshold"),
			metric.WithUnit("{goods}"),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create low stock gauge: %w", err)
		}
		m.registration, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			n, err := stock.CountLowStock(ctx, lowStockThreshold)
			if err != nil {
				logger.Warn("Failed to count low stock goods", zap.Error(err))
				return nil
			}
			o.ObserveInt64(gauge, n)
			return nil
		}, gauge)
		if err != nil {
			return nil, fmt.Errorf("failed to register low stock callback: %w", err)
		}
	}
	return m, nil
}

// EventTypes implements shared.EventHandler
func (m *StoreMetrics) EventTypes() []string {
	return []string{
		trade.EventTypeOrderCreated,
		trade.EventTypeOrderCancelled,
		trade.EventTypeOrderRefundRequested,
		payment.EventTypePaymentCompleted,
		payment.EventTypePaymentFailed,
		payment.EventTypePaymentCancelled,
	}
}

// Handle implements shared.EventHandler
func (m *StoreMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	site := AttrSiteID.String(event.SiteID().String())
	switch e := event.(type) {
	case *trade.OrderCreatedEvent:
		m.ordersCreated.Inc(ctx, site)
		amount, _ := e.Total.Float64()
		m.orderAmount.Record(ctx, amount, site, AttrCurrency.String(string(e.Currency)))
	case *trade.OrderCancelledEvent:
		m.ordersCancelled.Inc(ctx, site)
	case *trade.OrderRefundRequestedEvent:
		m.refunds.Inc(ctx, site)
	case *payment.PaymentCompletedEvent:
		m.payments.Inc(ctx, paymentAttrs(site, e.PaymentEvent)...)
	case *payment.PaymentFailedEvent:
		m.payments.Inc(ctx, paymentAttrs(site, e.PaymentEvent)...)
	case *payment.PaymentCancelledEvent:
		m.payments.Inc(ctx, paymentAttrs(site, e.PaymentEvent)...)
	}
	return nil
}

func paymentAttrs(site attribute.KeyValue, e payment.PaymentEvent) []attribute.KeyValue {
	return []attribute.KeyValue{
		site,
		AttrPaymentMethod.String(string(e.Method)),
		AttrPaymentStatus.String(string(e.Status)),
	}
}

// Stop unregisters the low stock callback
func (m *StoreMetrics) Stop() error {
	if m.registration == nil {
		return nil
	}
	return m.registration.Unregister()
}

// GormStockCounter counts low stock goods straight from the goods table
type GormStockCounter struct {
	db *gorm.DB
}

// NewGormStockCounter creates a GormStockCounter
func NewGormStockCounter(db *gorm.DB) *GormStockCounter {
	return &GormStockCounter{db: db}
}

// CountLowStock implements StockCounter
func (c *GormStockCounter) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).
		Table("goods").
		Where("status = ? AND stock <= ?", catalog.GoodsStatusOnSale, threshold).
		Count(&n).Error
	return n, err
}
