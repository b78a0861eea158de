package trade

import (
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress() ShippingAddress {
	return ShippingAddress{
		RecipientName: "Jane Doe",
		Phone:         "+1 555 0100",
		Line1:         "1 Main St",
		City:          "Springfield",
		Country:       "US",
	}
}

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	a, err := NewOrderItem(uuid.New(), "Mug", "MUG-1", "", decimal.RequireFromString("12.50"), 2)
	require.NoError(t, err)
	b, err := NewOrderItem(uuid.New(), "Tea", "TEA-1", "", decimal.RequireFromString("5.00"), 1)
	require.NoError(t, err)

	o, err := NewOrder(uuid.New(), uuid.New(), "ORD-20240101-000001", valueobject.USD,
		[]OrderItem{a, b}, decimal.RequireFromString("4.99"), testAddress(), "jane@example.com", "")
	require.NoError(t, err)
	return o
}

func payOrder(t *testing.T, o *Order) uuid.UUID {
	t.Helper()
	paymentID := uuid.New()
	require.NoError(t, o.MarkPaid(paymentID, "paypal", OperatorWebhook))
	return paymentID
}

func TestNewOrder(t *testing.T) {
	o := newTestOrder(t)

	assert.Equal(t, OrderStatusPending, o.Status)
	assert.Equal(t, "30.00", o.Subtotal.StringFixed(2))
	assert.Equal(t, "34.99", o.Total.StringFixed(2))
	assert.Equal(t, 3, o.ItemCount())
	for _, item := range o.Items {
		assert.Equal(t, o.ID, item.OrderID)
	}

	logs := o.PendingLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, OrderStatus(""), logs[0].FromStatus)
	assert.Equal(t, OrderStatusPending, logs[0].ToStatus)

	events := o.GetDomainEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(*OrderCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, o.SiteID, created.SiteID())
	assert.True(t, created.Total.Equal(o.Total))
}

func TestNewOrder_Validation(t *testing.T) {
	item, err := NewOrderItem(uuid.New(), "Mug", "MUG", "", decimal.NewFromInt(1), 1)
	require.NoError(t, err)

	_, err = NewOrder(uuid.New(), uuid.New(), "N", valueobject.USD, nil, decimal.Zero, testAddress(), "", "")
	assert.Error(t, err, "empty items")

	_, err = NewOrder(uuid.New(), uuid.New(), "", valueobject.USD, []OrderItem{item}, decimal.Zero, testAddress(), "", "")
	assert.Error(t, err, "empty number")

	bad := testAddress()
	bad.Country = "USA"
	_, err = NewOrder(uuid.New(), uuid.New(), "N", valueobject.USD, []OrderItem{item}, decimal.Zero, bad, "", "")
	assert.Error(t, err, "bad country")

	_, err = NewOrderItem(uuid.New(), "x", "", "", decimal.NewFromInt(1), 0)
	assert.Error(t, err)
}

func TestOrder_HappyPath(t *testing.T) {
	o := newTestOrder(t)
	paymentID := payOrder(t, o)
	assert.Equal(t, OrderStatusPaid, o.Status)
	assert.Equal(t, &paymentID, o.PaymentID)
	assert.NotNil(t, o.PaidAt)

	require.NoError(t, o.StartProcessing("admin@example.com"))
	require.Error(t, o.Ship("UPS", "", "admin"))
	require.NoError(t, o.Ship("UPS", "1Z999", "admin"))
	require.NoError(t, o.ConfirmDelivery("jane"))
	require.NoError(t, o.Complete(OperatorSystem))

	assert.Equal(t, OrderStatusCompleted, o.Status)
	assert.True(t, o.Status.IsTerminal())
	assert.NotNil(t, o.CompletedAt)

	logs := o.PendingLogs()
	require.Len(t, logs, 6)
	assert.Equal(t, OrderStatusDelivered, logs[5].FromStatus)
	assert.Equal(t, OrderStatusCompleted, logs[5].ToStatus)
}

func TestOrder_InvalidTransitions(t *testing.T) {
	o := newTestOrder(t)
	assert.Error(t, o.StartProcessing("a"))
	assert.Error(t, o.Ship("UPS", "1", "a"))
	assert.Error(t, o.ConfirmDelivery("a"))
	assert.Error(t, o.Complete("a"))

	payOrder(t, o)
	assert.Error(t, o.MarkPaid(uuid.New(), "usdt", "a"), "already paid")
}

func TestOrder_CancelOnlyFromPendingPaidProcessing(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T, o *Order)
		allowed     bool
		needsRefund bool
	}{
		{"pending", func(t *testing.T, o *Order) {}, true, false},
		{"paid", func(t *testing.T, o *Order) { payOrder(t, o) }, true, true},
		{"processing", func(t *testing.T, o *Order) {
			payOrder(t, o)
			require.NoError(t, o.StartProcessing("a"))
		}, true, true},
		{"shipped", func(t *testing.T, o *Order) {
			payOrder(t, o)
			require.NoError(t, o.StartProcessing("a"))
			require.NoError(t, o.Ship("DHL", "T1", "a"))
		}, false, false},
		{"delivered", func(t *testing.T, o *Order) {
			payOrder(t, o)
			require.NoError(t, o.StartProcessing("a"))
			require.NoError(t, o.Ship("DHL", "T1", "a"))
			require.NoError(t, o.ConfirmDelivery("a"))
		}, false, false},
		{"cancelled", func(t *testing.T, o *Order) {
			_, err := o.Cancel("first", "a")
			require.NoError(t, err)
		}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrder(t)
			tt.setup(t, o)
			o.ClearDomainEvents()

			needsRefund, err := o.Cancel("changed my mind", "jane")
			if !tt.allowed {
				var de *shared.DomainError
				require.ErrorAs(t, err, &de)
				assert.Equal(t, "INVALID_STATE", de.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.needsRefund, needsRefund)
			assert.Equal(t, OrderStatusCancelled, o.Status)
			assert.Equal(t, "changed my mind", o.CancelReason)

			events := o.GetDomainEvents()
			require.Len(t, events, 1)
			cancelled := events[0].(*OrderCancelledEvent)
			assert.Len(t, cancelled.Items, 2)
		})
	}
}

func TestOrder_RefundFlow(t *testing.T) {
	o := newTestOrder(t)
	payOrder(t, o)

	_, err := o.RequestRefund(decimal.NewFromInt(1000), "too much", "jane")
	assert.Error(t, err, "cannot exceed total")

	refund, err := o.RequestRefund(decimal.RequireFromString("10"), "broken", "jane")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusRefunding, o.Status)
	assert.Equal(t, OrderStatusPaid, o.RefundFromStatus)
	assert.Equal(t, RefundStatusRequested, refund.Status)

	require.NoError(t, o.FailRefund(refund, "gateway down", "admin"))
	assert.Equal(t, RefundStatusFailed, refund.Status)
	assert.Equal(t, OrderStatusRefunding, o.Status)

	require.NoError(t, o.CompleteRefund(refund, "re_123", "admin"))
	assert.Equal(t, OrderStatusRefunded, o.Status)
	assert.Equal(t, "re_123", refund.ExternalRefundID)
	assert.Error(t, o.CompleteRefund(refund, "re_456", "admin"), "already completed")
}

func TestOrder_RejectRefundRestoresStatus(t *testing.T) {
	o := newTestOrder(t)
	payOrder(t, o)
	require.NoError(t, o.StartProcessing("a"))

	refund, err := o.RequestRefund(o.Total, "late", "jane")
	require.NoError(t, err)
	require.NoError(t, o.RejectRefund(refund, "already shipped soon", "admin"))
	assert.Equal(t, OrderStatusProcessing, o.Status)
	assert.Equal(t, RefundStatusRejected, refund.Status)
}

func TestOrder_CancellationRefund(t *testing.T) {
	o := newTestOrder(t)
	_, err := o.OpenCancellationRefund("a")
	assert.Error(t, err, "not cancelled")

	payOrder(t, o)
	_, err = o.Cancel("oops", "jane")
	require.NoError(t, err)

	refund, err := o.OpenCancellationRefund(OperatorSystem)
	require.NoError(t, err)
	assert.True(t, refund.Amount.Equal(o.Total))
	assert.Equal(t, o.PaymentID, refund.PaymentID)

	require.NoError(t, o.CompleteRefund(refund, "ref", OperatorSystem))
	assert.Equal(t, OrderStatusCancelled, o.Status, "cancelled orders stay cancelled")
}

func TestOrder_LatePaymentRefund(t *testing.T) {
	t.Run("rejects a non-positive amount", func(t *testing.T) {
		o := newTestOrder(t)
		_, err := o.OpenLatePaymentRefund(uuid.New(), decimal.Zero, "paypal", OperatorWebhook)
		assert.Error(t, err)
	})

	t.Run("cancelled unpaid order refunds the stray payment", func(t *testing.T) {
		o := newTestOrder(t)
		_, err := o.Cancel("payment not received in time", OperatorSystem)
		require.NoError(t, err)
		o.ClearDomainEvents()

		paymentID := uuid.New()
		refund, err := o.OpenLatePaymentRefund(paymentID, o.Total, "usdt", OperatorWebhook)
		require.NoError(t, err)
		assert.Equal(t, OrderStatusCancelled, o.Status)
		assert.Nil(t, o.PaymentID)
		require.NotNil(t, refund.PaymentID)
		assert.Equal(t, paymentID, *refund.PaymentID)
		assert.True(t, refund.Amount.Equal(o.Total))
		assert.Equal(t, RefundStatusRequested, refund.Status)
		require.Len(t, o.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeOrderRefundRequested, o.GetDomainEvents()[0].EventType())

		require.NoError(t, o.CompleteRefund(refund, "re_late", OperatorSystem))
		assert.Equal(t, OrderStatusCancelled, o.Status)
	})

	t.Run("second payment on a paid order", func(t *testing.T) {
		o := newTestOrder(t)
		first := payOrder(t, o)
		_, err := o.OpenLatePaymentRefund(first, o.Total, "paypal", OperatorWebhook)
		assert.ErrorIs(t, err, shared.ErrInvalidState)

		refund, err := o.OpenLatePaymentRefund(uuid.New(), o.Total, "paypal", OperatorWebhook)
		require.NoError(t, err)
		assert.Equal(t, OrderStatusPaid, o.Status)
		assert.NotEqual(t, first, *refund.PaymentID)
	})
}

func TestOrderStatus_Helpers(t *testing.T) {
	assert.True(t, OrderStatusPending.IsValid())
	assert.False(t, OrderStatus("lost").IsValid())
	assert.True(t, OrderStatusRefunded.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusShipped.CanCancel())
	assert.True(t, OrderStatusProcessing.IsPaidState())
	assert.False(t, OrderStatusPending.IsPaidState())
}
