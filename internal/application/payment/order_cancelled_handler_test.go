package payment

import (
	"context"
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func cancelledOrderEvent(t *testing.T, o *trade.Order) *trade.OrderCancelledEvent {
	t.Helper()
	_, err := o.Cancel("payment not received in time", trade.OperatorSystem)
	require.NoError(t, err)
	for _, e := range o.GetDomainEvents() {
		if evt, ok := e.(*trade.OrderCancelledEvent); ok {
			return evt
		}
	}
	t.Fatal("no OrderCancelledEvent raised")
	return nil
}

func TestOrderCancelledHandler_EventTypes(t *testing.T) {
	h := NewOrderCancelledHandler(nil, zap.NewNop())
	assert.Equal(t, []string{trade.EventTypeOrderCancelled}, h.EventTypes())
}

func TestOrderCancelledHandler_CancelsOpenPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.MethodCoinbase)
	h := NewOrderCancelledHandler(f.svc, zap.NewNop())
	o := testOrder(t, uuid.New(), uuid.New(), "12.00")
	p := newPayment(t, o.SiteID, &o.UserID, payment.MethodCoinbase, "12.00", payment.OrderTarget(o.ID))

	f.payments.On("FindOpenByTarget", ctx, payment.OrderTarget(o.ID)).Return(p, nil)
	f.processor.On("Verify", ctx, p).Return(&payment.Outcome{Status: payment.StatusPending}, nil)
	f.payments.On("SaveWithLock", ctx, p).Return(nil)

	require.NoError(t, h.Handle(ctx, cancelledOrderEvent(t, o)))
	assert.Equal(t, payment.StatusCancelled, p.Status)
}

func TestOrderCancelledHandler_SkipsPaidOrders(t *testing.T) {
	f := newFixture(t, payment.MethodCoinbase)
	h := NewOrderCancelledHandler(f.svc, zap.NewNop())
	o := testOrder(t, uuid.New(), uuid.New(), "12.00")
	require.NoError(t, o.MarkPaid(uuid.New(), "coinbase", trade.OperatorWebhook))

	require.NoError(t, h.Handle(context.Background(), cancelledOrderEvent(t, o)))
	f.payments.AssertNotCalled(t, "FindOpenByTarget", mock.Anything, mock.Anything)
}

func TestOrderCancelledHandler_RejectsOtherEvents(t *testing.T) {
	h := NewOrderCancelledHandler(nil, zap.NewNop())
	o := testOrder(t, uuid.New(), uuid.New(), "12.00")
	require.NoError(t, o.MarkPaid(uuid.New(), "coinbase", trade.OperatorWebhook))
	var paid shared.DomainEvent
	for _, e := range o.GetDomainEvents() {
		if e.EventType() == trade.EventTypeOrderPaid {
			paid = e
		}
	}
	require.NotNil(t, paid)
	assert.Error(t, h.Handle(context.Background(), paid))
}
