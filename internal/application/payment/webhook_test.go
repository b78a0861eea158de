package payment

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shopping"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// captureLog records the webhook log the service saves
func captureLog(f *fixture) *payment.WebhookLog {
	saved := &payment.WebhookLog{}
	f.webhooks.On("Save", mock.Anything, mock.AnythingOfType("*payment.WebhookLog")).
		Run(func(args mock.Arguments) { *saved = *args.Get(1).(*payment.WebhookLog) }).
		Return(nil)
	return saved
}

func completedEvent(externalID, amount string) *payment.WebhookEvent {
	amt := decimal.RequireFromString(amount)
	return &payment.WebhookEvent{
		Method:     payment.MethodPayPal,
		EventID:    "WH-" + externalID,
		EventType:  "PAYMENT.CAPTURE.COMPLETED",
		ExternalID: externalID,
		Outcome:    &payment.Outcome{Status: payment.StatusCompleted},
		Amount:     &amt,
		Currency:   "USD",
		PayerEmail: "payer@example.com",
		CaptureID:  "CAP-1",
	}
}

func TestHandleWebhook_CompletesPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.MethodPayPal)
	saved := captureLog(f)
	orderID := uuid.New()
	p := newPayment(t, uuid.New(), nil, payment.MethodPayPal, "40.00", payment.OrderTarget(orderID))
	p.PayPal = &payment.PayPalDetail{PayPalOrderID: "PP-1"}
	p.SetExternalID("PP-1")
	body := []byte(`{"id":"WH-PP-1"}`)
	header := http.Header{"Paypal-Transmission-Id": []string{"t-1"}}

	f.processor.On("ParseWebhook", ctx, body, header).Return(completedEvent("PP-1", "40.00"), nil)
	f.idem.On("MarkProcessed", ctx, "webhook:paypal:WH-PP-1", DefaultConfig().WebhookDedupeTTL).Return(true, nil)
	f.payments.On("FindByExternalID", ctx, payment.MethodPayPal, "PP-1").Return(p, nil)
	f.payments.On("SaveWithLock", ctx, p).Return(nil)
	f.orders.On("MarkPaid", ctx, orderID, p.ID, "paypal").Return(nil)

	require.NoError(t, f.svc.HandleWebhook(ctx, payment.MethodPayPal, body, header))

	assert.Equal(t, payment.StatusCompleted, p.Status)
	assert.Equal(t, "payer@example.com", p.PayPal.PayerEmail)
	assert.Equal(t, "CAP-1", p.PayPal.CaptureID)
	assert.Equal(t, payment.WebhookStatusProcessed, saved.Status)
	assert.Equal(t, "WH-PP-1", saved.EventID)
	assert.Equal(t, "t-1", saved.Headers["Paypal-Transmission-Id"])
	require.NotNil(t, saved.PaymentID)
	assert.Equal(t, p.ID, *saved.PaymentID)
	f.orders.AssertExpectations(t)
}

func TestHandleWebhook_RejectsBadSignature(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.MethodPayPal)
	saved := captureLog(f)
	sigErr := errors.New("signature verification failed")
	f.processor.On("ParseWebhook", ctx, mock.Anything, mock.Anything).Return(nil, sigErr)

	err := f.svc.HandleWebhook(ctx, payment.MethodPayPal, []byte(`{}`), http.Header{})
	assert.ErrorIs(t, err, sigErr)
	assert.Equal(t, payment.WebhookStatusRejected, saved.Status)
	assert.Equal(t, "signature verification failed", saved.Error)
	f.idem.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_UnknownProvider(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.MethodPayPal)
	saved := captureLog(f)

	err := f.svc.HandleWebhook(ctx, payment.MethodCoinbase, []byte(`{}`), http.Header{})
	assert.Error(t, err)
	assert.Equal(t, payment.WebhookStatusRejected, saved.Status)
	assert.Equal(t, payment.MethodCoinbase, saved.Provider)
}

func TestHandleWebhook_Duplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.MethodPayPal)
	saved := captureLog(f)
	f.processor.On("ParseWebhook", ctx, mock.Anything, mock.Anything).Return(completedEvent("PP-1", "40.00"), nil)
	f.idem.On("MarkProcessed", ctx, "webhook:paypal:WH-PP-1", mock.Anything).Return(false, nil)

	require.NoError(t, f.svc.HandleWebhook(ctx, payment.MethodPayPal, []byte(`{}`), http.Header{}))
	assert.Equal(t, payment.WebhookStatusDuplicate, saved.Status)
	f.payments.AssertNotCalled(t, "FindByExternalID", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_Ignored(t *testing.T) {
	ctx := context.Background()

	t.Run("informational event", func(t *testing.T) {
		f := newFixture(t, payment.MethodPayPal)
		saved := captureLog(f)
		evt := &payment.WebhookEvent{Method: payment.MethodPayPal, EventID: "WH-2", EventType: "CHECKOUT.ORDER.APPROVED", ExternalID: "PP-1"}
		f.processor.On("ParseWebhook", ctx, mock.Anything, mock.Anything).Return(evt, nil)
		f.idem.On("MarkProcessed", ctx, mock.Anything, mock.Anything).Return(true, nil)

		require.NoError(t, f.svc.HandleWebhook(ctx, payment.MethodPayPal, []byte(`{}`), http.Header{}))
		assert.Equal(t, payment.WebhookStatusIgnored, saved.Status)
		assert.Contains(t, saved.Error, "CHECKOUT.ORDER.APPROVED")
	})

	t.Run("unknown payment", func(t *testing.T) {
		f := newFixture(t, payment.MethodPayPal)
		saved := captureLog(f)
		f.processor.On("ParseWebhook", ctx, mock.Anything, mock.Anything).Return(completedEvent("PP-404", "1.00"), nil)
		f.idem.On("MarkProcessed", ctx, mock.Anything, mock.Anything).Return(true, nil)
		f.payments.On("FindByExternalID", ctx, payment.MethodPayPal, "PP-404").Return(nil, shared.ErrNotFound)

		require.NoError(t, f.svc.HandleWebhook(ctx, payment.MethodPayPal, []byte(`{}`), http.Header{}))
		assert.Equal(t, payment.WebhookStatusIgnored, saved.Status)
		assert.Nil(t, saved.PaymentID)
	})

	t.Run("payment already final", func(t *testing.T) {
		f := newFixture(t, payment.MethodPayPal)
		saved := captureLog(f)
		p := newPayment(t, uuid.New(), nil, payment.MethodPayPal, "40.00", payment.OrderTarget(uuid.New()))
		require.NoError(t, p.Complete())
		evt := completedEvent("PP-1", "40.00")
		evt.Outcome = &payment.Outcome{Status: payment.StatusFailed, FailureReason: "declined"}
		f.processor.On("ParseWebhook", ctx, mock.Anything, mock.Anything).Return(evt, nil)
		f.idem.On("MarkProcessed", ctx, mock.Anything, mock.Anything).Return(true, nil)
		f.payments.On("FindByExternalID", ctx, payment.MethodPayPal, "PP-1").Return(p, nil)

		require.NoError(t, f.svc.HandleWebhook(ctx, payment.MethodPayPal, []byte(`{}`), http.Header{}))
		assert.Equal(t, payment.WebhookStatusIgnored, saved.Status)
		assert.Equal(t, "payment already completed", saved.Error)
		f.payments.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestHandleWebhook_CaptureAfterCancellation(t *testing.T) {
	ctx := context.Background()
	expired := func(t *testing.T, orderID uuid.UUID) *payment.Payment {
		p := newPayment(t, uuid.New(), nil, payment.MethodPayPal, "40.00", payment.OrderTarget(orderID))
		p.PayPal = &payment.PayPalDetail{PayPalOrderID: "PP-1"}
		require.NoError(t, p.Cancel("payment expired"))
		p.ClearDomainEvents()
		return p
	}

	t.Run("pending order takes the payment", func(t *testing.T) {
		f := newFixture(t, payment.MethodPayPal)
		logs := f.observe()
		saved := captureLog(f)
		orderID := uuid.New()
		p := expired(t, orderID)
		f.processor.On("ParseWebhook", ctx, mock.Anything, mock.Anything).Return(completedEvent("PP-1", "40.00"), nil)
		f.idem.On("MarkProcessed", ctx, mock.Anything, mock.Anything).Return(true, nil)
		f.payments.On("FindByExternalID", ctx, payment.MethodPayPal, "PP-1").Return(p, nil)
		f.payments.On("SaveWithLock", ctx, p).Return(nil)
		f.orders.On("MarkPaid", ctx, orderID, p.ID, "paypal").Return(nil).Once()

		require.NoError(t, f.svc.HandleWebhook(ctx, payment.MethodPayPal, []byte(`{}`), http.Header{}))
		assert.Equal(t, payment.StatusCompleted, p.Status)
		assert.Equal(t, payment.WebhookStatusProcessed, saved.Status)
		assert.Equal(t, 1, logs.FilterMessage("Processor captured a payment already given up").Len())
		f.orders.AssertExpectations(t)
	})

	t.Run("cancelled order opens a refund", func(t *testing.T) {
		f := newFixture(t, payment.MethodPayPal)
		saved := captureLog(f)
		orderID := uuid.New()
		p := expired(t, orderID)
		f.processor.On("ParseWebhook", ctx, mock.Anything, mock.Anything).Return(completedEvent("PP-1", "40.00"), nil)
		f.idem.On("MarkProcessed", ctx, mock.Anything, mock.Anything).Return(true, nil)
		f.payments.On("FindByExternalID", ctx, payment.MethodPayPal, "PP-1").Return(p, nil)
		f.payments.On("SaveWithLock", ctx, p).Return(nil)
		f.orders.On("MarkPaid", ctx, orderID, p.ID, "paypal").
			Return(shared.NewDomainError("INVALID_STATE", "Cannot move order from cancelled to paid"))
		f.orders.On("RefundLatePayment", ctx, orderID, p.ID, mock.MatchedBy(func(d decimal.Decimal) bool {
			return d.Equal(decimal.NewFromInt(40))
		}), "paypal").Return(nil).Once()

		require.NoError(t, f.svc.HandleWebhook(ctx, payment.MethodPayPal, []byte(`{}`), http.Header{}))
		assert.Equal(t, payment.StatusCompleted, p.Status)
		assert.Equal(t, payment.WebhookStatusProcessed, saved.Status)
		f.orders.AssertExpectations(t)
		f.idem.AssertNotCalled(t, "Forget", mock.Anything, mock.Anything)
	})
}

func TestHandleWebhook_AmountMismatchFailsPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.MethodPayPal)
	saved := captureLog(f)
	p := newPayment(t, uuid.New(), nil, payment.MethodPayPal, "40.00", payment.OrderTarget(uuid.New()))
	f.processor.On("ParseWebhook", ctx, mock.Anything, mock.Anything).Return(completedEvent("PP-1", "4.00"), nil)
	f.idem.On("MarkProcessed", ctx, mock.Anything, mock.Anything).Return(true, nil)
	f.payments.On("FindByExternalID", ctx, payment.MethodPayPal, "PP-1").Return(p, nil)
	f.payments.On("SaveWithLock", ctx, p).Return(nil)

	require.NoError(t, f.svc.HandleWebhook(ctx, payment.MethodPayPal, []byte(`{}`), http.Header{}))
	assert.Equal(t, payment.StatusFailed, p.Status)
	assert.Contains(t, p.FailureReason, "received 4, expected 40")
	assert.Equal(t, payment.WebhookStatusProcessed, saved.Status)
	f.orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_FailureReleasesDedupeKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.MethodPayPal)
	saved := captureLog(f)
	p := newPayment(t, uuid.New(), nil, payment.MethodPayPal, "40.00", payment.OrderTarget(uuid.New()))
	f.processor.On("ParseWebhook", ctx, mock.Anything, mock.Anything).Return(completedEvent("PP-1", "40.00"), nil)
	f.idem.On("MarkProcessed", ctx, "webhook:paypal:WH-PP-1", mock.Anything).Return(true, nil)
	f.idem.On("Forget", ctx, "webhook:paypal:WH-PP-1").Return(nil)
	f.payments.On("FindByExternalID", ctx, payment.MethodPayPal, "PP-1").Return(p, nil)
	f.payments.On("SaveWithLock", ctx, p).Return(shared.ErrConcurrencyConflict)

	require.NoError(t, f.svc.HandleWebhook(ctx, payment.MethodPayPal, []byte(`{}`), http.Header{}))
	assert.Equal(t, payment.WebhookStatusFailed, saved.Status)
	f.idem.AssertExpectations(t)
}

func TestHandleWebhook_DedupeStoreDown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.MethodPayPal)
	saved := captureLog(f)
	f.processor.On("ParseWebhook", ctx, mock.Anything, mock.Anything).Return(completedEvent("PP-404", "1.00"), nil)
	f.idem.On("MarkProcessed", ctx, mock.Anything, mock.Anything).Return(false, errors.New("redis: connection refused"))
	f.payments.On("FindByExternalID", ctx, payment.MethodPayPal, "PP-404").Return(nil, shared.ErrNotFound)

	require.NoError(t, f.svc.HandleWebhook(ctx, payment.MethodPayPal, []byte(`{}`), http.Header{}))
	assert.Equal(t, payment.WebhookStatusIgnored, saved.Status)
}

func TestHandleWebhook_WishlistItemPaid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.MethodPayPal)
	captureLog(f)
	st := testSite(t)
	w, item := publicWishlist(t, st.ID, "20.00", 2)
	p := newPayment(t, st.ID, nil, payment.MethodPayPal, "40.00", payment.WishlistItemTarget(item.ID))
	require.NoError(t, item.BeginPayment(p.ID, nil, "Grandma"))

	f.processor.On("ParseWebhook", ctx, mock.Anything, mock.Anything).Return(completedEvent("PP-9", "40.00"), nil)
	f.idem.On("MarkProcessed", ctx, mock.Anything, mock.Anything).Return(true, nil)
	f.payments.On("FindByExternalID", ctx, payment.MethodPayPal, "PP-9").Return(p, nil)
	f.payments.On("SaveWithLock", ctx, p).Return(nil)
	f.wishlists.On("FindByItemID", ctx, item.ID).Return(w, nil)
	f.wishlists.On("SaveItem", ctx, item).Return(nil)

	require.NoError(t, f.svc.HandleWebhook(ctx, payment.MethodPayPal, []byte(`{}`), http.Header{}))
	assert.Equal(t, shopping.ItemPaymentPaid, item.PaymentStatus)
	assert.NotNil(t, item.PurchasedAt)
	assert.Equal(t, "Grandma", item.PurchaserName)
}

func TestListWebhookLogs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.MethodPayPal)
	entry := payment.NewWebhookLog(payment.MethodPayPal, []byte(`{"secret":"x"}`), nil)
	f.webhooks.On("FindAll", ctx, mock.MatchedBy(func(fl shared.Filter) bool {
		return fl.Filters["provider"] == payment.MethodPayPal && fl.Filters["status"] == payment.WebhookStatusFailed
	})).Return([]payment.WebhookLog{*entry}, nil)
	f.webhooks.On("Count", ctx, mock.Anything).Return(int64(1), nil)

	logs, total, err := f.svc.ListWebhookLogs(ctx, WebhookLogFilter{Provider: "paypal", Status: "failed"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Empty(t, logs[0].Payload)
}
