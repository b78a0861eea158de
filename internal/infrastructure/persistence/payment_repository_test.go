package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(t *testing.T, siteID uuid.UUID, method payment.Method, target payment.Target) *payment.Payment {
	t.Helper()
	p, err := payment.NewPayment(siteID, nil, method, valueobject.MustMoney(decimal.NewFromInt(25), valueobject.USD), target)
	require.NoError(t, err)
	return p
}

func TestGormPaymentRepository_Details(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()
	siteID := uuid.New()

	tests := []struct {
		name   string
		method payment.Method
		attach func(p *payment.Payment)
		check  func(t *testing.T, p *payment.Payment)
	}{
		{
			name:   "usdt",
			method: payment.MethodUSDT,
			attach: func(p *payment.Payment) {
				p.USDT = &payment.USDTDetail{Network: "TRC20", WalletAddress: "TWallet", AmountReceived: decimal.Zero}
			},
			check: func(t *testing.T, p *payment.Payment) {
				require.NotNil(t, p.USDT)
				assert.Equal(t, "TWallet", p.USDT.WalletAddress)
				assert.Nil(t, p.PayPal)
			},
		},
		{
			name:   "paypal",
			method: payment.MethodPayPal,
			attach: func(p *payment.Payment) {
				p.PayPal = &payment.PayPalDetail{PayPalOrderID: "5O190127TN364715T", ApprovalURL: "https://paypal/approve"}
				p.SetExternalID("5O190127TN364715T")
			},
			check: func(t *testing.T, p *payment.Payment) {
				require.NotNil(t, p.PayPal)
				assert.Equal(t, "https://paypal/approve", p.PayPal.ApprovalURL)
			},
		},
		{
			name:   "credit card",
			method: payment.MethodCreditCard,
			attach: func(p *payment.Payment) {
				p.CreditCard = &payment.CreditCardDetail{PaymentIntentID: "pi_1", ClientSecret: "pi_1_secret"}
				p.SetExternalID("pi_1")
			},
			check: func(t *testing.T, p *payment.Payment) {
				require.NotNil(t, p.CreditCard)
				assert.Equal(t, "pi_1_secret", p.CreditCard.ClientSecret)
			},
		},
		{
			name:   "coinbase",
			method: payment.MethodCoinbase,
			attach: func(p *payment.Payment) {
				p.Coinbase = &payment.CoinbaseDetail{ChargeID: "ch_1", ChargeCode: "ABCD1234", HostedURL: "https://commerce/ABCD1234"}
				p.SetExternalID("ABCD1234")
			},
			check: func(t *testing.T, p *payment.Payment) {
				require.NotNil(t, p.Coinbase)
				assert.Equal(t, "ch_1", p.Coinbase.ChargeID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPayment(t, siteID, tt.method, payment.OrderTarget(uuid.New()))
			tt.attach(p)
			require.NoError(t, repo.Save(ctx, p))

			found, err := repo.FindByIDForSite(ctx, siteID, p.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.method, found.Method)
			assert.True(t, found.Amount.Equal(decimal.NewFromInt(25)))
			tt.check(t, found)

			if p.ExternalID != "" {
				byExt, err := repo.FindByExternalID(ctx, tt.method, p.ExternalID)
				require.NoError(t, err)
				assert.Equal(t, p.ID, byExt.ID)
			}
		})
	}

	_, err := repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, payment.ErrPaymentNotFound)
	_, err = repo.FindByExternalID(ctx, payment.MethodPayPal, "")
	assert.ErrorIs(t, err, payment.ErrPaymentNotFound)
}

func TestGormPaymentRepository_OpenAndExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()
	siteID := uuid.New()
	itemID := uuid.New()

	open := newTestPayment(t, siteID, payment.MethodCoinbase, payment.WishlistItemTarget(itemID))
	open.SetExpiry(time.Now().Add(-time.Minute))
	require.NoError(t, repo.Save(ctx, open))

	done := newTestPayment(t, siteID, payment.MethodCoinbase, payment.WishlistItemTarget(itemID))
	require.NoError(t, done.Complete())
	require.NoError(t, repo.Save(ctx, done))

	found, err := repo.FindOpenByTarget(ctx, payment.WishlistItemTarget(itemID))
	require.NoError(t, err)
	assert.Equal(t, open.ID, found.ID)

	_, err = repo.FindOpenByTarget(ctx, payment.OrderTarget(itemID))
	assert.ErrorIs(t, err, payment.ErrPaymentNotFound)

	expired, err := repo.FindExpired(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, open.ID, expired[0].ID)

	polled, err := repo.FindOpenBefore(ctx, payment.MethodCoinbase, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Len(t, polled, 1)

	filter := shared.DefaultFilter()
	filter.Filters["status"] = string(payment.StatusCompleted)
	count, err := repo.CountForSite(ctx, siteID, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	all, err := repo.FindAllForSite(ctx, siteID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGormPaymentRepository_SaveWithLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	p := newTestPayment(t, uuid.New(), payment.MethodCreditCard, payment.OrderTarget(uuid.New()))
	p.CreditCard = &payment.CreditCardDetail{PaymentIntentID: "pi_lock"}
	require.NoError(t, repo.Save(ctx, p))

	webhook, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	client, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, webhook.Complete())
	webhook.CreditCard.CardBrand = "visa"
	require.NoError(t, repo.SaveWithLock(ctx, webhook))

	require.NoError(t, client.Fail("declined"))
	assert.ErrorIs(t, repo.SaveWithLock(ctx, client), shared.ErrConcurrencyConflict)

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, stored.Status)
	assert.Equal(t, "visa", stored.CreditCard.CardBrand)
}

func TestGormWebhookLogRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormWebhookLogRepository(db)
	ctx := context.Background()

	log := payment.NewWebhookLog(payment.MethodCreditCard, []byte(`{"id":"evt_1"}`), map[string][]string{
		"Stripe-Signature": {"t=1,v1=abc"},
		"Authorization":    {"secret"},
	})
	require.NoError(t, repo.Save(ctx, log))

	paymentID := uuid.New()
	log.MarkProcessed(paymentID)
	require.NoError(t, repo.Save(ctx, log))

	found, err := repo.FindByID(ctx, log.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookStatusProcessed, found.Status)
	assert.Equal(t, "t=1,v1=abc", found.Headers["Stripe-Signature"])
	assert.NotContains(t, found.Headers, "Authorization")
	require.NotNil(t, found.PaymentID)
	assert.Equal(t, paymentID, *found.PaymentID)

	filter := shared.DefaultFilter()
	filter.Filters["provider"] = string(payment.MethodPayPal)
	count, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Zero(t, count)

	logs, err := repo.FindAll(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
