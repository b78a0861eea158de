package payment

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/Marusmurong/mall-sub000/internal/domain/shopping"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/Marusmurong/mall-sub000/internal/domain/trade"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProcessor struct {
	mock.Mock
	method payment.Method
}

func (m *MockProcessor) Method() payment.Method { return m.method }

func (m *MockProcessor) Create(ctx context.Context, p *payment.Payment, opts payment.CreateOptions) (*payment.Action, error) {
	args := m.Called(ctx, p, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Action), args.Error(1)
}

func (m *MockProcessor) Process(ctx context.Context, p *payment.Payment, input payment.ProcessInput) (*payment.Outcome, error) {
	args := m.Called(ctx, p, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Outcome), args.Error(1)
}

func (m *MockProcessor) Verify(ctx context.Context, p *payment.Payment) (*payment.Outcome, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Outcome), args.Error(1)
}

func (m *MockProcessor) Refund(ctx context.Context, p *payment.Payment, amount decimal.Decimal, reason string) (*payment.RefundResult, error) {
	args := m.Called(ctx, p, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RefundResult), args.Error(1)
}

func (m *MockProcessor) ParseWebhook(ctx context.Context, body []byte, header http.Header) (*payment.WebhookEvent, error) {
	args := m.Called(ctx, body, header)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) one(args mock.Arguments) (*payment.Payment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) many(args mock.Arguments) ([]payment.Payment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return m.one(m.Called(ctx, id))
}

func (m *MockPaymentRepository) FindByIDForSite(ctx context.Context, siteID, id uuid.UUID) (*payment.Payment, error) {
	return m.one(m.Called(ctx, siteID, id))
}

func (m *MockPaymentRepository) FindByExternalID(ctx context.Context, method payment.Method, externalID string) (*payment.Payment, error) {
	return m.one(m.Called(ctx, method, externalID))
}

func (m *MockPaymentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]payment.Payment, error) {
	return m.many(m.Called(ctx, orderID))
}

func (m *MockPaymentRepository) FindOpenByTarget(ctx context.Context, target payment.Target) (*payment.Payment, error) {
	return m.one(m.Called(ctx, target))
}

func (m *MockPaymentRepository) FindAllForSite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) ([]payment.Payment, error) {
	return m.many(m.Called(ctx, siteID, filter))
}

func (m *MockPaymentRepository) CountForSite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, siteID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]payment.Payment, error) {
	return m.many(m.Called(ctx, now, limit))
}

func (m *MockPaymentRepository) FindOpenBefore(ctx context.Context, method payment.Method, cutoff time.Time, limit int) ([]payment.Payment, error) {
	return m.many(m.Called(ctx, method, cutoff, limit))
}

func (m *MockPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPaymentRepository) SaveWithLock(ctx context.Context, p *payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}

type MockWebhookLogRepository struct {
	mock.Mock
}

func (m *MockWebhookLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.WebhookLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookLog), args.Error(1)
}

func (m *MockWebhookLogRepository) FindAll(ctx context.Context, filter shared.Filter) ([]payment.WebhookLog, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.WebhookLog), args.Error(1)
}

func (m *MockWebhookLogRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWebhookLogRepository) Save(ctx context.Context, log *payment.WebhookLog) error {
	return m.Called(ctx, log).Error(0)
}

type MockOrderPort struct {
	mock.Mock
}

func (m *MockOrderPort) PayableOrder(ctx context.Context, siteID, userID, orderID uuid.UUID) (*trade.Order, error) {
	args := m.Called(ctx, siteID, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

func (m *MockOrderPort) MarkPaid(ctx context.Context, orderID, paymentID uuid.UUID, method string) error {
	return m.Called(ctx, orderID, paymentID, method).Error(0)
}

func (m *MockOrderPort) RefundLatePayment(ctx context.Context, orderID, paymentID uuid.UUID, amount decimal.Decimal, method string) error {
	return m.Called(ctx, orderID, paymentID, amount, method).Error(0)
}

type MockWishlistRepository struct {
	mock.Mock
}

func (m *MockWishlistRepository) wishlist(args mock.Arguments) (*shopping.Wishlist, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopping.Wishlist), args.Error(1)
}

func (m *MockWishlistRepository) FindByID(ctx context.Context, siteID, id uuid.UUID) (*shopping.Wishlist, error) {
	return m.wishlist(m.Called(ctx, siteID, id))
}

func (m *MockWishlistRepository) FindByUser(ctx context.Context, siteID, userID uuid.UUID) ([]shopping.Wishlist, error) {
	args := m.Called(ctx, siteID, userID)
	return args.Get(0).([]shopping.Wishlist), args.Error(1)
}

func (m *MockWishlistRepository) FindByShareToken(ctx context.Context, token string) (*shopping.Wishlist, error) {
	return m.wishlist(m.Called(ctx, token))
}

func (m *MockWishlistRepository) FindByItemID(ctx context.Context, itemID uuid.UUID) (*shopping.Wishlist, error) {
	return m.wishlist(m.Called(ctx, itemID))
}

func (m *MockWishlistRepository) Save(ctx context.Context, w *shopping.Wishlist) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockWishlistRepository) SaveItem(ctx context.Context, item *shopping.WishlistItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockWishlistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Forget(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error { return nil }

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

func testSite(t *testing.T) *site.Site {
	t.Helper()
	st, err := site.NewSite("gifts", "Gift Shop", "gifts.example.com", valueobject.USD)
	require.NoError(t, err)
	return st
}

func testOrder(t *testing.T, siteID, userID uuid.UUID, total string) *trade.Order {
	t.Helper()
	item, err := trade.NewOrderItem(uuid.New(), "Lamp", "LAMP-1", "", decimal.RequireFromString(total), 1)
	require.NoError(t, err)
	o, err := trade.NewOrder(siteID, userID, "ORD-20261016-LAMP01", valueobject.USD, []trade.OrderItem{item}, decimal.Zero,
		trade.ShippingAddress{RecipientName: gofakeit.Name(), Phone: gofakeit.Phone(), Line1: gofakeit.Street(), City: gofakeit.City(), Country: "US"},
		gofakeit.Email(), "")
	require.NoError(t, err)
	o.ClearDomainEvents()
	o.ClearPendingLogs()
	return o
}

// publicWishlist returns a shared wishlist of another user holding one item
func publicWishlist(t *testing.T, siteID uuid.UUID, price string, qty int) (*shopping.Wishlist, *shopping.WishlistItem) {
	t.Helper()
	w, err := shopping.NewWishlist(siteID, uuid.New(), "Birthday")
	require.NoError(t, err)
	require.NoError(t, w.Share())
	g, err := catalog.NewGoods(gofakeit.LetterN(8), gofakeit.ProductName(), valueobject.MustMoney(decimal.RequireFromString(price), valueobject.USD))
	require.NoError(t, err)
	require.NoError(t, g.SetStock(10))
	require.NoError(t, g.Publish())
	item, err := w.AddItem(g, "gifts", qty, "")
	require.NoError(t, err)
	return w, item
}

func newPayment(t *testing.T, siteID uuid.UUID, userID *uuid.UUID, method payment.Method, amount string, target payment.Target) *payment.Payment {
	t.Helper()
	p, err := payment.NewPayment(siteID, userID, method, valueobject.MustMoney(decimal.RequireFromString(amount), valueobject.USD), target)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

type fixture struct {
	svc       *PaymentService
	payments  *MockPaymentRepository
	webhooks  *MockWebhookLogRepository
	processor *MockProcessor
	orders    *MockOrderPort
	wishlists *MockWishlistRepository
	idem      *MockIdempotencyStore
	publisher *MockEventPublisher
}

func newFixture(t *testing.T, method payment.Method) *fixture {
	f := &fixture{
		payments:  new(MockPaymentRepository),
		webhooks:  new(MockWebhookLogRepository),
		processor: &MockProcessor{method: method},
		orders:    new(MockOrderPort),
		wishlists: new(MockWishlistRepository),
		idem:      new(MockIdempotencyStore),
		publisher: new(MockEventPublisher),
	}
	reg := payment.NewRegistry()
	reg.Register(f.processor)
	f.svc = NewPaymentService(f.payments, f.webhooks, reg, f.orders, f.wishlists, f.idem,
		Config{ExpireAfter: time.Hour, ReturnURL: "https://shop.example.com/paid"}, zapLogger(t))
	f.svc.SetEventPublisher(f.publisher)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}
