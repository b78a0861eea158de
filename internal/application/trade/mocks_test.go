package trade

import (
	"context"
	"testing"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
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

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) order(args mock.Arguments) (*trade.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	return m.order(m.Called(ctx, id))
}

func (m *MockOrderRepository) FindByIDForSite(ctx context.Context, siteID, id uuid.UUID) (*trade.Order, error) {
	return m.order(m.Called(ctx, siteID, id))
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, siteID uuid.UUID, orderNumber string) (*trade.Order, error) {
	return m.order(m.Called(ctx, siteID, orderNumber))
}

func (m *MockOrderRepository) FindAllForSite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) ([]trade.Order, error) {
	args := m.Called(ctx, siteID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.Order), args.Error(1)
}

func (m *MockOrderRepository) CountForSite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, siteID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]trade.Order, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, order *trade.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) SaveWithRefund(ctx context.Context, order *trade.Order, refund *trade.RefundDetail) error {
	return m.Called(ctx, order, refund).Error(0)
}

func (m *MockOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockOrderRepository) FindLogs(ctx context.Context, orderID uuid.UUID) ([]trade.OrderLog, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.OrderLog), args.Error(1)
}

type MockRefundRepository struct {
	mock.Mock
}

func (m *MockRefundRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.RefundDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.RefundDetail), args.Error(1)
}

func (m *MockRefundRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]trade.RefundDetail, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.RefundDetail), args.Error(1)
}

func (m *MockRefundRepository) FindOpen(ctx context.Context, siteID uuid.UUID, filter shared.Filter) ([]trade.RefundDetail, error) {
	args := m.Called(ctx, siteID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.RefundDetail), args.Error(1)
}

type MockStockKeeper struct {
	mock.Mock
}

func (m *MockStockKeeper) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Goods, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Goods), args.Error(1)
}

func (m *MockStockKeeper) DeductStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return m.Called(ctx, id, quantity).Error(0)
}

func (m *MockStockKeeper) RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return m.Called(ctx, id, quantity).Error(0)
}

type MockSettingsReader struct {
	mock.Mock
}

func (m *MockSettingsReader) FindByKey(ctx context.Context, siteID uuid.UUID, key string) (*site.Config, error) {
	args := m.Called(ctx, siteID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*site.Config), args.Error(1)
}

type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByUser(ctx context.Context, siteID, userID uuid.UUID) (*shopping.Cart, error) {
	args := m.Called(ctx, siteID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopping.Cart), args.Error(1)
}

func (m *MockCartRepository) Save(ctx context.Context, cart *shopping.Cart) error {
	return m.Called(ctx, cart).Error(0)
}

func (m *MockCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockRefundExecutor struct {
	mock.Mock
}

func (m *MockRefundExecutor) RefundPayment(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal, reason string) (string, error) {
	args := m.Called(ctx, paymentID, amount, reason)
	return args.String(0), args.Error(1)
}

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

func onSale(t *testing.T, price string, stock int) *catalog.Goods {
	t.Helper()
	g, err := catalog.NewGoods(gofakeit.LetterN(8), gofakeit.ProductName(), valueobject.MustMoney(decimal.RequireFromString(price), valueobject.USD))
	require.NoError(t, err)
	require.NoError(t, g.SetStock(stock))
	require.NoError(t, g.Publish())
	g.ClearDomainEvents()
	return g
}

func testAddress() AddressRequest {
	return AddressRequest{
		RecipientName: gofakeit.Name(),
		Phone:         gofakeit.Phone(),
		Line1:         gofakeit.Street(),
		City:          gofakeit.City(),
		PostalCode:    gofakeit.Zip(),
		Country:       "US",
	}
}

// pendingOrder builds an order with one line of goods
func pendingOrder(t *testing.T, siteID, userID uuid.UUID, total string) *trade.Order {
	t.Helper()
	item, err := trade.NewOrderItem(uuid.New(), "Mug", "MUG-1", "", decimal.RequireFromString(total), 1)
	require.NoError(t, err)
	o, err := trade.NewOrder(siteID, userID, "ORD-20260101-ABC123", valueobject.USD, []trade.OrderItem{item},
		decimal.Zero, testAddress().toDomain(), "buyer@example.com", "")
	require.NoError(t, err)
	o.ClearDomainEvents()
	o.ClearPendingLogs()
	return o
}

// paidOrder is pendingOrder after a completed payment
func paidOrder(t *testing.T, siteID, userID uuid.UUID, total string) (*trade.Order, uuid.UUID) {
	t.Helper()
	o := pendingOrder(t, siteID, userID, total)
	paymentID := uuid.New()
	require.NoError(t, o.MarkPaid(paymentID, "paypal", trade.OperatorWebhook))
	o.ClearDomainEvents()
	o.ClearPendingLogs()
	return o, paymentID
}
