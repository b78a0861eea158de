package trade

import (
	"context"
	"errors"
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shopping"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/Marusmurong/mall-sub000/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type checkoutFixture struct {
	svc       *CheckoutService
	orders    *MockOrderRepository
	carts     *MockCartRepository
	stock     *MockStockKeeper
	settings  *MockSettingsReader
	publisher *MockEventPublisher
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	f := &checkoutFixture{
		orders:    new(MockOrderRepository),
		carts:     new(MockCartRepository),
		stock:     new(MockStockKeeper),
		settings:  new(MockSettingsReader),
		publisher: new(MockEventPublisher),
	}
	f.svc = NewCheckoutService(f.orders, f.carts, f.stock, f.settings, zaptest.NewLogger(t))
	f.svc.SetEventPublisher(f.publisher)
	return f
}

func (f *checkoutFixture) noShippingConfig() {
	f.settings.On("FindByKey", mock.Anything, mock.Anything, ConfigShippingFlatFee).Return(nil, shared.ErrNotFound)
}

func settingValue(t *testing.T, siteID uuid.UUID, key, value string) *site.Config {
	t.Helper()
	c, err := site.NewConfig(siteID, key, value, "")
	require.NoError(t, err)
	return c
}

func TestCheckoutService_FromCart(t *testing.T) {
	f := newCheckoutFixture(t)
	st := testSite(t)
	userID := uuid.New()
	mug := onSale(t, "12.00", 10)
	tee := onSale(t, "20.00", 5)

	cart := shopping.NewCart(st.ID, userID, st.DefaultCurrency)
	require.NoError(t, cart.AddItem(mug, st.Code, 2))
	require.NoError(t, cart.AddItem(tee, st.Code, 1))

	f.carts.On("FindByUser", mock.Anything, st.ID, userID).Return(cart, nil)
	f.stock.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Goods{*mug, *tee}, nil)
	f.settings.On("FindByKey", mock.Anything, st.ID, ConfigShippingFlatFee).Return(settingValue(t, st.ID, ConfigShippingFlatFee, "5"), nil)
	f.settings.On("FindByKey", mock.Anything, st.ID, ConfigShippingFreeThreshold).Return(settingValue(t, st.ID, ConfigShippingFreeThreshold, "100"), nil)
	f.orders.On("GenerateOrderNumber", mock.Anything).Return("ORD-20261016-K7Q2ZX", nil)
	f.stock.On("DeductStock", mock.Anything, mug.ID, 2).Return(nil)
	f.stock.On("DeductStock", mock.Anything, tee.ID, 1).Return(nil)
	f.orders.On("Save", mock.Anything, mock.AnythingOfType("*trade.Order")).Return(nil)
	f.carts.On("Save", mock.Anything, mock.MatchedBy(func(c *shopping.Cart) bool { return c.IsEmpty() })).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		return len(events) == 1 && events[0].EventType() == trade.EventTypeOrderCreated
	})).Return(nil)

	resp, err := f.svc.Checkout(context.Background(), st, userID, CheckoutRequest{ShippingAddress: testAddress()})
	require.NoError(t, err)
	assert.Equal(t, "ORD-20261016-K7Q2ZX", resp.OrderNumber)
	assert.Equal(t, string(trade.OrderStatusPending), resp.Status)
	assert.Len(t, resp.Items, 2)
	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(44)))
	assert.True(t, resp.ShippingFee.Equal(decimal.NewFromInt(5)))
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(49)))
	f.stock.AssertExpectations(t)
	f.carts.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestCheckoutService_FreeShippingAboveThreshold(t *testing.T) {
	f := newCheckoutFixture(t)
	st := testSite(t)
	userID := uuid.New()
	g := onSale(t, "60.00", 10)

	f.carts.On("FindByUser", mock.Anything, st.ID, userID).Return(nil, shared.ErrNotFound)
	f.stock.On("FindByIDs", mock.Anything, []uuid.UUID{g.ID}).Return([]catalog.Goods{*g}, nil)
	f.settings.On("FindByKey", mock.Anything, st.ID, ConfigShippingFlatFee).Return(settingValue(t, st.ID, ConfigShippingFlatFee, "5"), nil)
	f.settings.On("FindByKey", mock.Anything, st.ID, ConfigShippingFreeThreshold).Return(settingValue(t, st.ID, ConfigShippingFreeThreshold, "100"), nil)
	f.orders.On("GenerateOrderNumber", mock.Anything).Return("ORD-20261016-AAAAAA", nil)
	f.stock.On("DeductStock", mock.Anything, g.ID, 2).Return(nil)
	f.orders.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.svc.Checkout(context.Background(), st, userID, CheckoutRequest{
		Items:           []CheckoutItem{{GoodsID: g.ID, Quantity: 1}, {GoodsID: g.ID, Quantity: 1}},
		ShippingAddress: testAddress(),
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1, "duplicate lines are merged")
	assert.True(t, resp.ShippingFee.IsZero())
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(120)))
	f.carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCheckoutService_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)
	st := testSite(t)
	userID := uuid.New()
	f.carts.On("FindByUser", mock.Anything, st.ID, userID).Return(shopping.NewCart(st.ID, userID, st.DefaultCurrency), nil)

	_, err := f.svc.Checkout(context.Background(), st, userID, CheckoutRequest{ShippingAddress: testAddress()})
	assert.ErrorIs(t, err, ErrEmptyCheckout)
}

func TestCheckoutService_RejectsInvisibleGoods(t *testing.T) {
	f := newCheckoutFixture(t)
	st := testSite(t)
	userID := uuid.New()
	g := onSale(t, "10.00", 10)
	g.SetVisibleIn([]string{"outlet"})

	f.carts.On("FindByUser", mock.Anything, st.ID, userID).Return(nil, shared.ErrNotFound)
	f.stock.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Goods{*g}, nil)

	_, err := f.svc.Checkout(context.Background(), st, userID, CheckoutRequest{
		Items:           []CheckoutItem{{GoodsID: g.ID, Quantity: 1}},
		ShippingAddress: testAddress(),
	})
	assert.ErrorIs(t, err, shared.ErrNotVisible)
	f.stock.AssertNotCalled(t, "DeductStock", mock.Anything, mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCheckoutService_RestoresStockWhenReservationFails(t *testing.T) {
	f := newCheckoutFixture(t)
	st := testSite(t)
	userID := uuid.New()
	first := onSale(t, "10.00", 10)
	second := onSale(t, "10.00", 10)

	f.carts.On("FindByUser", mock.Anything, st.ID, userID).Return(nil, shared.ErrNotFound)
	f.stock.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Goods{*first, *second}, nil)
	f.noShippingConfig()
	f.orders.On("GenerateOrderNumber", mock.Anything).Return("ORD-20261016-BBBBBB", nil)
	f.stock.On("DeductStock", mock.Anything, first.ID, 1).Return(nil)
	f.stock.On("DeductStock", mock.Anything, second.ID, 3).Return(shared.ErrInsufficientStock)
	f.stock.On("RestoreStock", mock.Anything, first.ID, 1).Return(nil).Once()

	_, err := f.svc.Checkout(context.Background(), st, userID, CheckoutRequest{
		Items: []CheckoutItem{
			{GoodsID: first.ID, Quantity: 1},
			{GoodsID: second.ID, Quantity: 3},
		},
		ShippingAddress: testAddress(),
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
	f.stock.AssertExpectations(t)
	f.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCheckoutService_RestoresStockWhenSaveFails(t *testing.T) {
	f := newCheckoutFixture(t)
	st := testSite(t)
	userID := uuid.New()
	g := onSale(t, "10.00", 10)

	f.carts.On("FindByUser", mock.Anything, st.ID, userID).Return(nil, shared.ErrNotFound)
	f.stock.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Goods{*g}, nil)
	f.noShippingConfig()
	f.orders.On("GenerateOrderNumber", mock.Anything).Return("ORD-20261016-CCCCCC", nil)
	f.stock.On("DeductStock", mock.Anything, g.ID, 2).Return(nil)
	f.orders.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))
	f.stock.On("RestoreStock", mock.Anything, g.ID, 2).Return(nil).Once()

	_, err := f.svc.Checkout(context.Background(), st, userID, CheckoutRequest{
		Items:           []CheckoutItem{{GoodsID: g.ID, Quantity: 2}},
		ShippingAddress: testAddress(),
	})
	assert.EqualError(t, err, "db down")
	f.stock.AssertExpectations(t)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCheckoutService_InactiveSite(t *testing.T) {
	f := newCheckoutFixture(t)
	st := testSite(t)
	require.NoError(t, st.Deactivate())

	_, err := f.svc.Checkout(context.Background(), st, uuid.New(), CheckoutRequest{ShippingAddress: testAddress()})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "SITE_INACTIVE", domainErr.Code)
}

func TestMergeLines(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	got := mergeLines([]CheckoutItem{{a, 1}, {b, 2}, {a, 3}})
	assert.Equal(t, []CheckoutItem{{a, 4}, {b, 2}}, got)
}
