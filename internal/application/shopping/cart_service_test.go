package shopping

import (
	"context"
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shopping"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newCartService(t *testing.T) (*CartService, *MockCartRepository, *MockGoodsReader) {
	cartRepo := new(MockCartRepository)
	goods := new(MockGoodsReader)
	return NewCartService(cartRepo, goods, zaptest.NewLogger(t)), cartRepo, goods
}

func TestCartService_GetWithoutCart(t *testing.T) {
	svc, cartRepo, _ := newCartService(t)
	st := testSite(t)
	userID := uuid.New()
	cartRepo.On("FindByUser", mock.Anything, st.ID, userID).Return(nil, shared.ErrNotFound)

	resp, err := svc.Get(context.Background(), st, userID)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Equal(t, "USD", resp.Currency)
	assert.True(t, resp.Total.IsZero())
	cartRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCartService_AddItemMergesLines(t *testing.T) {
	svc, cartRepo, goods := newCartService(t)
	st := testSite(t)
	userID := uuid.New()
	g := onSale(t, "12.50", 10)

	cart := shopping.NewCart(st.ID, userID, st.DefaultCurrency)
	require.NoError(t, cart.AddItem(g, st.Code, 1))
	cartRepo.On("FindByUser", mock.Anything, st.ID, userID).Return(cart, nil)
	goods.On("FindByID", mock.Anything, g.ID).Return(g, nil)
	cartRepo.On("Save", mock.Anything, cart).Return(nil)

	resp, err := svc.AddItem(context.Background(), st, userID, AddCartItemRequest{GoodsID: g.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Quantity)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("37.5")))
	cartRepo.AssertExpectations(t)
}

func TestCartService_AddItemRejectsHiddenGoods(t *testing.T) {
	svc, cartRepo, goods := newCartService(t)
	st := testSite(t)
	userID := uuid.New()
	g := onSale(t, "5.00", 10)
	g.SetVisibleIn([]string{"outlet"})

	cartRepo.On("FindByUser", mock.Anything, st.ID, userID).Return(nil, shared.ErrNotFound)
	goods.On("FindByID", mock.Anything, g.ID).Return(g, nil)

	_, err := svc.AddItem(context.Background(), st, userID, AddCartItemRequest{GoodsID: g.ID, Quantity: 1})
	assert.ErrorIs(t, err, shared.ErrNotVisible)
	cartRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCartService_GetFlagsUnavailableLines(t *testing.T) {
	svc, cartRepo, goods := newCartService(t)
	st := testSite(t)
	userID := uuid.New()
	inStock := onSale(t, "5.00", 10)
	soldOut := onSale(t, "7.00", 3)

	cart := shopping.NewCart(st.ID, userID, st.DefaultCurrency)
	require.NoError(t, cart.AddItem(inStock, st.Code, 1))
	require.NoError(t, cart.AddItem(soldOut, st.Code, 2))
	require.NoError(t, soldOut.SetStock(1))

	cartRepo.On("FindByUser", mock.Anything, st.ID, userID).Return(cart, nil)
	goods.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Goods{*inStock, *soldOut}, nil)

	resp, err := svc.Get(context.Background(), st, userID)
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	available := map[uuid.UUID]bool{}
	for _, it := range resp.Items {
		available[it.GoodsID] = it.Available
	}
	assert.True(t, available[inStock.ID])
	assert.False(t, available[soldOut.ID])
}

func TestCartService_UpdateItemZeroRemoves(t *testing.T) {
	svc, cartRepo, goods := newCartService(t)
	st := testSite(t)
	userID := uuid.New()
	g := onSale(t, "5.00", 10)

	cart := shopping.NewCart(st.ID, userID, st.DefaultCurrency)
	require.NoError(t, cart.AddItem(g, st.Code, 4))
	cartRepo.On("FindByUser", mock.Anything, st.ID, userID).Return(cart, nil)
	goods.On("FindByID", mock.Anything, g.ID).Return(g, nil)
	cartRepo.On("Save", mock.Anything, cart).Return(nil)

	resp, err := svc.UpdateItem(context.Background(), st, userID, g.ID, UpdateCartItemRequest{Quantity: 0})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestCartService_Clear(t *testing.T) {
	t.Run("no cart is a no-op", func(t *testing.T) {
		svc, cartRepo, _ := newCartService(t)
		st := testSite(t)
		userID := uuid.New()
		cartRepo.On("FindByUser", mock.Anything, st.ID, userID).Return(nil, shared.ErrNotFound)

		require.NoError(t, svc.Clear(context.Background(), st, userID))
		cartRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("empties and saves", func(t *testing.T) {
		svc, cartRepo, _ := newCartService(t)
		st := testSite(t)
		userID := uuid.New()
		cart := shopping.NewCart(st.ID, userID, st.DefaultCurrency)
		require.NoError(t, cart.AddItem(onSale(t, "1.00", 5), st.Code, 1))
		cartRepo.On("FindByUser", mock.Anything, st.ID, userID).Return(cart, nil)
		cartRepo.On("Save", mock.Anything, mock.MatchedBy(func(c *shopping.Cart) bool { return c.IsEmpty() })).Return(nil)

		require.NoError(t, svc.Clear(context.Background(), st, userID))
		cartRepo.AssertExpectations(t)
	})
}
