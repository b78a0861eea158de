package shopping

import (
	"context"
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/Marusmurong/mall-sub000/internal/domain/shopping"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGoodsReader struct {
	mock.Mock
}

func (m *MockGoodsReader) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Goods, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Goods), args.Error(1)
}

func (m *MockGoodsReader) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Goods, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Goods), args.Error(1)
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shopping.Wishlist), args.Error(1)
}

func (m *MockWishlistRepository) FindByShareToken(ctx context.Context, token string) (*shopping.Wishlist, error) {
	return m.wishlist(m.Called(ctx, token))
}

func (m *MockWishlistRepository) FindByItemID(ctx context.Context, itemID uuid.UUID) (*shopping.Wishlist, error) {
	return m.wishlist(m.Called(ctx, itemID))
}

func (m *MockWishlistRepository) Save(ctx context.Context, wishlist *shopping.Wishlist) error {
	return m.Called(ctx, wishlist).Error(0)
}

func (m *MockWishlistRepository) SaveItem(ctx context.Context, item *shopping.WishlistItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockWishlistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func testSite(t *testing.T) *site.Site {
	t.Helper()
	st, err := site.NewSite("gifts", "Gift Shop", "gifts.example.com", valueobject.USD)
	require.NoError(t, err)
	return st
}

// onSale returns purchasable goods visible on every site
func onSale(t *testing.T, price string, stock int) *catalog.Goods {
	t.Helper()
	g, err := catalog.NewGoods(gofakeit.LetterN(8), gofakeit.ProductName(), valueobject.MustMoney(decimal.RequireFromString(price), valueobject.USD))
	require.NoError(t, err)
	require.NoError(t, g.SetStock(stock))
	require.NoError(t, g.Publish())
	g.ClearDomainEvents()
	return g
}
