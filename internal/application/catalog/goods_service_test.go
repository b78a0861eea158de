package catalog

import (
	"context"
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestGoods(t *testing.T, price string) *catalog.Goods {
	t.Helper()
	g, err := catalog.NewGoods(gofakeit.LetterN(8), gofakeit.ProductName(), valueobject.MustMoney(decimal.RequireFromString(price), valueobject.USD))
	require.NoError(t, err)
	g.ClearDomainEvents()
	return g
}

func newGoodsService(t *testing.T) (*GoodsService, *MockGoodsRepository, *MockCategoryRepository) {
	goodsRepo := new(MockGoodsRepository)
	categoryRepo := new(MockCategoryRepository)
	return NewGoodsService(goodsRepo, categoryRepo, zaptest.NewLogger(t)), goodsRepo, categoryRepo
}

func TestGoodsService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates draft goods", func(t *testing.T) {
		svc, goodsRepo, categoryRepo := newGoodsService(t)
		categoryID := uuid.New()
		category, _ := catalog.NewCategory("Mugs", "", nil)
		categoryRepo.On("FindByID", ctx, categoryID).Return(category, nil)
		goodsRepo.On("FindBySKU", ctx, "MUG-1").Return(nil, shared.ErrNotFound)
		goodsRepo.On("FindBySlug", ctx, "enamel-mug").Return(nil, shared.ErrNotFound)
		goodsRepo.On("Save", ctx, mock.AnythingOfType("*catalog.Goods")).Return(nil)

		original := decimal.NewFromInt(15)
		resp, err := svc.Create(ctx, CreateGoodsRequest{
			SKU:           "MUG-1",
			Name:          "Enamel Mug",
			Description:   "Camping mug",
			CategoryID:    &categoryID,
			Price:         decimal.RequireFromString("12.5"),
			OriginalPrice: &original,
			Stock:         10,
			VisibleIn:     []string{"Gifts", "gifts"},
		})
		require.NoError(t, err)
		assert.Equal(t, "draft", resp.Status)
		assert.Equal(t, "enamel-mug", resp.Slug)
		assert.Equal(t, "USD", resp.Currency)
		assert.Equal(t, 10, resp.Stock)
		assert.Equal(t, []string{"gifts"}, resp.VisibleIn)
		assert.True(t, resp.OriginalPrice.Equal(original))
		goodsRepo.AssertExpectations(t)
	})

	t.Run("duplicate sku", func(t *testing.T) {
		svc, goodsRepo, _ := newGoodsService(t)
		goodsRepo.On("FindBySKU", ctx, "MUG-1").Return(newTestGoods(t, "1"), nil)

		_, err := svc.Create(ctx, CreateGoodsRequest{SKU: "MUG-1", Name: "Mug", Price: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("unknown category", func(t *testing.T) {
		svc, goodsRepo, categoryRepo := newGoodsService(t)
		categoryID := uuid.New()
		goodsRepo.On("FindBySKU", ctx, "MUG-2").Return(nil, shared.ErrNotFound)
		categoryRepo.On("FindByID", ctx, categoryID).Return(nil, shared.ErrNotFound)

		_, err := svc.Create(ctx, CreateGoodsRequest{SKU: "MUG-2", Name: "Mug", CategoryID: &categoryID, Price: decimal.NewFromInt(1)})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_CATEGORY", de.Code)
	})
}

func TestGoodsService_GetVisible(t *testing.T) {
	ctx := context.Background()
	svc, goodsRepo, _ := newGoodsService(t)

	onSale := newTestGoods(t, "10")
	require.NoError(t, onSale.Publish())
	onSale.SetVisibleIn([]string{"gifts"})
	draft := newTestGoods(t, "10")

	goodsRepo.On("FindByID", ctx, onSale.ID).Return(onSale, nil)
	goodsRepo.On("FindByID", ctx, draft.ID).Return(draft, nil)
	goodsRepo.On("FindBySlug", ctx, onSale.Slug).Return(onSale, nil)

	resp, err := svc.GetVisible(ctx, "gifts", onSale.ID.String())
	require.NoError(t, err)
	assert.Equal(t, onSale.ID, resp.ID)

	_, err = svc.GetVisible(ctx, "gifts", onSale.Slug)
	require.NoError(t, err)

	_, err = svc.GetVisible(ctx, "tech", onSale.ID.String())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.GetVisible(ctx, "gifts", draft.ID.String())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGoodsService_ListVisibleIgnoresStatusFilter(t *testing.T) {
	ctx := context.Background()
	svc, goodsRepo, _ := newGoodsService(t)
	min := decimal.NewFromInt(5)

	goodsRepo.On("FindVisible", ctx, "gifts", mock.MatchedBy(func(f shared.Filter) bool {
		_, hasStatus := f.Filters["status"]
		return !hasStatus && f.Filters["min_price"] == min && f.Page == 1 && f.PageSize == 20
	})).Return([]catalog.Goods{*newTestGoods(t, "7")}, nil)
	goodsRepo.On("CountVisible", ctx, "gifts", mock.Anything).Return(int64(1), nil)

	items, total, err := svc.ListVisible(ctx, "gifts", GoodsListFilter{Status: "draft", MinPrice: &min})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, items, 1)
}

func TestGoodsService_PublishAndUnpublish(t *testing.T) {
	ctx := context.Background()
	svc, goodsRepo, _ := newGoodsService(t)
	publisher := new(MockEventPublisher)
	svc.SetEventPublisher(publisher)

	g := newTestGoods(t, "10")
	goodsRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	goodsRepo.On("SaveWithLock", ctx, g).Return(nil)
	publisher.On("Publish", ctx, mock.Anything).Return(nil)

	resp, err := svc.Publish(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "on_sale", resp.Status)

	_, err = svc.Publish(ctx, g.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	resp, err = svc.Unpublish(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "off_sale", resp.Status)
	publisher.AssertNumberOfCalls(t, "Publish", 2)
}

func TestGoodsService_AdjustStock(t *testing.T) {
	ctx := context.Background()
	ptr := func(i int) *int { return &i }

	tests := []struct {
		name    string
		req     AdjustStockRequest
		want    int
		wantErr error
	}{
		{"set", AdjustStockRequest{Stock: ptr(7)}, 7, nil},
		{"increase", AdjustStockRequest{Delta: ptr(3)}, 8, nil},
		{"decrease", AdjustStockRequest{Delta: ptr(-5)}, 0, nil},
		{"decrease below zero", AdjustStockRequest{Delta: ptr(-6)}, 0, shared.ErrInsufficientStock},
		{"neither", AdjustStockRequest{}, 0, shared.ErrInvalidInput},
		{"both", AdjustStockRequest{Stock: ptr(1), Delta: ptr(1)}, 0, shared.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, goodsRepo, _ := newGoodsService(t)
			g := newTestGoods(t, "10")
			require.NoError(t, g.SetStock(5))
			goodsRepo.On("FindByID", ctx, g.ID).Return(g, nil)
			goodsRepo.On("SaveWithLock", ctx, g).Return(nil)

			resp, err := svc.AdjustStock(ctx, g.ID, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Stock)
		})
	}
}

func TestGoodsService_UpdatePrice(t *testing.T) {
	ctx := context.Background()
	svc, goodsRepo, _ := newGoodsService(t)
	g := newTestGoods(t, "10")
	goodsRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	goodsRepo.On("SaveWithLock", ctx, g).Return(nil)

	price := decimal.NewFromInt(8)
	resp, err := svc.Update(ctx, g.ID, UpdateGoodsRequest{Price: &price})
	require.NoError(t, err)
	assert.True(t, resp.Price.Equal(price))
	assert.True(t, resp.OriginalPrice.Equal(decimal.NewFromInt(10)))
}
