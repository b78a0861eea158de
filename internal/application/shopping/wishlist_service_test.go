package shopping

import (
	"context"
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shopping"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newWishlistService(t *testing.T) (*WishlistService, *MockWishlistRepository, *MockGoodsReader) {
	repo := new(MockWishlistRepository)
	goods := new(MockGoodsReader)
	return NewWishlistService(repo, goods, zaptest.NewLogger(t)), repo, goods
}

func newWishlist(t *testing.T, st *site.Site, owner uuid.UUID) *shopping.Wishlist {
	t.Helper()
	w, err := shopping.NewWishlist(st.ID, owner, "Birthday")
	require.NoError(t, err)
	return w
}

func TestWishlistService_Create(t *testing.T) {
	svc, repo, _ := newWishlistService(t)
	st := testSite(t)
	userID := uuid.New()
	repo.On("Save", mock.Anything, mock.AnythingOfType("*shopping.Wishlist")).Return(nil)

	resp, err := svc.Create(context.Background(), st, userID, CreateWishlistRequest{Name: "Birthday", Description: "June"})
	require.NoError(t, err)
	assert.Equal(t, "Birthday", resp.Name)
	assert.Equal(t, "June", resp.Description)
	assert.False(t, resp.Public)
}

func TestWishlistService_FeatureDisabled(t *testing.T) {
	svc, repo, _ := newWishlistService(t)
	st := testSite(t)
	require.NoError(t, st.SetFeature(site.FeatureWishlist, false))

	_, err := svc.Create(context.Background(), st, uuid.New(), CreateWishlistRequest{Name: "x"})
	assert.ErrorIs(t, err, ErrWishlistDisabled)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestWishlistService_GetPrivateOfOtherUser(t *testing.T) {
	svc, repo, _ := newWishlistService(t)
	st := testSite(t)
	owner := uuid.New()
	w := newWishlist(t, st, owner)
	repo.On("FindByID", mock.Anything, st.ID, w.ID).Return(w, nil)

	_, err := svc.Get(context.Background(), st, uuid.New(), w.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	resp, err := svc.Get(context.Background(), st, owner, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, resp.ID)
}

func TestWishlistService_ShareAndResolve(t *testing.T) {
	svc, repo, _ := newWishlistService(t)
	st := testSite(t)
	owner := uuid.New()
	w := newWishlist(t, st, owner)
	repo.On("FindByID", mock.Anything, st.ID, w.ID).Return(w, nil)
	repo.On("Save", mock.Anything, w).Return(nil)

	shared1, err := svc.Share(context.Background(), st, owner, w.ID)
	require.NoError(t, err)
	require.NotEmpty(t, shared1.ShareToken)
	assert.True(t, shared1.Public)

	repo.On("FindByShareToken", mock.Anything, shared1.ShareToken).Return(w, nil)
	visitor, err := svc.GetShared(context.Background(), st, shared1.ShareToken)
	require.NoError(t, err)
	assert.Empty(t, visitor.ShareToken, "visitors never see the token")

	other := testSite(t)
	other.ID = uuid.New()
	_, err = svc.GetShared(context.Background(), other, shared1.ShareToken)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestWishlistService_AddItemDefaultsQuantity(t *testing.T) {
	svc, repo, goods := newWishlistService(t)
	st := testSite(t)
	owner := uuid.New()
	w := newWishlist(t, st, owner)
	g := onSale(t, "19.99", 5)
	repo.On("FindByID", mock.Anything, st.ID, w.ID).Return(w, nil)
	repo.On("Save", mock.Anything, w).Return(nil)
	goods.On("FindByID", mock.Anything, g.ID).Return(g, nil)

	resp, err := svc.AddItem(context.Background(), st, owner, w.ID, AddWishlistItemRequest{GoodsID: g.ID, Note: "blue"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 1, resp.Items[0].Quantity)
	assert.Equal(t, "none", resp.Items[0].PaymentStatus)
}

func TestWishlistService_MutationsRequireOwner(t *testing.T) {
	svc, repo, _ := newWishlistService(t)
	st := testSite(t)
	w := newWishlist(t, st, uuid.New())
	repo.On("FindByID", mock.Anything, st.ID, w.ID).Return(w, nil)

	_, err := svc.Rename(context.Background(), st, uuid.New(), w.ID, UpdateWishlistRequest{Name: "mine now"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestWishlistService_DeleteBlockedByPayment(t *testing.T) {
	svc, repo, _ := newWishlistService(t)
	st := testSite(t)
	owner := uuid.New()
	w := newWishlist(t, st, owner)
	item, err := w.AddItem(onSale(t, "10.00", 5), st.Code, 1, "")
	require.NoError(t, err)
	require.NoError(t, item.BeginPayment(uuid.New(), nil, "Aunt May"))
	repo.On("FindByID", mock.Anything, st.ID, w.ID).Return(w, nil)

	err = svc.Delete(context.Background(), st, owner, w.ID)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
