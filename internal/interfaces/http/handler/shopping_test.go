package handler

import (
	"net/http"
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/application/shopping"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newShoppingRouter(t *testing.T, userID uuid.UUID) (*mockCartService, *mockWishlistService, http.Handler) {
	t.Helper()
	cart := new(mockCartService)
	wishlists := new(mockWishlistService)
	h := NewShoppingHandler(cart, wishlists, nil)
	r := newTestRouter(newTestSite(t, "alpha"), userID)
	r.GET("/cart", h.GetCart)
	r.POST("/cart/items", h.AddCartItem)
	r.PUT("/cart/items/:goods_id", h.UpdateCartItem)
	r.DELETE("/cart", h.ClearCart)
	r.GET("/wishlists/shared/:token", h.GetSharedWishlist)
	r.DELETE("/wishlists/:id/items/:item_id", h.RemoveWishlistItem)
	r.DELETE("/wishlists/:id", h.DeleteWishlist)
	return cart, wishlists, r
}

func TestShoppingHandler_CartRequiresUser(t *testing.T) {
	cart, _, r := newShoppingRouter(t, uuid.Nil)

	w := doJSON(r, http.MethodGet, "/cart", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	cart.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestShoppingHandler_AddCartItem(t *testing.T) {
	userID, goodsID := uuid.New(), uuid.New()
	cart, _, r := newShoppingRouter(t, userID)

	req := shopping.AddCartItemRequest{GoodsID: goodsID, Quantity: 2}
	cart.On("AddItem", mock.Anything, mock.Anything, userID, req).
		Return(&shopping.CartResponse{ItemCount: 2}, nil)

	w := doJSON(r, http.MethodPost, "/cart/items", req)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 2, decodeEnvelope(t, w).Data.(map[string]any)["item_count"])
	cart.AssertExpectations(t)
}

func TestShoppingHandler_AddCartItem_NotVisible(t *testing.T) {
	userID := uuid.New()
	cart, _, r := newShoppingRouter(t, userID)

	cart.On("AddItem", mock.Anything, mock.Anything, userID, mock.Anything).Return(nil, shared.ErrNotVisible)

	w := doJSON(r, http.MethodPost, "/cart/items", shopping.AddCartItemRequest{GoodsID: uuid.New(), Quantity: 1})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_NOT_VISIBLE", decodeEnvelope(t, w).Code)
}

func TestShoppingHandler_UpdateCartItem_BadGoodsID(t *testing.T) {
	cart, _, r := newShoppingRouter(t, uuid.New())

	w := doJSON(r, http.MethodPut, "/cart/items/not-a-uuid", shopping.UpdateCartItemRequest{Quantity: 1})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_INVALID_INPUT", decodeEnvelope(t, w).Code)
	cart.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestShoppingHandler_ClearCart(t *testing.T) {
	userID := uuid.New()
	cart, _, r := newShoppingRouter(t, userID)
	cart.On("Clear", mock.Anything, mock.Anything, userID).Return(nil)

	w := doJSON(r, http.MethodDelete, "/cart", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	cart.AssertExpectations(t)
}

func TestShoppingHandler_SharedWishlistIsPublic(t *testing.T) {
	_, wishlists, r := newShoppingRouter(t, uuid.Nil)
	wishlists.On("GetShared", mock.Anything, mock.Anything, "tok123").
		Return(&shopping.WishlistResponse{Name: "Birthday", Public: true}, nil)

	w := doJSON(r, http.MethodGet, "/wishlists/shared/tok123", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Birthday", decodeEnvelope(t, w).Data.(map[string]any)["name"])
	wishlists.AssertExpectations(t)
}

func TestShoppingHandler_RemovePurchasedWishlistItem(t *testing.T) {
	userID, listID, itemID := uuid.New(), uuid.New(), uuid.New()
	_, wishlists, r := newShoppingRouter(t, userID)
	wishlists.On("RemoveItem", mock.Anything, mock.Anything, userID, listID, itemID).
		Return(nil, shared.NewDomainError("ITEM_PURCHASED", "Purchased items cannot be removed"))

	w := doJSON(r, http.MethodDelete, "/wishlists/"+listID.String()+"/items/"+itemID.String(), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ERR_ITEM_PURCHASED", decodeEnvelope(t, w).Code)
}

func TestShoppingHandler_DeleteWishlist(t *testing.T) {
	userID, listID := uuid.New(), uuid.New()
	_, wishlists, r := newShoppingRouter(t, userID)
	wishlists.On("Delete", mock.Anything, mock.Anything, userID, listID).Return(nil)

	w := doJSON(r, http.MethodDelete, "/wishlists/"+listID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Wishlist deleted", decodeEnvelope(t, w).Data.(map[string]any)["message"])
}
