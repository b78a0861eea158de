package handler

import (
	"context"

	"github.com/Marusmurong/mall-sub000/internal/application/shopping"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService is the cart use case set
type CartService interface {
	Get(ctx context.Context, st *site.Site, userID uuid.UUID) (*shopping.CartResponse, error)
	AddItem(ctx context.Context, st *site.Site, userID uuid.UUID, req shopping.AddCartItemRequest) (*shopping.CartResponse, error)
	UpdateItem(ctx context.Context, st *site.Site, userID, goodsID uuid.UUID, req shopping.UpdateCartItemRequest) (*shopping.CartResponse, error)
	RemoveItem(ctx context.Context, st *site.Site, userID, goodsID uuid.UUID) (*shopping.CartResponse, error)
	Clear(ctx context.Context, st *site.Site, userID uuid.UUID) error
}

// WishlistService is the wishlist use case set
type WishlistService interface {
	Create(ctx context.Context, st *site.Site, userID uuid.UUID, req shopping.CreateWishlistRequest) (*shopping.WishlistResponse, error)
	List(ctx context.Context, st *site.Site, userID uuid.UUID) ([]shopping.WishlistResponse, error)
	Get(ctx context.Context, st *site.Site, viewerID, id uuid.UUID) (*shopping.WishlistResponse, error)
	GetShared(ctx context.Context, st *site.Site, token string) (*shopping.WishlistResponse, error)
	Rename(ctx context.Context, st *site.Site, userID, id uuid.UUID, req shopping.UpdateWishlistRequest) (*shopping.WishlistResponse, error)
	Share(ctx context.Context, st *site.Site, userID, id uuid.UUID) (*shopping.WishlistResponse, error)
	Unshare(ctx context.Context, st *site.Site, userID, id uuid.UUID) (*shopping.WishlistResponse, error)
	AddItem(ctx context.Context, st *site.Site, userID, id uuid.UUID, req shopping.AddWishlistItemRequest) (*shopping.WishlistResponse, error)
	RemoveItem(ctx context.Context, st *site.Site, userID, id, itemID uuid.UUID) (*shopping.WishlistResponse, error)
	Delete(ctx context.Context, st *site.Site, userID, id uuid.UUID) error
}

// ShoppingHandler serves the cart and wishlists of the signed-in shopper
type ShoppingHandler struct {
	BaseHandler
	cart      CartService
	wishlists WishlistService
}

// NewShoppingHandler creates a new ShoppingHandler
func NewShoppingHandler(cart CartService, wishlists WishlistService, logger *zap.Logger) *ShoppingHandler {
	return &ShoppingHandler{BaseHandler: BaseHandler{logger: logger}, cart: cart, wishlists: wishlists}
}

// shopper returns the current site and user
func (h *ShoppingHandler) shopper(c *gin.Context) (*site.Site, uuid.UUID, bool) {
	st, ok := h.currentSite(c)
	if !ok {
		return nil, uuid.Nil, false
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return nil, uuid.Nil, false
	}
	return st, userID, true
}

// GetCart godoc
// @ID           getCart
// @Summary      Current cart
// @Description  Lines whose goods are no longer sold on this site are flagged unavailable
// @Tags         cart
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Success      200 {object} APIResponse[shopping.CartResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart [get]
func (h *ShoppingHandler) GetCart(c *gin.Context) {
	st, userID, ok := h.shopper(c)
	if !ok {
		return
	}
	cart, err := h.cart.Get(c.Request.Context(), st, userID)
	reply(&h.BaseHandler, c, cart, err)
}

// AddCartItem godoc
// @ID           addCartItem
// @Summary      Add goods to the cart
// @Description  Adding goods already in the cart increases the quantity
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        request body shopping.AddCartItemRequest true "Line"
// @Success      200 {object} APIResponse[shopping.CartResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart/items [post]
func (h *ShoppingHandler) AddCartItem(c *gin.Context) {
	st, userID, ok := h.shopper(c)
	if !ok {
		return
	}
	var req shopping.AddCartItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cart, err := h.cart.AddItem(c.Request.Context(), st, userID, req)
	reply(&h.BaseHandler, c, cart, err)
}

// UpdateCartItem godoc
// @ID           updateCartItem
// @Summary      Set a line quantity
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        goods_id path string true "Goods ID" format(uuid)
// @Param        request body shopping.UpdateCartItemRequest true "Quantity"
// @Success      200 {object} APIResponse[shopping.CartResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart/items/{goods_id} [put]
func (h *ShoppingHandler) UpdateCartItem(c *gin.Context) {
	st, userID, ok := h.shopper(c)
	if !ok {
		return
	}
	goodsID, ok := h.pathUUID(c, "goods_id")
	if !ok {
		return
	}
	var req shopping.UpdateCartItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cart, err := h.cart.UpdateItem(c.Request.Context(), st, userID, goodsID, req)
	reply(&h.BaseHandler, c, cart, err)
}

// RemoveCartItem godoc
// @ID           removeCartItem
// @Summary      Remove a line
// @Tags         cart
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        goods_id path string true "Goods ID" format(uuid)
// @Success      200 {object} APIResponse[shopping.CartResponse]
// @Security     BearerAuth
// @Router       /cart/items/{goods_id} [delete]
func (h *ShoppingHandler) RemoveCartItem(c *gin.Context) {
	st, userID, ok := h.shopper(c)
	if !ok {
		return
	}
	goodsID, ok := h.pathUUID(c, "goods_id")
	if !ok {
		return
	}
	cart, err := h.cart.RemoveItem(c.Request.Context(), st, userID, goodsID)
	reply(&h.BaseHandler, c, cart, err)
}

// ClearCart godoc
// @ID           clearCart
// @Summary      Empty the cart
// @Tags         cart
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Success      200 {object} APIResponse[MessageData]
// @Security     BearerAuth
// @Router       /cart [delete]
func (h *ShoppingHandler) ClearCart(c *gin.Context) {
	st, userID, ok := h.shopper(c)
	if !ok {
		return
	}
	if err := h.cart.Clear(c.Request.Context(), st, userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageData{Message: "Cart cleared"})
}

// ListWishlists godoc
// @ID           listWishlists
// @Summary      My wishlists
// @Tags         wishlist
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Success      200 {object} APIResponse[[]shopping.WishlistResponse]
// @Security     BearerAuth
// @Router       /wishlists [get]
func (h *ShoppingHandler) ListWishlists(c *gin.Context) {
	st, userID, ok := h.shopper(c)
	if !ok {
		return
	}
	lists, err := h.wishlists.List(c.Request.Context(), st, userID)
	reply(&h.BaseHandler, c, lists, err)
}

// CreateWishlist godoc
// @ID           createWishlist
// @Summary      Create a wishlist
// @Tags         wishlist
// @Accept       json
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        request body shopping.CreateWishlistRequest true "Wishlist"
// @Success      201 {object} APIResponse[shopping.WishlistResponse]
// @Security     BearerAuth
// @Router       /wishlists [post]
func (h *ShoppingHandler) CreateWishlist(c *gin.Context) {
	st, userID, ok := h.shopper(c)
	if !ok {
		return
	}
	var req shopping.CreateWishlistRequest
	if !h.bindJSON(c, &req) {
		return
	}
	list, err := h.wishlists.Create(c.Request.Context(), st, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, list)
}

// GetWishlist godoc
// @ID           getWishlist
// @Summary      Get one of my wishlists
// @Tags         wishlist
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        id path string true "Wishlist ID" format(uuid)
// @Success      200 {object} APIResponse[shopping.WishlistResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /wishlists/{id} [get]
func (h *ShoppingHandler) GetWishlist(c *gin.Context) {
	withWishlist(h, c, h.wishlists.Get)
}

// GetSharedWishlist godoc
// @ID           getSharedWishlist
// @Summary      View a shared wishlist
// @Description  Anyone holding the share token can view the list and buy its items as gifts
// @Tags         wishlist
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        token path string true "Share token"
// @Success      200 {object} APIResponse[shopping.WishlistResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /wishlists/shared/{token} [get]
func (h *ShoppingHandler) GetSharedWishlist(c *gin.Context) {
	st, ok := h.currentSite(c)
	if !ok {
		return
	}
	list, err := h.wishlists.GetShared(c.Request.Context(), st, c.Param("token"))
	reply(&h.BaseHandler, c, list, err)
}

// RenameWishlist godoc
// @ID           renameWishlist
// @Summary      Rename a wishlist
// @Tags         wishlist
// @Accept       json
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        id path string true "Wishlist ID" format(uuid)
// @Param        request body shopping.UpdateWishlistRequest true "Name"
// @Success      200 {object} APIResponse[shopping.WishlistResponse]
// @Security     BearerAuth
// @Router       /wishlists/{id} [put]
func (h *ShoppingHandler) RenameWishlist(c *gin.Context) {
	var req shopping.UpdateWishlistRequest
	if !h.bindJSON(c, &req) {
		return
	}
	withWishlist(h, c, func(ctx context.Context, st *site.Site, userID, id uuid.UUID) (*shopping.WishlistResponse, error) {
		return h.wishlists.Rename(ctx, st, userID, id, req)
	})
}

// ShareWishlist godoc
// @ID           shareWishlist
// @Summary      Issue a share token
// @Tags         wishlist
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        id path string true "Wishlist ID" format(uuid)
// @Success      200 {object} APIResponse[shopping.WishlistResponse]
// @Security     BearerAuth
// @Router       /wishlists/{id}/share [post]
func (h *ShoppingHandler) ShareWishlist(c *gin.Context) {
	withWishlist(h, c, h.wishlists.Share)
}

// UnshareWishlist godoc
// @ID           unshareWishlist
// @Summary      Revoke the share token
// @Tags         wishlist
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        id path string true "Wishlist ID" format(uuid)
// @Success      200 {object} APIResponse[shopping.WishlistResponse]
// @Security     BearerAuth
// @Router       /wishlists/{id}/share [delete]
func (h *ShoppingHandler) UnshareWishlist(c *gin.Context) {
	withWishlist(h, c, h.wishlists.Unshare)
}

// AddWishlistItem godoc
// @ID           addWishlistItem
// @Summary      Add goods to a wishlist
// @Tags         wishlist
// @Accept       json
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        id path string true "Wishlist ID" format(uuid)
// @Param        request body shopping.AddWishlistItemRequest true "Item"
// @Success      200 {object} APIResponse[shopping.WishlistResponse]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /wishlists/{id}/items [post]
func (h *ShoppingHandler) AddWishlistItem(c *gin.Context) {
	var req shopping.AddWishlistItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	withWishlist(h, c, func(ctx context.Context, st *site.Site, userID, id uuid.UUID) (*shopping.WishlistResponse, error) {
		return h.wishlists.AddItem(ctx, st, userID, id, req)
	})
}

// RemoveWishlistItem godoc
// @ID           removeWishlistItem
// @Summary      Remove an item from a wishlist
// @Description  Items that were bought as gifts stay on the list
// @Tags         wishlist
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        id path string true "Wishlist ID" format(uuid)
// @Param        item_id path string true "Item ID" format(uuid)
// @Success      200 {object} APIResponse[shopping.WishlistResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /wishlists/{id}/items/{item_id} [delete]
func (h *ShoppingHandler) RemoveWishlistItem(c *gin.Context) {
	itemID, ok := h.pathUUID(c, "item_id")
	if !ok {
		return
	}
	withWishlist(h, c, func(ctx context.Context, st *site.Site, userID, id uuid.UUID) (*shopping.WishlistResponse, error) {
		return h.wishlists.RemoveItem(ctx, st, userID, id, itemID)
	})
}

// DeleteWishlist godoc
// @ID           deleteWishlist
// @Summary      Delete a wishlist
// @Tags         wishlist
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        id path string true "Wishlist ID" format(uuid)
// @Success      200 {object} APIResponse[MessageData]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /wishlists/{id} [delete]
func (h *ShoppingHandler) DeleteWishlist(c *gin.Context) {
	withWishlist(h, c, func(ctx context.Context, st *site.Site, userID, id uuid.UUID) (*MessageData, error) {
		if err := h.wishlists.Delete(ctx, st, userID, id); err != nil {
			return nil, err
		}
		return &MessageData{Message: "Wishlist deleted"}, nil
	})
}

// withWishlist runs fn for the signed-in owner and the :id wishlist
func withWishlist[T any](h *ShoppingHandler, c *gin.Context, fn func(ctx context.Context, st *site.Site, userID, id uuid.UUID) (T, error)) {
	st, userID, ok := h.shopper(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	v, err := fn(c.Request.Context(), st, userID, id)
	reply(&h.BaseHandler, c, v, err)
}
