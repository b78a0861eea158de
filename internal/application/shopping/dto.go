package shopping

import (
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shopping"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddCartItemRequest adds goods to the cart
type AddCartItemRequest struct {
	GoodsID  uuid.UUID `json:"goods_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1,max=99"`
}

// UpdateCartItemRequest sets a line's quantity; zero removes it
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0,max=99"`
}

// CartItemResponse is one cart line. Available is false when the goods
// can no longer be bought on this site in the requested quantity.
type CartItemResponse struct {
	GoodsID   uuid.UUID       `json:"goods_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	ImageURL  string          `json:"image_url"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Available bool            `json:"available"`
}

// CartResponse is the cart as shown to its owner
type CartResponse struct {
	ID        uuid.UUID          `json:"id"`
	Currency  string             `json:"currency"`
	Items     []CartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Total     decimal.Decimal    `json:"total"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ToCartResponse converts a cart; unavailable lists goods that cannot be bought
func ToCartResponse(c *shopping.Cart, unavailable map[uuid.UUID]bool) CartResponse {
	items := make([]CartItemResponse, len(c.Items))
	for i, it := range c.Items {
		items[i] = CartItemResponse{
			GoodsID:   it.GoodsID,
			Name:      it.GoodsName,
			SKU:       it.SKU,
			ImageURL:  it.ImageURL,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal(),
			Available: !unavailable[it.GoodsID],
		}
	}
	return CartResponse{
		ID:        c.ID,
		Currency:  string(c.Currency),
		Items:     items,
		ItemCount: c.ItemCount(),
		Total:     c.Total().Amount(),
		UpdatedAt: c.UpdatedAt,
	}
}

// CreateWishlistRequest creates a wishlist
type CreateWishlistRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=1000"`
}

// UpdateWishlistRequest renames a wishlist
type UpdateWishlistRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=1000"`
}

// AddWishlistItemRequest adds goods to a wishlist
type AddWishlistItemRequest struct {
	GoodsID  uuid.UUID `json:"goods_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"omitempty,min=1,max=99"`
	Note     string    `json:"note" binding:"max=500"`
}

// WishlistItemResponse carries the payment mirror fields
type WishlistItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	GoodsID       uuid.UUID       `json:"goods_id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Currency      string          `json:"currency"`
	Quantity      int             `json:"quantity"`
	Note          string          `json:"note,omitempty"`
	PaymentStatus string          `json:"payment_status"`
	PaymentID     *uuid.UUID      `json:"payment_id,omitempty"`
	PurchaserName string          `json:"purchaser_name,omitempty"`
	PurchasedAt   *time.Time      `json:"purchased_at,omitempty"`
}

// WishlistResponse is a wishlist with its items
type WishlistResponse struct {
	ID          uuid.UUID              `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Public      bool                   `json:"public"`
	ShareToken  string                 `json:"share_token,omitempty"`
	Items       []WishlistItemResponse `json:"items"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ToWishlistResponse converts a wishlist. The share token is only shown to the owner.
func ToWishlistResponse(w *shopping.Wishlist, owner bool) WishlistResponse {
	items := make([]WishlistItemResponse, len(w.Items))
	for i, it := range w.Items {
		items[i] = WishlistItemResponse{
			ID:            it.ID,
			GoodsID:       it.GoodsID,
			Name:          it.GoodsName,
			UnitPrice:     it.UnitPrice,
			Currency:      string(it.Currency),
			Quantity:      it.Quantity,
			Note:          it.Note,
			PaymentStatus: string(it.PaymentStatus),
			PaymentID:     it.PaymentID,
			PurchaserName: it.PurchaserName,
			PurchasedAt:   it.PurchasedAt,
		}
	}
	resp := WishlistResponse{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Public:      w.Public,
		Items:       items,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
	if owner {
		resp.ShareToken = w.ShareToken
	}
	return resp
}
