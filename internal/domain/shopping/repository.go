package shopping

import (
	"context"

	"github.com/google/uuid"
)

// CartRepository persists carts
type CartRepository interface {
	// FindByUser returns shared.ErrNotFound when the user has no cart yet
	FindByUser(ctx context.Context, siteID, userID uuid.UUID) (*Cart, error)
	// Save replaces the cart and its lines
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// WishlistRepository persists wishlists
type WishlistRepository interface {
	FindByID(ctx context.Context, siteID, id uuid.UUID) (*Wishlist, error)
	FindByUser(ctx context.Context, siteID, userID uuid.UUID) ([]Wishlist, error)
	FindByShareToken(ctx context.Context, token string) (*Wishlist, error)
	// FindByItemID loads the wishlist owning an item
	FindByItemID(ctx context.Context, itemID uuid.UUID) (*Wishlist, error)
	Save(ctx context.Context, wishlist *Wishlist) error
	// SaveItem updates one item's mutable columns
	SaveItem(ctx context.Context, item *WishlistItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}
