package shopping

import (
	"context"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shopping"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WishlistService manages wishlists and their sharing
type WishlistService struct {
	wishlistRepo shopping.WishlistRepository
	goods        GoodsReader
	logger       *zap.Logger
}

// NewWishlistService creates a new WishlistService
func NewWishlistService(wishlistRepo shopping.WishlistRepository, goods GoodsReader, logger *zap.Logger) *WishlistService {
	return &WishlistService{wishlistRepo: wishlistRepo, goods: goods, logger: logger}
}

// Create creates a private wishlist for the user
func (s *WishlistService) Create(ctx context.Context, st *site.Site, userID uuid.UUID, req CreateWishlistRequest) (*WishlistResponse, error) {
	if err := enabled(st); err != nil {
		return nil, err
	}
	w, err := shopping.NewWishlist(st.ID, userID, req.Name)
	if err != nil {
		return nil, err
	}
	if req.Description != "" {
		if err := w.Rename(w.Name, req.Description); err != nil {
			return nil, err
		}
	}
	if err := s.wishlistRepo.Save(ctx, w); err != nil {
		return nil, err
	}
	s.logger.Info("Wishlist created",
		zap.String("site", st.Code),
		zap.String("wishlist_id", w.ID.String()),
		zap.String("user_id", userID.String()))
	resp := ToWishlistResponse(w, true)
	return &resp, nil
}

// List returns the user's wishlists on the site
func (s *WishlistService) List(ctx context.Context, st *site.Site, userID uuid.UUID) ([]WishlistResponse, error) {
	if err := enabled(st); err != nil {
		return nil, err
	}
	lists, err := s.wishlistRepo.FindByUser(ctx, st.ID, userID)
	if err != nil {
		return nil, err
	}
	out := make([]WishlistResponse, len(lists))
	for i := range lists {
		out[i] = ToWishlistResponse(&lists[i], true)
	}
	return out, nil
}

// Get returns a wishlist the viewer may see. Private lists of other
// users are reported as not found.
func (s *WishlistService) Get(ctx context.Context, st *site.Site, viewerID, id uuid.UUID) (*WishlistResponse, error) {
	if err := enabled(st); err != nil {
		return nil, err
	}
	w, err := s.wishlistRepo.FindByID(ctx, st.ID, id)
	if err != nil {
		return nil, err
	}
	if !w.CanBeViewedBy(viewerID) {
		return nil, shared.ErrNotFound
	}
	resp := ToWishlistResponse(w, w.UserID == viewerID)
	return &resp, nil
}

// GetShared resolves a share link. Anonymous visitors may call this.
func (s *WishlistService) GetShared(ctx context.Context, st *site.Site, token string) (*WishlistResponse, error) {
	if err := enabled(st); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, shared.ErrNotFound
	}
	w, err := s.wishlistRepo.FindByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !w.BelongsTo(st.ID) || !w.Public {
		return nil, shared.ErrNotFound
	}
	resp := ToWishlistResponse(w, false)
	return &resp, nil
}

// Rename changes name and description
func (s *WishlistService) Rename(ctx context.Context, st *site.Site, userID, id uuid.UUID, req UpdateWishlistRequest) (*WishlistResponse, error) {
	return s.mutate(ctx, st, userID, id, func(w *shopping.Wishlist) error {
		return w.Rename(req.Name, req.Description)
	})
}

// Share makes the wishlist public and returns it with its share token
func (s *WishlistService) Share(ctx context.Context, st *site.Site, userID, id uuid.UUID) (*WishlistResponse, error) {
	return s.mutate(ctx, st, userID, id, func(w *shopping.Wishlist) error {
		return w.Share()
	})
}

// Unshare makes the wishlist private again
func (s *WishlistService) Unshare(ctx context.Context, st *site.Site, userID, id uuid.UUID) (*WishlistResponse, error) {
	return s.mutate(ctx, st, userID, id, func(w *shopping.Wishlist) error {
		w.Unshare()
		return nil
	})
}

// AddItem adds goods to the wishlist
func (s *WishlistService) AddItem(ctx context.Context, st *site.Site, userID, id uuid.UUID, req AddWishlistItemRequest) (*WishlistResponse, error) {
	goods, err := s.goods.FindByID(ctx, req.GoodsID)
	if err != nil {
		return nil, err
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	return s.mutate(ctx, st, userID, id, func(w *shopping.Wishlist) error {
		_, err := w.AddItem(goods, st.Code, qty, req.Note)
		return err
	})
}

// RemoveItem deletes an item that is not being paid for
func (s *WishlistService) RemoveItem(ctx context.Context, st *site.Site, userID, id, itemID uuid.UUID) (*WishlistResponse, error) {
	return s.mutate(ctx, st, userID, id, func(w *shopping.Wishlist) error {
		return w.RemoveItem(itemID)
	})
}

// Delete removes a wishlist. Lists with a payment in flight are kept.
func (s *WishlistService) Delete(ctx context.Context, st *site.Site, userID, id uuid.UUID) error {
	w, err := s.owned(ctx, st, userID, id)
	if err != nil {
		return err
	}
	for _, it := range w.Items {
		if it.PaymentStatus.InFlight() {
			return shared.ErrInvalidState.WithMessage("Cannot delete a wishlist while one of its items is being paid for")
		}
	}
	return s.wishlistRepo.Delete(ctx, w.ID)
}

func (s *WishlistService) mutate(ctx context.Context, st *site.Site, userID, id uuid.UUID, fn func(*shopping.Wishlist) error) (*WishlistResponse, error) {
	w, err := s.owned(ctx, st, userID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(w); err != nil {
		return nil, err
	}
	if err := s.wishlistRepo.Save(ctx, w); err != nil {
		return nil, err
	}
	resp := ToWishlistResponse(w, true)
	return &resp, nil
}

func (s *WishlistService) owned(ctx context.Context, st *site.Site, userID, id uuid.UUID) (*shopping.Wishlist, error) {
	if err := enabled(st); err != nil {
		return nil, err
	}
	w, err := s.wishlistRepo.FindByID(ctx, st.ID, id)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, shared.ErrNotFound
	}
	return w, nil
}

func enabled(st *site.Site) error {
	if !st.HasFeature(site.FeatureWishlist) {
		return ErrWishlistDisabled
	}
	return nil
}
