package shopping

import (
	"context"
	"errors"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shopping"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService manages one cart per (site, user)
type CartService struct {
	cartRepo shopping.CartRepository
	goods    GoodsReader
	logger   *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(cartRepo shopping.CartRepository, goods GoodsReader, logger *zap.Logger) *CartService {
	return &CartService{cartRepo: cartRepo, goods: goods, logger: logger}
}

// Get returns the user's cart, flagging lines that can no longer be bought.
// A user without a cart gets an empty one that is not persisted.
func (s *CartService) Get(ctx context.Context, st *site.Site, userID uuid.UUID) (*CartResponse, error) {
	cart, err := s.load(ctx, st, userID)
	if err != nil {
		return nil, err
	}
	unavailable, err := s.unavailable(ctx, st, cart)
	if err != nil {
		return nil, err
	}
	resp := ToCartResponse(cart, unavailable)
	return &resp, nil
}

// AddItem adds goods, merging quantities with an existing line
func (s *CartService) AddItem(ctx context.Context, st *site.Site, userID uuid.UUID, req AddCartItemRequest) (*CartResponse, error) {
	goods, err := s.goods.FindByID(ctx, req.GoodsID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, st, userID, func(cart *shopping.Cart) error {
		return cart.AddItem(goods, st.Code, req.Quantity)
	})
}

// UpdateItem sets a line's quantity; zero removes the line
func (s *CartService) UpdateItem(ctx context.Context, st *site.Site, userID, goodsID uuid.UUID, req UpdateCartItemRequest) (*CartResponse, error) {
	goods, err := s.goods.FindByID(ctx, goodsID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, st, userID, func(cart *shopping.Cart) error {
		return cart.UpdateQuantity(goods, st.Code, req.Quantity)
	})
}

// RemoveItem drops a line
func (s *CartService) RemoveItem(ctx context.Context, st *site.Site, userID, goodsID uuid.UUID) (*CartResponse, error) {
	return s.mutate(ctx, st, userID, func(cart *shopping.Cart) error {
		return cart.RemoveItem(goodsID)
	})
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, st *site.Site, userID uuid.UUID) error {
	cart, err := s.cartRepo.FindByUser(ctx, st.ID, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	cart.Clear()
	return s.cartRepo.Save(ctx, cart)
}

func (s *CartService) mutate(ctx context.Context, st *site.Site, userID uuid.UUID, fn func(*shopping.Cart) error) (*CartResponse, error) {
	cart, err := s.load(ctx, st, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, err
	}
	s.logger.Debug("Cart updated",
		zap.String("site", st.Code),
		zap.String("user_id", userID.String()),
		zap.Int("lines", len(cart.Items)))
	resp := ToCartResponse(cart, nil)
	return &resp, nil
}

func (s *CartService) load(ctx context.Context, st *site.Site, userID uuid.UUID) (*shopping.Cart, error) {
	cart, err := s.cartRepo.FindByUser(ctx, st.ID, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return shopping.NewCart(st.ID, userID, st.DefaultCurrency), nil
	}
	return cart, err
}

func (s *CartService) unavailable(ctx context.Context, st *site.Site, cart *shopping.Cart) (map[uuid.UUID]bool, error) {
	if cart.IsEmpty() {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(cart.Items))
	for i, it := range cart.Items {
		ids[i] = it.GoodsID
	}
	goods, err := s.goods.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[uuid.UUID]int, len(goods))
	for i := range goods {
		found[goods[i].ID] = i
	}
	out := make(map[uuid.UUID]bool)
	for _, it := range cart.Items {
		idx, ok := found[it.GoodsID]
		if !ok || goods[idx].CanPurchase(st.Code, it.Quantity) != nil {
			out[it.GoodsID] = true
		}
	}
	return out, nil
}
