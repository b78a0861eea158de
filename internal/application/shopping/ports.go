package shopping

import (
	"context"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// GoodsReader is the slice of the catalog the shopping services read
type GoodsReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*catalog.Goods, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Goods, error)
}

// ErrWishlistDisabled is returned when the site turned wishlists off
var ErrWishlistDisabled = shared.NewDomainError("FEATURE_DISABLED", "Wishlists are not enabled on this site")
