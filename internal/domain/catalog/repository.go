package catalog

import (
	"context"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// GoodsRepository defines persistence for goods.
//
// Filter keys understood by FindAll/FindVisible: "category_id" (uuid.UUID),
// "status" (GoodsStatus), "min_price" and "max_price" (decimal.Decimal).
type GoodsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Goods, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Goods, error)
	FindBySlug(ctx context.Context, slug string) (*Goods, error)
	FindBySKU(ctx context.Context, sku string) (*Goods, error)
	FindBySourceURL(ctx context.Context, sourceURL string) (*Goods, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Goods, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindVisible returns on-sale goods whose visible_in is empty or contains siteCode
	FindVisible(ctx context.Context, siteCode string, filter shared.Filter) ([]Goods, error)
	CountVisible(ctx context.Context, siteCode string, filter shared.Filter) (int64, error)

	Save(ctx context.Context, goods *Goods) error
	// SaveWithLock fails with ErrConcurrencyConflict when the stored version moved
	SaveWithLock(ctx context.Context, goods *Goods) error
	Delete(ctx context.Context, id uuid.UUID) error

	// DeductStock atomically decrements stock if at least quantity is on hand
	DeductStock(ctx context.Context, id uuid.UUID, quantity int) error
	// RestoreStock atomically returns quantity to stock
	RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error

	SaveImage(ctx context.Context, image *Image) error
	DeleteImage(ctx context.Context, goodsID, imageID uuid.UUID) error
}

// CategoryRepository defines persistence for categories
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	FindAll(ctx context.Context, activeOnly bool) ([]Category, error)
	HasChildren(ctx context.Context, id uuid.UUID) (bool, error)
	CountGoods(ctx context.Context, id uuid.UUID) (int64, error)
	Save(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}
