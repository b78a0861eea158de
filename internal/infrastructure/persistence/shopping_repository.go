package persistence

import (
	"context"
	"errors"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shopping"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/persistence/models"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/persistence/sitescope"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCartRepository implements shopping.CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByUser loads the user's cart on a site
func (r *GormCartRepository) FindByUser(ctx context.Context, siteID, userID uuid.UUID) (*shopping.Cart, error) {
	var model models.CartModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Scopes(sitescope.ScopeOwner(siteID, userID)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save writes the cart row and replaces its lines
func (r *GormCartRepository) Save(ctx context.Context, cart *shopping.Cart) error {
	model := models.CartModelFromDomain(cart)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(model.Items))
		for i := range model.Items {
			ids[i] = model.Items[i].ID
		}
		query := tx.Where("cart_id = ?", cart.ID)
		if len(ids) > 0 {
			query = query.Where("id NOT IN ?", ids)
		}
		if err := query.Delete(&models.CartItemModel{}).Error; err != nil {
			return err
		}
		for i := range model.Items {
			if err := tx.Save(&model.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	cart.MarkPersisted()
	return nil
}

// Delete removes a cart and its lines
func (r *GormCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", id).Delete(&models.CartItemModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.CartModel{}, "id = ?", id).Error
	})
}

// GormWishlistRepository implements shopping.WishlistRepository using GORM
type GormWishlistRepository struct {
	db *gorm.DB
}

// NewGormWishlistRepository creates a new GormWishlistRepository
func NewGormWishlistRepository(db *gorm.DB) *GormWishlistRepository {
	return &GormWishlistRepository{db: db}
}

func (r *GormWishlistRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})
}

func (r *GormWishlistRepository) findOne(ctx context.Context, query string, args ...any) (*shopping.Wishlist, error) {
	var model models.WishlistModel
	if err := r.withItems(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a wishlist of a site
func (r *GormWishlistRepository) FindByID(ctx context.Context, siteID, id uuid.UUID) (*shopping.Wishlist, error) {
	return r.findOne(ctx, "site_id = ? AND id = ?", siteID, id)
}

// FindByUser lists a user's wishlists, newest first
func (r *GormWishlistRepository) FindByUser(ctx context.Context, siteID, userID uuid.UUID) ([]shopping.Wishlist, error) {
	var rows []models.WishlistModel
	if err := r.withItems(ctx).
		Scopes(sitescope.ScopeOwner(siteID, userID)).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	lists := make([]shopping.Wishlist, len(rows))
	for i := range rows {
		lists[i] = *rows[i].ToDomain()
	}
	return lists, nil
}

// FindByShareToken finds a public wishlist by its share token
func (r *GormWishlistRepository) FindByShareToken(ctx context.Context, token string) (*shopping.Wishlist, error) {
	if token == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, "share_token = ?", token)
}

// FindByItemID loads the wishlist that owns an item
func (r *GormWishlistRepository) FindByItemID(ctx context.Context, itemID uuid.UUID) (*shopping.Wishlist, error) {
	var item models.WishlistItemModel
	if err := r.db.WithContext(ctx).Select("wishlist_id").First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.findOne(ctx, "id = ?", item.WishlistID)
}

// Save writes the wishlist row and replaces its items
func (r *GormWishlistRepository) Save(ctx context.Context, wishlist *shopping.Wishlist) error {
	model := models.WishlistModelFromDomain(wishlist)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(model.Items))
		for i := range model.Items {
			ids[i] = model.Items[i].ID
		}
		query := tx.Where("wishlist_id = ?", wishlist.ID)
		if len(ids) > 0 {
			query = query.Where("id NOT IN ?", ids)
		}
		if err := query.Delete(&models.WishlistItemModel{}).Error; err != nil {
			return err
		}
		for i := range model.Items {
			if err := tx.Save(&model.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	wishlist.MarkPersisted()
	return nil
}

// SaveItem writes a single item, used by the payment mirror
func (r *GormWishlistRepository) SaveItem(ctx context.Context, item *shopping.WishlistItem) error {
	model := models.WishlistItemModelFromDomain(item)
	return r.db.WithContext(ctx).Save(&model).Error
}

// Delete removes a wishlist and its items
func (r *GormWishlistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("wishlist_id = ?", id).Delete(&models.WishlistItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.WishlistModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

var (
	_ shopping.CartRepository     = (*GormCartRepository)(nil)
	_ shopping.WishlistRepository = (*GormWishlistRepository)(nil)
)
