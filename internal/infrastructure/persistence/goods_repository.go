package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormGoodsRepository implements catalog.GoodsRepository using GORM
type GormGoodsRepository struct {
	db *gorm.DB
}

// NewGormGoodsRepository creates a new GormGoodsRepository
func NewGormGoodsRepository(db *gorm.DB) *GormGoodsRepository {
	return &GormGoodsRepository{db: db}
}

func (r *GormGoodsRepository) withImages(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC, created_at ASC")
	})
}

func (r *GormGoodsRepository) findOne(ctx context.Context, query string, args ...any) (*catalog.Goods, error) {
	var model models.GoodsModel
	if err := r.withImages(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds goods by ID
func (r *GormGoodsRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Goods, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByIDs loads several goods at once; missing IDs are skipped
func (r *GormGoodsRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Goods, error) {
	if len(ids) == 0 {
		return []catalog.Goods{}, nil
	}
	var rows []models.GoodsModel
	if err := r.withImages(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toGoods(rows), nil
}

// FindBySlug finds goods by slug
func (r *GormGoodsRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Goods, error) {
	return r.findOne(ctx, "slug = ?", slug)
}

// FindBySKU finds goods by SKU
func (r *GormGoodsRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Goods, error) {
	return r.findOne(ctx, "sku = ?", sku)
}

// FindBySourceURL finds goods created by the importer from a page URL
func (r *GormGoodsRepository) FindBySourceURL(ctx context.Context, sourceURL string) (*catalog.Goods, error) {
	return r.findOne(ctx, "source_url = ?", sourceURL)
}

// FindAll lists goods for the back office
func (r *GormGoodsRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Goods, error) {
	var rows []models.GoodsModel
	query := applyPaging(r.filtered(r.withImages(ctx).Model(&models.GoodsModel{}), filter), filter, goodsSort)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toGoods(rows), nil
}

// Count counts goods matching the filter
func (r *GormGoodsRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.filtered(r.db.WithContext(ctx).Model(&models.GoodsModel{}), filter).Count(&count).Error
	return count, err
}

// FindVisible lists on-sale goods shown on a site
func (r *GormGoodsRepository) FindVisible(ctx context.Context, siteCode string, filter shared.Filter) ([]catalog.Goods, error) {
	var rows []models.GoodsModel
	query := r.visible(r.withImages(ctx).Model(&models.GoodsModel{}), siteCode)
	query = applyPaging(r.filtered(query, filter), filter, goodsSort)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toGoods(rows), nil
}

// CountVisible counts on-sale goods shown on a site
func (r *GormGoodsRepository) CountVisible(ctx context.Context, siteCode string, filter shared.Filter) (int64, error) {
	var count int64
	query := r.visible(r.db.WithContext(ctx).Model(&models.GoodsModel{}), siteCode)
	err := r.filtered(query, filter).Count(&count).Error
	return count, err
}

// visible keeps on-sale rows whose visible_in is empty or lists siteCode.
// visible_in is a JSON array so the quoted code cannot match a prefix.
func (r *GormGoodsRepository) visible(query *gorm.DB, siteCode string) *gorm.DB {
	return query.
		Where("status = ?", catalog.GoodsStatusOnSale).
		Where("(visible_in IS NULL OR visible_in IN ('', '[]', 'null') OR visible_in LIKE ?)", fmt.Sprintf(`%%"%s"%%`, siteCode))
}

func (r *GormGoodsRepository) filtered(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where(`(name LIKE ? ESCAPE '\' OR sku LIKE ? ESCAPE '\')`, p, p)
	}
	if v, ok := filter.Filters["category_id"]; ok && v != nil {
		query = query.Where("category_id = ?", v)
	}
	if v, ok := filter.Filters["status"]; ok && v != "" {
		query = query.Where("status = ?", v)
	}
	if v, ok := filter.Filters["min_price"]; ok && v != nil {
		query = query.Where("price >= ?", v)
	}
	if v, ok := filter.Filters["max_price"]; ok && v != nil {
		query = query.Where("price <= ?", v)
	}
	return query
}

// Save creates or updates goods and replaces its image set
func (r *GormGoodsRepository) Save(ctx context.Context, goods *catalog.Goods) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(models.GoodsModelFromDomain(goods)).Error; err != nil {
			return err
		}
		return r.syncImages(tx, goods)
	})
	if err != nil {
		return err
	}
	goods.MarkPersisted()
	return nil
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormGoodsRepository) SaveWithLock(ctx context.Context, goods *catalog.Goods) error {
	if goods.PersistedVersion() == 0 {
		return r.Save(ctx, goods)
	}
	expected := goods.PersistedVersion()
	nextVersion(goods)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(tx, models.GoodsModelFromDomain(goods), goods.ID, expected); err != nil {
			return err
		}
		return r.syncImages(tx, goods)
	})
	if err != nil {
		return err
	}
	goods.MarkPersisted()
	return nil
}

func (r *GormGoodsRepository) syncImages(tx *gorm.DB, goods *catalog.Goods) error {
	ids := make([]uuid.UUID, len(goods.Images))
	for i := range goods.Images {
		ids[i] = goods.Images[i].ID
	}
	query := tx.Where("goods_id = ?", goods.ID)
	if len(ids) > 0 {
		query = query.Where("id NOT IN ?", ids)
	}
	if err := query.Delete(&models.GoodsImageModel{}).Error; err != nil {
		return err
	}
	for i := range goods.Images {
		goods.Images[i].GoodsID = goods.ID
		if err := tx.Save(models.GoodsImageModelFromDomain(&goods.Images[i])).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes goods and its images
func (r *GormGoodsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("goods_id = ?", id).Delete(&models.GoodsImageModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.GoodsModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// DeductStock decrements stock and bumps sales in one conditional UPDATE so
// concurrent checkouts cannot oversell
func (r *GormGoodsRepository) DeductStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	result := r.db.WithContext(ctx).Model(&models.GoodsModel{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Updates(map[string]any{
			"stock":   gorm.Expr("stock - ?", quantity),
			"sales":   gorm.Expr("sales + ?", quantity),
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOr(ctx, id, shared.ErrInsufficientStock)
	}
	return nil
}

// RestoreStock gives stock back, e.g. when an order is cancelled
func (r *GormGoodsRepository) RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	result := r.db.WithContext(ctx).Model(&models.GoodsModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock":   gorm.Expr("stock + ?", quantity),
			"sales":   gorm.Expr("CASE WHEN sales >= ? THEN sales - ? ELSE 0 END", quantity, quantity),
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormGoodsRepository) missingOr(ctx context.Context, id uuid.UUID, err error) error {
	var count int64
	if cerr := r.db.WithContext(ctx).Model(&models.GoodsModel{}).Where("id = ?", id).Count(&count).Error; cerr != nil {
		return cerr
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return err
}

// SaveImage creates or updates one image row
func (r *GormGoodsRepository) SaveImage(ctx context.Context, image *catalog.Image) error {
	return r.db.WithContext(ctx).Save(models.GoodsImageModelFromDomain(image)).Error
}

// DeleteImage removes one image of a goods
func (r *GormGoodsRepository) DeleteImage(ctx context.Context, goodsID, imageID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("goods_id = ? AND id = ?", goodsID, imageID).
		Delete(&models.GoodsImageModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toGoods(rows []models.GoodsModel) []catalog.Goods {
	goods := make([]catalog.Goods, len(rows))
	for i := range rows {
		goods[i] = *rows[i].ToDomain()
	}
	return goods
}

// GormCategoryRepository implements catalog.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	var model models.GoodsCategoryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a category by slug
func (r *GormCategoryRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	var model models.GoodsCategoryModel
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns every category ordered for tree rendering
func (r *GormCategoryRepository) FindAll(ctx context.Context, activeOnly bool) ([]catalog.Category, error) {
	query := r.db.WithContext(ctx)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []models.GoodsCategoryModel
	if err := query.Order("sort_order ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	categories := make([]catalog.Category, len(rows))
	for i := range rows {
		categories[i] = *rows[i].ToDomain()
	}
	return categories, nil
}

// HasChildren checks if a category has sub-categories
func (r *GormCategoryRepository) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GoodsCategoryModel{}).
		Where("parent_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// CountGoods counts goods assigned to a category
func (r *GormCategoryRepository) CountGoods(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GoodsModel{}).
		Where("category_id = ?", id).
		Count(&count).Error
	return count, err
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return r.db.WithContext(ctx).Save(models.GoodsCategoryModelFromDomain(category)).Error
}

// Delete removes a category
func (r *GormCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.GoodsCategoryModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var (
	_ catalog.GoodsRepository    = (*GormGoodsRepository)(nil)
	_ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
)
