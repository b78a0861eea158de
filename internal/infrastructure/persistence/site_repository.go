package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/persistence/models"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/persistence/sitescope"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSiteRepository implements site.SiteRepository using GORM
type GormSiteRepository struct {
	db *gorm.DB
}

// NewGormSiteRepository creates a new GormSiteRepository
func NewGormSiteRepository(db *gorm.DB) *GormSiteRepository {
	return &GormSiteRepository{db: db}
}

// FindByID finds a site by its ID
func (r *GormSiteRepository) FindByID(ctx context.Context, id uuid.UUID) (*site.Site, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByCode finds a site by its code
func (r *GormSiteRepository) FindByCode(ctx context.Context, code string) (*site.Site, error) {
	return r.findOne(ctx, "code = ?", strings.ToLower(strings.TrimSpace(code)))
}

// FindByDomain finds a site bound to a host name
func (r *GormSiteRepository) FindByDomain(ctx context.Context, domain string) (*site.Site, error) {
	return r.findOne(ctx, "domain = ?", site.NormalizeHost(domain))
}

func (r *GormSiteRepository) findOne(ctx context.Context, query string, args ...any) (*site.Site, error) {
	var model models.SiteModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists sites with paging. Filter key "status" narrows by status.
func (r *GormSiteRepository) FindAll(ctx context.Context, filter shared.Filter) ([]site.Site, error) {
	var rows []models.SiteModel
	query := applyPaging(r.filtered(ctx, filter), filter, siteSort)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	sites := make([]site.Site, len(rows))
	for i := range rows {
		sites[i] = *rows[i].ToDomain()
	}
	return sites, nil
}

// Count counts sites matching the filter
func (r *GormSiteRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, err
}

func (r *GormSiteRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.SiteModel{})
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where(`(code LIKE ? ESCAPE '\' OR name LIKE ? ESCAPE '\')`, p, p)
	}
	if status, ok := filter.Filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	return query
}

// FindActive returns all active sites ordered by code
func (r *GormSiteRepository) FindActive(ctx context.Context) ([]site.Site, error) {
	var rows []models.SiteModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", site.StatusActive).
		Order("code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	sites := make([]site.Site, len(rows))
	for i := range rows {
		sites[i] = *rows[i].ToDomain()
	}
	return sites, nil
}

// ExistsByCode checks whether a site code is taken
func (r *GormSiteRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SiteModel{}).
		Where("code = ?", strings.ToLower(strings.TrimSpace(code))).
		Count(&count).Error
	return count > 0, err
}

// Save creates or updates a site
func (r *GormSiteRepository) Save(ctx context.Context, s *site.Site) error {
	if err := r.db.WithContext(ctx).Save(models.SiteModelFromDomain(s)).Error; err != nil {
		return err
	}
	s.MarkPersisted()
	return nil
}

// Delete removes a site and its presentation rows
func (r *GormSiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.SiteThemeModel{}, &models.SiteConfigModel{}, &models.SiteSlideModel{}} {
			if err := tx.Where("site_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		result := tx.Delete(&models.SiteModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// GormThemeRepository implements site.ThemeRepository using GORM
type GormThemeRepository struct {
	db *gorm.DB
}

// NewGormThemeRepository creates a new GormThemeRepository
func NewGormThemeRepository(db *gorm.DB) *GormThemeRepository {
	return &GormThemeRepository{db: db}
}

// FindBySite returns the site's theme
func (r *GormThemeRepository) FindBySite(ctx context.Context, siteID uuid.UUID) (*site.Theme, error) {
	var model models.SiteThemeModel
	if err := r.db.WithContext(ctx).Where("site_id = ?", siteID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a theme
func (r *GormThemeRepository) Save(ctx context.Context, theme *site.Theme) error {
	return r.db.WithContext(ctx).Save(models.SiteThemeModelFromDomain(theme)).Error
}

// GormConfigRepository implements site.ConfigRepository using GORM
type GormConfigRepository struct {
	db *gorm.DB
}

// NewGormConfigRepository creates a new GormConfigRepository
func NewGormConfigRepository(db *gorm.DB) *GormConfigRepository {
	return &GormConfigRepository{db: db}
}

// FindBySite lists a site's settings ordered by key
func (r *GormConfigRepository) FindBySite(ctx context.Context, siteID uuid.UUID) ([]site.Config, error) {
	var rows []models.SiteConfigModel
	if err := r.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("config_key ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	configs := make([]site.Config, len(rows))
	for i := range rows {
		configs[i] = *rows[i].ToDomain()
	}
	return configs, nil
}

// FindByKey finds one setting
func (r *GormConfigRepository) FindByKey(ctx context.Context, siteID uuid.UUID, key string) (*site.Config, error) {
	var model models.SiteConfigModel
	if err := r.db.WithContext(ctx).
		Where("site_id = ? AND config_key = ?", siteID, key).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a setting
func (r *GormConfigRepository) Save(ctx context.Context, cfg *site.Config) error {
	return r.db.WithContext(ctx).Save(models.SiteConfigModelFromDomain(cfg)).Error
}

// Delete removes a setting
func (r *GormConfigRepository) Delete(ctx context.Context, siteID uuid.UUID, key string) error {
	result := r.db.WithContext(ctx).
		Where("site_id = ? AND config_key = ?", siteID, key).
		Delete(&models.SiteConfigModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormSlideRepository implements site.SlideRepository using GORM
type GormSlideRepository struct {
	db *gorm.DB
}

// NewGormSlideRepository creates a new GormSlideRepository
func NewGormSlideRepository(db *gorm.DB) *GormSlideRepository {
	return &GormSlideRepository{db: db}
}

// FindByID finds a slide of a site
func (r *GormSlideRepository) FindByID(ctx context.Context, siteID, id uuid.UUID) (*site.Slide, error) {
	var model models.SiteSlideModel
	if err := r.db.WithContext(ctx).
		Where("site_id = ? AND id = ?", siteID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySite lists slides by sort order
func (r *GormSlideRepository) FindBySite(ctx context.Context, siteID uuid.UUID, activeOnly bool) ([]site.Slide, error) {
	query := r.db.WithContext(ctx).Scopes(sitescope.Scope(siteID))
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []models.SiteSlideModel
	if err := query.Order("sort_order ASC, created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	slides := make([]site.Slide, len(rows))
	for i := range rows {
		slides[i] = *rows[i].ToDomain()
	}
	return slides, nil
}

// Save creates or updates a slide
func (r *GormSlideRepository) Save(ctx context.Context, slide *site.Slide) error {
	return r.db.WithContext(ctx).Save(models.SiteSlideModelFromDomain(slide)).Error
}

// Delete removes a slide
func (r *GormSlideRepository) Delete(ctx context.Context, siteID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("site_id = ? AND id = ?", siteID, id).
		Delete(&models.SiteSlideModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var (
	_ site.SiteRepository   = (*GormSiteRepository)(nil)
	_ site.ThemeRepository  = (*GormThemeRepository)(nil)
	_ site.ConfigRepository = (*GormConfigRepository)(nil)
	_ site.SlideRepository  = (*GormSlideRepository)(nil)
)
