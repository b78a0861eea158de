package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/Marusmurong/mall-sub000/internal/domain/identity"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/persistence/models"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/persistence/sitescope"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a user by email within a site
func (r *GormUserRepository) FindByEmail(ctx context.Context, siteID uuid.UUID, email string) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("site_id = ? AND email = ?", siteID, strings.ToLower(strings.TrimSpace(email))).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByEmail checks if an email is registered on a site
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, siteID uuid.UUID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("site_id = ? AND email = ?", siteID, strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, err
}

// FindAllForSite lists users of a site with paging
func (r *GormUserRepository) FindAllForSite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) ([]identity.User, error) {
	var rows []models.UserModel
	query := applyPaging(r.filtered(ctx, siteID, filter), filter, userSort)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	users := make([]identity.User, len(rows))
	for i := range rows {
		users[i] = *rows[i].ToDomain()
	}
	return users, nil
}

// CountForSite counts users of a site matching the filter
func (r *GormUserRepository) CountForSite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.filtered(ctx, siteID, filter).Count(&count).Error
	return count, err
}

func (r *GormUserRepository) filtered(ctx context.Context, siteID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.UserModel{}).Scopes(sitescope.Scope(siteID))
	if filter.Search != "" {
		p := likePattern(strings.ToLower(filter.Search))
		query = query.Where(`(email LIKE ? ESCAPE '\' OR LOWER(display_name) LIKE ? ESCAPE '\')`, p, p)
	}
	if v, ok := filter.Filters["role"]; ok && v != "" {
		query = query.Where("role = ?", v)
	}
	if v, ok := filter.Filters["status"]; ok && v != "" {
		query = query.Where("status = ?", v)
	}
	return query
}

// Save creates or updates a user
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	if err := r.db.WithContext(ctx).Save(models.UserModelFromDomain(user)).Error; err != nil {
		return err
	}
	user.MarkPersisted()
	return nil
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
