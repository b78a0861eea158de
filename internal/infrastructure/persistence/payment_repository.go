package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/persistence/models"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/persistence/sitescope"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var openPaymentStatuses = []payment.Status{payment.StatusPending, payment.StatusProcessing}

// GormPaymentRepository implements payment.PaymentRepository using GORM.
// Each payment row carries at most one detail row in the table for its method.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("USDT").
		Preload("PayPal").
		Preload("CreditCard").
		Preload("Coinbase")
}

func (r *GormPaymentRepository) findOne(ctx context.Context, query string, args ...any) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := r.withDetails(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormPaymentRepository) findMany(query *gorm.DB) ([]payment.Payment, error) {
	var rows []models.PaymentModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]payment.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, nil
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByIDForSite finds a payment by ID within a site
func (r *GormPaymentRepository) FindByIDForSite(ctx context.Context, siteID, id uuid.UUID) (*payment.Payment, error) {
	return r.findOne(ctx, "site_id = ? AND id = ?", siteID, id)
}

// FindByExternalID finds the payment a gateway reference belongs to
func (r *GormPaymentRepository) FindByExternalID(ctx context.Context, method payment.Method, externalID string) (*payment.Payment, error) {
	if externalID == "" {
		return nil, payment.ErrPaymentNotFound
	}
	return r.findOne(ctx, "method = ? AND external_id = ?", method, externalID)
}

// FindByOrder lists every payment attempt of an order, newest first
func (r *GormPaymentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]payment.Payment, error) {
	return r.findMany(r.withDetails(ctx).Where("order_id = ?", orderID).Order("created_at DESC"))
}

// FindOpenByTarget returns the pending or processing payment for a target
func (r *GormPaymentRepository) FindOpenByTarget(ctx context.Context, target payment.Target) (*payment.Payment, error) {
	column := "order_id"
	if target.Type == payment.TargetWishlistItem {
		column = "wishlist_item_id"
	}
	var model models.PaymentModel
	err := r.withDetails(ctx).
		Where(column+" = ? AND status IN ?", target.ID, openPaymentStatuses).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForSite lists payments of a site with paging
func (r *GormPaymentRepository) FindAllForSite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) ([]payment.Payment, error) {
	query := r.filtered(r.withDetails(ctx).Model(&models.PaymentModel{}), siteID, filter)
	return r.findMany(applyPaging(query, filter, paymentSort))
}

// CountForSite counts payments of a site matching the filter
func (r *GormPaymentRepository) CountForSite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.filtered(r.db.WithContext(ctx).Model(&models.PaymentModel{}), siteID, filter).Count(&count).Error
	return count, err
}

func (r *GormPaymentRepository) filtered(query *gorm.DB, siteID uuid.UUID, filter shared.Filter) *gorm.DB {
	query = query.Scopes(sitescope.Scope(siteID))
	if v, ok := filter.Filters["status"]; ok && v != "" {
		query = query.Where("status = ?", v)
	}
	if v, ok := filter.Filters["method"]; ok && v != "" {
		query = query.Where("method = ?", v)
	}
	if v, ok := filter.Filters["order_id"]; ok && v != nil {
		query = query.Where("order_id = ?", v)
	}
	return query
}

// FindExpired returns open payments past their expiry, oldest first
func (r *GormPaymentRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]payment.Payment, error) {
	return r.findMany(r.withDetails(ctx).
		Where("status IN ? AND expires_at IS NOT NULL AND expires_at < ?", openPaymentStatuses, now).
		Order("expires_at ASC").
		Limit(limit))
}

// FindOpenBefore returns open payments of a method created before cutoff
func (r *GormPaymentRepository) FindOpenBefore(ctx context.Context, method payment.Method, cutoff time.Time, limit int) ([]payment.Payment, error) {
	return r.findMany(r.withDetails(ctx).
		Where("method = ? AND status IN ? AND created_at < ?", method, openPaymentStatuses, cutoff).
		Order("created_at ASC").
		Limit(limit))
}

// Save creates or updates a payment and its detail row
func (r *GormPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	model := models.PaymentModelFromDomain(p)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		return saveDetail(tx, model)
	})
	if err != nil {
		return err
	}
	p.MarkPersisted()
	return nil
}

// SaveWithLock saves with optimistic locking so a webhook and a client
// confirmation cannot both settle the same payment
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, p *payment.Payment) error {
	if p.PersistedVersion() == 0 {
		return r.Save(ctx, p)
	}
	expected := p.PersistedVersion()
	nextVersion(p)
	model := models.PaymentModelFromDomain(p)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(tx, model, p.ID, expected); err != nil {
			return err
		}
		return saveDetail(tx, model)
	})
	if err != nil {
		return err
	}
	p.MarkPersisted()
	return nil
}

func saveDetail(tx *gorm.DB, model *models.PaymentModel) error {
	now := time.Now()
	switch {
	case model.USDT != nil:
		model.USDT.UpdatedAt = now
		return tx.Save(model.USDT).Error
	case model.PayPal != nil:
		model.PayPal.UpdatedAt = now
		return tx.Save(model.PayPal).Error
	case model.CreditCard != nil:
		model.CreditCard.UpdatedAt = now
		return tx.Save(model.CreditCard).Error
	case model.Coinbase != nil:
		model.Coinbase.UpdatedAt = now
		return tx.Save(model.Coinbase).Error
	}
	return nil
}

// GormWebhookLogRepository implements payment.WebhookLogRepository using GORM
type GormWebhookLogRepository struct {
	db *gorm.DB
}

// NewGormWebhookLogRepository creates a new GormWebhookLogRepository
func NewGormWebhookLogRepository(db *gorm.DB) *GormWebhookLogRepository {
	return &GormWebhookLogRepository{db: db}
}

// FindByID finds a webhook log row
func (r *GormWebhookLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.WebhookLog, error) {
	var model models.WebhookLogModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists webhook logs, newest first
func (r *GormWebhookLogRepository) FindAll(ctx context.Context, filter shared.Filter) ([]payment.WebhookLog, error) {
	filter.Normalize()
	var rows []models.WebhookLogModel
	if err := r.filtered(ctx, filter).
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]payment.WebhookLog, len(rows))
	for i := range rows {
		logs[i] = *rows[i].ToDomain()
	}
	return logs, nil
}

// Count counts webhook logs matching the filter
func (r *GormWebhookLogRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, err
}

func (r *GormWebhookLogRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.WebhookLogModel{})
	if v, ok := filter.Filters["provider"]; ok && v != "" {
		query = query.Where("provider = ?", v)
	}
	if v, ok := filter.Filters["status"]; ok && v != "" {
		query = query.Where("status = ?", v)
	}
	return query
}

// Save creates or updates a webhook log row
func (r *GormWebhookLogRepository) Save(ctx context.Context, log *payment.WebhookLog) error {
	return r.db.WithContext(ctx).Save(models.WebhookLogModelFromDomain(log)).Error
}

var (
	_ payment.PaymentRepository    = (*GormPaymentRepository)(nil)
	_ payment.WebhookLogRepository = (*GormWebhookLogRepository)(nil)
)
