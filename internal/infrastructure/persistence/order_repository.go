package persistence

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/trade"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/persistence/models"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/persistence/sitescope"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) findOne(ctx context.Context, query string, args ...any) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).Preload("Items").Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByIDForSite finds an order by ID within a site
func (r *GormOrderRepository) FindByIDForSite(ctx context.Context, siteID, id uuid.UUID) (*trade.Order, error) {
	return r.findOne(ctx, "site_id = ? AND id = ?", siteID, id)
}

// FindByOrderNumber finds an order by its number within a site
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, siteID uuid.UUID, orderNumber string) (*trade.Order, error) {
	return r.findOne(ctx, "site_id = ? AND order_number = ?", siteID, orderNumber)
}

// FindAllForSite lists orders of a site with paging
func (r *GormOrderRepository) FindAllForSite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) ([]trade.Order, error) {
	var rows []models.OrderModel
	query := r.filtered(r.db.WithContext(ctx).Preload("Items").Model(&models.OrderModel{}), siteID, filter)
	if err := applyPaging(query, filter, orderSort).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toOrders(rows), nil
}

// CountForSite counts orders of a site matching the filter
func (r *GormOrderRepository) CountForSite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.filtered(r.db.WithContext(ctx).Model(&models.OrderModel{}), siteID, filter).Count(&count).Error
	return count, err
}

func (r *GormOrderRepository) filtered(query *gorm.DB, siteID uuid.UUID, filter shared.Filter) *gorm.DB {
	query = query.Scopes(sitescope.Scope(siteID))
	if filter.Search != "" {
		query = query.Where(`order_number LIKE ? ESCAPE '\'`, likePattern(filter.Search))
	}
	if v, ok := filter.Filters["status"]; ok && v != "" {
		query = query.Where("status = ?", v)
	}
	if v, ok := filter.Filters["user_id"]; ok && v != nil {
		query = query.Where("user_id = ?", v)
	}
	if v, ok := filter.Filters["from"].(time.Time); ok && !v.IsZero() {
		query = query.Where("created_at >= ?", v)
	}
	if v, ok := filter.Filters["to"].(time.Time); ok && !v.IsZero() {
		query = query.Where("created_at < ?", v)
	}
	return query
}

// FindPendingBefore returns unpaid orders created before cutoff, oldest first
func (r *GormOrderRepository) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]trade.Order, error) {
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND created_at < ?", trade.OrderStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toOrders(rows), nil
}

// Save writes the order, replaces its items and appends pending logs
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		return r.saveChildren(tx, order, model)
	})
	if err != nil {
		return err
	}
	order.ClearPendingLogs()
	order.MarkPersisted()
	return nil
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *trade.Order) error {
	if order.PersistedVersion() == 0 {
		return r.Save(ctx, order)
	}
	return r.saveLocked(ctx, order, nil)
}

// SaveWithRefund writes the order under the version check and the refund
// in one transaction, so neither is stored without the other
func (r *GormOrderRepository) SaveWithRefund(ctx context.Context, order *trade.Order, refund *trade.RefundDetail) error {
	return r.saveLocked(ctx, order, refund)
}

func (r *GormOrderRepository) saveLocked(ctx context.Context, order *trade.Order, refund *trade.RefundDetail) error {
	expected := order.PersistedVersion()
	if expected > 0 {
		nextVersion(order)
	}
	model := models.OrderModelFromDomain(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if expected == 0 {
			if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
				return err
			}
		} else if err := updateVersioned(tx, model, order.ID, expected); err != nil {
			return err
		}
		if err := r.saveChildren(tx, order, model); err != nil {
			return err
		}
		if refund == nil {
			return nil
		}
		return tx.Save(models.RefundDetailModelFromDomain(refund)).Error
	})
	if err != nil {
		return err
	}
	order.ClearPendingLogs()
	order.MarkPersisted()
	return nil
}

func (r *GormOrderRepository) saveChildren(tx *gorm.DB, order *trade.Order, model *models.OrderModel) error {
	ids := make([]uuid.UUID, len(model.Items))
	for i := range model.Items {
		ids[i] = model.Items[i].ID
	}
	query := tx.Where("order_id = ?", order.ID)
	if len(ids) > 0 {
		query = query.Where("id NOT IN ?", ids)
	}
	if err := query.Delete(&models.OrderItemModel{}).Error; err != nil {
		return err
	}
	for i := range model.Items {
		if err := tx.Save(&model.Items[i]).Error; err != nil {
			return err
		}
	}

	logs := order.PendingLogs()
	for i := range logs {
		logs[i].OrderID = order.ID
		if err := tx.Create(models.OrderLogModelFromDomain(&logs[i])).Error; err != nil {
			return err
		}
	}
	return nil
}

// GenerateOrderNumber returns ORD-YYYYMMDD-XXXXXX with a random suffix,
// retrying on the rare collision
func (r *GormOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	date := time.Now().UTC().Format("20060102")
	for range 5 {
		suffix, err := randomCode(6)
		if err != nil {
			return "", err
		}
		number := fmt.Sprintf("ORD-%s-%s", date, suffix)
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
			Where("order_number = ?", number).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return number, nil
		}
	}
	return "", shared.NewDomainError("ORDER_NUMBER_EXHAUSTED", "Could not allocate an order number")
}

func randomCode(n int) (string, error) {
	buf := make([]byte, n)
	size := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("generate order number: %w", err)
		}
		buf[i] = orderNumberAlphabet[idx.Int64()]
	}
	return string(buf), nil
}

// FindLogs returns the audit trail of an order, oldest first
func (r *GormOrderRepository) FindLogs(ctx context.Context, orderID uuid.UUID) ([]trade.OrderLog, error) {
	var rows []models.OrderLogModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]trade.OrderLog, len(rows))
	for i := range rows {
		logs[i] = rows[i].ToDomain()
	}
	return logs, nil
}

func toOrders(rows []models.OrderModel) []trade.Order {
	orders := make([]trade.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders
}

// GormRefundRepository implements trade.RefundRepository using GORM
type GormRefundRepository struct {
	db *gorm.DB
}

// NewGormRefundRepository creates a new GormRefundRepository
func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// FindByID finds a refund by its ID
func (r *GormRefundRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.RefundDetail, error) {
	var model models.RefundDetailModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder lists refunds of an order, newest first
func (r *GormRefundRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]trade.RefundDetail, error) {
	var rows []models.RefundDetailModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRefunds(rows), nil
}

// FindOpen lists requested or failed refunds of a site's orders
func (r *GormRefundRepository) FindOpen(ctx context.Context, siteID uuid.UUID, filter shared.Filter) ([]trade.RefundDetail, error) {
	filter.Normalize()
	var rows []models.RefundDetailModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []trade.RefundStatus{trade.RefundStatusRequested, trade.RefundStatusFailed}).
		Where("order_id IN (?)", r.db.Model(&models.OrderModel{}).Select("id").Where("site_id = ?", siteID)).
		Order("created_at ASC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRefunds(rows), nil
}

func toRefunds(rows []models.RefundDetailModel) []trade.RefundDetail {
	refunds := make([]trade.RefundDetail, len(rows))
	for i := range rows {
		refunds[i] = *rows[i].ToDomain()
	}
	return refunds
}

var (
	_ trade.OrderRepository  = (*GormOrderRepository)(nil)
	_ trade.RefundRepository = (*GormRefundRepository)(nil)
)
