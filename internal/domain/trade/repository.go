package trade

import (
	"context"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderRepository persists orders, their items and audit logs.
//
// Filter keys: "status" (OrderStatus), "user_id" (uuid.UUID),
// "from" and "to" (time.Time on created_at). Search matches order number.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByIDForSite(ctx context.Context, siteID, id uuid.UUID) (*Order, error)
	FindByOrderNumber(ctx context.Context, siteID uuid.UUID, orderNumber string) (*Order, error)
	FindAllForSite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) ([]Order, error)
	CountForSite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (int64, error)
	// FindPendingBefore returns pending orders created before cutoff, across sites
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]Order, error)

	// Save inserts or updates the order, its items, and appends pending logs
	Save(ctx context.Context, order *Order) error
	// SaveWithLock is Save guarded by the aggregate version
	SaveWithLock(ctx context.Context, order *Order) error
	// SaveWithRefund is SaveWithLock plus the refund, committed together
	SaveWithRefund(ctx context.Context, order *Order, refund *RefundDetail) error

	// GenerateOrderNumber returns a new human-readable number (ORD-YYYYMMDD-XXXXXX)
	GenerateOrderNumber(ctx context.Context) (string, error)

	FindLogs(ctx context.Context, orderID uuid.UUID) ([]OrderLog, error)
}

// RefundRepository reads refund requests. They are written with their
// order through OrderRepository.SaveWithRefund.
type RefundRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*RefundDetail, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]RefundDetail, error)
	// FindOpen lists requested or failed refunds for the site's orders
	FindOpen(ctx context.Context, siteID uuid.UUID, filter shared.Filter) ([]RefundDetail, error)
}
