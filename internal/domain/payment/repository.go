package payment

import (
	"context"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// PaymentRepository persists payments with their method detail.
//
// Filter keys: "status" (Status), "method" (Method), "order_id" (uuid.UUID).
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByIDForSite(ctx context.Context, siteID, id uuid.UUID) (*Payment, error)
	FindByExternalID(ctx context.Context, method Method, externalID string) (*Payment, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error)
	// FindOpenByTarget returns the pending/processing payment for a target, if any
	FindOpenByTarget(ctx context.Context, target Target) (*Payment, error)
	FindAllForSite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) ([]Payment, error)
	CountForSite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (int64, error)
	// FindExpired returns open payments whose expires_at is before now
	FindExpired(ctx context.Context, now time.Time, limit int) ([]Payment, error)
	// FindOpenBefore returns open payments created before cutoff, for polling
	FindOpenBefore(ctx context.Context, method Method, cutoff time.Time, limit int) ([]Payment, error)
	Save(ctx context.Context, p *Payment) error
	SaveWithLock(ctx context.Context, p *Payment) error
}

// WebhookLogRepository persists webhook audit rows.
//
// Filter keys: "provider" (Method), "status" (WebhookStatus).
type WebhookLogRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*WebhookLog, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]WebhookLog, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, log *WebhookLog) error
}
