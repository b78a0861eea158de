package payment

import (
	"context"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderPort is the slice of the order lifecycle payments drive
type OrderPort interface {
	// PayableOrder returns a pending order owned by the user on the site
	PayableOrder(ctx context.Context, siteID, userID, orderID uuid.UUID) (*trade.Order, error)
	// MarkPaid moves the order to paid; repeated calls for the same payment are no-ops
	MarkPaid(ctx context.Context, orderID, paymentID uuid.UUID, method string) error
	// RefundLatePayment opens a refund for a payment the order no longer accepts
	RefundLatePayment(ctx context.Context, orderID, paymentID uuid.UUID, amount decimal.Decimal, method string) error
}

// Config holds payment service settings
type Config struct {
	ExpireAfter time.Duration
	ReturnURL   string
	CancelURL   string
	// WebhookDedupeTTL is how long a provider event id is remembered
	WebhookDedupeTTL time.Duration
}

// DefaultConfig returns the default payment service settings
func DefaultConfig() Config {
	return Config{
		ExpireAfter:      30 * time.Minute,
		WebhookDedupeTTL: 72 * time.Hour,
	}
}
