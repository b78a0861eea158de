package trade

import (
	"context"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockKeeper reads goods and moves stock atomically
type StockKeeper interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Goods, error)
	DeductStock(ctx context.Context, id uuid.UUID, quantity int) error
	RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error
}

// SettingsReader reads site key/value settings
type SettingsReader interface {
	FindByKey(ctx context.Context, siteID uuid.UUID, key string) (*site.Config, error)
}

// RefundExecutor returns money through the processor that took it.
// It returns the processor's refund reference, which is set alongside an
// error when the money moved but the payment could not be updated.
type RefundExecutor interface {
	RefundPayment(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal, reason string) (string, error)
}

// Site setting keys read at checkout
const (
	ConfigShippingFlatFee       = "shipping.flat_fee"
	ConfigShippingFreeThreshold = "shipping.free_threshold"
)
