package models

import (
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel holds the columns every storefront table has.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func baseFrom(e shared.BaseEntity) BaseModel {
	return BaseModel{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

func (m BaseModel) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

// AggregateModel adds the optimistic-lock version. Repositories update with
// WHERE version = PersistedVersion().
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

func aggregateFrom(a shared.BaseAggregateRoot) AggregateModel {
	return AggregateModel{BaseModel: baseFrom(a.BaseEntity), Version: a.Version}
}

// root rebuilds the aggregate base, marked as loaded at the stored version.
func (m AggregateModel) root() shared.BaseAggregateRoot {
	a := shared.BaseAggregateRoot{BaseEntity: m.entity(), Version: m.Version}
	a.MarkPersisted()
	return a
}

// SiteAggregateModel is an aggregate row owned by one site. The site_id
// column is what sitescope filters and guards on.
type SiteAggregateModel struct {
	AggregateModel
	SiteID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func siteAggregateFrom(s shared.SiteAggregateRoot) SiteAggregateModel {
	return SiteAggregateModel{AggregateModel: aggregateFrom(s.BaseAggregateRoot), SiteID: s.SiteID}
}

func (m SiteAggregateModel) siteRoot() shared.SiteAggregateRoot {
	return shared.SiteAggregateRoot{BaseAggregateRoot: m.root(), SiteID: m.SiteID}
}

// AllModels lists every model for AutoMigrate in sqlite mode and tests
func AllModels() []any {
	return []any{
		&SiteModel{}, &SiteThemeModel{}, &SiteConfigModel{}, &SiteSlideModel{},
		&GoodsCategoryModel{}, &GoodsModel{}, &GoodsImageModel{},
		&CartModel{}, &CartItemModel{}, &WishlistModel{}, &WishlistItemModel{},
		&OrderModel{}, &OrderItemModel{}, &OrderLogModel{}, &RefundDetailModel{},
		&PaymentModel{}, &USDTPaymentDetailModel{}, &PayPalPaymentDetailModel{},
		&CreditCardPaymentDetailModel{}, &CoinbasePaymentDetailModel{}, &WebhookLogModel{},
		&UserModel{},
	}
}
