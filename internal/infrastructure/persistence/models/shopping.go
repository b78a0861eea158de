package models

import (
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/Marusmurong/mall-sub000/internal/domain/shopping"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartModel is the persistence model for the Cart aggregate root
type CartModel struct {
	SiteAggregateModel
	UserID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Currency string          `gorm:"type:varchar(10);not null"`
	Items    []CartItemModel `gorm:"foreignKey:CartID;references:ID"`
}

// TableName returns the table name for GORM
func (CartModel) TableName() string {
	return "carts"
}

// ToDomain converts the persistence model to a domain Cart
func (m *CartModel) ToDomain() *shopping.Cart {
	c := &shopping.Cart{
		SiteAggregateRoot: m.siteRoot(),
		UserID:            m.UserID,
		Currency:          valueobject.Currency(m.Currency),
		Items:             make([]shopping.CartItem, len(m.Items)),
	}
	for i := range m.Items {
		c.Items[i] = m.Items[i].ToDomain()
	}
	return c
}

// CartModelFromDomain creates a persistence model from a domain Cart
func CartModelFromDomain(c *shopping.Cart) *CartModel {
	m := &CartModel{
		UserID:   c.UserID,
		Currency: string(c.Currency),
		Items:    make([]CartItemModel, len(c.Items)),
	}
	m.SiteAggregateModel = siteAggregateFrom(c.SiteAggregateRoot)
	for i := range c.Items {
		m.Items[i] = CartItemModelFromDomain(&c.Items[i], c.ID)
	}
	return m
}

// CartItemModel is the persistence model for a cart line
type CartItemModel struct {
	BaseModel
	CartID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	GoodsID   uuid.UUID       `gorm:"type:uuid;not null"`
	GoodsName string          `gorm:"type:varchar(200);not null"`
	SKU       string          `gorm:"column:sku;type:varchar(64)"`
	ImageURL  string          `gorm:"type:varchar(1000)"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Quantity  int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartItemModel) TableName() string {
	return "cart_items"
}

// ToDomain converts the persistence model to a domain CartItem
func (m *CartItemModel) ToDomain() shopping.CartItem {
	return shopping.CartItem{
		BaseEntity: m.BaseModel.entity(),
		CartID:     m.CartID,
		GoodsID:    m.GoodsID,
		GoodsName:  m.GoodsName,
		SKU:        m.SKU,
		ImageURL:   m.ImageURL,
		UnitPrice:  m.UnitPrice,
		Quantity:   m.Quantity,
	}
}

// CartItemModelFromDomain creates a persistence model from a domain CartItem
func CartItemModelFromDomain(item *shopping.CartItem, cartID uuid.UUID) CartItemModel {
	m := CartItemModel{
		CartID:    cartID,
		GoodsID:   item.GoodsID,
		GoodsName: item.GoodsName,
		SKU:       item.SKU,
		ImageURL:  item.ImageURL,
		UnitPrice: item.UnitPrice,
		Quantity:  item.Quantity,
	}
	m.BaseModel = baseFrom(item.BaseEntity)
	return m
}

// WishlistModel is the persistence model for the Wishlist aggregate root
type WishlistModel struct {
	SiteAggregateModel
	UserID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	Name        string              `gorm:"type:varchar(100);not null"`
	Description string              `gorm:"type:text"`
	ShareToken  *string             `gorm:"type:varchar(64);uniqueIndex"`
	Public      bool                `gorm:"not null"`
	Items       []WishlistItemModel `gorm:"foreignKey:WishlistID;references:ID"`
}

// TableName returns the table name for GORM
func (WishlistModel) TableName() string {
	return "wishlists"
}

// ToDomain converts the persistence model to a domain Wishlist
func (m *WishlistModel) ToDomain() *shopping.Wishlist {
	w := &shopping.Wishlist{
		SiteAggregateRoot: m.siteRoot(),
		UserID:            m.UserID,
		Name:              m.Name,
		Description:       m.Description,
		Public:            m.Public,
		Items:             make([]shopping.WishlistItem, len(m.Items)),
	}
	if m.ShareToken != nil {
		w.ShareToken = *m.ShareToken
	}
	for i := range m.Items {
		w.Items[i] = m.Items[i].ToDomain()
	}
	return w
}

// WishlistModelFromDomain creates a persistence model from a domain Wishlist.
// An empty share token is stored as NULL so the unique index ignores it.
func WishlistModelFromDomain(w *shopping.Wishlist) *WishlistModel {
	m := &WishlistModel{
		UserID:      w.UserID,
		Name:        w.Name,
		Description: w.Description,
		Public:      w.Public,
		Items:       make([]WishlistItemModel, len(w.Items)),
	}
	if w.ShareToken != "" {
		token := w.ShareToken
		m.ShareToken = &token
	}
	m.SiteAggregateModel = siteAggregateFrom(w.SiteAggregateRoot)
	for i := range w.Items {
		m.Items[i] = WishlistItemModelFromDomain(&w.Items[i])
		m.Items[i].WishlistID = w.ID
	}
	return m
}

// WishlistItemModel is the persistence model for a wishlist item, including
// the payment mirror columns
type WishlistItemModel struct {
	BaseModel
	WishlistID    uuid.UUID                  `gorm:"type:uuid;not null;index"`
	GoodsID       uuid.UUID                  `gorm:"type:uuid;not null"`
	GoodsName     string                     `gorm:"type:varchar(200);not null"`
	UnitPrice     decimal.Decimal            `gorm:"type:decimal(18,2);not null"`
	Currency      string                     `gorm:"type:varchar(10);not null"`
	Quantity      int                        `gorm:"not null"`
	Note          string                     `gorm:"type:varchar(500)"`
	PaymentStatus shopping.ItemPaymentStatus `gorm:"type:varchar(20);not null;default:'none'"`
	PaymentID     *uuid.UUID                 `gorm:"type:uuid;index"`
	PurchasedBy   *uuid.UUID                 `gorm:"type:uuid"`
	PurchaserName string                     `gorm:"type:varchar(100)"`
	PurchasedAt   *time.Time
}

// TableName returns the table name for GORM
func (WishlistItemModel) TableName() string {
	return "wishlist_items"
}

// ToDomain converts the persistence model to a domain WishlistItem
func (m *WishlistItemModel) ToDomain() shopping.WishlistItem {
	return shopping.WishlistItem{
		BaseEntity:    m.BaseModel.entity(),
		WishlistID:    m.WishlistID,
		GoodsID:       m.GoodsID,
		GoodsName:     m.GoodsName,
		UnitPrice:     m.UnitPrice,
		Currency:      valueobject.Currency(m.Currency),
		Quantity:      m.Quantity,
		Note:          m.Note,
		PaymentStatus: m.PaymentStatus,
		PaymentID:     m.PaymentID,
		PurchasedBy:   m.PurchasedBy,
		PurchaserName: m.PurchaserName,
		PurchasedAt:   m.PurchasedAt,
	}
}

// WishlistItemModelFromDomain creates a persistence model from a domain WishlistItem
func WishlistItemModelFromDomain(item *shopping.WishlistItem) WishlistItemModel {
	m := WishlistItemModel{
		WishlistID:    item.WishlistID,
		GoodsID:       item.GoodsID,
		GoodsName:     item.GoodsName,
		UnitPrice:     item.UnitPrice,
		Currency:      string(item.Currency),
		Quantity:      item.Quantity,
		Note:          item.Note,
		PaymentStatus: item.PaymentStatus,
		PaymentID:     item.PaymentID,
		PurchasedBy:   item.PurchasedBy,
		PurchaserName: item.PurchaserName,
		PurchasedAt:   item.PurchasedAt,
	}
	m.BaseModel = baseFrom(item.BaseEntity)
	return m
}
