package models

import (
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/Marusmurong/mall-sub000/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingAddressModel is embedded in orders with the ship_ prefix
type ShippingAddressModel struct {
	RecipientName string `gorm:"type:varchar(100)"`
	Phone         string `gorm:"type:varchar(50)"`
	Line1         string `gorm:"type:varchar(255)"`
	Line2         string `gorm:"type:varchar(255)"`
	City          string `gorm:"type:varchar(100)"`
	State         string `gorm:"type:varchar(100)"`
	PostalCode    string `gorm:"type:varchar(20)"`
	Country       string `gorm:"type:varchar(2)"`
}

// OrderModel is the persistence model for the Order aggregate root
type OrderModel struct {
	SiteAggregateModel
	OrderNumber      string               `gorm:"type:varchar(32);not null;uniqueIndex"`
	UserID           uuid.UUID            `gorm:"type:uuid;not null;index"`
	Status           trade.OrderStatus    `gorm:"type:varchar(20);not null;index"`
	Currency         string               `gorm:"type:varchar(10);not null"`
	Subtotal         decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	ShippingFee      decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Total            decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	ShippingAddress  ShippingAddressModel `gorm:"embedded;embeddedPrefix:ship_"`
	ContactEmail     string               `gorm:"type:varchar(200)"`
	Remark           string               `gorm:"type:text"`
	PaymentID        *uuid.UUID           `gorm:"type:uuid;index"`
	PaymentMethod    string               `gorm:"type:varchar(20)"`
	Carrier          string               `gorm:"type:varchar(100)"`
	TrackingNumber   string               `gorm:"type:varchar(100)"`
	CancelReason     string               `gorm:"type:varchar(500)"`
	RefundFromStatus trade.OrderStatus    `gorm:"type:varchar(20)"`
	PaidAt           *time.Time
	ShippedAt        *time.Time
	DeliveredAt      *time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time
	Items            []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *trade.Order {
	o := &trade.Order{
		SiteAggregateRoot: m.siteRoot(),
		OrderNumber:       m.OrderNumber,
		UserID:            m.UserID,
		Status:            m.Status,
		Currency:          valueobject.Currency(m.Currency),
		Subtotal:          m.Subtotal,
		ShippingFee:       m.ShippingFee,
		Total:             m.Total,
		ShippingAddress: trade.ShippingAddress{
			RecipientName: m.ShippingAddress.RecipientName,
			Phone:         m.ShippingAddress.Phone,
			Line1:         m.ShippingAddress.Line1,
			Line2:         m.ShippingAddress.Line2,
			City:          m.ShippingAddress.City,
			State:         m.ShippingAddress.State,
			PostalCode:    m.ShippingAddress.PostalCode,
			Country:       m.ShippingAddress.Country,
		},
		ContactEmail:     m.ContactEmail,
		Remark:           m.Remark,
		PaymentID:        m.PaymentID,
		PaymentMethod:    m.PaymentMethod,
		Carrier:          m.Carrier,
		TrackingNumber:   m.TrackingNumber,
		CancelReason:     m.CancelReason,
		RefundFromStatus: m.RefundFromStatus,
		PaidAt:           m.PaidAt,
		ShippedAt:        m.ShippedAt,
		DeliveredAt:      m.DeliveredAt,
		CompletedAt:      m.CompletedAt,
		CancelledAt:      m.CancelledAt,
		Items:            make([]trade.OrderItem, len(m.Items)),
	}
	for i := range m.Items {
		o.Items[i] = m.Items[i].ToDomain()
	}
	return o
}

// OrderModelFromDomain creates a persistence model from a domain Order
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	a := o.ShippingAddress
	m := &OrderModel{
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      o.Status,
		Currency:    string(o.Currency),
		Subtotal:    o.Subtotal,
		ShippingFee: o.ShippingFee,
		Total:       o.Total,
		ShippingAddress: ShippingAddressModel{
			RecipientName: a.RecipientName,
			Phone:         a.Phone,
			Line1:         a.Line1,
			Line2:         a.Line2,
			City:          a.City,
			State:         a.State,
			PostalCode:    a.PostalCode,
			Country:       a.Country,
		},
		ContactEmail:     o.ContactEmail,
		Remark:           o.Remark,
		PaymentID:        o.PaymentID,
		PaymentMethod:    o.PaymentMethod,
		Carrier:          o.Carrier,
		TrackingNumber:   o.TrackingNumber,
		CancelReason:     o.CancelReason,
		RefundFromStatus: o.RefundFromStatus,
		PaidAt:           o.PaidAt,
		ShippedAt:        o.ShippedAt,
		DeliveredAt:      o.DeliveredAt,
		CompletedAt:      o.CompletedAt,
		CancelledAt:      o.CancelledAt,
		Items:            make([]OrderItemModel, len(o.Items)),
	}
	m.SiteAggregateModel = siteAggregateFrom(o.SiteAggregateRoot)
	for i := range o.Items {
		m.Items[i] = OrderItemModelFromDomain(&o.Items[i], o.ID)
	}
	return m
}

// OrderItemModel is the persistence model for an order line
type OrderItemModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	GoodsID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	GoodsName string          `gorm:"type:varchar(200);not null"`
	SKU       string          `gorm:"column:sku;type:varchar(64)"`
	ImageURL  string          `gorm:"type:varchar(1000)"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Quantity  int             `gorm:"not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem
func (m *OrderItemModel) ToDomain() trade.OrderItem {
	return trade.OrderItem{
		ID:        m.ID,
		OrderID:   m.OrderID,
		GoodsID:   m.GoodsID,
		GoodsName: m.GoodsName,
		SKU:       m.SKU,
		ImageURL:  m.ImageURL,
		UnitPrice: m.UnitPrice,
		Quantity:  m.Quantity,
		Subtotal:  m.Subtotal,
	}
}

// OrderItemModelFromDomain creates a persistence model from a domain OrderItem
func OrderItemModelFromDomain(item *trade.OrderItem, orderID uuid.UUID) OrderItemModel {
	return OrderItemModel{
		ID:        item.ID,
		OrderID:   orderID,
		GoodsID:   item.GoodsID,
		GoodsName: item.GoodsName,
		SKU:       item.SKU,
		ImageURL:  item.ImageURL,
		UnitPrice: item.UnitPrice,
		Quantity:  item.Quantity,
		Subtotal:  item.Subtotal,
	}
}

// OrderLogModel is one audit row of an order status change. Rows are
// append-only.
type OrderLogModel struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	FromStatus trade.OrderStatus `gorm:"type:varchar(20)"`
	ToStatus   trade.OrderStatus `gorm:"type:varchar(20);not null"`
	Operator   string            `gorm:"type:varchar(100);not null"`
	Note       string            `gorm:"type:varchar(500)"`
	CreatedAt  time.Time         `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (OrderLogModel) TableName() string {
	return "order_logs"
}

// ToDomain converts the persistence model to a domain OrderLog
func (m *OrderLogModel) ToDomain() trade.OrderLog {
	return trade.OrderLog{
		ID:         m.ID,
		OrderID:    m.OrderID,
		FromStatus: m.FromStatus,
		ToStatus:   m.ToStatus,
		Operator:   m.Operator,
		Note:       m.Note,
		CreatedAt:  m.CreatedAt,
	}
}

// OrderLogModelFromDomain creates a persistence model from a domain OrderLog
func OrderLogModelFromDomain(l *trade.OrderLog) *OrderLogModel {
	return &OrderLogModel{
		ID:         l.ID,
		OrderID:    l.OrderID,
		FromStatus: l.FromStatus,
		ToStatus:   l.ToStatus,
		Operator:   l.Operator,
		Note:       l.Note,
		CreatedAt:  l.CreatedAt,
	}
}

// RefundDetailModel is the persistence model for a refund request
type RefundDetailModel struct {
	BaseModel
	OrderID          uuid.UUID          `gorm:"type:uuid;not null;index"`
	PaymentID        *uuid.UUID         `gorm:"type:uuid;index"`
	Amount           decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	Currency         string             `gorm:"type:varchar(10);not null"`
	Reason           string             `gorm:"type:varchar(500)"`
	Status           trade.RefundStatus `gorm:"type:varchar(20);not null;index"`
	AdminNote        string             `gorm:"type:varchar(500)"`
	ExternalRefundID string             `gorm:"type:varchar(128)"`
	FailureReason    string             `gorm:"type:varchar(500)"`
	ProcessedAt      *time.Time
}

// TableName returns the table name for GORM
func (RefundDetailModel) TableName() string {
	return "refund_details"
}

// ToDomain converts the persistence model to a domain RefundDetail
func (m *RefundDetailModel) ToDomain() *trade.RefundDetail {
	return &trade.RefundDetail{
		BaseEntity:       m.BaseModel.entity(),
		OrderID:          m.OrderID,
		PaymentID:        m.PaymentID,
		Amount:           m.Amount,
		Currency:         valueobject.Currency(m.Currency),
		Reason:           m.Reason,
		Status:           m.Status,
		AdminNote:        m.AdminNote,
		ExternalRefundID: m.ExternalRefundID,
		FailureReason:    m.FailureReason,
		ProcessedAt:      m.ProcessedAt,
	}
}

// RefundDetailModelFromDomain creates a persistence model from a domain RefundDetail
func RefundDetailModelFromDomain(r *trade.RefundDetail) *RefundDetailModel {
	m := &RefundDetailModel{
		OrderID:          r.OrderID,
		PaymentID:        r.PaymentID,
		Amount:           r.Amount,
		Currency:         string(r.Currency),
		Reason:           r.Reason,
		Status:           r.Status,
		AdminNote:        r.AdminNote,
		ExternalRefundID: r.ExternalRefundID,
		FailureReason:    r.FailureReason,
		ProcessedAt:      r.ProcessedAt,
	}
	m.BaseModel = baseFrom(r.BaseEntity)
	return m
}
