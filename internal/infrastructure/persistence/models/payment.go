package models

import (
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for the shared payment row.
// Method-specific data lives in one detail table keyed by payment_id.
type PaymentModel struct {
	SiteAggregateModel
	UserID         *uuid.UUID      `gorm:"type:uuid;index"`
	OrderID        *uuid.UUID      `gorm:"type:uuid;index"`
	WishlistItemID *uuid.UUID      `gorm:"type:uuid;index"`
	Method         payment.Method  `gorm:"type:varchar(20);not null;index:idx_payment_method_external"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Currency       string          `gorm:"type:varchar(10);not null"`
	Status         payment.Status  `gorm:"type:varchar(20);not null;index"`
	ExternalID     string          `gorm:"type:varchar(128);index:idx_payment_method_external"`
	FailureReason  string          `gorm:"type:varchar(500)"`
	RefundedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CompletedAt    *time.Time
	ExpiresAt      *time.Time `gorm:"index"`

	USDT       *USDTPaymentDetailModel       `gorm:"foreignKey:PaymentID;references:ID"`
	PayPal     *PayPalPaymentDetailModel     `gorm:"foreignKey:PaymentID;references:ID"`
	CreditCard *CreditCardPaymentDetailModel `gorm:"foreignKey:PaymentID;references:ID"`
	Coinbase   *CoinbasePaymentDetailModel   `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *payment.Payment {
	p := &payment.Payment{
		SiteAggregateRoot: m.siteRoot(),
		UserID:            m.UserID,
		OrderID:           m.OrderID,
		WishlistItemID:    m.WishlistItemID,
		Method:            m.Method,
		Amount:            m.Amount,
		Currency:          valueobject.Currency(m.Currency),
		Status:            m.Status,
		ExternalID:        m.ExternalID,
		FailureReason:     m.FailureReason,
		RefundedAmount:    m.RefundedAmount,
		CompletedAt:       m.CompletedAt,
		ExpiresAt:         m.ExpiresAt,
	}
	if m.USDT != nil {
		p.USDT = m.USDT.ToDomain()
	}
	if m.PayPal != nil {
		p.PayPal = m.PayPal.ToDomain()
	}
	if m.CreditCard != nil {
		p.CreditCard = m.CreditCard.ToDomain()
	}
	if m.Coinbase != nil {
		p.Coinbase = m.Coinbase.ToDomain()
	}
	return p
}

// PaymentModelFromDomain creates a persistence model from a domain Payment,
// including whichever detail is populated
func PaymentModelFromDomain(p *payment.Payment) *PaymentModel {
	m := &PaymentModel{
		UserID:         p.UserID,
		OrderID:        p.OrderID,
		WishlistItemID: p.WishlistItemID,
		Method:         p.Method,
		Amount:         p.Amount,
		Currency:       string(p.Currency),
		Status:         p.Status,
		ExternalID:     p.ExternalID,
		FailureReason:  p.FailureReason,
		RefundedAmount: p.RefundedAmount,
		CompletedAt:    p.CompletedAt,
		ExpiresAt:      p.ExpiresAt,
	}
	m.SiteAggregateModel = siteAggregateFrom(p.SiteAggregateRoot)
	if p.USDT != nil {
		m.USDT = USDTPaymentDetailModelFromDomain(p.ID, p.USDT)
	}
	if p.PayPal != nil {
		m.PayPal = PayPalPaymentDetailModelFromDomain(p.ID, p.PayPal)
	}
	if p.CreditCard != nil {
		m.CreditCard = CreditCardPaymentDetailModelFromDomain(p.ID, p.CreditCard)
	}
	if p.Coinbase != nil {
		m.Coinbase = CoinbasePaymentDetailModelFromDomain(p.ID, p.Coinbase)
	}
	return m
}

// USDTPaymentDetailModel stores the on-chain side of a USDT payment
type USDTPaymentDetailModel struct {
	PaymentID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Network        string          `gorm:"type:varchar(20);not null"`
	WalletAddress  string          `gorm:"type:varchar(128);not null"`
	TxHash         string          `gorm:"type:varchar(128);index"`
	FromAddress    string          `gorm:"type:varchar(128)"`
	AmountReceived decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	Confirmations  int             `gorm:"not null;default:0"`
	UpdatedAt      time.Time
}

// TableName returns the table name for GORM
func (USDTPaymentDetailModel) TableName() string {
	return "usdt_payment_details"
}

// ToDomain converts the persistence model to a domain USDTDetail
func (m *USDTPaymentDetailModel) ToDomain() *payment.USDTDetail {
	return &payment.USDTDetail{
		Network:        m.Network,
		WalletAddress:  m.WalletAddress,
		TxHash:         m.TxHash,
		FromAddress:    m.FromAddress,
		AmountReceived: m.AmountReceived,
		Confirmations:  m.Confirmations,
	}
}

// USDTPaymentDetailModelFromDomain creates a persistence model from a domain USDTDetail
func USDTPaymentDetailModelFromDomain(paymentID uuid.UUID, d *payment.USDTDetail) *USDTPaymentDetailModel {
	return &USDTPaymentDetailModel{
		PaymentID:      paymentID,
		Network:        d.Network,
		WalletAddress:  d.WalletAddress,
		TxHash:         d.TxHash,
		FromAddress:    d.FromAddress,
		AmountReceived: d.AmountReceived,
		Confirmations:  d.Confirmations,
	}
}

// PayPalPaymentDetailModel stores the PayPal order and capture references
type PayPalPaymentDetailModel struct {
	PaymentID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	PayPalOrderID string    `gorm:"column:paypal_order_id;type:varchar(64);index"`
	ApprovalURL   string    `gorm:"type:varchar(1000)"`
	PayerID       string    `gorm:"type:varchar(64)"`
	PayerEmail    string    `gorm:"type:varchar(200)"`
	CaptureID     string    `gorm:"type:varchar(64)"`
	UpdatedAt     time.Time
}

// TableName returns the table name for GORM
func (PayPalPaymentDetailModel) TableName() string {
	return "paypal_payment_details"
}

// ToDomain converts the persistence model to a domain PayPalDetail
func (m *PayPalPaymentDetailModel) ToDomain() *payment.PayPalDetail {
	return &payment.PayPalDetail{
		PayPalOrderID: m.PayPalOrderID,
		ApprovalURL:   m.ApprovalURL,
		PayerID:       m.PayerID,
		PayerEmail:    m.PayerEmail,
		CaptureID:     m.CaptureID,
	}
}

// PayPalPaymentDetailModelFromDomain creates a persistence model from a domain PayPalDetail
func PayPalPaymentDetailModelFromDomain(paymentID uuid.UUID, d *payment.PayPalDetail) *PayPalPaymentDetailModel {
	return &PayPalPaymentDetailModel{
		PaymentID:     paymentID,
		PayPalOrderID: d.PayPalOrderID,
		ApprovalURL:   d.ApprovalURL,
		PayerID:       d.PayerID,
		PayerEmail:    d.PayerEmail,
		CaptureID:     d.CaptureID,
	}
}

// CreditCardPaymentDetailModel stores the Stripe PaymentIntent references
type CreditCardPaymentDetailModel struct {
	PaymentID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	PaymentIntentID string    `gorm:"type:varchar(64);index"`
	ClientSecret    string    `gorm:"type:varchar(255)"`
	CardBrand       string    `gorm:"type:varchar(20)"`
	Last4           string    `gorm:"column:last4;type:varchar(4)"`
	UpdatedAt       time.Time
}

// TableName returns the table name for GORM
func (CreditCardPaymentDetailModel) TableName() string {
	return "credit_card_payment_details"
}

// ToDomain converts the persistence model to a domain CreditCardDetail
func (m *CreditCardPaymentDetailModel) ToDomain() *payment.CreditCardDetail {
	return &payment.CreditCardDetail{
		PaymentIntentID: m.PaymentIntentID,
		ClientSecret:    m.ClientSecret,
		CardBrand:       m.CardBrand,
		Last4:           m.Last4,
	}
}

// CreditCardPaymentDetailModelFromDomain creates a persistence model from a domain CreditCardDetail
func CreditCardPaymentDetailModelFromDomain(paymentID uuid.UUID, d *payment.CreditCardDetail) *CreditCardPaymentDetailModel {
	return &CreditCardPaymentDetailModel{
		PaymentID:       paymentID,
		PaymentIntentID: d.PaymentIntentID,
		ClientSecret:    d.ClientSecret,
		CardBrand:       d.CardBrand,
		Last4:           d.Last4,
	}
}

// CoinbasePaymentDetailModel stores the Coinbase Commerce charge references
type CoinbasePaymentDetailModel struct {
	PaymentID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChargeID   string    `gorm:"type:varchar(64);index"`
	ChargeCode string    `gorm:"type:varchar(32);index"`
	HostedURL  string    `gorm:"type:varchar(1000)"`
	ExpiresAt  *time.Time
	UpdatedAt  time.Time
}

// TableName returns the table name for GORM
func (CoinbasePaymentDetailModel) TableName() string {
	return "coinbase_payment_details"
}

// ToDomain converts the persistence model to a domain CoinbaseDetail
func (m *CoinbasePaymentDetailModel) ToDomain() *payment.CoinbaseDetail {
	return &payment.CoinbaseDetail{
		ChargeID:   m.ChargeID,
		ChargeCode: m.ChargeCode,
		HostedURL:  m.HostedURL,
		ExpiresAt:  m.ExpiresAt,
	}
}

// CoinbasePaymentDetailModelFromDomain creates a persistence model from a domain CoinbaseDetail
func CoinbasePaymentDetailModelFromDomain(paymentID uuid.UUID, d *payment.CoinbaseDetail) *CoinbasePaymentDetailModel {
	return &CoinbasePaymentDetailModel{
		PaymentID:  paymentID,
		ChargeID:   d.ChargeID,
		ChargeCode: d.ChargeCode,
		HostedURL:  d.HostedURL,
		ExpiresAt:  d.ExpiresAt,
	}
}

// WebhookLogModel is the audit row for a raw gateway callback
type WebhookLogModel struct {
	BaseModel
	Provider    payment.Method        `gorm:"type:varchar(20);not null;index"`
	EventID     string                `gorm:"type:varchar(128);index"`
	EventType   string                `gorm:"type:varchar(100)"`
	ExternalID  string                `gorm:"type:varchar(128)"`
	Payload     string                `gorm:"type:text;not null"`
	Headers     map[string]string     `gorm:"type:text;serializer:json"`
	Status      payment.WebhookStatus `gorm:"type:varchar(20);not null;index"`
	Error       string                `gorm:"type:text"`
	PaymentID   *uuid.UUID            `gorm:"type:uuid;index"`
	ProcessedAt *time.Time
}

// TableName returns the table name for GORM
func (WebhookLogModel) TableName() string {
	return "webhook_logs"
}

// ToDomain converts the persistence model to a domain WebhookLog
func (m *WebhookLogModel) ToDomain() *payment.WebhookLog {
	headers := m.Headers
	if headers == nil {
		headers = make(map[string]string)
	}
	return &payment.WebhookLog{
		BaseEntity:  m.BaseModel.entity(),
		Provider:    m.Provider,
		EventID:     m.EventID,
		EventType:   m.EventType,
		ExternalID:  m.ExternalID,
		Payload:     m.Payload,
		Headers:     headers,
		Status:      m.Status,
		Error:       m.Error,
		PaymentID:   m.PaymentID,
		ProcessedAt: m.ProcessedAt,
	}
}

// WebhookLogModelFromDomain creates a persistence model from a domain WebhookLog
func WebhookLogModelFromDomain(l *payment.WebhookLog) *WebhookLogModel {
	m := &WebhookLogModel{
		Provider:    l.Provider,
		EventID:     l.EventID,
		EventType:   l.EventType,
		ExternalID:  l.ExternalID,
		Payload:     l.Payload,
		Headers:     l.Headers,
		Status:      l.Status,
		Error:       l.Error,
		PaymentID:   l.PaymentID,
		ProcessedAt: l.ProcessedAt,
	}
	m.BaseModel = baseFrom(l.BaseEntity)
	return m
}
