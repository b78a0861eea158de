package payment

import (
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest opens a payment for an order or a wishlist item
type CreatePaymentRequest struct {
	Method         string     `json:"method" binding:"required,oneof=usdt paypal credit_card coinbase"`
	OrderID        *uuid.UUID `json:"order_id"`
	WishlistItemID *uuid.UUID `json:"wishlist_item_id"`
	// PurchaserName is shown to the wishlist owner
	PurchaserName string `json:"purchaser_name" binding:"max=100"`
}

// ProcessPaymentRequest carries the customer's confirmation
type ProcessPaymentRequest struct {
	TxHash          string `json:"tx_hash" binding:"max=80"`
	PayerID         string `json:"payer_id" binding:"max=64"`
	PaymentMethodID string `json:"payment_method_id" binding:"max=255"`
}

// PaymentListFilter represents admin list options
type PaymentListFilter struct {
	Status   string     `form:"status" binding:"omitempty,oneof=pending processing completed failed cancelled refunded"`
	Method   string     `form:"method" binding:"omitempty,oneof=usdt paypal credit_card coinbase"`
	OrderID  *uuid.UUID `form:"order_id"`
	Search   string     `form:"search"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// WebhookLogFilter represents webhook log list options
type WebhookLogFilter struct {
	Provider string `form:"provider" binding:"omitempty,oneof=usdt paypal credit_card coinbase"`
	Status   string `form:"status" binding:"omitempty,oneof=received processed ignored duplicate rejected failed"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PaymentResponse represents a payment. Secrets of the detail tables are
// left out except the client secret the browser needs for card payments.
type PaymentResponse struct {
	ID             uuid.UUID       `json:"id"`
	Method         string          `json:"method"`
	Status         string          `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
	OrderID        *uuid.UUID      `json:"order_id,omitempty"`
	WishlistItemID *uuid.UUID      `json:"wishlist_item_id,omitempty"`
	ExternalID     string          `json:"external_id,omitempty"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	CreatedAt      time.Time       `json:"created_at"`
	Detail         map[string]any  `json:"detail,omitempty"`
}

// CreatePaymentResponse is the payment plus the next step for the client
type CreatePaymentResponse struct {
	Payment PaymentResponse `json:"payment"`
	Action  *payment.Action `json:"action"`
}

// WebhookLogResponse represents a webhook audit row
type WebhookLogResponse struct {
	ID          uuid.UUID         `json:"id"`
	Provider    string            `json:"provider"`
	EventID     string            `json:"event_id"`
	EventType   string            `json:"event_type"`
	ExternalID  string            `json:"external_id"`
	Status      string            `json:"status"`
	Error       string            `json:"error,omitempty"`
	PaymentID   *uuid.UUID        `json:"payment_id"`
	Headers     map[string]string `json:"headers,omitempty"`
	Payload     string            `json:"payload,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	ProcessedAt *time.Time        `json:"processed_at"`
}

// ToPaymentResponse converts a payment
func ToPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:             p.ID,
		Method:         string(p.Method),
		Status:         string(p.Status),
		Amount:         p.Amount,
		Currency:       string(p.Currency),
		RefundedAmount: p.RefundedAmount,
		OrderID:        p.OrderID,
		WishlistItemID: p.WishlistItemID,
		ExternalID:     p.ExternalID,
		FailureReason:  p.FailureReason,
		CompletedAt:    p.CompletedAt,
		ExpiresAt:      p.ExpiresAt,
		CreatedAt:      p.CreatedAt,
		Detail:         detailOf(p),
	}
}

func detailOf(p *payment.Payment) map[string]any {
	switch {
	case p.USDT != nil:
		return map[string]any{
			"network":         p.USDT.Network,
			"wallet_address":  p.USDT.WalletAddress,
			"tx_hash":         p.USDT.TxHash,
			"from_address":    p.USDT.FromAddress,
			"amount_received": p.USDT.AmountReceived,
			"confirmations":   p.USDT.Confirmations,
		}
	case p.PayPal != nil:
		return map[string]any{
			"paypal_order_id": p.PayPal.PayPalOrderID,
			"approval_url":    p.PayPal.ApprovalURL,
			"payer_email":     p.PayPal.PayerEmail,
			"capture_id":      p.PayPal.CaptureID,
		}
	case p.CreditCard != nil:
		d := map[string]any{
			"payment_intent_id": p.CreditCard.PaymentIntentID,
			"card_brand":        p.CreditCard.CardBrand,
			"last4":             p.CreditCard.Last4,
		}
		if p.Status.IsOpen() {
			d["client_secret"] = p.CreditCard.ClientSecret
		}
		return d
	case p.Coinbase != nil:
		return map[string]any{
			"charge_code": p.Coinbase.ChargeCode,
			"hosted_url":  p.Coinbase.HostedURL,
			"expires_at":  p.Coinbase.ExpiresAt,
		}
	}
	return nil
}

// ToWebhookLogResponse converts a webhook log; the payload is only
// included for single-row reads
func ToWebhookLogResponse(l *payment.WebhookLog, withPayload bool) WebhookLogResponse {
	resp := WebhookLogResponse{
		ID:          l.ID,
		Provider:    string(l.Provider),
		EventID:     l.EventID,
		EventType:   l.EventType,
		ExternalID:  l.ExternalID,
		Status:      string(l.Status),
		Error:       l.Error,
		PaymentID:   l.PaymentID,
		CreatedAt:   l.CreatedAt,
		ProcessedAt: l.ProcessedAt,
	}
	if withPayload {
		resp.Headers = l.Headers
		resp.Payload = l.Payload
	}
	return resp
}
