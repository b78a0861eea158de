package trade

import (
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutItem is a direct-purchase line
type CheckoutItem struct {
	GoodsID  uuid.UUID `json:"goods_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1,max=99"`
}

// AddressRequest is the shipping address captured at checkout
type AddressRequest struct {
	RecipientName string `json:"recipient_name" binding:"required,max=100"`
	Phone         string `json:"phone" binding:"max=30"`
	Line1         string `json:"line1" binding:"required,max=200"`
	Line2         string `json:"line2" binding:"max=200"`
	City          string `json:"city" binding:"required,max=100"`
	State         string `json:"state" binding:"max=100"`
	PostalCode    string `json:"postal_code" binding:"max=20"`
	Country       string `json:"country" binding:"required,len=2"`
}

func (a AddressRequest) toDomain() trade.ShippingAddress {
	return trade.ShippingAddress{
		RecipientName: a.RecipientName,
		Phone:         a.Phone,
		Line1:         a.Line1,
		Line2:         a.Line2,
		City:          a.City,
		State:         a.State,
		PostalCode:    a.PostalCode,
		Country:       a.Country,
	}
}

// CheckoutRequest places an order. Without Items the cart is checked out.
type CheckoutRequest struct {
	Items           []CheckoutItem `json:"items" binding:"omitempty,dive"`
	ShippingAddress AddressRequest `json:"shipping_address" binding:"required"`
	ContactEmail    string         `json:"contact_email" binding:"omitempty,email"`
	Remark          string         `json:"remark" binding:"max=500"`
}

// OrderListFilter represents order list options
type OrderListFilter struct {
	Search   string     `form:"search"`
	Status   string     `form:"status" binding:"omitempty,oneof=pending paid processing shipped delivered completed cancelled refunding refunded"`
	UserID   *uuid.UUID `form:"user_id"`
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string     `form:"order_by" binding:"omitempty,oneof=created_at total order_number"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CancelOrderRequest cancels an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ShipOrderRequest records the shipment
type ShipOrderRequest struct {
	Carrier        string `json:"carrier" binding:"required,max=100"`
	TrackingNumber string `json:"tracking_number" binding:"required,max=100"`
}

// RefundOrderRequest asks for money back. A nil amount refunds the whole order.
type RefundOrderRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason" binding:"required,max=500"`
}

// RejectRefundRequest declines a refund
type RejectRefundRequest struct {
	Note string `json:"note" binding:"required,max=500"`
}

// OrderItemResponse is an order line
type OrderItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	GoodsID   uuid.UUID       `json:"goods_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	ImageURL  string          `json:"image_url"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderLogResponse is one audit row
type OrderLogResponse struct {
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Operator   string    `json:"operator"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

// RefundResponse represents a refund request
type RefundResponse struct {
	ID               uuid.UUID       `json:"id"`
	OrderID          uuid.UUID       `json:"order_id"`
	PaymentID        *uuid.UUID      `json:"payment_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Reason           string          `json:"reason"`
	Status           string          `json:"status"`
	AdminNote        string          `json:"admin_note,omitempty"`
	ExternalRefundID string          `json:"external_refund_id,omitempty"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	ProcessedAt      *time.Time      `json:"processed_at"`
	CreatedAt        time.Time       `json:"created_at"`
}

// OrderResponse represents an order with its lines
type OrderResponse struct {
	ID              uuid.UUID             `json:"id"`
	OrderNumber     string                `json:"order_number"`
	UserID          uuid.UUID             `json:"user_id"`
	Status          string                `json:"status"`
	Currency        string                `json:"currency"`
	Items           []OrderItemResponse   `json:"items"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	ShippingFee     decimal.Decimal       `json:"shipping_fee"`
	Total           decimal.Decimal       `json:"total"`
	ShippingAddress trade.ShippingAddress `json:"shipping_address"`
	ContactEmail    string                `json:"contact_email"`
	Remark          string                `json:"remark"`
	PaymentID       *uuid.UUID            `json:"payment_id"`
	PaymentMethod   string                `json:"payment_method,omitempty"`
	Carrier         string                `json:"carrier,omitempty"`
	TrackingNumber  string                `json:"tracking_number,omitempty"`
	CancelReason    string                `json:"cancel_reason,omitempty"`
	PaidAt          *time.Time            `json:"paid_at"`
	ShippedAt       *time.Time            `json:"shipped_at"`
	DeliveredAt     *time.Time            `json:"delivered_at"`
	CompletedAt     *time.Time            `json:"completed_at"`
	CancelledAt     *time.Time            `json:"cancelled_at"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	Logs            []OrderLogResponse    `json:"logs,omitempty"`
	Refunds         []RefundResponse      `json:"refunds,omitempty"`
}

// OrderListItemResponse is the list shape
type OrderListItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	OrderNumber string          `json:"order_number"`
	UserID      uuid.UUID       `json:"user_id"`
	Status      string          `json:"status"`
	Currency    string          `json:"currency"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"item_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ToOrderResponse converts a domain order
func ToOrderResponse(o *trade.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:        it.ID,
			GoodsID:   it.GoodsID,
			Name:      it.GoodsName,
			SKU:       it.SKU,
			ImageURL:  it.ImageURL,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal,
		}
	}
	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          string(o.Status),
		Currency:        string(o.Currency),
		Items:           items,
		Subtotal:        o.Subtotal,
		ShippingFee:     o.ShippingFee,
		Total:           o.Total,
		ShippingAddress: o.ShippingAddress,
		ContactEmail:    o.ContactEmail,
		Remark:          o.Remark,
		PaymentID:       o.PaymentID,
		PaymentMethod:   o.PaymentMethod,
		Carrier:         o.Carrier,
		TrackingNumber:  o.TrackingNumber,
		CancelReason:    o.CancelReason,
		PaidAt:          o.PaidAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CompletedAt:     o.CompletedAt,
		CancelledAt:     o.CancelledAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// ToOrderListItemResponses converts a slice of orders
func ToOrderListItemResponses(orders []trade.Order) []OrderListItemResponse {
	out := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		o := &orders[i]
		out[i] = OrderListItemResponse{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			UserID:      o.UserID,
			Status:      string(o.Status),
			Currency:    string(o.Currency),
			Total:       o.Total,
			ItemCount:   o.ItemCount(),
			CreatedAt:   o.CreatedAt,
		}
	}
	return out
}

// ToOrderLogResponses converts audit rows
func ToOrderLogResponses(logs []trade.OrderLog) []OrderLogResponse {
	out := make([]OrderLogResponse, len(logs))
	for i, l := range logs {
		out[i] = OrderLogResponse{
			FromStatus: string(l.FromStatus),
			ToStatus:   string(l.ToStatus),
			Operator:   l.Operator,
			Note:       l.Note,
			CreatedAt:  l.CreatedAt,
		}
	}
	return out
}

// ToRefundResponse converts a refund request
func ToRefundResponse(r *trade.RefundDetail) RefundResponse {
	return RefundResponse{
		ID:               r.ID,
		OrderID:          r.OrderID,
		PaymentID:        r.PaymentID,
		Amount:           r.Amount,
		Currency:         string(r.Currency),
		Reason:           r.Reason,
		Status:           string(r.Status),
		AdminNote:        r.AdminNote,
		ExternalRefundID: r.ExternalRefundID,
		FailureReason:    r.FailureReason,
		ProcessedAt:      r.ProcessedAt,
		CreatedAt:        r.CreatedAt,
	}
}
