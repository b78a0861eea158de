package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Operator names used in the order log when no user triggered the change
const (
	OperatorSystem  = "system"
	OperatorWebhook = "webhook"
)

// ShippingAddress is the delivery destination captured at checkout
type ShippingAddress struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	City          string `json:"city"`
	State         string `json:"state,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	Country       string `json:"country"`
}

// Validate checks the mandatory fields
func (a ShippingAddress) Validate() error {
	if strings.TrimSpace(a.RecipientName) == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Recipient name is required")
	}
	if strings.TrimSpace(a.Line1) == "" || strings.TrimSpace(a.City) == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Street and city are required")
	}
	if len(strings.TrimSpace(a.Country)) != 2 {
		return shared.NewDomainError("INVALID_ADDRESS", "Country must be a two-letter ISO code")
	}
	return nil
}

// OrderItem is a snapshot of goods at purchase time
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	GoodsID   uuid.UUID
	GoodsName string
	SKU       string
	ImageURL  string
	UnitPrice decimal.Decimal
	Quantity  int
	Subtotal  decimal.Decimal
}

// NewOrderItem validates and builds a line
func NewOrderItem(goodsID uuid.UUID, name, sku, imageURL string, unitPrice decimal.Decimal, quantity int) (OrderItem, error) {
	if goodsID == uuid.Nil {
		return OrderItem{}, shared.NewDomainError("INVALID_GOODS", "Goods ID cannot be empty")
	}
	if quantity <= 0 {
		return OrderItem{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return OrderItem{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	return OrderItem{
		ID:        uuid.New(),
		GoodsID:   goodsID,
		GoodsName: name,
		SKU:       sku,
		ImageURL:  imageURL,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// OrderLog is one row of the order audit trail
type OrderLog struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	FromStatus OrderStatus
	ToStatus   OrderStatus
	Operator   string
	Note       string
	CreatedAt  time.Time
}

// Order is the aggregate root for a customer purchase on one site
type Order struct {
	shared.SiteAggregateRoot
	OrderNumber      string
	UserID           uuid.UUID
	Status           OrderStatus
	Currency         valueobject.Currency
	Items            []OrderItem
	Subtotal         decimal.Decimal
	ShippingFee      decimal.Decimal
	Total            decimal.Decimal
	ShippingAddress  ShippingAddress
	ContactEmail     string
	Remark           string
	PaymentID        *uuid.UUID
	PaymentMethod    string
	Carrier          string
	TrackingNumber   string
	CancelReason     string
	RefundFromStatus OrderStatus
	PaidAt           *time.Time
	ShippedAt        *time.Time
	DeliveredAt      *time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time

	pendingLogs []OrderLog
}

// NewOrder creates a pending order from snapshot items
func NewOrder(
	siteID, userID uuid.UUID,
	orderNumber string,
	currency valueobject.Currency,
	items []OrderItem,
	shippingFee decimal.Decimal,
	address ShippingAddress,
	contactEmail, remark string,
) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("EMPTY_ORDER", "Order must contain at least one item")
	}
	if shippingFee.IsNegative() {
		return nil, shared.NewDomainError("INVALID_SHIPPING_FEE", "Shipping fee cannot be negative")
	}
	if err := address.Validate(); err != nil {
		return nil, err
	}
	if len(remark) > 500 {
		return nil, shared.NewDomainError("INVALID_REMARK", "Remark cannot exceed 500 characters")
	}

	o := &Order{
		SiteAggregateRoot: shared.NewSiteAggregateRoot(siteID),
		OrderNumber:       orderNumber,
		UserID:            userID,
		Status:            OrderStatusPending,
		Currency:          currency,
		ShippingFee:       shippingFee,
		ShippingAddress:   address,
		ContactEmail:      strings.TrimSpace(contactEmail),
		Remark:            remark,
	}
	o.Items = make([]OrderItem, len(items))
	for i, item := range items {
		item.OrderID = o.ID
		o.Items[i] = item
	}
	o.recalculateTotals()
	o.log("", OrderStatusPending, OperatorSystem, "order created")
	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

// MarkPaid records a completed payment against a pending order
func (o *Order) MarkPaid(paymentID uuid.UUID, method, operator string) error {
	if err := o.transition(OrderStatusPaid, operator, "payment "+paymentID.String()+" completed via "+method); err != nil {
		return err
	}
	now := time.Now()
	o.PaymentID = &paymentID
	o.PaymentMethod = method
	o.PaidAt = &now
	o.AddDomainEvent(NewOrderPaidEvent(o))
	return nil
}

// StartProcessing marks the order as being prepared
func (o *Order) StartProcessing(operator string) error {
	return o.transition(OrderStatusProcessing, operator, "")
}

// Ship records carrier and tracking number
func (o *Order) Ship(carrier, trackingNumber, operator string) error {
	if strings.TrimSpace(trackingNumber) == "" {
		return shared.NewDomainError("INVALID_TRACKING", "Tracking number is required")
	}
	if err := o.transition(OrderStatusShipped, operator, carrier+" "+trackingNumber); err != nil {
		return err
	}
	now := time.Now()
	o.Carrier = strings.TrimSpace(carrier)
	o.TrackingNumber = strings.TrimSpace(trackingNumber)
	o.ShippedAt = &now
	o.AddDomainEvent(NewOrderShippedEvent(o))
	return nil
}

// ConfirmDelivery marks the parcel as received
func (o *Order) ConfirmDelivery(operator string) error {
	if err := o.transition(OrderStatusDelivered, operator, ""); err != nil {
		return err
	}
	now := time.Now()
	o.DeliveredAt = &now
	return nil
}

// Complete closes a delivered order
func (o *Order) Complete(operator string) error {
	if err := o.transition(OrderStatusCompleted, operator, ""); err != nil {
		return err
	}
	now := time.Now()
	o.CompletedAt = &now
	return nil
}

// Cancel cancels a pending, paid or processing order.
// A cancelled order that had been paid needs a refund; the returned flag says so.
func (o *Order) Cancel(reason, operator string) (needsRefund bool, err error) {
	if !o.Status.CanCancel() {
		return false, shared.NewDomainErrorf("INVALID_STATE", "Cannot cancel an order in %s status", o.Status)
	}
	previous := o.Status
	if err := o.transition(OrderStatusCancelled, operator, reason); err != nil {
		return false, err
	}
	now := time.Now()
	o.CancelReason = reason
	o.CancelledAt = &now
	o.AddDomainEvent(NewOrderCancelledEvent(o, previous))
	return previous.IsPaidState(), nil
}

// RequestRefund moves the order to refunding and opens a refund request
func (o *Order) RequestRefund(amount decimal.Decimal, reason, operator string) (*RefundDetail, error) {
	if !o.Status.CanTransitionTo(OrderStatusRefunding) {
		return nil, shared.NewDomainErrorf("INVALID_STATE", "Cannot request a refund for an order in %s status", o.Status)
	}
	refund, err := o.newRefund(amount, reason)
	if err != nil {
		return nil, err
	}
	o.RefundFromStatus = o.Status
	if err := o.transition(OrderStatusRefunding, operator, reason); err != nil {
		return nil, err
	}
	o.AddDomainEvent(NewOrderRefundRequestedEvent(o, refund))
	return refund, nil
}

// OpenCancellationRefund creates the refund owed after cancelling a paid order.
// The order stays cancelled.
func (o *Order) OpenCancellationRefund(operator string) (*RefundDetail, error) {
	if o.Status != OrderStatusCancelled || o.PaymentID == nil {
		return nil, shared.ErrInvalidState.WithMessage("Only cancelled paid orders get a cancellation refund")
	}
	refund, err := o.newRefund(o.Total, "order cancelled: "+o.CancelReason)
	if err != nil {
		return nil, err
	}
	o.log(o.Status, o.Status, operator, "refund opened for cancelled order")
	o.AddDomainEvent(NewOrderRefundRequestedEvent(o, refund))
	return refund, nil
}

// OpenLatePaymentRefund opens a full refund for a payment the order will
// not take, because it was cancelled or another payment settled it.
// The order keeps its status.
func (o *Order) OpenLatePaymentRefund(paymentID uuid.UUID, amount decimal.Decimal, method, operator string) (*RefundDetail, error) {
	if o.PaymentID != nil && *o.PaymentID == paymentID {
		return nil, shared.ErrInvalidState.WithMessage("The payment already settled this order")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_REFUND_AMOUNT", "Refund amount must be positive")
	}
	refund := newRefundDetail(o.ID, &paymentID, amount, o.Currency,
		fmt.Sprintf("%s payment received after order was %s", method, o.Status))
	o.log(o.Status, o.Status, operator, "refund opened for late payment "+paymentID.String())
	o.touch()
	o.AddDomainEvent(NewOrderRefundRequestedEvent(o, refund))
	return refund, nil
}

// CompleteRefund finalizes a refund. Cancelled orders stay cancelled;
// orders in refunding become refunded.
func (o *Order) CompleteRefund(refund *RefundDetail, externalID, operator string) error {
	if refund.OrderID != o.ID {
		return shared.NewDomainError("INVALID_REFUND", "Refund does not belong to this order")
	}
	if err := refund.complete(externalID); err != nil {
		return err
	}
	if o.Status == OrderStatusRefunding {
		if err := o.transition(OrderStatusRefunded, operator, "refund "+refund.ID.String()+" completed"); err != nil {
			return err
		}
	} else {
		o.log(o.Status, o.Status, operator, "refund "+refund.ID.String()+" completed")
		o.touch()
	}
	o.AddDomainEvent(NewOrderRefundedEvent(o, refund))
	return nil
}

// RejectRefund declines a refund request and restores the previous status
func (o *Order) RejectRefund(refund *RefundDetail, note, operator string) error {
	if refund.OrderID != o.ID {
		return shared.NewDomainError("INVALID_REFUND", "Refund does not belong to this order")
	}
	if err := refund.reject(note); err != nil {
		return err
	}
	if o.Status == OrderStatusRefunding {
		back := o.RefundFromStatus
		if back == "" {
			back = OrderStatusPaid
		}
		if err := o.transition(back, operator, "refund rejected: "+note); err != nil {
			return err
		}
		o.RefundFromStatus = ""
	}
	return nil
}

// FailRefund records a processor failure; the order stays where it is so
// the refund can be retried
func (o *Order) FailRefund(refund *RefundDetail, reason, operator string) error {
	if err := refund.fail(reason); err != nil {
		return err
	}
	o.log(o.Status, o.Status, operator, "refund failed: "+reason)
	return nil
}

// IsOwnedBy reports whether the user placed the order
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}

// TotalMoney returns the payable total
func (o *Order) TotalMoney() valueobject.Money {
	return valueobject.MustMoney(o.Total, o.Currency)
}

// ItemCount returns the number of units in the order
func (o *Order) ItemCount() int {
	n := 0
	for _, i := range o.Items {
		n += i.Quantity
	}
	return n
}

// PendingLogs returns audit rows not yet persisted
func (o *Order) PendingLogs() []OrderLog {
	return o.pendingLogs
}

// ClearPendingLogs is called by the repository after saving logs
func (o *Order) ClearPendingLogs() {
	o.pendingLogs = nil
}

func (o *Order) newRefund(amount decimal.Decimal, reason string) (*RefundDetail, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_REFUND_AMOUNT", "Refund amount must be positive")
	}
	if amount.GreaterThan(o.Total) {
		return nil, shared.NewDomainError("INVALID_REFUND_AMOUNT", "Refund amount cannot exceed the order total")
	}
	return newRefundDetail(o.ID, o.PaymentID, amount, o.Currency, reason), nil
}

func (o *Order) transition(to OrderStatus, operator, note string) error {
	if !o.Status.CanTransitionTo(to) {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot move order from %s to %s", o.Status, to)
	}
	from := o.Status
	o.Status = to
	o.log(from, to, operator, note)
	o.touch()
	return nil
}

func (o *Order) log(from, to OrderStatus, operator, note string) {
	if operator == "" {
		operator = OperatorSystem
	}
	o.pendingLogs = append(o.pendingLogs, OrderLog{
		ID:         uuid.New(),
		OrderID:    o.ID,
		FromStatus: from,
		ToStatus:   to,
		Operator:   operator,
		Note:       note,
		CreatedAt:  time.Now(),
	})
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}

func (o *Order) recalculateTotals() {
	sub := decimal.Zero
	for _, i := range o.Items {
		sub = sub.Add(i.Subtotal)
	}
	o.Subtotal = sub
	o.Total = sub.Add(o.ShippingFee)
}
