package payment

import (
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TargetType says what a payment pays for
type TargetType string

const (
	TargetOrder        TargetType = "order"
	TargetWishlistItem TargetType = "wishlist_item"
)

// Target is the order or wishlist item a payment settles
type Target struct {
	Type TargetType
	ID   uuid.UUID
}

// OrderTarget builds a target for an order
func OrderTarget(id uuid.UUID) Target {
	return Target{Type: TargetOrder, ID: id}
}

// WishlistItemTarget builds a target for a wishlist item
func WishlistItemTarget(id uuid.UUID) Target {
	return Target{Type: TargetWishlistItem, ID: id}
}

// Payment is the shared payment row. Exactly one method-specific detail
// is populated, matching Method.
type Payment struct {
	shared.SiteAggregateRoot
	UserID         *uuid.UUID
	OrderID        *uuid.UUID
	WishlistItemID *uuid.UUID
	Method         Method
	Amount         decimal.Decimal
	Currency       valueobject.Currency
	Status         Status
	ExternalID     string
	FailureReason  string
	RefundedAmount decimal.Decimal
	CompletedAt    *time.Time
	ExpiresAt      *time.Time

	USDT       *USDTDetail
	PayPal     *PayPalDetail
	CreditCard *CreditCardDetail
	Coinbase   *CoinbaseDetail
}

// NewPayment creates a pending payment for a target
func NewPayment(siteID uuid.UUID, userID *uuid.UUID, method Method, amount valueobject.Money, target Target) (*Payment, error) {
	if !method.IsValid() {
		return nil, ErrUnsupportedMethod
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if target.ID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TARGET", "Payment target is required")
	}

	p := &Payment{
		SiteAggregateRoot: shared.NewSiteAggregateRoot(siteID),
		UserID:            userID,
		Method:            method,
		Amount:            amount.Amount(),
		Currency:          amount.Currency(),
		Status:            StatusPending,
		RefundedAmount:    decimal.Zero,
	}
	switch target.Type {
	case TargetOrder:
		id := target.ID
		p.OrderID = &id
	case TargetWishlistItem:
		id := target.ID
		p.WishlistItemID = &id
	default:
		return nil, shared.NewDomainError("INVALID_TARGET", "Unknown payment target")
	}
	p.AddDomainEvent(NewPaymentCreatedEvent(p))
	return p, nil
}

// Target returns what the payment settles
func (p *Payment) Target() Target {
	if p.OrderID != nil {
		return OrderTarget(*p.OrderID)
	}
	if p.WishlistItemID != nil {
		return WishlistItemTarget(*p.WishlistItemID)
	}
	return Target{}
}

// AmountMoney returns the amount as Money
func (p *Payment) AmountMoney() valueobject.Money {
	return valueobject.MustMoney(p.Amount, p.Currency)
}

// SetExternalID records the processor's reference used for webhook lookup
func (p *Payment) SetExternalID(externalID string) {
	p.ExternalID = externalID
	p.UpdatedAt = time.Now()
}

// SetExpiry sets when an unfinished payment is abandoned
func (p *Payment) SetExpiry(at time.Time) {
	p.ExpiresAt = &at
}

// IsExpired reports whether an open payment passed its expiry
func (p *Payment) IsExpired(now time.Time) bool {
	return p.Status.IsOpen() && p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// IsOwnedBy reports whether the user started the payment
func (p *Payment) IsOwnedBy(userID uuid.UUID) bool {
	return p.UserID != nil && *p.UserID == userID
}

// MarkProcessing records that the processor accepted the payment and
// confirmation is outstanding. Already-processing payments are left alone.
func (p *Payment) MarkProcessing() error {
	if p.Status == StatusProcessing {
		return nil
	}
	return p.transition(StatusProcessing)
}

// Complete marks the payment as settled
func (p *Payment) Complete() error {
	if err := p.transition(StatusCompleted); err != nil {
		return err
	}
	now := time.Now()
	p.CompletedAt = &now
	p.FailureReason = ""
	p.AddDomainEvent(NewPaymentCompletedEvent(p))
	return nil
}

// RecoverCapture books money the processor captured after the payment was
// given up locally as cancelled or failed
func (p *Payment) RecoverCapture() error {
	if p.Status != StatusCancelled && p.Status != StatusFailed {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot recover a capture on a %s payment", p.Status)
	}
	now := time.Now()
	p.Status = StatusCompleted
	p.CompletedAt = &now
	p.FailureReason = ""
	p.UpdatedAt = now
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentCompletedEvent(p))
	return nil
}

// Fail marks the payment as failed with a reason
func (p *Payment) Fail(reason string) error {
	if err := p.transition(StatusFailed); err != nil {
		return err
	}
	p.FailureReason = reason
	p.AddDomainEvent(NewPaymentFailedEvent(p))
	return nil
}

// Cancel abandons an open payment
func (p *Payment) Cancel(reason string) error {
	if err := p.transition(StatusCancelled); err != nil {
		return err
	}
	p.FailureReason = reason
	p.AddDomainEvent(NewPaymentCancelledEvent(p))
	return nil
}

// CanRefund reports whether amount may still be returned on this payment
func (p *Payment) CanRefund(amount decimal.Decimal) error {
	if p.Status != StatusCompleted {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot refund a %s payment", p.Status)
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Refund amount must be positive")
	}
	if p.RefundedAmount.Add(amount).GreaterThan(p.Amount) {
		return shared.NewDomainError("INVALID_AMOUNT", "Refund exceeds the paid amount")
	}
	return nil
}

// RecordRefund adds a refunded amount; the payment becomes refunded once
// the whole amount went back
func (p *Payment) RecordRefund(amount decimal.Decimal) error {
	if err := p.CanRefund(amount); err != nil {
		return err
	}
	total := p.RefundedAmount.Add(amount)
	p.RefundedAmount = total
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	if total.Equal(p.Amount) {
		return p.transition(StatusRefunded)
	}
	return nil
}

func (p *Payment) transition(to Status) error {
	if !p.Status.CanTransitionTo(to) {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot move payment from %s to %s", p.Status, to)
	}
	p.Status = to
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}
