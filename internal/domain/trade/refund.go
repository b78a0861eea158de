package trade

import (
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundStatus tracks a refund request
type RefundStatus string

const (
	RefundStatusRequested RefundStatus = "requested"
	RefundStatusRejected  RefundStatus = "rejected"
	RefundStatusCompleted RefundStatus = "completed"
	RefundStatusFailed    RefundStatus = "failed"
)

// RefundDetail is a refund request against an order's payment
type RefundDetail struct {
	shared.BaseEntity
	OrderID          uuid.UUID
	PaymentID        *uuid.UUID
	Amount           decimal.Decimal
	Currency         valueobject.Currency
	Reason           string
	Status           RefundStatus
	AdminNote        string
	ExternalRefundID string
	FailureReason    string
	ProcessedAt      *time.Time
}

func newRefundDetail(orderID uuid.UUID, paymentID *uuid.UUID, amount decimal.Decimal, currency valueobject.Currency, reason string) *RefundDetail {
	return &RefundDetail{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    orderID,
		PaymentID:  paymentID,
		Amount:     amount,
		Currency:   currency,
		Reason:     reason,
		Status:     RefundStatusRequested,
	}
}

// IsOpen reports whether the refund still awaits a decision or retry
func (r *RefundDetail) IsOpen() bool {
	return r.Status == RefundStatusRequested || r.Status == RefundStatusFailed
}

// AmountMoney returns the refund amount as Money
func (r *RefundDetail) AmountMoney() valueobject.Money {
	return valueobject.MustMoney(r.Amount, r.Currency)
}

func (r *RefundDetail) complete(externalID string) error {
	if !r.IsOpen() {
		return shared.NewDomainErrorf("INVALID_STATE", "Refund is already %s", r.Status)
	}
	now := time.Now()
	r.Status = RefundStatusCompleted
	r.ExternalRefundID = externalID
	r.FailureReason = ""
	r.ProcessedAt = &now
	r.UpdatedAt = now
	return nil
}

func (r *RefundDetail) reject(note string) error {
	if !r.IsOpen() {
		return shared.NewDomainErrorf("INVALID_STATE", "Refund is already %s", r.Status)
	}
	now := time.Now()
	r.Status = RefundStatusRejected
	r.AdminNote = note
	r.ProcessedAt = &now
	r.UpdatedAt = now
	return nil
}

func (r *RefundDetail) fail(reason string) error {
	if !r.IsOpen() {
		return shared.NewDomainErrorf("INVALID_STATE", "Refund is already %s", r.Status)
	}
	r.Status = RefundStatusFailed
	r.FailureReason = reason
	r.UpdatedAt = time.Now()
	return nil
}
