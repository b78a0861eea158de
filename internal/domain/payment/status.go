package payment

import "slices"

// Method identifies a payment processor
type Method string

const (
	MethodUSDT       Method = "usdt"
	MethodPayPal     Method = "paypal"
	MethodCreditCard Method = "credit_card"
	MethodCoinbase   Method = "coinbase"
)

// AllMethods lists the supported methods in display order
var AllMethods = []Method{MethodCreditCard, MethodPayPal, MethodCoinbase, MethodUSDT}

// IsValid checks if the method is a known value
func (m Method) IsValid() bool {
	return slices.Contains(AllMethods, m)
}

// String returns the string representation of Method
func (m Method) String() string {
	return string(m)
}

// Status is the lifecycle state of a payment
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted:  {StatusRefunded},
}

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can move to target
func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(statusTransitions[s], target)
}

// IsFinal reports whether the payment will not change any more except by refund
func (s Status) IsFinal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled || s == StatusRefunded
}

// IsOpen reports whether the payment can still complete
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusProcessing
}
