package scheduler

import (
	"context"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/payment"
)

// Task names
const (
	TaskExpirePayments     = "expire_payments"
	TaskCancelUnpaidOrders = "cancel_unpaid_orders"
	TaskPollUSDT           = "poll_usdt_payments"
)

// PaymentSweeper is implemented by the payment application service
type PaymentSweeper interface {
	ExpireStale(ctx context.Context, batch int) (int, error)
	PollOpen(ctx context.Context, method payment.Method, olderThan time.Duration, batch int) (int, error)
}

// OrderSweeper is implemented by the order application service
type OrderSweeper interface {
	CancelExpired(ctx context.Context, ttl time.Duration, batch int) (int, error)
}

// ExpirePaymentsTask cancels open payments past their expiry
func ExpirePaymentsTask(payments PaymentSweeper, batch int) Task {
	return func(ctx context.Context) (int, error) {
		return payments.ExpireStale(ctx, batch)
	}
}

// CancelUnpaidOrdersTask cancels pending orders older than ttl
func CancelUnpaidOrdersTask(orders OrderSweeper, ttl time.Duration, batch int) Task {
	return func(ctx context.Context) (int, error) {
		return orders.CancelExpired(ctx, ttl, batch)
	}
}

// PollPaymentsTask re-verifies open payments of a method that sends no
// webhooks. Payments younger than minAge are left for the buyer to confirm.
func PollPaymentsTask(payments PaymentSweeper, method payment.Method, minAge time.Duration, batch int) Task {
	return func(ctx context.Context) (int, error) {
		return payments.PollOpen(ctx, method, minAge, batch)
	}
}
