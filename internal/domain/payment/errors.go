package payment

import "github.com/Marusmurong/mall-sub000/internal/domain/shared"

// Payment domain errors
var (
	ErrUnsupportedMethod   = shared.NewDomainError("PAYMENT_METHOD_UNSUPPORTED", "Payment method is not supported")
	ErrMethodDisabled      = shared.NewDomainError("PAYMENT_METHOD_DISABLED", "Payment method is not enabled for this site")
	ErrInvalidSignature    = shared.NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed")
	ErrWebhookUnsupported  = shared.NewDomainError("WEBHOOK_UNSUPPORTED", "This payment method does not receive webhooks")
	ErrInvalidWebhook      = shared.NewDomainError("INVALID_WEBHOOK", "Webhook payload could not be parsed")
	ErrGatewayUnavailable  = shared.NewDomainError("GATEWAY_ERROR", "Payment gateway request failed")
	ErrPaymentNotFound     = shared.ErrNotFound.WithMessage("Payment not found")
	ErrPaymentClosed       = shared.NewDomainError("PAYMENT_CLOSED", "Payment is no longer open")
	ErrAmountMismatch      = shared.NewDomainError("AMOUNT_MISMATCH", "Received amount does not match the payment amount")
	ErrProcessInputMissing = shared.ErrInvalidInput.WithMessage("Required processing input is missing")
)

// ErrRefundUnsupported is returned by processors whose gateway has no refund API
var ErrRefundUnsupported = shared.NewDomainError("REFUND_UNSUPPORTED", "This payment method cannot be refunded automatically")
