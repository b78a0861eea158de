package payment

import (
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// WebhookStatus is the processing outcome of an inbound callback
type WebhookStatus string

const (
	WebhookStatusReceived  WebhookStatus = "received"
	WebhookStatusProcessed WebhookStatus = "processed"
	WebhookStatusIgnored   WebhookStatus = "ignored"
	WebhookStatusDuplicate WebhookStatus = "duplicate"
	WebhookStatusRejected  WebhookStatus = "rejected"
	WebhookStatusFailed    WebhookStatus = "failed"
)

// WebhookLog is an audit row for one raw gateway callback
type WebhookLog struct {
	shared.BaseEntity
	Provider    Method
	EventID     string
	EventType   string
	ExternalID  string
	Payload     string
	Headers     map[string]string
	Status      WebhookStatus
	Error       string
	PaymentID   *uuid.UUID
	ProcessedAt *time.Time
}

// signature-bearing headers worth keeping for audits
var loggedHeaders = []string{
	"Content-Type",
	"User-Agent",
	"Stripe-Signature",
	"X-Cc-Webhook-Signature",
	"Paypal-Transmission-Id",
	"Paypal-Transmission-Time",
	"Paypal-Transmission-Sig",
	"Paypal-Cert-Url",
	"Paypal-Auth-Algo",
}

// NewWebhookLog records a received callback
func NewWebhookLog(provider Method, payload []byte, header map[string][]string) *WebhookLog {
	headers := make(map[string]string)
	for _, k := range loggedHeaders {
		if v, ok := header[k]; ok && len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return &WebhookLog{
		BaseEntity: shared.NewBaseEntity(),
		Provider:   provider,
		Payload:    string(payload),
		Headers:    headers,
		Status:     WebhookStatusReceived,
	}
}

// Identify copies the verified event identity onto the log
func (l *WebhookLog) Identify(evt *WebhookEvent) {
	l.EventID = evt.EventID
	l.EventType = evt.EventType
	l.ExternalID = evt.ExternalID
}

// MarkProcessed records a successful state change
func (l *WebhookLog) MarkProcessed(paymentID uuid.UUID) {
	l.PaymentID = &paymentID
	l.finish(WebhookStatusProcessed, "")
}

// MarkIgnored records an event that needed no action
func (l *WebhookLog) MarkIgnored(reason string, paymentID *uuid.UUID) {
	l.PaymentID = paymentID
	l.finish(WebhookStatusIgnored, reason)
}

// MarkDuplicate records a redelivery
func (l *WebhookLog) MarkDuplicate() {
	l.finish(WebhookStatusDuplicate, "")
}

// MarkRejected records a callback that failed authentication
func (l *WebhookLog) MarkRejected(err error) {
	l.finish(WebhookStatusRejected, err.Error())
}

// MarkFailed records a processing error
func (l *WebhookLog) MarkFailed(err error) {
	l.finish(WebhookStatusFailed, err.Error())
}

func (l *WebhookLog) finish(status WebhookStatus, msg string) {
	now := time.Now()
	l.Status = status
	l.Error = msg
	l.ProcessedAt = &now
	l.UpdatedAt = now
}
