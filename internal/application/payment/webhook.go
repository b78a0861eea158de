package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HandleWebhook authenticates, records and applies a gateway callback.
//
// Only authentication problems are returned as errors so the HTTP layer
// can answer 4xx. Everything after a valid signature is acknowledged: the
// outcome is kept in the webhook log instead.
func (s *PaymentService) HandleWebhook(ctx context.Context, method payment.Method, body []byte, header http.Header) error {
	entry := payment.NewWebhookLog(method, body, header)
	defer s.saveLog(ctx, entry)

	processor, err := s.registry.Get(method)
	if err != nil {
		entry.MarkRejected(err)
		return err
	}
	evt, err := processor.ParseWebhook(ctx, body, header)
	if err != nil {
		entry.MarkRejected(err)
		s.logger.Warn("Webhook rejected", zap.String("provider", string(method)), zap.Error(err))
		return err
	}
	entry.Identify(evt)

	key := ""
	if evt.EventID != "" {
		key = fmt.Sprintf("webhook:%s:%s", method, evt.EventID)
		fresh, err := s.idempotency.MarkProcessed(ctx, key, s.config.WebhookDedupeTTL)
		if err != nil {
			// dedupe is best effort; status transitions are idempotent on their own
			s.logger.Warn("Webhook dedupe unavailable", zap.String("key", key), zap.Error(err))
			key = ""
		} else if !fresh {
			entry.MarkDuplicate()
			return nil
		}
	}

	if err := s.applyWebhook(ctx, entry, evt); err != nil {
		entry.MarkFailed(err)
		s.logger.Error("Webhook processing failed",
			zap.String("provider", string(method)),
			zap.String("event_id", evt.EventID),
			zap.String("external_id", evt.ExternalID),
			zap.Error(err))
		if key != "" {
			if ferr := s.idempotency.Forget(ctx, key); ferr != nil {
				s.logger.Warn("Failed to release webhook key", zap.String("key", key), zap.Error(ferr))
			}
		}
	}
	return nil
}

func (s *PaymentService) applyWebhook(ctx context.Context, entry *payment.WebhookLog, evt *payment.WebhookEvent) error {
	if evt.Outcome == nil {
		entry.MarkIgnored("event type "+evt.EventType+" needs no action", nil)
		return nil
	}
	if evt.ExternalID == "" {
		entry.MarkIgnored("event carries no payment reference", nil)
		return nil
	}

	p, err := s.paymentRepo.FindByExternalID(ctx, evt.Method, evt.ExternalID)
	if errors.Is(err, shared.ErrNotFound) {
		entry.MarkIgnored("no payment with external id "+evt.ExternalID, nil)
		return nil
	}
	if err != nil {
		return err
	}

	outcome := *evt.Outcome
	if outcome.Status == payment.StatusCompleted && evt.Amount != nil && !evt.Amount.Equal(p.Amount) {
		outcome = payment.Outcome{
			Status:        payment.StatusFailed,
			FailureReason: fmt.Sprintf("%s: received %s, expected %s", payment.ErrAmountMismatch.Message, evt.Amount.String(), p.Amount.String()),
		}
	}
	// a capture reported for a payment given up locally still moved money
	lateCapture := outcome.Status == payment.StatusCompleted &&
		(p.Status == payment.StatusCancelled || p.Status == payment.StatusFailed)
	if p.Status == outcome.Status || (p.Status.IsFinal() && !lateCapture) {
		id := p.ID
		entry.MarkIgnored("payment already "+string(p.Status), &id)
		return nil
	}

	copyWebhookDetail(p, evt)
	if err := s.applyOutcome(ctx, p, &outcome); err != nil {
		return err
	}
	entry.MarkProcessed(p.ID)
	return nil
}

func copyWebhookDetail(p *payment.Payment, evt *payment.WebhookEvent) {
	if p.PayPal != nil {
		if evt.PayerEmail != "" {
			p.PayPal.PayerEmail = evt.PayerEmail
		}
		if evt.CaptureID != "" {
			p.PayPal.CaptureID = evt.CaptureID
		}
	}
	if p.CreditCard != nil && evt.Last4 != "" {
		p.CreditCard.CardBrand = evt.CardBrand
		p.CreditCard.Last4 = evt.Last4
	}
}

func (s *PaymentService) saveLog(ctx context.Context, entry *payment.WebhookLog) {
	// the request context may already be done once the handler returned
	if err := s.webhookRepo.Save(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error("Failed to save webhook log",
			zap.String("provider", string(entry.Provider)),
			zap.String("event_id", entry.EventID),
			zap.Error(err))
	}
}

// ListWebhookLogs lists webhook audit rows, newest first
func (s *PaymentService) ListWebhookLogs(ctx context.Context, filter WebhookLogFilter) ([]WebhookLogResponse, int64, error) {
	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize, Filters: make(map[string]any)}
	f.Normalize()
	if filter.Provider != "" {
		f.Filters["provider"] = payment.Method(filter.Provider)
	}
	if filter.Status != "" {
		f.Filters["status"] = payment.WebhookStatus(filter.Status)
	}
	logs, err := s.webhookRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.webhookRepo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]WebhookLogResponse, len(logs))
	for i := range logs {
		out[i] = ToWebhookLogResponse(&logs[i], false)
	}
	return out, total, nil
}

// GetWebhookLog returns one webhook row with its payload
func (s *PaymentService) GetWebhookLog(ctx context.Context, id uuid.UUID) (*WebhookLogResponse, error) {
	l, err := s.webhookRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToWebhookLogResponse(l, true)
	return &resp, nil
}
