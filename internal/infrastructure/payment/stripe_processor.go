package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	domain "github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// StripeSignatureHeader is the header Stripe signs webhooks with
const StripeSignatureHeader = "Stripe-Signature"

// StripeProcessor takes card payments through Stripe PaymentIntents. The
// storefront confirms the intent with Stripe.js using the client secret.
type StripeProcessor struct {
	cfg    config.StripeConfig
	sc     *client.API
	logger *zap.Logger
}

// StripeOption configures the processor
type StripeOption func(*stripeOptions)

type stripeOptions struct {
	backend stripe.Backend
}

// WithStripeBackend replaces the HTTP backend
func WithStripeBackend(b stripe.Backend) StripeOption {
	return func(o *stripeOptions) { o.backend = b }
}

// NewStripeProcessor creates the processor with its own client so several
// keys can coexist in one process
func NewStripeProcessor(cfg config.StripeConfig, logger *zap.Logger, opts ...StripeOption) (*StripeProcessor, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe: secret key is required")
	}
	var o stripeOptions
	for _, opt := range opts {
		opt(&o)
	}

	backend := o.backend
	if backend == nil && cfg.BaseURL != "" {
		backend = stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL: stripe.String(cfg.BaseURL),
		})
	}
	var backends *stripe.Backends
	if backend != nil {
		backends = &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
	}

	return &StripeProcessor{
		cfg:    cfg,
		sc:     client.New(cfg.SecretKey, backends),
		logger: logger,
	}, nil
}

// Method implements payment.Processor
func (s *StripeProcessor) Method() domain.Method {
	return domain.MethodCreditCard
}

// Create opens a PaymentIntent and hands its client secret to the storefront
func (s *StripeProcessor) Create(ctx context.Context, pay *domain.Payment, opts domain.CreateOptions) (*domain.Action, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(pay.AmountMoney().MinorUnits()),
		Currency: stripe.String(strings.ToLower(string(pay.Currency))),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if opts.Description != "" {
		params.Description = stripe.String(truncate(opts.Description, 200))
	}
	params.Context = ctx
	params.SetIdempotencyKey("payment-" + pay.ID.String())
	params.AddMetadata("payment_id", pay.ID.String())
	params.AddMetadata("site_id", pay.SiteID.String())
	if opts.CustomerRef != "" {
		params.AddMetadata("customer", opts.CustomerRef)
	}

	pi, err := s.sc.PaymentIntents.New(params)
	if err != nil {
		s.logger.Error("Failed to create Stripe payment intent",
			zap.String("payment_id", pay.ID.String()),
			zap.Error(err))
		return nil, stripeError("create payment intent", err)
	}

	pay.CreditCard = &domain.CreditCardDetail{
		PaymentIntentID: pi.ID,
		ClientSecret:    pi.ClientSecret,
	}
	pay.SetExternalID(pi.ID)

	s.logger.Info("Created Stripe payment intent",
		zap.String("payment_id", pay.ID.String()),
		zap.String("payment_intent_id", pi.ID))
	return &domain.Action{Type: domain.ActionClientSecret, ClientSecret: pi.ClientSecret}, nil
}

// Process confirms the intent server-side when the storefront collected a
// payment method id; otherwise it re-reads the intent Stripe.js confirmed
func (s *StripeProcessor) Process(ctx context.Context, pay *domain.Payment, input domain.ProcessInput) (*domain.Outcome, error) {
	if input.PaymentMethodID == "" {
		return s.Verify(ctx, pay)
	}
	id, err := s.intentID(pay)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentConfirmParams{PaymentMethod: stripe.String(input.PaymentMethodID)}
	params.Context = ctx
	params.AddExpand("latest_charge")

	pi, err := s.sc.PaymentIntents.Confirm(id, params)
	if err != nil {
		// card declines come back as errors with the intent attached
		if se, ok := err.(*stripe.Error); ok && se.Type == stripe.ErrorTypeCard {
			return &domain.Outcome{Status: domain.StatusFailed, FailureReason: se.Msg}, nil
		}
		return nil, stripeError("confirm payment intent", err)
	}
	s.recordCard(pay, pi)
	return intentOutcome(pi), nil
}

// Verify reads the intent
func (s *StripeProcessor) Verify(ctx context.Context, pay *domain.Payment) (*domain.Outcome, error) {
	id, err := s.intentID(pay)
	if err != nil {
		return nil, err
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	pi, err := s.sc.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, stripeError("get payment intent", err)
	}
	s.recordCard(pay, pi)
	return intentOutcome(pi), nil
}

// Refund refunds part or all of the captured amount
func (s *StripeProcessor) Refund(ctx context.Context, pay *domain.Payment, amount decimal.Decimal, reason string) (*domain.RefundResult, error) {
	id, err := s.intentID(pay)
	if err != nil {
		return nil, err
	}
	minor := valueobject.MustMoney(amount, pay.Currency).MinorUnits()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(id),
		Amount:        stripe.Int64(minor),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.AddMetadata("payment_id", pay.ID.String())
	if reason != "" {
		params.AddMetadata("reason", truncate(reason, 450))
	}

	r, err := s.sc.Refunds.New(params)
	if err != nil {
		s.logger.Error("Failed to refund Stripe payment",
			zap.String("payment_id", pay.ID.String()),
			zap.Error(err))
		return nil, stripeError("create refund", err)
	}
	return &domain.RefundResult{ExternalRefundID: r.ID, Status: string(r.Status)}, nil
}

// ParseWebhook verifies Stripe-Signature and maps payment_intent events
func (s *StripeProcessor) ParseWebhook(_ context.Context, body []byte, header http.Header) (*domain.WebhookEvent, error) {
	if s.cfg.WebhookSecret == "" {
		return nil, domain.ErrInvalidSignature
	}
	evt, err := webhook.ConstructEventWithOptions(body, header.Get(StripeSignatureHeader), s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.logger.Warn("Rejected Stripe webhook", zap.Error(err))
		return nil, domain.ErrInvalidSignature
	}

	out := &domain.WebhookEvent{
		Method:    domain.MethodCreditCard,
		EventID:   evt.ID,
		EventType: string(evt.Type),
	}
	if !strings.HasPrefix(out.EventType, "payment_intent.") || evt.Data == nil {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWebhook, err)
	}
	out.ExternalID = pi.ID
	out.Currency = strings.ToUpper(string(pi.Currency))
	if cur, err := valueobject.ParseCurrency(out.Currency); err == nil {
		amt := valueobject.FromMinorUnits(pi.Amount, cur).Amount()
		out.Amount = &amt
	}
	if brand, last4 := cardOf(&pi); last4 != "" {
		out.CardBrand, out.Last4 = brand, last4
	}

	switch out.EventType {
	case "payment_intent.succeeded":
		out.Outcome = &domain.Outcome{Status: domain.StatusCompleted}
	case "payment_intent.processing":
		out.Outcome = &domain.Outcome{Status: domain.StatusProcessing}
	case "payment_intent.payment_failed":
		out.Outcome = &domain.Outcome{Status: domain.StatusFailed, FailureReason: lastPaymentError(&pi)}
	case "payment_intent.canceled":
		out.Outcome = &domain.Outcome{Status: domain.StatusCancelled, FailureReason: string(pi.CancellationReason)}
	}
	return out, nil
}

func (s *StripeProcessor) intentID(pay *domain.Payment) (string, error) {
	if pay.CreditCard != nil && pay.CreditCard.PaymentIntentID != "" {
		return pay.CreditCard.PaymentIntentID, nil
	}
	if pay.ExternalID != "" {
		return pay.ExternalID, nil
	}
	return "", fmt.Errorf("%w: payment has no payment intent", domain.ErrProcessInputMissing)
}

func (s *StripeProcessor) recordCard(pay *domain.Payment, pi *stripe.PaymentIntent) {
	if pay.CreditCard == nil {
		pay.CreditCard = &domain.CreditCardDetail{PaymentIntentID: pi.ID}
	}
	if brand, last4 := cardOf(pi); last4 != "" {
		pay.CreditCard.CardBrand = brand
		pay.CreditCard.Last4 = last4
	}
}

func cardOf(pi *stripe.PaymentIntent) (brand, last4 string) {
	ch := pi.LatestCharge
	if ch == nil || ch.PaymentMethodDetails == nil || ch.PaymentMethodDetails.Card == nil {
		return "", ""
	}
	card := ch.PaymentMethodDetails.Card
	return string(card.Brand), card.Last4
}

func lastPaymentError(pi *stripe.PaymentIntent) string {
	if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
		return pi.LastPaymentError.Msg
	}
	return "card payment failed"
}

func intentOutcome(pi *stripe.PaymentIntent) *domain.Outcome {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return &domain.Outcome{Status: domain.StatusCompleted}
	case stripe.PaymentIntentStatusProcessing, stripe.PaymentIntentStatusRequiresCapture:
		return &domain.Outcome{Status: domain.StatusProcessing}
	case stripe.PaymentIntentStatusCanceled:
		return &domain.Outcome{Status: domain.StatusCancelled, FailureReason: string(pi.CancellationReason)}
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		if pi.LastPaymentError != nil {
			return &domain.Outcome{Status: domain.StatusFailed, FailureReason: lastPaymentError(pi)}
		}
	}
	return &domain.Outcome{Status: domain.StatusPending}
}

func stripeError(op string, err error) error {
	if se, ok := err.(*stripe.Error); ok && se.HTTPStatusCode >= 500 {
		return fmt.Errorf("stripe: %s: %w: %s", op, domain.ErrGatewayUnavailable, se.Msg)
	}
	return fmt.Errorf("stripe: %s: %w", op, err)
}

var _ domain.Processor = (*StripeProcessor)(nil)
