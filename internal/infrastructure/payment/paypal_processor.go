package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	domain "github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	paypalLiveURL    = "https://api-m.paypal.com"
	paypalSandboxURL = "https://api-m.sandbox.paypal.com"
)

// PayPalProcessor drives the PayPal Orders v2 checkout: create an order,
// send the buyer to the approval link, then capture.
type PayPalProcessor struct {
	cfg    config.PayPalConfig
	client gatewayClient
	logger *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	now         func() time.Time
}

// NewPayPalProcessor creates the processor. An empty BaseURL means sandbox.
func NewPayPalProcessor(cfg config.PayPalConfig, logger *zap.Logger) (*PayPalProcessor, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("paypal: client id and secret are required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = paypalSandboxURL
	}
	return &PayPalProcessor{
		cfg:    cfg,
		client: newGatewayClient("paypal", base, cfg.Timeout),
		logger: logger,
		now:    time.Now,
	}, nil
}

// Method implements payment.Processor
func (p *PayPalProcessor) Method() domain.Method {
	return domain.MethodPayPal
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paypalCapture struct {
	ID         string       `json:"id"`
	Status     string       `json:"status"`
	Amount     paypalAmount `json:"amount"`
	CustomID   string       `json:"custom_id"`
	StatusInfo struct {
		Reason string `json:"reason"`
	} `json:"status_details"`
	Supplementary struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
}

type paypalOrder struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Links  []paypalLink `json:"links"`
	Payer  struct {
		PayerID      string `json:"payer_id"`
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []paypalCapture `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

func (o *paypalOrder) approvalURL() string {
	for _, l := range o.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			return l.Href
		}
	}
	return ""
}

func (o *paypalOrder) firstCapture() *paypalCapture {
	for _, pu := range o.PurchaseUnits {
		if len(pu.Payments.Captures) > 0 {
			return &pu.Payments.Captures[0]
		}
	}
	return nil
}

// Create opens a PayPal order with intent CAPTURE
func (p *PayPalProcessor) Create(ctx context.Context, pay *domain.Payment, opts domain.CreateOptions) (*domain.Action, error) {
	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": pay.ID.String(),
			"custom_id":    pay.ID.String(),
			"description":  truncate(opts.Description, 120),
			"amount":       paypalAmount{CurrencyCode: string(pay.Currency), Value: pay.Amount.StringFixed(2)},
		}},
		"application_context": map[string]any{
			"brand_name":  p.cfg.BrandName,
			"user_action": "PAY_NOW",
			"return_url":  opts.ReturnURL,
			"cancel_url":  opts.CancelURL,
		},
	}

	var order paypalOrder
	if err := p.call(ctx, http.MethodPost, "/v2/checkout/orders", body, &order, pay.ID.String()); err != nil {
		return nil, err
	}

	approval := order.approvalURL()
	pay.PayPal = &domain.PayPalDetail{PayPalOrderID: order.ID, ApprovalURL: approval}
	pay.SetExternalID(order.ID)

	p.logger.Info("paypal order created",
		zap.String("payment_id", pay.ID.String()),
		zap.String("paypal_order_id", order.ID),
	)
	return &domain.Action{Type: domain.ActionRedirect, RedirectURL: approval}, nil
}

// Process captures an approved order
func (p *PayPalProcessor) Process(ctx context.Context, pay *domain.Payment, input domain.ProcessInput) (*domain.Outcome, error) {
	detail := p.detail(pay)
	if detail.PayPalOrderID == "" {
		return nil, domain.ErrProcessInputMissing
	}
	if input.PayerID != "" {
		detail.PayerID = input.PayerID
	}

	var order paypalOrder
	path := "/v2/checkout/orders/" + url.PathEscape(detail.PayPalOrderID) + "/capture"
	if err := p.call(ctx, http.MethodPost, path, map[string]any{}, &order, "capture-"+pay.ID.String()); err != nil {
		return nil, err
	}
	return p.apply(pay, &order), nil
}

// Verify fetches the order and maps its status
func (p *PayPalProcessor) Verify(ctx context.Context, pay *domain.Payment) (*domain.Outcome, error) {
	detail := p.detail(pay)
	if detail.PayPalOrderID == "" {
		return &domain.Outcome{Status: pay.Status}, nil
	}

	var order paypalOrder
	if err := p.call(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(detail.PayPalOrderID), nil, &order, ""); err != nil {
		return nil, err
	}
	return p.apply(pay, &order), nil
}

func (p *PayPalProcessor) apply(pay *domain.Payment, order *paypalOrder) *domain.Outcome {
	detail := p.detail(pay)
	if order.Payer.PayerID != "" {
		detail.PayerID = order.Payer.PayerID
	}
	if order.Payer.EmailAddress != "" {
		detail.PayerEmail = order.Payer.EmailAddress
	}
	if c := order.firstCapture(); c != nil {
		detail.CaptureID = c.ID
		return &domain.Outcome{Status: paypalCaptureStatus(c.Status), FailureReason: c.StatusInfo.Reason}
	}
	return &domain.Outcome{Status: paypalOrderStatus(order.Status)}
}

// Refund refunds the capture
func (p *PayPalProcessor) Refund(ctx context.Context, pay *domain.Payment, amount decimal.Decimal, reason string) (*domain.RefundResult, error) {
	detail := p.detail(pay)
	if detail.CaptureID == "" {
		return nil, fmt.Errorf("paypal: payment %s has no capture to refund", pay.ID)
	}

	body := map[string]any{
		"amount":        paypalAmount{CurrencyCode: string(pay.Currency), Value: amount.StringFixed(2)},
		"note_to_payer": truncate(reason, 255),
	}
	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	path := "/v2/payments/captures/" + url.PathEscape(detail.CaptureID) + "/refund"
	if err := p.call(ctx, http.MethodPost, path, body, &resp, "refund-"+pay.ID.String()+"-"+amount.String()); err != nil {
		return nil, err
	}
	return &domain.RefundResult{ExternalRefundID: resp.ID, Status: strings.ToLower(resp.Status)}, nil
}

type paypalWebhook struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	ResourceType string          `json:"resource_type"`
	Resource     json.RawMessage `json:"resource"`
}

// ParseWebhook verifies the transmission with PayPal's
// verify-webhook-signature API and normalizes the event
func (p *PayPalProcessor) ParseWebhook(ctx context.Context, body []byte, header http.Header) (*domain.WebhookEvent, error) {
	if p.cfg.WebhookID == "" {
		return nil, fmt.Errorf("%w: paypal webhook id is not configured", domain.ErrInvalidSignature)
	}
	if err := p.verifySignature(ctx, body, header); err != nil {
		return nil, err
	}

	var hook paypalWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWebhook, err)
	}

	evt := &domain.WebhookEvent{Method: domain.MethodPayPal, EventID: hook.ID, EventType: hook.EventType}

	switch hook.EventType {
	case "CHECKOUT.ORDER.APPROVED", "CHECKOUT.ORDER.COMPLETED", "CHECKOUT.ORDER.VOIDED":
		var order paypalOrder
		if err := json.Unmarshal(hook.Resource, &order); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWebhook, err)
		}
		evt.ExternalID = order.ID
		evt.PayerEmail = order.Payer.EmailAddress
		evt.Outcome = &domain.Outcome{Status: paypalOrderStatus(order.Status)}
	case "PAYMENT.CAPTURE.COMPLETED", "PAYMENT.CAPTURE.PENDING", "PAYMENT.CAPTURE.DENIED", "PAYMENT.CAPTURE.DECLINED":
		var c paypalCapture
		if err := json.Unmarshal(hook.Resource, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWebhook, err)
		}
		evt.ExternalID = c.Supplementary.RelatedIDs.OrderID
		evt.CaptureID = c.ID
		evt.Currency = c.Amount.CurrencyCode
		if v, err := decimal.NewFromString(c.Amount.Value); err == nil {
			evt.Amount = &v
		}
		evt.Outcome = &domain.Outcome{Status: paypalCaptureStatus(c.Status), FailureReason: c.StatusInfo.Reason}
	}
	return evt, nil
}

func (p *PayPalProcessor) verifySignature(ctx context.Context, body []byte, header http.Header) error {
	req := map[string]any{
		"auth_algo":         header.Get("Paypal-Auth-Algo"),
		"cert_url":          header.Get("Paypal-Cert-Url"),
		"transmission_id":   header.Get("Paypal-Transmission-Id"),
		"transmission_sig":  header.Get("Paypal-Transmission-Sig"),
		"transmission_time": header.Get("Paypal-Transmission-Time"),
		"webhook_id":        p.cfg.WebhookID,
		"webhook_event":     json.RawMessage(body),
	}
	if req["transmission_id"] == "" || req["transmission_sig"] == "" {
		return fmt.Errorf("%w: missing paypal transmission headers", domain.ErrInvalidSignature)
	}

	var resp struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := p.call(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", req, &resp, ""); err != nil {
		return err
	}
	if resp.VerificationStatus != "SUCCESS" {
		return fmt.Errorf("%w: paypal verification status %q", domain.ErrInvalidSignature, resp.VerificationStatus)
	}
	return nil
}

func (p *PayPalProcessor) call(ctx context.Context, method, path string, in, out any, requestID string) error {
	token, err := p.accessToken(ctx)
	if err != nil {
		return err
	}
	return p.client.do(ctx, method, path, in, out, func(h http.Header) {
		h.Set("Authorization", "Bearer "+token)
		if requestID != "" {
			h.Set("PayPal-Request-Id", requestID)
		}
	})
}

// accessToken returns a cached OAuth token, refreshing a minute early
func (p *PayPalProcessor) accessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.now().Before(p.tokenExpiry) {
		return p.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.client.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("paypal: build token request: %w", err)
	}
	req.SetBasicAuth(p.cfg.ClientID, p.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal: %w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &gatewayError{Gateway: "paypal", StatusCode: resp.StatusCode, Body: "oauth token request rejected"}
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("paypal: decode token: %w", err)
	}
	p.token = tok.AccessToken
	p.tokenExpiry = p.now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return p.token, nil
}

func (p *PayPalProcessor) detail(pay *domain.Payment) *domain.PayPalDetail {
	if pay.PayPal == nil {
		pay.PayPal = &domain.PayPalDetail{PayPalOrderID: pay.ExternalID}
	}
	return pay.PayPal
}

func paypalOrderStatus(s string) domain.Status {
	switch s {
	case "APPROVED":
		return domain.StatusProcessing
	case "COMPLETED":
		return domain.StatusCompleted
	case "VOIDED":
		return domain.StatusCancelled
	default: // CREATED, SAVED, PAYER_ACTION_REQUIRED
		return domain.StatusPending
	}
}

func paypalCaptureStatus(s string) domain.Status {
	switch s {
	case "COMPLETED":
		return domain.StatusCompleted
	case "DECLINED", "FAILED", "DENIED":
		return domain.StatusFailed
	default: // PENDING
		return domain.StatusProcessing
	}
}

var _ domain.Processor = (*PayPalProcessor)(nil)
