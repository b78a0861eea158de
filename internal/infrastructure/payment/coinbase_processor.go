package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	domain "github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	coinbaseDefaultURL = "https://api.commerce.coinbase.com"
	coinbaseAPIVersion = "2018-03-22"
	// CoinbaseSignatureHeader carries the hex HMAC-SHA256 of the body
	CoinbaseSignatureHeader = "X-Cc-Webhook-Signature"
)

// CoinbaseProcessor creates Coinbase Commerce charges. The buyer pays on the
// hosted page and the charge timeline is reported back by webhook.
type CoinbaseProcessor struct {
	cfg    config.CoinbaseConfig
	client gatewayClient
	logger *zap.Logger
}

// NewCoinbaseProcessor creates the processor
func NewCoinbaseProcessor(cfg config.CoinbaseConfig, logger *zap.Logger) (*CoinbaseProcessor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("coinbase: api key is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = coinbaseDefaultURL
	}
	return &CoinbaseProcessor{
		cfg:    cfg,
		client: newGatewayClient("coinbase", base, cfg.Timeout),
		logger: logger,
	}, nil
}

// Method implements payment.Processor
func (c *CoinbaseProcessor) Method() domain.Method {
	return domain.MethodCoinbase
}

type coinbaseMoney struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type coinbaseCharge struct {
	ID        string            `json:"id"`
	Code      string            `json:"code"`
	HostedURL string            `json:"hosted_url"`
	ExpiresAt *time.Time        `json:"expires_at"`
	Metadata  map[string]string `json:"metadata"`
	Pricing   struct {
		Local coinbaseMoney `json:"local"`
	} `json:"pricing"`
	Timeline []struct {
		Status  string    `json:"status"`
		Context string    `json:"context"`
		Time    time.Time `json:"time"`
	} `json:"timeline"`
}

// lastStatus returns the newest timeline entry
func (ch *coinbaseCharge) lastStatus() (status, reason string) {
	if n := len(ch.Timeline); n > 0 {
		return ch.Timeline[n-1].Status, ch.Timeline[n-1].Context
	}
	return "NEW", ""
}

// Create opens a fixed-price charge in the payment currency
func (c *CoinbaseProcessor) Create(ctx context.Context, pay *domain.Payment, opts domain.CreateOptions) (*domain.Action, error) {
	name := opts.Description
	if name == "" {
		name = "Order payment"
	}
	body := map[string]any{
		"name":         truncate(name, 100),
		"description":  truncate(opts.Description, 200),
		"pricing_type": "fixed_price",
		"local_price":  coinbaseMoney{Amount: pay.Amount.StringFixed(2), Currency: string(pay.Currency)},
		"metadata": map[string]string{
			"payment_id": pay.ID.String(),
			"site_id":    pay.SiteID.String(),
		},
		"redirect_url": opts.ReturnURL,
		"cancel_url":   opts.CancelURL,
	}

	var resp struct {
		Data coinbaseCharge `json:"data"`
	}
	if err := c.call(ctx, http.MethodPost, "/charges", body, &resp); err != nil {
		return nil, err
	}

	ch := resp.Data
	pay.Coinbase = &domain.CoinbaseDetail{
		ChargeID:   ch.ID,
		ChargeCode: ch.Code,
		HostedURL:  ch.HostedURL,
		ExpiresAt:  ch.ExpiresAt,
	}
	pay.SetExternalID(ch.ID)
	if ch.ExpiresAt != nil {
		pay.SetExpiry(*ch.ExpiresAt)
	}

	c.logger.Info("coinbase charge created",
		zap.String("payment_id", pay.ID.String()),
		zap.String("charge_code", ch.Code),
	)
	return &domain.Action{Type: domain.ActionRedirect, RedirectURL: ch.HostedURL, ExpiresAt: ch.ExpiresAt}, nil
}

// Process has no customer-side step for hosted charges; it re-reads the charge
func (c *CoinbaseProcessor) Process(ctx context.Context, pay *domain.Payment, _ domain.ProcessInput) (*domain.Outcome, error) {
	return c.Verify(ctx, pay)
}

// Verify reads the charge timeline
func (c *CoinbaseProcessor) Verify(ctx context.Context, pay *domain.Payment) (*domain.Outcome, error) {
	ref := pay.ExternalID
	if pay.Coinbase != nil && pay.Coinbase.ChargeCode != "" {
		ref = pay.Coinbase.ChargeCode
	}
	if ref == "" {
		return &domain.Outcome{Status: pay.Status}, nil
	}

	var resp struct {
		Data coinbaseCharge `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "/charges/"+url.PathEscape(ref), nil, &resp); err != nil {
		return nil, err
	}
	status, reason := resp.Data.lastStatus()
	return &domain.Outcome{Status: coinbaseStatus(status), FailureReason: strings.ToLower(reason)}, nil
}

// Refund is not offered by the Commerce API; crypto refunds are manual
func (c *CoinbaseProcessor) Refund(context.Context, *domain.Payment, decimal.Decimal, string) (*domain.RefundResult, error) {
	return nil, domain.ErrRefundUnsupported
}

type coinbaseWebhook struct {
	ID    string `json:"id"`
	Event struct {
		ID   string         `json:"id"`
		Type string         `json:"type"`
		Data coinbaseCharge `json:"data"`
	} `json:"event"`
}

// ParseWebhook checks X-CC-Webhook-Signature and maps charge events
func (c *CoinbaseProcessor) ParseWebhook(_ context.Context, body []byte, header http.Header) (*domain.WebhookEvent, error) {
	if !ValidCoinbaseSignature(body, header.Get(CoinbaseSignatureHeader), c.cfg.WebhookSecret) {
		return nil, domain.ErrInvalidSignature
	}

	var hook coinbaseWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWebhook, err)
	}

	ch := hook.Event.Data
	evt := &domain.WebhookEvent{
		Method:     domain.MethodCoinbase,
		EventID:    hook.Event.ID,
		EventType:  hook.Event.Type,
		ExternalID: ch.ID,
		Currency:   ch.Pricing.Local.Currency,
	}
	if evt.EventID == "" {
		evt.EventID = hook.ID
	}
	if v, err := decimal.NewFromString(ch.Pricing.Local.Amount); err == nil {
		evt.Amount = &v
	}

	switch hook.Event.Type {
	case "charge:confirmed", "charge:resolved":
		evt.Outcome = &domain.Outcome{Status: domain.StatusCompleted}
	case "charge:pending", "charge:delayed":
		evt.Outcome = &domain.Outcome{Status: domain.StatusProcessing}
	case "charge:failed":
		_, reason := ch.lastStatus()
		if reason == "" {
			reason = "charge failed"
		}
		evt.Outcome = &domain.Outcome{Status: domain.StatusFailed, FailureReason: strings.ToLower(reason)}
	}
	return evt, nil
}

// ValidCoinbaseSignature compares the header against HMAC-SHA256(body, secret)
func ValidCoinbaseSignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

func (c *CoinbaseProcessor) call(ctx context.Context, method, path string, in, out any) error {
	return c.client.do(ctx, method, path, in, out, func(h http.Header) {
		h.Set("X-CC-Api-Key", c.cfg.APIKey)
		h.Set("X-CC-Version", coinbaseAPIVersion)
	})
}

func coinbaseStatus(s string) domain.Status {
	switch s {
	case "COMPLETED", "RESOLVED":
		return domain.StatusCompleted
	case "PENDING", "UNRESOLVED":
		return domain.StatusProcessing
	case "EXPIRED", "CANCELED":
		return domain.StatusCancelled
	default: // NEW
		return domain.StatusPending
	}
}

var _ domain.Processor = (*CoinbaseProcessor)(nil)
