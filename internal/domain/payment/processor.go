package payment

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// CreateOptions carries request context a processor may need when opening a payment
type CreateOptions struct {
	Description string
	ReturnURL   string
	CancelURL   string
	CustomerRef string
}

// Action tells the client what to do next after a payment was created
type Action struct {
	Type          string     `json:"type"` // redirect, client_secret, transfer
	RedirectURL   string     `json:"redirect_url,omitempty"`
	ClientSecret  string     `json:"client_secret,omitempty"`
	WalletAddress string     `json:"wallet_address,omitempty"`
	Network       string     `json:"network,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// Action types
const (
	ActionRedirect     = "redirect"
	ActionClientSecret = "client_secret"
	ActionTransfer     = "transfer"
)

// ProcessInput is the customer-side confirmation of a payment
type ProcessInput struct {
	TxHash          string // USDT
	PayerID         string // PayPal
	PaymentMethodID string // credit card
}

// Outcome is a processor's view of where a payment stands
type Outcome struct {
	Status        Status
	FailureReason string
}

// RefundResult is returned by a successful refund call
type RefundResult struct {
	ExternalRefundID string
	Status           string
}

// WebhookEvent is a verified, normalized gateway callback
type WebhookEvent struct {
	Method     Method
	EventID    string
	EventType  string
	ExternalID string
	Outcome    *Outcome // nil when the event does not change the payment
	Amount     *decimal.Decimal
	Currency   string
	PayerEmail string
	CaptureID  string
	CardBrand  string
	Last4      string
}

// Processor is the strategy implemented once per payment method.
// Implementations populate the method-specific detail on the payment and
// never change Status themselves; the caller applies the returned Outcome.
type Processor interface {
	Method() Method

	// Create opens the payment at the gateway and fills the detail
	Create(ctx context.Context, p *Payment, opts CreateOptions) (*Action, error)

	// Process handles the customer's confirmation step
	Process(ctx context.Context, p *Payment, input ProcessInput) (*Outcome, error)

	// Verify asks the gateway for the current state
	Verify(ctx context.Context, p *Payment) (*Outcome, error)

	// Refund returns money for a completed payment
	Refund(ctx context.Context, p *Payment, amount decimal.Decimal, reason string) (*RefundResult, error)

	// ParseWebhook authenticates and decodes a callback
	ParseWebhook(ctx context.Context, body []byte, header http.Header) (*WebhookEvent, error)
}

// Registry resolves processors by method
type Registry struct {
	mu         sync.RWMutex
	processors map[Method]Processor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{processors: make(map[Method]Processor)}
}

// Register adds or replaces a processor
func (r *Registry) Register(p Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors[p.Method()] = p
}

// Get returns the processor for a method
func (r *Registry) Get(method Method) (Processor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.processors[method]
	if !ok {
		return nil, ErrUnsupportedMethod
	}
	return p, nil
}

// Methods lists registered methods in a stable order
func (r *Registry) Methods() []Method {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Method, 0, len(r.processors))
	for m := range r.processors {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
