package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// USDTDetail holds the on-chain side of a USDT transfer
type USDTDetail struct {
	Network        string
	WalletAddress  string
	TxHash         string
	FromAddress    string
	AmountReceived decimal.Decimal
	Confirmations  int
}

// PayPalDetail holds the PayPal Orders v2 references
type PayPalDetail struct {
	PayPalOrderID string
	ApprovalURL   string
	PayerID       string
	PayerEmail    string
	CaptureID     string
}

// CreditCardDetail holds the Stripe PaymentIntent references
type CreditCardDetail struct {
	PaymentIntentID string
	ClientSecret    string
	CardBrand       string
	Last4           string
}

// CoinbaseDetail holds the Coinbase Commerce charge references
type CoinbaseDetail struct {
	ChargeID   string
	ChargeCode string
	HostedURL  string
	ExpiresAt  *time.Time
}
