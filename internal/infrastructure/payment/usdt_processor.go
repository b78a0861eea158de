package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	domain "github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	tronGridDefaultURL = "https://api.trongrid.io"
	// tether's TRC20 contract on mainnet
	usdtTRC20Contract = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"
)

var txHashPattern = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{64}$`)

// USDTProcessor accepts direct TRC20 transfers to the shop wallet. The buyer
// submits the transaction hash and the transfer is matched through TronGrid.
type USDTProcessor struct {
	cfg    config.USDTConfig
	client gatewayClient
	logger *zap.Logger
}

// NewUSDTProcessor creates the processor
func NewUSDTProcessor(cfg config.USDTConfig, logger *zap.Logger) (*USDTProcessor, error) {
	if cfg.WalletAddress == "" {
		return nil, fmt.Errorf("usdt: wallet address is required")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = tronGridDefaultURL
	}
	if cfg.ContractAddress == "" {
		cfg.ContractAddress = usdtTRC20Contract
	}
	if cfg.Network == "" {
		cfg.Network = "TRC20"
	}
	return &USDTProcessor{
		cfg:    cfg,
		client: newGatewayClient("trongrid", cfg.APIURL, cfg.Timeout),
		logger: logger,
	}, nil
}

// Method implements payment.Processor
func (u *USDTProcessor) Method() domain.Method {
	return domain.MethodUSDT
}

// Create returns the wallet to pay into; nothing is registered remotely
func (u *USDTProcessor) Create(_ context.Context, pay *domain.Payment, _ domain.CreateOptions) (*domain.Action, error) {
	if pay.Currency != valueobject.USDT && pay.Currency != valueobject.USD {
		return nil, fmt.Errorf("%w: usdt payments must be priced in USD or USDT", domain.ErrUnsupportedMethod)
	}
	pay.USDT = &domain.USDTDetail{Network: u.cfg.Network, WalletAddress: u.cfg.WalletAddress}
	return &domain.Action{
		Type:          domain.ActionTransfer,
		WalletAddress: u.cfg.WalletAddress,
		Network:       u.cfg.Network,
		ExpiresAt:     pay.ExpiresAt,
	}, nil
}

// Process records the submitted transaction hash and checks it on chain
func (u *USDTProcessor) Process(ctx context.Context, pay *domain.Payment, input domain.ProcessInput) (*domain.Outcome, error) {
	hash := strings.TrimPrefix(strings.TrimSpace(input.TxHash), "0x")
	if !txHashPattern.MatchString(hash) {
		return nil, fmt.Errorf("%w: a 64 character transaction hash is required", domain.ErrProcessInputMissing)
	}
	detail := u.detail(pay)
	detail.TxHash = strings.ToLower(hash)
	pay.SetExternalID(detail.TxHash)

	return u.Verify(ctx, pay)
}

type trc20Transfer struct {
	TransactionID  string `json:"transaction_id"`
	From           string `json:"from"`
	To             string `json:"to"`
	Value          string `json:"value"`
	BlockTimestamp int64  `json:"block_timestamp"`
	TokenInfo      struct {
		Address  string `json:"address"`
		Decimals int32  `json:"decimals"`
	} `json:"token_info"`
}

// Verify looks for the transfer among the wallet's incoming TRC20 transfers,
// first in confirmed blocks and then in unconfirmed ones
func (u *USDTProcessor) Verify(ctx context.Context, pay *domain.Payment) (*domain.Outcome, error) {
	detail := u.detail(pay)
	if detail.TxHash == "" {
		return &domain.Outcome{Status: domain.StatusPending}, nil
	}

	since := pay.CreatedAt.Add(-time.Hour)
	transfer, err := u.findTransfer(ctx, detail.TxHash, since, true)
	if err != nil {
		return nil, err
	}
	confirmed := transfer != nil
	if !confirmed {
		if transfer, err = u.findTransfer(ctx, detail.TxHash, since, false); err != nil {
			return nil, err
		}
	}
	if transfer == nil {
		// not indexed yet, or sent elsewhere
		return &domain.Outcome{Status: domain.StatusProcessing}, nil
	}

	received, err := decimal.NewFromString(transfer.Value)
	if err != nil {
		return nil, fmt.Errorf("trongrid: bad transfer value %q: %w", transfer.Value, err)
	}
	received = received.Shift(-transfer.TokenInfo.Decimals)
	detail.FromAddress = transfer.From
	detail.AmountReceived = received

	if received.LessThan(pay.Amount) {
		return &domain.Outcome{
			Status:        domain.StatusFailed,
			FailureReason: fmt.Sprintf("received %s USDT, expected %s", received.String(), pay.Amount.StringFixed(2)),
		}, nil
	}
	if !confirmed {
		return &domain.Outcome{Status: domain.StatusProcessing}, nil
	}
	detail.Confirmations = max(u.cfg.MinConfirmations, 1)
	return &domain.Outcome{Status: domain.StatusCompleted}, nil
}

func (u *USDTProcessor) findTransfer(ctx context.Context, txHash string, since time.Time, confirmed bool) (*trc20Transfer, error) {
	q := url.Values{}
	q.Set("only_to", "true")
	q.Set("contract_address", u.cfg.ContractAddress)
	q.Set("min_timestamp", fmt.Sprint(since.UnixMilli()))
	q.Set("limit", "200")
	if confirmed {
		q.Set("only_confirmed", "true")
	} else {
		q.Set("only_unconfirmed", "true")
	}
	path := "/v1/accounts/" + url.PathEscape(u.cfg.WalletAddress) + "/transactions/trc20?" + q.Encode()

	var resp struct {
		Data    []trc20Transfer `json:"data"`
		Success bool            `json:"success"`
	}
	err := u.client.do(ctx, http.MethodGet, path, nil, &resp, func(h http.Header) {
		if u.cfg.APIKey != "" {
			h.Set("TRON-PRO-API-KEY", u.cfg.APIKey)
		}
	})
	if err != nil {
		return nil, err
	}

	for i := range resp.Data {
		t := &resp.Data[i]
		if strings.EqualFold(strings.TrimPrefix(t.TransactionID, "0x"), txHash) &&
			t.To == u.cfg.WalletAddress &&
			t.TokenInfo.Address == u.cfg.ContractAddress {
			return t, nil
		}
	}
	return nil, nil
}

// Refund is manual for on-chain transfers
func (u *USDTProcessor) Refund(context.Context, *domain.Payment, decimal.Decimal, string) (*domain.RefundResult, error) {
	return nil, domain.ErrRefundUnsupported
}

// ParseWebhook is unsupported; USDT payments are polled
func (u *USDTProcessor) ParseWebhook(context.Context, []byte, http.Header) (*domain.WebhookEvent, error) {
	return nil, domain.ErrWebhookUnsupported
}

func (u *USDTProcessor) detail(pay *domain.Payment) *domain.USDTDetail {
	if pay.USDT == nil {
		pay.USDT = &domain.USDTDetail{Network: u.cfg.Network, WalletAddress: u.cfg.WalletAddress}
	}
	return pay.USDT
}

var _ domain.Processor = (*USDTProcessor)(nil)
