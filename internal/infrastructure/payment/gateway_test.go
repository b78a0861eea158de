package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPayment(t *testing.T, method domain.Method, amount string) *domain.Payment {
	t.Helper()
	userID := uuid.New()
	p, err := domain.NewPayment(uuid.New(), &userID, method,
		valueobject.MustMoney(decimal.RequireFromString(amount), valueobject.USD), domain.OrderTarget(uuid.New()))
	require.NoError(t, err)
	return p
}

func TestGatewayClient_Do(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "yes", r.Header.Get("X-Test"))
			_, _ = w.Write([]byte(`{"value":"pong"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`upstream down`))
		}
	}))
	defer srv.Close()

	c := newGatewayClient("test", srv.URL+"/", time.Second)

	var out struct {
		Value string `json:"value"`
	}
	err := c.do(context.Background(), http.MethodPost, "/ok", map[string]string{"ping": "1"}, &out, func(h http.Header) {
		h.Set("X-Test", "yes")
	})
	require.NoError(t, err)
	assert.Equal(t, "pong", out.Value)

	err = c.do(context.Background(), http.MethodGet, "/broken", nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	var gwErr *gatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusBadGateway, gwErr.StatusCode)
	assert.Equal(t, "upstream down", gwErr.Body)
}

func TestGatewayClient_Unreachable(t *testing.T) {
	c := newGatewayClient("test", "http://127.0.0.1:1", 200*time.Millisecond)
	err := c.do(context.Background(), http.MethodGet, "/", nil, nil, nil)
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(config.PaymentConfig{
		USDT:     config.USDTConfig{Enabled: true, WalletAddress: "TWallet"},
		Coinbase: config.CoinbaseConfig{Enabled: true, APIKey: "key"},
		Stripe:   config.StripeConfig{Enabled: false},
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []domain.Method{domain.MethodCoinbase, domain.MethodUSDT}, reg.Methods())

	_, err = reg.Get(domain.MethodCreditCard)
	assert.ErrorIs(t, err, domain.ErrUnsupportedMethod)

	_, err = NewRegistry(config.PaymentConfig{PayPal: config.PayPalConfig{Enabled: true}}, zap.NewNop())
	assert.Error(t, err)
}
