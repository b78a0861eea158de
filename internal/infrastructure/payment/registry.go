package payment

import (
	domain "github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewRegistry builds the processor registry from the enabled methods.
// A method whose configuration is invalid fails startup rather than
// silently disappearing from checkout.
func NewRegistry(cfg config.PaymentConfig, logger *zap.Logger) (*domain.Registry, error) {
	reg := domain.NewRegistry()

	if cfg.Stripe.Enabled {
		p, err := NewStripeProcessor(cfg.Stripe, logger.Named("stripe"))
		if err != nil {
			return nil, err
		}
		reg.Register(p)
	}
	if cfg.PayPal.Enabled {
		p, err := NewPayPalProcessor(cfg.PayPal, logger.Named("paypal"))
		if err != nil {
			return nil, err
		}
		reg.Register(p)
	}
	if cfg.Coinbase.Enabled {
		p, err := NewCoinbaseProcessor(cfg.Coinbase, logger.Named("coinbase"))
		if err != nil {
			return nil, err
		}
		reg.Register(p)
	}
	if cfg.USDT.Enabled {
		p, err := NewUSDTProcessor(cfg.USDT, logger.Named("usdt"))
		if err != nil {
			return nil, err
		}
		reg.Register(p)
	}

	methods := reg.Methods()
	if len(methods) == 0 {
		logger.Warn("no payment methods enabled; checkout will accept orders but cannot take payment")
	} else {
		logger.Info("payment processors registered", zap.Any("methods", methods))
	}
	return reg, nil
}
