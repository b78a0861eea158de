package config

import (
	"errors"
	"fmt"
	"slices"
)

// Validate reports every problem at once so a broken deployment can be
// fixed in one pass.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	db := c.Database
	check(db.Driver == "postgres" || db.Driver == "sqlite",
		"database.driver must be postgres or sqlite, got %q", db.Driver)
	check(db.MaxOpenConns > 0, "database.max_open_conns must be positive")
	check(db.MaxIdleConns >= 0, "database.max_idle_conns cannot be negative")
	check(db.MaxIdleConns <= db.MaxOpenConns,
		"database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)
	check(c.HTTP.WebhookMaxBodySize > 0, "http.webhook_max_body_size must be positive")

	p := c.Payment
	check(!p.USDT.Enabled || p.USDT.WalletAddress != "",
		"payment.usdt.wallet_address is required when usdt is enabled")
	check(!p.PayPal.Enabled || (p.PayPal.ClientID != "" && p.PayPal.ClientSecret != ""),
		"payment.paypal.client_id and client_secret are required when paypal is enabled")
	check(!p.Stripe.Enabled || p.Stripe.SecretKey != "",
		"payment.stripe.secret_key is required when stripe is enabled")
	check(!p.Coinbase.Enabled || p.Coinbase.APIKey != "",
		"payment.coinbase.api_key is required when coinbase is enabled")
	check(!c.Telegram.Enabled || c.Telegram.BotToken != "",
		"telegram.bot_token is required when telegram is enabled")
	check(!c.Storage.Enabled || c.Storage.Bucket != "",
		"storage.bucket is required when storage is enabled")

	t := c.Telemetry
	check(!t.ProfilingEnabled || t.ProfilerAddress != "",
		"telemetry.profiler_address is required when profiling is enabled")
	check(t.SamplingRatio >= 0 && t.SamplingRatio <= 1,
		"telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", t.SamplingRatio)

	if c.IsProduction() {
		errs = append(errs, c.productionProblems()...)
	}
	return errors.Join(errs...)
}

// productionProblems lists settings that are tolerated in development only.
func (c *Config) productionProblems() []error {
	rules := []struct {
		bad bool
		msg string
	}{
		{len(c.JWT.Secret) < 32, "jwt.secret must be at least 32 characters in production"},
		{c.Database.Driver != "postgres", "database.driver must be postgres in production"},
		{c.Database.Password == "", "database.password is required in production"},
		{c.Database.SSLMode == "disable", "database.sslmode cannot be 'disable' in production"},
		{slices.Contains(c.HTTP.CORSAllowOrigins, "*"), "http.cors_allow_origins cannot contain '*' in production"},
		{c.Payment.Stripe.Enabled && c.Payment.Stripe.WebhookSecret == "", "payment.stripe.webhook_secret is required in production"},
		{c.Payment.PayPal.Enabled && c.Payment.PayPal.WebhookID == "", "payment.paypal.webhook_id is required in production"},
		{c.Payment.Coinbase.Enabled && c.Payment.Coinbase.WebhookSecret == "", "payment.coinbase.webhook_secret is required in production"},
		{c.Swagger.Enabled && !c.Swagger.RequireAuth && len(c.Swagger.AllowedIPs) == 0,
			"swagger endpoint must be disabled, require authentication, or have IP restriction in production"},
		{c.Telemetry.DBLogFullSQL, "telemetry.db_log_full_sql must be false in production"},
	}
	var errs []error
	for _, r := range rules {
		if r.bad {
			errs = append(errs, errors.New(r.msg))
		}
	}
	return errs
}
