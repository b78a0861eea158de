package config

import "time"

// Default is the development configuration: local Postgres and Redis, every
// payment processor and Telegram switched off.
func Default() *Config {
	return &Config{
		App: AppConfig{Name: "mall", Env: "development", Port: "8080"},
		Database: DatabaseConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			DBName:          "mall",
			SSLMode:         "disable",
			SQLitePath:      "mall.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 60,
			ConnMaxIdleTime: 30,
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		JWT: JWTConfig{
			AccessTokenExpiration:  30 * time.Minute,
			RefreshTokenExpiration: 7 * 24 * time.Hour,
			Issuer:                 "mall",
			MaxLoginAttempts:       5,
			LockDuration:           15 * time.Minute,
		},
		Log: LogConfig{Level: "info", Format: "console", Output: "stdout"},
		Event: EventConfig{
			HandlerTimeout: 30 * time.Second,
			IdempotencyTTL: 72 * time.Hour,
		},
		HTTP: HTTPConfig{
			ReadTimeout:           15 * time.Second,
			WriteTimeout:          30 * time.Second,
			IdleTimeout:           time.Minute,
			MaxHeaderBytes:        1 << 20,
			MaxBodySize:           10 << 20,
			WebhookMaxBodySize:    64 << 10,
			RateLimitRequests:     100,
			RateLimitWindow:       time.Minute,
			AuthRateLimitRequests: 5,
			AuthRateLimitWindow:   time.Minute,
			// no origins: cross-origin calls stay blocked until configured
			CORSAllowMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
			CORSAllowHeaders: []string{"Content-Type", "Authorization", "X-Request-ID", "X-Site-Code"},
		},
		Site: SiteConfig{DefaultCode: "main", HeaderName: "X-Site-Code"},
		Payment: PaymentConfig{
			ExpireAfter: 30 * time.Minute,
			USDT: USDTConfig{
				Network:          "TRC20",
				ContractAddress:  "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",
				APIURL:           "https://api.trongrid.io",
				MinConfirmations: 19,
				Timeout:          15 * time.Second,
			},
			PayPal:   PayPalConfig{BaseURL: "https://api-m.sandbox.paypal.com", Timeout: 15 * time.Second},
			Coinbase: CoinbaseConfig{BaseURL: "https://api.commerce.coinbase.com", Timeout: 15 * time.Second},
		},
		Telegram: TelegramConfig{APIURL: "https://api.telegram.org", Timeout: 10 * time.Second},
		Storage: StorageConfig{
			Region:            "us-east-1",
			PresignExpiration: 15 * time.Minute,
			MaxImageSize:      5 << 20,
			LocalDir:          "./uploads",
			LocalURLPrefix:    "/uploads",
		},
		Scraper: ScraperConfig{
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36",
			Timeout:   time.Minute,
			MaxItems:  200,
		},
		Scheduler: SchedulerConfig{
			PaymentSweepInterval: time.Minute,
			OrderSweepInterval:   5 * time.Minute,
			PendingOrderTTL:      24 * time.Hour,
			PaymentPollInterval:  2 * time.Minute,
			BatchSize:            100,
			JobTimeout:           2 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			CollectorEndpoint: "localhost:4317",
			SamplingRatio:     1,
			ServiceName:       "mall",
			MetricsInterval:   time.Minute,
			DBSlowQueryThresh: 200 * time.Millisecond,
		},
	}
}
