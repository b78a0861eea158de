package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the whole service configuration. Keys are the mapstructure tags
// joined with dots; each one can be overridden by MALL_<KEY> with dots
// replaced by underscores, e.g. MALL_PAYMENT_STRIPE_SECRET_KEY.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Event     EventConfig     `mapstructure:"event"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Site      SiteConfig      `mapstructure:"site"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Swagger   SwaggerConfig   `mapstructure:"swagger"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr or a file path
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres, sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
	// MigrateOnStart applies the embedded SQL migrations before serving (postgres only)
	MigrateOnStart bool `mapstructure:"migrate_on_start"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret                 string        `mapstructure:"secret"`
	RefreshSecret          string        `mapstructure:"refresh_secret"`
	AccessTokenExpiration  time.Duration `mapstructure:"access_token_expiration"`
	RefreshTokenExpiration time.Duration `mapstructure:"refresh_token_expiration"`
	Issuer                 string        `mapstructure:"issuer"`
	MaxLoginAttempts       int           `mapstructure:"max_login_attempts"`
	LockDuration           time.Duration `mapstructure:"lock_duration"`
}

type EventConfig struct {
	AsyncHandlers  bool          `mapstructure:"async_handlers"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
	// IdempotencyTTL is how long handled event and webhook ids are remembered
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

type HTTPConfig struct {
	ReadTimeout           time.Duration `mapstructure:"read_timeout"`
	WriteTimeout          time.Duration `mapstructure:"write_timeout"`
	IdleTimeout           time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes        int           `mapstructure:"max_header_bytes"`
	MaxBodySize           int64         `mapstructure:"max_body_size"`
	WebhookMaxBodySize    int64         `mapstructure:"webhook_max_body_size"`
	RateLimitEnabled      bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests     int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow       time.Duration `mapstructure:"rate_limit_window"`
	AuthRateLimitEnabled  bool          `mapstructure:"auth_rate_limit_enabled"`
	AuthRateLimitRequests int           `mapstructure:"auth_rate_limit_requests"`
	AuthRateLimitWindow   time.Duration `mapstructure:"auth_rate_limit_window"`
	CORSAllowOrigins      []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods      []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders      []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies        []string      `mapstructure:"trusted_proxies"`
}

// SiteConfig controls how requests are mapped to storefront sites.
type SiteConfig struct {
	// DefaultCode is used when neither the header nor the host names a site
	DefaultCode string `mapstructure:"default_code"`
	HeaderName  string `mapstructure:"header_name"`
}

type PaymentConfig struct {
	// ExpireAfter cancels open payments older than this
	ExpireAfter time.Duration  `mapstructure:"expire_after"`
	ReturnURL   string         `mapstructure:"return_url"`
	CancelURL   string         `mapstructure:"cancel_url"`
	USDT        USDTConfig     `mapstructure:"usdt"`
	PayPal      PayPalConfig   `mapstructure:"paypal"`
	Stripe      StripeConfig   `mapstructure:"stripe"`
	Coinbase    CoinbaseConfig `mapstructure:"coinbase"`
}

// USDTConfig configures direct TRC20 transfers verified through TronGrid.
type USDTConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Network          string        `mapstructure:"network"`
	WalletAddress    string        `mapstructure:"wallet_address"`
	ContractAddress  string        `mapstructure:"contract_address"`
	APIURL           string        `mapstructure:"api_url"`
	APIKey           string        `mapstructure:"api_key"`
	MinConfirmations int           `mapstructure:"min_confirmations"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

type PayPalConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	BaseURL      string        `mapstructure:"base_url"`
	WebhookID    string        `mapstructure:"webhook_id"`
	BrandName    string        `mapstructure:"brand_name"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type StripeConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	SecretKey      string `mapstructure:"secret_key"`
	PublishableKey string `mapstructure:"publishable_key"`
	WebhookSecret  string `mapstructure:"webhook_secret"`
	BaseURL        string `mapstructure:"base_url"` // API backend override, for tests
}

type CoinbaseConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	APIKey        string        `mapstructure:"api_key"`
	WebhookSecret string        `mapstructure:"webhook_secret"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type TelegramConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	BotToken     string        `mapstructure:"bot_token"`
	APIURL       string        `mapstructure:"api_url"`
	AdminChatIDs []string      `mapstructure:"admin_chat_ids"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// StorageConfig points goods images at an S3 compatible bucket, or at a
// local directory when disabled.
type StorageConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Endpoint          string        `mapstructure:"endpoint"`
	Region            string        `mapstructure:"region"`
	Bucket            string        `mapstructure:"bucket"`
	AccessKey         string        `mapstructure:"access_key"`
	SecretKey         string        `mapstructure:"secret_key"`
	UseSSL            bool          `mapstructure:"use_ssl"`
	UsePathStyle      bool          `mapstructure:"use_path_style"`
	PublicBaseURL     string        `mapstructure:"public_base_url"`
	PresignExpiration time.Duration `mapstructure:"presign_expiration"`
	MaxImageSize      int64         `mapstructure:"max_image_size"`
	LocalDir          string        `mapstructure:"local_dir"`
	LocalURLPrefix    string        `mapstructure:"local_url_prefix"`
}

type ScraperConfig struct {
	// RemoteURL attaches to a running Chrome instead of launching one
	RemoteURL    string           `mapstructure:"remote_url"`
	ChromePath   string           `mapstructure:"chrome_path"`
	UserAgent    string           `mapstructure:"user_agent"`
	Timeout      time.Duration    `mapstructure:"timeout"`
	WaitSelector string           `mapstructure:"wait_selector"`
	Selectors    ScraperSelectors `mapstructure:"selectors"`
	MaxItems     int              `mapstructure:"max_items"`
}

// ScraperSelectors are CSS selectors applied to a listing page.
type ScraperSelectors struct {
	Item        string `mapstructure:"item"`
	Name        string `mapstructure:"name"`
	Price       string `mapstructure:"price"`
	Description string `mapstructure:"description"`
	Image       string `mapstructure:"image"`
	Link        string `mapstructure:"link"`
}

type SchedulerConfig struct {
	Enabled              bool          `mapstructure:"enabled"`
	PaymentSweepInterval time.Duration `mapstructure:"payment_sweep_interval"`
	OrderSweepInterval   time.Duration `mapstructure:"order_sweep_interval"`
	// PendingOrderTTL cancels unpaid orders older than this
	PendingOrderTTL     time.Duration `mapstructure:"pending_order_ttl"`
	PaymentPollInterval time.Duration `mapstructure:"payment_poll_interval"`
	BatchSize           int           `mapstructure:"batch_size"`
	JobTimeout          time.Duration `mapstructure:"job_timeout"`
}

type SwaggerConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	RequireAuth bool     `mapstructure:"require_auth"`
	AllowedIPs  []string `mapstructure:"allowed_ips"`
}

type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"` // plaintext gRPC to the collector
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
	ProfilingEnabled  bool          `mapstructure:"profiling_enabled"`
	ProfilerAddress   string        `mapstructure:"profiler_address"` // e.g. http://pyroscope:4040
}

// Load reads config.toml from the working directory, ./config or /app and
// applies MALL_ environment overrides on top of Default.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit file. A missing file is only an error
// when the path was given.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		for _, dir := range []string{".", "./config", "/app"} {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// every key needs a default so AutomaticEnv can see it during Unmarshal
	registerDefaults(v, "", reflect.ValueOf(Default()).Elem())
	v.SetEnvPrefix("MALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func registerDefaults(v *viper.Viper, prefix string, rv reflect.Value) {
	rt := rv.Type()
	for i := range rt.NumField() {
		field := rt.Field(i)
		key := field.Tag.Get("mapstructure")
		if prefix != "" {
			key = prefix + "." + key
		}
		if field.Type.Kind() == reflect.Struct {
			registerDefaults(v, key, rv.Field(i))
			continue
		}
		v.SetDefault(key, rv.Field(i).Interface())
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN builds the driver connection string. Postgres credentials are URL
// escaped; sqlite gets foreign keys switched on.
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.SQLitePath + "?_foreign_keys=on"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
