package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/Marusmurong/mall-sub000/internal/application/catalog"
	identityapp "github.com/Marusmurong/mall-sub000/internal/application/identity"
	notificationapp "github.com/Marusmurong/mall-sub000/internal/application/notification"
	paymentapp "github.com/Marusmurong/mall-sub000/internal/application/payment"
	shoppingapp "github.com/Marusmurong/mall-sub000/internal/application/shopping"
	siteapp "github.com/Marusmurong/mall-sub000/internal/application/site"
	tradeapp "github.com/Marusmurong/mall-sub000/internal/application/trade"
	"github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/auth"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/cache"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/config"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/event"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/logger"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/notification"
	paymentinfra "github.com/Marusmurong/mall-sub000/internal/infrastructure/payment"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/persistence"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/scheduler"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/storage"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/telemetry"
	"github.com/Marusmurong/mall-sub000/internal/interfaces/http/handler"
	"github.com/Marusmurong/mall-sub000/internal/interfaces/http/middleware"
	"github.com/Marusmurong/mall-sub000/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/Marusmurong/mall-sub000/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

// lowStockThreshold feeds the mall_low_stock_goods gauge
const lowStockThreshold = 5

//	@title			Mall Storefront API
//	@version		1.0
//	@description	Multi-site storefront: catalog, cart, wishlists, checkout, orders and payments.
//	@description	Every storefront request is scoped to a site picked by the X-Site-Code header or the Host.

//	@contact.name	API Support
//	@contact.url	https://github.com/Marusmurong/mall-sub000

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
		Sample:     cfg.App.Env == "production",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, version, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			baseLog.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log := providers.Logger(baseLog)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting storefront",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	var gormOpts []logger.GormLoggerOption
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		gormOpts = append(gormOpts, logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	}
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), gormOpts...)
	db, err := persistence.Open(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.PrepareSchema(cfg.Database.MigrateOnStart, log); err != nil {
		log.Fatal("Failed to prepare database schema", zap.Error(err))
	}
	if err := telemetry.InstrumentDB(db.DB, cfg.Telemetry, cfg.Database.DBName, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	// Redis backs token revocation and webhook/event dedupe. Without it
	// both fall back to process memory.
	redisClient, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, token revocation and dedupe are process-local", zap.Error(err))
	}
	if redisClient != nil {
		defer func() {
			_ = redisClient.Close()
		}()
	}
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}
	idempotency := cache.NewIdempotencyStore(redisClient, log)
	defer func() {
		_ = idempotency.Close()
	}()

	// Repositories
	siteRepo := persistence.NewGormSiteRepository(db.DB)
	themeRepo := persistence.NewGormThemeRepository(db.DB)
	configRepo := persistence.NewGormConfigRepository(db.DB)
	slideRepo := persistence.NewGormSlideRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	goodsRepo := persistence.NewGormGoodsRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	wishlistRepo := persistence.NewGormWishlistRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	refundRepo := persistence.NewGormRefundRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	webhookRepo := persistence.NewGormWebhookLogRepository(db.DB)

	imageStorage, localImages := newImageStorage(ctx, cfg, log)

	registry, err := paymentinfra.NewRegistry(cfg.Payment, log.Named("payment"))
	if err != nil {
		log.Fatal("Failed to configure payment processors", zap.Error(err))
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authConfig := identityapp.AuthServiceConfig{
		MaxLoginAttempts: cfg.JWT.MaxLoginAttempts,
		LockDuration:     cfg.JWT.LockDuration,
		RefreshTTL:       cfg.JWT.RefreshTokenExpiration,
	}
	siteService := siteapp.NewSiteService(siteRepo, themeRepo, configRepo, slideRepo, log)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, authConfig, log)
	userService := identityapp.NewUserService(userRepo, blacklist, authConfig, log)
	goodsService := catalogapp.NewGoodsService(goodsRepo, categoryRepo, log)
	categoryService := catalogapp.NewCategoryService(categoryRepo)
	imageService := catalogapp.NewImageService(goodsRepo, imageStorage, log)
	imageService.SetConfig(catalogapp.ImageServiceConfig{MaxImageSize: cfg.Storage.MaxImageSize})
	cartService := shoppingapp.NewCartService(cartRepo, goodsRepo, log)
	wishlistService := shoppingapp.NewWishlistService(wishlistRepo, goodsRepo, log)
	checkoutService := tradeapp.NewCheckoutService(orderRepo, cartRepo, goodsRepo, configRepo, log)
	orderService := tradeapp.NewOrderService(orderRepo, refundRepo, log)
	paymentService := paymentapp.NewPaymentService(paymentRepo, webhookRepo, registry, orderService, wishlistRepo, idempotency,
		paymentapp.Config{
			ExpireAfter:      cfg.Payment.ExpireAfter,
			ReturnURL:        cfg.Payment.ReturnURL,
			CancelURL:        cfg.Payment.CancelURL,
			WebhookDedupeTTL: cfg.Event.IdempotencyTTL,
		}, log)
	orderService.SetRefundExecutor(paymentService)

	// Event bus and subscribers
	busOpts := []event.BusOption{event.WithHandlerTimeout(cfg.Event.HandlerTimeout)}
	if cfg.Event.AsyncHandlers {
		busOpts = append(busOpts, event.WithAsyncDispatch())
	}
	eventBus := event.NewInMemoryEventBus(log, busOpts...)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	meter := providers.Meter("mall")
	stockRestore := tradeapp.NewStockRestoreHandler(goodsRepo, log)
	eventBus.Subscribe(event.NewIdempotentHandler(stockRestore, idempotency, log,
		event.WithKeyPrefix("stock"), event.WithIdempotencyTTL(cfg.Event.IdempotencyTTL), event.WithMeter(meter)))
	orderPayments := paymentapp.NewOrderCancelledHandler(paymentService, log)
	eventBus.Subscribe(event.NewIdempotentHandler(orderPayments, idempotency, log,
		event.WithKeyPrefix("order-payment"), event.WithIdempotencyTTL(cfg.Event.IdempotencyTTL), event.WithMeter(meter)))

	if cfg.Telegram.Enabled {
		sender, err := notification.NewTelegramSender(cfg.Telegram, log.Named("telegram"))
		if err != nil {
			log.Fatal("Failed to configure Telegram", zap.Error(err))
		}
		notifier := notificationapp.NewEventHandler(sender, siteRepo, cfg.Telegram.AdminChatIDs, log)
		eventBus.Subscribe(event.NewIdempotentHandler(notifier, idempotency, log,
			event.WithKeyPrefix("telegram"), event.WithIdempotencyTTL(cfg.Event.IdempotencyTTL), event.WithMeter(meter)))
		log.Info("Telegram notifications enabled", zap.Int("admin_chats", len(cfg.Telegram.AdminChatIDs)))
	}

	storeMetrics, err := telemetry.NewStoreMetrics(meter, telemetry.NewGormStockCounter(db.DB), lowStockThreshold, log)
	if err != nil {
		log.Fatal("Failed to register store metrics", zap.Error(err))
	}
	defer func() {
		_ = storeMetrics.Stop()
	}()
	eventBus.Subscribe(storeMetrics)

	for _, svc := range []interface{ SetEventPublisher(p shared.EventPublisher) }{
		siteService, authService, goodsService, checkoutService, orderService, paymentService,
	} {
		svc.SetEventPublisher(eventBus)
	}

	// Background sweeps
	if cfg.Scheduler.Enabled {
		stop := startScheduler(ctx, cfg.Scheduler, paymentService, orderService, registry, log)
		defer stop()
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	healthChecks := map[string]handler.HealthCheck{
		"database": db.Ping,
	}
	if redisClient != nil {
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	handlers := router.Handlers{
		System:   handler.NewSystemHandler(version, healthChecks, log),
		Auth:     handler.NewAuthHandler(authService, log),
		User:     handler.NewUserHandler(userService, log),
		Site:     handler.NewSiteHandler(siteService, paymentService, log),
		Catalog:  handler.NewCatalogHandler(goodsService, categoryService, imageService, cfg.Storage.MaxImageSize, log),
		Shopping: handler.NewShoppingHandler(cartService, wishlistService, log),
		Order:    handler.NewOrderHandler(checkoutService, orderService, log),
		Payment:  handler.NewPaymentHandler(paymentService, log),
	}

	routerCfg := router.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		Logger:         log,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Tracing:        cfg.Telemetry.Enabled,
		Profiling:      cfg.Telemetry.ProfilingEnabled,
		CORS: middleware.CORSConfig{
			AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
			AllowMethods:     cfg.HTTP.CORSAllowMethods,
			AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
			ExposeHeaders:    middleware.DefaultCORSConfig().ExposeHeaders,
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
		MaxBodySize:        cfg.HTTP.MaxBodySize,
		WebhookMaxBodySize: cfg.HTTP.WebhookMaxBodySize,
		Site: middleware.SiteConfig{
			Resolver:    siteService,
			HeaderName:  cfg.Site.HeaderName,
			DefaultCode: cfg.Site.DefaultCode,
			Logger:      log,
		},
		JWT: middleware.JWTMiddlewareConfig{
			JWTService:     jwtService,
			TokenBlacklist: blacklist,
			Logger:         log,
		},
		Swagger: middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		},
		SwaggerHandler: ginSwagger.WrapHandler(swaggerFiles.Handler),
	}
	if providers.MetricsEnabled() {
		routerCfg.Meter = meter
	}
	if localImages != nil {
		routerCfg.LocalImageDir = localImages.Dir()
		routerCfg.LocalImagePrefix = localImages.URLPrefix()
	}
	if cfg.HTTP.RateLimitEnabled {
		routerCfg.RateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer routerCfg.RateLimiter.Stop()
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		routerCfg.AuthRateLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		defer routerCfg.AuthRateLimiter.Stop()
	}

	engine := router.New(routerCfg, handlers)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newImageStorage returns S3 storage when enabled, otherwise a local
// directory that the router serves statically
func newImageStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (catalogapp.ImageStorage, *storage.LocalImageStorage) {
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ImageStorage(&cfg.Storage,
			storage.WithLogger(log.Named("s3")),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration))
		if err != nil {
			log.Fatal("Failed to configure S3 storage", zap.Error(err))
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Warn("Image bucket check failed", zap.String("bucket", s3.Bucket()), zap.Error(err))
		}
		return s3, nil
	}
	local, err := storage.NewLocalImageStorage(cfg.Storage.LocalDir, cfg.Storage.LocalURLPrefix, log.Named("images"))
	if err != nil {
		log.Fatal("Failed to prepare local image directory", zap.Error(err))
	}
	log.Info("Serving images from local disk", zap.String("dir", local.Dir()))
	return local, local
}

// startScheduler registers the sweeps and starts the worker pool plus the
// interval trigger. The returned func stops both.
func startScheduler(
	ctx context.Context,
	cfg config.SchedulerConfig,
	payments scheduler.PaymentSweeper,
	orders scheduler.OrderSweeper,
	registry *payment.Registry,
	log *zap.Logger,
) func() {
	tasks := scheduler.NewTaskRegistry()
	tasks.Register(scheduler.TaskExpirePayments, scheduler.ExpirePaymentsTask(payments, cfg.BatchSize))
	tasks.Register(scheduler.TaskCancelUnpaidOrders, scheduler.CancelUnpaidOrdersTask(orders, cfg.PendingOrderTTL, cfg.BatchSize))

	schedules := []scheduler.Schedule{
		{Task: scheduler.TaskExpirePayments, Interval: cfg.PaymentSweepInterval},
		{Task: scheduler.TaskCancelUnpaidOrders, Interval: cfg.OrderSweepInterval},
	}
	// USDT transfers have no webhook, so open ones are polled
	if _, err := registry.Get(payment.MethodUSDT); err == nil {
		tasks.Register(scheduler.TaskPollUSDT, scheduler.PollPaymentsTask(payments, payment.MethodUSDT, cfg.PaymentPollInterval, cfg.BatchSize))
		schedules = append(schedules, scheduler.Schedule{Task: scheduler.TaskPollUSDT, Interval: cfg.PaymentPollInterval})
	}

	schedCfg := scheduler.DefaultConfig()
	schedCfg.JobTimeout = cfg.JobTimeout
	sched := scheduler.New(schedCfg, tasks, log.Named("scheduler"))
	if err := sched.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}
	trigger := scheduler.NewCronTrigger(sched, schedCfg.Retries, log.Named("scheduler"), schedules...)
	if err := trigger.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler trigger", zap.Error(err))
	}
	log.Info("Scheduler started", zap.Strings("tasks", tasks.Names()))

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := trigger.Stop(stopCtx); err != nil {
			log.Error("Error stopping scheduler trigger", zap.Error(err))
		}
		if err := sched.Stop(stopCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}
}
