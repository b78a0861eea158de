package router

import (
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/logger"
	"github.com/Marusmurong/mall-sub000/internal/interfaces/http/handler"
	"github.com/Marusmurong/mall-sub000/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers groups every HTTP handler of the storefront API
type Handlers struct {
	System   *handler.SystemHandler
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Site     *handler.SiteHandler
	Catalog  *handler.CatalogHandler
	Shopping *handler.ShoppingHandler
	Order    *handler.OrderHandler
	Payment  *handler.PaymentHandler
}

// Config holds everything the engine needs besides the handlers
type Config struct {
	ServiceName    string
	Logger         *zap.Logger
	TrustedProxies []string

	// Meter enables HTTP metrics when not nil
	Meter     metric.Meter
	Tracing   bool
	Profiling bool

	CORS               middleware.CORSConfig
	MaxBodySize        int64
	WebhookMaxBodySize int64

	Site middleware.SiteConfig
	JWT  middleware.JWTMiddlewareConfig

	// RateLimiter applies to the whole API, AuthRateLimiter to /auth. Nil disables either.
	RateLimiter     *middleware.RateLimiter
	AuthRateLimiter *middleware.RateLimiter

	Swagger        middleware.SwaggerConfig
	SwaggerHandler gin.HandlerFunc

	// LocalImageDir is served under LocalImagePrefix when set
	LocalImageDir    string
	LocalImagePrefix string
}

// New builds the gin engine with the middleware stack and every route
func New(cfg Config, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request ID must exist before the logger and the
	// recovery handler read it, and tracing must wrap metrics
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log, logger.AccessLogOptions{
		RequestID: middleware.GetRequestID,
		SkipPaths: []string{"/health"},
	}))
	if cfg.Tracing {
		engine.Use(middleware.Tracing(cfg.ServiceName))
	}
	if cfg.Meter != nil {
		engine.Use(middleware.HTTPMetrics(cfg.Meter))
	}
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(cfg.CORS))

	engine.GET("/health", h.System.Health)
	engine.GET("/api/v1/system/info", h.System.GetSystemInfo)

	if cfg.SwaggerHandler != nil {
		chain := []gin.HandlerFunc{middleware.SwaggerProtection(cfg.Swagger)}
		if cfg.Swagger.RequireAuth {
			chain = append(chain, middleware.SiteContext(cfg.Site), middleware.JWTAuth(cfg.JWT), middleware.RequireAdmin())
		}
		engine.GET("/swagger/*any", append(chain, cfg.SwaggerHandler)...)
	}

	if cfg.LocalImageDir != "" && cfg.LocalImagePrefix != "" {
		engine.Static(cfg.LocalImagePrefix, cfg.LocalImageDir)
	}

	// Gateways call back without a site header or a token
	webhooks := engine.Group("/api/v1/payments/webhooks", middleware.BodyLimit(cfg.WebhookMaxBodySize))
	webhooks.POST("/:provider", h.Payment.Webhook)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(middleware.BodyLimit(cfg.MaxBodySize), middleware.SiteContext(cfg.Site))
	if cfg.Tracing {
		r.Use(middleware.SpanAttributes())
	}
	if cfg.Profiling {
		r.Use(middleware.Profiling())
	}
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimitByKey(cfg.RateLimiter, middleware.SiteClientKey))
	}

	authed := middleware.JWTAuth(cfg.JWT)
	optional := middleware.OptionalJWT(cfg.JWT)

	r.Register(storefrontRoutes(h)).
		Register(authRoutes(h, cfg, authed)).
		Register(shoppingRoutes(h, authed)).
		Register(orderRoutes(h, authed)).
		Register(paymentRoutes(h, optional)).
		Register(adminRoutes(h, authed))
	r.Setup()

	return engine
}

func storefrontRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("storefront", "")
	g.GET("/site", h.Site.Current)
	g.GET("/site/slides", h.Site.Slides)
	g.GET("/categories", h.Catalog.CategoryTree)
	g.GET("/goods", h.Catalog.ListGoods)
	g.GET("/goods/:id", h.Catalog.GetGoods)
	g.GET("/wishlists/shared/:token", h.Shopping.GetSharedWishlist)
	return g
}

func authRoutes(h Handlers, cfg Config, authed gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("auth", "/auth")
	if cfg.AuthRateLimiter != nil {
		g.Use(middleware.RateLimitByKey(cfg.AuthRateLimiter, middleware.SiteClientKey))
	}
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	g.POST("/refresh", h.Auth.RefreshToken)
	g.POST("/logout", authed, h.Auth.Logout)
	g.GET("/me", authed, h.Auth.Me)
	g.PUT("/me", authed, h.Auth.UpdateProfile)
	g.PUT("/password", authed, h.Auth.ChangePassword)
	return g
}

func shoppingRoutes(h Handlers, authed gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("shopping", "")
	g.GET("/cart", authed, h.Shopping.GetCart)
	g.DELETE("/cart", authed, h.Shopping.ClearCart)
	g.POST("/cart/items", authed, h.Shopping.AddCartItem)
	g.PUT("/cart/items/:goods_id", authed, h.Shopping.UpdateCartItem)
	g.DELETE("/cart/items/:goods_id", authed, h.Shopping.RemoveCartItem)

	g.GET("/wishlists", authed, h.Shopping.ListWishlists)
	g.POST("/wishlists", authed, h.Shopping.CreateWishlist)
	g.GET("/wishlists/:id", authed, h.Shopping.GetWishlist)
	g.PUT("/wishlists/:id", authed, h.Shopping.RenameWishlist)
	g.DELETE("/wishlists/:id", authed, h.Shopping.DeleteWishlist)
	g.POST("/wishlists/:id/share", authed, h.Shopping.ShareWishlist)
	g.DELETE("/wishlists/:id/share", authed, h.Shopping.UnshareWishlist)
	g.POST("/wishlists/:id/items", authed, h.Shopping.AddWishlistItem)
	g.DELETE("/wishlists/:id/items/:item_id", authed, h.Shopping.RemoveWishlistItem)
	return g
}

func orderRoutes(h Handlers, authed gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("orders", "")
	g.Use(authed)
	g.POST("/checkout", h.Order.Checkout)
	g.GET("/orders", h.Order.ListMine)
	g.GET("/orders/:id", h.Order.GetMine)
	g.POST("/orders/:id/cancel", h.Order.CancelMine)
	g.POST("/orders/:id/confirm", h.Order.ConfirmReceipt)
	g.POST("/orders/:id/refunds", h.Order.RequestRefund)
	return g
}

// paymentRoutes serve guests buying wishlist gifts as well as signed-in users
func paymentRoutes(h Handlers, optional gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("payments", "/payments")
	g.Use(optional)
	g.GET("/methods", h.Payment.Methods)
	g.POST("", h.Payment.Create)
	g.GET("/:id", h.Payment.Get)
	g.POST("/:id/process", h.Payment.Process)
	g.POST("/:id/verify", h.Payment.Verify)
	g.POST("/:id/cancel", h.Payment.Cancel)
	return g
}

func adminRoutes(h Handlers, authed gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("admin", "/admin")
	g.Use(authed, middleware.RequireAdmin())

	sites := g.Group("sites", "/sites")
	sites.GET("", h.Site.List)
	sites.POST("", h.Site.Create)
	sites.GET("/:id", h.Site.Get)
	sites.PUT("/:id", h.Site.Update)
	sites.POST("/:id/activate", h.Site.Activate)
	sites.POST("/:id/deactivate", h.Site.Deactivate)
	sites.PUT("/:id/features", h.Site.SetFeatures)
	sites.GET("/:id/theme", h.Site.GetTheme)
	sites.PUT("/:id/theme", h.Site.UpdateTheme)
	sites.GET("/:id/config", h.Site.ListConfig)
	sites.PUT("/:id/config/:key", h.Site.SetConfig)
	sites.DELETE("/:id/config/:key", h.Site.DeleteConfig)
	sites.GET("/:id/slides", h.Site.ListSlides)
	sites.POST("/:id/slides", h.Site.CreateSlide)
	sites.PUT("/:id/slides/:slide_id", h.Site.UpdateSlide)
	sites.DELETE("/:id/slides/:slide_id", h.Site.DeleteSlide)

	goods := g.Group("goods", "/goods")
	goods.GET("", h.Catalog.AdminListGoods)
	goods.POST("", h.Catalog.CreateGoods)
	goods.GET("/:id", h.Catalog.AdminGetGoods)
	goods.PUT("/:id", h.Catalog.UpdateGoods)
	goods.DELETE("/:id", h.Catalog.DeleteGoods)
	goods.POST("/:id/publish", h.Catalog.PublishGoods)
	goods.POST("/:id/unpublish", h.Catalog.UnpublishGoods)
	goods.PUT("/:id/visibility", h.Catalog.SetVisibility)
	goods.POST("/:id/stock", h.Catalog.AdjustStock)
	goods.POST("/:id/images", h.Catalog.UploadImage)
	goods.POST("/:id/images/url", h.Catalog.AddImageURL)
	goods.POST("/:id/images/presign", h.Catalog.PresignImage)
	goods.POST("/:id/images/confirm", h.Catalog.ConfirmImage)
	goods.DELETE("/:id/images/:image_id", h.Catalog.RemoveImage)

	categories := g.Group("categories", "/categories")
	categories.GET("", h.Catalog.AdminCategoryTree)
	categories.POST("", h.Catalog.CreateCategory)
	categories.GET("/:id", h.Catalog.GetCategory)
	categories.PUT("/:id", h.Catalog.UpdateCategory)
	categories.DELETE("/:id", h.Catalog.DeleteCategory)

	g.GET("/users", h.User.List)
	g.GET("/users/:id", h.User.Get)
	g.PUT("/users/:id/role", h.User.SetRole)
	g.POST("/users/:id/activate", h.User.Activate)
	g.POST("/users/:id/deactivate", h.User.Deactivate)

	g.GET("/orders", h.Order.AdminList)
	g.GET("/orders/:id", h.Order.AdminGet)
	g.POST("/orders/:id/process", h.Order.StartProcessing)
	g.POST("/orders/:id/ship", h.Order.Ship)
	g.POST("/orders/:id/deliver", h.Order.MarkDelivered)
	g.POST("/orders/:id/complete", h.Order.Complete)
	g.POST("/orders/:id/cancel", h.Order.AdminCancel)
	g.GET("/refunds", h.Order.ListRefunds)
	g.POST("/refunds/:refund_id/approve", h.Order.ApproveRefund)
	g.POST("/refunds/:refund_id/reject", h.Order.RejectRefund)

	g.GET("/payments", h.Payment.AdminList)
	g.GET("/webhook-logs", h.Payment.ListWebhookLogs)
	g.GET("/webhook-logs/:id", h.Payment.GetWebhookLog)
	return g
}
