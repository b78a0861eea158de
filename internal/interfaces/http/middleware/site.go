package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/logger"
	"github.com/Marusmurong/mall-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultSiteHeader carries an explicit site code
const DefaultSiteHeader = "X-Site-Code"

const siteContextKey = "site"

// SiteResolver finds the active site for a request
type SiteResolver interface {
	Resolve(ctx context.Context, code, host, fallback string) (*site.Site, error)
}

// SiteConfig configures site resolution
type SiteConfig struct {
	Resolver    SiteResolver
	HeaderName  string
	DefaultCode string
	Logger      *zap.Logger
}

// SiteContext resolves the storefront from the site header, then the Host,
// then the default code. Unknown or inactive sites end the request with 404.
func SiteContext(cfg SiteConfig) gin.HandlerFunc {
	header := cfg.HeaderName
	if header == "" {
		header = DefaultSiteHeader
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		st, err := cfg.Resolver.Resolve(c.Request.Context(), c.GetHeader(header), c.Request.Host, cfg.DefaultCode)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				abortWithError(c, http.StatusNotFound, dto.ErrCodeNotFound, "Site not found")
				return
			}
			log.Error("Site resolution failed", zap.String("host", c.Request.Host), zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
			return
		}

		c.Set(siteContextKey, st)
		ctx := c.Request.Context()
		ctx, _ = logger.WithSiteCode(ctx, logger.FromContext(ctx), st.Code)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetSite returns the site resolved by SiteContext, or nil
func GetSite(c *gin.Context) *site.Site {
	if v, ok := c.Get(siteContextKey); ok {
		if st, ok := v.(*site.Site); ok {
			return st
		}
	}
	return nil
}

// SetSite stores st as the request's site
func SetSite(c *gin.Context, st *site.Site) {
	c.Set(siteContextKey, st)
}
