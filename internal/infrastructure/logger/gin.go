package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessLogOptions tunes GinMiddleware.
type AccessLogOptions struct {
	// RequestID reads the ID assigned by the request ID middleware
	RequestID func(c *gin.Context) string
	// SkipPaths are served without an access log line, e.g. /health
	SkipPaths []string
}

// GinMiddleware puts a request-scoped logger into the request context and
// writes one access log line per request. The site and user are read back
// from the context after the handlers ran, since site resolution and JWT
// auth attach them further down the chain.
func GinMiddleware(base *zap.Logger, opts AccessLogOptions) gin.HandlerFunc {
	skip := make(map[string]bool, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		var requestID string
		if opts.RequestID != nil {
			requestID = opts.RequestID(c)
		}

		ctx := c.Request.Context()
		reqLog := base.With(zap.String("method", c.Request.Method), zap.String("path", c.Request.URL.Path))
		if requestID != "" {
			ctx, reqLog = WithRequestID(ctx, reqLog, requestID)
		}
		c.Request = c.Request.WithContext(WithContext(ctx, reqLog))

		c.Next()

		if skip[c.Request.URL.Path] {
			return
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if route := c.FullPath(); route != "" {
			fields = append(fields, zap.String("route", route))
		}
		done := c.Request.Context()
		if site := GetSiteCode(done); site != "" {
			fields = append(fields, zap.String("site_code", site))
		}
		if user := GetUserID(done); user != "" {
			fields = append(fields, zap.String("user_id", user))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			reqLog.Error("HTTP Request", fields...)
		case status >= http.StatusBadRequest:
			reqLog.Warn("HTTP Request", fields...)
		default:
			reqLog.Info("HTTP Request", fields...)
		}
	}
}

// Recovery turns a handler panic into the internal error envelope.
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				FromContextOr(c.Request.Context(), base).Error("Panic recovered",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", rec),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    "ERR_INTERNAL",
					"message": "Internal server error",
					"data":    nil,
				})
			}
		}()
		c.Next()
	}
}
