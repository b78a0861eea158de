package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRouter(l *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(l), GinMiddleware(l, AccessLogOptions{
		RequestID: func(c *gin.Context) string { return c.GetHeader("X-Request-ID") },
		SkipPaths: []string{"/health"},
	}))
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGinMiddleware_LevelsAndFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	r := newTestRouter(zap.New(core))

	r.GET("/goods/:id", func(c *gin.Context) {
		ctx := c.Request.Context()
		assert.Equal(t, "req-42", GetRequestID(ctx))
		ctx, _ = WithSiteCode(ctx, FromContext(ctx), "eu")
		ctx, _ = WithUserID(ctx, FromContext(ctx), "u-1")
		c.Request = c.Request.WithContext(ctx)
		FromContext(ctx).Debug("inside handler")
		c.Status(http.StatusOK)
	})
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/goods/7?x=1", "/missing", "/broken", "/health"} {
		get(r, path)
	}

	reqLogs := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, reqLogs, 3)
	assert.Equal(t, zapcore.InfoLevel, reqLogs[0].Level)
	assert.Equal(t, zapcore.WarnLevel, reqLogs[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, reqLogs[2].Level)

	fields := reqLogs[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "eu", fields["site_code"])
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "/goods/:id", fields["route"])
	assert.Equal(t, "x=1", fields["query"])

	inside := recorded.FilterMessage("inside handler").All()
	require.Len(t, inside, 1)
	assert.Equal(t, "eu", inside[0].ContextMap()["site_code"])
}

func TestGinMiddleware_NoRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(GinMiddleware(zap.New(core), AccessLogOptions{}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].ContextMap(), "request_id")
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	r := newTestRouter(zap.New(core))
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := get(r, "/panic")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":"ERR_INTERNAL","message":"Internal server error","data":null}`, w.Body.String())
	panics := recorded.FilterMessage("Panic recovered").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "req-42", panics[0].ContextMap()["request_id"])
}
