package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/logger"
	"github.com/Marusmurong/mall-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"
)

func newSiteRouter(resolver SiteResolver) *gin.Engine {
	router := gin.New()
	router.Use(SiteContext(SiteConfig{Resolver: resolver, DefaultCode: "main"}))
	router.GET("/test", func(c *gin.Context) {
		st := GetSite(c)
		c.String(http.StatusOK, st.Code+"|"+logger.GetSiteCode(c.Request.Context()))
	})
	return router
}

func TestSiteContext_HeaderCode(t *testing.T) {
	resolver := new(mockSiteResolver)
	resolver.On("Resolve", mock.Anything, "outlet", "shop.example.com", "main").Return(newTestSite(t, "outlet"), nil)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Host = "shop.example.com"
	req.Header.Set(DefaultSiteHeader, "outlet")
	w := httptest.NewRecorder()
	newSiteRouter(resolver).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "outlet|outlet", w.Body.String())
	resolver.AssertExpectations(t)
}

func TestSiteContext_CustomHeader(t *testing.T) {
	resolver := new(mockSiteResolver)
	resolver.On("Resolve", mock.Anything, "kids", mock.Anything, "").Return(newTestSite(t, "kids"), nil)

	router := gin.New()
	router.Use(SiteContext(SiteConfig{Resolver: resolver, HeaderName: "X-Shop", Logger: zaptest.NewLogger(t)}))
	router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, GetSite(c).Code) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Shop", "kids")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "kids", w.Body.String())
}

func TestSiteContext_UnknownSite(t *testing.T) {
	resolver := new(mockSiteResolver)
	resolver.On("Resolve", mock.Anything, "ghost", mock.Anything, "main").Return(nil, shared.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(DefaultSiteHeader, "ghost")
	w := httptest.NewRecorder()
	newSiteRouter(resolver).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Code)
	assert.Nil(t, resp.Data)
}

func TestSiteContext_ResolverFailure(t *testing.T) {
	resolver := new(mockSiteResolver)
	resolver.On("Resolve", mock.Anything, "", mock.Anything, "main").Return(nil, errors.New("db down"))

	w := httptest.NewRecorder()
	newSiteRouter(resolver).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrCodeInternal, decodeEnvelope(t, w).Code)
}

func TestGetSite_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetSite(c))
}
