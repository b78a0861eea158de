package middleware

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/Marusmurong/mall-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockSiteResolver struct {
	mock.Mock
}

func (m *mockSiteResolver) Resolve(ctx context.Context, code, host, fallback string) (*site.Site, error) {
	args := m.Called(ctx, code, host, fallback)
	if st := args.Get(0); st != nil {
		return st.(*site.Site), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestSite(t *testing.T, code string) *site.Site {
	t.Helper()
	st, err := site.NewSite(code, "Shop "+code, code+".example.com", valueobject.USD)
	require.NoError(t, err)
	return st
}

// withSite fixes the request's site without a resolver
func withSite(st *site.Site) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetSite(c, st)
		c.Next()
	}
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
