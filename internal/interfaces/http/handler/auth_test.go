package handler

import (
	"net/http"
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/application/identity"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/auth"
	"github.com/Marusmurong/mall-sub000/internal/interfaces/http/middleware"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Register(t *testing.T) {
	st := newTestSite(t, "alpha")
	svc := new(mockAuthService)
	h := NewAuthHandler(svc, nil)
	r := newTestRouter(st, uuid.Nil)
	r.POST("/auth/register", h.Register)

	email := gofakeit.Email()
	svc.On("Register", mock.Anything, mock.MatchedBy(func(in identity.RegisterInput) bool {
		return in.Site.ID == st.ID && in.Site.Code == "alpha" && in.Email == email && in.IP != ""
	})).Return(&identity.AuthResult{AccessToken: "access", TokenType: "Bearer"}, nil)

	w := doJSON(r, http.MethodPost, "/auth/register", map[string]string{
		"email":    email,
		"password": gofakeit.Password(true, true, true, false, false, 12),
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeEnvelope(t, w)
	assert.Equal(t, "OK", resp.Code)
	assert.Equal(t, "access", resp.Data.(map[string]any)["access_token"])
	svc.AssertExpectations(t)
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	svc := new(mockAuthService)
	h := NewAuthHandler(svc, nil)
	r := newTestRouter(newTestSite(t, "alpha"), uuid.Nil)
	r.POST("/auth/register", h.Register)

	w := doJSON(r, http.MethodPost, "/auth/register", map[string]string{"email": "not-an-email", "password": "short"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_VALIDATION", decodeEnvelope(t, w).Code)
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := new(mockAuthService)
	h := NewAuthHandler(svc, nil)
	r := newTestRouter(newTestSite(t, "alpha"), uuid.Nil)
	r.POST("/auth/login", h.Login)

	svc.On("Login", mock.Anything, mock.Anything).
		Return(nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password"))

	w := doJSON(r, http.MethodPost, "/auth/login", map[string]string{"email": gofakeit.Email(), "password": "wrong-password"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, "ERR_INVALID_CREDENTIALS", resp.Code)
	assert.Nil(t, resp.Data)
}

func TestAuthHandler_Logout(t *testing.T) {
	userID := uuid.New()
	svc := new(mockAuthService)
	h := NewAuthHandler(svc, nil)
	r := newTestRouter(newTestSite(t, "alpha"), userID)
	r.POST("/auth/logout", func(c *gin.Context) {
		c.Set(middleware.JWTClaimsKey, &auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{ID: "jti-1"},
			UserID:           userID.String(),
		})
		h.Logout(c)
	})

	svc.On("Logout", mock.Anything, mock.MatchedBy(func(in identity.LogoutInput) bool {
		return in.UserID == userID && in.TokenID == "jti-1"
	})).Return(nil)

	w := doJSON(r, http.MethodPost, "/auth/logout", nil)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	svc.AssertExpectations(t)
}

func TestAuthHandler_Me_RequiresUser(t *testing.T) {
	svc := new(mockAuthService)
	h := NewAuthHandler(svc, nil)
	r := newTestRouter(newTestSite(t, "alpha"), uuid.Nil)
	r.GET("/auth/me", h.Me)

	w := doJSON(r, http.MethodGet, "/auth/me", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "GetCurrentUser", mock.Anything, mock.Anything)
}
