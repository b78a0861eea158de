package middleware

import (
	"net/http"

	"github.com/Marusmurong/mall-sub000/internal/domain/identity"
	"github.com/Marusmurong/mall-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// RequireAdmin lets through only admins of the resolved site. It must run
// after JWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if claims.Role != string(identity.RoleAdmin) {
			abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "Admin role required")
			return
		}
		c.Next()
	}
}
