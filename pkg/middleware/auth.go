package middleware

import (
	"net/http"
	"strings"

	"devforge/backend/pkg/jwt"
	"devforge/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// BearerToken extracts the credential from the Authorization header or the
// token query field.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

// Claims returns the verified claims set by JWTAuthMiddleware, or nil
func Claims(c *gin.Context) *jwt.JWTClaims {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil
	}
	claims, ok := v.(*jwt.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// JWTAuthMiddleware gates protected routes. Verification includes the
// revocation-store check, so a logged-out token is rejected even before
// its natural expiry.
func JWTAuthMiddleware(jwtService *jwt.Service, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}

		claims, err := jwtService.Verify(c.Request.Context(), token)
		if err != nil {
			if log != nil {
				log.Warn("credential rejected", "error", err.Error(), "path", c.Request.URL.Path)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Set("userId", claims.UserID)
		c.Next()
	}
}
