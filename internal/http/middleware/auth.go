package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harrmos/quran-api/internal/auth"
	"github.com/harrmos/quran-api/internal/domain"
)

// Gin context keys populated by RequireAuth.
const (
	userIDKey    = "userID"
	userEmailKey = "userEmail"
	userRoleKey  = "userRole"
)

func unauthorized(c *gin.Context, message string) {
	rid, _ := c.Get(requestIDKey)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": asString(rid),
		"code":       "unauthorized",
		"message":    message,
	})
}

// RequireAuth verifies the Bearer session token and stores the caller's
// identity in the Gin context. Requests without a valid token are rejected
// with 401 before reaching the handler.
func RequireAuth(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		claims, err := issuer.Verify(strings.TrimSpace(raw))
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(userIDKey, claims.Subject)
		c.Set(userEmailKey, claims.Email)
		c.Set(userRoleKey, claims.Role)
		c.Next()
	}
}

// RequireAdmin rejects callers whose session role is not admin. Must run
// after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if asString(mustGet(c, userRoleKey)) != domain.RoleAdmin {
			rid, _ := c.Get(requestIDKey)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"request_id": asString(rid),
				"code":       "forbidden",
				"message":    "admin access required",
			})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated caller's user id, empty when the request
// is unauthenticated.
func UserID(c *gin.Context) string { return asString(mustGet(c, userIDKey)) }

// UserRole returns the authenticated caller's role.
func UserRole(c *gin.Context) string { return asString(mustGet(c, userRoleKey)) }
