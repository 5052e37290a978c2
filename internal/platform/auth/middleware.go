package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ridloal/toko-storefront/internal/platform/logger"
)

const (
	ctxUserID  = "userId"
	ctxEmail   = "email"
	ctxIsAdmin = "isAdmin"
)

// RequireAuth accepts "Authorization: Bearer <token>" and stores the caller in the gin context.
func RequireAuth(tokens *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxIsAdmin, claims.IsAdmin)
		c.Next()
	}
}

// AdminLookup reports whether the user currently holds admin rights.
type AdminLookup func(ctx context.Context, userID int64) (bool, error)

// RequireAdmin must run after RequireAuth. With a lookup the flag is re-read on
// every request, so revoking admin or deleting the account takes effect before
// the token expires. A nil lookup trusts the token claim.
func RequireAdmin(lookup AdminLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin := c.GetBool(ctxIsAdmin)
		if lookup != nil {
			userID, _ := UserID(c)
			current, err := lookup(c.Request.Context(), userID)
			if err != nil {
				logger.Error("RequireAdmin: admin lookup failed for user %d", err, userID)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Could not verify admin access"})
				return
			}
			isAdmin = current
			c.Set(ctxIsAdmin, current)
		}
		if !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: admin only"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated caller set by RequireAuth.
func UserID(c *gin.Context) (int64, bool) {
	id := c.GetInt64(ctxUserID)
	return id, id != 0
}

// WithUser is for handler tests that bypass token checks.
func WithUser(userID int64, isAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxUserID, userID)
		c.Set(ctxIsAdmin, isAdmin)
		c.Next()
	}
}
