package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is the gin context key holding the verified Claims.
const ClaimsKey = "claims"

// RequireRole enforces bearer JWT tokens signed with HS256 carrying role.
// An empty signing key disables the check.
func RequireRole(signingKey, issuer, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if signingKey == "" {
			c.Next()
			return
		}
		authz := c.GetHeader("Authorization")
		if len(authz) < len("bearer ") || !strings.EqualFold(authz[:len("bearer ")], "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token", "code": "UNAUTHORIZED"})
			return
		}
		claims, err := Parse(strings.TrimSpace(authz[len("bearer "):]), signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "UNAUTHORIZED"})
			return
		}
		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role", "code": "FORBIDDEN"})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}
