// README: Optional Firebase auth; resolves a verified userId from a Bearer token.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"concierge/internal/infra"
)

// UserIDKey is the context key under which Auth stores the verified user ID.
const UserIDKey = "authUserId"

// Auth verifies a Firebase ID token when one is presented. Requests without
// a token pass through anonymously; requests with a bad token are rejected.
// With a nil verifier the middleware is a passthrough.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")
		if raw == header || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(UserIDKey, token.UID)
		c.Next()
	}
}
