package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// identityKey is the gin context key under which Middleware stores the
// authenticated identity.
const identityKey = "identity"

// Middleware handles JWT authentication for the REST surface. Unlike the
// real-time handshake, a failure here only rejects the single request.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		id, err := ParseToken(secret, tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity attached by Middleware, or nil when
// the request never passed through it.
func IdentityFrom(c *gin.Context) *Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*Identity)
	return id
}
