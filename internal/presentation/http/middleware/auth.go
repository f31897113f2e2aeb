package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pipecenter/pipecenter-api/internal/presentation/http/dto/response"
)

// TokenVerifier resolves a bearer token to the identity it was issued for
type TokenVerifier interface {
	Verify(token string) (string, bool)
}

// AuthMiddleware creates a bearer token authentication middleware. A missing
// header, another scheme and an invalid or expired token all get the same 401.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
		if !found || !strings.EqualFold(scheme, "bearer") {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		username, ok := verifier.Verify(strings.TrimSpace(token))
		if !ok {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("username", username)
		c.Next()
	}
}
