package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/expansio/backend/internal/auth"
	"github.com/expansio/backend/internal/authz"
	"github.com/expansio/backend/pkg/response"
)

const (
	// ContextPrincipal is the key for the authenticated principal in gin context.
	ContextPrincipal = "principal"
	// ContextClientEmail is the key for the caller's email in gin context.
	ContextClientEmail = "client_email"
)

// JWT returns a middleware that validates the bearer token and stores the
// authz.Principal in the request context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		role, err := authz.ParseRole(claims.Role)
		if err != nil {
			response.Unauthorized(c, "invalid role in token")
			c.Abort()
			return
		}
		c.Set(ContextPrincipal, authz.Principal{ClientID: claims.ClientID, Role: role})
		c.Set(ContextClientEmail, claims.Email)
		c.Next()
	}
}

// Principal extracts the authenticated principal set by the JWT middleware.
func Principal(c *gin.Context) (authz.Principal, bool) {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return authz.Principal{}, false
	}
	p, ok := v.(authz.Principal)
	return p, ok
}
