package middleware

import (
	"net/http" // HTTP status codes

	"tutor_market/internal/domain" // Domain types

	"github.com/gin-gonic/gin" // Gin web framework
)

// RequireRole admits only callers holding one of roles. The role comes from
// the token claims; it must run after JWTAuthMiddleware.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	allowed := map[domain.Role]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, domain.KindAuth, "Unauthorized")
			return
		}
		if _, ok := allowed[actor.Role]; !ok {
			abort(c, http.StatusForbidden, domain.KindForbidden, "Insufficient role")
			return
		}
		c.Next()
	}
}

// AdminOnlyMiddleware is RequireRole(admin)
func AdminOnlyMiddleware() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
