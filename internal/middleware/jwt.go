package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"tutor_market/internal/domain" // Domain types

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by JWTAuthMiddleware
const (
	ctxUserID = "userID"
	ctxRole   = "role"
	ctxActor  = "actor"
)

// TokenVerifier resolves a bearer token into an actor
type TokenVerifier interface {
	Verify(token string) (domain.Actor, error)
}

// abort stops the chain with the shared error body
func abort(c *gin.Context, status int, kind domain.ErrorKind, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "kind": kind})
}

// JWTAuthMiddleware validates bearer tokens and stores the caller in the context
func JWTAuthMiddleware(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abort(c, http.StatusUnauthorized, domain.KindAuth, "Missing or invalid Authorization header")
			return
		}
		actor, err := v.Verify(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")))
		if err != nil {
			abort(c, http.StatusUnauthorized, domain.KindAuth, "Invalid or expired token")
			return
		}
		c.Set(ctxUserID, actor.UserID)
		c.Set(ctxRole, string(actor.Role))
		c.Set(ctxActor, actor)
		c.Next()
	}
}

// ActorFrom returns the caller stored by JWTAuthMiddleware
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(ctxActor)
	if !ok {
		return domain.Actor{}, false
	}
	a, ok := v.(domain.Actor)
	return a, ok
}
