package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/HIMANADH789/careworkers/internal/identity"
	"github.com/HIMANADH789/careworkers/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const identityKey = "identity"

// AuthRequired resolves the bearer token and stores the caller on both the
// gin context and the request context.
func AuthRequired(resolver identity.Resolver, lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "detail": "missing token"})
			return
		}
		tok := strings.TrimPrefix(h, "Bearer ")

		id, err := resolver.Resolve(c.Request.Context(), tok)
		if err != nil {
			if !errors.Is(err, models.ErrUnauthenticated) {
				lg.Error("identity resolution failed", zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "detail": "invalid token"})
			return
		}

		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Identity(c).IsManager() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "detail": "manager only"})
			return
		}
		c.Next()
	}
}

// Identity returns the caller set by AuthRequired, or the zero identity.
func Identity(c *gin.Context) identity.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return identity.Identity{}
	}
	id, _ := v.(identity.Identity)
	return id
}
