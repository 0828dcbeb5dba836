package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ActorKey = "user_id" // Ключ пользователя в контексте gin

func actorFromHeader(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("X-User-ID"))
}

// ActorMiddleware - требует заголовок X-User-ID.
// Аутентификации нет: заголовок только определяет, чей это лайк.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := actorFromHeader(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header is required"})
			c.Abort()
			return
		}
		c.Set(ActorKey, userID)
		c.Next()
	}
}

// OptionalActorMiddleware - кладет пользователя в контекст, если он указан
func OptionalActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := actorFromHeader(c); userID != "" {
			c.Set(ActorKey, userID)
		}
		c.Next()
	}
}

// Actor возвращает пользователя из контекста или пустую строку
func Actor(c *gin.Context) string {
	return c.GetString(ActorKey)
}
