package routes

import (
	"feedsync/api/handlers"
	"feedsync/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func PublicApi(router *gin.Engine, h *handlers.Handlers) *gin.RouterGroup {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", h.Health)

	publicEndpoints := router.Group("/api/v1/")
	publicEndpoints.Use(middleware.OptionalActorMiddleware())
	{
		// Лента
		publicEndpoints.GET("feed", h.GetFeed)
		publicEndpoints.POST("feed/refresh", h.RefreshFeed)

		// Лайки
		publicEndpoints.GET("posts/:post_id/likes", h.GetLikeState)
		publicEndpoints.POST("posts/:post_id/like", middleware.ActorMiddleware(), h.ToggleLike)

		// Аватары
		publicEndpoints.GET("avatars/:user_id", h.GetAvatar)
		publicEndpoints.DELETE("avatars/:user_id/cache", h.InvalidateAvatar)
	}
	return publicEndpoints
}
