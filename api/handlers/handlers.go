package handlers

import (
	"context"
	"net/http"

	"feedsync/models"
	"feedsync/services"

	"github.com/gin-gonic/gin"
)

// FeedStore - чтения локального хранилища, нужные HTTP-адаптеру
type FeedStore interface {
	QueryAllPosts(ctx context.Context) ([]models.Post, error)
	CountPosts(ctx context.Context) (int64, error)
}

// Handlers - HTTP-адаптер ядра ленты. Все зависимости передаются снаружи.
type Handlers struct {
	Engine  *services.SyncEngine
	Likes   *services.LikeLedger
	Avatars *services.AvatarService
	Store   FeedStore
}

func New(engine *services.SyncEngine, likes *services.LikeLedger, avatars *services.AvatarService, store FeedStore) *Handlers {
	return &Handlers{Engine: engine, Likes: likes, Avatars: avatars, Store: store}
}

// Health отдает число постов в локальном хранилище
func (h *Handlers) Health(c *gin.Context) {
	n, err := h.Store.CountPosts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": n})
}
