package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"feedsync/models"
	"feedsync/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// GetFeed отдает ленту из кеша, при пустом кеше загружает ее с сервера.
// Сверка с сервером запускается только первой страницей, следующие
// страницы читаются из хранилища.
func (h *Handlers) GetFeed(c *gin.Context) {
	offset := 0
	limit := defaultFeedLimit

	if offsetStr := c.Query("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= maxFeedLimit {
			limit = parsed
		}
	}

	posts, err := h.feedPosts(c.Request.Context(), offset)
	if err != nil {
		log.Printf("ERROR: GetFeed failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page(posts, offset, limit))
}

func (h *Handlers) feedPosts(ctx context.Context, offset int) ([]models.Post, error) {
	if offset > 0 {
		posts, err := h.Store.QueryAllPosts(ctx)
		if err == nil && len(posts) > 0 {
			return posts, nil
		}
		if err != nil {
			log.Printf("ERROR: GetFeed local read failed, loading feed: %v", err)
		}
	}
	return h.Engine.LoadInitial(ctx)
}

// RefreshFeed всегда идет в сеть
func (h *Handlers) RefreshFeed(c *gin.Context) {
	posts, err := h.Engine.Refresh(c.Request.Context())
	if err != nil {
		log.Printf("ERROR: RefreshFeed failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": services.UserMessage(err)})
		return
	}

	c.JSON(http.StatusOK, page(posts, 0, len(posts)))
}

func page(posts []models.Post, offset, limit int) models.FeedResponse {
	total := len(posts)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	out := posts[offset:end]
	if out == nil {
		out = []models.Post{}
	}
	return models.FeedResponse{
		Posts:   out,
		HasMore: end < total,
		Total:   total,
	}
}
