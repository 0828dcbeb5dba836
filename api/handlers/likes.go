package handlers

import (
	"net/http"
	"strconv"

	"feedsync/api/middleware"
	"feedsync/models"

	"github.com/gin-gonic/gin"
)

func postIDParam(c *gin.Context) (int64, bool) {
	postID, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return 0, false
	}
	return postID, true
}

// GetLikeState - лайк текущего пользователя и число лайков поста.
// Ошибки чтения превращаются в значения по умолчанию.
func (h *Handlers) GetLikeState(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, h.Likes.LikeState(c.Request.Context(), postID, middleware.Actor(c)))
}

// ToggleLike переключает лайк текущего пользователя
func (h *Handlers) ToggleLike(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	userID := middleware.Actor(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx := c.Request.Context()
	liked, err := h.Likes.ToggleLike(ctx, postID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.LikeState{
		PostID: postID,
		Liked:  liked,
		Count:  h.Likes.LikesCount(ctx, postID),
	})
}
