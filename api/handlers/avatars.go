package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func userIDParam(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return 0, false
	}
	return userID, true
}

// GetAvatar отдает картинку автора; 404 - клиент рисует заглушку
func (h *Handlers) GetAvatar(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	data := h.Avatars.Load(c.Request.Context(), userID)
	if data == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Avatar not found"})
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

// InvalidateAvatar удаляет аватар из кеша (админский эндпоинт)
func (h *Handlers) InvalidateAvatar(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	if err := h.Avatars.Invalidate(c.Request.Context(), userID); err != nil {
		log.Printf("ERROR: InvalidateAvatar failed for user=%d: %v", userID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to invalidate avatar cache"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Avatar cache invalidated"})
}
