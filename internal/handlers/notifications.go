package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rental-service/internal/repositories"
)

const defaultNotificationLimit = 50

// NotificationHandler lists and acknowledges the user's notifications.
type NotificationHandler struct {
	repo repositories.NotificationRepository
}

func NewNotificationHandler(repo repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

func (h *NotificationHandler) List(c *gin.Context) {
	limit := defaultNotificationLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": "limit must be between 1 and 200"})
			return
		}
		limit = n
	}

	list, err := h.repo.ListForUser(c.Request.Context(), userIDFromContext(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": nonNil(list)})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.repo.MarkNotificationRead(c.Request.Context(), id, userIDFromContext(c))
	if errors.Is(err, repositories.ErrNotificationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "notification not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
