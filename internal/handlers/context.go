package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rental-service/internal/services"
)

func userIDFromContext(c *gin.Context) int64 {
	return c.GetInt64("userID")
}

func actorFromContext(c *gin.Context) services.Actor {
	return services.Actor{ID: userIDFromContext(c), Roles: c.GetStringSlice("roles")}
}

// parseID reads a positive path id and answers 400 when it is malformed.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": "invalid " + name})
		return 0, false
	}
	return id, true
}
