package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"rental-service/internal/services"
)

// respondError maps a service error to its HTTP status and reason code.
func respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, services.ErrValidation):
		status, code = http.StatusBadRequest, "validation_failed"
	case errors.Is(err, services.ErrSelfInquiry):
		status, code = http.StatusBadRequest, "self_inquiry"
	case errors.Is(err, services.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrAlreadyProcessed):
		status, code = http.StatusBadRequest, "already_processed"
	case errors.Is(err, services.ErrInvalidState):
		status, code = http.StatusBadRequest, "invalid_state"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("request failed method=%s path=%s: %v", c.Request.Method, c.FullPath(), err)
		message = "internal error"
	}
	c.JSON(status, gin.H{"error": code, "message": message})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
}
