package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"rental-service/internal/services"
)

func TestRespondErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&services.ValidationError{Err: errors.New("fullName is required")}, http.StatusBadRequest, "validation_failed"},
		{services.ErrSelfInquiry, http.StatusBadRequest, "self_inquiry"},
		{fmt.Errorf("%w: room 4", services.ErrNotFound), http.StatusNotFound, "not_found"},
		{services.ErrForbidden, http.StatusForbidden, "forbidden"},
		{services.ErrAlreadyProcessed, http.StatusBadRequest, "already_processed"},
		{fmt.Errorf("%w: cannot cancel", services.ErrInvalidState), http.StatusBadRequest, "invalid_state"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondError(c, tc.err)

		assert.Equal(t, tc.status, rec.Code, tc.code)
		assert.Contains(t, rec.Body.String(), `"error":"`+tc.code+`"`)
	}
}
