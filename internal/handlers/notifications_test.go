package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rental-service/internal/mocks"
	"rental-service/internal/models"
	"rental-service/internal/repositories"
)

func setupNotificationRouter(repo *mocks.NotificationRepositoryMock) *gin.Engine {
	handler := NewNotificationHandler(repo)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", int64(20))
		c.Next()
	})
	r.GET("/notifications", handler.List)
	r.POST("/notifications/:id/read", handler.MarkRead)
	return r
}

func TestListNotifications(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	router := setupNotificationRouter(repo)
	repo.On("ListForUser", mock.Anything, int64(20), defaultNotificationLimit).
		Return([]models.Notification{{ID: 1, UserID: 20, Title: "Booking approved"}}, nil).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Booking approved")
	repo.AssertExpectations(t)
}

func TestListNotificationsBadLimit(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	router := setupNotificationRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications?limit=0", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "ListForUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkNotificationRead(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	router := setupNotificationRouter(repo)
	repo.On("MarkNotificationRead", mock.Anything, int64(1), int64(20)).Return(nil).Once()
	repo.On("MarkNotificationRead", mock.Anything, int64(2), int64(20)).Return(repositories.ErrNotificationNotFound).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notifications/1/read", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notifications/2/read", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
