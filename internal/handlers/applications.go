package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rental-service/internal/models"
	"rental-service/internal/services"
)

// ApplicationHandler exposes the booking lifecycle.
type ApplicationHandler struct {
	booking *services.BookingService
}

func NewApplicationHandler(booking *services.BookingService) *ApplicationHandler {
	return &ApplicationHandler{booking: booking}
}

type inquiryRequest struct {
	RoomID  int64  `json:"roomId" binding:"required"`
	Message string `json:"message"`
}

// CreateInquiry records a question about a room.
func (h *ApplicationHandler) CreateInquiry(c *gin.Context) {
	var req inquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	app, err := h.booking.CreateInquiry(c.Request.Context(), userIDFromContext(c), req.RoomID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

type applicationRequest struct {
	RoomID       int64            `json:"roomId"`
	FullName     string           `json:"fullName"`
	MobileNumber string           `json:"mobileNumber"`
	ProfileType  string           `json:"profileType"`
	CheckIn      models.Date      `json:"checkIn"`
	CheckOut     models.Date      `json:"checkOut"`
	Occupants    models.Occupants `json:"occupants"`
	Message      string           `json:"message"`
}

// CreateApplication submits a booking request.
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	var req applicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	details := models.RequestDetails{
		FullName:     req.FullName,
		MobileNumber: req.MobileNumber,
		ProfileType:  req.ProfileType,
		CheckIn:      req.CheckIn.Time,
		CheckOut:     req.CheckOut.Time,
		Occupants:    req.Occupants,
		Message:      req.Message,
	}
	app, err := h.booking.CreateApplication(c.Request.Context(), userIDFromContext(c), req.RoomID, details)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// ListMine returns the student's own applications.
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	apps, err := h.booking.ListForStudent(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": nonNil(apps)})
}

// ListReceived returns the applications addressed to the landlord.
func (h *ApplicationHandler) ListReceived(c *gin.Context) {
	apps, err := h.booking.ListForLandlord(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": nonNil(apps)})
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	app, err := h.booking.Get(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// Update revises a pending application.
func (h *ApplicationHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch models.ApplicationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	app, err := h.booking.Update(c.Request.Context(), actorFromContext(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Approve(c *gin.Context) {
	h.transition(c, func(actor services.Actor, id int64) (models.Application, error) {
		return h.booking.Approve(c.Request.Context(), actor, id)
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject declines an application. The body is optional.
func (h *ApplicationHandler) Reject(c *gin.Context) {
	var req rejectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	h.transition(c, func(actor services.Actor, id int64) (models.Application, error) {
		return h.booking.Reject(c.Request.Context(), actor, id, req.Reason)
	})
}

func (h *ApplicationHandler) Cancel(c *gin.Context) {
	h.transition(c, func(actor services.Actor, id int64) (models.Application, error) {
		return h.booking.Cancel(c.Request.Context(), actor, id)
	})
}

func (h *ApplicationHandler) ConfirmPayment(c *gin.Context) {
	h.transition(c, func(actor services.Actor, id int64) (models.Application, error) {
		return h.booking.ConfirmPayment(c.Request.Context(), actor, id)
	})
}

func (h *ApplicationHandler) transition(c *gin.Context, fn func(services.Actor, int64) (models.Application, error)) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	app, err := fn(actorFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
