package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"rental-service/internal/services"
)

// TypingTracker stores short-lived typing signals.
type TypingTracker interface {
	Touch(ctx context.Context, conversationID, userID int64) error
	Active(ctx context.Context, conversationID int64) ([]int64, error)
}

// ConversationHandler serves the inbox and the message thread endpoints.
type ConversationHandler struct {
	convs  *services.ConversationService
	typing TypingTracker
}

func NewConversationHandler(convs *services.ConversationService, typing TypingTracker) *ConversationHandler {
	return &ConversationHandler{convs: convs, typing: typing}
}

type openRequest struct {
	RoomID      int64 `json:"roomId" binding:"required"`
	OtherUserID int64 `json:"otherUserId"`
}

// Open finds or creates the conversation about a room with its counterpart.
func (h *ConversationHandler) Open(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	conv, err := h.convs.Open(c.Request.Context(), actorFromContext(c), req.RoomID, req.OtherUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// Inbox lists the user's conversations, optionally filtered by ?role=student|landlord.
func (h *ConversationHandler) Inbox(c *gin.Context) {
	views, err := h.convs.Inbox(c.Request.Context(), userIDFromContext(c), c.Query("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": views})
}

func (h *ConversationHandler) Detail(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.convs.Detail(c.Request.Context(), id, userIDFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *ConversationHandler) Messages(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	msgs, err := h.convs.Messages(c.Request.Context(), id, userIDFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": nonNil(msgs)})
}

type sendRequest struct {
	Text string `json:"text"`
}

// Send posts a text message from the authenticated member.
func (h *ConversationHandler) Send(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	msg, err := h.convs.Send(c.Request.Context(), id, userIDFromContext(c), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *ConversationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	updated, err := h.convs.MarkRead(c.Request.Context(), id, userIDFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// Typing records that the member is typing. Tracker failures are not reported.
func (h *ConversationHandler) Typing(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID := userIDFromContext(c)
	if _, err := h.convs.Get(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	if err := h.typing.Touch(c.Request.Context(), id, userID); err != nil {
		log.Printf("typing touch failed conversation_id=%d user_id=%d: %v", id, userID, err)
	}
	c.Status(http.StatusNoContent)
}

// WhoIsTyping lists the other members currently typing.
func (h *ConversationHandler) WhoIsTyping(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID := userIDFromContext(c)
	if _, err := h.convs.Get(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	active, err := h.typing.Active(c.Request.Context(), id)
	if err != nil {
		log.Printf("typing lookup failed conversation_id=%d: %v", id, err)
		active = nil
	}
	others := make([]int64, 0, len(active))
	for _, uid := range active {
		if uid != userID {
			others = append(others, uid)
		}
	}
	c.JSON(http.StatusOK, gin.H{"typing": others})
}
