package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// MessageType discriminates a Message payload.
type MessageType string

const (
	MessageText           MessageType = "text"
	MessageBookingRequest MessageType = "booking_request"
)

// BookingSnapshot is a point-in-time copy of an Application embedded in a
// booking_request message. Only Status changes after creation.
type BookingSnapshot struct {
	ApplicationID int64             `json:"applicationId"`
	RoomTitle     string            `json:"roomTitle"`
	Status        ApplicationStatus `json:"status"`
	FullName      string            `json:"fullName"`
	MobileNumber  string            `json:"mobileNumber"`
	ProfileType   string            `json:"profileType"`
	CheckIn       time.Time         `json:"checkIn"`
	CheckOut      time.Time         `json:"checkOut"`
	Occupants     Occupants         `json:"occupants"`
}

// NewBookingSnapshot copies the fields of a request application.
func NewBookingSnapshot(app Application, roomTitle string) (BookingSnapshot, error) {
	req, ok := app.Request()
	if !ok {
		return BookingSnapshot{}, fmt.Errorf("application %d is not a booking request", app.ID)
	}
	return BookingSnapshot{
		ApplicationID: app.ID,
		RoomTitle:     roomTitle,
		Status:        app.Status,
		FullName:      req.FullName,
		MobileNumber:  req.MobileNumber,
		ProfileType:   req.ProfileType,
		CheckIn:       req.CheckIn,
		CheckOut:      req.CheckOut,
		Occupants:     req.Occupants,
	}, nil
}

// Value stores the snapshot as JSONB.
func (s BookingSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan reads the snapshot from a JSONB column.
func (s *BookingSnapshot) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return fmt.Errorf("cannot scan %T into BookingSnapshot", src)
}

// Message is a single entry in a conversation.
type Message struct {
	ID             int64            `db:"id" json:"id"`
	ConversationID int64            `db:"conversation_id" json:"conversation_id"`
	SenderID       int64            `db:"sender_id" json:"sender_id"`
	Type           MessageType      `db:"message_type" json:"message_type"`
	Text           string           `db:"text" json:"text,omitempty"`
	BookingRequest *BookingSnapshot `db:"booking_request" json:"booking_request,omitempty"`
	IsSystem       bool             `db:"is_system" json:"is_system"`
	ReadBy         pq.Int64Array    `db:"read_by" json:"read_by"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// MessageDraft is a message about to be appended to a conversation.
type MessageDraft struct {
	Type           MessageType
	Text           string
	BookingRequest *BookingSnapshot
	IsSystem       bool
}

var (
	ErrEmptyText       = errors.New("text message requires non-empty text")
	ErrMissingSnapshot = errors.New("booking_request message requires a booking snapshot")
)

// Validate enforces the payload required by each message type.
func (d MessageDraft) Validate() error {
	switch d.Type {
	case MessageText:
		if strings.TrimSpace(d.Text) == "" {
			return ErrEmptyText
		}
		return nil
	case MessageBookingRequest:
		if d.BookingRequest == nil || d.BookingRequest.ApplicationID == 0 {
			return ErrMissingSnapshot
		}
		return nil
	}
	return fmt.Errorf("unknown message type %q", d.Type)
}

// IsReadBy reports whether the user acknowledged the message.
func (m Message) IsReadBy(userID int64) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// ConversationEvent is pushed to members over the presence relay.
type ConversationEvent struct {
	Type           string   `json:"type"`
	ConversationID int64    `json:"conversation_id"`
	Message        *Message `json:"message,omitempty"`
	ReaderID       int64    `json:"reader_id,omitempty"`
}
