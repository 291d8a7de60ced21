package models

import "time"

// ConversationType records how a conversation was opened.
type ConversationType string

const (
	ConversationBooking ConversationType = "booking"
	ConversationInquiry ConversationType = "inquiry"
)

// Conversation is the unique thread between a student and a landlord about one room.
type Conversation struct {
	ID            int64            `db:"id" json:"id"`
	RoomID        int64            `db:"room_id" json:"room_id"`
	MemberLow     int64            `db:"member_low" json:"-"`
	MemberHigh    int64            `db:"member_high" json:"-"`
	Type          ConversationType `db:"conversation_type" json:"conversation_type"`
	LastMessageID *int64           `db:"last_message_id" json:"last_message_id,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// Members returns both participants in storage order.
func (c Conversation) Members() []int64 {
	return []int64{c.MemberLow, c.MemberHigh}
}

// HasMember reports whether the user participates in the conversation.
func (c Conversation) HasMember(userID int64) bool {
	return c.MemberLow == userID || c.MemberHigh == userID
}

// MemberPair orders two user ids so a pair has a single storage key.
func MemberPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// ConversationRow is a conversation joined with its room and last message,
// as read by the inbox projection.
type ConversationRow struct {
	Conversation
	RoomTitle      string     `db:"room_title"`
	RoomImage      *string    `db:"room_image"`
	RoomLandlordID int64      `db:"room_landlord_id"`
	LastText       *string    `db:"last_text"`
	LastType       *string    `db:"last_type"`
	LastCreatedAt  *time.Time `db:"last_created_at"`
}

// RoomSummary is the room part of an inbox entry.
type RoomSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Image string `json:"image,omitempty"`
}

// LastMessage is the latest message shown in an inbox entry.
type LastMessage struct {
	Text      string      `json:"text"`
	Type      MessageType `json:"message_type"`
	CreatedAt time.Time   `json:"created_at"`
}

// ConversationView is one denormalized inbox entry.
type ConversationView struct {
	ID               int64            `json:"id"`
	Type             ConversationType `json:"conversation_type"`
	Role             string           `json:"role"`
	Room             RoomSummary      `json:"room"`
	Members          []UserSummary    `json:"members"`
	OtherParticipant *UserSummary     `json:"other_participant,omitempty"`
	LastMessage      *LastMessage     `json:"last_message,omitempty"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ApplicationSummary is the application part of a conversation detail.
type ApplicationSummary struct {
	ID           int64             `json:"id"`
	Type         ApplicationType   `json:"type"`
	Status       ApplicationStatus `json:"status"`
	IsUpdated    bool              `json:"is_updated"`
	FullName     string            `json:"full_name,omitempty"`
	MobileNumber string            `json:"mobile_number,omitempty"`
	ProfileType  string            `json:"profile_type,omitempty"`
	CheckIn      *time.Time        `json:"check_in,omitempty"`
	CheckOut     *time.Time        `json:"check_out,omitempty"`
	Occupants    *Occupants        `json:"occupants,omitempty"`
}

// ConversationDetail is a single conversation with its correlated application.
type ConversationDetail struct {
	ConversationView
	Application *ApplicationSummary `json:"application,omitempty"`
}
