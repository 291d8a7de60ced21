package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"rental-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for conversation messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, conversationID int64, senderID int64, draft models.MessageDraft) (models.Message, error)
	ListMessages(ctx context.Context, conversationID int64) ([]models.Message, error)
	UpdateBookingStatus(ctx context.Context, applicationID int64, status models.ApplicationStatus) (int64, error)
	MarkRead(ctx context.Context, conversationID int64, readerID int64) (int64, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, conversation_id, sender_id, message_type, text, booking_request, is_system, read_by, created_at`

// CreateMessage stores a message in a conversation.
func (r *MessageRepo) CreateMessage(ctx context.Context, conversationID int64, senderID int64, draft models.MessageDraft) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (conversation_id, sender_id, message_type, text, booking_request, is_system)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+messageColumns,
		conversationID, senderID, string(draft.Type), draft.Text, draft.BookingRequest, draft.IsSystem).
		StructScan(&msg)
	return msg, err
}

// ListMessages returns a conversation's messages in chronological order.
func (r *MessageRepo) ListMessages(ctx context.Context, conversationID int64) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages WHERE conversation_id=$1 ORDER BY created_at ASC, id ASC`, conversationID)
	return msgs, err
}

// UpdateBookingStatus rewrites the status echoed in the application's
// booking_request message and reports how many messages changed.
func (r *MessageRepo) UpdateBookingStatus(ctx context.Context, applicationID int64, status models.ApplicationStatus) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET booking_request = jsonb_set(booking_request, '{status}', to_jsonb($2::TEXT))
        WHERE message_type='booking_request' AND (booking_request->>'applicationId')::BIGINT = $1`, applicationID, string(status))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkRead adds the reader to read_by on every message they did not send and
// have not read yet. Repeated calls change nothing.
func (r *MessageRepo) MarkRead(ctx context.Context, conversationID int64, readerID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET read_by = array_append(read_by, $2)
        WHERE conversation_id=$1 AND sender_id<>$2 AND NOT ($2 = ANY(read_by))`, conversationID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
