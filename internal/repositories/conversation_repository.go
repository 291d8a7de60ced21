package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"rental-service/internal/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrSelfConversation     = errors.New("cannot create conversation with self")
)

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	FindOrCreate(ctx context.Context, roomID, userA, userB int64, convType models.ConversationType) (models.Conversation, bool, error)
	Find(ctx context.Context, roomID, userA, userB int64) (models.Conversation, error)
	GetConversation(ctx context.Context, id int64) (models.Conversation, error)
	Touch(ctx context.Context, id int64, lastMessageID int64) error
	ListForUser(ctx context.Context, userID int64) ([]models.ConversationRow, error)
	GetRow(ctx context.Context, id int64) (models.ConversationRow, error)
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = `id, room_id, member_low, member_high, conversation_type, last_message_id, created_at, updated_at`

// FindOrCreate returns the conversation for the room and member pair, creating
// it when absent. The unique (room_id, member_low, member_high) constraint
// makes a losing concurrent insert fall back to the existing row. The boolean
// reports whether this call created it.
func (r *ConversationRepo) FindOrCreate(ctx context.Context, roomID, userA, userB int64, convType models.ConversationType) (models.Conversation, bool, error) {
	if userA == userB {
		return models.Conversation{}, false, ErrSelfConversation
	}
	low, high := models.MemberPair(userA, userB)

	var conv models.Conversation
	err := r.db.QueryRowxContext(ctx, `INSERT INTO conversations (room_id, member_low, member_high, conversation_type)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (room_id, member_low, member_high) DO NOTHING
        RETURNING `+conversationColumns, roomID, low, high, string(convType)).StructScan(&conv)
	if err == nil {
		return conv, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, false, err
	}
	conv, err = r.Find(ctx, roomID, userA, userB)
	return conv, false, err
}

// Find looks up the conversation for a room and member pair.
func (r *ConversationRepo) Find(ctx context.Context, roomID, userA, userB int64) (models.Conversation, error) {
	low, high := models.MemberPair(userA, userB)
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations WHERE room_id=$1 AND member_low=$2 AND member_high=$3`, roomID, low, high)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// GetConversation fetches a conversation by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, id int64) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// Touch points the conversation at its newest message and bumps updated_at.
func (r *ConversationRepo) Touch(ctx context.Context, id int64, lastMessageID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE conversations SET last_message_id=$2, updated_at=NOW() WHERE id=$1`, id, lastMessageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrConversationNotFound
	}
	return nil
}

const conversationRowQuery = `SELECT c.id, c.room_id, c.member_low, c.member_high, c.conversation_type, c.last_message_id, c.created_at, c.updated_at,
        r.title AS room_title, r.images[1] AS room_image, r.landlord_id AS room_landlord_id,
        m.text AS last_text, m.message_type AS last_type, m.created_at AS last_created_at
    FROM conversations c
    JOIN rooms r ON r.id = c.room_id
    LEFT JOIN messages m ON m.id = c.last_message_id`

// ListForUser returns the user's conversations joined with room and last
// message, most recently active first.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64) ([]models.ConversationRow, error) {
	var rows []models.ConversationRow
	err := r.db.SelectContext(ctx, &rows, conversationRowQuery+`
    WHERE c.member_low=$1 OR c.member_high=$1
    ORDER BY c.updated_at DESC`, userID)
	return rows, err
}

// GetRow returns a single conversation joined with room and last message.
func (r *ConversationRepo) GetRow(ctx context.Context, id int64) (models.ConversationRow, error) {
	var row models.ConversationRow
	err := r.db.GetContext(ctx, &row, conversationRowQuery+` WHERE c.id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ConversationRow{}, ErrConversationNotFound
	}
	return row, err
}
