package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"rental-service/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository persists user notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	ListForUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64, userID int64) error
}

// NotificationRepo is a sqlx implementation of NotificationRepository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// CreateNotification stores a notification.
func (r *NotificationRepo) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	var out models.Notification
	err := r.db.QueryRowxContext(ctx, `INSERT INTO notifications (user_id, title, message, link) VALUES ($1, $2, $3, $4)
        RETURNING id, user_id, title, message, link, is_read, created_at`, n.UserID, n.Title, n.Message, n.Link).
		StructScan(&out)
	return out, err
}

// ListForUser returns the newest notifications of a user.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var list []models.Notification
	err := r.db.SelectContext(ctx, &list, `SELECT id, user_id, title, message, link, is_read, created_at FROM notifications
        WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	return list, err
}

// MarkNotificationRead flags a notification owned by the user as read.
func (r *NotificationRepo) MarkNotificationRead(ctx context.Context, id int64, userID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
