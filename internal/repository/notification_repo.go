package repository

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/operantis/backoffice-api/internal/models"
	"github.com/operantis/backoffice-api/internal/utils"
)

// NotificationRepository handles data access for user notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification for a user.
func (r *NotificationRepository) Create(n *models.Notification) error {
	const q = `
        INSERT INTO notifications (user_id, type, message)
        VALUES ($1, $2, $3)
        RETURNING id, is_read, created_at`

	return r.db.QueryRowx(q, n.UserID, n.Type, n.Message).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt)
}

// GetByUser returns a user's notifications, newest first. When
// unreadOnly is set, read notifications are filtered out.
func (r *NotificationRepository) GetByUser(userID int, unreadOnly bool) ([]models.Notification, error) {
	const q = `
        SELECT * FROM notifications
        WHERE user_id = $1 AND ($2 = false OR is_read = false)
        ORDER BY created_at DESC`

	var notifications []models.Notification
	if err := r.db.Select(&notifications, q, userID, unreadOnly); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead marks one notification as read, scoped to its owner.
func (r *NotificationRepository) MarkRead(id, userID int) (*models.Notification, error) {
	const q = `
        UPDATE notifications SET is_read = true
        WHERE id = $1 AND user_id = $2
        RETURNING *`

	var n models.Notification
	if err := r.db.Get(&n, q, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrNotificationNotFound
		}
		return nil, err
	}
	return &n, nil
}

// MarkAllRead marks every unread notification of a user as read.
func (r *NotificationRepository) MarkAllRead(userID int) error {
	_, err := r.db.Exec(`UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`, userID)
	return err
}

// Delete removes a notification, scoped to its owner.
func (r *NotificationRepository) Delete(id, userID int) error {
	res, err := r.db.Exec(`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return utils.ErrNotificationNotFound
	}
	return nil
}

// DeleteReadOlderThan removes read notifications created before the
// cutoff. Used by the retention worker; returns the number removed.
func (r *NotificationRepository) DeleteReadOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM notifications WHERE is_read = true AND created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
