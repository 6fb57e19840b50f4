package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-registration-api/internal/models"
)

// NotificationRepository persists per-user notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// BulkInsert writes all rows in a single INSERT statement and returns the number inserted.
func (r *NotificationRepository) BulkInsert(ctx context.Context, notifications []models.Notification) (int, error) {
	if len(notifications) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	values := make([]string, 0, len(notifications))
	args := make([]interface{}, 0, len(notifications)*5)
	for i := range notifications {
		n := &notifications[i]
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		n.IsRead = false
		n.CreatedAt = now
		base := len(args)
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, FALSE, $%d)", base+1, base+2, base+3, base+4, base+5))
		args = append(args, n.ID, n.UserID, n.Title, n.Message, n.CreatedAt)
	}
	query := `INSERT INTO notifications (id, user_id, title, message, is_read, created_at) VALUES ` + strings.Join(values, ", ")
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert notifications: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert notifications rows: %w", err)
	}
	return int(affected), nil
}

// ListByUser returns the user's notifications newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	const query = `SELECT id, user_id, title, message, is_read, created_at FROM notifications
WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// ListAll returns every notification newest first with the total count.
func (r *NotificationRepository) ListAll(ctx context.Context, page, size int) ([]models.Notification, int, error) {
	page, size = normalisePage(page, size)
	query := fmt.Sprintf(`SELECT id, user_id, title, message, is_read, created_at FROM notifications
ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`, size, (page-1)*size)
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications`); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return notifications, total, nil
}

// MarkRead flags the notification as read when it belongs to userID.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return expectAffected(res, "mark notification read")
}
