package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/notification"
)

const notificationColumns = `id, user_id, title, message, kind, related_id, related_kind, window_label, priority, is_read, read_at, created_at`

// reminderLockID keys the advisory lock serializing reminder batches.
const reminderLockID = 74201

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *sqlx.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	query := `
INSERT INTO notification (user_id, title, message, kind, related_id, related_kind, window_label, priority, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		n.UserID, n.Title, n.Message, n.Kind, n.RelatedID, n.RelatedKind, n.WindowLabel, n.Priority, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "creating notification")
	}
	return n, nil
}

func (repo *notificationRepository) GetUserNotification(ctx context.Context, id, userID int) (notification.Notification, error) {
	var n notification.Notification
	query := fmt.Sprintf(`SELECT %s FROM notification WHERE id = $1 AND user_id = $2`, notificationColumns)
	if err := repo.db.GetContext(ctx, &n, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "getting notification")
	}
	return n, nil
}

func (repo *notificationRepository) GetLatestUserNotification(ctx context.Context, userID int) (notification.Notification, error) {
	var n notification.Notification
	query := fmt.Sprintf(`SELECT %s FROM notification WHERE user_id = $1 ORDER BY id DESC LIMIT 1`, notificationColumns)
	if err := repo.db.GetContext(ctx, &n, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "getting latest notification")
	}
	return n, nil
}

func (repo *notificationRepository) FilterUserNotifications(ctx context.Context, userID int, filter notification.QueryFilter) ([]notification.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notification WHERE user_id = $1`, notificationColumns)
	if filter.UnreadOnly {
		query += ` AND NOT is_read`
	}
	query += ` ORDER BY id DESC LIMIT $2`

	var notifs []notification.Notification
	if err := repo.db.SelectContext(ctx, &notifs, query, userID, filter.Limit); err != nil {
		return nil, errors.Wrap(err, "filtering notifications")
	}
	return notifs, nil
}

func (repo *notificationRepository) CountUnreadNotifications(ctx context.Context, userID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notification WHERE user_id = $1 AND NOT is_read`
	if err := repo.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, errors.Wrap(err, "counting unread notifications")
	}
	return count, nil
}

func (repo *notificationRepository) MarkNotificationRead(ctx context.Context, id, userID int, readAt time.Time) error {
	// COALESCE keeps the original read timestamp on repeated marks
	query := `UPDATE notification SET is_read = TRUE, read_at = COALESCE(read_at, $3) WHERE id = $1 AND user_id = $2`
	res, err := repo.db.ExecContext(ctx, query, id, userID, readAt)
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (repo *notificationRepository) MarkAllNotificationsRead(ctx context.Context, userID int, readAt time.Time) error {
	query := `UPDATE notification SET is_read = TRUE, read_at = $2 WHERE user_id = $1 AND NOT is_read`
	_, err := repo.db.ExecContext(ctx, query, userID, readAt)
	return errors.Wrap(err, "marking all notifications read")
}

func (repo *notificationRepository) GetNotificationStats(ctx context.Context, userID int, dayStart time.Time) (notification.Stats, error) {
	var stats notification.Stats
	query := `
SELECT COUNT(*)                                                          AS total,
       COUNT(*) FILTER (WHERE NOT is_read)                               AS unread,
       COUNT(*) FILTER (WHERE NOT is_read AND kind = 'assignment')       AS unread_assignments,
       COUNT(*) FILTER (WHERE kind = 'grade' AND created_at >= $2)       AS grades_today
FROM notification
WHERE user_id = $1`
	if err := repo.db.GetContext(ctx, &stats, query, userID, dayStart); err != nil {
		return notification.Stats{}, errors.Wrap(err, "getting notification stats")
	}
	return stats, nil
}

func (repo *notificationRepository) DeleteNotificationsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM notification WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "deleting old notifications")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (repo *notificationRepository) ReminderExists(ctx context.Context, userID, assignmentID int, windowLabel string, since time.Time) (bool, error) {
	var exists bool
	query := `
SELECT EXISTS (
    SELECT 1 FROM notification
    WHERE user_id = $1 AND related_id = $2 AND window_label = $3 AND kind = 'deadline' AND created_at >= $4
)`
	if err := repo.db.GetContext(ctx, &exists, query, userID, assignmentID, windowLabel, since); err != nil {
		return false, errors.Wrap(err, "checking reminder existence")
	}
	return exists, nil
}

// AcquireReminderRunLock takes a session-level advisory lock on a dedicated
// connection; the connection is held until release.
func (repo *notificationRepository) AcquireReminderRunLock(ctx context.Context) (func(), bool, error) {
	conn, err := repo.db.Connx(ctx)
	if err != nil {
		return nil, false, errors.Wrap(err, "acquiring reminder run lock")
	}
	var acquired bool
	if err = conn.QueryRowxContext(ctx, `SELECT pg_try_advisory_lock($1)`, reminderLockID).Scan(&acquired); err != nil {
		_ = conn.Close()
		return nil, false, errors.Wrap(err, "acquiring reminder run lock")
	}
	if !acquired {
		_ = conn.Close()
		return nil, false, nil
	}
	release := func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, reminderLockID)
		_ = conn.Close()
	}
	return release, true, nil
}
