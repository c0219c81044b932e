package dummydb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/notification"
)

type notificationRepository struct {
	db      *notificationTable
	pkCount int
	runLock sync.Mutex
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) *notificationRepository {
	return &notificationRepository{db: db.notification}
}

// query returns notifications newest-first (highest id first).
func (repo *notificationRepository) query(userID int) []notification.Notification {
	notifs := make([]notification.Notification, 0, len(repo.db.table))
	for _, n := range repo.db.table {
		if n.UserID == userID {
			notifs = append(notifs, *n)
		}
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].ID > notifs[j].ID })
	return notifs
}

func (repo *notificationRepository) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.pkCount++
	n.ID = repo.pkCount
	repo.db.table[n.ID] = &n
	return n, nil
}

func (repo *notificationRepository) GetUserNotification(_ context.Context, id, userID int) (notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n, ok := repo.db.table[id]; ok && n.UserID == userID {
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) GetLatestUserNotification(_ context.Context, userID int) (notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notifs := repo.query(userID)
	if len(notifs) == 0 {
		return notification.Notification{}, notification.ErrNotFound
	}
	return notifs[0], nil
}

func (repo *notificationRepository) FilterUserNotifications(_ context.Context, userID int, filter notification.QueryFilter) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notifs := make([]notification.Notification, 0)
	for _, n := range repo.query(userID) {
		if filter.UnreadOnly && n.IsRead {
			continue
		}
		notifs = append(notifs, n)
		if filter.Limit > 0 && len(notifs) == filter.Limit {
			break
		}
	}
	return notifs, nil
}

func (repo *notificationRepository) CountUnreadNotifications(_ context.Context, userID int) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, n := range repo.db.table {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (repo *notificationRepository) MarkNotificationRead(_ context.Context, id, userID int, readAt time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	n, ok := repo.db.table[id]
	if !ok || n.UserID != userID {
		return notification.ErrNotFound
	}
	if n.IsRead { // idempotent; keep the original read timestamp
		return nil
	}
	n.IsRead = true
	n.ReadAt = null.TimeFrom(readAt)
	return nil
}

func (repo *notificationRepository) MarkAllNotificationsRead(_ context.Context, userID int, readAt time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, n := range repo.db.table {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = null.TimeFrom(readAt)
		}
	}
	return nil
}

func (repo *notificationRepository) GetNotificationStats(_ context.Context, userID int, dayStart time.Time) (notification.Stats, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var stats notification.Stats
	for _, n := range repo.db.table {
		if n.UserID != userID {
			continue
		}
		stats.Total++
		if !n.IsRead {
			stats.Unread++
			if n.Kind == notification.KindAssignment {
				stats.PendingAssignments++
			}
		}
		if n.Kind == notification.KindGrade && !n.CreatedAt.Before(dayStart) {
			stats.GradesToday++
		}
	}
	return stats, nil
}

func (repo *notificationRepository) DeleteNotificationsBefore(_ context.Context, cutoff time.Time) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var count int
	for id, n := range repo.db.table {
		if n.CreatedAt.Before(cutoff) {
			delete(repo.db.table, id)
			count++
		}
	}
	return count, nil
}

func (repo *notificationRepository) ReminderExists(_ context.Context, userID, assignmentID int, windowLabel string, since time.Time) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, n := range repo.db.table {
		if n.UserID == userID &&
			n.Kind == notification.KindDeadline &&
			n.RelatedID.Valid && n.RelatedID.Int == assignmentID &&
			n.WindowLabel == windowLabel &&
			!n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (repo *notificationRepository) AcquireReminderRunLock(_ context.Context) (func(), bool, error) {
	if !repo.runLock.TryLock() {
		return nil, false, nil
	}
	return repo.runLock.Unlock, true, nil
}
