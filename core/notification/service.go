package notification

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var ErrNotFound = errors.New("notification not found")

// DefaultListLimit bounds list queries when callers do not provide one.
const DefaultListLimit = 20

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		GetUserNotification(ctx context.Context, id, userID int) (Notification, error)
		GetLatestUserNotification(ctx context.Context, userID int) (Notification, error)
		// FilterUserNotifications returns the user's notifications newest-first,
		// bounded by QueryFilter.Limit.
		FilterUserNotifications(ctx context.Context, userID int, filter QueryFilter) ([]Notification, error)
		CountUnreadNotifications(ctx context.Context, userID int) (int, error)
		// MarkNotificationRead transitions one unread row to read, scoped to its owner.
		// Returns ErrNotFound when the row does not exist for that user; marking an
		// already-read row succeeds without touching ReadAt.
		MarkNotificationRead(ctx context.Context, id, userID int, readAt time.Time) error
		MarkAllNotificationsRead(ctx context.Context, userID int, readAt time.Time) error
		GetNotificationStats(ctx context.Context, userID int, dayStart time.Time) (Stats, error)
		DeleteNotificationsBefore(ctx context.Context, cutoff time.Time) (int, error)
		// ReminderExists reports whether a deadline reminder keyed on
		// (userID, assignmentID, windowLabel) was created at or after `since`.
		ReminderExists(ctx context.Context, userID, assignmentID int, windowLabel string, since time.Time) (bool, error)
		// AcquireReminderRunLock guards the reminder batch against overlapping runs.
		// Returns acquired=false when another run holds the lock.
		AcquireReminderRunLock(ctx context.Context) (release func(), acquired bool, err error)
	}

	Service struct {
		repo    Repository
		usrRepo user.Repository   // nil-able; only needed by the email mirror
		mailSvc core.EmailService // nil-able
		logger  core.Logger
		appName string
	}
)

func NewService(repo Repository, usrRepo user.Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	svc := &Service{
		repo:    repo,
		usrRepo: usrRepo,
		mailSvc: mailSvc,
		logger:  logger,
	}
	if conf != nil {
		svc.appName = conf.AppName
	}
	return svc
}

// Create inserts one unread notification for exactly one recipient and returns it.
// High-priority notifications are mirrored to the recipient's email, best-effort.
func (svc *Service) Create(ctx context.Context, nn NewNotification) (Notification, error) {
	if nn.Priority == "" {
		nn.Priority = PriorityMedium
	}
	n := Notification{
		UserID:      nn.UserID,
		Title:       core.CleanString(nn.Title),
		Message:     core.CleanString(nn.Message),
		Kind:        nn.Kind,
		RelatedID:   nn.RelatedID,
		RelatedKind: nn.RelatedKind,
		WindowLabel: nn.WindowLabel,
		Priority:    nn.Priority,
		CreatedAt:   time.Now().UTC(),
	}
	n, err := svc.repo.CreateNotification(ctx, n)
	if err != nil {
		return Notification{}, errors.Wrap(err, "creating notification")
	}
	if n.Priority == PriorityHigh {
		svc.mirrorToEmail(ctx, n)
	}
	return n, nil
}

// Latest returns the user's most recent notification; found is false when the
// user has none.
func (svc *Service) Latest(ctx context.Context, userID int) (n Notification, found bool, err error) {
	n, err = svc.repo.GetLatestUserNotification(ctx, userID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Notification{}, false, nil
		}
		return Notification{}, false, err
	}
	return n, true, nil
}

// ListForUser returns up to filter.Limit notifications, newest-first.
func (svc *Service) ListForUser(ctx context.Context, userID int, filter QueryFilter) ([]Notification, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	return svc.repo.FilterUserNotifications(ctx, userID, filter)
}

func (svc *Service) UnreadCount(ctx context.Context, userID int) (int, error) {
	return svc.repo.CountUnreadNotifications(ctx, userID)
}

// MarkRead transitions one notification to read, scoped to the owning user.
// Idempotent on already-read rows; ErrNotFound when absent or owned by another user.
func (svc *Service) MarkRead(ctx context.Context, id, userID int) error {
	return svc.repo.MarkNotificationRead(ctx, id, userID, time.Now().UTC())
}

// MarkAllRead transitions every unread notification owned by the user;
// succeeds even when there were none.
func (svc *Service) MarkAllRead(ctx context.Context, userID int) error {
	return svc.repo.MarkAllNotificationsRead(ctx, userID, time.Now().UTC())
}

// Stats returns the user's dashboard counters. "Grades today" counts grade
// notifications created since the server's local midnight.
func (svc *Service) Stats(ctx context.Context, userID int) (Stats, error) {
	now := time.Now()
	y, m, d := now.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return svc.repo.GetNotificationStats(ctx, userID, dayStart)
}

// PurgeOlderThan deletes notifications older than `days`, read or not, for all
// users. Maintenance only; failures are logged.
func (svc *Service) PurgeOlderThan(ctx context.Context, days int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	count, err := svc.repo.DeleteNotificationsBefore(ctx, cutoff)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("purging notifications: %v", err), err)
		return 0, err
	}
	return count, nil
}

// mirrorToEmail sends a copy of an urgent notification to the recipient's inbox.
// Best-effort: any failure is logged and swallowed.
func (svc *Service) mirrorToEmail(ctx context.Context, n Notification) {
	if svc.mailSvc == nil || svc.usrRepo == nil {
		return
	}
	usr, err := svc.usrRepo.GetUserByID(ctx, n.UserID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("mirroring notification %d to email: %v", n.ID, err), err)
		return
	}
	if usr.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: n.Title,
		BodyStr: n.Message,
	})
}
