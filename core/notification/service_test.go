package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/user"
)

func TestService_Create(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	usr := createUser(t, env.usrRepo, "student01", "bca", user.StudentRoles, true)

	n, err := env.svc.Create(ctx, notification.NewNotification{
		UserID:  usr.ID,
		Title:   "  New Assignment ",
		Message: "Something was posted.",
		Kind:    notification.KindAssignment,
	})
	require.NoError(t, err)

	assert.NotZero(t, n.ID)
	assert.Equal(t, "New Assignment", n.Title)
	assert.Equal(t, notification.PriorityMedium, n.Priority, "priority defaults to medium")
	assert.False(t, n.IsRead, "new notifications start unread")
	assert.False(t, n.ReadAt.Valid, "ReadAt is unset while unread")
	assert.WithinDuration(t, time.Now().UTC(), n.CreatedAt, time.Minute)

	unread, err := env.svc.UnreadCount(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestService_Latest(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	usr := createUser(t, env.usrRepo, "student01", "bca", user.StudentRoles, true)

	_, found, err := env.svc.Latest(ctx, usr.ID)
	require.NoError(t, err)
	assert.False(t, found, "no notifications yet")

	first, err := env.svc.Create(ctx, notification.NewNotification{
		UserID: usr.ID, Title: "First", Message: "m", Kind: notification.KindGeneral,
	})
	require.NoError(t, err)
	second, err := env.svc.Create(ctx, notification.NewNotification{
		UserID: usr.ID, Title: "Second", Message: "m", Kind: notification.KindGeneral,
	})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID, "ids are monotonically increasing")

	latest, found, err := env.svc.Latest(ctx, usr.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, second.ID, latest.ID)
}

func TestService_ListForUser(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	usr := createUser(t, env.usrRepo, "student01", "bca", user.StudentRoles, true)
	other := createUser(t, env.usrRepo, "student02", "bca", user.StudentRoles, true)

	var ids []int
	for i := 0; i < 25; i++ {
		n, err := env.svc.Create(ctx, notification.NewNotification{
			UserID: usr.ID, Title: "T", Message: "m", Kind: notification.KindGeneral,
		})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}
	_, err := env.svc.Create(ctx, notification.NewNotification{
		UserID: other.ID, Title: "T", Message: "m", Kind: notification.KindGeneral,
	})
	require.NoError(t, err)

	// default limit, newest first, scoped to the owner
	notifs, err := env.svc.ListForUser(ctx, usr.ID, notification.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, notifs, notification.DefaultListLimit)
	assert.Equal(t, ids[len(ids)-1], notifs[0].ID)
	for i := 1; i < len(notifs); i++ {
		assert.Greater(t, notifs[i-1].ID, notifs[i].ID, "newest first")
	}

	// unread only
	require.NoError(t, env.svc.MarkRead(ctx, ids[len(ids)-1], usr.ID))
	notifs, err = env.svc.ListForUser(ctx, usr.ID, notification.QueryFilter{Limit: 100, UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, notifs, 24)
}

func TestService_MarkRead(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	usr := createUser(t, env.usrRepo, "student01", "bca", user.StudentRoles, true)
	other := createUser(t, env.usrRepo, "student02", "bca", user.StudentRoles, true)

	n, err := env.svc.Create(ctx, notification.NewNotification{
		UserID: usr.ID, Title: "T", Message: "m", Kind: notification.KindGeneral,
	})
	require.NoError(t, err)

	// another user's notification is invisible
	err = env.svc.MarkRead(ctx, n.ID, other.ID)
	assert.Equal(t, notification.ErrNotFound, errors.Cause(err))

	// unknown id
	err = env.svc.MarkRead(ctx, n.ID+999, usr.ID)
	assert.Equal(t, notification.ErrNotFound, errors.Cause(err))

	require.NoError(t, env.svc.MarkRead(ctx, n.ID, usr.ID))
	got, err := env.notifRepo.GetUserNotification(ctx, n.ID, usr.ID)
	require.NoError(t, err)
	require.True(t, got.IsRead)
	require.True(t, got.ReadAt.Valid)
	readAt := got.ReadAt.Time

	// marking again succeeds and keeps the original timestamp
	require.NoError(t, env.svc.MarkRead(ctx, n.ID, usr.ID))
	got, err = env.notifRepo.GetUserNotification(ctx, n.ID, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, readAt, got.ReadAt.Time)

	unread, err := env.svc.UnreadCount(ctx, usr.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestService_MarkAllRead(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	usr := createUser(t, env.usrRepo, "student01", "bca", user.StudentRoles, true)
	other := createUser(t, env.usrRepo, "student02", "bca", user.StudentRoles, true)

	for i := 0; i < 3; i++ {
		_, err := env.svc.Create(ctx, notification.NewNotification{
			UserID: usr.ID, Title: "T", Message: "m", Kind: notification.KindGeneral,
		})
		require.NoError(t, err)
	}
	_, err := env.svc.Create(ctx, notification.NewNotification{
		UserID: other.ID, Title: "T", Message: "m", Kind: notification.KindGeneral,
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.MarkAllRead(ctx, usr.ID))

	unread, err := env.svc.UnreadCount(ctx, usr.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	// other users are untouched
	unread, err = env.svc.UnreadCount(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	// marking all with nothing unread is fine
	require.NoError(t, env.svc.MarkAllRead(ctx, usr.ID))
}

func TestService_Stats(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	usr := createUser(t, env.usrRepo, "student01", "bca", user.StudentRoles, true)

	a1, err := env.svc.Create(ctx, notification.NewNotification{
		UserID: usr.ID, Title: "A1", Message: "m", Kind: notification.KindAssignment,
	})
	require.NoError(t, err)
	_, err = env.svc.Create(ctx, notification.NewNotification{
		UserID: usr.ID, Title: "A2", Message: "m", Kind: notification.KindAssignment,
	})
	require.NoError(t, err)
	_, err = env.svc.Create(ctx, notification.NewNotification{
		UserID: usr.ID, Title: "G", Message: "m", Kind: notification.KindGrade,
	})
	require.NoError(t, err)
	// yesterday's grade does not count towards today
	_, err = env.notifRepo.CreateNotification(ctx, notification.Notification{
		UserID: usr.ID, Title: "Old G", Message: "m", Kind: notification.KindGrade,
		Priority: notification.PriorityMedium, CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.MarkRead(ctx, a1.ID, usr.ID))

	stats, err := env.svc.Stats(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Unread)
	assert.Equal(t, 1, stats.PendingAssignments, "only unread assignment notifications count")
	assert.Equal(t, 1, stats.GradesToday)
}

func TestService_PurgeOlderThan(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	usr := createUser(t, env.usrRepo, "student01", "bca", user.StudentRoles, true)

	old, err := env.notifRepo.CreateNotification(ctx, notification.Notification{
		UserID: usr.ID, Title: "Old", Message: "m", Kind: notification.KindGeneral,
		Priority: notification.PriorityMedium, CreatedAt: time.Now().UTC().AddDate(0, 0, -91),
	})
	require.NoError(t, err)
	// old but read rows are purged too
	require.NoError(t, env.svc.MarkRead(ctx, old.ID, usr.ID))

	fresh, err := env.svc.Create(ctx, notification.NewNotification{
		UserID: usr.ID, Title: "Fresh", Message: "m", Kind: notification.KindGeneral,
	})
	require.NoError(t, err)

	count, err := env.svc.PurgeOlderThan(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	notifs := listAll(t, env.svc, usr.ID)
	require.Len(t, notifs, 1)
	assert.Equal(t, fresh.ID, notifs[0].ID)
}

func TestRouteURL(t *testing.T) {
	student := user.User{Roles: user.StudentRoles}
	teacher := user.User{Roles: user.TeacherRoles}
	admin := user.User{Roles: user.AdminRoles}

	// kind routing is per portal
	assert.Equal(t, "/assignments/7", notification.KindAssignment.RouteFor(student, "assignment").URL(null.IntFrom(7)))
	assert.Equal(t, "/assignments/7/edit", notification.KindAssignment.RouteFor(teacher, "assignment").URL(null.IntFrom(7)))
	assert.Equal(t, "/assignments", notification.KindAssignment.RouteFor(admin, "assignment").URL(null.IntFrom(7)))

	// grade routing
	assert.Equal(t, "/grades", notification.KindGrade.RouteFor(student, "submission").URL(null.IntFrom(3)))
	assert.Equal(t, "/submissions/3", notification.KindGrade.RouteFor(teacher, "submission").URL(null.IntFrom(3)))

	// a missing related id falls back to the dashboard
	assert.Equal(t, "/dashboard", notification.KindAssignment.RouteFor(student, "assignment").URL(null.Int{}))

	// registration notifications route staff to approvals regardless of kind
	assert.Equal(t, "/approvals", notification.KindGeneral.RouteFor(admin, notification.RelatedKindRegistration).URL(null.IntFrom(9)))
	assert.Equal(t, "/approvals", notification.KindGeneral.RouteFor(teacher, notification.RelatedKindRegistration).URL(null.IntFrom(9)))
	assert.Equal(t, "/dashboard", notification.KindGeneral.RouteFor(student, notification.RelatedKindRegistration).URL(null.IntFrom(9)))
}
