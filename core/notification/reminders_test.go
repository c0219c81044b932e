package notification_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/user"
)

func TestScheduler_Run_windowMatching(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	teacher := createUser(t, env.usrRepo, "teacher01", "bca", user.TeacherRoles, true)
	student := createUser(t, env.usrRepo, "student01", "bca", user.StudentRoles, true)

	due3d := createAssignment(t, env.asgRepo, teacher.ID, "Due in 3 days", "bca", now.Add(3*24*time.Hour))
	due2h := createAssignment(t, env.asgRepo, teacher.ID, "Due in 2 hours", "bca", now.Add(2*time.Hour))
	createAssignment(t, env.asgRepo, teacher.ID, "Due in 5 days", "bca", now.Add(5*24*time.Hour))
	overdue := createAssignment(t, env.asgRepo, teacher.ID, "Overdue", "bca", now.Add(-time.Hour))

	require.NoError(t, env.scheduler.Run(ctx))

	notifs := listAll(t, env.svc, student.ID)
	require.Len(t, notifs, 2, "only assignments inside a window remind")

	byTitle := make(map[string]notification.Notification, len(notifs))
	for _, n := range notifs {
		byTitle[n.Message] = n
	}

	n3d, ok := byTitle[fmt.Sprintf("Assignment %q is due in 3 days.", due3d.Title)]
	require.True(t, ok, "3-day reminder missing; got %v", byTitle)
	assert.Equal(t, notification.KindDeadline, n3d.Kind)
	assert.Equal(t, notification.PriorityMedium, n3d.Priority)
	assert.Equal(t, "3 days", n3d.WindowLabel)

	n2h, ok := byTitle[fmt.Sprintf("Assignment %q is due in 2 hours.", due2h.Title)]
	require.True(t, ok, "2-hour reminder missing")
	assert.Equal(t, notification.PriorityHigh, n2h.Priority)
	assert.Equal(t, "2 hours", n2h.WindowLabel)

	_ = overdue // past deadlines never remind
}

func TestScheduler_Run_skipsSubmitted(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	teacher := createUser(t, env.usrRepo, "teacher01", "bca", user.TeacherRoles, true)
	pending := createUser(t, env.usrRepo, "pending", "bca", user.StudentRoles, true)
	submitted := createUser(t, env.usrRepo, "submitted", "bca", user.StudentRoles, true)

	a := createAssignment(t, env.asgRepo, teacher.ID, "Essay 1", "bca", now.Add(24*time.Hour))
	_, err := env.asgRepo.CreateSubmission(ctx, assignment.Submission{
		AssignmentID: a.ID, StudentID: submitted.ID, Content: "done", SubmittedAt: now,
	})
	require.NoError(t, err)

	require.NoError(t, env.scheduler.Run(ctx))

	assert.Len(t, listAll(t, env.svc, pending.ID), 1)
	assert.Empty(t, listAll(t, env.svc, submitted.ID), "students who submitted are not reminded")
	assert.Empty(t, listAll(t, env.svc, teacher.ID))
}

func TestScheduler_Run_dedup(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	teacher := createUser(t, env.usrRepo, "teacher01", "bca", user.TeacherRoles, true)
	student := createUser(t, env.usrRepo, "student01", "bca", user.StudentRoles, true)
	a := createAssignment(t, env.asgRepo, teacher.ID, "Essay 1", "bca", now.Add(24*time.Hour))

	// a reminder for the same window sent 2 hours ago suppresses this run
	seedReminder(t, env.notifRepo, student.ID, a.ID, "1 day", now.Add(-2*time.Hour))
	require.NoError(t, env.scheduler.Run(ctx))
	assert.Len(t, listAll(t, env.svc, student.ID), 1, "recent reminder suppresses the batch")

	// back-to-back runs stay idempotent
	require.NoError(t, env.scheduler.Run(ctx))
	assert.Len(t, listAll(t, env.svc, student.ID), 1)
}

func TestScheduler_Run_dedupExpiresAfterLookBack(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	teacher := createUser(t, env.usrRepo, "teacher01", "bca", user.TeacherRoles, true)
	student := createUser(t, env.usrRepo, "student01", "bca", user.StudentRoles, true)
	a := createAssignment(t, env.asgRepo, teacher.ID, "Essay 1", "bca", now.Add(24*time.Hour))

	// outside the 24h look-back; the window fires again
	seedReminder(t, env.notifRepo, student.ID, a.ID, "1 day", now.Add(-25*time.Hour))
	require.NoError(t, env.scheduler.Run(ctx))
	assert.Len(t, listAll(t, env.svc, student.ID), 2)
}

func TestScheduler_Run_dedupIsPerWindow(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	teacher := createUser(t, env.usrRepo, "teacher01", "bca", user.TeacherRoles, true)
	student := createUser(t, env.usrRepo, "student01", "bca", user.StudentRoles, true)
	a := createAssignment(t, env.asgRepo, teacher.ID, "Essay 1", "bca", now.Add(24*time.Hour))

	// a reminder from another window never suppresses this one
	seedReminder(t, env.notifRepo, student.ID, a.ID, "3 days", now.Add(-2*time.Hour))
	require.NoError(t, env.scheduler.Run(ctx))

	notifs := listAll(t, env.svc, student.ID)
	require.Len(t, notifs, 2)
	assert.Equal(t, "1 day", notifs[0].WindowLabel)
}

func TestScheduler_Run_lockSerializesRuns(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	teacher := createUser(t, env.usrRepo, "teacher01", "bca", user.TeacherRoles, true)
	student := createUser(t, env.usrRepo, "student01", "bca", user.StudentRoles, true)
	createAssignment(t, env.asgRepo, teacher.ID, "Essay 1", "bca", now.Add(24*time.Hour))

	release, acquired, err := env.notifRepo.AcquireReminderRunLock(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	// another "instance" holds the lock; this run is a no-op
	require.NoError(t, env.scheduler.Run(ctx))
	assert.Empty(t, listAll(t, env.svc, student.ID))

	release()
	require.NoError(t, env.scheduler.Run(ctx))
	assert.Len(t, listAll(t, env.svc, student.ID), 1)
}
