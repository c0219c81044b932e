package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/user"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

type testLogger struct {
	t *testing.T
}

func (l testLogger) Enable(bool)                        {}
func (l testLogger) Debug(msg string, _ ...interface{}) { l.t.Logf("DEBUG: %s", msg) }
func (l testLogger) Info(msg string, _ ...interface{})  { l.t.Logf("INFO: %s", msg) }
func (l testLogger) Warn(msg string, _ ...interface{})  { l.t.Logf("WARN: %s", msg) }
func (l testLogger) Error(msg string, _ ...interface{}) { l.t.Logf("ERROR: %s", msg) }
func (l testLogger) Fatal(msg string, _ ...interface{}) { l.t.Logf("FATAL: %s", msg) }

type testEnv struct {
	usrRepo   user.Repository
	asgRepo   assignment.Repository
	notifRepo notification.Repository
	svc       *notification.Service
	notifier  *notification.Notifier
	scheduler *notification.Scheduler
}

func setup(t *testing.T) *testEnv {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	logger := testLogger{t}
	usrRepo := dummydb.NewUserRepository(db)
	asgRepo := dummydb.NewAssignmentRepository(db)
	notifRepo := dummydb.NewNotificationRepository(db)
	svc := notification.NewService(notifRepo, usrRepo, nil, logger, nil)
	return &testEnv{
		usrRepo:   usrRepo,
		asgRepo:   asgRepo,
		notifRepo: notifRepo,
		svc:       svc,
		notifier:  notification.NewNotifier(svc, usrRepo, logger),
		scheduler: notification.NewScheduler(svc, notifRepo, asgRepo, usrRepo, logger, nil),
	}
}

func createUser(t *testing.T, repo user.Repository, name, course string, roles []string, isActive bool) user.User {
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  name,
		Email:     name + "@test.cd",
		Course:    course,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func createAssignment(t *testing.T, repo assignment.Repository, teacherID int, title, course string, dueAt time.Time) assignment.Assignment {
	now := time.Now().UTC()
	a := assignment.Assignment{
		TeacherID: teacherID,
		Title:     title,
		Course:    course,
		DueAt:     dueAt.UTC(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	a, err := repo.CreateAssignment(context.Background(), a)
	if err != nil {
		t.Fatalf("createAssignment() failed: %v", err)
	}
	return a
}

// seedReminder inserts a deadline reminder with a back-dated creation time,
// bypassing the service.
func seedReminder(t *testing.T, repo notification.Repository, userID, assignmentID int, label string, createdAt time.Time) notification.Notification {
	n, err := repo.CreateNotification(context.Background(), notification.Notification{
		UserID:      userID,
		Title:       "Deadline Reminder",
		Message:     "seeded",
		Kind:        notification.KindDeadline,
		RelatedID:   null.IntFrom(assignmentID),
		RelatedKind: "assignment",
		WindowLabel: label,
		Priority:    notification.PriorityMedium,
		CreatedAt:   createdAt.UTC(),
	})
	if err != nil {
		t.Fatalf("seedReminder() failed: %v", err)
	}
	return n
}

func listAll(t *testing.T, svc *notification.Service, userID int) []notification.Notification {
	notifs, err := svc.ListForUser(context.Background(), userID, notification.QueryFilter{Limit: 100})
	if err != nil {
		t.Fatalf("listAll() failed: %v", err)
	}
	return notifs
}
