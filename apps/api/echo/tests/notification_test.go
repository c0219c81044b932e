package tests

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/user"
)

func Test_notificationApi_latest(t *testing.T) {
	env := setup(t)

	student := env.createUser(t, "hero", "", user.StudentRoles, true)
	other := env.createUser(t, "other", "", user.StudentRoles, true)
	token := env.getToken(t, student)

	// no notifications yet
	tt := httpTest{
		name: "Empty", method: http.MethodGet, path: "/v1/notifications/latest", token: token,
		wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.LatestResponse{Success: true}),
	}
	t.Run(tt.name, func(t *testing.T) {
		req, rec := newAuthRequest(tt.method, tt.path, tt.token)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	env.createNotification(t, student.ID, "First", notification.KindGeneral)
	n2 := env.createNotification(t, student.ID, "Second", notification.KindAssignment)
	env.createNotification(t, other.ID, "Not yours", notification.KindGeneral)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Latest is the newest own notification", token: token, wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.LatestResponse{
				Success:         true,
				HasNotification: true,
				Notification:    &n2,
				UnreadCount:     2,
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/notifications/latest", tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_notificationApi_query(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	student := env.createUser(t, "hero", "", user.StudentRoles, true)
	other := env.createUser(t, "other", "", user.StudentRoles, true)
	token := env.getToken(t, student)

	n1 := env.createNotification(t, student.ID, "First", notification.KindGeneral)
	n2 := env.createNotification(t, student.ID, "Second", notification.KindAssignment)
	n3 := env.createNotification(t, student.ID, "Third", notification.KindGrade)
	theirs := env.createNotification(t, other.ID, "Not yours", notification.KindGeneral)

	if err := env.notifSvc.MarkRead(ctx, n1.ID, student.ID); err != nil {
		t.Fatalf("MarkRead(): %v", err)
	}
	n1, err := env.notifRepo.GetUserNotification(ctx, n1.ID, student.ID)
	if err != nil {
		t.Fatalf("GetUserNotification(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", path: "/v1/notifications", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Own notifications, newest first", path: "/v1/notifications", token: token, wantData: marchallList(t, n3, n2, n1)},
		{name: "unread=true", path: "/v1/notifications?unread=true", token: token, wantData: marchallList(t, n3, n2)},
		{name: "limit=1", path: "/v1/notifications?limit=1", token: token, wantData: marchallList(t, n3)},
		{name: "Scoped to owner", path: "/v1/notifications", token: env.getToken(t, other), wantData: marchallList(t, theirs)},
	}
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_notificationApi_stats(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	student := env.createUser(t, "hero", "", user.StudentRoles, true)
	env.createUser(t, "other", "", user.StudentRoles, true)

	read := env.createNotification(t, student.ID, "Read assignment", notification.KindAssignment)
	env.createNotification(t, student.ID, "Pending assignment", notification.KindAssignment)
	env.createNotification(t, student.ID, "Graded", notification.KindGrade)
	if err := env.notifSvc.MarkRead(ctx, read.ID, student.ID); err != nil {
		t.Fatalf("MarkRead(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Own counters", token: env.getToken(t, student), wantCode: http.StatusOK,
			wantData: marchallObj(t, notification.Stats{Total: 3, Unread: 2, PendingAssignments: 1, GradesToday: 1}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/notifications/stats", tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_notificationApi_action(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	student := env.createUser(t, "hero", "", user.StudentRoles, true)
	other := env.createUser(t, "other", "", user.StudentRoles, true)
	token := env.getToken(t, student)

	n1 := env.createNotification(t, student.ID, "First", notification.KindGeneral)
	env.createNotification(t, student.ID, "Second", notification.KindAssignment)
	theirs := env.createNotification(t, other.ID, "Not yours", notification.KindGeneral)

	markRead := func(id string) []byte {
		return marchallObj(t, echoapi.ActionRequest{Action: "mark_as_read", ID: id})
	}
	markReadOK := func(id string) []byte {
		return marchallObj(t, echoapi.ActionResponse{Success: true, Action: "mark_as_read", ID: id})
	}

	tests := []httpTest{
		{name: "Auth required", body: markRead(strconv.Itoa(n1.ID)), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Unknown action", body: marchallObj(t, echoapi.ActionRequest{Action: "bogus"}), token: token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"action": "action must be one of [mark_as_read mark_all_read]"}),
		},
		{
			name: "Invalid id", body: markRead("abc"), token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"id": "a valid notification id is required"}),
		},
		{
			name: "Zero id", body: markRead("0"), token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"id": "a valid notification id is required"}),
		},
		{
			name: "Someone else's notification", body: markRead(strconv.Itoa(theirs.ID)), token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "Mark as read", body: markRead(strconv.Itoa(n1.ID)), token: token,
			wantCode: http.StatusOK, wantData: markReadOK(strconv.Itoa(n1.ID)),
		},
		{
			name: "Mark as read is idempotent", body: markRead(strconv.Itoa(n1.ID)), token: token,
			wantCode: http.StatusOK, wantData: markReadOK(strconv.Itoa(n1.ID)),
		},
		{
			name: "Mark all read", body: marchallObj(t, echoapi.ActionRequest{Action: "mark_all_read"}), token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.ActionResponse{Success: true, Action: "mark_all_read"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/notifications/actions", tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// all of the student's notifications ended up read; the other user's did not
	unread, err := env.notifSvc.UnreadCount(ctx, student.ID)
	if err != nil {
		t.Fatalf("UnreadCount(): %v", err)
	}
	if unread != 0 {
		t.Errorf("unread = %d; want 0", unread)
	}
	if unread, _ = env.notifSvc.UnreadCount(ctx, other.ID); unread != 1 {
		t.Errorf("other's unread = %d; want 1", unread)
	}
}
