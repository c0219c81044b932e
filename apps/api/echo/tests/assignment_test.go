package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/user"
)

func Test_assignmentApi_create(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	teacher := env.createUser(t, "teacher01", "", user.TeacherRoles, true)
	student := env.createUser(t, "hero01", "", user.StudentRoles, true)

	body := marchallObj(t, assignment.NewAssignment{
		Title:       "Essay 1",
		Description: "Write an essay",
		DueAt:       time.Now().UTC().Add(7 * 24 * time.Hour).Truncate(time.Second),
	})

	tests := []httpTest{
		{name: "Auth required", body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teacher required", body: body, token: env.getToken(t, student), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Title required", body: marchallObj(t, assignment.NewAssignment{DueAt: time.Now()}),
			token: env.getToken(t, teacher), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "title is a required field"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/assignments", tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Created and fanned out", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/assignments", env.getToken(t, teacher), body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var a assignment.Assignment
		if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
			t.Fatalf("unmarshalling Assignment: %v", err)
		}
		if a.TeacherID != teacher.ID {
			t.Errorf("TeacherID = %d; want %d", a.TeacherID, teacher.ID)
		}
		if a.Course != teacher.Course {
			t.Errorf("Course = %q; want %q", a.Course, teacher.Course)
		}

		// the teacher's course students were notified
		if unread, _ := env.notifSvc.UnreadCount(ctx, student.ID); unread != 1 {
			t.Errorf("student's unread = %d; want 1", unread)
		}
	})
}

func Test_assignmentApi_query(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	teacher := env.createUser(t, "teacher01", "", user.TeacherRoles, true)
	bcaStudent := env.createUser(t, "hero01", "", user.StudentRoles, true)

	due := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	bca, err := env.asgRepo.CreateAssignment(ctx, assignment.Assignment{
		TeacherID: teacher.ID, Title: "BCA only", Course: "bca", DueAt: due, IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateAssignment(): %v", err)
	}
	bcom, err := env.asgRepo.CreateAssignment(ctx, assignment.Assignment{
		TeacherID: teacher.ID, Title: "BCom only", Course: "bcom", DueAt: due.Add(time.Hour), IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateAssignment(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", path: "/v1/assignments", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teachers see all courses", path: "/v1/assignments", token: env.getToken(t, teacher),
			wantData: marchallList(t, bca, bcom),
		},
		{
			name: "Students are scoped to their course", path: "/v1/assignments", token: env.getToken(t, bcaStudent),
			wantData: marchallList(t, bca),
		},
		{
			name: "Students cannot filter another course", path: "/v1/assignments?course=bcom",
			token: env.getToken(t, bcaStudent), wantData: marchallList(t, bca),
		},
		{
			name: "course filter", path: "/v1/assignments?course=bcom", token: env.getToken(t, teacher),
			wantData: marchallList(t, bcom),
		},
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

func Test_assignmentApi_submitAndGrade(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	teacher := env.createUser(t, "teacher01", "", user.TeacherRoles, true)
	student := env.createUser(t, "hero01", "", user.StudentRoles, true)
	outsider := env.createUser(t, "bcom01", "", user.StudentRoles, true)
	outsider.Course = "bcom"
	if _, err := env.usrRepo.UpdateUser(ctx, outsider, nil); err != nil {
		t.Fatalf("UpdateUser(): %v", err)
	}

	a, err := env.asgRepo.CreateAssignment(ctx, assignment.Assignment{
		TeacherID: teacher.ID, Title: "Essay 1", Course: "bca",
		DueAt: time.Now().UTC().Add(24 * time.Hour), IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateAssignment(): %v", err)
	}

	submitPath := fmt.Sprintf("/v1/assignments/%d/submissions", a.ID)
	workBody := marchallObj(t, assignment.NewSubmission{Content: "my essay"})

	// submit
	subTests := []httpTest{
		{name: "Auth required", body: workBody, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teachers cannot submit", body: workBody, token: env.getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Other course cannot submit", body: workBody, token: env.getToken(t, outsider),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	}
	for _, tt := range subTests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, submitPath, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	var s assignment.Submission
	t.Run("Submitted", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, submitPath, env.getToken(t, student), workBody)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
			t.Fatalf("unmarshalling Submission: %v", err)
		}
		if s.StudentID != student.ID {
			t.Errorf("StudentID = %d; want %d", s.StudentID, student.ID)
		}

		// the teacher was notified
		if unread, _ := env.notifSvc.UnreadCount(ctx, teacher.ID); unread != 1 {
			t.Errorf("teacher's unread = %d; want 1", unread)
		}
	})

	t.Run("Double submission rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, submitPath, env.getToken(t, student), workBody)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v; body %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	// grade
	gradePath := fmt.Sprintf("/v1/submissions/%d/grade", s.ID)
	gradeBody := marchallObj(t, assignment.GradeSubmission{Grade: "A+"})

	gradeTests := []httpTest{
		{
			name: "Students cannot grade", body: gradeBody, token: env.getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Grade required", body: marchallObj(t, assignment.GradeSubmission{}), token: env.getToken(t, teacher),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"grade": "grade is a required field"}),
		},
	}
	for _, tt := range gradeTests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, gradePath, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Graded", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, gradePath, env.getToken(t, teacher), gradeBody)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var graded assignment.Submission
		if err := json.Unmarshal(rec.Body.Bytes(), &graded); err != nil {
			t.Fatalf("unmarshalling Submission: %v", err)
		}
		if !graded.IsGraded() || graded.Grade.String != "A+" {
			t.Errorf("Grade = %v; want A+", graded.Grade)
		}

		// the student was told
		if unread, _ := env.notifSvc.UnreadCount(ctx, student.ID); unread != 1 {
			t.Errorf("student's unread = %d; want 1", unread)
		}
	})
}
