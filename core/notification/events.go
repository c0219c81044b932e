package notification

import (
	"context"
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/user"
)

// Notifier turns domain events into notifications: it resolves the audience
// for each event and fans out one row per recipient through the Service.
//
// Every producer is best-effort: a failure to notify is logged and contained,
// it never propagates back to the workflow that raised the event.
type Notifier struct {
	svc     *Service
	usrRepo user.Repository
	logger  core.Logger
}

func NewNotifier(svc *Service, usrRepo user.Repository, logger core.Logger) *Notifier {
	return &Notifier{svc: svc, usrRepo: usrRepo, logger: logger}
}

// audience resolution; always resolved fresh - course rosters change.

func (nf *Notifier) activeStudents(ctx context.Context, course string) ([]user.User, error) {
	active := true
	return nf.usrRepo.FilterUsers(ctx, user.QueryFilter{
		Roles:    user.StudentRoles,
		Course:   course,
		IsActive: &active,
	})
}

func (nf *Notifier) activeAdmins(ctx context.Context) ([]user.User, error) {
	active := true
	return nf.usrRepo.FilterUsers(ctx, user.QueryFilter{
		Roles:    user.AdminRoles,
		IsActive: &active,
	})
}

func (nf *Notifier) create(ctx context.Context, nn NewNotification) {
	if _, err := nf.svc.Create(ctx, nn); err != nil {
		nf.logger.Error(fmt.Sprintf("notifying user %d: %v", nn.UserID, err), err)
	}
}

// AssignmentCreated notifies every active student of the assignment's course,
// plus a confirmation to the posting teacher.
func (nf *Notifier) AssignmentCreated(ctx context.Context, a assignment.Assignment) {
	students, err := nf.activeStudents(ctx, a.Course)
	if err != nil {
		nf.logger.Error(fmt.Sprintf("resolving students of course %q: %v", a.Course, err), err)
	}
	for _, student := range students {
		nf.create(ctx, NewNotification{
			UserID:      student.ID,
			Title:       "New Assignment",
			Message:     fmt.Sprintf("New assignment %q has been posted for your course. Due %s.", a.Title, a.DueAt.Format("Jan 2, 2006 15:04")),
			Kind:        KindAssignment,
			RelatedID:   null.IntFrom(a.ID),
			RelatedKind: "assignment",
		})
	}
	nf.create(ctx, NewNotification{
		UserID:      a.TeacherID,
		Title:       "Assignment Created",
		Message:     fmt.Sprintf("Your assignment %q was created successfully.", a.Title),
		Kind:        KindAssignment,
		RelatedID:   null.IntFrom(a.ID),
		RelatedKind: "assignment",
		Priority:    PriorityLow,
	})
}

// AssignmentUpdated sends a confirmation to the editing teacher only.
func (nf *Notifier) AssignmentUpdated(ctx context.Context, a assignment.Assignment) {
	nf.create(ctx, NewNotification{
		UserID:      a.TeacherID,
		Title:       "Assignment Updated",
		Message:     fmt.Sprintf("Your assignment %q was updated successfully.", a.Title),
		Kind:        KindAssignment,
		RelatedID:   null.IntFrom(a.ID),
		RelatedKind: "assignment",
		Priority:    PriorityLow,
	})
}

// SubmissionReceived notifies the assignment's teacher of a new submission.
func (nf *Notifier) SubmissionReceived(ctx context.Context, a assignment.Assignment, s assignment.Submission, student user.User) {
	nf.create(ctx, NewNotification{
		UserID:      a.TeacherID,
		Title:       "New Submission",
		Message:     fmt.Sprintf("%s submitted work for %q.", student.Name, a.Title),
		Kind:        KindSubmission,
		RelatedID:   null.IntFrom(s.ID),
		RelatedKind: "submission",
	})
}

// GradePosted notifies the single submitting student; no fan-out.
func (nf *Notifier) GradePosted(ctx context.Context, a assignment.Assignment, s assignment.Submission) {
	nf.create(ctx, NewNotification{
		UserID:      s.StudentID,
		Title:       "Grade Received",
		Message:     fmt.Sprintf("Your submission for %q has been graded: %s.", a.Title, s.Grade.String),
		Kind:        KindGrade,
		RelatedID:   null.IntFrom(s.ID),
		RelatedKind: "submission",
	})
}

// RegistrationSubmitted notifies all active admins of a pending registration.
func (nf *Notifier) RegistrationSubmitted(ctx context.Context, applicant user.User) {
	admins, err := nf.activeAdmins(ctx)
	if err != nil {
		nf.logger.Error(fmt.Sprintf("resolving admins: %v", err), err)
		return
	}
	for _, admin := range admins {
		nf.create(ctx, NewNotification{
			UserID:      admin.ID,
			Title:       "New Registration",
			Message:     fmt.Sprintf("%s has requested an account and is awaiting approval.", applicant.Name),
			Kind:        KindGeneral,
			RelatedID:   null.IntFrom(applicant.ID),
			RelatedKind: RelatedKindRegistration,
			Priority:    PriorityHigh,
		})
	}
}
