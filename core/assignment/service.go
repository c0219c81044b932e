package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotFound           = errors.New("assignment not found")
	ErrSubmissionExists   = errors.New("work has already been submitted for this assignment")
	ErrSubmissionNotFound = errors.New("submission not found")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id int) (Assignment, error)
		// FilterAssignments applies AND operation on available QueryFilter fields.
		FilterAssignments(ctx context.Context, filter QueryFilter) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment, isActive *bool) (Assignment, error)
		DeleteAssignmentsByID(ctx context.Context, ids ...int) error

		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id int) (Submission, error)
		GetSubmission(ctx context.Context, assignmentID, studentID int) (Submission, error)
		// QuerySubmitterIDs returns the IDs of all students having submitted work
		// for the given assignment.
		QuerySubmitterIDs(ctx context.Context, assignmentID int) ([]int, error)
		SetSubmissionGrade(ctx context.Context, id int, grade string, gradedAt time.Time) (Submission, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, teacher int, course string, na NewAssignment) (Assignment, error) {
	now := time.Now().UTC()
	a := Assignment{
		TeacherID:   teacher,
		Title:       na.Title,
		Description: na.Description,
		Course:      course,
		DueAt:       na.DueAt.UTC(),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Assignment, error) {
	return svc.repo.FilterAssignments(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id int, ua UpdateAssignment) (Assignment, error) {
	orig, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	a := Assignment{
		ID:          id,
		Title:       ua.Title,
		Description: ua.Description,
		DueAt:       orig.DueAt,
		UpdatedAt:   time.Now().UTC(),
	}
	if ua.DueAt != nil {
		a.DueAt = ua.DueAt.UTC()
	}
	return svc.repo.UpdateAssignment(ctx, a, ua.IsActive)
}

func (svc *Service) Delete(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteAssignmentsByID(ctx, ids...)
}

// Submit records a student's work for an assignment. A student may submit at most once.
func (svc *Service) Submit(ctx context.Context, assignmentID, studentID int, ns NewSubmission) (Submission, error) {
	if _, err := svc.repo.GetSubmission(ctx, assignmentID, studentID); err == nil {
		return Submission{}, ErrSubmissionExists
	} else if errors.Cause(err) != ErrSubmissionNotFound {
		return Submission{}, err
	}
	s := Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Content:      ns.Content,
		SubmittedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateSubmission(ctx, s)
}

func (svc *Service) GetSubmission(ctx context.Context, id int) (Submission, error) {
	return svc.repo.GetSubmissionByID(ctx, id)
}

// Grade records a teacher's grade on a submission.
func (svc *Service) Grade(ctx context.Context, submissionID int, gs GradeSubmission) (Submission, error) {
	return svc.repo.SetSubmissionGrade(ctx, submissionID, gs.Grade, time.Now().UTC())
}

// SubmitterIDs returns the IDs of students who already submitted for the assignment.
func (svc *Service) SubmitterIDs(ctx context.Context, assignmentID int) ([]int, error) {
	return svc.repo.QuerySubmitterIDs(ctx, assignmentID)
}
