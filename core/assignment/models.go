package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

type Assignment struct {
	ID          int       `json:"id" db:"id"`
	TeacherID   int       `json:"teacher_id" db:"teacher_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Course      string    `json:"course" db:"course"`
	DueAt       time.Time `json:"due_at" db:"due_at"` // UTC
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC
}

type Submission struct {
	ID           int         `json:"id" db:"id"`
	AssignmentID int         `json:"assignment_id" db:"assignment_id"`
	StudentID    int         `json:"student_id" db:"student_id"`
	Content      string      `json:"content" db:"content"`
	Grade        null.String `json:"grade" db:"grade"`
	SubmittedAt  time.Time   `json:"submitted_at" db:"submitted_at"` // UTC
	GradedAt     null.Time   `json:"graded_at" db:"graded_at"`       // UTC
}

func (s Submission) IsGraded() bool { return s.Grade.Valid }

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"due_at" validate:"required"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an existing Assignment.
type UpdateAssignment struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	IsActive    *bool      `json:"is_active"`
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate, orig Assignment) error {
	if title := core.CleanString(ua.Title); title != "" {
		ua.Title = title
	} else {
		ua.Title = orig.Title
	}
	if desc := core.CleanString(ua.Description); desc != "" {
		ua.Description = desc
	} else {
		ua.Description = orig.Description
	}
	return validate.Struct(ua)
}

// NewSubmission contains information needed to submit work for an Assignment.
type NewSubmission struct {
	Content string `json:"content" validate:"required"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.Content = core.CleanString(ns.Content)
	return validate.Struct(ns)
}

// GradeSubmission carries a teacher's grade for a Submission.
type GradeSubmission struct {
	Grade string `json:"grade" validate:"required"`
}

func (gs *GradeSubmission) Validate(validate *validator.Validate) error {
	gs.Grade = core.CleanString(gs.Grade)
	return validate.Struct(gs)
}

type QueryFilter struct {
	Course    string    `query:"course"`
	TeacherID int       `query:"teacher_id"`
	IsActive  *bool     `query:"is_active"`
	DueFrom   time.Time `query:"due_from"`
	DueTo     time.Time `query:"due_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Course == "" && qf.TeacherID == 0 && qf.IsActive == nil &&
		qf.DueFrom.IsZero() && qf.DueTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Course = core.CleanString(qf.Course, true /* lower */)
}
