package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/assignment"
)

const assignmentColumns = `id, teacher_id, title, description, course, due_at, is_active, created_at, updated_at`
const submissionColumns = `id, assignment_id, student_id, content, grade, submitted_at, graded_at`

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	query := `
INSERT INTO assignment (teacher_id, title, description, course, due_at, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		a.TeacherID, a.Title, a.Description, a.Course, a.DueAt, a.IsActive, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "creating assignment")
	}
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id int) (assignment.Assignment, error) {
	var a assignment.Assignment
	query := fmt.Sprintf(`SELECT %s FROM assignment WHERE id = $1`, assignmentColumns)
	if err := repo.db.GetContext(ctx, &a, query, id); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment by id")
	}
	return a, nil
}

func (repo *assignmentRepository) FilterAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Course != "" {
		conds = append(conds, fmt.Sprintf("course = %s", arg(filter.Course)))
	}
	if filter.TeacherID != 0 {
		conds = append(conds, fmt.Sprintf("teacher_id = %s", arg(filter.TeacherID)))
	}
	if filter.IsActive != nil {
		conds = append(conds, fmt.Sprintf("is_active = %s", arg(*filter.IsActive)))
	}
	if !filter.DueFrom.IsZero() {
		conds = append(conds, fmt.Sprintf("due_at >= %s", arg(filter.DueFrom)))
	}
	if !filter.DueTo.IsZero() {
		conds = append(conds, fmt.Sprintf("due_at <= %s", arg(filter.DueTo)))
	}

	query := fmt.Sprintf(`SELECT %s FROM assignment`, assignmentColumns)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY due_at"

	var assignments []assignment.Assignment
	if err := repo.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering assignments")
	}
	return assignments, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment, isActive *bool) (assignment.Assignment, error) {
	query := `
UPDATE assignment
SET title = $2, description = $3, due_at = $4, updated_at = $5,
    is_active = COALESCE($6, is_active)
WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, a.ID, a.Title, a.Description, a.DueAt, a.UpdatedAt, isActive)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return repo.GetAssignmentByID(ctx, a.ID)
}

func (repo *assignmentRepository) DeleteAssignmentsByID(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	arr := make(pq.Int64Array, 0, len(ids))
	for _, id := range ids {
		arr = append(arr, int64(id))
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM assignment WHERE id = ANY($1)`, arr)
	return errors.Wrap(err, "deleting assignments")
}

func (repo *assignmentRepository) CreateSubmission(ctx context.Context, s assignment.Submission) (assignment.Submission, error) {
	query := `
INSERT INTO submission (assignment_id, student_id, content, submitted_at)
VALUES ($1, $2, $3, $4)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query, s.AssignmentID, s.StudentID, s.Content, s.SubmittedAt).Scan(&s.ID)
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "creating submission")
	}
	return s, nil
}

func (repo *assignmentRepository) GetSubmissionByID(ctx context.Context, id int) (assignment.Submission, error) {
	var s assignment.Submission
	query := fmt.Sprintf(`SELECT %s FROM submission WHERE id = $1`, submissionColumns)
	if err := repo.db.GetContext(ctx, &s, query, id); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Submission{}, assignment.ErrSubmissionNotFound
		}
		return assignment.Submission{}, errors.Wrap(err, "getting submission by id")
	}
	return s, nil
}

func (repo *assignmentRepository) GetSubmission(ctx context.Context, assignmentID, studentID int) (assignment.Submission, error) {
	var s assignment.Submission
	query := fmt.Sprintf(`SELECT %s FROM submission WHERE assignment_id = $1 AND student_id = $2`, submissionColumns)
	if err := repo.db.GetContext(ctx, &s, query, assignmentID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Submission{}, assignment.ErrSubmissionNotFound
		}
		return assignment.Submission{}, errors.Wrap(err, "getting submission")
	}
	return s, nil
}

func (repo *assignmentRepository) QuerySubmitterIDs(ctx context.Context, assignmentID int) ([]int, error) {
	var ids []int
	query := `SELECT student_id FROM submission WHERE assignment_id = $1`
	if err := repo.db.SelectContext(ctx, &ids, query, assignmentID); err != nil {
		return nil, errors.Wrap(err, "querying submitter ids")
	}
	return ids, nil
}

func (repo *assignmentRepository) SetSubmissionGrade(ctx context.Context, id int, grade string, gradedAt time.Time) (assignment.Submission, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE submission SET grade = $2, graded_at = $3 WHERE id = $1`, id, grade, gradedAt)
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "grading submission")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	return repo.GetSubmissionByID(ctx, id)
}
