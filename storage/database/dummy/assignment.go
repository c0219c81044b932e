package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/assignment"
)

type assignmentRepository struct {
	db       *assignmentTable
	pkCount  int
	subCount int
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db.assignment}
}

func (repo *assignmentRepository) query() []assignment.Assignment {
	assignments := make([]assignment.Assignment, 0, len(repo.db.table))
	for _, a := range repo.db.table {
		assignments = append(assignments, *a)
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].DueAt.Before(assignments[j].DueAt) })
	return assignments
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.pkCount++
	a.ID = repo.pkCount
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(_ context.Context, id int) (assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return *a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) FilterAssignments(_ context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	match := func(a assignment.Assignment) bool {
		if filter.Course != "" && a.Course != filter.Course {
			return false
		}
		if filter.TeacherID != 0 && a.TeacherID != filter.TeacherID {
			return false
		}
		if filter.IsActive != nil && a.IsActive != *filter.IsActive {
			return false
		}
		if !filter.DueFrom.IsZero() && a.DueAt.Before(filter.DueFrom) {
			return false
		}
		if !filter.DueTo.IsZero() && a.DueAt.After(filter.DueTo) {
			return false
		}
		return true
	}

	assignments := make([]assignment.Assignment, 0)
	for _, a := range repo.query() {
		if match(a) {
			assignments = append(assignments, a)
		}
	}
	return assignments, nil
}

func (repo *assignmentRepository) UpdateAssignment(_ context.Context, a assignment.Assignment, isActive *bool) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[a.ID]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	orig.Title = a.Title
	orig.Description = a.Description
	orig.DueAt = a.DueAt
	orig.UpdatedAt = a.UpdatedAt
	if isActive != nil {
		orig.IsActive = *isActive
	}
	return *orig, nil
}

func (repo *assignmentRepository) DeleteAssignmentsByID(_ context.Context, ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *assignmentRepository) CreateSubmission(_ context.Context, s assignment.Submission) (assignment.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.subCount++
	s.ID = repo.subCount
	repo.db.submissions[s.ID] = &s
	return s, nil
}

func (repo *assignmentRepository) GetSubmissionByID(_ context.Context, id int) (assignment.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.submissions[id]; ok {
		return *s, nil
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo *assignmentRepository) GetSubmission(_ context.Context, assignmentID, studentID int) (assignment.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, s := range repo.db.submissions {
		if s.AssignmentID == assignmentID && s.StudentID == studentID {
			return *s, nil
		}
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo *assignmentRepository) QuerySubmitterIDs(_ context.Context, assignmentID int) ([]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ids := make([]int, 0)
	for _, s := range repo.db.submissions {
		if s.AssignmentID == assignmentID {
			ids = append(ids, s.StudentID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (repo *assignmentRepository) SetSubmissionGrade(_ context.Context, id int, grade string, gradedAt time.Time) (assignment.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s, ok := repo.db.submissions[id]
	if !ok {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	s.Grade = null.StringFrom(grade)
	s.GradedAt = null.TimeFrom(gradedAt)
	return *s, nil
}
