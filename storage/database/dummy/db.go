package dummydb

import (
	"sync"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/user"
)

type (
	DB struct {
		user         *userTable
		assignment   *assignmentTable
		notification *notificationTable
	}

	userTable struct {
		sync.RWMutex
		table map[int]*user.User
	}

	assignmentTable struct {
		sync.RWMutex
		table       map[int]*assignment.Assignment
		submissions map[int]*assignment.Submission
	}

	notificationTable struct {
		sync.RWMutex
		table map[int]*notification.Notification
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[int]*user.User)},
		assignment: &assignmentTable{
			table:       make(map[int]*assignment.Assignment),
			submissions: make(map[int]*assignment.Submission),
		},
		notification: &notificationTable{table: make(map[int]*notification.Notification)},
	}
	return db, nil
}
