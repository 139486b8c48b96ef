// Package inmemdb provides map-backed repositories for tests and local runs
// without PostgreSQL. Services using it run with a nil DB handle, so the
// executor override is accepted and ignored.
package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/coursework"
	"github.com/trezcool/darasa/core/user"
)

type (
	DB struct {
		mutex   sync.RWMutex
		pkCount int

		users       map[int]*user.User
		courses     map[int]*course.Course
		enrollments map[int]*course.Enrollment
		lectures    map[int]*course.Lecture
		assignments map[int]*coursework.Assignment
		submissions map[int]*coursework.Submission
		grades      map[int]*coursework.Grade
		comments    map[int]*coursework.Comment
	}
)

func Open() (*DB, error) {
	db := &DB{
		users:       make(map[int]*user.User),
		courses:     make(map[int]*course.Course),
		enrollments: make(map[int]*course.Enrollment),
		lectures:    make(map[int]*course.Lecture),
		assignments: make(map[int]*coursework.Assignment),
		submissions: make(map[int]*coursework.Submission),
		grades:      make(map[int]*coursework.Grade),
		comments:    make(map[int]*coursework.Comment),
	}
	return db, nil
}

// nextPK must be called with the write lock held.
func (db *DB) nextPK() int {
	db.pkCount++
	return db.pkCount
}
