package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

// cascade helpers; callers hold the write lock.

func (db *DB) deleteSubmission(id int) {
	for gID, g := range db.grades {
		if g.SubmissionID == id {
			delete(db.grades, gID)
		}
	}
	for cID, c := range db.comments {
		if c.SubmissionID == id {
			delete(db.comments, cID)
		}
	}
	delete(db.submissions, id)
}

func (db *DB) deleteAssignment(id int) {
	for sID, s := range db.submissions {
		if s.AssignmentID == id {
			db.deleteSubmission(sID)
		}
	}
	delete(db.assignments, id)
}

func (db *DB) deleteLecture(id int) {
	for aID, a := range db.assignments {
		if a.LectureID == id {
			db.deleteAssignment(aID)
		}
	}
	delete(db.lectures, id)
}

func (db *DB) isEnrolled(userID, courseID int) bool {
	for _, enr := range db.enrollments {
		if enr.UserID == userID && enr.CourseID == courseID {
			return true
		}
	}
	return false
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	crs.ID = repo.db.nextPK()
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id int, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCoursesForUser(_ context.Context, userID int, _ ...core.DBExecutor) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0)
	for _, enr := range repo.db.enrollments {
		if enr.UserID == userID {
			if crs, ok := repo.db.courses[enr.CourseID]; ok {
				courses = append(courses, *crs)
			}
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.courses[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	orig.Title = crs.Title
	orig.Description = crs.Description
	orig.UpdatedAt = crs.UpdatedAt
	return *orig, nil
}

func (repo *courseRepository) DeleteCourseByID(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for lectID, lect := range repo.db.lectures {
		if lect.CourseID == id {
			repo.db.deleteLecture(lectID)
		}
	}
	for enrID, enr := range repo.db.enrollments {
		if enr.CourseID == id {
			delete(repo.db.enrollments, enrID)
		}
	}
	delete(repo.db.courses, id)
	return nil
}

func (repo *courseRepository) QueryEnrolledUsers(_ context.Context, courseID int, _ ...core.DBExecutor) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, 0)
	for _, enr := range repo.db.enrollments {
		if enr.CourseID == courseID {
			if usr, ok := repo.db.users[enr.UserID]; ok {
				users = append(users, *usr)
			}
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (repo *courseRepository) CreateEnrollment(_ context.Context, enr course.Enrollment, _ ...core.DBExecutor) (course.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.db.isEnrolled(enr.UserID, enr.CourseID) {
		return course.Enrollment{}, course.ErrAlreadyEnrolled
	}
	enr.ID = repo.db.nextPK()
	repo.db.enrollments[enr.ID] = &enr
	return enr, nil
}

func (repo *courseRepository) GetEnrollment(_ context.Context, userID, courseID int, _ ...core.DBExecutor) (course.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, enr := range repo.db.enrollments {
		if enr.UserID == userID && enr.CourseID == courseID {
			return *enr, nil
		}
	}
	return course.Enrollment{}, course.ErrEnrollmentNotFound
}

func (repo *courseRepository) DeleteEnrollmentByID(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.enrollments, id)
	return nil
}

func (repo *courseRepository) IsEnrolled(_ context.Context, userID, courseID int, _ ...core.DBExecutor) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.isEnrolled(userID, courseID), nil
}

func (repo *courseRepository) CreateLecture(_ context.Context, lect course.Lecture, _ ...core.DBExecutor) (course.Lecture, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	lect.ID = repo.db.nextPK()
	repo.db.lectures[lect.ID] = &lect
	return lect, nil
}

func (repo *courseRepository) GetLectureByID(_ context.Context, id int, _ ...core.DBExecutor) (course.Lecture, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if lect, ok := repo.db.lectures[id]; ok {
		return *lect, nil
	}
	return course.Lecture{}, course.ErrLectureNotFound
}

func (repo *courseRepository) QueryCourseLectures(_ context.Context, courseID int, _ ...core.DBExecutor) ([]course.Lecture, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	lects := make([]course.Lecture, 0)
	for _, lect := range repo.db.lectures {
		if lect.CourseID == courseID {
			lects = append(lects, *lect)
		}
	}
	sort.Slice(lects, func(i, j int) bool { return lects[i].ID < lects[j].ID })
	return lects, nil
}

func (repo *courseRepository) QueryLecturesForUser(_ context.Context, userID int, _ ...core.DBExecutor) ([]course.Lecture, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	lects := make([]course.Lecture, 0)
	for _, lect := range repo.db.lectures {
		if repo.db.isEnrolled(userID, lect.CourseID) {
			lects = append(lects, *lect)
		}
	}
	sort.Slice(lects, func(i, j int) bool { return lects[i].ID < lects[j].ID })
	return lects, nil
}

func (repo *courseRepository) UpdateLecture(_ context.Context, lect course.Lecture, _ ...core.DBExecutor) (course.Lecture, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.lectures[lect.ID]
	if !ok {
		return course.Lecture{}, course.ErrLectureNotFound
	}
	orig.Topic = lect.Topic
	orig.File = lect.File
	return *orig, nil
}

func (repo *courseRepository) DeleteLectureByID(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.deleteLecture(id)
	return nil
}
