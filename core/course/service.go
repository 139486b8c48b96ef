package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	ErrNotFound           = core.NewNotFoundError("Course not found")
	ErrLectureNotFound    = core.NewNotFoundError("Lecture not found")
	ErrEnrollmentNotFound = core.NewNotFoundError("User is not enrolled in this course")
	ErrAlreadyEnrolled    = core.NewConflictError("User is already enrolled in this course")
	errOwnerUnenroll      = errors.New("Course owner cannot be unenrolled")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		GetCourseByID(ctx context.Context, id int, exec ...core.DBExecutor) (Course, error)
		// QueryCoursesForUser returns the courses the user is enrolled in.
		QueryCoursesForUser(ctx context.Context, userID int, exec ...core.DBExecutor) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		// DeleteCourseByID cascades to lectures, assignments, submissions,
		// grades, comments and enrollments beneath the course.
		DeleteCourseByID(ctx context.Context, id int, exec ...core.DBExecutor) error
		QueryEnrolledUsers(ctx context.Context, courseID int, exec ...core.DBExecutor) ([]user.User, error)

		CreateEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		GetEnrollment(ctx context.Context, userID, courseID int, exec ...core.DBExecutor) (Enrollment, error)
		DeleteEnrollmentByID(ctx context.Context, id int, exec ...core.DBExecutor) error
		// IsEnrolled issues a fresh existence check; results are never cached.
		IsEnrolled(ctx context.Context, userID, courseID int, exec ...core.DBExecutor) (bool, error)

		CreateLecture(ctx context.Context, lect Lecture, exec ...core.DBExecutor) (Lecture, error)
		GetLectureByID(ctx context.Context, id int, exec ...core.DBExecutor) (Lecture, error)
		QueryCourseLectures(ctx context.Context, courseID int, exec ...core.DBExecutor) ([]Lecture, error)
		// QueryLecturesForUser returns lectures of all courses the user is enrolled in.
		QueryLecturesForUser(ctx context.Context, userID int, exec ...core.DBExecutor) ([]Lecture, error)
		UpdateLecture(ctx context.Context, lect Lecture, exec ...core.DBExecutor) (Lecture, error)
		DeleteLectureByID(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, owner user.User, nc NewCourse) (Course, error)
		Get(ctx context.Context, id int, authz core.Authorizer) (Detail, error)
		QueryForUser(ctx context.Context, usr user.User) ([]Course, error)
		Update(ctx context.Context, id int, uc UpdateCourse, authz core.Authorizer) (Course, error)
		Delete(ctx context.Context, id int, authz core.Authorizer) error

		Enroll(ctx context.Context, ne NewEnrollment, authz core.Authorizer) (Enrollment, error)
		Unenroll(ctx context.Context, ne NewEnrollment, authz core.Authorizer) error

		CreateLecture(ctx context.Context, nl NewLecture, authz core.Authorizer) (Lecture, error)
		GetLecture(ctx context.Context, id int, authz core.Authorizer) (Lecture, error)
		QueryLecturesForUser(ctx context.Context, usr user.User) ([]Lecture, error)
		QueryCourseLectures(ctx context.Context, courseID int, usr user.User) ([]Lecture, error)
		UpdateLecture(ctx context.Context, id int, ul UpdateLecture, authz core.Authorizer) (Lecture, error)
		DeleteLecture(ctx context.Context, id int, authz core.Authorizer) error
	}

	service struct {
		db      core.DB
		repo    Repository
		usrRepo user.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, usrRepo user.Repository) Service {
	return &service{
		db:      db,
		repo:    repo,
		usrRepo: usrRepo,
	}
}

// Create persists the course and auto-enrolls its owner in one transaction.
func (svc *service) Create(ctx context.Context, owner user.User, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Title:       nc.Title,
		Description: nc.Description,
		OwnerID:     owner.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		var err error
		if crs, err = svc.repo.CreateCourse(ctx, crs, exec...); err != nil {
			return err
		}
		_, err = svc.repo.CreateEnrollment(ctx, Enrollment{UserID: owner.ID, CourseID: crs.ID}, exec...)
		return err
	})
	if err != nil {
		return Course{}, err
	}
	return crs, nil
}

func (svc *service) Get(ctx context.Context, id int, authz core.Authorizer) (Detail, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if err = authz(crs); err != nil {
		return Detail{}, err
	}

	lects, err := svc.repo.QueryCourseLectures(ctx, crs.ID)
	if err != nil {
		return Detail{}, err
	}
	enrolled, err := svc.repo.QueryEnrolledUsers(ctx, crs.ID)
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{Course: crs, Lectures: lects, Teachers: []user.User{}, Students: []user.User{}}
	for _, usr := range enrolled {
		if usr.IsTeacher() {
			detail.Teachers = append(detail.Teachers, usr)
		} else {
			detail.Students = append(detail.Students, usr)
		}
	}
	return detail, nil
}

func (svc *service) QueryForUser(ctx context.Context, usr user.User) ([]Course, error) {
	return svc.repo.QueryCoursesForUser(ctx, usr.ID)
}

func (svc *service) Update(ctx context.Context, id int, uc UpdateCourse, authz core.Authorizer) (Course, error) {
	var crs Course
	err := core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		var err error
		if crs, err = svc.repo.GetCourseByID(ctx, id, exec...); err != nil {
			return err
		}
		if err = authz(crs, exec...); err != nil {
			return err
		}
		if err = uc.Validate(crs); err != nil {
			return err
		}
		crs.Title = uc.Title
		crs.Description = uc.Description
		crs.UpdatedAt = time.Now().UTC()
		crs, err = svc.repo.UpdateCourse(ctx, crs, exec...)
		return err
	})
	if err != nil {
		return Course{}, err
	}
	return crs, nil
}

func (svc *service) Delete(ctx context.Context, id int, authz core.Authorizer) error {
	return core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		crs, err := svc.repo.GetCourseByID(ctx, id, exec...)
		if err != nil {
			return err
		}
		if err = authz(crs, exec...); err != nil {
			return err
		}
		return svc.repo.DeleteCourseByID(ctx, crs.ID, exec...)
	})
}

func (svc *service) Enroll(ctx context.Context, ne NewEnrollment, authz core.Authorizer) (Enrollment, error) {
	var enr Enrollment
	err := core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		crs, err := svc.repo.GetCourseByID(ctx, ne.CourseID, exec...)
		if err != nil {
			return err
		}
		if _, err = svc.usrRepo.GetUserByID(ctx, ne.UserID, exec...); err != nil {
			return err
		}
		if err = authz(crs, exec...); err != nil {
			return err
		}
		enr, err = svc.repo.CreateEnrollment(ctx, Enrollment{UserID: ne.UserID, CourseID: crs.ID}, exec...)
		return err
	})
	if err != nil {
		return Enrollment{}, err
	}
	return enr, nil
}

func (svc *service) Unenroll(ctx context.Context, ne NewEnrollment, authz core.Authorizer) error {
	return core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		crs, err := svc.repo.GetCourseByID(ctx, ne.CourseID, exec...)
		if err != nil {
			return err
		}
		if err = authz(crs, exec...); err != nil {
			return err
		}
		enr, err := svc.repo.GetEnrollment(ctx, ne.UserID, crs.ID, exec...)
		if err != nil {
			return err
		}
		// the owner's enrollment is the course's administrative link; dropping
		// it would orphan the course
		if enr.UserID == crs.OwnerID {
			return core.NewValidationError(errOwnerUnenroll)
		}
		return svc.repo.DeleteEnrollmentByID(ctx, enr.ID, exec...)
	})
}

func (svc *service) CreateLecture(ctx context.Context, nl NewLecture, authz core.Authorizer) (Lecture, error) {
	var lect Lecture
	err := core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		crs, err := svc.repo.GetCourseByID(ctx, nl.CourseID, exec...)
		if err != nil {
			return err
		}
		if err = authz(crs, exec...); err != nil {
			return err
		}
		lect, err = svc.repo.CreateLecture(ctx, Lecture{CourseID: crs.ID, Topic: nl.Topic, File: nl.File}, exec...)
		return err
	})
	if err != nil {
		return Lecture{}, err
	}
	return lect, nil
}

func (svc *service) GetLecture(ctx context.Context, id int, authz core.Authorizer) (Lecture, error) {
	lect, err := svc.repo.GetLectureByID(ctx, id)
	if err != nil {
		return Lecture{}, err
	}
	if err = authz(lect); err != nil {
		return Lecture{}, err
	}
	return lect, nil
}

func (svc *service) QueryLecturesForUser(ctx context.Context, usr user.User) ([]Lecture, error) {
	return svc.repo.QueryLecturesForUser(ctx, usr.ID)
}

// QueryCourseLectures lists a course's lectures for an enrolled user; the
// course owner is let through even without an enrollment row.
func (svc *service) QueryCourseLectures(ctx context.Context, courseID int, usr user.User) ([]Lecture, error) {
	crs, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if crs.OwnerID != usr.ID {
		enrolled, err := svc.repo.IsEnrolled(ctx, usr.ID, crs.ID)
		if err != nil {
			return nil, err
		}
		if !enrolled {
			return nil, core.NewPermissionError("You are not enrolled in this course")
		}
	}
	return svc.repo.QueryCourseLectures(ctx, crs.ID)
}

func (svc *service) UpdateLecture(ctx context.Context, id int, ul UpdateLecture, authz core.Authorizer) (Lecture, error) {
	var lect Lecture
	err := core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		var err error
		if lect, err = svc.repo.GetLectureByID(ctx, id, exec...); err != nil {
			return err
		}
		if err = authz(lect, exec...); err != nil {
			return err
		}
		if err = ul.Validate(lect); err != nil {
			return err
		}
		lect.Topic = ul.Topic
		lect.File = ul.File
		lect, err = svc.repo.UpdateLecture(ctx, lect, exec...)
		return err
	})
	if err != nil {
		return Lecture{}, err
	}
	return lect, nil
}

func (svc *service) DeleteLecture(ctx context.Context, id int, authz core.Authorizer) error {
	return core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		lect, err := svc.repo.GetLectureByID(ctx, id, exec...)
		if err != nil {
			return err
		}
		if err = authz(lect, exec...); err != nil {
			return err
		}
		return svc.repo.DeleteLectureByID(ctx, lect.ID, exec...)
	})
}
