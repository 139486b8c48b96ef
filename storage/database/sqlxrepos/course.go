package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

// courseCols reads owner_id as 0 once the owner account is gone.
const courseCols = `id, title, description, COALESCE(owner_id, 0) AS owner_id, created_at, updated_at`

type courseRepository struct {
	base
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{base{db: db}}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	err := repo.ex(exec...).QueryRowxContext(ctx,
		`INSERT INTO courses (title, description, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		crs.Title, crs.Description, crs.OwnerID, crs.CreatedAt, crs.UpdatedAt,
	).Scan(&crs.ID)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id int, exec ...core.DBExecutor) (course.Course, error) {
	var crs course.Course
	err := repo.ex(exec...).GetContext(ctx, &crs, `SELECT `+courseCols+` FROM courses WHERE id = $1`, id)
	if err != nil {
		return course.Course{}, wrapNotFound(errors.Wrap(err, "getting course"), course.ErrNotFound)
	}
	return crs, nil
}

func (repo *courseRepository) QueryCoursesForUser(ctx context.Context, userID int, exec ...core.DBExecutor) ([]course.Course, error) {
	courses := make([]course.Course, 0)
	err := repo.ex(exec...).SelectContext(ctx, &courses,
		`SELECT c.id, c.title, c.description, COALESCE(c.owner_id, 0) AS owner_id, c.created_at, c.updated_at
		 FROM courses c
		 JOIN enrollments e ON e.course_id = c.id
		 WHERE e.user_id = $1
		 ORDER BY c.id`, userID)
	return courses, errors.Wrap(err, "querying courses")
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	res, err := repo.ex(exec...).ExecContext(ctx,
		`UPDATE courses SET title = $1, description = $2, updated_at = $3 WHERE id = $4`,
		crs.Title, crs.Description, crs.UpdatedAt, crs.ID)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo *courseRepository) DeleteCourseByID(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := repo.ex(exec...).ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	return errors.Wrap(err, "deleting course")
}

func (repo *courseRepository) QueryEnrolledUsers(ctx context.Context, courseID int, exec ...core.DBExecutor) ([]user.User, error) {
	users := make([]user.User, 0)
	err := repo.ex(exec...).SelectContext(ctx, &users,
		`SELECT u.* FROM users u
		 JOIN enrollments e ON e.user_id = u.id
		 WHERE e.course_id = $1
		 ORDER BY u.id`, courseID)
	return users, errors.Wrap(err, "querying enrolled users")
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment, exec ...core.DBExecutor) (course.Enrollment, error) {
	err := repo.ex(exec...).QueryRowxContext(ctx,
		`INSERT INTO enrollments (user_id, course_id) VALUES ($1, $2) RETURNING id`,
		enr.UserID, enr.CourseID,
	).Scan(&enr.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
		return course.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return enr, nil
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, userID, courseID int, exec ...core.DBExecutor) (course.Enrollment, error) {
	var enr course.Enrollment
	err := repo.ex(exec...).GetContext(ctx, &enr,
		`SELECT * FROM enrollments WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return course.Enrollment{}, wrapNotFound(errors.Wrap(err, "getting enrollment"), course.ErrEnrollmentNotFound)
	}
	return enr, nil
}

func (repo *courseRepository) DeleteEnrollmentByID(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := repo.ex(exec...).ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	return errors.Wrap(err, "deleting enrollment")
}

func (repo *courseRepository) IsEnrolled(ctx context.Context, userID, courseID int, exec ...core.DBExecutor) (bool, error) {
	var enrolled bool
	err := repo.ex(exec...).GetContext(ctx, &enrolled,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2)`, userID, courseID)
	return enrolled, errors.Wrap(err, "checking enrollment")
}

func (repo *courseRepository) CreateLecture(ctx context.Context, lect course.Lecture, exec ...core.DBExecutor) (course.Lecture, error) {
	err := repo.ex(exec...).QueryRowxContext(ctx,
		`INSERT INTO lectures (course_id, topic, file) VALUES ($1, $2, $3) RETURNING id`,
		lect.CourseID, lect.Topic, lect.File,
	).Scan(&lect.ID)
	if err != nil {
		return course.Lecture{}, errors.Wrap(err, "creating lecture")
	}
	return lect, nil
}

func (repo *courseRepository) GetLectureByID(ctx context.Context, id int, exec ...core.DBExecutor) (course.Lecture, error) {
	var lect course.Lecture
	err := repo.ex(exec...).GetContext(ctx, &lect, `SELECT * FROM lectures WHERE id = $1`, id)
	if err != nil {
		return course.Lecture{}, wrapNotFound(errors.Wrap(err, "getting lecture"), course.ErrLectureNotFound)
	}
	return lect, nil
}

func (repo *courseRepository) QueryCourseLectures(ctx context.Context, courseID int, exec ...core.DBExecutor) ([]course.Lecture, error) {
	lects := make([]course.Lecture, 0)
	err := repo.ex(exec...).SelectContext(ctx, &lects,
		`SELECT * FROM lectures WHERE course_id = $1 ORDER BY id`, courseID)
	return lects, errors.Wrap(err, "querying lectures")
}

func (repo *courseRepository) QueryLecturesForUser(ctx context.Context, userID int, exec ...core.DBExecutor) ([]course.Lecture, error) {
	lects := make([]course.Lecture, 0)
	err := repo.ex(exec...).SelectContext(ctx, &lects,
		`SELECT l.* FROM lectures l
		 JOIN enrollments e ON e.course_id = l.course_id
		 WHERE e.user_id = $1
		 ORDER BY l.id`, userID)
	return lects, errors.Wrap(err, "querying lectures")
}

func (repo *courseRepository) UpdateLecture(ctx context.Context, lect course.Lecture, exec ...core.DBExecutor) (course.Lecture, error) {
	res, err := repo.ex(exec...).ExecContext(ctx,
		`UPDATE lectures SET topic = $1, file = $2 WHERE id = $3`,
		lect.Topic, lect.File, lect.ID)
	if err != nil {
		return course.Lecture{}, errors.Wrap(err, "updating lecture")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Lecture{}, course.ErrLectureNotFound
	}
	return lect, nil
}

func (repo *courseRepository) DeleteLectureByID(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := repo.ex(exec...).ExecContext(ctx, `DELETE FROM lectures WHERE id = $1`, id)
	return errors.Wrap(err, "deleting lecture")
}
