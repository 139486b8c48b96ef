package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/coursework"
)

// Child entities carry their course denormalized off the parent chain so
// permission checks need no further lookups.
const (
	assignmentCols = `a.id, a.lecture_id, a.title, a.description, l.course_id`
	assignmentFrom = ` FROM assignments a JOIN lectures l ON l.id = a.lecture_id`

	submissionCols = `s.id, s.user_id, s.assignment_id, s.file, l.course_id`
	submissionFrom = ` FROM submissions s
		 JOIN assignments a ON a.id = s.assignment_id
		 JOIN lectures l ON l.id = a.lecture_id`

	gradeCols = `g.id, g.submission_id, COALESCE(g.teacher_id, 0) AS teacher_id, g.score,
		 l.course_id, s.user_id AS submitter_id`
	gradeFrom = ` FROM grades g
		 JOIN submissions s ON s.id = g.submission_id
		 JOIN assignments a ON a.id = s.assignment_id
		 JOIN lectures l ON l.id = a.lecture_id`

	commentCols = `c.id, c.submission_id, c.user_id, c.content, l.course_id`
	commentFrom = ` FROM comments c
		 JOIN submissions s ON s.id = c.submission_id
		 JOIN assignments a ON a.id = s.assignment_id
		 JOIN lectures l ON l.id = a.lecture_id`
)

type courseworkRepository struct {
	base
}

var _ coursework.Repository = (*courseworkRepository)(nil)

func NewCourseworkRepository(db *sqlx.DB) coursework.Repository {
	return &courseworkRepository{base{db: db}}
}

func (repo *courseworkRepository) CreateAssignment(ctx context.Context, a coursework.Assignment, exec ...core.DBExecutor) (coursework.Assignment, error) {
	err := repo.ex(exec...).QueryRowxContext(ctx,
		`INSERT INTO assignments (lecture_id, title, description) VALUES ($1, $2, $3) RETURNING id`,
		a.LectureID, a.Title, a.Description,
	).Scan(&a.ID)
	if err != nil {
		return coursework.Assignment{}, errors.Wrap(err, "creating assignment")
	}
	return a, nil
}

func (repo *courseworkRepository) GetAssignmentByID(ctx context.Context, id int, exec ...core.DBExecutor) (coursework.Assignment, error) {
	var a coursework.Assignment
	err := repo.ex(exec...).GetContext(ctx, &a, `SELECT `+assignmentCols+assignmentFrom+` WHERE a.id = $1`, id)
	if err != nil {
		return coursework.Assignment{}, wrapNotFound(errors.Wrap(err, "getting assignment"), coursework.ErrAssignmentNotFound)
	}
	return a, nil
}

func (repo *courseworkRepository) QueryLectureAssignments(ctx context.Context, lectureID int, exec ...core.DBExecutor) ([]coursework.Assignment, error) {
	assigns := make([]coursework.Assignment, 0)
	err := repo.ex(exec...).SelectContext(ctx, &assigns,
		`SELECT `+assignmentCols+assignmentFrom+` WHERE a.lecture_id = $1 ORDER BY a.id`, lectureID)
	return assigns, errors.Wrap(err, "querying assignments")
}

func (repo *courseworkRepository) UpdateAssignment(ctx context.Context, a coursework.Assignment, exec ...core.DBExecutor) (coursework.Assignment, error) {
	res, err := repo.ex(exec...).ExecContext(ctx,
		`UPDATE assignments SET title = $1, description = $2 WHERE id = $3`,
		a.Title, a.Description, a.ID)
	if err != nil {
		return coursework.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return coursework.Assignment{}, coursework.ErrAssignmentNotFound
	}
	return a, nil
}

func (repo *courseworkRepository) DeleteAssignmentByID(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := repo.ex(exec...).ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	return errors.Wrap(err, "deleting assignment")
}

func (repo *courseworkRepository) CreateSubmission(ctx context.Context, s coursework.Submission, exec ...core.DBExecutor) (coursework.Submission, error) {
	err := repo.ex(exec...).QueryRowxContext(ctx,
		`INSERT INTO submissions (user_id, assignment_id, file) VALUES ($1, $2, $3) RETURNING id`,
		s.UserID, s.AssignmentID, s.File,
	).Scan(&s.ID)
	if err != nil {
		return coursework.Submission{}, errors.Wrap(err, "creating submission")
	}
	return s, nil
}

func (repo *courseworkRepository) GetSubmissionByID(ctx context.Context, id int, exec ...core.DBExecutor) (coursework.Submission, error) {
	var s coursework.Submission
	err := repo.ex(exec...).GetContext(ctx, &s, `SELECT `+submissionCols+submissionFrom+` WHERE s.id = $1`, id)
	if err != nil {
		return coursework.Submission{}, wrapNotFound(errors.Wrap(err, "getting submission"), coursework.ErrSubmissionNotFound)
	}
	return s, nil
}

func (repo *courseworkRepository) QuerySubmissionsByUser(ctx context.Context, userID int, exec ...core.DBExecutor) ([]coursework.Submission, error) {
	subs := make([]coursework.Submission, 0)
	err := repo.ex(exec...).SelectContext(ctx, &subs,
		`SELECT `+submissionCols+submissionFrom+` WHERE s.user_id = $1 ORDER BY s.id`, userID)
	return subs, errors.Wrap(err, "querying submissions")
}

func (repo *courseworkRepository) QuerySubmissionsForTeacher(ctx context.Context, userID int, exec ...core.DBExecutor) ([]coursework.Submission, error) {
	subs := make([]coursework.Submission, 0)
	err := repo.ex(exec...).SelectContext(ctx, &subs,
		`SELECT `+submissionCols+submissionFrom+`
		 JOIN enrollments e ON e.course_id = l.course_id
		 WHERE e.user_id = $1
		 ORDER BY s.id`, userID)
	return subs, errors.Wrap(err, "querying submissions")
}

func (repo *courseworkRepository) CreateGrade(ctx context.Context, g coursework.Grade, exec ...core.DBExecutor) (coursework.Grade, error) {
	err := repo.ex(exec...).QueryRowxContext(ctx,
		`INSERT INTO grades (submission_id, teacher_id, score) VALUES ($1, $2, $3) RETURNING id`,
		g.SubmissionID, g.TeacherID, g.Score,
	).Scan(&g.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return coursework.Grade{}, coursework.ErrGradeExists
		}
		return coursework.Grade{}, errors.Wrap(err, "creating grade")
	}
	return g, nil
}

func (repo *courseworkRepository) GetGradeByID(ctx context.Context, id int, exec ...core.DBExecutor) (coursework.Grade, error) {
	var g coursework.Grade
	err := repo.ex(exec...).GetContext(ctx, &g, `SELECT `+gradeCols+gradeFrom+` WHERE g.id = $1`, id)
	if err != nil {
		return coursework.Grade{}, wrapNotFound(errors.Wrap(err, "getting grade"), coursework.ErrGradeNotFound)
	}
	return g, nil
}

func (repo *courseworkRepository) UpdateGrade(ctx context.Context, g coursework.Grade, exec ...core.DBExecutor) (coursework.Grade, error) {
	res, err := repo.ex(exec...).ExecContext(ctx,
		`UPDATE grades SET score = $1, teacher_id = $2 WHERE id = $3`,
		g.Score, g.TeacherID, g.ID)
	if err != nil {
		return coursework.Grade{}, errors.Wrap(err, "updating grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return coursework.Grade{}, coursework.ErrGradeNotFound
	}
	return g, nil
}

func (repo *courseworkRepository) DeleteGradeByID(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := repo.ex(exec...).ExecContext(ctx, `DELETE FROM grades WHERE id = $1`, id)
	return errors.Wrap(err, "deleting grade")
}

func (repo *courseworkRepository) CreateComment(ctx context.Context, c coursework.Comment, exec ...core.DBExecutor) (coursework.Comment, error) {
	err := repo.ex(exec...).QueryRowxContext(ctx,
		`INSERT INTO comments (submission_id, user_id, content) VALUES ($1, $2, $3) RETURNING id`,
		c.SubmissionID, c.UserID, c.Content,
	).Scan(&c.ID)
	if err != nil {
		return coursework.Comment{}, errors.Wrap(err, "creating comment")
	}
	return c, nil
}

func (repo *courseworkRepository) GetCommentByID(ctx context.Context, id int, exec ...core.DBExecutor) (coursework.Comment, error) {
	var c coursework.Comment
	err := repo.ex(exec...).GetContext(ctx, &c, `SELECT `+commentCols+commentFrom+` WHERE c.id = $1`, id)
	if err != nil {
		return coursework.Comment{}, wrapNotFound(errors.Wrap(err, "getting comment"), coursework.ErrCommentNotFound)
	}
	return c, nil
}

func (repo *courseworkRepository) QuerySubmissionComments(ctx context.Context, submissionID int, exec ...core.DBExecutor) ([]coursework.Comment, error) {
	comments := make([]coursework.Comment, 0)
	err := repo.ex(exec...).SelectContext(ctx, &comments,
		`SELECT `+commentCols+commentFrom+` WHERE c.submission_id = $1 ORDER BY c.id`, submissionID)
	return comments, errors.Wrap(err, "querying comments")
}

func (repo *courseworkRepository) UpdateComment(ctx context.Context, c coursework.Comment, exec ...core.DBExecutor) (coursework.Comment, error) {
	res, err := repo.ex(exec...).ExecContext(ctx,
		`UPDATE comments SET content = $1 WHERE id = $2`, c.Content, c.ID)
	if err != nil {
		return coursework.Comment{}, errors.Wrap(err, "updating comment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return coursework.Comment{}, coursework.ErrCommentNotFound
	}
	return c, nil
}

func (repo *courseworkRepository) DeleteCommentByID(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := repo.ex(exec...).ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	return errors.Wrap(err, "deleting comment")
}
