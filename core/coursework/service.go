package coursework

import (
	"context"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

var (
	ErrAssignmentNotFound = core.NewNotFoundError("Assignment not found")
	ErrSubmissionNotFound = core.NewNotFoundError("Submission not found")
	ErrGradeNotFound      = core.NewNotFoundError("Grade not found")
	ErrCommentNotFound    = core.NewNotFoundError("Comment not found")
	ErrGradeExists        = core.NewConflictError("Submission is already graded")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment, exec ...core.DBExecutor) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id int, exec ...core.DBExecutor) (Assignment, error)
		QueryLectureAssignments(ctx context.Context, lectureID int, exec ...core.DBExecutor) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment, exec ...core.DBExecutor) (Assignment, error)
		DeleteAssignmentByID(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreateSubmission(ctx context.Context, s Submission, exec ...core.DBExecutor) (Submission, error)
		GetSubmissionByID(ctx context.Context, id int, exec ...core.DBExecutor) (Submission, error)
		// QuerySubmissionsByUser returns a student's own submissions.
		QuerySubmissionsByUser(ctx context.Context, userID int, exec ...core.DBExecutor) ([]Submission, error)
		// QuerySubmissionsForTeacher returns all submissions in courses the
		// teacher is enrolled in.
		QuerySubmissionsForTeacher(ctx context.Context, userID int, exec ...core.DBExecutor) ([]Submission, error)

		CreateGrade(ctx context.Context, g Grade, exec ...core.DBExecutor) (Grade, error)
		GetGradeByID(ctx context.Context, id int, exec ...core.DBExecutor) (Grade, error)
		UpdateGrade(ctx context.Context, g Grade, exec ...core.DBExecutor) (Grade, error)
		DeleteGradeByID(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreateComment(ctx context.Context, c Comment, exec ...core.DBExecutor) (Comment, error)
		GetCommentByID(ctx context.Context, id int, exec ...core.DBExecutor) (Comment, error)
		QuerySubmissionComments(ctx context.Context, submissionID int, exec ...core.DBExecutor) ([]Comment, error)
		UpdateComment(ctx context.Context, c Comment, exec ...core.DBExecutor) (Comment, error)
		DeleteCommentByID(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service interface {
		CreateAssignment(ctx context.Context, na NewAssignment, authz core.Authorizer) (Assignment, error)
		GetAssignment(ctx context.Context, id int, authz core.Authorizer) (Assignment, error)
		QueryLectureAssignments(ctx context.Context, lectureID int, authz core.Authorizer) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, id int, ua UpdateAssignment, authz core.Authorizer) (Assignment, error)
		DeleteAssignment(ctx context.Context, id int, authz core.Authorizer) error

		CreateSubmission(ctx context.Context, usr user.User, ns NewSubmission, authz core.Authorizer) (Submission, error)
		GetSubmission(ctx context.Context, id int, authz core.Authorizer) (Submission, error)
		QuerySubmissions(ctx context.Context, usr user.User) ([]Submission, error)

		CreateGrade(ctx context.Context, grader user.User, ng NewGrade, authz core.Authorizer) (Grade, error)
		GetGrade(ctx context.Context, id int, authz core.Authorizer) (Grade, error)
		UpdateGrade(ctx context.Context, id int, grader user.User, ug UpdateGrade, authz core.Authorizer) (Grade, error)
		DeleteGrade(ctx context.Context, id int, authz core.Authorizer) error

		CreateComment(ctx context.Context, author user.User, nc NewComment, authz core.Authorizer) (Comment, error)
		QuerySubmissionComments(ctx context.Context, submissionID int, authz core.Authorizer) ([]Comment, error)
		UpdateComment(ctx context.Context, id int, uc UpdateComment, authz core.Authorizer) (Comment, error)
		DeleteComment(ctx context.Context, id int, authz core.Authorizer) error
	}

	service struct {
		db      core.DB
		repo    Repository
		crsRepo course.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, crsRepo course.Repository) Service {
	return &service{
		db:      db,
		repo:    repo,
		crsRepo: crsRepo,
	}
}

func (svc *service) CreateAssignment(ctx context.Context, na NewAssignment, authz core.Authorizer) (Assignment, error) {
	var a Assignment
	err := core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		lect, err := svc.crsRepo.GetLectureByID(ctx, na.LectureID, exec...)
		if err != nil {
			return err
		}
		if err = authz(lect, exec...); err != nil {
			return err
		}
		a, err = svc.repo.CreateAssignment(ctx, Assignment{
			LectureID:   lect.ID,
			Title:       na.Title,
			Description: na.Description,
			CourseID:    lect.CourseID,
		}, exec...)
		return err
	})
	if err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (svc *service) GetAssignment(ctx context.Context, id int, authz core.Authorizer) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if err = authz(a); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (svc *service) QueryLectureAssignments(ctx context.Context, lectureID int, authz core.Authorizer) ([]Assignment, error) {
	lect, err := svc.crsRepo.GetLectureByID(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	if err = authz(lect); err != nil {
		return nil, err
	}
	return svc.repo.QueryLectureAssignments(ctx, lect.ID)
}

func (svc *service) UpdateAssignment(ctx context.Context, id int, ua UpdateAssignment, authz core.Authorizer) (Assignment, error) {
	var a Assignment
	err := core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		var err error
		if a, err = svc.repo.GetAssignmentByID(ctx, id, exec...); err != nil {
			return err
		}
		if err = authz(a, exec...); err != nil {
			return err
		}
		if err = ua.Validate(a); err != nil {
			return err
		}
		a.Title = ua.Title
		a.Description = ua.Description
		a, err = svc.repo.UpdateAssignment(ctx, a, exec...)
		return err
	})
	if err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (svc *service) DeleteAssignment(ctx context.Context, id int, authz core.Authorizer) error {
	return core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		a, err := svc.repo.GetAssignmentByID(ctx, id, exec...)
		if err != nil {
			return err
		}
		if err = authz(a, exec...); err != nil {
			return err
		}
		return svc.repo.DeleteAssignmentByID(ctx, a.ID, exec...)
	})
}

func (svc *service) CreateSubmission(ctx context.Context, usr user.User, ns NewSubmission, authz core.Authorizer) (Submission, error) {
	var s Submission
	err := core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		a, err := svc.repo.GetAssignmentByID(ctx, ns.AssignmentID, exec...)
		if err != nil {
			return err
		}
		if err = authz(a, exec...); err != nil {
			return err
		}
		s, err = svc.repo.CreateSubmission(ctx, Submission{
			UserID:       usr.ID,
			AssignmentID: a.ID,
			File:         ns.File,
			CourseID:     a.CourseID,
		}, exec...)
		return err
	})
	if err != nil {
		return Submission{}, err
	}
	return s, nil
}

func (svc *service) GetSubmission(ctx context.Context, id int, authz core.Authorizer) (Submission, error) {
	s, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if err = authz(s); err != nil {
		return Submission{}, err
	}
	return s, nil
}

// QuerySubmissions lists the submissions visible to usr: students see their
// own, teachers see those in courses they are enrolled in.
func (svc *service) QuerySubmissions(ctx context.Context, usr user.User) ([]Submission, error) {
	if usr.IsStudent() {
		return svc.repo.QuerySubmissionsByUser(ctx, usr.ID)
	}
	return svc.repo.QuerySubmissionsForTeacher(ctx, usr.ID)
}

// CreateGrade runs the enrollment check after input validation so a
// malformed payload reads as a 400 and a foreign course as a 403.
func (svc *service) CreateGrade(ctx context.Context, grader user.User, ng NewGrade, authz core.Authorizer) (Grade, error) {
	var g Grade
	err := core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		s, err := svc.repo.GetSubmissionByID(ctx, ng.SubmissionID, exec...)
		if err != nil {
			return err
		}
		if err = authz(s, exec...); err != nil {
			return err
		}
		g, err = svc.repo.CreateGrade(ctx, Grade{
			SubmissionID: s.ID,
			TeacherID:    grader.ID,
			Score:        *ng.Score,
			CourseID:     s.CourseID,
			SubmitterID:  s.UserID,
		}, exec...)
		return err
	})
	if err != nil {
		return Grade{}, err
	}
	return g, nil
}

func (svc *service) GetGrade(ctx context.Context, id int, authz core.Authorizer) (Grade, error) {
	g, err := svc.repo.GetGradeByID(ctx, id)
	if err != nil {
		return Grade{}, err
	}
	if err = authz(g); err != nil {
		return Grade{}, err
	}
	return g, nil
}

func (svc *service) UpdateGrade(ctx context.Context, id int, grader user.User, ug UpdateGrade, authz core.Authorizer) (Grade, error) {
	var g Grade
	err := core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		var err error
		if g, err = svc.repo.GetGradeByID(ctx, id, exec...); err != nil {
			return err
		}
		if err = authz(g, exec...); err != nil {
			return err
		}
		g.Score = *ug.Score
		g.TeacherID = grader.ID
		g, err = svc.repo.UpdateGrade(ctx, g, exec...)
		return err
	})
	if err != nil {
		return Grade{}, err
	}
	return g, nil
}

func (svc *service) DeleteGrade(ctx context.Context, id int, authz core.Authorizer) error {
	return core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		g, err := svc.repo.GetGradeByID(ctx, id, exec...)
		if err != nil {
			return err
		}
		if err = authz(g, exec...); err != nil {
			return err
		}
		return svc.repo.DeleteGradeByID(ctx, g.ID, exec...)
	})
}

func (svc *service) CreateComment(ctx context.Context, author user.User, nc NewComment, authz core.Authorizer) (Comment, error) {
	var c Comment
	err := core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		s, err := svc.repo.GetSubmissionByID(ctx, nc.SubmissionID, exec...)
		if err != nil {
			return err
		}
		if err = authz(s, exec...); err != nil {
			return err
		}
		c, err = svc.repo.CreateComment(ctx, Comment{
			SubmissionID: s.ID,
			UserID:       author.ID,
			Content:      nc.Content,
			CourseID:     s.CourseID,
		}, exec...)
		return err
	})
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

func (svc *service) QuerySubmissionComments(ctx context.Context, submissionID int, authz core.Authorizer) ([]Comment, error) {
	s, err := svc.repo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err = authz(s); err != nil {
		return nil, err
	}
	return svc.repo.QuerySubmissionComments(ctx, s.ID)
}

func (svc *service) UpdateComment(ctx context.Context, id int, uc UpdateComment, authz core.Authorizer) (Comment, error) {
	var c Comment
	err := core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		var err error
		if c, err = svc.repo.GetCommentByID(ctx, id, exec...); err != nil {
			return err
		}
		if err = authz(c, exec...); err != nil {
			return err
		}
		c.Content = uc.Content
		c, err = svc.repo.UpdateComment(ctx, c, exec...)
		return err
	})
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

func (svc *service) DeleteComment(ctx context.Context, id int, authz core.Authorizer) error {
	return core.Atomic(ctx, svc.db, func(exec ...core.DBExecutor) error {
		c, err := svc.repo.GetCommentByID(ctx, id, exec...)
		if err != nil {
			return err
		}
		if err = authz(c, exec...); err != nil {
			return err
		}
		return svc.repo.DeleteCommentByID(ctx, c.ID, exec...)
	})
}
