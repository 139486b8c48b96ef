package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/coursework"
)

type courseworkRepository struct {
	db *DB
}

var _ coursework.Repository = (*courseworkRepository)(nil)

func NewCourseworkRepository(db *DB) coursework.Repository {
	return &courseworkRepository{db: db}
}

// courseOfLecture and friends denormalize the parent chain the way the SQL
// repositories do with joins; callers hold at least the read lock.

func (db *DB) courseOfLecture(lectureID int) int {
	if lect, ok := db.lectures[lectureID]; ok {
		return lect.CourseID
	}
	return 0
}

func (db *DB) courseOfAssignment(assignmentID int) int {
	if a, ok := db.assignments[assignmentID]; ok {
		return db.courseOfLecture(a.LectureID)
	}
	return 0
}

func (db *DB) courseOfSubmission(submissionID int) int {
	if s, ok := db.submissions[submissionID]; ok {
		return db.courseOfAssignment(s.AssignmentID)
	}
	return 0
}

func (repo *courseworkRepository) CreateAssignment(_ context.Context, a coursework.Assignment, _ ...core.DBExecutor) (coursework.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a.ID = repo.db.nextPK()
	a.CourseID = repo.db.courseOfLecture(a.LectureID)
	repo.db.assignments[a.ID] = &a
	return a, nil
}

func (repo *courseworkRepository) GetAssignmentByID(_ context.Context, id int, _ ...core.DBExecutor) (coursework.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		res := *a
		res.CourseID = repo.db.courseOfLecture(a.LectureID)
		return res, nil
	}
	return coursework.Assignment{}, coursework.ErrAssignmentNotFound
}

func (repo *courseworkRepository) QueryLectureAssignments(_ context.Context, lectureID int, _ ...core.DBExecutor) ([]coursework.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	assigns := make([]coursework.Assignment, 0)
	for _, a := range repo.db.assignments {
		if a.LectureID == lectureID {
			res := *a
			res.CourseID = repo.db.courseOfLecture(a.LectureID)
			assigns = append(assigns, res)
		}
	}
	sort.Slice(assigns, func(i, j int) bool { return assigns[i].ID < assigns[j].ID })
	return assigns, nil
}

func (repo *courseworkRepository) UpdateAssignment(_ context.Context, a coursework.Assignment, _ ...core.DBExecutor) (coursework.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.assignments[a.ID]
	if !ok {
		return coursework.Assignment{}, coursework.ErrAssignmentNotFound
	}
	orig.Title = a.Title
	orig.Description = a.Description
	res := *orig
	res.CourseID = repo.db.courseOfLecture(orig.LectureID)
	return res, nil
}

func (repo *courseworkRepository) DeleteAssignmentByID(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.deleteAssignment(id)
	return nil
}

func (repo *courseworkRepository) CreateSubmission(_ context.Context, s coursework.Submission, _ ...core.DBExecutor) (coursework.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s.ID = repo.db.nextPK()
	s.CourseID = repo.db.courseOfAssignment(s.AssignmentID)
	repo.db.submissions[s.ID] = &s
	return s, nil
}

func (repo *courseworkRepository) GetSubmissionByID(_ context.Context, id int, _ ...core.DBExecutor) (coursework.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.submissions[id]; ok {
		res := *s
		res.CourseID = repo.db.courseOfAssignment(s.AssignmentID)
		return res, nil
	}
	return coursework.Submission{}, coursework.ErrSubmissionNotFound
}

func (repo *courseworkRepository) QuerySubmissionsByUser(_ context.Context, userID int, _ ...core.DBExecutor) ([]coursework.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := make([]coursework.Submission, 0)
	for _, s := range repo.db.submissions {
		if s.UserID == userID {
			res := *s
			res.CourseID = repo.db.courseOfAssignment(s.AssignmentID)
			subs = append(subs, res)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

func (repo *courseworkRepository) QuerySubmissionsForTeacher(_ context.Context, userID int, _ ...core.DBExecutor) ([]coursework.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := make([]coursework.Submission, 0)
	for _, s := range repo.db.submissions {
		courseID := repo.db.courseOfAssignment(s.AssignmentID)
		if repo.db.isEnrolled(userID, courseID) {
			res := *s
			res.CourseID = courseID
			subs = append(subs, res)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

func (repo *courseworkRepository) CreateGrade(_ context.Context, g coursework.Grade, _ ...core.DBExecutor) (coursework.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.grades {
		if existing.SubmissionID == g.SubmissionID {
			return coursework.Grade{}, coursework.ErrGradeExists
		}
	}
	g.ID = repo.db.nextPK()
	repo.db.grades[g.ID] = &g
	return g, nil
}

func (repo *courseworkRepository) GetGradeByID(_ context.Context, id int, _ ...core.DBExecutor) (coursework.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if g, ok := repo.db.grades[id]; ok {
		res := *g
		res.CourseID = repo.db.courseOfSubmission(g.SubmissionID)
		if s, ok := repo.db.submissions[g.SubmissionID]; ok {
			res.SubmitterID = s.UserID
		}
		return res, nil
	}
	return coursework.Grade{}, coursework.ErrGradeNotFound
}

func (repo *courseworkRepository) UpdateGrade(_ context.Context, g coursework.Grade, _ ...core.DBExecutor) (coursework.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.grades[g.ID]
	if !ok {
		return coursework.Grade{}, coursework.ErrGradeNotFound
	}
	orig.Score = g.Score
	orig.TeacherID = g.TeacherID
	res := *orig
	res.CourseID = repo.db.courseOfSubmission(orig.SubmissionID)
	if s, ok := repo.db.submissions[orig.SubmissionID]; ok {
		res.SubmitterID = s.UserID
	}
	return res, nil
}

func (repo *courseworkRepository) DeleteGradeByID(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.grades, id)
	return nil
}

func (repo *courseworkRepository) CreateComment(_ context.Context, c coursework.Comment, _ ...core.DBExecutor) (coursework.Comment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = repo.db.nextPK()
	c.CourseID = repo.db.courseOfSubmission(c.SubmissionID)
	repo.db.comments[c.ID] = &c
	return c, nil
}

func (repo *courseworkRepository) GetCommentByID(_ context.Context, id int, _ ...core.DBExecutor) (coursework.Comment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.comments[id]; ok {
		res := *c
		res.CourseID = repo.db.courseOfSubmission(c.SubmissionID)
		return res, nil
	}
	return coursework.Comment{}, coursework.ErrCommentNotFound
}

func (repo *courseworkRepository) QuerySubmissionComments(_ context.Context, submissionID int, _ ...core.DBExecutor) ([]coursework.Comment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	comments := make([]coursework.Comment, 0)
	for _, c := range repo.db.comments {
		if c.SubmissionID == submissionID {
			res := *c
			res.CourseID = repo.db.courseOfSubmission(c.SubmissionID)
			comments = append(comments, res)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

func (repo *courseworkRepository) UpdateComment(_ context.Context, c coursework.Comment, _ ...core.DBExecutor) (coursework.Comment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.comments[c.ID]
	if !ok {
		return coursework.Comment{}, coursework.ErrCommentNotFound
	}
	orig.Content = c.Content
	res := *orig
	res.CourseID = repo.db.courseOfSubmission(orig.SubmissionID)
	return res, nil
}

func (repo *courseworkRepository) DeleteCommentByID(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.comments, id)
	return nil
}
