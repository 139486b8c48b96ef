package coursework

import (
	"github.com/trezcool/darasa/core"
)

type (
	Assignment struct {
		ID          int    `json:"id" db:"id"`
		LectureID   int    `json:"lecture" db:"lecture_id"`
		Title       string `json:"title" db:"title"`
		Description string `json:"description" db:"description"`

		// CourseID is denormalized from the parent chain by the repository;
		// permission checks resolve against it.
		CourseID int `json:"-" db:"course_id"`
	}

	Submission struct {
		ID           int    `json:"id" db:"id"`
		UserID       int    `json:"user" db:"user_id"`
		AssignmentID int    `json:"assignment" db:"assignment_id"`
		File         string `json:"file" db:"file"`

		CourseID int `json:"-" db:"course_id"`
	}

	// Grade is 1:1 with a Submission. SubmitterID is the submission author's
	// ID: the grade "belongs" to the graded student, not the grading teacher.
	Grade struct {
		ID           int `json:"id" db:"id"`
		SubmissionID int `json:"submission" db:"submission_id"`
		TeacherID    int `json:"teacher" db:"teacher_id"`
		Score        int `json:"score" db:"score"`

		CourseID    int `json:"-" db:"course_id"`
		SubmitterID int `json:"-" db:"submitter_id"`
	}

	Comment struct {
		ID           int    `json:"id" db:"id"`
		SubmissionID int    `json:"submission" db:"submission_id"`
		UserID       int    `json:"user" db:"user_id"`
		Content      string `json:"content" db:"content"`

		CourseID int `json:"-" db:"course_id"`
	}
)

type NewAssignment struct {
	LectureID   int    `json:"lecture" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return core.Validate.Struct(na)
}

type UpdateAssignment struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (ua *UpdateAssignment) Validate(orig Assignment) error {
	if title := core.CleanString(ua.Title); title != "" {
		ua.Title = title
	} else {
		ua.Title = orig.Title
	}
	if desc := core.CleanString(ua.Description); desc != "" {
		ua.Description = desc
	} else {
		ua.Description = orig.Description
	}
	return core.Validate.Struct(ua)
}

type NewSubmission struct {
	AssignmentID int    `json:"assignment" validate:"required"`
	File         string `json:"file" validate:"required"`
}

func (ns NewSubmission) Validate() error { return core.Validate.Struct(ns) }

// NewGrade's score is a pointer so that a legitimate 0 is distinguishable
// from a missing field.
type NewGrade struct {
	SubmissionID int  `json:"submission" validate:"required"`
	Score        *int `json:"score" validate:"required,gte=0,lte=100"`
}

func (ng NewGrade) Validate() error { return core.Validate.Struct(ng) }

type UpdateGrade struct {
	Score *int `json:"score" validate:"required,gte=0,lte=100"`
}

func (ug UpdateGrade) Validate() error { return core.Validate.Struct(ug) }

type NewComment struct {
	SubmissionID int    `json:"submission" validate:"required"`
	Content      string `json:"content" validate:"required"`
}

func (nc *NewComment) Validate() error {
	nc.Content = core.CleanString(nc.Content)
	return core.Validate.Struct(nc)
}

type UpdateComment struct {
	Content string `json:"content" validate:"required"`
}

func (uc *UpdateComment) Validate() error {
	uc.Content = core.CleanString(uc.Content)
	return core.Validate.Struct(uc)
}
