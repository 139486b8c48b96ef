package course

import (
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type (
	Course struct {
		ID          int       `json:"id" db:"id"`
		Title       string    `json:"title" db:"title"`
		Description string    `json:"description" db:"description"`
		OwnerID     int       `json:"owner_id" db:"owner_id"` // 0 once the owner account is deleted
		CreatedAt   time.Time `json:"created_at" db:"created_at"`
		UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	}

	// Enrollment is the sole source of truth for course access:
	// it grants a user access to a course and everything beneath it.
	Enrollment struct {
		ID       int `json:"id" db:"id"`
		UserID   int `json:"user_id" db:"user_id"`
		CourseID int `json:"course_id" db:"course_id"`
	}

	Lecture struct {
		ID       int    `json:"id" db:"id"`
		CourseID int    `json:"course" db:"course_id"`
		Topic    string `json:"topic" db:"topic"`
		File     string `json:"file" db:"file"`
	}

	// Detail is the full course payload: lectures plus the enrolled
	// users partitioned by role.
	Detail struct {
		Course
		Lectures []Lecture   `json:"lectures"`
		Teachers []user.User `json:"teachers"`
		Students []user.User `json:"students"`
	}
)

type NewCourse struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

func (nc *NewCourse) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	return core.Validate.Struct(nc)
}

// UpdateCourse defines a partial update; empty fields keep their value.
type UpdateCourse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (uc *UpdateCourse) Validate(orig Course) error {
	if title := core.CleanString(uc.Title); title != "" {
		uc.Title = title
	} else {
		uc.Title = orig.Title
	}
	if desc := core.CleanString(uc.Description); desc != "" {
		uc.Description = desc
	} else {
		uc.Description = orig.Description
	}
	return core.Validate.Struct(uc)
}

type NewLecture struct {
	CourseID int    `json:"course" validate:"required"`
	Topic    string `json:"topic" validate:"required"`
	File     string `json:"file" validate:"required"`
}

func (nl *NewLecture) Validate() error {
	nl.Topic = core.CleanString(nl.Topic)
	return core.Validate.Struct(nl)
}

type UpdateLecture struct {
	Topic string `json:"topic"`
	File  string `json:"file"`
}

func (ul *UpdateLecture) Validate(orig Lecture) error {
	if topic := core.CleanString(ul.Topic); topic != "" {
		ul.Topic = topic
	} else {
		ul.Topic = orig.Topic
	}
	if ul.File == "" {
		ul.File = orig.File
	}
	return core.Validate.Struct(ul)
}

type NewEnrollment struct {
	CourseID int `json:"course_id" validate:"required"`
	UserID   int `json:"user_id" validate:"required"`
}

func (ne NewEnrollment) Validate() error { return core.Validate.Struct(ne) }
