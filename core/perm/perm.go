// Package perm composes object-level access policies from small predicates.
// A policy is evaluated against a concrete domain entity; the entity's
// course is resolved structurally so every predicate works on any entity.
package perm

import (
	"context"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/coursework"
	"github.com/trezcool/darasa/core/user"
)

var (
	errNotAllowed  = core.NewPermissionError("You do not have permission to perform this action")
	errNotEnrolled = core.NewPermissionError("You are not enrolled in this course")
)

// CourseID resolves the course an entity belongs to. The second return is
// false for entity types that have no course, never for a missing row.
func CourseID(obj interface{}) (int, bool) {
	switch o := obj.(type) {
	case course.Course:
		return o.ID, true
	case course.Lecture:
		return o.CourseID, true
	case coursework.Assignment:
		return o.CourseID, true
	case coursework.Submission:
		return o.CourseID, true
	case coursework.Grade:
		return o.CourseID, true
	case coursework.Comment:
		return o.CourseID, true
	}
	return 0, false
}

// IsOwner reports whether usr owns obj. A course is owned by its creator, a
// submission or comment by its author, and a grade by the graded student.
func IsOwner(usr user.User, obj interface{}) bool {
	switch o := obj.(type) {
	case course.Course:
		return o.OwnerID == usr.ID
	case coursework.Submission:
		return o.UserID == usr.ID
	case coursework.Grade:
		return o.SubmitterID == usr.ID
	case coursework.Comment:
		return o.UserID == usr.ID
	}
	return false
}

type (
	// EnrollmentChecker is the slice of the course repository the enrollment
	// predicate needs.
	EnrollmentChecker interface {
		IsEnrolled(ctx context.Context, userID, courseID int, exec ...core.DBExecutor) (bool, error)
	}

	// Predicate answers whether usr may act on obj. It returns an error only
	// when the answer could not be computed.
	Predicate func(ctx context.Context, usr user.User, obj interface{}, exec ...core.DBExecutor) (bool, error)

	// Checker builds authorizers over a fixed enrollment source.
	Checker struct {
		enr EnrollmentChecker
	}
)

func NewChecker(enr EnrollmentChecker) *Checker {
	return &Checker{enr: enr}
}

// Owner passes when usr owns the object.
func (c *Checker) Owner() Predicate {
	return func(_ context.Context, usr user.User, obj interface{}, _ ...core.DBExecutor) (bool, error) {
		return IsOwner(usr, obj), nil
	}
}

// Teacher passes for any user with the teacher role, regardless of object.
func (c *Checker) Teacher() Predicate {
	return func(_ context.Context, usr user.User, _ interface{}, _ ...core.DBExecutor) (bool, error) {
		return usr.IsTeacher(), nil
	}
}

// Student passes for any user with the student role, regardless of object.
func (c *Checker) Student() Predicate {
	return func(_ context.Context, usr user.User, _ interface{}, _ ...core.DBExecutor) (bool, error) {
		return usr.IsStudent(), nil
	}
}

// Enrolled passes when usr has an enrollment in the object's course. The
// check always hits the enrollment source afresh. Objects without a course
// never pass.
func (c *Checker) Enrolled() Predicate {
	return func(ctx context.Context, usr user.User, obj interface{}, exec ...core.DBExecutor) (bool, error) {
		courseID, ok := CourseID(obj)
		if !ok {
			return false, nil
		}
		return c.enr.IsEnrolled(ctx, usr.ID, courseID, exec...)
	}
}

// And passes when every predicate passes; evaluation stops at the first miss.
func And(preds ...Predicate) Predicate {
	return func(ctx context.Context, usr user.User, obj interface{}, exec ...core.DBExecutor) (bool, error) {
		for _, p := range preds {
			ok, err := p(ctx, usr, obj, exec...)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

// Or passes when any predicate passes; evaluation stops at the first hit.
func Or(preds ...Predicate) Predicate {
	return func(ctx context.Context, usr user.User, obj interface{}, exec ...core.DBExecutor) (bool, error) {
		for _, p := range preds {
			ok, err := p(ctx, usr, obj, exec...)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// Authorize binds usr and pred into an authorizer a service can run against
// the loaded entity inside its transaction. A denial surfaces as a
// PermissionError.
func Authorize(ctx context.Context, usr user.User, pred Predicate) core.Authorizer {
	return authorize(ctx, usr, pred, errNotAllowed)
}

// AuthorizeEnrolled is Authorize with the plain enrollment policy and a more
// telling denial message; it covers the read paths that only require course
// membership.
func (c *Checker) AuthorizeEnrolled(ctx context.Context, usr user.User) core.Authorizer {
	return authorize(ctx, usr, c.Enrolled(), errNotEnrolled)
}

func authorize(ctx context.Context, usr user.User, pred Predicate, denied error) core.Authorizer {
	return func(obj interface{}, exec ...core.DBExecutor) error {
		ok, err := pred(ctx, usr, obj, exec...)
		if err != nil {
			return err
		}
		if !ok {
			return denied
		}
		return nil
	}
}
