package perm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/coursework"
	"github.com/trezcool/darasa/core/user"
)

type enrollmentStub struct {
	enrolled map[[2]int]bool // (userID, courseID)
}

func (s enrollmentStub) IsEnrolled(_ context.Context, userID, courseID int, _ ...core.DBExecutor) (bool, error) {
	return s.enrolled[[2]int{userID, courseID}], nil
}

func TestCourseID(t *testing.T) {
	tests := []struct {
		name string
		obj  interface{}
		want int
		ok   bool
	}{
		{name: "course resolves to itself", obj: course.Course{ID: 7}, want: 7, ok: true},
		{name: "lecture", obj: course.Lecture{ID: 1, CourseID: 7}, want: 7, ok: true},
		{name: "assignment", obj: coursework.Assignment{ID: 1, CourseID: 7}, want: 7, ok: true},
		{name: "submission", obj: coursework.Submission{ID: 1, CourseID: 7}, want: 7, ok: true},
		{name: "grade", obj: coursework.Grade{ID: 1, CourseID: 7}, want: 7, ok: true},
		{name: "comment", obj: coursework.Comment{ID: 1, CourseID: 7}, want: 7, ok: true},
		{name: "user has no course", obj: user.User{ID: 1}, want: 0, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CourseID(tt.obj)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestIsOwner(t *testing.T) {
	usr := user.User{ID: 3}
	tests := []struct {
		name string
		obj  interface{}
		want bool
	}{
		{name: "course owner", obj: course.Course{OwnerID: 3}, want: true},
		{name: "course not owner", obj: course.Course{OwnerID: 4}, want: false},
		{name: "own submission", obj: coursework.Submission{UserID: 3}, want: true},
		{name: "grade belongs to graded student", obj: coursework.Grade{TeacherID: 3, SubmitterID: 5}, want: false},
		{name: "grade owned by submitter", obj: coursework.Grade{TeacherID: 5, SubmitterID: 3}, want: true},
		{name: "own comment", obj: coursework.Comment{UserID: 3}, want: true},
		{name: "lecture has no owner", obj: course.Lecture{ID: 1}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOwner(usr, tt.obj))
		})
	}
}

func TestPredicateComposition(t *testing.T) {
	ctx := context.Background()
	teacher := user.User{ID: 1, Role: user.RoleTeacher}
	student := user.User{ID: 2, Role: user.RoleStudent}
	checker := NewChecker(enrollmentStub{enrolled: map[[2]int]bool{
		{1, 7}: true, // teacher enrolled in course 7
		{2, 7}: true, // student enrolled in course 7
	}})

	sub := coursework.Submission{ID: 10, UserID: 2, CourseID: 7}
	foreignSub := coursework.Submission{ID: 11, UserID: 9, CourseID: 8}

	// owner OR (teacher AND enrolled): the submission read policy
	policy := Or(checker.Owner(), And(checker.Teacher(), checker.Enrolled()))

	tests := []struct {
		name string
		usr  user.User
		obj  interface{}
		want bool
	}{
		{name: "owner sees own submission", usr: student, obj: sub, want: true},
		{name: "enrolled teacher sees submission", usr: teacher, obj: sub, want: true},
		{name: "student cannot see foreign submission", usr: student, obj: foreignSub, want: false},
		{name: "teacher not enrolled in foreign course", usr: teacher, obj: foreignSub, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := policy(ctx, tt.usr, tt.obj)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	student := user.User{ID: 2, Role: user.RoleStudent}
	checker := NewChecker(enrollmentStub{enrolled: map[[2]int]bool{{2, 7}: true}})

	t.Run("passes", func(t *testing.T) {
		authz := checker.AuthorizeEnrolled(ctx, student)
		assert.NoError(t, authz(course.Lecture{ID: 1, CourseID: 7}))
	})
	t.Run("denies with permission error", func(t *testing.T) {
		authz := checker.AuthorizeEnrolled(ctx, student)
		err := authz(course.Lecture{ID: 2, CourseID: 8})
		var perr *core.PermissionError
		assert.ErrorAs(t, err, &perr)
	})
	t.Run("owner policy denies non-owner", func(t *testing.T) {
		authz := Authorize(ctx, student, checker.Owner())
		err := authz(course.Course{ID: 7, OwnerID: 1})
		var perr *core.PermissionError
		assert.ErrorAs(t, err, &perr)
	})
}
