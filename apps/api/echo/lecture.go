package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/perm"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/files"
)

type lectureAPI struct {
	svc     course.Service
	usrSvc  user.Service
	checker *perm.Checker
	store   files.Storage
}

func registerLectureAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc course.Service, usrSvc user.Service, checker *perm.Checker, store files.Storage) {
	api := lectureAPI{svc: svc, usrSvc: usrSvc, checker: checker, store: store}

	lg := g.Group("/lectures", jwt)

	lg.GET("", api.lectureQuery)
	lg.POST("", api.lectureCreate, teacherMiddleware())
	lg.GET("/course/:course_id", api.lectureQueryByCourse)
	lg.GET("/:id", api.lectureRetrieve)
	lg.PUT("/:id", api.lectureUpdate, teacherMiddleware())
	lg.DELETE("/:id", api.lectureDestroy, teacherMiddleware())
}

// saveUpload stores the multipart file under the given key prefix and
// returns the storage key.
func saveUpload(ctx echo.Context, store files.Storage, field, prefix string) (string, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		return "", nil // no file provided
	}
	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening upload")
	}
	defer func() { _ = src.Close() }()

	return store.Save(ctx.Request().Context(), files.MakeKey(prefix, fh.Filename), src)
}

func (api *lectureAPI) lectureCreate(ctx echo.Context) error {
	key, err := saveUpload(ctx, api.store, "file", "lectures")
	if err != nil {
		return err
	}
	courseID, _ := strconv.Atoi(ctx.FormValue("course"))
	data := &course.NewLecture{
		CourseID: courseID,
		Topic:    ctx.FormValue("topic"),
		File:     key,
	}
	if err = data.Validate(); err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	authz := perm.Authorize(ctx.Request().Context(), ctxUsr, perm.And(api.checker.Teacher(), api.checker.Enrolled()))
	lect, err := api.svc.CreateLecture(ctx.Request().Context(), *data, authz)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, lect)
}

func (api *lectureAPI) lectureQuery(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	lects, err := api.svc.QueryLecturesForUser(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lects)
}

func (api *lectureAPI) lectureQueryByCourse(ctx echo.Context) error {
	courseID, err := strconv.Atoi(ctx.Param("course_id"))
	if err != nil {
		return errHTTPNotFound
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	lects, err := api.svc.QueryCourseLectures(ctx.Request().Context(), courseID, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lects)
}

func (api *lectureAPI) lectureRetrieve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHTTPNotFound
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	lect, err := api.svc.GetLecture(ctx.Request().Context(), id, api.checker.AuthorizeEnrolled(ctx.Request().Context(), ctxUsr))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lect)
}

// lectureAuthz is teacher-only unless StrictLecturePerms also demands
// enrollment in the lecture's course.
func (api *lectureAPI) lectureAuthz(ctx echo.Context, ctxUsr user.User) core.Authorizer {
	pred := api.checker.Teacher()
	if core.Conf.StrictLecturePerms {
		pred = perm.And(pred, api.checker.Enrolled())
	}
	return perm.Authorize(ctx.Request().Context(), ctxUsr, pred)
}

func (api *lectureAPI) lectureUpdate(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHTTPNotFound
	}

	key, err := saveUpload(ctx, api.store, "file", "lectures")
	if err != nil {
		return err
	}
	data := &course.UpdateLecture{
		Topic: ctx.FormValue("topic"),
		File:  key,
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	lect, err := api.svc.UpdateLecture(ctx.Request().Context(), id, *data, api.lectureAuthz(ctx, ctxUsr))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lect)
}

func (api *lectureAPI) lectureDestroy(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHTTPNotFound
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	if err = api.svc.DeleteLecture(ctx.Request().Context(), id, api.lectureAuthz(ctx, ctxUsr)); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
