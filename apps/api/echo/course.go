package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/perm"
	"github.com/trezcool/darasa/core/user"
)

type courseAPI struct {
	svc     course.Service
	usrSvc  user.Service
	checker *perm.Checker
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc course.Service, usrSvc user.Service, checker *perm.Checker) {
	api := courseAPI{svc: svc, usrSvc: usrSvc, checker: checker}

	cg := g.Group("/courses", jwt)

	cg.GET("", api.courseQuery)
	cg.POST("", api.courseCreate, teacherMiddleware())
	cg.POST("/enroll", api.courseEnroll, teacherMiddleware())
	cg.POST("/unenroll", api.courseUnenroll, teacherMiddleware())
	cg.GET("/:id", api.courseRetrieve)
	cg.PUT("/:id", api.courseUpdate, teacherMiddleware())
	cg.DELETE("/:id", api.courseDestroy, teacherMiddleware())
}

func (api *courseAPI) courseCreate(ctx echo.Context) error {
	data := new(course.NewCourse)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	crs, err := api.svc.Create(ctx.Request().Context(), ctxUsr, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseAPI) courseQuery(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	courses, err := api.svc.QueryForUser(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseAPI) courseRetrieve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHTTPNotFound
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	detail, err := api.svc.Get(ctx.Request().Context(), id, api.checker.AuthorizeEnrolled(ctx.Request().Context(), ctxUsr))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *courseAPI) courseUpdate(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHTTPNotFound
	}

	data := new(course.UpdateCourse)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	authz := perm.Authorize(ctx.Request().Context(), ctxUsr, perm.And(api.checker.Teacher(), api.checker.Owner()))
	crs, err := api.svc.Update(ctx.Request().Context(), id, *data, authz)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseAPI) courseDestroy(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHTTPNotFound
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	authz := perm.Authorize(ctx.Request().Context(), ctxUsr, perm.And(api.checker.Teacher(), api.checker.Owner()))
	if err = api.svc.Delete(ctx.Request().Context(), id, authz); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseAPI) courseEnroll(ctx echo.Context) error {
	data := new(course.NewEnrollment)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	authz := perm.Authorize(ctx.Request().Context(), ctxUsr, perm.And(api.checker.Teacher(), api.checker.Enrolled()))
	enr, err := api.svc.Enroll(ctx.Request().Context(), *data, authz)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseAPI) courseUnenroll(ctx echo.Context) error {
	data := new(course.NewEnrollment)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	authz := perm.Authorize(ctx.Request().Context(), ctxUsr, perm.And(api.checker.Teacher(), api.checker.Enrolled()))
	if err = api.svc.Unenroll(ctx.Request().Context(), *data, authz); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
