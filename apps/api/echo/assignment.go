package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/coursework"
	"github.com/trezcool/darasa/core/perm"
	"github.com/trezcool/darasa/core/user"
)

type assignmentAPI struct {
	svc     coursework.Service
	usrSvc  user.Service
	checker *perm.Checker
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc coursework.Service, usrSvc user.Service, checker *perm.Checker) {
	api := assignmentAPI{svc: svc, usrSvc: usrSvc, checker: checker}

	ag := g.Group("/assignments", jwt)

	ag.POST("", api.assignmentCreate, teacherMiddleware())
	ag.GET("/lecture/:lecture_id", api.assignmentQueryByLecture)
	ag.GET("/:id", api.assignmentRetrieve)
	ag.PUT("/:id", api.assignmentUpdate, teacherMiddleware())
	ag.DELETE("/:id", api.assignmentDestroy, teacherMiddleware())
}

func (api *assignmentAPI) assignmentCreate(ctx echo.Context) error {
	data := new(coursework.NewAssignment)
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
	a, err := api.svc.CreateAssignment(ctx.Request().Context(), *data, authz)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentAPI) assignmentRetrieve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHTTPNotFound
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	a, err := api.svc.GetAssignment(ctx.Request().Context(), id, api.checker.AuthorizeEnrolled(ctx.Request().Context(), ctxUsr))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentAPI) assignmentQueryByLecture(ctx echo.Context) error {
	lectureID, err := strconv.Atoi(ctx.Param("lecture_id"))
	if err != nil {
		return errHTTPNotFound
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	assigns, err := api.svc.QueryLectureAssignments(ctx.Request().Context(), lectureID, api.checker.AuthorizeEnrolled(ctx.Request().Context(), ctxUsr))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, assigns)
}

func (api *assignmentAPI) assignmentUpdate(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHTTPNotFound
	}

	data := new(coursework.UpdateAssignment)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	authz := perm.Authorize(ctx.Request().Context(), ctxUsr, perm.And(api.checker.Teacher(), api.checker.Enrolled()))
	a, err := api.svc.UpdateAssignment(ctx.Request().Context(), id, *data, authz)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentAPI) assignmentDestroy(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHTTPNotFound
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	authz := perm.Authorize(ctx.Request().Context(), ctxUsr, perm.And(api.checker.Teacher(), api.checker.Enrolled()))
	if err = api.svc.DeleteAssignment(ctx.Request().Context(), id, authz); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
