package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/coursework"
	"github.com/trezcool/darasa/core/perm"
	"github.com/trezcool/darasa/core/user"
)

type gradeAPI struct {
	svc     coursework.Service
	usrSvc  user.Service
	checker *perm.Checker
}

func registerGradeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc coursework.Service, usrSvc user.Service, checker *perm.Checker) {
	api := gradeAPI{svc: svc, usrSvc: usrSvc, checker: checker}

	gg := g.Group("/grades", jwt)

	gg.POST("", api.gradeCreate, teacherMiddleware())
	gg.GET("/:id", api.gradeRetrieve)
	gg.PUT("/:id", api.gradeUpdate, teacherMiddleware())
	gg.DELETE("/:id", api.gradeDestroy, teacherMiddleware())
}

// gradeCreate validates the payload before the enrollment check so a
// malformed score reads as a 400 and a foreign course as a 403.
func (api *gradeAPI) gradeCreate(ctx echo.Context) error {
	data := new(coursework.NewGrade)
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
	grd, err := api.svc.CreateGrade(ctx.Request().Context(), ctxUsr, *data, authz)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, grd)
}

func (api *gradeAPI) gradeRetrieve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHTTPNotFound
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	authz := perm.Authorize(ctx.Request().Context(), ctxUsr,
		perm.Or(api.checker.Owner(), perm.And(api.checker.Teacher(), api.checker.Enrolled())))
	grd, err := api.svc.GetGrade(ctx.Request().Context(), id, authz)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grd)
}

func (api *gradeAPI) gradeUpdate(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHTTPNotFound
	}

	data := new(coursework.UpdateGrade)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	if err = data.Validate(); err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	authz := perm.Authorize(ctx.Request().Context(), ctxUsr, perm.And(api.checker.Teacher(), api.checker.Enrolled()))
	grd, err := api.svc.UpdateGrade(ctx.Request().Context(), id, ctxUsr, *data, authz)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grd)
}

func (api *gradeAPI) gradeDestroy(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHTTPNotFound
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	authz := perm.Authorize(ctx.Request().Context(), ctxUsr, perm.And(api.checker.Teacher(), api.checker.Enrolled()))
	if err = api.svc.DeleteGrade(ctx.Request().Context(), id, authz); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
