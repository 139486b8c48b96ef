package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/coursework"
	"github.com/trezcool/darasa/core/perm"
	"github.com/trezcool/darasa/core/user"
)

type commentAPI struct {
	svc     coursework.Service
	usrSvc  user.Service
	checker *perm.Checker
}

func registerCommentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc coursework.Service, usrSvc user.Service, checker *perm.Checker) {
	api := commentAPI{svc: svc, usrSvc: usrSvc, checker: checker}

	cg := g.Group("/comments", jwt)

	cg.POST("", api.commentCreate)
	cg.PUT("/:id", api.commentUpdate)
	cg.DELETE("/:id", api.commentDestroy)
}

// commentCreate lets the submission's author and enrolled teachers discuss a
// submission.
func (api *commentAPI) commentCreate(ctx echo.Context) error {
	data := new(coursework.NewComment)
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

	authz := perm.Authorize(ctx.Request().Context(), ctxUsr,
		perm.Or(api.checker.Owner(), perm.And(api.checker.Teacher(), api.checker.Enrolled())))
	c, err := api.svc.CreateComment(ctx.Request().Context(), ctxUsr, *data, authz)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *commentAPI) commentUpdate(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHTTPNotFound
	}

	data := new(coursework.UpdateComment)
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

	authz := perm.Authorize(ctx.Request().Context(), ctxUsr, api.checker.Owner())
	c, err := api.svc.UpdateComment(ctx.Request().Context(), id, *data, authz)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *commentAPI) commentDestroy(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHTTPNotFound
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	authz := perm.Authorize(ctx.Request().Context(), ctxUsr, api.checker.Owner())
	if err = api.svc.DeleteComment(ctx.Request().Context(), id, authz); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
