package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/coursework"
	"github.com/trezcool/darasa/core/perm"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/files"
)

type submissionAPI struct {
	svc     coursework.Service
	usrSvc  user.Service
	checker *perm.Checker
	store   files.Storage
}

func registerSubmissionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc coursework.Service, usrSvc user.Service, checker *perm.Checker, store files.Storage) {
	api := submissionAPI{svc: svc, usrSvc: usrSvc, checker: checker, store: store}

	sg := g.Group("/submissions", jwt)

	sg.GET("", api.submissionQuery)
	sg.POST("", api.submissionCreate, studentMiddleware())
	sg.GET("/:id", api.submissionRetrieve)
	sg.GET("/:id/comments", api.submissionQueryComments)
}

func (api *submissionAPI) submissionCreate(ctx echo.Context) error {
	key, err := saveUpload(ctx, api.store, "file", "submissions")
	if err != nil {
		return err
	}
	assignmentID, _ := strconv.Atoi(ctx.FormValue("assignment"))
	data := coursework.NewSubmission{
		AssignmentID: assignmentID,
		File:         key,
	}
	if err = data.Validate(); err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	authz := perm.Authorize(ctx.Request().Context(), ctxUsr, perm.And(api.checker.Student(), api.checker.Enrolled()))
	s, err := api.svc.CreateSubmission(ctx.Request().Context(), ctxUsr, data, authz)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *submissionAPI) submissionQuery(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	subs, err := api.svc.QuerySubmissions(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *submissionAPI) submissionRetrieve(ctx echo.Context) error {
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
	s, err := api.svc.GetSubmission(ctx.Request().Context(), id, authz)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *submissionAPI) submissionQueryComments(ctx echo.Context) error {
	submissionID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHTTPNotFound
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	authz := perm.Authorize(ctx.Request().Context(), ctxUsr,
		perm.Or(api.checker.Owner(), perm.And(api.checker.Teacher(), api.checker.Enrolled())))
	comments, err := api.svc.QuerySubmissionComments(ctx.Request().Context(), submissionID, authz)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, comments)
}
