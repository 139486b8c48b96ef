package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/coursework"
	"github.com/trezcool/darasa/core/perm"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/files"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Logger   core.Logger
		Shutdown chan os.Signal

		UserSvc       user.Service
		CourseSvc     course.Service
		CourseworkSvc coursework.Service
		Checker       *perm.Checker
		FileStorage   files.Storage
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	appJWTConfig.SigningKey = core.Conf.SecretKey

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts.UserSvc)
	registerCourseAPI(v1, jwt, s.opts.CourseSvc, s.opts.UserSvc, s.opts.Checker)
	registerLectureAPI(v1, jwt, s.opts.CourseSvc, s.opts.UserSvc, s.opts.Checker, s.opts.FileStorage)
	registerAssignmentAPI(v1, jwt, s.opts.CourseworkSvc, s.opts.UserSvc, s.opts.Checker)
	registerSubmissionAPI(v1, jwt, s.opts.CourseworkSvc, s.opts.UserSvc, s.opts.Checker, s.opts.FileStorage)
	registerGradeAPI(v1, jwt, s.opts.CourseworkSvc, s.opts.UserSvc, s.opts.Checker)
	registerCommentAPI(v1, jwt, s.opts.CourseworkSvc, s.opts.UserSvc, s.opts.Checker)
}

// signalShutdown initiates a graceful app shutdown on fatal errors.
func (s *server) signalShutdown() {
	if s.opts.Shutdown != nil {
		s.opts.Shutdown <- syscall.SIGTERM
	}
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
