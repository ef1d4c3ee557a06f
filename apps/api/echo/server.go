package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ebdapp/ebd/core"
	"github.com/ebdapp/ebd/core/class"
	"github.com/ebdapp/ebd/core/inventory"
	"github.com/ebdapp/ebd/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		UserSvc      *user.Service
		ClassSvc     *class.Service
		InventorySvc *inventory.Service

		EmailSvc core.EmailService
		Logger   core.Logger
		Shutdown func() // signals the app to shut down gracefully
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
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Shutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)
	s.app.GET("/healthz", healthz)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts.UserSvc, s.opts.ClassSvc)
	registerClassAPI(v1, jwt, s.opts.ClassSvc, s.opts.UserSvc)
	registerInventoryAPI(v1, jwt, s.opts.InventorySvc)
	registerReportAPI(v1, jwt, s.opts.ClassSvc, s.opts.UserSvc, s.opts.EmailSvc)
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
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+" API!")
}

func healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
