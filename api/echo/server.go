package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/kipiapp/kipi/core"
	"github.com/kipiapp/kipi/core/note"
	"github.com/kipiapp/kipi/core/session"
	"github.com/kipiapp/kipi/core/subject"
)

type (
	Options struct {
		Addr           string
		DisableReqLogs bool
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		Session        *session.Provider
		SubjectStore   *subject.Store
		NoteStore      *note.Store
		// Gateway proxies everything that is not /api to the app origin
		// through the offline cache controller.
		Gateway http.Handler
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Stop(context.Context) error
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator)
	s.app.Debug = conf.Debug

	v1 := s.app.Group("/api/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerSessionAPI(v1, jwt, s.opts.Session)

	// entity endpoints require an attached identity
	ag := v1.Group("", jwt, sessionMiddleware(s.opts.Session))
	registerSubjectAPI(ag, s.opts.SubjectStore, s.opts.Validate)
	registerNoteAPI(ag, s.opts.NoteStore, s.opts.Validate)
	registerScheduleAPI(ag, s.opts.SubjectStore)

	// everything else is the application shell and its assets
	if s.opts.Gateway != nil {
		s.app.Any("/*", echo.WrapHandler(s.opts.Gateway))
	}
}

func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		s.errs <- s.app.Start(s.opts.Addr)
	}()
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
