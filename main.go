package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/kipiapp/kipi/api/echo"
	"github.com/kipiapp/kipi/core"
	"github.com/kipiapp/kipi/core/note"
	"github.com/kipiapp/kipi/core/session"
	"github.com/kipiapp/kipi/core/subject"
	"github.com/kipiapp/kipi/offline"
	"github.com/kipiapp/kipi/offline/cache"
	logsvc "github.com/kipiapp/kipi/services/logger"
	notifysvc "github.com/kipiapp/kipi/services/notify"
	inmemdb "github.com/kipiapp/kipi/storage/remote/inmem"
	restdb "github.com/kipiapp/kipi/storage/remote/rest"
	sqlxrepos "github.com/kipiapp/kipi/storage/remote/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "KIPI : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	notifier := notifysvc.NewConsoleService(conf)

	// set up the offline cache
	cacheDB, err := cache.Open(conf.Cache.Path)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening cache: %v", err), err)
	}
	defer func() { _ = cacheDB.Close() }()

	controller, err := offline.NewController(conf, cacheDB, nil, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up offline controller: %v", err), err)
	}
	ctx := context.Background()
	if err = controller.Install(ctx); err != nil {
		// a failed install is not fatal: the gateway still works, just
		// without offline fallbacks for this version
		logger.Warn("offline install failed; continuing without precache", err)
	} else if err = controller.Activate(ctx); err != nil {
		logger.Warn("offline activate failed; continuing without caching", err)
	}

	// set up remote persistence, routed through the caching policy
	subjRepo, noteRepo := setupRepositories(conf, controller, logger)

	// set up the session and entity stores
	sess := session.NewProvider(conf)
	subjStore := subject.NewStore(subjRepo, sess, logger, notifier)
	noteStore := note.NewStore(noteRepo, sess, logger, notifier)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddr, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	gateway, err := offline.NewGateway(conf, controller, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up gateway: %v", err), err)
	}

	server := echoapi.NewServer(&echoapi.Options{
		Addr:         conf.Server.Addr,
		Conf:         conf,
		Logger:       logger,
		Validate:     validate,
		Translator:   translator,
		Session:      sess,
		SubjectStore: subjStore,
		NoteStore:    noteStore,
		Gateway:      gateway,
	})
	server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		stopCtx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Stop(stopCtx); err != nil {
			logger.Error(fmt.Sprintf("graceful shutdown failed: %v", err), err)
		}
	}
}

// setupRepositories selects the persistence backend. The hosted row store is
// the normal mode; a direct database connection serves self-hosted
// deployments, and the in-memory store backs dev mode.
func setupRepositories(conf *core.Config, transport http.RoundTripper, logger core.Logger) (subject.Repository, note.Repository) {
	switch conf.Remote.Engine {
	case "inmem":
		db := inmemdb.Open()
		return inmemdb.NewSubjectRepository(db), inmemdb.NewNoteRepository(db)
	case "rest":
		client := restdb.NewClient(conf, transport)
		return restdb.NewSubjectRepository(client), restdb.NewNoteRepository(client)
	default:
		db, err := sqlxrepos.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("connecting to database: %v", err), err)
		}
		return sqlxrepos.NewSubjectRepository(db), sqlxrepos.NewNoteRepository(db)
	}
}

func newTranslator() ut.Translator {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")
	return translator
}
