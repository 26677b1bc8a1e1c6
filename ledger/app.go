package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	_ "github.com/lib/pq"

	"github.com/alovak/cardledger/internal/middleware"
	"github.com/alovak/cardledger/internal/security"
)

// App is the main application, it contains all the components of the ledger
// service and is responsible for starting and stopping them.
type App struct {
	srv     *http.Server
	wg      *sync.WaitGroup
	Addr    string
	logger  *slog.Logger
	config  *Config
	deps    Dependencies
	journal *Journal
	Engine  *Engine
}

func NewApp(logger *slog.Logger, config *Config, deps Dependencies) *App {
	logger = logger.With(slog.String("app", "cardledger"))

	if config == nil {
		config = DefaultConfig()
	}

	return &App{
		wg:     &sync.WaitGroup{},
		logger: logger,
		config: config,
		deps:   deps,
	}
}

func (a *App) Start() error {
	a.logger.Info("starting app...")

	router := chi.NewRouter()
	router.Use(middleware.NewStructuredLogger(a.logger))

	// Choose journal backend: default to pg for runtime; allow mem only when
	// explicitly enabled for tests.
	backend := getenv("JOURNAL_BACKEND", "pg")
	allowMem := getenv("ALLOW_MEM_BACKEND_FOR_TESTS", "false") == "true"
	switch backend {
	case "pg":
		dsn := getenv("DB_DSN", "")
		if dsn == "" {
			return fmt.Errorf("DB_DSN is required for pg backend")
		}
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxIdleConns(5)
		db.SetMaxOpenConns(10)
		if err := db.Ping(); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		hashKey := []byte(getenv("PAN_HASH_KEY", "dev-secret-pepper"))
		a.journal = NewPGJournal(a.logger, db, hashKey)
	case "mem":
		if !allowMem {
			return fmt.Errorf("mem journal is disabled at runtime; set ALLOW_MEM_BACKEND_FOR_TESTS=true only in tests")
		}
		a.journal = NewJournal(a.logger)
	default:
		return fmt.Errorf("unsupported JOURNAL_BACKEND=%s", backend)
	}

	if a.deps.Codes == nil {
		provider, err := security.NewHMACProvider([]byte(getenv("VERIFY_KEY", "dev-verify-key")))
		if err != nil {
			return fmt.Errorf("verification code provider: %w", err)
		}
		a.deps.Codes = provider
	}
	a.deps.Sink = MultiSink{NewSlogSink(a.logger), a.journal}

	a.Engine = NewEngine(a.logger, a.config, a.deps)

	api := NewAPI(a.Engine)
	api.AppendRoutes(router)

	router.Get("/-/live", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	router.Get("/-/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.journal.Ping(ctx); err != nil {
			http.Error(w, "journal not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	l, err := net.Listen("tcp", a.config.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening tcp port: %w", err)
	}

	a.Addr = l.Addr().String()

	a.srv = &http.Server{
		Handler: router,
	}

	a.wg.Add(1)
	go func() {
		a.logger.Info("http server started", slog.String("addr", a.Addr))

		if err := a.srv.Serve(l); err != nil {
			if err != http.ErrServerClosed {
				a.logger.Error("starting http server", "err", err)
			}

			a.logger.Info("http server stopped")
		}

		a.wg.Done()
	}()

	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func (a *App) Shutdown() {
	a.logger.Info("shutting down app...")

	a.srv.Shutdown(context.Background())

	a.wg.Wait()

	a.logger.Info("app stopped")
}
