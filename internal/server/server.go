// Package server implements the HTTP API the dashboard UI talks to.
//
// It exposes layout persistence (strict on write, salvaging on read),
// settings binding, the widget style table, and asynchronous update-check
// jobs that the browser polls for progress.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tkarrer/deckhand/pkg/layout"
	"github.com/tkarrer/deckhand/pkg/settings"
	"github.com/tkarrer/deckhand/pkg/store"
	"github.com/tkarrer/deckhand/pkg/theme"
	"github.com/tkarrer/deckhand/pkg/update"
)

// layoutPrefix scopes layout keys apart from settings in a shared backend.
const layoutPrefix = "layout:"

// Server wires the dashboard state components behind a chi router.
type Server struct {
	logger   *log.Logger
	store    store.Store
	guard    *layout.Guard
	settings *settings.Binder
	theme    *theme.Theme
	checker  *update.Checker
	jobs     *jobRegistry
	router   chi.Router
	timeout  time.Duration
}

// New assembles a server over the given backend.
// The checker may be nil, in which case the update routes report 503.
func New(st store.Store, th *theme.Theme, checker *update.Checker, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if th == nil {
		th = theme.Default()
	}

	s := &Server{
		logger:   logger,
		store:    st,
		guard:    layout.NewGuard(store.NewScoped(st, layoutPrefix), layout.WithReporter(layout.NewLogReporter(logger))),
		settings: settings.NewBinder(st),
		theme:    th,
		checker:  checker,
		jobs:     newJobRegistry(),
		timeout:  60 * time.Second,
	}
	s.router = s.routes()
	return s
}

// FromConfig builds a server and its store from environment configuration.
func FromConfig(ctx context.Context, cfg Config, logger *log.Logger) (*Server, error) {
	st, err := cfg.OpenStore(ctx)
	if err != nil {
		return nil, err
	}

	th := theme.Default()
	if cfg.ThemeFile != "" {
		th, err = theme.LoadFile(cfg.ThemeFile)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	checker, err := update.NewChecker(cfg.ReleasesURL, update.WithChannel(cfg.UpdateChannel))
	if err != nil {
		st.Close()
		return nil, err
	}

	s := New(st, th, checker, logger)
	if cfg.RequestTimeout > 0 {
		s.timeout = cfg.RequestTimeout
		s.router = s.routes()
	}
	return s, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Close releases the underlying store.
func (s *Server) Close() error { return s.store.Close() }

// ListenAndServe runs the server until the context is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", s.handleVersion)

		r.Route("/layouts/{key}", func(r chi.Router) {
			r.Get("/", s.handleLayoutGet)
			r.Put("/", s.handleLayoutPut)
			r.Delete("/", s.handleLayoutDelete)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleSettingsGet)
			r.Patch("/", s.handleSettingsPatch)
			r.Delete("/", s.handleSettingsDelete)
		})

		r.Get("/theme", s.handleThemeGet)

		r.Route("/update/checks", func(r chi.Router) {
			r.Post("/", s.handleCheckStart)
			r.Get("/{id}", s.handleCheckStatus)
		})
	})

	return r
}

// requestLogger logs one line per request through the charm logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
