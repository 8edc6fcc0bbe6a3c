package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0xmhha/sdlogger/pkg/journal"
	"github.com/0xmhha/sdlogger/pkg/logger"
)

// server implements the Server interface.
type server struct {
	config Config
	deps   Deps
	log    logger.Logger
	router chi.Router

	mu   sync.Mutex
	addr net.Addr
}

// New creates an HTTP server for the controller.
//
// Parameters:
//   - cfg: Server configuration
//   - deps: Controller and optional session journal
//   - log: Logger for request and lifecycle messages
//
// Returns a Server or ErrNoController.
func New(cfg Config, deps Deps, log logger.Logger) (Server, error) {
	if deps.Controller == nil {
		return nil, ErrNoController
	}
	if log == nil {
		log = logger.Noop()
	}

	if cfg.ToggleRate <= 0 {
		cfg.ToggleRate = 10
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}

	s := &server{
		config: cfg,
		deps:   deps,
		log:    log.With("component", "api"),
	}
	s.router = s.routes()

	return s, nil
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/status", s.handleStatus)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.handleSessions)
		r.Get("/{index}", s.handleSession)
	})
	r.With(s.toggleLimit()).Post("/toggle", s.handleToggle)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// toggleLimit limits presses per client IP over a one-minute window.
func (s *server) toggleLimit() func(http.Handler) http.Handler {
	return httprate.Limit(
		s.config.ToggleRate,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "too many toggles, try again later")
		}),
	)
}

// logRequests logs each request at debug level.
func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}

func (s *server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Controller.Status())
}

func (s *server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "journal_disabled", "")
		return
	}

	entries, err := s.deps.Sessions.List()
	if err != nil {
		s.log.Warn("failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "journal_error", err.Error())
		return
	}
	if entries == nil {
		entries = []*journal.Entry{}
	}

	writeJSON(w, http.StatusOK, entries)
}

func (s *server) handleSession(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "journal_disabled", "")
		return
	}

	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_index", err.Error())
		return
	}

	entry, err := s.deps.Sessions.Get(uint32(index))
	switch {
	case errors.Is(err, journal.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case err != nil:
		s.log.Warn("failed to read session", "index", index, "error", err)
		writeError(w, http.StatusInternalServerError, "journal_error", err.Error())
	default:
		writeJSON(w, http.StatusOK, entry)
	}
}

func (s *server) handleToggle(w http.ResponseWriter, r *http.Request) {
	ctl := s.deps.Controller
	ctl.Press()

	st := ctl.Status()
	s.log.Info("toggle requested", "remote", r.RemoteAddr, "state", st.State.String())

	writeJSON(w, http.StatusAccepted, toggleResponse{
		Accepted: true,
		State:    st.State,
		Pending:  st.PendingPresses,
	})
}

// Handler implements Server.Handler.
func (s *server) Handler() http.Handler {
	return s.router
}

// Addr implements Server.Addr.
func (s *server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run implements Server.Run.
func (s *server) Run(ctx context.Context) error {
	if s.config.Listen == "" {
		return ErrNoListenAddress
	}

	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.log.Info("http server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	<-errCh

	s.log.Info("http server stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, errorResponse{Error: code, Detail: detail})
}
