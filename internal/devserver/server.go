package devserver

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/navrouter/internal/config"
	"github.com/vango-dev/navrouter/internal/errors"
	"github.com/vango-dev/navrouter/pkg/router"
	"github.com/vango-dev/navrouter/pkg/storage"
	"github.com/vango-dev/navrouter/pkg/telemetry"
)

// Options configures a Server.
type Options struct {
	// Config supplies routes, router options and the listen address.
	Config *config.Config

	// Store backs every session's history. Default: a fresh MemoryStore.
	Store storage.KV

	// Logger is used for request and session logging. Default: slog.Default().
	Logger *slog.Logger

	// Metrics records router events and request durations. Optional.
	Metrics *telemetry.Metrics

	// Gatherer is served on /metrics. Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Observer receives router events in addition to Metrics. Optional.
	Observer router.Observer
}

// Server hosts router sessions.
type Server struct {
	cfg      *config.Config
	kv       storage.KV
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	gatherer prometheus.Gatherer
	observer router.Observer
	handler  http.Handler

	mu       sync.RWMutex
	routes   []router.Route
	sessions map[string]*Session
}

// New creates a server. The configuration's routes are validated before
// the server is returned.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		opts.Config = config.New()
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		cfg:      opts.Config,
		kv:       opts.Store,
		logger:   opts.Logger.With("component", "devserver"),
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		sessions: make(map[string]*Session),
	}

	var observers []router.Observer
	if opts.Metrics != nil {
		observers = append(observers, opts.Metrics)
	}
	if opts.Observer != nil {
		observers = append(observers, opts.Observer)
	}
	s.observer = telemetry.Multi(observers...)

	if err := s.checkRoutes(opts.Config.Routes); err != nil {
		return nil, err
	}
	s.routes = opts.Config.Routes
	s.handler = s.buildRouter()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/routes", s.handleRoutes)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/navigate", s.handleNavigate)
			r.Post("/route", s.handleRedirectToRoute)
			r.Post("/back", s.handleBack)
			r.Post("/browser/back", s.handleBrowserBack)
			r.Post("/browser/forward", s.handleBrowserForward)
			r.Post("/home", s.handleHome)
			r.Post("/return", s.handleReturn)
			r.Post("/visit", s.handleVisit)
			r.Get("/ws", s.handleWebSocket)
		})
	})
	return r
}

// logRequests logs each request and records its duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		if s.metrics != nil {
			s.metrics.ObserveRequest(r.Method, pattern, status, elapsed)
		}
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Routes returns the routes new sessions are configured with.
func (s *Server) Routes() []router.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]router.Route(nil), s.routes...)
}

// Session returns a live session by ID.
func (s *Server) Session(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// OpenSession starts a session whose window begins at path.
func (s *Server) OpenSession(ctx context.Context, path string) (*Session, error) {
	if path == "" {
		path = "/"
	}
	id := uuid.NewString()
	opts := append(s.cfg.RouterOptions(),
		router.WithLogger(s.logger.With("session", id)),
		router.WithObserver(s.observer))

	sess, err := openSession(ctx, sessionConfig{
		id:       id,
		startURL: s.cfg.Server.Origin + path,
		kv:       storage.Prefixed(s.kv, "session:"+id+":"),
		routes:   s.Routes(),
		options:  opts,
		logger:   s.logger,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.SessionOpened()
	}
	s.logger.Info("session opened", "session", id, "url", sess.window.Href())
	return sess, nil
}

// CloseSession stops a session and removes it.
func (s *Server) CloseSession(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return false
	}
	sess.Close()
	if s.metrics != nil {
		s.metrics.SessionClosed()
	}
	s.logger.Info("session closed", "session", id)
	return true
}

// Reload replaces the route table and reconfigures every live session.
// Invalid routes are rejected before any session is touched.
func (s *Server) Reload(ctx context.Context, routes []router.Route) error {
	if err := s.checkRoutes(routes); err != nil {
		return err
	}

	s.mu.Lock()
	s.routes = routes
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	var first error
	for _, sess := range sessions {
		if err := sess.Configure(ctx, routes); err != nil {
			s.logger.Error("reconfigure failed", "session", sess.ID, "error", err)
			if first == nil {
				first = err
			}
		}
	}
	s.logger.Info("routes reloaded", "routes", len(routes), "sessions", len(sessions))
	return first
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ServerAddress(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close stops every session.
func (s *Server) Close() {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	for _, id := range ids {
		s.CloseSession(id)
	}
}

// checkRoutes rejects route sets the router would refuse.
func (s *Server) checkRoutes(routes []router.Route) error {
	if len(routes) == 0 {
		return errors.New(errors.CodeConfigInvalid).WithDetail("no routes configured")
	}
	return router.ValidateRoutes(routes, s.cfg.Language.Default)
}
