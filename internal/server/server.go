// Package server provides the diagnostics HTTP server. It exposes health,
// Prometheus metrics and the learned dispatch state of every operation of
// one RuntimeContext.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agbru/tieraccel/internal/accel"
	apperrors "github.com/agbru/tieraccel/internal/errors"
	"github.com/agbru/tieraccel/internal/logging"
	"github.com/agbru/tieraccel/internal/metrics"
	"github.com/agbru/tieraccel/internal/ops"
)

// Server serves diagnostics for a RuntimeContext and the operations built
// on it.
type Server struct {
	rc      *accel.RuntimeContext
	runners []ops.Runner
	addr    string

	httpServer     *http.Server
	router         chi.Router
	logger         logging.Logger
	rateLimiter    *RateLimiter
	securityConfig SecurityConfig
	metrics        *Metrics
	timeouts       Timeouts

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a server listening on addr. The metrics registry
// exports rc's counters and learned thresholds.
func NewServer(rc *accel.RuntimeContext, runners []ops.Runner, addr string, opts ...Option) *Server {
	s := &Server{
		rc:             rc,
		runners:        runners,
		addr:           addr,
		logger:         logging.NewLogger(os.Stderr, "server"),
		securityConfig: DefaultSecurityConfig(),
		metrics:        NewMetrics(metrics.NewExporter(rc.Counters, rc.Thresholds)),
		timeouts:       DefaultServerTimeouts(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rateLimiter == nil {
		s.rateLimiter = NewRateLimiter(DefaultRateLimiterConfig())
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.preflight)
	r.Get("/healthz", s.wrapWithMiddleware(s.handleHealth))
	r.Get("/metrics", s.wrapWithMiddleware(s.handleMetrics))
	r.Get("/v1/system", s.wrapWithMiddleware(s.handleSystem))
	r.Get("/v1/operations", s.wrapWithMiddleware(s.handleOperations))
	r.Get("/v1/operations/{domain}/{type}/{operation}", s.wrapWithMiddleware(s.handleOperation))
	s.router = r

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}
	return s
}

// wrapWithMiddleware applies the middleware chain to a handler:
// Security -> RateLimit -> Logging -> Metrics -> Handler.
func (s *Server) wrapWithMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	wrapped := s.metricsMiddleware(handler)
	wrapped = s.loggingMiddleware(wrapped)
	wrapped = RateLimitMiddleware(s.rateLimiter, wrapped)
	wrapped = SecurityMiddleware(s.securityConfig, wrapped)
	return wrapped
}

// preflight answers CORS preflight requests for every path before routing.
func (s *Server) preflight(next http.Handler) http.Handler {
	answer := SecurityMiddleware(s.securityConfig, func(http.ResponseWriter, *http.Request) {})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			answer(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Metrics returns the server's metrics registry owner.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Addr returns the bound address once Start is listening, the configured
// address before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Start listens on the configured address and serves until ctx is done,
// then shuts down gracefully within the shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return apperrors.NewServerError("server failed to start", err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("diagnostics server listening",
			logging.String("addr", ln.Addr().String()),
			logging.Int("operations", len(s.runners)),
			logging.String("runtime_id", s.rc.ID))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown requested, draining connections")
	case err, ok := <-errCh:
		if ok {
			return apperrors.NewServerError("server stopped unexpectedly", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
