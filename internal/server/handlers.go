package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agbru/tieraccel/internal/logging"
	"github.com/agbru/tieraccel/internal/operation"
	"github.com/agbru/tieraccel/internal/ops"
	"github.com/agbru/tieraccel/internal/orchestration"
	"github.com/agbru/tieraccel/internal/sysmon"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	RuntimeID string `json:"runtime_id"`
	// NativeLoaded is true once a native module has been resolved.
	NativeLoaded bool `json:"native_loaded"`
	// NativeFailures counts native calls that fell back after an error.
	NativeFailures int64 `json:"native_failures"`
	Divergences    int64 `json:"divergences"`
}

// SystemResponse is the body of GET /v1/system.
type SystemResponse struct {
	sysmon.Stats
	NumCPU    int    `json:"num_cpu"`
	GoVersion string `json:"go_version"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleHealth reports liveness and the native path state.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	loader := s.rc.Loader
	s.writeJSONResponse(w, http.StatusOK, HealthResponse{
		Status:         "healthy",
		Timestamp:      time.Now().Unix(),
		RuntimeID:      s.rc.ID,
		NativeLoaded:   loader.Resolved() && !loader.Unavailable(),
		NativeFailures: s.rc.NativeFailures(),
		Divergences:    s.rc.Divergences(),
	})
}

// handleOperations returns the dispatch state of every operation.
func (s *Server) handleOperations(w http.ResponseWriter, _ *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"operations": orchestration.BuildReports(s.rc, s.runners),
	})
}

// handleOperation returns the dispatch state of one operation.
func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request) {
	key := operation.New(chi.URLParam(r, "domain"), chi.URLParam(r, "type"), chi.URLParam(r, "operation"))
	for _, runner := range s.runners {
		if runner.Key() == key {
			s.writeJSONResponse(w, http.StatusOK, orchestration.BuildReports(s.rc, []ops.Runner{runner})[0])
			return
		}
	}
	s.writeErrorResponse(w, http.StatusNotFound, "unknown operation "+key.String())
}

// handleSystem reports system load at request time.
func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, SystemResponse{
		Stats:     sysmon.SampleContext(r.Context()),
		NumCPU:    runtime.NumCPU(),
		GoVersion: runtime.Version(),
	})
}

// loggingMiddleware logs each request at debug level.
func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		s.logger.Debug("request served",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.String("request_id", middleware.GetReqID(r.Context())),
			logging.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000))
	}
}

// writeJSONResponse writes data as JSON with the given status code.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", err)
	}
}

// writeErrorResponse writes a standardized error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
