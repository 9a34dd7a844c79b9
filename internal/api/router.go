package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/actiond/actiond/internal/auth"
	"github.com/actiond/actiond/internal/executions"
	"github.com/actiond/actiond/internal/httputil"
	"github.com/actiond/actiond/internal/registry"
)

// RouterConfig carries the collaborators and policy for the API router.
type RouterConfig struct {
	Controller  *executions.Controller
	Actions     registry.ActionStore
	RunnerTypes registry.RunnerTypeStore
	Logger      *slog.Logger

	// AuthToken enables bearer authentication when non-empty.
	AuthToken string

	// RateLimit configures per-client request throttling.
	RateLimit auth.RateLimitConfig
}

// NewRouter builds the HTTP handler tree: versioned API routes wrapped
// in logging, auth and rate limiting, plus unauthenticated health and
// metrics endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	NewExecutionsHandler(cfg.Controller).RegisterRoutes(mux)
	NewActionsHandler(cfg.Actions).RegisterRoutes(mux)
	NewRunnerTypesHandler(cfg.RunnerTypes).RegisterRoutes(mux)

	var api http.Handler = mux
	api = auth.Middleware(cfg.AuthToken, api)
	api = auth.NewRateLimiter(cfg.RateLimit).Middleware(api)

	root := http.NewServeMux()
	root.Handle("/v1/", api)
	root.Handle("GET /metrics", promhttp.Handler())
	root.HandleFunc("GET /healthz", handleHealthz)

	return requestLogger(cfg.Logger, root)
}

// handleHealthz reports liveness.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// requestLogger logs each request with method, path, status and latency.
func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
